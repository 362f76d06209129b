// Package testutil contains shared helpers for package tests: a channel
// adapter that records outbound activities instead of sending them, a
// storage wrapper that counts operations, and builders for inbound
// activities and turn contexts.
package testutil
