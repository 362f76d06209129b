// Package config loads host configuration from the environment.
package config
