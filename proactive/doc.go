// Package proactive lets an agent message a conversation outside any inbound
// turn. During a turn the conversation reference is captured and persisted;
// later, Actions looks the reference up and continues the conversation
// through the adapter.
//
// Stored references can carry an absolute expiry. Expiry is enforced lazily:
// an expired record is deleted the first time it is read, never by a
// background sweeper.
package proactive
