// Package activity defines the canonical message/event unit exchanged between
// a channel and an agent. It covers:
//
//   - The Activity value type with wire-faithful JSON round-tripping (unknown
//     fields received from a channel are preserved opaquely and re-emitted)
//   - Factory parsing with validation (FromObject / FromBytes)
//   - ConversationReference derivation for resuming conversations later
//   - The bot/agent wire-compatibility shim applied at the serialization
//     boundary (NormalizeIncoming / NormalizeOutgoing)
//
// Activities are created once per inbound request and treated as read-mostly
// for the duration of a turn; Type and Conversation.ID must not be mutated
// after construction. Helpers that redirect an activity to another
// conversation (ApplyConversationReference) mutate in place, so callers clone
// first when the original is still needed.
package activity
