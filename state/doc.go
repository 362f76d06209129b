// Package state implements layered, turn-scoped agent state on top of the
// core.Storage contract.
//
// State is partitioned into named scopes (conversation, user, temp, plus any
// custom scope) whose storage keys are derived from the inbound activity so
// conversation data never collides across channels and user data never
// collides across conversations. A TurnState loads all persistable scopes in
// one batched read at the start of a turn, caches them on the turn context so
// they are never loaded twice within the same turn, and at turn end persists
// only the scopes whose content actually changed, detected by comparing a
// hash of the serialized content against the hash captured at load time.
// Save is therefore idempotent: calling it again without further mutation
// issues no writes.
//
// Values are addressed with dotted paths of at most two segments,
// "scope.property"; a bare "property" resolves to the temp scope. Deeper
// nesting is reached through the returned sub-maps, not through the path API,
// which rejects longer paths with a *PathError instead of guessing.
//
// There is no cross-turn mutual exclusion: two concurrent turns for the same
// conversation each load, mutate and save independently, and the later save
// wins at the storage layer. Backends that enforce ETags can tighten this.
package state
