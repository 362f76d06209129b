// Package core provides the foundational contracts and the per-turn execution
// context used by agenthost. It defines:
//
//   - Storage (narrow key/value persistence contract consumed by state and
//     proactive messaging; implementations live in the storage package)
//   - Adapter (send / continue-conversation boundary to the channel
//     transport; the routing core calls it but never implements transport)
//   - TurnContext (ephemeral per-activity scope through which handlers send
//     activities and reach turn-cached data)
//   - Claims (verified caller identity attached to a turn)
//
// The package intentionally keeps implementation concerns (persistence,
// channel transport, route dispatch) out of scope, exposing small interfaces
// so custom backends and hosts can be plugged in without touching the
// pipeline.
package core
