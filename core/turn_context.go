package core

import (
	"context"
	"fmt"

	"github.com/hupe1980/agenthost/activity"
	"github.com/hupe1980/agenthost/logging"
)

// Phase tracks a turn through its lifecycle. A turn is created, processed by
// the pipeline, and ends either completed or faulted. Exposed for
// observability; the pipeline advances it, handlers only read it.
type Phase int

const (
	// PhaseCreated means the context exists but the pipeline has not started.
	PhaseCreated Phase = iota
	// PhaseProcessing means middleware/route handlers are executing.
	PhaseProcessing
	// PhaseCompleted means the turn finished and dirty state was persisted.
	PhaseCompleted
	// PhaseFaulted means a handler or middleware error propagated out.
	PhaseFaulted
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseCreated:
		return "created"
	case PhaseProcessing:
		return "processing"
	case PhaseCompleted:
		return "completed"
	case PhaseFaulted:
		return "faulted"
	default:
		return "unknown"
	}
}

// SendHandler intercepts outbound activities. Handlers run in registration
// order; each must invoke next to continue delivery. Not calling next drops
// the send, mirroring middleware interception semantics.
type SendHandler func(tc *TurnContext, activities []*activity.Activity, next func() ([]activity.ResourceResponse, error)) ([]activity.ResourceResponse, error)

// TurnContext carries everything a handler needs for one inbound activity:
// the activity itself, the verified caller identity, the adapter for outbound
// traffic, and a per-turn cache shared by the state layer. One TurnContext
// exists per turn; it is never shared across turns, never persisted, and is
// confined to the goroutine running the turn.
type TurnContext struct {
	Context  context.Context
	Activity *activity.Activity
	Identity Claims

	adapter      Adapter
	phase        Phase
	responded    bool
	sendHandlers []SendHandler
	cache        map[string]any

	*loggerAdapter
}

// NewTurnContext creates a context for one inbound activity. A nil logger is
// replaced with a no-op logger.
func NewTurnContext(ctx context.Context, adapter Adapter, act *activity.Activity, identity Claims, logger logging.Logger) *TurnContext {
	return &TurnContext{
		Context:       ctx,
		Activity:      act,
		Identity:      identity,
		adapter:       adapter,
		phase:         PhaseCreated,
		cache:         map[string]any{},
		loggerAdapter: newLoggerAdapter(logger),
	}
}

// Adapter returns the adapter this turn sends through.
func (tc *TurnContext) Adapter() Adapter { return tc.adapter }

// Done mirrors context.Context's Done.
func (tc *TurnContext) Done() <-chan struct{} { return tc.Context.Done() }

// Err returns the cancellation error (if any) from the underlying context.
func (tc *TurnContext) Err() error { return tc.Context.Err() }

// Phase returns the turn's current lifecycle phase.
func (tc *TurnContext) Phase() Phase { return tc.phase }

// SetPhase advances the lifecycle phase. Called by the pipeline.
func (tc *TurnContext) SetPhase(p Phase) { tc.phase = p }

// Responded reports whether a non-typing activity was sent during this turn.
func (tc *TurnContext) Responded() bool { return tc.responded }

// Get returns a value from the per-turn cache. The cache lives and dies with
// the turn; the state layer uses it to guarantee each scope is loaded at most
// once per turn.
func (tc *TurnContext) Get(key string) (any, bool) {
	v, ok := tc.cache[key]
	return v, ok
}

// Set stores a value in the per-turn cache.
func (tc *TurnContext) Set(key string, value any) {
	tc.cache[key] = value
}

// OnSendActivities registers a hook invoked for every outbound send in this
// turn. Hooks run in registration order around the adapter call.
func (tc *TurnContext) OnSendActivities(handler SendHandler) {
	tc.sendHandlers = append(tc.sendHandlers, handler)
}

// SendText sends a plain text message activity to the conversation.
func (tc *TurnContext) SendText(text string) (activity.ResourceResponse, error) {
	return tc.SendActivity(activity.NewMessageActivity(text))
}

// SendActivity sends a single activity; see SendActivities.
func (tc *TurnContext) SendActivity(a *activity.Activity) (activity.ResourceResponse, error) {
	responses, err := tc.SendActivities(a)
	if err != nil {
		return activity.ResourceResponse{}, err
	}
	if len(responses) == 0 {
		return activity.ResourceResponse{}, nil
	}
	return responses[0], nil
}

// SendActivities stamps each outbound activity with the inbound conversation
// reference (clones first; the caller's activities are not mutated), runs the
// registered send hooks, and delegates delivery to the adapter. Activities
// with no type default to message.
func (tc *TurnContext) SendActivities(acts ...*activity.Activity) ([]activity.ResourceResponse, error) {
	if tc.adapter == nil {
		return nil, fmt.Errorf("turn context has no adapter configured")
	}

	ref := tc.Activity.GetConversationReference()
	out := make([]*activity.Activity, 0, len(acts))
	for _, a := range acts {
		stamped := a.Clone()
		if stamped.Type == "" {
			stamped.Type = activity.TypeMessage
		}
		stamped.ApplyConversationReference(ref, false)
		out = append(out, stamped)
	}

	responses, err := tc.emitThroughHandlers(out, 0)
	if err != nil {
		return nil, err
	}

	for _, a := range out {
		if a.Type != activity.TypeTyping {
			tc.responded = true
			break
		}
	}
	return responses, nil
}

func (tc *TurnContext) emitThroughHandlers(acts []*activity.Activity, index int) ([]activity.ResourceResponse, error) {
	if index < len(tc.sendHandlers) {
		handler := tc.sendHandlers[index]
		return handler(tc, acts, func() ([]activity.ResourceResponse, error) {
			return tc.emitThroughHandlers(acts, index+1)
		})
	}
	return tc.adapter.SendActivities(tc, acts)
}
