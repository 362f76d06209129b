package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/agenthost/activity"
	"github.com/hupe1980/agenthost/core"
	"github.com/hupe1980/agenthost/logging"
)

// TestAdapter implements core.Adapter by capturing outbound activities in
// memory. ContinueConversation synthesizes a turn context from the reference
// the way a transport adapter would, so proactive flows are testable without
// a channel.
type TestAdapter struct {
	mu      sync.Mutex
	sent    []*activity.Activity
	nextID  int
	SendErr error // when set, SendActivities fails with this error
}

// NewTestAdapter creates an empty capturing adapter.
func NewTestAdapter() *TestAdapter {
	return &TestAdapter{}
}

// SendActivities records the activities and fabricates sequential response ids.
func (a *TestAdapter) SendActivities(_ *core.TurnContext, activities []*activity.Activity) ([]activity.ResourceResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.SendErr != nil {
		return nil, a.SendErr
	}

	responses := make([]activity.ResourceResponse, 0, len(activities))
	for _, act := range activities {
		a.nextID++
		a.sent = append(a.sent, act)
		responses = append(responses, activity.ResourceResponse{ID: fmt.Sprintf("res-%d", a.nextID)})
	}
	return responses, nil
}

// ContinueConversation builds a turn context addressed by the reference and
// runs logic inside it.
func (a *TestAdapter) ContinueConversation(ctx context.Context, identity core.Claims, ref *activity.ConversationReference, logic func(*core.TurnContext) error) error {
	act := &activity.Activity{Type: activity.TypeEvent, Name: "continueConversation"}
	act.ApplyConversationReference(ref, true)
	tc := core.NewTurnContext(ctx, a, act, identity, logging.NoOpLogger{})
	return logic(tc)
}

// Sent returns a snapshot of all captured activities in send order.
func (a *TestAdapter) Sent() []*activity.Activity {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*activity.Activity, len(a.sent))
	copy(out, a.sent)
	return out
}

// LastSent returns the most recently captured activity, or nil.
func (a *TestAdapter) LastSent() *activity.Activity {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.sent) == 0 {
		return nil
	}
	return a.sent[len(a.sent)-1]
}

// Reset clears the captured activities.
func (a *TestAdapter) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sent = nil
	a.nextID = 0
}
