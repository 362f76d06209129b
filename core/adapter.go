package core

import (
	"context"

	"github.com/hupe1980/agenthost/activity"
)

// Claims is the verified identity (decoded JWT payload) of the caller that
// triggered a turn. The routing core only carries it; validation happens at
// the host boundary before a turn starts.
type Claims map[string]any

// Audience returns the "aud" claim, or "" when absent.
func (c Claims) Audience() string {
	aud, _ := c["aud"].(string)
	return aud
}

// Subject returns the "sub" claim, or "" when absent.
func (c Claims) Subject() string {
	sub, _ := c["sub"].(string)
	return sub
}

// Adapter is the boundary between the routing core and a channel transport.
// The core depends on it only through this narrow interface; it never
// implements transport itself.
type Adapter interface {
	// SendActivities delivers outbound activities for the given turn and
	// returns the per-activity channel acknowledgements in order.
	SendActivities(tc *TurnContext, activities []*activity.Activity) ([]activity.ResourceResponse, error)

	// ContinueConversation synthesizes a turn context for a previously stored
	// conversation reference and runs logic inside it. Used for proactive
	// sends outside any inbound turn.
	ContinueConversation(ctx context.Context, identity Claims, ref *activity.ConversationReference, logic func(*TurnContext) error) error
}
