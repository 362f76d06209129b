package testutil

import (
	"context"

	"github.com/hupe1980/agenthost/activity"
	"github.com/hupe1980/agenthost/core"
	"github.com/hupe1980/agenthost/logging"
)

// MessageActivity builds an inbound message activity on the "test" channel
// with a fixed conversation and user, the shape most tests need.
func MessageActivity(text string) *activity.Activity {
	return &activity.Activity{
		Type:         activity.TypeMessage,
		ID:           "act-1",
		Text:         text,
		ChannelID:    "test",
		ServiceURL:   "https://test.example",
		Conversation: &activity.ConversationAccount{ID: "conv-1"},
		From:         &activity.ChannelAccount{ID: "user-1", Name: "User"},
		Recipient:    &activity.ChannelAccount{ID: "agent-1", Name: "Agent"},
	}
}

// TurnContext builds a turn context over a fresh TestAdapter for the given
// activity. A nil activity defaults to MessageActivity("hello").
func TurnContext(act *activity.Activity) (*core.TurnContext, *TestAdapter) {
	if act == nil {
		act = MessageActivity("hello")
	}
	adapter := NewTestAdapter()
	tc := core.NewTurnContext(context.Background(), adapter, act, core.Claims{}, logging.NoOpLogger{})
	return tc, adapter
}
