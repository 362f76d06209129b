package core_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agenthost/activity"
	"github.com/hupe1980/agenthost/core"
	"github.com/hupe1980/agenthost/internal/testutil"
)

func TestTurnContext_SendTextStampsReference(t *testing.T) {
	tc, adapter := testutil.TurnContext(nil)

	res, err := tc.SendText("hi there")
	require.NoError(t, err)
	assert.Equal(t, "res-1", res.ID)

	sent := adapter.LastSent()
	require.NotNil(t, sent)
	assert.Equal(t, activity.TypeMessage, sent.Type)
	assert.Equal(t, "hi there", sent.Text)
	assert.Equal(t, "test", sent.ChannelID)
	assert.Equal(t, "conv-1", sent.Conversation.ID)
	// outbound direction: from the agent, to the user, replying to the
	// inbound activity
	assert.Equal(t, "agent-1", sent.From.ID)
	assert.Equal(t, "user-1", sent.Recipient.ID)
	assert.Equal(t, "act-1", sent.ReplyToID)
}

func TestTurnContext_SendDoesNotMutateCaller(t *testing.T) {
	tc, _ := testutil.TurnContext(nil)

	out := &activity.Activity{Text: "raw"}
	_, err := tc.SendActivity(out)
	require.NoError(t, err)

	assert.Empty(t, out.Type)
	assert.Nil(t, out.From)
	assert.Empty(t, out.ReplyToID)
}

func TestTurnContext_UntypedActivityDefaultsToMessage(t *testing.T) {
	tc, adapter := testutil.TurnContext(nil)

	_, err := tc.SendActivity(&activity.Activity{Text: "untyped"})
	require.NoError(t, err)
	assert.Equal(t, activity.TypeMessage, adapter.LastSent().Type)
}

func TestTurnContext_Responded(t *testing.T) {
	tc, _ := testutil.TurnContext(nil)
	assert.False(t, tc.Responded())

	_, err := tc.SendActivity(&activity.Activity{Type: activity.TypeTyping})
	require.NoError(t, err)
	assert.False(t, tc.Responded(), "typing alone should not count as a response")

	_, err = tc.SendText("real answer")
	require.NoError(t, err)
	assert.True(t, tc.Responded())
}

func TestTurnContext_SendHandlersRunInOrder(t *testing.T) {
	tc, adapter := testutil.TurnContext(nil)

	var order []string
	tc.OnSendActivities(func(tc *core.TurnContext, acts []*activity.Activity, next func() ([]activity.ResourceResponse, error)) ([]activity.ResourceResponse, error) {
		order = append(order, "first")
		return next()
	})
	tc.OnSendActivities(func(tc *core.TurnContext, acts []*activity.Activity, next func() ([]activity.ResourceResponse, error)) ([]activity.ResourceResponse, error) {
		order = append(order, "second")
		acts[0].Text = "rewritten"
		return next()
	})

	_, err := tc.SendText("original")
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "second"}, order)
	assert.Equal(t, "rewritten", adapter.LastSent().Text)
}

func TestTurnContext_SendHandlerCanDropSend(t *testing.T) {
	tc, adapter := testutil.TurnContext(nil)

	tc.OnSendActivities(func(tc *core.TurnContext, acts []*activity.Activity, next func() ([]activity.ResourceResponse, error)) ([]activity.ResourceResponse, error) {
		return nil, nil // swallow without calling next
	})

	_, err := tc.SendText("never delivered")
	require.NoError(t, err)
	assert.Empty(t, adapter.Sent())
}

func TestTurnContext_SendErrorPropagates(t *testing.T) {
	tc, adapter := testutil.TurnContext(nil)
	adapter.SendErr = errors.New("channel down")

	_, err := tc.SendText("hi")
	require.Error(t, err)
	assert.Equal(t, "channel down", err.Error())
	assert.False(t, tc.Responded())
}

func TestTurnContext_Phase(t *testing.T) {
	tc, _ := testutil.TurnContext(nil)

	assert.Equal(t, core.PhaseCreated, tc.Phase())
	tc.SetPhase(core.PhaseProcessing)
	assert.Equal(t, core.PhaseProcessing, tc.Phase())
	assert.Equal(t, "processing", tc.Phase().String())
}

func TestTurnContext_Cache(t *testing.T) {
	tc, _ := testutil.TurnContext(nil)

	_, ok := tc.Get("missing")
	assert.False(t, ok)

	tc.Set("k", 42)
	v, ok := tc.Get("k")
	require.True(t, ok)
	assert.Equal(t, 42, v)
}

func TestTurnContext_NoAdapter(t *testing.T) {
	tc := core.NewTurnContext(context.Background(), nil, testutil.MessageActivity("hi"), nil, nil)

	_, err := tc.SendText("hi")
	require.Error(t, err)
}

func TestClaims_Accessors(t *testing.T) {
	c := core.Claims{"aud": "api://app-id", "sub": "user-1"}
	assert.Equal(t, "api://app-id", c.Audience())
	assert.Equal(t, "user-1", c.Subject())

	var empty core.Claims
	assert.Empty(t, empty.Audience())
	assert.Empty(t, empty.Subject())
}
