package proactive_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agenthost/activity"
	"github.com/hupe1980/agenthost/app"
	"github.com/hupe1980/agenthost/core"
	"github.com/hupe1980/agenthost/internal/testutil"
	"github.com/hupe1980/agenthost/logging"
	"github.com/hupe1980/agenthost/proactive"
	"github.com/hupe1980/agenthost/state"
	"github.com/hupe1980/agenthost/storage"
)

func testReference() *activity.ConversationReference {
	return testutil.MessageActivity("hi").GetConversationReference()
}

func TestActions_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	actions := proactive.NewActions(storage.NewMemory(), testutil.NewTestAdapter())

	identity := core.Claims{"aud": "api://app"}
	require.NoError(t, actions.SaveReference(ctx, "conv-1", "test", identity, testReference(), 0))

	record, err := actions.GetReference(ctx, "conv-1", "test")
	require.NoError(t, err)
	assert.Equal(t, "conv-1", record.ConversationID)
	assert.Equal(t, "test", record.ChannelID)
	assert.Equal(t, "api://app", record.Identity.Audience())
	require.NotNil(t, record.Reference)
	assert.Equal(t, "conv-1", record.Reference.Conversation.ID)
	assert.True(t, record.ExpiresUTC.IsZero(), "no TTL means no expiry")
}

func TestActions_GetUnknownConversation(t *testing.T) {
	actions := proactive.NewActions(storage.NewMemory(), testutil.NewTestAdapter())

	_, err := actions.GetReference(context.Background(), "nope", "test")
	require.Error(t, err)
	assert.ErrorIs(t, err, proactive.ErrReferenceNotFound)
	assert.Contains(t, err.Error(), "No proactive reference found")
	assert.Contains(t, err.Error(), "test:nope")
}

func TestActions_ExpiredReferenceIsDeletedOnRead(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	spy := testutil.NewSpyStorage(storage.NewMemory())
	actions := proactive.NewActions(spy, testutil.NewTestAdapter(), func(o *proactive.Options) {
		o.Now = clock
	})

	require.NoError(t, actions.SaveReference(ctx, "conv-1", "test", nil, testReference(), time.Minute))

	// still live just before expiry
	now = now.Add(59 * time.Second)
	_, err := actions.GetReference(ctx, "conv-1", "test")
	require.NoError(t, err)

	now = now.Add(2 * time.Second)
	_, err = actions.GetReference(ctx, "conv-1", "test")
	assert.ErrorIs(t, err, proactive.ErrReferenceNotFound)
	assert.Equal(t, 1, spy.Deletes(), "expired record is removed on read")

	// the record really is gone, not just filtered
	items, readErr := spy.Inner.Read(ctx, []string{proactive.StorageKey("test", "conv-1")})
	require.NoError(t, readErr)
	assert.Empty(t, items)
}

func TestActions_TTLOverrideBeatsDefault(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	actions := proactive.NewActions(storage.NewMemory(), testutil.NewTestAdapter(), func(o *proactive.Options) {
		o.ReferenceTTL = time.Hour
		o.Now = func() time.Time { return now }
	})

	require.NoError(t, actions.SaveReference(ctx, "conv-1", "test", nil, testReference(), time.Minute))

	record, err := actions.GetReference(ctx, "conv-1", "test")
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Minute), record.ExpiresUTC)
}

func TestActions_DeleteReference(t *testing.T) {
	ctx := context.Background()
	actions := proactive.NewActions(storage.NewMemory(), testutil.NewTestAdapter())

	require.NoError(t, actions.SaveReference(ctx, "conv-1", "test", nil, testReference(), 0))
	require.NoError(t, actions.DeleteReference(ctx, "conv-1", "test"))

	_, err := actions.GetReference(ctx, "conv-1", "test")
	assert.ErrorIs(t, err, proactive.ErrReferenceNotFound)

	// deleting again is a no-op
	require.NoError(t, actions.DeleteReference(ctx, "conv-1", "test"))
}

func TestActions_SendActivities(t *testing.T) {
	ctx := context.Background()
	adapter := testutil.NewTestAdapter()
	actions := proactive.NewActions(storage.NewMemory(), adapter)

	require.NoError(t, actions.SaveReference(ctx, "conv-1", "test", nil, testReference(), 0))

	ids, err := actions.SendActivities(ctx, "conv-1", "test", []*activity.Activity{
		activity.NewMessageActivity("wake up"),
		activity.NewMessageActivity("second"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"res-1", "res-2"}, ids)

	sent := adapter.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "wake up", sent[0].Text)
	assert.Equal(t, "conv-1", sent[0].Conversation.ID, "delivered into the stored conversation")
}

func TestActions_SendActivitiesUnknownConversation(t *testing.T) {
	actions := proactive.NewActions(storage.NewMemory(), testutil.NewTestAdapter())

	_, err := actions.SendActivities(context.Background(), "ghost", "test", []*activity.Activity{
		activity.NewMessageActivity("hi"),
	})
	assert.ErrorIs(t, err, proactive.ErrReferenceNotFound)
}

func TestActions_SendActivitiesEmptySliceIsNoOp(t *testing.T) {
	adapter := testutil.NewTestAdapter()
	actions := proactive.NewActions(storage.NewMemory(), adapter)

	ids, err := actions.SendActivities(context.Background(), "conv-1", "test", nil)
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.Empty(t, adapter.Sent())
}

func TestActions_AutoPersistence(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	adapter := testutil.NewTestAdapter()
	actions := proactive.NewActions(mem, adapter)

	application, err := app.New(func(o *app.Options) {
		o.Adapter = adapter
		o.Storage = mem
	})
	require.NoError(t, err)
	application.OnActivity(activity.TypeMessage, func(_ *core.TurnContext, _ *state.TurnState) error {
		return nil
	})
	actions.RegisterAutoPersistence(application)

	tc, _ := testutil.TurnContext(nil)
	_, err = application.Run(tc)
	require.NoError(t, err)

	record, err := actions.GetReference(ctx, "conv-1", "test")
	require.NoError(t, err)
	assert.Equal(t, "conv-1", record.Reference.Conversation.ID)

	// endOfConversation drops the stored reference
	end := testutil.MessageActivity("bye")
	end.Type = activity.TypeEndOfConversation
	tc2, _ := testutil.TurnContext(end)
	_, err = application.Run(tc2)
	require.NoError(t, err)

	_, err = actions.GetReference(ctx, "conv-1", "test")
	assert.ErrorIs(t, err, proactive.ErrReferenceNotFound)
}

func TestActions_SendDurationFollowsInjectedClock(t *testing.T) {
	buf := &bytes.Buffer{}
	cfg := logging.DefaultLoggerConfig()
	cfg.Output = buf
	cfg.AddSource = false

	// each clock read advances five seconds, so the send spans exactly one step
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		now = now.Add(5 * time.Second)
		return now
	}

	actions := proactive.NewActions(storage.NewMemory(), testutil.NewTestAdapter(), func(o *proactive.Options) {
		o.Logger = logging.NewLogger(cfg)
		o.Now = clock
	})

	_, err := actions.SendToReference(context.Background(), nil, testReference(), []*activity.Activity{
		activity.NewMessageActivity("hi"),
	})
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "Proactive send completed", entry["msg"])
	assert.Equal(t, float64(5*time.Second), entry["duration"], "duration comes from the injected clock")
}

func TestStorageKey(t *testing.T) {
	assert.Equal(t, "proactive:teams:abc", proactive.StorageKey("teams", "abc"))
}
