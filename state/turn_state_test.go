package state_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agenthost/activity"
	"github.com/hupe1980/agenthost/internal/testutil"
	"github.com/hupe1980/agenthost/state"
	"github.com/hupe1980/agenthost/storage"
)

func loadedState(t *testing.T) (*state.TurnState, *testutil.SpyStorage) {
	t.Helper()
	tc, _ := testutil.TurnContext(nil)
	spy := testutil.NewSpyStorage(storage.NewMemory())
	ts := state.NewDefault()
	require.NoError(t, ts.Load(context.Background(), tc, spy, false))
	return ts, spy
}

func TestTurnState_LoadStartsEmpty(t *testing.T) {
	ts, spy := loadedState(t)

	assert.True(t, ts.Loaded())
	assert.Equal(t, 1, spy.Reads(), "persistent scopes load in one batched read")

	conv, err := ts.Conversation()
	require.NoError(t, err)
	assert.Empty(t, conv)
}

func TestTurnState_LoadIsOncePerTurn(t *testing.T) {
	tc, _ := testutil.TurnContext(nil)
	spy := testutil.NewSpyStorage(storage.NewMemory())
	ts := state.NewDefault()

	require.NoError(t, ts.Load(context.Background(), tc, spy, false))
	require.NoError(t, ts.Load(context.Background(), tc, spy, false))
	assert.Equal(t, 1, spy.Reads())

	require.NoError(t, ts.Load(context.Background(), tc, spy, true))
	assert.Equal(t, 2, spy.Reads(), "force reloads from storage")
}

func TestTurnState_SecondStateReusesTurnCache(t *testing.T) {
	tc, _ := testutil.TurnContext(nil)
	spy := testutil.NewSpyStorage(storage.NewMemory())
	ctx := context.Background()

	first := state.NewDefault()
	require.NoError(t, first.Load(ctx, tc, spy, false))
	require.NoError(t, first.SetValue("conversation.topic", "weather"))

	second := state.NewDefault()
	require.NoError(t, second.Load(ctx, tc, spy, false))
	assert.Equal(t, 1, spy.Reads(), "second load reuses the turn cache")

	topic, err := second.GetValue("conversation.topic")
	require.NoError(t, err)
	assert.Equal(t, "weather", topic, "in-turn mutations are visible, not lost to a stale reload")
}

func TestTurnState_SaveWritesOnlyDirtyScopes(t *testing.T) {
	tc, _ := testutil.TurnContext(nil)
	spy := testutil.NewSpyStorage(storage.NewMemory())
	ctx := context.Background()
	ts := state.NewDefault()
	require.NoError(t, ts.Load(ctx, tc, spy, false))

	require.NoError(t, ts.SetValue("conversation.count", 1))
	require.NoError(t, ts.Save(ctx, tc, spy, false))

	assert.Equal(t, 1, spy.Writes(), "only the conversation scope is dirty")
	require.Len(t, spy.LastWrite, 1)
	item, ok := spy.LastWrite["test/conversations/conv-1"]
	require.True(t, ok)
	assert.Equal(t, 1, item.Data["count"])
}

func TestTurnState_SaveIsIdempotent(t *testing.T) {
	tc, _ := testutil.TurnContext(nil)
	spy := testutil.NewSpyStorage(storage.NewMemory())
	ctx := context.Background()
	ts := state.NewDefault()
	require.NoError(t, ts.Load(ctx, tc, spy, false))

	require.NoError(t, ts.SetValue("user.name", "Ada"))
	require.NoError(t, ts.Save(ctx, tc, spy, false))
	require.NoError(t, ts.Save(ctx, tc, spy, false))
	assert.Equal(t, 1, spy.Writes(), "a second save with nothing dirty is a no-op")
}

func TestTurnState_SaveCleanStateWritesNothing(t *testing.T) {
	ts, spy := loadedState(t)
	tc, _ := testutil.TurnContext(nil)

	require.NoError(t, ts.Save(context.Background(), tc, spy, false))
	assert.Zero(t, spy.Writes())
}

func TestTurnState_SetThenDeleteBackIsClean(t *testing.T) {
	tc, _ := testutil.TurnContext(nil)
	spy := testutil.NewSpyStorage(storage.NewMemory())
	ctx := context.Background()
	ts := state.NewDefault()
	require.NoError(t, ts.Load(ctx, tc, spy, false))

	require.NoError(t, ts.SetValue("conversation.topic", "x"))
	require.NoError(t, ts.DeleteValue("conversation.topic"))
	require.NoError(t, ts.Save(ctx, tc, spy, false))
	assert.Zero(t, spy.Writes(), "content hash matches the loaded hash again")
}

func TestTurnState_ForceSaveWritesCleanScopes(t *testing.T) {
	ts, spy := loadedState(t)
	tc, _ := testutil.TurnContext(nil)

	require.NoError(t, ts.Save(context.Background(), tc, spy, true))
	assert.Equal(t, 2, spy.Writes(), "force flushes both persistent scopes")
}

func TestTurnState_TempScopeIsNeverPersisted(t *testing.T) {
	tc, _ := testutil.TurnContext(nil)
	spy := testutil.NewSpyStorage(storage.NewMemory())
	ctx := context.Background()
	ts := state.NewDefault()
	require.NoError(t, ts.Load(ctx, tc, spy, false))

	require.NoError(t, ts.SetValue("temp.scratch", "value"))
	require.NoError(t, ts.Save(ctx, tc, spy, true))

	for key := range spy.LastWrite {
		assert.NotContains(t, key, "temp")
	}
}

func TestTurnState_RoundTripAcrossTurns(t *testing.T) {
	mem := storage.NewMemory()
	ctx := context.Background()

	tc1, _ := testutil.TurnContext(nil)
	ts1 := state.NewDefault()
	require.NoError(t, ts1.Load(ctx, tc1, mem, false))
	require.NoError(t, ts1.SetValue("conversation.count", float64(3)))
	require.NoError(t, ts1.Save(ctx, tc1, mem, false))

	// a fresh turn for the same conversation sees the saved value
	tc2, _ := testutil.TurnContext(nil)
	ts2 := state.NewDefault()
	require.NoError(t, ts2.Load(ctx, tc2, mem, false))
	count, err := ts2.GetValue("conversation.count")
	require.NoError(t, err)
	assert.Equal(t, float64(3), count)
}

func TestTurnState_ClearForcesSave(t *testing.T) {
	mem := storage.NewMemory()
	ctx := context.Background()

	tc1, _ := testutil.TurnContext(nil)
	ts1 := state.NewDefault()
	require.NoError(t, ts1.Load(ctx, tc1, mem, false))
	require.NoError(t, ts1.SetValue("conversation.topic", "old"))
	require.NoError(t, ts1.Save(ctx, tc1, mem, false))

	tc2, _ := testutil.TurnContext(nil)
	spy := testutil.NewSpyStorage(mem)
	ts2 := state.NewDefault()
	require.NoError(t, ts2.Load(ctx, tc2, spy, false))
	require.NoError(t, ts2.Clear(state.ScopeConversation))
	require.NoError(t, ts2.Save(ctx, tc2, spy, false))
	assert.Equal(t, 1, spy.Writes(), "clearing marks the scope dirty even though it is empty")

	tc3, _ := testutil.TurnContext(nil)
	ts3 := state.NewDefault()
	require.NoError(t, ts3.Load(ctx, tc3, mem, false))
	has, err := ts3.HasValue("conversation.topic")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestTurnState_SingleSegmentPathAddressesTemp(t *testing.T) {
	ts, _ := loadedState(t)

	require.NoError(t, ts.SetValue("scratch", "v"))
	temp, err := ts.Temp()
	require.NoError(t, err)
	assert.Equal(t, "v", temp["scratch"])

	got, err := ts.GetValue("scratch")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestTurnState_PathErrors(t *testing.T) {
	ts, _ := loadedState(t)

	var pathErr *state.PathError

	_, err := ts.GetValue("a.b.c")
	require.Error(t, err)
	assert.ErrorAs(t, err, &pathErr)

	_, err = ts.GetValue("")
	require.Error(t, err)
	assert.ErrorAs(t, err, &pathErr)

	_, err = ts.GetValue("nosuchscope.prop")
	require.Error(t, err)
	assert.ErrorAs(t, err, &pathErr)
}

func TestTurnState_AccessBeforeLoad(t *testing.T) {
	ts := state.NewDefault()

	_, err := ts.GetValue("conversation.topic")
	assert.ErrorIs(t, err, state.ErrNotLoaded)

	err = ts.SetValue("conversation.topic", "x")
	assert.ErrorIs(t, err, state.ErrNotLoaded)
}

func TestTurnState_MissingKeyFields(t *testing.T) {
	act := testutil.MessageActivity("hi")
	act.Conversation = nil
	tc, _ := testutil.TurnContext(act)

	ts := state.NewDefault()
	err := ts.Load(context.Background(), tc, storage.NewMemory(), false)
	assert.ErrorIs(t, err, state.ErrMissingConversationID)

	act2 := testutil.MessageActivity("hi")
	act2.ChannelID = ""
	tc2, _ := testutil.TurnContext(act2)
	err = state.NewDefault().Load(context.Background(), tc2, storage.NewMemory(), false)
	assert.ErrorIs(t, err, state.ErrMissingChannelID)
}

func TestTurnState_KeysSeparateChannelsAndUsers(t *testing.T) {
	act := testutil.MessageActivity("hi")
	tc, _ := testutil.TurnContext(act)

	convKey, err := state.ConversationKey(tc)
	require.NoError(t, err)
	assert.Equal(t, "test/conversations/conv-1", convKey)

	userKey, err := state.UserKey(tc)
	require.NoError(t, err)
	assert.Equal(t, "test/users/user-1", userKey)
}

func TestNew_RejectsDuplicateScopes(t *testing.T) {
	_, err := state.New(state.TempScope(), state.TempScope())
	require.Error(t, err)
}

func TestProperty_TypedAccess(t *testing.T) {
	ts, _ := loadedState(t)

	counter := state.NewProperty[int](ts, state.ScopeConversation, "counter")

	v, err := counter.Get(10)
	require.NoError(t, err)
	assert.Equal(t, 10, v, "default when absent")

	require.NoError(t, counter.Set(5))
	v, err = counter.Get(0)
	require.NoError(t, err)
	assert.Equal(t, 5, v)

	require.NoError(t, counter.Delete())
	v, err = counter.Get(-1)
	require.NoError(t, err)
	assert.Equal(t, -1, v)
}

func TestProperty_WrongTypeFallsBackToDefault(t *testing.T) {
	ts, _ := loadedState(t)
	require.NoError(t, ts.SetValue("conversation.flag", "not-a-bool"))

	flag := state.NewProperty[bool](ts, state.ScopeConversation, "flag")
	v, err := flag.Get(true)
	require.NoError(t, err)
	assert.True(t, v)
}

func TestTurnState_UserScopeSharedAcrossConversations(t *testing.T) {
	mem := storage.NewMemory()
	ctx := context.Background()

	tc1, _ := testutil.TurnContext(nil)
	ts1 := state.NewDefault()
	require.NoError(t, ts1.Load(ctx, tc1, mem, false))
	require.NoError(t, ts1.SetValue("user.name", "Ada"))
	require.NoError(t, ts1.Save(ctx, tc1, mem, false))

	// same user, different conversation
	act := testutil.MessageActivity("hi")
	act.Conversation = &activity.ConversationAccount{ID: "conv-2"}
	tc2, _ := testutil.TurnContext(act)
	ts2 := state.NewDefault()
	require.NoError(t, ts2.Load(ctx, tc2, mem, false))

	name, err := ts2.GetValue("user.name")
	require.NoError(t, err)
	assert.Equal(t, "Ada", name)

	topic, err := ts2.GetValue("conversation.topic")
	require.NoError(t, err)
	assert.Nil(t, topic, "conversation scope does not leak across conversations")
}
