package proactive

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/agenthost/activity"
	"github.com/hupe1980/agenthost/app"
	"github.com/hupe1980/agenthost/core"
	"github.com/hupe1980/agenthost/logging"
	"github.com/hupe1980/agenthost/state"
)

// ErrReferenceNotFound is returned when no live reference exists for a
// conversation. Expired records count as not found.
var ErrReferenceNotFound = errors.New("No proactive reference found")

// KeyFactory overrides how storage keys are derived from conversation
// coordinates.
type KeyFactory func(channelID, conversationID string) string

// Options holds dependency + configuration overrides passed to NewActions().
type Options struct {
	// ReferenceTTL is the default lifetime of saved references. Zero or
	// negative means references never expire.
	ReferenceTTL time.Duration
	// KeyFactory overrides the default proactive:{channelId}:{conversationId}
	// key scheme.
	KeyFactory KeyFactory
	// Logging services.
	Logger logging.Logger
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Actions persists conversation references and sends activities to them
// outside an inbound turn. Safe for concurrent use as long as the underlying
// storage is.
type Actions struct {
	storage core.Storage
	adapter core.Adapter

	referenceTTL time.Duration
	keyFactory   KeyFactory
	logger       logging.Logger
	now          func() time.Time
}

// NewActions constructs proactive Actions over the given storage and adapter.
func NewActions(storage core.Storage, adapter core.Adapter, optFns ...func(o *Options)) *Actions {
	opts := Options{
		KeyFactory: StorageKey,
		Logger:     logging.NoOpLogger{},
		Now:        time.Now,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Actions{
		storage:      storage,
		adapter:      adapter,
		referenceTTL: opts.ReferenceTTL,
		keyFactory:   opts.KeyFactory,
		logger:       opts.Logger,
		now:          opts.Now,
	}
}

// SaveReference persists the reference and identity for a conversation. A
// positive ttl overrides the configured default; zero falls back to it.
func (p *Actions) SaveReference(ctx context.Context, conversationID, channelID string, identity core.Claims, ref *activity.ConversationReference, ttl time.Duration) error {
	if p.storage == nil {
		return fmt.Errorf("proactive: storage is required")
	}
	if ref == nil {
		return fmt.Errorf("proactive: reference is required")
	}

	if ttl <= 0 {
		ttl = p.referenceTTL
	}
	now := p.now().UTC()

	record := &ReferenceRecord{
		ConversationID: conversationID,
		ChannelID:      channelID,
		Identity:       identity,
		Reference:      ref,
		UpdatedUTC:     now,
	}
	if ttl > 0 {
		record.ExpiresUTC = now.Add(ttl)
	}

	item, err := recordToItem(record)
	if err != nil {
		return err
	}
	return p.storage.Write(ctx, map[string]core.StoreItem{
		p.keyFactory(channelID, conversationID): item,
	})
}

// GetReference returns the stored record for a conversation. An expired
// record is deleted and reported as not found.
func (p *Actions) GetReference(ctx context.Context, conversationID, channelID string) (*ReferenceRecord, error) {
	if p.storage == nil {
		return nil, fmt.Errorf("proactive: storage is required")
	}

	key := p.keyFactory(channelID, conversationID)
	items, err := p.storage.Read(ctx, []string{key})
	if err != nil {
		return nil, err
	}
	item, ok := items[key]
	if !ok {
		return nil, notFound(channelID, conversationID)
	}

	record, err := itemToRecord(item)
	if err != nil {
		return nil, err
	}
	if record.Expired(p.now()) {
		p.logger.Debug("discarding expired proactive reference", "channel_id", channelID, "conversation_id", conversationID)
		if err := p.storage.Delete(ctx, []string{key}); err != nil {
			return nil, err
		}
		return nil, notFound(channelID, conversationID)
	}
	return record, nil
}

// DeleteReference removes the stored record for a conversation. Deleting an
// absent record is a no-op.
func (p *Actions) DeleteReference(ctx context.Context, conversationID, channelID string) error {
	if p.storage == nil {
		return fmt.Errorf("proactive: storage is required")
	}
	return p.storage.Delete(ctx, []string{p.keyFactory(channelID, conversationID)})
}

// SendActivities looks up the stored reference for a conversation and sends
// the activities to it. It returns the channel-assigned activity ids in
// order; activities the channel did not acknowledge yield "".
func (p *Actions) SendActivities(ctx context.Context, conversationID, channelID string, activities []*activity.Activity) ([]string, error) {
	if len(activities) == 0 {
		return nil, nil
	}

	record, err := p.GetReference(ctx, conversationID, channelID)
	if err != nil {
		return nil, err
	}
	return p.SendToReference(ctx, record.Identity, record.Reference, activities)
}

// SendToReference sends activities directly to the given reference, bypassing
// the store.
func (p *Actions) SendToReference(ctx context.Context, identity core.Claims, ref *activity.ConversationReference, activities []*activity.Activity) ([]string, error) {
	if ref == nil {
		return nil, fmt.Errorf("proactive: reference is required")
	}
	if p.adapter == nil {
		return nil, fmt.Errorf("proactive: no adapter configured")
	}

	start := p.now()
	var ids []string
	err := p.adapter.ContinueConversation(ctx, identity, ref, func(tc *core.TurnContext) error {
		responses, err := tc.SendActivities(activities...)
		if err != nil {
			return err
		}
		for _, r := range responses {
			ids = append(ids, r.ID)
		}
		return nil
	})
	if hl, ok := p.logger.(*logging.HostLogger); ok {
		hl.LogProactiveSend(len(activities), p.now().Sub(start), err)
	}
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// RegisterAutoPersistence wires an after-turn hook that keeps the inbound
// conversation's reference fresh: every turn upserts it, an endOfConversation
// turn deletes it. Hook failures are logged, never fatal to the turn.
func (p *Actions) RegisterAutoPersistence(application *app.Application) {
	application.OnAfterTurn(func(tc *core.TurnContext, _ *state.TurnState) (bool, error) {
		a := tc.Activity
		if a == nil || a.Conversation == nil || a.Conversation.ID == "" || a.ChannelID == "" {
			return true, nil
		}

		var err error
		if a.Type == activity.TypeEndOfConversation {
			err = p.DeleteReference(tc.Context, a.Conversation.ID, a.ChannelID)
		} else {
			err = p.SaveReference(tc.Context, a.Conversation.ID, a.ChannelID, tc.Identity, a.GetConversationReference(), 0)
		}
		if err != nil {
			p.logger.Error("proactive reference persistence failed", "channel_id", a.ChannelID, "conversation_id", a.Conversation.ID, "error", err)
		}
		return true, nil
	})
}

func notFound(channelID, conversationID string) error {
	return fmt.Errorf("%w for conversation %s:%s", ErrReferenceNotFound, channelID, conversationID)
}
