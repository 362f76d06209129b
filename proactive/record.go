package proactive

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hupe1980/agenthost/activity"
	"github.com/hupe1980/agenthost/core"
)

const keyPrefix = "proactive"

// ReferenceRecord is the persisted form of a proactive conversation
// reference. A zero ExpiresUTC means the record never expires.
type ReferenceRecord struct {
	ConversationID string                          `json:"conversationId"`
	ChannelID      string                          `json:"channelId"`
	Identity       core.Claims                     `json:"identity,omitempty"`
	Reference      *activity.ConversationReference `json:"reference"`
	UpdatedUTC     time.Time                       `json:"updatedUtc"`
	ExpiresUTC     time.Time                       `json:"expiresUtc,omitzero"`
}

// Expired reports whether the record's expiry has passed at the given time.
func (r *ReferenceRecord) Expired(now time.Time) bool {
	return !r.ExpiresUTC.IsZero() && !r.ExpiresUTC.After(now)
}

// StorageKey derives the key a reference is stored under.
func StorageKey(channelID, conversationID string) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, channelID, conversationID)
}

func recordToItem(r *ReferenceRecord) (core.StoreItem, error) {
	raw, err := json.Marshal(r)
	if err != nil {
		return core.StoreItem{}, err
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return core.StoreItem{}, err
	}
	return core.StoreItem{Data: data, ETag: core.ETagAny}, nil
}

func itemToRecord(item core.StoreItem) (*ReferenceRecord, error) {
	raw, err := json.Marshal(item.Data)
	if err != nil {
		return nil, err
	}
	var record ReferenceRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, err
	}
	return &record, nil
}
