package state

import (
	"fmt"

	"github.com/hupe1980/agenthost/core"
)

// Built-in scope names.
const (
	ScopeConversation = "conversation"
	ScopeUser         = "user"
	ScopeTemp         = "temp"
)

// KeyFactory computes the storage key for a scope from the current turn. The
// key decides the blast radius of the scope: including the channel id keeps
// conversations on different channels apart, including the user id keeps
// users apart.
type KeyFactory func(tc *core.TurnContext) (string, error)

// Scope declares one named region of turn state. A nil Keyer marks the scope
// as ephemeral: it starts empty every turn and is never persisted.
type Scope struct {
	Name  string
	Keyer KeyFactory
}

// Persistent reports whether the scope is backed by storage.
func (s Scope) Persistent() bool { return s.Keyer != nil }

// ConversationScope is persisted per (channel, conversation) pair.
func ConversationScope() Scope {
	return Scope{Name: ScopeConversation, Keyer: ConversationKey}
}

// UserScope is persisted per (channel, user) pair, shared across all of the
// user's conversations on that channel.
func UserScope() Scope {
	return Scope{Name: ScopeUser, Keyer: UserKey}
}

// TempScope holds per-turn scratch data and is never persisted.
func TempScope() Scope {
	return Scope{Name: ScopeTemp}
}

// ConversationKey derives the storage key {channelId}/conversations/{conversationId}.
func ConversationKey(tc *core.TurnContext) (string, error) {
	a := tc.Activity
	if a == nil || a.ChannelID == "" {
		return "", ErrMissingChannelID
	}
	if a.Conversation == nil || a.Conversation.ID == "" {
		return "", ErrMissingConversationID
	}
	return fmt.Sprintf("%s/conversations/%s", a.ChannelID, a.Conversation.ID), nil
}

// UserKey derives the storage key {channelId}/users/{userId}.
func UserKey(tc *core.TurnContext) (string, error) {
	a := tc.Activity
	if a == nil || a.ChannelID == "" {
		return "", ErrMissingChannelID
	}
	if a.From == nil || a.From.ID == "" {
		return "", ErrMissingUserID
	}
	return fmt.Sprintf("%s/users/%s", a.ChannelID, a.From.ID), nil
}
