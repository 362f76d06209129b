package state

import (
	"errors"
	"fmt"
)

var (
	// ErrNotLoaded is returned when a scope is read or written before the
	// turn state has been loaded for the current turn.
	ErrNotLoaded = errors.New("state: turn state not loaded")

	// ErrMissingChannelID is returned by key factories when the inbound
	// activity carries no channel id.
	ErrMissingChannelID = errors.New("state: activity missing channelId")

	// ErrMissingConversationID is returned by the conversation key factory
	// when the inbound activity carries no conversation id.
	ErrMissingConversationID = errors.New("state: activity missing conversation.id")

	// ErrMissingUserID is returned by the user key factory when the inbound
	// activity carries no sender id.
	ErrMissingUserID = errors.New("state: activity missing from.id")
)

// PathError reports invalid state-path addressing: wrong segment count or a
// scope name that was never registered. It is returned synchronously to the
// calling handler.
type PathError struct {
	Path   string
	Reason string
}

// Error implements the error interface.
func (e *PathError) Error() string {
	return fmt.Sprintf("state: invalid path %q: %s", e.Path, e.Reason)
}

func pathErrorf(path, format string, args ...any) error {
	return &PathError{Path: path, Reason: fmt.Sprintf(format, args...)}
}
