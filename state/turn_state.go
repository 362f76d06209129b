package state

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/agenthost/core"
)

// entry is the in-memory load of one scope for one turn. Entries for
// persistent scopes are shared through the turn context cache, so a second
// TurnState attached to the same turn observes the same data instead of
// reloading a stale copy from storage.
type entry struct {
	key      string // "" for ephemeral scopes
	value    map[string]any
	loadHash string // change hash captured at load (or last save)
}

// TurnState manages the state scopes for one turn: load at turn start,
// in-memory reads/writes during handler execution, selective flush at turn
// end. Instances are not shared across turns or goroutines.
type TurnState struct {
	scopes  []Scope
	entries map[string]*entry
	loaded  bool
}

// New creates a TurnState over the given scopes. Scope names must be unique.
func New(scopes ...Scope) (*TurnState, error) {
	seen := map[string]bool{}
	for _, s := range scopes {
		if s.Name == "" {
			return nil, fmt.Errorf("state: scope with empty name")
		}
		if seen[s.Name] {
			return nil, fmt.Errorf("state: duplicate scope %q", s.Name)
		}
		seen[s.Name] = true
	}
	return &TurnState{scopes: scopes, entries: map[string]*entry{}}, nil
}

// NewDefault creates a TurnState with the built-in conversation, user and
// temp scopes.
func NewDefault() *TurnState {
	ts, err := New(ConversationScope(), UserScope(), TempScope())
	if err != nil {
		panic(err) // built-in scopes are statically valid
	}
	return ts
}

// Loaded reports whether Load completed for the current turn.
func (ts *TurnState) Loaded() bool { return ts.loaded }

// Load reads every persistent scope from storage in one batched read and
// caches the result on the turn context. Calling Load again within the same
// turn is a no-op unless force is set; a scope already cached on the turn
// context (loaded by another TurnState) is reused rather than re-read, so
// concurrent in-turn mutations are never lost to a stale reload.
func (ts *TurnState) Load(ctx context.Context, tc *core.TurnContext, storage core.Storage, force bool) error {
	if ts.loaded && !force {
		return nil
	}

	type pending struct {
		scope Scope
		key   string
	}
	var toRead []pending
	entries := map[string]*entry{}

	for _, scope := range ts.scopes {
		if !scope.Persistent() {
			entries[scope.Name] = &entry{value: map[string]any{}, loadHash: ""}
			continue
		}
		key, err := scope.Keyer(tc)
		if err != nil {
			return err
		}
		if !force {
			if cached, ok := tc.Get(cacheKey(key)); ok {
				entries[scope.Name] = cached.(*entry)
				continue
			}
		}
		toRead = append(toRead, pending{scope: scope, key: key})
	}

	if len(toRead) > 0 {
		if storage == nil {
			return fmt.Errorf("state: no storage configured for persistent scopes")
		}
		keys := make([]string, len(toRead))
		for i, p := range toRead {
			keys[i] = p.key
		}
		items, err := storage.Read(ctx, keys)
		if err != nil {
			return err
		}
		for _, p := range toRead {
			value := map[string]any{}
			if item, ok := items[p.key]; ok && item.Data != nil {
				value = item.Data
			}
			hash, err := changeHash(value)
			if err != nil {
				return err
			}
			e := &entry{key: p.key, value: value, loadHash: hash}
			entries[p.scope.Name] = e
			tc.Set(cacheKey(p.key), e)
		}
	}

	ts.entries = entries
	ts.loaded = true
	return nil
}

// Save persists every dirty persistent scope, or all of them when force is
// set. A scope is dirty when the hash of its current content differs from
// the hash captured at load time. Saving with nothing dirty is a no-op, so
// the call is safe to repeat within a turn. Writes for multiple dirty scopes
// fan out concurrently.
func (ts *TurnState) Save(ctx context.Context, tc *core.TurnContext, storage core.Storage, force bool) error {
	if !ts.loaded {
		return nil
	}

	type flush struct {
		e    *entry
		hash string
	}
	var flushes []flush

	for _, scope := range ts.scopes {
		e := ts.entries[scope.Name]
		if e == nil || e.key == "" {
			continue
		}
		hash, err := changeHash(e.value)
		if err != nil {
			return fmt.Errorf("state: scope %q not serializable: %w", scope.Name, err)
		}
		if force || hash != e.loadHash {
			flushes = append(flushes, flush{e: e, hash: hash})
		}
	}

	if len(flushes) == 0 {
		return nil
	}
	if storage == nil {
		return fmt.Errorf("state: no storage configured for persistent scopes")
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, f := range flushes {
		g.Go(func() error {
			err := storage.Write(gctx, map[string]core.StoreItem{
				f.e.key: {Data: f.e.value, ETag: core.ETagAny},
			})
			if err != nil {
				return err
			}
			f.e.loadHash = f.hash
			return nil
		})
	}
	return g.Wait()
}

// Clear resets a scope to empty and marks it dirty so the next Save persists
// the reset.
func (ts *TurnState) Clear(scopeName string) error {
	e, err := ts.scopeEntry(scopeName)
	if err != nil {
		return err
	}
	e.value = map[string]any{}
	e.loadHash = "cleared" // never matches a content hash
	return nil
}

// GetScope returns the raw value map of a scope for access deeper than the
// two-segment path API supports. Mutations through the returned map are
// picked up by dirty tracking.
func (ts *TurnState) GetScope(scopeName string) (map[string]any, error) {
	e, err := ts.scopeEntry(scopeName)
	if err != nil {
		return nil, err
	}
	return e.value, nil
}

// Conversation returns the conversation scope's value map.
func (ts *TurnState) Conversation() (map[string]any, error) { return ts.GetScope(ScopeConversation) }

// User returns the user scope's value map.
func (ts *TurnState) User() (map[string]any, error) { return ts.GetScope(ScopeUser) }

// Temp returns the temp scope's value map.
func (ts *TurnState) Temp() (map[string]any, error) { return ts.GetScope(ScopeTemp) }

// GetValue returns the value at a dotted path, or nil when absent.
func (ts *TurnState) GetValue(path string) (any, error) {
	e, prop, err := ts.resolve(path)
	if err != nil {
		return nil, err
	}
	return e.value[prop], nil
}

// HasValue reports whether a value exists at the dotted path.
func (ts *TurnState) HasValue(path string) (bool, error) {
	e, prop, err := ts.resolve(path)
	if err != nil {
		return false, err
	}
	_, ok := e.value[prop]
	return ok, nil
}

// SetValue stores a value at a dotted path, creating the scope container if
// needed, and marks the scope dirty.
func (ts *TurnState) SetValue(path string, value any) error {
	e, prop, err := ts.resolve(path)
	if err != nil {
		return err
	}
	if e.value == nil {
		e.value = map[string]any{}
	}
	e.value[prop] = value
	return nil
}

// DeleteValue removes the value at a dotted path. Deleting an absent value
// is a no-op.
func (ts *TurnState) DeleteValue(path string) error {
	e, prop, err := ts.resolve(path)
	if err != nil {
		return err
	}
	delete(e.value, prop)
	return nil
}

// resolve maps a dotted path onto (scope entry, property). One segment is
// addressed into the temp scope; two segments are scope.property; anything
// longer is rejected so callers never silently address the wrong level.
func (ts *TurnState) resolve(path string) (*entry, string, error) {
	if !ts.loaded {
		return nil, "", ErrNotLoaded
	}
	if path == "" {
		return nil, "", pathErrorf(path, "empty path")
	}

	segments := strings.Split(path, ".")
	var scopeName, prop string
	switch len(segments) {
	case 1:
		scopeName, prop = ScopeTemp, segments[0]
	case 2:
		scopeName, prop = segments[0], segments[1]
	default:
		return nil, "", pathErrorf(path, "at most two segments supported, got %d", len(segments))
	}
	if prop == "" {
		return nil, "", pathErrorf(path, "empty property name")
	}

	e, ok := ts.entries[scopeName]
	if !ok {
		return nil, "", pathErrorf(path, "unknown scope %q", scopeName)
	}
	return e, prop, nil
}

func (ts *TurnState) scopeEntry(scopeName string) (*entry, error) {
	if !ts.loaded {
		return nil, ErrNotLoaded
	}
	e, ok := ts.entries[scopeName]
	if !ok {
		return nil, pathErrorf(scopeName, "unknown scope %q", scopeName)
	}
	return e, nil
}

func cacheKey(storageKey string) string { return "state:" + storageKey }

// changeHash produces a deterministic digest of a scope's content.
// encoding/json sorts map keys, so equal content always hashes equal.
func changeHash(value map[string]any) (string, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
