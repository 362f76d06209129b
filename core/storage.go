package core

import "context"

// StoreItem is one persisted record: an arbitrary JSON-serializable mapping
// plus an optional ETag/version token for backends that support optimistic
// concurrency. The wildcard ETag "*" always wins a write.
type StoreItem struct {
	Data map[string]any `json:"data"`
	ETag string         `json:"eTag,omitempty"`
}

// ETagAny is the wildcard version token accepted by every backend.
const ETagAny = "*"

// Clone returns a deep copy of the item so callers can mutate the result
// without affecting the stored value.
func (i StoreItem) Clone() StoreItem {
	return StoreItem{Data: deepCopyMap(i.Data), ETag: i.ETag}
}

// Storage is the key/value persistence contract consumed by the state scope
// manager and the proactive reference store.
//
// Read returns only the keys that exist; absent keys are simply missing from
// the result map. Write has upsert semantics and is last-write-wins unless
// the implementation enforces ETags. Backend errors surface unchanged to the
// caller: the core never retries, retry policy is a backend concern.
type Storage interface {
	Read(ctx context.Context, keys []string) (map[string]StoreItem, error)
	Write(ctx context.Context, changes map[string]StoreItem) error
	Delete(ctx context.Context, keys []string) error
}

func deepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return deepCopyMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = deepCopyValue(e)
		}
		return out
	default:
		return v
	}
}
