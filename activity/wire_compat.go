package activity

import (
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// The wire protocol historically used the field name "bot" where this SDK
// uses "agent" on the relatesTo sub-object. Channels still speak the old
// spelling, so inbound payloads are renamed bot->agent before parsing and
// outbound payloads agent->bot before sending. The rename is a structural
// patch over the serialized JSON tree: it touches exactly relatesTo.bot /
// relatesTo.agent, tolerates empty objects and boolean values at that key,
// and is a no-op when the key is absent.

// NormalizeIncoming rewrites relatesTo.bot to relatesTo.agent on a raw
// inbound payload. The input slice is not modified; the returned slice may
// alias the input when nothing needed renaming.
func NormalizeIncoming(payload []byte) []byte {
	return renameRelatesTo(payload, "bot", "agent")
}

// NormalizeOutgoing rewrites relatesTo.agent to relatesTo.bot on a serialized
// outbound payload.
func NormalizeOutgoing(payload []byte) []byte {
	return renameRelatesTo(payload, "agent", "bot")
}

func renameRelatesTo(payload []byte, from, to string) []byte {
	v := gjson.GetBytes(payload, "relatesTo."+from)
	if isFalsy(v) {
		// Mirrors the truthiness check of the legacy protocol layer: absent,
		// null, false, "" and 0 values stay untouched.
		return payload
	}

	out, err := sjson.SetRawBytes(payload, "relatesTo."+to, []byte(v.Raw))
	if err != nil {
		return payload
	}
	out, err = sjson.DeleteBytes(out, "relatesTo."+from)
	if err != nil {
		return payload
	}
	return out
}

// isFalsy reports whether a JSON value is falsy under the legacy protocol
// layer's rules: absent, null, false, the empty string or the number zero.
func isFalsy(v gjson.Result) bool {
	switch v.Type {
	case gjson.Null:
		return true
	case gjson.False:
		return true
	case gjson.String:
		return v.Str == ""
	case gjson.Number:
		return v.Num == 0
	default:
		return !v.Exists()
	}
}

// ToWireBytes serializes an activity and applies the outgoing rename, giving
// the exact bytes an adapter should put on the wire.
func ToWireBytes(a *Activity) ([]byte, error) {
	data, err := a.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return NormalizeOutgoing(data), nil
}
