package activity

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Activity is the canonical representation of a single message or event
// exchanged with a channel. Known wire fields are surfaced as typed struct
// members; any other field present in the inbound payload is retained in an
// opaque overflow map so that serializing an Activity reproduces the payload
// it was parsed from (forward compatibility with newer channel schemas).
//
// Once constructed from a wire payload, Type and Conversation.ID are treated
// as immutable for the duration of a turn.
type Activity struct {
	Type         Type                   `json:"type,omitempty"`
	ID           string                 `json:"id,omitempty"`
	ChannelID    string                 `json:"channelId,omitempty"`
	Conversation *ConversationAccount   `json:"conversation,omitempty"`
	From         *ChannelAccount        `json:"from,omitempty"`
	Recipient    *ChannelAccount        `json:"recipient,omitempty"`
	ServiceURL   string                 `json:"serviceUrl,omitempty"`
	Text         string                 `json:"text,omitempty"`
	Speak        string                 `json:"speak,omitempty"`
	InputHint    string                 `json:"inputHint,omitempty"`
	Locale       string                 `json:"locale,omitempty"`
	Value        any                    `json:"value,omitempty"`
	ValueType    string                 `json:"valueType,omitempty"`
	Name         string                 `json:"name,omitempty"`
	ReplyToID    string                 `json:"replyToId,omitempty"`
	DeliveryMode string                 `json:"deliveryMode,omitempty"`
	Attachments  []Attachment           `json:"attachments,omitempty"`
	Entities     []Entity               `json:"entities,omitempty"`
	RelatesTo    *ConversationReference `json:"relatesTo,omitempty"`
	ChannelData  map[string]any         `json:"channelData,omitempty"`

	// extra holds wire fields this version of the schema does not model.
	extra map[string]json.RawMessage
}

// knownWireFields mirrors the json tags declared on Activity. Fields listed
// here are parsed into struct members; everything else lands in the overflow
// map.
var knownWireFields = map[string]bool{
	"type":         true,
	"id":           true,
	"channelId":    true,
	"conversation": true,
	"from":         true,
	"recipient":    true,
	"serviceUrl":   true,
	"text":         true,
	"speak":        true,
	"inputHint":    true,
	"locale":       true,
	"value":        true,
	"valueType":    true,
	"name":         true,
	"replyToId":    true,
	"deliveryMode": true,
	"attachments":  true,
	"entities":     true,
	"relatesTo":    true,
	"channelData":  true,
}

// NewMessageActivity creates an outgoing message activity with the given text.
func NewMessageActivity(text string) *Activity {
	return &Activity{Type: TypeMessage, ID: uuid.NewString(), Text: text}
}

// FromBytes parses a wire payload into an Activity. The payload must carry a
// recognized "type" field; a *ValidationError is returned otherwise. Adapters
// are expected to run NormalizeIncoming on the raw payload before parsing.
func FromBytes(payload []byte) (*Activity, error) {
	var a Activity
	if err := json.Unmarshal(payload, &a); err != nil {
		return nil, validationErrorf("malformed payload: %v", err)
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	return &a, nil
}

// FromObject parses an already decoded payload object into an Activity,
// applying the same validation as FromBytes. Unknown fields are preserved.
func FromObject(payload map[string]any) (*Activity, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, validationErrorf("payload not serializable: %v", err)
	}
	return FromBytes(raw)
}

func (a *Activity) validate() error {
	if a.Type == "" {
		return validationErrorf("missing required field %q", "type")
	}
	if !knownTypes[a.Type] {
		return validationErrorf("unrecognized activity type %q", a.Type)
	}
	return nil
}

// UnmarshalJSON decodes known fields into the struct and keeps the remainder
// in the overflow map.
func (a *Activity) UnmarshalJSON(data []byte) error {
	type alias Activity
	var known alias
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	*a = Activity(known)
	for k, v := range fields {
		if knownWireFields[k] {
			continue
		}
		if a.extra == nil {
			a.extra = map[string]json.RawMessage{}
		}
		a.extra[k] = v
	}
	return nil
}

// MarshalJSON re-emits known fields plus any preserved unknown fields. Known
// fields always win on a name clash.
func (a Activity) MarshalJSON() ([]byte, error) {
	type alias Activity
	data, err := json.Marshal(alias(a))
	if err != nil {
		return nil, err
	}
	if len(a.extra) == 0 {
		return data, nil
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(data, &merged); err != nil {
		return nil, err
	}
	for k, v := range a.extra {
		if _, ok := merged[k]; !ok {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}

// Clone returns a deep copy of the activity, including preserved unknown
// fields. Use before ApplyConversationReference when the original must stay
// intact.
func (a *Activity) Clone() *Activity {
	data, err := json.Marshal(a)
	if err != nil {
		// An Activity built from a wire payload is always serializable; a
		// non-serializable Value was injected by the caller.
		panic("activity: clone of non-serializable activity: " + err.Error())
	}
	var c Activity
	if err := json.Unmarshal(data, &c); err != nil {
		panic("activity: clone round-trip failed: " + err.Error())
	}
	return &c
}

// IsType reports whether the activity has the given type.
func (a *Activity) IsType(t Type) bool { return a.Type == t }
