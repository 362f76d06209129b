package activity

// Type categorizes an Activity on the wire.
type Type string

// Activity types understood by the routing core. Payloads carrying any other
// value are rejected at parse time.
const (
	TypeMessage            Type = "message"
	TypeMessageReaction    Type = "messageReaction"
	TypeConversationUpdate Type = "conversationUpdate"
	TypeEndOfConversation  Type = "endOfConversation"
	TypeEvent              Type = "event"
	TypeInvoke             Type = "invoke"
	TypeInvokeResponse     Type = "invokeResponse"
	TypeTyping             Type = "typing"
	TypeInstallationUpdate Type = "installationUpdate"
	TypeMessageUpdate      Type = "messageUpdate"
	TypeMessageDelete      Type = "messageDelete"
)

var knownTypes = map[Type]bool{
	TypeMessage:            true,
	TypeMessageReaction:    true,
	TypeConversationUpdate: true,
	TypeEndOfConversation:  true,
	TypeEvent:              true,
	TypeInvoke:             true,
	TypeInvokeResponse:     true,
	TypeTyping:             true,
	TypeInstallationUpdate: true,
	TypeMessageUpdate:      true,
	TypeMessageDelete:      true,
}

// DeliveryMode values for the deliveryMode field.
const (
	DeliveryModeNormal        = "normal"
	DeliveryModeExpectReplies = "expectReplies"
	DeliveryModeEphemeral     = "ephemeral"
)

// ChannelAccount identifies a user or agent on a channel.
type ChannelAccount struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name,omitempty"`
	Role        string `json:"role,omitempty"`
	AADObjectID string `json:"aadObjectId,omitempty"`
}

// ConversationAccount identifies the conversation an activity belongs to plus
// channel specific metadata.
type ConversationAccount struct {
	ID               string `json:"id,omitempty"`
	Name             string `json:"name,omitempty"`
	ConversationType string `json:"conversationType,omitempty"`
	IsGroup          bool   `json:"isGroup,omitempty"`
	TenantID         string `json:"tenantId,omitempty"`
	AADObjectID      string `json:"aadObjectId,omitempty"`
}

// Attachment carries additional content (cards, files) alongside an activity.
// Content is kept opaque; card rendering is a channel concern.
type Attachment struct {
	ContentType  string `json:"contentType,omitempty"`
	ContentURL   string `json:"contentUrl,omitempty"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
	Name         string `json:"name,omitempty"`
	Content      any    `json:"content,omitempty"`
}

// Entity is an open-shaped metadata object attached to an activity (mentions,
// client info, product info). Only the type discriminator is interpreted.
type Entity map[string]any

// Type returns the entity's type discriminator, or "" when absent.
func (e Entity) Type() string {
	t, _ := e["type"].(string)
	return t
}

// ResourceResponse is the channel acknowledgement for a sent activity.
type ResourceResponse struct {
	ID string `json:"id"`
}
