package activity

// ConversationReference is the durable subset of an Activity sufficient to
// resume the conversation later, e.g. for proactive messaging. The in-memory
// shape always uses the "agent" field name; the historical "bot" spelling is
// handled at the wire boundary by the compat shim in wire_compat.go.
type ConversationReference struct {
	ActivityID   string               `json:"activityId,omitempty"`
	User         *ChannelAccount      `json:"user,omitempty"`
	Agent        *ChannelAccount      `json:"agent,omitempty"`
	Conversation *ConversationAccount `json:"conversation,omitempty"`
	ChannelID    string               `json:"channelId,omitempty"`
	ServiceURL   string               `json:"serviceUrl,omitempty"`
	Locale       string               `json:"locale,omitempty"`
}

// GetConversationReference derives the durable reference for the conversation
// this activity belongs to. Pure; the activity is not modified.
func (a *Activity) GetConversationReference() *ConversationReference {
	return &ConversationReference{
		ActivityID:   a.ID,
		User:         a.From,
		Agent:        a.Recipient,
		Conversation: a.Conversation,
		ChannelID:    a.ChannelID,
		ServiceURL:   a.ServiceURL,
		Locale:       a.Locale,
	}
}

// GetReplyConversationReference derives a reference that points at a reply
// the channel acknowledged, so a later conversation update can address that
// reply instead of the inbound activity.
func (a *Activity) GetReplyConversationReference(reply ResourceResponse) *ConversationReference {
	ref := a.GetConversationReference()
	ref.ActivityID = reply.ID
	return ref
}

// ApplyConversationReference redirects the routing-relevant fields of the
// activity so it addresses the referenced conversation. The activity is
// mutated in place and returned for chaining.
//
// With isIncoming false (the usual case for outbound replies) the agent
// becomes the sender and the referenced user the recipient, and the
// reference's activity id becomes ReplyToID. With isIncoming true the fields
// are stamped as if the activity had arrived from the referenced user.
func (a *Activity) ApplyConversationReference(ref *ConversationReference, isIncoming bool) *Activity {
	if ref == nil {
		return a
	}
	a.ChannelID = ref.ChannelID
	a.ServiceURL = ref.ServiceURL
	a.Conversation = ref.Conversation
	if ref.Locale != "" {
		a.Locale = ref.Locale
	}

	if isIncoming {
		a.From = ref.User
		a.Recipient = ref.Agent
		if ref.ActivityID != "" {
			a.ID = ref.ActivityID
		}
	} else {
		a.From = ref.Agent
		a.Recipient = ref.User
		if ref.ActivityID != "" {
			a.ReplyToID = ref.ActivityID
		}
	}
	return a
}
