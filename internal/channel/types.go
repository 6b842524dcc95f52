// Package channel contains the channel-independent part of the inbound
// message pipeline: the canonical message form every channel payload is
// reduced to, the gateway that hands messages to a bot's conversational
// agent, the outbound converter registry, and the asynchronous scheduler
// that decouples webhook acknowledgment from message handling.
//
// Channel specific parsing and transport live in sub-packages (see
// channel/whatsapp).
package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
)

// ChannelType identifies a messaging channel.
type ChannelType string

// WhatsApp is the only channel implemented so far.
const WhatsApp ChannelType = "whatsapp"

func (c ChannelType) String() string { return string(c) }

// Well-known metadata keys threaded from inbound to outbound.
const (
	MetaChannelType     = "channel_type"
	MetaProvider        = "bsp_type"
	MetaTabName         = "tabname"
	MetaBot             = "bot"
	MetaMessageID       = "id"
	MetaSender          = "from"
	MetaPhoneNumberID   = "phone_number_id"
	MetaIntegrationUser = "is_integration_user"
)

// Metadata is the opaque per-message context passed along with a message.
type Metadata map[string]any

// Clone returns a shallow copy; a nil receiver yields an empty map.
func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m))
	maps.Copy(out, m)
	return out
}

// Merge returns a copy of m with every key of other set on it.
func (m Metadata) Merge(other Metadata) Metadata {
	out := m.Clone()
	maps.Copy(out, other)
	return out
}

// String returns the value under key formatted as a string, or "".
func (m Metadata) String(key string) string {
	switch v := m[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// NormalizedMessage is the canonical form of an inbound channel message.
type NormalizedMessage struct {
	Text     string   `json:"text"`
	SenderID string   `json:"sender_id"`
	Metadata Metadata `json:"metadata"`
}

// OutputChannel sends replies back to the user on the channel a message came
// from.
type OutputChannel interface {
	Name() ChannelType
	SendText(ctx context.Context, recipient, text string) error
	SendImageURL(ctx context.Context, recipient, url string) error
	SendCustomJSON(ctx context.Context, recipient string, msg json.RawMessage) error
	MarkAsRead(ctx context.Context, messageID string) error
}

// Agent is a bot's conversational agent. It handles one message and writes
// its replies to out.
type Agent interface {
	HandleMessage(ctx context.Context, msg NormalizedMessage, out OutputChannel) error
}

// AgentProvider resolves the agent of a bot.
type AgentProvider interface {
	GetAgent(ctx context.Context, bot string) (Agent, error)
}

// ReplyKind is the kind of an agent reply.
type ReplyKind string

const (
	ReplyText   ReplyKind = "text"
	ReplyImage  ReplyKind = "image"
	ReplyButton ReplyKind = "button"
	ReplyCustom ReplyKind = "custom"
)

// Button is a quick reply offered with a text reply.
type Button struct {
	Title   string `json:"title"`
	Payload string `json:"payload"`
}

// OutboundReply is one reply produced by an agent.
type OutboundReply struct {
	Kind     ReplyKind
	Text     string
	ImageURL string
	Buttons  []Button
	Custom   json.RawMessage
}

// CustomMessage is the envelope of a custom reply: a declared content type
// and its payload.
type CustomMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Deliver sends r to recipient through out. Button replies are sent as a
// custom "button" message so that the channel converter shapes them.
func (r OutboundReply) Deliver(ctx context.Context, out OutputChannel, recipient string) error {
	switch r.Kind {
	case ReplyText:
		return out.SendText(ctx, recipient, r.Text)
	case ReplyImage:
		return out.SendImageURL(ctx, recipient, r.ImageURL)
	case ReplyButton:
		data, err := json.Marshal(struct {
			Body    string   `json:"body"`
			Buttons []Button `json:"buttons"`
		}{r.Text, r.Buttons})
		if err != nil {
			return err
		}
		msg, err := json.Marshal(CustomMessage{Type: string(ContentButton), Data: data})
		if err != nil {
			return err
		}
		return out.SendCustomJSON(ctx, recipient, msg)
	case ReplyCustom:
		return out.SendCustomJSON(ctx, recipient, r.Custom)
	}
	return fmt.Errorf("unknown reply kind %q", r.Kind)
}
