// Package whatsapp implements the WhatsApp channel: webhook verification and
// authenticity checks, batch fan-out of webhook deliveries, normalization of
// the provider's message shapes, and the outbound clients for the Meta Cloud
// API and 360dialog.
package whatsapp

import (
	"encoding/json"
	"fmt"

	"github.com/tbourn/go-bot-backend/internal/channel"
)

// Webhook is the envelope of a WhatsApp webhook delivery. One delivery can
// bundle several entries, each with several changes.
type Webhook struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

type Change struct {
	Field string      `json:"field"`
	Value ChangeValue `json:"value"`
}

type ChangeValue struct {
	MessagingProduct string            `json:"messaging_product"`
	Metadata         ValueMetadata     `json:"metadata"`
	Messages         []json.RawMessage `json:"messages"`
}

// ValueMetadata identifies the business number a change was received on.
type ValueMetadata struct {
	DisplayPhoneNumber string `json:"display_phone_number"`
	PhoneNumberID      string `json:"phone_number_id"`
}

// Message is one inbound message. Only the fields used for normalization are
// decoded; Interactive keeps its per-type sub-object raw.
type Message struct {
	ID          string                     `json:"id"`
	From        string                     `json:"from"`
	Timestamp   string                     `json:"timestamp"`
	Type        string                     `json:"type"`
	Text        *struct{ Body string }     `json:"text"`
	Button      *struct{ Text string }     `json:"button"`
	Interactive map[string]json.RawMessage `json:"interactive"`
	Image       *Media                     `json:"image"`
	Audio       *Media                     `json:"audio"`
	Document    *Media                     `json:"document"`
	Video       *Media                     `json:"video"`
	Voice       *Media                     `json:"voice"`
}

// Media references an uploaded attachment.
type Media struct {
	ID       string `json:"id"`
	MimeType string `json:"mime_type,omitempty"`
}

// MultimediaCommand prefixes the synthetic text of media messages.
const MultimediaCommand = "/k_multimedia_msg"

// Normalize reduces m to the canonical message. The first matching shape
// wins: interactive, text, button, then media. Other shapes report false.
// The result's metadata is m's identifying fields overlaid with meta.
func Normalize(m Message, meta channel.Metadata) (channel.NormalizedMessage, bool) {
	text, ok := messageText(m)
	if !ok {
		return channel.NormalizedMessage{}, false
	}
	md := channel.Metadata{
		channel.MetaMessageID: m.ID,
		channel.MetaSender:    m.From,
		"type":                mediaKind(m.Type),
		"timestamp":           m.Timestamp,
	}.Merge(meta)
	return channel.NormalizedMessage{Text: text, SenderID: m.From, Metadata: md}, true
}

func messageText(m Message) (string, bool) {
	switch m.Type {
	case "interactive":
		return interactiveID(m.Interactive)
	case "text":
		if m.Text == nil {
			return "", false
		}
		return m.Text.Body, true
	case "button":
		if m.Button == nil {
			return "", false
		}
		return m.Button.Text, true
	case "image", "audio", "document", "video", "voice":
		media := map[string]*Media{
			"image": m.Image, "audio": m.Audio, "document": m.Document,
			"video": m.Video, "voice": m.Voice,
		}[m.Type]
		if media == nil {
			return "", false
		}
		return multimediaText(mediaKind(m.Type), media.ID), true
	}
	return "", false
}

// interactiveID returns the id of the reply nested under the interactive
// sub-type key, e.g. interactive.button_reply.id.
func interactiveID(in map[string]json.RawMessage) (string, bool) {
	var kind string
	if err := json.Unmarshal(in["type"], &kind); err != nil || kind == "" {
		return "", false
	}
	var reply struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(in[kind], &reply); err != nil {
		return "", false
	}
	return reply.ID, true
}

func mediaKind(t string) string {
	if t == "voice" {
		return "audio"
	}
	return t
}

func multimediaText(kind, id string) string {
	b, _ := json.Marshal(map[string]string{kind: id})
	return fmt.Sprintf("%s%s", MultimediaCommand, b)
}
