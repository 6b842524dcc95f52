package whatsapp

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/tbourn/go-bot-backend/internal/channel"
)

// Native message categories of the WhatsApp API.
const (
	TypeText        = "text"
	TypeImage       = "image"
	TypeInteractive = "interactive"
)

// Limits of interactive messages.
const (
	maxReplyButtons = 3
	maxListRows     = 10
	maxTitleRunes   = 20
	maxRowTitle     = 24
)

var errEmptyPayload = errors.New("whatsapp: empty converter payload")

// RegisterConverters binds the WhatsApp converter of every content type.
func RegisterConverters(r *channel.ConverterRegistry) {
	r.MustRegister(channel.ContentLink, channel.WhatsApp, linkConverter{})
	r.MustRegister(channel.ContentVideo, channel.WhatsApp, videoConverter{})
	r.MustRegister(channel.ContentImage, channel.WhatsApp, imageConverter{})
	r.MustRegister(channel.ContentButton, channel.WhatsApp, buttonConverter{})
	r.MustRegister(channel.ContentDropdown, channel.WhatsApp, dropdownConverter{})
}

type textBody struct {
	PreviewURL bool   `json:"preview_url"`
	Body       string `json:"body"`
}

// linkConverter sends a link as a text message with preview. Data:
// {"text": "...", "url": "..."}.
type linkConverter struct{}

func (linkConverter) MessagingType() string { return TypeText }

func (linkConverter) Convert(data json.RawMessage) (any, error) {
	var in struct {
		Text string `json:"text"`
		URL  string `json:"url"`
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, err
	}
	body := strings.TrimSpace(strings.Join([]string{in.Text, in.URL}, " "))
	if body == "" {
		return nil, errEmptyPayload
	}
	return textBody{PreviewURL: true, Body: body}, nil
}

// videoConverter sends a video link as text; the client renders the
// preview. Data: {"url": "..."}.
type videoConverter struct{}

func (videoConverter) MessagingType() string { return TypeText }

func (videoConverter) Convert(data json.RawMessage) (any, error) {
	var in struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, err
	}
	if in.URL == "" {
		return nil, errEmptyPayload
	}
	return textBody{PreviewURL: true, Body: in.URL}, nil
}

// imageConverter sends an image by link. Data: {"url": "...", "alt": "..."}.
type imageConverter struct{}

func (imageConverter) MessagingType() string { return TypeImage }

func (imageConverter) Convert(data json.RawMessage) (any, error) {
	var in struct {
		URL string `json:"url"`
		Alt string `json:"alt"`
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, err
	}
	if in.URL == "" {
		return nil, errEmptyPayload
	}
	out := map[string]string{"link": in.URL}
	if in.Alt != "" {
		out["caption"] = in.Alt
	}
	return out, nil
}

type interactiveBody struct {
	Text string `json:"text"`
}

type replyButton struct {
	Type  string `json:"type"`
	Reply struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	} `json:"reply"`
}

// buttonConverter sends reply buttons. Data: {"body": "...", "buttons":
// [{"title": "...", "payload": "..."}]}. Extra buttons are dropped.
type buttonConverter struct{}

func (buttonConverter) MessagingType() string { return TypeInteractive }

func (buttonConverter) Convert(data json.RawMessage) (any, error) {
	var in struct {
		Body    string           `json:"body"`
		Buttons []channel.Button `json:"buttons"`
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, err
	}
	if in.Body == "" || len(in.Buttons) == 0 {
		return nil, errEmptyPayload
	}
	buttons := make([]replyButton, 0, min(len(in.Buttons), maxReplyButtons))
	for _, b := range in.Buttons[:min(len(in.Buttons), maxReplyButtons)] {
		var rb replyButton
		rb.Type = "reply"
		rb.Reply.ID = b.Payload
		rb.Reply.Title = truncate(b.Title, maxTitleRunes)
		buttons = append(buttons, rb)
	}
	return map[string]any{
		"type":   "button",
		"body":   interactiveBody{Text: in.Body},
		"action": map[string]any{"buttons": buttons},
	}, nil
}

type listRow struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// dropdownConverter sends a single-section list message. Data: {"body":
// "...", "button": "...", "options": [{"title": "...", "payload": "...",
// "description": "..."}]}.
type dropdownConverter struct{}

func (dropdownConverter) MessagingType() string { return TypeInteractive }

func (dropdownConverter) Convert(data json.RawMessage) (any, error) {
	var in struct {
		Body    string `json:"body"`
		Button  string `json:"button"`
		Options []struct {
			Title       string `json:"title"`
			Payload     string `json:"payload"`
			Description string `json:"description"`
		} `json:"options"`
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, err
	}
	if in.Body == "" || len(in.Options) == 0 {
		return nil, errEmptyPayload
	}
	if in.Button == "" {
		in.Button = "Select"
	}
	rows := make([]listRow, 0, min(len(in.Options), maxListRows))
	for _, o := range in.Options[:min(len(in.Options), maxListRows)] {
		rows = append(rows, listRow{ID: o.Payload, Title: truncate(o.Title, maxRowTitle), Description: o.Description})
	}
	return map[string]any{
		"type": "list",
		"body": interactiveBody{Text: in.Body},
		"action": map[string]any{
			"button":   truncate(in.Button, maxTitleRunes),
			"sections": []map[string]any{{"title": truncate(in.Button, maxRowTitle), "rows": rows}},
		},
	}, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
