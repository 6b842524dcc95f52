package whatsapp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tbourn/go-bot-backend/internal/channel"
)

// Output is the channel.OutputChannel of one batch.
type Output struct {
	client     Client
	converters *channel.ConverterRegistry
}

// NewOutput wraps client.
func NewOutput(client Client, converters *channel.ConverterRegistry) *Output {
	return &Output{client: client, converters: converters}
}

func (o *Output) Name() channel.ChannelType { return channel.WhatsApp }

func (o *Output) send(ctx context.Context, recipient, messagingType string, payload any) error {
	if err := o.client.Send(ctx, recipient, messagingType, payload); err != nil {
		return err
	}
	channel.OutboundMessages.WithLabelValues(channel.WhatsApp.String(), messagingType).Inc()
	return nil
}

// SendText sends text with link previews enabled.
func (o *Output) SendText(ctx context.Context, recipient, text string) error {
	return o.send(ctx, recipient, TypeText, textBody{PreviewURL: true, Body: text})
}

// SendImageURL sends an image by link.
func (o *Output) SendImageURL(ctx context.Context, recipient, url string) error {
	return o.send(ctx, recipient, TypeImage, map[string]string{"link": url})
}

// SendCustomJSON sends a custom reply {"type": ..., "data": ...} through the
// converter of its content type. A reply without a known content type is
// sent verbatim as text; a known type without a WhatsApp converter is an
// error.
func (o *Output) SendCustomJSON(ctx context.Context, recipient string, msg json.RawMessage) error {
	var cm channel.CustomMessage
	if err := json.Unmarshal(msg, &cm); err != nil {
		// Not an object with a type, e.g. a list or a bare string.
		return o.SendText(ctx, recipient, string(msg))
	}
	ct, ok := channel.ParseContentType(cm.Type)
	if !ok {
		return o.SendText(ctx, recipient, string(msg))
	}
	conv, err := o.converters.Lookup(ct, channel.WhatsApp)
	if err != nil {
		return err
	}
	payload, err := conv.Convert(cm.Data)
	if err != nil {
		return fmt.Errorf("convert %s reply: %w", ct, err)
	}
	return o.send(ctx, recipient, conv.MessagingType(), payload)
}

// MarkAsRead sends a read receipt for messageID.
func (o *Output) MarkAsRead(ctx context.Context, messageID string) error {
	return o.client.MarkAsRead(ctx, messageID)
}
