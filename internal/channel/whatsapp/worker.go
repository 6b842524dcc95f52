package whatsapp

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-bot-backend/internal/channel"
	"github.com/tbourn/go-bot-backend/internal/domain"
)

// ReceiptClaimer records handled message ids so provider retries are
// skipped. Claim returns false for a message that was already claimed.
type ReceiptClaimer interface {
	Claim(ctx context.Context, bot, channel, messageID string) (bool, error)
}

// Worker consumes scheduled WhatsApp deliveries. Every message of a delivery
// is normalized and handled on its own goroutine; there is no ordering
// between messages.
type Worker struct {
	Configs    ConfigSource
	Clients    ClientFactory
	Gateway    *channel.Gateway
	Converters *channel.ConverterRegistry

	// Receipts is optional; without it every delivery is handled.
	Receipts ReceiptClaimer
}

// Handle fans out one delivery and returns when all its messages are
// handled. It matches channel.TaskHandler.
func (w *Worker) Handle(ctx context.Context, t channel.Task) {
	lg := zerolog.Ctx(ctx).With().Str("bot", t.Bot).Str("channel", channel.WhatsApp.String()).Logger()
	ctx = lg.WithContext(ctx)

	var hook Webhook
	if err := json.Unmarshal(t.Payload, &hook); err != nil {
		lg.Error().Err(err).Msg("undecodable whatsapp payload")
		return
	}
	// Credentials are read once per delivery so rotated tokens apply to the
	// next one.
	cfg, err := w.Configs.Get(ctx, t.Bot, channel.WhatsApp.String())
	if err != nil {
		lg.Error().Err(err).Msg("whatsapp channel config unavailable")
		return
	}

	var wg sync.WaitGroup
	for _, entry := range hook.Entry {
		for _, change := range entry.Changes {
			w.handleChange(ctx, &wg, t, cfg, change)
		}
	}
	wg.Wait()
}

func (w *Worker) handleChange(ctx context.Context, wg *sync.WaitGroup, t channel.Task, cfg *domain.ChannelConfig, change Change) {
	lg := zerolog.Ctx(ctx)
	if len(change.Value.Messages) == 0 {
		return
	}

	batch := BatchContext{
		Bot:           t.Bot,
		PhoneNumberID: change.Value.Metadata.PhoneNumberID,
		Provider:      cfg.Provider,
		Credential:    cfg.Credential(),
	}
	client, err := w.Clients.NewClient(batch)
	if err != nil {
		lg.Error().Err(err).Str("phone_number_id", batch.PhoneNumberID).Msg("cannot build whatsapp client")
		return
	}
	out := NewOutput(client, w.Converters)
	meta := t.Metadata.Merge(channel.Metadata{
		channel.MetaPhoneNumberID: change.Value.Metadata.PhoneNumberID,
		"display_phone_number":    change.Value.Metadata.DisplayPhoneNumber,
	})

	for _, raw := range change.Value.Messages {
		var m Message
		if err := json.Unmarshal(raw, &m); err != nil {
			lg.Warn().Err(err).Msg("undecodable whatsapp message")
			continue
		}
		msg, ok := Normalize(m, meta)
		if !ok {
			channel.MessagesReceived.WithLabelValues(channel.WhatsApp.String(), "unsupported").Inc()
			lg.Warn().Str("type", m.Type).Str("message_id", m.ID).
				Msg("received a whatsapp message that cannot be handled")
			continue
		}
		channel.MessagesReceived.WithLabelValues(channel.WhatsApp.String(), mediaKind(m.Type)).Inc()

		wg.Add(1)
		go func() {
			defer wg.Done()
			if !w.claim(ctx, t.Bot, m.ID) {
				return
			}
			w.Gateway.ProcessMessage(ctx, t.Bot, msg, out)
		}()
	}
}

func (w *Worker) claim(ctx context.Context, bot, messageID string) bool {
	if w.Receipts == nil || messageID == "" {
		return true
	}
	ok, err := w.Receipts.Claim(ctx, bot, channel.WhatsApp.String(), messageID)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("message_id", messageID).Msg("delivery receipt check failed, handling anyway")
		return true
	}
	if !ok {
		zerolog.Ctx(ctx).Debug().Str("message_id", messageID).Msg("skipping redelivered message")
	}
	return ok
}
