package whatsapp

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"hash"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-bot-backend/internal/channel"
	"github.com/tbourn/go-bot-backend/internal/domain"
)

// Acknowledgments returned to the webhook caller.
const (
	AckSuccess      = "success"
	AckNotValidated = "not validated"
)

// VerifyFailure is the body returned for a verification handshake with a
// wrong token.
var VerifyFailure = map[string]string{"status": "failure, invalid verify_token"}

// ErrMalformedPayload is returned for a webhook body that is not a JSON
// object.
var ErrMalformedPayload = errors.New("malformed webhook payload")

// ConfigSource returns the stored credentials of a bot's channel.
type ConfigSource interface {
	Get(ctx context.Context, bot, channel string) (*domain.ChannelConfig, error)
}

// Dispatcher accepts WhatsApp webhook deliveries. It checks authenticity and
// hands the payload to the scheduler; it never waits for message handling.
type Dispatcher struct {
	Configs   ConfigSource
	Scheduler channel.Scheduler
}

// Verify answers the webhook verification handshake. It returns the
// challenge and true when token matches the bot's verify token.
func (d *Dispatcher) Verify(ctx context.Context, bot, token, challenge string) (string, bool, error) {
	cfg, err := d.Configs.Get(ctx, bot, channel.WhatsApp.String())
	if err != nil {
		return "", false, err
	}
	if !hmac.Equal([]byte(token), []byte(cfg.VerifyToken)) {
		zerolog.Ctx(ctx).Warn().Str("bot", bot).
			Msg("invalid verify token, make sure it matches the webhook settings of the whatsapp app")
		return "", false, nil
	}
	return challenge, true, nil
}

// HandlePayload merges the channel's fixed metadata into meta, validates the
// signature header for providers that sign their webhooks and schedules the
// payload. A signature mismatch returns AckNotValidated and schedules
// nothing; it is not an error.
func (d *Dispatcher) HandlePayload(ctx context.Context, bot string, body []byte, signature string, meta channel.Metadata) (string, error) {
	lg := zerolog.Ctx(ctx).With().Str("bot", bot).Str("channel", channel.WhatsApp.String()).Logger()

	cfg, err := d.Configs.Get(ctx, bot, channel.WhatsApp.String())
	if err != nil {
		return "", err
	}
	provider := cfg.Provider
	if provider == "" {
		provider = domain.ProviderMeta
	}
	meta = meta.Merge(channel.Metadata{
		channel.MetaChannelType: channel.WhatsApp.String(),
		channel.MetaProvider:    provider,
		channel.MetaTabName:     "default",
	})

	if provider == domain.ProviderMeta && !ValidSignature(cfg.AppSecret, body, signature) {
		lg.Warn().Msg("wrong app secret, make sure it matches the secret in the whatsapp app settings")
		channel.WebhookDeliveries.WithLabelValues(channel.WhatsApp.String(), "not_validated").Inc()
		return AckNotValidated, nil
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(body, &probe); err != nil {
		channel.WebhookDeliveries.WithLabelValues(channel.WhatsApp.String(), "rejected").Inc()
		return "", fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	task := channel.Task{
		Bot:      bot,
		Channel:  channel.WhatsApp,
		Payload:  json.RawMessage(body),
		Metadata: meta,
	}
	if err := d.Scheduler.Schedule(ctx, task); err != nil {
		return "", fmt.Errorf("schedule webhook payload: %w", err)
	}
	channel.WebhookDeliveries.WithLabelValues(channel.WhatsApp.String(), "success").Inc()
	return AckSuccess, nil
}

// ValidSignature checks an X-Hub-Signature style header ("sha1=<hex>" or
// "sha256=<hex>") against the HMAC of body keyed with secret.
func ValidSignature(secret string, body []byte, header string) bool {
	if secret == "" {
		return false
	}
	algo, sig, ok := strings.Cut(strings.TrimSpace(header), "=")
	if !ok {
		return false
	}
	var h func() hash.Hash
	switch strings.ToLower(algo) {
	case "sha1":
		h = sha1.New
	case "sha256":
		h = sha256.New
	default:
		return false
	}
	want, err := hex.DecodeString(sig)
	if err != nil {
		return false
	}
	mac := hmac.New(h, []byte(secret))
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), want)
}
