// Webhook HTTP handlers.
//
// This file exposes the WhatsApp channel endpoints called by the messaging
// provider:
//   - GET  /channels/whatsapp/{bot}   (verification handshake)
//   - POST /channels/whatsapp/{bot}   (message delivery)
//
// Deliveries are acknowledged with a plain string ("success" or
// "not validated") as soon as the payload is scheduled; message handling
// runs in the background.
package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-bot-backend/internal/channel"
	"github.com/tbourn/go-bot-backend/internal/channel/whatsapp"
)

const defaultMaxWebhookBody int64 = 1 << 20

// Signature headers, newest first.
var signatureHeaders = []string{"X-Hub-Signature-256", "X-Hub-Signature"}

// VerifyWhatsApp godoc
// @ID          verifyWhatsApp
// @Summary     WhatsApp webhook verification
// @Description Echoes hub.challenge when hub.verify_token matches the bot's verify token.
// @Tags        Webhooks
// @Produce     plain
// @Param       bot               path   string  true  "Bot id"
// @Param       hub.verify_token  query  string  true  "Verify token"
// @Param       hub.challenge     query  string  true  "Challenge to echo"
// @Success     200  {string}  string  "The challenge, or a failure status object"
// @Failure     404  {object}  handlers.ErrorResponse  "channel not configured for bot"
// @Router      /channels/whatsapp/{bot} [get]
func (h *Handlers) VerifyWhatsApp(c *gin.Context) {
	challenge, matched, err := h.webhook.Verify(c.Request.Context(), botID(c),
		c.Query("hub.verify_token"), c.Query("hub.challenge"))
	if err != nil {
		failErr(c, err)
		return
	}
	if !matched {
		ok(c, http.StatusOK, whatsapp.VerifyFailure)
		return
	}
	c.String(http.StatusOK, challenge)
}

// WhatsAppWebhook godoc
// @ID          whatsAppWebhook
// @Summary     WhatsApp webhook delivery
// @Description Validates the payload signature (provider "meta") and schedules the batch.
// @Tags        Webhooks
// @Accept      json
// @Produce     plain
// @Param       bot                  path    string  true   "Bot id"
// @Param       X-Hub-Signature-256  header  string  false  "sha256=<hex HMAC of the body>"
// @Success     200  {string}  string  "success | not validated"
// @Failure     400  {object}  handlers.ErrorResponse  "Malformed payload"
// @Failure     404  {object}  handlers.ErrorResponse  "channel not configured for bot"
// @Failure     413  {object}  handlers.ErrorResponse  "Payload too large"
// @Router      /channels/whatsapp/{bot} [post]
func (h *Handlers) WhatsAppWebhook(c *gin.Context) {
	limit := h.MaxWebhookBody
	if limit <= 0 {
		limit = defaultMaxWebhookBody
	}
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, limit))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			fail(c, http.StatusRequestEntityTooLarge, ErrCodeTooLarge, "payload too large")
			return
		}
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unable to read body")
		return
	}

	var signature string
	for _, hdr := range signatureHeaders {
		if signature = c.GetHeader(hdr); signature != "" {
			break
		}
	}

	bot := botID(c)
	meta := channel.Metadata{
		channel.MetaBot:             bot,
		channel.MetaIntegrationUser: true,
	}
	ack, err := h.webhook.HandlePayload(c.Request.Context(), bot, body, signature, meta)
	if err != nil {
		if errors.Is(err, whatsapp.ErrMalformedPayload) {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "malformed webhook payload")
			return
		}
		failErr(c, err)
		return
	}
	c.String(http.StatusOK, ack)
}
