// Channel configuration HTTP handlers.
//
// This file exposes the per-bot WhatsApp credentials:
//   - PUT /bots/{bot}/channels/whatsapp   (create or replace)
//   - GET /bots/{bot}/channels/whatsapp   (secrets masked)
package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-bot-backend/internal/channel"
	"github.com/tbourn/go-bot-backend/internal/domain"
)

// ChannelConfigRequest is the JSON payload of PUT /channels/whatsapp.
// Provider "meta" needs access_token (app_secret enables signature checks);
// "360dialog" needs api_key.
type ChannelConfigRequest struct {
	Provider    string `json:"bsp_type"     example:"meta" enums:"meta,360dialog"`
	VerifyToken string `json:"verify_token" binding:"required" example:"my-verify-token"`
	AppSecret   string `json:"app_secret,omitempty"`
	AccessToken string `json:"access_token,omitempty"`
	APIKey      string `json:"api_key,omitempty"`
}

// ChannelConfigResponse shows stored credentials with secrets masked.
type ChannelConfigResponse struct {
	Bot         string    `json:"bot"`
	Channel     string    `json:"channel"`
	Provider    string    `json:"bsp_type"`
	VerifyToken string    `json:"verify_token"`
	AppSecret   string    `json:"app_secret,omitempty"`
	AccessToken string    `json:"access_token,omitempty"`
	APIKey      string    `json:"api_key,omitempty"`
	User        string    `json:"user"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// mask keeps the last four characters of long secrets.
func mask(s string) string {
	switch {
	case s == "":
		return ""
	case len(s) <= 8:
		return "****"
	default:
		return "****" + s[len(s)-4:]
	}
}

func maskedConfig(cfg *domain.ChannelConfig) ChannelConfigResponse {
	return ChannelConfigResponse{
		Bot:         cfg.Bot,
		Channel:     cfg.Channel,
		Provider:    cfg.Provider,
		VerifyToken: mask(cfg.VerifyToken),
		AppSecret:   mask(cfg.AppSecret),
		AccessToken: mask(cfg.AccessToken),
		APIKey:      mask(cfg.APIKey),
		User:        cfg.User,
		UpdatedAt:   cfg.UpdatedAt,
	}
}

// PutWhatsAppConfig godoc
// @ID          putWhatsAppConfig
// @Summary     Configure the WhatsApp channel
// @Description Creates or replaces the bot's WhatsApp credentials.
// @Tags        Channels
// @Accept      json
// @Produce     json
// @Param       X-User-ID  header  string                         false "Acting user"
// @Param       bot        path    string                         true  "Bot id"
// @Param       body       body    handlers.ChannelConfigRequest  true  "Credentials"
// @Success     200  {object}  handlers.ChannelConfigResponse
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /bots/{bot}/channels/whatsapp [put]
func (h *Handlers) PutWhatsAppConfig(c *gin.Context) {
	var req ChannelConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "verify_token required")
		return
	}
	cfg := &domain.ChannelConfig{
		Bot:         botID(c),
		Channel:     channel.WhatsApp.String(),
		Provider:    req.Provider,
		VerifyToken: strings.TrimSpace(req.VerifyToken),
		AppSecret:   strings.TrimSpace(req.AppSecret),
		AccessToken: strings.TrimSpace(req.AccessToken),
		APIKey:      strings.TrimSpace(req.APIKey),
		User:        userID(c),
	}
	if err := h.channels.Put(c.Request.Context(), cfg); err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, maskedConfig(cfg))
}

// GetWhatsAppConfig godoc
// @ID          getWhatsAppConfig
// @Summary     Show the WhatsApp channel configuration
// @Tags        Channels
// @Produce     json
// @Param       bot  path  string  true  "Bot id"
// @Success     200  {object}  handlers.ChannelConfigResponse
// @Failure     404  {object}  handlers.ErrorResponse  "channel not configured for bot"
// @Router      /bots/{bot}/channels/whatsapp [get]
func (h *Handlers) GetWhatsAppConfig(c *gin.Context) {
	cfg, err := h.channels.Get(c.Request.Context(), botID(c), channel.WhatsApp.String())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, maskedConfig(cfg))
}
