package domain

import "time"

// Messaging providers a WhatsApp channel can be bound to.
const (
	ProviderMeta      = "meta"
	Provider360Dialog = "360dialog"
)

// ChannelConfig stores the credentials of one messaging channel for a bot.
//
// Fields:
//   - Channel: channel identity (e.g. "whatsapp"); unique together with Bot.
//   - Provider: business solution provider; "meta" validates webhook
//     signatures with AppSecret and sends with AccessToken, "360dialog"
//     sends with APIKey and does not sign webhooks.
//   - VerifyToken: shared secret echoed during the verification handshake.
type ChannelConfig struct {
	ID          string    `json:"id"                     gorm:"type:char(36);primaryKey"`
	Bot         string    `json:"bot"                    gorm:"type:varchar(64);not null;uniqueIndex:ux_channel_bot,priority:1"`
	Channel     string    `json:"channel"                gorm:"type:varchar(32);not null;uniqueIndex:ux_channel_bot,priority:2"`
	Provider    string    `json:"bsp_type"               gorm:"type:varchar(32);not null"`
	VerifyToken string    `json:"verify_token"           gorm:"type:varchar(255);not null"`
	AppSecret   string    `json:"app_secret,omitempty"   gorm:"type:varchar(255)"`
	AccessToken string    `json:"access_token,omitempty" gorm:"type:text"`
	APIKey      string    `json:"api_key,omitempty"      gorm:"type:varchar(255)"`
	User        string    `json:"user"                   gorm:"type:varchar(64);not null"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns the database table name for ChannelConfig.
func (ChannelConfig) TableName() string { return "channel_configs" }

// Credential returns the outbound credential for the configured provider.
func (c ChannelConfig) Credential() string {
	if c.Provider == ProviderMeta || c.Provider == "" {
		return c.AccessToken
	}
	return c.APIKey
}

// DeliveryReceipt marks an inbound channel message as handled so that
// provider retries of the same message id are skipped.
type DeliveryReceipt struct {
	ID        string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	Bot       string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_receipt_bot_channel_msg,priority:1"`
	Channel   string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_receipt_bot_channel_msg,priority:2"`
	MessageID string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_receipt_bot_channel_msg,priority:3"`
	CreatedAt time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (DeliveryReceipt) TableName() string { return "delivery_receipts" }

// Validate checks the provider and that the credential it needs is set.
func (c *ChannelConfig) Validate() error {
	if blank(c.Bot) || blank(c.User) {
		return invalid("bot and user cannot be empty or blank spaces")
	}
	if blank(c.Channel) {
		return invalid("channel cannot be empty or blank spaces")
	}
	if blank(c.VerifyToken) {
		return invalid("verify_token cannot be empty or blank spaces")
	}
	switch c.Provider {
	case ProviderMeta:
		if blank(c.AccessToken) {
			return invalid("access_token is required for provider %s", c.Provider)
		}
	case Provider360Dialog:
		if blank(c.APIKey) {
			return invalid("api_key is required for provider %s", c.Provider)
		}
	default:
		return invalid("Invalid bsp_type: %q", c.Provider)
	}
	return nil
}
