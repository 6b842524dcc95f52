package channel

import "github.com/prometheus/client_golang/prometheus"

// Channel pipeline collectors. Labels are bounded: channel is a ChannelType,
// result/kind/type come from small fixed sets.
var (
	// WebhookDeliveries counts webhook calls by acknowledgment result
	// ("success", "not_validated", "rejected").
	WebhookDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_deliveries_total",
			Help: "Webhook deliveries by channel and acknowledgment result.",
		},
		[]string{"channel", "result"},
	)

	// MessagesReceived counts inbound messages by payload kind; unsupported
	// shapes are counted under "unsupported".
	MessagesReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "channel_messages_total",
			Help: "Inbound channel messages by payload kind.",
		},
		[]string{"channel", "kind"},
	)

	// DeliveryFailures counts messages whose dialogue handling failed.
	DeliveryFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dialogue_delivery_failures_total",
			Help: "Messages whose delivery to the conversational agent failed.",
		},
		[]string{"channel"},
	)

	// OutboundMessages counts messages sent to the channel transport by
	// native message type.
	OutboundMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outbound_messages_total",
			Help: "Outbound channel messages by native message type.",
		},
		[]string{"channel", "type"},
	)
)

func init() {
	prometheus.MustRegister(WebhookDeliveries, MessagesReceived, DeliveryFailures, OutboundMessages)
}
