package channel

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Gateway delivers normalized messages to the conversational agent of a bot.
type Gateway struct {
	Agents AgentProvider
}

// ProcessMessage marks msg as read on out and hands it to the agent of bot.
// It never returns an error and never panics: failures are logged and
// counted so one message cannot affect other in-flight messages.
func (g *Gateway) ProcessMessage(ctx context.Context, bot string, msg NormalizedMessage, out OutputChannel) {
	ctx, span := otel.Tracer("channel/Gateway").Start(ctx, "ProcessMessage",
		trace.WithAttributes(
			attribute.String("bot.id", bot),
			attribute.String("channel", out.Name().String()),
		),
	)
	defer span.End()

	lg := zerolog.Ctx(ctx).With().
		Str("bot", bot).
		Str("channel", out.Name().String()).
		Str("message_id", msg.Metadata.String(MetaMessageID)).
		Logger()

	defer func() {
		if rec := recover(); rec != nil {
			span.SetStatus(codes.Error, "panic")
			DeliveryFailures.WithLabelValues(out.Name().String()).Inc()
			lg.Error().Interface("panic", rec).Msg("panic while handling channel message")
		}
	}()

	if id := msg.Metadata.String(MetaMessageID); id != "" {
		if err := out.MarkAsRead(ctx, id); err != nil {
			lg.Warn().Err(err).Msg("mark as read failed")
		}
	}

	if err := g.deliver(lg.WithContext(ctx), bot, msg, out); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "deliver")
		DeliveryFailures.WithLabelValues(out.Name().String()).Inc()
		lg.Error().Err(err).Msg("exception when trying to handle channel message")
	}
}

func (g *Gateway) deliver(ctx context.Context, bot string, msg NormalizedMessage, out OutputChannel) error {
	if g.Agents == nil {
		return fmt.Errorf("no agent provider")
	}
	agent, err := g.Agents.GetAgent(ctx, bot)
	if err != nil {
		return err
	}
	return agent.HandleMessage(ctx, msg, out)
}
