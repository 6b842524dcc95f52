package channel

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/rs/zerolog"
)

// DeliveriesTopic is the topic webhook payloads are published on.
const DeliveriesTopic = "channel.deliveries"

// Task is one accepted webhook delivery awaiting fan-out. Everything the
// consumer needs travels with the task.
type Task struct {
	Bot      string          `json:"bot"`
	Channel  ChannelType     `json:"channel"`
	Payload  json.RawMessage `json:"payload"`
	Metadata Metadata        `json:"metadata"`
}

// Scheduler queues tasks for asynchronous processing. Schedule must not
// wait for the task to be processed.
type Scheduler interface {
	Schedule(ctx context.Context, t Task) error
}

// TaskHandler processes one task of a channel.
type TaskHandler func(ctx context.Context, t Task)

// WatermillScheduler is an in-process Scheduler on a watermill GoChannel.
// Each consumed task runs on its own goroutine; there is no ordering between
// tasks.
type WatermillScheduler struct {
	pubsub *gochannel.GoChannel
	topic  string
	wg     sync.WaitGroup
}

// NewWatermillScheduler creates the pub/sub and logs through logger.
func NewWatermillScheduler(logger zerolog.Logger) *WatermillScheduler {
	return &WatermillScheduler{
		pubsub: gochannel.NewGoChannel(
			gochannel.Config{OutputChannelBuffer: 256},
			NewWatermillLogger(logger),
		),
		topic: DeliveriesTopic,
	}
}

// Schedule publishes t and returns without waiting for a consumer.
func (s *WatermillScheduler) Schedule(_ context.Context, t Task) error {
	payload, err := json.Marshal(t)
	if err != nil {
		return err
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set(MetaBot, t.Bot)
	msg.Metadata.Set(MetaChannelType, t.Channel.String())
	return s.pubsub.Publish(s.topic, msg)
}

// Run subscribes to the topic and dispatches tasks to the handler of their
// channel until ctx is done. Handlers get a context that carries ctx's values
// but is not cancelled with it.
func (s *WatermillScheduler) Run(ctx context.Context, handlers map[ChannelType]TaskHandler) error {
	msgs, err := s.pubsub.Subscribe(ctx, s.topic)
	if err != nil {
		return err
	}
	base := context.WithoutCancel(ctx)
	go func() {
		for msg := range msgs {
			s.dispatch(base, msg, handlers)
		}
	}()
	return nil
}

func (s *WatermillScheduler) dispatch(ctx context.Context, msg *message.Message, handlers map[ChannelType]TaskHandler) {
	defer msg.Ack()

	lg := zerolog.Ctx(ctx)
	var t Task
	if err := json.Unmarshal(msg.Payload, &t); err != nil {
		lg.Error().Err(err).Str("uuid", msg.UUID).Msg("dropping undecodable task")
		return
	}
	h, ok := handlers[t.Channel]
	if !ok {
		lg.Warn().Str("channel", t.Channel.String()).Msg("no handler for channel")
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		h(ctx, t)
	}()
}

// Close stops the pub/sub and waits for running handlers until ctx is done.
func (s *WatermillScheduler) Close(ctx context.Context) error {
	err := s.pubsub.Close()
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return err
	case <-ctx.Done():
		return errors.Join(err, ctx.Err())
	}
}
