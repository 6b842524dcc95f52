package channel

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
)

type recordingOut struct {
	mu    sync.Mutex
	calls []string
	sent  []json.RawMessage
}

func (o *recordingOut) record(s string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, s)
}

func (o *recordingOut) Name() ChannelType { return WhatsApp }
func (o *recordingOut) SendText(_ context.Context, to, text string) error {
	o.record("text:" + to + ":" + text)
	return nil
}
func (o *recordingOut) SendImageURL(_ context.Context, to, url string) error {
	o.record("image:" + to + ":" + url)
	return nil
}
func (o *recordingOut) SendCustomJSON(_ context.Context, to string, msg json.RawMessage) error {
	o.record("custom:" + to)
	o.mu.Lock()
	o.sent = append(o.sent, msg)
	o.mu.Unlock()
	return nil
}
func (o *recordingOut) MarkAsRead(_ context.Context, id string) error {
	o.record("read:" + id)
	return nil
}

type agentFunc func(ctx context.Context, msg NormalizedMessage, out OutputChannel) error

func (f agentFunc) HandleMessage(ctx context.Context, msg NormalizedMessage, out OutputChannel) error {
	return f(ctx, msg, out)
}

type staticAgents struct {
	agent Agent
	err   error
}

func (s staticAgents) GetAgent(context.Context, string) (Agent, error) { return s.agent, s.err }

func TestMetadata(t *testing.T) {
	var nilMeta Metadata
	c := nilMeta.Clone()
	if c == nil || len(c) != 0 {
		t.Fatalf("Clone of nil = %#v", c)
	}
	m := Metadata{"a": "1", "n": 42}
	merged := m.Merge(Metadata{"a": "2", "b": true})
	if m["a"] != "1" {
		t.Fatalf("Merge mutated receiver: %#v", m)
	}
	if merged.String("a") != "2" || merged.String("n") != "42" || merged.String("b") != "true" || merged.String("x") != "" {
		t.Fatalf("merged = %#v", merged)
	}
}

func TestOutboundReply_Deliver(t *testing.T) {
	out := &recordingOut{}
	ctx := context.Background()

	replies := []OutboundReply{
		{Kind: ReplyText, Text: "hi"},
		{Kind: ReplyImage, ImageURL: "https://x/y.png"},
		{Kind: ReplyButton, Text: "pick", Buttons: []Button{{Title: "Yes", Payload: "/affirm"}}},
		{Kind: ReplyCustom, Custom: json.RawMessage(`{"type":"link","data":{}}`)},
	}
	for _, r := range replies {
		if err := r.Deliver(ctx, out, "u1"); err != nil {
			t.Fatalf("Deliver(%s): %v", r.Kind, err)
		}
	}
	want := []string{"text:u1:hi", "image:u1:https://x/y.png", "custom:u1", "custom:u1"}
	for i, w := range want {
		if out.calls[i] != w {
			t.Fatalf("call %d = %q, want %q", i, out.calls[i], w)
		}
	}
	var cm CustomMessage
	if err := json.Unmarshal(out.sent[0], &cm); err != nil || cm.Type != "button" {
		t.Fatalf("button envelope = %s (%v)", out.sent[0], err)
	}

	if err := (OutboundReply{Kind: "weird"}).Deliver(ctx, out, "u1"); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}

type constConverter string

func (c constConverter) MessagingType() string                { return string(c) }
func (c constConverter) Convert(json.RawMessage) (any, error) { return nil, nil }

func TestConverterRegistry(t *testing.T) {
	r := NewConverterRegistry()
	if err := r.Register(ContentLink, WhatsApp, constConverter("text")); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(ContentLink, WhatsApp, constConverter("text")); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
	if err := r.Register("carousel", WhatsApp, constConverter("x")); err == nil {
		t.Fatalf("expected unknown content type error")
	}
	if err := r.Register(ContentImage, WhatsApp, nil); err == nil {
		t.Fatalf("expected nil converter error")
	}

	conv, err := r.Lookup(ContentLink, WhatsApp)
	if err != nil || conv.MessagingType() != "text" {
		t.Fatalf("Lookup: %v %v", conv, err)
	}
	if _, err := r.Lookup(ContentDropdown, WhatsApp); !errors.Is(err, ErrNoConverter) {
		t.Fatalf("expected ErrNoConverter, got %v", err)
	}
	if _, err := r.Lookup(ContentLink, "telegram"); !errors.Is(err, ErrNoConverter) {
		t.Fatalf("expected ErrNoConverter for other channel, got %v", err)
	}
}

func TestParseContentType(t *testing.T) {
	for _, s := range []string{"link", "video", "image", "button", "dropdown"} {
		if _, ok := ParseContentType(s); !ok {
			t.Fatalf("%q not recognized", s)
		}
	}
	if _, ok := ParseContentType("Link"); ok {
		t.Fatalf("content types are case sensitive")
	}
}

func TestAgentPool_LoadsOncePerBot(t *testing.T) {
	var loads atomic.Int32
	release := make(chan struct{})
	pool := NewAgentPool(func(ctx context.Context, bot string) (Agent, error) {
		loads.Add(1)
		<-release
		return agentFunc(func(context.Context, NormalizedMessage, OutputChannel) error { return nil }), nil
	}, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := pool.GetAgent(context.Background(), "b1"); err != nil {
				t.Errorf("GetAgent: %v", err)
			}
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := loads.Load(); n != 1 {
		t.Fatalf("loads = %d, want 1", n)
	}
	if pool.Len() != 1 {
		t.Fatalf("Len = %d", pool.Len())
	}
	pool.Invalidate("b1")
	if _, err := pool.GetAgent(context.Background(), "b1"); err != nil {
		t.Fatalf("GetAgent after invalidate: %v", err)
	}
	if n := loads.Load(); n != 2 {
		t.Fatalf("loads after invalidate = %d, want 2", n)
	}
}

func TestAgentPool_FailedLoadNotCached(t *testing.T) {
	var loads atomic.Int32
	pool := NewAgentPool(func(context.Context, string) (Agent, error) {
		loads.Add(1)
		return nil, errors.New("no model")
	}, 0)
	for i := 0; i < 2; i++ {
		if _, err := pool.GetAgent(context.Background(), "b1"); err == nil {
			t.Fatalf("expected load error")
		}
	}
	if loads.Load() != 2 || pool.Len() != 0 {
		t.Fatalf("loads=%d len=%d", loads.Load(), pool.Len())
	}
}

func TestGateway_MarksReadThenDelivers(t *testing.T) {
	out := &recordingOut{}
	g := &Gateway{Agents: staticAgents{agent: agentFunc(func(ctx context.Context, msg NormalizedMessage, out OutputChannel) error {
		return out.SendText(ctx, msg.SenderID, "echo "+msg.Text)
	})}}

	msg := NormalizedMessage{Text: "hello", SenderID: "4915", Metadata: Metadata{MetaMessageID: "wamid.1"}}
	g.ProcessMessage(context.Background(), "b1", msg, out)

	if len(out.calls) != 2 || out.calls[0] != "read:wamid.1" || out.calls[1] != "text:4915:echo hello" {
		t.Fatalf("calls = %v", out.calls)
	}
}

func TestGateway_SwallowsFailures(t *testing.T) {
	out := &recordingOut{}
	before := testutil.ToFloat64(DeliveryFailures.WithLabelValues("whatsapp"))

	failing := &Gateway{Agents: staticAgents{agent: agentFunc(func(context.Context, NormalizedMessage, OutputChannel) error {
		return errors.New("agent down")
	})}}
	failing.ProcessMessage(context.Background(), "b1", NormalizedMessage{Text: "x"}, out)

	panicking := &Gateway{Agents: staticAgents{agent: agentFunc(func(context.Context, NormalizedMessage, OutputChannel) error {
		panic("boom")
	})}}
	panicking.ProcessMessage(context.Background(), "b1", NormalizedMessage{Text: "x"}, out)

	missing := &Gateway{Agents: staticAgents{err: errors.New("unknown bot")}}
	missing.ProcessMessage(context.Background(), "b1", NormalizedMessage{Text: "x"}, out)

	if got := testutil.ToFloat64(DeliveryFailures.WithLabelValues("whatsapp")) - before; got != 3 {
		t.Fatalf("delivery failures = %v, want 3", got)
	}
}

func TestWatermillScheduler_RoundTrip(t *testing.T) {
	ctx, cancel := context.WithCancel(zerolog.Nop().WithContext(context.Background()))
	defer cancel()

	s := NewWatermillScheduler(zerolog.Nop())
	got := make(chan Task, 2)
	if err := s.Run(ctx, map[ChannelType]TaskHandler{
		WhatsApp: func(_ context.Context, t Task) { got <- t },
	}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	in := Task{Bot: "b1", Channel: WhatsApp, Payload: json.RawMessage(`{"entry":[]}`), Metadata: Metadata{"tabname": "default"}}
	if err := s.Schedule(ctx, in); err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	// Tasks of channels without a handler are dropped.
	if err := s.Schedule(ctx, Task{Bot: "b1", Channel: "telegram"}); err != nil {
		t.Fatalf("Schedule: %v", err)
	}

	select {
	case task := <-got:
		if task.Bot != "b1" || string(task.Payload) != `{"entry":[]}` || task.Metadata.String("tabname") != "default" {
			t.Fatalf("task = %#v", task)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("task not delivered")
	}

	closeCtx, done := context.WithTimeout(context.Background(), time.Second)
	defer done()
	if err := s.Close(closeCtx); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
