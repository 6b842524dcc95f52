// Package agent connects bots to their conversational agents. An agent is
// a remote service that takes one user message and returns a list of
// replies, in the shape of a Rasa REST webhook.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/tbourn/go-bot-backend/internal/channel"
)

// BotPlaceholder is replaced by the bot id in endpoint templates.
const BotPlaceholder = "{bot}"

// HTTPStatusError captures non-2xx responses of an agent.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("agent: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

type request struct {
	Sender   string           `json:"sender"`
	Message  string           `json:"message"`
	Metadata channel.Metadata `json:"metadata,omitempty"`
}

// Reply is one element of an agent response.
type Reply struct {
	RecipientID string           `json:"recipient_id,omitempty"`
	Text        string           `json:"text,omitempty"`
	Image       string           `json:"image,omitempty"`
	Buttons     []channel.Button `json:"buttons,omitempty"`
	Custom      json.RawMessage  `json:"custom,omitempty"`
}

// Outbound maps r to the replies sent back on the channel. A reply may carry
// several parts; they are sent text first, then image, then custom.
func (r Reply) Outbound() []channel.OutboundReply {
	var out []channel.OutboundReply
	switch {
	case r.Text != "" && len(r.Buttons) > 0:
		out = append(out, channel.OutboundReply{Kind: channel.ReplyButton, Text: r.Text, Buttons: r.Buttons})
	case r.Text != "":
		out = append(out, channel.OutboundReply{Kind: channel.ReplyText, Text: r.Text})
	}
	if r.Image != "" {
		out = append(out, channel.OutboundReply{Kind: channel.ReplyImage, ImageURL: r.Image})
	}
	if len(r.Custom) > 0 && string(r.Custom) != "null" {
		out = append(out, channel.OutboundReply{Kind: channel.ReplyCustom, Custom: r.Custom})
	}
	return out
}

// HTTPAgent is the agent of one bot, reached over HTTP.
type HTTPAgent struct {
	URL  string
	HTTP *http.Client
}

// HandleMessage posts msg to the agent and delivers every reply to the
// sender. Delivery stops at the first failed send.
func (a *HTTPAgent) HandleMessage(ctx context.Context, msg channel.NormalizedMessage, out channel.OutputChannel) error {
	replies, err := a.Query(ctx, msg)
	if err != nil {
		return err
	}
	for _, r := range replies {
		for _, o := range r.Outbound() {
			if err := o.Deliver(ctx, out, msg.SenderID); err != nil {
				return fmt.Errorf("agent: deliver %s reply: %w", o.Kind, err)
			}
		}
	}
	return nil
}

// Query sends msg and returns the agent's replies.
func (a *HTTPAgent) Query(ctx context.Context, msg channel.NormalizedMessage) ([]Reply, error) {
	body, err := json.Marshal(request{Sender: msg.SenderID, Message: msg.Text, Metadata: msg.Metadata})
	if err != nil {
		return nil, fmt.Errorf("agent: marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("agent: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := a.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("agent: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("agent: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPStatusError{StatusCode: resp.StatusCode, URL: a.URL, Body: strings.TrimSpace(string(raw))}
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	var replies []Reply
	if err := json.Unmarshal(raw, &replies); err != nil {
		return nil, fmt.Errorf("agent: decode response: %w", err)
	}
	return replies, nil
}

// NewLoader returns an AgentLoader that builds the HTTPAgent of a bot from
// endpoint, a URL template containing BotPlaceholder. A nil httpClient gets
// a traced client with the given timeout.
func NewLoader(endpoint string, timeout time.Duration, httpClient *http.Client) channel.AgentLoader {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return func(_ context.Context, bot string) (channel.Agent, error) {
		if strings.TrimSpace(bot) == "" {
			return nil, fmt.Errorf("agent: empty bot id")
		}
		if endpoint == "" {
			return nil, fmt.Errorf("agent: no endpoint configured for bot %s", bot)
		}
		u := strings.ReplaceAll(endpoint, BotPlaceholder, url.PathEscape(bot))
		if _, err := url.ParseRequestURI(u); err != nil {
			return nil, fmt.Errorf("agent: endpoint for bot %s: %w", bot, err)
		}
		return &HTTPAgent{URL: u, HTTP: httpClient}, nil
	}
}
