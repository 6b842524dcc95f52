package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"github.com/tbourn/go-bot-backend/internal/domain"
)

// Client sends messages through one business phone number.
type Client interface {
	// Send posts payload as a message of messagingType ("text", "image",
	// "interactive", ...) to recipient.
	Send(ctx context.Context, recipient, messagingType string, payload any) error
	MarkAsRead(ctx context.Context, messageID string) error
}

// HTTPStatusError captures non-2xx responses of the provider API.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("whatsapp: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

// BatchContext is the reply context of one webhook change: the bot, the
// business number the messages arrived on and the provider credentials.
type BatchContext struct {
	Bot           string
	PhoneNumberID string
	Provider      string
	Credential    string
}

// ClientFactory builds the client of a batch.
type ClientFactory interface {
	NewClient(b BatchContext) (Client, error)
}

// Clients is the production ClientFactory. Sends are throttled per business
// number to RPS messages per second.
type Clients struct {
	CloudBaseURL     string
	CloudVersion     string
	Dialog360BaseURL string
	RPS              float64
	HTTP             *http.Client

	once     sync.Once
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewClients returns a factory with a traced HTTP client.
func NewClients(cloudBase, cloudVersion, dialog360Base string, rps float64, httpClient *http.Client) *Clients {
	if httpClient == nil {
		httpClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	return &Clients{
		CloudBaseURL:     strings.TrimRight(cloudBase, "/"),
		CloudVersion:     cloudVersion,
		Dialog360BaseURL: strings.TrimRight(dialog360Base, "/"),
		RPS:              rps,
		HTTP:             httpClient,
	}
}

// NewClient returns the client of b.Provider.
func (f *Clients) NewClient(b BatchContext) (Client, error) {
	if b.Credential == "" {
		return nil, fmt.Errorf("whatsapp: missing credential for bot %s", b.Bot)
	}
	tr := transport{http: f.HTTP, limiter: f.limiter(b.Provider + ":" + b.PhoneNumberID)}
	switch b.Provider {
	case domain.ProviderMeta, "":
		if b.PhoneNumberID == "" {
			return nil, fmt.Errorf("whatsapp: missing phone_number_id for bot %s", b.Bot)
		}
		return &CloudClient{
			transport: tr,
			url:       fmt.Sprintf("%s/%s/%s/messages", f.CloudBaseURL, f.CloudVersion, b.PhoneNumberID),
			token:     b.Credential,
		}, nil
	case domain.Provider360Dialog:
		return &Dialog360Client{
			transport: tr,
			baseURL:   f.Dialog360BaseURL,
			apiKey:    b.Credential,
		}, nil
	}
	return nil, fmt.Errorf("whatsapp: unsupported provider %q", b.Provider)
}

func (f *Clients) limiter(key string) *rate.Limiter {
	f.once.Do(func() { f.limiters = map[string]*rate.Limiter{} })
	if f.RPS <= 0 {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	lim, ok := f.limiters[key]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(f.RPS), max(1, int(f.RPS)))
		f.limiters[key] = lim
	}
	return lim
}

type transport struct {
	http    *http.Client
	limiter *rate.Limiter
}

func (t transport) do(ctx context.Context, method, url string, body any, header http.Header) error {
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	buf, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(buf))
	if err != nil {
		return err
	}
	req.Header = header.Clone()
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &HTTPStatusError{StatusCode: resp.StatusCode, URL: url, Body: string(b)}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// CloudClient talks to the Meta WhatsApp Cloud API.
type CloudClient struct {
	transport
	url   string
	token string
}

func (c *CloudClient) header() http.Header {
	return http.Header{"Authorization": {"Bearer " + c.token}}
}

// Send posts a message to recipient.
func (c *CloudClient) Send(ctx context.Context, recipient, messagingType string, payload any) error {
	return c.do(ctx, http.MethodPost, c.url, map[string]any{
		"messaging_product": "whatsapp",
		"recipient_type":    "individual",
		"to":                recipient,
		"type":              messagingType,
		messagingType:       payload,
	}, c.header())
}

// MarkAsRead marks an inbound message as read.
func (c *CloudClient) MarkAsRead(ctx context.Context, messageID string) error {
	return c.do(ctx, http.MethodPost, c.url, map[string]any{
		"messaging_product": "whatsapp",
		"status":            "read",
		"message_id":        messageID,
	}, c.header())
}

// Dialog360Client talks to the 360dialog WhatsApp API.
type Dialog360Client struct {
	transport
	baseURL string
	apiKey  string
}

func (c *Dialog360Client) header() http.Header {
	h := http.Header{}
	h.Set("D360-API-KEY", c.apiKey)
	return h
}

// Send posts a message to recipient.
func (c *Dialog360Client) Send(ctx context.Context, recipient, messagingType string, payload any) error {
	return c.do(ctx, http.MethodPost, c.baseURL+"/v1/messages", map[string]any{
		"recipient_type": "individual",
		"to":             recipient,
		"type":           messagingType,
		messagingType:    payload,
	}, c.header())
}

// MarkAsRead marks an inbound message as read.
func (c *Dialog360Client) MarkAsRead(ctx context.Context, messageID string) error {
	return c.do(ctx, http.MethodPut, c.baseURL+"/v1/messages/"+messageID, map[string]any{
		"status": "read",
	}, c.header())
}
