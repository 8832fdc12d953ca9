package theta

import (
	"context"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// Transport is the HTTP capability the fetcher depends on. Implementations
// own timeouts, connection pooling and (if any) retry policy; the fetcher
// never mutates transport state.
type Transport interface {
	Get(ctx context.Context, url string, headers map[string]string) (status int, body []byte, err error)
}

// TransportConfig bounds the shared connection pool.
type TransportConfig struct {
	Timeout             time.Duration
	MaxConnsPerHost     int
	MaxIdleConnsPerHost int
}

// DefaultTransportConfig mirrors the terminal client limits of the upstream
// system: generous timeout, capped connections.
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		Timeout:             60 * time.Second,
		MaxConnsPerHost:     100,
		MaxIdleConnsPerHost: 20,
	}
}

// RestyTransport is the production Transport backed by a resty client.
type RestyTransport struct {
	client *resty.Client
}

// NewTransport builds a RestyTransport with explicit limits. No retries:
// retry policy is layered above this core, not inside it.
func NewTransport(cfg TransportConfig) *RestyTransport {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTransportConfig().Timeout
	}
	c := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(0).
		SetTransport(&http.Transport{
			MaxConnsPerHost:     cfg.MaxConnsPerHost,
			MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
			TLSHandshakeTimeout: 10 * time.Second,
		})
	return &RestyTransport{client: c}
}

func (t *RestyTransport) Get(ctx context.Context, url string, headers map[string]string) (int, []byte, error) {
	resp, err := t.client.R().
		SetContext(ctx).
		SetHeaders(headers).
		Get(url)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode(), resp.Body(), nil
}
