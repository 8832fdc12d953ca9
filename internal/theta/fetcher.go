package theta

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"option-data/internal/schema"
	"option-data/internal/slogx"
)

// nextPagePath is the dot path into the page envelope that carries the
// next-page locator.
const nextPagePath = "header.next_page"

// DefaultMaxPages is the silent pagination safety cap. Hitting it returns
// whatever was accumulated; PageResult.Truncated records that it happened.
const DefaultMaxPages = 100

// ClientConfig tunes one fetch client.
type ClientConfig struct {
	BaseURL     string
	MaxPages    int
	StreamPages bool              // scan option pages incrementally instead of buffering
	Headers     map[string]string // forwarded to every transport call
}

// Client fetches logical datasets that may span multiple pages. It owns no
// connections; the Transport handle is injected and treated as read-only.
type Client struct {
	transport Transport
	cfg       ClientConfig
	log       *slog.Logger
}

// NewClient builds a fetch client over an injected transport.
func NewClient(transport Transport, cfg ClientConfig, log *slog.Logger) *Client {
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = DefaultMaxPages
	}
	if log == nil {
		log = slogx.Default
	}
	return &Client{transport: transport, cfg: cfg, log: log}
}

// FetchOptionTicks retrieves one bulk option dataset. Items accumulate in
// page arrival order; the first page's header becomes the result metadata.
func (c *Client) FetchOptionTicks(ctx context.Context, req OptionRequest) (*OptionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	expected, err := schema.FieldNames(req.Shape)
	if err != nil {
		return nil, err
	}

	out := &OptionResponse{}
	pages, err := c.paginate(ctx, req.URL(c.cfg.BaseURL), func(page int, body []byte) (json.RawMessage, error) {
		var items []OptionItem
		var headerRaw json.RawMessage
		if c.cfg.StreamPages {
			raw, err := scanPage(bytes.NewReader(body), "response", func(raw json.RawMessage) error {
				var item OptionItem
				if err := json.Unmarshal(raw, &item); err != nil {
					return &ValidationError{Page: page, Reason: err.Error()}
				}
				items = append(items, item)
				return nil
			})
			if err != nil {
				return nil, err
			}
			headerRaw = raw
		} else {
			var env pageEnvelope
			if err := json.Unmarshal(body, &env); err != nil {
				return nil, &ValidationError{Page: page, Reason: err.Error()}
			}
			headerRaw = env.Header
			if len(env.Response) > 0 {
				if err := json.Unmarshal(env.Response, &items); err != nil {
					return nil, &ValidationError{Page: page, Reason: err.Error()}
				}
			}
		}

		hdr, err := decodeHeader(headerRaw, page)
		if err != nil {
			return nil, err
		}
		if err := validateOptionPage(page, hdr, items, expected); err != nil {
			return nil, err
		}
		if page == 1 {
			out.Header = hdr
		}
		out.Items = append(out.Items, items...)
		c.log.Debug("option page fetched", "page", page, "items", len(items))
		return headerRaw, nil
	})
	if err != nil {
		return nil, err
	}
	out.Pages = pages
	c.log.Info("option fetch complete", "root", req.Root, "items", len(out.Items), "pages", pages.Fetched)
	return out, nil
}

// FetchStockTicks retrieves one underlying quote dataset. Stock pages are
// small relative to bulk option pages, so they are always parsed buffered.
func (c *Client) FetchStockTicks(ctx context.Context, req StockRequest) (*StockResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	expected, err := schema.FieldNames(schema.ShapeQuote)
	if err != nil {
		return nil, err
	}

	out := &StockResponse{}
	pages, err := c.paginate(ctx, req.URL(c.cfg.BaseURL), func(page int, body []byte) (json.RawMessage, error) {
		var env pageEnvelope
		if err := json.Unmarshal(body, &env); err != nil {
			return nil, &ValidationError{Page: page, Reason: err.Error()}
		}
		var ticks []Tick
		if len(env.Response) > 0 {
			if err := json.Unmarshal(env.Response, &ticks); err != nil {
				return nil, &ValidationError{Page: page, Reason: err.Error()}
			}
		}
		hdr, err := decodeHeader(env.Header, page)
		if err != nil {
			return nil, err
		}
		if err := validateTicks(page, hdr, ticks, expected); err != nil {
			return nil, err
		}
		if page == 1 {
			out.Header = hdr
		}
		out.Ticks = append(out.Ticks, ticks...)
		c.log.Debug("stock page fetched", "page", page, "ticks", len(ticks))
		return env.Header, nil
	})
	if err != nil {
		return nil, err
	}
	out.Pages = pages
	c.log.Info("stock fetch complete", "root", req.Root, "ticks", len(out.Ticks), "pages", pages.Fetched)
	return out, nil
}

type pageEnvelope struct {
	Header   json.RawMessage `json:"header"`
	Response json.RawMessage `json:"response"`
}

// paginate drives the sequential page walk. Each page's locator depends on
// the previous page's header, so pages are never fetched concurrently.
func (c *Client) paginate(ctx context.Context, firstURL string, handle func(page int, body []byte) (json.RawMessage, error)) (PageResult, error) {
	var res PageResult
	url := firstURL
	for page := 1; url != ""; page++ {
		if page > c.cfg.MaxPages {
			// Silent safety cap: return what we have.
			res.Truncated = true
			c.log.Warn("page cap reached, stopping pagination", "max_pages", c.cfg.MaxPages)
			break
		}
		status, body, err := c.transport.Get(ctx, url, c.cfg.Headers)
		if err != nil {
			return res, fmt.Errorf("fetch page %d: %w", page, err)
		}
		if err := checkStatus(status, body); err != nil {
			return res, err
		}
		headerRaw, err := handle(page, body)
		if err != nil {
			return res, err
		}
		res.Fetched = page
		url = nextPageFrom(headerRaw, nextPagePath)
	}
	return res, nil
}

// checkStatus classifies upstream status sentinels. No-data is recognized by
// status code and body content together, never by status alone.
func checkStatus(status int, body []byte) error {
	switch {
	case status == statusNoData && hasNoDataFragment(body):
		return fmt.Errorf("%w (HTTP %d)", ErrNoData, status)
	case status == statusAddrMismatch:
		return &ConfigError{Status: status}
	case status < 200 || status >= 300:
		return &StatusError{Status: status, Body: string(bytes.TrimSpace(body))}
	}
	return nil
}

func decodeHeader(raw json.RawMessage, page int) (Header, error) {
	var h Header
	if len(raw) == 0 {
		return h, &ValidationError{Page: page, Reason: "page has no header"}
	}
	if err := json.Unmarshal(raw, &h); err != nil {
		return h, &ValidationError{Page: page, Reason: fmt.Sprintf("malformed header: %v", err)}
	}
	if h.ErrorType != "" {
		return h, &ValidationError{Page: page, Reason: fmt.Sprintf("upstream error %s: %s", h.ErrorType, h.ErrorMsg)}
	}
	return h, nil
}

// validateOptionPage checks a page against the expected shape: the declared
// format list when present, every tick's width, and contract rights.
func validateOptionPage(page int, hdr Header, items []OptionItem, expected []string) error {
	if err := validateFormat(page, hdr, expected); err != nil {
		return err
	}
	for _, item := range items {
		if r := item.Contract.Right; r != "C" && r != "P" {
			return &ValidationError{Page: page, Reason: fmt.Sprintf("contract %s/%d has right %q, want C or P", item.Contract.Root, item.Contract.Expiration, r)}
		}
		for _, tick := range item.Ticks {
			if len(tick) != len(expected) {
				return &ValidationError{Page: page, Reason: fmt.Sprintf("tick has %d fields, shape declares %d", len(tick), len(expected))}
			}
		}
	}
	return nil
}

func validateTicks(page int, hdr Header, ticks []Tick, expected []string) error {
	if err := validateFormat(page, hdr, expected); err != nil {
		return err
	}
	for _, tick := range ticks {
		if len(tick) != len(expected) {
			return &ValidationError{Page: page, Reason: fmt.Sprintf("tick has %d fields, shape declares %d", len(tick), len(expected))}
		}
	}
	return nil
}

func validateFormat(page int, hdr Header, expected []string) error {
	if len(hdr.Format) == 0 {
		return nil
	}
	if len(hdr.Format) != len(expected) {
		return &ValidationError{Page: page, Reason: fmt.Sprintf("format lists %d fields, shape declares %d", len(hdr.Format), len(expected))}
	}
	for i, name := range hdr.Format {
		if name != expected[i] {
			return &ValidationError{Page: page, Reason: fmt.Sprintf("format field %d is %q, shape declares %q", i, name, expected[i])}
		}
	}
	return nil
}
