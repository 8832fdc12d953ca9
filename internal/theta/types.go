package theta

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/go-playground/validator/v10"

	"option-data/internal/schema"
)

// Header is the page metadata envelope. Only the first page's header is kept
// as the metadata of an accumulated response.
type Header struct {
	LatencyMS int      `json:"latency_ms"`
	Format    []string `json:"format"`
	NextPage  string   `json:"next_page,omitempty"`
	ErrorType string   `json:"error_type,omitempty"`
	ErrorMsg  string   `json:"error_msg,omitempty"`
}

// Contract identifies one option series. Expiration is YYYYMMDD, strike is
// in minor units (dollars * 10000).
type Contract struct {
	Root       string `json:"root"`
	Expiration uint32 `json:"expiration"`
	Strike     uint32 `json:"strike"`
	Right      string `json:"right"`
}

// Tick is one fixed-position observation as it arrives on the wire. Field
// names and widths are assigned by the schema registry, never here.
type Tick []float64

// OptionItem is one contract with its ordered ticks.
type OptionItem struct {
	Ticks    []Tick   `json:"ticks"`
	Contract Contract `json:"contract"`
}

// OptionResponse is one logical option dataset accumulated across pages.
type OptionResponse struct {
	Header Header
	Items  []OptionItem
	Pages  PageResult
}

// StockResponse is one logical underlying dataset accumulated across pages.
type StockResponse struct {
	Header Header
	Ticks  []Tick
	Pages  PageResult
}

// PageResult records how the pagination loop ended. Truncated means the
// silent page cap stopped the walk while a next-page locator was still
// present; the accumulated items are returned either way.
type PageResult struct {
	Fetched   int
	Truncated bool
}

var validate = validator.New()

// OptionRequest describes one bulk option fetch.
type OptionRequest struct {
	Root      string       `validate:"required,alphanum"`
	Exp       uint32       // 0 requests every expiration in the window
	StartDate uint32       `validate:"required,min=19000101"`
	EndDate   uint32       `validate:"required,gtefield=StartDate"`
	Shape     schema.Shape `validate:"required,oneof=quote ohlc eod"`
	Interval  int          // ms between ticks; 0 keeps the terminal default
	StartTime int          // ms of day; 0 = unset
	EndTime   int          // ms of day; 0 = unset
}

func (r OptionRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("invalid option request: %w", err)
	}
	return nil
}

// URL builds the bulk option endpoint for this request.
func (r OptionRequest) URL(baseURL string) string {
	q := r.params()
	if r.Exp > 0 {
		q.Set("exp", strconv.FormatUint(uint64(r.Exp), 10))
	}
	return fmt.Sprintf("%s/bulk_hist/option/%s?%s", baseURL, r.Shape, q.Encode())
}

func (r OptionRequest) params() url.Values {
	q := url.Values{}
	q.Set("root", r.Root)
	q.Set("start_date", strconv.FormatUint(uint64(r.StartDate), 10))
	q.Set("end_date", strconv.FormatUint(uint64(r.EndDate), 10))
	q.Set("use_csv", "false")
	q.Set("pretty_time", "false")
	if r.Interval > 0 {
		q.Set("ivl", strconv.Itoa(r.Interval))
	}
	if r.StartTime > 0 {
		q.Set("start_time", strconv.Itoa(r.StartTime))
	}
	if r.EndTime > 0 {
		q.Set("end_time", strconv.Itoa(r.EndTime))
	}
	return q
}

// StockRequest describes one underlying fetch. The underlying series is
// always quote-shaped; its midpoint serves as the price index.
type StockRequest struct {
	Root      string `validate:"required,alphanum"`
	StartDate uint32 `validate:"required,min=19000101"`
	EndDate   uint32 `validate:"required,gtefield=StartDate"`
	Interval  int
	StartTime int
	EndTime   int
	Venue     string
}

func (r StockRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("invalid stock request: %w", err)
	}
	return nil
}

// URL builds the historical stock quote endpoint for this request.
func (r StockRequest) URL(baseURL string) string {
	q := url.Values{}
	q.Set("root", r.Root)
	q.Set("start_date", strconv.FormatUint(uint64(r.StartDate), 10))
	q.Set("end_date", strconv.FormatUint(uint64(r.EndDate), 10))
	q.Set("use_csv", "false")
	q.Set("pretty_time", "false")
	if r.Interval > 0 {
		q.Set("ivl", strconv.Itoa(r.Interval))
	}
	if r.StartTime > 0 {
		q.Set("start_time", strconv.Itoa(r.StartTime))
	}
	if r.EndTime > 0 {
		q.Set("end_time", strconv.Itoa(r.EndTime))
	}
	if r.Venue != "" {
		q.Set("venue", r.Venue)
	}
	return fmt.Sprintf("%s/hist/stock/quote?%s", baseURL, q.Encode())
}

// StockFromOption derives the underlying request matching an option request,
// so both sides of a fork/join cover the same window.
func StockFromOption(r OptionRequest) StockRequest {
	return StockRequest{
		Root:      r.Root,
		StartDate: r.StartDate,
		EndDate:   r.EndDate,
		Interval:  r.Interval,
		StartTime: r.StartTime,
		EndTime:   r.EndTime,
	}
}
