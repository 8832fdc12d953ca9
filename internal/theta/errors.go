package theta

import (
	"errors"
	"fmt"
)

// Terminal status sentinels. The terminal reports "no data" with 472 plus a
// fixed body fragment, and rejects requests arriving from a different source
// address than the session was opened with using 476.
const (
	statusNoData       = 472
	statusAddrMismatch = 476

	noDataFragment = "No data for the specified timeframe"
)

// ErrNoData marks the benign "nothing for this query window" outcome.
// Callers check it with errors.Is to implement skip-vs-abort semantics;
// it is an expected result, not a failure.
var ErrNoData = errors.New("no data for the specified timeframe")

// IsNoData reports whether err is the benign no-data outcome.
func IsNoData(err error) bool {
	return errors.Is(err, ErrNoData)
}

// StatusError is any other non-2xx upstream response, carried verbatim.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream status %d: %s", e.Status, e.Body)
}

// ConfigError is the fatal source-address mismatch rejection. It is a
// deployment problem, never retried automatically.
type ConfigError struct {
	Status int
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("terminal rejected request (HTTP %d): requests arriving from inconsistent source addresses; "+
		"route all traffic through one network interface and keep the terminal base URL fixed", e.Status)
}

// ValidationError means a page's payload did not match the expected shape.
// It aborts the in-progress fetch; no partial page is committed.
type ValidationError struct {
	Page   int
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("page %d failed shape validation: %s", e.Page, e.Reason)
}
