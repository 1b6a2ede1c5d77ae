package scraper

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Crawl failures collapse into a small taxonomy so retry decisions, log
// lines, and metric labels share one vocabulary. Each type wraps its cause
// for errors.Is/As chains; anything unrecognized stays unwrapped and labels
// as "other".

// ErrTimeout marks a request that ran out of time, whether from the
// request deadline or a network-level timeout.
type ErrTimeout struct{ Err error }

func (e ErrTimeout) Error() string { return fmt.Sprintf("timeout: %v", e.Err) }
func (e ErrTimeout) Unwrap() error { return e.Err }

// ErrConnection marks a failure to reach the catalogue host at all.
type ErrConnection struct{ Err error }

func (e ErrConnection) Error() string { return fmt.Sprintf("connection: %v", e.Err) }
func (e ErrConnection) Unwrap() error { return e.Err }

// ErrForbidden marks an HTTP 403, usually bot detection.
type ErrForbidden struct{ Err error }

func (e ErrForbidden) Error() string { return fmt.Sprintf("forbidden: %v", e.Err) }
func (e ErrForbidden) Unwrap() error { return e.Err }

// ErrNotFound marks an HTTP 404, typically a stale catalogue link.
type ErrNotFound struct{ Err error }

func (e ErrNotFound) Error() string { return fmt.Sprintf("not_found: %v", e.Err) }
func (e ErrNotFound) Unwrap() error { return e.Err }

// ErrRateLimited marks an HTTP 429 from the target.
type ErrRateLimited struct{ Err error }

func (e ErrRateLimited) Error() string { return fmt.Sprintf("rate_limited: %v", e.Err) }
func (e ErrRateLimited) Unwrap() error { return e.Err }

// classifyError wraps a transport error or HTTP status in the matching
// taxonomy type. Network conditions take precedence over status codes: a
// timed-out request may carry a stale status from a partial response.
func classifyError(err error, statusCode int) error {
	if err == nil && statusCode == 0 {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout{Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout{Err: err}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ErrConnection{Err: err}
	}

	if statusCode != 0 {
		wrapped := err
		if wrapped == nil {
			wrapped = fmt.Errorf("http status %d", statusCode)
		}
		switch statusCode {
		case http.StatusForbidden:
			return ErrForbidden{Err: wrapped}
		case http.StatusNotFound:
			return ErrNotFound{Err: wrapped}
		case http.StatusTooManyRequests:
			return ErrRateLimited{Err: wrapped}
		}
	}

	return err
}

// errorTypeLabel maps a classified error onto its metric label.
func errorTypeLabel(err error) string {
	switch {
	case err == nil:
		return "unknown"
	case errors.As(err, new(ErrTimeout)):
		return "timeout"
	case errors.As(err, new(ErrConnection)):
		return "connection"
	case errors.As(err, new(ErrForbidden)):
		return "forbidden"
	case errors.As(err, new(ErrNotFound)):
		return "not_found"
	case errors.As(err, new(ErrRateLimited)):
		return "rate_limited"
	default:
		return "other"
	}
}
