package client

import (
	"errors"
	"fmt"
)

// NetworkError reports a request that never completed or came back with a
// non-2xx status. StatusCode is zero for transport failures.
type NetworkError struct {
	Op         string
	URL        string
	StatusCode int
	Body       string
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		if e.Body != "" {
			return fmt.Sprintf("%s: %s: unexpected status %d: %s", e.Op, e.URL, e.StatusCode, e.Body)
		}
		return fmt.Sprintf("%s: %s: unexpected status %d", e.Op, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// DecodeError reports a response body that is not the expected JSON shape.
type DecodeError struct {
	Op  string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: decode response: %v", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Argument errors, returned before any request is sent.
var (
	ErrEmptyArgument  = errors.New("empty argument")
	ErrNoTickers      = errors.New("no tickers provided")
	ErrTooManyTickers = fmt.Errorf("more than %d tickers in one bulk sync", MaxBulkTickers)
	ErrInvalidLimit   = errors.New("log limit must be positive")
	ErrInvalidLevel   = errors.New("log level must be info, warn or error")
)

// IsNetwork reports whether err is a NetworkError.
func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// IsDecode reports whether err is a DecodeError.
func IsDecode(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}
