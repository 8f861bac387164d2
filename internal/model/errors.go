package model

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidBase   = errors.New("unsupported base currency")
	ErrInvalidWindow = errors.New("window must be between 1 and 30 days")
	ErrNoData        = errors.New("no data available")
)

// NetworkError is returned once a request has exhausted its retries or hit a
// status that is not worth retrying.
type NetworkError struct {
	URL        string
	LastStatus int
	LastErr    error
	Attempts   int
}

func (e *NetworkError) Error() string {
	if e.LastErr != nil {
		return fmt.Sprintf("request to %s failed after %d attempt(s): %v", e.URL, e.Attempts, e.LastErr)
	}
	return fmt.Sprintf("request to %s failed after %d attempt(s) with status %d", e.URL, e.Attempts, e.LastStatus)
}

func (e *NetworkError) Unwrap() error { return e.LastErr }

type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return "parse error: " + e.Reason
}

type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode response from %s: %v", e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
