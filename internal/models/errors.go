package models

import (
	"errors"
	"fmt"
)

var (
	ErrSessionClosed   = errors.New("session closed")
	ErrSessionNotFound = errors.New("session not found")
	ErrScanNotFound    = errors.New("scan not found")
	ErrWalletNotFound  = errors.New("wallet not found")
)

// ValidationError signals corrupted or out-of-range input. It is never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

// NetworkError is a transport or status failure calling a remote service.
type NetworkError struct {
	Op         string
	StatusCode int
	// Body is the raw response body, truncated.
	Body     string
	Timeout  bool
	Canceled bool
	Err      error
}

func (e *NetworkError) Error() string {
	switch {
	case e.Timeout:
		return fmt.Sprintf("%s: timed out", e.Op)
	case e.Canceled:
		return fmt.Sprintf("%s: canceled", e.Op)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: unexpected status code %d: %s", e.Op, e.StatusCode, e.Body)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return e.Op + ": network error"
	}
}

func (e *NetworkError) Unwrap() error { return e.Err }

// MalformedResponseError means the body did not match the expected contract.
type MalformedResponseError struct {
	Reason string
	Err    error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed response: %s: %v", e.Reason, e.Err)
	}
	return "malformed response: " + e.Reason
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// SessionBusyError is returned when a session already has a request in flight.
type SessionBusyError struct {
	SessionID string
}

func (e *SessionBusyError) Error() string {
	return fmt.Sprintf("session %s is awaiting a response", e.SessionID)
}

// DescribeError converts a knowledge-service failure into its presentation form.
func DescribeError(err error) *ErrorInfo {
	if err == nil {
		return nil
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		kind := "network"
		if netErr.Timeout {
			kind = "timeout"
		} else if netErr.Canceled {
			kind = "canceled"
		}
		return &ErrorInfo{Kind: kind, Message: netErr.Error(), StatusCode: netErr.StatusCode}
	}
	var malformed *MalformedResponseError
	if errors.As(err, &malformed) {
		return &ErrorInfo{Kind: "malformed_response", Message: malformed.Error()}
	}
	return &ErrorInfo{Kind: "unknown", Message: err.Error()}
}
