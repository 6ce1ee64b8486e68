package command

import (
	"errors"
	"fmt"
	"strings"
)

// Normalized client errors.
var (
	ErrValidationRejected  = errors.New("VALIDATION_REJECTED")
	ErrTransportOpenFailed = errors.New("TRANSPORT_OPEN_FAILED")
	ErrNoResponse          = errors.New("NO_RESPONSE")
	ErrDeviceReported      = errors.New("DEVICE_REPORTED_ERROR")
	ErrFailoverExhausted   = errors.New("FAILOVER_EXHAUSTED")
)

// DeviceError wraps a non-success reply with the raw device response.
type DeviceError struct {
	Code     error  // Normalized client code
	Command  string // Command text that produced the reply
	Response string // Raw device reply (trimmed)
}

func (e *DeviceError) Error() string {
	if e.Response == "" {
		return fmt.Sprintf("%v (command: %q)", e.Code, e.Command)
	}
	return fmt.Sprintf("%v (command: %q, device: %q)", e.Code, e.Command, e.Response)
}

func (e *DeviceError) Unwrap() error {
	return e.Code
}

// NewDeviceError builds a DeviceError for a reply that did not carry the success token.
func NewDeviceError(cmd string, response []byte) error {
	return &DeviceError{
		Code:     ErrDeviceReported,
		Command:  cmd,
		Response: strings.TrimSpace(string(response)),
	}
}

// Reason returns the short failure reason reported to callers.
func Reason(err error) string {
	if err == nil {
		return ""
	}

	var devErr *DeviceError
	switch {
	case errors.Is(err, ErrNoResponse):
		return "no response"
	case errors.As(err, &devErr):
		if devErr.Response == "" {
			return "empty response"
		}
		return devErr.Response
	case errors.Is(err, ErrValidationRejected):
		return "out of range"
	case errors.Is(err, ErrFailoverExhausted):
		return "failover failed"
	default:
		return err.Error()
	}
}
