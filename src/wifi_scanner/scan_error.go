package wifi_scanner

import (
	"errors"
)

// ErrNoWirelessInterfaces is reported when enumeration succeeds but finds nothing to scan.
var ErrNoWirelessInterfaces = errors.New("no wireless interfaces found")

// ErrorType represents the stage of a scan session that failed
type ErrorType int

const (
	ErrorTypeInterface ErrorType = iota
	ErrorTypeSession
	ErrorTypeRequest
)

func (t ErrorType) String() string {
	switch t {
	case ErrorTypeInterface:
		return "interface"
	case ErrorTypeSession:
		return "session"
	case ErrorTypeRequest:
		return "request"
	default:
		return "unknown"
	}
}

// ScanError is returned by a scan session. Every ScanError is fatal to its interface only.
type ScanError struct {
	Type    ErrorType
	Code    string
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *ScanError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ScanError) Unwrap() error {
	return e.Cause
}

func newScanError(errType ErrorType, code, message, iface string, cause error) *ScanError {
	return &ScanError{
		Type:    errType,
		Code:    code,
		Message: message,
		Cause:   cause,
		Context: map[string]interface{}{"interface": iface},
	}
}
