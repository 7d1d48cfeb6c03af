// internal/service/errors.go
package service

import "errors"

// Printer failure taxonomy. Callers match with errors.Is and decide whether to
// fall back to the HTML receipt.
var (
	// ErrNotSupported means the host cannot drive the configured link
	ErrNotSupported = errors.New("printer link not supported on this host")
	// ErrConnectionFailed covers discovery, pairing and session setup failures
	ErrConnectionFailed = errors.New("printer connection failed")
	// ErrNotConnected is returned by Print before any I/O when no session exists
	ErrNotConnected = errors.New("printer not connected")
	// ErrSendFailed means a chunk write failed; part of the receipt may have printed
	ErrSendFailed = errors.New("printer send failed")
	// ErrBusy is returned when a print is already in flight
	ErrBusy = errors.New("printer busy")
)
