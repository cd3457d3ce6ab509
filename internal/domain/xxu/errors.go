package xxu

import (
	"errors"
	"io/fs"
)

// Error kinds. Every *Error matches exactly one of them with errors.Is.
var (
	// ErrUsage is returned for bad or missing command-line arguments.
	ErrUsage = errors.New("usage error")
	// ErrUnknownDeviceType is returned when a device token is not in the table.
	ErrUnknownDeviceType = errors.New("unknown device type")
	// ErrMissingExtension is returned when the output path has no extension.
	ErrMissingExtension = errors.New("no file extension")
	// ErrInputOpen is returned when the payload file cannot be opened.
	ErrInputOpen = errors.New("open input")
	// ErrOutputOpen is returned when the package file cannot be created.
	ErrOutputOpen = errors.New("open output")
	// ErrInputRead is returned when reading the payload fails.
	ErrInputRead = errors.New("read input")
	// ErrOutputWrite is returned on failed or short writes to the package file.
	ErrOutputWrite = errors.New("write output")
	// ErrOutputSeek is returned when repositioning inside the package file fails.
	ErrOutputSeek = errors.New("seek output")
	// ErrInvalidHeader is returned when a package header cannot be decoded.
	ErrInvalidHeader = errors.New("invalid package header")
)

// Error is a fatal conversion error bound to the path or token it concerns.
type Error struct {
	// Kind is one of the Err* sentinels above.
	Kind error
	// Subject is the offending path or device token.
	Subject string
	// Err is the underlying cause, if any.
	Err error
}

// NewError builds an *Error of the given kind.
func NewError(kind error, subject string, cause error) *Error {
	return &Error{
		Kind:    kind,
		Subject: subject,
		Err:     cause,
	}
}

// Error renders "<subject>: <message>". For I/O failures the message is the
// operating system's description of the failing call.
func (e *Error) Error() string {
	if e.Err == nil {
		return e.Subject + ": " + e.Kind.Error()
	}

	var pathErr *fs.PathError
	if errors.As(e.Err, &pathErr) {
		return e.Subject + ": " + pathErr.Err.Error()
	}

	return e.Subject + ": " + e.Err.Error()
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}

	return []error{e.Kind, e.Err}
}
