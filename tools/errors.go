package tools

import "errors"

// Classification sentinels. Handlers wrap these so the executor can map
// failures onto result error kinds without string matching.
var (
	// ErrInvalidInput marks arguments the tool could not accept.
	ErrInvalidInput = errors.New("invalid tool input")
	// ErrTransient marks failures the caller may reasonably try again; the
	// executor surfaces it as a retryable hint and nothing more.
	ErrTransient = errors.New("transient tool failure")
)
