package apitrace

import (
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrNotInitialized is returned by Shutdown before a successful Initialize.
	ErrNotInitialized = errors.New("interceptor not initialized")
	// ErrAlreadyInitialized is returned by a second Initialize.
	ErrAlreadyInitialized = errors.New("interceptor already initialized")
)

// HookError reports an entry point that could not be hooked or unhooked.
type HookError struct {
	Symbol string
	Op     string
	Err    error
}

func (e *HookError) Error() string {
	return e.Op + " hook " + e.Symbol + ": " + e.Err.Error()
}

func (e *HookError) Unwrap() error { return e.Err }

// HookErrors collects every failure of a best-effort operation.
type HookErrors []*HookError

func (es HookErrors) Error() string {
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

func (es HookErrors) Unwrap() []error {
	errs := make([]error, len(es))
	for i, e := range es {
		errs[i] = e
	}
	return errs
}
