//go:build !windows

package timing

import (
	"context"

	"github.com/pkg/errors"

	"github.com/perfstudio/go-apitrace/pkg/handle"
)

var (
	_ Backend  = (*Library)(nil)
	_ Loader   = (*Library)(nil)
	_ Resolver = (*Library)(nil)
)

// Library is a timing backend implemented by a native DLL. Native timing
// libraries are only loaded on Windows; elsewhere every call fails.
type Library struct{}

// NewLibrary returns an unloaded library backend.
func NewLibrary() *Library {
	return &Library{}
}

func (*Library) Load(path string) error {
	return errors.Wrapf(ErrUnsupported, "load timing library %s", path)
}

func (*Library) RegisterLoggingCallback(LogFunc) Status { return StatusUnsupported }

func (*Library) SelectContext(handle.Handle) Status { return StatusUnsupported }

func (*Library) BeginSample(uint64) Status { return StatusUnsupported }

func (*Library) EndSample() Status { return StatusUnsupported }

func (*Library) Signal(handle.Handle) uint64 { return 0 }

func (*Library) Wait(context.Context, uint64) error { return nil }

func (*Library) Result(uint64) (Result, Status) { return Result{}, StatusUnsupported }

func (*Library) Close() error { return nil }
