//go:build windows

package hook

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/windows"
)

// Module resolves symbols exported by a loaded DLL.
type Module struct {
	dll *windows.DLL
}

var _ Resolver = (*Module)(nil)

// LoadModule loads the named DLL.
func LoadModule(name string) (*Module, error) {
	dll, err := windows.LoadDLL(name)
	if err != nil {
		return nil, errors.Wrapf(err, "load module %s", name)
	}
	return &Module{dll: dll}, nil
}

func (m *Module) Resolve(symbol string) (uintptr, error) {
	p, err := m.dll.FindProc(symbol)
	if err != nil {
		return 0, errors.Wrapf(ErrNotFound, "%s in %s: %v", symbol, m.dll.Name, err)
	}
	return p.Addr(), nil
}

// Close releases the DLL.
func (m *Module) Close() error {
	return m.dll.Release()
}
