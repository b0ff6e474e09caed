//go:build !windows

package hook

// Module is unavailable off Windows.
type Module struct{}

var _ Resolver = (*Module)(nil)

// LoadModule always fails off Windows.
func LoadModule(string) (*Module, error) {
	return nil, ErrUnsupported
}

func (*Module) Resolve(symbol string) (uintptr, error) {
	return 0, ErrUnsupported
}

func (*Module) Close() error { return nil }
