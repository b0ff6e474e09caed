// Package hook installs replacements for named entry points of a module.
//
// Patching machine code is out of scope; Table keeps the replacement for each
// hooked symbol so a dispatcher can route calls through it.
package hook

import (
	"sort"
	"sync"

	"github.com/pkg/errors"
)

var (
	// ErrNotFound is returned when a symbol cannot be resolved.
	ErrNotFound = errors.New("symbol not found")
	// ErrAlreadyInstalled is returned when a symbol is hooked twice.
	ErrAlreadyInstalled = errors.New("hook already installed")
	// ErrNotInstalled is returned when removing a hook that does not exist.
	ErrNotInstalled = errors.New("hook not installed")
	// ErrUnsupported is returned when modules cannot be loaded on this platform.
	ErrUnsupported = errors.New("module loading not supported on this platform")
)

// Installer hooks and unhooks entry points by symbol name.
type Installer interface {
	Install(symbol string, replacement any) error
	Uninstall(symbol string) error
}

// Resolver finds the address of an exported symbol.
type Resolver interface {
	Resolve(symbol string) (uintptr, error)
}

// StaticResolver resolves from a fixed table.
type StaticResolver map[string]uintptr

func (r StaticResolver) Resolve(symbol string) (uintptr, error) {
	addr, ok := r[symbol]
	if !ok {
		return 0, errors.Wrap(ErrNotFound, symbol)
	}
	return addr, nil
}

type entry struct {
	target      uintptr
	replacement any
}

// Table is an in-process Installer.
type Table struct {
	resolver Resolver

	mu      sync.RWMutex
	entries map[string]entry
}

var _ Installer = (*Table)(nil)

// NewTable returns an empty table. Symbols are checked against resolver; a nil
// resolver accepts every symbol.
func NewTable(resolver Resolver) *Table {
	return &Table{resolver: resolver, entries: make(map[string]entry)}
}

func (t *Table) Install(symbol string, replacement any) error {
	if replacement == nil {
		return errors.Errorf("nil replacement for %s", symbol)
	}
	var target uintptr
	if t.resolver != nil {
		addr, err := t.resolver.Resolve(symbol)
		if err != nil {
			return err
		}
		target = addr
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.entries[symbol]; ok {
		return errors.Wrap(ErrAlreadyInstalled, symbol)
	}
	t.entries[symbol] = entry{target: target, replacement: replacement}
	return nil
}

func (t *Table) Uninstall(symbol string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.entries[symbol]; !ok {
		return errors.Wrap(ErrNotInstalled, symbol)
	}
	delete(t.entries, symbol)
	return nil
}

// Replacement returns the function installed for symbol.
func (t *Table) Replacement(symbol string) (any, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[symbol]
	return e.replacement, ok
}

// Target returns the resolved address of a hooked symbol.
func (t *Table) Target(symbol string) (uintptr, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[symbol]
	return e.target, ok
}

// Installed returns the hooked symbols in name order.
func (t *Table) Installed() []string {
	t.mu.RLock()
	names := make([]string, 0, len(t.entries))
	for n := range t.entries {
		names = append(names, n)
	}
	t.mu.RUnlock()
	sort.Strings(names)
	return names
}
