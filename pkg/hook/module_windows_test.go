//go:build windows

package hook

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadModule(t *testing.T) {
	m, err := LoadModule("kernel32.dll")
	require.NoError(t, err)
	defer m.Close()

	addr, err := m.Resolve("GetCurrentThreadId")
	require.NoError(t, err)
	assert.NotZero(t, addr)

	_, err = m.Resolve("NoSuchExport")
	assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)
}
