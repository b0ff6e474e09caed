package hook

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableInstallUninstall(t *testing.T) {
	tbl := NewTable(StaticResolver{"Create": 0x1000, "Destroy": 0x2000})
	fn := func() {}

	require.NoError(t, tbl.Install("Create", fn))
	addr, ok := tbl.Target("Create")
	require.True(t, ok)
	assert.Equal(t, uintptr(0x1000), addr)
	_, ok = tbl.Replacement("Create")
	assert.True(t, ok)

	err := tbl.Install("Create", fn)
	assert.True(t, errors.Is(err, ErrAlreadyInstalled), "got %v", err)

	err = tbl.Install("Missing", fn)
	assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)

	require.NoError(t, tbl.Install("Destroy", fn))
	assert.Equal(t, []string{"Create", "Destroy"}, tbl.Installed())

	require.NoError(t, tbl.Uninstall("Create"))
	err = tbl.Uninstall("Create")
	assert.True(t, errors.Is(err, ErrNotInstalled), "got %v", err)
	_, ok = tbl.Replacement("Create")
	assert.False(t, ok)
	assert.Equal(t, []string{"Destroy"}, tbl.Installed())
}

func TestTableWithoutResolver(t *testing.T) {
	tbl := NewTable(nil)
	require.NoError(t, tbl.Install("Anything", func() {}))
	assert.Error(t, tbl.Install("Nil", nil))
}
