//go:build windows

package guid

import "golang.org/x/sys/windows"

// ToWindows converts g for use with golang.org/x/sys/windows.
func (g GUID) ToWindows() windows.GUID {
	return windows.GUID(g)
}

// FromWindows converts a golang.org/x/sys/windows GUID.
func FromWindows(g windows.GUID) GUID {
	return GUID(g)
}
