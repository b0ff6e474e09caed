//go:build !windows

package etwlogrus

import (
	"github.com/sirupsen/logrus"

	"github.com/perfstudio/go-apitrace/pkg/etw"
)

// Hook is unavailable off Windows.
type Hook struct{}

// NewHook always fails off Windows.
func NewHook(string) (*Hook, error) {
	return nil, etw.ErrUnsupported
}

func (*Hook) Levels() []logrus.Level   { return nil }
func (*Hook) Fire(*logrus.Entry) error { return etw.ErrUnsupported }
func (*Hook) Close() error             { return nil }
