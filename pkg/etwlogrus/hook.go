//go:build windows

package etwlogrus

import (
	"github.com/sirupsen/logrus"

	"github.com/perfstudio/go-apitrace/pkg/etw"
)

// Hook is a logrus hook which writes received entries to ETW.
type Hook struct {
	provider *etw.Provider
}

// NewHook registers a new ETW provider and returns a hook logging through it.
func NewHook(providerName string) (*Hook, error) {
	provider, err := etw.NewProvider(providerName)
	if err != nil {
		return nil, err
	}
	return &Hook{provider: provider}, nil
}

// Levels returns every logrus level; filtering happens against the listening
// ETW sessions.
func (h *Hook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire writes e as a LogrusEntry event.
func (h *Hook) Fire(e *logrus.Entry) error {
	level := Level(e.Level)
	if !h.provider.IsEnabledForLevel(level) {
		return nil
	}
	return h.provider.WriteEvent("LogrusEntry", nil, []etw.EventOpt{etw.WithLevel(level)}, Fields(e))
}

// Close unregisters the provider.
func (h *Hook) Close() error {
	return h.provider.Close()
}
