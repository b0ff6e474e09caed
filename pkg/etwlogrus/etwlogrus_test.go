package etwlogrus

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/perfstudio/go-apitrace/pkg/etw"
)

func TestLevel(t *testing.T) {
	tt := map[logrus.Level]etw.Level{
		logrus.PanicLevel: etw.LevelCritical,
		logrus.FatalLevel: etw.LevelCritical,
		logrus.ErrorLevel: etw.LevelError,
		logrus.WarnLevel:  etw.LevelWarning,
		logrus.InfoLevel:  etw.LevelInfo,
		logrus.DebugLevel: etw.LevelVerbose,
		logrus.TraceLevel: etw.LevelVerbose,
	}
	for in, want := range tt {
		assert.Equal(t, want, Level(in), "level %s", in)
	}
}

func TestFieldsCoversEveryEntry(t *testing.T) {
	e := logrus.NewEntry(logrus.New()).WithFields(logrus.Fields{
		"func":   "Draw",
		"sample": uint64(4),
		"err":    errors.New("boom"),
		"n":      3,
		"other":  struct{}{},
	})
	e.Message = "call"
	assert.Len(t, Fields(e), 6)
}
