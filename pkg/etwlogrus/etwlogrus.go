// Package etwlogrus provides a logrus hook that forwards entries to ETW.
package etwlogrus

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/perfstudio/go-apitrace/pkg/etw"
)

// Level maps a logrus level onto the closest ETW level.
func Level(l logrus.Level) etw.Level {
	switch l {
	case logrus.PanicLevel, logrus.FatalLevel:
		return etw.LevelCritical
	case logrus.ErrorLevel:
		return etw.LevelError
	case logrus.WarnLevel:
		return etw.LevelWarning
	case logrus.InfoLevel:
		return etw.LevelInfo
	default:
		return etw.LevelVerbose
	}
}

// Fields converts an entry into event fields: the message first, then the
// entry's data in key order.
func Fields(e *logrus.Entry) []etw.FieldOpt {
	fields := make([]etw.FieldOpt, 0, len(e.Data)+1)
	fields = append(fields, etw.StringField("Message", e.Message))

	keys := make([]string, 0, len(e.Data))
	for k := range e.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		switch v := e.Data[k].(type) {
		case string:
			fields = append(fields, etw.StringField(k, v))
		case uint64:
			fields = append(fields, etw.Uint64Field(k, v))
		case int64:
			fields = append(fields, etw.Int64Field(k, v))
		case int:
			fields = append(fields, etw.Int64Field(k, int64(v)))
		case uint32:
			fields = append(fields, etw.Uint64Field(k, uint64(v)))
		case error:
			fields = append(fields, etw.StringField(k, v.Error()))
		default:
			fields = append(fields, etw.StringField(k, fmt.Sprintf("%v", v)))
		}
	}
	return fields
}
