package trace

import (
	"github.com/perfstudio/go-apitrace/pkg/etw"
	"github.com/perfstudio/go-apitrace/pkg/timing"
)

func callFields(h RecordHandle, e Entry) []etw.FieldOpt {
	return []etw.FieldOpt{
		etw.Uint64Field("Record", uint64(h)),
		etw.StringField("Function", e.Func.String()),
		etw.ThreadField("Thread", e.Thread),
		etw.HexUint64Field("Target", uint64(e.Target)),
		etw.StringField("Args", e.Args),
		etw.Int64Field("Return", e.Return),
		etw.Uint64Field("Sample", e.SampleID),
		etw.Uint64Field("Frame", e.Frame),
	}
}

func resultFields(h RecordHandle, r timing.Result) []etw.FieldOpt {
	return []etw.FieldOpt{
		etw.Uint64Field("Record", uint64(h)),
		etw.Uint64Field("Sample", r.SampleID),
		etw.Int64Field("DurationNs", r.Duration.Nanoseconds()),
	}
}
