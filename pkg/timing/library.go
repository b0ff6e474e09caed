package timing

import (
	"math"
	"time"
)

// durationFromNanos converts a counter value reported by a native library,
// saturating instead of wrapping.
func durationFromNanos(ns uint64) time.Duration {
	if ns > math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(ns)
}

// MaxNativeSampleID is the largest sample id a native timing library accepts.
// Its entry points take 32-bit ids.
const MaxNativeSampleID = math.MaxUint32

// nativeSampleID narrows id for a native call. Larger ids would alias earlier
// samples and are refused.
func nativeSampleID(id uint64) (uintptr, bool) {
	if id > MaxNativeSampleID {
		return 0, false
	}
	return uintptr(uint32(id)), true
}
