package etw

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderIDFromName(t *testing.T) {
	// Documented EventSource example.
	assert.Equal(t, "ce5fa4ea-ab00-5402-8b76-9f76ac858fb5", ProviderIDFromName("MyCompany.MyComponent").String())
	assert.Equal(t, ProviderIDFromName("MyCompany.MyComponent"), ProviderIDFromName("mycompany.mycomponent"))
	assert.NotEqual(t, ProviderIDFromName("a"), ProviderIDFromName("b"))
}

func TestProviderMetadata(t *testing.T) {
	b := providerMetadata("Prov")
	require.Len(t, b, 2+4+1)
	assert.Equal(t, uint16(len(b)), binary.LittleEndian.Uint16(b))
	assert.Equal(t, "Prov\x00", string(b[2:]))
}

func TestEncodeEvent(t *testing.T) {
	metadata, data := encodeEvent("Call", []FieldOpt{
		StringField("Name", "Draw"),
		Uint64Field("Sample", 3),
		ThreadField("Thread", 9),
	})

	want := []byte{0, 0, 0}
	want = append(want, "Call\x00"...)
	want = append(want, "Name\x00"...)
	want = append(want, byte(InTypeANSIString)|0x80, byte(OutTypeUTF8))
	want = append(want, "Sample\x00"...)
	want = append(want, byte(InTypeUint64))
	want = append(want, "Thread\x00"...)
	want = append(want, byte(InTypeUint32)|0x80, byte(OutTypeTID))
	binary.LittleEndian.PutUint16(want, uint16(len(want)))
	assert.Equal(t, want, metadata)

	wantData := []byte("Draw\x00")
	wantData = append(wantData, 3, 0, 0, 0, 0, 0, 0, 0)
	wantData = append(wantData, 9, 0, 0, 0)
	assert.Equal(t, wantData, data)
}

func TestEventOpts(t *testing.T) {
	d := NewEventDescriptor()
	assert.Equal(t, ChannelTraceLogging, d.Channel)
	assert.Equal(t, LevelVerbose, d.Level)

	WithLevel(LevelError)(d)
	WithKeyword(0x1)(d)
	WithKeyword(0x4)(d)
	assert.Equal(t, LevelError, d.Level)
	assert.Equal(t, uint64(0x5), d.Keyword)
}
