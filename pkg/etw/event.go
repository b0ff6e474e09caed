package etw

import (
	"bytes"
	"encoding/binary"
)

// InType indicates the type of data contained in an event field. Values match
// TraceLoggingProvider.h in the Windows SDK.
type InType byte

const (
	InTypeNull InType = iota
	InTypeUnicodeString
	InTypeANSIString
	InTypeInt8
	InTypeUint8
	InTypeInt16
	InTypeUint16
	InTypeInt32
	InTypeUint32
	InTypeInt64
	InTypeUint64
)

// OutType is a formatting hint for the event decoder.
type OutType byte

const (
	OutTypeDefault OutType = 0
	OutTypeHex     OutType = 4
	OutTypeTID     OutType = 6
	OutTypeUTF8    OutType = 35
)

// event accumulates the metadata and data blocks of a single TraceLogging
// event. Metadata is laid out as a little-endian uint16 size, a tag byte, the
// NUL-terminated event name, then one record per field.
type event struct {
	metadata bytes.Buffer
	data     bytes.Buffer
}

func newEvent(name string) *event {
	e := &event{}
	// Size, patched by bytes, then tags.
	_ = binary.Write(&e.metadata, binary.LittleEndian, uint16(0))
	e.metadata.WriteByte(0)
	e.metadata.WriteString(name)
	e.metadata.WriteByte(0)
	return e
}

func (e *event) field(name string, in InType, out OutType) {
	e.metadata.WriteString(name)
	e.metadata.WriteByte(0)
	if out == OutTypeDefault {
		e.metadata.WriteByte(byte(in))
		return
	}
	e.metadata.WriteByte(byte(in) | 0x80)
	e.metadata.WriteByte(byte(out))
}

// bytes finalizes the metadata size and returns both blocks.
func (e *event) bytes() (metadata, data []byte) {
	metadata = e.metadata.Bytes()
	binary.LittleEndian.PutUint16(metadata, uint16(len(metadata)))
	return metadata, e.data.Bytes()
}

// FieldOpt appends one field to an event.
type FieldOpt func(e *event)

// StringField adds a UTF-8 string field.
func StringField(name, value string) FieldOpt {
	return func(e *event) {
		e.field(name, InTypeANSIString, OutTypeUTF8)
		e.data.WriteString(value)
		e.data.WriteByte(0)
	}
}

// Uint64Field adds an unsigned 64-bit field.
func Uint64Field(name string, value uint64) FieldOpt {
	return func(e *event) {
		e.field(name, InTypeUint64, OutTypeDefault)
		_ = binary.Write(&e.data, binary.LittleEndian, value)
	}
}

// HexUint64Field adds an unsigned 64-bit field rendered in hex, for handles.
func HexUint64Field(name string, value uint64) FieldOpt {
	return func(e *event) {
		e.field(name, InTypeUint64, OutTypeHex)
		_ = binary.Write(&e.data, binary.LittleEndian, value)
	}
}

// Int64Field adds a signed 64-bit field.
func Int64Field(name string, value int64) FieldOpt {
	return func(e *event) {
		e.field(name, InTypeInt64, OutTypeDefault)
		_ = binary.Write(&e.data, binary.LittleEndian, value)
	}
}

// ThreadField adds a thread id field.
func ThreadField(name string, tid uint32) FieldOpt {
	return func(e *event) {
		e.field(name, InTypeUint32, OutTypeTID)
		_ = binary.Write(&e.data, binary.LittleEndian, tid)
	}
}

// encodeEvent builds the metadata and data blocks for an event.
func encodeEvent(name string, fields []FieldOpt) (metadata, data []byte) {
	e := newEvent(name)
	for _, f := range fields {
		f(e)
	}
	return e.bytes()
}
