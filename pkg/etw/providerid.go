package etw

import (
	"bytes"
	"crypto/sha1" //nolint:gosec // required by the EventSource naming scheme
	"encoding/binary"
	"strings"
	"unicode/utf16"

	"github.com/perfstudio/go-apitrace/pkg/guid"
)

// eventSourceNamespace is hashed ahead of every provider name.
var eventSourceNamespace = [16]byte{
	0x48, 0x2c, 0x2d, 0xb2, 0xc3, 0x90, 0x47, 0xc8,
	0x87, 0xf8, 0x1a, 0x15, 0xbf, 0xc1, 0x30, 0xfb,
}

// ProviderIDFromName derives a provider id from its name the same way .NET's
// EventSource does, so tools that only know the name can find the provider:
// https://blogs.msdn.microsoft.com/dcook/2015/09/08/etw-provider-names-and-guids/
//
// The id is sha1(namespace + upper(name) as UTF-16BE), truncated to 16 bytes
// with the version nibble of byte 7 set to 5.
func ProviderIDFromName(name string) guid.GUID {
	var buf bytes.Buffer
	buf.Write(eventSourceNamespace[:])
	_ = binary.Write(&buf, binary.BigEndian, utf16.Encode([]rune(strings.ToUpper(name))))

	sum := sha1.Sum(buf.Bytes()) //nolint:gosec
	sum[7] = (sum[7] & 0xf) | 0x50

	var b [16]byte
	copy(b[:], sum[:16])
	return guid.FromWindowsArray(b)
}

// providerMetadata returns the provider traits block: a little-endian uint16
// size followed by the NUL-terminated name.
func providerMetadata(name string) []byte {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.LittleEndian, uint16(0))
	buf.WriteString(name)
	buf.WriteByte(0)
	b := buf.Bytes()
	binary.LittleEndian.PutUint16(b, uint16(len(b)))
	return b
}
