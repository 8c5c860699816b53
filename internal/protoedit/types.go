package protoedit

import "fmt"

// WireType represents protobuf wire format types.
type WireType uint8

const (
	WireVarint  WireType = 0 // int32, int64, uint32, uint64, sint32, sint64, bool, enum
	WireFixed64 WireType = 1 // fixed64, sfixed64, double
	WireBytes   WireType = 2 // string, bytes, embedded messages, packed repeated fields
	WireFixed32 WireType = 5 // fixed32, sfixed32, float
)

// String returns the protobuf name of the wire type.
func (w WireType) String() string {
	switch w {
	case WireVarint:
		return "varint"
	case WireFixed64:
		return "fixed64"
	case WireBytes:
		return "bytes"
	case WireFixed32:
		return "fixed32"
	default:
		return fmt.Sprintf("wiretype(%d)", uint8(w))
	}
}

// Supported reports whether the editor knows how to frame this wire type.
// Groups (3 and 4) are deliberately unsupported.
func (w WireType) Supported() bool {
	switch w {
	case WireVarint, WireFixed64, WireBytes, WireFixed32:
		return true
	default:
		return false
	}
}

// FieldNumber represents a protobuf field number.
type FieldNumber uint32

// MaxFieldNumber is the largest field number protobuf allows.
const MaxFieldNumber = 1<<29 - 1

// Tag represents a protobuf field tag (field number + wire type).
type Tag uint64

// MakeTag creates a tag from field number and wire type.
func MakeTag(number FieldNumber, wireType WireType) Tag {
	return Tag(uint64(number)<<3 | uint64(wireType))
}

// ParseTag parses a tag into field number and wire type.
func ParseTag(tag Tag) (FieldNumber, WireType) {
	return FieldNumber(tag >> 3), WireType(tag & 0x7)
}

// Field is one complete field occurrence inside a buffer. The offsets refer to
// the buffer the field was read from; nothing is copied.
type Field struct {
	Number   FieldNumber
	WireType WireType

	// Start is the offset of the tag, PayloadStart the offset of the payload
	// (after the length prefix for WireBytes), End the offset just past it.
	Start        int
	PayloadStart int
	End          int
}

// Raw returns the complete encoded occurrence, tag included.
func (f Field) Raw(buf []byte) []byte {
	return buf[f.Start:f.End]
}

// Payload returns the field payload. For WireBytes this excludes the length prefix.
func (f Field) Payload(buf []byte) []byte {
	return buf[f.PayloadStart:f.End]
}

// Len returns the encoded size of the occurrence.
func (f Field) Len() int {
	return f.End - f.Start
}
