package protoedit

import "fmt"

// NextField frames the field occurrence that starts at offset. It reads the
// tag, then skips the payload structurally according to the wire type.
func NextField(buf []byte, offset int) (Field, error) {
	tag, pos, err := DecodeVarint(buf, offset)
	if err != nil {
		return Field{}, malformedAt(offset, fmt.Errorf("reading tag: %w", err))
	}

	if tag>>3 > MaxFieldNumber {
		return Field{}, malformedAt(offset, fmt.Errorf("field number %d exceeds %d", tag>>3, MaxFieldNumber))
	}
	number, wireType := ParseTag(Tag(tag))
	if !wireType.Supported() {
		return Field{}, malformedAt(offset, fmt.Errorf("field %d: %w: %d", number, ErrUnsupportedWireType, wireType))
	}
	f := Field{
		Number:       number,
		WireType:     wireType,
		Start:        offset,
		PayloadStart: pos,
	}

	switch wireType {
	case WireVarint:
		_, end, err := DecodeVarint(buf, pos)
		if err != nil {
			return Field{}, malformedAt(offset, fmt.Errorf("field %d: %w", number, err))
		}
		f.End = end
	case WireFixed64:
		if len(buf)-pos < 8 {
			return Field{}, malformedAt(offset, fmt.Errorf("field %d: fixed64: %w", number, ErrTruncatedInput))
		}
		f.End = pos + 8
	case WireBytes:
		length, payload, err := DecodeVarint(buf, pos)
		if err != nil {
			return Field{}, malformedAt(offset, fmt.Errorf("field %d: length: %w", number, err))
		}
		if length > uint64(len(buf)-payload) {
			return Field{}, malformedAt(offset, fmt.Errorf("field %d: length %d exceeds remaining %d bytes: %w",
				number, length, len(buf)-payload, ErrTruncatedInput))
		}
		f.PayloadStart = payload
		f.End = payload + int(length)
	case WireFixed32:
		if len(buf)-pos < 4 {
			return Field{}, malformedAt(offset, fmt.Errorf("field %d: fixed32: %w", number, ErrTruncatedInput))
		}
		f.End = pos + 4
	}

	return f, nil
}

// Fields frames every occurrence in buf, in order. Any unreadable byte is an error.
func Fields(buf []byte) ([]Field, error) {
	var fields []Field
	for offset := 0; offset < len(buf); {
		f, err := NextField(buf, offset)
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
		offset = f.End
	}
	return fields, nil
}

// RemoveField returns buf without any occurrence of the given field number,
// whatever its wire type. Other occurrences are copied byte-for-byte in their
// original order. The input is never modified; when nothing matches, the
// returned slice shares buf's storage but has its capacity clipped, so
// appending to it never writes into buf.
func RemoveField(buf []byte, number FieldNumber) ([]byte, error) {
	var out []byte
	removed := false

	for offset := 0; offset < len(buf); {
		f, err := NextField(buf, offset)
		if err != nil {
			return nil, err
		}

		if f.Number == number {
			if !removed {
				out = make([]byte, 0, len(buf))
				out = append(out, buf[:f.Start]...)
				removed = true
			}
		} else if removed {
			out = append(out, f.Raw(buf)...)
		}
		offset = f.End
	}

	if !removed {
		return buf[:len(buf):len(buf)], nil
	}
	return out, nil
}

// FindField returns the payload of the first length-delimited occurrence of
// number. Occurrences with another wire type are ignored. Scanning stops at
// the first unreadable byte and reports the field as absent: legacy blobs may
// carry trailing noise that is not ours to judge.
func FindField(buf []byte, number FieldNumber) ([]byte, bool) {
	for offset := 0; offset < len(buf); {
		f, err := NextField(buf, offset)
		if err != nil {
			return nil, false
		}
		if f.Number == number && f.WireType == WireBytes {
			return f.Payload(buf), true
		}
		offset = f.End
	}
	return nil, false
}

// FindFieldStrict behaves like FindField but reports unreadable bytes met
// before a match as an error instead of treating them as absence.
func FindFieldStrict(buf []byte, number FieldNumber) ([]byte, bool, error) {
	for offset := 0; offset < len(buf); {
		f, err := NextField(buf, offset)
		if err != nil {
			return nil, false, err
		}
		if f.Number == number && f.WireType == WireBytes {
			return f.Payload(buf), true, nil
		}
		offset = f.End
	}
	return nil, false, nil
}
