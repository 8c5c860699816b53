package protoedit

// maxVarintGroups is the number of 7-bit groups needed for a 64-bit value.
const maxVarintGroups = 10

// AppendVarint appends the base-128 encoding of v to dst.
func AppendVarint(dst []byte, v uint64) []byte {
	for v >= 0x80 {
		dst = append(dst, byte(v)|0x80)
		v >>= 7
	}
	return append(dst, byte(v))
}

// EncodeVarint returns the base-128 encoding of v.
func EncodeVarint(v uint64) []byte {
	return AppendVarint(make([]byte, 0, SizeVarint(v)), v)
}

// SizeVarint returns the number of bytes AppendVarint would emit for v.
func SizeVarint(v uint64) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}

// DecodeVarint decodes a varint starting at offset and returns the value and
// the offset just past it.
func DecodeVarint(buf []byte, offset int) (uint64, int, error) {
	if offset < 0 || offset >= len(buf) {
		return 0, offset, ErrTruncatedInput
	}

	var result uint64
	pos := offset
	for i := 0; i < maxVarintGroups; i++ {
		if pos >= len(buf) {
			return 0, offset, ErrTruncatedInput
		}
		b := buf[pos]
		pos++

		// The tenth group holds only the top bit of a 64-bit value.
		if i == maxVarintGroups-1 && b > 1 {
			return 0, offset, ErrMalformedVarint
		}
		result |= uint64(b&0x7F) << (7 * uint(i))
		if b&0x80 == 0 {
			return result, pos, nil
		}
	}

	return 0, offset, ErrMalformedVarint
}
