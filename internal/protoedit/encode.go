package protoedit

// AppendTag appends the varint-encoded tag for number and wireType.
func AppendTag(dst []byte, number FieldNumber, wireType WireType) []byte {
	return AppendVarint(dst, uint64(MakeTag(number, wireType)))
}

// AppendBytesField appends a complete length-delimited field.
func AppendBytesField(dst []byte, number FieldNumber, payload []byte) []byte {
	dst = AppendTag(dst, number, WireBytes)
	dst = AppendVarint(dst, uint64(len(payload)))
	return append(dst, payload...)
}

// AppendStringField appends a complete length-delimited string field.
func AppendStringField(dst []byte, number FieldNumber, s string) []byte {
	dst = AppendTag(dst, number, WireBytes)
	dst = AppendVarint(dst, uint64(len(s)))
	return append(dst, s...)
}

// AppendVarintField appends a complete varint field.
func AppendVarintField(dst []byte, number FieldNumber, v uint64) []byte {
	dst = AppendTag(dst, number, WireVarint)
	return AppendVarint(dst, v)
}
