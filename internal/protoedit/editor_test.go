package protoedit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

// sampleMessage builds {1: varint, 2: string, 6: nested message, 7: fixed32}
// with protowire so the editor is checked against an independent encoder.
func sampleMessage() (buf []byte, parts map[int][]byte) {
	parts = map[int][]byte{}

	parts[1] = protowire.AppendVarint(protowire.AppendTag(nil, 1, protowire.VarintType), 123456)
	parts[2] = protowire.AppendString(protowire.AppendTag(nil, 2, protowire.BytesType), "old@example.com")

	nested := protowire.AppendString(protowire.AppendTag(nil, 1, protowire.BytesType), "old-access")
	nested = protowire.AppendFixed64(protowire.AppendTag(nested, 9, protowire.Fixed64Type), 42)
	parts[6] = protowire.AppendBytes(protowire.AppendTag(nil, 6, protowire.BytesType), nested)

	parts[7] = protowire.AppendFixed32(protowire.AppendTag(nil, 7, protowire.Fixed32Type), 0xdeadbeef)

	for _, n := range []int{1, 2, 6, 7} {
		buf = append(buf, parts[n]...)
	}
	return buf, parts
}

func concat(chunks ...[]byte) []byte {
	var out []byte
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}

func TestRemoveField_PreservesOtherFields(t *testing.T) {
	buf, parts := sampleMessage()
	original := append([]byte(nil), buf...)

	out, err := RemoveField(buf, 6)
	require.NoError(t, err)

	assert.Equal(t, concat(parts[1], parts[2], parts[7]), out)
	assert.Equal(t, original, buf, "input buffer must not be modified")
}

func TestRemoveField_EachField(t *testing.T) {
	buf, parts := sampleMessage()

	tests := []struct {
		number FieldNumber
		want   []byte
	}{
		{1, concat(parts[2], parts[6], parts[7])},
		{2, concat(parts[1], parts[6], parts[7])},
		{6, concat(parts[1], parts[2], parts[7])},
		{7, concat(parts[1], parts[2], parts[6])},
	}

	for _, tt := range tests {
		out, err := RemoveField(buf, tt.number)
		require.NoError(t, err, "removing field %d", tt.number)
		assert.Equal(t, tt.want, out, "removing field %d", tt.number)
	}
}

func TestRemoveField_Idempotent(t *testing.T) {
	buf, _ := sampleMessage()

	for _, n := range []FieldNumber{1, 2, 6, 7, 99} {
		once, err := RemoveField(buf, n)
		require.NoError(t, err)
		twice, err := RemoveField(once, n)
		require.NoError(t, err)
		assert.Equal(t, once, twice, "field %d", n)
	}
}

func TestRemoveField_AllOccurrencesAnyWireType(t *testing.T) {
	var buf []byte
	buf = protowire.AppendString(protowire.AppendTag(buf, 2, protowire.BytesType), "first")
	keep := protowire.AppendVarint(protowire.AppendTag(nil, 3, protowire.VarintType), 1)
	buf = append(buf, keep...)
	buf = protowire.AppendVarint(protowire.AppendTag(buf, 2, protowire.VarintType), 7)
	buf = protowire.AppendFixed64(protowire.AppendTag(buf, 2, protowire.Fixed64Type), 8)

	out, err := RemoveField(buf, 2)
	require.NoError(t, err)
	assert.Equal(t, keep, out)
}

func TestRemoveField_NoMatchDoesNotAlias(t *testing.T) {
	buf, _ := sampleMessage()
	backing := make([]byte, len(buf), len(buf)+16)
	copy(backing, buf)

	out, err := RemoveField(backing, 42)
	require.NoError(t, err)
	assert.Equal(t, buf, out)

	out = append(out, 0xAA)
	assert.Equal(t, byte(0), backing[:cap(backing)][len(buf)], "append must not write into the input's spare capacity")
}

func TestRemoveField_Empty(t *testing.T) {
	out, err := RemoveField(nil, 1)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestRemoveField_Malformed(t *testing.T) {
	valid, _ := sampleMessage()

	tests := []struct {
		name string
		buf  []byte
		want error
	}{
		{"truncated tag", append(append([]byte(nil), valid...), 0x80), ErrTruncatedInput},
		{"length past end", []byte{0x12, 0x05, 'a', 'b'}, ErrTruncatedInput},
		{"truncated fixed64", []byte{0x09, 0x01, 0x02}, ErrTruncatedInput},
		{"truncated fixed32", []byte{0x0d, 0x01}, ErrTruncatedInput},
		{"truncated varint payload", []byte{0x08, 0xff}, ErrTruncatedInput},
		{"group start", []byte{0x0b}, ErrUnsupportedWireType},
		{"group end", []byte{0x0c}, ErrUnsupportedWireType},
		{"wire type 6", []byte{0x0e}, ErrUnsupportedWireType},
		{"overlong varint tag", []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x01}, ErrMalformedVarint},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := RemoveField(tt.buf, 99)
			assert.Nil(t, out)
			assert.ErrorIs(t, err, ErrMalformedField)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRemoveField_RejectsOutOfRangeFieldNumber(t *testing.T) {
	// Field number 1<<32 + 6 would alias field 6 if truncated to 32 bits.
	buf := AppendVarint(nil, uint64(1<<32+6)<<3|uint64(WireBytes))
	buf = append(buf, 0x01, 'x')

	out, err := RemoveField(buf, 6)
	assert.Nil(t, out)
	assert.ErrorIs(t, err, ErrMalformedField)

	_, err = NextField(AppendVarint(nil, uint64(MaxFieldNumber+1)<<3), 0)
	assert.ErrorIs(t, err, ErrMalformedField)

	f, err := NextField(append(AppendVarint(nil, uint64(MaxFieldNumber)<<3), 0x00), 0)
	require.NoError(t, err)
	assert.Equal(t, FieldNumber(MaxFieldNumber), f.Number)
}

func TestRemoveField_MalformedEvenWhenTargetMatches(t *testing.T) {
	// A matching field with a bad length must still fail rather than
	// silently dropping the rest of the buffer.
	buf := []byte{0x32, 0x10, 0x01}

	_, err := RemoveField(buf, 6)
	assert.ErrorIs(t, err, ErrMalformedField)
}

func TestFindField(t *testing.T) {
	buf, _ := sampleMessage()

	email, ok := FindField(buf, 2)
	require.True(t, ok)
	assert.Equal(t, "old@example.com", string(email))

	nested, ok := FindField(buf, 6)
	require.True(t, ok)
	access, ok := FindField(nested, 1)
	require.True(t, ok)
	assert.Equal(t, "old-access", string(access))

	_, ok = FindField(buf, 1)
	assert.False(t, ok, "varint occurrences are not matches")

	_, ok = FindField(buf, 99)
	assert.False(t, ok)
}

func TestFindField_FirstOccurrenceWins(t *testing.T) {
	var buf []byte
	buf = protowire.AppendVarint(protowire.AppendTag(buf, 4, protowire.VarintType), 1)
	buf = protowire.AppendString(protowire.AppendTag(buf, 4, protowire.BytesType), "first")
	buf = protowire.AppendString(protowire.AppendTag(buf, 4, protowire.BytesType), "second")

	got, ok := FindField(buf, 4)
	require.True(t, ok)
	assert.Equal(t, "first", string(got))
}

func TestFindField_LenientOnTrailingNoise(t *testing.T) {
	buf, _ := sampleMessage()
	noisy := append(append([]byte(nil), buf...), 0x0b, 0xff)

	email, ok := FindField(noisy, 2)
	require.True(t, ok, "fields before the noise are still found")
	assert.Equal(t, "old@example.com", string(email))

	_, ok = FindField(noisy, 99)
	assert.False(t, ok, "noise is reported as absence, not an error")

	_, ok = FindField([]byte{0x12, 0x10, 'x'}, 2)
	assert.False(t, ok, "truncated payload of the target is absence")
}

func TestFindFieldStrict(t *testing.T) {
	buf, _ := sampleMessage()

	got, ok, err := FindFieldStrict(buf, 2)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "old@example.com", string(got))

	_, ok, err = FindFieldStrict(buf, 99)
	require.NoError(t, err)
	assert.False(t, ok)

	noisy := append(append([]byte(nil), buf...), 0x0b)
	_, ok, err = FindFieldStrict(noisy, 99)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrUnsupportedWireType)
	assert.ErrorIs(t, err, ErrMalformedField)
}

func TestFields(t *testing.T) {
	buf, parts := sampleMessage()

	fields, err := Fields(buf)
	require.NoError(t, err)
	require.Len(t, fields, 4)

	wantNumbers := []FieldNumber{1, 2, 6, 7}
	wantTypes := []WireType{WireVarint, WireBytes, WireBytes, WireFixed32}
	for i, f := range fields {
		assert.Equal(t, wantNumbers[i], f.Number)
		assert.Equal(t, wantTypes[i], f.WireType)
		assert.Equal(t, parts[int(f.Number)], f.Raw(buf))
	}

	assert.Equal(t, "old@example.com", string(fields[1].Payload(buf)))
	assert.Equal(t, fields[0].End, fields[1].Start)
	assert.Equal(t, len(buf), fields[3].End)

	var fe *FieldError
	_, err = Fields([]byte{0x08, 0x01, 0x0b})
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, 2, fe.Offset)
}

func TestAppendHelpers_MatchProtowire(t *testing.T) {
	assert.Equal(t,
		protowire.AppendString(protowire.AppendTag(nil, 2, protowire.BytesType), "a@b.com"),
		AppendStringField(nil, 2, "a@b.com"))

	assert.Equal(t,
		protowire.AppendBytes(protowire.AppendTag(nil, 300, protowire.BytesType), []byte{1, 2, 3}),
		AppendBytesField(nil, 300, []byte{1, 2, 3}))

	assert.Equal(t,
		protowire.AppendVarint(protowire.AppendTag(nil, 1, protowire.VarintType), 1700000000),
		AppendVarintField(nil, 1, 1700000000))
}

func TestTag(t *testing.T) {
	tag := MakeTag(6, WireBytes)
	assert.Equal(t, Tag(0x32), tag)

	n, w := ParseTag(tag)
	assert.Equal(t, FieldNumber(6), n)
	assert.Equal(t, WireBytes, w)

	assert.True(t, WireFixed32.Supported())
	assert.False(t, WireType(3).Supported())
	assert.Equal(t, "wiretype(4)", WireType(4).String())
}
