package schema

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWithColumnRejectsDuplicate(t *testing.T) {
	s, err := New().WithColumn("col1", Int, false)
	require.NoError(t, err)
	s, err = s.WithColumn("col2", Int, false)
	require.NoError(t, err)

	_, err = s.WithColumn("col2", Float, false)
	require.Error(t, err)
}

func TestSchemaEncodeDecodeRoundTrip(t *testing.T) {
	s, err := New().WithColumn("id", Long, false)
	require.NoError(t, err)
	s, err = s.WithColumn("name", Text, false)
	require.NoError(t, err)
	s, err = s.WithColumn("score", Double, true)
	require.NoError(t, err)

	buf, err := s.Encode()
	require.NoError(t, err)

	got, err := Decode(buf)
	require.NoError(t, err)
	require.Equal(t, s, got)
}

func TestEncodeRowDecodeRowRoundTrip(t *testing.T) {
	s, err := New().WithColumn("id", Long, false)
	require.NoError(t, err)
	s, err = s.WithColumn("active", Bool, false)
	require.NoError(t, err)
	s, err = s.WithColumn("name", Text, true)
	require.NoError(t, err)
	s, err = s.WithColumn("payload", Bytes, false)
	require.NoError(t, err)

	values := []any{int64(42), true, nil, []byte{1, 2, 3}}
	buf, err := EncodeRow(s, values)
	require.NoError(t, err)

	got, err := DecodeRow(s, buf)
	require.NoError(t, err)
	require.Equal(t, int64(42), got[0])
	require.Equal(t, true, got[1])
	require.Nil(t, got[2])
	require.Equal(t, []byte{1, 2, 3}, got[3])
}

func TestEncodeRowRejectsNullOnRequiredColumn(t *testing.T) {
	s, err := New().WithColumn("id", Long, false)
	require.NoError(t, err)

	_, err = EncodeRow(s, []any{nil})
	require.Error(t, err)
}

func TestEncodeRowRejectsWrongArity(t *testing.T) {
	s, err := New().WithColumn("id", Long, false)
	require.NoError(t, err)

	_, err = EncodeRow(s, []any{int64(1), int64(2)})
	require.Error(t, err)
}

func TestAllFixedWidthTypesRoundTrip(t *testing.T) {
	s := New()
	var err error
	s, err = s.WithColumn("a", Bool, false)
	require.NoError(t, err)
	s, err = s.WithColumn("b", XShort, false)
	require.NoError(t, err)
	s, err = s.WithColumn("c", UXShort, false)
	require.NoError(t, err)
	s, err = s.WithColumn("d", Short, false)
	require.NoError(t, err)
	s, err = s.WithColumn("e", UShort, false)
	require.NoError(t, err)
	s, err = s.WithColumn("f", Int, false)
	require.NoError(t, err)
	s, err = s.WithColumn("g", UInt, false)
	require.NoError(t, err)
	s, err = s.WithColumn("h", Long, false)
	require.NoError(t, err)
	s, err = s.WithColumn("i", ULong, false)
	require.NoError(t, err)
	s, err = s.WithColumn("j", Float, false)
	require.NoError(t, err)
	s, err = s.WithColumn("k", Double, false)
	require.NoError(t, err)

	values := []any{
		true, int8(-5), uint8(5), int16(-500), uint16(500),
		int32(-70000), uint32(70000), int64(-1) << 40, uint64(1) << 40,
		float32(1.5), float64(2.25),
	}
	buf, err := EncodeRow(s, values)
	require.NoError(t, err)

	got, err := DecodeRow(s, buf)
	require.NoError(t, err)
	require.Equal(t, values, got)
}
