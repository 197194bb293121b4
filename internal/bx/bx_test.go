package bx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLittleEndianReadWrite(t *testing.T) {
	{
		b := make([]byte, 2)
		var v uint16 = 0x1234
		PutU16(b, v)
		assert.Equal(t, []byte{0x34, 0x12}, b)
		assert.Equal(t, v, U16(b))
	}
	{
		b := make([]byte, 4)
		var v uint32 = 0x01020304
		PutU32(b, v)
		assert.Equal(t, []byte{0x04, 0x03, 0x02, 0x01}, b)
		assert.Equal(t, v, U32(b))
	}
	{
		b := make([]byte, 8)
		var v uint64 = 0x0102030405060708
		PutU64(b, v)
		assert.Equal(t, []byte{0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01}, b)
		assert.Equal(t, v, U64(b))
	}
}

func TestLittleEndianAt(t *testing.T) {
	buf := make([]byte, 16)
	PutU16At(buf, 0, 0x0A0B)
	PutU32At(buf, 2, 0x01020304)
	PutU64At(buf, 6, 0x0102030405060708)

	assert.Equal(t, uint16(0x0A0B), U16At(buf, 0))
	assert.Equal(t, uint32(0x01020304), U32At(buf, 2))
	assert.Equal(t, uint64(0x0102030405060708), U64At(buf, 6))
}

func TestBigEndianReadWrite(t *testing.T) {
	b := make([]byte, 4)
	var v uint32 = 0x01020304
	PutU32BE(b, v)
	assert.Equal(t, []byte{0x01, 0x02, 0x03, 0x04}, b)
	assert.Equal(t, v, U32BE(b))
}

func TestIntAliases(t *testing.T) {
	b := make([]byte, 8)
	var v int64 = -1234567890
	PutI64(b, v)
	assert.Equal(t, v, I64(b))
}

func TestFloatRoundTrip(t *testing.T) {
	b32 := make([]byte, 4)
	PutF32(b32, 3.5)
	assert.Equal(t, float32(3.5), F32(b32))

	b64 := make([]byte, 8)
	PutF64(b64, -2.25)
	assert.Equal(t, float64(-2.25), F64(b64))
}

func TestInt8RoundTrip(t *testing.T) {
	b := make([]byte, 1)
	PutI8(b, -12)
	assert.Equal(t, int8(-12), I8(b))

	PutU8(b, 250)
	assert.Equal(t, uint8(250), U8(b))
}

func TestUint128RoundTrip(t *testing.T) {
	b := make([]byte, 16)
	v := Uint128{Lo: 0x1122334455667788, Hi: 0x99AABBCCDDEEFF00}
	PutU128(b, v)
	assert.Equal(t, v, U128(b))

	// low half occupies the first 8 bytes, little-endian
	assert.Equal(t, uint64(0x1122334455667788), U64(b[0:8]))
	assert.Equal(t, uint64(0x99AABBCCDDEEFF00), U64(b[8:16]))
}

func TestInt128RoundTrip(t *testing.T) {
	b := make([]byte, 16)
	v := Int128{Lo: 42, Hi: -1}
	PutI128(b, v)
	assert.Equal(t, v, I128(b))
}
