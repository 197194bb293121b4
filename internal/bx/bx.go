// Package bx provides little-endian (and occasionally big-endian) byte
// helpers for packing fixed-width primitives into page-sized buffers.
package bx

import (
	"encoding/binary"
	"math"
)

var (
	LE = binary.LittleEndian
	BE = binary.BigEndian
)

// --- LE: read ---
func U8(b []byte) uint8    { return b[0] }
func U16(b []byte) uint16  { return LE.Uint16(b) }
func U32(b []byte) uint32  { return LE.Uint32(b) }
func U64(b []byte) uint64  { return LE.Uint64(b) }
func I8(b []byte) int8     { return int8(U8(b)) }
func I16(b []byte) int16   { return int16(U16(b)) }
func I32(b []byte) int32   { return int32(U32(b)) }
func I64(b []byte) int64   { return int64(U64(b)) }
func F32(b []byte) float32 { return math.Float32frombits(U32(b)) }
func F64(b []byte) float64 { return math.Float64frombits(U64(b)) }

// --- LE: write ---
func PutU8(b []byte, v uint8)    { b[0] = v }
func PutU16(b []byte, v uint16)  { LE.PutUint16(b, v) }
func PutU32(b []byte, v uint32)  { LE.PutUint32(b, v) }
func PutU64(b []byte, v uint64)  { LE.PutUint64(b, v) }
func PutI8(b []byte, v int8)     { PutU8(b, uint8(v)) }
func PutI16(b []byte, v int16)   { PutU16(b, uint16(v)) }
func PutI32(b []byte, v int32)   { PutU32(b, uint32(v)) }
func PutI64(b []byte, v int64)   { PutU64(b, uint64(v)) }
func PutF32(b []byte, v float32) { PutU32(b, math.Float32bits(v)) }
func PutF64(b []byte, v float64) { PutU64(b, math.Float64bits(v)) }

// Uint128 is two 64-bit little-endian halves; Go has no native 128-bit
// integer type. Lo holds bits [0,64), Hi holds bits [64,128).
type Uint128 struct {
	Lo, Hi uint64
}

// Int128 is the signed counterpart; Hi carries the sign.
type Int128 struct {
	Lo uint64
	Hi int64
}

func U128(b []byte) Uint128 { return Uint128{Lo: U64(b), Hi: U64(b[8:])} }
func PutU128(b []byte, v Uint128) {
	PutU64(b, v.Lo)
	PutU64(b[8:], v.Hi)
}

func I128(b []byte) Int128 { return Int128{Lo: U64(b), Hi: int64(U64(b[8:]))} }
func PutI128(b []byte, v Int128) {
	PutU64(b, v.Lo)
	PutU64(b[8:], uint64(v.Hi))
}

// --- LE: At (offset) ---
func U8At(b []byte, off int) uint8             { return U8(b[off:]) }
func U16At(b []byte, off int) uint16           { return U16(b[off:]) }
func U32At(b []byte, off int) uint32           { return U32(b[off:]) }
func U64At(b []byte, off int) uint64           { return U64(b[off:]) }
func I8At(b []byte, off int) int8              { return I8(b[off:]) }
func I16At(b []byte, off int) int16            { return I16(b[off:]) }
func I32At(b []byte, off int) int32            { return I32(b[off:]) }
func I64At(b []byte, off int) int64            { return I64(b[off:]) }
func F32At(b []byte, off int) float32          { return F32(b[off:]) }
func F64At(b []byte, off int) float64          { return F64(b[off:]) }
func U128At(b []byte, off int) Uint128         { return U128(b[off:]) }
func I128At(b []byte, off int) Int128          { return I128(b[off:]) }
func PutU8At(b []byte, off int, v uint8)       { PutU8(b[off:], v) }
func PutU16At(b []byte, off int, v uint16)     { PutU16(b[off:], v) }
func PutU32At(b []byte, off int, v uint32)     { PutU32(b[off:], v) }
func PutU64At(b []byte, off int, v uint64)     { PutU64(b[off:], v) }
func PutI8At(b []byte, off int, v int8)        { PutI8(b[off:], v) }
func PutI16At(b []byte, off int, v int16)      { PutI16(b[off:], v) }
func PutI32At(b []byte, off int, v int32)      { PutI32(b[off:], v) }
func PutI64At(b []byte, off int, v int64)      { PutI64(b[off:], v) }
func PutF32At(b []byte, off int, v float32)    { PutF32(b[off:], v) }
func PutF64At(b []byte, off int, v float64)    { PutF64(b[off:], v) }
func PutU128At(b []byte, off int, v Uint128)   { PutU128(b[off:], v) }
func PutI128At(b []byte, off int, v Int128)    { PutI128(b[off:], v) }

// --- BE (used for sortable keys) ---
func U16BE(b []byte) uint16                  { return BE.Uint16(b) }
func U32BE(b []byte) uint32                  { return BE.Uint32(b) }
func U64BE(b []byte) uint64                  { return BE.Uint64(b) }
func PutU16BE(b []byte, v uint16)            { BE.PutUint16(b, v) }
func PutU32BE(b []byte, v uint32)            { BE.PutUint32(b, v) }
func PutU64BE(b []byte, v uint64)            { BE.PutUint64(b, v) }
func U16BEAt(b []byte, off int) uint16       { return U16BE(b[off:]) }
func U32BEAt(b []byte, off int) uint32       { return U32BE(b[off:]) }
func U64BEAt(b []byte, off int) uint64       { return U64BE(b[off:]) }
func PutU16BEAt(b []byte, off int, v uint16) { PutU16BE(b[off:], v) }
func PutU32BEAt(b []byte, off int, v uint32) { PutU32BE(b[off:], v) }
func PutU64BEAt(b []byte, off int, v uint64) { PutU64BE(b[off:], v) }
