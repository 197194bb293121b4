package wire

import (
	"encoding/binary"

	"github.com/lildb-project/lildb/internal/lilderr"
)

// Encodable is implemented by every request/response payload in this
// package, mirroring the original protocol's Encodable trait.
type Encodable interface {
	Encode() []byte
}

func appendString(out []byte, s string) []byte {
	var l [4]byte
	binary.LittleEndian.PutUint32(l[:], uint32(len(s)))
	out = append(out, l[:]...)
	return append(out, s...)
}

func readString(buf []byte, i int) (string, int, error) {
	if i+4 > len(buf) {
		return "", 0, lilderr.New(lilderr.Internal, "wire: buffer truncated reading string length")
	}
	l := int(binary.LittleEndian.Uint32(buf[i : i+4]))
	i += 4
	if i+l > len(buf) {
		return "", 0, lilderr.New(lilderr.Internal, "wire: buffer truncated reading %d-byte string", l)
	}
	return string(buf[i : i+l]), i + l, nil
}

func appendBytes(out []byte, b []byte) []byte {
	var l [4]byte
	binary.LittleEndian.PutUint32(l[:], uint32(len(b)))
	out = append(out, l[:]...)
	return append(out, b...)
}

func readBytes(buf []byte, i int) ([]byte, int, error) {
	if i+4 > len(buf) {
		return nil, 0, lilderr.New(lilderr.Internal, "wire: buffer truncated reading bytes length")
	}
	l := int(binary.LittleEndian.Uint32(buf[i : i+4]))
	i += 4
	if i+l > len(buf) {
		return nil, 0, lilderr.New(lilderr.Internal, "wire: buffer truncated reading %d bytes", l)
	}
	if l == 0 {
		return nil, i, nil
	}
	out := make([]byte, l)
	copy(out, buf[i:i+l])
	return out, i + l, nil
}
