// Package wire is lildb's on-the-wire protocol: a length-prefixed frame
// codec plus a small discriminated-union message set driving the session
// layer.
package wire

import (
	"encoding/binary"
	"io"

	"github.com/lildb-project/lildb/internal/lilderr"
)

// MaxFrameSize bounds memory usage on malformed or hostile input.
const MaxFrameSize = 8 << 20 // 8 MiB

// ReadFrame reads one length-prefixed frame: a uint32 LE length followed
// by that many payload bytes.
func ReadFrame(r io.Reader) ([]byte, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	n := binary.LittleEndian.Uint32(hdr[:])
	if n == 0 {
		return nil, lilderr.New(lilderr.Validation, "wire: empty frame")
	}
	if n > MaxFrameSize {
		return nil, lilderr.New(lilderr.Validation, "wire: frame too large: %d > %d", n, MaxFrameSize)
	}

	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// WriteFrame writes payload as one length-prefixed frame.
func WriteFrame(w io.Writer, payload []byte) error {
	if len(payload) == 0 {
		return lilderr.New(lilderr.Validation, "wire: refusing to write an empty frame")
	}
	if len(payload) > MaxFrameSize {
		return lilderr.New(lilderr.Validation, "wire: payload too large: %d > %d", len(payload), MaxFrameSize)
	}

	var hdr [4]byte
	binary.LittleEndian.PutUint32(hdr[:], uint32(len(payload)))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}
