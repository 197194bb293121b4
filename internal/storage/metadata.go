package storage

import (
	"github.com/lildb-project/lildb/internal/bx"
	"github.com/lildb-project/lildb/internal/lilderr"
)

// Metadata is the small binary blob stored in metadata.dat alongside each
// database's data file.
type Metadata struct {
	StorageEngineVersion string
	Name                 string
}

// Encode serializes the metadata as a self-describing binary blob:
// a uint16 length prefix for each string field, hand-rolled rather than
// a general-purpose serialization library, since this is two short
// strings and nothing more.
func (m Metadata) Encode() []byte {
	buf := make([]byte, 0, 4+len(m.StorageEngineVersion)+len(m.Name))
	buf = appendString(buf, m.StorageEngineVersion)
	buf = appendString(buf, m.Name)
	return buf
}

func appendString(buf []byte, s string) []byte {
	lenBuf := make([]byte, 2)
	bx.PutU16(lenBuf, uint16(len(s)))
	buf = append(buf, lenBuf...)
	return append(buf, s...)
}

// DecodeMetadata parses the blob written by Encode.
func DecodeMetadata(buf []byte) (Metadata, error) {
	version, rest, err := readString(buf)
	if err != nil {
		return Metadata{}, err
	}
	name, _, err := readString(rest)
	if err != nil {
		return Metadata{}, err
	}
	return Metadata{StorageEngineVersion: version, Name: name}, nil
}

func readString(buf []byte) (string, []byte, error) {
	if len(buf) < 2 {
		return "", nil, lilderr.New(lilderr.Internal, "malformed metadata: truncated length prefix")
	}
	n := int(bx.U16(buf))
	if len(buf) < 2+n {
		return "", nil, lilderr.New(lilderr.Internal, "malformed metadata: truncated string body")
	}
	return string(buf[2 : 2+n]), buf[2+n:], nil
}
