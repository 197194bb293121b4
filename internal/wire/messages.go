package wire

import "github.com/lildb-project/lildb/internal/lilderr"

// OpCode discriminates the request union; it is always the first byte
// of a frame's payload.
type OpCode byte

const (
	OpOpenDatabase OpCode = iota + 1
	OpCreateDatabase
	OpCreateHeap
	OpInsert
	OpScanNext
	OpClose
)

// Request is the decoded form of any client-sent message.
type Request struct {
	Op OpCode

	// every opcode
	DatabaseName string

	// OpCreateHeap, OpInsert, OpScanNext
	HeapName string

	// OpCreateHeap: an encoded schema.Schema
	Schema []byte

	// OpInsert
	Tuple []byte

	// OpScanNext: a cursor token opaque to the client, returned by the
	// previous OpScanNext response (empty starts a new scan).
	Cursor []byte
}

// Encode serializes a request to its wire form.
func (r Request) Encode() []byte {
	out := []byte{byte(r.Op)}
	switch r.Op {
	case OpOpenDatabase, OpCreateDatabase, OpClose:
		out = appendString(out, r.DatabaseName)
	case OpCreateHeap:
		out = appendString(out, r.DatabaseName)
		out = appendString(out, r.HeapName)
		out = appendBytes(out, r.Schema)
	case OpInsert:
		out = appendString(out, r.DatabaseName)
		out = appendString(out, r.HeapName)
		out = appendBytes(out, r.Tuple)
	case OpScanNext:
		out = appendString(out, r.DatabaseName)
		out = appendString(out, r.HeapName)
		out = appendBytes(out, r.Cursor)
	}
	return out
}

// DecodeRequest is Request.Encode's inverse.
func DecodeRequest(buf []byte) (Request, error) {
	if len(buf) < 1 {
		return Request{}, lilderr.New(lilderr.Internal, "wire: empty request")
	}
	op := OpCode(buf[0])
	i := 1

	var req Request
	req.Op = op

	var err error
	switch op {
	case OpOpenDatabase, OpCreateDatabase, OpClose:
		req.DatabaseName, i, err = readString(buf, i)
	case OpCreateHeap:
		req.DatabaseName, i, err = readString(buf, i)
		if err != nil {
			return Request{}, err
		}
		req.HeapName, i, err = readString(buf, i)
		if err != nil {
			return Request{}, err
		}
		req.Schema, i, err = readBytes(buf, i)
	case OpInsert:
		req.DatabaseName, i, err = readString(buf, i)
		if err != nil {
			return Request{}, err
		}
		req.HeapName, i, err = readString(buf, i)
		if err != nil {
			return Request{}, err
		}
		req.Tuple, i, err = readBytes(buf, i)
	case OpScanNext:
		req.DatabaseName, i, err = readString(buf, i)
		if err != nil {
			return Request{}, err
		}
		req.HeapName, i, err = readString(buf, i)
		if err != nil {
			return Request{}, err
		}
		req.Cursor, i, err = readBytes(buf, i)
	default:
		return Request{}, lilderr.New(lilderr.Internal, "wire: unknown opcode %d", op)
	}
	if err != nil {
		return Request{}, err
	}
	_ = i
	return req, nil
}

// Response is the decoded form of any server-sent reply.
type Response struct {
	OK    bool
	Error string

	// OpScanNext
	Done   bool
	Tuple  []byte
	Cursor []byte
}

// Encode serializes a response to its wire form.
func (r Response) Encode() []byte {
	okByte := byte(0)
	if r.OK {
		okByte = 1
	}
	out := []byte{okByte}
	out = appendString(out, r.Error)

	doneByte := byte(0)
	if r.Done {
		doneByte = 1
	}
	out = append(out, doneByte)
	out = appendBytes(out, r.Tuple)
	out = appendBytes(out, r.Cursor)
	return out
}

// DecodeResponse is Response.Encode's inverse.
func DecodeResponse(buf []byte) (Response, error) {
	if len(buf) < 1 {
		return Response{}, lilderr.New(lilderr.Internal, "wire: empty response")
	}
	var resp Response
	resp.OK = buf[0] != 0
	i := 1

	var err error
	resp.Error, i, err = readString(buf, i)
	if err != nil {
		return Response{}, err
	}

	if i >= len(buf) {
		return Response{}, lilderr.New(lilderr.Internal, "wire: response truncated before done flag")
	}
	resp.Done = buf[i] != 0
	i++

	resp.Tuple, i, err = readBytes(buf, i)
	if err != nil {
		return Response{}, err
	}
	resp.Cursor, i, err = readBytes(buf, i)
	if err != nil {
		return Response{}, err
	}
	return resp, nil
}
