package abi

import (
	"github.com/xuperchain/xabi/kernel/abi/codec"
)

// IPCRequest is the envelope of every call
type IPCRequest struct {
	ID     uint64
	Method string
	Params []byte
}

func (m *IPCRequest) FieldCount() int { return 3 }

func (m *IPCRequest) MarshalABI(e *codec.Encoder) {
	e.Uint64(1, m.ID)
	e.String(2, m.Method)
	e.Bytes(3, m.Params)
}

func (m *IPCRequest) UnmarshalABI(d *codec.Decoder) {
	m.ID = d.Uint64(1)
	m.Method = d.String(2)
	m.Params = d.Bytes(3)
}

type IPCError struct {
	Message string
}

func (m *IPCError) FieldCount() int { return 1 }

func (m *IPCError) MarshalABI(e *codec.Encoder) {
	e.String(1, m.Message)
}

func (m *IPCError) UnmarshalABI(d *codec.Decoder) {
	m.Message = d.String(1)
}

// IPCResponse echoes the request id. Result is empty on failure and
// Error.Message is empty on success.
type IPCResponse struct {
	ID      uint64
	Success bool
	Error   *IPCError
	Result  []byte
}

func (m *IPCResponse) FieldCount() int { return 4 }

func (m *IPCResponse) MarshalABI(e *codec.Encoder) {
	e.Uint64(1, m.ID)
	e.Bool(2, m.Success)
	codec.EncodeMessage(e, 3, m.Error)
	e.Bytes(4, m.Result)
}

func (m *IPCResponse) UnmarshalABI(d *codec.Decoder) {
	m.ID = d.Uint64(1)
	m.Success = d.Bool(2)
	m.Error = codec.DecodeMessage[IPCError](d, 3)
	m.Result = d.Bytes(4)
}

func NewSuccessResponse(id uint64, result []byte) *IPCResponse {
	return &IPCResponse{
		ID:      id,
		Success: true,
		Error:   &IPCError{},
		Result:  result,
	}
}

func NewErrorResponse(id uint64, msg string) *IPCResponse {
	return &IPCResponse{
		ID:     id,
		Error:  &IPCError{Message: msg},
		Result: []byte{},
	}
}
