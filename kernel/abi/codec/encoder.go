package codec

import (
	"google.golang.org/protobuf/encoding/protowire"
)

type Encoder struct {
	buf []byte
}

func NewEncoder() *Encoder {
	return &Encoder{buf: make([]byte, 0, 64)}
}

// Data returns the encoded bytes
func (e *Encoder) Data() []byte {
	return e.buf
}

func (e *Encoder) varint(tag protowire.Number, v uint64) {
	e.buf = protowire.AppendTag(e.buf, tag, protowire.VarintType)
	e.buf = protowire.AppendVarint(e.buf, v)
}

func (e *Encoder) Uint32(tag protowire.Number, v uint32) {
	e.varint(tag, uint64(v))
}

func (e *Encoder) Uint64(tag protowire.Number, v uint64) {
	e.varint(tag, v)
}

// Sint32 is zig-zag encoded
func (e *Encoder) Sint32(tag protowire.Number, v int32) {
	e.varint(tag, protowire.EncodeZigZag(int64(v)))
}

func (e *Encoder) Bool(tag protowire.Number, v bool) {
	e.varint(tag, protowire.EncodeBool(v))
}

func (e *Encoder) Bytes(tag protowire.Number, v []byte) {
	e.buf = protowire.AppendTag(e.buf, tag, protowire.BytesType)
	e.buf = protowire.AppendBytes(e.buf, v)
}

func (e *Encoder) String(tag protowire.Number, v string) {
	e.buf = protowire.AppendTag(e.buf, tag, protowire.BytesType)
	e.buf = protowire.AppendString(e.buf, v)
}

func (e *Encoder) RepeatedBytes(tag protowire.Number, vs [][]byte) {
	for _, v := range vs {
		e.Bytes(tag, v)
	}
}

func (e *Encoder) message(tag protowire.Number, m Message) {
	sub := NewEncoder()
	m.MarshalABI(sub)
	e.Bytes(tag, sub.Data())
}

// EncodeMessage writes a nested object, a nil pointer is written as the zero value
func EncodeMessage[T any, PT interface {
	*T
	Message
}](e *Encoder, tag protowire.Number, m PT) {
	if m == nil {
		m = new(T)
	}
	e.message(tag, m)
}

// EncodeRepeated writes one nested object per element
func EncodeRepeated[T any, PT interface {
	*T
	Message
}](e *Encoder, tag protowire.Number, ms []PT) {
	for _, m := range ms {
		EncodeMessage[T, PT](e, tag, m)
	}
}
