package codec

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

type field struct {
	num    protowire.Number
	typ    protowire.Type
	varint uint64
	bytes  []byte
}

// Decoder reads the fields of one object in declaration order.
// The first error is kept and every later read returns zero values.
type Decoder struct {
	fields []field
	pos    int
	err    error
}

// NewDecoder splits data into fields and checks the tag order
func NewDecoder(data []byte) (*Decoder, error) {
	d := &Decoder{}
	var last protowire.Number
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("codec: bad tag: %v", protowire.ParseError(n))
		}
		data = data[n:]
		if num < last {
			return nil, fmt.Errorf("codec: field %d after field %d", num, last)
		}
		last = num

		f := field{num: num, typ: typ}
		switch typ {
		case protowire.VarintType:
			f.varint, n = protowire.ConsumeVarint(data)
		case protowire.BytesType:
			f.bytes, n = protowire.ConsumeBytes(data)
		default:
			return nil, fmt.Errorf("codec: field %d has unsupported wire type %d", num, typ)
		}
		if n < 0 {
			return nil, fmt.Errorf("codec: bad field %d: %v", num, protowire.ParseError(n))
		}
		data = data[n:]
		d.fields = append(d.fields, f)
	}
	return d, nil
}

func (d *Decoder) Err() error {
	return d.err
}

// Finish reports the first read error or a field nobody asked for
func (d *Decoder) Finish() error {
	if d.err != nil {
		return d.err
	}
	if d.pos < len(d.fields) {
		return fmt.Errorf("codec: unknown field %d", d.fields[d.pos].num)
	}
	return nil
}

func (d *Decoder) fail(format string, args ...interface{}) {
	if d.err == nil {
		d.err = fmt.Errorf("codec: "+format, args...)
	}
}

// required takes the next field, which must carry tag and typ
func (d *Decoder) required(tag protowire.Number, typ protowire.Type) (field, bool) {
	if d.err != nil {
		return field{}, false
	}
	if d.pos >= len(d.fields) || d.fields[d.pos].num > tag {
		d.fail("missing required field %d", tag)
		return field{}, false
	}
	f := d.fields[d.pos]
	if f.num < tag {
		d.fail("unexpected field %d", f.num)
		return field{}, false
	}
	if f.typ != typ {
		d.fail("field %d has wire type %d, want %d", tag, f.typ, typ)
		return field{}, false
	}
	d.pos++
	return f, true
}

// repeated takes every consecutive field carrying tag
func (d *Decoder) repeated(tag protowire.Number) []field {
	if d.err != nil {
		return nil
	}
	if d.pos < len(d.fields) && d.fields[d.pos].num < tag {
		d.fail("unexpected field %d", d.fields[d.pos].num)
		return nil
	}
	var fs []field
	for d.pos < len(d.fields) && d.fields[d.pos].num == tag {
		f := d.fields[d.pos]
		if f.typ != protowire.BytesType {
			d.fail("field %d has wire type %d, want %d", tag, f.typ, protowire.BytesType)
			return nil
		}
		fs = append(fs, f)
		d.pos++
	}
	return fs
}

func (d *Decoder) Uint32(tag protowire.Number) uint32 {
	f, ok := d.required(tag, protowire.VarintType)
	if !ok {
		return 0
	}
	if f.varint > math.MaxUint32 {
		d.fail("field %d overflows uint32", tag)
		return 0
	}
	return uint32(f.varint)
}

func (d *Decoder) Uint64(tag protowire.Number) uint64 {
	f, ok := d.required(tag, protowire.VarintType)
	if !ok {
		return 0
	}
	return f.varint
}

func (d *Decoder) Sint32(tag protowire.Number) int32 {
	f, ok := d.required(tag, protowire.VarintType)
	if !ok {
		return 0
	}
	v := protowire.DecodeZigZag(f.varint)
	if v < math.MinInt32 || v > math.MaxInt32 {
		d.fail("field %d overflows sint32", tag)
		return 0
	}
	return int32(v)
}

func (d *Decoder) Bool(tag protowire.Number) bool {
	f, ok := d.required(tag, protowire.VarintType)
	if !ok {
		return false
	}
	return protowire.DecodeBool(f.varint)
}

// Bytes returns a copy, never nil for a present field
func (d *Decoder) Bytes(tag protowire.Number) []byte {
	f, ok := d.required(tag, protowire.BytesType)
	if !ok {
		return nil
	}
	return append([]byte{}, f.bytes...)
}

func (d *Decoder) String(tag protowire.Number) string {
	f, ok := d.required(tag, protowire.BytesType)
	if !ok {
		return ""
	}
	return string(f.bytes)
}

func (d *Decoder) RepeatedBytes(tag protowire.Number) [][]byte {
	fs := d.repeated(tag)
	if len(fs) == 0 {
		return nil
	}
	out := make([][]byte, 0, len(fs))
	for _, f := range fs {
		out = append(out, append([]byte{}, f.bytes...))
	}
	return out
}

func (d *Decoder) message(data []byte, m Message) {
	sub, err := NewDecoder(data)
	if err != nil {
		d.fail("%v", err)
		return
	}
	m.UnmarshalABI(sub)
	if err := sub.Finish(); err != nil {
		d.fail("%v", err)
	}
}

// DecodeMessage reads a required nested object
func DecodeMessage[T any, PT interface {
	*T
	Message
}](d *Decoder, tag protowire.Number) PT {
	f, ok := d.required(tag, protowire.BytesType)
	if !ok {
		return nil
	}
	m := PT(new(T))
	d.message(f.bytes, m)
	return m
}

// DecodeRepeated reads every element of a repeated nested object
func DecodeRepeated[T any, PT interface {
	*T
	Message
}](d *Decoder, tag protowire.Number) []PT {
	fs := d.repeated(tag)
	if len(fs) == 0 {
		return nil
	}
	out := make([]PT, 0, len(fs))
	for _, f := range fs {
		m := PT(new(T))
		d.message(f.bytes, m)
		out = append(out, m)
	}
	return out
}
