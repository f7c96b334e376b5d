// Package codec is the schema-tagged binary encoding used on the abi wire.
//
// A schema is a Go struct implementing Message. Fields are written in
// ascending tag order, every non-repeated field is always present (zero
// values included), repeated fields are written once per element and may be
// absent when empty. Decoding is strict: a missing required field, a field
// out of order or an unknown tag is an error. A schema without fields is a
// zero-length payload and never goes through the encoder or the decoder.
package codec

import (
	"fmt"
)

// Message is a schema with a fixed field set
type Message interface {
	// FieldCount is the number of declared fields, 0 for empty schemas
	FieldCount() int
	MarshalABI(e *Encoder)
	UnmarshalABI(d *Decoder)
}

// Marshal encodes m, empty schemas encode to zero bytes
func Marshal(m Message) ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("codec: marshal nil message")
	}
	if m.FieldCount() == 0 {
		return []byte{}, nil
	}
	e := NewEncoder()
	m.MarshalABI(e)
	return e.Data(), nil
}

// Unmarshal decodes data into m, empty schemas skip decoding entirely
func Unmarshal(data []byte, m Message) error {
	if m == nil {
		return fmt.Errorf("codec: unmarshal into nil message")
	}
	if m.FieldCount() == 0 {
		return nil
	}
	d, err := NewDecoder(data)
	if err != nil {
		return err
	}
	m.UnmarshalABI(d)
	return d.Finish()
}
