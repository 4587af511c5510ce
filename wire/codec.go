// Package wire encodes the messages exchanged between the table server and
// its clients, and stored in replay tapes, in protobuf wire format. The
// schema lives in sweeper.proto; encoding is done by hand with protowire.
package wire

import (
	"errors"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

var ErrUnknownPayload = errors.New("wire: envelope has no known payload")

type encoder struct {
	b []byte
}

func (e *encoder) uint(num protowire.Number, v uint64) {
	if v == 0 {
		return
	}
	e.b = protowire.AppendTag(e.b, num, protowire.VarintType)
	e.b = protowire.AppendVarint(e.b, v)
}

func (e *encoder) int(num protowire.Number, v int) {
	e.uint(num, uint64(int64(v)))
}

func (e *encoder) sint(num protowire.Number, v int) {
	e.uint(num, protowire.EncodeZigZag(int64(v)))
}

func (e *encoder) bool(num protowire.Number, v bool) {
	e.uint(num, protowire.EncodeBool(v))
}

func (e *encoder) string(num protowire.Number, s string) {
	if s == "" {
		return
	}
	e.b = protowire.AppendTag(e.b, num, protowire.BytesType)
	e.b = protowire.AppendString(e.b, s)
}

func (e *encoder) double(num protowire.Number, f float64) {
	if f == 0 {
		return
	}
	e.b = protowire.AppendTag(e.b, num, protowire.Fixed64Type)
	e.b = protowire.AppendFixed64(e.b, math.Float64bits(f))
}

// message writes a nested message. Empty messages are still written so a
// oneof member with no fields stays visible.
func (e *encoder) message(num protowire.Number, fn func(*encoder)) {
	var sub encoder
	fn(&sub)
	e.b = protowire.AppendTag(e.b, num, protowire.BytesType)
	e.b = protowire.AppendBytes(e.b, sub.b)
}

func (e *encoder) packed(num protowire.Number, n int, at func(i int) uint64) {
	if n == 0 {
		return
	}
	var buf []byte
	for i := 0; i < n; i++ {
		buf = protowire.AppendVarint(buf, at(i))
	}
	e.b = protowire.AppendTag(e.b, num, protowire.BytesType)
	e.b = protowire.AppendBytes(e.b, buf)
}

type field struct {
	num   protowire.Number
	typ   protowire.Type
	v     uint64
	bytes []byte
}

func (f field) uint() uint64    { return f.v }
func (f field) int() int        { return int(int64(f.v)) }
func (f field) sint() int       { return int(protowire.DecodeZigZag(f.v)) }
func (f field) bool() bool      { return protowire.DecodeBool(f.v) }
func (f field) string() string  { return string(f.bytes) }
func (f field) double() float64 { return math.Float64frombits(f.v) }

// varints returns the values of a repeated varint field, packed or not.
func (f field) varints() ([]uint64, error) {
	if f.typ == protowire.VarintType {
		return []uint64{f.v}, nil
	}
	var out []uint64
	b := f.bytes
	for len(b) > 0 {
		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		out = append(out, v)
		b = b[n:]
	}
	return out, nil
}

// eachField walks the top-level fields of b. Unknown wire types are skipped.
func eachField(b []byte, fn func(f field) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		f := field{num: num, typ: typ}
		switch typ {
		case protowire.VarintType:
			f.v, n = protowire.ConsumeVarint(b)
		case protowire.BytesType:
			f.bytes, n = protowire.ConsumeBytes(b)
		case protowire.Fixed64Type:
			f.v, n = protowire.ConsumeFixed64(b)
		case protowire.Fixed32Type:
			var v uint32
			v, n = protowire.ConsumeFixed32(b)
			f.v = uint64(v)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}
