package aris

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strings"
)

// Kind is the primitive type of a header field. All multi-byte kinds are
// little-endian on disk.
type Kind uint8

const (
	U8 Kind = iota + 1
	U16
	U32
	U64
	I32
	F32
	F64
	Bytes // fixed-length byte string (ASCII text or opaque padding)
)

// Size returns the width in bytes of one element of kind k.
func (k Kind) Size() int {
	switch k {
	case U8, Bytes:
		return 1
	case U16:
		return 2
	case U32, I32, F32:
		return 4
	case U64, F64:
		return 8
	}
	return 0
}

func (k Kind) String() string {
	switch k {
	case U8:
		return "u8"
	case U16:
		return "u16"
	case U32:
		return "u32"
	case U64:
		return "u64"
	case I32:
		return "i32"
	case F32:
		return "f32"
	case F64:
		return "f64"
	case Bytes:
		return "bytes"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Field describes one entry of a fixed-layout header: Count elements of Kind.
type Field struct {
	Name  string
	Kind  Kind
	Count int
}

// Width returns the number of bytes the field occupies on disk.
func (f Field) Width() int {
	return f.Kind.Size() * f.Count
}

// Schema is an ordered list of fields decoded strictly in declaration order.
type Schema struct {
	name    string
	fields  []Field
	offsets []int
	index   map[string]int
	size    int
}

// NewSchema builds a schema from an ordered field list. It panics on
// duplicate names, unknown kinds or non-positive counts: schemas are
// package-level layout tables and such mistakes are programming errors.
func NewSchema(name string, fields []Field) *Schema {
	s := &Schema{
		name:    name,
		fields:  make([]Field, len(fields)),
		offsets: make([]int, len(fields)),
		index:   make(map[string]int, len(fields)),
	}
	copy(s.fields, fields)
	for i, f := range s.fields {
		if f.Kind.Size() == 0 || f.Count <= 0 {
			panic(fmt.Sprintf("aris: %s field %q has invalid layout (%s x %d)", name, f.Name, f.Kind, f.Count))
		}
		if _, dup := s.index[f.Name]; dup {
			panic(fmt.Sprintf("aris: %s field %q declared twice", name, f.Name))
		}
		s.index[f.Name] = i
		s.offsets[i] = s.size
		s.size += f.Width()
	}
	return s
}

// Name returns the schema's human-readable name, used in errors.
func (s *Schema) Name() string { return s.name }

// Size returns the total number of bytes one record occupies.
func (s *Schema) Size() int { return s.size }

// Len returns the number of fields.
func (s *Schema) Len() int { return len(s.fields) }

// Fields returns a copy of the ordered field list.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Offset returns the byte offset of the named field within a record.
func (s *Schema) Offset(name string) (int, bool) {
	i, ok := s.index[name]
	if !ok {
		return 0, false
	}
	return s.offsets[i], true
}

// fieldAt returns the index of the field containing byte offset off.
func (s *Schema) fieldAt(off int) int {
	for i := len(s.offsets) - 1; i >= 0; i-- {
		if s.offsets[i] <= off {
			return i
		}
	}
	return 0
}

// Decode consumes exactly Size() bytes from r and returns the decoded
// record. base is the absolute offset of the first byte in the source and is
// only used for error reporting. A short source yields a *TruncatedHeaderError
// naming the first field that could not be read in full.
func (s *Schema) Decode(r io.Reader, base int64) (*Record, error) {
	buf := make([]byte, s.size)
	n, err := io.ReadFull(r, buf)
	if err != nil {
		if err != io.EOF && err != io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("aris: reading %s at offset %d: %w", s.name, base+int64(n), err)
		}
		i := s.fieldAt(n)
		f := s.fields[i]
		return nil, &TruncatedHeaderError{
			Header: s.name,
			Field:  f.Name,
			Offset: base + int64(s.offsets[i]),
			Want:   f.Width(),
			Got:    n - s.offsets[i],
		}
	}
	return &Record{schema: s, buf: buf}, nil
}

// Encode serialises values into the schema layout. Fields absent from values
// are zero-filled. Numeric values may be any Go integer or float type; Bytes
// fields take a string or []byte (shorter input is NUL-padded). It is used to
// build synthetic recordings.
func (s *Schema) Encode(values map[string]any) ([]byte, error) {
	buf := make([]byte, s.size)
	for name, v := range values {
		i, ok := s.index[name]
		if !ok {
			return nil, fmt.Errorf("aris: %s has no field %q", s.name, name)
		}
		f := s.fields[i]
		dst := buf[s.offsets[i] : s.offsets[i]+f.Width()]
		if err := putValue(dst, f, v); err != nil {
			return nil, fmt.Errorf("aris: %s field %q: %w", s.name, name, err)
		}
	}
	return buf, nil
}

func putValue(dst []byte, f Field, v any) error {
	if f.Kind == Bytes {
		switch b := v.(type) {
		case string:
			copy(dst, b)
		case []byte:
			copy(dst, b)
		default:
			return fmt.Errorf("want string or []byte, got %T", v)
		}
		return nil
	}
	var x float64
	var u uint64
	switch n := v.(type) {
	case int:
		x, u = float64(n), uint64(n)
	case int32:
		x, u = float64(n), uint64(n)
	case int64:
		x, u = float64(n), uint64(n)
	case uint8:
		x, u = float64(n), uint64(n)
	case uint16:
		x, u = float64(n), uint64(n)
	case uint32:
		x, u = float64(n), uint64(n)
	case uint64:
		x, u = float64(n), n
	case float32:
		x, u = float64(n), uint64(n)
	case float64:
		x, u = n, uint64(n)
	default:
		return fmt.Errorf("unsupported value type %T", v)
	}
	switch f.Kind {
	case U8:
		dst[0] = uint8(u)
	case U16:
		binary.LittleEndian.PutUint16(dst, uint16(u))
	case U32, I32:
		binary.LittleEndian.PutUint32(dst, uint32(u))
	case U64:
		binary.LittleEndian.PutUint64(dst, u)
	case F32:
		binary.LittleEndian.PutUint32(dst, math.Float32bits(float32(x)))
	case F64:
		binary.LittleEndian.PutUint64(dst, math.Float64bits(x))
	}
	return nil
}

// Record is one decoded header. It keeps the raw bytes and decodes fields on
// access, so pass-through metadata costs nothing until it is read.
type Record struct {
	schema *Schema
	buf    []byte
}

// Schema returns the layout the record was decoded with.
func (r *Record) Schema() *Schema { return r.schema }

// Len returns the number of bytes the record consumed.
func (r *Record) Len() int { return len(r.buf) }

// Raw returns the undecoded record bytes.
func (r *Record) Raw() []byte { return r.buf }

// Value returns the named field.
func (r *Record) Value(name string) (Value, bool) {
	i, ok := r.schema.index[name]
	if !ok {
		return Value{}, false
	}
	return r.valueAt(i), true
}

func (r *Record) valueAt(i int) Value {
	f := r.schema.fields[i]
	off := r.schema.offsets[i]
	return Value{Field: f, raw: r.buf[off : off+f.Width()]}
}

// Values returns every field in declaration order.
func (r *Record) Values() []Value {
	out := make([]Value, len(r.schema.fields))
	for i := range r.schema.fields {
		out[i] = r.valueAt(i)
	}
	return out
}

// Uint returns the first element of an unsigned field, or 0 if absent.
func (r *Record) Uint(name string) uint64 {
	v, _ := r.Value(name)
	return v.Uint()
}

// Int returns the first element of a signed field, or 0 if absent.
func (r *Record) Int(name string) int64 {
	v, _ := r.Value(name)
	return v.Int()
}

// Float returns the first element of a numeric field as float64, or 0.
func (r *Record) Float(name string) float64 {
	v, _ := r.Value(name)
	return v.Float()
}

// String returns a Bytes field as text with trailing NULs removed.
func (r *Record) String(name string) string {
	v, _ := r.Value(name)
	return v.String()
}

// Map returns every field keyed by name, using Value.Interface.
func (r *Record) Map() map[string]any {
	m := make(map[string]any, len(r.schema.fields))
	for _, v := range r.Values() {
		m[v.Field.Name] = v.Interface()
	}
	return m
}

// Value is a single decoded field.
type Value struct {
	Field Field
	raw   []byte
}

// Bytes returns the field's raw bytes.
func (v Value) Bytes() []byte { return v.raw }

func (v Value) elem(i int) []byte {
	w := v.Field.Kind.Size()
	return v.raw[i*w : (i+1)*w]
}

func (v Value) uintAt(i int) uint64 {
	b := v.elem(i)
	switch v.Field.Kind {
	case U8, Bytes:
		return uint64(b[0])
	case U16:
		return uint64(binary.LittleEndian.Uint16(b))
	case U32, I32:
		return uint64(binary.LittleEndian.Uint32(b))
	case U64:
		return binary.LittleEndian.Uint64(b)
	}
	return 0
}

func (v Value) floatAt(i int) float64 {
	b := v.elem(i)
	switch v.Field.Kind {
	case F32:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
	case F64:
		return math.Float64frombits(binary.LittleEndian.Uint64(b))
	case I32:
		return float64(int32(binary.LittleEndian.Uint32(b)))
	}
	return float64(v.uintAt(i))
}

// Uint returns the first element as an unsigned integer. Float kinds are
// truncated.
func (v Value) Uint() uint64 {
	if len(v.raw) == 0 {
		return 0
	}
	switch v.Field.Kind {
	case F32, F64:
		return uint64(v.floatAt(0))
	case I32:
		return uint64(int32(v.uintAt(0)))
	}
	return v.uintAt(0)
}

// Int returns the first element as a signed integer.
func (v Value) Int() int64 {
	if len(v.raw) == 0 {
		return 0
	}
	switch v.Field.Kind {
	case I32:
		return int64(int32(v.uintAt(0)))
	case F32, F64:
		return int64(v.floatAt(0))
	}
	return int64(v.uintAt(0))
}

// Float returns the first element as a float64.
func (v Value) Float() float64 {
	if len(v.raw) == 0 {
		return 0
	}
	return v.floatAt(0)
}

// Floats returns every element of a numeric field.
func (v Value) Floats() []float64 {
	out := make([]float64, v.Field.Count)
	for i := range out {
		out[i] = v.floatAt(i)
	}
	return out
}

// String returns a Bytes field as text up to the first NUL. Numeric fields
// are formatted with Interface.
func (v Value) String() string {
	if v.Field.Kind != Bytes {
		return fmt.Sprint(v.Interface())
	}
	s := string(v.raw)
	if i := strings.IndexByte(s, 0); i >= 0 {
		s = s[:i]
	}
	return s
}

// Interface returns the field as a plain Go value: uint64, int64 or float64
// for scalars, []float64 for numeric arrays and a string for Bytes fields.
func (v Value) Interface() any {
	if v.Field.Kind == Bytes {
		return v.String()
	}
	if v.Field.Count > 1 {
		return v.Floats()
	}
	switch v.Field.Kind {
	case F32, F64:
		return v.Float()
	case I32:
		return v.Int()
	}
	return v.Uint()
}
