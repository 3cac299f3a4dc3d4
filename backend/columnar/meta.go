package columnar

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/arloliu/measio/endian"
	"github.com/arloliu/measio/errs"
	"github.com/arloliu/measio/format"
	"github.com/arloliu/measio/value"
)

// Attribute value tags in attribute record meta blocks.
const (
	attrInt   byte = 'i'
	attrFloat byte = 'f'
	attrText  byte = 's'
)

// metaWriter appends the fields of a record meta block.
type metaWriter struct {
	engine endian.EndianEngine
	buf    []byte
}

func (w *metaWriter) uvarint(v uint64) {
	w.buf = binary.AppendUvarint(w.buf, v)
}

func (w *metaWriter) varint(v int64) {
	w.buf = binary.AppendVarint(w.buf, v)
}

func (w *metaWriter) tag(b byte) {
	w.buf = append(w.buf, b)
}

func (w *metaWriter) text(s string) {
	w.uvarint(uint64(len(s)))
	w.buf = append(w.buf, s...)
}

func (w *metaWriter) float(f float64) {
	w.buf = w.engine.AppendUint64(w.buf, math.Float64bits(f))
}

// metaReader consumes the fields written by metaWriter. The first failure
// sticks and is reported by err.
type metaReader struct {
	engine endian.EndianEngine
	data   []byte
	off    int
	fail   error
}

func (r *metaReader) failf(msg string, args ...any) {
	if r.fail == nil {
		r.fail = fmt.Errorf("%w: meta block: %s", errs.ErrCorruptedRecord, fmt.Sprintf(msg, args...))
	}
}

func (r *metaReader) uvarint() uint64 {
	if r.fail != nil {
		return 0
	}
	v, n := binary.Uvarint(r.data[r.off:])
	if n <= 0 {
		r.failf("bad uvarint at %d", r.off)
		return 0
	}
	r.off += n

	return v
}

func (r *metaReader) varint() int64 {
	if r.fail != nil {
		return 0
	}
	v, n := binary.Varint(r.data[r.off:])
	if n <= 0 {
		r.failf("bad varint at %d", r.off)
		return 0
	}
	r.off += n

	return v
}

func (r *metaReader) int() int {
	v := r.uvarint()
	if v > math.MaxInt32 {
		r.failf("length %d out of range", v)
		return 0
	}

	return int(v)
}

func (r *metaReader) tag() byte {
	if r.fail != nil {
		return 0
	}
	if r.off >= len(r.data) {
		r.failf("truncated at %d", r.off)
		return 0
	}
	b := r.data[r.off]
	r.off++

	return b
}

func (r *metaReader) text() string {
	n := r.int()
	if r.fail != nil {
		return ""
	}
	if len(r.data)-r.off < n {
		r.failf("truncated string at %d", r.off)
		return ""
	}
	s := string(r.data[r.off : r.off+n])
	r.off += n

	return s
}

func (r *metaReader) float() float64 {
	if r.fail != nil {
		return 0
	}
	if len(r.data)-r.off < 8 {
		r.failf("truncated float at %d", r.off)
		return 0
	}
	f := math.Float64frombits(r.engine.Uint64(r.data[r.off:]))
	r.off += 8

	return f
}

func (r *metaReader) err() error {
	if r.fail == nil && r.off != len(r.data) {
		r.failf("%d trailing bytes", len(r.data)-r.off)
	}

	return r.fail
}

// groupMeta is the meta block of a group record.
type groupMeta struct {
	parent string
	name   string
}

func (m groupMeta) encode(w *metaWriter) {
	w.text(m.parent)
	w.text(m.name)
}

func decodeGroupMeta(r *metaReader) groupMeta {
	return groupMeta{parent: r.text(), name: r.text()}
}

// dimensionMeta is the meta block of a dimension record.
type dimensionMeta struct {
	group  string
	name   string
	length int
}

func (m dimensionMeta) encode(w *metaWriter) {
	w.text(m.group)
	w.text(m.name)
	w.uvarint(uint64(m.length)) //nolint:gosec
}

func decodeDimensionMeta(r *metaReader) dimensionMeta {
	return dimensionMeta{group: r.text(), name: r.text(), length: r.int()}
}

// variableMeta is the meta block of a variable record. DType is the logical
// element type; compound variables store their components.
type variableMeta struct {
	group string
	name  string
	dtype format.DType
	dims  []string
	shape []int
}

func (m variableMeta) encode(w *metaWriter) {
	w.text(m.group)
	w.text(m.name)
	w.tag(byte(m.dtype))
	w.uvarint(uint64(len(m.dims)))
	for i, d := range m.dims {
		w.text(d)
		w.uvarint(uint64(m.shape[i])) //nolint:gosec
	}
}

func decodeVariableMeta(r *metaReader) variableMeta {
	m := variableMeta{group: r.text(), name: r.text(), dtype: format.DType(r.tag())}
	rank := r.int()
	if r.fail != nil {
		return m
	}
	if rank > len(r.data) {
		r.failf("rank %d out of range", rank)
		return m
	}
	m.dims = make([]string, rank)
	m.shape = make([]int, rank)
	for i := range rank {
		m.dims[i] = r.text()
		m.shape[i] = r.int()
	}
	if r.fail == nil && !m.dtype.Valid() {
		r.failf("unknown dtype %d", m.dtype)
	}

	return m
}

// attributeMeta is the meta block of an attribute record. Values are Int,
// Float or Text; other scalars are stored as sentinels.
type attributeMeta struct {
	group string
	name  string
	value value.Value
}

func (m attributeMeta) encode(w *metaWriter) error {
	w.text(m.group)
	w.text(m.name)

	switch x := m.value.(type) {
	case value.Int:
		w.tag(attrInt)
		w.varint(int64(x))
	case value.Float:
		w.tag(attrFloat)
		w.float(float64(x))
	case value.Text:
		w.tag(attrText)
		w.text(string(x))
	default:
		return fmt.Errorf("%w: attribute %q of kind %s", errs.ErrUnserializableValue, m.name, m.value.Kind())
	}

	return nil
}

func decodeAttributeMeta(r *metaReader) attributeMeta {
	m := attributeMeta{group: r.text(), name: r.text()}

	switch tag := r.tag(); tag {
	case attrInt:
		m.value = value.Int(r.varint())
	case attrFloat:
		m.value = value.Float(r.float())
	case attrText:
		m.value = value.Text(r.text())
	default:
		r.failf("unknown attribute tag %q", tag)
	}

	return m
}
