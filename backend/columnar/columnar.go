// Package columnar implements a backend that stores the whole tree in a single
// append-only container file.
//
// The file starts with a section.FileHeader and continues with records, each a
// section.RecordHeader followed by a meta block and a data block. Groups,
// dimensions, variables and attributes are records; opening a file replays
// them into an in-memory index. Variable data stays on disk and is read by
// offset when an array is requested, so no decoded payload holds on to the
// file after Close.
//
// Nodes are groups. Declared arrays are variables with named, per-group
// dimensions; complex arrays are stored as {real, imag} compound variables.
// Scalars are group attributes, with null and booleans stored as sentinel
// text. Mappings are groups named "<name>.dict" and undeclared sequences are
// variables named "<name>.list" over a private dimension of the same name.
//
// Names are never rewritten: writing a name that a node already holds fails
// with errs.ErrAlreadyExists.
package columnar

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"slices"
	"time"

	"github.com/arloliu/measio/array"
	"github.com/arloliu/measio/backend"
	"github.com/arloliu/measio/compress"
	"github.com/arloliu/measio/encoding"
	"github.com/arloliu/measio/endian"
	"github.com/arloliu/measio/errs"
	"github.com/arloliu/measio/format"
	"github.com/arloliu/measio/internal/options"
	"github.com/arloliu/measio/internal/pool"
	"github.com/arloliu/measio/nodepath"
	"github.com/arloliu/measio/section"
	"github.com/arloliu/measio/value"
)

// Extension is the conventional file extension of container files.
const Extension = ".mcf"

// Backend is a columnar container file.
type Backend struct {
	lifecycle backend.Lifecycle
	path      string
	file      *os.File
	size      int64
	header    section.FileHeader
	engine    endian.EndianEngine
	readOnly  bool
	// compression is the codec for new variables.
	compression format.CompressionType
	groups      map[string]*group
	metadata    value.Mapping
	logger      *slog.Logger
}

var _ backend.Backend = (*Backend)(nil)

// Exists reports whether path is an existing regular file.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Open opens an existing container file for reading and appending.
func Open(path string, opts ...Option) (*Backend, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}

	flag := os.O_RDWR
	if o.ReadOnly {
		flag = os.O_RDONLY
	}
	f, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return nil, err
	}

	b := newBackend(path, f, o)
	if err := b.load(o); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := b.lifecycle.Open(); err != nil {
		_ = f.Close()
		return nil, err
	}
	b.logger.Debug("columnar store opened",
		"path", path, "groups", len(b.groups), "size", b.size, "read_only", b.readOnly)

	return b, nil
}

// Create creates a new container file. It fails with errs.ErrAlreadyExists
// when path exists.
func Create(path string, opts ...Option) (*Backend, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	if o.ReadOnly {
		return nil, fmt.Errorf("%w: cannot create a read-only store", errs.ErrInvalidOperation)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("%w: %s", errs.ErrAlreadyExists, path)
		}

		return nil, err
	}

	b := newBackend(path, f, o)
	if err := b.initialize(o); err != nil {
		_ = f.Close()
		_ = os.Remove(path)

		return nil, err
	}
	b.logger.Debug("columnar store created",
		"path", path, "compression", b.compression.String(), "big_endian", b.header.IsBigEndian())

	return b, nil
}

// OpenOrCreate opens path when it exists and creates it otherwise.
func OpenOrCreate(path string, opts ...Option) (*Backend, error) {
	if Exists(path) {
		return Open(path, opts...)
	}

	return Create(path, opts...)
}

func newOptions(opts []Option) (*Options, error) {
	o := &Options{}
	if err := options.Apply(o, opts...); err != nil {
		return nil, err
	}

	return o, nil
}

func newBackend(path string, f *os.File, o *Options) *Backend {
	root := newGroup(nodepath.Root)

	return &Backend{
		path:     path,
		file:     f,
		readOnly: o.ReadOnly,
		groups:   map[string]*group{root.path: root},
		logger:   o.Log(),
	}
}

func (b *Backend) initialize(o *Options) error {
	b.compression = o.Compression
	if b.compression == 0 {
		b.compression = format.CompressionNone
	}

	b.header = section.NewFileHeader(time.Now(), b.compression)
	if o.BigEndian {
		b.header.WithBigEndian()
	}
	b.engine = b.header.Engine()

	if _, err := b.file.WriteAt(b.header.Bytes(), 0); err != nil {
		return err
	}
	b.size = section.FileHeaderSize

	if err := b.lifecycle.Open(); err != nil {
		return err
	}
	if o.Metadata == nil {
		return nil
	}

	md, err := backend.NormalizeOther(b.logger, nodepath.Root, backend.MetadataName, o.Metadata)
	if err != nil {
		return err
	}
	if err := b.writeOther(b.groups[nodepath.Root], backend.MetadataName, md); err != nil {
		return err
	}
	b.metadata = md.(value.Mapping) //nolint:forcetypeassert

	return nil
}

func (b *Backend) load(o *Options) error {
	info, err := b.file.Stat()
	if err != nil {
		return err
	}
	b.size = info.Size()

	buf := make([]byte, section.FileHeaderSize)
	if b.size < section.FileHeaderSize {
		return fmt.Errorf("%w: %s is %d bytes", errs.ErrInvalidHeaderSize, b.path, b.size)
	}
	if _, err := b.file.ReadAt(buf, 0); err != nil {
		return err
	}
	if b.header, err = section.ParseFileHeader(buf); err != nil {
		return err
	}
	b.engine = b.header.Engine()

	b.compression = o.Compression
	if b.compression == 0 {
		b.compression = b.header.Compression
	}

	if err := b.replay(); err != nil {
		return err
	}

	if g, ok := b.groups[nodepath.Root].children[backend.MappingName(backend.MetadataName)]; ok {
		if b.metadata, err = b.readMapping(g); err != nil {
			return err
		}
	}

	return nil
}

// replay rebuilds the index from the records following the file header.
func (b *Backend) replay() error {
	hdr := make([]byte, section.RecordHeaderSize)
	off := int64(section.FileHeaderSize)

	for off < b.size {
		if b.size-off < section.RecordHeaderSize {
			return fmt.Errorf("%w: truncated record header at offset %d", errs.ErrCorruptedRecord, off)
		}
		if _, err := b.file.ReadAt(hdr, off); err != nil {
			return err
		}
		h, err := section.ParseRecordHeader(hdr, b.engine)
		if err != nil {
			return fmt.Errorf("record at offset %d: %w", off, err)
		}

		end := off + section.RecordHeaderSize + h.BodyLength()
		if end > b.size {
			return fmt.Errorf("%w: record at offset %d ends past the end of the file", errs.ErrCorruptedRecord, off)
		}

		meta := make([]byte, h.MetaLength)
		if _, err := b.file.ReadAt(meta, off+section.RecordHeaderSize); err != nil {
			return err
		}
		if h.Kind != section.RecordVariable {
			data := make([]byte, h.DataLength)
			if _, err := b.file.ReadAt(data, off+section.RecordHeaderSize+int64(h.MetaLength)); err != nil {
				return err
			}
			if err := h.Verify(meta, data); err != nil {
				return fmt.Errorf("record at offset %d: %w", off, err)
			}
		}

		if err := b.apply(h, meta, off); err != nil {
			return fmt.Errorf("record at offset %d: %w", off, err)
		}
		off = end
	}

	return nil
}

func (b *Backend) apply(h section.RecordHeader, meta []byte, off int64) error {
	r := &metaReader{engine: b.engine, data: meta}

	switch h.Kind {
	case section.RecordGroup:
		m := decodeGroupMeta(r)
		if err := r.err(); err != nil {
			return err
		}
		parent, err := b.indexed(m.parent)
		if err != nil {
			return err
		}
		child := newGroup(parent.childPath(m.name))
		parent.children[m.name] = child
		b.groups[child.path] = child
	case section.RecordDimension:
		m := decodeDimensionMeta(r)
		if err := r.err(); err != nil {
			return err
		}
		g, err := b.indexed(m.group)
		if err != nil {
			return err
		}
		if err := g.dims.Set(m.name, m.length); err != nil {
			return fmt.Errorf("%w: %w", errs.ErrCorruptedRecord, err)
		}
	case section.RecordVariable:
		m := decodeVariableMeta(r)
		if err := r.err(); err != nil {
			return err
		}
		g, err := b.indexed(m.group)
		if err != nil {
			return err
		}
		g.vars[m.name] = &variable{
			dtype:       m.dtype,
			dims:        m.dims,
			shape:       m.shape,
			compound:    h.IsCompound(),
			compression: h.Compression,
			offset:      off,
			metaLength:  h.MetaLength,
			dataLength:  h.DataLength,
			rawLength:   h.RawLength,
			checksum:    h.Checksum,
		}
	case section.RecordAttribute:
		m := decodeAttributeMeta(r)
		if err := r.err(); err != nil {
			return err
		}
		g, err := b.indexed(m.group)
		if err != nil {
			return err
		}
		g.attrs[m.name] = m.value
	}

	return nil
}

func (b *Backend) indexed(path string) (*group, error) {
	g, ok := b.groups[path]
	if !ok {
		return nil, fmt.Errorf("%w: unknown group %q", errs.ErrCorruptedRecord, path)
	}

	return g, nil
}

// group returns the group of a node path.
func (b *Backend) group(nodePath string) (*group, error) {
	if err := b.lifecycle.Check(); err != nil {
		return nil, err
	}
	segs, err := backend.Resolve(nodePath)
	if err != nil {
		return nil, err
	}

	g, ok := b.groups[nodepath.Join(append([]string{nodepath.Root}, segs...)...)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", errs.ErrNodeNotFound, nodePath)
	}

	return g, nil
}

func (b *Backend) writable() error {
	if err := b.lifecycle.Check(); err != nil {
		return err
	}
	if b.readOnly {
		return fmt.Errorf("%w: %s", errs.ErrReadOnly, b.path)
	}

	return nil
}

// appendRecord writes a record at the end of the file and fills in the
// lengths and checksum of h. It returns the offset of the record.
func (b *Backend) appendRecord(h *section.RecordHeader, meta, data []byte) (int64, error) {
	if uint64(len(meta)) > math.MaxUint32 || uint64(len(data)) > math.MaxUint32 {
		return 0, fmt.Errorf("%w: record of %d bytes is too large", errs.ErrUnserializableValue, len(meta)+len(data))
	}
	h.MetaLength = uint32(len(meta)) //nolint:gosec
	h.DataLength = uint32(len(data)) //nolint:gosec
	h.Seal(meta, data)

	bb := pool.GetRecordBuffer()
	defer pool.PutRecordBuffer(bb)

	bb.Grow(section.RecordHeaderSize + len(meta) + len(data))
	_, _ = bb.Write(h.Bytes(b.engine))
	_, _ = bb.Write(meta)
	_, _ = bb.Write(data)

	off := b.size
	if _, err := b.file.WriteAt(bb.Bytes(), off); err != nil {
		return 0, err
	}
	b.size += int64(bb.Len())

	return off, nil
}

func (b *Backend) newMeta() *metaWriter {
	return &metaWriter{engine: b.engine}
}

func (b *Backend) appendGroup(parent *group, name string) (*group, error) {
	w := b.newMeta()
	groupMeta{parent: parent.path, name: name}.encode(w)
	if _, err := b.appendRecord(&section.RecordHeader{Kind: section.RecordGroup, Compression: format.CompressionNone}, w.buf, nil); err != nil {
		return nil, err
	}

	child := newGroup(parent.childPath(name))
	parent.children[name] = child
	b.groups[child.path] = child

	return child, nil
}

// bindDimensions validates dims against shape and records every new
// dimension. A private binding is the single dimension of a sequence.
func (b *Backend) bindDimensions(g *group, dims []string, shape []int, private bool) error {
	if private {
		if len(dims) != 1 || len(shape) != 1 {
			return fmt.Errorf("%w: sequence of rank %d", errs.ErrInvalidOperation, len(shape))
		}
		if err := g.dims.CheckPrivate(dims[0], shape[0]); err != nil {
			return err
		}
	} else if err := g.dims.Check(dims, shape); err != nil {
		return err
	}

	for i, name := range dims {
		if _, ok := g.dims.Length(name); ok {
			continue
		}
		w := b.newMeta()
		dimensionMeta{group: g.path, name: name, length: shape[i]}.encode(w)
		if _, err := b.appendRecord(&section.RecordHeader{Kind: section.RecordDimension, Compression: format.CompressionNone}, w.buf, nil); err != nil {
			return err
		}
		if err := g.dims.Set(name, shape[i]); err != nil {
			return err
		}
	}

	return nil
}

func (b *Backend) appendVariable(g *group, name string, a *array.Array, dims []string, private bool) error {
	if err := b.bindDimensions(g, dims, a.Shape(), private); err != nil {
		return fmt.Errorf("array %q: %w", name, err)
	}

	view := a
	var flags uint16
	if a.DType().IsComplex() {
		view = array.SplitComplex(a)
		flags = section.FlagCompound
	}
	raw, err := encoding.EncodeRaw(b.engine, view)
	if err != nil {
		return err
	}
	if uint64(len(raw)) > math.MaxUint32 {
		return fmt.Errorf("%w: array %q payload of %d bytes is too large", errs.ErrUnserializableValue, name, len(raw))
	}

	ct := b.compression
	if len(raw) == 0 {
		ct = format.CompressionNone
	}
	codec, err := compress.GetCodec(ct)
	if err != nil {
		return err
	}
	data, err := codec.Compress(raw)
	if err != nil {
		return err
	}

	w := b.newMeta()
	variableMeta{group: g.path, name: name, dtype: a.DType(), dims: dims, shape: a.Shape()}.encode(w)
	h := section.RecordHeader{
		Kind:        section.RecordVariable,
		Compression: ct,
		Flags:       flags,
		RawLength:   uint32(len(raw)), //nolint:gosec
	}
	off, err := b.appendRecord(&h, w.buf, data)
	if err != nil {
		return err
	}

	g.vars[name] = &variable{
		dtype:       a.DType(),
		dims:        slices.Clone(dims),
		shape:       a.Shape(),
		compound:    h.IsCompound(),
		compression: ct,
		offset:      off,
		metaLength:  h.MetaLength,
		dataLength:  h.DataLength,
		rawLength:   h.RawLength,
		checksum:    h.Checksum,
	}

	return nil
}

func (b *Backend) appendAttribute(g *group, name string, v value.Value) error {
	if s, ok := backend.EncodeSentinel(v); ok {
		v = s
	}

	w := b.newMeta()
	if err := (attributeMeta{group: g.path, name: name, value: v}).encode(w); err != nil {
		return err
	}
	if _, err := b.appendRecord(&section.RecordHeader{Kind: section.RecordAttribute, Compression: format.CompressionNone}, w.buf, nil); err != nil {
		return err
	}
	g.attrs[name] = v

	return nil
}

// writeOther stores an already normalized other value.
func (b *Backend) writeOther(g *group, name string, v value.Value) error {
	switch x := v.(type) {
	case value.Mapping:
		child, err := b.appendGroup(g, backend.MappingName(name))
		if err != nil {
			return err
		}
		for _, k := range x.Keys() {
			if err := b.writeOther(child, k, x[k]); err != nil {
				return err
			}
		}

		return nil
	case value.Sequence:
		elem, _, _, err := value.Infer(x)
		if err != nil {
			return err
		}
		stored := backend.SequenceName(name)

		return b.appendVariable(g, stored, sequenceArray(elem, x), []string{stored}, true)
	default:
		return b.appendAttribute(g, name, v)
	}
}

// readVariable loads, verifies and decodes the data block of v.
func (b *Backend) readVariable(v *variable) (*array.Array, error) {
	body := make([]byte, int(v.metaLength)+int(v.dataLength))
	if _, err := b.file.ReadAt(body, v.offset+section.RecordHeaderSize); err != nil {
		return nil, err
	}
	meta, data := body[:v.metaLength], body[v.metaLength:]

	h := section.RecordHeader{Checksum: v.checksum}
	if err := h.Verify(meta, data); err != nil {
		return nil, err
	}

	codec, err := compress.GetCodec(v.compression)
	if err != nil {
		return nil, err
	}
	raw, err := codec.Decompress(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrCorruptedRecord, err)
	}
	if len(raw) != int(v.rawLength) {
		return nil, fmt.Errorf("%w: decompressed %d bytes, want %d", errs.ErrCorruptedRecord, len(raw), v.rawLength)
	}

	if !v.compound {
		return encoding.DecodeRaw(b.engine, v.dtype, v.shape, raw)
	}
	components, err := encoding.DecodeRaw(b.engine, v.dtype.ComponentType(), slices.Concat(v.shape, []int{2}), raw)
	if err != nil {
		return nil, err
	}

	return array.JoinComplex(components, v.dtype)
}

func (b *Backend) readSequence(v *variable) (value.Sequence, error) {
	a, err := b.readVariable(v)
	if err != nil {
		return nil, err
	}

	return columnSequence(a)
}

func (b *Backend) readMapping(g *group) (value.Mapping, error) {
	m := make(value.Mapping, len(g.attrs)+len(g.vars)+len(g.children))
	for name, v := range g.attrs {
		d, _ := backend.DecodeSentinel(v)
		m[name] = d
	}
	for stored, v := range g.vars {
		name, ok := backend.StripSequence(stored)
		if !ok {
			continue
		}
		seq, err := b.readSequence(v)
		if err != nil {
			return nil, err
		}
		m[name] = seq
	}
	for stored, child := range g.children {
		name, ok := backend.StripMapping(stored)
		if !ok {
			continue
		}
		sub, err := b.readMapping(child)
		if err != nil {
			return nil, err
		}
		m[name] = sub
	}

	return m, nil
}

// CreateNode implements backend.Backend.
func (b *Backend) CreateNode(path string) error {
	if err := b.writable(); err != nil {
		return err
	}
	if nodepath.IsRoot(path) {
		return fmt.Errorf("%w: cannot create the root node", errs.ErrInvalidOperation)
	}
	if err := nodepath.Validate(path); err != nil {
		return err
	}

	parentPath, name := nodepath.Split(path)
	parent, err := b.group(parentPath)
	if err != nil {
		return fmt.Errorf("%w: %q", errs.ErrMissingParent, path)
	}
	if parent.has(name) {
		return fmt.Errorf("%w: node %q", errs.ErrAlreadyExists, path)
	}
	if _, err := b.appendGroup(parent, name); err != nil {
		return err
	}
	b.logger.Debug("node created", "path", path)

	return nil
}

func (b *Backend) target(nodePath, name string) (*group, error) {
	if err := b.writable(); err != nil {
		return nil, err
	}
	g, err := b.group(nodePath)
	if err != nil {
		return nil, err
	}
	if err := backend.ValidateName(name); err != nil {
		return nil, err
	}
	if g.has(name) {
		return nil, fmt.Errorf("%w: %q in %q", errs.ErrAlreadyExists, name, nodePath)
	}

	return g, nil
}

// WriteArray implements backend.Backend.
func (b *Backend) WriteArray(nodePath, name string, a *array.Array, dims []string) error {
	g, err := b.target(nodePath, name)
	if err != nil {
		return err
	}

	return b.appendVariable(g, name, a, dims, false)
}

// WriteOther implements backend.Backend.
func (b *Backend) WriteOther(nodePath, name string, v value.Value) error {
	g, err := b.target(nodePath, name)
	if err != nil {
		return err
	}
	stored, err := backend.NormalizeOther(b.logger, nodePath, name, v)
	if err != nil {
		return err
	}

	return b.writeOther(g, name, stored)
}

func (b *Backend) array(nodePath, name string) (*variable, error) {
	g, err := b.group(nodePath)
	if err != nil {
		return nil, err
	}
	v, ok := g.vars[name]
	if !ok || !nodepath.ValidName(name) {
		return nil, fmt.Errorf("%w: array %q in %q", errs.ErrNameNotFound, name, nodePath)
	}

	return v, nil
}

// ReadArray implements backend.Backend.
func (b *Backend) ReadArray(nodePath, name string) (*array.Array, error) {
	v, err := b.array(nodePath, name)
	if err != nil {
		return nil, err
	}

	return b.readVariable(v)
}

// ArrayDims implements backend.Backend.
func (b *Backend) ArrayDims(nodePath, name string) ([]string, error) {
	v, err := b.array(nodePath, name)
	if err != nil {
		return nil, err
	}

	return slices.Clone(v.dims), nil
}

// ReadOther implements backend.Backend.
func (b *Backend) ReadOther(nodePath, name string) (value.Value, error) {
	g, err := b.group(nodePath)
	if err != nil {
		return nil, err
	}
	if !nodepath.ValidName(name) {
		return nil, fmt.Errorf("%w: %q in %q", errs.ErrNameNotFound, name, nodePath)
	}

	if child, ok := g.children[backend.MappingName(name)]; ok {
		return b.readMapping(child)
	}
	if v, ok := g.vars[backend.SequenceName(name)]; ok {
		return b.readSequence(v)
	}
	if v, ok := g.attrs[name]; ok {
		d, _ := backend.DecodeSentinel(v)
		return d, nil
	}

	return nil, fmt.Errorf("%w: %q in %q", errs.ErrNameNotFound, name, nodePath)
}

// NodeNames implements backend.Backend.
func (b *Backend) NodeNames(nodePath string) ([]string, error) {
	g, err := b.group(nodePath)
	if err != nil {
		return nil, err
	}

	return g.nodeNames(), nil
}

// ArrayNames implements backend.Backend.
func (b *Backend) ArrayNames(nodePath string) ([]string, error) {
	g, err := b.group(nodePath)
	if err != nil {
		return nil, err
	}

	return g.arrayNames(), nil
}

// OtherNames implements backend.Backend.
func (b *Backend) OtherNames(nodePath string) ([]string, error) {
	g, err := b.group(nodePath)
	if err != nil {
		return nil, err
	}

	return g.otherNames(), nil
}

// Metadata implements backend.Backend.
func (b *Backend) Metadata() value.Mapping {
	return b.metadata
}

// Header returns the file header.
func (b *Backend) Header() section.FileHeader {
	return b.header
}

// Path returns the path of the container file.
func (b *Backend) Path() string {
	return b.path
}

// Close implements backend.Backend. It syncs the file unless it was opened read-only.
func (b *Backend) Close() error {
	if !b.lifecycle.Close() {
		return nil
	}

	var syncErr error
	if !b.readOnly {
		syncErr = b.file.Sync()
	}
	closeErr := b.file.Close()
	b.groups = nil
	b.logger.Debug("columnar store closed", "path", b.path, "size", b.size)

	return errors.Join(syncErr, closeErr)
}

// Closed implements backend.Backend.
func (b *Backend) Closed() bool {
	return b.lifecycle.Closed()
}
