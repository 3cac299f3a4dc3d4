package encoding

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/arloliu/measio/array"
	"github.com/arloliu/measio/endian"
	"github.com/arloliu/measio/errs"
	"github.com/arloliu/measio/format"
)

// NPYExtension is the conventional file extension of NPY files.
const NPYExtension = ".npy"

var npyMagic = []byte("\x93NUMPY")

const (
	npyPreludeV1 = 10 // magic(6) + version(2) + header length(2)
	npyPreludeV2 = 12 // magic(6) + version(2) + header length(4)
	npyAlignment = 64
)

var (
	npyDescrPattern   = regexp.MustCompile(`'descr'\s*:\s*'([^']*)'`)
	npyFortranPattern = regexp.MustCompile(`'fortran_order'\s*:\s*(True|False)`)
	npyShapePattern   = regexp.MustCompile(`'shape'\s*:\s*\(([^)]*)\)`)
)

var npyTypeCodes = map[format.DType]string{
	format.DTypeInt8:       "i1",
	format.DTypeInt16:      "i2",
	format.DTypeInt32:      "i4",
	format.DTypeInt64:      "i8",
	format.DTypeUint8:      "u1",
	format.DTypeUint16:     "u2",
	format.DTypeUint32:     "u4",
	format.DTypeUint64:     "u8",
	format.DTypeFloat32:    "f4",
	format.DTypeFloat64:    "f8",
	format.DTypeComplex64:  "c8",
	format.DTypeComplex128: "c16",
}

// NPYHeader describes the array stored in an NPY file.
type NPYHeader struct {
	Descr        string
	FortranOrder bool
	Shape        []int
	// DataOffset is the byte offset of the element data from the start of the file.
	DataOffset int
}

// WriteNPY writes a as an NPY version 1.0 file in little-endian byte order.
// String arrays are stored as fixed-width UTF-32 ('<Un').
func WriteNPY(w io.Writer, a *array.Array) error {
	engine := endian.GetLittleEndianEngine()

	descr, err := npyDescr(a)
	if err != nil {
		return err
	}

	var data []byte
	if a.DType() == format.DTypeString {
		data = encodeUTF32(a, engine)
	} else {
		data, err = EncodeRaw(engine, a)
		if err != nil {
			return err
		}
	}

	header := npyHeaderText(descr, a.Shape())
	prelude := make([]byte, npyPreludeV1, npyPreludeV1+len(header))
	copy(prelude, npyMagic)
	prelude[6], prelude[7] = 1, 0
	binary.LittleEndian.PutUint16(prelude[8:10], uint16(len(header))) //nolint:gosec

	if _, err := w.Write(append(prelude, header...)); err != nil {
		return err
	}
	_, err = w.Write(data)

	return err
}

// ReadNPY reads an NPY file from r.
func ReadNPY(r io.Reader) (*array.Array, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	return DecodeNPY(data)
}

// DecodeNPY decodes a complete NPY file held in memory, for example a memory-mapped file.
func DecodeNPY(data []byte) (*array.Array, error) {
	h, err := ParseNPYHeader(data)
	if err != nil {
		return nil, err
	}

	a, err := decodeNPYData(h, data[h.DataOffset:])
	if err != nil {
		return nil, err
	}
	if h.FortranOrder {
		a = array.FromFortranOrder(a)
	}

	return a, nil
}

// ParseNPYHeader parses the prelude and header dictionary of an NPY file.
func ParseNPYHeader(data []byte) (NPYHeader, error) {
	if len(data) < npyPreludeV1 || !bytes.Equal(data[:6], npyMagic) {
		return NPYHeader{}, fmt.Errorf("%w: not an NPY file", errs.ErrInvalidMagicNumber)
	}

	var headerLen, start int
	switch data[6] {
	case 1:
		headerLen = int(binary.LittleEndian.Uint16(data[8:10]))
		start = npyPreludeV1
	case 2, 3:
		if len(data) < npyPreludeV2 {
			return NPYHeader{}, errs.ErrInvalidHeaderSize
		}
		headerLen = int(binary.LittleEndian.Uint32(data[8:12]))
		start = npyPreludeV2
	default:
		return NPYHeader{}, fmt.Errorf("%w: NPY version %d.%d", errs.ErrUnsupportedVersion, data[6], data[7])
	}
	if len(data) < start+headerLen {
		return NPYHeader{}, errs.ErrInvalidHeaderSize
	}
	text := string(data[start : start+headerLen])

	descr := npyDescrPattern.FindStringSubmatch(text)
	fortran := npyFortranPattern.FindStringSubmatch(text)
	shape := npyShapePattern.FindStringSubmatch(text)
	if descr == nil || fortran == nil || shape == nil {
		return NPYHeader{}, fmt.Errorf("%w: malformed NPY header %q", errs.ErrCorruptedRecord, text)
	}

	h := NPYHeader{
		Descr:        descr[1],
		FortranOrder: fortran[1] == "True",
		DataOffset:   start + headerLen,
	}
	for _, field := range strings.Split(shape[1], ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		n, err := strconv.Atoi(field)
		if err != nil || n < 0 {
			return NPYHeader{}, fmt.Errorf("%w: NPY shape %q", errs.ErrInvalidShape, shape[1])
		}
		h.Shape = append(h.Shape, n)
	}
	if _, err := array.Size(h.Shape); err != nil {
		return NPYHeader{}, fmt.Errorf("NPY shape %q: %w", shape[1], err)
	}

	return h, nil
}

func npyDescr(a *array.Array) (string, error) {
	if a.DType() == format.DTypeString {
		width := 1
		strs, _ := array.Values[string](a)
		for _, s := range strs {
			if !utf8.ValidString(s) {
				return "", fmt.Errorf("%w: string element %q is not valid UTF-8", errs.ErrUnserializableValue, s)
			}
			width = max(width, utf8.RuneCountInString(s))
		}

		return "<U" + strconv.Itoa(width), nil
	}

	code, ok := npyTypeCodes[a.DType()]
	if !ok {
		return "", fmt.Errorf("%w: %s", errs.ErrUnsupportedDType, a.DType())
	}
	if a.DType().Size() == 1 {
		return "|" + code, nil
	}

	return "<" + code, nil
}

// npyHeaderText renders the header dictionary padded so the data starts on a 64-byte boundary.
func npyHeaderText(descr string, shape []int) []byte {
	var sb strings.Builder
	sb.WriteString("{'descr': '")
	sb.WriteString(descr)
	sb.WriteString("', 'fortran_order': False, 'shape': (")
	for i, d := range shape {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(strconv.Itoa(d))
	}
	if len(shape) == 1 {
		sb.WriteByte(',')
	}
	sb.WriteString("), }")

	total := npyPreludeV1 + sb.Len() + 1
	if pad := (npyAlignment - total%npyAlignment) % npyAlignment; pad > 0 {
		sb.WriteString(strings.Repeat(" ", pad))
	}
	sb.WriteByte('\n')

	return []byte(sb.String())
}

func decodeNPYData(h NPYHeader, data []byte) (*array.Array, error) {
	if len(h.Descr) < 2 {
		return nil, fmt.Errorf("%w: NPY descr %q", errs.ErrUnsupportedDType, h.Descr)
	}
	engine, ok := endian.FromMarker(h.Descr[0])
	if !ok {
		return nil, fmt.Errorf("%w: NPY byte order %q", errs.ErrUnsupportedDType, h.Descr)
	}
	code := h.Descr[1:]

	switch code[0] {
	case 'U':
		width, err := strconv.Atoi(code[1:])
		if err != nil || width < 0 || width > math.MaxInt/4 {
			return nil, fmt.Errorf("%w: NPY descr %q", errs.ErrUnsupportedDType, h.Descr)
		}

		return decodeUTF32(engine, h.Shape, width, data)
	case 'S':
		width, err := strconv.Atoi(code[1:])
		if err != nil || width < 0 {
			return nil, fmt.Errorf("%w: NPY descr %q", errs.ErrUnsupportedDType, h.Descr)
		}

		return decodeBytes(h.Shape, width, data)
	}

	for dtype, c := range npyTypeCodes {
		if c == code {
			want, err := dataLength(h.Shape, dtype.Size())
			if err != nil {
				return nil, err
			}
			if len(data) < want {
				return nil, fmt.Errorf("%w: NPY data has %d bytes, want %d", errs.ErrCorruptedRecord, len(data), want)
			}

			return DecodeRaw(engine, dtype, h.Shape, data[:want])
		}
	}

	return nil, fmt.Errorf("%w: NPY descr %q", errs.ErrUnsupportedDType, h.Descr)
}

func encodeUTF32(a *array.Array, engine endian.EndianEngine) []byte {
	strs, _ := array.Values[string](a)
	descr, _ := npyDescr(a)
	width, _ := strconv.Atoi(descr[2:])

	out := make([]byte, 0, 4*width*len(strs))
	for _, s := range strs {
		count := 0
		for _, r := range s {
			out = engine.AppendUint32(out, uint32(r)) //nolint:gosec
			count++
		}
		for ; count < width; count++ {
			out = engine.AppendUint32(out, 0)
		}
	}

	return out
}

func decodeUTF32(engine endian.EndianEngine, shape []int, width int, data []byte) (*array.Array, error) {
	want, err := dataLength(shape, 4*width)
	if err != nil {
		return nil, err
	}
	if len(data) < want {
		return nil, fmt.Errorf("%w: NPY string data truncated", errs.ErrCorruptedRecord)
	}

	a, err := array.Zeros(format.DTypeString, shape...)
	if err != nil {
		return nil, err
	}
	strs, _ := array.Values[string](a)
	runes := make([]rune, 0, width)
	for i := range strs {
		runes = runes[:0]
		for j := range width {
			r := rune(engine.Uint32(data[4*(i*width+j):])) //nolint:gosec
			if r == 0 {
				break
			}
			runes = append(runes, r)
		}
		strs[i] = string(runes)
	}

	return a, nil
}

func decodeBytes(shape []int, width int, data []byte) (*array.Array, error) {
	want, err := dataLength(shape, width)
	if err != nil {
		return nil, err
	}
	if len(data) < want {
		return nil, fmt.Errorf("%w: NPY byte string data truncated", errs.ErrCorruptedRecord)
	}

	a, err := array.Zeros(format.DTypeString, shape...)
	if err != nil {
		return nil, err
	}
	strs, _ := array.Values[string](a)
	for i := range strs {
		strs[i] = string(bytes.TrimRight(data[i*width:(i+1)*width], "\x00"))
	}

	return a, nil
}

// dataLength returns the byte length of the element data of shape.
func dataLength(shape []int, itemSize int) (int, error) {
	n, err := array.Size(shape)
	if err != nil {
		return 0, err
	}
	if itemSize < 0 || (itemSize != 0 && n > math.MaxInt/itemSize) {
		return 0, fmt.Errorf("%w: %v elements of %d bytes overflow", errs.ErrInvalidShape, shape, itemSize)
	}

	return n * itemSize, nil
}
