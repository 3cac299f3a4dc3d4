package encoding

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/arloliu/measio/errs"
	"github.com/arloliu/measio/value"
)

// MarshalValue encodes v as JSON.
//
// Floats are always written with a fraction or exponent so they decode as
// floats again. Non-finite floats and declared arrays have no JSON form and
// return errs.ErrUnserializableValue.
func MarshalValue(v value.Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := appendJSON(&buf, v); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// appendString writes s as a JSON string. Text that is not valid UTF-8 would
// be rewritten by the encoder and is rejected instead.
func appendString(buf *bytes.Buffer, s string) error {
	if !utf8.ValidString(s) {
		return fmt.Errorf("%w: text %q is not valid UTF-8", errs.ErrUnserializableValue, s)
	}
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	buf.Write(b)

	return nil
}

// UnmarshalValue decodes a JSON document produced by MarshalValue.
//
// Numbers without a fraction or exponent become value.Int, all other numbers
// value.Float.
func UnmarshalValue(data []byte) (value.Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrCorruptedRecord, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after JSON value", errs.ErrCorruptedRecord)
	}

	return fromJSON(raw)
}

func appendJSON(buf *bytes.Buffer, v value.Value) error {
	switch x := v.(type) {
	case value.Null:
		buf.WriteString("null")
	case value.Bool:
		buf.WriteString(strconv.FormatBool(bool(x)))
	case value.Int:
		buf.WriteString(strconv.FormatInt(int64(x), 10))
	case value.Float:
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: %v has no JSON representation", errs.ErrUnserializableValue, f)
		}
		buf.WriteString(value.FormatFloat(f))
	case value.Text:
		if err := appendString(buf, string(x)); err != nil {
			return err
		}
	case value.Sequence:
		buf.WriteByte('[')
		for i, e := range x {
			if i > 0 {
				buf.WriteString(", ")
			}
			if err := appendJSON(buf, e); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case value.Mapping:
		buf.WriteByte('{')
		for i, k := range x.Keys() {
			if i > 0 {
				buf.WriteString(", ")
			}
			if err := appendString(buf, k); err != nil {
				return err
			}
			buf.WriteString(": ")
			if err := appendJSON(buf, x[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("%w: %T has no JSON representation", errs.ErrUnserializableValue, v)
	}

	return nil
}

func fromJSON(raw any) (value.Value, error) {
	switch x := raw.(type) {
	case nil:
		return value.Null{}, nil
	case bool:
		return value.Bool(x), nil
	case string:
		return value.Text(x), nil
	case json.Number:
		s := x.String()
		if !strings.ContainsAny(s, ".eE") {
			if i, err := x.Int64(); err == nil {
				return value.Int(i), nil
			}
		}
		f, err := x.Float64()
		if err != nil {
			return nil, fmt.Errorf("%w: number %q", errs.ErrCorruptedRecord, s)
		}

		return value.Float(f), nil
	case []any:
		seq := make(value.Sequence, len(x))
		for i, e := range x {
			v, err := fromJSON(e)
			if err != nil {
				return nil, err
			}
			seq[i] = v
		}

		return seq, nil
	case map[string]any:
		m := make(value.Mapping, len(x))
		for k, e := range x {
			v, err := fromJSON(e)
			if err != nil {
				return nil, err
			}
			m[k] = v
		}

		return m, nil
	default:
		return nil, fmt.Errorf("%w: unexpected JSON element %T", errs.ErrCorruptedRecord, raw)
	}
}
