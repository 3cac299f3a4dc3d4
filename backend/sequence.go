package backend

import (
	"fmt"
	"log/slog"

	"github.com/arloliu/measio/errs"
	"github.com/arloliu/measio/value"
)

// PrepareSequence infers the element type of seq for storage as a single typed
// column and returns the coerced sequence. Lossy coercion is logged at warn
// level with the attribute name.
func PrepareSequence(logger *slog.Logger, nodePath, name string, seq value.Sequence) (value.ElemType, value.Sequence, error) {
	elem, coerced, lossy, err := value.Infer(seq)
	if err != nil {
		return 0, nil, err
	}
	if lossy {
		logger.Warn("mixed sequence coerced", "node", nodePath, "name", name, "type", elem.String())
	}

	return elem, coerced, nil
}

// NormalizeOther prepares an other value for storage: sequences are coerced to
// a uniform element type, mapping keys are validated and mappings are copied
// recursively. Declared arrays are not other values and fail with
// errs.ErrUnserializableValue.
func NormalizeOther(logger *slog.Logger, nodePath, name string, v value.Value) (value.Value, error) {
	switch x := v.(type) {
	case nil:
		return nil, fmt.Errorf("%w: nil value for %q", errs.ErrUnserializableValue, name)
	case value.Array:
		return nil, fmt.Errorf("%w: declared array %q written as an other value", errs.ErrUnserializableValue, name)
	case value.Sequence:
		_, seq, err := PrepareSequence(logger, nodePath, name, x)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}

		return seq, nil
	case value.Mapping:
		out := make(value.Mapping, len(x))
		for _, k := range x.Keys() {
			if err := ValidateName(k); err != nil {
				return nil, fmt.Errorf("%w: mapping %q key %q", errs.ErrUnserializableValue, name, k)
			}
			e, err := NormalizeOther(logger, nodePath, k, x[k])
			if err != nil {
				return nil, err
			}
			out[k] = e
		}

		return out, nil
	default:
		return v, nil
	}
}
