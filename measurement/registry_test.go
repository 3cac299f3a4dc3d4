package measurement

import (
	"sync"
	"testing"

	"github.com/arloliu/measio/array"
	"github.com/arloliu/measio/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	_, err := r.Lookup("FrequencySweep")
	require.ErrorIs(t, err, errs.ErrUnknownType)

	dims := map[string][]string{"frequency": {"frequency"}, "data": {"frequency"}}
	require.NoError(t, r.Register(Schema{Type: "FrequencySweep", Version: 1, Dimensions: dims}))
	require.NoError(t, r.Register(Schema{Type: "SweepStream"}))
	dims["data"][0] = "mutated"

	s, err := r.Lookup("FrequencySweep")
	require.NoError(t, err)
	require.Equal(t, 1, s.Version)
	require.Equal(t, []string{"frequency"}, s.Dimensions["data"])
	require.Equal(t, []string{"FrequencySweep", "SweepStream"}, r.Types())

	require.ErrorIs(t, r.Register(Schema{}), errs.ErrInvalidOperation)
	require.ErrorIs(t, r.Register(Schema{Type: "Bad", Version: -1}), errs.ErrInvalidOperation)
}

func TestSchemaCheck(t *testing.T) {
	s := Schema{Type: "FrequencySweep", Version: 1, Dimensions: map[string][]string{
		"frequency": {"frequency"},
		"data":      {"frequency"},
		"absent":    {"frequency"},
	}}

	require.NoError(t, s.Check(sweep(t)))

	older := sweep(t)
	older.version = 0
	require.NoError(t, s.Check(older))

	newer := New("FrequencySweep", 2)
	require.ErrorIs(t, s.Check(newer), errs.ErrVersionMismatch)

	renamed := New("FrequencySweep", 1)
	require.NoError(t, renamed.SetArray("data", array.MustNew([]float64{1}), "f"))
	require.ErrorIs(t, s.Check(renamed), errs.ErrDimensionMismatch)
}

func TestRegistryConcurrent(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, r.Register(Schema{Type: "T", Version: i}))
			_, err := r.Lookup("T")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	require.Equal(t, []string{"T"}, r.Types())
}
