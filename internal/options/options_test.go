package options

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	level   int
	name    string
	applied []string
}

func withLevel(level int) Option[*testConfig] {
	return New(func(c *testConfig) error {
		if level < 0 {
			return errors.New("level cannot be negative")
		}
		c.level = level
		c.applied = append(c.applied, "level")

		return nil
	})
}

func withName(name string) Option[*testConfig] {
	return NoError(func(c *testConfig) {
		c.name = name
		c.applied = append(c.applied, "name")
	})
}

func TestApply(t *testing.T) {
	t.Run("Applies in order", func(t *testing.T) {
		cfg := &testConfig{}
		err := Apply(cfg, withName("a"), withLevel(3), withName("b"))
		require.NoError(t, err)
		require.Equal(t, 3, cfg.level)
		require.Equal(t, "b", cfg.name)
		require.Equal(t, []string{"name", "level", "name"}, cfg.applied)
	})

	t.Run("Stops at first error", func(t *testing.T) {
		cfg := &testConfig{}
		err := Apply(cfg, withLevel(-1), withName("never"))
		require.Error(t, err)
		require.Contains(t, err.Error(), "negative")
		require.Empty(t, cfg.name)
	})

	t.Run("Skips nil options", func(t *testing.T) {
		cfg := &testConfig{}
		require.NoError(t, Apply(cfg, nil, withName("x")))
		require.Equal(t, "x", cfg.name)
	})

	t.Run("No options", func(t *testing.T) {
		require.NoError(t, Apply(&testConfig{}))
	})
}
