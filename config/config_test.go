package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	v := New()
	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "jepsen", cfg.TestName)
	assert.Equal(t, 5, cfg.Concurrency)
	assert.Equal(t, 60*time.Second, cfg.TimeLimit)
}

func TestLoadEnvOverridesDefault(t *testing.T) {
	t.Setenv("JEPSEN_CONCURRENCY", "9")
	v := New()
	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Concurrency)
}
