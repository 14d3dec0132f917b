package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	c := Default()
	c.Mode = "rainbow"
	c.Strip.Family = "SK6812RGBW"
	c.Strip.Order = "GRBW"
	c.Redis = Redis{Addr: "localhost:6379", Channel: "ledstrip"}
	require.NoError(t, Save(path, c))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, c, got)
}

func TestLoadPartial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("strip:\n  leds: 144\nmode: blink\n"), 0644))
	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 144, c.Strip.LEDs)
	assert.Equal(t, "blink", c.Mode)
	assert.Zero(t, c.FPS)
	assert.Empty(t, c.Strip.Driver)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, os.IsNotExist(err))

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("strip: [\n"), 0644))
	_, err = Load(path)
	assert.Error(t, err)
}
