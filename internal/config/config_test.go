package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultMatchesReferenceHardware(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "/dev/vport1p1", cfg.Device)
	assert.EqualValues(t, 115200, cfg.BaudRate)
	assert.EqualValues(t, 1024, cfg.MaxPacketSize)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("device: /dev/ttyUSB7\nbaud_rate: 9600\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB7", cfg.Device)
	assert.EqualValues(t, 9600, cfg.BaudRate)
	assert.EqualValues(t, 1024, cfg.MaxPacketSize)
}

func TestLoadRejectsOddMaxPacketSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_packet_size: 1023\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestFlagsOverrideDefaultValues(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags := RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--device=/dev/ttyACM0"}))

	cfg := flags.Apply(fs, Default())
	assert.Equal(t, "/dev/ttyACM0", cfg.Device)
	assert.EqualValues(t, 115200, cfg.BaudRate)
}
