// Package config loads the device path, baud rate, and sizing constants
// every cmd/ entrypoint needs, overlaying compiled-in defaults with an
// optional YAML file and then CLI flags.
package config

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Config holds every tunable the simulator protocol needs at process
// start. All fields have compiled-in defaults matching the reference
// hardware; the YAML file and flags are both optional overlays.
type Config struct {
	Device        string `yaml:"device"`
	BaudRate      uint32 `yaml:"baud_rate"`
	MaxPacketSize uint32 `yaml:"max_packet_size"`
	ScreenWidth   uint16 `yaml:"screen_width"`
	ScreenHeight  uint16 `yaml:"screen_height"`
}

// Default returns the compiled-in defaults.
func Default() Config {
	return Config{
		Device:        "/dev/vport1p1",
		BaudRate:      115200,
		MaxPacketSize: 1024,
		ScreenWidth:   160,
		ScreenHeight:  128,
	}
}

// Load reads path (if non-empty and present) over the defaults. A
// missing path is not an error; an unreadable or malformed one is.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if cfg.MaxPacketSize%2 != 0 {
		return cfg, fmt.Errorf("config: max_packet_size must be even, got %d", cfg.MaxPacketSize)
	}
	return cfg, nil
}

// Flags holds the values of the --config/--device/--baud flags that
// RegisterFlags adds to a FlagSet. Apply asks the FlagSet which flags the
// user actually set, so only those override the loaded config (overlay
// order: default, then file, then flag).
type Flags struct {
	ConfigPath *string
	Device     *string
	Baud       *uint32
}

// RegisterFlags adds the config-overlay flags to fs.
func RegisterFlags(fs *pflag.FlagSet) *Flags {
	return &Flags{
		ConfigPath: fs.String("config", "", "path to a YAML config file"),
		Device:     fs.String("device", "", "override the serial device path"),
		Baud:       fs.Uint32("baud", 0, "override the baud rate"),
	}
}

// Apply overlays any flags explicitly set by the user onto cfg.
func (f *Flags) Apply(fs *pflag.FlagSet, cfg Config) Config {
	if fs.Changed("device") {
		cfg.Device = *f.Device
	}
	if fs.Changed("baud") {
		cfg.BaudRate = *f.Baud
	}
	return cfg
}
