// Package config holds the bootstrap configuration read by the host
// entrypoints: which trigger wheel pattern to decode, how many cylinders to
// schedule, which serial port to serve the tuner protocol on, and the
// simulator options used when no real hardware is attached.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"goecu/core"
)

// TriggerConfig selects the crank decoder wheel geometry.
type TriggerConfig struct {
	Pattern       string `yaml:"pattern"` // "missing_tooth" or "basic_distributor"
	Teeth         uint16 `yaml:"teeth"`
	Missing       uint16 `yaml:"missing"`
	EdgesPerTooth uint8  `yaml:"edges_per_tooth"`
}

// SerialConfig describes the serial port the tuner protocol is served on.
type SerialConfig struct {
	Device string `yaml:"device"`
	Baud   int    `yaml:"baud"`
}

// DashboardConfig describes the live-data websocket endpoint.
type DashboardConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// SimulatorConfig configures the host simulator's virtual engine.
type SimulatorConfig struct {
	IdleRPM   uint16  `yaml:"idle_rpm"`
	RedlineRPM uint16 `yaml:"redline_rpm"`
	RampRPMPerSec float64 `yaml:"ramp_rpm_per_sec"`
}

// FirmwareConfig holds hardware-build-only options that have no meaning
// on the host simulator.
type FirmwareConfig struct {
	// IgnitionBackend selects how coil dwell/fire is generated: "gpio"
	// (the timer-scheduled OutputDriver path, every channel) or "pio"
	// (a PIO state machine drives channels 0 and 1, GPIO drives the rest).
	IgnitionBackend string `yaml:"ignition_backend"`
}

// Config is the top-level bootstrap configuration for both the host
// simulator and the firmware build.
type Config struct {
	Cylinders int             `yaml:"cylinders"`
	Trigger   TriggerConfig   `yaml:"trigger"`
	Serial    SerialConfig    `yaml:"serial"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Simulator SimulatorConfig `yaml:"simulator"`
	Firmware  FirmwareConfig  `yaml:"firmware"`

	path string
}

// DefaultConfig returns a config with sensible defaults for a four-cylinder
// missing-tooth trigger wheel, matching the compiled calibration defaults
// in defaults.go.
func DefaultConfig() *Config {
	return &Config{
		Cylinders: 4,
		Trigger: TriggerConfig{
			Pattern:       "missing_tooth",
			Teeth:         36,
			Missing:       1,
			EdgesPerTooth: 1,
		},
		Serial: SerialConfig{
			Device: "/dev/ttyECU",
			Baud:   115200,
		},
		Dashboard: DashboardConfig{
			ListenAddr: ":8090",
		},
		Simulator: SimulatorConfig{
			IdleRPM:       800,
			RedlineRPM:    7000,
			RampRPMPerSec: 400,
		},
		Firmware: FirmwareConfig{
			IgnitionBackend: "gpio",
		},
	}
}

// LoadConfig reads config from a YAML file, then applies environment
// variable overrides. Falls back to defaults if the file is missing or
// unparsable.
func LoadConfig(path string) *Config {
	cfg := DefaultConfig()
	cfg.path = path

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: no file at %s, using defaults\n", path)
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "config: error parsing %s: %v, using defaults\n", path, err)
		cfg = DefaultConfig()
		cfg.path = path
	} else {
		fmt.Fprintf(os.Stderr, "config: loaded from %s\n", path)
	}

	cfg.applyEnvOverrides()
	return cfg
}

// applyEnvOverrides reads ECU_SERIAL_DEVICE, ECU_SERIAL_BAUD and
// ECU_DASHBOARD_ADDR, letting a deployment override the port and listen
// address without editing the YAML file.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("ECU_SERIAL_DEVICE"); v != "" {
		c.Serial.Device = v
	}
	if v := os.Getenv("ECU_SERIAL_BAUD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Serial.Baud = n
		}
	}
	if v := os.Getenv("ECU_DASHBOARD_ADDR"); v != "" {
		c.Dashboard.ListenAddr = v
	}
}

// TriggerPattern resolves the configured pattern name to its core.TriggerPattern
// value, defaulting to missing-tooth for an unrecognized name.
func (t TriggerConfig) TriggerPattern() core.TriggerPattern {
	if t.Pattern == "basic_distributor" {
		return core.PatternBasicDistributor
	}
	return core.PatternMissingTooth
}
