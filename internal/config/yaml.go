// SPDX-License-Identifier: MIT

// Package config loads and validates the runtime configuration:
// defaults, an optional YAML file, environment overrides, and finally
// the CLI flags parsed in cmd.
package config

import (
	"fmt"
	"log"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Hardware and processing limits.
const (
	MinDeviceID   = -1     // -1 represents system default device
	MinSampleRate = 8000   // Minimum usable sample rate (Hz)
	MaxSampleRate = 192000 // Maximum supported sample rate (Hz)
)

// Config holds every runtime setting: audio device parameters, the
// display/view defaults a spectrogram session starts with, and the
// optional transport/telemetry sidecars.
type Config struct {
	Debug    bool   `yaml:"debug"`
	LogLevel string `yaml:"log_level"`
	Command  string `yaml:"command,omitempty"` // one-off command, e.g. "list"

	Audio     AudioConfig     `yaml:"audio"`
	Display   DisplayConfig   `yaml:"display"`
	Recording RecordingConfig `yaml:"recording"`
	Transport TransportConfig `yaml:"transport"`
}

// AudioConfig covers device selection and buffering.
type AudioConfig struct {
	OutputDevice      int     `yaml:"output_device"`
	SampleRate        float64 `yaml:"sample_rate"`
	FramesPerBuffer   int     `yaml:"frames_per_buffer"`
	LowLatency        bool    `yaml:"low_latency"`
	OutputChannels    int     `yaml:"output_channels"`
	UseDefaultDevices bool    `yaml:"use_default_devices"`
}

// DisplayConfig covers the view parameters a session starts with,
// mirroring the CLI flag set: `-p -e -w -h -n -x -d -S -P -f -W -t -M
// -k -s -g -a -A -l -r -b -j -o`.
type DisplayConfig struct {
	Autoplay       bool    `yaml:"autoplay"`        // -p
	ExitWhenPlayed bool    `yaml:"exit_when_played"` // -e
	Width          int     `yaml:"width"`           // -w
	Height         int     `yaml:"height"`          // -h
	MinFreq        float64 `yaml:"min_freq"`        // -n
	MaxFreq        float64 `yaml:"max_freq"`        // -x
	DynRangeDB     float64 `yaml:"dyn_range_db"`    // -d
	FPS            int     `yaml:"fps"`             // -S
	PixelsPerSec   float64 `yaml:"pixels_per_sec"`  // -P
	FFTFreq        float64 `yaml:"fft_freq"`        // -f
	Window         string  `yaml:"window"`          // -W
	StartTime      float64 `yaml:"start_time"`      // -t
	LogMax         float64 `yaml:"log_max"`         // -M
	ShowPiano      bool    `yaml:"show_piano"`      // -k
	ShowStaff      bool    `yaml:"show_staff"`      // -s
	ShowGuitar     bool    `yaml:"show_guitar"`     // -g
	ShowFreqAxes   bool    `yaml:"show_freq_axes"`  // -a
	ShowTimeAxes   bool    `yaml:"show_time_axes"`  // -A
	LeftBarTime    float64 `yaml:"left_bar_time"`   // -l
	RightBarTime   float64 `yaml:"right_bar_time"`  // -r
	LeftBarSet     bool    `yaml:"-"`
	RightBarSet    bool    `yaml:"-"`
	BeatsPerBar    int     `yaml:"beats_per_bar"` // -b
	MaxThreads     int     `yaml:"max_threads"`   // -j
	OutputPNG      string  `yaml:"output_png"`    // -o
}

type RecordingConfig struct {
	Enabled     bool    `yaml:"enabled"`
	OutputDir   string  `yaml:"output_dir"`
	Format      string  `yaml:"format"`
	BitDepth    int     `yaml:"bit_depth"`
	MaxDuration int     `yaml:"max_duration_seconds"`
	SilenceTh   float64 `yaml:"silence_threshold"`
}

type TransportConfig struct {
	UDPEnabled       bool          `yaml:"udp_enabled"`
	UDPTargetAddress string        `yaml:"udp_target_address"`
	UDPSendInterval  time.Duration `yaml:"udp_send_interval"`
	WebSocketEnabled bool          `yaml:"websocket_enabled"`
	WebSocketAddr    string        `yaml:"websocket_addr"`
}

// DefaultConfig returns a Config populated with the same defaults
// LoadConfig("") would produce.
func DefaultConfig() *Config {
	return &Config{
		Debug:    false,
		LogLevel: "info",
		Audio: AudioConfig{
			OutputDevice:      MinDeviceID,
			SampleRate:        44100,
			FramesPerBuffer:   1024,
			LowLatency:        false,
			OutputChannels:    2,
			UseDefaultDevices: true,
		},
		Display: DisplayConfig{
			Width:        800,
			Height:       480,
			MinFreq:      20,
			MaxFreq:      20000,
			DynRangeDB:   100,
			FPS:          25,
			PixelsPerSec: 25,
			FFTFreq:      10,
			Window:       "hann",
			BeatsPerBar:  4,
			MaxThreads:   runtime.NumCPU(),
			OutputPNG:    "",
		},
		Recording: RecordingConfig{
			Enabled:     false,
			OutputDir:   "./recordings",
			Format:      "wav",
			BitDepth:    16,
			MaxDuration: 0, // unlimited
			SilenceTh:   0.01,
		},
		Transport: TransportConfig{
			UDPEnabled:       false,
			UDPTargetAddress: "127.0.0.1:9090",
			UDPSendInterval:  33 * time.Millisecond,
			WebSocketEnabled: false,
			WebSocketAddr:    ":8090",
		},
	}
}

// LoadConfig builds a Config from defaults, an optional YAML file at
// path (or the first of a small set of conventional candidates), and
// environment overrides, in that order.
func LoadConfig(path string) (*Config, error) {
	cfg := *DefaultConfig()

	if path == "" {
		candidates := []string{"config.yaml"}
		for _, candidate := range candidates {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
		if path == "" {
			cfg.applyEnvOverrides()
			return &cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks the subset of fields whose constraints can't be
// enforced by flag parsing alone.
func (c *Config) Validate() error {
	if c.Audio.SampleRate != 0 && (c.Audio.SampleRate < MinSampleRate || c.Audio.SampleRate > MaxSampleRate) {
		return fmt.Errorf("audio.sample_rate %v out of range [%d, %d]", c.Audio.SampleRate, MinSampleRate, MaxSampleRate)
	}
	if c.Display.MinFreq > 0 && c.Display.MaxFreq > 0 && c.Display.MinFreq >= c.Display.MaxFreq {
		return fmt.Errorf("display.min_freq (%v) must be less than display.max_freq (%v)", c.Display.MinFreq, c.Display.MaxFreq)
	}
	if c.Display.BeatsPerBar < 0 {
		return fmt.Errorf("display.beats_per_bar must be non-negative")
	}
	if c.Transport.UDPEnabled {
		if c.Transport.UDPTargetAddress == "" {
			return fmt.Errorf("transport.udp_target_address must be set when UDP is enabled")
		}
		if !strings.Contains(c.Transport.UDPTargetAddress, ":") {
			return fmt.Errorf("transport.udp_target_address %q appears invalid (missing port?)", c.Transport.UDPTargetAddress)
		}
		if c.Transport.UDPSendInterval <= 0 {
			return fmt.Errorf("transport.udp_send_interval must be positive when UDP is enabled")
		}
	}
	return nil
}

func (cfg *Config) applyEnvOverrides() {
	if val, ok := os.LookupEnv("SPETTRO_DEBUG"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Debug = bVal
			log.Printf("config: overriding debug from env: %v", bVal)
		}
	}
	if val, ok := os.LookupEnv("SPETTRO_UDP_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Transport.UDPEnabled = bVal
			log.Printf("config: overriding transport.udp_enabled from env: %v", bVal)
		}
	}
	if val, ok := os.LookupEnv("SPETTRO_UDP_TARGET_ADDRESS"); ok {
		cfg.Transport.UDPTargetAddress = val
		log.Printf("config: overriding transport.udp_target_address from env: %s", val)
	}
	if val, ok := os.LookupEnv("SPETTRO_UDP_SEND_INTERVAL"); ok {
		if dur, err := time.ParseDuration(val); err == nil {
			cfg.Transport.UDPSendInterval = dur
			log.Printf("config: overriding transport.udp_send_interval from env: %s", dur)
		}
	}
	if val, ok := os.LookupEnv("SPETTRO_WEBSOCKET_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Transport.WebSocketEnabled = bVal
			log.Printf("config: overriding transport.websocket_enabled from env: %v", bVal)
		}
	}
}
