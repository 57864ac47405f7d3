// Package config loads the handset configuration and publishes it on the
// bus. Sources are applied in order, later ones overriding earlier ones:
// defaults, the embedded board profile, a YAML file, the environment, then
// command line flags.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"rtcphone-go/errcode"
	"rtcphone-go/services/hal/boards"
	"rtcphone-go/services/hfp"
	"rtcphone-go/types"
)

// HFP backends.
const (
	BackendSim  = "sim"
	BackendAT   = "at"
	BackendNone = "none"
)

type Config struct {
	Board      string `yaml:"board"`
	DeviceName string `yaml:"device_name"`
	Peer       string `yaml:"peer,omitempty"`
	DebounceMs int    `yaml:"debounce_ms"`
	PollMs     int    `yaml:"poll_ms"`

	Log       LogConfig          `yaml:"log"`
	HFP       HFPConfig          `yaml:"hfp"`
	Console   types.SerialConfig `yaml:"console"`
	Heartbeat HeartbeatConfig    `yaml:"heartbeat"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

type HFPConfig struct {
	Backend            string        `yaml:"backend"`
	CommandTimeout     time.Duration `yaml:"command_timeout"`
	types.SerialConfig `yaml:",inline"`
}

type HeartbeatConfig struct {
	Interval time.Duration `yaml:"interval"` // 0 disables
}

// Default returns the values used when nothing else is configured.
func Default() *Config {
	return &Config{
		Board:      "rpi",
		DeviceName: hfp.DeviceName,
		DebounceMs: 25,
		PollMs:     10,
		Log:        LogConfig{Level: "info", Format: "text"},
		HFP: HFPConfig{
			Backend:        BackendSim,
			CommandTimeout: 3 * time.Second,
			SerialConfig:   types.SerialConfig{Baud: 115200},
		},
		Console:   types.SerialConfig{Port: "stdio", Baud: 115200},
		Heartbeat: HeartbeatConfig{Interval: 30 * time.Second},
	}
}

// Load reads a YAML file on top of Default.
func Load(path string) (*Config, error) {
	return LoadConfig(WithDefaults(), WithFile(path))
}

// Option modifies a Config.
type Option func(*Config) error

// LoadConfig applies opts in order to an empty Config and validates the
// result.
func LoadConfig(opts ...Option) (*Config, error) {
	c := &Config{}
	for _, o := range opts {
		if err := o(c); err != nil {
			return nil, err
		}
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func WithDefaults() Option {
	return func(c *Config) error {
		*c = *Default()
		return nil
	}
}

// WithEmbedded applies the built-in profile for board. An empty name uses
// the board already set.
func WithEmbedded(board string) Option {
	return func(c *Config) error {
		if board == "" {
			board = c.Board
		}
		raw, ok := EmbeddedProfileLookup(board)
		if !ok {
			return &errcode.E{C: errcode.UnknownBoard, Op: "config", Msg: board}
		}
		if err := yaml.Unmarshal(raw, c); err != nil {
			return fmt.Errorf("profile %s: %w", board, err)
		}
		c.Board = board
		return nil
	}
}

// WithFile merges a YAML file. An empty path is skipped.
func WithFile(path string) Option {
	return func(c *Config) error {
		if path == "" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parsing config file: %w", err)
		}
		return nil
	}
}

// Environment variables read by WithEnv.
const (
	EnvBoard      = "RTCPHONE_BOARD"
	EnvPeer       = "RTCPHONE_PEER"
	EnvHFPBackend = "RTCPHONE_HFP_BACKEND"
	EnvHFPPort    = "RTCPHONE_HFP_PORT"
	EnvLogLevel   = "RTCPHONE_LOG_LEVEL"
)

// WithEnv reads overrides from the process environment.
func WithEnv() Option { return WithEnvLookup(os.LookupEnv) }

// WithEnvLookup is WithEnv with a custom lookup.
func WithEnvLookup(lookup func(string) (string, bool)) Option {
	return func(c *Config) error {
		set := func(key string, dst *string) {
			if v, ok := lookup(key); ok && v != "" {
				*dst = v
			}
		}
		set(EnvBoard, &c.Board)
		set(EnvPeer, &c.Peer)
		set(EnvHFPBackend, &c.HFP.Backend)
		set(EnvHFPPort, &c.HFP.Port)
		set(EnvLogLevel, &c.Log.Level)
		return nil
	}
}

// Flag names registered by RegisterFlags.
const (
	FlagConfig   = "config"
	FlagBoard    = "board"
	FlagPeer     = "peer"
	FlagBackend  = "backend"
	FlagHFPPort  = "hfp-port"
	FlagConsole  = "console"
	FlagLogLevel = "log-level"
)

// RegisterFlags defines the command line flags WithFlags understands.
func RegisterFlags(fs *flag.FlagSet) {
	fs.String(FlagConfig, "", "YAML config file")
	fs.String(FlagBoard, "", "board profile ("+strings.Join(boards.Names(), ", ")+")")
	fs.String(FlagPeer, "", "HFP audio gateway address AA:BB:CC:DD:EE:FF")
	fs.String(FlagBackend, "", "HFP backend: sim, at or none")
	fs.String(FlagHFPPort, "", "serial device of the AT link")
	fs.String(FlagConsole, "", "console port, or stdio")
	fs.String(FlagLogLevel, "", "debug, info, warn or error")
}

// WithFlags applies the flags that were set on the command line.
func WithFlags(fs *flag.FlagSet) Option {
	return func(c *Config) error {
		fs.Visit(func(f *flag.Flag) {
			v := f.Value.String()
			switch f.Name {
			case FlagBoard:
				c.Board = v
			case FlagPeer:
				c.Peer = v
			case FlagBackend:
				c.HFP.Backend = v
			case FlagHFPPort:
				c.HFP.Port = v
			case FlagConsole:
				c.Console.Port = v
			case FlagLogLevel:
				c.Log.Level = v
			}
		})
		return nil
	}
}

// Validate checks the config for invalid values.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if _, ok := boards.Lookup(c.Board); !ok {
		bad("board %q unknown, want one of %s", c.Board, strings.Join(boards.Names(), ", "))
	}
	if c.Peer != "" {
		if _, err := hfp.ParseAddress(c.Peer); err != nil {
			bad("peer %q is not AA:BB:CC:DD:EE:FF", c.Peer)
		}
	}
	if c.DebounceMs <= 0 {
		bad("debounce_ms must be > 0")
	}
	if c.PollMs <= 0 || c.PollMs > c.DebounceMs {
		bad("poll_ms must be in 1..debounce_ms, got %d", c.PollMs)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		bad("log.level must be debug, info, warn, or error, got %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		bad("log.format must be \"text\" or \"json\", got %q", c.Log.Format)
	}
	switch c.HFP.Backend {
	case BackendSim, BackendNone:
	case BackendAT:
		if c.HFP.Port == "" {
			bad("hfp.port is required with the at backend")
		}
	default:
		bad("hfp.backend must be sim, at or none, got %q", c.HFP.Backend)
	}
	if c.HFP.CommandTimeout < 0 || c.Heartbeat.Interval < 0 {
		bad("durations must not be negative")
	}
	if c.Console.Baud < 0 || c.HFP.Baud < 0 {
		bad("baud must not be negative")
	}

	if len(errs) == 0 {
		return nil
	}
	return &errcode.E{C: errcode.InvalidConfig, Op: "config", Err: errors.Join(errs...)}
}

// PeerAddress returns the configured peer, or hfp.Unset.
func (c *Config) PeerAddress() hfp.Address {
	a, err := hfp.ParseAddress(c.Peer)
	if err != nil {
		return hfp.Unset
	}
	return a
}

// Sections maps each top-level key to its value, in the form published on
// the bus.
func (c *Config) Sections() map[string]any {
	return map[string]any{
		"board":     c.Board,
		"phone":     PhoneSection{DeviceName: c.DeviceName, Peer: c.Peer, DebounceMs: c.DebounceMs, PollMs: c.PollMs},
		"log":       c.Log,
		"hfp":       c.HFP,
		"console":   c.Console,
		"heartbeat": c.Heartbeat,
	}
}

// PhoneSection is the payload of config/phone.
type PhoneSection struct {
	DeviceName string
	Peer       string
	DebounceMs int
	PollMs     int
}
