package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"go-stepseq/midi"
	"go-stepseq/sequencer"
)

// OutputConfig selects where trigger instructions go. An empty port means
// instructions are only logged.
type OutputConfig struct {
	Port     string `yaml:"port,omitempty"`
	Channel  uint8  `yaml:"channel,omitempty"` // 1-16
	Velocity uint8  `yaml:"velocity,omitempty"`
}

// LogConfig stores debug log preferences
type LogConfig struct {
	File  string `yaml:"file,omitempty"`
	Level string `yaml:"level,omitempty"`
}

// Config is the main configuration structure
type Config struct {
	Tempo   float64           `yaml:"tempo"`
	Swing   float64           `yaml:"swing"`
	Output  OutputConfig      `yaml:"output"`
	Log     LogConfig         `yaml:"log,omitempty"`
	Palette string            `yaml:"palette,omitempty"` // GIMP .gpl file
	Tracks  []sequencer.Voice `yaml:"tracks"`
}

// Default returns a config with the reference kit
func Default() *Config {
	return &Config{
		Tempo: sequencer.DefaultTempo,
		Output: OutputConfig{
			Channel:  1,
			Velocity: 100,
		},
		Log: LogConfig{
			Level: "info",
		},
		Tracks: sequencer.DefaultVoices(),
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-stepseq"), nil
}

// ConfigPath returns the full path to config.yaml
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the config from the default path, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile reads a config file. Keys missing from the file keep their
// defaults; a missing file yields Default().
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}

	cfg := Default()
	cfg.Tracks = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.Tracks == nil {
		cfg.Tracks = sequencer.DefaultVoices()
	}
	for i := range cfg.Tracks {
		if cfg.Tracks[i].Role == sequencer.RoleMelodic && cfg.Tracks[i].Duration == 0 {
			cfg.Tracks[i].Duration = sequencer.DefaultChordDuration
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the transport values, the output channel and the voice
// table, including that every sample and pitch is a playable note.
func (c *Config) Validate() error {
	if c.Tempo <= 0 || math.IsNaN(c.Tempo) || math.IsInf(c.Tempo, 0) {
		return fmt.Errorf("tempo %v must be positive", c.Tempo)
	}
	if c.Output.Channel < 1 || c.Output.Channel > 16 {
		return fmt.Errorf("output channel %d out of range 1-16", c.Output.Channel)
	}
	if c.Output.Velocity > 127 {
		return fmt.Errorf("output velocity %d out of range 0-127", c.Output.Velocity)
	}
	if err := sequencer.ValidateVoices(c.Tracks); err != nil {
		return err
	}
	for _, v := range c.Tracks {
		if v.Sample != "" {
			if _, err := midi.ParseNote(v.Sample); err != nil {
				return fmt.Errorf("track %s: %w", v.Name, err)
			}
		}
		for _, ch := range v.Chords {
			for _, p := range ch.Pitches {
				if _, err := midi.ParseNote(p); err != nil {
					return fmt.Errorf("track %s: %w", v.Name, err)
				}
			}
		}
	}
	return nil
}

// Save writes the config to the default path
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveFile(path)
}

// SaveFile writes the config to path, creating its directory
func (c *Config) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// FindTrack finds a track's voice by name
func (c *Config) FindTrack(name string) *sequencer.Voice {
	for i := range c.Tracks {
		if c.Tracks[i].Name == name {
			return &c.Tracks[i]
		}
	}
	return nil
}
