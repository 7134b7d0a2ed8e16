// Package config loads doremi.toml, a sibling .env file, and DOREMI_*
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const FileName = "doremi.toml"

type Config struct {
	Path       string        `toml:"-"`
	Scale      string        `toml:"scale"`
	BPM        float64       `toml:"bpm"`
	SampleRate int           `toml:"sample_rate"`
	NoteLimit  int           `toml:"note_limit"`
	StepLimit  int           `toml:"step_limit"`
	Synth      SynthConfig   `toml:"synth"`
	Effects    EffectsConfig `toml:"effects"`
	SentryDSN  string        `toml:"sentry_dsn"`
}

type SynthConfig struct {
	Mode      string  `toml:"mode"`
	Volume    float64 `toml:"volume"`
	Transpose int     `toml:"transpose"`
	Vibrato   float64 `toml:"vibrato"`
}

type EffectsConfig struct {
	Reverb       float64 `toml:"reverb"`
	RoomSize     float64 `toml:"room_size"`
	Echo         float64 `toml:"echo"`
	EchoFeedback float64 `toml:"echo_feedback"`
	EchoMix      float64 `toml:"echo_mix"`
}

func Default() Config {
	return Config{
		Scale:      "C major",
		BPM:        120,
		SampleRate: 48000,
		Synth:      SynthConfig{Mode: "fm", Volume: 1, Vibrato: 0.08},
	}
}

// Find walks up from startDir looking for doremi.toml.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// LoadFile decodes path over the defaults. Unknown keys are an error.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	cfg.Path = path
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Load resolves the configuration. An explicit path must exist; otherwise
// doremi.toml is searched for from startDir and the defaults are used when
// none is found. Variables from a .env file beside the config (or in
// startDir) fill in for unset environment variables, and the environment
// overrides the file.
func Load(explicit, startDir string) (Config, error) {
	path, ok := explicit, explicit != ""
	if !ok {
		var err error
		path, ok, err = Find(startDir)
		if err != nil {
			return Config{}, err
		}
	}
	cfg := Default()
	envDir := startDir
	if ok {
		var err error
		if cfg, err = LoadFile(path); err != nil {
			return Config{}, err
		}
		envDir = filepath.Dir(path)
	}
	dotenv, err := readDotenv(filepath.Join(envDir, ".env"))
	if err != nil {
		return Config{}, err
	}
	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
	if err := cfg.ApplyEnv(lookup); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func readDotenv(path string) (map[string]string, error) {
	env, err := godotenv.Read(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return env, nil
}

// ApplyEnv overrides fields from DOREMI_SCALE, DOREMI_BPM,
// DOREMI_SAMPLE_RATE, DOREMI_SYNTH and SENTRY_DSN.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("DOREMI_SCALE"); ok && v != "" {
		c.Scale = v
	}
	if v, ok := lookup("DOREMI_BPM"); ok && v != "" {
		bpm, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("DOREMI_BPM: %w", err)
		}
		c.BPM = bpm
	}
	if v, ok := lookup("DOREMI_SAMPLE_RATE"); ok && v != "" {
		rate, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("DOREMI_SAMPLE_RATE: %w", err)
		}
		c.SampleRate = rate
	}
	if v, ok := lookup("DOREMI_SYNTH"); ok && v != "" {
		c.Synth.Mode = v
	}
	if v, ok := lookup("SENTRY_DSN"); ok {
		c.SentryDSN = v
	}
	return c.Validate()
}

var synthModes = map[string]bool{"": true, "fm": true, "pulse": true, "square": true, "triangle": true}

func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Scale) == "":
		return errors.New("scale must not be empty")
	case c.BPM <= 0:
		return fmt.Errorf("bpm must be positive, got %v", c.BPM)
	case c.SampleRate <= 0:
		return fmt.Errorf("sample_rate must be positive, got %d", c.SampleRate)
	case c.NoteLimit < 0:
		return fmt.Errorf("note_limit must not be negative, got %d", c.NoteLimit)
	case c.StepLimit < 0:
		return fmt.Errorf("step_limit must not be negative, got %d", c.StepLimit)
	case !synthModes[strings.ToLower(c.Synth.Mode)]:
		return fmt.Errorf("synth.mode %q is not one of fm, pulse, square, triangle", c.Synth.Mode)
	case c.Synth.Volume < 0:
		return fmt.Errorf("synth.volume must not be negative, got %v", c.Synth.Volume)
	}
	return nil
}
