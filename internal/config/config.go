// Package config handles skintool configuration loading and management.
package config

import (
	"errors"
	"fmt"

	"github.com/Faultbox/midgard-skin/internal/skeleton"
	"github.com/Faultbox/midgard-skin/internal/skinning"
	"github.com/Faultbox/midgard-skin/internal/source"
)

// Config holds all settings.
type Config struct {
	Playback PlaybackConfig `yaml:"playback"`
	Assets   AssetsConfig   `yaml:"assets"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// PlaybackConfig holds animation playback settings.
type PlaybackConfig struct {
	FrameRate float32 `yaml:"frame_rate"` // Keyframes per second
	MaxBones  int     `yaml:"max_bones"`  // Bone cap, at most 100
	Strategy  string  `yaml:"strategy"`   // "ordered" or "recursive"
	Loop      bool    `yaml:"loop"`       // Loop clips; hold the last frame otherwise
}

// AssetsConfig holds model file settings.
type AssetsConfig struct {
	Model      string   `yaml:"model"`      // Model file
	Animations string   `yaml:"animations"` // Animation file (JSON models)
	Format     string   `yaml:"format"`     // "auto", "json" or "gltf"
	Roots      []string `yaml:"roots"`      // Directories for relative paths
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Playback: PlaybackConfig{
			FrameRate: 24,
			MaxBones:  skeleton.MaxBones,
			Strategy:  skinning.StrategyOrdered.String(),
			Loop:      true,
		},
		Assets: AssetsConfig{
			Format: string(source.FormatAuto),
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid value")

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	if c.Playback.FrameRate <= 0 {
		return fmt.Errorf("%w: playback.frame_rate %v must be positive", ErrInvalid, c.Playback.FrameRate)
	}
	if c.Playback.MaxBones < 1 || c.Playback.MaxBones > skeleton.MaxBones {
		return fmt.Errorf("%w: playback.max_bones %d must be in 1..%d", ErrInvalid, c.Playback.MaxBones, skeleton.MaxBones)
	}
	if _, err := skinning.ParseStrategy(c.Playback.Strategy); err != nil {
		return fmt.Errorf("%w: playback.strategy: %v", ErrInvalid, err)
	}
	switch source.Format(c.Assets.Format) {
	case "", source.FormatAuto, source.FormatJSON, source.FormatGLTF:
	default:
		return fmt.Errorf("%w: assets.format %q", ErrInvalid, c.Assets.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: logging.level %q", ErrInvalid, c.Logging.Level)
	}
	return nil
}

// Strategy returns the parsed resolver strategy. Call after Validate.
func (c *Config) Strategy() skinning.Strategy {
	s, _ := skinning.ParseStrategy(c.Playback.Strategy)
	return s
}
