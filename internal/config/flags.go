package config

import "flag"

// Flags holds command-line overrides. Zero values mean "not set".
type Flags struct {
	Config     string
	Debug      bool
	Strategy   string
	FrameRate  float64
	MaxBones   int
	Hold       bool
	Model      string
	Animations string
	Format     string
	LogFile    string
}

// RegisterFlags defines the config flags on fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{}
	fs.StringVar(&f.Config, "config", "", "Path to config file")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.StringVar(&f.Strategy, "strategy", "", "Resolver strategy: ordered or recursive")
	fs.Float64Var(&f.FrameRate, "fps", 0, "Animation frame rate")
	fs.IntVar(&f.MaxBones, "max-bones", 0, "Bone cap (at most 100)")
	fs.BoolVar(&f.Hold, "hold", false, "Hold the last frame instead of looping")
	fs.StringVar(&f.Model, "model", "", "Model file")
	fs.StringVar(&f.Animations, "animations", "", "Animation file for JSON models")
	fs.StringVar(&f.Format, "format", "", "Model format: auto, json or gltf")
	fs.StringVar(&f.LogFile, "log-file", "", "Log file path")
	return f
}

// apply applies CLI flag overrides to the config.
func (f *Flags) apply(cfg *Config) {
	if f == nil {
		return
	}
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.Strategy != "" {
		cfg.Playback.Strategy = f.Strategy
	}
	if f.FrameRate > 0 {
		cfg.Playback.FrameRate = float32(f.FrameRate)
	}
	if f.MaxBones > 0 {
		cfg.Playback.MaxBones = f.MaxBones
	}
	if f.Hold {
		cfg.Playback.Loop = false
	}
	if f.Model != "" {
		cfg.Assets.Model = f.Model
	}
	if f.Animations != "" {
		cfg.Assets.Animations = f.Animations
	}
	if f.Format != "" {
		cfg.Assets.Format = f.Format
	}
	if f.LogFile != "" {
		cfg.Logging.LogFile = f.LogFile
	}
}
