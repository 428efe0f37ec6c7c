// skintool is a CLI utility for inspecting and playing skinned models.
package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-skin/internal/assets"
	"github.com/Faultbox/midgard-skin/internal/config"
	"github.com/Faultbox/midgard-skin/internal/logger"
	"github.com/Faultbox/midgard-skin/internal/scene"
	"github.com/Faultbox/midgard-skin/internal/skinning"
	"github.com/Faultbox/midgard-skin/internal/source"
	"github.com/Faultbox/midgard-skin/pkg/math"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "info":
		cmdInfo(args)
	case "resolve":
		cmdResolve(args)
	case "play":
		cmdPlay(args)
	case "verify":
		cmdVerify(args)
	case "config":
		cmdConfig(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`skintool - skeletal animation bone matrix utility

Usage:
  skintool <command> [options] [model]

Commands:
  info    [model]                            Show skeleton and clip summary
  resolve [-clip N] [-frame F] [model]       Print bone matrices for one frame
  play    [-clip N] [-ticks N] [-dt S] [model] Run the update loop
  verify  [model]                            Compare both resolvers on every frame
  config  [-save] [-o path]                  Print or save the effective config

Common options:
  -config, -model, -animations, -format, -strategy, -fps, -max-bones,
  -hold, -debug, -log-file

Examples:
  skintool info models/hero.glb
  skintool resolve -clip 1 -frame 12 -strategy recursive models/hero.glb
  skintool play -animations models/robot_anims.json -ticks 48 models/robot.json
  skintool verify models/hero.glb
  skintool config -strategy recursive -fps 30 -save`)
}

// session holds what every command needs once flags are parsed.
type session struct {
	cfg   *config.Config
	model *assets.Model
}

// open parses args, loads config, starts logging and loads the model.
// The first positional argument overrides the configured model path.
func open(fs *flag.FlagSet, flags *config.Flags, args []string) *session {
	fs.Parse(args)
	if fs.NArg() > 0 {
		flags.Model = fs.Arg(0)
	}

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	logger.Sugar.Debugf("Config: %+v", cfg)

	if cfg.Assets.Model == "" {
		fmt.Fprintf(os.Stderr, "Usage: skintool %s [options] <model>\n", fs.Name())
		os.Exit(1)
	}

	lib := assets.NewLibrary(source.Options{
		MaxBones: cfg.Playback.MaxBones,
		Logger:   logger.Named("assets"),
	})
	for _, root := range cfg.Assets.Roots {
		if err := lib.AddRoot(root); err != nil {
			logger.Warn("Skipping asset root", zap.String("root", root), zap.Error(err))
		}
	}

	model, err := lib.Load(assets.Source{
		Model:      cfg.Assets.Model,
		Animations: cfg.Assets.Animations,
		Format:     source.Format(cfg.Assets.Format),
	})
	if err != nil {
		fail("failed to load model", err)
	}

	return &session{cfg: cfg, model: model}
}

func (s *session) instance(clip int) *scene.Instance {
	inst, err := scene.NewInstance(s.model, scene.Options{
		Strategy:      s.cfg.Strategy(),
		FrameRate:     s.cfg.Playback.FrameRate,
		HoldLastFrame: !s.cfg.Playback.Loop,
		Logger:        logger.Named("scene"),
	})
	if err != nil {
		fail("failed to create instance", err)
	}
	if clip != 0 {
		if err := inst.SelectClip(clip); err != nil {
			fail("failed to select clip", err)
		}
	}
	return inst
}

func fail(msg string, err error) {
	logger.Error(msg, zap.Error(err))
	logger.Sync()
	os.Exit(1)
}

func cmdInfo(args []string) {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	flags := config.RegisterFlags(fs)
	s := open(fs, flags, args)
	defer logger.Sync()

	skel := s.model.Skeleton
	fmt.Printf("Model:    %s\n", s.model.Name)
	fmt.Printf("Bones:    %d\n", skel.Len())
	fmt.Printf("Roots:    %d\n", len(skel.Roots()))
	fmt.Printf("Depth:    %d\n", skel.Depth())
	fmt.Printf("Clips:    %d\n", len(s.model.Clips))
	fmt.Println()

	fmt.Println("Bones:")
	for _, b := range skel.BonesOrdered {
		parent := "-"
		if b.HasParent() {
			parent = skel.BonesOrdered[b.ParentID].Name
		}
		fmt.Printf("  %3d  %-24s parent=%s\n", b.ID, b.Name, parent)
	}
	fmt.Println()

	frameTime := 1 / s.cfg.Playback.FrameRate
	fmt.Println("Clips:")
	for i, c := range s.model.Clips {
		fmt.Printf("  %3d  %-24s frames=%-5d bones=%-4d duration=%v\n",
			i, c.Name, c.FrameCount(), len(c.BoneKeyframes), c.Duration(frameTime))
	}

	if warnings := s.model.Warnings(); len(warnings) > 0 {
		fmt.Println()
		fmt.Printf("Warnings: %d\n", len(warnings))
		for _, w := range warnings {
			fmt.Printf("  %v\n", w)
		}
	}
}

func cmdResolve(args []string) {
	fs := flag.NewFlagSet("resolve", flag.ExitOnError)
	flags := config.RegisterFlags(fs)
	clip := fs.Int("clip", 0, "Clip index")
	frame := fs.Int("frame", 0, "Frame index")
	s := open(fs, flags, args)
	defer logger.Sync()

	anim := s.model.Clip(*clip)
	if anim == nil {
		fail("failed to select clip", fmt.Errorf("%w: %d of %d", scene.ErrClipIndex, *clip, len(s.model.Clips)))
	}

	bt, diag, err := skinning.ResolveWith(s.cfg.Strategy(), s.model.Skeleton, anim, *frame)
	if err != nil {
		fail("failed to resolve frame", err)
	}

	fmt.Printf("Clip %q frame %d (%s): %s\n", anim.Name, *frame, s.cfg.Strategy(), diag)
	for _, b := range s.model.Skeleton.BonesOrdered {
		fmt.Printf("\n%3d %s\n", b.ID, b.Name)
		printMatrix(bt.Transforms[b.ID])
	}
}

func cmdPlay(args []string) {
	fs := flag.NewFlagSet("play", flag.ExitOnError)
	flags := config.RegisterFlags(fs)
	clip := fs.Int("clip", 0, "Clip index")
	ticks := fs.Int("ticks", 24, "Number of updates to run")
	dt := fs.Float64("dt", 1.0/24, "Seconds per update")
	next := fs.Int("next", 0, "Switch to the next clip every N ticks (0 = never)")
	s := open(fs, flags, args)
	defer logger.Sync()

	sc := scene.New()
	sc.Add(s.instance(*clip))

	var frames []scene.Frame
	for tick := 0; tick < *ticks; tick++ {
		input := scene.Pressed{}
		if *next > 0 && tick > 0 && tick%*next == 0 {
			input[scene.ActionNextClip] = true
		}

		var err error
		frames, err = sc.Update(scene.FrameContext{DeltaTime: float32(*dt), Input: input}, frames)
		if err != nil {
			fail("update failed", err)
		}

		f := frames[0]
		root := math.TranslationOf(f.Transforms.Transforms[0])
		fmt.Printf("tick %4d  clip %-16s frame %4d  root=(%.4f, %.4f, %.4f)  %s\n",
			tick, s.model.Clips[f.Clip].Name, f.FrameIndex, root[0], root[1], root[2], f.Diagnostics)
	}
}

func cmdVerify(args []string) {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	flags := config.RegisterFlags(fs)
	tolerance := fs.Float64("eps", 1e-5, "Maximum allowed difference")
	s := open(fs, flags, args)
	defer logger.Sync()

	var worst float32
	failed := 0
	for _, anim := range s.model.Clips {
		frames := max(anim.FrameCount(), 1)
		for f := 0; f < frames; f++ {
			a, _, err := skinning.Resolve(s.model.Skeleton, anim, f)
			if err != nil {
				fail("ordered resolver failed", err)
			}
			b, _, err := skinning.ResolveRecursive(s.model.Skeleton, anim, f)
			if err != nil {
				fail("recursive resolver failed", err)
			}

			for i := range a.Transforms {
				d := math.MaxAbsDiff(a.Transforms[i], b.Transforms[i])
				worst = max(worst, d)
				if float64(d) > *tolerance {
					failed++
					logger.Warn("Resolvers disagree",
						zap.String("clip", anim.Name),
						zap.Int("frame", f),
						zap.Int("slot", i),
						zap.Float32("diff", d))
				}
			}
		}
		fmt.Printf("  %-24s frames=%d\n", anim.Name, frames)
	}

	fmt.Printf("Max difference: %g\n", worst)
	if failed > 0 {
		fmt.Printf("FAIL: %d matrices above %g\n", failed, *tolerance)
		os.Exit(1)
	}
	fmt.Println("OK")
}

func printMatrix(m math.Mat4) {
	for r := 0; r < 4; r++ {
		fmt.Printf("    [% 10.5f % 10.5f % 10.5f % 10.5f]\n", m.At(r, 0), m.At(r, 1), m.At(r, 2), m.At(r, 3))
	}
}

func cmdConfig(args []string) {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	flags := config.RegisterFlags(fs)
	save := fs.Bool("save", false, "Write the config to the user config directory")
	out := fs.String("o", "", "Write the config to this path")
	fs.Parse(args)

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	switch {
	case *out != "":
		if err := cfg.SaveTo(*out); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Saved %s\n", *out)
	case *save:
		path, err := cfg.Save()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Saved %s\n", path)
	default:
		data, err := cfg.Marshal()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		os.Stdout.Write(data)
	}
}
