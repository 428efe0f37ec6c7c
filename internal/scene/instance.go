// Package scene drives animated model instances once per frame.
package scene

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-skin/internal/animation"
	"github.com/Faultbox/midgard-skin/internal/skinning"
	"github.com/Faultbox/midgard-skin/internal/source"
)

var (
	ErrNoModel   = errors.New("scene: nil model")
	ErrClipIndex = errors.New("scene: clip index out of range")
)

// Action is a playback command bound to some input.
type Action int

const (
	ActionNextClip Action = iota
	ActionReset
)

// Input reports which actions were triggered this frame.
type Input interface {
	JustPressed(a Action) bool
}

// Pressed is an Input backed by a set of actions.
type Pressed map[Action]bool

// JustPressed implements Input.
func (p Pressed) JustPressed(a Action) bool { return p[a] }

// FrameContext carries everything an update needs for one frame.
type FrameContext struct {
	DeltaTime float32 // Seconds since the previous frame
	Input     Input   // May be nil
}

// Options configures an instance.
type Options struct {
	Strategy      skinning.Strategy
	FrameRate     float32 // Zero means animation.DefaultFrameRate
	HoldLastFrame bool    // Stop on the last frame instead of looping
	Logger        *zap.Logger
}

// Instance plays the clips of a shared model. It owns its player and is
// not safe for concurrent use.
type Instance struct {
	model  *source.Asset
	player *animation.Player
	clip   int
	opts   Options
	log    *zap.Logger

	resolvedClip  int // Clip index of the last Resolve
	resolvedFrame int // Frame index of the last Resolve
}

// NewInstance creates an instance playing clip 0 of model.
func NewInstance(model *source.Asset, opts Options) (*Instance, error) {
	if model == nil || model.Skeleton == nil {
		return nil, ErrNoModel
	}
	if len(model.Clips) == 0 {
		return nil, fmt.Errorf("%s: %w", model.Name, source.ErrNoClips)
	}

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Instance{
		model:  model,
		player: animation.NewPlayerWithFrameRate(opts.FrameRate),
		opts:   opts,
		log:    log.With(zap.String("model", model.Name)),
	}, nil
}

// Update resolves the current frame, advances time and then applies input.
// A clip switch or reset shows from the next tick on.
func (in *Instance) Update(ctx FrameContext) (skinning.BoneTransforms, skinning.Diagnostics, error) {
	bt, diag, err := in.Resolve()
	if err != nil {
		return bt, diag, err
	}

	in.player.Advance(ctx.DeltaTime)

	if ctx.Input != nil {
		if ctx.Input.JustPressed(ActionNextClip) {
			in.NextClip()
		}
		if ctx.Input.JustPressed(ActionReset) {
			in.Reset()
		}
	}
	return bt, diag, nil
}

// Resolve computes the bone matrices of the current frame without
// advancing time.
func (in *Instance) Resolve() (skinning.BoneTransforms, skinning.Diagnostics, error) {
	clip := in.Clip()
	if n := clip.FrameCount(); in.opts.HoldLastFrame {
		in.player.Clamp(n)
	} else {
		in.player.Wrap(n)
	}

	in.resolvedClip = in.clip
	in.resolvedFrame = in.player.FrameIndex()
	bt, diag, err := skinning.ResolveWith(in.opts.Strategy, in.model.Skeleton, clip, in.resolvedFrame)
	if err != nil {
		return bt, diag, fmt.Errorf("resolving %s frame %d: %w", clip.Name, in.resolvedFrame, err)
	}

	if diag.Wrapped > 0 || diag.Empty > 0 {
		in.log.Debug("Short animation tracks",
			zap.String("clip", clip.Name),
			zap.Int("frame", in.resolvedFrame),
			zap.Int("wrapped", diag.Wrapped),
			zap.Int("empty", diag.Empty))
	}
	return bt, diag, nil
}

// Advance moves playback forward by dt seconds.
func (in *Instance) Advance(dt float32) { in.player.Advance(dt) }

// Reset rewinds the current clip.
func (in *Instance) Reset() { in.player.Reset() }

// SelectClip switches to clip i and rewinds.
func (in *Instance) SelectClip(i int) error {
	if i < 0 || i >= len(in.model.Clips) {
		return fmt.Errorf("%w: %d of %d", ErrClipIndex, i, len(in.model.Clips))
	}
	in.clip = i
	in.player.Reset()
	in.log.Info("Clip selected", zap.Int("index", i), zap.String("clip", in.model.Clips[i].Name))
	return nil
}

// NextClip switches to the following clip, wrapping to the first.
func (in *Instance) NextClip() {
	_ = in.SelectClip((in.clip + 1) % len(in.model.Clips))
}

// Clip returns the current clip.
func (in *Instance) Clip() *animation.Animation { return in.model.Clips[in.clip] }

// ClipIndex returns the index of the current clip.
func (in *Instance) ClipIndex() int { return in.clip }

// FrameIndex returns the player's frame index.
func (in *Instance) FrameIndex() int { return in.player.FrameIndex() }

// ResolvedClip returns the clip index used by the last Resolve.
func (in *Instance) ResolvedClip() int { return in.resolvedClip }

// ResolvedFrame returns the frame index used by the last Resolve.
func (in *Instance) ResolvedFrame() int { return in.resolvedFrame }

// Model returns the shared model.
func (in *Instance) Model() *source.Asset { return in.model }
