// Package animation holds keyframe clips bound to a skeleton and the
// fixed-step player that picks the frame to sample.
//
// Keyframes are sampled by index, not by time: frame i of a bone uses the
// i-th translation, rotation and scale key. There is no interpolation.
package animation

import (
	"errors"
	"time"

	"github.com/Faultbox/midgard-skin/pkg/math"
)

// Binding errors.
var (
	// ErrUnboundChannel is reported for tracks whose bone is not in the
	// skeleton. It is a warning: the track is dropped and binding continues.
	ErrUnboundChannel  = errors.New("animation: channel targets a bone not in the skeleton")
	ErrEmptyTimestamps = errors.New("animation: channel has values but no timestamps")
	ErrNilSkeleton     = errors.New("animation: nil skeleton")
)

// KeyTranslation is a translation sample.
type KeyTranslation struct {
	Timestamp   float32
	Translation math.Vec3
}

// KeyRotation is a rotation sample.
type KeyRotation struct {
	Timestamp float32
	Rotation  math.Quat
}

// KeyScale is a scale sample.
type KeyScale struct {
	Timestamp float32
	Scale     math.Vec3
}

// NoParent marks an animated bone whose parent is unknown or absent.
const NoParent = -1

// AnimatedBone holds the keyframes of one bone.
// The three key slices are index-aligned: frame i uses element i of each.
type AnimatedBone struct {
	BoneID      uint32 // Dense skeleton id
	BoneName    string
	ParentIndex int // Dense skeleton id of the parent, or NoParent

	TranslationKeys []KeyTranslation
	RotationKeys    []KeyRotation
	ScaleKeys       []KeyScale
}

// SampleStatus describes how a frame index was mapped onto a bone's keys.
type SampleStatus int

const (
	SampleOK      SampleStatus = iota // Index was inside every track
	SampleWrapped                     // Index was past the end of a track and wrapped
	SampleEmpty                       // No keys at all; nothing to sample
)

// FrameCount returns the number of frames the bone can be sampled at.
// Missing kinds fall back to their identity value, so the count is the
// longest of the three tracks.
func (b *AnimatedBone) FrameCount() int {
	n := len(b.TranslationKeys)
	if len(b.RotationKeys) > n {
		n = len(b.RotationKeys)
	}
	if len(b.ScaleKeys) > n {
		n = len(b.ScaleKeys)
	}
	return n
}

// Sample returns the local transform of the bone at frame.
// Each track wraps independently, so tracks of different lengths never
// index out of range.
func (b *AnimatedBone) Sample(frame int) (math.Mat4, SampleStatus) {
	if b.FrameCount() == 0 {
		return math.Identity(), SampleEmpty
	}
	if frame < 0 {
		frame = 0
	}

	status := SampleOK
	wrap := func(n int) int {
		if frame < n {
			return frame
		}
		status = SampleWrapped
		return frame % n
	}

	t := math.Zero3()
	if n := len(b.TranslationKeys); n > 0 {
		t = b.TranslationKeys[wrap(n)].Translation
	}
	r := math.QuatIdentity()
	if n := len(b.RotationKeys); n > 0 {
		r = b.RotationKeys[wrap(n)].Rotation
	}
	s := math.One3()
	if n := len(b.ScaleKeys); n > 0 {
		s = b.ScaleKeys[wrap(n)].Scale
	}

	return math.Compose(t, r, s), status
}

// Animation is a clip bound to a skeleton. BoneKeyframes holds one entry
// per bound bone; BoneKeyframesByName holds the lowest id of each name, with
// the same keys as the others of that name. It is read-only after
// construction.
type Animation struct {
	Name                string
	BoneKeyframes       map[uint32]*AnimatedBone
	BoneKeyframesByName map[string]*AnimatedBone

	// Warnings holds non-fatal binding problems, each wrapping ErrUnboundChannel.
	Warnings []error
}

// FrameCount returns the longest bone track length of the clip.
func (a *Animation) FrameCount() int {
	n := 0
	for _, b := range a.BoneKeyframes {
		if c := b.FrameCount(); c > n {
			n = c
		}
	}
	return n
}

// Duration returns the clip length at the given frame time.
func (a *Animation) Duration(frameTime float32) time.Duration {
	return time.Duration(float64(a.FrameCount()) * float64(frameTime) * float64(time.Second))
}

// Bone returns the animated bone with the given dense id, or nil.
func (a *Animation) Bone(id uint32) *AnimatedBone {
	return a.BoneKeyframes[id]
}

// BoneByName returns the animated bone with the given name, or nil.
func (a *Animation) BoneByName(name string) *AnimatedBone {
	return a.BoneKeyframesByName[name]
}
