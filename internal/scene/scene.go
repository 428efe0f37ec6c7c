package scene

import (
	"fmt"

	"github.com/Faultbox/midgard-skin/internal/skinning"
)

// Frame is the output of one instance for one tick.
type Frame struct {
	Clip        int // Clip index that was played
	FrameIndex  int // Frame index within the clip
	Transforms  skinning.BoneTransforms
	Diagnostics skinning.Diagnostics
}

// Scene updates a set of instances together. Instances may share models.
type Scene struct {
	instances []*Instance
}

// New creates an empty scene.
func New() *Scene {
	return &Scene{}
}

// Add appends an instance and returns its index.
func (s *Scene) Add(in *Instance) int {
	s.instances = append(s.instances, in)
	return len(s.instances) - 1
}

// Len returns the number of instances.
func (s *Scene) Len() int { return len(s.instances) }

// Instance returns the instance at index i.
func (s *Scene) Instance(i int) *Instance { return s.instances[i] }

// Update runs one tick on every instance. The input is applied to all of
// them. frames is reused when it has enough capacity.
func (s *Scene) Update(ctx FrameContext, frames []Frame) ([]Frame, error) {
	frames = frames[:0]
	for i, in := range s.instances {
		bt, diag, err := in.Update(ctx)
		if err != nil {
			return frames, fmt.Errorf("instance %d: %w", i, err)
		}
		frames = append(frames, Frame{
			Clip:        in.ResolvedClip(),
			FrameIndex:  in.ResolvedFrame(),
			Transforms:  bt,
			Diagnostics: diag,
		})
	}
	return frames, nil
}
