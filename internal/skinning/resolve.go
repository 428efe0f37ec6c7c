package skinning

import (
	"fmt"

	"github.com/Faultbox/midgard-skin/internal/animation"
	"github.com/Faultbox/midgard-skin/internal/skeleton"
	"github.com/Faultbox/midgard-skin/pkg/math"
)

// ResolveWith runs the resolver selected by s.
func ResolveWith(s Strategy, skel *skeleton.Skeleton, anim *animation.Animation, frame int) (BoneTransforms, Diagnostics, error) {
	switch s {
	case StrategyOrdered:
		return Resolve(skel, anim, frame)
	case StrategyRecursive:
		return ResolveRecursive(skel, anim, frame)
	default:
		return BoneTransforms{}, Diagnostics{}, fmt.Errorf("%w: %v", ErrUnknownStrategy, s)
	}
}

// Resolve walks the skeleton in parent-first order and looks keys up by
// bone name.
//
// A bone without keys inherits its parent's world transform (identity for
// a root) and keeps an identity output slot.
func Resolve(skel *skeleton.Skeleton, anim *animation.Animation, frame int) (BoneTransforms, Diagnostics, error) {
	if err := check(skel, anim); err != nil {
		return BoneTransforms{}, Diagnostics{}, err
	}

	out := NewBoneTransforms()
	diag := Diagnostics{Bones: skel.Len()}

	n := skel.Len()
	world := make([]math.Mat4, n)
	resolved := make([]bool, n)

	for pos, b := range skel.BonesOrdered {
		parent := math.Identity()
		if b.HasParent() {
			if b.ParentID < 0 || b.ParentID >= n || !resolved[b.ParentID] {
				return BoneTransforms{}, diag, fmt.Errorf("%w: bone %q parent %d", ErrParentNotFound, b.Name, b.ParentID)
			}
			parent = world[b.ParentID]
		}

		local, ok := sample(anim.BoneByName(b.Name), frame, &diag)
		if !ok {
			world[pos] = parent
			resolved[pos] = true
			continue
		}

		w := local
		if b.HasParent() {
			w = parent.Mul4(local)
		}
		world[pos] = w
		resolved[pos] = true
		out.Transforms[pos] = w.Mul4(b.InverseBindMatrix)
	}

	return out, diag, nil
}

type mark uint8

const (
	unvisited mark = iota
	inProgress
	done
)

// arena resolves bones by dense id with memoization. It does not rely on
// the skeleton being ordered.
type arena struct {
	bones []*skeleton.Bone
	marks []mark
	world []math.Mat4
	anim  *animation.Animation
	frame int
	out   *BoneTransforms
	diag  *Diagnostics
}

// ResolveRecursive resolves each bone through its parent chain, caching
// world transforms by bone id and looking keys up by id. It detects
// cycles and dangling parents instead of trusting the skeleton order.
func ResolveRecursive(skel *skeleton.Skeleton, anim *animation.Animation, frame int) (BoneTransforms, Diagnostics, error) {
	if err := check(skel, anim); err != nil {
		return BoneTransforms{}, Diagnostics{}, err
	}

	out := NewBoneTransforms()
	diag := Diagnostics{Bones: skel.Len()}

	n := skel.Len()
	a := &arena{
		bones: make([]*skeleton.Bone, n),
		marks: make([]mark, n),
		world: make([]math.Mat4, n),
		anim:  anim,
		frame: frame,
		out:   &out,
		diag:  &diag,
	}
	for _, b := range skel.BonesOrdered {
		if int(b.ID) >= n || a.bones[b.ID] != nil {
			return BoneTransforms{}, diag, fmt.Errorf("%w: bone %q has id %d", ErrParentNotFound, b.Name, b.ID)
		}
		a.bones[b.ID] = b
	}

	for id := 0; id < n; id++ {
		if _, err := a.resolve(id); err != nil {
			return BoneTransforms{}, diag, err
		}
	}

	return out, diag, nil
}

func (a *arena) resolve(id int) (math.Mat4, error) {
	switch a.marks[id] {
	case done:
		return a.world[id], nil
	case inProgress:
		return math.Mat4{}, fmt.Errorf("%w: at bone %q", ErrCyclicHierarchy, a.bones[id].Name)
	}
	a.marks[id] = inProgress

	b := a.bones[id]
	parent := math.Identity()
	if b.HasParent() {
		if b.ParentID < 0 || b.ParentID >= len(a.bones) {
			return math.Mat4{}, fmt.Errorf("%w: bone %q parent %d", ErrParentNotFound, b.Name, b.ParentID)
		}
		var err error
		if parent, err = a.resolve(b.ParentID); err != nil {
			return math.Mat4{}, err
		}
	}

	w := parent
	if local, ok := sample(a.anim.Bone(b.ID), a.frame, a.diag); ok {
		w = local
		if b.HasParent() {
			w = parent.Mul4(local)
		}
		a.out.Transforms[id] = w.Mul4(b.InverseBindMatrix)
	}

	a.world[id] = w
	a.marks[id] = done
	return w, nil
}

func check(skel *skeleton.Skeleton, anim *animation.Animation) error {
	if skel == nil {
		return ErrMissingSkeleton
	}
	if anim == nil {
		return ErrMissingAnimation
	}
	if skel.Len() > MaxBones {
		return fmt.Errorf("%w: %d bones", skeleton.ErrTooManyBones, skel.Len())
	}
	return nil
}

// sample returns the local transform of ab at frame and records the outcome.
// It reports false when the bone has nothing to contribute this tick.
func sample(ab *animation.AnimatedBone, frame int, d *Diagnostics) (math.Mat4, bool) {
	if ab == nil {
		d.Unmatched++
		return math.Mat4{}, false
	}

	local, status := ab.Sample(frame)
	switch status {
	case animation.SampleEmpty:
		d.Empty++
		d.Unmatched++
		return math.Mat4{}, false
	case animation.SampleWrapped:
		d.Wrapped++
	}
	d.Animated++
	return local, true
}
