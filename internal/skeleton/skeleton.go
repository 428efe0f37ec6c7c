// Package skeleton builds bone hierarchies for skinning.
//
// A Skeleton holds its bones twice: keyed by the index they had in the source
// asset, and as a slice sorted so that every parent comes before any of its
// descendants. Sorting reassigns bone ids so they are dense (0..n-1) and equal
// to each bone's position in the sorted slice.
package skeleton

import (
	"errors"

	"github.com/Faultbox/midgard-skin/pkg/math"
)

// MaxBones is the hard upper bound on bones per skeleton.
// It matches the size of the bone matrix uniform array.
const MaxBones = 100

// NoParent marks a root bone.
const NoParent = -1

// Skeleton build errors.
var (
	ErrCycleOrMissingParent     = errors.New("skeleton: cycle or missing parent")
	ErrMissingInverseBindMatrix = errors.New("skeleton: inverse bind matrix count does not match joint count")
	ErrTooManyBones             = errors.New("skeleton: too many bones")
	ErrDuplicateJoint           = errors.New("skeleton: duplicate joint index")
)

// Bone is a single node of the hierarchy.
type Bone struct {
	ID                uint32    // Dense id, equal to the position in BonesOrdered
	Name              string    // Bone name, used to bind animation tracks
	ParentID          int       // Dense id of the parent, or NoParent
	InverseBindMatrix math.Mat4 // Bind-pose world space to bone space
	OriginalIndex     int       // Joint index in the source asset
}

// HasParent reports whether the bone has a parent.
func (b *Bone) HasParent() bool {
	return b.ParentID != NoParent
}

// Skeleton is an immutable bone hierarchy.
// It is safe to share between goroutines once built.
type Skeleton struct {
	Name string

	// Bones is keyed by OriginalIndex. Values are the same pointers as in
	// BonesOrdered, so ids and parent ids are already dense.
	Bones map[int]*Bone

	// BonesOrdered lists bones root-first; BonesOrdered[i].ID == i.
	BonesOrdered []*Bone

	byName map[string][]*Bone // In id order
}

// Len returns the number of bones.
func (s *Skeleton) Len() int {
	return len(s.BonesOrdered)
}

// BoneByName returns the first bone with the given name, or nil.
func (s *Skeleton) BoneByName(name string) *Bone {
	if bones := s.byName[name]; len(bones) > 0 {
		return bones[0]
	}
	return nil
}

// BonesByName returns every bone with the given name in id order.
// Names are not unique in every asset format.
func (s *Skeleton) BonesByName(name string) []*Bone {
	return s.byName[name]
}

// BoneByID returns the bone with the given dense id, or nil.
func (s *Skeleton) BoneByID(id uint32) *Bone {
	if int(id) >= len(s.BonesOrdered) {
		return nil
	}
	return s.BonesOrdered[id]
}

// Roots returns the root bones in order.
func (s *Skeleton) Roots() []*Bone {
	var roots []*Bone
	for _, b := range s.BonesOrdered {
		if !b.HasParent() {
			roots = append(roots, b)
		}
	}
	return roots
}

// JointRemap returns the mapping from source joint index to dense bone id.
// Meshes that reference joints by source index need it to rewrite their
// per-vertex joint attributes.
func (s *Skeleton) JointRemap() map[int]uint32 {
	remap := make(map[int]uint32, len(s.Bones))
	for orig, b := range s.Bones {
		remap[orig] = b.ID
	}
	return remap
}

// Depth returns the length of the longest root-to-leaf chain.
func (s *Skeleton) Depth() int {
	depth := make([]int, len(s.BonesOrdered))
	maxDepth := 0
	for _, b := range s.BonesOrdered {
		d := 1
		if b.HasParent() && b.ParentID < len(depth) {
			d = depth[b.ParentID] + 1
		}
		depth[b.ID] = d
		if d > maxDepth {
			maxDepth = d
		}
	}
	return maxDepth
}
