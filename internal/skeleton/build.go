package skeleton

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Faultbox/midgard-skin/pkg/math"
)

// Joint is a bone as found in a source asset: children are listed on the
// parent, and the parent of a joint is whoever lists it as a child.
type Joint struct {
	Name     string
	Index    int   // Source joint index
	Children []int // Source indices of child joints
}

// ParentJoint is a bone as found in assets that store the parent directly.
type ParentJoint struct {
	Name        string
	Index       int // Source joint index
	Parent      int // Source index of the parent, or NoParent
	InverseBind math.Mat4
}

// Options controls skeleton construction.
type Options struct {
	// MaxBones caps the bone count. Zero means MaxBones; values above
	// MaxBones are lowered to it.
	MaxBones int
}

func (o Options) maxBones() int {
	if o.MaxBones <= 0 || o.MaxBones > MaxBones {
		return MaxBones
	}
	return o.MaxBones
}

// Build creates a skeleton from joints that list their children.
// inverseBind[i] belongs to joints[i].
func Build(name string, joints []Joint, inverseBind []math.Mat4, opts Options) (*Skeleton, error) {
	if len(inverseBind) != len(joints) {
		return nil, fmt.Errorf("%w: %d joints, %d matrices", ErrMissingInverseBindMatrix, len(joints), len(inverseBind))
	}
	if limit := opts.maxBones(); len(joints) > limit {
		return nil, fmt.Errorf("%w: %d joints, limit %d", ErrTooManyBones, len(joints), limit)
	}

	// child index -> parent index; a later listing wins
	parents := make(map[int]int, len(joints))
	for _, j := range joints {
		for _, child := range j.Children {
			parents[child] = j.Index
		}
	}

	bones := make(map[int]*Bone, len(joints))
	for i, j := range joints {
		if _, dup := bones[j.Index]; dup {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateJoint, j.Index)
		}
		parent := NoParent
		if p, ok := parents[j.Index]; ok {
			parent = p
		}
		bones[j.Index] = &Bone{
			Name:              j.Name,
			ParentID:          parent,
			InverseBindMatrix: inverseBind[i],
			OriginalIndex:     j.Index,
		}
	}

	return order(name, bones)
}

// FromParents creates a skeleton from joints that name their parent.
func FromParents(name string, joints []ParentJoint, opts Options) (*Skeleton, error) {
	if limit := opts.maxBones(); len(joints) > limit {
		return nil, fmt.Errorf("%w: %d joints, limit %d", ErrTooManyBones, len(joints), limit)
	}

	bones := make(map[int]*Bone, len(joints))
	for _, j := range joints {
		if _, dup := bones[j.Index]; dup {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateJoint, j.Index)
		}
		parent := j.Parent
		if parent < 0 {
			parent = NoParent
		}
		bones[j.Index] = &Bone{
			Name:              j.Name,
			ParentID:          parent,
			InverseBindMatrix: j.InverseBind,
			OriginalIndex:     j.Index,
		}
	}

	return order(name, bones)
}

// order sorts bones root-first and assigns dense ids.
// On entry ParentID holds source indices; on return it holds dense ids.
func order(name string, bones map[int]*Bone) (*Skeleton, error) {
	// Scan in ascending source index so the result does not depend on
	// map iteration order.
	indices := make([]int, 0, len(bones))
	for idx := range bones {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	ordered := make([]*Bone, 0, len(bones))
	placed := make(map[int]bool, len(bones))

	for _, idx := range indices {
		if b := bones[idx]; !b.HasParent() {
			ordered = append(ordered, b)
			placed[idx] = true
		}
	}

	for len(ordered) < len(bones) {
		progress := false
		for _, idx := range indices {
			if placed[idx] {
				continue
			}
			b := bones[idx]
			if placed[b.ParentID] {
				ordered = append(ordered, b)
				placed[idx] = true
				progress = true
			}
		}
		if !progress {
			return nil, fmt.Errorf("%w: unplaced bones %s", ErrCycleOrMissingParent, unplacedNames(indices, bones, placed))
		}
	}

	denseID := make(map[int]int, len(ordered))
	for i, b := range ordered {
		denseID[b.OriginalIndex] = i
	}

	byName := make(map[string][]*Bone, len(ordered))
	for i, b := range ordered {
		b.ID = uint32(i)
		if b.HasParent() {
			b.ParentID = denseID[b.ParentID]
		}
		byName[b.Name] = append(byName[b.Name], b)
	}

	return &Skeleton{
		Name:         name,
		Bones:        bones,
		BonesOrdered: ordered,
		byName:       byName,
	}, nil
}

func unplacedNames(indices []int, bones map[int]*Bone, placed map[int]bool) string {
	var names []string
	for _, idx := range indices {
		if placed[idx] {
			continue
		}
		b := bones[idx]
		names = append(names, fmt.Sprintf("%q(%d->%d)", b.Name, idx, b.ParentID))
		if len(names) == 8 {
			names = append(names, "...")
			break
		}
	}
	return strings.Join(names, ", ")
}
