// Package skinning resolves an animation frame into the bone matrix array
// consumed by a skinning vertex shader.
//
// Each output slot i holds world(i) * inverseBind(i) for the bone with dense
// id i. Slots past the skeleton size are identity.
package skinning

import (
	"encoding/binary"
	"errors"
	"fmt"
	stdmath "math"
	"strings"

	"github.com/Faultbox/midgard-skin/internal/skeleton"
	"github.com/Faultbox/midgard-skin/pkg/math"
)

// MaxBones is the length of the bone matrix array.
const MaxBones = skeleton.MaxBones

// Resolver errors.
var (
	ErrParentNotFound   = errors.New("skinning: parent bone not found")
	ErrCyclicHierarchy  = errors.New("skinning: cyclic bone hierarchy")
	ErrMissingSkeleton  = errors.New("skinning: no skeleton")
	ErrMissingAnimation = errors.New("skinning: no animation")
	ErrUnknownStrategy  = errors.New("skinning: unknown strategy")
)

// BoneTransforms is the per-tick output. It is a value: every resolve
// returns a fresh copy.
type BoneTransforms struct {
	Transforms [MaxBones]math.Mat4
}

// NewBoneTransforms returns an array filled with identity matrices.
func NewBoneTransforms() BoneTransforms {
	var bt BoneTransforms
	for i := range bt.Transforms {
		bt.Transforms[i] = math.Identity()
	}
	return bt
}

// ByteSize is the size of BoneTransforms.Bytes.
const ByteSize = MaxBones * 16 * 4

// Bytes returns the matrices as little-endian float32s, column-major,
// ready for a uniform or storage buffer upload.
func (bt *BoneTransforms) Bytes() []byte {
	buf := make([]byte, ByteSize)
	off := 0
	for i := range bt.Transforms {
		for _, f := range bt.Transforms[i] {
			binary.LittleEndian.PutUint32(buf[off:], stdmath.Float32bits(f))
			off += 4
		}
	}
	return buf
}

// Diagnostics counts per-tick conditions that were handled without failing.
type Diagnostics struct {
	Bones     int // Bones resolved
	Animated  int // Bones with keys in the clip
	Unmatched int // Bones without keys, passed through from their parent
	Wrapped   int // Bones whose tracks were shorter than the frame index
	Empty     int // Bones bound to the clip but with no keys
}

func (d Diagnostics) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "bones=%d animated=%d unmatched=%d", d.Bones, d.Animated, d.Unmatched)
	if d.Wrapped > 0 {
		fmt.Fprintf(&b, " wrapped=%d", d.Wrapped)
	}
	if d.Empty > 0 {
		fmt.Fprintf(&b, " empty=%d", d.Empty)
	}
	return b.String()
}

// Strategy selects the resolver implementation.
type Strategy int

const (
	StrategyOrdered Strategy = iota
	StrategyRecursive
)

func (s Strategy) String() string {
	switch s {
	case StrategyOrdered:
		return "ordered"
	case StrategyRecursive:
		return "recursive"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// ParseStrategy parses "ordered" or "recursive".
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ordered":
		return StrategyOrdered, nil
	case "recursive":
		return StrategyRecursive, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
	}
}
