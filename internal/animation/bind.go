package animation

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-skin/internal/skeleton"
	"github.com/Faultbox/midgard-skin/pkg/math"
)

// Path is the property a channel animates.
type Path int

const (
	PathTranslation Path = iota
	PathRotation
	PathScale
)

func (p Path) String() string {
	switch p {
	case PathTranslation:
		return "translation"
	case PathRotation:
		return "rotation"
	case PathScale:
		return "scale"
	default:
		return fmt.Sprintf("path(%d)", int(p))
	}
}

// Channel is one animated property of one node, as found in a source asset.
type Channel struct {
	TargetIndex    int    // Source node index
	TargetName     string // Node name, used to find the skeleton bone
	TargetChildren []int  // Source indices of the node's children
	Path           Path
	Timestamps     []float32
	Vectors        []math.Vec3 // Values for PathTranslation and PathScale
	Rotations      []math.Quat // Values for PathRotation
}

func (c *Channel) valueCount() int {
	if c.Path == PathRotation {
		return len(c.Rotations)
	}
	return len(c.Vectors)
}

// Track holds the keys of one bone addressed by name.
type Track struct {
	BoneName        string
	TranslationKeys []KeyTranslation
	RotationKeys    []KeyRotation
	ScaleKeys       []KeyScale
}

// BindOptions controls binding.
type BindOptions struct {
	// Logger receives unbound channel warnings. Nil discards them.
	Logger *zap.Logger
}

func (o BindOptions) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// target collects all channels of one source node.
type target struct {
	index    int
	name     string
	children []int
	bone     AnimatedBone
}

// Bind groups channels by target node and binds each group to every
// skeleton bone with the same name. Groups whose name is not in the skeleton
// are dropped and recorded in Animation.Warnings.
func Bind(name string, channels []Channel, skel *skeleton.Skeleton, opts BindOptions) (*Animation, error) {
	if skel == nil {
		return nil, ErrNilSkeleton
	}

	targets := make(map[int]*target)
	for i := range channels {
		ch := &channels[i]
		if n := ch.valueCount(); n > 0 && len(ch.Timestamps) < n {
			return nil, fmt.Errorf("%w: clip %q node %d (%s) %s: %d values, %d timestamps",
				ErrEmptyTimestamps, name, ch.TargetIndex, ch.TargetName, ch.Path, n, len(ch.Timestamps))
		}

		tg, ok := targets[ch.TargetIndex]
		if !ok {
			tg = &target{index: ch.TargetIndex, name: ch.TargetName}
			targets[ch.TargetIndex] = tg
		}
		if len(ch.TargetChildren) > 0 {
			tg.children = ch.TargetChildren
		}
		addKeys(&tg.bone, ch)
	}

	// child node -> parent node over the animated nodes
	parents := make(map[int]int)
	for _, tg := range targets {
		for _, child := range tg.children {
			parents[child] = tg.index
		}
	}

	indices := make([]int, 0, len(targets))
	for idx := range targets {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	anim := newAnimation(name, len(targets))
	log := opts.logger()

	for _, idx := range indices {
		tg := targets[idx]
		bones := skel.BonesByName(tg.name)
		if len(bones) == 0 {
			anim.warnUnbound(log, tg.name, idx)
			continue
		}

		for _, bone := range bones {
			ab := tg.bone
			ab.BoneID = bone.ID
			ab.BoneName = bone.Name
			ab.ParentIndex = bone.ParentID
			// the node graph only names one parent, so repeated names keep
			// the skeleton's
			if p, ok := parents[idx]; ok && len(bones) == 1 {
				if pb := skel.BoneByName(targets[p].name); pb != nil {
					ab.ParentIndex = int(pb.ID)
				}
			}
			anim.add(&ab)
		}
	}

	return anim, nil
}

// FromTracks binds name-addressed tracks to every skeleton bone of that
// name. Parents are taken from the skeleton. Tracks for unknown bones are
// dropped with a warning.
func FromTracks(name string, tracks []Track, skel *skeleton.Skeleton, opts BindOptions) (*Animation, error) {
	if skel == nil {
		return nil, ErrNilSkeleton
	}

	anim := newAnimation(name, len(tracks))
	log := opts.logger()

	for i := range tracks {
		tr := &tracks[i]
		bones := skel.BonesByName(tr.BoneName)
		if len(bones) == 0 {
			anim.warnUnbound(log, tr.BoneName, i)
			continue
		}
		for _, bone := range bones {
			anim.add(&AnimatedBone{
				BoneID:          bone.ID,
				BoneName:        bone.Name,
				ParentIndex:     bone.ParentID,
				TranslationKeys: tr.TranslationKeys,
				RotationKeys:    tr.RotationKeys,
				ScaleKeys:       tr.ScaleKeys,
			})
		}
	}

	return anim, nil
}

// addKeys converts the channel values into keys on b.
// A second channel for the same path replaces the first.
func addKeys(b *AnimatedBone, ch *Channel) {
	switch ch.Path {
	case PathTranslation:
		keys := make([]KeyTranslation, len(ch.Vectors))
		for i, v := range ch.Vectors {
			keys[i] = KeyTranslation{Timestamp: ch.Timestamps[i], Translation: v}
		}
		b.TranslationKeys = keys
	case PathRotation:
		keys := make([]KeyRotation, len(ch.Rotations))
		for i, q := range ch.Rotations {
			keys[i] = KeyRotation{Timestamp: ch.Timestamps[i], Rotation: q}
		}
		b.RotationKeys = keys
	case PathScale:
		keys := make([]KeyScale, len(ch.Vectors))
		for i, v := range ch.Vectors {
			keys[i] = KeyScale{Timestamp: ch.Timestamps[i], Scale: v}
		}
		b.ScaleKeys = keys
	}
}

func newAnimation(name string, capacity int) *Animation {
	return &Animation{
		Name:                name,
		BoneKeyframes:       make(map[uint32]*AnimatedBone, capacity),
		BoneKeyframesByName: make(map[string]*AnimatedBone, capacity),
	}
}

// add indexes b under its id and, for the first bone of a name, under the
// name. A later bone with the same id replaces the earlier one in both maps.
// Bones sharing a name share keys, so either map samples the same values.
func (a *Animation) add(b *AnimatedBone) {
	if old, ok := a.BoneKeyframes[b.BoneID]; ok && a.BoneKeyframesByName[old.BoneName] == old {
		delete(a.BoneKeyframesByName, old.BoneName)
	}
	a.BoneKeyframes[b.BoneID] = b
	if _, ok := a.BoneKeyframesByName[b.BoneName]; !ok {
		a.BoneKeyframesByName[b.BoneName] = b
	}
}

func (a *Animation) warnUnbound(log *zap.Logger, bone string, index int) {
	err := fmt.Errorf("%w: clip %q bone %q (source %d)", ErrUnboundChannel, a.Name, bone, index)
	a.Warnings = append(a.Warnings, err)
	log.Warn("Unbound animation channel",
		zap.String("clip", a.Name),
		zap.String("bone", bone),
		zap.Int("source", index))
}
