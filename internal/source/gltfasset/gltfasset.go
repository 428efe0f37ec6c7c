// Package gltfasset reads skins and animations from glTF 2.0 and GLB files.
package gltfasset

import (
	"errors"
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/midgard-skin/internal/animation"
	"github.com/Faultbox/midgard-skin/internal/skeleton"
	"github.com/Faultbox/midgard-skin/internal/source"
	"github.com/Faultbox/midgard-skin/pkg/math"
)

var (
	ErrNoSkin   = errors.New("gltfasset: document has no skin")
	ErrAccessor = errors.New("gltfasset: unexpected accessor data")
)

// Load opens a .gltf or .glb file and reads its skin and animations.
func Load(path string, opts source.Options) (*source.Asset, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	asset, err := FromDocument(doc, source.Name(path), opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return asset, nil
}

// FromDocument reads the skin selected by SkinIndex and every animation.
func FromDocument(doc *gltf.Document, name string, opts source.Options) (*source.Asset, error) {
	skinIdx, err := SkinIndex(doc)
	if err != nil {
		return nil, err
	}

	joints, ibms, err := Joints(doc, skinIdx)
	if err != nil {
		return nil, err
	}
	skel, err := skeleton.Build(name, joints, ibms, opts.SkeletonOptions())
	if err != nil {
		return nil, err
	}

	asset := &source.Asset{Name: name, Skeleton: skel}
	for i, a := range doc.Animations {
		channels, err := Channels(doc, i)
		if err != nil {
			return nil, fmt.Errorf("animation %d: %w", i, err)
		}
		clipName := a.Name
		if clipName == "" {
			clipName = fmt.Sprintf("animation_%d", i)
		}
		clip, err := animation.Bind(clipName, channels, skel, opts.BindOptions())
		if err != nil {
			return nil, err
		}
		asset.Clips = append(asset.Clips, clip)
	}
	return asset, nil
}

// SkinIndex returns the skin of the first node that has both a mesh and a
// skin, or skin 0 if no node does.
func SkinIndex(doc *gltf.Document) (int, error) {
	if len(doc.Skins) == 0 {
		return 0, ErrNoSkin
	}
	for _, n := range doc.Nodes {
		if n.Mesh != nil && n.Skin != nil && int(*n.Skin) < len(doc.Skins) {
			return int(*n.Skin), nil
		}
	}
	return 0, nil
}

// NodeName returns the node name, or a stable placeholder for unnamed nodes.
// Skeleton bones and animation channels use the same rule so they still
// bind by name.
func NodeName(doc *gltf.Document, idx int) string {
	if idx >= 0 && idx < len(doc.Nodes) && doc.Nodes[idx].Name != "" {
		return doc.Nodes[idx].Name
	}
	return fmt.Sprintf("node_%d", idx)
}

// Joints returns the joints of a skin and their inverse bind matrices.
// A skin without inverseBindMatrices gets identity matrices.
func Joints(doc *gltf.Document, skinIdx int) ([]skeleton.Joint, []math.Mat4, error) {
	if skinIdx < 0 || skinIdx >= len(doc.Skins) {
		return nil, nil, fmt.Errorf("%w: index %d", ErrNoSkin, skinIdx)
	}
	skin := doc.Skins[skinIdx]

	joints := make([]skeleton.Joint, 0, len(skin.Joints))
	for _, j := range skin.Joints {
		if int(j) >= len(doc.Nodes) {
			return nil, nil, fmt.Errorf("skin %d: joint node %d out of range", skinIdx, j)
		}
		node := doc.Nodes[j]
		children := make([]int, len(node.Children))
		for i, c := range node.Children {
			children[i] = int(c)
		}
		joints = append(joints, skeleton.Joint{
			Name:     NodeName(doc, int(j)),
			Index:    int(j),
			Children: children,
		})
	}

	if skin.InverseBindMatrices == nil {
		ibms := make([]math.Mat4, len(joints))
		for i := range ibms {
			ibms[i] = math.Identity()
		}
		return joints, ibms, nil
	}

	ibms, err := readMatrices(doc, *skin.InverseBindMatrices)
	if err != nil {
		return nil, nil, fmt.Errorf("skin %d inverse bind matrices: %w", skinIdx, err)
	}
	return joints, ibms, nil
}

// Channels converts the translation, rotation and scale channels of one
// animation. Morph weight channels are skipped. Cubic spline samplers keep
// only their values, dropping the tangents.
func Channels(doc *gltf.Document, animIdx int) ([]animation.Channel, error) {
	if animIdx < 0 || animIdx >= len(doc.Animations) {
		return nil, fmt.Errorf("animation %d out of range", animIdx)
	}
	anim := doc.Animations[animIdx]

	var out []animation.Channel
	for ci, ch := range anim.Channels {
		if ch.Target.Node == nil || ch.Sampler == nil {
			continue
		}

		var path animation.Path
		switch ch.Target.Path {
		case gltf.TRSTranslation:
			path = animation.PathTranslation
		case gltf.TRSRotation:
			path = animation.PathRotation
		case gltf.TRSScale:
			path = animation.PathScale
		default:
			continue
		}

		if int(*ch.Sampler) >= len(anim.Samplers) {
			return nil, fmt.Errorf("channel %d: sampler %d out of range", ci, *ch.Sampler)
		}
		sampler := anim.Samplers[*ch.Sampler]

		node := int(*ch.Target.Node)
		if node >= len(doc.Nodes) {
			return nil, fmt.Errorf("channel %d: node %d out of range", ci, node)
		}
		c := animation.Channel{
			TargetIndex: node,
			TargetName:  NodeName(doc, node),
			Path:        path,
		}
		for _, child := range doc.Nodes[node].Children {
			c.TargetChildren = append(c.TargetChildren, int(child))
		}

		if sampler.Input != nil {
			ts, err := readScalars(doc, *sampler.Input)
			if err != nil {
				return nil, fmt.Errorf("channel %d input: %w", ci, err)
			}
			c.Timestamps = ts
		}
		if sampler.Output == nil {
			continue
		}

		cubic := sampler.Interpolation == gltf.InterpolationCubicSpline
		var err error
		if path == animation.PathRotation {
			var qs []math.Quat
			qs, err = readQuats(doc, *sampler.Output)
			if cubic {
				qs = splineValues(qs)
			}
			c.Rotations = qs
		} else {
			var vs []math.Vec3
			vs, err = readVec3s(doc, *sampler.Output)
			if cubic {
				vs = splineValues(vs)
			}
			c.Vectors = vs
		}
		if err != nil {
			return nil, fmt.Errorf("channel %d output: %w", ci, err)
		}

		out = append(out, c)
	}
	return out, nil
}

// splineValues keeps the middle element of each in-tangent, value,
// out-tangent triple.
func splineValues[T any](v []T) []T {
	out := make([]T, 0, len(v)/3)
	for i := 1; i < len(v); i += 3 {
		out = append(out, v[i])
	}
	return out
}

func accessor(doc *gltf.Document, idx uint32) (interface{}, error) {
	if int(idx) >= len(doc.Accessors) {
		return nil, fmt.Errorf("%w: accessor %d out of range", ErrAccessor, idx)
	}
	return modeler.ReadAccessor(doc, doc.Accessors[idx], nil)
}

func readScalars(doc *gltf.Document, idx uint32) ([]float32, error) {
	data, err := accessor(doc, idx)
	if err != nil {
		return nil, err
	}
	v, ok := data.([]float32)
	if !ok {
		return nil, fmt.Errorf("%w: want float scalars, got %T", ErrAccessor, data)
	}
	return v, nil
}

func readVec3s(doc *gltf.Document, idx uint32) ([]math.Vec3, error) {
	data, err := accessor(doc, idx)
	if err != nil {
		return nil, err
	}
	v, ok := data.([][3]float32)
	if !ok {
		return nil, fmt.Errorf("%w: want float vec3, got %T", ErrAccessor, data)
	}
	out := make([]math.Vec3, len(v))
	for i, e := range v {
		out[i] = math.Vec3FromArray(e)
	}
	return out, nil
}

// readQuats reads x, y, z, w rotations, including the normalized integer
// encodings glTF allows for rotation outputs.
func readQuats(doc *gltf.Document, idx uint32) ([]math.Quat, error) {
	data, err := accessor(doc, idx)
	if err != nil {
		return nil, err
	}

	var xyzw [][4]float32
	switch v := data.(type) {
	case [][4]float32:
		xyzw = v
	case [][4]int8:
		xyzw = normalize(v, func(c int8) float32 { return max(float32(c)/127, -1) })
	case [][4]uint8:
		xyzw = normalize(v, func(c uint8) float32 { return float32(c) / 255 })
	case [][4]int16:
		xyzw = normalize(v, func(c int16) float32 { return max(float32(c)/32767, -1) })
	case [][4]uint16:
		xyzw = normalize(v, func(c uint16) float32 { return float32(c) / 65535 })
	default:
		return nil, fmt.Errorf("%w: want vec4 rotations, got %T", ErrAccessor, data)
	}

	out := make([]math.Quat, len(xyzw))
	for i, q := range xyzw {
		out[i] = math.QuatFromXYZW(q)
	}
	return out, nil
}

func normalize[T int8 | uint8 | int16 | uint16](v [][4]T, f func(T) float32) [][4]float32 {
	out := make([][4]float32, len(v))
	for i, e := range v {
		out[i] = [4]float32{f(e[0]), f(e[1]), f(e[2]), f(e[3])}
	}
	return out
}

func readMatrices(doc *gltf.Document, idx uint32) ([]math.Mat4, error) {
	data, err := accessor(doc, idx)
	if err != nil {
		return nil, err
	}
	v, ok := data.([][4][4]float32)
	if !ok {
		return nil, fmt.Errorf("%w: want float mat4, got %T", ErrAccessor, data)
	}
	out := make([]math.Mat4, len(v))
	for i, m := range v {
		out[i] = math.FromColumns(m)
	}
	return out, nil
}
