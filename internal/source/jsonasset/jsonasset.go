// Package jsonasset reads the exporter's JSON model and animation files.
//
// A model file carries the skeleton:
//
//	{"Skeleton": {"Bones": [{"Id": 0, "Name": "Hips", "ParentId": -1, "Offset": [[...], ...]}]}}
//
// An animation file carries clips of name-addressed key lists:
//
//	{"Animations": [{"Name": "Walk", "Bones": [{"Name": "Hips",
//	  "TranslationKeys": [{"Time": 0, "Position": [0, 1, 0]}],
//	  "RotationKeys": [{"Time": 0, "Rotation": [0, 0, 0, 1]}],
//	  "ScaleKeys": [{"Time": 0, "Scale": [1, 1, 1]}]}]}]}
//
// Offset is the inverse bind matrix given as four columns. Rotations are
// stored x, y, z, w. A key repeated in one object keeps its last value.
package jsonasset

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Faultbox/midgard-skin/internal/animation"
	"github.com/Faultbox/midgard-skin/internal/skeleton"
	"github.com/Faultbox/midgard-skin/internal/source"
	"github.com/Faultbox/midgard-skin/pkg/math"
)

var (
	ErrNoSkeleton = errors.New("jsonasset: model has no skeleton bones")
	ErrBoneID     = errors.New("jsonasset: bone without Id")
	ErrMatrix     = errors.New("jsonasset: offset is not a 4x4 matrix")
	ErrKey        = errors.New("jsonasset: malformed key")
)

// ModelFile is the decoded model file. Mesh data is ignored.
type ModelFile struct {
	Skeleton struct {
		Bones []BoneRecord `json:"Bones"`
	} `json:"Skeleton"`
}

// BoneRecord is one skeleton bone.
type BoneRecord struct {
	ID         *int        `json:"Id"`
	Name       string      `json:"Name"`
	ParentName string      `json:"ParentName"`
	ParentID   *int        `json:"ParentId"`
	Offset     [][]float32 `json:"Offset"`
}

// AnimationFile is the decoded animation file.
type AnimationFile struct {
	Animations []ClipRecord `json:"Animations"`
}

// ClipRecord is one clip.
type ClipRecord struct {
	Name  string        `json:"Name"`
	Bones []TrackRecord `json:"Bones"`
}

// TrackRecord holds the keys of one bone.
type TrackRecord struct {
	Name            string      `json:"Name"`
	TranslationKeys []KeyRecord `json:"TranslationKeys"`
	RotationKeys    []KeyRecord `json:"RotationKeys"`
	ScaleKeys       []KeyRecord `json:"ScaleKeys"`
}

// KeyRecord is a key of any kind; only the field matching its list is set.
type KeyRecord struct {
	Time     *float32  `json:"Time"`
	Position []float32 `json:"Position"`
	Rotation []float32 `json:"Rotation"`
	Scale    []float32 `json:"Scale"`
}

// ReadModel decodes a model file.
func ReadModel(r io.Reader) (*ModelFile, error) {
	var m ModelFile
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("decoding model: %w", err)
	}
	return &m, nil
}

// ReadAnimations decodes an animation file.
func ReadAnimations(r io.Reader) (*AnimationFile, error) {
	var a AnimationFile
	if err := json.NewDecoder(r).Decode(&a); err != nil {
		return nil, fmt.Errorf("decoding animations: %w", err)
	}
	return &a, nil
}

// Joints converts the skeleton bones. ParentId below zero marks a root;
// a missing ParentId falls back to ParentName. A missing Offset is identity.
func (m *ModelFile) Joints() ([]skeleton.ParentJoint, error) {
	bones := m.Skeleton.Bones
	if len(bones) == 0 {
		return nil, ErrNoSkeleton
	}

	idByName := make(map[string]int, len(bones))
	for _, b := range bones {
		if b.ID == nil {
			return nil, fmt.Errorf("%w: %q", ErrBoneID, b.Name)
		}
		if _, ok := idByName[b.Name]; !ok {
			idByName[b.Name] = *b.ID
		}
	}

	joints := make([]skeleton.ParentJoint, 0, len(bones))
	for _, b := range bones {
		ibm, err := offsetMatrix(b.Offset)
		if err != nil {
			return nil, fmt.Errorf("bone %q: %w", b.Name, err)
		}

		parent := skeleton.NoParent
		switch {
		case b.ParentID != nil:
			if *b.ParentID >= 0 {
				parent = *b.ParentID
			}
		case b.ParentName != "":
			if id, ok := idByName[b.ParentName]; ok {
				parent = id
			}
		}

		joints = append(joints, skeleton.ParentJoint{
			Name:        b.Name,
			Index:       *b.ID,
			Parent:      parent,
			InverseBind: ibm,
		})
	}
	return joints, nil
}

func offsetMatrix(rows [][]float32) (math.Mat4, error) {
	if len(rows) == 0 {
		return math.Identity(), nil
	}
	if len(rows) != 4 {
		return math.Mat4{}, fmt.Errorf("%w: %d columns", ErrMatrix, len(rows))
	}
	var cols [4][4]float32
	for c, col := range rows {
		if len(col) != 4 {
			return math.Mat4{}, fmt.Errorf("%w: column %d has %d values", ErrMatrix, c, len(col))
		}
		copy(cols[c][:], col)
	}
	return math.FromColumns(cols), nil
}

// Tracks converts the clip's bones into name-addressed tracks.
func (c *ClipRecord) Tracks() ([]animation.Track, error) {
	tracks := make([]animation.Track, 0, len(c.Bones))
	for _, b := range c.Bones {
		tr := animation.Track{BoneName: b.Name}

		for i, k := range b.TranslationKeys {
			t, v, err := vec3Key(k, k.Position)
			if err != nil {
				return nil, fmt.Errorf("bone %q translation key %d: %w", b.Name, i, err)
			}
			tr.TranslationKeys = append(tr.TranslationKeys, animation.KeyTranslation{Timestamp: t, Translation: v})
		}
		for i, k := range b.RotationKeys {
			if k.Time == nil {
				return nil, fmt.Errorf("bone %q rotation key %d: %w", b.Name, i, animation.ErrEmptyTimestamps)
			}
			if len(k.Rotation) != 4 {
				return nil, fmt.Errorf("bone %q rotation key %d: %w: %d values", b.Name, i, ErrKey, len(k.Rotation))
			}
			q := math.QuatFromXYZW([4]float32{k.Rotation[0], k.Rotation[1], k.Rotation[2], k.Rotation[3]})
			tr.RotationKeys = append(tr.RotationKeys, animation.KeyRotation{Timestamp: *k.Time, Rotation: q})
		}
		for i, k := range b.ScaleKeys {
			t, v, err := vec3Key(k, k.Scale)
			if err != nil {
				return nil, fmt.Errorf("bone %q scale key %d: %w", b.Name, i, err)
			}
			tr.ScaleKeys = append(tr.ScaleKeys, animation.KeyScale{Timestamp: t, Scale: v})
		}

		tracks = append(tracks, tr)
	}
	return tracks, nil
}

func vec3Key(k KeyRecord, v []float32) (float32, math.Vec3, error) {
	if k.Time == nil {
		return 0, math.Vec3{}, animation.ErrEmptyTimestamps
	}
	if len(v) != 3 {
		return 0, math.Vec3{}, fmt.Errorf("%w: %d values", ErrKey, len(v))
	}
	return *k.Time, math.Vec3{v[0], v[1], v[2]}, nil
}

// Decode builds an asset from already decoded files. anims may be nil.
func Decode(name string, model *ModelFile, anims *AnimationFile, opts source.Options) (*source.Asset, error) {
	joints, err := model.Joints()
	if err != nil {
		return nil, err
	}
	skel, err := skeleton.FromParents(name, joints, opts.SkeletonOptions())
	if err != nil {
		return nil, err
	}

	asset := &source.Asset{Name: name, Skeleton: skel}
	if anims == nil {
		return asset, nil
	}

	for i := range anims.Animations {
		rec := &anims.Animations[i]
		tracks, err := rec.Tracks()
		if err != nil {
			return nil, fmt.Errorf("clip %q: %w", rec.Name, err)
		}
		clip, err := animation.FromTracks(rec.Name, tracks, skel, opts.BindOptions())
		if err != nil {
			return nil, fmt.Errorf("clip %q: %w", rec.Name, err)
		}
		asset.Clips = append(asset.Clips, clip)
	}
	return asset, nil
}

// Load reads a model file and, if animationsPath is not empty, its
// animation file.
func Load(modelPath, animationsPath string, opts source.Options) (*source.Asset, error) {
	model, err := readFile(modelPath, ReadModel)
	if err != nil {
		return nil, err
	}

	var anims *AnimationFile
	if animationsPath != "" {
		if anims, err = readFile(animationsPath, ReadAnimations); err != nil {
			return nil, err
		}
	}

	asset, err := Decode(source.Name(modelPath), model, anims, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", modelPath, err)
	}
	return asset, nil
}

func readFile[T any](path string, read func(io.Reader) (*T, error)) (*T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	v, err := read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}
