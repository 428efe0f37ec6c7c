package jsonasset

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Faultbox/midgard-skin/internal/animation"
	"github.com/Faultbox/midgard-skin/internal/skeleton"
	"github.com/Faultbox/midgard-skin/internal/source"
	"github.com/Faultbox/midgard-skin/pkg/math"
)

const modelJSON = `{
	"Meshes": [{"Vertices": [{"Position": [0, 0, 0], "BoneIDs": [0, 1, 0, 0]}]}],
	"Skeleton": {
		"Bones": [
			{"Id": 2, "Name": "Hand", "ParentName": "Arm", "ParentId": 1},
			{"Id": 0, "Name": "Hips", "ParentName": "", "ParentId": -1,
			 "Offset": [[1, 0, 0, 0], [0, 1, 0, 0], [0, 0, 1, 0], [0, -1, 0, 1]]},
			{"Id": 1, "Name": "Arm", "ParentName": "Hips"}
		]
	}
}`

const animJSON = `{
	"Animations": [
		{
			"Name": "Wave",
			"Bones": [
				{
					"Name": "Hips",
					"TranslationKeys": [{"Time": 0, "Position": [0, 1, 0]}, {"Time": 0.5, "Position": [0, 2, 0]}],
					"RotationKeys": [{"Time": 0, "Rotation": [0, 0, 0, 1]}, {"Time": 0.5, "Rotation": [0, 0, 0.7071068, 0.7071068]}],
					"ScaleKeys": [{"Time": 0, "Scale": [1, 1, 1]}, {"Time": 0.5, "Scale": [1, 1, 1]}]
				},
				{"Name": "Tail", "TranslationKeys": [{"Time": 0, "Position": [0, 0, 0]}]}
			]
		},
		{"Name": "Idle", "Bones": []}
	]
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func TestReadModel(t *testing.T) {
	m, err := ReadModel(strings.NewReader(modelJSON))
	if err != nil {
		t.Fatalf("ReadModel: %v", err)
	}

	joints, err := m.Joints()
	if err != nil {
		t.Fatalf("Joints: %v", err)
	}
	if len(joints) != 3 {
		t.Fatalf("joints: got %d, want 3", len(joints))
	}

	byName := make(map[string]skeleton.ParentJoint)
	for _, j := range joints {
		byName[j.Name] = j
	}

	if byName["Hips"].Parent != skeleton.NoParent {
		t.Errorf("Hips parent: got %d, want root", byName["Hips"].Parent)
	}
	if byName["Arm"].Parent != 0 {
		t.Errorf("Arm parent from ParentName: got %d, want 0", byName["Arm"].Parent)
	}
	if byName["Hand"].Parent != 1 {
		t.Errorf("Hand parent: got %d, want 1", byName["Hand"].Parent)
	}
	if got := math.TranslationOf(byName["Hips"].InverseBind); got != (math.Vec3{0, -1, 0}) {
		t.Errorf("Hips offset translation: got %v, want (0, -1, 0)", got)
	}
	if !math.IsIdentity(byName["Hand"].InverseBind) {
		t.Error("missing Offset should default to identity")
	}
}

func TestJointsErrors(t *testing.T) {
	tests := []struct {
		name string
		json string
		want error
	}{
		{"no bones", `{"Skeleton": {"Bones": []}}`, ErrNoSkeleton},
		{"no id", `{"Skeleton": {"Bones": [{"Name": "a"}]}}`, ErrBoneID},
		{"short offset", `{"Skeleton": {"Bones": [{"Id": 0, "Name": "a", "Offset": [[1, 0, 0, 0]]}]}}`, ErrMatrix},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ReadModel(strings.NewReader(tt.json))
			if err != nil {
				t.Fatalf("ReadModel: %v", err)
			}
			if _, err := m.Joints(); !errors.Is(err, tt.want) {
				t.Errorf("Joints error: got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestTracksMissingTime(t *testing.T) {
	a, err := ReadAnimations(strings.NewReader(`{"Animations": [{"Name": "x", "Bones": [
		{"Name": "Hips", "ScaleKeys": [{"Scale": [1, 1, 1]}]}]}]}`))
	if err != nil {
		t.Fatalf("ReadAnimations: %v", err)
	}
	if _, err := a.Animations[0].Tracks(); !errors.Is(err, animation.ErrEmptyTimestamps) {
		t.Errorf("Tracks error: got %v, want %v", err, animation.ErrEmptyTimestamps)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	modelPath := writeFile(t, dir, "robot.json", modelJSON)
	animPath := writeFile(t, dir, "robot_anims.json", animJSON)

	asset, err := Load(modelPath, animPath, source.Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if asset.Name != "robot" {
		t.Errorf("Name: got %q, want robot", asset.Name)
	}
	if asset.Skeleton.Len() != 3 {
		t.Errorf("bones: got %d, want 3", asset.Skeleton.Len())
	}
	if asset.Skeleton.BonesOrdered[0].Name != "Hips" {
		t.Errorf("first bone: got %s, want Hips", asset.Skeleton.BonesOrdered[0].Name)
	}
	if len(asset.Clips) != 2 {
		t.Fatalf("clips: got %d, want 2", len(asset.Clips))
	}

	wave := asset.Clip(0)
	if wave.Name != "Wave" || wave.FrameCount() != 2 {
		t.Errorf("Wave: name %q frames %d", wave.Name, wave.FrameCount())
	}
	hips := wave.BoneByName("Hips")
	if hips == nil {
		t.Fatal("Hips not bound")
	}
	if hips.RotationKeys[1].Rotation.V[2] != 0.7071068 {
		t.Errorf("rotation z: got %v", hips.RotationKeys[1].Rotation.V[2])
	}
	if len(asset.Warnings()) != 1 {
		t.Errorf("warnings: got %v, want the unbound Tail track", asset.Warnings())
	}
}

func TestLoadModelOnly(t *testing.T) {
	modelPath := writeFile(t, t.TempDir(), "robot.json", modelJSON)

	asset, err := Load(modelPath, "", source.Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(asset.Clips) != 0 {
		t.Errorf("clips: got %d, want 0", len(asset.Clips))
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := Load(filepath.Join(dir, "missing.json"), "", source.Options{}); err == nil {
		t.Error("Load of a missing file should fail")
	}

	cyclic := writeFile(t, dir, "cyclic.json", `{"Skeleton": {"Bones": [
		{"Id": 0, "Name": "a", "ParentId": 1},
		{"Id": 1, "Name": "b", "ParentId": 0}]}}`)
	if _, err := Load(cyclic, "", source.Options{}); !errors.Is(err, skeleton.ErrCycleOrMissingParent) {
		t.Errorf("Load cyclic: got %v, want %v", err, skeleton.ErrCycleOrMissingParent)
	}

	big := writeFile(t, dir, "big.json", modelJSON)
	if _, err := Load(big, "", source.Options{MaxBones: 2}); !errors.Is(err, skeleton.ErrTooManyBones) {
		t.Errorf("Load over cap: got %v, want %v", err, skeleton.ErrTooManyBones)
	}
}

func TestReadModelRepeatedKey(t *testing.T) {
	m, err := ReadModel(strings.NewReader(`{"Skeleton": {"Bones": [
		{"Id": 0, "Name": "a", "Name": "b", "ParentId": -1}]}}`))
	if err != nil {
		t.Fatalf("ReadModel: %v", err)
	}
	if got := m.Skeleton.Bones[0].Name; got != "b" {
		t.Errorf("Name: got %q, want the last value b", got)
	}
}
