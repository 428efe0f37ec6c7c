package animation

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Faultbox/midgard-skin/internal/skeleton"
	"github.com/Faultbox/midgard-skin/pkg/math"
)

// testSkeleton builds root(0) <- arm(1) <- hand(2).
func testSkeleton(t *testing.T) *skeleton.Skeleton {
	t.Helper()
	sk, err := skeleton.FromParents("test", []skeleton.ParentJoint{
		{Name: "hand", Index: 2, Parent: 1, InverseBind: math.Identity()},
		{Name: "root", Index: 0, Parent: skeleton.NoParent, InverseBind: math.Identity()},
		{Name: "arm", Index: 1, Parent: 0, InverseBind: math.Identity()},
	}, skeleton.Options{})
	if err != nil {
		t.Fatalf("FromParents: %v", err)
	}
	return sk
}

func TestSample(t *testing.T) {
	b := &AnimatedBone{
		TranslationKeys: []KeyTranslation{
			{Timestamp: 0, Translation: math.Vec3{1, 0, 0}},
			{Timestamp: 1, Translation: math.Vec3{2, 0, 0}},
			{Timestamp: 2, Translation: math.Vec3{3, 0, 0}},
		},
		ScaleKeys: []KeyScale{
			{Timestamp: 0, Scale: math.Vec3{2, 2, 2}},
		},
	}

	tests := []struct {
		frame  int
		wantX  float32
		status SampleStatus
	}{
		{0, 1, SampleOK},
		{2, 3, SampleWrapped}, // scale track has one key
		{4, 2, SampleWrapped},
		{-1, 1, SampleOK},
	}

	for _, tt := range tests {
		m, status := b.Sample(tt.frame)
		if got := math.TranslationOf(m)[0]; got != tt.wantX {
			t.Errorf("Sample(%d) translation x: got %v, want %v", tt.frame, got, tt.wantX)
		}
		if status != tt.status {
			t.Errorf("Sample(%d) status: got %v, want %v", tt.frame, status, tt.status)
		}
		if m[0] != 2 {
			t.Errorf("Sample(%d) scale: got %v, want 2", tt.frame, m[0])
		}
	}

	if b.FrameCount() != 3 {
		t.Errorf("FrameCount: got %d, want 3", b.FrameCount())
	}
}

func TestSample_Empty(t *testing.T) {
	m, status := (&AnimatedBone{}).Sample(3)
	if status != SampleEmpty {
		t.Errorf("status: got %v, want SampleEmpty", status)
	}
	if !math.IsIdentity(m) {
		t.Errorf("empty bone should sample identity, got %v", m)
	}
}

func TestBind(t *testing.T) {
	sk := testSkeleton(t)

	channels := []Channel{
		{
			TargetIndex:    10,
			TargetName:     "root",
			TargetChildren: []int{11},
			Path:           PathTranslation,
			Timestamps:     []float32{0, 0.5},
			Vectors:        []math.Vec3{{0, 1, 0}, {0, 2, 0}},
		},
		{
			TargetIndex: 10,
			TargetName:  "root",
			Path:        PathRotation,
			Timestamps:  []float32{0, 0.5},
			Rotations:   []math.Quat{math.QuatIdentity(), math.QuatIdentity()},
		},
		{
			TargetIndex: 11,
			TargetName:  "hand",
			Path:        PathScale,
			Timestamps:  []float32{0},
			Vectors:     []math.Vec3{{3, 3, 3}},
		},
		{
			TargetIndex: 12,
			TargetName:  "tail",
			Path:        PathTranslation,
			Timestamps:  []float32{0},
			Vectors:     []math.Vec3{{0, 0, 0}},
		},
	}

	core, logs := observer.New(zap.WarnLevel)
	anim, err := Bind("walk", channels, sk, BindOptions{Logger: zap.New(core)})
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}

	if len(anim.BoneKeyframes) != 2 || len(anim.BoneKeyframesByName) != 2 {
		t.Fatalf("bound bones: got %d by id, %d by name; want 2", len(anim.BoneKeyframes), len(anim.BoneKeyframesByName))
	}

	root := anim.BoneByName("root")
	if root == nil || root.BoneID != sk.BoneByName("root").ID {
		t.Fatalf("root not bound to skeleton id: %+v", root)
	}
	if anim.Bone(root.BoneID) != root {
		t.Error("id and name maps should share the same bone")
	}
	if len(root.TranslationKeys) != 2 || len(root.RotationKeys) != 2 {
		t.Errorf("root keys: got %d translations, %d rotations", len(root.TranslationKeys), len(root.RotationKeys))
	}
	if root.TranslationKeys[1].Timestamp != 0.5 {
		t.Errorf("timestamp: got %v, want 0.5", root.TranslationKeys[1].Timestamp)
	}

	hand := anim.BoneByName("hand")
	if hand == nil {
		t.Fatal("hand not bound")
	}
	// Channel graph says root is hand's parent, skeleton says arm.
	if hand.ParentIndex != int(root.BoneID) {
		t.Errorf("hand parent: got %d, want %d", hand.ParentIndex, root.BoneID)
	}
	if root.ParentIndex != NoParent {
		t.Errorf("root parent: got %d, want none", root.ParentIndex)
	}

	if len(anim.Warnings) != 1 || !errors.Is(anim.Warnings[0], ErrUnboundChannel) {
		t.Errorf("Warnings: got %v, want one ErrUnboundChannel", anim.Warnings)
	}
	if logs.Len() != 1 {
		t.Errorf("logged warnings: got %d, want 1", logs.Len())
	}

	if anim.FrameCount() != 2 {
		t.Errorf("FrameCount: got %d, want 2", anim.FrameCount())
	}
}

func TestBind_EmptyTimestamps(t *testing.T) {
	sk := testSkeleton(t)
	channels := []Channel{{
		TargetIndex: 0,
		TargetName:  "root",
		Path:        PathTranslation,
		Vectors:     []math.Vec3{{1, 2, 3}},
	}}

	_, err := Bind("broken", channels, sk, BindOptions{})
	if !errors.Is(err, ErrEmptyTimestamps) {
		t.Fatalf("Bind error: got %v, want %v", err, ErrEmptyTimestamps)
	}
}

func TestBind_NilSkeleton(t *testing.T) {
	if _, err := Bind("x", nil, nil, BindOptions{}); !errors.Is(err, ErrNilSkeleton) {
		t.Errorf("Bind error: got %v, want %v", err, ErrNilSkeleton)
	}
	if _, err := FromTracks("x", nil, nil, BindOptions{}); !errors.Is(err, ErrNilSkeleton) {
		t.Errorf("FromTracks error: got %v, want %v", err, ErrNilSkeleton)
	}
}

func TestFromTracks(t *testing.T) {
	sk := testSkeleton(t)
	tracks := []Track{
		{BoneName: "arm", RotationKeys: []KeyRotation{{Rotation: math.QuatIdentity()}}},
		{BoneName: "ghost", ScaleKeys: []KeyScale{{Scale: math.One3()}}},
	}

	anim, err := FromTracks("idle", tracks, sk, BindOptions{})
	if err != nil {
		t.Fatalf("FromTracks: %v", err)
	}

	arm := anim.BoneByName("arm")
	if arm == nil {
		t.Fatal("arm not bound")
	}
	if arm.ParentIndex != int(sk.BoneByName("root").ID) {
		t.Errorf("arm parent: got %d, want root", arm.ParentIndex)
	}
	if anim.BoneByName("ghost") != nil {
		t.Error("unbound track should be dropped")
	}
	if len(anim.Warnings) != 1 {
		t.Errorf("Warnings: got %d, want 1", len(anim.Warnings))
	}
}

func TestDuration(t *testing.T) {
	anim := &Animation{BoneKeyframes: map[uint32]*AnimatedBone{
		0: {TranslationKeys: make([]KeyTranslation, 48)},
	}}
	if got := anim.Duration(1.0 / 24); got.Round(1e6).Seconds() != 2 {
		t.Errorf("Duration: got %v, want 2s", got)
	}
}

func TestBind_RepeatedBoneNames(t *testing.T) {
	sk, err := skeleton.FromParents("twins", []skeleton.ParentJoint{
		{Name: "root", Index: 0, Parent: skeleton.NoParent, InverseBind: math.Identity()},
		{Name: "X", Index: 1, Parent: 0, InverseBind: math.Identity()},
		{Name: "X", Index: 2, Parent: 0, InverseBind: math.Identity()},
	}, skeleton.Options{})
	if err != nil {
		t.Fatalf("FromParents: %v", err)
	}

	channels := []Channel{{
		TargetIndex: 7,
		TargetName:  "X",
		Path:        PathTranslation,
		Timestamps:  []float32{0},
		Vectors:     []math.Vec3{{1, 0, 0}},
	}}
	anim, err := Bind("wave", channels, sk, BindOptions{})
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}

	for _, id := range []uint32{1, 2} {
		b := anim.Bone(id)
		if b == nil {
			t.Fatalf("bone %d not bound", id)
		}
		if len(b.TranslationKeys) != 1 || b.ParentIndex != 0 {
			t.Errorf("bone %d: keys %d parent %d", id, len(b.TranslationKeys), b.ParentIndex)
		}
	}
	if got := anim.BoneByName("X"); got != anim.Bone(1) {
		t.Error("name index should point at the lowest id")
	}

	// A second track for the same name replaces the keys of both bones.
	anim, err = FromTracks("wave", []Track{
		{BoneName: "X", TranslationKeys: []KeyTranslation{{Translation: math.Vec3{1, 0, 0}}}},
		{BoneName: "X", TranslationKeys: []KeyTranslation{{Translation: math.Vec3{2, 0, 0}}}},
	}, sk, BindOptions{})
	if err != nil {
		t.Fatalf("FromTracks: %v", err)
	}
	for _, b := range []*AnimatedBone{anim.Bone(1), anim.Bone(2), anim.BoneByName("X")} {
		if got := b.TranslationKeys[0].Translation; got != (math.Vec3{2, 0, 0}) {
			t.Errorf("bone %d: got %v, want the later track", b.BoneID, got)
		}
	}
}
