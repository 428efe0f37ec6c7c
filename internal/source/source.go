// Package source defines what asset adapters produce: a skeleton and the
// clips bound to it.
package source

import (
	"errors"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-skin/internal/animation"
	"github.com/Faultbox/midgard-skin/internal/skeleton"
)

// ErrNoClips is returned by callers that need at least one clip.
var ErrNoClips = errors.New("source: asset has no animation clips")

// Asset is a loaded skeleton with its clips.
type Asset struct {
	Name     string
	Skeleton *skeleton.Skeleton
	Clips    []*animation.Animation
}

// Clip returns the clip at index i, or nil.
func (a *Asset) Clip(i int) *animation.Animation {
	if i < 0 || i >= len(a.Clips) {
		return nil
	}
	return a.Clips[i]
}

// Warnings returns the binding warnings of all clips.
func (a *Asset) Warnings() []error {
	var out []error
	for _, c := range a.Clips {
		out = append(out, c.Warnings...)
	}
	return out
}

// Options are shared by all adapters.
type Options struct {
	MaxBones int         // Bone cap, see skeleton.Options
	Logger   *zap.Logger // Nil discards
}

// SkeletonOptions returns the skeleton build options.
func (o Options) SkeletonOptions() skeleton.Options {
	return skeleton.Options{MaxBones: o.MaxBones}
}

// BindOptions returns the animation binding options.
func (o Options) BindOptions() animation.BindOptions {
	return animation.BindOptions{Logger: o.Logger}
}

// Format identifies an asset file format.
type Format string

const (
	FormatAuto Format = "auto"
	FormatJSON Format = "json"
	FormatGLTF Format = "gltf"
)

// DetectFormat guesses the format from the file extension.
// Unknown extensions are treated as glTF.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	default:
		return FormatGLTF
	}
}

// Name returns the file name of path without its extension.
func Name(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
