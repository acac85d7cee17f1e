package typeid

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

const (
	PrefixDocument = "doc"
	PrefixPage     = "page"
	PrefixLayer    = "layer"
	PrefixTimeline = "tl"
	PrefixTrack    = "track"
	PrefixClip     = "clip"
	PrefixBrandKit = "brand"
	PrefixNode     = "node"
	PrefixSnapshot = "snap"
	PrefixScene    = "scene"
	PrefixFile     = "file"
)

func New(prefix string) string {
	id := typeid.MustGenerate(prefix)
	return id.String()
}

func NewDocumentID() string { return New(PrefixDocument) }
func NewPageID() string     { return New(PrefixPage) }
func NewLayerID() string    { return New(PrefixLayer) }
func NewTimelineID() string { return New(PrefixTimeline) }
func NewTrackID() string    { return New(PrefixTrack) }
func NewClipID() string     { return New(PrefixClip) }
func NewBrandKitID() string { return New(PrefixBrandKit) }
func NewNodeID() string     { return New(PrefixNode) }
func NewSnapshotID() string { return New(PrefixSnapshot) }
func NewSceneID() string    { return New(PrefixScene) }
func NewFileID() string     { return New(PrefixFile) }

func Validate(id, expectedPrefix string) error {
	parsed, err := typeid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid typeid %q: %w", id, err)
	}
	if parsed.Prefix() != expectedPrefix {
		return fmt.Errorf("expected prefix %q but got %q in id %q", expectedPrefix, parsed.Prefix(), id)
	}
	return nil
}
