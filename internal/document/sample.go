package document

import (
	"time"

	"github.com/brandlane/brandlane/studio-go/internal/typeid"
)

// NewEmptyDesign creates a design document with one blank page.
func NewEmptyDesign(title, ownerID string) *Document {
	now := time.Now().UTC()
	return &Document{
		ID:      typeid.NewDocumentID(),
		Title:   title,
		Kind:    KindDesign,
		OwnerID: ownerID,
		Pages: []Page{
			{
				ID:         typeid.NewPageID(),
				Width:      1080,
				Height:     1080,
				Background: "#ffffff",
				Layers:     map[string]Layer{},
				Order:      []string{},
				SortOrder:  0,
			},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewEmptyVideo creates a video document with a single empty video track.
func NewEmptyVideo(title, ownerID string) *Document {
	now := time.Now().UTC()
	return &Document{
		ID:      typeid.NewDocumentID(),
		Title:   title,
		Kind:    KindVideo,
		OwnerID: ownerID,
		Timeline: &Timeline{
			ID:       typeid.NewTimelineID(),
			FPS:      30,
			Duration: 0,
			Tracks: []Track{
				{ID: typeid.NewTrackID(), Type: TrackVideo, Clips: []Clip{}, SortOrder: 0},
			},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewSampleDesign creates a small design document used by the CLI demo and tests.
func NewSampleDesign(ownerID string) *Document {
	doc := NewEmptyDesign("Sample", ownerID)
	page := &doc.Pages[0]

	bgID := typeid.NewLayerID()
	headingID := typeid.NewLayerID()
	groupID := typeid.NewLayerID()
	badgeID := typeid.NewLayerID()

	groupIDPtr := groupID

	page.Layers[bgID] = Layer{
		ID:        bgID,
		Type:      LayerShape,
		Transform: Transform{SX: 1, SY: 1},
		Opacity:   1,
		Blend:     "normal",
		Visible:   true,
		SortOrder: 0,
		Shape: &ShapePayload{
			Shape: ShapeRect,
			Fill:  "#1a1a2e",
		},
	}
	page.Layers[headingID] = Layer{
		ID:        headingID,
		Type:      LayerText,
		Transform: Transform{X: 120, Y: 96, SX: 1, SY: 1},
		Opacity:   1,
		Blend:     "normal",
		Visible:   true,
		SortOrder: 1,
		Text: &TextPayload{
			Content:    "Hello, studio",
			FontFamily: "Inter",
			FontSize:   64,
			Color:      "#ffffff",
			Align:      "left",
		},
	}
	page.Layers[groupID] = Layer{
		ID:        groupID,
		Type:      LayerGroup,
		Transform: Transform{X: 120, Y: 240, SX: 1, SY: 1},
		Opacity:   1,
		Blend:     "normal",
		Visible:   true,
		SortOrder: 2,
		Group:     &GroupPayload{Children: []string{badgeID}},
	}
	page.Layers[badgeID] = Layer{
		ID:        badgeID,
		Type:      LayerShape,
		Parent:    &groupIDPtr,
		Transform: Transform{SX: 1, SY: 1},
		Opacity:   0.9,
		Blend:     "normal",
		Visible:   true,
		SortOrder: 0,
		Shape: &ShapePayload{
			Shape:       ShapeEllipse,
			Fill:        "#e94560",
			Stroke:      "#ffffff",
			StrokeWidth: 2,
		},
	}
	page.Order = []string{bgID, headingID, groupID}

	doc.BrandKit = &BrandKit{
		ID: typeid.NewBrandKitID(),
		Colors: []NamedColor{
			{Name: "ink", Value: "#1a1a2e"},
			{Name: "accent", Value: "#e94560"},
		},
		Fonts: []string{"Inter"},
	}

	return doc
}
