package document

import "time"

// Kind selects which half of the document tree is populated.
type Kind string

const (
	KindDesign Kind = "design"
	KindVideo  Kind = "video"
)

// Document is the root aggregate. Exactly one of Pages or Timeline is
// populated, determined by Kind.
type Document struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Kind      Kind       `json:"kind"`
	OwnerID   string     `json:"ownerId"`
	BrandKit  *BrandKit  `json:"brandKit,omitempty"`
	Pages     []Page     `json:"pages,omitempty"`
	Timeline  *Timeline  `json:"timeline,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Page holds its layers as an arena keyed by id. Order lists the top-level
// layer ids in paint order; group layers list their children by id.
type Page struct {
	ID         string           `json:"id"`
	Width      float64          `json:"width"`
	Height     float64          `json:"height"`
	Background string           `json:"background"`
	Layers     map[string]Layer `json:"layers"`
	Order      []string         `json:"order"`
	SortOrder  int              `json:"sortOrder"`
}

// LayerType discriminates the layer variants.
type LayerType string

const (
	LayerText  LayerType = "text"
	LayerImage LayerType = "image"
	LayerShape LayerType = "shape"
	LayerGroup LayerType = "group"
)

type Transform struct {
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	SX float64 `json:"sx"`
	SY float64 `json:"sy"`
	R  float64 `json:"r"` // degrees, normalized to [0,360)
}

// Layer is polymorphic over its Type: exactly one of the payload pointers
// matching Type is set.
type Layer struct {
	ID          string       `json:"id"`
	Type        LayerType    `json:"type"`
	Parent      *string      `json:"parent,omitempty"` // nil for top-level layers
	Transform   Transform    `json:"transform"`
	Opacity     float64      `json:"opacity"`
	Blend       string       `json:"blend"`
	Visible     bool         `json:"visible"`
	Locked      bool         `json:"locked"`
	Masks       []string     `json:"masks,omitempty"`
	Adjustments []Adjustment `json:"adjustments,omitempty"`
	SortOrder   int          `json:"sortOrder"`

	Text  *TextPayload  `json:"text,omitempty"`
	Image *ImagePayload `json:"image,omitempty"`
	Shape *ShapePayload `json:"shape,omitempty"`
	Group *GroupPayload `json:"group,omitempty"`
}

type Adjustment struct {
	Type   string  `json:"type"`
	Amount float64 `json:"amount"`
}

type TextPayload struct {
	Content    string  `json:"content"`
	FontFamily string  `json:"fontFamily"`
	FontSize   float64 `json:"fontSize"`
	Color      string  `json:"color"`
	Align      string  `json:"align"`
}

type ImagePayload struct {
	AssetRef      string  `json:"assetRef"`
	NaturalWidth  float64 `json:"naturalWidth"`
	NaturalHeight float64 `json:"naturalHeight"`
	Fit           string  `json:"fit"`
}

type ShapeKind string

const (
	ShapeRect    ShapeKind = "rect"
	ShapeEllipse ShapeKind = "ellipse"
	ShapePath    ShapeKind = "path"
)

type ShapePayload struct {
	Shape       ShapeKind `json:"shape"`
	Fill        string    `json:"fill"`
	Stroke      string    `json:"stroke"`
	StrokeWidth float64   `json:"strokeWidth"`
	Path        string    `json:"path,omitempty"` // SVG path data for ShapePath
}

// GroupPayload lists child layer ids in paint order. The children live in the
// owning page's arena, never nested inline, so id-addressed patches and cycle
// checks stay cheap.
type GroupPayload struct {
	Children []string `json:"children"`
}

type Timeline struct {
	ID       string  `json:"id"`
	FPS      float64 `json:"fps"`      // > 0
	Duration float64 `json:"duration"` // seconds, >= 0
	Tracks   []Track `json:"tracks"`
}

type TrackType string

const (
	TrackVideo   TrackType = "video"
	TrackAudio   TrackType = "audio"
	TrackOverlay TrackType = "overlay"
)

type Track struct {
	ID        string    `json:"id"`
	Type      TrackType `json:"type"`
	Clips     []Clip    `json:"clips"`
	SortOrder int       `json:"sortOrder"`
}

// Clip invariant: Out > In. Clips within a track are kept ordered by Start;
// the model does not forbid overlap.
type Clip struct {
	ID        string     `json:"id"`
	SourceRef string     `json:"sourceRef"`
	In        float64    `json:"in"`
	Out       float64    `json:"out"`
	Start     float64    `json:"start"`
	Keyframes []Keyframe `json:"keyframes,omitempty"`
	Effects   []Effect   `json:"effects,omitempty"`
	SortOrder int        `json:"sortOrder"`
}

type Keyframe struct {
	Time     float64 `json:"time"`
	Property string  `json:"property"`
	Value    float64 `json:"value"`
	Easing   string  `json:"easing"`
}

type Effect struct {
	Type   string             `json:"type"`
	Params map[string]float64 `json:"params,omitempty"`
}

type BrandKit struct {
	ID      string       `json:"id"`
	Colors  []NamedColor `json:"colors"`
	Fonts   []string     `json:"fonts"`
	LogoRef string       `json:"logoRef,omitempty"`
}

type NamedColor struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Touch bumps the modification timestamp.
func (d *Document) Touch(now time.Time) {
	d.UpdatedAt = now.UTC()
}
