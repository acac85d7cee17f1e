package schema

// Input types mirror the document model with optional fields as pointers so
// that "absent" and "zero" stay distinguishable. AI-generated or partial JSON
// decodes into these and Validate coerces them into a canonical document.

type DocumentInput struct {
	ID       string          `json:"id,omitempty"`
	Title    *string         `json:"title,omitempty"`
	Kind     *string         `json:"kind,omitempty"`
	OwnerID  string          `json:"ownerId,omitempty"`
	BrandKit *BrandKitInput  `json:"brandKit,omitempty"`
	Pages    []PageInput     `json:"pages,omitempty"`
	Timeline *TimelineInput  `json:"timeline,omitempty"`
}

type PageInput struct {
	ID         string       `json:"id,omitempty"`
	Width      *float64     `json:"width,omitempty"`
	Height     *float64     `json:"height,omitempty"`
	Background *string      `json:"background,omitempty"`
	Layers     []LayerInput `json:"layers,omitempty"`
	SortOrder  *int         `json:"sortOrder,omitempty"`
}

// LayerInput is flat: group membership is expressed through Parent and
// Children ids, matching the arena representation of the model.
type LayerInput struct {
	ID          string            `json:"id,omitempty"`
	Type        *string           `json:"type,omitempty"`
	Parent      *string           `json:"parent,omitempty"`
	X           *float64          `json:"x,omitempty"`
	Y           *float64          `json:"y,omitempty"`
	SX          *float64          `json:"sx,omitempty"`
	SY          *float64          `json:"sy,omitempty"`
	R           *float64          `json:"r,omitempty"`
	Opacity     *float64          `json:"opacity,omitempty"`
	Blend       *string           `json:"blend,omitempty"`
	Visible     *bool             `json:"visible,omitempty"`
	Locked      *bool             `json:"locked,omitempty"`
	Masks       []string          `json:"masks,omitempty"`
	Adjustments []AdjustmentInput `json:"adjustments,omitempty"`
	SortOrder   *int              `json:"sortOrder,omitempty"`

	Text     *TextInput  `json:"text,omitempty"`
	Image    *ImageInput `json:"image,omitempty"`
	Shape    *ShapeInput `json:"shape,omitempty"`
	Children []string    `json:"children,omitempty"` // group variant payload
}

type AdjustmentInput struct {
	Type   *string  `json:"type,omitempty"`
	Amount *float64 `json:"amount,omitempty"`
}

type TextInput struct {
	Content    *string  `json:"content,omitempty"`
	FontFamily *string  `json:"fontFamily,omitempty"`
	FontSize   *float64 `json:"fontSize,omitempty"`
	Color      *string  `json:"color,omitempty"`
	Align      *string  `json:"align,omitempty"`
}

type ImageInput struct {
	AssetRef      *string  `json:"assetRef,omitempty"`
	NaturalWidth  *float64 `json:"naturalWidth,omitempty"`
	NaturalHeight *float64 `json:"naturalHeight,omitempty"`
	Fit           *string  `json:"fit,omitempty"`
}

type ShapeInput struct {
	Shape       *string  `json:"shape,omitempty"`
	Fill        *string  `json:"fill,omitempty"`
	Stroke      *string  `json:"stroke,omitempty"`
	StrokeWidth *float64 `json:"strokeWidth,omitempty"`
	Path        *string  `json:"path,omitempty"`
}

type TimelineInput struct {
	ID       string       `json:"id,omitempty"`
	FPS      *float64     `json:"fps,omitempty"`
	Duration *float64     `json:"duration,omitempty"`
	Tracks   []TrackInput `json:"tracks,omitempty"`
}

type TrackInput struct {
	ID        string      `json:"id,omitempty"`
	Type      *string     `json:"type,omitempty"`
	Clips     []ClipInput `json:"clips,omitempty"`
	SortOrder *int        `json:"sortOrder,omitempty"`
}

type ClipInput struct {
	ID        string          `json:"id,omitempty"`
	SourceRef *string         `json:"sourceRef,omitempty"`
	In        *float64        `json:"in,omitempty"`
	Out       *float64        `json:"out,omitempty"`
	Start     *float64        `json:"start,omitempty"`
	Keyframes []KeyframeInput `json:"keyframes,omitempty"`
	Effects   []EffectInput   `json:"effects,omitempty"`
	SortOrder *int            `json:"sortOrder,omitempty"`
}

type KeyframeInput struct {
	Time     *float64 `json:"time,omitempty"`
	Property *string  `json:"property,omitempty"`
	Value    *float64 `json:"value,omitempty"`
	Easing   *string  `json:"easing,omitempty"`
}

type EffectInput struct {
	Type   *string            `json:"type,omitempty"`
	Params map[string]float64 `json:"params,omitempty"`
}

type BrandKitInput struct {
	ID      string            `json:"id,omitempty"`
	Colors  []NamedColorInput `json:"colors,omitempty"`
	Fonts   []string          `json:"fonts,omitempty"`
	LogoRef *string           `json:"logoRef,omitempty"`
}

type NamedColorInput struct {
	Name  *string `json:"name,omitempty"`
	Value *string `json:"value,omitempty"`
}
