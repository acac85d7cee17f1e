// Package schema coerces partial or malformed document input into the
// canonical document model. Missing fields get documented defaults and
// out-of-range numbers are clamped; only structural violations (a missing
// variant discriminant, an unknown layer reference, a group cycle) fail.
package schema

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"time"

	"github.com/brandlane/brandlane/studio-go/internal/document"
	"github.com/brandlane/brandlane/studio-go/internal/typeid"
)

// DefaultMaxDepth bounds group nesting for pathological or cyclic input.
const DefaultMaxDepth = 32

// Per-field clamp ranges.
const (
	MinFontSize    = 8
	MaxFontSize    = 500
	MaxStrokeWidth = 100
	MinFPS         = 1
	MaxFPS         = 240
	MinDimension   = 1
	MaxDimension   = 16384
)

// DefaultColor is the fallback for unparseable color strings.
const DefaultColor = "#000000"

type Options struct {
	MaxDepth int // 0 means DefaultMaxDepth
	Now      time.Time
}

var hexColorRe = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)

var blendModes = map[string]bool{
	"normal":   true,
	"multiply": true,
	"screen":   true,
	"overlay":  true,
	"darken":   true,
	"lighten":  true,
}

// Validate coerces the input into a valid Document. The returned document
// satisfies every model invariant; the input is never mutated.
func Validate(in *DocumentInput, opts Options) (*document.Document, error) {
	if in == nil {
		return nil, structural("document", "missing document")
	}

	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()

	kind, err := resolveKind(in)
	if err != nil {
		return nil, err
	}

	doc := &document.Document{
		ID:        orNewID(in.ID, typeid.NewDocumentID),
		Title:     strOr(in.Title, "Untitled"),
		Kind:      kind,
		OwnerID:   in.OwnerID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if in.BrandKit != nil {
		doc.BrandKit = validateBrandKit(in.BrandKit)
	}

	switch kind {
	case document.KindDesign:
		pages, err := validatePages(in.Pages, maxDepth)
		if err != nil {
			return nil, err
		}
		doc.Pages = pages
	case document.KindVideo:
		tl, err := validateTimeline(in.Timeline)
		if err != nil {
			return nil, err
		}
		doc.Timeline = tl
	}

	return doc, nil
}

// resolveKind decides the document kind. An explicit unknown kind is a
// structural failure since it discriminates the whole tree shape; an absent
// kind is inferred from which half of the tree is present.
func resolveKind(in *DocumentInput) (document.Kind, error) {
	if in.Kind == nil {
		if in.Timeline != nil && len(in.Pages) == 0 {
			return document.KindVideo, nil
		}
		return document.KindDesign, nil
	}
	switch document.Kind(*in.Kind) {
	case document.KindDesign:
		return document.KindDesign, nil
	case document.KindVideo:
		return document.KindVideo, nil
	default:
		return "", structural("kind", "unknown document kind %q", *in.Kind)
	}
}

func validatePages(inputs []PageInput, maxDepth int) ([]document.Page, error) {
	if len(inputs) == 0 {
		// A design document degrades to a single blank page.
		return []document.Page{{
			ID:         typeid.NewPageID(),
			Width:      1080,
			Height:     1080,
			Background: "#ffffff",
			Layers:     map[string]document.Layer{},
			Order:      []string{},
		}}, nil
	}

	type ranked struct {
		page document.Page
		rank int
	}
	out := make([]ranked, 0, len(inputs))

	for i, pi := range inputs {
		path := fmt.Sprintf("pages[%d]", i)
		layers, order, err := validateLayers(pi.Layers, path, maxDepth)
		if err != nil {
			return nil, err
		}
		out = append(out, ranked{
			page: document.Page{
				ID:         orNewID(pi.ID, typeid.NewPageID),
				Width:      clamp(floatOr(pi.Width, 1080), MinDimension, MaxDimension),
				Height:     clamp(floatOr(pi.Height, 1080), MinDimension, MaxDimension),
				Background: colorOr(pi.Background, "#ffffff"),
				Layers:     layers,
				Order:      order,
			},
			rank: intOr(pi.SortOrder, i),
		})
	}

	sort.SliceStable(out, func(a, b int) bool { return out[a].rank < out[b].rank })

	pages := make([]document.Page, len(out))
	for i := range out {
		out[i].page.SortOrder = i
		pages[i] = out[i].page
	}
	return pages, nil
}

// validateLayers validates a page's flat layer list into an arena. Group
// membership comes from the group variants' children lists; parent fields in
// the input are ignored in favor of them.
func validateLayers(inputs []LayerInput, pagePath string, maxDepth int) (map[string]document.Layer, []string, error) {
	layers := make(map[string]document.Layer, len(inputs))
	inputOrder := make([]string, 0, len(inputs))

	for i := range inputs {
		path := fmt.Sprintf("%s.layers[%d]", pagePath, i)
		layer, err := validateLayer(&inputs[i], path)
		if err != nil {
			return nil, nil, err
		}
		if _, dup := layers[layer.ID]; dup {
			return nil, nil, structural(path+".id", "duplicate layer id %q", layer.ID)
		}
		layers[layer.ID] = layer
		inputOrder = append(inputOrder, layer.ID)
	}

	// Wire parents from group children and reject double membership.
	parents := make(map[string]string)
	for _, id := range inputOrder {
		l := layers[id]
		if l.Type != document.LayerGroup {
			continue
		}
		for _, childID := range l.Group.Children {
			child, ok := layers[childID]
			if !ok {
				return nil, nil, structural(pagePath, "group %q references unknown layer %q", id, childID)
			}
			if prev, claimed := parents[childID]; claimed {
				return nil, nil, structural(pagePath, "layer %q claimed by groups %q and %q", childID, prev, id)
			}
			parents[childID] = id
			pid := id
			child.Parent = &pid
			layers[childID] = child
		}
	}

	// Top-level order: unparented layers in rank order (stable on input order).
	type ranked struct {
		id   string
		rank int
	}
	var tops []ranked
	for _, id := range inputOrder {
		if _, hasParent := parents[id]; !hasParent {
			tops = append(tops, ranked{id: id, rank: layers[id].SortOrder})
		}
	}
	sort.SliceStable(tops, func(a, b int) bool { return tops[a].rank < tops[b].rank })

	order := make([]string, len(tops))
	for i, t := range tops {
		order[i] = t.id
		l := layers[t.id]
		l.SortOrder = i
		layers[t.id] = l
	}

	if err := checkNesting(layers, order, pagePath, maxDepth); err != nil {
		return nil, nil, err
	}

	return layers, order, nil
}

// checkNesting walks the group tree from the roots enforcing the depth limit,
// then verifies every layer was reached. A group that contains itself,
// directly or transitively, is its own ancestor and therefore never reachable
// from a root; leftover unvisited layers reveal exactly those cycles.
func checkNesting(layers map[string]document.Layer, roots []string, pagePath string, maxDepth int) error {
	visited := make(map[string]bool, len(layers))

	var walk func(id string, depth int) error
	walk = func(id string, depth int) error {
		if depth > maxDepth {
			return fmt.Errorf("%s: layer %q nested deeper than %d: %w", pagePath, id, maxDepth, ErrMaxDepthExceeded)
		}
		if visited[id] {
			return fmt.Errorf("%s: layer %q reached twice, cyclic grouping: %w", pagePath, id, ErrMaxDepthExceeded)
		}
		visited[id] = true
		l := layers[id]
		if l.Type == document.LayerGroup {
			for _, childID := range l.Group.Children {
				if err := walk(childID, depth+1); err != nil {
					return err
				}
			}
		}
		return nil
	}

	for _, id := range roots {
		if err := walk(id, 1); err != nil {
			return err
		}
	}

	for id := range layers {
		if !visited[id] {
			return fmt.Errorf("%s: layer %q unreachable from page roots, cyclic grouping: %w", pagePath, id, ErrMaxDepthExceeded)
		}
	}
	return nil
}

func validateLayer(in *LayerInput, path string) (document.Layer, error) {
	if in.Type == nil {
		return document.Layer{}, structural(path+".type", "missing layer type discriminant")
	}

	layer := document.Layer{
		ID:   orNewID(in.ID, typeid.NewLayerID),
		Type: document.LayerType(*in.Type),
		Transform: document.Transform{
			X:  floatOr(in.X, 0),
			Y:  floatOr(in.Y, 0),
			SX: floatOr(in.SX, 1),
			SY: floatOr(in.SY, 1),
			R:  normalizeRotation(floatOr(in.R, 0)),
		},
		Opacity:   clamp(floatOr(in.Opacity, 1), 0, 1),
		Blend:     blendOr(in.Blend),
		Visible:   boolOr(in.Visible, true),
		Locked:    boolOr(in.Locked, false),
		Masks:     in.Masks,
		SortOrder: intOr(in.SortOrder, 0),
	}

	for _, adj := range in.Adjustments {
		if adj.Type == nil {
			continue // an adjustment without a type is inert, drop it
		}
		layer.Adjustments = append(layer.Adjustments, document.Adjustment{
			Type:   *adj.Type,
			Amount: floatOr(adj.Amount, 0),
		})
	}

	switch layer.Type {
	case document.LayerText:
		t := in.Text
		if t == nil {
			t = &TextInput{}
		}
		layer.Text = &document.TextPayload{
			Content:    strOr(t.Content, ""),
			FontFamily: strOr(t.FontFamily, "Inter"),
			FontSize:   clamp(floatOr(t.FontSize, 16), MinFontSize, MaxFontSize),
			Color:      colorOr(t.Color, DefaultColor),
			Align:      alignOr(t.Align),
		}
	case document.LayerImage:
		img := in.Image
		if img == nil {
			img = &ImageInput{}
		}
		layer.Image = &document.ImagePayload{
			AssetRef:      strOr(img.AssetRef, ""),
			NaturalWidth:  math.Max(0, floatOr(img.NaturalWidth, 0)),
			NaturalHeight: math.Max(0, floatOr(img.NaturalHeight, 0)),
			Fit:           fitOr(img.Fit),
		}
	case document.LayerShape:
		sh := in.Shape
		if sh == nil {
			sh = &ShapeInput{}
		}
		layer.Shape = &document.ShapePayload{
			Shape:       shapeKindOr(sh.Shape),
			Fill:        colorOr(sh.Fill, DefaultColor),
			Stroke:      colorOr(sh.Stroke, ""),
			StrokeWidth: clamp(floatOr(sh.StrokeWidth, 0), 0, MaxStrokeWidth),
			Path:        strOr(sh.Path, ""),
		}
	case document.LayerGroup:
		layer.Group = &document.GroupPayload{Children: append([]string(nil), in.Children...)}
	default:
		return document.Layer{}, structural(path+".type", "unknown layer type %q", *in.Type)
	}

	return layer, nil
}

func validateTimeline(in *TimelineInput) (*document.Timeline, error) {
	if in == nil {
		in = &TimelineInput{}
	}

	tl := &document.Timeline{
		ID:       orNewID(in.ID, typeid.NewTimelineID),
		FPS:      clamp(floatOr(in.FPS, 30), MinFPS, MaxFPS),
		Duration: math.Max(0, floatOr(in.Duration, 0)),
	}

	type ranked struct {
		track document.Track
		rank  int
	}
	out := make([]ranked, 0, len(in.Tracks))

	for i, ti := range in.Tracks {
		path := fmt.Sprintf("timeline.tracks[%d]", i)
		clips, err := validateClips(ti.Clips, path)
		if err != nil {
			return nil, err
		}
		out = append(out, ranked{
			track: document.Track{
				ID:    orNewID(ti.ID, typeid.NewTrackID),
				Type:  trackTypeOr(ti.Type),
				Clips: clips,
			},
			rank: intOr(ti.SortOrder, i),
		})
	}

	sort.SliceStable(out, func(a, b int) bool { return out[a].rank < out[b].rank })
	for i := range out {
		out[i].track.SortOrder = i
		tl.Tracks = append(tl.Tracks, out[i].track)
	}
	if tl.Tracks == nil {
		tl.Tracks = []document.Track{}
	}
	return tl, nil
}

func validateClips(inputs []ClipInput, trackPath string) ([]document.Clip, error) {
	clips := make([]document.Clip, 0, len(inputs))

	for i, ci := range inputs {
		path := fmt.Sprintf("%s.clips[%d]", trackPath, i)
		in := math.Max(0, floatOr(ci.In, 0))
		out := floatOr(ci.Out, in+1)
		if out <= in {
			// Cross-field trim invariant, not a single-field range: fail loud.
			return nil, structural(path, "trim out point %v must exceed in point %v", out, in)
		}

		clip := document.Clip{
			ID:        orNewID(ci.ID, typeid.NewClipID),
			SourceRef: strOr(ci.SourceRef, ""),
			In:        in,
			Out:       out,
			Start:     math.Max(0, floatOr(ci.Start, 0)),
		}
		for _, kf := range ci.Keyframes {
			clip.Keyframes = append(clip.Keyframes, document.Keyframe{
				Time:     math.Max(0, floatOr(kf.Time, 0)),
				Property: strOr(kf.Property, ""),
				Value:    floatOr(kf.Value, 0),
				Easing:   easingOr(kf.Easing),
			})
		}
		for _, ef := range ci.Effects {
			if ef.Type == nil {
				continue
			}
			clip.Effects = append(clip.Effects, document.Effect{Type: *ef.Type, Params: ef.Params})
		}
		clips = append(clips, clip)
	}

	// Clip ordering within a track is by start offset; keep ties stable.
	sort.SliceStable(clips, func(a, b int) bool { return clips[a].Start < clips[b].Start })
	for i := range clips {
		clips[i].SortOrder = i
	}
	return clips, nil
}

func validateBrandKit(in *BrandKitInput) *document.BrandKit {
	kit := &document.BrandKit{
		ID:      orNewID(in.ID, typeid.NewBrandKitID),
		LogoRef: strOr(in.LogoRef, ""),
		Fonts:   append([]string(nil), in.Fonts...),
	}
	for i, c := range in.Colors {
		kit.Colors = append(kit.Colors, document.NamedColor{
			Name:  strOr(c.Name, fmt.Sprintf("color-%d", i+1)),
			Value: colorOr(c.Value, DefaultColor),
		})
	}
	return kit
}

// --- defaulting helpers ---

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// normalizeRotation maps any angle into [0,360).
func normalizeRotation(deg float64) float64 {
	r := math.Mod(deg, 360)
	if r < 0 {
		r += 360
	}
	return r
}

func orNewID(id string, gen func() string) string {
	if id == "" {
		return gen()
	}
	return id
}

func strOr(v *string, def string) string {
	if v == nil {
		return def
	}
	return *v
}

func floatOr(v *float64, def float64) float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return def
	}
	return *v
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

// colorOr accepts #rgb, #rrggbb and #rrggbbaa; anything else degrades to def.
func colorOr(v *string, def string) string {
	if v == nil || *v == "" {
		return def
	}
	if !hexColorRe.MatchString(*v) {
		return DefaultColor
	}
	return *v
}

func blendOr(v *string) string {
	if v == nil || !blendModes[*v] {
		return "normal"
	}
	return *v
}

func alignOr(v *string) string {
	s := strOr(v, "left")
	switch s {
	case "left", "center", "right", "justify":
		return s
	default:
		return "left"
	}
}

func fitOr(v *string) string {
	s := strOr(v, "cover")
	switch s {
	case "cover", "contain", "fill":
		return s
	default:
		return "cover"
	}
}

func shapeKindOr(v *string) document.ShapeKind {
	switch k := document.ShapeKind(strOr(v, "rect")); k {
	case document.ShapeRect, document.ShapeEllipse, document.ShapePath:
		return k
	default:
		return document.ShapeRect
	}
}

func trackTypeOr(v *string) document.TrackType {
	switch t := document.TrackType(strOr(v, "video")); t {
	case document.TrackVideo, document.TrackAudio, document.TrackOverlay:
		return t
	default:
		return document.TrackVideo
	}
}

func easingOr(v *string) string {
	s := strOr(v, "linear")
	switch s {
	case "linear", "easeIn", "easeOut", "easeInOut":
		return s
	default:
		return "linear"
	}
}
