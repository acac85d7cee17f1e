package patch

import (
	"regexp"
	"strings"

	"github.com/brandlane/brandlane/studio-go/internal/scene"
)

// Translate turns a free-form edit instruction into atomic patches against
// the scene. Targets resolve by section/element type matching; an instruction
// that resolves nothing returns an empty list and ErrNoMatchingTarget so a
// caller can keep applying the rest of a batch.
func Translate(s *scene.Scene, instruction string) ([]Patch, error) {
	text := strings.TrimSpace(instruction)
	if text == "" {
		return nil, ErrNoMatchingTarget
	}
	lower := strings.ToLower(text)

	value, quoted := extractValue(text)
	prop := detectProperty(lower)
	value = withUnit(prop, value)

	// A quoted value with no style property (or an explicit "text to") is a
	// content edit, not a style edit.
	isTextEdit := quoted && (prop == "" || strings.Contains(lower, " text "))

	if !isTextEdit && (prop == "" || value == "") {
		return nil, ErrNoMatchingTarget
	}

	if isBulk(lower) {
		return translateBulk(lower, prop, value, isTextEdit)
	}

	targets := resolveTargets(s, lower)
	if len(targets) == 0 {
		return nil, ErrNoMatchingTarget
	}

	patches := make([]Patch, 0, len(targets))
	for _, id := range targets {
		if isTextEdit {
			v := value
			patches = append(patches, Patch{Op: OpUpdateText, NodeID: id, Text: &v})
		} else {
			patches = append(patches, Patch{
				Op:     OpUpdateStyle,
				NodeID: id,
				Props:  map[string]string{prop: value},
			})
		}
	}
	return patches, nil
}

var sectionTypes = []string{"hero", "features", "testimonials", "cta", "nav", "footer"}

// "subheading" precedes "heading" so the substring check picks the most
// specific element word.
var elementTypes = []string{"subheading", "heading", "paragraph", "button", "image", "link", "logo"}

// detectProperty maps instruction phrasing onto a style property. Longer
// phrases are tried first so "background color" never reads as "color".
func detectProperty(lower string) string {
	ordered := []struct{ phrase, prop string }{
		{"background color", "background"},
		{"background", "background"},
		{"font size", "font-size"},
		{"font family", "font-family"},
		{"font", "font-family"},
		{"color", "color"},
		{"opacity", "opacity"},
		{"radius", "border-radius"},
	}
	for _, e := range ordered {
		if strings.Contains(lower, e.phrase) {
			return e.prop
		}
	}
	return ""
}

var (
	hexRe    = regexp.MustCompile(`#[0-9a-fA-F]{3,8}\b`)
	quotedRe = regexp.MustCompile(`"([^"]*)"|'([^']*)'`)
	numberRe = regexp.MustCompile(`\b(\d+(?:\.\d+)?)(px|rem|em|%)?\b`)
)

// extractValue pulls the edit value out of the instruction: a quoted string,
// a hex color, a number with optional unit, or the phrase after "to".
func extractValue(text string) (value string, quoted bool) {
	if m := quotedRe.FindStringSubmatch(text); m != nil {
		if m[1] != "" {
			return m[1], true
		}
		return m[2], true
	}
	if m := hexRe.FindString(text); m != "" {
		return strings.ToLower(m), false
	}
	if m := numberRe.FindStringSubmatch(text); m != nil {
		return m[1] + m[2], false
	}
	if _, after, ok := strings.Cut(strings.ToLower(text), " to "); ok {
		return strings.TrimSpace(after), false
	}
	return "", false
}

var bareNumberRe = regexp.MustCompile(`^\d+(\.\d+)?$`)

// withUnit appends the default px unit to bare numbers for length
// properties. Unitless properties like opacity pass through untouched.
func withUnit(prop, value string) string {
	switch prop {
	case "font-size", "border-radius":
		if bareNumberRe.MatchString(value) {
			return value + "px"
		}
	}
	return value
}

func isBulk(lower string) bool {
	return strings.HasPrefix(lower, "all ") || strings.Contains(lower, " all ") ||
		strings.Contains(lower, "every ")
}

func translateBulk(lower, prop, value string, isTextEdit bool) ([]Patch, error) {
	match := Match{}
	if strings.Contains(lower, "text node") || strings.Contains(lower, "text element") {
		match.HasText = true
	} else {
		for _, t := range elementTypes {
			if strings.Contains(lower, t) {
				match.Type = t
				break
			}
		}
		if match.Type == "" {
			for _, t := range sectionTypes {
				if strings.Contains(lower, t) {
					match.Type = t
					match.Kind = scene.KindSection
					break
				}
			}
		}
	}
	if match == (Match{}) {
		return nil, ErrNoMatchingTarget
	}

	change := &Change{}
	if isTextEdit {
		v := value
		change.Text = &v
	} else {
		change.Style = map[string]string{prop: value}
	}
	return []Patch{{Op: OpBulkUpdate, Where: &match, Change: change}}, nil
}

// resolveTargets finds the node ids the instruction addresses. A section word
// narrows the search to that section's subtree; an element word selects nodes
// of that type; a section word alone selects the section nodes themselves.
func resolveTargets(s *scene.Scene, lower string) []string {
	var sectionType, elemType string
	for _, t := range sectionTypes {
		if strings.Contains(lower, t) {
			sectionType = t
			break
		}
	}
	for _, t := range elementTypes {
		if strings.Contains(lower, t) {
			elemType = t
			break
		}
	}
	if sectionType == "" && elemType == "" {
		return nil
	}

	var roots []string
	if sectionType != "" {
		for _, id := range s.Root {
			if n, ok := s.Nodes[id]; ok && n.Type == sectionType {
				roots = append(roots, id)
			}
		}
		if elemType == "" {
			return roots
		}
	} else {
		roots = s.Root
	}

	var targets []string
	for _, rootID := range roots {
		for _, n := range s.Subtree(rootID) {
			if n.Type == elemType {
				targets = append(targets, n.ID)
			}
		}
	}
	return targets
}
