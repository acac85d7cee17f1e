package patch

import (
	"github.com/brandlane/brandlane/studio-go/internal/scene"
)

// History keeps the linear undo/redo stacks for one editing session. Any new
// apply after an undo discards the redo branch: history never forks.
type History struct {
	undo []Applied
	redo []Applied
}

func NewHistory() *History {
	return &History{}
}

// Record pushes an externally applied patch onto the undo stack and clears
// the redo stack.
func (h *History) Record(a Applied) {
	h.undo = append(h.undo, a)
	h.redo = nil
}

// Undo reverts the most recent patch. Returns the new scene and false when
// there is nothing to undo.
func (h *History) Undo(s *scene.Scene) (*scene.Scene, bool, error) {
	if len(h.undo) == 0 {
		return s, false, nil
	}
	last := h.undo[len(h.undo)-1]

	next, _, err := Apply(s, last.Inverse)
	if err != nil {
		return s, false, err
	}

	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, last)
	return next, true, nil
}

// Redo re-applies the most recently undone patch.
func (h *History) Redo(s *scene.Scene) (*scene.Scene, bool, error) {
	if len(h.redo) == 0 {
		return s, false, nil
	}
	last := h.redo[len(h.redo)-1]

	next, applied, err := Apply(s, last.Patch)
	if err != nil {
		return s, false, err
	}

	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, *applied)
	return next, true, nil
}

func (h *History) CanUndo() bool { return len(h.undo) > 0 }
func (h *History) CanRedo() bool { return len(h.redo) > 0 }
func (h *History) Depth() int    { return len(h.undo) }
