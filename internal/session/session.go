// Package session owns the editing state for open documents: one in-memory
// scene and patch history per document, the asynchronous save queue, and the
// live preview channel. All scene mutation from the HTTP surface funnels
// through here.
package session

import (
	"sync"

	"github.com/brandlane/brandlane/studio-go/internal/patch"
	"github.com/brandlane/brandlane/studio-go/internal/scene"
)

// Session is the editing state of one open document. A session is
// single-writer: the mutex serializes the HTTP surface, the scene itself is
// only ever replaced wholesale by pure patch application.
type Session struct {
	mu         sync.Mutex
	DocumentID string
	SceneRowID string

	scene   *scene.Scene
	history *patch.History

	rev      int64 // bumped on every mutation
	savedRev int64 // rev captured by the last successful save
}

func newSession(documentID, sceneRowID string, s *scene.Scene) *Session {
	return &Session{
		DocumentID: documentID,
		SceneRowID: sceneRowID,
		scene:      s,
		history:    patch.NewHistory(),
	}
}

// Scene returns a snapshot of the current scene. The clone shares no state
// with the session, so callers can export or serialize it without holding
// the lock.
func (s *Session) Scene() *scene.Scene {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scene.Clone()
}

// Dirty reports whether edits exist that no completed save has covered.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rev != s.savedRev
}

// Submit applies one patch. A rejected patch leaves scene and history
// untouched; the caller keeps editing.
func (s *Session) Submit(p patch.Patch) (*patch.Applied, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, applied, err := patch.Apply(s.scene, p)
	if err != nil {
		return nil, err
	}
	s.scene = next
	s.history.Record(*applied)
	s.rev++
	return applied, nil
}

// Undo reverts the most recent patch. Returns false when the undo stack is
// empty.
func (s *Session) Undo() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, ok, err := s.history.Undo(s.scene)
	if err != nil || !ok {
		return ok, err
	}
	s.scene = next
	s.rev++
	return true, nil
}

// Redo re-applies the most recently undone patch.
func (s *Session) Redo() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, ok, err := s.history.Redo(s.scene)
	if err != nil || !ok {
		return ok, err
	}
	s.scene = next
	s.rev++
	return true, nil
}

// Translate resolves an edit instruction against the current scene without
// applying anything.
func (s *Session) Translate(instruction string) ([]patch.Patch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return patch.Translate(s.scene, instruction)
}

// Replace swaps in a whole new scene, for re-theme and re-compile flows.
// History is cleared: the replacement is a new editing baseline.
func (s *Session) Replace(next *scene.Scene) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scene = next.Clone()
	s.history = patch.NewHistory()
	s.rev++
}

func (s *Session) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.CanUndo()
}

func (s *Session) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.CanRedo()
}

// snapshotForSave captures the state a save request needs: the scene clone
// and the revision it covers.
func (s *Session) snapshotForSave() (*scene.Scene, int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scene.Clone(), s.rev
}

// markSaved records a completed save. Edits submitted after the save's
// capture keep the session dirty.
func (s *Session) markSaved(rev int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rev > s.savedRev {
		s.savedRev = rev
	}
}
