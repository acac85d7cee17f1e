// Package patch is the sole mutation path for scene graphs. Every edit is a
// plain data value applied by a pure function, carries enough information to
// build its inverse, and lands on the session's undo stack.
package patch

import (
	"errors"
	"fmt"

	"github.com/brandlane/brandlane/studio-go/internal/scene"
)

// Op tags the patch variants.
type Op string

const (
	OpAddNode      Op = "add_node"
	OpRemoveNode   Op = "remove_node"
	OpUpdateNode   Op = "update_node"
	OpMoveNode     Op = "move_node"
	OpBindSlot     Op = "bind_slot"
	OpUpdateStyle  Op = "update_style"
	OpUpdateLayout Op = "update_layout"
	OpUpdateText   Op = "update_text"
	OpBulkUpdate   Op = "bulk_update"
	// OpRestoreNodes rewrites whole node values by id. It only appears as the
	// inverse of bulk_update, where a per-key inverse would not round-trip.
	OpRestoreNodes Op = "restore_nodes"
)

// Patch is one atomic scene mutation. Only the fields relevant to Op are set.
type Patch struct {
	Op     Op     `json:"op"`
	NodeID string `json:"nodeId,omitempty"`

	// add_node: Subtree is pre-order with the new root first; ParentID "" adds
	// a top-level section. remove_node fills these on inversion.
	ParentID string       `json:"parentId,omitempty"`
	Index    *int         `json:"index,omitempty"`
	Subtree  []scene.Node `json:"subtree,omitempty"`

	// update_node
	Node *NodeProps `json:"node,omitempty"`

	// move_node
	NewParentID string `json:"newParentId,omitempty"`
	NewIndex    int    `json:"newIndex,omitempty"`

	// bind_slot; empty Ref removes the binding
	Slot string `json:"slot,omitempty"`
	Ref  string `json:"ref,omitempty"`

	// update_style / update_layout; empty value removes the key
	Props map[string]string `json:"props,omitempty"`

	// update_text
	Text *string `json:"text,omitempty"`

	// bulk_update
	Where  *Match  `json:"where,omitempty"`
	Change *Change `json:"change,omitempty"`

	// restore_nodes
	Nodes []scene.Node `json:"nodes,omitempty"`
}

// NodeProps is the update_node payload: nil fields are left untouched.
type NodeProps struct {
	Kind *scene.NodeKind `json:"kind,omitempty"`
	Type *string         `json:"type,omitempty"`
}

// Match selects nodes for bulk_update. Zero-valued fields match everything,
// set fields must all hold.
type Match struct {
	Kind     scene.NodeKind `json:"kind,omitempty"`
	Type     string         `json:"type,omitempty"`
	StyleKey string         `json:"styleKey,omitempty"` // node has this style property
	HasText  bool           `json:"hasText,omitempty"`  // node carries text content
}

// Matches reports whether the node satisfies every set criterion.
func (m Match) Matches(n scene.Node) bool {
	if m.Kind != "" && n.Kind != m.Kind {
		return false
	}
	if m.Type != "" && n.Type != m.Type {
		return false
	}
	if m.StyleKey != "" {
		if _, ok := n.Style[m.StyleKey]; !ok {
			return false
		}
	}
	if m.HasText && n.Text == "" {
		return false
	}
	return true
}

// Change is the per-node mutation of a bulk_update.
type Change struct {
	Style  map[string]string `json:"style,omitempty"`
	Layout map[string]string `json:"layout,omitempty"`
	Text   *string           `json:"text,omitempty"`
}

// Applied records a successful application: the patch, its precomputed
// inverse, and the ids it touched, for diffing and telemetry.
type Applied struct {
	Patch   Patch    `json:"patch"`
	Inverse Patch    `json:"inverse"`
	Changed []string `json:"changed"`
}

// ErrNoMatchingTarget signals that an instruction resolved no nodes. It is
// non-fatal: callers decide whether to continue a multi-instruction batch.
var ErrNoMatchingTarget = errors.New("no node matches the instruction target")

// InvalidPatchError rejects a patch whose preconditions no longer hold, for
// example an update targeting a node that was removed. The engine's state is
// unchanged on rejection.
type InvalidPatchError struct {
	NodeID string
	Reason string
}

func (e *InvalidPatchError) Error() string {
	return fmt.Sprintf("invalid patch targeting node %q: %s", e.NodeID, e.Reason)
}

func invalid(nodeID, format string, args ...any) error {
	return &InvalidPatchError{NodeID: nodeID, Reason: fmt.Sprintf(format, args...)}
}
