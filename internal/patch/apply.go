package patch

import (
	"github.com/brandlane/brandlane/studio-go/internal/scene"
)

// Apply applies one patch to a scene. It never mutates the input: on success
// it returns a new scene value and the applied record, on failure the input
// scene remains the caller's current state.
func Apply(s *scene.Scene, p Patch) (*scene.Scene, *Applied, error) {
	out := s.Clone()

	var (
		inverse Patch
		changed []string
		err     error
	)

	switch p.Op {
	case OpAddNode:
		inverse, changed, err = applyAdd(out, p)
	case OpRemoveNode:
		inverse, changed, err = applyRemove(out, p)
	case OpUpdateNode:
		inverse, changed, err = applyUpdateNode(out, p)
	case OpMoveNode:
		inverse, changed, err = applyMove(out, p)
	case OpBindSlot:
		inverse, changed, err = applyBindSlot(out, p)
	case OpUpdateStyle, OpUpdateLayout:
		inverse, changed, err = applyProps(out, p)
	case OpUpdateText:
		inverse, changed, err = applyText(out, p)
	case OpBulkUpdate:
		inverse, changed, err = applyBulk(out, p)
	case OpRestoreNodes:
		inverse, changed, err = applyRestore(out, p)
	default:
		return nil, nil, invalid(p.NodeID, "unknown patch op %q", p.Op)
	}
	if err != nil {
		return nil, nil, err
	}

	return out, &Applied{Patch: p, Inverse: inverse, Changed: changed}, nil
}

func applyAdd(s *scene.Scene, p Patch) (Patch, []string, error) {
	if len(p.Subtree) == 0 {
		return Patch{}, nil, invalid(p.NodeID, "add_node carries an empty subtree")
	}
	root := p.Subtree[0]

	for _, n := range p.Subtree {
		if _, exists := s.Nodes[n.ID]; exists {
			return Patch{}, nil, invalid(n.ID, "node id already present in scene")
		}
	}
	if p.ParentID != "" {
		if _, ok := s.Nodes[p.ParentID]; !ok {
			return Patch{}, nil, invalid(p.ParentID, "add_node parent does not exist")
		}
	}

	changed := make([]string, 0, len(p.Subtree))
	for _, n := range p.Subtree {
		s.Nodes[n.ID] = n.Clone()
		changed = append(changed, n.ID)
	}

	// Re-point the subtree root at its insertion parent.
	rootNode := s.Nodes[root.ID]
	rootNode.Parent = p.ParentID
	s.Nodes[root.ID] = rootNode

	if p.ParentID == "" {
		s.Root = insertID(s.Root, root.ID, p.Index)
	} else {
		parent := s.Nodes[p.ParentID]
		parent.Children = insertID(parent.Children, root.ID, p.Index)
		s.Nodes[p.ParentID] = parent
	}

	return Patch{Op: OpRemoveNode, NodeID: root.ID}, changed, nil
}

func applyRemove(s *scene.Scene, p Patch) (Patch, []string, error) {
	target, ok := s.Nodes[p.NodeID]
	if !ok {
		return Patch{}, nil, invalid(p.NodeID, "remove_node target does not exist")
	}

	// Record everything needed to re-add the exact subtree on undo.
	subtree := s.Subtree(p.NodeID)
	index := s.SiblingIndex(p.NodeID)

	changed := make([]string, 0, len(subtree))
	for _, n := range subtree {
		delete(s.Nodes, n.ID)
		changed = append(changed, n.ID)
	}

	if target.Parent == "" {
		s.Root = removeID(s.Root, p.NodeID)
	} else if parent, ok := s.Nodes[target.Parent]; ok {
		parent.Children = removeID(parent.Children, p.NodeID)
		s.Nodes[target.Parent] = parent
	}

	inverse := Patch{
		Op:       OpAddNode,
		ParentID: target.Parent,
		Index:    &index,
		Subtree:  subtree,
	}
	return inverse, changed, nil
}

func applyUpdateNode(s *scene.Scene, p Patch) (Patch, []string, error) {
	n, ok := s.Nodes[p.NodeID]
	if !ok {
		return Patch{}, nil, invalid(p.NodeID, "update_node target does not exist")
	}
	if p.Node == nil {
		return Patch{}, nil, invalid(p.NodeID, "update_node carries no properties")
	}

	prev := NodeProps{}
	if p.Node.Kind != nil {
		k := n.Kind
		prev.Kind = &k
		n.Kind = *p.Node.Kind
	}
	if p.Node.Type != nil {
		t := n.Type
		prev.Type = &t
		n.Type = *p.Node.Type
	}
	s.Nodes[p.NodeID] = n

	return Patch{Op: OpUpdateNode, NodeID: p.NodeID, Node: &prev}, []string{p.NodeID}, nil
}

func applyMove(s *scene.Scene, p Patch) (Patch, []string, error) {
	n, ok := s.Nodes[p.NodeID]
	if !ok {
		return Patch{}, nil, invalid(p.NodeID, "move_node target does not exist")
	}
	if p.NewParentID != "" {
		if _, ok := s.Nodes[p.NewParentID]; !ok {
			return Patch{}, nil, invalid(p.NewParentID, "move_node destination parent does not exist")
		}
		for _, desc := range s.Subtree(p.NodeID) {
			if desc.ID == p.NewParentID {
				return Patch{}, nil, invalid(p.NodeID, "cannot move a node into its own subtree")
			}
		}
	}

	oldParent := n.Parent
	oldIndex := s.SiblingIndex(p.NodeID)

	// Detach.
	if oldParent == "" {
		s.Root = removeID(s.Root, p.NodeID)
	} else if parent, ok := s.Nodes[oldParent]; ok {
		parent.Children = removeID(parent.Children, p.NodeID)
		s.Nodes[oldParent] = parent
	}

	// Attach.
	idx := p.NewIndex
	if p.NewParentID == "" {
		s.Root = insertID(s.Root, p.NodeID, &idx)
	} else {
		parent := s.Nodes[p.NewParentID]
		parent.Children = insertID(parent.Children, p.NodeID, &idx)
		s.Nodes[p.NewParentID] = parent
	}
	n.Parent = p.NewParentID
	s.Nodes[p.NodeID] = n

	inverse := Patch{Op: OpMoveNode, NodeID: p.NodeID, NewParentID: oldParent, NewIndex: oldIndex}
	return inverse, []string{p.NodeID}, nil
}

func applyBindSlot(s *scene.Scene, p Patch) (Patch, []string, error) {
	n, ok := s.Nodes[p.NodeID]
	if !ok {
		return Patch{}, nil, invalid(p.NodeID, "bind_slot target does not exist")
	}
	if p.Slot == "" {
		return Patch{}, nil, invalid(p.NodeID, "bind_slot requires a slot name")
	}

	prevRef := n.Slots[p.Slot]
	if p.Ref == "" {
		delete(n.Slots, p.Slot)
		if len(n.Slots) == 0 {
			n.Slots = nil
		}
	} else {
		if n.Slots == nil {
			n.Slots = map[string]string{}
		}
		n.Slots[p.Slot] = p.Ref
	}
	s.Nodes[p.NodeID] = n

	inverse := Patch{Op: OpBindSlot, NodeID: p.NodeID, Slot: p.Slot, Ref: prevRef}
	return inverse, []string{p.NodeID}, nil
}

func applyProps(s *scene.Scene, p Patch) (Patch, []string, error) {
	n, ok := s.Nodes[p.NodeID]
	if !ok {
		return Patch{}, nil, invalid(p.NodeID, "%s target does not exist", p.Op)
	}
	if len(p.Props) == 0 {
		return Patch{}, nil, invalid(p.NodeID, "%s carries no properties", p.Op)
	}

	base := n.Style
	if p.Op == OpUpdateLayout {
		base = n.Layout
	}

	// Inverse restores each touched key to its pre-merge value, "" meaning the
	// key was absent and should be deleted again.
	prev := make(map[string]string, len(p.Props))
	for k := range p.Props {
		prev[k] = base[k]
	}

	merged := mergeProps(base, p.Props)
	if p.Op == OpUpdateStyle {
		n.Style = merged
	} else {
		n.Layout = merged
	}
	s.Nodes[p.NodeID] = n

	return Patch{Op: p.Op, NodeID: p.NodeID, Props: prev}, []string{p.NodeID}, nil
}

// mergeProps merges changes into base, treating empty values as deletions.
// The base map is never mutated.
func mergeProps(base, changes map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(changes))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range changes {
		if v == "" {
			delete(out, k)
		} else {
			out[k] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func applyText(s *scene.Scene, p Patch) (Patch, []string, error) {
	n, ok := s.Nodes[p.NodeID]
	if !ok {
		return Patch{}, nil, invalid(p.NodeID, "update_text target does not exist")
	}
	if p.Text == nil {
		return Patch{}, nil, invalid(p.NodeID, "update_text carries no text")
	}

	prev := n.Text
	n.Text = *p.Text
	s.Nodes[p.NodeID] = n

	return Patch{Op: OpUpdateText, NodeID: p.NodeID, Text: &prev}, []string{p.NodeID}, nil
}

func applyBulk(s *scene.Scene, p Patch) (Patch, []string, error) {
	if p.Where == nil || p.Change == nil {
		return Patch{}, nil, invalid("", "bulk_update requires a match and a change")
	}

	// Deterministic order: walk the tree, not the map.
	var targets []string
	s.Walk(func(n scene.Node) {
		if p.Where.Matches(n) {
			targets = append(targets, n.ID)
		}
	})

	previous := make([]scene.Node, 0, len(targets))
	for _, id := range targets {
		n := s.Nodes[id]
		previous = append(previous, n.Clone())

		if len(p.Change.Style) > 0 {
			n.Style = mergeProps(n.Style, p.Change.Style)
		}
		if len(p.Change.Layout) > 0 {
			n.Layout = mergeProps(n.Layout, p.Change.Layout)
		}
		if p.Change.Text != nil {
			n.Text = *p.Change.Text
		}
		s.Nodes[id] = n
	}

	// One inverse entry for the whole sweep: restore the previous node values.
	return Patch{Op: OpRestoreNodes, Nodes: previous}, targets, nil
}

func applyRestore(s *scene.Scene, p Patch) (Patch, []string, error) {
	for _, n := range p.Nodes {
		if _, ok := s.Nodes[n.ID]; !ok {
			return Patch{}, nil, invalid(n.ID, "restore_nodes target does not exist")
		}
	}

	previous := make([]scene.Node, 0, len(p.Nodes))
	changed := make([]string, 0, len(p.Nodes))
	for _, n := range p.Nodes {
		previous = append(previous, s.Nodes[n.ID].Clone())
		s.Nodes[n.ID] = n.Clone()
		changed = append(changed, n.ID)
	}

	return Patch{Op: OpRestoreNodes, Nodes: previous}, changed, nil
}

func insertID(ids []string, id string, index *int) []string {
	if index == nil || *index < 0 || *index > len(ids) {
		return append(ids, id)
	}
	out := make([]string, 0, len(ids)+1)
	out = append(out, ids[:*index]...)
	out = append(out, id)
	out = append(out, ids[*index:]...)
	return out
}

func removeID(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
