package model

import (
	"fmt"

	"github.com/tilewm/tilewm/internal/bsp"
	"github.com/tilewm/tilewm/internal/geometry"
)

// InsertWindow appends handle to the target workspace's sequence and
// indexes it. Spec.md §4.3.
func (m *Model) InsertWindow(h WindowHandle, monitorIndex, workspace int, title string, rect geometry.Rect) error {
	mon, err := m.Monitor(monitorIndex)
	if err != nil {
		return err
	}
	if workspace < 1 || workspace > WorkspaceCount {
		return fmt.Errorf("workspace %d out of range", workspace)
	}
	if _, exists := m.windows[h]; exists {
		return fmt.Errorf("handle %v already modeled", h)
	}

	ws := mon.Workspaces[workspace]
	ws.Order = append(ws.Order, h)
	ws.InvalidateTree()

	m.windows[h] = &Window{
		Handle:       h,
		Title:        title,
		Workspace:    workspace,
		MonitorIndex: monitorIndex,
		Rect:         rect,
		OriginalRect: rect,
		IsTiled:      true,
		HiddenByUs:   workspace != mon.ActiveWorkspaceIndex,
	}
	m.windowLocationIndex[h] = Location{MonitorIndex: monitorIndex, Workspace: workspace}
	return nil
}

// RemoveWindow deletes handle from the model, returning the removed window
// if it was present.
func (m *Model) RemoveWindow(h WindowHandle) (Window, bool) {
	w, ok := m.windows[h]
	if !ok {
		return Window{}, false
	}

	mon, err := m.Monitor(w.MonitorIndex)
	if err == nil {
		ws := mon.Workspaces[w.Workspace]
		idx := ws.IndexOf(h)
		if idx >= 0 {
			ws.Order = append(ws.Order[:idx], ws.Order[idx+1:]...)
			ws.InvalidateTree()
		}
	}

	delete(m.windows, h)
	delete(m.windowLocationIndex, h)
	return *w, true
}

// MoveWindow moves handle to newWorkspace on its current monitor. It does
// not itself flip HiddenByUs — that is the reconciler's job on the next
// pass (spec.md §4.3) — but it does clear HiddenByUs immediately when the
// destination is already the active workspace, matching the mutator
// contract.
func (m *Model) MoveWindow(h WindowHandle, newWorkspace int) error {
	w, ok := m.windows[h]
	if !ok {
		return fmt.Errorf("handle %v not modeled", h)
	}
	if newWorkspace < 1 || newWorkspace > WorkspaceCount {
		return fmt.Errorf("workspace %d out of range", newWorkspace)
	}
	if w.Workspace == newWorkspace {
		return nil
	}

	mon, err := m.Monitor(w.MonitorIndex)
	if err != nil {
		return err
	}

	oldWs := mon.Workspaces[w.Workspace]
	idx := oldWs.IndexOf(h)
	if idx >= 0 {
		oldWs.Order = append(oldWs.Order[:idx], oldWs.Order[idx+1:]...)
		oldWs.InvalidateTree()
	}

	newWs := mon.Workspaces[newWorkspace]
	newWs.Order = append(newWs.Order, h)
	newWs.InvalidateTree()

	w.Workspace = newWorkspace
	if newWorkspace == mon.ActiveWorkspaceIndex {
		w.HiddenByUs = false
	}
	m.windowLocationIndex[h] = Location{MonitorIndex: w.MonitorIndex, Workspace: newWorkspace}
	return nil
}

// Direction is a cardinal spatial direction used by spatial queries and
// swap/move-monitor actions.
type Direction int

const (
	Left Direction = iota
	Right
	Up
	Down
)

// SwapAdjacent swaps h's sequence position with the closest other window
// on the same active workspace in the given direction, per the tie-break
// rules in spec.md §4.4 (implemented in the actions package, which calls
// this once it has picked a target). It returns an error if either handle
// is not modeled or not on the same workspace.
func (m *Model) SwapAdjacent(h, target WindowHandle) error {
	w1, ok1 := m.windows[h]
	w2, ok2 := m.windows[target]
	if !ok1 || !ok2 {
		return fmt.Errorf("swap target not modeled")
	}
	if w1.MonitorIndex != w2.MonitorIndex || w1.Workspace != w2.Workspace {
		return fmt.Errorf("swap requires same monitor and workspace")
	}

	mon, err := m.Monitor(w1.MonitorIndex)
	if err != nil {
		return err
	}
	ws := mon.Workspaces[w1.Workspace]
	i, j := ws.IndexOf(h), ws.IndexOf(target)
	if i < 0 || j < 0 {
		return fmt.Errorf("swap handles not found in workspace order")
	}
	ws.Order[i], ws.Order[j] = ws.Order[j], ws.Order[i]
	ws.InvalidateTree()
	return nil
}

// SetActiveWorkspace updates the global active workspace and every
// monitor's ActiveWorkspaceIndex (spec.md invariant 2: identical across
// monitors). Fullscreen windows on the outgoing workspace are restored to
// Tiled with their OriginalRect first, per spec.md §4.8 ("Workspace switch
// while in Fullscreen: transition to Tiled... before hide").
func (m *Model) SetActiveWorkspace(n int) error {
	if n < 1 || n > WorkspaceCount {
		return fmt.Errorf("workspace %d out of range", n)
	}
	if n == m.ActiveWorkspace {
		return nil
	}

	for _, w := range m.windows {
		if w.Workspace == m.ActiveWorkspace && w.IsFullscreen {
			w.IsFullscreen = false
			w.Rect = w.OriginalRect
		}
	}

	old := m.ActiveWorkspace
	m.ActiveWorkspace = n
	for _, mon := range m.Monitors {
		mon.ActiveWorkspaceIndex = n
		mon.Workspaces[n].Dirty = true
		mon.Workspaces[old].Dirty = true
	}
	return nil
}

// ToggleFloat flips IsTiled for h, invalidating its workspace's tree.
func (m *Model) ToggleFloat(h WindowHandle) error {
	w, ok := m.windows[h]
	if !ok {
		return fmt.Errorf("handle %v not modeled", h)
	}
	w.IsTiled = !w.IsTiled
	if mon, err := m.Monitor(w.MonitorIndex); err == nil {
		mon.Workspaces[w.Workspace].InvalidateTree()
	}
	return nil
}

// ToggleFullscreen flips IsFullscreen for h. Entering fullscreen captures
// the current Rect as OriginalRect; leaving restores Rect from
// OriginalRect (spec.md §4.8, round-trip property in §8: "Fullscreen
// toggle applied twice restores rect == original_rect").
func (m *Model) ToggleFullscreen(h WindowHandle) error {
	w, ok := m.windows[h]
	if !ok {
		return fmt.Errorf("handle %v not modeled", h)
	}
	if w.IsFullscreen {
		w.IsFullscreen = false
		w.Rect = w.OriginalRect
	} else {
		w.OriginalRect = w.Rect
		w.IsFullscreen = true
	}
	return nil
}

// FlipWorkspaceRoot toggles the split direction of the active dwindle
// node's root for the given monitor/workspace (spec.md §4.2 Flip action).
func (m *Model) FlipWorkspaceRoot(monitorIndex, workspace int) error {
	mon, err := m.Monitor(monitorIndex)
	if err != nil {
		return err
	}
	ws := mon.Workspaces[workspace]
	if ws.Tree == nil {
		return nil
	}
	ws.Tree.Flip()
	ws.InvalidateTree()
	return nil
}

// ResizeWorkspaceRoot adjusts the root split ratio by delta for the given
// monitor/workspace (ResizeHoriz/ResizeVert hotkey actions, spec.md §4.2:
// "modify the root's ratio by ±0.05").
func (m *Model) ResizeWorkspaceRoot(monitorIndex, workspace int, delta float64) error {
	mon, err := m.Monitor(monitorIndex)
	if err != nil {
		return err
	}
	ws := mon.Workspaces[workspace]
	if ws.Tree == nil {
		return nil
	}
	ws.Tree.AdjustRatio(delta)
	ws.InvalidateTree()
	return nil
}

// EnsureTree rebuilds ws's dwindle tree from its current tiled window
// order if it is nil, using the outer rect (already inset and gap-applied
// by the caller) and the model's gap size. Floating and fullscreen windows
// are excluded from the tree (spec.md §4.8).
func (m *Model) EnsureTree(ws *Workspace, outer geometry.Rect) *bsp.Node {
	if ws.Tree != nil {
		return ws.Tree
	}

	var tiled []WindowHandle
	for _, h := range ws.Order {
		w, ok := m.windows[h]
		if !ok || !w.IsTiled || w.IsFullscreen {
			continue
		}
		tiled = append(tiled, h)
	}
	if len(tiled) == 0 {
		return nil
	}

	ws.Tree = bsp.Build(outer, m.GapSize, tiled, ws.Ratios, ws.Splits)
	return ws.Tree
}
