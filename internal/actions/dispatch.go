package actions

import (
	"fmt"

	"github.com/tilewm/tilewm/internal/model"
)

// Commands is the minimal outbound surface an action handler needs beyond
// mutating the model — the reconciler performs the bulk of positioning,
// but focus-move issues a platform foreground-set directly (spec.md
// §4.4), and Close needs a direct platform call too.
type Commands interface {
	SetForeground(h model.WindowHandle) error
	Close(h model.WindowHandle) error
}

// CandidateLister returns the direction-query candidate set for a given
// monitor and workspace, excluding the focused handle; the daemon builds
// it from the model's window rects.
type CandidateLister func(monitorIndex, workspace int, exclude model.WindowHandle) []Candidate

// Dispatch applies action against m, issuing platform commands through
// cmds where the spec requires an immediate effect rather than a deferred
// reconcile. It returns requestExit=true for the Exit action so the event
// loop can unwind (spec.md §6 exit code 0).
func Dispatch(m *model.Model, action Action, focused model.WindowHandle, candidates CandidateLister, cmds Commands) (requestExit bool, err error) {
	switch action.Kind {
	case KindFocusDir:
		return false, dispatchFocusDir(m, action.Direction, focused, candidates, cmds)
	case KindSwapDir:
		return false, dispatchSwapDir(m, action.Direction, focused, candidates)
	case KindSwitchWorkspace:
		return false, m.SetActiveWorkspace(action.Workspace)
	case KindMoveToWorkspace:
		if focused == 0 {
			return false, nil
		}
		return false, m.MoveWindow(focused, action.Workspace)
	case KindClose:
		if focused == 0 {
			return false, nil
		}
		return false, cmds.Close(focused)
	case KindToggleFloat:
		if focused == 0 {
			return false, nil
		}
		return false, m.ToggleFloat(focused)
	case KindToggleFullscreen:
		if focused == 0 {
			return false, nil
		}
		return false, m.ToggleFullscreen(focused)
	case KindToggleStatusBar:
		m.StatusbarVisible = !m.StatusbarVisible
		return false, nil
	case KindFlipNode:
		loc, ok := m.Location(focused)
		if !ok {
			return false, nil
		}
		return false, m.FlipWorkspaceRoot(loc.MonitorIndex, loc.Workspace)
	case KindResizeHoriz, KindResizeVert:
		loc, ok := m.Location(focused)
		if !ok {
			return false, nil
		}
		delta := -resizeStep
		if action.Positive {
			delta = resizeStep
		}
		return false, m.ResizeWorkspaceRoot(loc.MonitorIndex, loc.Workspace, delta)
	case KindMoveMonitor:
		return false, dispatchMoveMonitor(m, action.Direction, focused)
	case KindExit:
		return true, nil
	default:
		return false, fmt.Errorf("unknown action kind %v", action.Kind)
	}
}

const resizeStep = 0.05

func dispatchFocusDir(m *model.Model, dir model.Direction, focused model.WindowHandle, candidates CandidateLister, cmds Commands) error {
	if focused == 0 {
		return nil
	}
	w, ok := m.Window(focused)
	if !ok {
		return nil
	}

	list := candidates(w.MonitorIndex, w.Workspace, focused)
	target, ok := FindNeighbor(w.Rect, list, dir)
	if !ok {
		for mi := range m.Monitors {
			if mi == w.MonitorIndex {
				continue
			}
			list = candidates(mi, m.ActiveWorkspace, focused)
			if target, ok = FindNeighbor(w.Rect, list, dir); ok {
				break
			}
		}
	}
	if !ok {
		return nil
	}
	return cmds.SetForeground(target)
}

func dispatchSwapDir(m *model.Model, dir model.Direction, focused model.WindowHandle, candidates CandidateLister) error {
	if focused == 0 {
		return nil
	}
	w, ok := m.Window(focused)
	if !ok {
		return nil
	}
	list := candidates(w.MonitorIndex, w.Workspace, focused)
	target, ok := FindNeighbor(w.Rect, list, dir)
	if !ok {
		return nil
	}
	return m.SwapAdjacent(focused, target)
}

func dispatchMoveMonitor(m *model.Model, dir model.Direction, focused model.WindowHandle) error {
	if focused == 0 {
		return nil
	}
	w, ok := m.Window(focused)
	if !ok {
		return nil
	}

	var destIndex int
	switch dir {
	case model.Left:
		destIndex = w.MonitorIndex - 1
	case model.Right:
		destIndex = w.MonitorIndex + 1
	default:
		return nil
	}
	if destIndex < 0 || destIndex >= len(m.Monitors) {
		return nil
	}

	removed, ok := m.RemoveWindow(focused)
	if !ok {
		return fmt.Errorf("focused handle %v vanished mid-move", focused)
	}
	return m.InsertWindow(focused, destIndex, removed.Workspace, removed.Title, removed.Rect)
}
