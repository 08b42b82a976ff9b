package model

import (
	"testing"

	"github.com/tilewm/tilewm/internal/geometry"
)

func newTestModel() *Model {
	return New([]geometry.Rect{
		{Left: 0, Top: 0, Right: 1920, Bottom: 1080},
	}, 4, 2, 0.5)
}

func TestInsertAndRemoveWindow(t *testing.T) {
	m := newTestModel()
	if err := m.InsertWindow(1, 0, 1, "A", geometry.Rect{}); err != nil {
		t.Fatalf("InsertWindow: %v", err)
	}
	if err := m.InsertWindow(2, 0, 1, "B", geometry.Rect{}); err != nil {
		t.Fatalf("InsertWindow: %v", err)
	}

	mon, _ := m.Monitor(0)
	ws := mon.Workspaces[1]
	if len(ws.Order) != 2 || ws.Order[0] != 1 || ws.Order[1] != 2 {
		t.Fatalf("workspace order = %v, want [1 2]", ws.Order)
	}

	loc, ok := m.Location(1)
	if !ok || loc.MonitorIndex != 0 || loc.Workspace != 1 {
		t.Fatalf("Location(1) = %+v, %v", loc, ok)
	}

	removed, ok := m.RemoveWindow(1)
	if !ok || removed.Handle != 1 {
		t.Fatalf("RemoveWindow(1) = %+v, %v", removed, ok)
	}
	if len(ws.Order) != 1 || ws.Order[0] != 2 {
		t.Fatalf("workspace order after remove = %v, want [2]", ws.Order)
	}
	if _, ok := m.Location(1); ok {
		t.Fatal("handle 1 still indexed after removal")
	}
}

func TestMoveWindowPreservesMonitor(t *testing.T) {
	m := newTestModel()
	m.InsertWindow(1, 0, 1, "A", geometry.Rect{})

	if err := m.MoveWindow(1, 3); err != nil {
		t.Fatalf("MoveWindow: %v", err)
	}

	w, _ := m.Window(1)
	if w.Workspace != 3 || w.MonitorIndex != 0 {
		t.Fatalf("window after move = %+v, want workspace 3, monitor 0", w)
	}
	if w.HiddenByUs {
		t.Fatal("MoveWindow must leave HiddenByUs for the reconciler to set on its next pass")
	}

	mon, _ := m.Monitor(0)
	if len(mon.Workspaces[1].Order) != 0 {
		t.Fatalf("old workspace order = %v, want empty", mon.Workspaces[1].Order)
	}
	if len(mon.Workspaces[3].Order) != 1 {
		t.Fatalf("new workspace order = %v, want [1]", mon.Workspaces[3].Order)
	}
}

func TestMoveToWorkspaceRoundTrip(t *testing.T) {
	// Moving h out to another workspace and back appends h at the end of
	// the original workspace's sequence; its earlier position is not
	// restored.
	m := newTestModel()
	m.InsertWindow(1, 0, 1, "A", geometry.Rect{})
	m.InsertWindow(2, 0, 1, "B", geometry.Rect{})
	m.InsertWindow(3, 0, 1, "C", geometry.Rect{})

	if err := m.MoveWindow(2, 5); err != nil {
		t.Fatalf("move out: %v", err)
	}
	if err := m.MoveWindow(2, 1); err != nil {
		t.Fatalf("move back: %v", err)
	}

	mon, _ := m.Monitor(0)
	order := mon.Workspaces[1].Order
	if len(order) != 3 || order[2] != 2 {
		t.Fatalf("order after round trip = %v, want handle 2 appended last", order)
	}
}

func TestSwapAdjacent(t *testing.T) {
	m := newTestModel()
	m.InsertWindow(1, 0, 1, "A", geometry.Rect{})
	m.InsertWindow(2, 0, 1, "B", geometry.Rect{})

	if err := m.SwapAdjacent(1, 2); err != nil {
		t.Fatalf("SwapAdjacent: %v", err)
	}

	mon, _ := m.Monitor(0)
	order := mon.Workspaces[1].Order
	if order[0] != 2 || order[1] != 1 {
		t.Fatalf("order after swap = %v, want [2 1]", order)
	}
}

func TestSetActiveWorkspaceClearsFullscreen(t *testing.T) {
	m := newTestModel()
	rect := geometry.Rect{Left: 10, Top: 10, Right: 100, Bottom: 100}
	m.InsertWindow(1, 0, 1, "A", rect)
	if err := m.ToggleFullscreen(1); err != nil {
		t.Fatalf("ToggleFullscreen: %v", err)
	}
	// Simulate the reconciler expanding the window to the monitor's full
	// rect once fullscreen is entered.
	m.MutateWindow(1, func(w *Window) { w.Rect = geometry.Rect{Left: 0, Top: 0, Right: 1920, Bottom: 1080} })

	if err := m.SetActiveWorkspace(2); err != nil {
		t.Fatalf("SetActiveWorkspace: %v", err)
	}

	w, _ := m.Window(1)
	if w.IsFullscreen {
		t.Fatal("window should lose fullscreen on workspace switch (spec.md §4.8)")
	}
	if !w.Rect.Equal(rect) {
		t.Fatalf("rect after switch = %+v, want original %+v", w.Rect, rect)
	}

	for _, mon := range m.Monitors {
		if mon.ActiveWorkspaceIndex != 2 {
			t.Fatalf("monitor active workspace = %d, want 2 (P4 uniformity)", mon.ActiveWorkspaceIndex)
		}
	}
}

func TestFullscreenToggleTwiceRestoresRect(t *testing.T) {
	m := newTestModel()
	rect := geometry.Rect{Left: 10, Top: 10, Right: 500, Bottom: 500}
	m.InsertWindow(1, 0, 1, "A", rect)

	m.ToggleFullscreen(1)
	m.ToggleFullscreen(1)

	w, _ := m.Window(1)
	if !w.Rect.Equal(rect) {
		t.Fatalf("rect after double toggle = %+v, want %+v", w.Rect, rect)
	}
	if w.IsFullscreen {
		t.Fatal("should not be fullscreen after even number of toggles")
	}
}

func TestEveryHandleUniqueLocation(t *testing.T) {
	// P1 (uniqueness) / P6 (index consistency).
	m := New([]geometry.Rect{
		{Left: 0, Top: 0, Right: 1920, Bottom: 1080},
		{Left: 1920, Top: 0, Right: 3840, Bottom: 1080},
	}, 4, 2, 0.5)
	m.InsertWindow(1, 0, 1, "A", geometry.Rect{})
	m.InsertWindow(2, 1, 2, "B", geometry.Rect{})
	m.RebuildIndex()

	for _, h := range []WindowHandle{1, 2} {
		w, ok := m.Window(h)
		if !ok {
			t.Fatalf("handle %v not modeled", h)
		}
		loc, ok := m.Location(h)
		if !ok {
			t.Fatalf("handle %v not indexed", h)
		}
		if loc.MonitorIndex != w.MonitorIndex || loc.Workspace != w.Workspace {
			t.Fatalf("index mismatch for %v: index=%+v window=(%d,%d)", h, loc, w.MonitorIndex, w.Workspace)
		}
	}
}
