// Package model holds the durable in-memory state of monitors, workspaces,
// and managed windows, and the mutators that keep it internally consistent
// under the event loop's single-threaded control.
package model

import (
	"fmt"
	"sync"

	"github.com/tilewm/tilewm/internal/bsp"
	"github.com/tilewm/tilewm/internal/geometry"
)

// WindowHandle is an opaque, stable identifier for a top-level window.
type WindowHandle = bsp.Handle

// WorkspaceCount is the fixed number of workspaces per monitor.
const WorkspaceCount = 9

// Window is a single managed top-level window.
type Window struct {
	Handle       WindowHandle
	Title        string
	Workspace    int // 1..WorkspaceCount
	MonitorIndex int
	Rect         geometry.Rect
	OriginalRect geometry.Rect // pre-fullscreen tiled rect
	IsFocused    bool
	IsFullscreen bool
	IsTiled      bool
	HiddenByUs   bool
}

// Workspace is an ordered sequence of window handles plus a cached layout
// tree. Order is insertion order, newest last, and determines dwindle
// placement.
type Workspace struct {
	Number  int
	Order   []WindowHandle
	Tree    *bsp.Node
	Ratios  map[string]float64
	Splits  map[string]bsp.SplitDir
	Dirty   bool
}

func newWorkspace(n int) *Workspace {
	return &Workspace{Number: n, Dirty: true}
}

// IndexOf returns the position of handle in the workspace order, or -1.
func (w *Workspace) IndexOf(h WindowHandle) int {
	for i, x := range w.Order {
		if x == h {
			return i
		}
	}
	return -1
}

// InvalidateTree drops the cached layout tree but preserves per-node
// ratios/split directions so the next rebuild can restore them (spec.md
// §4.2: "preserve them by keying nodes on (depth, path) across rebuilds
// when the window count is unchanged").
func (w *Workspace) InvalidateTree() {
	if w.Tree != nil {
		w.Ratios = bsp.PathRatios(w.Tree)
		w.Splits = bsp.PathSplits(w.Tree)
	}
	w.Tree = nil
	w.Dirty = true
}

// Monitor is a physical display and its nine workspaces. WorkRect is the
// tiling area (full rect minus taskbar/status-bar reservations); FullRect
// is the entire physical display, used only for fullscreen placement
// (spec.md §4.5: "positioned at the monitor's full screen rect (not work
// rect)").
type Monitor struct {
	ID                   int
	WorkRect             geometry.Rect
	FullRect             geometry.Rect
	Workspaces           [WorkspaceCount + 1]*Workspace // 1-indexed, [0] unused
	ActiveWorkspaceIndex int
}

func newMonitor(id int, workRect, fullRect geometry.Rect, activeWorkspace int) *Monitor {
	m := &Monitor{ID: id, WorkRect: workRect, FullRect: fullRect, ActiveWorkspaceIndex: activeWorkspace}
	for i := 1; i <= WorkspaceCount; i++ {
		m.Workspaces[i] = newWorkspace(i)
	}
	return m
}

// Location identifies where a window lives.
type Location struct {
	MonitorIndex int
	Workspace    int
}

// Model is the complete durable state owned by the event loop. Mutators
// perform no locking themselves and assume the caller already holds the
// write lock; the event loop takes Lock() for the duration of each
// drain-and-reconcile pass (spec.md §5), so only one mutation sequence runs
// at a time. The RWMutex exists so read-only queries (status bar render,
// IPC status) issued from other goroutines can safely snapshot state via
// RLock()/RUnlock() without racing a mutator.
type Model struct {
	mu sync.RWMutex

	Monitors          []*Monitor
	ActiveWorkspace   int
	StatusbarVisible  bool
	LastFocusedHandle WindowHandle

	GapSize      int
	EdgeInset    int
	DefaultRatio float64

	windows             map[WindowHandle]*Window
	windowLocationIndex map[WindowHandle]Location
}

// MonitorSpec describes one physical display when constructing a Model.
type MonitorSpec struct {
	ID       int
	WorkRect geometry.Rect
	FullRect geometry.Rect
}

// New creates an empty model with the given monitor work rects, all
// starting on workspace 1. FullRect is set equal to WorkRect; callers that
// need accurate fullscreen placement (i.e. production backends, not
// tests) should use NewWithMonitors.
func New(monitorWorkRects []geometry.Rect, gapSize, edgeInset int, defaultRatio float64) *Model {
	specs := make([]MonitorSpec, len(monitorWorkRects))
	for i, r := range monitorWorkRects {
		specs[i] = MonitorSpec{ID: i, WorkRect: r, FullRect: r}
	}
	return NewWithMonitors(specs, gapSize, edgeInset, defaultRatio)
}

// NewWithMonitors creates an empty model from explicit monitor specs,
// preserving each monitor's opaque ID (used by hotplug to match monitors
// across topology changes) and distinguishing WorkRect from FullRect.
func NewWithMonitors(specs []MonitorSpec, gapSize, edgeInset int, defaultRatio float64) *Model {
	m := &Model{
		ActiveWorkspace:     1,
		StatusbarVisible:    true,
		GapSize:             gapSize,
		EdgeInset:           edgeInset,
		DefaultRatio:        defaultRatio,
		windows:             make(map[WindowHandle]*Window),
		windowLocationIndex: make(map[WindowHandle]Location),
	}
	for _, s := range specs {
		m.Monitors = append(m.Monitors, newMonitor(s.ID, s.WorkRect, s.FullRect, 1))
	}
	return m
}

// Lock/Unlock/RLock/RUnlock expose the model's guard directly to the event
// loop and reconciler, which perform multi-step mutations that must not be
// interleaved with a concurrent status read.
func (m *Model) Lock()    { m.mu.Lock() }
func (m *Model) Unlock()  { m.mu.Unlock() }
func (m *Model) RLock()   { m.mu.RLock() }
func (m *Model) RUnlock() { m.mu.RUnlock() }

// Window returns a copy of the window state for handle, if modeled.
func (m *Model) Window(h WindowHandle) (Window, bool) {
	w, ok := m.windows[h]
	if !ok {
		return Window{}, false
	}
	return *w, true
}

// MutateWindow applies fn to the stored window for h, if present, and
// reports whether it found one.
func (m *Model) MutateWindow(h WindowHandle, fn func(*Window)) bool {
	w, ok := m.windows[h]
	if !ok {
		return false
	}
	fn(w)
	return true
}

// Location returns the modeled location of h.
func (m *Model) Location(h WindowHandle) (Location, bool) {
	loc, ok := m.windowLocationIndex[h]
	return loc, ok
}

// Monitor returns the monitor at index, or an error if out of range.
func (m *Model) Monitor(index int) (*Monitor, error) {
	if index < 0 || index >= len(m.Monitors) {
		return nil, fmt.Errorf("monitor index %d out of range (have %d monitors)", index, len(m.Monitors))
	}
	return m.Monitors[index], nil
}

// AllWindows returns every modeled window, in no particular order.
func (m *Model) AllWindows() []Window {
	out := make([]Window, 0, len(m.windows))
	for _, w := range m.windows {
		out = append(out, *w)
	}
	return out
}

// WorkspaceCounts returns, for workspace numbers 1..9, the count of
// windows modeled on that workspace across all monitors — the status bar
// boundary's per_workspace_counts.
func (m *Model) WorkspaceCounts() [WorkspaceCount + 1]int {
	var counts [WorkspaceCount + 1]int
	for _, w := range m.windows {
		counts[w.Workspace]++
	}
	return counts
}

// RebuildIndex rebuilds windowLocationIndex from the monitor/workspace
// structure. It is never the source of truth (spec.md §3) and must be
// called whenever monitor or workspace structure changes outside the
// normal insert/remove/move mutators (e.g. after hotplug).
func (m *Model) RebuildIndex() {
	idx := make(map[WindowHandle]Location, len(m.windows))
	for mi, mon := range m.Monitors {
		for wsN := 1; wsN <= WorkspaceCount; wsN++ {
			ws := mon.Workspaces[wsN]
			for _, h := range ws.Order {
				idx[h] = Location{MonitorIndex: mi, Workspace: wsN}
			}
		}
	}
	m.windowLocationIndex = idx
}
