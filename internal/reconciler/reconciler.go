// Package reconciler applies the model's target state to the OS backend,
// issuing the minimum set of platform calls per spec.md §4.5. It is
// grounded on the predecessor's internal/daemon/reconciler.go for its
// best-effort logging shape, adapted here to a diff-against-
// last-applied-state model instead of a tmux-session liveness check.
package reconciler

import (
	"log"

	"github.com/tilewm/tilewm/internal/bsp"
	"github.com/tilewm/tilewm/internal/geometry"
	"github.com/tilewm/tilewm/internal/model"
	"github.com/tilewm/tilewm/internal/platform"
)

// Backend is the subset of platform.Backend the reconciler drives.
type Backend interface {
	MoveResize(id platform.WindowID, bounds platform.Rect) error
	Show(id platform.WindowID) error
	Hide(id platform.WindowID) error
	SetTopmost(id platform.WindowID, topmost bool) error
	SetBorderColor(id platform.WindowID, color platform.RGBA) error
	SetTransparency(id platform.WindowID, alpha uint8) error
}

// FrameInsetQuery returns the measured per-edge DWM/compositor frame inset
// for a handle (spec.md §4.2). The predecessor does not measure this (it
// relies on ewmh.FrameExtentsGet per call in x11/windows.go); the
// reconciler only calls the query, and any caching is up to the caller
// that supplies it.
type FrameInsetQuery func(h model.WindowHandle) (left, top, right, bottom int)

// Reconciler tracks last-applied state so repeated reconcile passes with
// no intervening model mutation issue zero platform calls (spec.md §8:
// "Running reconcile twice in a row... must issue zero platform calls on
// the second run").
type Reconciler struct {
	backend     Backend
	insets      FrameInsetQuery
	lastRect    map[model.WindowHandle]geometry.Rect
	lastTopmost map[model.WindowHandle]bool
	hiddenSet   map[model.WindowHandle]bool
	lastFocus   model.WindowHandle
}

const (
	focusedBorder   = platform.RGBA{R: 0x4c, G: 0x9b, B: 0xff, A: 0xff}
	unfocusedBorder = platform.RGBA{R: 0x55, G: 0x55, B: 0x55, A: 0xff}
)

// New creates a Reconciler. insets may be nil, in which case no border
// compensation is applied (used in tests and by backends without frame
// extent support).
func New(backend Backend, insets FrameInsetQuery) *Reconciler {
	return &Reconciler{
		backend:     backend,
		insets:      insets,
		lastRect:    make(map[model.WindowHandle]geometry.Rect),
		lastTopmost: make(map[model.WindowHandle]bool),
		hiddenSet:   make(map[model.WindowHandle]bool),
	}
}

// Forget drops cached state for a destroyed handle.
func (r *Reconciler) Forget(h model.WindowHandle) {
	delete(r.lastRect, h)
	delete(r.lastTopmost, h)
	delete(r.hiddenSet, h)
}

// Reconcile diffs m against the reconciler's last-applied state and issues
// the minimal set of platform calls, per the contracts in spec.md §4.5.
// All platform calls are best-effort: a failure is logged and does not
// abort the pass (spec.md §7 policy 1).
func (r *Reconciler) Reconcile(m *model.Model) {
	for mi, mon := range m.Monitors {
		r.reconcileMonitor(m, mi, mon)
	}
}

func (r *Reconciler) reconcileMonitor(m *model.Model, monitorIndex int, mon *model.Monitor) {
	active := mon.ActiveWorkspaceIndex

	for wsN := 1; wsN <= model.WorkspaceCount; wsN++ {
		ws := mon.Workspaces[wsN]
		isActive := wsN == active

		if !isActive {
			r.hideInactiveWorkspace(m, ws)
			continue
		}
		r.showActiveWorkspace(m, ws)
	}

	ws := mon.Workspaces[active]
	r.layoutAndPosition(m, monitorIndex, mon, ws)
	r.updateDecorations(m, ws)
}

func (r *Reconciler) hideInactiveWorkspace(m *model.Model, ws *model.Workspace) {
	for _, h := range ws.Order {
		w, ok := m.Window(h)
		if !ok || w.HiddenByUs {
			continue
		}
		if err := r.backend.Hide(platform.WindowID(h)); err != nil {
			log.Printf("reconciler: hide %v: %v", h, err)
			continue
		}
		m.MutateWindow(h, func(win *model.Window) { win.HiddenByUs = true })
		r.hiddenSet[h] = true
	}
}

func (r *Reconciler) showActiveWorkspace(m *model.Model, ws *model.Workspace) {
	for _, h := range ws.Order {
		w, ok := m.Window(h)
		if !ok || !w.HiddenByUs {
			continue
		}
		// Show before reposition to avoid an initial flash at stale
		// coordinates (spec.md §4.5).
		if err := r.backend.Show(platform.WindowID(h)); err != nil {
			log.Printf("reconciler: show %v: %v", h, err)
			continue
		}
		target := r.compensated(h, w.Rect)
		if err := r.backend.MoveResize(platform.WindowID(h), toPlatformRect(target)); err != nil {
			log.Printf("reconciler: reposition %v: %v", h, err)
		} else {
			r.lastRect[h] = target
		}
		m.MutateWindow(h, func(win *model.Window) { win.HiddenByUs = false })
		delete(r.hiddenSet, h)
	}
}

func (r *Reconciler) layoutAndPosition(m *model.Model, monitorIndex int, mon *model.Monitor, ws *model.Workspace) {
	inset := m.EdgeInset
	outer := mon.WorkRect.Inset(inset)

	tree := m.EnsureTree(ws, outer)
	var leaves map[model.WindowHandle]geometry.Rect
	if tree != nil {
		leaves = bsp.Leaves(tree)
	}

	for _, h := range ws.Order {
		w, ok := m.Window(h)
		if !ok {
			continue
		}

		var target geometry.Rect
		switch {
		case w.IsFullscreen:
			target = mon.FullRect // full monitor rect, not the tiling work rect
			r.applyTopmost(h, true)
		case !w.IsTiled:
			target = w.Rect // floating: retain last user-set rect
		default:
			var ok2 bool
			target, ok2 = leaves[h]
			if !ok2 {
				continue
			}
			r.applyTopmost(h, false)
		}

		target = r.compensated(h, target)
		if last, ok := r.lastRect[h]; ok && last.Equal(target) {
			continue
		}
		if err := r.backend.MoveResize(platform.WindowID(h), toPlatformRect(target)); err != nil {
			log.Printf("reconciler: reposition %v: %v", h, err)
			continue
		}
		r.lastRect[h] = target
		m.MutateWindow(h, func(win *model.Window) {
			if !win.IsFullscreen {
				win.Rect = target
			}
		})
	}
}

// updateDecorations updates border color only for the currently and
// previously foreground windows, and only when the foreground actually
// changed (spec.md §4.5, and the decoration-flicker policy resolved in
// SPEC_FULL.md §4).
func (r *Reconciler) updateDecorations(m *model.Model, ws *model.Workspace) {
	focused := m.LastFocusedHandle
	if focused == r.lastFocus {
		return
	}

	if r.lastFocus != 0 {
		if err := r.backend.SetBorderColor(platform.WindowID(r.lastFocus), unfocusedBorder); err != nil {
			log.Printf("reconciler: unfocus decoration %v: %v", r.lastFocus, err)
		}
	}
	if focused != 0 {
		if err := r.backend.SetBorderColor(platform.WindowID(focused), focusedBorder); err != nil {
			log.Printf("reconciler: focus decoration %v: %v", focused, err)
		}
	}
	r.lastFocus = focused
}

// RestoreAll force-shows every modeled window whose HiddenByUs bit is set,
// regardless of which workspace is active. It is the shutdown cleanup pass
// required by spec.md §4.6 ("the loop exits after running the cleanup pass
// in §7") and §7 policy 4 ("never leave a managed window invisible"):
// called once after the event loop stops, so an abnormal exit never leaves
// a window the manager hid stuck off the taskbar.
func (r *Reconciler) RestoreAll(m *model.Model) {
	for _, w := range m.AllWindows() {
		if !w.HiddenByUs {
			continue
		}
		if err := r.backend.Show(platform.WindowID(w.Handle)); err != nil {
			log.Printf("reconciler: shutdown restore %v: %v", w.Handle, err)
			continue
		}
		m.MutateWindow(w.Handle, func(win *model.Window) { win.HiddenByUs = false })
		delete(r.hiddenSet, w.Handle)
	}
}

// applyTopmost issues SetTopmost only when it differs from the last-applied
// value for h, so that a second reconcile of an unchanged fullscreen or
// tiled window issues zero additional platform calls (spec.md §8
// idempotence property), mirroring the lastRect diff below.
func (r *Reconciler) applyTopmost(h model.WindowHandle, topmost bool) {
	if last, ok := r.lastTopmost[h]; ok && last == topmost {
		return
	}
	if err := r.backend.SetTopmost(platform.WindowID(h), topmost); err != nil {
		log.Printf("reconciler: set_topmost %v: %v", h, err)
		return
	}
	r.lastTopmost[h] = topmost
}

func (r *Reconciler) compensated(h model.WindowHandle, rect geometry.Rect) geometry.Rect {
	if r.insets == nil {
		return rect
	}
	left, top, right, bottom := r.insets(h)
	return geometry.Rect{
		Left:   rect.Left - left,
		Top:    rect.Top - top,
		Right:  rect.Right + right,
		Bottom: rect.Bottom + bottom,
	}
}

func toPlatformRect(r geometry.Rect) platform.Rect {
	return platform.Rect{X: r.Left, Y: r.Top, Width: r.Width(), Height: r.Height()}
}

