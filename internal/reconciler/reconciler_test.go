package reconciler

import (
	"testing"

	"github.com/tilewm/tilewm/internal/geometry"
	"github.com/tilewm/tilewm/internal/model"
	"github.com/tilewm/tilewm/internal/platform"
)

type fakeBackend struct {
	moveResizeCalls int
	showCalls       int
	hideCalls       int
	topmostCalls    int
	borderCalls     int
}

func (f *fakeBackend) MoveResize(id platform.WindowID, bounds platform.Rect) error {
	f.moveResizeCalls++
	return nil
}
func (f *fakeBackend) Show(id platform.WindowID) error { f.showCalls++; return nil }
func (f *fakeBackend) Hide(id platform.WindowID) error { f.hideCalls++; return nil }
func (f *fakeBackend) SetTopmost(id platform.WindowID, topmost bool) error {
	f.topmostCalls++
	return nil
}
func (f *fakeBackend) SetBorderColor(id platform.WindowID, color platform.RGBA) error {
	f.borderCalls++
	return nil
}
func (f *fakeBackend) SetTransparency(id platform.WindowID, alpha uint8) error { return nil }

func newTestModel() *model.Model {
	m := model.New([]geometry.Rect{{Left: 0, Top: 0, Right: 1920, Bottom: 1080}}, 4, 2, 0.5)
	m.InsertWindow(1, 0, 1, "A", geometry.Rect{})
	m.InsertWindow(2, 0, 1, "B", geometry.Rect{})
	return m
}

func TestReconcileIdempotent(t *testing.T) {
	m := newTestModel()
	backend := &fakeBackend{}
	r := New(backend, nil)

	r.Reconcile(m)
	first := backend.moveResizeCalls

	r.Reconcile(m)
	if backend.moveResizeCalls != first {
		t.Fatalf("second reconcile issued %d more MoveResize calls, want 0 additional (spec.md §8 idempotence)", backend.moveResizeCalls-first)
	}
}

func TestReconcileTopmostIdempotent(t *testing.T) {
	m := newTestModel()
	backend := &fakeBackend{}
	r := New(backend, nil)

	r.Reconcile(m)
	first := backend.topmostCalls
	if first == 0 {
		t.Fatal("expected at least one SetTopmost call on the first reconcile")
	}

	r.Reconcile(m)
	if backend.topmostCalls != first {
		t.Fatalf("second reconcile issued %d more SetTopmost calls, want 0 additional (spec.md §8 idempotence)", backend.topmostCalls-first)
	}
}

func TestReconcileHidesInactiveWorkspace(t *testing.T) {
	m := newTestModel()
	backend := &fakeBackend{}
	r := New(backend, nil)

	r.Reconcile(m)
	if err := m.SetActiveWorkspace(2); err != nil {
		t.Fatalf("SetActiveWorkspace: %v", err)
	}

	hideBefore := backend.hideCalls
	r.Reconcile(m)
	if backend.hideCalls-hideBefore != 2 {
		t.Fatalf("hide calls after switch = %d, want 2 (spec.md §8 scenario 3)", backend.hideCalls-hideBefore)
	}

	for _, h := range []model.WindowHandle{1, 2} {
		w, _ := m.Window(h)
		if !w.HiddenByUs {
			t.Errorf("window %v should be HiddenByUs after workspace switch", h)
		}
	}
}

func TestReconcileFullscreenUsesFullMonitorRectAndTopmost(t *testing.T) {
	m := newTestModel()
	backend := &fakeBackend{}
	r := New(backend, nil)

	r.Reconcile(m)
	if err := m.ToggleFullscreen(1); err != nil {
		t.Fatalf("ToggleFullscreen: %v", err)
	}

	r.Reconcile(m)
	if backend.topmostCalls == 0 {
		t.Fatal("expected at least one SetTopmost call for fullscreen window")
	}
}

func TestRestoreAllShowsHiddenWindowsOnShutdown(t *testing.T) {
	m := newTestModel()
	backend := &fakeBackend{}
	r := New(backend, nil)

	r.Reconcile(m)
	if err := m.SetActiveWorkspace(2); err != nil {
		t.Fatalf("SetActiveWorkspace: %v", err)
	}
	r.Reconcile(m)

	for _, h := range []model.WindowHandle{1, 2} {
		w, _ := m.Window(h)
		if !w.HiddenByUs {
			t.Fatalf("window %v expected HiddenByUs before RestoreAll", h)
		}
	}

	showBefore := backend.showCalls
	r.RestoreAll(m)
	if backend.showCalls-showBefore != 2 {
		t.Fatalf("RestoreAll issued %d show calls, want 2", backend.showCalls-showBefore)
	}
	for _, h := range []model.WindowHandle{1, 2} {
		w, _ := m.Window(h)
		if w.HiddenByUs {
			t.Errorf("window %v still HiddenByUs after RestoreAll", h)
		}
	}
}

func TestReconcileDecorationOnlyOnFocusChange(t *testing.T) {
	m := newTestModel()
	backend := &fakeBackend{}
	r := New(backend, nil)

	m.LastFocusedHandle = 1
	r.Reconcile(m)
	calls := backend.borderCalls
	if calls == 0 {
		t.Fatal("expected decoration call on first focus set")
	}

	r.Reconcile(m)
	if backend.borderCalls != calls {
		t.Fatalf("decoration calls changed with no focus change: %d -> %d", calls, backend.borderCalls)
	}
}
