package hotplug

import (
	"testing"
	"time"

	"github.com/tilewm/tilewm/internal/geometry"
	"github.com/tilewm/tilewm/internal/model"
)

type fakeEnumerator struct {
	infos []MonitorInfo
	err   error
	calls int
}

func (f *fakeEnumerator) Enumerate() ([]MonitorInfo, error) {
	f.calls++
	return f.infos, f.err
}

type fakeShower struct{ shown []model.WindowHandle }

func (f *fakeShower) Show(h model.WindowHandle) error {
	f.shown = append(f.shown, h)
	return nil
}

type fakeReconciler struct{ calls int }

func (f *fakeReconciler) Reconcile(m *model.Model) { f.calls++ }

func newTestModel() *model.Model {
	specs := []model.MonitorSpec{
		{ID: 0, WorkRect: geometry.Rect{Left: 0, Top: 0, Right: 1920, Bottom: 1080}, FullRect: geometry.Rect{Left: 0, Top: 0, Right: 1920, Bottom: 1080}},
		{ID: 1, WorkRect: geometry.Rect{Left: 1920, Top: 0, Right: 3840, Bottom: 1080}, FullRect: geometry.Rect{Left: 1920, Top: 0, Right: 3840, Bottom: 1080}},
	}
	return model.NewWithMonitors(specs, 4, 2, 0.5)
}

func TestRunMigratesOrphanedWindows(t *testing.T) {
	m := newTestModel()
	m.InsertWindow(1, 1, 1, "C", geometry.Rect{})

	enum := &fakeEnumerator{infos: []MonitorInfo{
		{ID: 0, WorkRect: geometry.Rect{Left: 0, Top: 0, Right: 1920, Bottom: 1080}, FullRect: geometry.Rect{Left: 0, Top: 0, Right: 1920, Bottom: 1080}},
	}}
	show := &fakeShower{}
	rec := &fakeReconciler{}
	hp := New(enum, show, rec, 0)

	if err := hp.Run(m); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(m.Monitors) != 1 {
		t.Fatalf("len(Monitors) = %d, want 1", len(m.Monitors))
	}
	w, ok := m.Window(1)
	if !ok || w.MonitorIndex != 0 {
		t.Fatalf("window 1 not migrated onto surviving monitor: %+v, %v", w, ok)
	}
	if w.OriginalRect != w.Rect {
		t.Errorf("OriginalRect = %+v, want reset to post-migration Rect %+v", w.OriginalRect, w.Rect)
	}
	if rec.calls != 1 {
		t.Errorf("reconcile calls = %d, want 1", rec.calls)
	}
	if len(show.shown) != 1 {
		t.Errorf("pre-step show calls = %d, want 1 (safety net)", len(show.shown))
	}
}

func TestRunDebouncesWithinMinInterval(t *testing.T) {
	m := newTestModel()
	enum := &fakeEnumerator{infos: []MonitorInfo{
		{ID: 0, WorkRect: geometry.Rect{Left: 0, Top: 0, Right: 1920, Bottom: 1080}},
		{ID: 1, WorkRect: geometry.Rect{Left: 1920, Top: 0, Right: 3840, Bottom: 1080}},
	}}
	hp := New(enum, &fakeShower{}, &fakeReconciler{}, time.Hour)

	if err := hp.Run(m); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if err := hp.Run(m); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if enum.calls != 1 {
		t.Fatalf("Enumerate called %d times, want 1 (second call should be debounced)", enum.calls)
	}
}

func TestRunSkipsOnEmptyEnumeration(t *testing.T) {
	m := newTestModel()
	enum := &fakeEnumerator{infos: nil}
	rec := &fakeReconciler{}
	hp := New(enum, &fakeShower{}, rec, 0)

	if err := hp.Run(m); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(m.Monitors) != 2 {
		t.Fatalf("len(Monitors) = %d, want unchanged 2 (empty enumeration must skip)", len(m.Monitors))
	}
	if rec.calls != 0 {
		t.Errorf("reconcile calls = %d, want 0 when migration is skipped", rec.calls)
	}
}
