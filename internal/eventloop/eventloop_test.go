package eventloop

import (
	"context"
	"testing"
	"time"

	"github.com/tilewm/tilewm/internal/actions"
	"github.com/tilewm/tilewm/internal/filter"
	"github.com/tilewm/tilewm/internal/geometry"
	"github.com/tilewm/tilewm/internal/model"
)

type fakeLookup struct {
	info map[model.WindowHandle]filter.Info
	rect map[model.WindowHandle]geometry.Rect
}

func (f *fakeLookup) Metadata(h model.WindowHandle) (filter.Info, error) { return f.info[h], nil }
func (f *fakeLookup) Rect(h model.WindowHandle) (geometry.Rect, error)   { return f.rect[h], nil }
func (f *fakeLookup) Valid(h model.WindowHandle) bool                   { return true }

type fakeReconciler struct{ calls int }

func (f *fakeReconciler) Reconcile(m *model.Model) { f.calls++ }

type fakeHotplug struct{ calls int }

func (f *fakeHotplug) Run(m *model.Model) error { f.calls++; return nil }

type fakeCommands struct{}

func (fakeCommands) SetForeground(h model.WindowHandle) error { return nil }
func (fakeCommands) Close(h model.WindowHandle) error         { return nil }

func newTestLoop(t *testing.T) (*Loop, *fakeLookup, *fakeReconciler) {
	t.Helper()
	m := model.New([]geometry.Rect{{Left: 0, Top: 0, Right: 1920, Bottom: 1080}}, 4, 2, 0.5)
	lookup := &fakeLookup{
		info: map[model.WindowHandle]filter.Info{
			1: {Valid: true, Visible: true, Title: "A", ThickFrame: true, IntersectsMonitor: true},
		},
		rect: map[model.WindowHandle]geometry.Rect{
			1: {Left: 10, Top: 10, Right: 100, Bottom: 100},
		},
	}
	rec := &fakeReconciler{}
	loop := New(Config{
		Model:      m,
		Lookup:     lookup,
		Reconciler: rec,
		Hotplug:    &fakeHotplug{},
		Commands:   fakeCommands{},
		Candidates: func(mi, ws int, exclude model.WindowHandle) []actions.Candidate { return nil },
	})
	return loop, lookup, rec
}

func TestAdmitIfNewInsertsAdmissibleWindow(t *testing.T) {
	loop, _, _ := newTestLoop(t)
	loop.admitIfNew(1)

	w, ok := loop.model.Window(1)
	if !ok {
		t.Fatal("admissible window was not inserted")
	}
	if w.Title != "A" {
		t.Fatalf("title = %q, want A", w.Title)
	}
}

func TestAdmitIfNewRejectsInadmissible(t *testing.T) {
	loop, lookup, _ := newTestLoop(t)
	lookup.info[2] = filter.Info{Valid: true, Visible: true, Title: ""} // no title
	loop.admitIfNew(2)

	if _, ok := loop.model.Window(2); ok {
		t.Fatal("inadmissible window should not be inserted")
	}
}

func TestRunExitsOnExitAction(t *testing.T) {
	loop, _, _ := newTestLoop(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		loop.Run(ctx)
		close(done)
	}()

	loop.Actions() <- actions.Exit()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Exit action")
	}
}

func TestRunReconcilesOnOSEvent(t *testing.T) {
	loop, _, rec := newTestLoop(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go loop.Run(ctx)
	loop.OSEvents() <- OSEvent{Kind: Created, Handle: 1}

	deadline := time.After(time.Second)
	for {
		if rec.calls > 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("reconciler was never invoked after OS event")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
