package statusbar

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/tilewm/tilewm/internal/geometry"
	"github.com/tilewm/tilewm/internal/model"
)

type fakeRenderer struct {
	mu     sync.Mutex
	states []State
}

func (f *fakeRenderer) Render(state State) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states = append(f.states, state)
}

func (f *fakeRenderer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.states)
}

func TestBuildStateReflectsModel(t *testing.T) {
	m := model.New([]geometry.Rect{{Left: 0, Top: 0, Right: 1920, Bottom: 1080}}, 4, 2, 0.5)
	m.InsertWindow(1, 0, 1, "A", geometry.Rect{})
	m.InsertWindow(2, 0, 3, "B", geometry.Rect{})

	state := BuildState(m)
	if state.ActiveWorkspace != 1 {
		t.Errorf("ActiveWorkspace = %d, want 1", state.ActiveWorkspace)
	}
	if state.PerWorkspaceCounts[1] != 1 || state.PerWorkspaceCounts[3] != 1 {
		t.Errorf("PerWorkspaceCounts = %v, want 1 at indices 1 and 3", state.PerWorkspaceCounts)
	}
	if !state.Visible {
		t.Error("Visible = false, want true (default StatusbarVisible)")
	}
	if state.Clock == "" {
		t.Error("Clock is empty")
	}
}

func TestRenderLoopStopsOnCancel(t *testing.T) {
	m := model.New([]geometry.Rect{{Left: 0, Top: 0, Right: 1920, Bottom: 1080}}, 4, 2, 0.5)
	renderer := &fakeRenderer{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		RenderLoop(ctx, m, renderer, 10*time.Millisecond)
		close(done)
	}()

	deadline := time.After(time.Second)
	for renderer.count() == 0 {
		select {
		case <-deadline:
			t.Fatal("renderer was never called")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RenderLoop did not return after cancel")
	}
}
