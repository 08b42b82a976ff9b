// Package statusbar implements the render(state) boundary described in
// spec.md §6: the core computes an abstract status-bar state snapshot
// and hands it to an external renderer on a coarse interval. The pixel
// rendering itself is explicitly out of scope (spec.md §1, §4 Non-goals);
// this package only owns the snapshot and the drive loop, grounded on the
// predecessor's internal/daemon/reconciler.go ticker-goroutine shape
// (context cancellation, panic-free best-effort calls, one log line per
// lifecycle event).
package statusbar

import (
	"context"
	"log"
	"time"

	"github.com/tilewm/tilewm/internal/model"
)

// State is the render(state) contract from spec.md §6: active workspace,
// the nine per-workspace window counts, and a clock string the renderer
// displays verbatim.
type State struct {
	ActiveWorkspace    int
	PerWorkspaceCounts [model.WorkspaceCount + 1]int
	Visible            bool
	Clock              string
}

// Renderer is the external collaborator spec.md §1 calls "the status-bar
// pixel renderer" — out of scope here, implemented by whatever draws the
// bar (a themed bar process, a debug logger, a test fake).
type Renderer interface {
	Render(state State)
}

// BuildState snapshots m into a State. Callers must hold at least a read
// lock on m for the duration of the call.
func BuildState(m *model.Model) State {
	return State{
		ActiveWorkspace:    m.ActiveWorkspace,
		PerWorkspaceCounts: m.WorkspaceCounts(),
		Visible:            m.StatusbarVisible,
		Clock:              time.Now().Format("15:04"),
	}
}

// RenderLoop calls renderer.Render with a fresh State every interval until
// ctx is cancelled. It is meant to run in its own goroutine, separate from
// the event loop, using the model's RWMutex read path rather than the
// event loop's single-threaded write path (spec.md §3: "the RWMutex exists
// only so read-only queries... can safely snapshot state without racing a
// mutator").
func RenderLoop(ctx context.Context, m *model.Model, renderer Renderer, interval time.Duration) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Println("statusbar: render loop started")
	for {
		select {
		case <-ctx.Done():
			log.Println("statusbar: render loop stopping (context cancelled)")
			return
		case <-ticker.C:
			m.RLock()
			state := BuildState(m)
			m.RUnlock()
			renderer.Render(state)
		}
	}
}
