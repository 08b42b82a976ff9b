// Package hotplug detects monitor topology changes and migrates orphaned
// windows onto the surviving monitors (spec.md §4.7). It is grounded on
// the predecessor's internal/daemon reconcile-ticker shape (debounce
// timestamp, best-effort logging) adapted to drive model.Model.Migrate
// instead of a tmux-session pass.
package hotplug

import (
	"log"
	"time"

	"github.com/tilewm/tilewm/internal/geometry"
	"github.com/tilewm/tilewm/internal/model"
)

// MonitorInfo describes one currently-connected physical display, as
// reported by the platform's monitor enumeration.
type MonitorInfo struct {
	ID       int
	WorkRect geometry.Rect
	FullRect geometry.Rect
}

// Enumerator lists the currently-connected monitors.
type Enumerator interface {
	Enumerate() ([]MonitorInfo, error)
}

// Shower is the pre-step safety net: it force-shows a window regardless of
// the model's hidden_by_us bit, so a crash mid-migration never leaves a
// window invisible (spec.md §4.7).
type Shower interface {
	Show(h model.WindowHandle) error
}

// Reconciler re-applies model state to the backend immediately after a
// migration, so windows land on their new monitor without waiting for the
// next tick.
type Reconciler interface {
	Reconcile(m *model.Model)
}

// Hotplug implements eventloop.Hotplug, debouncing repeated display-change
// notifications and running the full migration procedure at most once per
// MinInterval (spec.md §4.7: "Debounced with a 500 ms minimum interval").
type Hotplug struct {
	enumerate   Enumerator
	show        Shower
	reconcile   Reconciler
	minInterval time.Duration
	lastRun     time.Time
}

// New creates a Hotplug. minInterval <= 0 defaults to 500ms.
func New(enumerate Enumerator, show Shower, reconcile Reconciler, minInterval time.Duration) *Hotplug {
	if minInterval <= 0 {
		minInterval = 500 * time.Millisecond
	}
	return &Hotplug{enumerate: enumerate, show: show, reconcile: reconcile, minInterval: minInterval}
}

// Run executes the monitor migration procedure against m. It is a no-op
// (returning nil) if called again before minInterval has elapsed since the
// last successful run, or if the platform reports no connected monitors
// (treated as a transient query failure rather than "zero displays").
//
// Run mutates m and must be called with m's lock already held by the
// caller (the event loop holds it for the full tick, per spec.md §5: "the
// model is unshared" outside the event loop goroutine) — it does not lock
// internally, since sync.RWMutex is not reentrant and the event loop is
// Run's only caller.
func (h *Hotplug) Run(m *model.Model) error {
	now := time.Now()
	if !h.lastRun.IsZero() && now.Sub(h.lastRun) < h.minInterval {
		return nil
	}

	// Pre-step: show every modeled window in the taskbar regardless of
	// hidden_by_us, so an abnormal exit mid-migration never leaves a
	// window invisible (spec.md §4.7).
	for _, w := range m.AllWindows() {
		if err := h.show.Show(w.Handle); err != nil {
			log.Printf("hotplug: pre-step show %v: %v", w.Handle, err)
		}
	}

	infos, err := h.enumerate.Enumerate()
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		log.Println("hotplug: monitor enumeration returned no displays, skipping migration")
		return nil
	}

	specs := make([]model.MonitorSpec, len(infos))
	for i, info := range infos {
		specs[i] = model.MonitorSpec{ID: info.ID, WorkRect: info.WorkRect, FullRect: info.FullRect}
	}

	result := m.Migrate(specs)
	h.reconcile.Reconcile(m)
	// The post-migration rect is the only rect that still corresponds to
	// a live monitor; original_rect is reset so a later fullscreen-toggle
	// exit never restores a window to a rect on a monitor that no longer
	// exists (resolved open question, spec.md §9).
	for _, hdl := range result.MigratedHandles {
		m.MutateWindow(hdl, func(w *model.Window) { w.OriginalRect = w.Rect })
	}

	h.lastRun = now
	if len(result.OrphanedMonitorIDs) > 0 {
		log.Printf("hotplug: monitors %v disconnected, migrated %d window(s)", result.OrphanedMonitorIDs, len(result.MigratedHandles))
	}

	return nil
}
