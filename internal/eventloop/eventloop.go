// Package eventloop drains OS window events, hotkey actions, and a coarse
// timer tick onto a single-producer/single-consumer queue and drives model
// mutation, hotplug detection, and reconciliation from one goroutine
// (spec.md §4.6). The channel-based dispatch shape is grounded on
// cortile's desktop-tracker.go Channels{Event, Action chan string}
// pattern; the ticker/shutdown shape is grounded on the predecessor's
// internal/daemon/reconciler.go.
package eventloop

import (
	"context"
	"log"
	"time"

	"github.com/tilewm/tilewm/internal/actions"
	"github.com/tilewm/tilewm/internal/filter"
	"github.com/tilewm/tilewm/internal/geometry"
	"github.com/tilewm/tilewm/internal/model"
)

// OSEventKind enumerates the OS window-event hook sources from spec.md
// §4.6.
type OSEventKind int

const (
	Created OSEventKind = iota
	Destroyed
	Shown
	Hidden
	LocationChanged
	ForegroundChanged
	MinimizeStart
	MinimizeEnd
	DisplayChanged
)

// OSEvent is a single inbound OS window-event hook firing.
type OSEvent struct {
	Kind   OSEventKind
	Handle model.WindowHandle
}

// WindowLookup resolves the admit-filter metadata and current rect for a
// handle the event loop hasn't modeled yet (on Created/Shown, or
// late-admission on LocationChanged).
type WindowLookup interface {
	Metadata(h model.WindowHandle) (filter.Info, error)
	Rect(h model.WindowHandle) (geometry.Rect, error)
	// Valid reports whether h still refers to a live OS window. The timer
	// tick uses this to prune stale handles on the active workspace
	// (spec.md §4.6).
	Valid(h model.WindowHandle) bool
}

// Reconciler is the subset of *reconciler.Reconciler the loop drives.
type Reconciler interface {
	Reconcile(m *model.Model)
}

// Hotplug runs the monitor migration procedure (spec.md §4.7) and returns
// any error from it.
type Hotplug interface {
	Run(m *model.Model) error
}

// Forgetter is implemented by reconcilers that cache per-handle state
// needing explicit invalidation when a handle stops being modeled
// (spec.md §5: "The cached DWM inset per handle is owned by the
// reconciler and freed on destroy events"). Checked via a type
// assertion against Reconciler so fakes without a Forget method still
// satisfy the interface in tests.
type Forgetter interface {
	Forget(h model.WindowHandle)
}

// Loop owns the event queue and the model for its entire lifetime; no
// other component may retain state across ticks (spec.md §9).
type Loop struct {
	model       *model.Model
	lookup      WindowLookup
	reconciler  Reconciler
	hotplug     Hotplug
	commands    actions.Commands
	candidates  actions.CandidateLister
	extraBlacklist map[string]bool

	osEvents chan OSEvent
	actionCh chan actions.Action

	tickInterval  time.Duration
	hotplugDirty  bool
}

// Config bundles Loop's collaborators.
type Config struct {
	Model          *model.Model
	Lookup         WindowLookup
	Reconciler     Reconciler
	Hotplug        Hotplug
	Commands       actions.Commands
	Candidates     actions.CandidateLister
	ExtraBlacklist map[string]bool
	TickInterval   time.Duration // must be >= 250ms per spec.md §4.6
	QueueDepth     int
}

// New builds a Loop. Callers feed it via OSEvents()/Actions() channels and
// start it with Run.
func New(cfg Config) *Loop {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = 250 * time.Millisecond
	}
	depth := cfg.QueueDepth
	if depth <= 0 {
		depth = 256
	}
	return &Loop{
		model:          cfg.Model,
		lookup:         cfg.Lookup,
		reconciler:     cfg.Reconciler,
		hotplug:        cfg.Hotplug,
		commands:       cfg.Commands,
		candidates:     cfg.Candidates,
		extraBlacklist: cfg.ExtraBlacklist,
		osEvents:       make(chan OSEvent, depth),
		actionCh:       make(chan actions.Action, depth),
		tickInterval:   cfg.TickInterval,
	}
}

// OSEvents returns the channel OS event hooks should send on.
func (l *Loop) OSEvents() chan<- OSEvent { return l.osEvents }

// Actions returns the channel the hotkey provider should send decoded
// actions on.
func (l *Loop) Actions() chan<- actions.Action { return l.actionCh }

// Run drains the queue until ctx is cancelled or an Exit action is
// dispatched, batching all pending events before each reconcile pass
// (spec.md §4.6: "drains all pending events before reconciliation,
// batching their effects into at most one layout+position pass per
// affected workspace").
func (l *Loop) Run(ctx context.Context) {
	ticker := time.NewTicker(l.tickInterval)
	defer ticker.Stop()

	log.Println("eventloop: started")
	for {
		select {
		case <-ctx.Done():
			log.Println("eventloop: stopping (context cancelled)")
			return
		case ev := <-l.osEvents:
			l.model.Lock()
			l.drainOSEvents(ev)
			l.reconciler.Reconcile(l.model)
			l.model.Unlock()
		case act := <-l.actionCh:
			l.model.Lock()
			exit := l.drainActions(act)
			if !exit {
				l.reconciler.Reconcile(l.model)
			}
			l.model.Unlock()
			if exit {
				log.Println("eventloop: stopping (exit action)")
				return
			}
		case <-ticker.C:
			l.model.Lock()
			l.onTick()
			l.model.Unlock()
		}
	}
}

// drainOSEvents handles ev and then greedily drains any further OS events
// already queued, before returning control to Run, which then runs one
// reconcile pass for the whole drained batch.
func (l *Loop) drainOSEvents(first OSEvent) {
	l.handleOSEvent(first)
	for {
		select {
		case ev := <-l.osEvents:
			l.handleOSEvent(ev)
		default:
			return
		}
	}
}

func (l *Loop) drainActions(first actions.Action) (exit bool) {
	if l.handleAction(first) {
		return true
	}
	for {
		select {
		case act := <-l.actionCh:
			if l.handleAction(act) {
				return true
			}
		default:
			return false
		}
	}
}

// handleAction dispatches a single action against the model. Reconcile is
// invoked once by the caller after all queued actions/events for this
// iteration have been applied, not per action, to honor the
// at-most-one-pass-per-tick batching rule.

func (l *Loop) handleOSEvent(ev OSEvent) {
	switch ev.Kind {
	case Created, Shown:
		l.admitIfNew(ev.Handle)
	case Destroyed, Hidden:
		l.model.RemoveWindow(ev.Handle)
		if f, ok := l.reconciler.(Forgetter); ok {
			f.Forget(ev.Handle)
		}
	case LocationChanged:
		if _, ok := l.model.Window(ev.Handle); !ok {
			l.admitIfNew(ev.Handle)
		}
	case ForegroundChanged:
		l.model.LastFocusedHandle = ev.Handle
	case DisplayChanged:
		l.hotplugDirty = true
	case MinimizeStart, MinimizeEnd:
		// No model effect: admit() already excludes minimized windows,
		// and a minimize/restore cycle re-fires Hidden/Shown.
	}
}

func (l *Loop) admitIfNew(h model.WindowHandle) {
	if _, ok := l.model.Window(h); ok {
		return
	}
	info, err := l.lookup.Metadata(h)
	if err != nil {
		return
	}
	if !filter.Admit(info, l.extraBlacklist) {
		return
	}
	rect, err := l.lookup.Rect(h)
	if err != nil {
		return
	}

	monitorIndex := monitorContaining(l.model, rect)
	_ = l.model.InsertWindow(h, monitorIndex, l.model.ActiveWorkspace, info.Title, rect)
}

func monitorContaining(m *model.Model, rect geometry.Rect) int {
	cx, cy := rect.CenterX(), rect.CenterY()
	for i, mon := range m.Monitors {
		if mon.WorkRect.Contains(cx, cy) {
			return i
		}
	}
	return 0
}

func (l *Loop) handleAction(act actions.Action) (exit bool) {
	focused := l.model.LastFocusedHandle
	exit, err := actions.Dispatch(l.model, act, focused, l.candidates, l.commands)
	if err != nil {
		log.Printf("eventloop: action dispatch: %v", err)
	}
	return exit
}

func (l *Loop) onTick() {
	l.pruneInvalidOnActiveWorkspace()

	if l.hotplugDirty {
		if err := l.hotplug.Run(l.model); err != nil {
			log.Printf("eventloop: hotplug: %v", err)
		}
		l.hotplugDirty = false
	}
	l.reconciler.Reconcile(l.model)
}

// pruneInvalidOnActiveWorkspace removes modeled windows whose handle no
// longer refers to a live OS window, limited to the active workspace
// (spec.md §4.6: "prune invalid handles on the active workspace only").
func (l *Loop) pruneInvalidOnActiveWorkspace() {
	active := l.model.ActiveWorkspace
	var stale []model.WindowHandle
	for _, w := range l.model.AllWindows() {
		if w.Workspace == active && !l.lookup.Valid(w.Handle) {
			stale = append(stale, w.Handle)
		}
	}
	for _, h := range stale {
		l.model.RemoveWindow(h)
	}
}
