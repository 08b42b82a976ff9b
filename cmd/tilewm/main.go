package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tilewm/tilewm/internal/actions"
	"github.com/tilewm/tilewm/internal/config"
	"github.com/tilewm/tilewm/internal/eventloop"
	"github.com/tilewm/tilewm/internal/filter"
	"github.com/tilewm/tilewm/internal/geometry"
	"github.com/tilewm/tilewm/internal/hotkeys"
	"github.com/tilewm/tilewm/internal/hotplug"
	"github.com/tilewm/tilewm/internal/ipc"
	"github.com/tilewm/tilewm/internal/model"
	"github.com/tilewm/tilewm/internal/platform"
	"github.com/tilewm/tilewm/internal/reconciler"
	"github.com/tilewm/tilewm/internal/statusbar"
)

func main() {
	if len(os.Args) < 2 {
		runDaemon()
		return
	}

	switch os.Args[1] {
	case "daemon":
		runDaemon()
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "reload":
		os.Exit(runReload(os.Args[2:]))
	case "exit":
		os.Exit(runExit(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: tilewm <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  daemon              Start the tilewm daemon (foreground, default)")
	fmt.Fprintln(w, "  status              Show daemon status")
	fmt.Fprintln(w, "  reload              Ask the running daemon to reload its config")
	fmt.Fprintln(w, "  exit                Ask the running daemon to exit")
	fmt.Fprintln(w, "  config validate     Validate the configuration file")
	fmt.Fprintln(w, "  config print        Print the effective configuration")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'tilewm <command> --help' for command-specific options.")
}

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: tilewm status")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show daemon status via IPC.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "status takes no arguments")
		fs.Usage()
		return 2
	}

	client := ipc.NewClient()
	status, err := client.GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("daemon_running:   %v\n", status.DaemonRunning)
	fmt.Printf("active_workspace: %d\n", status.ActiveWorkspace)
	fmt.Printf("monitor_count:    %d\n", status.MonitorCount)
	fmt.Printf("status_bar_shown: %v\n", status.StatusBarShown)
	fmt.Printf("uptime_seconds:   %d\n", status.UptimeSeconds)
	for _, ws := range status.PerWorkspace {
		if ws.Count > 0 {
			fmt.Printf("  workspace %d: %d window(s)\n", ws.Number, ws.Count)
		}
	}
	return 0
}

func runReload(args []string) int {
	fs := flag.NewFlagSet("reload", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if err := ipc.NewClient().Reload(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runExit(args []string) int {
	fs := flag.NewFlagSet("exit", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if err := ipc.NewClient().Exit(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runConfig(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: tilewm config <validate|print>")
		return 2
	}
	switch args[0] {
	case "validate":
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Println("config OK")
		_ = cfg
		return 0
	case "print":
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Printf("%+v\n", cfg)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown config subcommand: %s\n", args[0])
		return 2
	}
}

// windowLookup adapts platform.Backend to eventloop.WindowLookup, converting
// platform.Metadata/Rect into the filter/geometry package's neutral shapes.
type windowLookup struct {
	backend platform.Backend
}

func (l windowLookup) Metadata(h model.WindowHandle) (filter.Info, error) {
	md, err := l.backend.WindowMetadata(platform.WindowID(h))
	if err != nil {
		return filter.Info{}, err
	}
	return filter.Info{
		Valid:             md.Valid,
		Visible:           md.Visible,
		Minimized:         md.Minimized,
		Title:             md.Title,
		ToolWindow:        md.ToolWindow,
		NoActivate:        md.NoActivate,
		DialogModal:       md.DialogModal,
		HasOwner:          md.HasOwner,
		PopupStyle:        md.PopupStyle,
		ThickFrame:        md.ThickFrame,
		ClassName:         md.ClassName,
		LayeredAlphaZero:  md.LayeredAlphaZero,
		IntersectsMonitor: md.IntersectsMonitor,
		OwnedByManager:    md.OwnedByManager,
	}, nil
}

func (l windowLookup) Rect(h model.WindowHandle) (geometry.Rect, error) {
	r, err := l.backend.Rect(platform.WindowID(h))
	if err != nil {
		return geometry.Rect{}, err
	}
	return toGeometryRect(r), nil
}

func (l windowLookup) Valid(h model.WindowHandle) bool {
	return l.backend.Valid(platform.WindowID(h))
}

func toGeometryRect(r platform.Rect) geometry.Rect {
	return geometry.Rect{Left: r.X, Top: r.Y, Right: r.X + r.Width, Bottom: r.Y + r.Height}
}

// toMonitorSpec converts a display into a monitor spec, reserving
// statusBarHeight pixels at the top of the work rect when the status bar
// is enabled (spec.md §4.5 distinguishes WorkRect from FullRect precisely
// so the status bar can claim a strip without disturbing fullscreen
// placement).
func toMonitorSpec(d platform.Display, statusBarHeight int) model.MonitorSpec {
	work := toGeometryRect(d.Usable)
	if statusBarHeight > 0 {
		work.Top += statusBarHeight
	}
	return model.MonitorSpec{
		ID:       d.ID,
		WorkRect: work,
		FullRect: toGeometryRect(d.Bounds),
	}
}

// commandsAdapter adapts platform.Backend to actions.Commands.
type commandsAdapter struct {
	backend platform.Backend
}

func (c commandsAdapter) SetForeground(h model.WindowHandle) error {
	return c.backend.SetForeground(platform.WindowID(h))
}

func (c commandsAdapter) Close(h model.WindowHandle) error {
	return c.backend.Close(platform.WindowID(h))
}

// enumeratorAdapter adapts platform.Backend.Displays to hotplug.Enumerator.
type enumeratorAdapter struct {
	backend         platform.Backend
	statusBarHeight int
}

func (e enumeratorAdapter) Enumerate() ([]hotplug.MonitorInfo, error) {
	displays, err := e.backend.Displays()
	if err != nil {
		return nil, err
	}
	infos := make([]hotplug.MonitorInfo, len(displays))
	for i, d := range displays {
		spec := toMonitorSpec(d, e.statusBarHeight)
		infos[i] = hotplug.MonitorInfo{ID: spec.ID, WorkRect: spec.WorkRect, FullRect: spec.FullRect}
	}
	return infos, nil
}

// showerAdapter adapts platform.Backend.Show to hotplug.Shower.
type showerAdapter struct {
	backend platform.Backend
}

func (s showerAdapter) Show(h model.WindowHandle) error {
	return s.backend.Show(platform.WindowID(h))
}

// reconcilerAdapter satisfies both eventloop.Reconciler and hotplug.Reconciler
// (and eventloop.Forgetter, via the embedded *reconciler.Reconciler).
type reconcilerAdapter struct {
	*reconciler.Reconciler
}

// insetCache measures and caches each handle's compositor frame extents,
// queried lazily on first use and kept for the daemon's lifetime; entries
// are not dropped when a window is destroyed.
type insetCache struct {
	backend platform.Backend
	cached  map[model.WindowHandle][4]int
}

func newInsetCache(backend platform.Backend) *insetCache {
	return &insetCache{backend: backend, cached: make(map[model.WindowHandle][4]int)}
}

func (c *insetCache) query(h model.WindowHandle) (left, top, right, bottom int) {
	if v, ok := c.cached[h]; ok {
		return v[0], v[1], v[2], v[3]
	}
	l, t, r, b, err := c.backend.FrameExtents(platform.WindowID(h))
	if err != nil {
		return 0, 0, 0, 0
	}
	c.cached[h] = [4]int{l, t, r, b}
	return l, t, r, b
}

// logRenderer is the status-bar renderer used until a themed bar process
// is wired up; it just logs the snapshot (pixel rendering is out of
// scope, spec.md §1 Non-goals).
type logRenderer struct{}

func (logRenderer) Render(state statusbar.State) {
	log.Printf("statusbar: workspace=%d visible=%v clock=%s", state.ActiveWorkspace, state.Visible, state.Clock)
}

func buildCandidateLister(m *model.Model) actions.CandidateLister {
	return func(monitorIndex, workspace int, exclude model.WindowHandle) []actions.Candidate {
		mon, err := m.Monitor(monitorIndex)
		if err != nil {
			return nil
		}
		ws := mon.Workspaces[workspace]
		out := make([]actions.Candidate, 0, len(ws.Order))
		for _, h := range ws.Order {
			if h == exclude {
				continue
			}
			w, ok := m.Window(h)
			if !ok {
				continue
			}
			out = append(out, actions.Candidate{Handle: h, Rect: w.Rect})
		}
		return out
	}
}

func runDaemon() {
	log.Println("tilewm: starting")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("tilewm: config: %v", err)
	}

	backend, err := platform.NewLinuxBackendFromDisplay()
	if err != nil {
		log.Fatalf("tilewm: connect to X11: %v", err)
	}
	defer backend.Disconnect()

	displays, err := backend.Displays()
	if err != nil || len(displays) == 0 {
		log.Fatalf("tilewm: enumerate displays: %v", err)
	}
	statusBarHeight := 0
	if cfg.StatusBarEnabled {
		statusBarHeight = cfg.StatusBarHeight
	}
	specs := make([]model.MonitorSpec, len(displays))
	for i, d := range displays {
		specs[i] = toMonitorSpec(d, statusBarHeight)
	}

	m := model.NewWithMonitors(specs, cfg.GapSize, cfg.EdgeInset, cfg.DefaultRatio)
	m.StatusbarVisible = cfg.StatusBarEnabled

	insets := newInsetCache(backend)
	recon := reconcilerAdapter{reconciler.New(backend, insets.query)}

	hp := hotplug.New(
		enumeratorAdapter{backend, statusBarHeight},
		showerAdapter{backend},
		recon,
		time.Duration(cfg.HotplugDebounce)*time.Millisecond,
	)

	loop := eventloop.New(eventloop.Config{
		Model:          m,
		Lookup:         windowLookup{backend},
		Reconciler:     recon,
		Hotplug:        hp,
		Commands:       commandsAdapter{backend},
		Candidates:     buildCandidateLister(m),
		ExtraBlacklist: cfg.ExtraBlacklistSet(),
		TickInterval:   time.Duration(cfg.TickInterval) * time.Millisecond,
	})

	handler := hotkeys.NewHandler(backend, loop)
	if err := handler.RegisterAll(cfg.Hotkeys); err != nil {
		log.Fatalf("tilewm: register hotkeys: %v", err)
	}

	reloadChan := make(chan struct{}, 1)
	exitChan := make(chan struct{}, 1)

	ipcServer, err := ipc.NewServer(
		cfg, m,
		func() int { return len(m.Monitors) },
		func() int { m.RLock(); defer m.RUnlock(); return m.ActiveWorkspace },
		func() bool { m.RLock(); defer m.RUnlock(); return m.StatusbarVisible },
		reloadChan, exitChan,
	)
	if err != nil {
		log.Fatalf("tilewm: IPC server: %v", err)
	}
	if err := ipcServer.Start(); err != nil {
		log.Fatalf("tilewm: IPC server: %v", err)
	}
	defer ipcServer.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.StatusBarEnabled {
		go statusbar.RenderLoop(ctx, m, logRenderer{}, time.Second)
	}

	rawEvents := make(chan platform.Event, 256)
	if err := backend.HookEvents(rawEvents); err != nil {
		log.Fatalf("tilewm: hook OS events: %v", err)
	}
	go translateEvents(ctx, rawEvents, loop)

	go backend.EventLoop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	go func() {
		for {
			select {
			case sig := <-sigCh:
				switch sig {
				case syscall.SIGHUP:
					log.Println("tilewm: received SIGHUP, reloading config")
					if newCfg, err := config.Load(); err != nil {
						log.Printf("tilewm: config reload failed: %v", err)
					} else {
						ipcServer.UpdateConfig(newCfg)
					}
				case os.Interrupt, syscall.SIGTERM:
					log.Println("tilewm: shutting down")
					cancel()
					return
				}
			case <-reloadChan:
				log.Println("tilewm: config reloaded via IPC")
			case <-exitChan:
				log.Println("tilewm: exit requested via IPC")
				cancel()
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	loop.Run(ctx)

	// Shutdown cleanup pass (spec.md §4.6, §7 policy 4): never leave a
	// window the manager hid stuck invisible after the daemon exits.
	recon.RestoreAll(m)

	log.Println("tilewm: stopped")
}

// translateEvents converts platform.Event values into eventloop.OSEvent
// values and forwards them to loop, until ctx is cancelled.
func translateEvents(ctx context.Context, raw <-chan platform.Event, loop *eventloop.Loop) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-raw:
			kind, ok := translateEventKind(ev.Kind)
			if !ok {
				continue
			}
			select {
			case loop.OSEvents() <- eventloop.OSEvent{Kind: kind, Handle: model.WindowHandle(ev.Window)}:
			case <-ctx.Done():
				return
			}
		}
	}
}

func translateEventKind(k platform.EventKind) (eventloop.OSEventKind, bool) {
	switch k {
	case platform.EventCreated:
		return eventloop.Created, true
	case platform.EventDestroyed:
		return eventloop.Destroyed, true
	case platform.EventShown:
		return eventloop.Shown, true
	case platform.EventHidden:
		return eventloop.Hidden, true
	case platform.EventLocationChanged:
		return eventloop.LocationChanged, true
	case platform.EventForegroundChanged:
		return eventloop.ForegroundChanged, true
	case platform.EventDisplayChanged:
		return eventloop.DisplayChanged, true
	default:
		return 0, false
	}
}
