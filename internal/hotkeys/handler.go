// Package hotkeys registers global X keybindings and translates them
// into actions.Action values delivered to the event loop. Grounded on
// the predecessor's internal/hotkeys/handler.go for its
// xgbutil/keybind registration shape and CapsLock/NumLock/ScrollLock
// modifier-masking logic; the tiling-callback/move-mode dispatch is
// replaced with a direct actions.Action feed.
package hotkeys

import (
	"fmt"
	"log"
	"strconv"
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"

	"github.com/tilewm/tilewm/internal/actions"
	"github.com/tilewm/tilewm/internal/config"
	"github.com/tilewm/tilewm/internal/model"
)

// x11Accessor is an optional interface for backends that expose X11 internals.
type x11Accessor interface {
	XUtil() *xgbutil.XUtil
	RootWindow() xproto.Window
}

// Sink is the destination for decoded actions: the event loop's
// Actions() channel.
type Sink interface {
	Actions() chan<- actions.Action
}

// Handler manages global keyboard shortcuts and feeds decoded actions
// to a Sink.
type Handler struct {
	xu   *xgbutil.XUtil
	root xproto.Window
	sink Sink
}

var ignoreModsOnce sync.Once

// NewHandler creates a new hotkey handler bound to backend's X11
// connection, feeding decoded actions to sink.
func NewHandler(backend any, sink Sink) *Handler {
	var xu *xgbutil.XUtil
	var root xproto.Window
	if accessor, ok := backend.(x11Accessor); ok {
		xu = accessor.XUtil()
		root = accessor.RootWindow()
	}

	ignoreModsOnce.Do(func() {
		configureIgnoreMods(xu)
	})

	return &Handler{xu: xu, root: root, sink: sink}
}

// RegisterAll binds every hotkey in cfg to its corresponding action.
// A bare modifier prefix (switch_workspace_prefix,
// move_to_workspace_prefix) is combined with "1".."9" for the
// per-workspace bindings.
func (h *Handler) RegisterAll(cfg config.Hotkeys) error {
	bindings := []struct {
		seq string
		act actions.Action
	}{
		{cfg.FocusLeft, actions.FocusDir(model.Left)},
		{cfg.FocusRight, actions.FocusDir(model.Right)},
		{cfg.FocusUp, actions.FocusDir(model.Up)},
		{cfg.FocusDown, actions.FocusDir(model.Down)},
		{cfg.SwapLeft, actions.SwapDir(model.Left)},
		{cfg.SwapRight, actions.SwapDir(model.Right)},
		{cfg.SwapUp, actions.SwapDir(model.Up)},
		{cfg.SwapDown, actions.SwapDir(model.Down)},
		{cfg.Close, actions.Close()},
		{cfg.ToggleFloat, actions.ToggleFloat()},
		{cfg.ToggleFullscreen, actions.ToggleFullscreen()},
		{cfg.ToggleStatusBar, actions.ToggleStatusBar()},
		{cfg.FlipNode, actions.FlipNode()},
		{cfg.ResizeHorizGrow, actions.ResizeHoriz(true)},
		{cfg.ResizeHorizShrink, actions.ResizeHoriz(false)},
		{cfg.ResizeVertGrow, actions.ResizeVert(true)},
		{cfg.ResizeVertShrink, actions.ResizeVert(false)},
		{cfg.MoveMonitorLeft, actions.MoveMonitor(model.Left)},
		{cfg.MoveMonitorRight, actions.MoveMonitor(model.Right)},
		{cfg.Exit, actions.Exit()},
	}
	for _, b := range bindings {
		if b.seq == "" {
			continue
		}
		if err := h.registerAction(b.seq, b.act); err != nil {
			return fmt.Errorf("register %q: %w", b.seq, err)
		}
	}

	for ws := 1; ws <= model.WorkspaceCount; ws++ {
		if cfg.SwitchWorkspacePre != "" {
			seq := cfg.SwitchWorkspacePre + "-" + strconv.Itoa(ws%10)
			if err := h.registerAction(seq, actions.SwitchWorkspace(ws)); err != nil {
				return fmt.Errorf("register workspace switch %d: %w", ws, err)
			}
		}
		if cfg.MoveToWorkspacePre != "" {
			seq := cfg.MoveToWorkspacePre + "-" + strconv.Itoa(ws%10)
			if err := h.registerAction(seq, actions.MoveToWorkspace(ws)); err != nil {
				return fmt.Errorf("register workspace move %d: %w", ws, err)
			}
		}
	}
	return nil
}

func (h *Handler) registerAction(keySequence string, act actions.Action) error {
	return h.RegisterFunc(keySequence, func() {
		select {
		case h.sink.Actions() <- act:
		default:
			log.Printf("hotkeys: action queue full, dropping %v", act.Kind)
		}
	})
}

// RegisterFunc registers an arbitrary hotkey callback.
func (h *Handler) RegisterFunc(keySequence string, callback func()) error {
	return keybind.KeyPressFun(func(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
		callback()
	}).Connect(h.xu, h.root, keySequence, true)
}

func configureIgnoreMods(xu *xgbutil.XUtil) {
	// Always ignore CapsLock.
	caps := uint16(xproto.ModMaskLock)

	numLock := modMaskForKeysym(xu, "Num_Lock")
	scrollLock := modMaskForKeysym(xu, "Scroll_Lock")

	unique := make(map[uint16]struct{})
	add := func(mask uint16) {
		unique[mask] = struct{}{}
	}

	add(0)
	base := []uint16{caps}
	if numLock != 0 && numLock != caps {
		base = append(base, numLock)
	}
	if scrollLock != 0 && scrollLock != caps && scrollLock != numLock {
		base = append(base, scrollLock)
	}

	for subset := 1; subset < (1 << len(base)); subset++ {
		var mask uint16
		for bit := range base {
			if subset&(1<<bit) != 0 {
				mask |= base[bit]
			}
		}
		add(mask)
	}

	ignore := make([]uint16, 0, len(unique))
	for mask := range unique {
		ignore = append(ignore, mask)
	}

	xevent.IgnoreMods = ignore
}

func modMaskForKeysym(xu *xgbutil.XUtil, keysym string) uint16 {
	for _, keycode := range keybind.StrToKeycodes(xu, keysym) {
		if mask := keybind.ModGet(xu, keycode); mask != 0 {
			return mask
		}
	}
	return 0
}
