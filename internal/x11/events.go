package x11

import (
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xprop"
	"github.com/BurntSushi/xgbutil/xwindow"
)

// RawEventKind mirrors the OS window-event hook sources of spec.md §4.6,
// decoded from the substructure/property notifications this file
// registers on the root window.
type RawEventKind int

const (
	RawCreated RawEventKind = iota
	RawDestroyed
	RawShown
	RawHidden
	RawConfigured
	RawForegroundChanged
)

// RawEvent is a decoded root-window notification, handed to the caller's
// sink for translation into the platform-neutral event type.
type RawEvent struct {
	Kind   RawEventKind
	Window xproto.Window
}

// HookRootEvents subscribes to substructure and property-change
// notifications on the root window and forwards decoded events to sink.
// It registers callbacks and returns immediately; callbacks subsequently
// fire on whatever goroutine drives xevent.Main (Connection.EventLoop).
// Grounded on cortile's desktop-tracker.go attachHandlers, which attaches
// xevent.ConfigureNotifyFun/PropertyNotifyFun per client window; this
// attaches the equivalent substructure set once, at the root, since a
// tiling window manager needs to observe every top-level window's
// lifecycle rather than opt into each one individually.
func (c *Connection) HookRootEvents(sink func(RawEvent)) error {
	root := xwindow.New(c.XUtil, c.Root)
	if err := root.Listen(
		xproto.EventMaskSubstructureNotify,
		xproto.EventMaskPropertyChange,
	); err != nil {
		return err
	}

	xevent.CreateNotifyFun(func(xu *xgbutil.XUtil, ev xevent.CreateNotifyEvent) {
		sink(RawEvent{Kind: RawCreated, Window: ev.Window})
	}).Connect(c.XUtil, c.Root)

	xevent.DestroyNotifyFun(func(xu *xgbutil.XUtil, ev xevent.DestroyNotifyEvent) {
		sink(RawEvent{Kind: RawDestroyed, Window: ev.Window})
	}).Connect(c.XUtil, c.Root)

	xevent.MapNotifyFun(func(xu *xgbutil.XUtil, ev xevent.MapNotifyEvent) {
		sink(RawEvent{Kind: RawShown, Window: ev.Window})
	}).Connect(c.XUtil, c.Root)

	xevent.UnmapNotifyFun(func(xu *xgbutil.XUtil, ev xevent.UnmapNotifyEvent) {
		sink(RawEvent{Kind: RawHidden, Window: ev.Window})
	}).Connect(c.XUtil, c.Root)

	xevent.ConfigureNotifyFun(func(xu *xgbutil.XUtil, ev xevent.ConfigureNotifyEvent) {
		sink(RawEvent{Kind: RawConfigured, Window: ev.Window})
	}).Connect(c.XUtil, c.Root)

	xevent.PropertyNotifyFun(func(xu *xgbutil.XUtil, ev xevent.PropertyNotifyEvent) {
		name, err := xprop.AtomName(xu, ev.Atom)
		if err != nil || name != "_NET_ACTIVE_WINDOW" {
			return
		}
		active, err := ewmh.ActiveWindowGet(xu)
		if err != nil {
			return
		}
		sink(RawEvent{Kind: RawForegroundChanged, Window: active})
	}).Connect(c.XUtil, c.Root)

	return nil
}
