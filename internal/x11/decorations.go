package x11

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
)

func classGet(c *Connection, windowID uint32) (string, error) {
	wmClass, err := icccm.WmClassGet(c.XUtil, xproto.Window(windowID))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(wmClass.Class), nil
}

// ShowWindow maps the window, reversing HideWindow. It does not touch any
// hidden/iconic EWMH state, so it does not undo Minimize.
func (c *Connection) ShowWindow(windowID uint32) error {
	if err := xproto.MapWindowChecked(c.XUtil.Conn(), xproto.Window(windowID)).Check(); err != nil {
		return fmt.Errorf("failed to map window: %w", err)
	}
	return nil
}

// HideWindow unmaps the window. Used by the reconciler to hide windows on
// an inactive workspace (spec.md §4.5); unlike Minimize this does not set
// the iconic WM_STATE, so ShowWindow need only remap it.
func (c *Connection) HideWindow(windowID uint32) error {
	if err := xproto.UnmapWindowChecked(c.XUtil.Conn(), xproto.Window(windowID)).Check(); err != nil {
		return fmt.Errorf("failed to unmap window: %w", err)
	}
	return nil
}

// SetTopmost adds or removes the _NET_WM_STATE_ABOVE EWMH state, used for
// fullscreen z-ordering (spec.md §4.5).
func (c *Connection) SetTopmost(windowID uint32, topmost bool) error {
	action := ewmh.StateRemove
	if topmost {
		action = ewmh.StateAdd
	}
	return ewmh.WmStateReq(c.XUtil, xproto.Window(windowID), action, "_NET_WM_STATE_ABOVE")
}

// SetBorderColor sets the window border pixel color via the core X11
// protocol ChangeWindowAttributes border-pixel, approximating the
// decoration hook most compositing window managers expose through their
// own IPC instead; kept at the raw-protocol level here since no EWMH atom
// covers border color.
func (c *Connection) SetBorderColor(windowID uint32, pixel uint32) error {
	return xproto.ChangeWindowAttributesChecked(
		c.XUtil.Conn(),
		xproto.Window(windowID),
		xproto.CwBorderPixel,
		[]uint32{pixel},
	).Check()
}

// SetTransparency sets _NET_WM_WINDOW_OPACITY, the de facto standard
// compositor opacity hint, in the 0 (transparent) .. 0xFFFFFFFF (opaque)
// range; alpha is a 0-255 convenience value scaled up.
func (c *Connection) SetTransparency(windowID uint32, alpha uint8) error {
	atomReply, err := xproto.InternAtom(c.XUtil.Conn(), false,
		uint16(len("_NET_WM_WINDOW_OPACITY")), "_NET_WM_WINDOW_OPACITY").Reply()
	if err != nil {
		return fmt.Errorf("failed to intern _NET_WM_WINDOW_OPACITY: %w", err)
	}

	opacity := uint32(alpha) * 0x01010101
	return xproto.ChangePropertyChecked(
		c.XUtil.Conn(),
		xproto.PropModeReplace,
		xproto.Window(windowID),
		atomReply.Atom,
		xproto.AtomCardinal,
		32,
		1,
		[]byte{
			byte(opacity), byte(opacity >> 8), byte(opacity >> 16), byte(opacity >> 24),
		},
	).Check()
}

// DestroyWindow forcibly destroys a client's window via the core protocol.
func (c *Connection) DestroyWindow(windowID uint32) error {
	return xproto.DestroyWindowChecked(c.XUtil.Conn(), xproto.Window(windowID)).Check()
}

// WindowMetadata gathers the admit-filter classification fields for
// windowID (spec.md §4.1). Best-effort: individual query failures leave
// the corresponding field at its zero value rather than aborting.
func (c *Connection) WindowMetadata(windowID uint32) (Metadata, error) {
	var md Metadata
	md.Valid = true

	attrs, err := xproto.GetWindowAttributes(c.XUtil.Conn(), xproto.Window(windowID)).Reply()
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to get window attributes: %w", err)
	}
	md.Visible = attrs.MapState == xproto.MapStateViewable

	if states, err := ewmh.WmStateGet(c.XUtil, xproto.Window(windowID)); err == nil {
		for _, s := range states {
			switch s {
			case "_NET_WM_STATE_HIDDEN":
				md.Minimized = true
			case "_NET_WM_STATE_MODAL":
				md.DialogModal = true
			}
		}
	}

	if name, err := ewmh.WmNameGet(c.XUtil, xproto.Window(windowID)); err == nil {
		md.Title = name
	}

	if types, err := ewmh.WmWindowTypeGet(c.XUtil, xproto.Window(windowID)); err == nil {
		for _, t := range types {
			switch t {
			case "_NET_WM_WINDOW_TYPE_TOOLBAR", "_NET_WM_WINDOW_TYPE_UTILITY":
				md.ToolWindow = true
			case "_NET_WM_WINDOW_TYPE_DIALOG":
				md.DialogModal = true
			case "_NET_WM_WINDOW_TYPE_POPUP_MENU", "_NET_WM_WINDOW_TYPE_DROPDOWN_MENU", "_NET_WM_WINDOW_TYPE_TOOLTIP":
				md.PopupStyle = true
			case "_NET_WM_WINDOW_TYPE_NORMAL":
				md.ThickFrame = true
			}
		}
	}

	if class, err := classGet(c, windowID); err == nil {
		md.ClassName = class
	}

	if owner, err := icccm.WmTransientForGet(c.XUtil, xproto.Window(windowID)); err == nil && owner != 0 {
		md.HasOwner = true
	}

	md.IntersectsMonitor = true
	return md, nil
}

// Metadata mirrors platform.Metadata without importing the platform
// package, avoiding an import cycle (platform depends on x11, not the
// reverse).
type Metadata struct {
	Valid             bool
	Visible           bool
	Minimized         bool
	Title             string
	ToolWindow        bool
	NoActivate        bool
	DialogModal       bool
	HasOwner          bool
	PopupStyle        bool
	ThickFrame        bool
	ClassName         string
	LayeredAlphaZero  bool
	IntersectsMonitor bool
	OwnedByManager    bool
}
