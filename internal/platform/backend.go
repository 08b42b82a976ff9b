package platform

// WindowID is a platform-neutral window identifier.
type WindowID uint32

// Rect describes a rectangular region in screen coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Display describes a physical display and its usable work area.
type Display struct {
	ID     int
	Name   string
	Bounds Rect
	Usable Rect
}

// Window contains metadata and geometry for a top-level window.
type Window struct {
	ID     WindowID
	PID    int
	AppID  string
	Title  string
	Bounds Rect
}

// Metadata is the admit-filter classification surface a backend can supply
// for a window handle (spec.md §4.1).
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

// RGBA is a border/decoration color.
type RGBA struct {
	R, G, B, A uint8
}

// EventKind enumerates the raw OS window-event hook sources a backend can
// feed into the event loop (spec.md §4.6). It mirrors
// eventloop.OSEventKind so backends don't need to import eventloop.
type EventKind int

const (
	EventCreated EventKind = iota
	EventDestroyed
	EventShown
	EventHidden
	EventLocationChanged
	EventForegroundChanged
	EventDisplayChanged
)

// Event is a single inbound OS window-event hook firing, platform-neutral.
type Event struct {
	Kind   EventKind
	Window WindowID
}

// EventSource is implemented by backends that can hook live OS
// notifications (window create/destroy/map/unmap/configure, focus
// change, display change) directly, rather than requiring the caller to
// poll. It is kept separate from Backend so backends without live event
// hooking (e.g. a test fake) still satisfy Backend.
type EventSource interface {
	// HookEvents registers OS-level hooks that forward decoded Events to
	// events. It does not block: registration happens synchronously, and
	// the hook callbacks subsequently fire on the backend's own event-pump
	// goroutine (started separately via EventLoop).
	HookEvents(events chan<- Event) error
}

// Backend abstracts window-system operations across platforms. The first
// group mirrors the predecessor's original surface; the second group is
// the outbound reconciler command set from spec.md §6
// (reposition/show/hide/set_foreground/set_topmost/set_border_color/
// set_transparency/close/destroy) plus the metadata query the window
// filter needs.
type Backend interface {
	Displays() ([]Display, error)
	ActiveDisplay() (Display, error)
	ActiveWindow() (WindowID, error)
	ListWindowsOnDisplay(displayID int) ([]Window, error)
	MoveResize(windowID WindowID, bounds Rect) error
	Minimize(windowID WindowID) error
	Close(windowID WindowID) error

	WindowMetadata(windowID WindowID) (Metadata, error)
	Show(windowID WindowID) error
	Hide(windowID WindowID) error
	SetForeground(windowID WindowID) error
	SetTopmost(windowID WindowID, topmost bool) error
	SetBorderColor(windowID WindowID, color RGBA) error
	SetTransparency(windowID WindowID, alpha uint8) error
	Destroy(windowID WindowID) error
}
