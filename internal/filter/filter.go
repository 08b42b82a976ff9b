// Package filter implements the pure admit() predicate that decides
// whether a platform window handle should be managed, grounded on the
// predecessor's LinuxBackend.IsNormalWindow/shouldSkipByState checks and
// cortile's isTrackableInfo classifier.
package filter

// Info is the platform-neutral metadata the filter consults. Backends
// populate it from whatever native queries they have; the filter itself
// never touches the OS.
type Info struct {
	Valid           bool
	Visible         bool
	Minimized       bool
	Title           string
	ToolWindow      bool
	NoActivate      bool
	DialogModal     bool
	HasOwner        bool
	PopupStyle      bool
	ThickFrame      bool
	ClassName       string
	LayeredAlphaZero bool
	IntersectsMonitor bool
	OwnedByManager  bool
}

// Blacklist is the built-in system window class blacklist (spec.md §4.1).
// Config may layer additional entries on top of this set.
var Blacklist = map[string]bool{
	"Shell_TrayWnd":                 true,
	"Shell_SecondaryTrayWnd":        true,
	"WorkerW":                       true,
	"Progman":                       true,
	"DV2ControlHost":                true,
	"XamlExplorerHostIslandWindow":  true,
	"TaskListThumbnailWnd":          true,
	"#32770":                        true,
}

// Admit reports whether info describes a window that should be managed.
// Every condition in spec.md §4.1 must hold; admission is re-evaluated on
// every call, never cached permanently by the filter itself (destroyed
// handles are pruned lazily by the event loop's timer tick).
func Admit(info Info, extraBlacklist map[string]bool) bool {
	if !info.Valid || !info.Visible || info.Minimized {
		return false
	}
	if info.Title == "" {
		return false
	}
	if info.ToolWindow || info.NoActivate || info.DialogModal {
		return false
	}
	if info.HasOwner {
		return false
	}
	if info.PopupStyle && !info.ThickFrame {
		return false
	}
	if Blacklist[info.ClassName] || extraBlacklist[info.ClassName] {
		return false
	}
	if info.LayeredAlphaZero {
		return false
	}
	if !info.IntersectsMonitor {
		return false
	}
	if info.OwnedByManager {
		return false
	}
	return true
}
