// Package actions implements the Action enum delivered by the hotkey
// provider (spec.md §6) and the spatial direction queries and handlers
// that realize Focus/Swap/Move/Close/Fullscreen/Resize/Flip/workspace
// switching against the model.
package actions

import "github.com/tilewm/tilewm/internal/model"

// Kind identifies the shape of an Action's payload.
type Kind int

const (
	KindFocusDir Kind = iota
	KindSwapDir
	KindSwitchWorkspace
	KindMoveToWorkspace
	KindClose
	KindToggleFloat
	KindToggleFullscreen
	KindToggleStatusBar
	KindFlipNode
	KindResizeHoriz
	KindResizeVert
	KindMoveMonitor
	KindExit
)

// Action is a decoded hotkey action, agnostic to the exact key codes that
// produced it (spec.md §6).
type Action struct {
	Kind      Kind
	Direction model.Direction // FocusDir, SwapDir, MoveMonitor
	Workspace int             // SwitchWorkspace, MoveToWorkspace (1..9)
	Positive  bool             // ResizeHoriz/ResizeVert sign
}

func FocusDir(d model.Direction) Action      { return Action{Kind: KindFocusDir, Direction: d} }
func SwapDir(d model.Direction) Action       { return Action{Kind: KindSwapDir, Direction: d} }
func SwitchWorkspace(n int) Action           { return Action{Kind: KindSwitchWorkspace, Workspace: n} }
func MoveToWorkspace(n int) Action           { return Action{Kind: KindMoveToWorkspace, Workspace: n} }
func Close() Action                          { return Action{Kind: KindClose} }
func ToggleFloat() Action                    { return Action{Kind: KindToggleFloat} }
func ToggleFullscreen() Action               { return Action{Kind: KindToggleFullscreen} }
func ToggleStatusBar() Action                { return Action{Kind: KindToggleStatusBar} }
func FlipNode() Action                       { return Action{Kind: KindFlipNode} }
func ResizeHoriz(positive bool) Action       { return Action{Kind: KindResizeHoriz, Positive: positive} }
func ResizeVert(positive bool) Action        { return Action{Kind: KindResizeVert, Positive: positive} }
func MoveMonitor(d model.Direction) Action   { return Action{Kind: KindMoveMonitor, Direction: d} }
func Exit() Action                           { return Action{Kind: KindExit} }
