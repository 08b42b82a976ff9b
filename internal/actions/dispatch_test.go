package actions

import (
	"testing"

	"github.com/tilewm/tilewm/internal/geometry"
	"github.com/tilewm/tilewm/internal/model"
)

type fakeCommands struct {
	foregrounded model.WindowHandle
	closed       model.WindowHandle
}

func (f *fakeCommands) SetForeground(h model.WindowHandle) error {
	f.foregrounded = h
	return nil
}

func (f *fakeCommands) Close(h model.WindowHandle) error {
	f.closed = h
	return nil
}

func setupModel(t *testing.T) *model.Model {
	t.Helper()
	m := model.New([]geometry.Rect{{Left: 0, Top: 0, Right: 1920, Bottom: 1080}}, 4, 2, 0.5)
	if err := m.InsertWindow(1, 0, 1, "A", geometry.Rect{Left: 0, Top: 0, Right: 900, Bottom: 1080}); err != nil {
		t.Fatal(err)
	}
	if err := m.InsertWindow(2, 0, 1, "B", geometry.Rect{Left: 904, Top: 0, Right: 1920, Bottom: 1080}); err != nil {
		t.Fatal(err)
	}
	return m
}

func listerFor(m *model.Model) CandidateLister {
	return func(monitorIndex, workspace int, exclude model.WindowHandle) []Candidate {
		var out []Candidate
		for _, w := range m.AllWindows() {
			if w.Handle == exclude || w.MonitorIndex != monitorIndex || w.Workspace != workspace {
				continue
			}
			out = append(out, Candidate{Handle: w.Handle, Rect: w.Rect})
		}
		return out
	}
}

func TestDispatchFocusDirSetsForeground(t *testing.T) {
	m := setupModel(t)
	cmds := &fakeCommands{}

	exit, err := Dispatch(m, FocusDir(model.Right), 1, listerFor(m), cmds)
	if err != nil || exit {
		t.Fatalf("Dispatch: exit=%v err=%v", exit, err)
	}
	if cmds.foregrounded != 2 {
		t.Fatalf("foregrounded = %v, want 2", cmds.foregrounded)
	}
}

func TestDispatchSwapDirSwapsOrder(t *testing.T) {
	m := setupModel(t)
	cmds := &fakeCommands{}

	if _, err := Dispatch(m, SwapDir(model.Right), 1, listerFor(m), cmds); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	mon, _ := m.Monitor(0)
	order := mon.Workspaces[1].Order
	if order[0] != 2 || order[1] != 1 {
		t.Fatalf("order after swap = %v, want [2 1]", order)
	}
}

func TestDispatchCloseCallsCommand(t *testing.T) {
	m := setupModel(t)
	cmds := &fakeCommands{}

	if _, err := Dispatch(m, Close(), 1, listerFor(m), cmds); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if cmds.closed != 1 {
		t.Fatalf("closed = %v, want 1", cmds.closed)
	}
}

func TestDispatchExitRequestsExit(t *testing.T) {
	m := setupModel(t)
	cmds := &fakeCommands{}

	exit, err := Dispatch(m, Exit(), 1, listerFor(m), cmds)
	if err != nil || !exit {
		t.Fatalf("Dispatch(Exit) = exit=%v err=%v, want exit=true", exit, err)
	}
}
