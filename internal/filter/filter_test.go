package filter

import "testing"

func baseAdmissibleInfo() Info {
	return Info{
		Valid:             true,
		Visible:           true,
		Title:             "terminal",
		ThickFrame:        true,
		ClassName:         "xterm",
		IntersectsMonitor: true,
	}
}

func TestAdmitBaseline(t *testing.T) {
	if !Admit(baseAdmissibleInfo(), nil) {
		t.Fatal("baseline admissible window was rejected")
	}
}

func TestRejectConditions(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*Info)
	}{
		{"invalid", func(i *Info) { i.Valid = false }},
		{"not visible", func(i *Info) { i.Visible = false }},
		{"minimized", func(i *Info) { i.Minimized = true }},
		{"empty title", func(i *Info) { i.Title = "" }},
		{"tool window", func(i *Info) { i.ToolWindow = true }},
		{"no activate", func(i *Info) { i.NoActivate = true }},
		{"dialog modal", func(i *Info) { i.DialogModal = true }},
		{"has owner", func(i *Info) { i.HasOwner = true }},
		{"popup without thick frame", func(i *Info) { i.PopupStyle = true; i.ThickFrame = false }},
		{"blacklisted class", func(i *Info) { i.ClassName = "Progman" }},
		{"layered alpha zero", func(i *Info) { i.LayeredAlphaZero = true }},
		{"off-screen", func(i *Info) { i.IntersectsMonitor = false }},
		{"owned by manager", func(i *Info) { i.OwnedByManager = true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := baseAdmissibleInfo()
			tt.mod(&info)
			if Admit(info, nil) {
				t.Errorf("expected rejection, got admitted")
			}
		})
	}
}

func TestPopupWithThickFrameIsAdmitted(t *testing.T) {
	info := baseAdmissibleInfo()
	info.PopupStyle = true
	info.ThickFrame = true
	if !Admit(info, nil) {
		t.Error("popup with thick frame should be admitted")
	}
}

func TestExtraBlacklist(t *testing.T) {
	info := baseAdmissibleInfo()
	info.ClassName = "CustomSplash"
	if !Admit(info, nil) {
		t.Fatal("not yet blacklisted, should admit")
	}
	if Admit(info, map[string]bool{"CustomSplash": true}) {
		t.Fatal("config-extended blacklist entry should reject")
	}
}
