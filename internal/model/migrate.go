package model

// MigrationResult reports what a Migrate call did, for logging and for
// the caller's post-migration reconcile/reposition pass (spec.md §4.7
// step 6).
type MigrationResult struct {
	OrphanedMonitorIDs []int
	MigratedHandles    []WindowHandle
}

// Migrate replaces the monitor set with newSpecs, reusing workspaces from
// matching old monitors by ID and redistributing windows orphaned by
// disconnected monitors round-robin over the new monitors (spec.md §4.7
// steps 2-6). It never drops a window: every orphaned handle is
// reinserted on some new monitor's corresponding workspace number.
//
// Callers must hold the model's write lock and, after Migrate returns,
// invalidate caches keyed on the old monitor/workspace objects (layout
// trees are already cleared here, but reconciler-side per-handle caches
// are the caller's responsibility).
func (m *Model) Migrate(newSpecs []MonitorSpec) MigrationResult {
	oldByID := make(map[int]*Monitor, len(m.Monitors))
	for _, mon := range m.Monitors {
		oldByID[mon.ID] = mon
	}

	newByID := make(map[int]bool, len(newSpecs))
	for _, s := range newSpecs {
		newByID[s.ID] = true
	}

	var result MigrationResult
	var orphaned []orphanWindow
	for _, mon := range m.Monitors {
		if newByID[mon.ID] {
			continue
		}
		result.OrphanedMonitorIDs = append(result.OrphanedMonitorIDs, mon.ID)
		for wsN := 1; wsN <= WorkspaceCount; wsN++ {
			ws := mon.Workspaces[wsN]
			for _, h := range ws.Order {
				orphaned = append(orphaned, orphanWindow{handle: h, workspace: wsN})
			}
		}
	}

	newMonitors := make([]*Monitor, len(newSpecs))
	for i, s := range newSpecs {
		if old, ok := oldByID[s.ID]; ok {
			old.WorkRect = s.WorkRect
			old.FullRect = s.FullRect
			old.ActiveWorkspaceIndex = m.ActiveWorkspace
			newMonitors[i] = old
			continue
		}
		newMonitors[i] = newMonitor(s.ID, s.WorkRect, s.FullRect, m.ActiveWorkspace)
	}

	if len(newMonitors) > 0 {
		for i, ow := range orphaned {
			target := newMonitors[i%len(newMonitors)]
			ws := target.Workspaces[ow.workspace]
			ws.Order = append(ws.Order, ow.handle)
			ws.InvalidateTree()

			if win, ok := m.windows[ow.handle]; ok {
				win.MonitorIndex = indexOf(newMonitors, target)
				win.IsTiled = true
			}
			result.MigratedHandles = append(result.MigratedHandles, ow.handle)
		}
	}

	for _, mon := range newMonitors {
		for wsN := 1; wsN <= WorkspaceCount; wsN++ {
			mon.Workspaces[wsN].InvalidateTree()
		}
	}

	m.Monitors = newMonitors
	m.RebuildIndex()
	return result
}

type orphanWindow struct {
	handle    WindowHandle
	workspace int
}

func indexOf(monitors []*Monitor, target *Monitor) int {
	for i, mon := range monitors {
		if mon == target {
			return i
		}
	}
	return -1
}
