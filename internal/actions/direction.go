package actions

import (
	"github.com/tilewm/tilewm/internal/geometry"
	"github.com/tilewm/tilewm/internal/model"
)

// Candidate pairs a handle with its current rect for a direction search.
type Candidate struct {
	Handle model.WindowHandle
	Rect   geometry.Rect
}

// FindNeighbor implements spec.md §4.4: given the focused window's rect
// and a candidate set, pick the neighbor in the requested direction using
// the filter predicate and tie-break key in the spec's table. Callers
// first pass the current monitor's candidates; if FindNeighbor returns
// false, spec.md says to retry with all monitors' active-workspace
// windows using the same rule, so callers should call it a second time
// with the wider set before treating the action as a no-op.
func FindNeighbor(focused geometry.Rect, candidates []Candidate, dir model.Direction) (model.WindowHandle, bool) {
	var best model.WindowHandle
	found := false
	bestKey := 0

	for _, c := range candidates {
		var ok bool
		var key int
		switch dir {
		case model.Left:
			ok = c.Rect.Right < focused.Left
			key = focused.Left - c.Rect.Right
		case model.Right:
			ok = c.Rect.Left > focused.Right
			key = c.Rect.Left - focused.Right
		case model.Up:
			ok = c.Rect.Bottom < focused.Top
			key = focused.Top - c.Rect.Bottom
		case model.Down:
			ok = c.Rect.Top > focused.Bottom
			key = c.Rect.Top - focused.Bottom
		}
		if !ok {
			continue
		}
		if !found || key < bestKey {
			found = true
			bestKey = key
			best = c.Handle
		}
	}
	return best, found
}
