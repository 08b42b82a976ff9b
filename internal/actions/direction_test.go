package actions

import (
	"testing"

	"github.com/tilewm/tilewm/internal/geometry"
	"github.com/tilewm/tilewm/internal/model"
)

func TestFindNeighborRight(t *testing.T) {
	focused := geometry.Rect{Left: 2, Top: 2, Right: 958, Bottom: 1078}
	candidates := []Candidate{
		{Handle: 2, Rect: geometry.Rect{Left: 962, Top: 2, Right: 1918, Bottom: 538}},
		{Handle: 3, Rect: geometry.Rect{Left: 962, Top: 542, Right: 1918, Bottom: 1078}},
	}

	got, ok := FindNeighbor(focused, candidates, model.Right)
	if !ok || got != 2 {
		t.Fatalf("FindNeighbor(Right) = %v, %v, want 2, true", got, ok)
	}
}

func TestFindNeighborNoneQualifies(t *testing.T) {
	focused := geometry.Rect{Left: 0, Top: 0, Right: 100, Bottom: 100}
	candidates := []Candidate{
		{Handle: 2, Rect: geometry.Rect{Left: 0, Top: 0, Right: 50, Bottom: 50}}, // overlapping, not strictly right
	}
	if _, ok := FindNeighbor(focused, candidates, model.Right); ok {
		t.Fatal("expected no qualifying neighbor")
	}
}

func TestFindNeighborTieBreakPicksClosest(t *testing.T) {
	focused := geometry.Rect{Left: 500, Top: 0, Right: 600, Bottom: 100}
	candidates := []Candidate{
		{Handle: 10, Rect: geometry.Rect{Left: 700, Top: 0, Right: 800, Bottom: 100}}, // gap 100
		{Handle: 20, Rect: geometry.Rect{Left: 610, Top: 0, Right: 680, Bottom: 100}}, // gap 10, closer
	}
	got, ok := FindNeighbor(focused, candidates, model.Right)
	if !ok || got != 20 {
		t.Fatalf("FindNeighbor tie-break = %v, %v, want closest handle 20", got, ok)
	}
}
