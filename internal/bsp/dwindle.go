// Package bsp implements the dwindle binary-space-partition layout: given an
// outer rectangle and an ordered list of window handles, it recursively
// splits the longer axis to produce one leaf rectangle per handle.
package bsp

import (
	"strings"

	"github.com/tilewm/tilewm/internal/geometry"
)

// Handle is an opaque window identifier, stable only for equality and map
// keys. The model package's WindowHandle is this same underlying type.
type Handle uint32

// SplitDir is the axis along which an internal node divides its rect.
type SplitDir int

const (
	// SplitVertical divides the rect into a left and right child.
	SplitVertical SplitDir = iota
	// SplitHorizontal divides the rect into a top and bottom child.
	SplitHorizontal
)

const (
	defaultRatio = 0.5
	minRatio     = 0.1
	maxRatio     = 0.9
	resizeStep   = 0.05
)

// Node is either a leaf holding one window handle, or an internal split
// node with two children. Rect is always the region this node occupies,
// derived top-down from the root during Build.
type Node struct {
	Leaf   bool
	Handle Handle
	Rect   geometry.Rect

	Split SplitDir
	Ratio float64
	A     *Node
	B     *Node

	path string
}

// Build constructs a dwindle tree over outer for the ordered handles. At
// each split both sides give up gap/2 pixels at the shared edge, so
// adjacent leaves are separated by 2*(gap/2) pixels; the edges of outer
// itself are not shrunk. prevRatios, if non-nil, supplies per-node split
// ratios keyed by the path produced by Node.PathRatios on a prior tree;
// ratios are preserved across rebuilds only when the handle count hasn't
// changed (spec.md §4.2).
func Build(outer geometry.Rect, gap int, handles []Handle, prevRatios map[string]float64, prevSplits map[string]SplitDir) *Node {
	if len(handles) == 0 {
		return nil
	}
	// A tree over n leaves has n-1 internal nodes; any other ratio count
	// came from a tree with a different handle count.
	if len(prevRatios) != len(handles)-1 {
		prevRatios = nil
	}
	return build(outer, gap, handles, "", prevRatios, prevSplits)
}

func build(outer geometry.Rect, gap int, handles []Handle, path string, prevRatios map[string]float64, prevSplits map[string]SplitDir) *Node {
	if len(handles) == 1 {
		return &Node{
			Leaf:   true,
			Handle: handles[0],
			Rect:   outer.Inset(0),
			path:   path,
		}
	}

	split := SplitVertical
	if outer.Height() > outer.Width() {
		split = SplitHorizontal
	}
	if prevSplits != nil {
		if s, ok := prevSplits[path]; ok {
			split = s
		}
	}

	ratio := defaultRatio
	if prevRatios != nil {
		if r, ok := prevRatios[path]; ok {
			ratio = r
		}
	}
	ratio = geometry.ClampRatio(ratio)

	var firstRect, restRect geometry.Rect
	if split == SplitVertical {
		firstRect, restRect = outer.SplitVertical(ratio, gap)
	} else {
		firstRect, restRect = outer.SplitHorizontal(ratio, gap)
	}

	n := &Node{
		Split: split,
		Ratio: ratio,
		Rect:  outer,
		path:  path,
	}
	n.A = build(firstRect, gap, handles[:1], path+"a", prevRatios, prevSplits)
	n.B = build(restRect, gap, handles[1:], path+"b", prevRatios, prevSplits)
	return n
}

// Leaves walks the tree in order and returns the leaf rectangles keyed by
// handle.
func Leaves(n *Node) map[Handle]geometry.Rect {
	out := make(map[Handle]geometry.Rect)
	collectLeaves(n, out)
	return out
}

func collectLeaves(n *Node, out map[Handle]geometry.Rect) {
	if n == nil {
		return
	}
	if n.Leaf {
		out[n.Handle] = n.Rect
		return
	}
	collectLeaves(n.A, out)
	collectLeaves(n.B, out)
}

// PathRatios collects the split ratio at every internal node, keyed by the
// same path scheme Build consults, for reuse on the next Build call.
func PathRatios(n *Node) map[string]float64 {
	out := make(map[string]float64)
	collectRatios(n, out)
	return out
}

func collectRatios(n *Node, out map[string]float64) {
	if n == nil || n.Leaf {
		return
	}
	out[n.path] = n.Ratio
	collectRatios(n.A, out)
	collectRatios(n.B, out)
}

// PathSplits collects the split direction at every internal node, keyed by
// path, for reuse on the next Build call after a Flip.
func PathSplits(n *Node) map[string]SplitDir {
	out := make(map[string]SplitDir)
	collectSplits(n, out)
	return out
}

func collectSplits(n *Node, out map[string]SplitDir) {
	if n == nil || n.Leaf {
		return
	}
	out[n.path] = n.Split
	collectSplits(n.A, out)
	collectSplits(n.B, out)
}

// FindNode locates the internal node whose path matches, used by Flip and
// Resize to target the root or a specific split. An empty path addresses
// the root.
func FindNode(n *Node, path string) *Node {
	if n == nil {
		return nil
	}
	if n.path == path {
		return n
	}
	if n.Leaf {
		return nil
	}
	if strings.HasPrefix(path, n.path) {
		if found := FindNode(n.A, path); found != nil {
			return found
		}
		return FindNode(n.B, path)
	}
	return nil
}

// Flip toggles the split direction of the node at path. Callers rebuild the
// tree (Build) afterward, passing PathSplits(old tree) back in as
// prevSplits so the flipped direction survives the rebuild.
func (n *Node) Flip() {
	if n == nil || n.Leaf {
		return
	}
	if n.Split == SplitVertical {
		n.Split = SplitHorizontal
	} else {
		n.Split = SplitVertical
	}
}

// AdjustRatio nudges the node's ratio by delta, clamped to [0.1, 0.9], and
// returns the new value.
func (n *Node) AdjustRatio(delta float64) float64 {
	if n == nil || n.Leaf {
		return 0
	}
	n.Ratio = geometry.ClampRatio(n.Ratio + delta)
	return n.Ratio
}

// ResizeStep is the fixed per-action ratio delta used by ResizeHoriz/
// ResizeVert hotkey actions (spec.md §4.2: "modify the root's ratio by
// ±0.05").
const ResizeStep = resizeStep

// RootPath is the path string addressing the tree root.
const RootPath = ""
