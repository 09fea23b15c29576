package bvh

import (
	"fmt"

	"github.com/benlowenthal/browser-raytracing/geometry"
	"github.com/benlowenthal/browser-raytracing/types"
)

// A BVH built over a triangle list.
type Tree struct {
	// The flattened node list. Node 0 is the root.
	Nodes []Node

	// A permutation of the input triangle indices. Each leaf references a
	// contiguous range of this list.
	TriIdx []uint32

	Stats Stats

	// The geometry that the tree was built from.
	vertices  []types.Vec3
	triangles []geometry.Triangle
}

// Get the root node.
func (t *Tree) Root() Node {
	return t.Nodes[0]
}

// Get the bbox of the root node. A tree without triangles has inverted
// bounds (+Inf, -Inf).
func (t *Tree) Bounds() [2]types.Vec3 {
	return t.Nodes[0].BBox()
}

// Get the number of nodes in the tree.
func (t *Tree) NodeCount() int {
	return len(t.Nodes)
}

// Returns true if the node at index is a leaf. The root of a tree without
// triangles is a leaf with no triangles.
func (t *Tree) IsLeaf(index int) bool {
	return t.Nodes[index].IsLeaf() || len(t.Nodes) == 1
}

// Invoke fn for every leaf in depth-first order.
func (t *Tree) Leaves(fn func(index int, n Node)) {
	stack := []int{0}
	for len(stack) > 0 {
		index := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if t.IsLeaf(index) {
			fn(index, t.Nodes[index])
			continue
		}
		left, right := t.Nodes[index].Children()
		stack = append(stack, int(right), int(left))
	}
}

// Check the structural invariants of the tree:
//  - every node is reachable from the root exactly once and children are
//    stored as adjacent pairs after their parent
//  - leaf ranges partition the triangle index list, which is a permutation
//    of the input triangles
//  - every node bbox tightly encloses the triangles below it
//
// The first violation is reported as an error.
func (t *Tree) Validate() error {
	if len(t.Nodes) == 0 {
		return fmt.Errorf("bvh: tree has no root node")
	}
	if len(t.TriIdx) != len(t.triangles) {
		return fmt.Errorf("bvh: expected %d triangle indices; got %d", len(t.triangles), len(t.TriIdx))
	}

	seen := make([]bool, len(t.TriIdx))
	for pos, tri := range t.TriIdx {
		if int(tri) >= len(seen) || seen[tri] {
			return fmt.Errorf("bvh: triangle index list entry %d (%d) is not part of a permutation", pos, tri)
		}
		seen[tri] = true
	}

	covered := make([]bool, len(t.TriIdx))
	visited := make([]bool, len(t.Nodes))
	visitCount := 0

	stack := []int{0}
	for len(stack) > 0 {
		index := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if visited[index] {
			return fmt.Errorf("bvh: node %d is referenced more than once", index)
		}
		visited[index] = true
		visitCount++

		node := t.Nodes[index]
		expMin, expMax := types.EmptyBounds()

		if t.IsLeaf(index) {
			first, count := node.Triangles()
			if int(first+count) > len(t.TriIdx) {
				return fmt.Errorf("bvh: leaf %d range [%d, %d) exceeds triangle index list", index, first, first+count)
			}
			for pos := first; pos < first+count; pos++ {
				if covered[pos] {
					return fmt.Errorf("bvh: triangle index list entry %d belongs to more than one leaf", pos)
				}
				covered[pos] = true

				for _, v := range t.triangles[t.TriIdx[pos]].V {
					expMin = types.MinVec3(expMin, t.vertices[v])
					expMax = types.MaxVec3(expMax, t.vertices[v])
				}
			}
		} else {
			left, right := node.Children()
			if int(left) <= index || int(right) >= len(t.Nodes) {
				return fmt.Errorf("bvh: node %d has invalid children (%d, %d)", index, left, right)
			}
			for _, child := range []uint32{left, right} {
				expMin = types.MinVec3(expMin, t.Nodes[child].Min)
				expMax = types.MaxVec3(expMax, t.Nodes[child].Max)
			}
			stack = append(stack, int(right), int(left))
		}

		if node.Min != expMin || node.Max != expMax {
			return fmt.Errorf("bvh: node %d bbox [%v, %v] does not match its contents [%v, %v]", index, node.Min, node.Max, expMin, expMax)
		}
	}

	if visitCount != len(t.Nodes) {
		return fmt.Errorf("bvh: %d of %d nodes are unreachable from the root", len(t.Nodes)-visitCount, len(t.Nodes))
	}
	for pos, ok := range covered {
		if !ok {
			return fmt.Errorf("bvh: triangle index list entry %d is not referenced by any leaf", pos)
		}
	}

	return nil
}
