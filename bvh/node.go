package bvh

import "github.com/benlowenthal/browser-raytracing/types"

// Bvh node definition. Nodes are stored in a flat list; the root lives at
// index 0 and the two children of an internal node are always stored next to
// each other.
type Node struct {
	// Bounding box extents.
	Min types.Vec3
	Max types.Vec3

	// For a leaf, the index of the first entry in the triangle index list.
	// For an internal node, the index of the left child; the right child is
	// stored at Offset+1.
	Offset uint32

	// Number of triangles in a leaf; 0 for internal nodes.
	TriCount uint32
}

// Returns true if this node is a leaf.
func (n Node) IsLeaf() bool {
	return n.TriCount > 0
}

// Get the indices of the left and right child of an internal node.
func (n Node) Children() (left, right uint32) {
	return n.Offset, n.Offset + 1
}

// Get the range of triangle index list entries covered by a leaf.
func (n Node) Triangles() (first, count uint32) {
	return n.Offset, n.TriCount
}

// Get the node bbox.
func (n Node) BBox() [2]types.Vec3 {
	return [2]types.Vec3{n.Min, n.Max}
}

// Get half the surface area of the node bbox. This is the area term used by
// the surface area heuristic. Empty nodes have zero area.
func (n Node) Area() float32 {
	return area(n.Min, n.Max)
}

func area(min, max types.Vec3) float32 {
	side := max.Sub(min)
	if side[0] < 0 || side[1] < 0 || side[2] < 0 {
		return 0
	}
	return side[0]*side[1] + side[1]*side[2] + side[2]*side[0]
}
