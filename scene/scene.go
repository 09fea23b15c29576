// Package scene merges per-object BVH trees into the shared buffers consumed
// by the GPU tracer.
package scene

import (
	"github.com/benlowenthal/browser-raytracing/bvh"
	"github.com/benlowenthal/browser-raytracing/geometry"
	"github.com/benlowenthal/browser-raytracing/types"
)

// An instance references the BVH of a single object inside the shared node
// list. The tracer walks the instance list and then descends into each
// instance's node range.
type Instance struct {
	Name string

	// The root node of the instance BVH and the number of nodes that
	// belong to it.
	NodeOffset uint32
	NodeCount  uint32

	// Bounds of the instance BVH root.
	Min types.Vec3
	Max types.Vec3

	// The range of mesh triangles covered by this instance.
	FirstTriangle uint32
	TriangleCount uint32

	// Stats for the instance BVH.
	Stats bvh.Stats
}

// Get the instance bbox.
func (in *Instance) BBox() [2]types.Vec3 {
	return [2]types.Vec3{in.Min, in.Max}
}

type Scene struct {
	// The mesh whose triangles are referenced by TriIdx.
	Mesh *geometry.Mesh

	// The BVH nodes of all instances stored as a contiguous list.
	Nodes []bvh.Node

	// Mesh triangle indices referenced by the leaves in Nodes.
	TriIdx []uint32

	Instances []Instance
}

// Create an empty scene for the given mesh.
func New(mesh *geometry.Mesh) *Scene {
	return &Scene{
		Mesh:      mesh,
		Nodes:     make([]bvh.Node, 0),
		TriIdx:    make([]uint32, 0),
		Instances: make([]Instance, 0),
	}
}

// Merge a BVH built over the mesh triangles [firstTriangle,
// firstTriangle+len(tree.TriIdx)) into the scene and return the index of the
// new instance.
//
// Internal node child indices are shifted by the current node count; leaf
// offsets are shifted by the current length of the triangle index list and
// the triangle index entries are shifted by firstTriangle so they address the
// mesh triangle list.
func (sc *Scene) Register(name string, firstTriangle int, tree *bvh.Tree) int {
	nodeBase := uint32(len(sc.Nodes))
	triBase := uint32(len(sc.TriIdx))

	for index, node := range tree.Nodes {
		if tree.IsLeaf(index) {
			node.Offset += triBase
		} else {
			node.Offset += nodeBase
		}
		sc.Nodes = append(sc.Nodes, node)
	}

	for _, tri := range tree.TriIdx {
		sc.TriIdx = append(sc.TriIdx, tri+uint32(firstTriangle))
	}

	bounds := tree.Bounds()
	sc.Instances = append(sc.Instances, Instance{
		Name:          name,
		NodeOffset:    nodeBase,
		NodeCount:     uint32(tree.NodeCount()),
		Min:           bounds[0],
		Max:           bounds[1],
		FirstTriangle: uint32(firstTriangle),
		TriangleCount: uint32(len(tree.TriIdx)),
		Stats:         tree.Stats,
	})
	return len(sc.Instances) - 1
}

// Get the nodes that belong to an instance. Child offsets inside the
// returned nodes are absolute indices into the scene node list.
func (sc *Scene) InstanceNodes(index int) []bvh.Node {
	in := sc.Instances[index]
	return sc.Nodes[in.NodeOffset : in.NodeOffset+in.NodeCount]
}

// Get the bbox enclosing all instances.
func (sc *Scene) BBox() [2]types.Vec3 {
	min, max := types.EmptyBounds()
	for _, in := range sc.Instances {
		min = types.MinVec3(min, in.Min)
		max = types.MaxVec3(max, in.Max)
	}
	return [2]types.Vec3{min, max}
}
