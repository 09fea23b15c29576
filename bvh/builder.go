package bvh

import (
	"time"

	"github.com/benlowenthal/browser-raytracing/geometry"
	"github.com/benlowenthal/browser-raytracing/log"
	"github.com/benlowenthal/browser-raytracing/types"
)

// A candidate split plane. An axis of -1 means that no usable split exists.
type split struct {
	axis int
	pos  float32
	cost float32
}

type builder struct {
	logger log.Logger
	opts   Options

	vertices  []types.Vec3
	triangles []geometry.Triangle

	// Per triangle centroids and bboxes indexed by triangle index.
	centroids []types.Vec3
	triMin    []types.Vec3
	triMax    []types.Vec3

	// Bvh nodes stored as a contiguous list. The list is preallocated for
	// the worst case and nodesUsed tracks the number of allocated entries.
	nodes     []Node
	nodesUsed uint32

	// Permutation of triangle indices; leaves reference ranges of it.
	triIdx []uint32

	// The split selection function for the configured strategy.
	findSplit func(n *Node) split

	// Scratch space for the binned SAH strategy.
	bins       []bin
	leftCount  []uint32
	rightCount []uint32
	leftArea   []float32
	rightArea  []float32
}

// Construct a BVH over a list of triangles.
//
// The builder starts with a single root leaf holding every triangle and
// repeatedly splits leaves that hold more than opts.MinLeafSize triangles.
// A split is accepted only when it leaves both children non-empty and its
// SAH cost (left count * left area + right count * right area) is lower
// than the cost of keeping the node as a leaf (count * area).
//
// Zero values in opts are replaced with the values from DefaultOptions.
func Build(vertices []types.Vec3, triangles []geometry.Triangle, opts Options) *Tree {
	b := newBuilder(vertices, triangles, opts.normalize())

	start := time.Now()
	b.subdivide()

	tree := &Tree{
		Nodes:     b.nodes[:b.nodesUsed],
		TriIdx:    b.triIdx,
		vertices:  vertices,
		triangles: triangles,
	}
	tree.Stats = tree.computeStats()
	tree.Stats.BuildTime = time.Since(start)

	b.logger.Debugf(
		"BVH tree build time: %d ms, strategy: %s, triangles: %d, maxDepth: %d, nodes: %d, leafs: %d, SAH cost: %.3f",
		tree.Stats.BuildTime.Nanoseconds()/1e6, b.opts.Strategy,
		len(triangles), tree.Stats.MaxDepth, tree.Stats.Nodes, tree.Stats.Leaves, tree.Stats.SAHCost,
	)
	return tree
}

func newBuilder(vertices []types.Vec3, triangles []geometry.Triangle, opts Options) *builder {
	triCount := len(triangles)
	maxNodes := 1
	if triCount > 0 {
		maxNodes = 2*triCount - 1
	}

	b := &builder{
		logger:    log.New("bvh builder"),
		opts:      opts,
		vertices:  vertices,
		triangles: triangles,
		centroids: make([]types.Vec3, triCount),
		triMin:    make([]types.Vec3, triCount),
		triMax:    make([]types.Vec3, triCount),
		nodes:     make([]Node, maxNodes),
		triIdx:    make([]uint32, triCount),
	}

	for index, tri := range triangles {
		v0, v1, v2 := vertices[tri.V[0]], vertices[tri.V[1]], vertices[tri.V[2]]
		b.triIdx[index] = uint32(index)
		b.centroids[index] = v0.Add(v1).Add(v2).Mul(1.0 / 3.0)
		b.triMin[index] = types.MinVec3(types.MinVec3(v0, v1), v2)
		b.triMax[index] = types.MaxVec3(types.MaxVec3(v0, v1), v2)
	}

	switch opts.Strategy {
	case IntervalSAH:
		b.findSplit = b.intervalSplit
	case Midpoint:
		b.findSplit = b.midpointSplit
	default:
		b.findSplit = b.binnedSplit
		b.bins = make([]bin, opts.Bins)
		b.leftCount = make([]uint32, opts.Bins-1)
		b.rightCount = make([]uint32, opts.Bins-1)
		b.leftArea = make([]float32, opts.Bins-1)
		b.rightArea = make([]float32, opts.Bins-1)
	}

	// Setup root
	b.nodes[0] = Node{Offset: 0, TriCount: uint32(triCount)}
	b.nodesUsed = 1
	b.updateBounds(0)

	return b
}

// Recalculate the bbox of a node from the bboxes of its triangles.
func (b *builder) updateBounds(nodeIndex uint32) {
	node := &b.nodes[nodeIndex]
	node.Min, node.Max = types.EmptyBounds()

	first, count := node.Offset, node.TriCount
	for _, tri := range b.triIdx[first : first+count] {
		node.Min = types.MinVec3(node.Min, b.triMin[tri])
		node.Max = types.MaxVec3(node.Max, b.triMax[tri])
	}
}

// Split nodes depth-first starting at the root. Children are pushed in
// reverse order so the left subtree is always allocated before the right one.
func (b *builder) subdivide() {
	stack := []uint32{0}
	for len(stack) > 0 {
		nodeIndex := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		leftIndex, ok := b.splitNode(nodeIndex)
		if !ok {
			continue
		}
		stack = append(stack, leftIndex+1, leftIndex)
	}
}

// Try to split a leaf into two children. Returns the index of the left child
// and true if the node was split.
func (b *builder) splitNode(nodeIndex uint32) (uint32, bool) {
	node := &b.nodes[nodeIndex]
	if node.TriCount <= uint32(b.opts.MinLeafSize) {
		return 0, false
	}

	best := b.findSplit(node)
	if best.axis == -1 {
		return 0, false
	}

	// Keep the node as a leaf unless splitting improves on its own cost
	if best.cost >= float32(node.TriCount)*node.Area() {
		return 0, false
	}

	mid := b.partition(node.Offset, node.TriCount, best.axis, best.pos)
	leftCount := mid - node.Offset
	if leftCount == 0 || leftCount == node.TriCount {
		return 0, false
	}

	leftIndex := b.nodesUsed
	b.nodesUsed += 2
	b.nodes[leftIndex] = Node{Offset: node.Offset, TriCount: leftCount}
	b.nodes[leftIndex+1] = Node{Offset: mid, TriCount: node.TriCount - leftCount}
	b.updateBounds(leftIndex)
	b.updateBounds(leftIndex + 1)

	node.Offset = leftIndex
	node.TriCount = 0

	return leftIndex, true
}

// Reorder the triangle index range [first, first+count) in place so that all
// triangles whose centroid lies before pos along axis come first. Returns the
// index of the first entry of the right side.
func (b *builder) partition(first, count uint32, axis int, pos float32) uint32 {
	i := int(first)
	j := int(first+count) - 1
	for i <= j {
		if b.centroids[b.triIdx[i]][axis] < pos {
			i++
		} else {
			b.triIdx[i], b.triIdx[j] = b.triIdx[j], b.triIdx[i]
			j--
		}
	}
	return uint32(i)
}
