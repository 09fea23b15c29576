package bvh

import (
	"math"
	"math/rand"
	"reflect"
	"sort"
	"testing"

	"github.com/benlowenthal/browser-raytracing/geometry"
	"github.com/benlowenthal/browser-raytracing/types"
)

func buildMesh(m *geometry.Mesh, opts Options) *Tree {
	return Build(m.Vertices, m.Triangles, opts)
}

// Generate a mesh with a small triangle around each of the given centers.
func clusterMesh(centers []types.Vec3, size float32) *geometry.Mesh {
	m := geometry.NewMesh()
	for _, c := range centers {
		base := uint32(len(m.Vertices))
		m.Vertices = append(m.Vertices,
			c.Add(types.XYZ(-size, 0, -size)),
			c.Add(types.XYZ(size, 0, -size)),
			c.Add(types.XYZ(0, size, size)),
		)
		m.Triangles = append(m.Triangles, geometry.Triangle{V: [3]uint32{base, base + 1, base + 2}})
	}
	return m
}

func randomMesh(seed int64, count int) *geometry.Mesh {
	rng := rand.New(rand.NewSource(seed))
	centers := make([]types.Vec3, count)
	for index := range centers {
		centers[index] = types.XYZ(
			rng.Float32()*100-50,
			rng.Float32()*20,
			rng.Float32()*100-50,
		)
	}
	return clusterMesh(centers, 0.5)
}

func leafSizes(tree *Tree) []uint32 {
	sizes := make([]uint32, 0)
	tree.Leaves(func(_ int, n Node) {
		sizes = append(sizes, n.TriCount)
	})
	return sizes
}

// Count the triangles in the subtree rooted at index.
func subtreeTriangles(tree *Tree, index uint32) uint32 {
	var total uint32
	stack := []uint32{index}
	for len(stack) > 0 {
		node := tree.Nodes[stack[len(stack)-1]]
		stack = stack[:len(stack)-1]
		if node.IsLeaf() {
			total += node.TriCount
			continue
		}
		left, right := node.Children()
		stack = append(stack, left, right)
	}
	return total
}

// Collect the bbox and the sorted triangle set of every leaf in depth-first
// order.
type leafContents struct {
	bbox [2]types.Vec3
	tris []uint32
}

func collectLeaves(tree *Tree) []leafContents {
	leaves := make([]leafContents, 0)
	tree.Leaves(func(_ int, n Node) {
		first, count := n.Triangles()
		tris := append([]uint32(nil), tree.TriIdx[first:first+count]...)
		sort.Slice(tris, func(i, j int) bool { return tris[i] < tris[j] })
		leaves = append(leaves, leafContents{n.BBox(), tris})
	})
	return leaves
}

func TestEmptyTree(t *testing.T) {
	tree := Build(nil, nil, DefaultOptions())

	if tree.NodeCount() != 1 {
		t.Fatalf("expected tree to have 1 node; got %d", tree.NodeCount())
	}
	root := tree.Root()
	if root.TriCount != 0 || root.Offset != 0 {
		t.Fatalf("expected empty root; got %+v", root)
	}

	bounds := tree.Bounds()
	for axis := 0; axis < 3; axis++ {
		if !math.IsInf(float64(bounds[0][axis]), 1) || !math.IsInf(float64(bounds[1][axis]), -1) {
			t.Fatalf("expected inverted root bounds; got %v", bounds)
		}
	}

	if !tree.IsLeaf(0) {
		t.Fatal("expected the empty root to be a leaf")
	}
	if err := tree.Validate(); err != nil {
		t.Fatal(err)
	}
	if tree.Stats.Leaves != 1 || tree.Stats.SAHCost != 0 {
		t.Fatalf("unexpected stats for empty tree: %+v", tree.Stats)
	}
}

func TestSmallInputsBecomeASingleLeaf(t *testing.T) {
	for count := 1; count <= 2; count++ {
		m := clusterMesh([]types.Vec3{types.XYZ(0, 0, 0), types.XYZ(10, 0, 0)}[:count], 1)
		tree := buildMesh(m, DefaultOptions())

		if tree.NodeCount() != 1 {
			t.Fatalf("[%d triangles] expected a single node; got %d", count, tree.NodeCount())
		}
		if root := tree.Root(); root.Offset != 0 || root.TriCount != uint32(count) {
			t.Fatalf("[%d triangles] expected root leaf with %d triangles; got %+v", count, count, root)
		}
		if err := tree.Validate(); err != nil {
			t.Fatalf("[%d triangles] %v", count, err)
		}
	}
}

func TestSampleEnvironmentSplits(t *testing.T) {
	m := geometry.SampleEnvironment()

	for _, strategy := range Strategies() {
		opts := DefaultOptions()
		opts.Strategy = strategy
		tree := buildMesh(m, opts)

		if err := tree.Validate(); err != nil {
			t.Fatalf("[%s] %v", strategy, err)
		}

		expCount := 7
		if tree.NodeCount() != expCount {
			t.Fatalf("[%s] expected tree to have %d nodes; got %d", strategy, expCount, tree.NodeCount())
		}

		root := tree.Root()
		if root.IsLeaf() {
			t.Fatalf("[%s] expected root to be split", strategy)
		}
		left, right := root.Children()
		if left != 1 || right != 2 {
			t.Fatalf("[%s] expected root children to be (1, 2); got (%d, %d)", strategy, left, right)
		}

		// The grid is flat so no split may happen along Y; the first
		// split separates the two halves along X
		lnode, rnode := tree.Nodes[left], tree.Nodes[right]
		if lnode.Max[0] != 0 || rnode.Min[0] != 0 {
			t.Fatalf("[%s] expected children to meet at x=0; got left %v and right %v", strategy, lnode.BBox(), rnode.BBox())
		}
		for _, n := range []Node{lnode, rnode} {
			if n.Min[2] != -20 || n.Max[2] != 20 {
				t.Fatalf("[%s] expected children to span the full Z extent; got %v", strategy, n.BBox())
			}
		}

		for _, child := range []uint32{left, right} {
			if count := subtreeTriangles(tree, child); count < 3 || count > 5 {
				t.Fatalf("[%s] expected root child %d to hold 3-5 triangles; got %d", strategy, child, count)
			}
		}

		for index, size := range leafSizes(tree) {
			if size != 2 {
				t.Fatalf("[%s] expected leaf %d to hold 2 triangles; got %d", strategy, index, size)
			}
		}
		if tree.Stats.Leaves != 4 || tree.Stats.MaxDepth != 2 {
			t.Fatalf("[%s] expected 4 leaves at depth 2; got %+v", strategy, tree.Stats)
		}
	}
}

func TestSplitMustLowerCost(t *testing.T) {
	// The two triangles in each grid cell share a bbox so splitting them
	// costs exactly as much as keeping them together
	opts := DefaultOptions()
	opts.MinLeafSize = 1
	tree := buildMesh(geometry.SampleEnvironment(), opts)

	if tree.NodeCount() != 7 {
		t.Fatalf("expected tree to have 7 nodes; got %d", tree.NodeCount())
	}
	for index, size := range leafSizes(tree) {
		if size != 2 {
			t.Fatalf("expected leaf %d to hold 2 triangles; got %d", index, size)
		}
	}
}

func TestSeparatedClusters(t *testing.T) {
	centers := make([]types.Vec3, 0)
	for i := 0; i < 4; i++ {
		centers = append(centers,
			types.XYZ(float32(i), 0, -100),
			types.XYZ(float32(i), 0, 100),
		)
	}
	m := clusterMesh(centers, 0.25)

	for _, strategy := range Strategies() {
		opts := DefaultOptions()
		opts.Strategy = strategy
		tree := buildMesh(m, opts)

		if err := tree.Validate(); err != nil {
			t.Fatalf("[%s] %v", strategy, err)
		}

		left, right := tree.Root().Children()
		lnode, rnode := tree.Nodes[left], tree.Nodes[right]
		if !(lnode.Max[2] < rnode.Min[2]) {
			t.Fatalf("[%s] expected root children to be separated along Z; got left %v and right %v", strategy, lnode.BBox(), rnode.BBox())
		}
	}
}

func TestCoincidentCentroids(t *testing.T) {
	centers := make([]types.Vec3, 6)
	for index := range centers {
		centers[index] = types.XYZ(1, 2, 3)
	}
	m := clusterMesh(centers, 1)

	for _, strategy := range Strategies() {
		opts := DefaultOptions()
		opts.Strategy = strategy
		tree := buildMesh(m, opts)

		if tree.NodeCount() != 1 || tree.Root().TriCount != 6 {
			t.Fatalf("[%s] expected a single leaf with all triangles; got %d nodes", strategy, tree.NodeCount())
		}
	}
}

func TestRandomSoup(t *testing.T) {
	m := randomMesh(42, 500)

	for _, strategy := range Strategies() {
		for _, minLeaf := range []int{1, 2, 4} {
			opts := Options{Strategy: strategy, MinLeafSize: minLeaf}
			tree := buildMesh(m, opts)

			if err := tree.Validate(); err != nil {
				t.Fatalf("[%s, min leaf %d] %v", strategy, minLeaf, err)
			}
			if tree.NodeCount() > 2*len(m.Triangles)-1 {
				t.Fatalf("[%s, min leaf %d] expected at most %d nodes; got %d", strategy, minLeaf, 2*len(m.Triangles)-1, tree.NodeCount())
			}
			if tree.NodeCount()%2 != 1 {
				t.Fatalf("[%s, min leaf %d] expected an odd node count; got %d", strategy, minLeaf, tree.NodeCount())
			}
			if tree.Stats.Leaves != (tree.NodeCount()+1)/2 {
				t.Fatalf("[%s, min leaf %d] expected %d leaves; got %d", strategy, minLeaf, (tree.NodeCount()+1)/2, tree.Stats.Leaves)
			}

			var total uint32
			for _, size := range leafSizes(tree) {
				total += size
			}
			if int(total) != len(m.Triangles) {
				t.Fatalf("[%s, min leaf %d] expected leaves to hold %d triangles; got %d", strategy, minLeaf, len(m.Triangles), total)
			}

			// Scattered triangles must be much cheaper to trace than a
			// single leaf holding everything
			if !(tree.Stats.SAHCost < float64(len(m.Triangles))) {
				t.Fatalf("[%s, min leaf %d] expected SAH cost below %d; got %f", strategy, minLeaf, len(m.Triangles), tree.Stats.SAHCost)
			}
		}
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	m := randomMesh(7, 200)
	a := buildMesh(m, DefaultOptions())
	b := buildMesh(m, DefaultOptions())

	if a.NodeCount() != b.NodeCount() {
		t.Fatalf("expected identical node counts; got %d and %d", a.NodeCount(), b.NodeCount())
	}
	for index := range a.Nodes {
		if a.Nodes[index] != b.Nodes[index] {
			t.Fatalf("expected node %d to match; got %+v and %+v", index, a.Nodes[index], b.Nodes[index])
		}
	}
	for index := range a.TriIdx {
		if a.TriIdx[index] != b.TriIdx[index] {
			t.Fatalf("expected triangle index %d to match", index)
		}
	}
}

func TestPermutedInputOrder(t *testing.T) {
	m := randomMesh(3, 300)

	for _, strategy := range Strategies() {
		opts := DefaultOptions()
		opts.Strategy = strategy
		expLeaves := collectLeaves(buildMesh(m, opts))

		b := newBuilder(m.Vertices, m.Triangles, opts)
		for i, j := 0, len(b.triIdx)-1; i < j; i, j = i+1, j-1 {
			b.triIdx[i], b.triIdx[j] = b.triIdx[j], b.triIdx[i]
		}
		b.subdivide()

		tree := &Tree{
			Nodes:     b.nodes[:b.nodesUsed],
			TriIdx:    b.triIdx,
			vertices:  m.Vertices,
			triangles: m.Triangles,
		}
		if err := tree.Validate(); err != nil {
			t.Fatalf("[%s] %v", strategy, err)
		}

		leaves := collectLeaves(tree)
		if len(leaves) != len(expLeaves) {
			t.Fatalf("[%s] expected %d leaves; got %d", strategy, len(expLeaves), len(leaves))
		}
		for index := range leaves {
			if leaves[index].bbox != expLeaves[index].bbox {
				t.Fatalf("[%s] expected leaf %d bbox %v; got %v", strategy, index, expLeaves[index].bbox, leaves[index].bbox)
			}
			if !reflect.DeepEqual(leaves[index].tris, expLeaves[index].tris) {
				t.Fatalf("[%s] expected leaf %d triangles %v; got %v", strategy, index, expLeaves[index].tris, leaves[index].tris)
			}
		}
	}
}

func TestTinyCentroidExtent(t *testing.T) {
	// Centroids that differ by a subnormal amount along X only
	var tiny float32 = 3e-43
	m := geometry.NewMesh()
	for _, x := range []float32{0, 0, tiny} {
		base := uint32(len(m.Vertices))
		m.Vertices = append(m.Vertices, types.XYZ(x, 0, 0), types.XYZ(x, 1, 0), types.XYZ(x, 0, 1))
		m.Triangles = append(m.Triangles, geometry.Triangle{V: [3]uint32{base, base + 1, base + 2}})
	}

	b := newBuilder(m.Vertices, m.Triangles, DefaultOptions())
	if best := b.binnedSplit(&b.nodes[0]); best.axis != -1 {
		t.Fatalf("expected no split candidate; got axis %d at %f", best.axis, best.pos)
	}

	tree := buildMesh(m, DefaultOptions())
	if tree.NodeCount() != 1 {
		t.Fatalf("expected a single leaf; got %d nodes", tree.NodeCount())
	}
	if err := tree.Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestPartition(t *testing.T) {
	m := randomMesh(11, 64)
	b := newBuilder(m.Vertices, m.Triangles, DefaultOptions())

	var pos float32 = 5
	first, count := uint32(8), uint32(40)
	mid := b.partition(first, count, 0, pos)

	for i := first; i < first+count; i++ {
		c := b.centroids[b.triIdx[i]][0]
		if i < mid && !(c < pos) {
			t.Fatalf("expected entry %d to lie left of the split; centroid x %f", i, c)
		}
		if i >= mid && c < pos {
			t.Fatalf("expected entry %d to lie right of the split; centroid x %f", i, c)
		}
	}

	// Entries outside the range are untouched
	for i := uint32(0); i < first; i++ {
		if b.triIdx[i] != i {
			t.Fatalf("expected entry %d to be untouched; got %d", i, b.triIdx[i])
		}
	}
	for i := first + count; i < uint32(len(b.triIdx)); i++ {
		if b.triIdx[i] != i {
			t.Fatalf("expected entry %d to be untouched; got %d", i, b.triIdx[i])
		}
	}
}

func TestValidateDetectsLooseBounds(t *testing.T) {
	tree := buildMesh(geometry.SampleEnvironment(), DefaultOptions())
	tree.Nodes[3].Max[1] += 1

	if err := tree.Validate(); err == nil {
		t.Fatal("expected validation to fail for a loose node bbox")
	}
}
