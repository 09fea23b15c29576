package bvh

import (
	"math"

	"github.com/benlowenthal/browser-raytracing/types"
)

var noSplit = split{axis: -1, cost: float32(math.Inf(1))}

type bin struct {
	min, max types.Vec3
	count    uint32
}

// Get the bounds of the centroids of the triangles in a node.
func (b *builder) centroidBounds(n *Node) (min, max types.Vec3) {
	min, max = types.EmptyBounds()
	for _, tri := range b.triIdx[n.Offset : n.Offset+n.TriCount] {
		min = types.MinVec3(min, b.centroids[tri])
		max = types.MaxVec3(max, b.centroids[tri])
	}
	return min, max
}

// Select a split by sorting centroids into equally sized bins along each
// axis and evaluating the SAH at every bin boundary.
func (b *builder) binnedSplit(n *Node) split {
	best := noSplit
	cmin, cmax := b.centroidBounds(n)
	binCount := len(b.bins)

	for axis := 0; axis < 3; axis++ {
		extent := cmax[axis] - cmin[axis]
		if extent <= 0 {
			continue
		}

		for index := range b.bins {
			b.bins[index].min, b.bins[index].max = types.EmptyBounds()
			b.bins[index].count = 0
		}

		// Extents this small overflow the bin scale
		scale := float32(binCount) / extent
		if math.IsInf(float64(scale), 0) {
			continue
		}
		for _, tri := range b.triIdx[n.Offset : n.Offset+n.TriCount] {
			index := int((b.centroids[tri][axis] - cmin[axis]) * scale)
			if index < 0 {
				index = 0
			} else if index > binCount-1 {
				index = binCount - 1
			}
			b.bins[index].count++
			b.bins[index].min = types.MinVec3(b.bins[index].min, b.triMin[tri])
			b.bins[index].max = types.MaxVec3(b.bins[index].max, b.triMax[tri])
		}

		// Sweep from both ends to get the count and area on each side of
		// every plane between two bins
		lmin, lmax := types.EmptyBounds()
		rmin, rmax := types.EmptyBounds()
		var lsum, rsum uint32
		for i := 0; i < binCount-1; i++ {
			lbin := &b.bins[i]
			lsum += lbin.count
			lmin, lmax = types.MinVec3(lmin, lbin.min), types.MaxVec3(lmax, lbin.max)
			b.leftCount[i] = lsum
			b.leftArea[i] = area(lmin, lmax)

			rbin := &b.bins[binCount-1-i]
			rsum += rbin.count
			rmin, rmax = types.MinVec3(rmin, rbin.min), types.MaxVec3(rmax, rbin.max)
			b.rightCount[binCount-2-i] = rsum
			b.rightArea[binCount-2-i] = area(rmin, rmax)
		}

		for i := 0; i < binCount-1; i++ {
			if b.leftCount[i] == 0 || b.rightCount[i] == 0 {
				continue
			}
			cost := float32(b.leftCount[i])*b.leftArea[i] + float32(b.rightCount[i])*b.rightArea[i]
			if cost < best.cost {
				best = split{axis: axis, pos: cmin[axis] + float32(i+1)/scale, cost: cost}
			}
		}
	}

	return best
}

// Select a split by probing evenly spaced planes across the node bbox. Each
// candidate is scored with an exact pass over the node triangles.
func (b *builder) intervalSplit(n *Node) split {
	best := noSplit
	extent := n.Max.Sub(n.Min)

	for i := 1; i < b.opts.Intervals; i++ {
		t := float32(i) / float32(b.opts.Intervals)
		for axis := 0; axis < 3; axis++ {
			if extent[axis] <= 0 {
				continue
			}
			pos := n.Min[axis] + extent[axis]*t
			if cost := b.evaluateSAH(n, axis, pos); cost < best.cost {
				best = split{axis: axis, pos: pos, cost: cost}
			}
		}
	}

	return best
}

// Split the longest axis of the node centroid bounds at its center.
func (b *builder) midpointSplit(n *Node) split {
	cmin, cmax := b.centroidBounds(n)
	axis := cmax.Sub(cmin).MaxAxis()
	if cmax[axis]-cmin[axis] <= 0 {
		return noSplit
	}

	pos := (cmin[axis] + cmax[axis]) * 0.5
	cost := b.evaluateSAH(n, axis, pos)
	if math.IsInf(float64(cost), 1) {
		return noSplit
	}
	return split{axis: axis, pos: pos, cost: cost}
}

// Calculate the SAH cost of splitting a node at pos along axis:
//
// left count * left bbox area + right count * right bbox area.
//
// Splits that generate an empty side or a non-positive cost get the worst
// possible score (+Inf).
func (b *builder) evaluateSAH(n *Node, axis int, pos float32) float32 {
	lmin, lmax := types.EmptyBounds()
	rmin, rmax := types.EmptyBounds()

	var leftCount, rightCount int
	for _, tri := range b.triIdx[n.Offset : n.Offset+n.TriCount] {
		if b.centroids[tri][axis] < pos {
			leftCount++
			lmin = types.MinVec3(lmin, b.triMin[tri])
			lmax = types.MaxVec3(lmax, b.triMax[tri])
		} else {
			rightCount++
			rmin = types.MinVec3(rmin, b.triMin[tri])
			rmax = types.MaxVec3(rmax, b.triMax[tri])
		}
	}

	if leftCount == 0 || rightCount == 0 {
		return noSplit.cost
	}

	cost := float32(leftCount)*area(lmin, lmax) + float32(rightCount)*area(rmin, rmax)
	if cost <= 0 {
		return noSplit.cost
	}
	return cost
}
