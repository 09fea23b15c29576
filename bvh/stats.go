package bvh

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Statistics about a built tree.
type Stats struct {
	Nodes    int
	Leaves   int
	MaxDepth int

	// Leaf triangle counts.
	MinLeafSize    int
	MaxLeafSize    int
	MeanLeafSize   float64
	StdDevLeafSize float64

	// The SAH cost of the whole tree normalized by the root area:
	// (sum of internal node areas + sum of leaf count * leaf area) / root area.
	SAHCost float64

	BuildTime time.Duration
}

type depthEntry struct {
	index int
	depth int
}

func (t *Tree) computeStats() Stats {
	s := Stats{
		Nodes:       len(t.Nodes),
		MinLeafSize: math.MaxInt32,
	}

	var cost float64
	leafSizes := make([]float64, 0)

	stack := []depthEntry{{0, 0}}
	for len(stack) > 0 {
		entry := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if entry.depth > s.MaxDepth {
			s.MaxDepth = entry.depth
		}

		node := &t.Nodes[entry.index]
		if t.IsLeaf(entry.index) {
			s.Leaves++
			count := int(node.TriCount)
			leafSizes = append(leafSizes, float64(count))
			if count < s.MinLeafSize {
				s.MinLeafSize = count
			}
			if count > s.MaxLeafSize {
				s.MaxLeafSize = count
			}
			cost += float64(count) * float64(node.Area())
			continue
		}

		cost += float64(node.Area())
		left, right := node.Children()
		stack = append(stack,
			depthEntry{int(right), entry.depth + 1},
			depthEntry{int(left), entry.depth + 1},
		)
	}

	s.MeanLeafSize = stat.Mean(leafSizes, nil)
	if len(leafSizes) > 1 {
		s.StdDevLeafSize = stat.StdDev(leafSizes, nil)
	}

	if rootArea := float64(t.Nodes[0].Area()); rootArea > 0 {
		s.SAHCost = cost / rootArea
	}

	return s
}
