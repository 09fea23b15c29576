package bvh

import "fmt"

// A split selection strategy.
type Strategy uint8

const (
	// Surface area heuristic evaluated over a fixed number of centroid bins
	// per axis.
	BinnedSAH Strategy = iota

	// Surface area heuristic evaluated exactly at evenly spaced planes across
	// the node bbox.
	IntervalSAH

	// Split the longest centroid axis at its center.
	Midpoint
)

const (
	defaultBins        = 8
	defaultIntervals   = 4
	defaultMinLeafSize = 2
)

var strategyNames = map[Strategy]string{
	BinnedSAH:   "binned-sah",
	IntervalSAH: "interval-sah",
	Midpoint:    "midpoint",
}

// Get the list of supported strategies.
func Strategies() []Strategy {
	return []Strategy{BinnedSAH, IntervalSAH, Midpoint}
}

func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Strategy(%d)", uint8(s))
}

// Lookup a strategy by name.
func ParseStrategy(name string) (Strategy, error) {
	for s, sName := range strategyNames {
		if sName == name {
			return s, nil
		}
	}
	return BinnedSAH, fmt.Errorf("bvh: unknown split strategy %q", name)
}

// Options that control BVH construction.
type Options struct {
	Strategy Strategy

	// Number of centroid bins per axis for BinnedSAH.
	Bins int

	// Number of intervals per axis for IntervalSAH. Each axis is evaluated at
	// Intervals-1 planes.
	Intervals int

	// Nodes with this many triangles or fewer are never split.
	MinLeafSize int
}

// Get the default builder options.
func DefaultOptions() Options {
	return Options{
		Strategy:    BinnedSAH,
		Bins:        defaultBins,
		Intervals:   defaultIntervals,
		MinLeafSize: defaultMinLeafSize,
	}
}

// Replace unset or unusable values with their defaults.
func (o Options) normalize() Options {
	if o.Bins < 2 {
		o.Bins = defaultBins
	}
	if o.Intervals < 2 {
		o.Intervals = defaultIntervals
	}
	if o.MinLeafSize < 1 {
		o.MinLeafSize = defaultMinLeafSize
	}
	if _, ok := strategyNames[o.Strategy]; !ok {
		o.Strategy = BinnedSAH
	}
	return o
}
