package cmd

import (
	"bytes"
	"fmt"
	"time"

	"github.com/benlowenthal/browser-raytracing/bvh"
	"github.com/benlowenthal/browser-raytracing/scene"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// Build the BVH trees of a mesh with every split strategy and compare them.
func CompareStrategies(ctx *cli.Context) error {
	cfg, err := setup(ctx)
	if err != nil {
		return err
	}

	mesh, err := loadMesh(ctx, cfg)
	if err != nil {
		return err
	}

	scenes := make([]*scene.Scene, 0)
	for _, strategy := range bvh.Strategies() {
		opts := cfg.BuilderOptions()
		opts.Strategy = strategy

		sc, err := compileMesh(mesh, cfg, opts, false)
		if err != nil {
			return err
		}
		scenes = append(scenes, sc)
	}

	logger.Noticef("strategy comparison:\n%s", comparisonTable(bvh.Strategies(), scenes))
	return nil
}

// Summary of the BVH trees of all instances in a scene.
type sceneSummary struct {
	nodes     int
	leaves    int
	maxDepth  int
	sahCost   float64
	buildTime time.Duration
}

// Aggregate instance stats. The SAH cost is the triangle-weighted mean of
// the instance costs.
func summarize(sc *scene.Scene) sceneSummary {
	var sum sceneSummary
	var weight float64
	for _, in := range sc.Instances {
		sum.nodes += in.Stats.Nodes
		sum.leaves += in.Stats.Leaves
		if in.Stats.MaxDepth > sum.maxDepth {
			sum.maxDepth = in.Stats.MaxDepth
		}
		sum.sahCost += in.Stats.SAHCost * float64(in.TriangleCount)
		sum.buildTime += in.Stats.BuildTime
		weight += float64(in.TriangleCount)
	}
	if weight > 0 {
		sum.sahCost /= weight
	}
	return sum
}

func comparisonTable(strategies []bvh.Strategy, scenes []*scene.Scene) string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Strategy", "Nodes", "Leaves", "Max depth", "SAH cost", "Build time"})
	for index, sc := range scenes {
		s := summarize(sc)
		table.Append([]string{
			strategies[index].String(),
			fmt.Sprint(s.nodes),
			fmt.Sprint(s.leaves),
			fmt.Sprint(s.maxDepth),
			fmt.Sprintf("%.2f", s.sahCost),
			s.buildTime.String(),
		})
	}
	table.Render()
	return buf.String()
}
