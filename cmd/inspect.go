package cmd

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/benlowenthal/browser-raytracing/scene"
	"github.com/benlowenthal/browser-raytracing/types"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// Display the BVH nodes of each instance in a mesh file.
func InspectScene(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return errors.New("inspect: expected a single mesh file argument")
	}

	cfg, err := setup(ctx)
	if err != nil {
		return err
	}

	mesh, err := loadMesh(ctx, cfg)
	if err != nil {
		return err
	}

	sc, err := compileMesh(mesh, cfg, cfg.BuilderOptions(), false)
	if err != nil {
		return err
	}

	maxDepth := ctx.Int("depth")
	for index := range sc.Instances {
		logger.Noticef("BVH nodes for instance \"%s\":\n%s", sc.Instances[index].Name, nodeTable(sc, index, maxDepth))
	}
	return nil
}

type nodeEntry struct {
	index uint32
	depth int
}

// Render the nodes of an instance up to maxDepth in depth-first order. A
// negative maxDepth renders the whole tree.
func nodeTable(sc *scene.Scene, instIndex, maxDepth int) string {
	in := sc.Instances[instIndex]

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Node", "Depth", "Type", "Min", "Max", "Children/Triangles"})

	stack := []nodeEntry{{in.NodeOffset, 0}}
	for len(stack) > 0 {
		entry := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		node := sc.Nodes[entry.index]
		row := []string{
			fmt.Sprint(entry.index),
			fmt.Sprint(entry.depth),
			"",
			fmtVec(node.Min),
			fmtVec(node.Max),
			"",
		}

		if node.IsLeaf() || in.NodeCount == 1 {
			first, count := node.Triangles()
			row[2] = "leaf"
			row[5] = fmt.Sprintf("%d @ %d", count, first)
		} else {
			left, right := node.Children()
			row[2] = "node"
			row[5] = fmt.Sprintf("%d, %d", left, right)
			if maxDepth < 0 || entry.depth < maxDepth {
				stack = append(stack, nodeEntry{right, entry.depth + 1}, nodeEntry{left, entry.depth + 1})
			}
		}
		table.Append(row)
	}

	table.Render()
	return buf.String()
}

func fmtVec(v types.Vec3) string {
	return fmt.Sprintf("(%.2f, %.2f, %.2f)", v[0], v[1], v[2])
}
