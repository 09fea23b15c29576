package scene

import (
	"bytes"
	"fmt"

	"github.com/DmitriyVTitov/size"
	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
)

// Build a tabular representation of scene statistics.
func (sc *Scene) Stats() string {
	var vertices, normals, uvs, triangles int
	if sc.Mesh != nil {
		vertices, normals, uvs = len(sc.Mesh.Vertices), len(sc.Mesh.Normals), len(sc.Mesh.UVs)
		triangles = len(sc.Mesh.Triangles)
	}

	nodeBytes := NodeStride * len(sc.Nodes)
	instanceBytes := InstanceStride * len(sc.Instances)
	triangleBytes := TriangleStride * len(sc.TriIdx)

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Asset Type", "Asset", "Count", "Size"})
	table.Append([]string{"Geometry", "Vertices", fmt.Sprint(vertices), fmtBytes(12 * vertices)})
	table.Append([]string{"", "Normals", fmt.Sprint(normals), fmtBytes(12 * normals)})
	table.Append([]string{"", "UVs", fmt.Sprint(uvs), fmtBytes(8 * uvs)})
	table.Append([]string{"", "Triangles", fmt.Sprint(triangles), fmtBytes(triangleBytes)})
	table.Append([]string{" ", " ", " ", " "})
	table.Append([]string{"BVH", "Nodes", fmt.Sprint(len(sc.Nodes)), fmtBytes(nodeBytes)})
	table.Append([]string{"", "Instances", fmt.Sprint(len(sc.Instances)), fmtBytes(instanceBytes)})
	table.SetFooter([]string{"GPU total", " ", " ", fmtBytes(nodeBytes + instanceBytes + triangleBytes)})
	table.Render()

	fmt.Fprintf(&buf, "In-memory scene footprint: %s\n", fmtBytes(size.Of(sc)))
	return buf.String()
}

// Build a table with the BVH stats of each instance.
func (sc *Scene) InstanceStats() string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Instance", "Triangles", "Nodes", "Leaves", "Depth", "Leaf size (min/avg/max)", "SAH cost", "Build time"})
	for _, in := range sc.Instances {
		s := in.Stats
		table.Append([]string{
			in.Name,
			fmt.Sprint(in.TriangleCount),
			fmt.Sprint(in.NodeCount),
			fmt.Sprint(s.Leaves),
			fmt.Sprint(s.MaxDepth),
			fmt.Sprintf("%d / %.1f / %d", s.MinLeafSize, s.MeanLeafSize, s.MaxLeafSize),
			fmt.Sprintf("%.2f", s.SAHCost),
			s.BuildTime.String(),
		})
	}
	table.Render()
	return buf.String()
}

func fmtBytes(n int) string {
	if n < 0 {
		n = 0
	}
	return humanize.Bytes(uint64(n))
}
