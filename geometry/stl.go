package geometry

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/benlowenthal/browser-raytracing/log"
	"github.com/benlowenthal/browser-raytracing/types"
)

// Each binary STL facet holds a normal, three vertices and a 2 byte
// attribute count.
const stlFacetSize = 4*3*4 + 2

// Parse a binary STL stream into a mesh. Identical vertex positions are
// merged and the whole file becomes a single object named after the STL
// header (or the resource name if the header is blank).
func ReadSTL(res *Resource, opts ReadOptions) (*Mesh, error) {
	logger := log.New("stl reader")
	logger.Noticef(`parsing stl mesh from "%s"`, res.Path())
	start := time.Now()

	var header struct {
		H    [80]byte
		NTri uint32
	}
	if err := binary.Read(res, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("stl: could not read header of %s: %v", res.Path(), err)
	}

	m := NewMesh()
	m.Materials = append(m.Materials, "default")
	vertMap := make(map[types.Vec3]uint32)

	facetBuf := make([]byte, stlFacetSize)
	for i := 0; i < int(header.NTri); i++ {
		if _, err := io.ReadFull(res, facetBuf); err != nil {
			return nil, fmt.Errorf("stl: could not read facet %d of %s: %v", i, res.Path(), err)
		}

		m.Normals = append(m.Normals, readSTLVec3(facetBuf, 0, opts))
		normal := uint32(len(m.Normals) - 1)

		tri := Triangle{N: [3]uint32{normal, normal, normal}}
		for v := 0; v < 3; v++ {
			vert := readSTLVec3(facetBuf, 12*(v+1), opts)
			vertIndex, ok := vertMap[vert]
			if !ok {
				vertIndex = uint32(len(m.Vertices))
				m.Vertices = append(m.Vertices, vert)
				vertMap[vert] = vertIndex
			}
			tri.V[v] = vertIndex
		}
		m.Triangles = append(m.Triangles, tri)
	}

	if len(m.Triangles) > 0 {
		name := strings.TrimRight(strings.TrimRight(string(header.H[:]), "\x00"), " ")
		if name == "" {
			name = res.Name()
		}
		m.Objects = append(m.Objects, Object{Name: name, First: 0, Count: len(m.Triangles)})
	}

	logger.Noticef(
		"parsed %d vertices and %d triangles in %d ms",
		len(m.Vertices), len(m.Triangles), time.Since(start).Nanoseconds()/1e6,
	)
	return m, nil
}

func readSTLVec3(buf []byte, start int, opts ReadOptions) types.Vec3 {
	var v types.Vec3
	for c := range v {
		v[c] = math.Float32frombits(binary.LittleEndian.Uint32(buf[start+4*c:]))
	}
	if opts.FlipZ {
		v[2] = -v[2]
	}
	return v
}
