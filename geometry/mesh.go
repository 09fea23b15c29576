// Package geometry holds the triangle soup consumed by the BVH builder and the
// loaders that produce it.
package geometry

import (
	"github.com/benlowenthal/browser-raytracing/types"
)

// A triangle references three entries of the owning mesh's vertex list. The
// normal, uv and material indices are carried along for the consuming
// renderer; the BVH builder only looks at V.
type Triangle struct {
	V [3]uint32
	N [3]uint32
	T [3]uint32

	Material uint32
}

// An object is a named, contiguous run of mesh triangles. Each object gets
// its own BVH when the mesh is compiled into a scene.
type Object struct {
	Name string

	// Index of the first triangle and number of triangles.
	First int
	Count int
}

// A mesh is an indexed triangle list with shared vertex, normal and uv lists.
type Mesh struct {
	Vertices  []types.Vec3
	Normals   []types.Vec3
	UVs       []types.Vec2
	Triangles []Triangle

	// Material names; triangles reference them by index.
	Materials []string

	Objects []Object
}

// Create an empty mesh.
func NewMesh() *Mesh {
	return &Mesh{
		Vertices:  make([]types.Vec3, 0),
		Normals:   make([]types.Vec3, 0),
		UVs:       make([]types.Vec2, 0),
		Triangles: make([]Triangle, 0),
		Materials: make([]string, 0),
		Objects:   make([]Object, 0),
	}
}

// Get the triangles that belong to an object.
func (m *Mesh) ObjectTriangles(obj Object) []Triangle {
	return m.Triangles[obj.First : obj.First+obj.Count]
}

// Get the positions of a triangle's vertices.
func (m *Mesh) TriangleVertices(tri Triangle) [3]types.Vec3 {
	return [3]types.Vec3{m.Vertices[tri.V[0]], m.Vertices[tri.V[1]], m.Vertices[tri.V[2]]}
}

// Get the mesh bounding box. An empty mesh yields inverted bounds.
func (m *Mesh) BBox() [2]types.Vec3 {
	min, max := types.EmptyBounds()
	for _, tri := range m.Triangles {
		for _, v := range m.TriangleVertices(tri) {
			min = types.MinVec3(min, v)
			max = types.MaxVec3(max, v)
		}
	}
	return [2]types.Vec3{min, max}
}

// Append the contents of another mesh. All indices of the appended triangles
// and objects are shifted so they keep pointing at their own data.
func (m *Mesh) Append(other *Mesh) {
	vOffset := uint32(len(m.Vertices))
	nOffset := uint32(len(m.Normals))
	tOffset := uint32(len(m.UVs))
	mOffset := uint32(len(m.Materials))
	triOffset := len(m.Triangles)

	m.Vertices = append(m.Vertices, other.Vertices...)
	m.Normals = append(m.Normals, other.Normals...)
	m.UVs = append(m.UVs, other.UVs...)
	m.Materials = append(m.Materials, other.Materials...)

	for _, tri := range other.Triangles {
		for i := 0; i < 3; i++ {
			tri.V[i] += vOffset
			tri.N[i] += nOffset
			tri.T[i] += tOffset
		}
		tri.Material += mOffset
		m.Triangles = append(m.Triangles, tri)
	}

	for _, obj := range other.Objects {
		obj.First += triOffset
		m.Objects = append(m.Objects, obj)
	}
}

// Build the sample environment: a flat 40x40 grid on the y=0 plane made of
// 3x3 vertices and 8 triangles, exposed as a single "environment" object.
func SampleEnvironment() *Mesh {
	m := NewMesh()
	for _, x := range []float32{-20, 0, 20} {
		for _, z := range []float32{-20, 0, 20} {
			m.Vertices = append(m.Vertices, types.XYZ(x, 0, z))
		}
	}
	m.Normals = append(m.Normals, types.XYZ(0, 1, 0))
	m.UVs = append(m.UVs, types.XY(0.01, 0.01))
	m.Materials = append(m.Materials, "default")

	for _, v := range [][3]uint32{
		{0, 1, 3}, {1, 4, 3}, {1, 2, 4}, {2, 5, 4},
		{3, 4, 6}, {4, 7, 6}, {4, 5, 7}, {5, 8, 7},
	} {
		m.Triangles = append(m.Triangles, Triangle{V: v})
	}

	m.Objects = append(m.Objects, Object{Name: "environment", First: 0, Count: len(m.Triangles)})
	return m
}
