package geometry

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/benlowenthal/browser-raytracing/log"
	"github.com/benlowenthal/browser-raytracing/types"
)

// Options that control how geometry files are imported.
type ReadOptions struct {
	// Negate the z coordinate of all positions. This converts right-handed
	// exports into the left-handed space used by the renderer. Explicit "vn"
	// normals are mirrored too so they keep facing the same way as the
	// mirrored surface; STL facet normals are handled the same way.
	FlipZ bool
}

type wavefrontReader struct {
	logger log.Logger
	opts   ReadOptions

	// The mesh being assembled.
	mesh *Mesh

	// A map of material names to their index in the mesh material list.
	matNameToIndex map[string]uint32

	// Currently selected material or -1 if no material has been selected.
	curMaterial int

	// Index of the object receiving faces or -1 if no object is open.
	curObject int
}

func newWavefrontReader(opts ReadOptions) *wavefrontReader {
	return &wavefrontReader{
		logger:         log.New("wavefront reader"),
		opts:           opts,
		mesh:           NewMesh(),
		matNameToIndex: make(map[string]uint32, 0),
		curMaterial:    -1,
		curObject:      -1,
	}
}

// Parse a wavefront obj stream into a mesh. Faces declared before any "o" or
// "g" statement end up in an object named "default". Material libraries are
// not loaded; "usemtl" only records material names.
func ReadWavefront(res *Resource, opts ReadOptions) (*Mesh, error) {
	r := newWavefrontReader(opts)
	r.logger.Noticef(`parsing wavefront object from "%s"`, res.Path())
	start := time.Now()

	if err := r.parse(res); err != nil {
		return nil, err
	}

	r.logger.Noticef(
		"parsed %d vertices and %d triangles in %d objects in %d ms",
		len(r.mesh.Vertices), len(r.mesh.Triangles), len(r.mesh.Objects),
		time.Since(start).Nanoseconds()/1e6,
	)
	return r.mesh, nil
}

func (r *wavefrontReader) parse(res *Resource) error {
	var lineNum int = 0

	scanner := bufio.NewScanner(res)
	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 || strings.HasPrefix(lineTokens[0], "#") {
			continue
		}

		switch lineTokens[0] {
		case "mtllib":
			r.logger.Infof("[%s: %d] skipping material library %v", res.Path(), lineNum, lineTokens[1:])
		case "usemtl":
			if len(lineTokens) != 2 {
				return emitError(res.Path(), lineNum, `unsupported syntax for "usemtl"; expected 1 argument; got %d`, len(lineTokens)-1)
			}
			r.selectMaterial(lineTokens[1])
		case "v", "vn":
			v, err := parseVec3(lineTokens)
			if err != nil {
				return emitError(res.Path(), lineNum, "%s", err.Error())
			}
			if r.opts.FlipZ {
				v[2] = -v[2]
			}

			if lineTokens[0] == "v" {
				r.mesh.Vertices = append(r.mesh.Vertices, v)
			} else {
				r.mesh.Normals = append(r.mesh.Normals, v)
			}
		case "vt":
			v, err := parseVec2(lineTokens)
			if err != nil {
				return emitError(res.Path(), lineNum, "%s", err.Error())
			}
			r.mesh.UVs = append(r.mesh.UVs, v)
		case "g", "o":
			if len(lineTokens) < 2 {
				return emitError(res.Path(), lineNum, `unsupported syntax for "%s"; expected 1 argument for object name; got %d`, lineTokens[0], len(lineTokens)-1)
			}
			r.openObject(lineTokens[1])
		case "f":
			triList, err := r.parseFace(lineTokens)
			if err != nil {
				return emitError(res.Path(), lineNum, "%s", err.Error())
			}

			if r.curObject == -1 {
				r.openObject("default")
			}
			r.mesh.Triangles = append(r.mesh.Triangles, triList...)
			r.mesh.Objects[r.curObject].Count += len(triList)
		}
	}

	if err := scanner.Err(); err != nil {
		return emitError(res.Path(), lineNum, "%s", err.Error())
	}

	r.closeObject()
	return nil
}

// Start a new object. The previously open object is dropped if it received
// no faces.
func (r *wavefrontReader) openObject(name string) {
	r.closeObject()
	r.mesh.Objects = append(r.mesh.Objects, Object{
		Name:  name,
		First: len(r.mesh.Triangles),
	})
	r.curObject = len(r.mesh.Objects) - 1
}

func (r *wavefrontReader) closeObject() {
	if r.curObject == -1 {
		return
	}

	if r.mesh.Objects[r.curObject].Count == 0 {
		r.logger.Warningf(`dropping object "%s" as it contains no polygons`, r.mesh.Objects[r.curObject].Name)
		r.mesh.Objects = r.mesh.Objects[:r.curObject]
	}
	r.curObject = -1
}

// Select a material by name, registering it on first use.
func (r *wavefrontReader) selectMaterial(name string) uint32 {
	matIndex, exists := r.matNameToIndex[name]
	if !exists {
		r.mesh.Materials = append(r.mesh.Materials, name)
		matIndex = uint32(len(r.mesh.Materials) - 1)
		r.matNameToIndex[name] = matIndex
	}
	r.curMaterial = int(matIndex)
	return matIndex
}

// Parse face definition. Each face definition consists of 3 or 4 arguments,
// one for each vertex. Each vertex argument is comprised of 1, 2 or 3 indices
// separated by a slash character:
// - vertexIndex
// - vertexIndex/uvIndex
// - vertexIndex//normalIndex
// - vertexIndex/uvIndex/normalIndex
//
// Indices start from 1 and may be negative to indicate an offset off the end
// of the vertex/uv/normal list. Quads are split into the triangles (0, 1, 2)
// and (0, 2, 3).
func (r *wavefrontReader) parseFace(lineTokens []string) ([]Triangle, error) {
	if len(lineTokens) < 4 || len(lineTokens) > 5 {
		return nil, fmt.Errorf(`unsupported syntax for "f"; expected 3 arguments for triangular face or 4 arguments for a quad face; got %d. Select the triangulation option in your exporter`, len(lineTokens)-1)
	}

	var vertices, uvs, normals [4]uint32
	var err error
	expIndices := 0
	hasNormals := false
	for arg := 0; arg < len(lineTokens)-1; arg++ {
		vTokens := strings.Split(lineTokens[arg+1], "/")

		// The first arg defines the format for the following args
		if arg == 0 {
			expIndices = len(vTokens)
		} else if len(vTokens) != expIndices {
			return nil, fmt.Errorf("expected each face argument to contain %d indices; arg %d contains %d indices", expIndices, arg, len(vTokens))
		}

		if vTokens[0] == "" {
			return nil, fmt.Errorf("face argument %d does not include a vertex index", arg)
		}

		vertices[arg], err = selectFaceCoordIndex(vTokens[0], len(r.mesh.Vertices))
		if err != nil {
			return nil, fmt.Errorf("could not parse vertex coord for face argument %d: %s", arg, err.Error())
		}

		if expIndices > 1 && vTokens[1] != "" {
			uvs[arg], err = selectFaceCoordIndex(vTokens[1], len(r.mesh.UVs))
			if err != nil {
				return nil, fmt.Errorf("could not parse tex coord for face argument %d: %s", arg, err.Error())
			}
		}

		if expIndices > 2 && vTokens[2] != "" {
			normals[arg], err = selectFaceCoordIndex(vTokens[2], len(r.mesh.Normals))
			if err != nil {
				return nil, fmt.Errorf("could not parse normal coord for face argument %d: %s", arg, err.Error())
			}
			hasNormals = true
		}
	}

	// If no normals are available generate a face normal from the vertices
	if !hasNormals {
		v0 := r.mesh.Vertices[vertices[0]]
		e01 := r.mesh.Vertices[vertices[1]].Sub(v0)
		e02 := r.mesh.Vertices[vertices[2]].Sub(v0)
		r.mesh.Normals = append(r.mesh.Normals, e01.Cross(e02).Normalize())
		faceNormal := uint32(len(r.mesh.Normals) - 1)
		normals = [4]uint32{faceNormal, faceNormal, faceNormal, faceNormal}
	}

	if r.curMaterial == -1 {
		r.selectMaterial("default")
	}

	indiceList := [][3]int{{0, 1, 2}}
	if len(lineTokens) == 5 {
		indiceList = append(indiceList, [3]int{0, 2, 3})
	}

	triangles := make([]Triangle, 0, len(indiceList))
	for _, indices := range indiceList {
		tri := Triangle{Material: uint32(r.curMaterial)}
		for triIndex, selectIndex := range indices {
			tri.V[triIndex] = vertices[selectIndex]
			tri.T[triIndex] = uvs[selectIndex]
			tri.N[triIndex] = normals[selectIndex]
		}
		triangles = append(triangles, tri)
	}

	return triangles, nil
}

// Generate an error message annotated with the file and line that caused it.
func emitError(file string, line int, msgFormat string, args ...interface{}) error {
	msg := fmt.Sprintf(msgFormat, args...)
	if file == "" {
		return fmt.Errorf("error: %s", msg)
	}
	return fmt.Errorf("[%s: %d] error: %s", file, line, msg)
}

// Given an index for a face coord type (vertex, normal, tex) calculate the
// proper offset into the coord list. Wavefront format can also use negative
// indices to reference elements from the end of the coord list.
func selectFaceCoordIndex(indexToken string, coordListLen int) (uint32, error) {
	index, err := strconv.ParseInt(indexToken, 10, 32)
	if err != nil {
		return 0, err
	}

	var vOffset int
	if index < 0 {
		vOffset = coordListLen + int(index)
	} else {
		vOffset = int(index - 1)
	}
	if vOffset < 0 || vOffset >= coordListLen {
		return 0, fmt.Errorf("index out of bounds")
	}
	return uint32(vOffset), nil
}

// Parse a Vec3 row.
func parseVec3(lineTokens []string) (types.Vec3, error) {
	if len(lineTokens) < 4 {
		return types.Vec3{}, fmt.Errorf(`unsupported syntax for "%s"; expected 3 arguments; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	v := types.Vec3{}
	for tokIdx := 1; tokIdx <= 3; tokIdx++ {
		coord, err := strconv.ParseFloat(lineTokens[tokIdx], 32)
		if err != nil {
			return v, err
		}
		v[tokIdx-1] = float32(coord)
	}
	return v, nil
}

// Parse a Vec2 row.
func parseVec2(lineTokens []string) (types.Vec2, error) {
	if len(lineTokens) < 3 {
		return types.Vec2{}, fmt.Errorf(`unsupported syntax for "%s"; expected 2 arguments; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	v := types.Vec2{}
	for tokIdx := 1; tokIdx <= 2; tokIdx++ {
		coord, err := strconv.ParseFloat(lineTokens[tokIdx], 32)
		if err != nil {
			return v, err
		}
		v[tokIdx-1] = float32(coord)
	}
	return v, nil
}
