package geometry

import (
	"fmt"
	"strings"
)

// Read a mesh from a local file or http(s) URL. The format is selected by the
// file extension (.obj or .stl).
func ReadMesh(path string, opts ReadOptions) (*Mesh, error) {
	lowerPath := strings.ToLower(path)

	var read func(*Resource, ReadOptions) (*Mesh, error)
	switch {
	case strings.HasSuffix(lowerPath, ".obj"):
		read = ReadWavefront
	case strings.HasSuffix(lowerPath, ".stl"):
		read = ReadSTL
	default:
		return nil, fmt.Errorf("readMesh: unsupported file format for %q", path)
	}

	res, err := OpenResource(path)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	return read(res, opts)
}
