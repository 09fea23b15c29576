package scene

import (
	"encoding/binary"
	"math"

	"github.com/benlowenthal/browser-raytracing/types"
)

// Byte sizes of the packed GPU records.
const (
	NodeStride     = 32
	InstanceStride = 32
	TriangleStride = 40
)

// Pack the node list into a little-endian buffer. Each node takes 32 bytes:
//
//	min.xyz (f32) | offset (u32) | max.xyz (f32) | triCount (u32)
func (sc *Scene) PackNodes() []byte {
	buf := make([]byte, NodeStride*len(sc.Nodes))
	for index, node := range sc.Nodes {
		out := buf[index*NodeStride:]
		putVec3(out[0:], node.Min)
		binary.LittleEndian.PutUint32(out[12:], node.Offset)
		putVec3(out[16:], node.Max)
		binary.LittleEndian.PutUint32(out[28:], node.TriCount)
	}
	return buf
}

// Pack the instance list into a little-endian buffer. Each instance takes
// 32 bytes:
//
//	min.xyz (f32) | nodeOffset (u32) | max.xyz (f32) | nodeCount (u32)
func (sc *Scene) PackInstances() []byte {
	buf := make([]byte, InstanceStride*len(sc.Instances))
	for index, in := range sc.Instances {
		out := buf[index*InstanceStride:]
		putVec3(out[0:], in.Min)
		binary.LittleEndian.PutUint32(out[12:], in.NodeOffset)
		putVec3(out[16:], in.Max)
		binary.LittleEndian.PutUint32(out[28:], in.NodeCount)
	}
	return buf
}

// Pack the mesh triangles in triangle index list order so leaf ranges can
// address them directly. Each triangle takes 40 bytes:
//
//	v0 v1 v2 | n0 n1 n2 | t0 t1 t2 | material (u32)
func (sc *Scene) PackTriangles() []byte {
	buf := make([]byte, TriangleStride*len(sc.TriIdx))
	for index, triIndex := range sc.TriIdx {
		tri := sc.Mesh.Triangles[triIndex]
		out := buf[index*TriangleStride:]
		for i := 0; i < 3; i++ {
			binary.LittleEndian.PutUint32(out[4*i:], tri.V[i])
			binary.LittleEndian.PutUint32(out[12+4*i:], tri.N[i])
			binary.LittleEndian.PutUint32(out[24+4*i:], tri.T[i])
		}
		binary.LittleEndian.PutUint32(out[36:], tri.Material)
	}
	return buf
}

func putVec3(out []byte, v types.Vec3) {
	for c := 0; c < 3; c++ {
		binary.LittleEndian.PutUint32(out[4*c:], math.Float32bits(v[c]))
	}
}
