package scene

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/benlowenthal/browser-raytracing/bvh"
	"github.com/benlowenthal/browser-raytracing/geometry"
	"github.com/benlowenthal/browser-raytracing/log"
	"golang.org/x/sync/errgroup"
)

// Options for compiling a mesh into a scene.
type CompileOptions struct {
	// Options passed to the BVH builder for each object.
	Builder bvh.Options

	// Maximum number of object BVHs built in parallel. Values < 1 select
	// the number of available CPUs.
	Workers int

	// Check the structural invariants of each built BVH.
	Verify bool
}

// Compile a mesh into a scene. A BVH is built for each mesh object and all
// trees are registered in object order. Meshes without objects are treated
// as a single object spanning all triangles.
//
// Object BVHs are built in parallel. Cancelling ctx prevents pending builds
// from starting; builds already in progress run to completion.
func Compile(ctx context.Context, mesh *geometry.Mesh, opts CompileOptions) (*Scene, error) {
	logger := log.New("scene compiler")

	objects := mesh.Objects
	if len(objects) == 0 && len(mesh.Triangles) != 0 {
		objects = []geometry.Object{{Name: "mesh", First: 0, Count: len(mesh.Triangles)}}
	}

	workers := opts.Workers
	if workers < 1 {
		workers = runtime.NumCPU()
	}

	start := time.Now()
	logger.Noticef("partitioning geometry (%d objects, %d triangles, %d workers)", len(objects), len(mesh.Triangles), workers)

	trees := make([]*bvh.Tree, len(objects))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for index, obj := range objects {
		index, obj := index, obj
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			logger.Infof(`building BVH tree for "%s" (%d triangles)`, obj.Name, obj.Count)
			tree := bvh.Build(mesh.Vertices, mesh.ObjectTriangles(obj), opts.Builder)
			if opts.Verify {
				if err := tree.Validate(); err != nil {
					return fmt.Errorf(`scene: BVH for object "%s" is invalid: %v`, obj.Name, err)
				}
			}
			trees[index] = tree
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sc := New(mesh)
	for index, obj := range objects {
		sc.Register(obj.Name, obj.First, trees[index])
	}

	logger.Noticef("compiled %d instances with %d BVH nodes in %d ms", len(sc.Instances), len(sc.Nodes), time.Since(start).Nanoseconds()/1e6)
	return sc, nil
}
