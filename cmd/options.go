package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/benlowenthal/browser-raytracing/bvh"
	"github.com/benlowenthal/browser-raytracing/config"
	"github.com/benlowenthal/browser-raytracing/geometry"
	"github.com/benlowenthal/browser-raytracing/scene"
	"github.com/urfave/cli"
)

// Flags shared by all commands that build BVH trees.
var BuilderFlags = []cli.Flag{
	cli.StringFlag{
		Name:  "strategy, s",
		Usage: "split strategy (binned-sah, interval-sah or midpoint)",
	},
	cli.IntFlag{
		Name:  "bins",
		Usage: "number of centroid bins per axis for binned-sah",
	},
	cli.IntFlag{
		Name:  "intervals",
		Usage: "number of intervals per axis for interval-sah",
	},
	cli.IntFlag{
		Name:  "min-leaf",
		Usage: "nodes with this many triangles or fewer are not split",
	},
	cli.IntFlag{
		Name:  "workers, w",
		Usage: "max number of object BVHs built in parallel",
	},
	cli.BoolFlag{
		Name:  "flip-z",
		Usage: "negate the z coordinate of imported positions and normals",
	},
}

// Load the config file (if any), apply command line overrides and set up
// logging.
func setup(ctx *cli.Context) (*config.Config, error) {
	cfg := config.Default()
	if path := ctx.GlobalString("config"); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}

	if ctx.IsSet("strategy") {
		cfg.BVH.Strategy = ctx.String("strategy")
	}
	if ctx.IsSet("bins") {
		cfg.BVH.Bins = ctx.Int("bins")
	}
	if ctx.IsSet("intervals") {
		cfg.BVH.Intervals = ctx.Int("intervals")
	}
	if ctx.IsSet("min-leaf") {
		cfg.BVH.MinLeafSize = ctx.Int("min-leaf")
	}
	if ctx.IsSet("workers") {
		cfg.Compile.Workers = ctx.Int("workers")
	}
	if ctx.Bool("flip-z") {
		cfg.Compile.FlipZ = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := setupLogging(ctx, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load and merge the meshes passed as command arguments. If no arguments are
// given the built-in sample environment is used.
func loadMesh(ctx *cli.Context, cfg *config.Config) (*geometry.Mesh, error) {
	if ctx.NArg() == 0 {
		logger.Notice("no input files specified; using the sample environment")
		return geometry.SampleEnvironment(), nil
	}

	mesh := geometry.NewMesh()
	for _, path := range ctx.Args() {
		m, err := geometry.ReadMesh(path, geometry.ReadOptions{FlipZ: cfg.Compile.FlipZ})
		if err != nil {
			return nil, err
		}
		mesh.Append(m)
	}
	return mesh, nil
}

// Compile a mesh with the given builder options. Compilation stops scheduling
// new object builds if the process receives an interrupt.
func compileMesh(mesh *geometry.Mesh, cfg *config.Config, opts bvh.Options, verify bool) (*scene.Scene, error) {
	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return scene.Compile(sigCtx, mesh, scene.CompileOptions{
		Builder: opts,
		Workers: cfg.Compile.Workers,
		Verify:  verify,
	})
}
