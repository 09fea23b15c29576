package cmd

import (
	"github.com/urfave/cli"
)

// Build the BVH trees for a set of mesh files and display scene info.
func BuildScene(ctx *cli.Context) error {
	cfg, err := setup(ctx)
	if err != nil {
		return err
	}

	mesh, err := loadMesh(ctx, cfg)
	if err != nil {
		return err
	}

	opts := cfg.BuilderOptions()
	logger.Noticef("building BVH trees using the %s strategy", opts.Strategy)
	sc, err := compileMesh(mesh, cfg, opts, ctx.Bool("verify"))
	if err != nil {
		return err
	}

	logger.Noticef("scene information:\n%s", sc.Stats())
	logger.Noticef("instance information:\n%s", sc.InstanceStats())
	if ctx.Bool("verify") {
		logger.Notice("all BVH trees passed validation")
	}
	return nil
}
