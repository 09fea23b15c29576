package cmd

import (
	"github.com/urfave/cli"
)

// Create the rtbvh cli application.
func NewApp() *cli.App {
	// The default version flag shorthand clashes with -v
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "rtbvh"
	app.Usage = "build BVH trees for the browser ray-tracer"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
		cli.StringFlag{
			Name:  "config, c",
			Usage: "load settings from a TOML config file",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "build",
			Usage: "build BVH trees for a set of mesh files",
			Description: `
Parse meshes from wavefront obj or binary stl files (local paths or http/https
URLs), build a BVH tree for each object and print statistics about the
GPU buffers that the tracer consumes.

If no files are specified the built-in sample environment is used.`,
			ArgsUsage: "mesh_file1.obj mesh_file2.stl ...",
			Flags: append([]cli.Flag{
				cli.BoolFlag{
					Name:  "verify",
					Usage: "check the structural invariants of every BVH tree",
				},
			}, BuilderFlags...),
			Action: BuildScene,
		},
		{
			Name:      "inspect",
			Usage:     "display the BVH nodes of each object in a mesh file",
			ArgsUsage: "mesh_file",
			Flags: append([]cli.Flag{
				cli.IntFlag{
					Name:  "depth, d",
					Value: 4,
					Usage: "max node depth to display; use a negative value to display all nodes",
				},
			}, BuilderFlags...),
			Action: InspectScene,
		},
		{
			Name:      "compare",
			Usage:     "compare the BVH trees generated by each split strategy",
			ArgsUsage: "mesh_file1.obj mesh_file2.stl ...",
			Flags:     BuilderFlags,
			Action:    CompareStrategies,
		},
	}
	return app
}
