package main

import (
	"fmt"
	"os"

	"github.com/benlowenthal/browser-raytracing/cmd"
)

func main() {
	if err := cmd.NewApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "rtbvh: %v\n", err)
		os.Exit(1)
	}
}
