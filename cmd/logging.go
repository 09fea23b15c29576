package cmd

import (
	"github.com/benlowenthal/browser-raytracing/config"
	"github.com/benlowenthal/browser-raytracing/log"
	"github.com/urfave/cli"
)

var logger = log.New("rtbvh")

// Apply the logging settings from the config. The -v and -vv flags override
// the configured level.
func setupLogging(ctx *cli.Context, cfg *config.Config) error {
	level, err := log.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return err
	}

	log.SetLogFile(cfg.LogFileConfig())
	log.SetLevel(level)

	if ctx.GlobalBool("v") {
		log.SetLevel(log.Info)
	}

	if ctx.GlobalBool("vv") {
		log.SetLevel(log.Debug)
	}

	return nil
}
