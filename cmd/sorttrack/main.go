// Package main is the sorttrack command: it replays recorded detections through the SORT tracker
// and prints tracks in MOTChallenge format.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

const (
	// Flags.
	flagInput         = "input"
	flagFormat        = "format"
	flagOutput        = "output"
	flagConfig        = "config"
	flagIoUThreshold  = "iou-threshold"
	flagMaxAge        = "max-age"
	flagMinHits       = "min-hits"
	flagMinConfidence = "min-confidence"
	flagMotionModel   = "motion-model"
	flagSolver        = "solver"
	flagDebug         = "debug"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "sorttrack: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	var logger *zap.Logger

	return &cli.App{
		Name:  "sorttrack",
		Usage: "track objects across frames of recorded detections",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			var err error
			if c.Bool(flagDebug) {
				logger, err = zap.NewDevelopment()
			} else {
				logger, err = zap.NewProduction()
			}
			return err
		},
		After: func(c *cli.Context) error {
			if logger != nil {
				// Sync fails on terminals, nothing to do about it
				_ = logger.Sync()
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "run",
				Usage:     "replay detections file through the tracker",
				UsageText: "sorttrack run --input det.txt [options]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     flagInput,
						Aliases:  []string{"i"},
						Required: true,
						Usage:    "detections `FILE` ('-' for stdin)",
					},
					&cli.StringFlag{
						Name:  flagFormat,
						Value: "csv",
						Usage: "detections format: csv (MOTChallenge det.txt) or jsonl (center-based predictions)",
					},
					&cli.StringFlag{
						Name:    flagOutput,
						Aliases: []string{"o"},
						Value:   "-",
						Usage:   "tracks output `FILE` ('-' for stdout)",
					},
					&cli.StringFlag{
						Name:    flagConfig,
						Aliases: []string{"c"},
						Usage:   "load tracker configuration from `FILE` (.yaml, .yml or .json)",
					},
					&cli.Float64Flag{
						Name:  flagIoUThreshold,
						Usage: "minimum IoU for a valid match (overrides config)",
					},
					&cli.IntFlag{
						Name:  flagMaxAge,
						Usage: "frames a track may go unmatched before deletion (overrides config)",
					},
					&cli.IntFlag{
						Name:  flagMinHits,
						Usage: "consecutive matches before a track is reported (overrides config)",
					},
					&cli.Float64Flag{
						Name:  flagMinConfidence,
						Usage: "skip detections below this confidence (overrides config)",
					},
					&cli.StringFlag{
						Name:  flagMotionModel,
						Usage: "motion model: sort or bbox (overrides config)",
					},
					&cli.StringFlag{
						Name:  flagSolver,
						Usage: "assignment solver: jv or munkres (overrides config)",
					},
				},
				Action: func(c *cli.Context) error {
					return runAction(c, logger)
				},
			},
		},
	}
}
