package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/kdimtricp/camlens/internal/analysis"
	"github.com/kdimtricp/camlens/internal/app"
	"github.com/kdimtricp/camlens/internal/config"
	"github.com/kdimtricp/camlens/internal/logging"

	cli "github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:  "analyze-video",
		Usage: "Grab one frame from a catalog video and describe it with the vision model",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "video",
				Aliases: []string{"v"},
				Usage:   "Catalog video filename",
				Value:   analysis.DefaultVideo,
			},
			&cli.Float64Flag{
				Name:    "time",
				Aliases: []string{"t"},
				Usage:   "Offset into the video in seconds",
				Value:   analysis.DefaultTimeOffset,
			},
			&cli.StringFlag{
				Name:    "prompt",
				Aliases: []string{"p"},
				Usage:   "Prompt override; the stored prompt is used when empty",
			},
			&cli.StringFlag{
				Name:  "device",
				Usage: "Device id the record is filed under",
				Value: "default",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Optional .env file",
				Value: ".env",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Float64("time") < 0 {
				return cli.Exit("time must not be negative", 2)
			}

			cfg, err := config.Load(cmd.String("env-file"))
			if err != nil {
				return cli.Exit(err.Error(), 2)
			}
			logger := logging.New(cfg.LogLevel, cfg.LogFormat)

			rt, err := app.Build(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer rt.Close()

			out, err := rt.Analysis.AnalyzeStoredVideo(ctx, analysis.VideoRequest{
				VideoFilename: cmd.String("video"),
				TimeOffset:    cmd.Float64("time"),
				Prompt:        cmd.String("prompt"),
				DeviceID:      cmd.String("device"),
			})
			if err != nil {
				return err
			}

			fmt.Printf("Frame:    %s\n", rt.Storage.FramePath(out.Record.FramePath))
			if out.Persisted {
				fmt.Printf("Record:   #%d (%s)\n", out.Record.ID, out.Record.DeviceID)
				fmt.Printf("Sidecar:  %s\n", out.AnalysisPath)
			} else {
				fmt.Printf("Warning:  result not stored: %v\n", out.PersistErr)
			}
			fmt.Printf("\n%s\n", out.Record.Result)
			return nil
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
