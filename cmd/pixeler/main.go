package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"pixeler/pkg/config"
)

var version = "v0.1.0"

var logger = zap.NewNop()

func newApp(cfg *config.Config) *cli.App {
	return &cli.App{
		Name:                   "pixeler",
		Usage:                  "turn images into pixel art with an optional fixed palette",
		Version:                version,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "workdir",
				Usage: "base dir for numbered palettes and images",
				Value: cfg.WorkDir,
			},
			&cli.StringFlag{
				Name:  "palette-dir",
				Value: cfg.PaletteDir,
			},
			&cli.StringFlag{
				Name:  "image-dir",
				Value: cfg.ImageDir,
			},
			&cli.BoolFlag{
				Name: "debug",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "process",
				Usage:     "downsample, quantize and re-expand an image",
				ArgsUsage: "<file or url>",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "size",
						Aliases: []string{"s"},
						Value:   cfg.PixelSizeDefault,
					},
					&cli.StringFlag{
						Name:    "palette",
						Aliases: []string{"p"},
						Usage:   "palette JSON file or space separated colors",
					},
					&cli.StringFlag{
						Name:    "out",
						Aliases: []string{"o"},
						Usage:   "output PNG, next img/imgN.png when empty",
					},
					&cli.BoolFlag{
						Name:  "preview",
						Usage: "fit the result into the display bounds",
					},
					&cli.IntFlag{
						Name:  "display-width",
						Value: cfg.DisplayWidth,
					},
					&cli.IntFlag{
						Name:  "display-height",
						Value: cfg.DisplayHeight,
					},
					&cli.StringFlag{
						Name:  "remote",
						Usage: "process on a pixeld at this addr",
					},
				},
				UseShortOptionHandling: true,
				Action:                 process,
			},
			{
				Name:  "palette",
				Usage: "edit palette files",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "file",
						Aliases: []string{"f"},
						Value:   cfg.DefaultPalette,
					},
				},
				Subcommands: []*cli.Command{
					{
						Name:   "show",
						Action: paletteShow,
					},
					{
						Name:      "add",
						ArgsUsage: "<color>...",
						Action:    paletteAdd,
					},
					{
						Name:      "remove",
						ArgsUsage: "<color|#n>...",
						Action:    paletteRemove,
					},
					{
						Name:   "clear",
						Action: paletteClear,
					},
					{
						Name:      "extract",
						Usage:     "derive a palette from an image",
						ArgsUsage: "<file or url>",
						Flags: []cli.Flag{
							&cli.IntFlag{
								Name:    "colors",
								Aliases: []string{"k"},
								Value:   8,
							},
							&cli.StringFlag{
								Name:    "method",
								Aliases: []string{"m"},
								Value:   "kmeans",
							},
							&cli.BoolFlag{
								Name:  "save",
								Usage: "write palette/paletteN.json instead of --file",
							},
						},
						Action: paletteExtract,
					},
				},
			},
			{
				Name:      "next",
				Usage:     "print the next numbered file name",
				ArgsUsage: "palette|image",
				Action:    next,
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("debug") {
				l, err := zap.NewDevelopment()
				if err != nil {
					return err
				}
				logger = l
			}
			return nil
		},
		Action: func(c *cli.Context) error {
			return errors.New("no command specified")
		},
	}
}

func main() {
	if err := newApp(config.Default()).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
