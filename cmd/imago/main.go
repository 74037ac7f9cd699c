package main

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/bodgit/imago"
	"github.com/bodgit/imago/batch"
	"github.com/bodgit/imago/catalog"
	"github.com/bodgit/imago/formats"
	"github.com/bodgit/imago/quant"
	"github.com/bodgit/imago/tga"
	"github.com/urfave/cli/v2"
)

const defaultDB = "imago.db"

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func newLogger(c *cli.Context) *log.Logger {
	logger := log.New(ioutil.Discard, "", 0)
	if c.Bool("verbose") {
		logger.SetOutput(os.Stderr)
	}
	return logger
}

func requireArgs(c *cli.Context, n int) {
	if c.NArg() < n {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}
}

// transform loads the first argument, applies fn and saves the result as the
// second argument
func transform(c *cli.Context, fn func(*imago.Pixmap) error) error {
	requireArgs(c, 2)

	r := formats.NewRegistry(newLogger(c))

	p := imago.New(imago.RGB24)
	if err := r.Load(p, c.Args().Get(0)); err != nil {
		return cli.NewExitError(err, 1)
	}

	if err := fn(p); err != nil {
		return cli.NewExitError(err, 1)
	}

	if err := r.Save(p, c.Args().Get(1)); err != nil {
		return cli.NewExitError(err, 1)
	}

	return nil
}

func quantOptions(c *cli.Context, logger *log.Logger) (quant.Options, error) {
	method, err := quant.ParseMethod(c.String("method"))
	if err != nil {
		return quant.Options{}, err
	}
	dither, err := quant.ParseDither(c.String("dither"))
	if err != nil {
		return quant.Options{}, err
	}
	return quant.Options{
		Method: method,
		Dither: dither,
		Logger: logger,
	}, nil
}

func info(r *imago.Registry, file string, w *tabwriter.Writer) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	codec, err := r.FindByContent(f)
	if err != nil {
		return err
	}

	extra := ""
	if codec.Name() == "tga" {
		cfg, err := tga.DecodeConfig(f)
		if err != nil {
			return err
		}
		if cfg.RLE {
			extra = "rle"
		}
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return err
		}
	}

	p := imago.New(imago.RGB24)
	if err := codec.Decode(p, f); err != nil {
		return err
	}

	colors := "-"
	if pal := p.Palette(); pal != nil {
		colors = fmt.Sprint(pal.Len)
	}

	fmt.Fprintf(w, "%s\t%s\t%dx%d\t%s\t%s\t%s\n", file, codec.Name(), p.Width(), p.Height(), p.Format(), colors, extra)

	return nil
}

func main() {
	app := cli.NewApp()

	app.Name = "imago"
	app.Usage = "Image conversion and quantization utility"
	app.Version = "1.0.0"

	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			EnvVars: []string{"IMAGO_DB"},
			Value:   filepath.Join(cwd, defaultDB),
			Usage:   "path to catalog database",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	quantFlags := []cli.Flag{
		&cli.StringFlag{
			Name:  "method",
			Value: quant.Octree.String(),
			Usage: "palette method, octree or median-cut",
		},
		&cli.StringFlag{
			Name:  "dither",
			Value: quant.None.String(),
			Usage: "dithering, none or floyd-steinberg",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:      "info",
			Usage:     "Show the format and dimensions of images",
			ArgsUsage: "FILE...",
			Action: func(c *cli.Context) error {
				requireArgs(c, 1)

				r := formats.NewRegistry(newLogger(c))

				w := tabwriter.NewWriter(os.Stdout, 0, 8, 1, ' ', 0)
				for _, file := range c.Args().Slice() {
					if err := info(r, file, w); err != nil {
						return cli.NewExitError(fmt.Sprintf("%s: %v", file, err), 1)
					}
				}

				return w.Flush()
			},
		},
		{
			Name:        "convert",
			Usage:       "Convert an image to another file and pixel format",
			Description: "The output file format is chosen by the suffix of OUTPUT.",
			ArgsUsage:   "INPUT OUTPUT",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Usage:   "pixel format, for example rgb24 or grey8",
				},
			},
			Action: func(c *cli.Context) error {
				return transform(c, func(p *imago.Pixmap) error {
					if c.String("format") == "" {
						return nil
					}
					f, err := imago.ParseFormat(c.String("format"))
					if err != nil {
						return err
					}
					return p.Convert(f)
				})
			},
		},
		{
			Name:      "quantize",
			Usage:     "Reduce an image to an indexed palette",
			ArgsUsage: "INPUT OUTPUT",
			Flags: append([]cli.Flag{
				&cli.IntFlag{
					Name:    "colors",
					Aliases: []string{"c"},
					Value:   quant.MaxColors,
					Usage:   "maximum number of colors",
				},
			}, quantFlags...),
			Action: func(c *cli.Context) error {
				opts, err := quantOptions(c, newLogger(c))
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				return transform(c, func(p *imago.Pixmap) error {
					return quant.QuantizeWithOptions(p, c.Int("colors"), opts)
				})
			},
		},
		{
			Name:      "flip",
			Usage:     "Mirror an image",
			ArgsUsage: "INPUT OUTPUT",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "vertical",
					Usage: "reverse the order of the scanlines",
				},
				&cli.BoolFlag{
					Name:  "horizontal",
					Usage: "reverse the order of the pixels in each scanline",
				},
			},
			Action: func(c *cli.Context) error {
				return transform(c, func(p *imago.Pixmap) error {
					if c.Bool("vertical") {
						p.VFlip()
					}
					if c.Bool("horizontal") {
						p.HFlip()
					}
					return nil
				})
			},
		},
		{
			Name:        "batch",
			Usage:       "Convert every image below a directory",
			Description: "Each recognized image is written next to the original with SUFFIX replacing its extension.",
			ArgsUsage:   "DIRECTORY",
			Flags: append([]cli.Flag{
				&cli.StringFlag{
					Name:  "suffix",
					Value: batch.DefaultSuffix,
					Usage: "output `SUFFIX`",
				},
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Usage:   "pixel format to convert to",
				},
				&cli.IntFlag{
					Name:    "colors",
					Aliases: []string{"c"},
					Usage:   "quantize to at most this many colors",
				},
				&cli.IntFlag{
					Name:  "workers",
					Value: batch.DefaultWorkers,
					Usage: "number of concurrent conversions",
				},
			}, quantFlags...),
			Action: func(c *cli.Context) error {
				requireArgs(c, 1)

				logger := newLogger(c)

				opts, err := quantOptions(c, logger)
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				result, err := batch.New(formats.NewRegistry(logger), logger).Run(context.Background(), c.Args().First(), batch.Options{
					Suffix:  c.String("suffix"),
					Format:  c.String("format"),
					Colors:  c.Int("colors"),
					Method:  opts.Method,
					Dither:  opts.Dither,
					Workers: c.Int("workers"),
				})
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				logger.Printf("Converted %d files, skipped %d\n", result.Converted, result.Skipped)

				return nil
			},
		},
		{
			Name:      "import",
			Usage:     "Store images in the catalog",
			ArgsUsage: "FILE...",
			Action: func(c *cli.Context) error {
				requireArgs(c, 1)

				logger := newLogger(c)

				db, err := catalog.Open(c.String("db"), formats.NewRegistry(logger), logger)
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer db.Close()

				for _, file := range c.Args().Slice() {
					name, err := db.PutFile(file)
					if err != nil {
						return cli.NewExitError(err, 1)
					}
					logger.Printf("Imported \"%s\" as \"%s\"\n", file, name)
				}

				return nil
			},
		},
		{
			Name:        "export",
			Usage:       "Write an image from the catalog to a file",
			Description: "The output file format is chosen by the suffix of FILE.",
			ArgsUsage:   "NAME FILE",
			Action: func(c *cli.Context) error {
				requireArgs(c, 2)

				logger := newLogger(c)
				r := formats.NewRegistry(logger)

				db, err := catalog.Open(c.String("db"), r, logger)
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer db.Close()

				p := imago.New(imago.RGB24)
				if err := db.Get(c.Args().Get(0), p); err != nil {
					return cli.NewExitError(err, 1)
				}

				if err := r.Save(p, c.Args().Get(1)); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
		{
			Name:  "list",
			Usage: "List the images in the catalog",
			Action: func(c *cli.Context) error {
				logger := newLogger(c)

				db, err := catalog.Open(c.String("db"), formats.NewRegistry(logger), logger)
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer db.Close()

				entries, err := db.List()
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				w := tabwriter.NewWriter(os.Stdout, 0, 8, 1, ' ', 0)
				for _, e := range entries {
					fmt.Fprintf(w, "%s\t%dx%d\t%s\t%d\t%s\n", e.Name, e.Width, e.Height, e.Format, e.Size, e.SHA1)
				}

				return w.Flush()
			},
		},
		{
			Name:      "delete",
			Usage:     "Remove images from the catalog",
			ArgsUsage: "NAME...",
			Action: func(c *cli.Context) error {
				requireArgs(c, 1)

				logger := newLogger(c)

				db, err := catalog.Open(c.String("db"), formats.NewRegistry(logger), logger)
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer db.Close()

				for _, name := range c.Args().Slice() {
					if err := db.Delete(name); err != nil {
						return cli.NewExitError(err, 1)
					}
				}

				return nil
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
