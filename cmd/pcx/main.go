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

	"github.com/bodgit/pcx"
	"github.com/bodgit/pcx/catalog"
	"github.com/bodgit/pcx/export"
	"github.com/urfave/cli/v2"
)

const defaultDB = "pcx.db"

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

func openCatalog(c *cli.Context) (*catalog.Catalog, error) {
	return catalog.New(c.String("db"), newLogger(c))
}

func writeInfo(w io.Writer, name string) error {
	d, err := pcx.Open(name)
	if err != nil {
		return err
	}
	defer d.Close()

	scanline := make([]byte, d.Width())
	for y := 0; y < d.Height(); y++ {
		if err := d.ReadScanline(scanline); err != nil {
			return err
		}
	}

	n, err := d.PaletteSize()
	if err != nil {
		return err
	}

	h := d.Header()
	tw := tabwriter.NewWriter(w, 0, 8, 1, ' ', 0)
	fmt.Fprintf(tw, "File:\t%s\n", name)
	fmt.Fprintf(tw, "Version:\t%d\n", h.Version)
	fmt.Fprintf(tw, "Dimensions:\t%dx%d\n", d.Width(), d.Height())
	fmt.Fprintf(tw, "Bounding box:\t(%d,%d)-(%d,%d)\n", h.XMin, h.YMin, h.XMax, h.YMax)
	fmt.Fprintf(tw, "Bits per pixel:\t%d\n", h.BitsPerPixel)
	fmt.Fprintf(tw, "Planes:\t%d\n", h.Planes)
	fmt.Fprintf(tw, "Bytes per line:\t%d\n", h.BytesPerLine)
	fmt.Fprintf(tw, "DPI:\t%dx%d\n", h.HDPI, h.VDPI)
	fmt.Fprintf(tw, "Palette size:\t%d\n", n)
	return tw.Flush()
}

func writePalette(w io.Writer, name string) error {
	d, err := pcx.Open(name)
	if err != nil {
		return err
	}
	defer d.Close()

	m, err := d.Image()
	if err != nil {
		return err
	}

	for i, c := range m.Palette {
		r, g, b, _ := c.RGBA()
		if _, err := fmt.Fprintf(w, "%3d #%02x%02x%02x\n", i, r>>8, g>>8, b>>8); err != nil {
			return err
		}
	}
	return nil
}

func convert(in, out string, o *export.Options) error {
	d, err := pcx.Open(in)
	if err != nil {
		return err
	}
	defer d.Close()

	m, err := d.Image()
	if err != nil {
		return err
	}

	return export.EncodeFile(out, m, o)
}

func extract(cat *catalog.Catalog, hash, out string, o *export.Options) error {
	m, err := cat.Image(hash)
	if err != nil {
		return err
	}

	return export.EncodeFile(out, m, o)
}

func writeList(w io.Writer, entries []catalog.Entry) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "HASH\tSIZE\tVERSION\tCOLORS\tPATH")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%dx%d\t%d\t%d\t%s\n", e.Hash, e.Width, e.Height, e.Version, e.PaletteSize, e.Path)
	}
	return tw.Flush()
}

// exportOptions picks the format by name, or from the extension of out if
// no name is given.
func exportOptions(format string, colors int, out string) (*export.Options, error) {
	var (
		f   export.Format
		err error
	)
	if format != "" {
		f, err = export.ParseFormat(format)
	} else {
		f, err = export.FormatFromFilename(out)
	}
	if err != nil {
		return nil, err
	}
	return &export.Options{Format: f, Colors: colors}, nil
}

var exportFlags = []cli.Flag{
	&cli.StringFlag{
		Name:  "format",
		Usage: "output format (png, gif or bmp), defaults to the output file extension",
	},
	&cli.IntFlag{
		Name:  "colors",
		Usage: "reduce the palette to at most this many colors",
	},
}

func main() {
	app := cli.NewApp()

	app.Name = "pcx"
	app.Usage = "8-bit PCX image utility"
	app.Version = "1.0.0"

	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			EnvVars: []string{"PCX_DB"},
			Value:   filepath.Join(cwd, defaultDB),
			Usage:   "path to catalogue database",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:      "info",
			Usage:     "Show header and palette information",
			ArgsUsage: "FILE",
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				if err := writeInfo(os.Stdout, c.Args().First()); err != nil {
					return cli.Exit(err, 1)
				}

				return nil
			},
		},
		{
			Name:      "palette",
			Usage:     "Print the palette",
			ArgsUsage: "FILE",
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				if err := writePalette(os.Stdout, c.Args().First()); err != nil {
					return cli.Exit(err, 1)
				}

				return nil
			},
		},
		{
			Name:      "convert",
			Usage:     "Convert to another image format",
			ArgsUsage: "FILE OUTPUT",
			Flags:     exportFlags,
			Action: func(c *cli.Context) error {
				if c.NArg() < 2 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				o, err := exportOptions(c.String("format"), c.Int("colors"), c.Args().Get(1))
				if err != nil {
					return cli.Exit(err, 1)
				}

				if err := convert(c.Args().Get(0), c.Args().Get(1), o); err != nil {
					return cli.Exit(err, 1)
				}

				return nil
			},
		},
		{
			Name:      "scan",
			Usage:     "Scan filesystem and catalogue PCX images",
			ArgsUsage: "DIRECTORY",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:  "workers",
					Value: catalog.DefaultWorkers,
					Usage: "number of files to decode concurrently",
				},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				cat, err := openCatalog(c)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer cat.Close()

				if err := cat.Scan(context.Background(), c.Args().First(), c.Int("workers")); err != nil {
					return cli.Exit(err, 1)
				}

				return nil
			},
		},
		{
			Name:  "list",
			Usage: "List catalogued images",
			Action: func(c *cli.Context) error {
				cat, err := openCatalog(c)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer cat.Close()

				entries, err := cat.List()
				if err != nil {
					return cli.Exit(err, 1)
				}

				return writeList(os.Stdout, entries)
			},
		},
		{
			Name:      "extract",
			Usage:     "Export a catalogued image",
			ArgsUsage: "HASH OUTPUT",
			Flags:     exportFlags,
			Action: func(c *cli.Context) error {
				if c.NArg() < 2 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				o, err := exportOptions(c.String("format"), c.Int("colors"), c.Args().Get(1))
				if err != nil {
					return cli.Exit(err, 1)
				}

				cat, err := openCatalog(c)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer cat.Close()

				if err := extract(cat, c.Args().Get(0), c.Args().Get(1), o); err != nil {
					return cli.Exit(err, 1)
				}

				return nil
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
