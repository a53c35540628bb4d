package main

import (
	"bytes"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/dtef"
	"github.com/bodgit/dtef/animation"
	"github.com/bodgit/dtef/config"
	"github.com/bodgit/dtef/metadata"
	"github.com/bodgit/dtef/store"
	"github.com/davecgh/go-spew/spew"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

// setup merges the configuration file and environment with any flags given
// on the command line.
func setup(c *cli.Context) (*config.Config, *logrus.Logger, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, err
	}

	if c.IsSet("db") {
		cfg.DB = c.String("db")
	}
	if c.IsSet("verbose") {
		cfg.Verbose = c.Bool("verbose")
	}
	if c.IsSet("log-file") {
		cfg.LogFile = c.String("log-file")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}

	logger, err := cfg.Logger()
	if err != nil {
		return nil, nil, err
	}

	return cfg, logger, nil
}

func exportAction(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	cfg, logger, err := setup(c)
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	s, err := store.Open(cfg.DB)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer s.Close()

	ts, err := s.Load()
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	p, err := dtef.New(logger).Export(ts)
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	if err := p.WriteDir(c.Args().First()); err != nil {
		return cli.NewExitError(err, 1)
	}

	return nil
}

func importAction(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	cfg, logger, err := setup(c)
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	s, err := store.Open(cfg.DB)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer s.Close()

	if err := dtef.New(logger).Import(os.DirFS(c.Args().First()), s); err != nil {
		return cli.NewExitError(err, 1)
	}

	return nil
}

// writeGIFs writes one preview per sheet. Frames of a sheet are contiguous
// and start with its base frame.
func writeGIFs(dir string, frames []animation.Frame) error {
	for i := 0; i < len(frames); {
		j := i + 1
		for j < len(frames) && frames[j].Sheet == frames[i].Sheet {
			j++
		}

		b := new(bytes.Buffer)
		if err := animation.EncodeGIF(b, frames[i:j]); err != nil {
			return err
		}

		name := strings.TrimSuffix(frames[i].Sheet, filepath.Ext(frames[i].Sheet)) + ".gif"
		if err := ioutil.WriteFile(filepath.Join(dir, name), b.Bytes(), 0666); err != nil {
			return err
		}

		i = j
	}
	return nil
}

func animateAction(c *cli.Context) error {
	if c.NArg() < 2 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	_, logger, err := setup(c)
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	frames, err := dtef.New(logger).Animate(os.DirFS(c.Args().First()))
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	out := c.Args().Get(1)
	if err := animation.WriteDir(out, frames); err != nil {
		return cli.NewExitError(err, 1)
	}

	if c.Bool("gif") {
		if err := writeGIFs(out, frames); err != nil {
			return cli.NewExitError(err, 1)
		}
	}

	return nil
}

func inspectAction(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	f, err := os.Open(filepath.Join(c.Args().First(), metadata.Filename))
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer f.Close()

	d, err := metadata.Decode(f)
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	spew.Fdump(c.App.Writer, d)

	return nil
}

func verifyAction(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	_, logger, err := setup(c)
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	n, err := dtef.New(logger).Verify(c.Args().First())
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	fmt.Fprintf(c.App.Writer, "%d valid packages\n", n)

	return nil
}

func main() {
	// A missing .env file is not an error
	_ = godotenv.Load()

	app := cli.NewApp()

	app.Name = "dtef"
	app.Usage = "Dungeon Tile Exchange Format converter"
	app.Version = "1.0.0"

	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			EnvVars: []string{config.EnvPrefix + "_CONFIG"},
			Usage:   "path to configuration file",
		},
		&cli.StringFlag{
			Name:    "db",
			EnvVars: []string{config.EnvPrefix + "_DB"},
			Value:   filepath.Join(cwd, config.DefaultDB),
			Usage:   "path to database",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "minimum level to log",
		},
		&cli.StringFlag{
			Name:  "log-file",
			Usage: "write JSON logs to a rotated file",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:      "export",
			Usage:     "Write the stored tileset as an exchange package",
			ArgsUsage: "DIRECTORY",
			Action:    exportAction,
		},
		{
			Name:      "import",
			Usage:     "Replace the stored tileset with an exchange package",
			ArgsUsage: "DIRECTORY",
			Action:    importAction,
		},
		{
			Name:      "animate",
			Usage:     "Render animated palettes as image frames",
			ArgsUsage: "DIRECTORY OUTPUT",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "gif",
					Usage: "also write a GIF preview of every sheet",
				},
			},
			Action: animateAction,
		},
		{
			Name:      "inspect",
			Usage:     "Dump the metadata of an exchange package",
			ArgsUsage: "DIRECTORY",
			Action:    inspectAction,
		},
		{
			Name:      "verify",
			Usage:     "Check every exchange package below a directory",
			ArgsUsage: "DIRECTORY",
			Action:    verifyAction,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
