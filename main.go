// Liveboat builds a static feed page out of a newsboat cache.
//
// It reads the newsboat urls file and cache database, pulls readable content
// for recent articles, and writes JSON, RSS and OPML next to a rendered
// index page.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/urfave/cli/v2"
	_ "golang.org/x/crypto/x509roots/fallback"
	_ "modernc.org/sqlite"

	"github.com/jdholdren/liveboat/internal/build"
	"github.com/jdholdren/liveboat/internal/config"
	"github.com/jdholdren/liveboat/internal/content"
	"github.com/jdholdren/liveboat/internal/migrations"
	"github.com/jdholdren/liveboat/internal/sqlite"
	"github.com/jdholdren/liveboat/internal/urls"
	"github.com/jdholdren/liveboat/logger"
)

const fetchRetries = 2

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	slog.SetDefault(logger.New(os.Stderr, "text", false))

	if err := app().RunContext(ctx, os.Args); err != nil {
		slog.Error("error running", "error", err)
		os.Exit(1)
	}
}

func app() *cli.App {
	return &cli.App{
		Name:  "liveboat",
		Usage: "Build a static feed page from a newsboat cache",
		Description: `Liveboat reads the newsboat urls file and cache database and writes a
		static page: per feed JSON, an aggregated RSS channel, one channel per
		query feed and an OPML subscription list.

		Options are read from the config file and can be overridden with
		LIVEBOAT_ prefixed environment variables, e.g.:

		build_dir => LIVEBOAT_BUILD_DIR=/var/www/feeds
		`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "Path to the TOML config file",
				Value: defaultConfigPath(),
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Verbose logging and pretty printed JSON",
			},
		},
		Commands: []*cli.Command{
			buildCmd(),
			initCacheCmd(),
		},
		Action: func(c *cli.Context) error {
			// Building is the default command
			return runBuild(c)
		},
	}
}

func buildCmd() *cli.Command {
	return &cli.Command{
		Name:        "build",
		Usage:       "Build the feed page",
		Description: `Builds the page into the build directory, replacing the previous build.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "urls",
				Usage: "Path to the newsboat urls file",
			},
			&cli.StringFlag{
				Name:  "cache",
				Usage: "Path to the newsboat cache database",
			},
			&cli.StringFlag{
				Name:  "build-dir",
				Usage: "Directory the page is written to",
			},
			&cli.StringFlag{
				Name:  "template",
				Usage: "Template directory containing index.tpl",
			},
		},
		Action: runBuild,
	}
}

func initCacheCmd() *cli.Command {
	return &cli.Command{
		Name:        "init-cache",
		Usage:       "Create an empty newsboat cache database",
		ArgsUsage:   "<path>",
		Description: `Creates a newsboat compatible cache so a page can be built before newsboat has run.`,
		Action: func(c *cli.Context) error {
			path := c.Args().First()
			if path == "" {
				return cli.Exit("init-cache needs the path of the database to create", 1)
			}
			setupLogger(c, "text")

			dbx, err := sqlite.OpenWritable(path)
			if err != nil {
				return err
			}
			defer dbx.Close()

			if err := migrations.Run(dbx); err != nil {
				return fmt.Errorf("error creating cache: %w", err)
			}
			fmt.Fprintf(c.App.Writer, "Created cache at %s\n", path)
			return nil
		},
	}
}

func runBuild(c *cli.Context) error {
	ctx := c.Context

	opts, err := config.Load(ctx, c.String("config"), nil)
	if err != nil {
		return err
	}
	applyFlags(c, &opts)
	setupLogger(c, opts.LogFormat)

	if err := opts.Validate(); err != nil {
		return err
	}
	slog.DebugContext(ctx, "loaded options", "options", opts)

	subs, err := urls.ReadFile(ctx, opts.NewsboatURLsFile)
	if err != nil {
		return err
	}

	dbx, err := sqlite.Open(opts.NewsboatCacheFile)
	if err != nil {
		return err
	}
	defer dbx.Close()

	enricher := content.NewEnricher(&http.Client{Timeout: opts.FetchTimeout}, content.Options{
		ScrapeRedditLinks: opts.ScrapeRedditLinks,
		ScrapeHNLinks:     opts.ScrapeHNLinks,
		Retries:           fetchRetries,
	})

	res, err := build.New(opts, subs, sqlite.New(dbx), enricher, c.App.Writer).Run(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "Feed page saved to %s\n", res.BuildDir)
	return nil
}

// applyFlags overrides options with any flag the user passed.
func applyFlags(c *cli.Context, opts *config.Options) {
	for flag, dst := range map[string]*string{
		"urls":      &opts.NewsboatURLsFile,
		"cache":     &opts.NewsboatCacheFile,
		"build-dir": &opts.BuildDir,
		"template":  &opts.TemplateDir,
	} {
		if c.IsSet(flag) {
			*dst = c.String(flag)
		}
	}
	opts.Debug = c.Bool("debug")
}

func setupLogger(c *cli.Context, format string) {
	slog.SetDefault(logger.New(c.App.ErrWriter, format, c.Bool("debug")))
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(dir, "liveboat", "config.toml")
}
