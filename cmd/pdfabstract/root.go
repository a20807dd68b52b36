package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/thywilljoshua/pdf-abstracts/internal/batch"
	"github.com/thywilljoshua/pdf-abstracts/internal/config"
	"github.com/thywilljoshua/pdf-abstracts/internal/extract"
	"github.com/thywilljoshua/pdf-abstracts/internal/pdftext"
)

// app is the state shared by every subcommand once flags and config are
// resolved.
type app struct {
	cfgFile  string
	input    string
	profile  string
	logLevel string
	workers  int
	timeout  time.Duration

	cfg    *config.Config
	log    *slog.Logger
	engine *extract.Engine
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "pdfabstract",
		Short:         "Extract titles, abstracts and sections from thesis PDFs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.list(cmd)
		},
	}
	f := root.PersistentFlags()
	f.StringVar(&a.cfgFile, "config", "", "config file (default ./pdfabstract.yaml)")
	f.StringVarP(&a.input, "input", "i", "", "directory holding the PDFs")
	f.StringVarP(&a.profile, "profile", "p", "", "heuristics profile: compact|standard|extended|legacy or a custom one")
	f.StringVar(&a.logLevel, "log-level", "", "log level: debug|info|warn|error")
	f.IntVarP(&a.workers, "workers", "w", 0, "documents processed in parallel")
	f.DurationVar(&a.timeout, "timeout", 0, "per-document extraction timeout")

	root.AddCommand(
		listCmd(a),
		readCmd(a),
		infoCmd(a),
		tocCmd(a),
		sectionsCmd(a),
		exportCmd(a),
		promptsCmd(a),
		rewriteCmd(a),
	)
	return root
}

func (a *app) setup() error {
	cfg, err := config.Load(a.cfgFile, map[string]any{
		"input_dir":   a.input,
		"profile":     a.profile,
		"log_level":   a.logLevel,
		"workers":     a.workers,
		"doc_timeout": a.timeout,
	})
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(a.log)

	profile, err := cfg.ResolveProfile()
	if err != nil {
		return err
	}
	a.engine = extract.New(profile, a.log)
	a.log.Debug("configuration loaded", "input", cfg.InputDir, "profile", a.engine.Profile().Name, "workers", cfg.Workers)
	return nil
}

func (a *app) open(path string) (extract.Source, error) {
	doc, err := pdftext.Open(path, a.log)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// openNamed resolves name in the input directory and opens it. With no
// name the first document in the directory is used.
func (a *app) openNamed(args []string) (string, *pdftext.Document, error) {
	var path string
	if len(args) == 0 {
		paths, err := batch.Discover(a.cfg.InputDir)
		if err != nil {
			return "", nil, err
		}
		path = paths[0]
	} else {
		var err error
		if path, err = batch.FindNamed(a.cfg.InputDir, args[0]); err != nil {
			return "", nil, err
		}
	}
	doc, err := pdftext.Open(path, a.log)
	if err != nil {
		return "", nil, err
	}
	info := doc.Info()
	a.log.Debug("opened document", "file", filepath.Base(path), "pages", doc.PageCount(),
		"meta_title", info.Title, "meta_author", info.Author)
	return filepath.Base(path), doc, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
