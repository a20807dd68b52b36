package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/thywilljoshua/pdf-abstracts/internal/ai"
	"github.com/thywilljoshua/pdf-abstracts/internal/batch"
	"github.com/thywilljoshua/pdf-abstracts/internal/export"
	"github.com/thywilljoshua/pdf-abstracts/internal/extract"
	"github.com/thywilljoshua/pdf-abstracts/internal/report"
)

func listCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the PDFs in the input directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.list(cmd)
		},
	}
}

func (a *app) list(cmd *cobra.Command) error {
	paths, err := batch.Discover(a.cfg.InputDir)
	if err != nil {
		return err
	}
	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = filepath.Base(p)
	}
	report.Files(cmd.OutOrStdout(), a.cfg.InputDir, names)
	return nil
}

func readCmd(a *app) *cobra.Command {
	var first int
	cmd := &cobra.Command{
		Use:   "read [file]",
		Short: "Print the raw text of a document's first pages",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, doc, err := a.openNamed(args)
			if err != nil {
				return err
			}
			report.Pages(cmd.OutOrStdout(), extract.LoadPages(doc, first, a.log), 1)
			return nil
		},
	}
	cmd.Flags().IntVarP(&first, "first", "n", 3, "number of pages to print (0 for all)")
	return cmd
}

func infoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info [file]",
		Short: "Show title, author and abstract of one document (default: the first)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, doc, err := a.openNamed(args)
			if err != nil {
				return err
			}
			res := a.engine.Extract(commandContext(cmd), name, doc, extract.Options{Author: true})
			report.Document(cmd.OutOrStdout(), res)
			return nil
		},
	}
}

func tocCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "toc [file]",
		Short: "Show the table of contents found in a document",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, doc, err := a.openNamed(args)
			if err != nil {
				return err
			}
			report.TOC(cmd.OutOrStdout(), a.engine.ExtractTOC(doc))
			return nil
		},
	}
}

func sectionsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sections [file]",
		Short: "Show the page ranges and text of the canonical sections",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, doc, err := a.openNamed(args)
			if err != nil {
				return err
			}
			ranges := a.engine.FindSectionPages(a.engine.ExtractTOC(doc))
			pages := extract.LoadPages(doc, 0, a.log)
			texts := make(map[extract.SectionName]string, len(ranges))
			for name, r := range ranges {
				texts[name] = extract.ExtractSectionText(pages, r)
			}
			report.Sections(cmd.OutOrStdout(), ranges, texts)
			return nil
		},
	}
}

func exportCmd(a *app) *cobra.Command {
	var (
		format   string
		sections bool
		output   string
		quiet    bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Extract every PDF in the input directory to CSV or JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			paths, err := batch.Discover(a.cfg.InputDir)
			if err != nil {
				return err
			}
			if output == "" {
				base := "abstracts"
				if sections {
					base = "sections"
				}
				output = filepath.Join(a.cfg.OutputDir, base+f.Ext())
			}

			r := &batch.Runner{
				Extractor: a.engine,
				Open:      a.open,
				Options:   extract.Options{Sections: sections},
				Workers:   a.cfg.Workers,
				Timeout:   a.cfg.DocTimeout,
				Log:       a.log,
			}
			if !quiet {
				errOut := cmd.ErrOrStderr()
				r.Progress = func(done, total int, doc extract.Document) {
					fmt.Fprintf(errOut, "\r... processed %d/%d files", done, total)
					if done == total {
						fmt.Fprintln(errOut)
					}
				}
			}

			rep, runErr := r.Run(commandContext(cmd), paths)
			if rep == nil {
				return runErr
			}
			if err := export.WriteFile(output, f, rep.Documents, export.Options{Sections: sections}); err != nil {
				return errors.Join(runErr, err)
			}
			report.Summary(cmd.OutOrStdout(), rep, output)
			return runErr
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "csv", "output format: csv|json")
	cmd.Flags().BoolVar(&sections, "sections", false, "include Introduction..Conclusion section text")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default <output_dir>/abstracts.<format>)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not print progress")
	return cmd
}

func promptsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prompts",
		Short: "Manage the rewriting instructions",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List the available instructions (* marks the selected one)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				reg, err := ai.LoadRegistry(a.cfg.Prompts.Registry)
				if err != nil {
					return err
				}
				selected := 0
				sel, err := ai.LoadSelection(a.cfg.Prompts.Selection)
				switch {
				case err == nil:
					selected = sel.PromptID
				case !errors.Is(err, ai.ErrNoSelection):
					a.log.Warn("ignoring unreadable selection", "error", err)
				}
				report.Prompts(cmd.OutOrStdout(), reg.List(), selected)
				return nil
			},
		},
		&cobra.Command{
			Use:   "select <id>",
			Short: "Select the instruction used by rewrite",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("prompt ID must be a number: %q", args[0])
				}
				reg, err := ai.LoadRegistry(a.cfg.Prompts.Registry)
				if err != nil {
					return err
				}
				p, err := reg.Get(id)
				if err != nil {
					return err
				}
				if _, err := ai.SaveSelection(a.cfg.Prompts.Selection, p, time.Now()); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Selected prompt version: %s\n", p.Version)
				return nil
			},
		},
	)
	return cmd
}

func rewriteCmd(a *app) *cobra.Command {
	var promptID int
	cmd := &cobra.Command{
		Use:   "rewrite [file]",
		Short: "Rewrite a document's abstract with the selected instruction",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			sel, err := a.selection(promptID)
			if err != nil {
				return err
			}
			name, doc, err := a.openNamed(args)
			if err != nil {
				return err
			}
			res := a.engine.Extract(ctx, name, doc, extract.Options{})
			if res.Err != nil || extract.IsSentinel(res.Abstract) || extract.IsErrorText(res.Abstract) {
				return fmt.Errorf("%s: no abstract to rewrite (%s)", name, res.Abstract)
			}
			rw, err := ai.New(ctx, a.cfg.AIConfig(a.log))
			if err != nil {
				return err
			}
			text, err := rw.Rewrite(ctx, sel.SystemPrompt, res.Title, res.Abstract)
			if err != nil {
				return fmt.Errorf("rewrite %s: %w", name, err)
			}
			report.Rewrite(cmd.OutOrStdout(), res, sel, text)
			return nil
		},
	}
	cmd.Flags().IntVar(&promptID, "prompt", 0, "use this prompt ID instead of the saved selection")
	return cmd
}

// selection returns the prompt for rewrite: an explicit ID from the
// registry, else the saved selection.
func (a *app) selection(id int) (ai.Selection, error) {
	if id == 0 {
		sel, err := ai.LoadSelection(a.cfg.Prompts.Selection)
		if errors.Is(err, ai.ErrNoSelection) {
			return sel, errors.New("no prompt selected; run 'pdfabstract prompts select <id>' or pass --prompt")
		}
		return sel, err
	}
	reg, err := ai.LoadRegistry(a.cfg.Prompts.Registry)
	if err != nil {
		return ai.Selection{}, err
	}
	p, err := reg.Get(id)
	if err != nil {
		return ai.Selection{}, err
	}
	return ai.Selection{PromptID: p.ID, Version: p.Version, SystemPrompt: p.System}, nil
}
