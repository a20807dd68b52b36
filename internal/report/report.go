// Package report renders extraction results for the terminal.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/thywilljoshua/pdf-abstracts/internal/ai"
	"github.com/thywilljoshua/pdf-abstracts/internal/batch"
	"github.com/thywilljoshua/pdf-abstracts/internal/extract"
)

const textWidth = 78

var (
	// titleStyle for bold section headers
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("33"))

	// dimStyle for labels and metadata
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	// boxStyle frames a document report
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("33")).
			Padding(0, 1)

	bodyStyle = lipgloss.NewStyle().Width(textWidth)
)

func label(s string) string { return dimStyle.Render(s) }

// status colours sentinels and error text differently from real values.
func status(s string) string {
	switch {
	case extract.IsErrorText(s):
		return errorStyle.Render(s)
	case extract.IsSentinel(s):
		return warnStyle.Render(s)
	}
	return s
}

// Document prints the title, author and abstract of one document.
func Document(w io.Writer, doc extract.Document) {
	var b strings.Builder
	b.WriteString(titleStyle.Render(doc.Filename) + "\n")
	fmt.Fprintf(&b, "%s %s\n", label("Title:"), status(doc.Title))
	matched := warnStyle.Render("no")
	if doc.TitleMatched {
		matched = successStyle.Render("yes")
	}
	fmt.Fprintf(&b, "%s %s\n", label("Title found in text:"), matched)
	if doc.BodyTitle != "" {
		fmt.Fprintf(&b, "%s %s\n", label("Title from text:"), doc.BodyTitle)
	}
	if doc.Author != "" {
		fmt.Fprintf(&b, "%s %s\n", label("Author:"), status(doc.Author))
	}
	b.WriteString(label("Abstract:") + "\n")
	b.WriteString(bodyStyle.Render(status(doc.Abstract)))
	fmt.Fprintln(w, boxStyle.Render(b.String()))
}

// Files lists input documents with their index.
func Files(w io.Writer, dir string, names []string) {
	fmt.Fprintf(w, "%s %s (%d files)\n", label("Input:"), dir, len(names))
	for i, n := range names {
		fmt.Fprintf(w, "%s %s\n", dimStyle.Render(fmt.Sprintf("%3d.", i+1)), n)
	}
}

// Pages prints raw page text, numbering pages from first.
func Pages(w io.Writer, pages []string, first int) {
	for i, text := range pages {
		fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("--- Page %d ---", first+i)))
		if strings.TrimSpace(text) == "" {
			fmt.Fprintln(w, dimStyle.Render("(no text)"))
			continue
		}
		fmt.Fprintln(w, text)
	}
}

// TOC prints table of contents entries; entries without a page show "-".
func TOC(w io.Writer, entries []extract.TOCEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, warnStyle.Render("No table of contents found"))
		return
	}
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Table of contents (%d entries)", len(entries))))
	for _, e := range entries {
		page := "-"
		if e.Page != nil {
			page = fmt.Sprint(*e.Page)
		}
		fmt.Fprintf(w, "%s %s\n", dimStyle.Render(fmt.Sprintf("%5s", page)), e.Title)
	}
}

// Sections prints each canonical section's page range and text in order.
func Sections(w io.Writer, ranges map[extract.SectionName]extract.SectionRange, texts map[extract.SectionName]string) {
	if len(ranges) == 0 {
		fmt.Fprintln(w, warnStyle.Render("No sections found"))
		return
	}
	for _, name := range extract.SectionOrder {
		r, ok := ranges[name]
		if !ok {
			fmt.Fprintf(w, "%s %s\n", titleStyle.Render(string(name)), dimStyle.Render("(not found)"))
			continue
		}
		end := "end"
		if r.EndPage != nil {
			end = fmt.Sprint(*r.EndPage)
		}
		fmt.Fprintf(w, "%s %s\n", titleStyle.Render(string(name)),
			label(fmt.Sprintf("pages %d-%s, heading %q", r.StartPage, end, r.Heading)))
		if text := strings.TrimSpace(texts[name]); text != "" {
			fmt.Fprintln(w, bodyStyle.Render(text))
		}
		fmt.Fprintln(w)
	}
}

// Summary prints the outcome of a batch run.
func Summary(w io.Writer, rep *batch.Report, output string) {
	s := rep.Summary
	errs := successStyle.Render("0")
	if s.Errors > 0 {
		errs = errorStyle.Render(fmt.Sprint(s.Errors))
	}
	content := titleStyle.Render("Export complete") + "\n" +
		fmt.Sprintf("%s %d/%d  %s %d  %s %s  %s %s\n",
			label("Processed:"), s.Processed, s.Total,
			label("Abstracts:"), s.AbstractsFound,
			label("Errors:"), errs,
			label("Time:"), rep.Elapsed.Round(time.Millisecond)) +
		fmt.Sprintf("%s %s  %s %s", label("Output:"), output, label("Run:"), rep.RunID)
	fmt.Fprintln(w, boxStyle.Render(content))
}

// Prompts lists the registry, marking the selected prompt.
func Prompts(w io.Writer, prompts []ai.Prompt, selected int) {
	for _, p := range prompts {
		marker := " "
		if p.ID == selected {
			marker = successStyle.Render("*")
		}
		first, _, _ := strings.Cut(strings.TrimSpace(p.System), "\n")
		fmt.Fprintf(w, "%s %s %s %s\n", marker, titleStyle.Render(fmt.Sprintf("%2d", p.ID)),
			dimStyle.Render(p.Version), first)
	}
}

// Rewrite prints a rewritten abstract under the prompt that produced it.
func Rewrite(w io.Writer, doc extract.Document, sel ai.Selection, text string) {
	head := titleStyle.Render(doc.Filename) + "\n" +
		fmt.Sprintf("%s %d (%s)\n", label("Prompt:"), sel.PromptID, sel.Version)
	fmt.Fprintln(w, boxStyle.Render(head+bodyStyle.Render(text)))
}
