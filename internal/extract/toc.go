package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// Text heuristic patterns for table of contents lines. The first accepts a
// dot leader or whitespace run before the page number, the second a plain
// trailing number.
var (
	tocLeaderRe   = regexp.MustCompile(`^(.+?)\s*(?:\.{2,}|\s)\s*(\d{1,4})$`)
	tocTrailingRe = regexp.MustCompile(`^(.+?)\s+(\d{1,4})$`)
	appendixLetRe = regexp.MustCompile(`^[A-Z](?:\.|\d|\s)`)
	mainSectionRe = regexp.MustCompile(`^\d\s`)
	leadingNumRe  = regexp.MustCompile(`^[\d.\s]+`)
	spacedDotsRe  = regexp.MustCompile(`(?:\s\.){2,}`)
)

// ExtractTOC returns the document's table of contents, preferring the
// outline and falling back to the text heuristic, truncated before the
// first appendix entry.
func (e *Engine) ExtractTOC(src Source) []TOCEntry {
	var entries []TOCEntry
	nodes, err := src.Outline()
	if err != nil {
		e.log.Debug("outline unavailable", "error", err)
	}
	if len(nodes) > 0 {
		entries = FlattenOutline(nodes)
	}
	if len(entries) == 0 {
		entries = e.TextTOC(LoadPages(src, e.profile.TOCScanPages, e.log))
	}
	return TruncateAtAppendix(entries)
}

// FlattenOutline walks the outline depth-first. Nodes without a resolved
// destination get a nil page.
func FlattenOutline(nodes []OutlineNode) []TOCEntry {
	var out []TOCEntry
	var walk func([]OutlineNode)
	walk = func(ns []OutlineNode) {
		for _, n := range ns {
			entry := TOCEntry{Title: strings.TrimSpace(n.Title)}
			if n.Page > 0 {
				entry.Page = intPtr(n.Page)
			}
			out = append(out, entry)
			walk(n.Children)
		}
	}
	walk(nodes)
	return out
}

// TextTOC parses table of contents lines out of the first pages. Lines
// that do not end in a page number are skipped.
func (e *Engine) TextTOC(pages []string) []TOCEntry {
	if len(pages) > e.profile.TOCScanPages {
		pages = pages[:e.profile.TOCScanPages]
	}
	combined := strings.Join(pages, "\n\n")
	if loc := contentsAnchorRe.FindStringIndex(combined); loc != nil {
		combined = combined[loc[0]:]
	}
	combined = truncateRunes(combined, e.profile.TOCCharLimit)

	var out []TOCEntry
	for _, line := range strings.Split(combined, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if entry, ok := matchTOCLine(normalizeDotLeaders(line)); ok {
			out = append(out, entry)
		}
	}
	return out
}

func matchTOCLine(line string) (TOCEntry, bool) {
	m := tocLeaderRe.FindStringSubmatch(line)
	if m == nil {
		m = tocTrailingRe.FindStringSubmatch(line)
	}
	if m == nil {
		return TOCEntry{}, false
	}
	title := strings.TrimSpace(strings.TrimRight(strings.TrimSpace(m[1]), "."))
	if title == "" {
		return TOCEntry{}, false
	}
	p, err := strconv.Atoi(m[2])
	if err != nil {
		return TOCEntry{}, false
	}
	return TOCEntry{Title: title, Page: intPtr(p)}, true
}

// normalizeDotLeaders maps typographic leaders onto plain dots so one
// pattern covers them all.
func normalizeDotLeaders(s string) string {
	s = strings.ReplaceAll(s, "…", "...")
	s = strings.ReplaceAll(s, "·", ".")
	s = strings.ReplaceAll(s, "•", ".")
	s = strings.ReplaceAll(s, "⋅", ".")
	s = spacedDotsRe.ReplaceAllStringFunc(s, func(m string) string {
		return " " + strings.Repeat(".", strings.Count(m, "."))
	})
	return s
}

// IsAppendixTitle reports whether a title looks like an appendix heading.
func IsAppendixTitle(title string) bool {
	if strings.Contains(strings.ToLower(title), "appendix") {
		return true
	}
	return appendixLetRe.MatchString(title)
}

// TruncateAtAppendix returns the entries before the first appendix title.
func TruncateAtAppendix(entries []TOCEntry) []TOCEntry {
	for i, e := range entries {
		if IsAppendixTitle(e.Title) {
			return entries[:i]
		}
	}
	return entries
}

// IsMainSection reports whether a title is a top-level numbered heading
// such as "1 Introduction".
func IsMainSection(title string) bool {
	return mainSectionRe.MatchString(strings.TrimSpace(title))
}

// mainEntries keeps top-level numbered entries with a known page.
func mainEntries(entries []TOCEntry) []TOCEntry {
	var out []TOCEntry
	for _, e := range entries {
		if e.Page != nil && IsMainSection(e.Title) {
			out = append(out, e)
		}
	}
	return out
}

func normalizeTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(leadingNumRe.ReplaceAllString(title, "")))
}

func truncateRunes(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
