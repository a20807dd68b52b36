package extract

import (
	"fmt"
	"strings"
)

// ErrorText formats an unexpected failure the way it is reported in place
// of an abstract.
func ErrorText(err error) string {
	if err == nil {
		return errorTextPrefix + "unknown error"
	}
	return errorTextPrefix + err.Error()
}

// IsErrorText reports whether s is an abstract-position error string.
func IsErrorText(s string) bool { return strings.HasPrefix(s, errorTextPrefix) || s == ErrorMarker }

// IsSentinel reports whether s is a heuristic-miss marker rather than
// extracted text.
func IsSentinel(s string) bool {
	return s == AbstractNotFound || s == AuthorNotFound || s == TitleNotFound
}

// AbstractWindow returns how many leading pages the abstract search may
// look at. The first main entry of the text table of contents bounds the
// window; an entry titled "Abstract" is included, otherwise the search
// stops before the entry. A fixed buffer absorbs printed versus physical
// page numbering drift.
func (e *Engine) AbstractWindow(pages []string) int {
	n := len(pages)
	if !*e.profile.UseTOCWindow {
		return n
	}
	searchEnd := -1
	for _, entry := range e.TextTOC(pages) {
		if !IsMainSection(entry.Title) || entry.Page == nil {
			continue
		}
		p := *entry.Page
		if p > 0 && strings.Contains(strings.ToLower(entry.Title), "abstract") {
			searchEnd = p + 1
		} else if p > 0 {
			searchEnd = p - 1
		}
		break
	}
	if searchEnd > 0 {
		return min(searchEnd+e.profile.WindowBuffer, n)
	}
	return min(e.profile.DefaultWindowPages, n)
}

// ExtractAbstract runs the cascading abstract search. It always returns a
// value: extracted text, AbstractNotFound, or an error string.
func (e *Engine) ExtractAbstract(pages []string) (abstract string) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("abstract extraction panicked", "panic", r)
			abstract = ErrorText(fmt.Errorf("%v", r))
		}
	}()

	window := e.AbstractWindow(pages)
	for i, page := range pages[:window] {
		page = strings.TrimSpace(page)
		if *e.profile.SkipTOCPages && e.IsTOCPage(page) {
			continue
		}
		if text, strategy, ok := e.abstractSteps.TryMatch(page); ok {
			e.log.Debug("abstract found", "page", i+1, "strategy", strategy)
			return text
		}
	}

	if *e.profile.UseFallback {
		if text, ok := e.keywordFallback(pages); ok {
			return text
		}
	}
	return AbstractNotFound
}

// keywordFallback looks for alternate headings such as "Summary" in the
// front matter, one keyword at a time.
func (e *Engine) keywordFallback(pages []string) (string, bool) {
	limit := min(e.profile.FallbackPages, len(pages))
	for _, kw := range e.profile.FallbackKeywords {
		ladder := e.keywordSteps[kw]
		for i, page := range pages[:limit] {
			page = strings.TrimSpace(page)
			if *e.profile.SkipTOCPages && e.IsTOCPage(page) {
				continue
			}
			if text, strategy, ok := ladder.TryMatch(page); ok {
				e.log.Debug("abstract fallback found", "keyword", kw, "page", i+1, "strategy", strategy)
				return text, true
			}
		}
	}
	return "", false
}
