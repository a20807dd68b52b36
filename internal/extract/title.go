package extract

import (
	"path/filepath"
	"regexp"
	"strings"
)

var (
	bylineRe      = regexp.MustCompile(`(?i)^(?:by|author|university|department)`)
	contactRe     = regexp.MustCompile(`(?i)@|\d{4}|email`)
	personNameRe  = regexp.MustCompile(`^[A-Z][a-z]+\s+[A-Z][a-z]+`)
	nameInTextRe  = regexp.MustCompile(`[A-Z][a-z]+\s+[A-Z][a-z]+`)
	authorSplitRe = regexp.MustCompile(`[,()&]`)
	authorTextRes = []*regexp.Regexp{
		regexp.MustCompile(`\b(?i:by|authors?)\b\s*:?\s*([A-Z][a-z]+\s+[A-Z][a-z]+)`),
		regexp.MustCompile(`(?m)^([A-Z][a-z]+\s+[A-Z][a-z]+)$`),
		regexp.MustCompile(`([A-Z][a-z]+[ \t]+[A-Z][a-z]+)[ \t]*\n`),
	}
)

const translatedMarker = " (translated "

// FilenameTitle derives a title from the archive naming convention
// "<id>_<title> (translated from <lang>).pdf".
func FilenameTitle(filename string) string {
	name := filepath.Base(filename)
	if ext := filepath.Ext(name); strings.EqualFold(ext, ".pdf") {
		name = strings.TrimSuffix(name, ext)
	}
	if _, rest, ok := strings.Cut(name, "_"); ok {
		name = rest
	}
	if head, _, ok := strings.Cut(name, translatedMarker); ok {
		name = head
	}
	return strings.TrimSpace(name)
}

// TitleInBody reports whether title occurs in the first pages, either
// verbatim or wrapped across up to TitleMergeLines following lines.
func (e *Engine) TitleInBody(title string, pages []string) bool {
	needle := strings.ToLower(strings.TrimSpace(title))
	if needle == "" {
		return false
	}
	limit := min(e.profile.TitleScanPages, len(pages))
	for _, page := range pages[:limit] {
		if strings.Contains(strings.ToLower(page), needle) {
			return true
		}
		lines := nonEmptyLines(page)
		for i := range lines {
			merged := lines[i]
			for k := i + 1; k < len(lines) && k <= i+e.profile.TitleMergeLines; k++ {
				merged += " " + lines[k]
				if strings.Contains(strings.ToLower(merged), needle) {
					return true
				}
			}
		}
	}
	return false
}

// BodyTitle picks the first plausible title line from the opening pages.
func (e *Engine) BodyTitle(pages []string) (string, bool) {
	limit := min(e.profile.BodyTitlePages, len(pages))
	var lines []string
	for _, page := range pages[:limit] {
		lines = append(lines, nonEmptyLines(page)...)
	}
	if len(lines) > e.profile.BodyTitleLines {
		lines = lines[:e.profile.BodyTitleLines]
	}
	for _, line := range lines {
		n := len([]rune(line))
		if n <= 10 || n >= 200 {
			continue
		}
		if bylineRe.MatchString(line) || contactRe.MatchString(line) {
			continue
		}
		if e.excluded(line) {
			continue
		}
		return line, true
	}
	return "", false
}

// ResolveTitle combines the filename title with a body check. BodyTitle is
// only set when the filename title was not found in the body.
func (e *Engine) ResolveTitle(filename string, pages []string) TitleResult {
	res := TitleResult{FilenameTitle: FilenameTitle(filename)}
	if e.TitleInBody(res.FilenameTitle, pages) {
		res.MatchedInBody = true
		return res
	}
	if t, ok := e.BodyTitle(pages); ok {
		res.BodyTitle = &t
	}
	return res
}

// ResolveAuthor prefers a person-like metadata author and falls back to
// byline patterns on the first page.
func (e *Engine) ResolveAuthor(metaAuthor string, pages []string) string {
	if a, ok := e.authorFromMetadata(strings.TrimSpace(metaAuthor)); ok {
		return a
	}
	if len(pages) == 0 {
		return AuthorNotFound
	}
	head := truncateRunes(pages[0], 1000)
	for _, re := range authorTextRes {
		m := re.FindStringSubmatch(head)
		if m == nil {
			continue
		}
		candidate := strings.TrimSpace(m[1])
		if !e.excluded(candidate) {
			return candidate
		}
	}
	return AuthorNotFound
}

func (e *Engine) authorFromMetadata(author string) (string, bool) {
	if author == "" {
		return "", false
	}
	for _, term := range e.profile.ExcludedTitleTerms {
		if strings.EqualFold(author, term) {
			return "", false
		}
	}
	if strings.ContainsAny(author, ",(") || nameInTextRe.MatchString(author) {
		for _, part := range authorSplitRe.Split(author, -1) {
			part = strings.TrimSpace(part)
			if personNameRe.MatchString(part) && !e.excluded(part) {
				return part, true
			}
		}
		return "", false
	}
	if e.excluded(author) {
		return "", false
	}
	return author, true
}

func (e *Engine) excluded(s string) bool {
	lower := strings.ToLower(s)
	for _, term := range e.profile.ExcludedTitleTerms {
		if strings.Contains(lower, strings.ToLower(term)) {
			return true
		}
	}
	return false
}

func nonEmptyLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
