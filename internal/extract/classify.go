package extract

import (
	"regexp"
	"strings"
)

var (
	contentsAnchorRe = regexp.MustCompile(`(?im)^\s*(?:table\s+of\s+)?contents\b`)
	tocLineRe        = regexp.MustCompile(`\S(?:\s*\.{2,}\s*|\s+)\d{1,4}\s*$`)
)

// IsTOCPage reports whether the page looks like a table of contents: a
// "Contents" heading anchor, or a dense run of lines ending in page numbers.
func (e *Engine) IsTOCPage(text string) bool {
	if contentsAnchorRe.MatchString(text) {
		return true
	}
	var lines, numbered int
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines++
		if tocLineRe.MatchString(line) {
			numbered++
		}
	}
	if lines <= e.profile.TOCMinLines {
		return false
	}
	return float64(numbered)/float64(lines) > e.profile.TOCLineRatio
}
