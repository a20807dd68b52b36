package extract

import (
	"regexp"
	"strings"
)

// FindSectionPages maps each canonical section to the first main entry
// whose title carries one of its keywords. A section ends one page before
// the next main entry starts; the last main entry runs to the end.
func (e *Engine) FindSectionPages(entries []TOCEntry) map[SectionName]SectionRange {
	mains := mainEntries(entries)
	out := make(map[SectionName]SectionRange)
	for _, name := range SectionOrder {
		keywords := e.profile.keywordsFor(name)
		for i, entry := range mains {
			if !containsAny(normalizeTitle(entry.Title), keywords) {
				continue
			}
			r := SectionRange{
				Name:      name,
				StartPage: *entry.Page,
				Heading:   entry.Title,
			}
			if i+1 < len(mains) {
				next := mains[i+1]
				r.EndPage = intPtr(*next.Page - 1)
				heading := next.Title
				r.NextHeading = &heading
			}
			out[name] = r
			break
		}
	}
	return out
}

// ExtractSectionText returns the text between a section's heading and the
// next section's heading within its page range. Missing headings widen
// the cut rather than failing.
func ExtractSectionText(pages []string, r SectionRange) string {
	if len(pages) == 0 {
		return ""
	}
	start := clamp(r.StartPage-1, 0, len(pages)-1)
	end := len(pages) - 1
	if r.EndPage != nil {
		end = clamp(*r.EndPage-1, 0, len(pages)-1)
	}
	if end < start {
		return ""
	}
	text := strings.Join(pages[start:end+1], "\n\n")

	if loc := findFold(text, r.Heading); loc >= 0 {
		text = text[loc:]
	}
	if r.NextHeading != nil {
		if loc := findFold(text, *r.NextHeading); loc >= 0 {
			text = text[:loc]
		}
	}
	return strings.TrimSpace(text)
}

// findFold returns the byte offset of the first case-insensitive literal
// occurrence of needle, or -1.
func findFold(haystack, needle string) int {
	needle = strings.TrimSpace(needle)
	if needle == "" {
		return -1
	}
	re, err := regexp.Compile(`(?i)` + regexp.QuoteMeta(needle))
	if err != nil {
		return -1
	}
	loc := re.FindStringIndex(haystack)
	if loc == nil {
		return -1
	}
	return loc[0]
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(s, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
