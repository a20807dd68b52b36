package extract

import (
	"regexp"
	"strings"
)

// Strategy is one rung of a heading ladder. TryMatch returns the text
// following the heading when the page matches.
type Strategy interface {
	Name() string
	TryMatch(page string) (string, bool)
}

// Ladder evaluates strategies in order and stops at the first match.
type Ladder []Strategy

func (l Ladder) TryMatch(page string) (string, string, bool) {
	for _, s := range l {
		if text, ok := s.TryMatch(page); ok {
			return text, s.Name(), true
		}
	}
	return "", "", false
}

// Go's \b only knows ASCII, so keywords such as "resumé" get explicit
// letter/digit boundaries.
const (
	boundaryBefore = `(?:^|[^\pL\pN_])`
	boundaryAfter  = `(?:[^\pL\pN_]|$)`
)

var spaceRunRe = regexp.MustCompile(`\s+`)

func collapseSpace(s string) string {
	return strings.TrimSpace(spaceRunRe.ReplaceAllString(s, " "))
}

func countWords(s string) int { return len(strings.Fields(s)) }

// headingOnly matches a page whose first line is nothing but the heading,
// found within the first prefix characters.
type headingOnly struct {
	keyword string
	prefix  int
	lineRe  *regexp.Regexp
}

func newHeadingOnly(keyword string, prefix int) *headingOnly {
	return &headingOnly{
		keyword: keyword,
		prefix:  prefix,
		lineRe:  regexp.MustCompile(`(?i)^\s*` + regexp.QuoteMeta(keyword) + `\s*$`),
	}
}

func (s *headingOnly) Name() string { return "heading:" + s.keyword }

func (s *headingOnly) TryMatch(page string) (string, bool) {
	page = strings.TrimLeft(page, " \t\r\n")
	first, rest, _ := strings.Cut(page, "\n")
	if len([]rune(first)) > s.prefix || !s.lineRe.MatchString(first) {
		return "", false
	}
	rest = strings.TrimSpace(rest)
	return rest, rest != ""
}

// numberedHeading matches a page that opens with a numbered heading such
// as "1 Abstract".
type numberedHeading struct {
	keyword string
	re      *regexp.Regexp
}

func newNumberedHeading(keyword, number string) *numberedHeading {
	return &numberedHeading{
		keyword: keyword,
		re:      regexp.MustCompile(`(?i)^\s*` + number + `\s+(` + regexp.QuoteMeta(keyword) + `)` + boundaryAfter),
	}
}

func (s *numberedHeading) Name() string { return "numbered:" + s.keyword }

func (s *numberedHeading) TryMatch(page string) (string, bool) {
	m := s.re.FindStringSubmatchIndex(page)
	if m == nil {
		return "", false
	}
	rest := strings.TrimSpace(page[m[3]:])
	return rest, rest != ""
}

// colonHeading matches a page that opens with "Keyword:".
type colonHeading struct {
	keyword string
	re      *regexp.Regexp
}

func newColonHeading(keyword string) *colonHeading {
	return &colonHeading{
		keyword: keyword,
		re:      regexp.MustCompile(`(?i)^\s*` + regexp.QuoteMeta(keyword) + `\s*:`),
	}
}

func (s *colonHeading) Name() string { return "colon:" + s.keyword }

func (s *colonHeading) TryMatch(page string) (string, bool) {
	loc := s.re.FindStringIndex(page)
	if loc == nil {
		return "", false
	}
	rest := collapseSpace(page[loc[1]:])
	return rest, rest != ""
}

// ownLineHeading matches the heading on a line of its own anywhere in the
// page and takes the following text, capped at maxWords words.
type ownLineHeading struct {
	keyword  string
	maxWords int
	re       *regexp.Regexp
}

func newOwnLineHeading(keyword string, maxWords int) *ownLineHeading {
	return &ownLineHeading{
		keyword:  keyword,
		maxWords: maxWords,
		re:       regexp.MustCompile(`(?im)^[ \t]*` + regexp.QuoteMeta(keyword) + `[ \t]*:?[ \t]*$`),
	}
}

func (s *ownLineHeading) Name() string { return "own-line:" + s.keyword }

func (s *ownLineHeading) TryMatch(page string) (string, bool) {
	loc := s.re.FindStringIndex(page)
	if loc == nil {
		return "", false
	}
	words := strings.Fields(page[loc[1]:])
	if len(words) > s.maxWords {
		words = words[:s.maxWords]
	}
	rest := strings.Join(words, " ")
	return rest, rest != ""
}

// embeddedKeyword matches a short page that mentions the keyword as a word
// and returns the whitespace-normalised text after it.
type embeddedKeyword struct {
	keyword  string
	maxWords int
	re       *regexp.Regexp
}

func newEmbeddedKeyword(keyword string, maxWords int) *embeddedKeyword {
	return &embeddedKeyword{
		keyword:  keyword,
		maxWords: maxWords,
		re:       regexp.MustCompile(`(?i)` + boundaryBefore + `(` + regexp.QuoteMeta(keyword) + `)` + boundaryAfter),
	}
}

func (s *embeddedKeyword) Name() string { return "embedded:" + s.keyword }

func (s *embeddedKeyword) TryMatch(page string) (string, bool) {
	if countWords(page) >= s.maxWords {
		return "", false
	}
	m := s.re.FindStringSubmatchIndex(page)
	if m == nil {
		return "", false
	}
	rest := strings.TrimLeft(page[m[3]:], " \t\r\n")
	rest = strings.TrimPrefix(rest, ":")
	rest = collapseSpace(rest)
	return rest, rest != ""
}

// abstractLadder is the ordered search for an "Abstract" heading.
func abstractLadder(p Profile) Ladder {
	const kw = "abstract"
	return Ladder{
		newHeadingOnly(kw, p.AbstractPrefixChars),
		newNumberedHeading(kw, "1"),
		newEmbeddedKeyword(kw, p.AbstractWordLimit),
	}
}

// keywordLadder is the ordered search for a fallback heading such as
// "Summary".
func keywordLadder(p Profile, kw string) Ladder {
	return Ladder{
		newHeadingOnly(kw, p.KeywordPrefixChars),
		newNumberedHeading(kw, `\d+`),
		newColonHeading(kw),
		newOwnLineHeading(kw, p.FallbackWordLimit),
		newEmbeddedKeyword(kw, p.FallbackWordLimit),
	}
}
