package extract

import (
	"fmt"
	"sort"
	"strings"
)

// Profile holds every threshold and keyword list the heuristics use.
type Profile struct {
	Name string `mapstructure:"name" yaml:"name"`

	// Table of contents detection and parsing.
	TOCScanPages int     `mapstructure:"toc_scan_pages" yaml:"toc_scan_pages"`
	TOCCharLimit int     `mapstructure:"toc_char_limit" yaml:"toc_char_limit"`
	TOCLineRatio float64 `mapstructure:"toc_line_ratio" yaml:"toc_line_ratio"`
	TOCMinLines  int     `mapstructure:"toc_min_lines" yaml:"toc_min_lines"`

	// Abstract search.
	AbstractWordLimit   int      `mapstructure:"abstract_word_limit" yaml:"abstract_word_limit"`
	AbstractPrefixChars int      `mapstructure:"abstract_prefix_chars" yaml:"abstract_prefix_chars"`
	SkipTOCPages        *bool    `mapstructure:"skip_toc_pages" yaml:"skip_toc_pages"`
	UseTOCWindow        *bool    `mapstructure:"use_toc_window" yaml:"use_toc_window"`
	DefaultWindowPages  int      `mapstructure:"default_window_pages" yaml:"default_window_pages"`
	WindowBuffer        int      `mapstructure:"window_buffer" yaml:"window_buffer"`
	UseFallback         *bool    `mapstructure:"use_fallback" yaml:"use_fallback"`
	FallbackPages       int      `mapstructure:"fallback_pages" yaml:"fallback_pages"`
	FallbackWordLimit   int      `mapstructure:"fallback_word_limit" yaml:"fallback_word_limit"`
	KeywordPrefixChars  int      `mapstructure:"keyword_prefix_chars" yaml:"keyword_prefix_chars"`
	FallbackKeywords    []string `mapstructure:"fallback_keywords" yaml:"fallback_keywords"`

	// Sections.
	SectionKeywords map[string][]string `mapstructure:"section_keywords" yaml:"section_keywords"`

	// Title and author.
	TitleScanPages     int      `mapstructure:"title_scan_pages" yaml:"title_scan_pages"`
	TitleMergeLines    int      `mapstructure:"title_merge_lines" yaml:"title_merge_lines"`
	BodyTitlePages     int      `mapstructure:"body_title_pages" yaml:"body_title_pages"`
	BodyTitleLines     int      `mapstructure:"body_title_lines" yaml:"body_title_lines"`
	ExcludedTitleTerms []string `mapstructure:"excluded_title_terms" yaml:"excluded_title_terms"`
}

var defaultSectionKeywords = map[string][]string{
	string(Introduction): {"introduction", "background"},
	string(Methods):      {"methods", "methodology", "material", "materials and methods"},
	string(Results):      {"results", "findings"},
	string(Discussion):   {"discussion", "interpretation"},
	string(Conclusion):   {"conclusion", "conclusions", "concluding remarks"},
}

var defaultExcludedTerms = []string{
	"Technical University of Denmark",
	"DTU",
	"Master Thesis",
	"MSc Thesis",
	"Thesis",
	"MSc",
	"DTU Compute",
	"University",
	"Department",
	"Faculty",
	"Technical University of Denmark (DTU)",
}

func boolPtr(v bool) *bool { return &v }

// DefaultProfile returns the standard profile.
func DefaultProfile() Profile {
	return Profile{
		Name:                "standard",
		TOCScanPages:        15,
		TOCCharLimit:        20000,
		TOCLineRatio:        0.3,
		TOCMinLines:         5,
		AbstractWordLimit:   500,
		AbstractPrefixChars: 50,
		SkipTOCPages:        boolPtr(true),
		UseTOCWindow:        boolPtr(true),
		DefaultWindowPages:  20,
		WindowBuffer:        5,
		UseFallback:         boolPtr(true),
		FallbackPages:       10,
		FallbackWordLimit:   600,
		KeywordPrefixChars:  100,
		FallbackKeywords:    []string{"summary", "summary (english)", "preface", "resumé", "resume"},
		SectionKeywords:     cloneKeywords(defaultSectionKeywords),
		TitleScanPages:      10,
		TitleMergeLines:     4,
		BodyTitlePages:      2,
		BodyTitleLines:      10,
		ExcludedTitleTerms:  append([]string(nil), defaultExcludedTerms...),
	}
}

// Profiles returns the built-in named profiles.
func Profiles() map[string]Profile {
	compact := DefaultProfile()
	compact.Name = "compact"
	compact.AbstractWordLimit = 300

	extended := DefaultProfile()
	extended.Name = "extended"
	extended.AbstractWordLimit = 800

	legacy := DefaultProfile()
	legacy.Name = "legacy"
	legacy.AbstractWordLimit = 300
	legacy.SkipTOCPages = boolPtr(false)
	legacy.UseTOCWindow = boolPtr(false)
	legacy.UseFallback = boolPtr(false)

	std := DefaultProfile()
	return map[string]Profile{
		compact.Name:  compact,
		std.Name:      std,
		extended.Name: extended,
		legacy.Name:   legacy,
	}
}

// LookupProfile resolves name against the built-in profiles and any
// custom ones. Custom profiles win over built-ins of the same name.
func LookupProfile(name string, custom map[string]Profile) (Profile, error) {
	if name == "" {
		name = "standard"
	}
	key := strings.ToLower(name)
	if p, ok := custom[key]; ok {
		p.Name = key
		return p.WithDefaults(), nil
	}
	if p, ok := Profiles()[key]; ok {
		return p, nil
	}
	var names []string
	for n := range Profiles() {
		names = append(names, n)
	}
	for n := range custom {
		names = append(names, n)
	}
	sort.Strings(names)
	return Profile{}, fmt.Errorf("unknown profile %q (available: %s)", name, strings.Join(names, ", "))
}

// WithDefaults fills zero-valued fields from the standard profile.
func (p Profile) WithDefaults() Profile {
	d := DefaultProfile()
	if p.Name == "" {
		p.Name = d.Name
	}
	if p.TOCScanPages <= 0 {
		p.TOCScanPages = d.TOCScanPages
	}
	if p.TOCCharLimit <= 0 {
		p.TOCCharLimit = d.TOCCharLimit
	}
	if p.TOCLineRatio <= 0 {
		p.TOCLineRatio = d.TOCLineRatio
	}
	if p.TOCMinLines <= 0 {
		p.TOCMinLines = d.TOCMinLines
	}
	if p.AbstractWordLimit <= 0 {
		p.AbstractWordLimit = d.AbstractWordLimit
	}
	if p.AbstractPrefixChars <= 0 {
		p.AbstractPrefixChars = d.AbstractPrefixChars
	}
	if p.SkipTOCPages == nil {
		p.SkipTOCPages = d.SkipTOCPages
	}
	if p.UseTOCWindow == nil {
		p.UseTOCWindow = d.UseTOCWindow
	}
	if p.DefaultWindowPages <= 0 {
		p.DefaultWindowPages = d.DefaultWindowPages
	}
	if p.WindowBuffer <= 0 {
		p.WindowBuffer = d.WindowBuffer
	}
	if p.UseFallback == nil {
		p.UseFallback = d.UseFallback
	}
	if p.FallbackPages <= 0 {
		p.FallbackPages = d.FallbackPages
	}
	if p.FallbackWordLimit <= 0 {
		p.FallbackWordLimit = d.FallbackWordLimit
	}
	if p.KeywordPrefixChars <= 0 {
		p.KeywordPrefixChars = d.KeywordPrefixChars
	}
	if len(p.FallbackKeywords) == 0 {
		p.FallbackKeywords = d.FallbackKeywords
	}
	if len(p.SectionKeywords) == 0 {
		p.SectionKeywords = d.SectionKeywords
	}
	if p.TitleScanPages <= 0 {
		p.TitleScanPages = d.TitleScanPages
	}
	if p.TitleMergeLines <= 0 {
		p.TitleMergeLines = d.TitleMergeLines
	}
	if p.BodyTitlePages <= 0 {
		p.BodyTitlePages = d.BodyTitlePages
	}
	if p.BodyTitleLines <= 0 {
		p.BodyTitleLines = d.BodyTitleLines
	}
	if len(p.ExcludedTitleTerms) == 0 {
		p.ExcludedTitleTerms = d.ExcludedTitleTerms
	}
	return p
}

func cloneKeywords(in map[string][]string) map[string][]string {
	out := make(map[string][]string, len(in))
	for k, v := range in {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// keywordsFor looks a section up case-insensitively; viper lower-cases map keys.
func (p Profile) keywordsFor(name SectionName) []string {
	if kw, ok := p.SectionKeywords[string(name)]; ok {
		return kw
	}
	for k, kw := range p.SectionKeywords {
		if strings.EqualFold(k, string(name)) {
			return kw
		}
	}
	return nil
}
