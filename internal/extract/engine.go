package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Engine runs the structure heuristics with one profile. It holds no
// per-document state and is safe for concurrent use.
type Engine struct {
	profile       Profile
	log           *slog.Logger
	abstractSteps Ladder
	keywordSteps  map[string]Ladder
}

func New(p Profile, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	p = p.WithDefaults()
	e := &Engine{
		profile:       p,
		log:           log,
		abstractSteps: abstractLadder(p),
		keywordSteps:  make(map[string]Ladder, len(p.FallbackKeywords)),
	}
	for _, kw := range p.FallbackKeywords {
		e.keywordSteps[kw] = keywordLadder(p, kw)
	}
	return e
}

func (e *Engine) Profile() Profile { return e.profile }

// LoadPages reads up to limit pages (all when limit <= 0). A page that
// fails to decode becomes an empty string.
func LoadPages(src Source, limit int, log *slog.Logger) []string {
	n := src.PageCount()
	if limit > 0 && limit < n {
		n = limit
	}
	pages := make([]string, n)
	for i := range pages {
		text, err := pageText(src, i+1)
		if err != nil {
			if log != nil {
				log.Warn("page text unavailable", "page", i+1, "error", err)
			}
			continue
		}
		pages[i] = norm.NFC.String(text)
	}
	return pages
}

func pageText(src Source, n int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("decode page %d: %v", n, r)
		}
	}()
	return src.PageText(n)
}

// Extract resolves title, author, abstract and optionally section texts
// for one document. Unexpected failures become an error document.
func (e *Engine) Extract(ctx context.Context, filename string, src Source, opts Options) (doc Document) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("extraction panicked", "file", filename, "panic", r)
			doc = ErrorDocument(filename, fmt.Errorf("%v", r))
		}
	}()
	if err := ctx.Err(); err != nil {
		return ErrorDocument(filename, err)
	}

	pages := LoadPages(src, 0, e.log)
	if err := ctx.Err(); err != nil {
		return ErrorDocument(filename, err)
	}
	title := e.ResolveTitle(filename, pages)
	doc = Document{
		Filename:     filename,
		Title:        title.FilenameTitle,
		TitleMatched: title.MatchedInBody,
	}
	if title.BodyTitle != nil {
		doc.BodyTitle = *title.BodyTitle
	}
	if err := ctx.Err(); err != nil {
		return ErrorDocument(filename, err)
	}
	doc.Abstract = e.ExtractAbstract(pages)
	if opts.Author {
		if err := ctx.Err(); err != nil {
			return ErrorDocument(filename, err)
		}
		var meta string
		if m, ok := src.(MetadataSource); ok {
			meta = m.Author()
		}
		doc.Author = e.ResolveAuthor(meta, pages)
	}
	if opts.Sections {
		if err := ctx.Err(); err != nil {
			return ErrorDocument(filename, err)
		}
		doc.Sections = e.Sections(src, pages)
	}
	return doc
}

// Sections extracts the text of every canonical section found in the
// table of contents.
func (e *Engine) Sections(src Source, pages []string) map[SectionName]string {
	ranges := e.FindSectionPages(e.ExtractTOC(pagesSource{src: src, pages: pages}))
	out := make(map[SectionName]string, len(ranges))
	for name, r := range ranges {
		out[name] = ExtractSectionText(pages, r)
	}
	return out
}

// pagesSource serves already loaded pages while delegating the outline.
type pagesSource struct {
	src   Source
	pages []string
}

func (p pagesSource) PageCount() int { return len(p.pages) }

func (p pagesSource) PageText(n int) (string, error) {
	if n < 1 || n > len(p.pages) {
		return "", fmt.Errorf("page %d out of range", n)
	}
	return p.pages[n-1], nil
}

func (p pagesSource) Outline() ([]OutlineNode, error) { return p.src.Outline() }

// Pages wraps plain page strings as a Source without an outline.
type Pages []string

func (p Pages) PageCount() int { return len(p) }

func (p Pages) PageText(n int) (string, error) {
	if n < 1 || n > len(p) {
		return "", fmt.Errorf("page %d out of range", n)
	}
	return p[n-1], nil
}

func (Pages) Outline() ([]OutlineNode, error) { return nil, nil }

// SectionText is a convenience for callers holding a Document.
func (d Document) SectionText(name SectionName) string {
	return strings.TrimSpace(d.Sections[name])
}
