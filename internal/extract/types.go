package extract

import "context"

// SectionName identifies one of the canonical thesis sections.
type SectionName string

const (
	Introduction SectionName = "Introduction"
	Methods      SectionName = "Methods"
	Results      SectionName = "Results"
	Discussion   SectionName = "Discussion"
	Conclusion   SectionName = "Conclusion"
)

// SectionOrder is the fixed order in which section names are resolved and reported.
var SectionOrder = []SectionName{Introduction, Methods, Results, Discussion, Conclusion}

const (
	AbstractNotFound = "Abstract not found"
	AuthorNotFound   = "Author not found"
	TitleNotFound    = "Title not found"
	ErrorMarker      = "ERROR"
	errorTextPrefix  = "Error extracting abstract: "
)

// TOCEntry is one line of a table of contents. Page is 1-indexed and nil
// when the source could not resolve it.
type TOCEntry struct {
	Title string `json:"title"`
	Page  *int   `json:"page"`
}

// OutlineNode is a bookmark from the document outline. A Page of 0 means
// the destination did not resolve.
type OutlineNode struct {
	Title    string
	Page     int
	Children []OutlineNode
}

type SectionRange struct {
	Name        SectionName `json:"name"`
	StartPage   int         `json:"start_page"`
	EndPage     *int        `json:"end_page"`
	Heading     string      `json:"heading"`
	NextHeading *string     `json:"next_heading"`
}

type TitleResult struct {
	FilenameTitle string
	BodyTitle     *string
	MatchedInBody bool
}

// Document is the per-file extraction result. Err is set when the
// document failed as a whole, in which case Title and Abstract carry
// error markers.
type Document struct {
	Filename     string
	Path         string
	Title        string
	BodyTitle    string
	TitleMatched bool
	Author       string
	Abstract     string
	Sections     map[SectionName]string
	Err          error
}

// Source provides per-page text and the outline of a document.
// PageText is 1-indexed.
type Source interface {
	PageCount() int
	PageText(n int) (string, error)
	Outline() ([]OutlineNode, error)
}

// MetadataSource is implemented by sources that expose document info.
type MetadataSource interface {
	Author() string
}

// Options selects the optional parts of Extract.
type Options struct {
	Sections bool
	Author   bool
}

// Extractor is the document-level contract consumed by the batch runner.
type Extractor interface {
	Extract(ctx context.Context, filename string, src Source, opts Options) Document
}

// ErrorDocument builds the record used when a document fails as a whole.
func ErrorDocument(filename string, err error) Document {
	return Document{
		Filename: filename,
		Title:    ErrorMarker,
		Abstract: ErrorText(err),
		Err:      err,
	}
}

func intPtr(v int) *int { return &v }
