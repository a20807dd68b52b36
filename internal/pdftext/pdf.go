// Package pdftext turns PDF bytes into per-page text, outline entries and
// document info for the extraction engine.
package pdftext

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	lpdf "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	rpdf "rsc.io/pdf"

	"github.com/thywilljoshua/pdf-abstracts/internal/extract"
)

var ErrUnreadable = errors.New("pdf unreadable")

// Info is the subset of the document information dictionary we report.
type Info struct {
	Title   string
	Author  string
	Subject string
}

// Document serves page text from an in-memory PDF. Page numbers are
// 1-indexed. Text comes from ledongthuc/pdf with rsc.io/pdf as the
// fallback decoder for pages the first one cannot read.
type Document struct {
	Name string

	data     []byte
	primary  *lpdf.Reader
	fallback *rpdf.Reader
	pages    int
	info     Info
	log      *slog.Logger

	outlineOnce sync.Once
	outline     []extract.OutlineNode
	outlineErr  error
}

// Open reads a PDF from disk.
func Open(path string, log *slog.Logger) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return OpenBytes(filepath.Base(path), data, log)
}

// OpenBytes parses a PDF held in memory.
func OpenBytes(name string, data []byte, log *slog.Logger) (*Document, error) {
	if log == nil {
		log = slog.Default()
	}
	d := &Document{Name: name, data: data, log: log}

	perr := guard(func() error {
		r, err := lpdf.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return err
		}
		d.primary = r
		return nil
	})
	ferr := guard(func() error {
		r, err := rpdf.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return err
		}
		d.fallback = r
		return nil
	})
	switch {
	case d.primary != nil:
		d.pages = d.primary.NumPage()
		d.info = readInfo(d.primary)
	case d.fallback != nil:
		d.pages = d.fallback.NumPage()
	default:
		return nil, fmt.Errorf("%w: %s: %v; %v", ErrUnreadable, name, perr, ferr)
	}
	if perr != nil {
		log.Debug("primary decoder failed, using fallback", "file", name, "error", perr)
	}
	return d, nil
}

func (d *Document) PageCount() int { return d.pages }

// PageText returns the text of page n (1-indexed). A decoder panic is
// reported as an error for that page only.
func (d *Document) PageText(n int) (string, error) {
	if n < 1 || n > d.pages {
		return "", fmt.Errorf("page %d out of range 1..%d", n, d.pages)
	}
	var text string
	err := guard(func() error {
		if d.primary == nil {
			return errors.New("no primary decoder")
		}
		p := d.primary.Page(n)
		if p.V.IsNull() {
			return nil
		}
		t, err := p.GetPlainText(nil)
		if err != nil {
			return err
		}
		text = t
		return nil
	})
	if err == nil && strings.TrimSpace(text) != "" {
		return text, nil
	}
	if d.fallback == nil {
		return text, err
	}
	var alt string
	ferr := guard(func() error {
		alt = runsToText(d.fallback.Page(n).Content().Text)
		return nil
	})
	if ferr != nil {
		if err != nil {
			return "", fmt.Errorf("page %d: %v; fallback: %w", n, err, ferr)
		}
		return text, nil
	}
	return alt, nil
}

// Outline returns the document bookmarks as read by pdfcpu.
func (d *Document) Outline() ([]extract.OutlineNode, error) {
	d.outlineOnce.Do(func() {
		d.outlineErr = guard(func() error {
			conf := model.NewDefaultConfiguration()
			conf.ValidationMode = model.ValidationRelaxed
			bms, err := api.Bookmarks(bytes.NewReader(d.data), conf)
			if err != nil {
				return err
			}
			d.outline = convertBookmarks(bms)
			return nil
		})
	})
	return d.outline, d.outlineErr
}

func (d *Document) Info() Info { return d.info }

func (d *Document) Author() string { return d.info.Author }

func convertBookmarks(bms []pdfcpu.Bookmark) []extract.OutlineNode {
	if len(bms) == 0 {
		return nil
	}
	out := make([]extract.OutlineNode, 0, len(bms))
	for _, bm := range bms {
		out = append(out, extract.OutlineNode{
			Title:    bm.Title,
			Page:     bm.PageFrom,
			Children: convertBookmarks(bm.Kids),
		})
	}
	return out
}

func readInfo(r *lpdf.Reader) Info {
	var info Info
	_ = guard(func() error {
		v := r.Trailer().Key("Info")
		if v.IsNull() {
			return nil
		}
		info = Info{
			Title:   strings.TrimSpace(v.Key("Title").Text()),
			Author:  strings.TrimSpace(v.Key("Author").Text()),
			Subject: strings.TrimSpace(v.Key("Subject").Text()),
		}
		return nil
	})
	return info
}

// runsToText joins positioned text runs, starting a new line whenever the
// baseline moves.
func runsToText(runs []rpdf.Text) string {
	var b strings.Builder
	var lastY, lastEnd float64
	for i, t := range runs {
		if i > 0 {
			switch {
			case math.Abs(t.Y-lastY) > 1:
				b.WriteByte('\n')
			case t.X-lastEnd > t.FontSize*0.2:
				b.WriteByte(' ')
			}
		}
		b.WriteString(t.S)
		lastY = t.Y
		lastEnd = t.X + t.W
	}
	return b.String()
}

// guard converts a decoder panic into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("decoder panic: %v", r)
		}
	}()
	return fn()
}
