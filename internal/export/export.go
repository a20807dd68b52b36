// Package export writes extracted documents as CSV or JSON.
package export

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/thywilljoshua/pdf-abstracts/internal/extract"
)

type Format string

const (
	CSV  Format = "csv"
	JSON Format = "json"
)

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case CSV:
		return CSV, nil
	case JSON:
		return JSON, nil
	}
	return "", fmt.Errorf("unknown export format %q (want csv or json)", s)
}

// Ext is the file extension for the format.
func (f Format) Ext() string { return "." + string(f) }

type Options struct {
	Sections bool
}

// Write encodes docs in the given format.
func Write(w io.Writer, f Format, docs []extract.Document, opts Options) error {
	switch f {
	case CSV:
		return WriteCSV(w, docs, opts)
	case JSON:
		return WriteJSON(w, docs, opts)
	}
	return fmt.Errorf("unknown export format %q", f)
}

// WriteFile writes docs to path, creating parent directories.
func WriteFile(path string, f Format, docs []extract.Document, opts Options) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	bw := bufio.NewWriter(out)
	if err := Write(bw, f, docs, opts); err != nil {
		out.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// WriteCSV writes one quoted row per document. Every field is quoted,
// quotes are doubled and line breaks become spaces so each record stays
// on one physical line.
func WriteCSV(w io.Writer, docs []extract.Document, opts Options) error {
	header := []string{"Filename", "Title", "Abstract"}
	if opts.Sections {
		for _, name := range extract.SectionOrder {
			header = append(header, string(name))
		}
	}
	if _, err := io.WriteString(w, strings.Join(header, ",")+"\n"); err != nil {
		return err
	}
	for _, doc := range docs {
		row := []string{doc.Filename, doc.Title, doc.Abstract}
		if doc.Err != nil {
			row = []string{doc.Filename, extract.ErrorMarker, extract.ErrorMarker}
		}
		if opts.Sections {
			for _, name := range extract.SectionOrder {
				row = append(row, doc.SectionText(name))
			}
		}
		for i, field := range row {
			row[i] = quoteField(field)
		}
		if _, err := io.WriteString(w, strings.Join(row, ",")+"\n"); err != nil {
			return err
		}
	}
	return nil
}

var csvFieldReplacer = strings.NewReplacer(`"`, `""`, "\r\n", " ", "\n", " ", "\r", " ")

func quoteField(s string) string {
	return `"` + csvFieldReplacer.Replace(s) + `"`
}

type jsonSections struct {
	Introduction string `json:"Introduction,omitempty"`
	Methods      string `json:"Methods,omitempty"`
	Results      string `json:"Results,omitempty"`
	Discussion   string `json:"Discussion,omitempty"`
	Conclusion   string `json:"Conclusion,omitempty"`
}

type jsonDocument struct {
	Filename string        `json:"filename"`
	Title    string        `json:"title"`
	Abstract string        `json:"abstract"`
	Sections *jsonSections `json:"sections,omitempty"`
}

// WriteJSON writes an indented array. Non-ASCII text is written as is.
func WriteJSON(w io.Writer, docs []extract.Document, opts Options) error {
	rows := make([]jsonDocument, 0, len(docs))
	for _, doc := range docs {
		row := jsonDocument{Filename: doc.Filename, Title: doc.Title, Abstract: doc.Abstract}
		if opts.Sections && doc.Err == nil {
			row.Sections = &jsonSections{
				Introduction: doc.SectionText(extract.Introduction),
				Methods:      doc.SectionText(extract.Methods),
				Results:      doc.SectionText(extract.Results),
				Discussion:   doc.SectionText(extract.Discussion),
				Conclusion:   doc.SectionText(extract.Conclusion),
			}
		}
		rows = append(rows, row)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(rows)
}
