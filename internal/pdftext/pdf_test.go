package pdftext

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	rpdf "rsc.io/pdf"

	"github.com/thywilljoshua/pdf-abstracts/internal/extract"
)

func TestOpenBytesRejectsGarbage(t *testing.T) {
	_, err := OpenBytes("junk.pdf", []byte("this is not a pdf"), nil)
	if !errors.Is(err, ErrUnreadable) {
		t.Fatalf("err = %v, want ErrUnreadable", err)
	}
}

func TestOpenMissingFile(t *testing.T) {
	if _, err := Open(t.TempDir()+"/missing.pdf", nil); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestConvertBookmarks(t *testing.T) {
	bms := []pdfcpu.Bookmark{
		{Title: "1 Introduction", PageFrom: 3, Kids: []pdfcpu.Bookmark{{Title: "1.1 Scope", PageFrom: 4}}},
		{Title: "Broken", PageFrom: 0},
	}
	want := []extract.OutlineNode{
		{Title: "1 Introduction", Page: 3, Children: []extract.OutlineNode{{Title: "1.1 Scope", Page: 4}}},
		{Title: "Broken", Page: 0},
	}
	if got := convertBookmarks(bms); !reflect.DeepEqual(got, want) {
		t.Fatalf("convertBookmarks() = %+v", got)
	}
}

func TestRunsToText(t *testing.T) {
	runs := []rpdf.Text{
		{S: "Abs", X: 72, Y: 700, W: 18, FontSize: 12},
		{S: "tract", X: 90, Y: 700, W: 30, FontSize: 12},
		{S: "We", X: 72, Y: 680, W: 14, FontSize: 10},
		{S: "study", X: 90, Y: 680, W: 25, FontSize: 10},
	}
	if got := runsToText(runs); got != "Abstract\nWe study" {
		t.Fatalf("runsToText() = %q", got)
	}
}

func TestGuardRecoversPanics(t *testing.T) {
	err := guard(func() error { panic("bad xref") })
	if err == nil {
		t.Fatal("expected error from panic")
	}
}

// thesisPDF builds a two-page PDF with an info dictionary and a two-entry
// outline pointing at pages 1 and 2.
func thesisPDF() []byte {
	page1 := "BT /F1 12 Tf 72 720 Td (Abstract) Tj 0 -20 Td (We study wind.) Tj ET"
	page2 := "BT /F1 12 Tf 72 720 Td (1 Introduction) Tj ET"
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R /Outlines 8 0 R >>",
		"<< /Type /Pages /Kids [3 0 R 4 0 R] /Count 2 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 5 0 R >> >> /Contents 6 0 R >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 5 0 R >> >> /Contents 7 0 R >>",
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(page1), page1),
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(page2), page2),
		"<< /Type /Outlines /First 9 0 R /Last 10 0 R /Count 2 >>",
		"<< /Title (Abstract) /Parent 8 0 R /Next 10 0 R /Dest [3 0 R /Fit] >>",
		"<< /Title (1 Introduction) /Parent 8 0 R /Prev 9 0 R /Dest [4 0 R /Fit] >>",
		"<< /Title (Wind Study) /Author (Jane Doe) /Subject (Energy) >>",
	}
	var b strings.Builder
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R /Info 11 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return []byte(b.String())
}

func TestOpenThesis(t *testing.T) {
	path := filepath.Join(t.TempDir(), "1_Wind Study.pdf")
	if err := os.WriteFile(path, thesisPDF(), 0o644); err != nil {
		t.Fatal(err)
	}
	doc, err := Open(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Name != "1_Wind Study.pdf" || doc.PageCount() != 2 {
		t.Fatalf("name = %q pages = %d", doc.Name, doc.PageCount())
	}

	first, err := doc.PageText(1)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Abstract", "We study wind."} {
		if !strings.Contains(first, want) {
			t.Errorf("page 1 = %q, missing %q", first, want)
		}
	}
	if second, err := doc.PageText(2); err != nil || !strings.Contains(second, "1 Introduction") {
		t.Errorf("page 2 = %q, %v", second, err)
	}
	for _, n := range []int{0, 3} {
		if _, err := doc.PageText(n); err == nil {
			t.Errorf("PageText(%d) should fail", n)
		}
	}

	want := Info{Title: "Wind Study", Author: "Jane Doe", Subject: "Energy"}
	if doc.Info() != want || doc.Author() != "Jane Doe" {
		t.Errorf("Info() = %+v", doc.Info())
	}

	outline, err := doc.Outline()
	if err != nil {
		t.Fatal(err)
	}
	wantOutline := []extract.OutlineNode{{Title: "Abstract", Page: 1}, {Title: "1 Introduction", Page: 2}}
	if !reflect.DeepEqual(outline, wantOutline) {
		t.Errorf("Outline() = %+v", outline)
	}
}

func TestPageTextFallbackDecoder(t *testing.T) {
	doc, err := OpenBytes("wind.pdf", thesisPDF(), nil)
	if err != nil {
		t.Fatal(err)
	}
	doc.primary = nil
	text, err := doc.PageText(1)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(text, "Abstract") || !strings.Contains(text, "We study wind.") {
		t.Fatalf("fallback text = %q", text)
	}
}
