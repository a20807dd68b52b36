package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/thywilljoshua/pdf-abstracts/internal/ai"
	"github.com/thywilljoshua/pdf-abstracts/internal/batch"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append(args, "--log-level", "error"))
	err := cmd.Execute()
	return out.String(), err
}

func inputDir(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("not really a pdf"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestMissingInputFails(t *testing.T) {
	_, err := run(t, "--input", filepath.Join(t.TempDir(), "absent"))
	if !errors.Is(err, batch.ErrInputMissing) {
		t.Fatalf("err = %v, want ErrInputMissing", err)
	}
	_, err = run(t, "export", "--input", inputDir(t, "notes.txt"))
	if !errors.Is(err, batch.ErrNoDocuments) {
		t.Fatalf("err = %v, want ErrNoDocuments", err)
	}
}

func TestListAndUnknownFile(t *testing.T) {
	dir := inputDir(t, "2_B.pdf", "1_A.pdf")
	out, err := run(t, "list", "--input", dir)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Index(out, "1_A.pdf") > strings.Index(out, "2_B.pdf") {
		t.Fatalf("files not sorted:\n%s", out)
	}

	_, err = run(t, "info", "3_C.pdf", "--input", dir)
	var nf *batch.NotFoundError
	if !errors.As(err, &nf) || !strings.Contains(err.Error(), "1_A.pdf") {
		t.Fatalf("err = %v, want not-found listing alternatives", err)
	}
}

func TestExportRecordsBrokenDocuments(t *testing.T) {
	dir := inputDir(t, "1_Broken.pdf", "2_Also broken.pdf")
	output := filepath.Join(t.TempDir(), "out", "abstracts.csv")
	out, err := run(t, "export", "--input", dir, "--output", output, "--quiet")
	if err != nil {
		t.Fatalf("per-document failures must not fail the export: %v", err)
	}
	if !strings.Contains(out, "2/2") {
		t.Fatalf("summary missing:\n%s", out)
	}
	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	want := "Filename,Title,Abstract\n" +
		`"1_Broken.pdf","ERROR","ERROR"` + "\n" +
		`"2_Also broken.pdf","ERROR","ERROR"` + "\n"
	if string(data) != want {
		t.Fatalf("csv = %q", data)
	}
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	_, err := run(t, "export", "--input", inputDir(t, "a.pdf"), "--format", "xml")
	if err == nil || !strings.Contains(err.Error(), "xml") {
		t.Fatalf("err = %v", err)
	}
}

func TestUnknownProfile(t *testing.T) {
	_, err := run(t, "list", "--input", inputDir(t, "a.pdf"), "--profile", "tiny")
	if err == nil || !strings.Contains(err.Error(), "unknown profile") {
		t.Fatalf("err = %v", err)
	}
}

func TestPromptSelection(t *testing.T) {
	selection := filepath.Join(t.TempDir(), "selected_prompt.json")
	t.Setenv("PDFABSTRACT_PROMPTS_SELECTION", selection)

	out, err := run(t, "prompts", "select", "1")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Selected prompt version: month-zero-v1") {
		t.Fatalf("output = %q", out)
	}
	sel, err := ai.LoadSelection(selection)
	if err != nil || sel.PromptID != 1 {
		t.Fatalf("LoadSelection() = %+v, %v", sel, err)
	}

	out, err = run(t, "prompts", "list")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "*") || !strings.Contains(out, "plain-summary-v1") {
		t.Fatalf("list output:\n%s", out)
	}

	if _, err := run(t, "prompts", "select", "42"); err == nil {
		t.Fatal("selecting an unknown prompt should fail")
	}
	if _, err := run(t, "prompts", "select", "one"); err == nil {
		t.Fatal("non-numeric prompt ID should fail")
	}
}

func TestRewriteNeedsSelection(t *testing.T) {
	t.Setenv("PDFABSTRACT_PROMPTS_SELECTION", filepath.Join(t.TempDir(), "none.json"))
	_, err := run(t, "rewrite", "--input", inputDir(t, "a.pdf"))
	if err == nil || !strings.Contains(err.Error(), "prompts select") {
		t.Fatalf("err = %v", err)
	}
}
