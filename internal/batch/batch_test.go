package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thywilljoshua/pdf-abstracts/internal/extract"
)

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("%PDF-1.4"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestDiscover(t *testing.T) {
	t.Run("missing directory", func(t *testing.T) {
		_, err := Discover(filepath.Join(t.TempDir(), "nope"))
		if !errors.Is(err, ErrInputMissing) {
			t.Fatalf("err = %v, want ErrInputMissing", err)
		}
	})
	t.Run("no documents", func(t *testing.T) {
		dir := t.TempDir()
		touch(t, dir, "notes.txt")
		_, err := Discover(dir)
		if !errors.Is(err, ErrNoDocuments) {
			t.Fatalf("err = %v, want ErrNoDocuments", err)
		}
	})
	t.Run("sorted pdfs only", func(t *testing.T) {
		dir := t.TempDir()
		touch(t, dir, "b.pdf", "a.PDF", "notes.txt")
		if err := os.Mkdir(filepath.Join(dir, "sub.pdf"), 0o755); err != nil {
			t.Fatal(err)
		}
		got, err := Discover(dir)
		if err != nil {
			t.Fatal(err)
		}
		want := []string{filepath.Join(dir, "a.PDF"), filepath.Join(dir, "b.pdf")}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("Discover() = %v, want %v", got, want)
		}
	})
}

func TestFindNamed(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "1_First.pdf", "2_Second.pdf")

	p, err := FindNamed(dir, "2_Second.pdf")
	if err != nil || p != filepath.Join(dir, "2_Second.pdf") {
		t.Fatalf("FindNamed() = %q, %v", p, err)
	}

	_, err = FindNamed(dir, "3_Third.pdf")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("err = %v, want *NotFoundError", err)
	}
	if !reflect.DeepEqual(nf.Available, []string{"1_First.pdf", "2_Second.pdf"}) {
		t.Fatalf("Available = %v", nf.Available)
	}
	if !strings.Contains(err.Error(), "1_First.pdf") {
		t.Fatalf("message should list alternatives: %v", err)
	}
}

// stubExtractor returns the first page as the abstract and can be told to
// block or panic for specific files.
type stubExtractor struct {
	block   map[string]chan struct{}
	panics  map[string]bool
	honour  map[string]bool
	onStart func(name string)
	calls   atomic.Int32
}

func (s *stubExtractor) Extract(ctx context.Context, filename string, src extract.Source, _ extract.Options) extract.Document {
	s.calls.Add(1)
	if s.onStart != nil {
		s.onStart(filename)
	}
	if ch, ok := s.block[filename]; ok {
		<-ch
	}
	if s.honour[filename] {
		<-ctx.Done()
		return extract.ErrorDocument(filename, ctx.Err())
	}
	if s.panics[filename] {
		panic("corrupt xref table")
	}
	text, _ := src.PageText(1)
	return extract.Document{Filename: filename, Title: filename, Abstract: text}
}

func openStub(path string) (extract.Source, error) {
	name := filepath.Base(path)
	if strings.HasPrefix(name, "unreadable") {
		return nil, errors.New("not a pdf")
	}
	if strings.HasPrefix(name, "missing") {
		return extract.Pages{extract.AbstractNotFound}, nil
	}
	return extract.Pages{"abstract of " + name}, nil
}

func paths(names ...string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = filepath.Join("in", n)
	}
	return out
}

func TestRunKeepsInputOrder(t *testing.T) {
	var names []string
	for i := 0; i < 20; i++ {
		names = append(names, fmt.Sprintf("%02d.pdf", i))
	}
	var progress atomic.Int32
	r := &Runner{
		Extractor: &stubExtractor{},
		Open:      openStub,
		Workers:   4,
		Log:       quietLogger(),
		Progress:  func(done, total int, _ extract.Document) { progress.Add(1) },
	}
	rep, err := r.Run(context.Background(), paths(names...))
	if err != nil {
		t.Fatal(err)
	}
	if len(rep.Documents) != len(names) || int(progress.Load()) != len(names) {
		t.Fatalf("got %d documents, %d progress calls", len(rep.Documents), progress.Load())
	}
	for i, doc := range rep.Documents {
		if doc.Filename != names[i] {
			t.Fatalf("document %d = %s, want %s", i, doc.Filename, names[i])
		}
		if doc.Path != filepath.Join("in", names[i]) {
			t.Fatalf("path not recorded: %q", doc.Path)
		}
	}
	if rep.RunID == "" || rep.Summary.AbstractsFound != len(names) {
		t.Fatalf("summary = %+v run=%q", rep.Summary, rep.RunID)
	}
}

func TestRunIsolatesFailures(t *testing.T) {
	stub := &stubExtractor{panics: map[string]bool{"boom.pdf": true}}
	r := &Runner{Extractor: stub, Open: openStub, Workers: 2, Log: quietLogger()}
	rep, err := r.Run(context.Background(), paths("ok.pdf", "unreadable.pdf", "boom.pdf", "missing.pdf"))
	if err != nil {
		t.Fatalf("per-document failures must not fail the batch: %v", err)
	}
	if len(rep.Documents) != 4 {
		t.Fatalf("got %d documents", len(rep.Documents))
	}
	for _, i := range []int{1, 2} {
		doc := rep.Documents[i]
		if doc.Err == nil || doc.Title != extract.ErrorMarker || !extract.IsErrorText(doc.Abstract) {
			t.Fatalf("document %d should be an error record: %+v", i, doc)
		}
	}
	want := Summary{Total: 4, Processed: 4, AbstractsFound: 1, Errors: 2}
	if rep.Summary != want {
		t.Fatalf("summary = %+v, want %+v", rep.Summary, want)
	}
}

func TestRunTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	stub := &stubExtractor{block: map[string]chan struct{}{"slow.pdf": release}}
	r := &Runner{Extractor: stub, Open: openStub, Workers: 2, Timeout: 50 * time.Millisecond, Log: quietLogger()}

	rep, err := r.Run(context.Background(), paths("slow.pdf", "fast.pdf"))
	if err != nil {
		t.Fatal(err)
	}
	slow := rep.Documents[0]
	if !errors.Is(slow.Err, context.DeadlineExceeded) {
		t.Fatalf("slow document err = %v", slow.Err)
	}
	if rep.Documents[1].Err != nil {
		t.Fatalf("fast document failed: %v", rep.Documents[1].Err)
	}
}

func TestRunCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	stub := &stubExtractor{}
	r := &Runner{Extractor: stub, Open: openStub, Workers: 2, Log: quietLogger()}
	rep, err := r.Run(ctx, paths("a.pdf", "b.pdf"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(rep.Documents) != 0 || stub.calls.Load() != 0 {
		t.Fatalf("nothing should run, got %d documents", len(rep.Documents))
	}
}

func TestRunCancelledMidway(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stub := &stubExtractor{onStart: func(name string) {
		if name == "0.pdf" {
			cancel()
		}
	}}
	r := &Runner{Extractor: stub, Open: openStub, Workers: 1, Log: quietLogger()}
	rep, err := r.Run(ctx, paths("0.pdf", "1.pdf", "2.pdf", "3.pdf", "4.pdf"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if n := stub.calls.Load(); n != 1 {
		t.Fatalf("%d extractions started after cancellation, want only 0.pdf", n)
	}
	if len(rep.Documents) != 1 {
		t.Fatalf("got %d documents, want the one that finished", len(rep.Documents))
	}
	doc := rep.Documents[0]
	if doc.Filename != "0.pdf" || doc.Err != nil || doc.Abstract != "abstract of 0.pdf" {
		t.Fatalf("finished document should be kept as is: %+v", doc)
	}
	want := Summary{Total: 5, Processed: 1, AbstractsFound: 1}
	if rep.Summary != want {
		t.Fatalf("summary = %+v, want %+v", rep.Summary, want)
	}
}

func TestRunInterruptedDocumentIsNotAnError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stub := &stubExtractor{
		honour: map[string]bool{"slow.pdf": true},
		onStart: func(name string) {
			if name == "slow.pdf" {
				cancel()
			}
		},
	}
	r := &Runner{Extractor: stub, Open: openStub, Workers: 1, Timeout: time.Minute, Log: quietLogger()}
	rep, err := r.Run(ctx, paths("slow.pdf", "next.pdf"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(rep.Documents) != 0 || rep.Summary.Errors != 0 || rep.Summary.Processed != 0 {
		t.Fatalf("interrupted document recorded: %+v %+v", rep.Documents, rep.Summary)
	}
}
