package ai

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestBuiltinRegistry(t *testing.T) {
	r, err := LoadRegistry("")
	if err != nil {
		t.Fatal(err)
	}
	list := r.List()
	if len(list) < 1 || list[0].ID != 1 {
		t.Fatalf("List() = %+v", list)
	}
	p, err := r.Get(1)
	if err != nil || !strings.Contains(p.System, "Month Zero") {
		t.Fatalf("Get(1) = %+v, %v", p, err)
	}
	if _, err := r.Get(99); err == nil || !strings.Contains(err.Error(), "99") {
		t.Fatalf("Get(99) err = %v", err)
	}
}

func TestParseRegistry(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantIDs []int
		wantErr string
	}{
		{
			name:    "json with implicit ids",
			data:    `[{"SI":"a","version":"v1"},{"SI":"b","version":"v2"}]`,
			wantIDs: []int{1, 2},
		},
		{
			name:    "yaml with explicit ids",
			data:    "- id: 7\n  SI: x\n  version: v7\n- id: 3\n  SI: y\n  version: v3\n",
			wantIDs: []int{3, 7},
		},
		{name: "empty list", data: `[]`, wantErr: "invalid"},
		{name: "missing SI", data: `[{"version":"v1"}]`, wantErr: "invalid"},
		{name: "not a list", data: `SI: x`, wantErr: "invalid"},
		{name: "bad id", data: `[{"id":0.5,"SI":"a","version":"v"}]`, wantErr: "invalid"},
		{name: "duplicate", data: `[{"id":1,"SI":"a","version":"v"},{"SI":"b","version":"w"}]`, wantErr: "duplicate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := ParseRegistry([]byte(tt.data))
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("err = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			var ids []int
			for _, p := range r.List() {
				ids = append(ids, p.ID)
			}
			if len(ids) != len(tt.wantIDs) {
				t.Fatalf("ids = %v, want %v", ids, tt.wantIDs)
			}
			for i := range ids {
				if ids[i] != tt.wantIDs[i] {
					t.Fatalf("ids = %v, want %v", ids, tt.wantIDs)
				}
			}
		})
	}
}

func TestLoadRegistryFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "SI_versions.json")
	if err := os.WriteFile(path, []byte(`[{"SI":"Écrire «simplement»","version":"fr-1"}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	r, err := LoadRegistry(path)
	if err != nil {
		t.Fatal(err)
	}
	if p, _ := r.Get(1); p.Version != "fr-1" {
		t.Fatalf("Get(1) = %+v", p)
	}
	if _, err := LoadRegistry(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestSelectionRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "selected_prompt.json")
	if _, err := LoadSelection(path); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("err = %v, want ErrNoSelection", err)
	}

	now := time.Date(2025, 3, 4, 15, 4, 5, 0, time.FixedZone("CET", 3600))
	p := Prompt{ID: 2, Version: "v2", System: "Use <will> & «future» tense"}
	if _, err := SaveSelection(path, p, now); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"selected_at_utc": "2025-03-04T14:04:05Z"`, `"prompt_id": 2`, "<will> & «future»"} {
		if !strings.Contains(string(data), want) {
			t.Fatalf("artifact missing %q:\n%s", want, data)
		}
	}
	sel, err := LoadSelection(path)
	if err != nil {
		t.Fatal(err)
	}
	if sel.PromptID != 2 || sel.Version != "v2" || sel.SystemPrompt != p.System {
		t.Fatalf("LoadSelection() = %+v", sel)
	}
}
