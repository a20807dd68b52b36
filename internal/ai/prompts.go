package ai

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var builtinPrompts []byte

//go:embed registry.schema.json
var registrySchema []byte

var compileSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	if err := c.AddResource("registry.schema.json", bytes.NewReader(registrySchema)); err != nil {
		return nil, err
	}
	return c.Compile("registry.schema.json")
})

// Prompt is one system instruction variant.
type Prompt struct {
	ID      int
	Version string
	System  string
}

type promptEntry struct {
	ID      int    `yaml:"id"`
	System  string `yaml:"SI"`
	Version string `yaml:"version"`
}

type Registry struct {
	prompts map[int]Prompt
}

// LoadRegistry reads a YAML or JSON registry file. An empty path loads the
// built-in instructions.
func LoadRegistry(path string) (*Registry, error) {
	if path == "" {
		return ParseRegistry(builtinPrompts)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompt registry: %w", err)
	}
	r, err := ParseRegistry(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// ParseRegistry validates data against the registry schema and indexes it
// by ID. Entries without an ID get their 1-based position.
func ParseRegistry(data []byte) (*Registry, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse prompt registry: %w", err)
	}
	js, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("parse prompt registry: %w", err)
	}
	var doc any
	if err := json.Unmarshal(js, &doc); err != nil {
		return nil, fmt.Errorf("parse prompt registry: %w", err)
	}
	schema, err := compileSchema()
	if err != nil {
		return nil, fmt.Errorf("compile registry schema: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("invalid prompt registry: %w", err)
	}

	var entries []promptEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse prompt registry: %w", err)
	}
	r := &Registry{prompts: make(map[int]Prompt, len(entries))}
	for i, e := range entries {
		id := e.ID
		if id == 0 {
			id = i + 1
		}
		if _, dup := r.prompts[id]; dup {
			return nil, fmt.Errorf("duplicate prompt ID %d", id)
		}
		r.prompts[id] = Prompt{ID: id, Version: e.Version, System: e.System}
	}
	return r, nil
}

func (r *Registry) Get(id int) (Prompt, error) {
	p, ok := r.prompts[id]
	if !ok {
		return Prompt{}, fmt.Errorf("unknown prompt ID: %d", id)
	}
	return p, nil
}

// List returns the prompts ordered by ID.
func (r *Registry) List() []Prompt {
	out := make([]Prompt, 0, len(r.prompts))
	for _, p := range r.prompts {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Selection is the persisted choice of prompt.
type Selection struct {
	SelectedAt   string `json:"selected_at_utc"`
	PromptID     int    `json:"prompt_id"`
	Version      string `json:"version"`
	SystemPrompt string `json:"system_prompt"`
}

var ErrNoSelection = errors.New("no prompt selected")

// SaveSelection writes the selection artifact for p at path.
func SaveSelection(path string, p Prompt, now time.Time) (Selection, error) {
	sel := Selection{
		SelectedAt:   now.UTC().Format(time.RFC3339),
		PromptID:     p.ID,
		Version:      p.Version,
		SystemPrompt: p.System,
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return sel, fmt.Errorf("create selection directory: %w", err)
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(sel); err != nil {
		return sel, err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return sel, fmt.Errorf("write selection: %w", err)
	}
	return sel, nil
}

// LoadSelection reads a selection artifact. A missing file yields
// ErrNoSelection.
func LoadSelection(path string) (Selection, error) {
	var sel Selection
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return sel, ErrNoSelection
		}
		return sel, fmt.Errorf("read selection: %w", err)
	}
	if err := json.Unmarshal(data, &sel); err != nil {
		return sel, fmt.Errorf("parse selection %s: %w", path, err)
	}
	if sel.SystemPrompt == "" {
		return sel, fmt.Errorf("selection %s has no system prompt", path)
	}
	return sel, nil
}
