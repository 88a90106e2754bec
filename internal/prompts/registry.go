package prompts

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"
	"sync"
	"text/template"
)

//go:embed templates/common/*.tmpl templates/agent/*.tmpl
var templateFS embed.FS

type registry struct {
	mu        sync.RWMutex
	templates map[PromptID]*template.Template
}

//nolint:gochecknoglobals // parsed once from the embedded filesystem
var globalRegistry = &registry{templates: make(map[PromptID]*template.Template)}

func funcMap() template.FuncMap {
	return template.FuncMap{
		"join": strings.Join,
		"hasContent": func(s string) bool {
			return strings.TrimSpace(s) != ""
		},
	}
}

//nolint:gochecknoinits // embedded templates are parsed at package init
func init() {
	if err := globalRegistry.load(templateFS); err != nil {
		panic(fmt.Sprintf("failed to load embedded templates: %v", err))
	}
}

// load parses every template under templates/, making the common/
// definitions available to all of them.
func (r *registry) load(fsys fs.FS) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	common := template.New("common").Funcs(funcMap())
	if _, err := common.ParseFS(fsys, "templates/common/*.tmpl"); err != nil {
		return fmt.Errorf("parsing common templates: %w", err)
	}

	return fs.WalkDir(fsys, "templates", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, ".tmpl") || strings.HasPrefix(p, "templates/common/") {
			return nil
		}

		content, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("reading template %s: %w", p, err)
		}

		id := pathToPromptID(p)
		base, err := common.Clone()
		if err != nil {
			return err
		}
		tmpl, err := base.New(string(id)).Parse(string(content))
		if err != nil {
			return fmt.Errorf("parsing template %s: %w", p, err)
		}
		r.templates[id] = tmpl
		return nil
	})
}

// pathToPromptID maps templates/agent/propose.tmpl to agent/propose.
func pathToPromptID(p string) PromptID {
	id := strings.TrimPrefix(p, "templates/")
	return PromptID(strings.TrimSuffix(id, path.Ext(id)))
}

func (r *registry) get(id PromptID) (*template.Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tmpl, ok := r.templates[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
	}
	return tmpl, nil
}

func (r *registry) list() []PromptID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]PromptID, 0, len(r.templates))
	for id := range r.templates {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
