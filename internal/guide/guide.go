// Package guide loads study-guide definitions: the modules a guide covers,
// its concept list and the study content handed to question generation.
package guide

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/abhisek/prepfunnel/internal/funnel"
)

// Guide is one study guide.
type Guide struct {
	ID          string             `yaml:"id" validate:"required"`
	Title       string             `yaml:"title"`
	Modules     []funnel.ModuleRef `yaml:"modules" validate:"required,min=1,dive"`
	Concepts    []string           `yaml:"concepts" validate:"dive,required"`
	Content     string             `yaml:"content" validate:"required_without=ContentFile"`
	ContentFile string             `yaml:"content_file"`
}

var validate = validator.New()

// Load reads a guide file. content_file is resolved relative to the guide
// and replaces the inline content.
func Load(path string) (*Guide, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read guide: %w", err)
	}
	g, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if g.ContentFile != "" {
		cp := g.ContentFile
		if !filepath.IsAbs(cp) {
			cp = filepath.Join(filepath.Dir(path), cp)
		}
		body, err := os.ReadFile(cp)
		if err != nil {
			return nil, fmt.Errorf("read guide content: %w", err)
		}
		g.Content = string(body)
	}
	return g, nil
}

// Parse decodes and validates a guide body. Modules without a guide id
// inherit the guide's own id.
func Parse(data []byte) (*Guide, error) {
	var g Guide
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&g); err != nil {
		return nil, fmt.Errorf("decode guide: %w", err)
	}

	g.ID = strings.TrimSpace(g.ID)
	for i := range g.Modules {
		if g.Modules[i].GuideID == "" {
			g.Modules[i].GuideID = g.ID
		}
	}
	g.Concepts = dedupeConcepts(g.Concepts)

	if err := validate.Struct(g); err != nil {
		return nil, fmt.Errorf("invalid guide: %w", err)
	}
	return &g, nil
}

// Scope returns the funnel scope covering every module of the guide.
func (g *Guide) Scope() funnel.Scope {
	return funnel.Scope{Modules: append([]funnel.ModuleRef(nil), g.Modules...)}
}

// Restrict narrows the scope to the named modules. Unknown ids are an error.
func (g *Guide) Restrict(moduleIDs []string) (funnel.Scope, error) {
	if len(moduleIDs) == 0 {
		return g.Scope(), nil
	}
	byID := make(map[string]funnel.ModuleRef, len(g.Modules))
	for _, m := range g.Modules {
		byID[m.ModuleID] = m
	}
	var s funnel.Scope
	for _, id := range moduleIDs {
		m, ok := byID[id]
		if !ok {
			return funnel.Scope{}, fmt.Errorf("guide %s has no module %q", g.ID, id)
		}
		s.Modules = append(s.Modules, m)
	}
	return s, nil
}

func dedupeConcepts(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, c := range in {
		c = strings.TrimSpace(c)
		key := strings.ToLower(c)
		if c == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out
}
