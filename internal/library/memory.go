// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package library

import (
	"context"
	"fmt"

	"github.com/pdiddy/shotgun-csp/pkg/types"
)

// Memory is an in-memory template library. It backs tests and embedders that
// assemble a fixed template set without a database file (R4.1). Memory is
// read-only after construction and safe for concurrent queries.
type Memory struct {
	templates []types.Template
	patterns  []string // pattern per template, same order
}

// NewMemory builds an in-memory library from the given templates, preserving
// their order. Templates whose pattern cannot be computed are rejected.
func NewMemory(templates ...types.Template) (*Memory, error) {
	m := &Memory{
		templates: make([]types.Template, len(templates)),
		patterns:  make([]string, len(templates)),
	}
	for i, tmpl := range templates {
		pattern, err := tmpl.Pattern()
		if err != nil {
			return nil, fmt.Errorf("template %s: %w", tmpl.ID, err)
		}
		m.templates[i] = tmpl
		m.patterns[i] = pattern
	}
	return m, nil
}

// TemplatesByPattern returns templates matching pattern in insertion order,
// at most limit (all when limit ≤ 0). No match returns ErrNoTemplate.
func (m *Memory) TemplatesByPattern(_ context.Context, pattern string, limit int) ([]types.Template, error) {
	var out []types.Template
	for i, p := range m.patterns {
		if p != pattern {
			continue
		}
		out = append(out, m.templates[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: pattern %s", ErrNoTemplate, pattern)
	}
	return out, nil
}
