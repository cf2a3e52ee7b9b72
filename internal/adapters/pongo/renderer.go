// Package pongo renders Jinja and Nunjucks style templates with pongo2.
package pongo

import (
	"context"
	"errors"
	"path/filepath"
	"sync"

	"github.com/flosch/pongo2/v6"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.TemplateRenderer = (*Renderer)(nil)

// Renderer implements ports.TemplateRenderer with one template set per root directory.
// Sets run in debug mode so edits are picked up without a restart.
type Renderer struct {
	mu   sync.Mutex
	sets map[string]*templateSet
}

// templateSet guards a pongo2 set, whose loading path is not safe for concurrent use.
type templateSet struct {
	mu  sync.Mutex
	set *pongo2.TemplateSet
}

func (s *templateSet) fromFile(name string) (*pongo2.Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set.FromFile(name)
}

// NewRenderer creates a new Renderer.
func NewRenderer() *Renderer {
	return &Renderer{sets: make(map[string]*templateSet)}
}

// Render renders the template name, relative to root, with data.
func (r *Renderer) Render(ctx context.Context, root, name string, data map[string]any) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	set, err := r.set(root)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(root, name)
	tpl, err := set.fromFile(filepath.ToSlash(name))
	if err != nil {
		return nil, classify(path, err)
	}

	out, err := tpl.ExecuteBytes(pongo2.Context(data))
	if err != nil {
		return nil, classify(path, err)
	}
	return out, nil
}

func (r *Renderer) set(root string) (*templateSet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if set, ok := r.sets[root]; ok {
		return set, nil
	}

	loader, err := pongo2.NewLocalFileSystemLoader(root)
	if err != nil {
		return nil, errors.Join(domain.ErrMissingInput, zerr.With(err, "path", root))
	}
	set := pongo2.NewSet("kiln:"+root, loader)
	set.Debug = true
	ts := &templateSet{set: set}
	r.sets[root] = ts
	return ts, nil
}

func classify(path string, err error) error {
	var perr *pongo2.Error
	if errors.As(err, &perr) {
		msg := perr.Error()
		if perr.OrigError != nil {
			msg = perr.OrigError.Error()
		}
		cause := zerr.New(msg)
		if perr.Line > 0 {
			cause = zerr.With(cause, "line", perr.Line)
			cause = zerr.With(cause, "column", perr.Column)
		}
		return domain.SourceError(path, cause)
	}
	return domain.IOError(path, err)
}
