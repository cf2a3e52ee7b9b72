// Package esbuild prefixes stylesheets and minifies scripts with the esbuild transform API.
package esbuild

import (
	"context"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

var (
	_ ports.Prefixer       = (*Transformer)(nil)
	_ ports.ScriptMinifier = (*Transformer)(nil)
)

// DefaultEngines is the browser baseline vendor prefixes are generated for.
var DefaultEngines = []api.Engine{
	{Name: api.EngineChrome, Version: "58"},
	{Name: api.EngineEdge, Version: "16"},
	{Name: api.EngineFirefox, Version: "57"},
	{Name: api.EngineSafari, Version: "11"},
	{Name: api.EngineIOS, Version: "11"},
}

// Transformer implements ports.Prefixer and ports.ScriptMinifier.
type Transformer struct {
	engines []api.Engine
}

// NewTransformer creates a Transformer targeting the given engines, or DefaultEngines when empty.
func NewTransformer(engines ...api.Engine) *Transformer {
	if len(engines) == 0 {
		engines = DefaultEngines
	}
	return &Transformer{engines: engines}
}

// Prefix rewrites css with the vendor prefixes required by the target engines.
func (t *Transformer) Prefix(ctx context.Context, path string, css []byte) ([]byte, error) {
	return t.transform(ctx, path, css, api.TransformOptions{
		Loader:  api.LoaderCSS,
		Engines: t.engines,
	})
}

// MinifyScript compresses and mangles a script. License comments are dropped.
func (t *Transformer) MinifyScript(ctx context.Context, path string, source []byte) ([]byte, error) {
	return t.transform(ctx, path, source, api.TransformOptions{
		Loader:            api.LoaderJS,
		Engines:           t.engines,
		MinifyWhitespace:  true,
		MinifyIdentifiers: true,
		MinifySyntax:      true,
		LegalComments:     api.LegalCommentsNone,
	})
}

func (t *Transformer) transform(ctx context.Context, path string, source []byte, opts api.TransformOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	opts.Sourcefile = path
	opts.LogLevel = api.LogLevelSilent

	res := api.Transform(string(source), opts)
	if len(res.Errors) > 0 {
		return nil, domain.SourceError(path, messageError(res.Errors[0]))
	}
	return res.Code, nil
}

func messageError(msg api.Message) error {
	err := zerr.New(strings.TrimSpace(msg.Text))
	if loc := msg.Location; loc != nil {
		err = zerr.With(err, "line", loc.Line)
		err = zerr.With(err, "column", loc.Column)
	}
	return err
}
