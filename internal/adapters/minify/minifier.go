// Package minify shrinks stylesheets, documents, scripts and vector images.
package minify

import (
	"bytes"
	"errors"
	"regexp"

	tdminify "github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
	"github.com/tdewolff/minify/v2/svg"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Minifier = (*Minifier)(nil)

// Minifier implements ports.Minifier.
type Minifier struct {
	m *tdminify.M
}

// New creates a Minifier for all media types in ports.
func New() *Minifier {
	m := tdminify.New()
	m.AddFunc(ports.MediaCSS, css.Minify)
	m.Add(ports.MediaHTML, &html.Minifier{
		KeepComments:        true,
		KeepDocumentTags:    true,
		KeepEndTags:         true,
		KeepQuotes:          true,
		KeepDefaultAttrVals: true,
	})
	// Identifiers are already mangled by the script minifier.
	m.Add(ports.MediaJS, &js.Minifier{KeepVarNames: true})
	m.AddFunc(ports.MediaSVG, svg.Minify)
	// Scripts inlined in documents carry legacy media types.
	m.AddRegexp(regexp.MustCompile("^(application|text)/(x-)?(java|ecma)script$"), &js.Minifier{KeepVarNames: true})
	return &Minifier{m: m}
}

// Minify minifies source of the given media type. source is never modified.
func (m *Minifier) Minify(mediaType string, source []byte) ([]byte, error) {
	// tdewolff rewrites its input in place when the slice has spare capacity.
	out, err := m.m.Bytes(mediaType, bytes.Clone(source))
	if err != nil {
		if errors.Is(err, tdminify.ErrNotExist) {
			return nil, zerr.With(zerr.Wrap(err, "unsupported media type"), "media_type", mediaType)
		}
		return nil, errors.Join(domain.ErrSourceSyntax, zerr.With(err, "media_type", mediaType))
	}
	return out, nil
}
