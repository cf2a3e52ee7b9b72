package ports

import "context"

// Media types understood by Minifier.
const (
	MediaCSS  = "text/css"
	MediaHTML = "text/html"
	MediaJS   = "application/javascript"
	MediaSVG  = "image/svg+xml"
)

// StyleCompiler compiles a stylesheet source to expanded CSS.
//
//go:generate mockgen -source=transform.go -destination=mocks/mock_transform.go -package=mocks
type StyleCompiler interface {
	// Compile compiles source, read from path, whose imports resolve against includePaths.
	Compile(ctx context.Context, path string, source []byte, includePaths []string) ([]byte, error)
}

// Prefixer adds vendor prefixes to CSS.
type Prefixer interface {
	Prefix(ctx context.Context, path string, css []byte) ([]byte, error)
}

// ScriptMinifier minifies JavaScript.
type ScriptMinifier interface {
	MinifyScript(ctx context.Context, path string, source []byte) ([]byte, error)
}

// Minifier minifies documents of the media types above.
type Minifier interface {
	Minify(mediaType string, source []byte) ([]byte, error)
}

// TemplateRenderer renders a template with data.
type TemplateRenderer interface {
	// Render renders the template at name, relative to root, with data.
	Render(ctx context.Context, root, name string, data map[string]any) ([]byte, error)
}
