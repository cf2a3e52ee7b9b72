// Package sass compiles SCSS through the Dart Sass embedded protocol.
package sass

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bep/godartsass/v2"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	// BinaryEnv overrides the Dart Sass executable.
	BinaryEnv = "DART_SASS_BINARY"
	// DefaultBinary is looked up on PATH when BinaryEnv is unset.
	DefaultBinary = "sass"

	compileTimeout = 30 * time.Second
)

var _ ports.StyleCompiler = (*Compiler)(nil)

// Compiler implements ports.StyleCompiler. The Dart Sass process is started on first use
// and shared by all callers.
type Compiler struct {
	binary string
	logger ports.Logger

	mu         sync.Mutex
	transpiler *godartsass.Transpiler
}

// NewCompiler creates a Compiler for the given Dart Sass executable.
func NewCompiler(binary string, logger ports.Logger) *Compiler {
	if binary == "" {
		binary = DefaultBinary
	}
	return &Compiler{binary: binary, logger: logger}
}

// Compile compiles source to expanded CSS.
func (c *Compiler) Compile(ctx context.Context, path string, source []byte, includePaths []string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t, err := c.start()
	if err != nil {
		return nil, err
	}

	res, err := t.Execute(godartsass.Args{
		Source:       string(source),
		URL:          "file://" + filepath.ToSlash(path),
		SourceSyntax: syntaxOf(path),
		OutputStyle:  godartsass.OutputStyleExpanded,
		IncludePaths: append([]string{filepath.Dir(path)}, includePaths...),
	})
	if err != nil {
		return nil, classify(path, err)
	}

	css := res.CSS
	if css != "" && !strings.HasSuffix(css, "\n") {
		css += "\n"
	}
	return []byte(css), nil
}

// Close stops the Dart Sass process if it was started.
func (c *Compiler) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.transpiler == nil {
		return nil
	}
	err := c.transpiler.Close()
	c.transpiler = nil
	return err
}

func (c *Compiler) start() (*godartsass.Transpiler, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.transpiler != nil && !c.transpiler.IsShutDown() {
		return c.transpiler, nil
	}

	t, err := godartsass.Start(godartsass.Options{
		DartSassEmbeddedFilename: c.binary,
		Timeout:                  compileTimeout,
		LogEventHandler:          c.onLogEvent,
	})
	if err != nil {
		return nil, domain.IOError(c.binary, zerr.Wrap(err, "failed to start dart sass"))
	}
	c.transpiler = t
	return t, nil
}

func (c *Compiler) onLogEvent(e godartsass.LogEvent) {
	if c.logger == nil {
		return
	}
	c.logger.Warn("sass: " + strings.TrimSpace(e.Message))
}

func classify(path string, err error) error {
	var sassErr godartsass.SassError
	if errors.As(err, &sassErr) {
		return domain.SourceError(path, zerr.New(sassErr.Message))
	}
	return domain.IOError(path, err)
}

func syntaxOf(path string) godartsass.SourceSyntax {
	switch filepath.Ext(path) {
	case ".sass":
		return godartsass.SourceSyntaxSASS
	case ".css":
		return godartsass.SourceSyntaxCSS
	default:
		return godartsass.SourceSyntaxSCSS
	}
}

// BinaryFromEnv returns the configured Dart Sass executable.
func BinaryFromEnv() string {
	if b := os.Getenv(BinaryEnv); b != "" {
		return b
	}
	return DefaultBinary
}
