package minify_test

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/minify"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
)

func TestMinify(t *testing.T) {
	m := minify.New()

	tests := []struct {
		name      string
		mediaType string
		in        string
		contains  []string
		absent    []string
	}{
		{
			name:      "css drops comments and whitespace",
			mediaType: ports.MediaCSS,
			in:        "/* layout */\n.a {\n  color: #ff0000;\n  margin: 0px;\n}\n",
			contains:  []string{".a{", "color:red"},
			absent:    []string{"layout", "\n"},
		},
		{
			name:      "html collapses whitespace",
			mediaType: ports.MediaHTML,
			in:        "<!doctype html>\n<html>\n  <body>\n    <!-- nav -->\n    <p>   Home   </p>\n  </body>\n</html>\n",
			contains:  []string{"<p>Home</p>", "<html>", "</body>", "<!-- nav -->"},
			absent:    []string{"\n  "},
		},
		{
			name:      "js keeps names",
			mediaType: ports.MediaJS,
			in:        "var longName = 1;\nconsole.log( longName );\n",
			contains:  []string{"longName"},
			absent:    []string{"\n"},
		},
		{
			name:      "svg",
			mediaType: ports.MediaSVG,
			in:        "<svg xmlns=\"http://www.w3.org/2000/svg\">\n  <!-- icon -->\n  <rect width=\"10\" height=\"10\"/>\n</svg>\n",
			contains:  []string{"<svg", "rect"},
			absent:    []string{"icon"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := m.Minify(tt.mediaType, []byte(tt.in))
			require.NoError(t, err)
			assert.LessOrEqual(t, len(out), len(tt.in))
			for _, s := range tt.contains {
				assert.Contains(t, string(out), s)
			}
			for _, s := range tt.absent {
				assert.NotContains(t, string(out), s)
			}
		})
	}
}

func TestMinify_LeavesSourceUntouched(t *testing.T) {
	m := minify.New()

	inputs := map[string]string{
		ports.MediaCSS:  ".a { padding: 1.50em; margin: 0px; }\n",
		ports.MediaJS:   "var padding = 1.50;\n",
		ports.MediaSVG:  "<svg xmlns=\"http://www.w3.org/2000/svg\"><rect width=\"1.50\"/></svg>\n",
		ports.MediaHTML: "<p>   Home   </p>\n",
	}
	for mediaType, in := range inputs {
		t.Run(mediaType, func(t *testing.T) {
			// Spare capacity lets an in-place rewrite go unnoticed by len.
			source := make([]byte, len(in), 2*len(in))
			copy(source, in)

			_, err := m.Minify(mediaType, source)
			require.NoError(t, err)
			assert.Equal(t, in, string(source))
		})
	}
}

func TestMinify_UnknownMediaType(t *testing.T) {
	_, err := minify.New().Minify("application/x-unknown", []byte("x"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrSourceSyntax)
}

func TestMinify_ScriptSyntaxError(t *testing.T) {
	_, err := minify.New().Minify(ports.MediaJS, []byte("function ("))
	require.ErrorIs(t, err, domain.ErrSourceSyntax)
}

func TestMinify_CSSNeverGrows(t *testing.T) {
	m := minify.New()
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("minified css is not longer than its input", prop.ForAll(
		func(class, comment string, indent int) bool {
			in := "/* " + comment + " */\n." + class + " {\n" + strings.Repeat(" ", indent) + "color: blue;\n}\n"
			out, err := m.Minify(ports.MediaCSS, []byte(in))
			return err == nil && len(out) <= len(in)
		},
		gen.Identifier(),
		gen.Identifier(),
		gen.IntRange(0, 8),
	))

	properties.TestingRun(t)
}
