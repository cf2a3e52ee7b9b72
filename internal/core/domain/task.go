package domain

// TaskKind selects the transformation a task performs.
type TaskKind string

const (
	// KindClean removes the output root.
	KindClean TaskKind = "clean"
	// KindScripts concatenates and minifies scripts.
	KindScripts TaskKind = "scripts"
	// KindStyles compiles, prefixes and minifies stylesheets.
	KindStyles TaskKind = "styles"
	// KindTemplates renders templates to HTML.
	KindTemplates TaskKind = "templates"
	// KindSvgs minifies SVG images.
	KindSvgs TaskKind = "svgs"
)

// ProducerKinds lists the kinds that write artifacts, in graph registration order.
var ProducerKinds = []TaskKind{KindScripts, KindStyles, KindTemplates, KindSvgs}

// Task represents a unit of work in the build graph.
type Task struct {
	Name         string
	Kind         TaskKind
	Dependencies []string
}

