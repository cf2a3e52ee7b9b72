package ports

// InputResolver defines the interface for resolving source files.
//
//go:generate mockgen -destination=mocks/resolver_mock.go -package=mocks -source=resolver.go
type InputResolver interface {
	// ResolveInputs returns the files under root matching any include pattern and
	// no exclude pattern, sorted. Directories are returned only when dirs is true.
	ResolveInputs(root string, include, exclude []string, dirs bool) ([]string, error)
}
