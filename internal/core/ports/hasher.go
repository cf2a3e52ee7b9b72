package ports

// Hasher defines the interface for computing content hashes.
//
//go:generate mockgen -destination=mocks/hasher_mock.go -package=mocks -source=hasher.go
type Hasher interface {
	// ComputeFileHash returns the hash of a single file's content.
	ComputeFileHash(path string) (uint64, error)
	// ComputeOutputHash returns one hash over the given files, relative to root.
	ComputeOutputHash(outputs []string, root string) (string, error)
}
