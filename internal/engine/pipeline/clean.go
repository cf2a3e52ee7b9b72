package pipeline

import (
	"errors"
	"os"
	"path/filepath"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

// clean removes the output root. It refuses roots that contain the project or its sources.
func clean(cfg *domain.Config) error {
	out := filepath.Clean(cfg.Paths.Output)
	for _, protected := range []string{cfg.Root, cfg.Paths.Input} {
		if protected != "" && domain.IsWithin(out, filepath.Clean(protected)) {
			cause := zerr.With(zerr.New("output root contains a protected directory"), "output", out)
			return errors.Join(domain.ErrUnsafeOutput, zerr.With(cause, "protected", protected))
		}
	}

	if err := os.RemoveAll(out); err != nil {
		return domain.IOError(out, err)
	}
	return nil
}
