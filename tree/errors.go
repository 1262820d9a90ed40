package tree

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// ErrInvalidInput marks a missing prompt, a non-positive branch count or a
// malformed tree.
var ErrInvalidInput = errors.New("invalid input")

// GenerationFailure reports that the Generator could not produce candidates for
// a prompt or leaf context. The whole build or expansion is abandoned.
type GenerationFailure struct {
	// Context is the prompt or joined root-to-leaf path that was sent.
	Context string
	Err     error
}

func (e *GenerationFailure) Error() string {
	return fmt.Sprintf("generation failed for %q: %v", truncate(e.Context, 80), e.Err)
}

func (e *GenerationFailure) Unwrap() error { return e.Err }

// IsGenerationFailure reports whether err carries a *GenerationFailure.
func IsGenerationFailure(err error) bool {
	var gf *GenerationFailure
	return errors.As(err, &gf)
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}
