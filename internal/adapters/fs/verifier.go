package fs

import (
	"go.trai.ch/kiln/internal/core/ports"
)

var _ ports.Verifier = (*Verifier)(nil)

// Verifier checks that declared outputs exist after a step ran.
type Verifier struct {
	resolver ports.PathResolver
}

// NewVerifier creates a new Verifier.
func NewVerifier(resolver ports.PathResolver) *Verifier {
	return &Verifier{resolver: resolver}
}

// VerifyOutputs returns the patterns under root that match no file, in declaration order.
func (v *Verifier) VerifyOutputs(root string, outputs []string) ([]string, error) {
	var missing []string
	for _, output := range outputs {
		matches, err := v.resolver.Resolve([]string{output}, root)
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			missing = append(missing, output)
		}
	}
	return missing, nil
}
