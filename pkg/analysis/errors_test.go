package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrorTaxonomy: every typed failure unwraps to its package sentinel so
// callers can branch with errors.Is without matching message text.
func TestErrorTaxonomy(t *testing.T) {
	var err error = classifyErrf("no slack bus on island %d", 0)
	assert.ErrorIs(t, err, ErrClassification)
	assert.ErrorContains(t, err, "classification failed: no slack bus on island 0")

	err = assemblyErrf("numeric entry outside the %dx%d layout", 4, 4)
	assert.ErrorIs(t, err, ErrAssembly)
	assert.ErrorContains(t, err, "jacobian assembly failed: numeric entry outside the 4x4 layout")

	err = &SingularSystemError{Iteration: 3}
	assert.ErrorIs(t, err, ErrSingularSystem)
	assert.ErrorContains(t, err, "singular system at iteration 3")
}
