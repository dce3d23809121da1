package matrix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSystemSolve: a dense 2x2 system with a known solution, stamped with
// 1-based indices.
func TestSystemSolve(t *testing.T) {
	sys := NewSystem(2)
	require.NotNil(t, sys)
	defer sys.Destroy()

	sys.AddElement(1, 1, 2)
	sys.AddElement(1, 2, 1)
	sys.AddElement(2, 1, 1)
	sys.AddElement(2, 2, 3)
	sys.AddRHS(1, 5)
	sys.AddRHS(2, 10)

	require.NoError(t, sys.Solve())
	sol := sys.Solution()
	assert.InDelta(t, 1.0, sol[1], 1e-12)
	assert.InDelta(t, 3.0, sol[2], 1e-12)
}

// TestSystemAccumulates: repeated stamps on one position add up, and
// out-of-range stamps are dropped instead of corrupting neighbors.
func TestSystemAccumulates(t *testing.T) {
	sys := NewSystem(2)
	require.NotNil(t, sys)
	defer sys.Destroy()

	sys.AddElement(1, 1, 1.5)
	sys.AddElement(1, 1, 0.5)
	sys.AddElement(2, 2, 1)
	sys.AddElement(0, 1, 99)
	sys.AddElement(3, 1, 99)
	sys.AddRHS(1, 4)
	sys.AddRHS(2, 7)
	sys.AddRHS(0, 99)

	require.NoError(t, sys.Solve())
	sol := sys.Solution()
	assert.InDelta(t, 2.0, sol[1], 1e-12)
	assert.InDelta(t, 7.0, sol[2], 1e-12)
}

// TestSystemClear: a cleared system solves a fresh set of equations.
func TestSystemClear(t *testing.T) {
	sys := NewSystem(2)
	require.NotNil(t, sys)
	defer sys.Destroy()

	sys.AddElement(1, 1, 2)
	sys.AddElement(2, 2, 2)
	sys.AddRHS(1, 2)
	sys.AddRHS(2, 2)
	require.NoError(t, sys.Solve())

	sys.Clear()
	sys.AddElement(1, 1, 1)
	sys.AddElement(2, 2, 1)
	sys.AddRHS(1, 7)
	sys.AddRHS(2, 8)
	require.NoError(t, sys.Solve())

	sol := sys.Solution()
	assert.InDelta(t, 7.0, sol[1], 1e-12)
	assert.InDelta(t, 8.0, sol[2], 1e-12)
}

// TestAdmittance: stamps accumulate per position, reads are 0-based.
func TestAdmittance(t *testing.T) {
	y := NewAdmittance(3)
	assert.Equal(t, 3, y.Size())

	y.AddElement(0, 0, 1+1i)
	y.AddElement(0, 0, 1-1i)
	y.AddElement(0, 1, 1)
	y.AddElement(1, 1, 1i)
	y.AddElement(2, 2, 1+1i)
	y.AddElement(5, 0, 99) // dropped

	assert.Equal(t, complex(2, 0), y.At(0, 0))
	assert.Equal(t, complex(1, 0), y.At(0, 1))
	assert.Equal(t, complex(0, 0), y.At(1, 0))
}

func TestAdmittanceMulVec(t *testing.T) {
	y := NewAdmittance(3)
	y.AddElement(0, 0, 2)
	y.AddElement(0, 1, 1)
	y.AddElement(1, 1, 1i)
	y.AddElement(2, 2, 1+1i)

	v := []complex128{1, 2, 1i}
	out := make([]complex128, 3)
	y.MulVec(v, out)

	assert.Equal(t, complex(4, 0), out[0])
	assert.Equal(t, complex(0, 2), out[1])
	assert.Equal(t, complex(-1, 1), out[2])

	// A length mismatch leaves the output untouched.
	y.MulVec(v[:2], out)
	assert.Equal(t, complex(4, 0), out[0])
}
