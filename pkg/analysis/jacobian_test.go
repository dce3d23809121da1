package analysis

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toy-powerflow/pkg/circuit"
	"toy-powerflow/pkg/device"
)

// TestTripletsAccumulate: repeated positions sum, zeros are dropped and
// out-of-range entries poison the build.
func TestTripletsAccumulate(t *testing.T) {
	trip := NewTriplets(3)
	trip.Add(0, 0, 2)
	trip.Add(0, 0, 3)
	trip.Add(1, 2, 1.5)
	trip.Add(2, 2, 0) // dropped

	require.Len(t, trip.Vals, 3)
	d := trip.ToDense()
	assert.Equal(t, 5.0, d.At(0, 0))
	assert.Equal(t, 1.5, d.At(1, 2))
	assert.Equal(t, 0.0, d.At(2, 2))
	assert.False(t, trip.oob)

	trip.Add(-1, 0, 1)
	assert.True(t, trip.oob)

	trip2 := NewTriplets(3)
	trip2.Add(3, 0, 1)
	assert.True(t, trip2.oob)
}

// TestProbeSingular: exact determinant for small systems, condition
// estimate for larger ones.
func TestProbeSingular(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		assert.True(t, probeSingular(NewTriplets(0)))
	})

	t.Run("small identity", func(t *testing.T) {
		trip := NewTriplets(3)
		for i := 0; i < 3; i++ {
			trip.Add(i, i, 1)
		}
		assert.False(t, probeSingular(trip))
	})

	t.Run("small zero row", func(t *testing.T) {
		trip := NewTriplets(3)
		trip.Add(0, 0, 1)
		trip.Add(1, 1, 1)
		assert.True(t, probeSingular(trip))
	})

	t.Run("small near zero pivot", func(t *testing.T) {
		trip := NewTriplets(3)
		trip.Add(0, 0, 1)
		trip.Add(1, 1, 1)
		trip.Add(2, 2, 1e-13)
		assert.True(t, probeSingular(trip))
	})

	t.Run("large identity", func(t *testing.T) {
		trip := NewTriplets(12)
		for i := 0; i < 12; i++ {
			trip.Add(i, i, 1)
		}
		assert.False(t, probeSingular(trip))
	})

	t.Run("large dependent rows", func(t *testing.T) {
		trip := NewTriplets(12)
		for i := 0; i < 12; i++ {
			if i == 7 {
				continue
			}
			trip.Add(i, i, 1)
		}
		trip.Add(7, 5, 1) // duplicates row 5
		assert.True(t, probeSingular(trip))
	})
}

// TestSymbolicMatchesNumeric: the closed-form partials agree with central
// differences on every grid family, away from the flat start.
func TestSymbolicMatchesNumeric(t *testing.T) {
	tests := []struct {
		name  string
		build func(t *testing.T) *circuit.Circuit
	}{
		{"feeder", func(t *testing.T) *circuit.Circuit { return feederGrid(t, 0.02) }},
		{"pv", pvGrid},
		{"remote", remoteGrid},
		{"acdc", acdcGrid},
		{"hvdc scheduled", func(t *testing.T) *circuit.Circuit { return hvdcGrid(t, device.HvdcPset) }},
		{"hvdc droop", func(t *testing.T) *circuit.Circuit { return hvdcGrid(t, device.HvdcFree) }},
		{"tap vm", func(t *testing.T) *circuit.Circuit { return tapVmGrid(t, 1.01) }},
		{"dispatch", dispatchGrid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := mustCompile(t, tt.build(t))
			sets := mustSets(t, snap)
			st := NewState(snap, sets)

			x := st.Pack()
			for i := range x {
				x[i] += 0.01 * float64(i%7+1) / 7
			}
			st.Unpack(x)

			compareJacobians(t, snap, sets, st)
		})
	}
}

// TestSymbolicMatchesNumericAtLossKink: the converter current magnitude is
// not differentiable at zero; both strategies must agree on the one-sided
// value used there.
func TestSymbolicMatchesNumericAtLossKink(t *testing.T) {
	snap := mustCompile(t, acdcGrid(t))
	sets := mustSets(t, snap)
	st := NewState(snap, sets)

	compareJacobians(t, snap, sets, st)
}

func compareJacobians(t *testing.T, snap *circuit.Snapshot, sets *IndexSets, st *State) {
	t.Helper()

	sym, err := SymbolicJacobian{}.Build(snap, sets, st)
	require.NoError(t, err)
	num, err := NumericJacobian{}.Build(snap, sets, st)
	require.NoError(t, err)

	ds := sym.ToDense()
	dn := num.ToDense()
	for i := 0; i < sets.NumRows; i++ {
		for j := 0; j < sets.NumCols; j++ {
			assert.InDelta(t, dn.At(i, j), ds.At(i, j), 1e-5,
				fmt.Sprintf("entry (%d,%d)", i, j))
		}
	}
}

// TestNumericStepDefault: a zero step falls back to the built-in one.
func TestNumericStepDefault(t *testing.T) {
	snap := mustCompile(t, feederGrid(t, 0))
	sets := mustSets(t, snap)
	st := NewState(snap, sets)

	trip, err := NumericJacobian{Step: 0}.Build(snap, sets, st)
	require.NoError(t, err)
	assert.NotEmpty(t, trip.Vals)
}
