package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestStateSeeds: voltages start from the compile-time guesses and known
// slots take their setpoint values.
func TestStateSeeds(t *testing.T) {
	snap := mustCompile(t, pvGrid(t))
	sets := mustSets(t, snap)
	st := NewState(snap, sets)

	assert.Equal(t, []float64{1.0, 1.02}, st.Vm)
	assert.Equal(t, []float64{0, 0}, st.Va)
	assert.Equal(t, []float64{0, 0.3}, st.Pzip)
	assert.Empty(t, st.TapModule)
	assert.Equal(t, sets.NumCols, st.Size())
}

// TestStatePackUnpackRoundTrip: packing after unpacking returns the same
// vector bit for bit.
func TestStatePackUnpackRoundTrip(t *testing.T) {
	snap := mustCompile(t, pvGrid(t))
	sets := mustSets(t, snap)
	st := NewState(snap, sets)

	x := st.Pack()
	require.Len(t, x, sets.NumCols)
	for i := range x {
		x[i] += 0.1 * float64(i+1)
	}
	st.Unpack(x)

	assert.Equal(t, x, st.Pack())
}

// TestStateUnpackLeavesKnown: known slots never move, whatever the packed
// vector carries.
func TestStateUnpackLeavesKnown(t *testing.T) {
	snap := mustCompile(t, pvGrid(t))
	sets := mustSets(t, snap)
	st := NewState(snap, sets)

	x := st.Pack()
	for i := range x {
		x[i] = 9.9
	}
	st.Unpack(x)

	assert.Equal(t, 1.0, st.Vm[0])
	assert.Equal(t, 1.02, st.Vm[1])
	assert.Equal(t, 0.0, st.Va[0])
	assert.Equal(t, 0.3, st.Pzip[1])
	assert.Equal(t, 9.9, st.Qzip[0], "unknown slots do move")
}

// TestStateVoltagePhasors: DC buses keep a zero angle, so their phasors
// come out real.
func TestStateVoltagePhasors(t *testing.T) {
	snap := mustCompile(t, acdcGrid(t))
	sets := mustSets(t, snap)
	st := NewState(snap, sets)

	v := st.V()
	assert.Equal(t, 0.0, imag(v[2]))
	assert.Equal(t, 0.0, imag(v[3]))

	st.Va[1] = 0.1
	st.Vm[1] = 0.98
	v = st.V()
	assert.InDelta(t, 0.975104, real(v[1]), 1e-6)
	assert.InDelta(t, 0.097837, imag(v[1]), 1e-6)
}

// TestStateAdoptValues: migrating to rebuilt index sets copies the solve
// progress and re-pins the known slots.
func TestStateAdoptValues(t *testing.T) {
	snap := mustCompile(t, pvGrid(t))
	sets := mustSets(t, snap)

	src := NewState(snap, sets)
	src.Vm[0] = 1.7 // drifted known slot, must not survive the migration
	src.Va[1] = -0.05
	src.Qzip[0] = 0.42

	dst := NewState(snap, sets)
	dst.AdoptValues(src)

	assert.Equal(t, 1.0, dst.Vm[0], "known slot re-seeded")
	assert.Equal(t, -0.05, dst.Va[1])
	assert.Equal(t, 0.42, dst.Qzip[0])
}

// TestStateTapSeeds: tap state starts at the device tap and override
// entries win over it.
func TestStateTapSeeds(t *testing.T) {
	snap := mustCompile(t, tapVmGrid(t, 1.01))

	sets := mustSets(t, snap)
	st := NewState(snap, sets)
	assert.Equal(t, []float64{1.0}, st.TapModule)
	assert.Equal(t, []float64{0.0}, st.TapAngle)

	ov := &ControlOverrides{FixedTapModule: map[int]float64{0: 1.15}}
	clamped, err := BuildIndexSets(snap, ov, NewEventLog())
	require.NoError(t, err)
	st = NewState(snap, clamped)
	assert.Equal(t, []float64{1.15}, st.TapModule)
}
