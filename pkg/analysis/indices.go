package analysis

import (
	"fmt"
	"math/cmplx"

	"toy-powerflow/pkg/circuit"
	"toy-powerflow/pkg/device"
)

// Quantity identifies one physical category of the state layout. The order
// of the constants is the canonical packing order of the state vector.
type Quantity int

const (
	QuantityVm Quantity = iota
	QuantityVa
	QuantityPzip
	QuantityQzip
	QuantityPfrom
	QuantityPto
	QuantityQfrom
	QuantityQto
	QuantityTapModule
	QuantityTapAngle
	numQuantities
)

func (q Quantity) String() string {
	switch q {
	case QuantityVm:
		return "Vm"
	case QuantityVa:
		return "Va"
	case QuantityPzip:
		return "Pzip"
	case QuantityQzip:
		return "Qzip"
	case QuantityPfrom:
		return "Pfrom"
	case QuantityPto:
		return "Pto"
	case QuantityQfrom:
		return "Qfrom"
	case QuantityQto:
		return "Qto"
	case QuantityTapModule:
		return "TapModule"
	case QuantityTapAngle:
		return "TapAngle"
	}
	return fmt.Sprintf("Quantity(%d)", int(q))
}

// BusFlags are the four boundary-condition markers of one bus. A set flag
// means the quantity is specified by the bus itself; voltage pins placed by
// branch devices live in the index sets only.
type BusFlags struct {
	P  bool
	Q  bool
	Vm bool
	Va bool
}

func (f BusFlags) count() int {
	n := 0
	if f.P {
		n++
	}
	if f.Q {
		n++
	}
	if f.Vm {
		n++
	}
	if f.Va {
		n++
	}
	return n
}

// KnownEntry fixes one slot of a category at a setpoint (p.u., rad).
type KnownEntry struct {
	Slot  int
	Value float64
}

// SetpointRow is one passive-branch flow equation.
type SetpointRow struct {
	Line  int // index into Snapshot.Lines
	Kind  Quantity
	Row   int
	Value float64 // p.u.
}

// ControlOverrides carries mid-solve control conversions into a rebuild of
// the index sets: taps clamped at a limit and generators switched to a
// reactive limit.
type ControlOverrides struct {
	FixedTapModule map[int]float64 // controllable transformer ordinal -> m
	FixedTapAngle  map[int]float64 // controllable transformer ordinal -> tau
	FixedGenQ      map[int]float64 // generator index -> Q at limit (MVAr)
}

// IndexSets is the classifier output: per-category known and unknown sets,
// the bus flags, and the row and column layout shared by the residual and
// the Jacobian.
type IndexSets struct {
	NumBus int

	Flags        []BusFlags
	IsSlack      []bool // effective, includes a promoted slack
	RemoteTarget []bool
	RemoteSource []bool
	Dispatch     []bool

	Known   [numQuantities][]KnownEntry
	Unknown [numQuantities][]int

	// Column of each slot in the packed state vector, -1 when known or
	// absent. Bus-keyed except the tap maps, which run over CtrlTrafos.
	ColVm        []int
	ColVa        []int
	ColPzip      []int
	ColQzip      []int
	ColPfrom     []int
	ColPto       []int
	ColQfrom     []int
	ColQto       []int
	ColTapModule []int
	ColTapAngle  []int

	// Row layout. RowBusQ is -1 for DC buses. RowTrafo is the first of four
	// consecutive rows per controllable transformer.
	RowBusP     []int
	RowBusQ     []int
	RowVscLoss  []int
	RowHvdcLoss []int
	RowHvdcInj  []int
	RowTrafo    []int
	Setpoints   []SetpointRow

	// CtrlTrafos holds the indices of the controllable transformers in
	// Snapshot.Transformers, in declaration order.
	CtrlTrafos []int

	NumRows int
	NumCols int
}

// BuildIndexSets classifies the snapshot's boundary conditions into known
// and unknown sets and lays out the square system. A nil overrides pointer
// means no mid-solve conversions.
func BuildIndexSets(snap *circuit.Snapshot, ov *ControlOverrides, log *EventLog) (*IndexSets, error) {
	c := newClassifier(snap, ov, log)

	if err := c.chooseSlack(); err != nil {
		return nil, err
	}
	c.initFlags()
	if err := c.classifyGenerators(); err != nil {
		return nil, err
	}
	if err := c.classifyShunts(); err != nil {
		return nil, err
	}
	if err := c.classifyTransformers(); err != nil {
		return nil, err
	}
	if err := c.classifyConverters(); err != nil {
		return nil, err
	}
	if err := c.classifyHvdc(); err != nil {
		return nil, err
	}
	if err := c.collectLineSetpoints(); err != nil {
		return nil, err
	}
	if err := c.validateFlags(); err != nil {
		return nil, err
	}

	sets := c.build()
	if err := sets.checkDisjoint(snap.BusNames); err != nil {
		return nil, err
	}
	if sets.NumRows != sets.NumCols {
		return nil, classifyErrf("system is not square: %d equations, %d unknowns",
			sets.NumRows, sets.NumCols)
	}
	return sets, nil
}

// colOf returns the state vector column of a slot, -1 when known or absent.
func (s *IndexSets) colOf(q Quantity, slot int) int {
	switch q {
	case QuantityVm:
		return s.ColVm[slot]
	case QuantityVa:
		return s.ColVa[slot]
	case QuantityPzip:
		return s.ColPzip[slot]
	case QuantityQzip:
		return s.ColQzip[slot]
	case QuantityPfrom:
		return s.ColPfrom[slot]
	case QuantityPto:
		return s.ColPto[slot]
	case QuantityQfrom:
		return s.ColQfrom[slot]
	case QuantityQto:
		return s.ColQto[slot]
	case QuantityTapModule:
		return s.ColTapModule[slot]
	case QuantityTapAngle:
		return s.ColTapAngle[slot]
	}
	return -1
}

func (s *IndexSets) checkDisjoint(busNames []string) error {
	for q := Quantity(0); q < numQuantities; q++ {
		for _, kn := range s.Known[q] {
			if s.colOf(q, kn.Slot) >= 0 {
				name := fmt.Sprintf("slot %d", kn.Slot)
				if q < QuantityTapModule {
					name = busNames[kn.Slot]
				}
				return classifyErrf("%s: %s is both known and unknown", name, q)
			}
		}
	}
	return nil
}

type classifier struct {
	snap *circuit.Snapshot
	ov   *ControlOverrides
	log  *EventLog

	n       int
	isSlack []bool
	flags   []BusFlags

	vmOwner []string
	vmHas   []bool
	vmVal   []float64
	vaOwner []string
	vaHas   []bool
	vaVal   []float64

	pzipHas []bool
	pzipVal []float64
	qzipHas []bool
	qzipVal []float64

	// Flow slot bookkeeping indexed by q-QuantityPfrom, then bus.
	flowOwner [4][]string
	flowHas   [4][]bool
	flowVal   [4][]float64

	remoteTarget []bool
	remoteSource []bool
	dispatch     []bool

	ctrl     []int
	mKnown   []bool
	mVal     []float64
	tauKnown []bool
	tauVal   []float64

	setRows []SetpointRow
}

func newClassifier(snap *circuit.Snapshot, ov *ControlOverrides, log *EventLog) *classifier {
	n := snap.NumBus
	c := &classifier{
		snap:         snap,
		ov:           ov,
		log:          log,
		n:            n,
		isSlack:      make([]bool, n),
		flags:        make([]BusFlags, n),
		vmOwner:      make([]string, n),
		vmHas:        make([]bool, n),
		vmVal:        make([]float64, n),
		vaOwner:      make([]string, n),
		vaHas:        make([]bool, n),
		vaVal:        make([]float64, n),
		pzipHas:      make([]bool, n),
		pzipVal:      make([]float64, n),
		qzipHas:      make([]bool, n),
		qzipVal:      make([]float64, n),
		remoteTarget: make([]bool, n),
		remoteSource: make([]bool, n),
		dispatch:     make([]bool, n),
	}
	copy(c.isSlack, snap.IsSlack)
	for k := range c.flowOwner {
		c.flowOwner[k] = make([]string, n)
		c.flowHas[k] = make([]bool, n)
		c.flowVal[k] = make([]float64, n)
	}
	return c
}

func (c *classifier) claimVm(bus int, owner string) error {
	if c.vmHas[bus] {
		return classifyErrf("bus %s: voltage magnitude controlled twice (%s and %s)",
			c.snap.BusNames[bus], c.vmOwner[bus], owner)
	}
	c.vmHas[bus] = true
	c.vmOwner[bus] = owner
	return nil
}

func (c *classifier) claimVa(bus int, owner string) error {
	if c.vaHas[bus] {
		return classifyErrf("bus %s: voltage angle controlled twice (%s and %s)",
			c.snap.BusNames[bus], c.vaOwner[bus], owner)
	}
	c.vaHas[bus] = true
	c.vaOwner[bus] = owner
	return nil
}

func (c *classifier) claimFlow(q Quantity, bus int, owner string) error {
	k := int(q - QuantityPfrom)
	if c.flowOwner[k][bus] != "" {
		return classifyErrf("bus %s: %s slot claimed twice (%s and %s)",
			c.snap.BusNames[bus], q, c.flowOwner[k][bus], owner)
	}
	c.flowOwner[k][bus] = owner
	return nil
}

func (c *classifier) setFlow(q Quantity, bus int, value float64) {
	k := int(q - QuantityPfrom)
	c.flowHas[k][bus] = true
	c.flowVal[k][bus] = value
}

// chooseSlack promotes a voltage-controlled bus when the model declares no
// slack at all.
func (c *classifier) chooseSlack() error {
	for i := 0; i < c.n; i++ {
		if c.isSlack[i] {
			return nil
		}
	}
	best := -1
	bestP := 0.0
	for gi, g := range c.snap.Generators {
		if !g.Controllable || c.snap.GenRemoteBus[gi] >= 0 {
			continue
		}
		b := g.Buses[0]
		if c.snap.IsDC[b] {
			continue
		}
		if best < 0 || g.P > bestP {
			best = b
			bestP = g.P
		}
	}
	if best < 0 {
		return classifyErrf("no slack bus and no voltage-controlled generator to promote")
	}
	c.isSlack[best] = true
	c.log.Warn(c.snap.BusNames[best], "no slack bus declared, promoting %s", c.snap.BusNames[best])
	return nil
}

func (c *classifier) initFlags() {
	for i := 0; i < c.n; i++ {
		switch {
		case c.isSlack[i]:
			c.flags[i] = BusFlags{Vm: true, Va: true}
			c.vmHas[i] = true
			c.vmOwner[i] = "slack designation"
			c.vmVal[i] = cmplx.Abs(c.snap.V0[i])
			if !c.snap.IsDC[i] {
				c.vaHas[i] = true
				c.vaOwner[i] = "slack designation"
				c.vaVal[i] = cmplx.Phase(c.snap.V0[i])
			}
		case c.snap.IsDC[i]:
			// No angle and no reactive dimension on a DC bus.
			c.flags[i] = BusFlags{P: true, Va: true}
		default:
			c.flags[i] = BusFlags{P: true, Q: true}
		}
	}
}

func (c *classifier) classifyGenerators() error {
	sb := c.snap.Sbase
	for gi, g := range c.snap.Generators {
		b := g.Buses[0]

		if g.Dispatchable {
			if c.isSlack[b] {
				return classifyErrf("generator %s: dispatchable at slack bus %s",
					g.Name, c.snap.BusNames[b])
			}
			if c.dispatch[b] {
				return classifyErrf("bus %s: two dispatchable generators", c.snap.BusNames[b])
			}
			c.dispatch[b] = true
			c.flags[b].P = false
		}

		if c.ov != nil {
			if qv, ok := c.ov.FixedGenQ[gi]; ok {
				// Switched to its reactive limit: the reactive side is a
				// fixed injection now, the active side keeps its role.
				c.qzipHas[b] = true
				c.qzipVal[b] += qv / sb
				if !g.Dispatchable {
					c.pzipHas[b] = true
					c.pzipVal[b] += g.P / sb
				}
				continue
			}
		}

		if !g.Controllable {
			continue
		}

		if t := c.snap.GenRemoteBus[gi]; t >= 0 {
			if c.isSlack[b] {
				return classifyErrf("generator %s: remote voltage control from the slack bus", g.Name)
			}
			if err := c.claimVm(t, "generator "+g.Name); err != nil {
				return err
			}
			c.flags[t].Vm = true
			c.vmVal[t] = g.Vset
			c.remoteTarget[t] = true
			c.flags[b].Q = false
			c.remoteSource[b] = true
			if !g.Dispatchable {
				c.pzipHas[b] = true
				c.pzipVal[b] += g.P / sb
			}
			continue
		}

		if c.isSlack[b] {
			// The slack keeps its P and Q free; the machine only seeds Vset.
			c.vmVal[b] = g.Vset
			continue
		}
		if err := c.claimVm(b, "generator "+g.Name); err != nil {
			return err
		}
		c.flags[b].Vm = true
		c.flags[b].Q = false
		c.vmVal[b] = g.Vset
		if !g.Dispatchable {
			c.pzipHas[b] = true
			c.pzipVal[b] += g.P / sb
		}
	}
	return nil
}

func (c *classifier) classifyShunts() error {
	for _, sh := range c.snap.Shunts {
		if !sh.Controllable {
			continue
		}
		b := sh.Buses[0]
		if c.isSlack[b] {
			c.vmVal[b] = sh.Vset
			continue
		}
		if err := c.claimVm(b, "shunt "+sh.Name); err != nil {
			return err
		}
		c.flags[b].Vm = true
		c.flags[b].Q = false
		c.vmVal[b] = sh.Vset
	}
	return nil
}

func (c *classifier) classifyTransformers() error {
	sb := c.snap.Sbase
	for ti, tr := range c.snap.Transformers {
		if !tr.Controllable() {
			continue
		}
		k := len(c.ctrl)
		c.ctrl = append(c.ctrl, ti)
		c.mKnown = append(c.mKnown, false)
		c.mVal = append(c.mVal, 0)
		c.tauKnown = append(c.tauKnown, false)
		c.tauVal = append(c.tauVal, 0)

		f, t := tr.Buses[0], tr.Buses[1]
		owner := "transformer " + tr.Name
		for _, claim := range []struct {
			q   Quantity
			bus int
		}{
			{QuantityPfrom, f},
			{QuantityPto, t},
			{QuantityQfrom, f},
			{QuantityQto, t},
		} {
			if err := c.claimFlow(claim.q, claim.bus, owner); err != nil {
				return err
			}
		}

		clampM, clampedM := 0.0, false
		if c.ov != nil {
			clampM, clampedM = c.ov.FixedTapModule[k], hasKey(c.ov.FixedTapModule, k)
		}
		switch {
		case clampedM:
			c.mKnown[k] = true
			c.mVal[k] = clampM
		default:
			switch tr.ModuleMode {
			case device.TapModNone, device.TapModFixed:
				c.mKnown[k] = true
				c.mVal[k] = tr.TapModule
			case device.TapModVm:
				target := c.snap.TrafoTargetBus[ti]
				if err := c.claimVm(target, owner); err != nil {
					return err
				}
				c.vmVal[target] = tr.Vset
			case device.TapModQf:
				c.setFlow(QuantityQfrom, f, tr.Qset/sb)
			case device.TapModQt:
				c.setFlow(QuantityQto, t, tr.Qset/sb)
			default:
				return classifyErrf("transformer %s: unknown tap module mode %s", tr.Name, tr.ModuleMode)
			}
		}

		clampTau, clampedTau := 0.0, false
		if c.ov != nil {
			clampTau, clampedTau = c.ov.FixedTapAngle[k], hasKey(c.ov.FixedTapAngle, k)
		}
		switch {
		case clampedTau:
			c.tauKnown[k] = true
			c.tauVal[k] = clampTau
		default:
			switch tr.PhaseMode {
			case device.TapPhaseNone, device.TapPhaseFixed:
				c.tauKnown[k] = true
				c.tauVal[k] = tr.TapAngle
			case device.TapPhasePf:
				c.setFlow(QuantityPfrom, f, tr.Pset/sb)
			case device.TapPhasePt:
				c.setFlow(QuantityPto, t, tr.Pset/sb)
			default:
				return classifyErrf("transformer %s: unknown tap phase mode %s", tr.Name, tr.PhaseMode)
			}
		}
	}
	return nil
}

func (c *classifier) classifyConverters() error {
	sb := c.snap.Sbase
	for _, v := range c.snap.Converters {
		f, t := v.Buses[0], v.Buses[1]
		owner := "converter " + v.Name

		if !v.Control1.Valid() || !v.Control2.Valid() {
			return classifyErrf("converter %s: unrecognized control pair (%s, %s)",
				v.Name, v.Control1, v.Control2)
		}
		if v.Control1 == v.Control2 {
			return classifyErrf("converter %s: the two controls must differ", v.Name)
		}
		nv := 0
		if v.Control1.Voltage() {
			nv++
		}
		if v.Control2.Voltage() {
			nv++
		}
		if nv != 1 {
			return classifyErrf("converter %s: controls must pair one voltage with one power setpoint (%s, %s)",
				v.Name, v.Control1, v.Control2)
		}

		if err := c.claimFlow(QuantityPfrom, f, owner); err != nil {
			return err
		}
		if err := c.claimFlow(QuantityPto, t, owner); err != nil {
			return err
		}
		if err := c.claimFlow(QuantityQto, t, owner); err != nil {
			return err
		}

		for _, axis := range []struct {
			control device.ConverterControl
			value   float64
		}{
			{v.Control1, v.Control1Value},
			{v.Control2, v.Control2Value},
		} {
			switch axis.control {
			case device.ControlVmDC:
				if err := c.claimVm(f, owner); err != nil {
					return err
				}
				c.vmVal[f] = axis.value
			case device.ControlVmAC:
				if err := c.claimVm(t, owner); err != nil {
					return err
				}
				c.vmVal[t] = axis.value
			case device.ControlVaAC:
				if err := c.claimVa(t, owner); err != nil {
					return err
				}
				c.vaVal[t] = axis.value
			case device.ControlPDC:
				c.setFlow(QuantityPfrom, f, axis.value/sb)
			case device.ControlPAC:
				c.setFlow(QuantityPto, t, axis.value/sb)
			case device.ControlQAC:
				c.setFlow(QuantityQto, t, axis.value/sb)
			}
		}
	}
	return nil
}

func (c *classifier) classifyHvdc() error {
	for _, h := range c.snap.HvdcLines {
		f, t := h.Buses[0], h.Buses[1]
		owner := "hvdc " + h.Name
		if err := c.claimFlow(QuantityPfrom, f, owner); err != nil {
			return err
		}
		if err := c.claimFlow(QuantityPto, t, owner); err != nil {
			return err
		}
	}
	return nil
}

func (c *classifier) collectLineSetpoints() error {
	sb := c.snap.Sbase
	type pick struct {
		q   Quantity
		get func(*device.Line) *float64
	}
	picks := []pick{
		{QuantityPfrom, func(l *device.Line) *float64 { return l.PfSet }},
		{QuantityPto, func(l *device.Line) *float64 { return l.PtSet }},
		{QuantityQfrom, func(l *device.Line) *float64 { return l.QfSet }},
		{QuantityQto, func(l *device.Line) *float64 { return l.QtSet }},
	}
	for _, p := range picks {
		for li, ln := range c.snap.Lines {
			sp := p.get(ln)
			if sp == nil {
				continue
			}
			if c.snap.IsDC[ln.Buses[0]] && (p.q == QuantityQfrom || p.q == QuantityQto) {
				return classifyErrf("line %s: reactive setpoint on a DC line", ln.Name)
			}
			c.setRows = append(c.setRows, SetpointRow{
				Line:  li,
				Kind:  p.q,
				Value: *sp / sb,
			})
		}
	}
	return nil
}

func (c *classifier) validateFlags() error {
	total := 0
	for i := 0; i < c.n; i++ {
		cnt := c.flags[i].count()
		want := 2
		if c.remoteTarget[i] {
			want++
		}
		if c.remoteSource[i] {
			want--
		}
		if c.dispatch[i] {
			want--
		}
		if cnt != want {
			return classifyErrf("bus %s: %d boundary conditions, expected %d",
				c.snap.BusNames[i], cnt, want)
		}
		total += cnt
	}
	total += len(c.setRows)
	if total != 2*c.n {
		return classifyErrf("the sum of boundary conditions (%d) does not equal twice the number of buses (%d)",
			total, 2*c.n)
	}
	return nil
}

func (c *classifier) build() *IndexSets {
	n := c.n
	snap := c.snap
	sets := &IndexSets{
		NumBus:       n,
		Flags:        c.flags,
		IsSlack:      c.isSlack,
		RemoteTarget: c.remoteTarget,
		RemoteSource: c.remoteSource,
		Dispatch:     c.dispatch,
		CtrlTrafos:   c.ctrl,
	}

	// Known entries per category.
	for i := 0; i < n; i++ {
		if c.vmHas[i] {
			sets.Known[QuantityVm] = append(sets.Known[QuantityVm], KnownEntry{i, c.vmVal[i]})
		}
		if c.vaHas[i] && !snap.IsDC[i] {
			sets.Known[QuantityVa] = append(sets.Known[QuantityVa], KnownEntry{i, c.vaVal[i]})
		}
		if c.pzipHas[i] {
			sets.Known[QuantityPzip] = append(sets.Known[QuantityPzip], KnownEntry{i, c.pzipVal[i]})
		}
		if c.qzipHas[i] {
			sets.Known[QuantityQzip] = append(sets.Known[QuantityQzip], KnownEntry{i, c.qzipVal[i]})
		}
		for k := 0; k < 4; k++ {
			if c.flowHas[k][i] {
				q := QuantityPfrom + Quantity(k)
				sets.Known[q] = append(sets.Known[q], KnownEntry{i, c.flowVal[k][i]})
			}
		}
	}
	for k := range c.ctrl {
		if c.mKnown[k] {
			sets.Known[QuantityTapModule] = append(sets.Known[QuantityTapModule], KnownEntry{k, c.mVal[k]})
		}
		if c.tauKnown[k] {
			sets.Known[QuantityTapAngle] = append(sets.Known[QuantityTapAngle], KnownEntry{k, c.tauVal[k]})
		}
	}

	// Unknown sets and state vector columns, canonical category order.
	minusOnes := func(m int) []int {
		v := make([]int, m)
		for i := range v {
			v[i] = -1
		}
		return v
	}
	sets.ColVm = minusOnes(n)
	sets.ColVa = minusOnes(n)
	sets.ColPzip = minusOnes(n)
	sets.ColQzip = minusOnes(n)
	sets.ColPfrom = minusOnes(n)
	sets.ColPto = minusOnes(n)
	sets.ColQfrom = minusOnes(n)
	sets.ColQto = minusOnes(n)
	sets.ColTapModule = minusOnes(len(c.ctrl))
	sets.ColTapAngle = minusOnes(len(c.ctrl))

	cc := 0
	addUnknown := func(q Quantity, slot int, col []int) {
		sets.Unknown[q] = append(sets.Unknown[q], slot)
		col[slot] = cc
		cc++
	}
	for i := 0; i < n; i++ {
		if !c.vmHas[i] {
			addUnknown(QuantityVm, i, sets.ColVm)
		}
	}
	for i := 0; i < n; i++ {
		if !snap.IsDC[i] && !c.vaHas[i] {
			addUnknown(QuantityVa, i, sets.ColVa)
		}
	}
	for i := 0; i < n; i++ {
		if !c.flags[i].P {
			addUnknown(QuantityPzip, i, sets.ColPzip)
		}
	}
	for i := 0; i < n; i++ {
		if !snap.IsDC[i] && !c.flags[i].Q {
			addUnknown(QuantityQzip, i, sets.ColQzip)
		}
	}
	flowCols := []([]int){sets.ColPfrom, sets.ColPto, sets.ColQfrom, sets.ColQto}
	for k := 0; k < 4; k++ {
		for i := 0; i < n; i++ {
			if c.flowOwner[k][i] != "" && !c.flowHas[k][i] {
				addUnknown(QuantityPfrom+Quantity(k), i, flowCols[k])
			}
		}
	}
	for k := range c.ctrl {
		if !c.mKnown[k] {
			addUnknown(QuantityTapModule, k, sets.ColTapModule)
		}
	}
	for k := range c.ctrl {
		if !c.tauKnown[k] {
			addUnknown(QuantityTapAngle, k, sets.ColTapAngle)
		}
	}
	sets.NumCols = cc

	// Row layout: DC balances, AC balances, converter losses, HVDC losses,
	// HVDC injections, transformer flow blocks, passive setpoints.
	sets.RowBusP = minusOnes(n)
	sets.RowBusQ = minusOnes(n)
	rr := 0
	for i := 0; i < n; i++ {
		if snap.IsDC[i] {
			sets.RowBusP[i] = rr
			rr++
		}
	}
	for i := 0; i < n; i++ {
		if !snap.IsDC[i] {
			sets.RowBusP[i] = rr
			sets.RowBusQ[i] = rr + 1
			rr += 2
		}
	}
	sets.RowVscLoss = make([]int, len(snap.Converters))
	for vi := range snap.Converters {
		sets.RowVscLoss[vi] = rr
		rr++
	}
	sets.RowHvdcLoss = make([]int, len(snap.HvdcLines))
	for hi := range snap.HvdcLines {
		sets.RowHvdcLoss[hi] = rr
		rr++
	}
	sets.RowHvdcInj = make([]int, len(snap.HvdcLines))
	for hi := range snap.HvdcLines {
		sets.RowHvdcInj[hi] = rr
		rr++
	}
	sets.RowTrafo = make([]int, len(c.ctrl))
	for k := range c.ctrl {
		sets.RowTrafo[k] = rr
		rr += 4
	}
	for _, sp := range c.setRows {
		sp.Row = rr
		rr++
		sets.Setpoints = append(sets.Setpoints, sp)
	}
	sets.NumRows = rr

	return sets
}

func hasKey(m map[int]float64, k int) bool {
	if m == nil {
		return false
	}
	_, ok := m[k]
	return ok
}
