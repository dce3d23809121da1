package gridfile

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"toy-powerflow/internal/consts"
	"toy-powerflow/pkg/circuit"
	"toy-powerflow/pkg/device"
)

// CaseFile is the native JSON grid description. Power values are MW and
// MVAr, voltages per unit, angles degrees; the loader converts angles to
// radians. Optional numeric fields with a non-zero default are pointers so
// that an absent field and an explicit zero stay distinguishable.
type CaseFile struct {
	Name         string          `json:"name"`
	Sbase        float64         `json:"sbase"`
	Buses        []BusSpec       `json:"buses"`
	Lines        []LineSpec      `json:"lines,omitempty"`
	Transformers []TrafoSpec     `json:"transformers,omitempty"`
	Converters   []ConverterSpec `json:"converters,omitempty"`
	Hvdc         []HvdcSpec      `json:"hvdc,omitempty"`
	Generators   []GeneratorSpec `json:"generators,omitempty"`
	Loads        []LoadSpec      `json:"loads,omitempty"`
	Shunts       []ShuntSpec     `json:"shunts,omitempty"`
}

type BusSpec struct {
	Name  string   `json:"name"`
	Vnom  float64  `json:"vnom"`
	DC    bool     `json:"dc,omitempty"`
	Slack bool     `json:"slack,omitempty"`
	Vm0   *float64 `json:"vm0,omitempty"`
	Va0   float64  `json:"va0,omitempty"` // deg
}

type LineSpec struct {
	Name  string   `json:"name,omitempty"`
	From  string   `json:"from"`
	To    string   `json:"to"`
	R     float64  `json:"r"`
	X     float64  `json:"x"`
	B     float64  `json:"b,omitempty"`
	Rate  float64  `json:"rate,omitempty"`
	PfSet *float64 `json:"pf_set,omitempty"` // MW
	PtSet *float64 `json:"pt_set,omitempty"` // MW
	QfSet *float64 `json:"qf_set,omitempty"` // MVAr
	QtSet *float64 `json:"qt_set,omitempty"` // MVAr
}

type TrafoSpec struct {
	Name          string   `json:"name,omitempty"`
	From          string   `json:"from"`
	To            string   `json:"to"`
	R             float64  `json:"r"`
	X             float64  `json:"x"`
	B             float64  `json:"b,omitempty"`
	Rate          float64  `json:"rate,omitempty"`
	TapModule     *float64 `json:"tap_module,omitempty"`
	TapAngle      float64  `json:"tap_angle,omitempty"` // deg
	ModuleMode    string   `json:"module_mode,omitempty"`
	PhaseMode     string   `json:"phase_mode,omitempty"`
	ControlledBus string   `json:"controlled_bus,omitempty"`
	Vset          *float64 `json:"vset,omitempty"`
	Qset          float64  `json:"qset,omitempty"` // MVAr
	Pset          float64  `json:"pset,omitempty"` // MW
	MMin          *float64 `json:"m_min,omitempty"`
	MMax          *float64 `json:"m_max,omitempty"`
	TauMin        *float64 `json:"tau_min,omitempty"` // deg
	TauMax        *float64 `json:"tau_max,omitempty"` // deg
}

type ConverterSpec struct {
	Name          string   `json:"name,omitempty"`
	From          string   `json:"from"` // DC bus
	To            string   `json:"to"`   // AC bus
	Control1      string   `json:"control1"`
	Control1Value float64  `json:"control1_value"`
	Control2      string   `json:"control2"`
	Control2Value float64  `json:"control2_value"`
	LossA         *float64 `json:"loss_a,omitempty"`
	LossB         *float64 `json:"loss_b,omitempty"`
	LossC         *float64 `json:"loss_c,omitempty"`
	Rate          float64  `json:"rate,omitempty"`
}

type HvdcSpec struct {
	Name  string  `json:"name,omitempty"`
	From  string  `json:"from"`
	To    string  `json:"to"`
	R     float64 `json:"r"`    // ohm
	Pset  float64 `json:"pset"` // MW
	Droop float64 `json:"droop,omitempty"`
	Mode  string  `json:"mode,omitempty"` // "pset" (default) or "free"
	Rate  float64 `json:"rate,omitempty"`
}

type GeneratorSpec struct {
	Name         string   `json:"name,omitempty"`
	Bus          string   `json:"bus"`
	P            float64  `json:"p"`              // MW
	Qset         float64  `json:"qset,omitempty"` // MVAr
	Vset         *float64 `json:"vset,omitempty"`
	Controllable bool     `json:"controllable,omitempty"`
	Dispatchable bool     `json:"dispatchable,omitempty"`
	RemoteBus    string   `json:"remote_bus,omitempty"`
	Qmin         *float64 `json:"qmin,omitempty"` // MVAr
	Qmax         *float64 `json:"qmax,omitempty"` // MVAr
}

type LoadSpec struct {
	Name string  `json:"name,omitempty"`
	Bus  string  `json:"bus"`
	P    float64 `json:"p,omitempty"`
	Q    float64 `json:"q,omitempty"`
	Ir   float64 `json:"ir,omitempty"`
	Ii   float64 `json:"ii,omitempty"`
	G    float64 `json:"g,omitempty"`
	B    float64 `json:"b,omitempty"`
}

type ShuntSpec struct {
	Name         string   `json:"name,omitempty"`
	Bus          string   `json:"bus"`
	G            float64  `json:"g,omitempty"`
	B            float64  `json:"b,omitempty"`
	Controllable bool     `json:"controllable,omitempty"`
	Vset         *float64 `json:"vset,omitempty"`
}

// Load reads a JSON case file and builds the circuit.
func Load(path string) (*circuit.Circuit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading case file: %w", err)
	}
	return Parse(data)
}

// Parse builds a circuit from JSON case data.
func Parse(data []byte) (*circuit.Circuit, error) {
	var cf CaseFile
	if err := json.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parsing case file: %w", err)
	}
	return Build(&cf)
}

// Build assembles a circuit from an already decoded case description.
func Build(cf *CaseFile) (*circuit.Circuit, error) {
	if len(cf.Buses) == 0 {
		return nil, fmt.Errorf("case %q: no buses", cf.Name)
	}

	ckt := circuit.New(cf.Name)
	if cf.Sbase > 0 {
		ckt.SetSbase(cf.Sbase)
	}

	for i, bs := range cf.Buses {
		if bs.Name == "" {
			return nil, fmt.Errorf("bus %d: missing name", i)
		}
		b := device.NewBus(bs.Name, bs.Vnom)
		b.DC = bs.DC
		b.Slack = bs.Slack
		if bs.Vm0 != nil {
			b.Vm0 = *bs.Vm0
		}
		b.Va0 = bs.Va0 * consts.DEG2RAD
		if err := ckt.AddBus(b); err != nil {
			return nil, err
		}
	}

	for i, ls := range cf.Lines {
		name := ls.Name
		if name == "" {
			name = fmt.Sprintf("line%d", i+1)
		}
		l := device.NewLine(name, []string{ls.From, ls.To}, ls.R, ls.X, ls.B, ls.Rate)
		l.PfSet = ls.PfSet
		l.PtSet = ls.PtSet
		l.QfSet = ls.QfSet
		l.QtSet = ls.QtSet
		if err := ckt.AddLine(l); err != nil {
			return nil, err
		}
	}

	for i, ts := range cf.Transformers {
		name := ts.Name
		if name == "" {
			name = fmt.Sprintf("trafo%d", i+1)
		}
		tr := device.NewTransformer(name, []string{ts.From, ts.To}, ts.R, ts.X, ts.B, ts.Rate)
		if ts.TapModule != nil {
			tr.TapModule = *ts.TapModule
		}
		tr.TapAngle = ts.TapAngle * consts.DEG2RAD
		mm, err := parseModuleMode(ts.ModuleMode)
		if err != nil {
			return nil, fmt.Errorf("transformer %s: %w", name, err)
		}
		tr.ModuleMode = mm
		pm, err := parsePhaseMode(ts.PhaseMode)
		if err != nil {
			return nil, fmt.Errorf("transformer %s: %w", name, err)
		}
		tr.PhaseMode = pm
		tr.ControlledBusName = ts.ControlledBus
		if ts.Vset != nil {
			tr.Vset = *ts.Vset
		} else {
			tr.Vset = 1.0
		}
		tr.Qset = ts.Qset
		tr.Pset = ts.Pset
		if ts.MMin != nil {
			tr.MMin = *ts.MMin
		}
		if ts.MMax != nil {
			tr.MMax = *ts.MMax
		}
		if ts.TauMin != nil {
			tr.TauMin = *ts.TauMin * consts.DEG2RAD
		}
		if ts.TauMax != nil {
			tr.TauMax = *ts.TauMax * consts.DEG2RAD
		}
		if err := ckt.AddTransformer(tr); err != nil {
			return nil, err
		}
	}

	for i, vs := range cf.Converters {
		name := vs.Name
		if name == "" {
			name = fmt.Sprintf("vsc%d", i+1)
		}
		v := device.NewVSC(name, []string{vs.From, vs.To}, vs.Rate)
		c1, err := parseControl(vs.Control1)
		if err != nil {
			return nil, fmt.Errorf("converter %s: %w", name, err)
		}
		c2, err := parseControl(vs.Control2)
		if err != nil {
			return nil, fmt.Errorf("converter %s: %w", name, err)
		}
		v.Control1, v.Control1Value = c1, controlValue(c1, vs.Control1Value)
		v.Control2, v.Control2Value = c2, controlValue(c2, vs.Control2Value)
		if vs.LossA != nil {
			v.LossA = *vs.LossA
		}
		if vs.LossB != nil {
			v.LossB = *vs.LossB
		}
		if vs.LossC != nil {
			v.LossC = *vs.LossC
		}
		if err := ckt.AddVSC(v); err != nil {
			return nil, err
		}
	}

	for i, hs := range cf.Hvdc {
		name := hs.Name
		if name == "" {
			name = fmt.Sprintf("hvdc%d", i+1)
		}
		h := device.NewHVDCLine(name, []string{hs.From, hs.To}, hs.R, hs.Pset)
		h.Droop = hs.Droop
		h.Rate = hs.Rate
		mode, err := parseHvdcMode(hs.Mode)
		if err != nil {
			return nil, fmt.Errorf("hvdc %s: %w", name, err)
		}
		h.Mode = mode
		if err := ckt.AddHVDCLine(h); err != nil {
			return nil, err
		}
	}

	for i, gs := range cf.Generators {
		name := gs.Name
		if name == "" {
			name = fmt.Sprintf("gen%d", i+1)
		}
		g := device.NewGenerator(name, gs.Bus, gs.P)
		g.Qset = gs.Qset
		if gs.Vset != nil {
			g.Vset = *gs.Vset
		}
		g.Controllable = gs.Controllable
		g.Dispatchable = gs.Dispatchable
		g.RemoteBusName = gs.RemoteBus
		if gs.Qmin != nil {
			g.Qmin = *gs.Qmin
		}
		if gs.Qmax != nil {
			g.Qmax = *gs.Qmax
		}
		if err := ckt.AddGenerator(g); err != nil {
			return nil, err
		}
	}

	for i, ls := range cf.Loads {
		name := ls.Name
		if name == "" {
			name = fmt.Sprintf("load%d", i+1)
		}
		l := device.NewLoad(name, ls.Bus, ls.P, ls.Q)
		l.Ir = ls.Ir
		l.Ii = ls.Ii
		l.G = ls.G
		l.B = ls.B
		if err := ckt.AddLoad(l); err != nil {
			return nil, err
		}
	}

	for i, ss := range cf.Shunts {
		name := ss.Name
		if name == "" {
			name = fmt.Sprintf("shunt%d", i+1)
		}
		s := device.NewShunt(name, ss.Bus, ss.G, ss.B)
		s.Controllable = ss.Controllable
		if ss.Vset != nil {
			s.Vset = *ss.Vset
		}
		if err := ckt.AddShunt(s); err != nil {
			return nil, err
		}
	}

	return ckt, nil
}

func parseControl(s string) (device.ConverterControl, error) {
	switch strings.ToLower(s) {
	case "vm_dc":
		return device.ControlVmDC, nil
	case "vm_ac":
		return device.ControlVmAC, nil
	case "va_ac":
		return device.ControlVaAC, nil
	case "q_ac":
		return device.ControlQAC, nil
	case "p_dc":
		return device.ControlPDC, nil
	case "p_ac":
		return device.ControlPAC, nil
	}
	return 0, fmt.Errorf("unknown converter control %q", s)
}

// controlValue converts an angle setpoint from degrees; power and magnitude
// setpoints pass through.
func controlValue(c device.ConverterControl, v float64) float64 {
	if c == device.ControlVaAC {
		return v * consts.DEG2RAD
	}
	return v
}

func parseModuleMode(s string) (device.TapModuleMode, error) {
	switch strings.ToLower(s) {
	case "":
		return device.TapModNone, nil
	case "fixed":
		return device.TapModFixed, nil
	case "vm":
		return device.TapModVm, nil
	case "qf":
		return device.TapModQf, nil
	case "qt":
		return device.TapModQt, nil
	}
	return 0, fmt.Errorf("unknown tap module mode %q", s)
}

func parsePhaseMode(s string) (device.TapPhaseMode, error) {
	switch strings.ToLower(s) {
	case "":
		return device.TapPhaseNone, nil
	case "fixed":
		return device.TapPhaseFixed, nil
	case "pf":
		return device.TapPhasePf, nil
	case "pt":
		return device.TapPhasePt, nil
	}
	return 0, fmt.Errorf("unknown tap phase mode %q", s)
}

func parseHvdcMode(s string) (device.HvdcMode, error) {
	switch strings.ToLower(s) {
	case "", "pset":
		return device.HvdcPset, nil
	case "free":
		return device.HvdcFree, nil
	}
	return 0, fmt.Errorf("unknown hvdc mode %q", s)
}
