package circuit

import (
	"fmt"

	"toy-powerflow/internal/consts"
	"toy-powerflow/pkg/device"
)

type Circuit struct {
	name    string
	busMap  map[string]int
	buses   []*device.Bus
	devices []device.Device
	Status  *device.GridStatus
}

func New(name string) *Circuit {
	return &Circuit{
		name:    name,
		busMap:  make(map[string]int),
		buses:   make([]*device.Bus, 0),
		devices: make([]device.Device, 0),
		Status:  &device.GridStatus{Sbase: consts.SBASE},
	}
}

func (c *Circuit) Name() string {
	return c.name
}

func (c *Circuit) SetSbase(sbase float64) {
	c.Status.Sbase = sbase
}

func (c *Circuit) Sbase() float64 {
	return c.Status.Sbase
}

// AddBus registers a bus and assigns its index. Bus order is insertion
// order; device bus references resolve against the name.
func (c *Circuit) AddBus(b *device.Bus) error {
	if _, exists := c.busMap[b.Name]; exists {
		return fmt.Errorf("circuit %s: duplicate bus %s", c.name, b.Name)
	}
	idx := len(c.buses)
	c.busMap[b.Name] = idx
	b.SetBuses([]int{idx})
	c.buses = append(c.buses, b)
	return nil
}

// AddDevice resolves the device's bus names against registered buses and
// appends it. Buses themselves go through AddBus.
func (c *Circuit) AddDevice(dev device.Device) error {
	busNames := dev.GetBusNames()
	buses := make([]int, len(busNames))
	for i, busName := range busNames {
		idx, ok := c.busMap[busName]
		if !ok {
			return fmt.Errorf("circuit %s: device %s references unknown bus %s", c.name, dev.GetName(), busName)
		}
		buses[i] = idx
	}
	dev.SetBuses(buses)
	c.devices = append(c.devices, dev)
	return nil
}

func (c *Circuit) AddLine(l *device.Line) error {
	return c.AddDevice(l)
}

func (c *Circuit) AddTransformer(tr *device.Transformer) error {
	return c.AddDevice(tr)
}

func (c *Circuit) AddVSC(v *device.VSC) error {
	return c.AddDevice(v)
}

func (c *Circuit) AddHVDCLine(h *device.HVDCLine) error {
	return c.AddDevice(h)
}

func (c *Circuit) AddGenerator(g *device.Generator) error {
	return c.AddDevice(g)
}

func (c *Circuit) AddLoad(l *device.Load) error {
	return c.AddDevice(l)
}

func (c *Circuit) AddShunt(s *device.Shunt) error {
	return c.AddDevice(s)
}

func (c *Circuit) GetBuses() []*device.Bus {
	return c.buses
}

func (c *Circuit) GetDevices() []device.Device {
	return c.devices
}

func (c *Circuit) GetBusMap() map[string]int {
	return c.busMap
}

func (c *Circuit) NumBuses() int {
	return len(c.buses)
}
