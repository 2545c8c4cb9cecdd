// ═══════════════════════════════════════════════════════════════════════════════════════════════
// KSA-4 Tiny Tapeout Wrapper - Go Reference Model
// ═══════════════════════════════════════════════════════════════════════════════════════════════
//
// OVERVIEW:
// ─────────
// The adder ships inside a Tiny Tapeout user project. The tile exposes a fixed pin set:
//
//	ui_in[7:0]   dedicated inputs    a = ui_in[3:0], b = ui_in[7:4]
//	uo_out[7:0]  dedicated outputs   sum = uo_out[3:0], carry_out = uo_out[4]
//	ena          tile enable
//	rst_n        active-low reset
//	clk          clock
//
// The adder itself is combinational. The wrapper registers its result into uo_out on the
// rising edge so the testbench samples a stable value after each edge.
//
// CLOCK:
// ──────
// There is no ambient simulation time. A Clock is an explicit driver: whoever owns it
// decides when edges happen and which parts see them.
//
// ═══════════════════════════════════════════════════════════════════════════════════════════════

package tt

import (
	"time"

	"ksa4"
)

// DefaultPeriod is a 100 kHz clock.
const DefaultPeriod = 10 * time.Microsecond

const (
	carryBit = ksa4.Width
	sumMask  = 1<<ksa4.Width - 1
)

// Clocked is anything with state that updates on a rising edge.
type Clocked interface {
	RisingEdge()
}

// Clock issues discrete rising edges.
type Clock struct {
	Period time.Duration
	cycles uint64
}

// NewClock returns a clock with the given period, or DefaultPeriod if period <= 0.
func NewClock(period time.Duration) *Clock {
	if period <= 0 {
		period = DefaultPeriod
	}
	return &Clock{Period: period}
}

// Tick issues one rising edge to every part, in order.
func (c *Clock) Tick(parts ...Clocked) {
	for _, p := range parts {
		p.RisingEdge()
	}
	c.cycles++
}

// Run issues n rising edges.
func (c *Clock) Run(n int, parts ...Clocked) {
	for i := 0; i < n; i++ {
		c.Tick(parts...)
	}
}

// Cycles returns the number of edges issued so far.
func (c *Clock) Cycles() uint64 { return c.cycles }

// Elapsed returns simulated time since the clock was created.
func (c *Clock) Elapsed() time.Duration {
	return time.Duration(c.cycles) * c.Period
}

// PackInputs places a on ui_in[3:0] and b on ui_in[7:4].
func PackInputs(a, b ksa4.Nibble) uint8 {
	return b.Uint8()<<ksa4.Width | a.Uint8()
}

// UnpackInputs splits ui_in into its two operands.
func UnpackInputs(uiIn uint8) (a, b ksa4.Nibble) {
	return ksa4.NibbleOf(uiIn), ksa4.NibbleOf(uiIn >> ksa4.Width)
}

// Project is the user module: tt_um_koggestone_adder_4bit.
type Project struct {
	UIIn uint8
	Ena  bool
	RstN bool

	uoOut uint8
}

// RisingEdge latches the adder output into uo_out.
//
//	rst_n = 0           → uo_out <= 0
//	rst_n = 1, ena = 0  → uo_out holds
//	rst_n = 1, ena = 1  → uo_out <= {3'b0, carry_out, sum}
func (p *Project) RisingEdge() {
	if !p.RstN {
		p.uoOut = 0
		return
	}
	if !p.Ena {
		return
	}
	a, b := UnpackInputs(p.UIIn)
	r := ksa4.Evaluate(a, b)
	p.uoOut = r.CarryOut.Uint8()<<carryBit | r.Sum.Uint8()
}

// UOOut returns the registered output bus.
func (p *Project) UOOut() uint8 { return p.uoOut }

// Sum returns uo_out[3:0].
func (p *Project) Sum() ksa4.Nibble { return ksa4.NibbleOf(p.uoOut & sumMask) }

// CarryOut returns uo_out[4].
func (p *Project) CarryOut() ksa4.Bit { return (p.uoOut>>carryBit)&1 == 1 }

// Driver runs the Project one operand pair at a time, the way the pin-level
// testbench does: drive inputs, hold ena and rst_n high, wait one edge, sample.
type Driver struct {
	Clock   *Clock
	Project *Project
}

// NewDriver returns a Driver with a fresh Project and a DefaultPeriod clock.
func NewDriver() *Driver {
	return &Driver{Clock: NewClock(DefaultPeriod), Project: &Project{}}
}

// Reset holds rst_n low for n edges, then releases it.
func (d *Driver) Reset(n int) {
	d.Project.RstN = false
	d.Clock.Run(n, d.Project)
	d.Project.RstN = true
}

// Evaluate drives a and b onto ui_in, ticks one edge and samples uo_out.
func (d *Driver) Evaluate(a, b ksa4.Nibble) ksa4.Result {
	d.Project.UIIn = PackInputs(a, b)
	d.Project.Ena = true
	d.Project.RstN = true
	d.Clock.Tick(d.Project)
	return ksa4.Result{Sum: d.Project.Sum(), CarryOut: d.Project.CarryOut()}
}
