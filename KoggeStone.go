package ksa4

import (
	"errors"
	"fmt"
	"io"
)

// ═══════════════════════════════════════════════════════════════════════════
// KSA-4: 4-bit Kogge-Stone Adder - Go Reference Model
// ═══════════════════════════════════════════════════════════════════════════
//
// OVERVIEW:
// ─────────
// A parallel-prefix adder. Two 4-bit operands in, a 4-bit sum and a 1-bit
// carry-out out. Carries are computed by an associative combine over
// (generate, propagate) pairs in log2(4) = 2 stages instead of rippling
// through all 4 bit positions one after another.
//
// The one contract everything here exists to satisfy:
//
//	a + b == 16*carry_out + sum      for every a, b in [0, 15]
//
// HARDWARE MODEL:
// ───────────────
// This Go code is the functional reference for the RTL. Run the same vectors
// against the Verilog; identical outputs mean the hardware is correct.
//
//	Go function       → SV always_comb block
//	Go loop           → SV generate for (parallel hardware)
//	Go [Width]uint8   → SV logic [3:0] wire bundle, one element per bit
//
// Each prefix stage reads the previous stage's wires and writes fresh ones.
// Nothing inside a stage depends on another output of the same stage.
//
// ═══════════════════════════════════════════════════════════════════════════

const (
	// Width is the operand width in bits.
	Width = 4

	// Stages is the depth of the prefix network: ceil(log2(Width)).
	Stages = 2

	nibbleMask = 1<<Width - 1
)

// ErrOutOfRange is returned when a value does not fit in Width bits.
var ErrOutOfRange = errors.New("ksa4: value does not fit in 4 bits")

// ═══════════════════════════════════════════════════════════════════════════
// PART 1: OPERAND TYPES
// ═══════════════════════════════════════════════════════════════════════════
//
// A Nibble can only be built through a constructor, so an out-of-range
// operand cannot exist. There is no runtime range check inside the adder.
//
// ═══════════════════════════════════════════════════════════════════════════

// Nibble is an unsigned 4-bit word in [0, 15].
type Nibble struct {
	v uint8
}

// NewNibble returns v as a Nibble, or ErrOutOfRange if v > 15.
func NewNibble(v uint8) (Nibble, error) {
	if v > nibbleMask {
		return Nibble{}, fmt.Errorf("%w: %d", ErrOutOfRange, v)
	}
	return Nibble{v: v}, nil
}

// MustNibble is NewNibble for literals. It panics on out-of-range input.
func MustNibble(v uint8) Nibble {
	n, err := NewNibble(v)
	if err != nil {
		panic(err)
	}
	return n
}

// NibbleOf takes the low 4 bits of v, the way a [3:0] slice of a wider bus does.
func NibbleOf(v uint8) Nibble {
	return Nibble{v: v & nibbleMask}
}

// Uint8 returns the value of n.
func (n Nibble) Uint8() uint8 { return n.v }

// Bit returns bit i of n (0 = LSB) as 0 or 1.
func (n Nibble) Bit(i int) uint8 { return (n.v >> i) & 1 }

func (n Nibble) String() string { return fmt.Sprintf("0b%04b", n.v) }

// Bit is a single wire.
type Bit bool

// Uint8 returns 1 for a set bit and 0 otherwise.
func (b Bit) Uint8() uint8 {
	if b {
		return 1
	}
	return 0
}

func (b Bit) String() string {
	if b {
		return "1"
	}
	return "0"
}

// Result is the adder output.
type Result struct {
	Sum      Nibble
	CarryOut Bit
}

// Value returns the 5-bit quantity 16*CarryOut + Sum.
func (r Result) Value() uint8 {
	return r.CarryOut.Uint8()<<Width | r.Sum.v
}

func (r Result) String() string {
	return fmt.Sprintf("sum=%d carry_out=%s", r.Sum.v, r.CarryOut)
}

// ═══════════════════════════════════════════════════════════════════════════
// PART 2: GENERATE / PROPAGATE
// ═══════════════════════════════════════════════════════════════════════════
//
// For every bit position, in parallel:
//
//	g_i = a_i AND b_i    (this bit makes a carry on its own)
//	p_i = a_i XOR b_i    (this bit passes an incoming carry through)
//
// HARDWARE: 4 AND gates + 4 XOR gates, one gate delay.
//
// ═══════════════════════════════════════════════════════════════════════════

// signals is one rank of (g, p) wires, index i = bit position i.
type signals struct {
	g [Width]uint8
	p [Width]uint8
}

func generatePropagate(a, b Nibble) signals {
	var s signals
	for i := 0; i < Width; i++ {
		ai, bi := a.Bit(i), b.Bit(i)
		s.g[i] = ai & bi
		s.p[i] = ai ^ bi
	}
	return s
}

// ═══════════════════════════════════════════════════════════════════════════
// PART 3: PREFIX NETWORK
// ═══════════════════════════════════════════════════════════════════════════
//
// The carry-combine operator is associative:
//
//	(g_i, p_i) ∘ (g_j, p_j) = (g_i | (p_i & g_j), p_i & p_j)
//
// Stage k works at distance d = 2^k. Position i >= d combines with i-d;
// positions below d pass straight through.
//
//	stage 0 (d=1):  3∘2   2∘1   1∘0   0
//	stage 1 (d=2):  3∘1   2∘0   1     0
//
// After stage 1, g_i is the carry out of bit i with carry-in 0.
//
// HARDWARE: 3 + 2 = 5 black cells, 2 cell delays.
//
// ═══════════════════════════════════════════════════════════════════════════

func prefixStage(in signals, d int) signals {
	out := in
	for i := d; i < Width; i++ {
		out.g[i] = in.g[i] | (in.p[i] & in.g[i-d])
		out.p[i] = in.p[i] & in.p[i-d]
	}
	return out
}

// prefixNetwork returns the rank after each stage. ranks[0] is the
// generate/propagate rank; ranks[Stages] holds the final group carries.
func prefixNetwork(gp signals) [Stages + 1]signals {
	var ranks [Stages + 1]signals
	ranks[0] = gp
	for k := 0; k < Stages; k++ {
		ranks[k+1] = prefixStage(ranks[k], 1<<k)
	}
	return ranks
}

// ═══════════════════════════════════════════════════════════════════════════
// PART 4: SUM AND CARRY-OUT
// ═══════════════════════════════════════════════════════════════════════════
//
//	s_0 = p_0
//	s_i = p_i XOR G_{i-1}     (G = final prefix generate)
//	carry_out = G_3
//
// HARDWARE: 3 XOR gates (s_0 is a wire).
//
// ═══════════════════════════════════════════════════════════════════════════

func sumRank(gp, final signals) Result {
	var sum uint8
	for i := 0; i < Width; i++ {
		var carryIn uint8
		if i > 0 {
			carryIn = final.g[i-1]
		}
		sum |= (gp.p[i] ^ carryIn) << i
	}
	return Result{
		Sum:      Nibble{v: sum},
		CarryOut: final.g[Width-1] == 1,
	}
}

// Evaluate adds a and b through the Kogge-Stone prefix network.
// It is pure and total over the 4-bit domain.
func Evaluate(a, b Nibble) Result {
	gp := generatePropagate(a, b)
	ranks := prefixNetwork(gp)
	return sumRank(gp, ranks[Stages])
}

// ═══════════════════════════════════════════════════════════════════════════
// PART 5: RIPPLE-CARRY REFERENCE
// ═══════════════════════════════════════════════════════════════════════════
//
// The linear chain the prefix network replaces: each full adder waits for the
// carry of the one below. Kept as a second, structurally different model so
// tests can cross-check the prefix network against something other than "+".
//
// HARDWARE: 4 full adders, 4 carry delays.
//
// ═══════════════════════════════════════════════════════════════════════════

// RippleEvaluate adds a and b with a ripple-carry chain.
func RippleEvaluate(a, b Nibble) Result {
	var sum, carry uint8
	for i := 0; i < Width; i++ {
		ai, bi := a.Bit(i), b.Bit(i)
		sum |= (ai ^ bi ^ carry) << i
		carry = (ai & bi) | (carry & (ai ^ bi))
	}
	return Result{Sum: Nibble{v: sum}, CarryOut: carry == 1}
}

// KoggeStone is the prefix adder as a value, for APIs that take an adder.
type KoggeStone struct{}

// Evaluate calls the package-level Evaluate.
func (KoggeStone) Evaluate(a, b Nibble) Result { return Evaluate(a, b) }

// RippleCarry is the ripple-carry reference as a value.
type RippleCarry struct{}

// Evaluate calls RippleEvaluate.
func (RippleCarry) Evaluate(a, b Nibble) Result { return RippleEvaluate(a, b) }

// ═══════════════════════════════════════════════════════════════════════════
// PART 6: CARRY-SELECT
// ═══════════════════════════════════════════════════════════════════════════
//
// Split the word into 2-bit sectors. Every sector computes its answer twice,
// once for carry-in 0 and once for carry-in 1, at the same time. The real
// carry arriving from the sector below only drives a mux.
//
//	sector 0: bits 1:0   carry-in is always 0
//	sector 1: bits 3:2   carry-in = carry out of sector 0
//
// HARDWARE: 2 sectors × 2 adders + 1 mux, 2 sector delays.
//
// ═══════════════════════════════════════════════════════════════════════════

const (
	sectorWidth = 2
	sectors     = Width / sectorWidth
	sectorMask  = 1<<sectorWidth - 1
)

// CarrySelectEvaluate adds a and b with a 2-bit-sector carry-select adder.
func CarrySelectEvaluate(a, b Nibble) Result {
	var sum, carryIn uint8
	for sector := 0; sector < sectors; sector++ {
		shift := sector * sectorWidth
		sa := (a.v >> shift) & sectorMask
		sb := (b.v >> shift) & sectorMask

		// both possibilities, computed in parallel
		result0 := sa + sb
		carry0 := (result0 >> sectorWidth) & 1
		result1 := sa + sb + 1
		carry1 := (result1 >> sectorWidth) & 1

		var sectorResult, sectorCarryOut uint8
		if carryIn == 0 {
			sectorResult, sectorCarryOut = result0&sectorMask, carry0
		} else {
			sectorResult, sectorCarryOut = result1&sectorMask, carry1
		}

		sum |= sectorResult << shift
		carryIn = sectorCarryOut
	}
	return Result{Sum: Nibble{v: sum}, CarryOut: carryIn == 1}
}

// CarrySelect is the carry-select adder as a value.
type CarrySelect struct{}

// Evaluate calls CarrySelectEvaluate.
func (CarrySelect) Evaluate(a, b Nibble) Result { return CarrySelectEvaluate(a, b) }

// ═══════════════════════════════════════════════════════════════════════════
// PART 7: TRACE
// ═══════════════════════════════════════════════════════════════════════════

// Describe writes the wire values of every rank for a + b, LSB on the right.
func Describe(w io.Writer, a, b Nibble) error {
	gp := generatePropagate(a, b)
	ranks := prefixNetwork(gp)
	res := sumRank(gp, ranks[Stages])

	if _, err := fmt.Fprintf(w, "a=%s (%d)  b=%s (%d)\n", a, a.v, b, b.v); err != nil {
		return err
	}
	for k, r := range ranks {
		label := "g/p    "
		if k > 0 {
			label = fmt.Sprintf("stage %d", k-1)
		}
		if _, err := fmt.Fprintf(w, "%s  g=%s  p=%s\n", label, bitsString(r.g), bitsString(r.p)); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "sum=%s (%d)  carry_out=%s\n", res.Sum, res.Sum.v, res.CarryOut)
	return err
}

func bitsString(v [Width]uint8) string {
	buf := make([]byte, Width)
	for i := 0; i < Width; i++ {
		buf[Width-1-i] = '0' + v[i]
	}
	return string(buf)
}
