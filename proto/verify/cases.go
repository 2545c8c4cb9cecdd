package verify

import (
	"math/rand/v2"

	"ksa4"
)

// Phase names the part of a run a case belongs to.
type Phase string

const (
	PhaseCorner     Phase = "corner"
	PhaseRandom     Phase = "random"
	PhaseExhaustive Phase = "exhaustive"
	PhaseCustom     Phase = "custom"
)

// TestCase is one operand pair with its expected output.
type TestCase struct {
	A, B          ksa4.Nibble
	ExpectedSum   ksa4.Nibble
	ExpectedCarry ksa4.Bit
}

// Reference builds the case for a + b from plain integer arithmetic:
// sum = (a+b) mod 16, carry = (a+b) div 16.
func Reference(a, b ksa4.Nibble) TestCase {
	total := uint(a.Uint8()) + uint(b.Uint8())
	return TestCase{
		A:             a,
		B:             b,
		ExpectedSum:   ksa4.NibbleOf(uint8(total % 16)),
		ExpectedCarry: total/16 == 1,
	}
}

// cornerPairs: zero, mid-range, maximum overflow, high without overflow,
// the pin-level smoke vector, max plus zero, max plus max.
var cornerPairs = [][2]uint8{
	{0, 0},
	{5, 3},
	{15, 1},
	{12, 3},
	{13, 10},
	{15, 0},
	{15, 15},
}

// CornerCases returns the fixed boundary vectors, in order.
func CornerCases() []TestCase {
	cases := make([]TestCase, len(cornerPairs))
	for i, p := range cornerPairs {
		cases[i] = Reference(ksa4.MustNibble(p[0]), ksa4.MustNibble(p[1]))
	}
	return cases
}

// RandomCases returns n cases with a and b drawn uniformly from [0, 15].
// The same seed always yields the same sequence. n <= 0 yields no cases.
func RandomCases(seed uint64, n int) []TestCase {
	if n <= 0 {
		return nil
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15))
	cases := make([]TestCase, n)
	for i := range cases {
		a := ksa4.NibbleOf(uint8(rng.IntN(16)))
		b := ksa4.NibbleOf(uint8(rng.IntN(16)))
		cases[i] = Reference(a, b)
	}
	return cases
}

// ExhaustiveCases returns all 256 operand pairs, a-major.
func ExhaustiveCases() []TestCase {
	cases := make([]TestCase, 0, 256)
	for a := 0; a < 16; a++ {
		for b := 0; b < 16; b++ {
			cases = append(cases, Reference(ksa4.NibbleOf(uint8(a)), ksa4.NibbleOf(uint8(b))))
		}
	}
	return cases
}
