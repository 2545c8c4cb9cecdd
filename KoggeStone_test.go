package ksa4

import (
	"bytes"
	"errors"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ═══════════════════════════════════════════════════════════════════════════
// KSA-4 - Test Suite
// ═══════════════════════════════════════════════════════════════════════════
//
// These vectors are the acceptance set for the RTL as well as the Go model.
// The domain is only 256 pairs, so the invariant is checked exhaustively;
// random sampling is exercised in proto/verify.
//
// ═══════════════════════════════════════════════════════════════════════════

// ═══════════════════════════════════════════════════════════════════════════
// OPERAND TYPES
// ═══════════════════════════════════════════════════════════════════════════

func TestNibble_NewAcceptsFullRange(t *testing.T) {
	for v := 0; v <= 15; v++ {
		n, err := NewNibble(uint8(v))
		require.NoError(t, err)
		assert.Equal(t, uint8(v), n.Uint8())
	}
}

func TestNibble_NewRejectsOutOfRange(t *testing.T) {
	for _, v := range []uint8{16, 17, 0x80, 0xFF} {
		_, err := NewNibble(v)
		assert.True(t, errors.Is(err, ErrOutOfRange), "value %d", v)
	}
}

func TestNibble_MustPanicsOutOfRange(t *testing.T) {
	assert.Panics(t, func() { MustNibble(16) })
	assert.NotPanics(t, func() { MustNibble(15) })
}

func TestNibble_OfTakesLowBits(t *testing.T) {
	assert.Equal(t, uint8(0xA), NibbleOf(0xBA).Uint8())
	assert.Equal(t, uint8(0), NibbleOf(0xF0).Uint8())
}

func TestNibble_BitsAndString(t *testing.T) {
	n := MustNibble(0b1010)
	assert.Equal(t, []uint8{0, 1, 0, 1}, []uint8{n.Bit(0), n.Bit(1), n.Bit(2), n.Bit(3)})
	assert.Equal(t, "0b1010", n.String())
}

func TestResult_Value(t *testing.T) {
	r := Result{Sum: MustNibble(14), CarryOut: true}
	assert.Equal(t, uint8(30), r.Value())
	assert.Equal(t, "sum=14 carry_out=1", r.String())
}

// ═══════════════════════════════════════════════════════════════════════════
// GENERATE / PROPAGATE AND PREFIX STAGES
// ═══════════════════════════════════════════════════════════════════════════

func TestGeneratePropagate(t *testing.T) {
	// a = 1100, b = 1010: bit3 generates, bits 2 and 1 propagate, bit0 idle
	s := generatePropagate(MustNibble(0b1100), MustNibble(0b1010))
	assert.Equal(t, [Width]uint8{0, 0, 0, 1}, s.g)
	assert.Equal(t, [Width]uint8{0, 1, 1, 0}, s.p)
}

func TestGeneratePropagate_Exclusive(t *testing.T) {
	// g and p can never both be 1 on the same bit
	for a := 0; a < 16; a++ {
		for b := 0; b < 16; b++ {
			s := generatePropagate(MustNibble(uint8(a)), MustNibble(uint8(b)))
			for i := 0; i < Width; i++ {
				if s.g[i]&s.p[i] != 0 {
					t.Fatalf("a=%d b=%d bit %d: g and p both set", a, b, i)
				}
			}
		}
	}
}

func TestPrefixStage_PassesLowPositions(t *testing.T) {
	in := signals{g: [Width]uint8{1, 0, 1, 0}, p: [Width]uint8{0, 1, 0, 1}}
	out := prefixStage(in, 2)
	assert.Equal(t, in.g[0], out.g[0])
	assert.Equal(t, in.g[1], out.g[1])
	assert.Equal(t, in.p[0], out.p[0])
	assert.Equal(t, in.p[1], out.p[1])
}

func TestPrefixStage_ReadsPreviousRankOnly(t *testing.T) {
	// A carry generated at bit 0 travels one position per distance-1 stage.
	// If stage 0 read its own outputs it would reach bit 3 in one pass.
	in := signals{g: [Width]uint8{1, 0, 0, 0}, p: [Width]uint8{0, 1, 1, 1}}
	out := prefixStage(in, 1)
	assert.Equal(t, [Width]uint8{1, 1, 0, 0}, out.g)
	assert.Equal(t, [Width]uint8{0, 0, 1, 1}, out.p)
}

func TestPrefixNetwork_DepthAndFinalCarries(t *testing.T) {
	// 0111 + 0001: carry from bit 0 propagates through bits 1..2
	gp := generatePropagate(MustNibble(0b0111), MustNibble(0b0001))
	ranks := prefixNetwork(gp)
	require.Len(t, ranks, Stages+1)
	assert.Equal(t, gp, ranks[0])
	assert.Equal(t, [Width]uint8{1, 1, 1, 0}, ranks[Stages].g)
}

func TestPrefixNetwork_FinalGenerateIsGroupCarry(t *testing.T) {
	// G_i must equal the carry out of bits 0..i with carry-in 0
	for a := 0; a < 16; a++ {
		for b := 0; b < 16; b++ {
			final := prefixNetwork(generatePropagate(MustNibble(uint8(a)), MustNibble(uint8(b))))[Stages]
			for i := 0; i < Width; i++ {
				mask := 1<<(i+1) - 1
				want := uint8(((a & mask) + (b & mask)) >> (i + 1))
				if final.g[i] != want {
					t.Fatalf("a=%d b=%d: G_%d = %d, want %d", a, b, i, final.g[i], want)
				}
			}
		}
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// ADDER CONTRACT
// ═══════════════════════════════════════════════════════════════════════════

func TestEvaluate_Exhaustive(t *testing.T) {
	for a := 0; a < 16; a++ {
		for b := 0; b < 16; b++ {
			r := Evaluate(MustNibble(uint8(a)), MustNibble(uint8(b)))
			if int(r.CarryOut.Uint8())*16+int(r.Sum.Uint8()) != a+b {
				t.Fatalf("Evaluate(%d, %d) = %v, want total %d", a, b, r, a+b)
			}
		}
	}
}

func TestEvaluate_Vectors(t *testing.T) {
	tests := []struct {
		name  string
		a, b  uint8
		sum   uint8
		carry Bit
	}{
		{"zero", 0, 0, 0, false},
		{"max plus zero", 15, 0, 15, false},
		{"overflow to zero", 15, 1, 0, true},
		{"max plus max", 15, 15, 14, true},
		{"mid range", 5, 3, 8, false},
		{"high no overflow", 12, 3, 15, false},
		{"pin test", 13, 10, 7, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Evaluate(MustNibble(tt.a), MustNibble(tt.b))
			assert.Equal(t, tt.sum, r.Sum.Uint8())
			assert.Equal(t, tt.carry, r.CarryOut)
		})
	}
}

func TestEvaluate_Idempotent(t *testing.T) {
	for a := 0; a < 16; a++ {
		for b := 0; b < 16; b++ {
			x, y := MustNibble(uint8(a)), MustNibble(uint8(b))
			if Evaluate(x, y) != Evaluate(x, y) {
				t.Fatalf("Evaluate(%d, %d) not repeatable", a, b)
			}
		}
	}
}

func TestEvaluate_MatchesRipple(t *testing.T) {
	for a := 0; a < 16; a++ {
		for b := 0; b < 16; b++ {
			x, y := MustNibble(uint8(a)), MustNibble(uint8(b))
			require.Equal(t, RippleEvaluate(x, y), Evaluate(x, y), "a=%d b=%d", a, b)
		}
	}
}

func TestEvaluate_MatchesCarrySelect(t *testing.T) {
	for a := 0; a < 16; a++ {
		for b := 0; b < 16; b++ {
			x, y := MustNibble(uint8(a)), MustNibble(uint8(b))
			require.Equal(t, CarrySelectEvaluate(x, y), Evaluate(x, y), "a=%d b=%d", a, b)
		}
	}
}

func TestCarrySelect_SectorCarry(t *testing.T) {
	tests := []struct {
		name  string
		a, b  uint8
		sum   uint8
		carry Bit
	}{
		{"low sector carries into high", 0b0011, 0b0001, 0b0100, false},
		{"high sector selects carry-in 1 path", 0b0111, 0b0001, 0b1000, false},
		{"carry ripples out of both sectors", 0b1111, 0b0001, 0b0000, true},
		{"high sector carries alone", 0b1000, 0b1000, 0b0000, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := CarrySelectEvaluate(MustNibble(tt.a), MustNibble(tt.b))
			assert.Equal(t, tt.sum, r.Sum.Uint8())
			assert.Equal(t, tt.carry, r.CarryOut)
		})
	}
}

func TestAdderValues(t *testing.T) {
	a, b := MustNibble(9), MustNibble(9)
	assert.Equal(t, Evaluate(a, b), KoggeStone{}.Evaluate(a, b))
	assert.Equal(t, RippleEvaluate(a, b), RippleCarry{}.Evaluate(a, b))
	assert.Equal(t, CarrySelectEvaluate(a, b), CarrySelect{}.Evaluate(a, b))
}

func TestEvaluate_Properties(t *testing.T) {
	params := gopter.DefaultTestParametersWithSeed(1)
	params.MinSuccessfulTests = 1000
	properties := gopter.NewProperties(params)

	properties.Property("a + b == 16*carry + sum", prop.ForAll(
		func(a, b uint8) bool {
			r := Evaluate(MustNibble(a), MustNibble(b))
			return uint16(a)+uint16(b) == uint16(r.Value())
		},
		gen.UInt8Range(0, 15),
		gen.UInt8Range(0, 15),
	))

	properties.Property("commutative", prop.ForAll(
		func(a, b uint8) bool {
			return Evaluate(MustNibble(a), MustNibble(b)) == Evaluate(MustNibble(b), MustNibble(a))
		},
		gen.UInt8Range(0, 15),
		gen.UInt8Range(0, 15),
	))

	properties.TestingRun(t)
}

// ═══════════════════════════════════════════════════════════════════════════
// TRACE
// ═══════════════════════════════════════════════════════════════════════════

func TestDescribe(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Describe(&buf, MustNibble(15), MustNibble(1)))

	want := "a=0b1111 (15)  b=0b0001 (1)\n" +
		"g/p      g=0001  p=1110\n" +
		"stage 0  g=0011  p=1100\n" +
		"stage 1  g=1111  p=0000\n" +
		"sum=0b0000 (0)  carry_out=1\n"
	assert.Equal(t, want, buf.String())
}
