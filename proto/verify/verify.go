// ═══════════════════════════════════════════════════════════════════════════════════════════════
// KSA-4 Verifier
// ═══════════════════════════════════════════════════════════════════════════════════════════════
//
// OVERVIEW:
// ─────────
// Drives an adder with a fixed corner-case list and then a seeded batch of random operand
// pairs. Every output is compared bit-exactly against plain integer arithmetic.
//
//	Init → RunCornerCases → RunRandomCases → Pass | Fail
//
// A mismatch is a contract violation. Nothing is retried: the adder is a pure function,
// so asking again gives the same wrong answer.
//
// FAILURE REPORTING:
// ──────────────────
// Case indices are run-global and zero-based: corner cases come first, random cases
// follow. Sequential runs stop at the first mismatch. Parallel runs (Workers > 1)
// evaluate every random case, keep every mismatch, and report the lowest index as the
// verdict's Failure, so the answer matches what a sequential replay would have said.
//
// ═══════════════════════════════════════════════════════════════════════════════════════════════

package verify

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"ksa4"
)

// Adder is the device under test. Runs with Workers > 1 call Evaluate from
// several goroutines at once.
type Adder interface {
	Evaluate(a, b ksa4.Nibble) ksa4.Result
}

// AdderFunc adapts a plain function to Adder.
type AdderFunc func(a, b ksa4.Nibble) ksa4.Result

// Evaluate calls f(a, b).
func (f AdderFunc) Evaluate(a, b ksa4.Nibble) ksa4.Result { return f(a, b) }

// Field names the output that disagreed.
type Field string

const (
	FieldSum      Field = "sum"
	FieldCarryOut Field = "carry_out"
)

// Mismatch is a contract violation: the adder disagreed with the reference.
type Mismatch struct {
	Index    int
	Phase    Phase
	A, B     ksa4.Nibble
	Field    Field
	Expected uint8
	Actual   uint8
}

func (m *Mismatch) Error() string {
	return fmt.Sprintf("case %d (%s) a=%d b=%d: %s mismatch: got %d, want %d",
		m.Index, m.Phase, m.A.Uint8(), m.B.Uint8(), m.Field, m.Actual, m.Expected)
}

// check compares one output against its case. Sum is checked before carry.
func check(tc TestCase, got ksa4.Result, index int, phase Phase) *Mismatch {
	m := &Mismatch{Index: index, Phase: phase, A: tc.A, B: tc.B}
	switch {
	case got.Sum != tc.ExpectedSum:
		m.Field, m.Expected, m.Actual = FieldSum, tc.ExpectedSum.Uint8(), got.Sum.Uint8()
	case got.CarryOut != tc.ExpectedCarry:
		m.Field, m.Expected, m.Actual = FieldCarryOut, tc.ExpectedCarry.Uint8(), got.CarryOut.Uint8()
	default:
		return nil
	}
	return m
}

// Verdict is the outcome of a run. Failure is nil on a pass.
type Verdict struct {
	RunID    string
	Seed     uint64
	Cases    int
	Failure  *Mismatch
	Failures []*Mismatch
}

// Passed reports whether every evaluated case matched.
func (v Verdict) Passed() bool { return v.Failure == nil }

func (v Verdict) String() string {
	if v.Passed() {
		return fmt.Sprintf("PASS run=%s seed=%d cases=%d", v.RunID, v.Seed, v.Cases)
	}
	return fmt.Sprintf("FAIL run=%s seed=%d cases=%d: %v", v.RunID, v.Seed, v.Cases, v.Failure)
}

// Verifier checks an Adder against reference arithmetic.
type Verifier struct {
	adder   Adder
	cfg     Config
	logger  *slog.Logger
	metrics *Metrics
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithConfig sets seed, trial count and worker count.
func WithConfig(cfg Config) Option {
	return func(v *Verifier) { v.cfg = cfg }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(v *Verifier) { v.logger = l }
}

// WithMetrics records case and verdict counters into m.
func WithMetrics(m *Metrics) Option {
	return func(v *Verifier) { v.metrics = m }
}

// New returns a Verifier for adder. Without WithConfig it runs DefaultConfig.
func New(adder Adder, opts ...Option) *Verifier {
	v := &Verifier{
		adder:  adder,
		cfg:    DefaultConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Run evaluates the corner cases, then cfg.Trials random cases from cfg.Seed.
func (v *Verifier) Run() Verdict {
	verdict := v.newVerdict()
	corner := CornerCases()

	v.logger.Info("verify: corner cases", "run_id", verdict.RunID, "cases", len(corner))
	if m := v.runSequential(corner, 0, PhaseCorner, &verdict); m != nil {
		return v.finish(verdict)
	}

	random := RandomCases(v.cfg.Seed, v.cfg.Trials)
	v.logger.Info("verify: random cases", "run_id", verdict.RunID, "cases", len(random),
		"seed", v.cfg.Seed, "workers", v.cfg.Workers)
	if v.cfg.Workers > 1 {
		v.runParallel(random, len(corner), &verdict)
	} else {
		v.runSequential(random, len(corner), PhaseRandom, &verdict)
	}
	return v.finish(verdict)
}

// RunCases evaluates an explicit case list, fail-fast, with indices from 0.
func (v *Verifier) RunCases(cases []TestCase) Verdict {
	verdict := v.newVerdict()
	v.runSequential(cases, 0, PhaseCustom, &verdict)
	return v.finish(verdict)
}

// Exhaustive evaluates all 256 operand pairs, fail-fast.
func (v *Verifier) Exhaustive() Verdict {
	verdict := v.newVerdict()
	v.logger.Info("verify: exhaustive", "run_id", verdict.RunID, "cases", 256)
	v.runSequential(ExhaustiveCases(), 0, PhaseExhaustive, &verdict)
	return v.finish(verdict)
}

func (v *Verifier) newVerdict() Verdict {
	return Verdict{RunID: uuid.NewString(), Seed: v.cfg.Seed}
}

func (v *Verifier) runSequential(cases []TestCase, base int, phase Phase, verdict *Verdict) *Mismatch {
	for i, tc := range cases {
		idx := base + i
		got := v.adder.Evaluate(tc.A, tc.B)
		verdict.Cases++
		v.metrics.observeCase(phase)
		v.logger.Debug("verify: case", "index", idx, "a", tc.A.Uint8(), "b", tc.B.Uint8(),
			"sum", got.Sum.Uint8(), "carry_out", got.CarryOut.Uint8())

		if m := check(tc, got, idx, phase); m != nil {
			v.record(verdict, m)
			return m
		}
	}
	return nil
}

func (v *Verifier) runParallel(cases []TestCase, base int, verdict *Verdict) {
	var (
		mu       sync.Mutex
		failures []*Mismatch
		g        errgroup.Group
	)
	g.SetLimit(v.cfg.Workers)

	for i, tc := range cases {
		g.Go(func() error {
			got := v.adder.Evaluate(tc.A, tc.B)
			v.metrics.observeCase(PhaseRandom)
			if m := check(tc, got, base+i, PhaseRandom); m != nil {
				mu.Lock()
				failures = append(failures, m)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	verdict.Cases += len(cases)
	sort.Slice(failures, func(i, j int) bool { return failures[i].Index < failures[j].Index })
	for _, m := range failures {
		v.record(verdict, m)
	}
}

func (v *Verifier) record(verdict *Verdict, m *Mismatch) {
	if verdict.Failure == nil {
		verdict.Failure = m
	}
	verdict.Failures = append(verdict.Failures, m)
	v.metrics.observeMismatch(m.Field)
	v.logger.Error("verify: contract violation", "run_id", verdict.RunID, "index", m.Index,
		"phase", string(m.Phase), "a", m.A.Uint8(), "b", m.B.Uint8(), "field", string(m.Field),
		"expected", m.Expected, "actual", m.Actual)
}

func (v *Verifier) finish(verdict Verdict) Verdict {
	v.metrics.observeVerdict(verdict.Passed())
	v.logger.Info("verify: done", "run_id", verdict.RunID, "passed", verdict.Passed(),
		"cases", verdict.Cases, "failures", len(verdict.Failures))
	return verdict
}
