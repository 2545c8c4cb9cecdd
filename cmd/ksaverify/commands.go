package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"ksa4"
	"ksa4/proto/tt"
	"ksa4/proto/verify"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

type rootFlags struct {
	logLevel  string
	logFormat string
}

type runFlags struct {
	config  string
	seed    uint64
	trials  int
	workers int
	model   string
	json    bool
	metrics bool
}

// =============================================================================
// COMMAND DEFINITIONS
// =============================================================================

func newRootCmd() *cobra.Command {
	rf := &rootFlags{}
	root := &cobra.Command{
		Use:   "ksaverify",
		Short: "Verify a 4-bit Kogge-Stone adder against reference arithmetic",
		Long: `ksaverify drives a 4-bit adder model with fixed corner cases and a
seeded batch of random operand pairs, and compares every output bit-exactly
against plain integer addition.

Models:
  koggestone  parallel-prefix adder (default)
  ripple      ripple-carry reference
  carryselect 2-bit-sector carry-select reference
  pin         Tiny Tapeout wrapper driven through ui_in/uo_out on a clock

Exit Codes:
  0 = all cases matched
  1 = contract violation
  2 = usage or config error`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&rf.logLevel, "log-level", "info",
		"Log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&rf.logFormat, "log-format", "text",
		"Log format: text, json")

	root.AddCommand(newRunCmd(rf), newExhaustiveCmd(rf), newEvalCmd())
	return root
}

func newRunCmd(rf *rootFlags) *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run corner cases then seeded random trials",
		Long: `Run the corner-case list, then --trials random cases drawn from --seed.

Without --seed or a config file seed, a seed is taken from the clock. It is
logged and printed with the verdict so the run can be replayed.

Examples:
  ksaverify run --seed 42
  ksaverify run --seed 42 --workers 8
  ksaverify run --config verify.yaml --json
  ksaverify run --model pin --metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd, rf, f)
		},
	}
	cmd.Flags().StringVar(&f.config, "config", "", "YAML config file (seed, trials, workers)")
	cmd.Flags().Uint64Var(&f.seed, "seed", 0, "Random case seed")
	cmd.Flags().IntVar(&f.trials, "trials", verify.DefaultTrials, "Number of random cases")
	cmd.Flags().IntVar(&f.workers, "workers", 1, "Concurrent evaluators for random cases")
	cmd.Flags().StringVar(&f.model, "model", "koggestone", "Adder model: koggestone, ripple, carryselect, pin")
	cmd.Flags().BoolVar(&f.json, "json", false, "Print the verdict as JSON")
	cmd.Flags().BoolVar(&f.metrics, "metrics", false, "Print Prometheus metrics to stderr")
	return cmd
}

func newExhaustiveCmd(rf *rootFlags) *cobra.Command {
	var model string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "exhaustive",
		Short: "Check all 256 operand pairs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(cmd.ErrOrStderr(), rf)
			if err != nil {
				return usageError(err)
			}
			adder, err := selectModel(model, 1)
			if err != nil {
				return usageError(err)
			}
			verdict := verify.New(adder, verify.WithLogger(logger)).Exhaustive()
			return report(cmd.OutOrStdout(), verdict, asJSON)
		},
	}
	cmd.Flags().StringVar(&model, "model", "koggestone", "Adder model: koggestone, ripple, carryselect, pin")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the verdict as JSON")
	return cmd
}

func newEvalCmd() *cobra.Command {
	var trace bool
	cmd := &cobra.Command{
		Use:   "eval A B",
		Short: "Add two 4-bit operands and print sum and carry-out",
		Long: `Evaluate A + B on the Kogge-Stone model. Operands accept Go integer
syntax (13, 0xd, 0b1101) and must be in [0, 15].

Examples:
  ksaverify eval 13 10
  ksaverify eval 0b1111 0b0001 --trace`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := parseOperand(args[0])
			if err != nil {
				return usageError(err)
			}
			b, err := parseOperand(args[1])
			if err != nil {
				return usageError(err)
			}
			out := cmd.OutOrStdout()
			if trace {
				return ksa4.Describe(out, a, b)
			}
			r := ksa4.Evaluate(a, b)
			_, err = fmt.Fprintf(out, "%s ui_in=%#02x uo_out=%#02x\n", r, tt.PackInputs(a, b),
				r.CarryOut.Uint8()<<ksa4.Width|r.Sum.Uint8())
			return err
		},
	}
	cmd.Flags().BoolVar(&trace, "trace", false, "Print generate/propagate wires for every prefix stage")
	return cmd
}

// =============================================================================
// RUN
// =============================================================================

func runVerify(cmd *cobra.Command, rf *rootFlags, f *runFlags) error {
	logger, err := newLogger(cmd.ErrOrStderr(), rf)
	if err != nil {
		return usageError(err)
	}

	cfg, err := resolveConfig(cmd, f)
	if err != nil {
		return usageError(err)
	}
	adder, err := selectModel(f.model, cfg.Workers)
	if err != nil {
		return usageError(err)
	}
	logger.Info("ksaverify: starting", "model", f.model, "seed", cfg.Seed,
		"trials", cfg.Trials, "workers", cfg.Workers)

	reg := prometheus.NewRegistry()
	v := verify.New(adder,
		verify.WithConfig(cfg),
		verify.WithLogger(logger),
		verify.WithMetrics(verify.NewMetrics(reg)),
	)
	verdict := v.Run()

	// stdout carries only the verdict so --json output stays parseable
	if f.metrics {
		if err := writeMetrics(cmd.ErrOrStderr(), reg); err != nil {
			return usageError(err)
		}
	}
	return report(cmd.OutOrStdout(), verdict, f.json)
}

// resolveConfig layers defaults, the config file, then explicitly set flags.
func resolveConfig(cmd *cobra.Command, f *runFlags) (verify.Config, error) {
	cfg := verify.DefaultConfig()
	seeded := false
	if f.config != "" {
		loaded, err := verify.LoadConfig(f.config)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
		seeded = loaded.Seeded
	}

	flags := cmd.Flags()
	if flags.Changed("seed") {
		cfg.Seed = f.seed
		seeded = true
	}
	if flags.Changed("trials") || f.config == "" {
		cfg.Trials = f.trials
	}
	if flags.Changed("workers") || f.config == "" {
		cfg.Workers = f.workers
	}
	if !seeded {
		cfg.Seed = uint64(time.Now().UnixNano())
	}
	return cfg, cfg.Validate()
}

func selectModel(name string, workers int) (verify.Adder, error) {
	switch strings.ToLower(name) {
	case "koggestone", "ks":
		return ksa4.KoggeStone{}, nil
	case "ripple":
		return ksa4.RippleCarry{}, nil
	case "carryselect", "cs":
		return ksa4.CarrySelect{}, nil
	case "pin":
		if workers > 1 {
			return nil, fmt.Errorf("model pin drives one clocked device and needs --workers 1")
		}
		d := tt.NewDriver()
		d.Reset(1)
		return d, nil
	default:
		return nil, fmt.Errorf("unknown model %q", name)
	}
}

func parseOperand(s string) (ksa4.Nibble, error) {
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return ksa4.Nibble{}, fmt.Errorf("operand %q: %w", s, err)
	}
	return ksa4.NewNibble(uint8(v))
}

func newLogger(w io.Writer, rf *rootFlags) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(rf.logLevel)); err != nil {
		return nil, fmt.Errorf("log level %q: %w", rf.logLevel, err)
	}
	opts := &slog.HandlerOptions{Level: level}
	switch rf.logFormat {
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", rf.logFormat)
	}
}

// =============================================================================
// OUTPUT
// =============================================================================

type failureJSON struct {
	Index    int    `json:"index"`
	Phase    string `json:"phase"`
	A        uint8  `json:"a"`
	B        uint8  `json:"b"`
	Field    string `json:"field"`
	Expected uint8  `json:"expected"`
	Actual   uint8  `json:"actual"`
}

type verdictJSON struct {
	RunID    string        `json:"run_id"`
	Seed     uint64        `json:"seed"`
	Cases    int           `json:"cases"`
	Passed   bool          `json:"passed"`
	Failures []failureJSON `json:"failures,omitempty"`
}

func report(w io.Writer, verdict verify.Verdict, asJSON bool) error {
	if asJSON {
		out := verdictJSON{
			RunID:  verdict.RunID,
			Seed:   verdict.Seed,
			Cases:  verdict.Cases,
			Passed: verdict.Passed(),
		}
		for _, m := range verdict.Failures {
			out.Failures = append(out.Failures, failureJSON{
				Index:    m.Index,
				Phase:    string(m.Phase),
				A:        m.A.Uint8(),
				B:        m.B.Uint8(),
				Field:    string(m.Field),
				Expected: m.Expected,
				Actual:   m.Actual,
			})
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return usageError(err)
		}
	} else if _, err := fmt.Fprintln(w, verdict); err != nil {
		return usageError(err)
	}

	if !verdict.Passed() {
		return &ExitError{Code: exitFail}
	}
	return nil
}

func writeMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
