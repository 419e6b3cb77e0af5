package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/phototropic/heliostat/internal/harness"
)

// ReplayResult is the JSON payload for replay output.
type ReplayResult struct {
	Scenario string               `json:"scenario"`
	Passed   bool                 `json:"passed"`
	Trace    []harness.TraceEvent `json:"trace"`
	Final    harness.FinalState   `json:"final"`
	Failures []string             `json:"failures,omitempty"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <scenario.yaml>",
		Short: "Replay a scenario file and report its trace and assertions",
		Long: `Replay a deterministic scenario against a fake clock.

The scenario's sensor samples and injected events drive the loop exactly as
written; the resulting event trace, final state, and assertion results are
printed. Exit code 1 signals assertion failure.

Example:
  heliostat replay scenarios/track-step.yaml
  heliostat replay scenarios/oscillation.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runReplay(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		_ = formatter.Error("E_SCENARIO", err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}
	formatter.VerboseLog("loaded scenario %q (%d steps, %d assertions)",
		scenario.Name, len(scenario.Steps), len(scenario.Assertions))

	result, err := harness.Run(scenario)
	if err != nil {
		_ = formatter.Error("E_RUN", err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to run scenario", err)
	}

	payload := ReplayResult{
		Scenario: scenario.Name,
		Passed:   result.Passed(),
		Trace:    result.Trace,
		Final:    result.Final,
		Failures: result.Failures,
	}

	if opts.Format == "json" {
		if err := formatter.Success(payload); err != nil {
			return err
		}
	} else {
		printReplayText(formatter, payload)
	}

	if !result.Passed() {
		return NewExitError(ExitFailure, fmt.Sprintf("%d assertion(s) failed", len(result.Failures)))
	}
	return nil
}

func printReplayText(f *OutputFormatter, r ReplayResult) {
	fmt.Fprintf(f.Writer, "scenario: %s\n", r.Scenario)
	fmt.Fprintf(f.Writer, "trace (%d events):\n", len(r.Trace))
	for _, ev := range r.Trace {
		fmt.Fprintf(f.Writer, "  [%3d] +%4dms %-18s magnitude=%v aux=%d\n",
			ev.Seq, ev.OffsetMs, ev.Kind, ev.Magnitude, ev.Aux)
	}
	fmt.Fprintf(f.Writer, "final: position=%v gain=%v deadband=%v\n",
		r.Final.Position, r.Final.Gain, r.Final.Deadband)
	if r.Passed {
		fmt.Fprintln(f.Writer, "PASS")
		return
	}
	for _, failure := range r.Failures {
		fmt.Fprintf(f.Writer, "FAIL: %s\n", failure)
	}
}
