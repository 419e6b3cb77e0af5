package cli

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/phototropic/heliostat/internal/config"
	"github.com/phototropic/heliostat/internal/engine"
	"github.com/phototropic/heliostat/internal/hal"
	"github.com/phototropic/heliostat/internal/telemetry"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Config  string
	Journal string
	Ticks   uint64
	Source  float64
	Noise   int
	Seed    int64

	// RunIDs allows overriding the run id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDs telemetry.RunIDGenerator
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the control loop against the simulated light field",
		Long: `Run the adaptive control loop with simulated sensors and servo.

The loop samples the simulated light field at the profile's tick interval,
tracks the light source, and re-tunes itself as it runs. State is reported
through structured logs and, optionally, a SQLite journal.

Example:
  heliostat run --ticks 2000 --source 140
  heliostat run --config tuning.yaml --journal ./heliostat.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoop(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Config, "config", "", "path to a YAML tuning profile (default: built-in profile)")
	cmd.Flags().StringVar(&opts.Journal, "journal", "", "path to a SQLite telemetry journal (default: disabled)")
	cmd.Flags().Uint64Var(&opts.Ticks, "ticks", 0, "stop after N loop iterations (0 = run until interrupted)")
	cmd.Flags().Float64Var(&opts.Source, "source", 140, "initial light source bearing in degrees")
	cmd.Flags().IntVar(&opts.Noise, "noise", 8, "sensor noise amplitude in raw units")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 1, "sensor noise seed")

	return cmd
}

func runLoop(opts *RunOptions, cmd *cobra.Command) error {
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	cfg := config.Default()
	if opts.Config != "" {
		var err error
		cfg, err = config.Load(opts.Config)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load tuning profile", err)
		}
		slog.Info("tuning profile loaded", "path", opts.Config)
	}

	world := hal.NewWorld(opts.Source, opts.Noise, opts.Seed)
	sensor := hal.NewSimSensorPair(world)
	servo := hal.NewSimServo(world)

	loopOpts := []engine.LoopOption{
		engine.WithObserver(telemetry.NewReporter(logger, cfg.Telemetry.ReportEveryTicks)),
	}

	journalPath := opts.Journal
	if journalPath == "" {
		journalPath = cfg.Telemetry.JournalPath
	}
	if journalPath != "" {
		runIDs := opts.RunIDs
		if runIDs == nil {
			runIDs = telemetry.UUIDv7Generator{}
		}
		profileYAML, err := yaml.Marshal(cfg)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to encode profile", err)
		}
		journal, err := telemetry.OpenJournal(journalPath, runIDs.Generate(), string(profileYAML), engine.SystemClock{}.Now(), logger)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open journal", err)
		}
		defer func() {
			if closeErr := journal.Close(); closeErr != nil {
				slog.Error("error closing journal", "error", closeErr)
			}
		}()
		slog.Info("journal ready", "path", journalPath, "run", journal.RunID())
		loopOpts = append(loopOpts, engine.WithObserver(journal))
	}

	loop := engine.New(cfg.Params(), sensor, servo, loopOpts...)

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	slog.Info("loop starting",
		"tick_interval_ms", cfg.TickIntervalMs,
		"ticks", opts.Ticks,
		"source", opts.Source,
	)
	err := loop.Run(ctx, opts.Ticks)
	if err != nil && !errors.Is(err, context.Canceled) {
		return WrapExitError(ExitCommandError, "loop terminated", err)
	}

	slog.Info("loop stopped",
		"ticks", loop.Ticks(),
		"drops", loop.Drops(),
		"position", loop.Reactive().Position,
		"gain", loop.Reactive().Gain,
		"deadband", loop.Reactive().Deadband,
		"cycles", loop.Adaptive().Cycles,
		"facing", world.Facing(),
		"source", world.Source(),
	)
	return nil
}
