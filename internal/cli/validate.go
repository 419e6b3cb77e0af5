package cli

import (
	"github.com/spf13/cobra"

	"github.com/phototropic/heliostat/internal/config"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid bool   `json:"valid"`
	Path  string `json:"path"`
	Error string `json:"error,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <profile.yaml>",
		Short: "Validate a tuning profile without running the loop",
		Long: `Validate a YAML tuning profile against the embedded schema.

Checks value types and bounds, range/limit containment, and threshold
ordering. Exit code 1 signals an invalid profile.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	_, err := config.Load(path)
	if err != nil {
		_ = formatter.Error("E_PROFILE", err.Error(), nil)
		return WrapExitError(ExitFailure, "invalid profile", err)
	}

	if opts.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Path: path})
	}
	return formatter.Success("profile is valid")
}
