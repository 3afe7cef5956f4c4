package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/paveops/pave/pkg/telemetry"
)

var (
	// Global flags
	verbose    bool
	jsonOutput bool
	policyDirs []string
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pave",
		Short: "Pave - Configuration Resolution & Component Binding Engine",
		Long: `Pave resolves service manifests into ready-to-synthesize infrastructure
plans. It merges configuration across precedence layers, validates against
component schemas and compliance framework defaults, orders components by
dependency, and derives access grants from capability bindings.

Features:
  - Layered configuration with compliance framework defaults
  - Schema validation with cross-field invariants
  - Dependency graph ordering with cycle detection
  - Capability binding resolution and access grants
  - Policy auditing via OPA/Rego
  - Resolution history in SQLite`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().StringSliceVar(&policyDirs, "policy-dir", nil, "directories with additional .rego policies")

	// Add subcommands
	rootCmd.AddCommand(newResolveCommand())
	rootCmd.AddCommand(newValidateCommand())
	rootCmd.AddCommand(newGraphCommand())
	rootCmd.AddCommand(newFrameworksCommand())
	rootCmd.AddCommand(newRunsCommand())

	return rootCmd
}

// newLogger builds the telemetry logger the commands share, honoring the
// --verbose flag.
func newLogger() (*telemetry.Logger, error) {
	cfg := telemetry.DefaultConfig().Logging
	if verbose {
		cfg.Level = "debug"
	}
	return telemetry.NewLogger(cfg)
}
