package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/paveops/pave/pkg/components"
	"github.com/paveops/pave/pkg/engine"
	"github.com/paveops/pave/pkg/manifest"
	"github.com/paveops/pave/pkg/policy"
	"github.com/paveops/pave/pkg/stores"
	"github.com/paveops/pave/pkg/telemetry"
)

func newResolveCommand() *cobra.Command {
	var (
		env         string
		outFile     string
		historyPath string
	)

	cmd := &cobra.Command{
		Use:   "resolve <manifest>",
		Short: "Resolve a service manifest into a deployment plan",
		Long: `Resolve a service manifest for one environment.

Resolution:
  - Validates manifest structure and audits it against policies
  - Merges configuration across precedence layers per component
  - Orders components by dependencies and bindings
  - Resolves capability bindings into access grants`,
		Example: `  # Resolve for production
  pave resolve service.yaml --env prod

  # Write the full plan to a file
  pave resolve service.yaml --env prod --out plan.json

  # Record the run in a history database
  pave resolve service.yaml --env prod --history pave.db`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			m, err := manifest.Load(args[0])
			if err != nil {
				return err
			}

			logger, err := newLogger()
			if err != nil {
				return err
			}

			resolver, err := buildResolver(ctx, logger)
			if err != nil {
				return err
			}

			result, runErr := resolver.Resolve(ctx, m, env)

			if historyPath != "" && result != nil {
				if err := recordHistory(ctx, historyPath, m, result, runErr); err != nil {
					logger.WithError(err).Errorf("failed to record resolution history")
				}
			}

			if result != nil {
				if err := writeResult(result, outFile); err != nil {
					return err
				}
			}

			return runErr
		},
	}

	cmd.Flags().StringVarP(&env, "env", "e", "", "target environment")
	cmd.Flags().StringVarP(&outFile, "out", "o", "", "write the full plan as JSON to this file")
	cmd.Flags().StringVar(&historyPath, "history", "", "SQLite database to record the run in")
	_ = cmd.MarkFlagRequired("env")

	return cmd
}

// buildResolver wires the builtin component catalog and the policy auditor
// into a resolver.
func buildResolver(ctx context.Context, logger *telemetry.Logger) (*engine.Resolver, error) {
	registry := engine.NewRegistry()
	if err := components.RegisterBuiltins(registry); err != nil {
		return nil, err
	}

	auditor, err := policy.NewEngine(logger.Zerolog())
	if err != nil {
		return nil, err
	}
	if len(policyDirs) > 0 {
		if err := auditor.LoadPolicies(ctx, policyDirs); err != nil {
			return nil, err
		}
	}

	return engine.NewResolver(registry,
		engine.WithLogger(logger),
		engine.WithAuditor(auditor),
	), nil
}

// recordHistory persists one run to the history database.
func recordHistory(ctx context.Context, path string, m *manifest.ServiceManifest, result *engine.ResolutionResult, runErr error) error {
	store, err := stores.NewSQLiteStore(stores.Config{Path: path})
	if err != nil {
		return err
	}
	if err := store.Init(ctx); err != nil {
		return err
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		return err
	}
	return stores.RecordResolution(ctx, store, m, result, runErr)
}

// writeResult prints the plan summary, or the full JSON plan when --json or
// --out is given.
func writeResult(result *engine.ResolutionResult, outFile string) error {
	if outFile != "" || jsonOutput {
		raw, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		if outFile != "" {
			if err := os.WriteFile(outFile, append(raw, '\n'), 0644); err != nil {
				return fmt.Errorf("failed to write result: %w", err)
			}
		}
		if jsonOutput {
			fmt.Println(string(raw))
		}
		if !jsonOutput {
			fmt.Printf("Plan written to %s\n", outFile)
		}
		return nil
	}

	fmt.Printf("Run %s: %s (%s/%s)\n", result.RunID, result.State, result.Service, result.Environment)
	for i, rc := range result.Components {
		patches := ""
		if applied := rc.Config.AppliedPatches(); len(applied) > 0 {
			patches = fmt.Sprintf(" patches=%v", applied)
		}
		fmt.Printf("  %d. %s (%s) grants=%d%s\n", i+1, rc.Spec.Name, rc.Spec.Type, len(rc.Grants), patches)
	}
	if len(result.Grants) > 0 {
		fmt.Printf("Grants:\n")
		for _, g := range result.Grants {
			fmt.Printf("  %s -> %s %s [%s]\n", g.Consumer, g.Producer, g.Capability, g.Access)
		}
	}
	return nil
}
