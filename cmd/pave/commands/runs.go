package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/paveops/pave/pkg/stores"
)

func newRunsCommand() *cobra.Command {
	var (
		historyPath string
		service     string
		limit       int
	)

	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "Inspect recorded resolution runs",
		Long: `List resolution runs recorded in a history database, or show one run's
component outcomes, grants, and patch audit trail.`,
		Example: `  # List recent runs
  pave runs --history pave.db

  # List runs for one service
  pave runs --history pave.db --service billing

  # Show one run in detail
  pave runs 4f1c... --history pave.db`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := stores.NewSQLiteStore(stores.Config{Path: historyPath})
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

			if len(args) == 1 {
				return showRun(ctx, store, args[0])
			}
			return listRuns(ctx, store, service, limit)
		},
	}

	cmd.Flags().StringVar(&historyPath, "history", "", "SQLite history database path")
	cmd.Flags().StringVar(&service, "service", "", "filter runs by service")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to list")
	_ = cmd.MarkFlagRequired("history")

	return cmd
}

func listRuns(ctx context.Context, store stores.Store, service string, limit int) error {
	var filter *string
	if service != "" {
		filter = &service
	}

	runs, err := store.ListRuns(ctx, filter, limit, 0)
	if err != nil {
		return err
	}

	if jsonOutput {
		raw, err := json.MarshalIndent(runs, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(raw))
		return nil
	}

	for _, run := range runs {
		fmt.Printf("%s  %-6s  %s/%s  %s  %s\n",
			run.ID, run.Status, run.Service, run.Environment, run.Framework,
			run.StartedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func showRun(ctx context.Context, store stores.Store, id string) error {
	run, err := store.GetRun(ctx, id)
	if err != nil {
		return err
	}
	outcomes, err := store.ListComponentOutcomes(ctx, id)
	if err != nil {
		return err
	}
	grants, err := store.ListGrantsByRun(ctx, id)
	if err != nil {
		return err
	}
	patches, err := store.ListPatchAuditEntries(ctx, &id, nil, 100, 0)
	if err != nil {
		return err
	}

	if jsonOutput {
		raw, err := json.MarshalIndent(map[string]interface{}{
			"run":        run,
			"components": outcomes,
			"grants":     grants,
			"patchAudit": patches,
		}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(raw))
		return nil
	}

	fmt.Printf("Run %s: %s (%s/%s, %s)\n", run.ID, run.Status, run.Service, run.Environment, run.Framework)
	if run.Error != nil {
		fmt.Printf("Error: %s\n", *run.Error)
	}
	fmt.Println("Components:")
	for _, o := range outcomes {
		fmt.Printf("  %-8s %s (%s)", o.Status, o.Name, o.Type)
		if o.Error != nil {
			fmt.Printf("  %s", *o.Error)
		}
		fmt.Println()
	}
	if len(grants) > 0 {
		fmt.Println("Grants:")
		for _, g := range grants {
			fmt.Printf("  %s -> %s %s [%s]\n", g.Consumer, g.Producer, g.Capability, g.Access)
		}
	}
	if len(patches) > 0 {
		fmt.Println("Patch audit:")
		for _, p := range patches {
			fmt.Printf("  %s on %s approved by %s (%s)\n", p.Patch, p.Component, p.ApprovedBy, p.ApprovedDate)
		}
	}
	return nil
}
