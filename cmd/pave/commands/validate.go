package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/paveops/pave/pkg/manifest"
	"github.com/paveops/pave/pkg/policy"
)

func newValidateCommand() *cobra.Command {
	var env string

	cmd := &cobra.Command{
		Use:   "validate <manifest>",
		Short: "Validate a service manifest",
		Long: `Validate a service manifest without resolving it.

This command checks:
  - Manifest structure (required fields, name formats, references)
  - Policy compliance (built-in rules plus --policy-dir rules)`,
		Example: `  # Structural and policy validation
  pave validate service.yaml

  # Audit against a specific environment's framework
  pave validate service.yaml --env prod`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			m, err := manifest.Load(args[0])
			if err != nil {
				return err
			}

			structural := manifest.NewValidator().Validate(m)
			for _, e := range structural {
				fmt.Printf("error: %s\n", e.String())
			}
			if len(structural) > 0 {
				return fmt.Errorf("manifest has %d structural errors", len(structural))
			}

			logger, err := newLogger()
			if err != nil {
				return err
			}
			auditor, err := policy.NewEngine(logger.Zerolog())
			if err != nil {
				return err
			}
			if len(policyDirs) > 0 {
				if err := auditor.LoadPolicies(ctx, policyDirs); err != nil {
					return err
				}
			}

			result, err := auditor.Evaluate(ctx, m, &policy.Context{
				Service:     m.Service,
				Environment: env,
				Framework:   string(m.FrameworkFor(env)),
				Timestamp:   time.Now(),
			})
			if err != nil {
				return err
			}

			for _, v := range result.Violations {
				fmt.Printf("%s: [%s] %s", v.Severity, v.Policy, v.Message)
				if v.Component != "" {
					fmt.Printf(" (component %s)", v.Component)
				}
				fmt.Println()
			}
			for _, w := range result.Warnings {
				fmt.Printf("warning: %s\n", w)
			}

			if !result.Allowed {
				return fmt.Errorf("manifest blocked by policy")
			}

			fmt.Printf("Manifest %s is valid (%d policies evaluated)\n", m.Service, len(result.EvaluatedPolicies))
			return nil
		},
	}

	cmd.Flags().StringVarP(&env, "env", "e", "", "environment to audit against")

	return cmd
}
