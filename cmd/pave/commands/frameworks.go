package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/paveops/pave/pkg/compliance"
)

func newFrameworksCommand() *cobra.Command {
	var (
		framework     string
		componentType string
	)

	cmd := &cobra.Command{
		Use:   "frameworks",
		Short: "List compliance frameworks and their configuration defaults",
		Example: `  # List supported frameworks
  pave frameworks

  # Show every default a framework applies
  pave frameworks --framework fedramp-high

  # Show the defaults for one component type
  pave frameworks --framework fedramp-high --type db-postgres`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if framework == "" {
				for _, f := range compliance.Frameworks() {
					fmt.Println(f)
				}
				return nil
			}

			fw, err := compliance.Parse(framework)
			if err != nil {
				return err
			}

			cache := compliance.NewDefaultsCache()
			var doc interface{}
			if componentType != "" {
				defaults, err := cache.Defaults(fw, componentType)
				if err != nil {
					return err
				}
				doc = defaults
			} else {
				full, err := cache.Document(fw)
				if err != nil {
					return err
				}
				doc = full
			}

			raw, err := json.MarshalIndent(doc, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(raw))
			return nil
		},
	}

	cmd.Flags().StringVar(&framework, "framework", "", "framework to show defaults for")
	cmd.Flags().StringVar(&componentType, "type", "", "component type to show defaults for")

	return cmd
}
