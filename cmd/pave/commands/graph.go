package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/paveops/pave/pkg/engine"
	"github.com/paveops/pave/pkg/manifest"
)

func newGraphCommand() *cobra.Command {
	var (
		dotFile   string
		showOrder bool
	)

	cmd := &cobra.Command{
		Use:   "graph <manifest>",
		Short: "Render the component dependency graph",
		Long: `Build the dependency graph from a manifest's dependencies and bindings
and render it in Graphviz DOT format. Cycles and dangling references are
reported as errors.`,
		Example: `  # Print DOT to stdout
  pave graph service.yaml

  # Write DOT to a file and show instantiation order
  pave graph service.yaml --dot service.dot --order`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := manifest.Load(args[0])
			if err != nil {
				return err
			}

			g, err := engine.BuildGraph(m.Components, m.AllBindings())
			if err != nil {
				return err
			}

			order, err := g.TopologicalOrder()
			if err != nil {
				return err
			}

			dot := g.DOT()
			if dotFile != "" {
				if err := os.WriteFile(dotFile, []byte(dot), 0644); err != nil {
					return fmt.Errorf("failed to write DOT file: %w", err)
				}
				fmt.Printf("Graph written to %s\n", dotFile)
			} else {
				fmt.Print(dot)
			}

			if showOrder {
				fmt.Println("Instantiation order:")
				for i, name := range order {
					fmt.Printf("  %d. %s\n", i+1, name)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dotFile, "dot", "", "write DOT output to this file instead of stdout")
	cmd.Flags().BoolVar(&showOrder, "order", false, "also print the instantiation order")

	return cmd
}
