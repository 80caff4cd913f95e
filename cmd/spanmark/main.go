package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:          "spanmark",
		Short:        "Span annotation workspace with search and graph export",
		SilenceUsage: true,
	}
	root.Version = version
	root.SetVersionTemplate("{{.Version}}\n")
	root.PersistentFlags().StringVar(&configPath, "config", "spanmark.yaml", "Project config file")
	root.AddCommand(initCmd())
	root.AddCommand(listCmd())
	root.AddCommand(renderCmd())
	root.AddCommand(entityCmd())
	root.AddCommand(attrCmd())
	root.AddCommand(relationCmd())
	root.AddCommand(validateCmd())
	root.AddCommand(ingestCmd())
	root.AddCommand(exportGraphCmd())
	root.AddCommand(queryCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(versionCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
