package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"spanmark/internal/config"
)

const defaultSchema = `{
  "name": "default",
  "entity": [
    {"name": "PERSON", "attrs": [{"name": "note"}]},
    {"name": "ORG"},
    {"name": "PLACE"}
  ],
  "relation": [
    {"name": "WORKS_FOR", "from_entity": "PERSON", "to_entity": "ORG"},
    {"name": "LOCATED_IN", "to_entity": "PLACE"}
  ]
}
`

func initCmd() *cobra.Command {
	var projectName string
	var schemaFrom string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a new spanmark project",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(projectName) == "" {
				return fmt.Errorf("--name is required")
			}
			return runInit(projectName, schemaFrom)
		},
	}
	cmd.Flags().StringVar(&projectName, "name", "", "Project name")
	cmd.Flags().StringVar(&schemaFrom, "schema-from", "", "Copy the schema from this JSON or YAML file")
	return cmd
}

func runInit(projectName, schemaFrom string) error {
	const docsDir = "docs"
	schemaPath := "schema.json"
	if schemaFrom != "" {
		schemaPath = "schema" + filepath.Ext(schemaFrom)
	}
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("%s already exists", configPath)
	}
	if _, err := os.Stat(schemaPath); err == nil {
		return fmt.Errorf("%s already exists", schemaPath)
	}

	contents := []byte(defaultSchema)
	if schemaFrom != "" {
		if _, err := config.LoadSchema(schemaFrom); err != nil {
			return err
		}
		var err error
		if contents, err = os.ReadFile(schemaFrom); err != nil {
			return fmt.Errorf("reading %s: %w", schemaFrom, err)
		}
	}

	configContents := fmt.Sprintf("project: %s\nversion: 1\ndocuments: ./%s\nschema: ./%s\nautosave: false\n\ndatabase:\n  dsn: sqlite://./spanmark.db\n\n# neo4j:\n#   uri: bolt://localhost:7687\n#   username: neo4j\n#   password: changeme\n\nlog:\n  level: info\n  format: console\n", projectName, docsDir, schemaPath)
	if err := os.WriteFile(configPath, []byte(configContents), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", configPath, err)
	}
	if err := os.WriteFile(schemaPath, contents, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", schemaPath, err)
	}
	if err := os.MkdirAll(docsDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", docsDir, err)
	}
	fmt.Fprintf(os.Stdout, "Initialised %s. Drop .txt files into ./%s to start annotating.\n", projectName, docsDir)
	return nil
}
