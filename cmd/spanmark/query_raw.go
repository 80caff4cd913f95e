package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"spanmark/internal/store"
)

// rawQuery runs query against one backend of the project.
type rawQuery func(ctx context.Context, p *project, query string, params map[string]any) (*store.Table, error)

func querySQLCmd() *cobra.Command {
	return rawQueryCmd("sql <query>", "Run a read only SQL query against the annotation database",
		"Positional parameter as N=value (repeatable)", runSQL)
}

func queryCypherCmd() *cobra.Command {
	return rawQueryCmd("cypher <query>", "Run a read only Cypher query against the exported graph",
		"Query parameter as key=value (repeatable)", runCypher)
}

func rawQueryCmd(use, short, paramUsage string, run rawQuery) *cobra.Command {
	var paramPairs []string
	var format string
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "json" && format != "table" {
				return fmt.Errorf("unknown format %q: expected json or table", format)
			}
			params, err := parseParamPairs(paramPairs)
			if err != nil {
				return err
			}

			ctx := context.Background()
			p, err := loadProject()
			if err != nil {
				return err
			}
			defer p.close()

			table, err := run(ctx, p, strings.Join(args, " "), params)
			if err != nil {
				return err
			}
			if format == "table" {
				return writeTable(os.Stdout, table)
			}
			return printJSON(table.Records())
		},
	}
	cmd.Flags().StringArrayVar(&paramPairs, "param", nil, paramUsage)
	cmd.Flags().StringVar(&format, "format", "json", "Output format: json or table")
	return cmd
}

func runSQL(ctx context.Context, p *project, query string, params map[string]any) (*store.Table, error) {
	args, err := store.PositionalArgs(params)
	if err != nil {
		return nil, err
	}
	db, err := openDB(ctx, p)
	if err != nil {
		return nil, err
	}
	defer db.Close(ctx)
	return db.RunSQL(ctx, query, args...)
}

func runCypher(ctx context.Context, p *project, query string, params map[string]any) (*store.Table, error) {
	client, err := openGraph(ctx, p)
	if err != nil {
		return nil, err
	}
	defer client.Close(ctx)
	return client.RunCypher(ctx, query, params)
}

func writeTable(w io.Writer, table *store.Table) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.ToUpper(strings.Join(table.Columns, "\t")))
	for _, row := range table.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = formatCell(v)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "(%d rows)\n", len(table.Rows))
	return nil
}

// formatCell renders scalars as is and anything structured as compact JSON.
func formatCell(v any) string {
	switch v := v.(type) {
	case nil:
		return "NULL"
	case string:
		return v
	case map[string]any, []any:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(data)
	default:
		return fmt.Sprint(v)
	}
}

func printJSON(v any) error {
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	fmt.Fprintln(os.Stdout, string(payload))
	return nil
}

func parseParamPairs(pairs []string) (map[string]any, error) {
	params := make(map[string]any)
	for _, pair := range pairs {
		if pair == "" {
			continue
		}
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid param %q: expected key=value", pair)
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("invalid param %q: empty key", pair)
		}
		params[key] = strings.TrimSpace(value)
	}
	return params, nil
}
