package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"spanmark/internal/workspace"
)

func relationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "relation",
		Short: "Add or remove relations",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "add <document> <semantic> <from key[/position]> <to key[/position]>",
		Short: "Link two entities",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			fromKey, fromPos, err := parseLocator(args[2])
			if err != nil {
				return err
			}
			toKey, toPos, err := parseLocator(args[3])
			if err != nil {
				return err
			}
			return editAndSave(args[0], func(s *workspace.Session) error {
				rel, err := s.AddRelation(args[1], fromKey, fromPos, toKey, toPos)
				if err != nil {
					return err
				}
				fmt.Fprintf(os.Stdout, "Added %s %s -> %s id=%s\n", rel.Semantic, rel.From.Key(), rel.To.Key(), rel.ID)
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "rm <document> <key[/position]>",
		Short: "Remove a relation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, pos, err := parseLocator(args[1])
			if err != nil {
				return err
			}
			return editAndSave(args[0], func(s *workspace.Session) error {
				return s.RemoveRelation(key, pos)
			})
		},
	})
	return cmd
}
