package main

import (
	"github.com/spf13/cobra"

	"spanmark/internal/workspace"
)

func attrCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "attr",
		Short: "Set or remove entity attributes",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set <document> <key[/position]> <name> <value>",
		Short: "Set an attribute, creating it when absent",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, pos, err := parseLocator(args[1])
			if err != nil {
				return err
			}
			return editAndSave(args[0], func(s *workspace.Session) error {
				return s.SetAttribute(key, pos, args[2], args[3])
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "rm <document> <key[/position]> <name>",
		Short: "Remove an attribute",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, pos, err := parseLocator(args[1])
			if err != nil {
				return err
			}
			return editAndSave(args[0], func(s *workspace.Session) error {
				return s.RemoveAttribute(key, pos, args[2])
			})
		},
	})
	return cmd
}
