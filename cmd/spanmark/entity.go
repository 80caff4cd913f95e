package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"spanmark/internal/offset"
	"spanmark/internal/workspace"
)

func entityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entity",
		Short: "Add or remove entities",
	}
	cmd.AddCommand(entityAddCmd())
	cmd.AddCommand(entityRemoveCmd())
	return cmd
}

func entityAddCmd() *cobra.Command {
	var span string
	var match string
	var occurrence int
	cmd := &cobra.Command{
		Use:   "add <document> <semantic>",
		Short: "Label a span given as --span START:END or by --match text",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (span == "") == (match == "") {
				return fmt.Errorf("exactly one of --span or --match is required")
			}
			return runEntityAdd(args[0], args[1], span, match, occurrence)
		},
	}
	cmd.Flags().StringVar(&span, "span", "", "UTF-16 code unit range START:END, end exclusive")
	cmd.Flags().StringVar(&match, "match", "", "Text to label as it appears in the rendered document")
	cmd.Flags().IntVar(&occurrence, "occurrence", 1, "Which occurrence of --match to label, counting from 1")
	return cmd
}

func runEntityAdd(name, semantic, span, match string, occurrence int) error {
	p, err := loadProject()
	if err != nil {
		return err
	}
	defer p.close()

	s, err := p.session(name)
	if err != nil {
		return err
	}

	var start, end int
	if span != "" {
		if start, end, err = parseSpan(span); err != nil {
			return err
		}
	} else {
		if start, end, err = locate(s, match, occurrence); err != nil {
			return err
		}
	}

	entity, key, err := s.AddEntity(start, end, semantic)
	if err != nil {
		return err
	}
	if err := save(s); err != nil {
		return err
	}
	doc, _ := s.Document()
	fmt.Fprintf(os.Stdout, "Added %s %q at [%d,%d) id=%s key=%s\n",
		entity.Semantic, doc.Slice(entity.Begin, entity.End), entity.Begin, entity.End, entity.ID, key)
	return nil
}

// locate finds match in the rendered layout of the active document.
func locate(s *workspace.Session, match string, occurrence int) (int, int, error) {
	blocks, err := s.Blocks("")
	if err != nil {
		return 0, 0, err
	}
	from, to, ok := offset.Find(offset.Layout(blocks), match, occurrence-1)
	if !ok {
		return 0, 0, fmt.Errorf("occurrence %d of %q not found", occurrence, match)
	}
	start, end, ok := offset.Selection(from.Node, from.Delta, to.Node, to.Delta, match)
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", workspace.ErrInvalidSpan, match)
	}
	return start, end, nil
}

func entityRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <document> <key[/position]>",
		Short: "Remove an entity and every relation that references it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, pos, err := parseLocator(args[1])
			if err != nil {
				return err
			}
			return editAndSave(args[0], func(s *workspace.Session) error {
				return s.RemoveEntity(key, pos)
			})
		},
	}
}

// editAndSave applies edit to the named document and writes it back.
func editAndSave(name string, edit func(s *workspace.Session) error) error {
	p, err := loadProject()
	if err != nil {
		return err
	}
	defer p.close()

	s, err := p.session(name)
	if err != nil {
		return err
	}
	if err := edit(s); err != nil {
		return err
	}
	return save(s)
}

func parseSpan(value string) (int, int, error) {
	left, right, ok := strings.Cut(value, ":")
	if !ok {
		return 0, 0, fmt.Errorf("invalid span %q: expected START:END", value)
	}
	start, err := strconv.Atoi(strings.TrimSpace(left))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid span start %q", left)
	}
	end, err := strconv.Atoi(strings.TrimSpace(right))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid span end %q", right)
	}
	return start, end, nil
}

// parseLocator reads "KEY" or "KEY/POSITION"; the position defaults to 0.
func parseLocator(value string) (string, int, error) {
	key, pos, ok := strings.Cut(value, "/")
	key = strings.TrimSpace(key)
	if key == "" {
		return "", 0, fmt.Errorf("invalid locator %q: empty key", value)
	}
	if !ok {
		return key, 0, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(pos))
	if err != nil || n < 0 {
		return "", 0, fmt.Errorf("invalid locator %q: bad position", value)
	}
	return key, n, nil
}
