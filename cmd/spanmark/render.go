package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"spanmark/internal/render"
)

func renderCmd() *cobra.Command {
	var segments bool
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "render <document>",
		Short: "Show a document as annotated blocks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(args[0], segments, asJSON)
		},
	}
	cmd.Flags().BoolVar(&segments, "segments", false, "Show raw segments instead of merged blocks")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func runRender(name string, segments, asJSON bool) error {
	p, err := loadProject()
	if err != nil {
		return err
	}
	defer p.close()

	s, err := p.session(name)
	if err != nil {
		return err
	}

	var out any
	var text string
	if segments {
		segs, err := s.Segments("")
		if err != nil {
			return err
		}
		out, text = segs, formatSegments(segs)
	} else {
		blocks, err := s.Blocks("")
		if err != nil {
			return err
		}
		out, text = blocks, formatBlocks(blocks)
	}

	if asJSON {
		return printJSON(out)
	}
	fmt.Fprint(os.Stdout, text)
	return nil
}

func formatSegments(segs []render.Segment) string {
	var sb strings.Builder
	for _, seg := range segs {
		fmt.Fprintf(&sb, "[%d,%d) %q", seg.Start, seg.End, seg.Text)
		if len(seg.Spans) > 0 {
			sb.WriteString(" " + spanLabels(seg.Spans))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func formatBlocks(blocks []render.Block) string {
	var sb strings.Builder
	for _, b := range blocks {
		if b.Kind == render.BlockPlain {
			fmt.Fprintf(&sb, "[%d,%d) %q\n", b.Start, b.End, b.Text)
			continue
		}
		fmt.Fprintf(&sb, "[%d,%d) %q %s\n", b.Start, b.End, b.Content(), spanLabels(b.Spans))
	}
	return sb.String()
}

func spanLabels(spans []render.Span) string {
	labels := make([]string, 0, len(spans))
	for _, span := range spans {
		labels = append(labels, fmt.Sprintf("%s@%s/%d", span.Entity.Semantic, span.OffsetKey, span.Position))
	}
	return "{" + strings.Join(labels, ", ") + "}"
}
