package mcp

import (
	"context"
	"errors"
	"fmt"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"spanmark/internal/annotation"
	"spanmark/internal/config"
	"spanmark/internal/render"
	"spanmark/internal/store"
	"spanmark/internal/validate"
	"spanmark/internal/workspace"
)

type ListDocumentsInput struct{}

type DocumentInput struct {
	Document string `json:"document,omitempty" jsonschema:"document filename, defaults to the active document"`
}

type ListAnnotationsInput struct {
	Document string `json:"document,omitempty" jsonschema:"document filename, defaults to the active document"`
	Semantic string `json:"semantic,omitempty" jsonschema:"restrict to one label"`
}

type SearchInput struct {
	Query    string `json:"query" jsonschema:"search terms"`
	Semantic string `json:"semantic,omitempty" jsonschema:"restrict to one entity label"`
}

type StoredInput struct {
	Document string `json:"document,omitempty" jsonschema:"stored document filename"`
	Semantic string `json:"semantic,omitempty" jsonschema:"restrict to one label"`
}

type GetSchemaInput struct{}

type ValidateInput struct{}

type DocumentOutput struct {
	Filename  string `json:"filename"`
	Chars     int    `json:"chars"`
	Tokens    int    `json:"tokens"`
	Entities  int    `json:"entities"`
	Relations int    `json:"relations"`
	Dirty     bool   `json:"dirty"`
	Active    bool   `json:"active"`
}

type ListDocumentsOutput struct {
	Documents []DocumentOutput `json:"documents"`
}

type SpanOutput struct {
	ID        string `json:"id"`
	Semantic  string `json:"semantic"`
	OffsetKey string `json:"offset_key"`
	Position  int    `json:"position"`
	Begin     int    `json:"begin"`
	End       int    `json:"end"`
}

type SegmentOutput struct {
	Text  string       `json:"text"`
	Start int          `json:"start"`
	End   int          `json:"end"`
	Spans []SpanOutput `json:"spans"`
}

type SegmentsOutput struct {
	Segments []SegmentOutput `json:"segments"`
}

type BlockOutput struct {
	Kind     string          `json:"kind"`
	Text     string          `json:"text"`
	Start    int             `json:"start"`
	End      int             `json:"end"`
	Segments []SegmentOutput `json:"segments,omitempty"`
	Spans    []SpanOutput    `json:"spans,omitempty"`
}

type BlocksOutput struct {
	Blocks []BlockOutput `json:"blocks"`
}

type EntityOutput struct {
	ID        string            `json:"id"`
	Semantic  string            `json:"semantic"`
	OffsetKey string            `json:"offset_key"`
	Position  int               `json:"position"`
	Begin     int               `json:"begin"`
	End       int               `json:"end"`
	Text      string            `json:"text"`
	Attrs     map[string]string `json:"attrs"`
}

type EndpointOutput struct {
	Begin    int    `json:"begin"`
	End      int    `json:"end"`
	Semantic string `json:"semantic"`
	Text     string `json:"text,omitempty"`
}

type RelationOutput struct {
	ID        string            `json:"id"`
	Semantic  string            `json:"semantic"`
	OffsetKey string            `json:"offset_key,omitempty"`
	Position  int               `json:"position"`
	From      EndpointOutput    `json:"from"`
	To        EndpointOutput    `json:"to"`
	Attrs     map[string]string `json:"attrs"`
}

type ListAnnotationsOutput struct {
	Entities  []EntityOutput   `json:"entities"`
	Relations []RelationOutput `json:"relations"`
}

type SearchResultOutput struct {
	Document string  `json:"document"`
	SpanID   string  `json:"span_id"`
	Semantic string  `json:"semantic"`
	Begin    int     `json:"begin"`
	End      int     `json:"end"`
	Text     string  `json:"text"`
	Snippet  string  `json:"snippet"`
	Score    float64 `json:"score"`
}

type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
}

type StoredEntityOutput struct {
	Document string            `json:"document"`
	SpanID   string            `json:"span_id"`
	Semantic string            `json:"semantic"`
	Begin    int               `json:"begin"`
	End      int               `json:"end"`
	Text     string            `json:"text"`
	Attrs    map[string]string `json:"attrs"`
}

type StoredEntitiesOutput struct {
	Entities []StoredEntityOutput `json:"entities"`
}

type StoredRelationOutput struct {
	Document   string            `json:"document"`
	RelationID string            `json:"relation_id"`
	Semantic   string            `json:"semantic"`
	From       EndpointOutput    `json:"from"`
	To         EndpointOutput    `json:"to"`
	Attrs      map[string]string `json:"attrs"`
}

type StoredRelationsOutput struct {
	Relations []StoredRelationOutput `json:"relations"`
}

type AttrDefOutput struct {
	Name    string   `json:"name"`
	Type    string   `json:"type,omitempty"`
	Values  []string `json:"values,omitempty"`
	Default string   `json:"default,omitempty"`
}

type EntityTypeOutput struct {
	Name  string          `json:"name"`
	Attrs []AttrDefOutput `json:"attrs"`
}

type RelationTypeOutput struct {
	Name  string          `json:"name"`
	From  string          `json:"from,omitempty"`
	To    string          `json:"to,omitempty"`
	Attrs []AttrDefOutput `json:"attrs"`
}

type SchemaOutput struct {
	Name          string               `json:"name"`
	EntityTypes   []EntityTypeOutput   `json:"entity_types"`
	RelationTypes []RelationTypeOutput `json:"relation_types"`
}

type IssueOutput struct {
	Severity  string `json:"severity"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	Document  string `json:"document"`
	OffsetKey string `json:"offset_key,omitempty"`
	ID        string `json:"id,omitempty"`
}

type ValidateOutput struct {
	Errors   int           `json:"errors"`
	Warnings int           `json:"warnings"`
	Issues   []IssueOutput `json:"issues"`
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_documents",
		Description: "List workspace documents with annotation counts",
	}, s.handleListDocuments)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_segments",
		Description: "Split a document into segments at every entity boundary",
	}, s.handleGetSegments)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_blocks",
		Description: "Group a document's segments into plain and annotated blocks",
	}, s.handleGetBlocks)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_annotations",
		Description: "List the entities and relations of a document",
	}, s.handleListAnnotations)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "validate_documents",
		Description: "Check every workspace document for structural and schema problems",
	}, s.handleValidate)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "search_annotations",
		Description: "Full-text search over ingested entity spans and attributes",
	}, s.handleSearch)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "stored_entities",
		Description: "List ingested entities with optional filters",
	}, s.handleStoredEntities)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "stored_relations",
		Description: "List ingested relations with endpoint text",
	}, s.handleStoredRelations)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_schema",
		Description: "Return the annotation schema",
	}, s.handleGetSchema)

	s.registerEditTools()
}

func (s *Server) handleListDocuments(ctx context.Context, req *sdk.CallToolRequest, input ListDocumentsInput) (*sdk.CallToolResult, ListDocumentsOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws := s.session.Workspace()
	output := make([]DocumentOutput, 0, ws.Len())
	for i, doc := range ws.Files() {
		output = append(output, DocumentOutput{
			Filename:  doc.Filename,
			Chars:     doc.CharCount(),
			Tokens:    doc.TokenCount(),
			Entities:  doc.Indexes.EntityCount(),
			Relations: doc.Indexes.RelationCount(),
			Dirty:     doc.Dirty(),
			Active:    i == ws.ActiveIndex(),
		})
	}
	return nil, ListDocumentsOutput{Documents: output}, nil
}

func (s *Server) handleGetSegments(ctx context.Context, req *sdk.CallToolRequest, input DocumentInput) (*sdk.CallToolResult, SegmentsOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	segments, err := s.session.Segments(input.Document)
	if err != nil {
		return nil, SegmentsOutput{}, err
	}
	return nil, SegmentsOutput{Segments: segmentOutputs(segments)}, nil
}

func (s *Server) handleGetBlocks(ctx context.Context, req *sdk.CallToolRequest, input DocumentInput) (*sdk.CallToolResult, BlocksOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	blocks, err := s.session.Blocks(input.Document)
	if err != nil {
		return nil, BlocksOutput{}, err
	}
	output := make([]BlockOutput, 0, len(blocks))
	for _, block := range blocks {
		out := BlockOutput{
			Kind:  string(block.Kind),
			Text:  block.Content(),
			Start: block.Start,
			End:   block.End,
		}
		if block.Kind == render.BlockAnnotated {
			out.Segments = segmentOutputs(block.Segments)
			out.Spans = spanOutputs(block.Spans)
		}
		output = append(output, out)
	}
	return nil, BlocksOutput{Blocks: output}, nil
}

func (s *Server) handleListAnnotations(ctx context.Context, req *sdk.CallToolRequest, input ListAnnotationsInput) (*sdk.CallToolResult, ListAnnotationsOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.document(input.Document)
	if err != nil {
		return nil, ListAnnotationsOutput{}, err
	}

	out := ListAnnotationsOutput{
		Entities:  make([]EntityOutput, 0),
		Relations: make([]RelationOutput, 0),
	}
	for _, entry := range doc.Indexes.Entities() {
		if input.Semantic != "" && entry.Entity.Semantic != input.Semantic {
			continue
		}
		out.Entities = append(out.Entities, entityOutput(doc, entry))
	}
	for _, entry := range doc.Indexes.Relations() {
		if input.Semantic != "" && entry.Relation.Semantic != input.Semantic {
			continue
		}
		out.Relations = append(out.Relations, relationOutput(doc, entry))
	}
	return nil, out, nil
}

func (s *Server) handleValidate(ctx context.Context, req *sdk.CallToolRequest, input ValidateInput) (*sdk.CallToolResult, ValidateOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := validate.Run(s.session.Workspace().Files(), s.session.Schema())
	out := ValidateOutput{
		Errors:   report.Count(validate.SeverityError),
		Warnings: report.Count(validate.SeverityWarn),
		Issues:   make([]IssueOutput, 0, len(report.Issues)),
	}
	for _, issue := range report.Issues {
		out.Issues = append(out.Issues, IssueOutput{
			Severity:  string(issue.Severity),
			Code:      issue.Code,
			Message:   issue.Message,
			Document:  issue.File,
			OffsetKey: issue.OffsetKey,
			ID:        issue.ID,
		})
	}
	return nil, out, nil
}

func (s *Server) handleSearch(ctx context.Context, req *sdk.CallToolRequest, input SearchInput) (*sdk.CallToolResult, SearchOutput, error) {
	if input.Query == "" {
		return nil, SearchOutput{}, fmt.Errorf("query is required")
	}
	if s.db == nil {
		return nil, SearchOutput{}, errNoDatabase
	}
	results, err := s.db.Search(ctx, input.Query, input.Semantic)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := make([]SearchResultOutput, 0, len(results))
	for _, result := range results {
		output = append(output, SearchResultOutput{
			Document: result.Filename,
			SpanID:   result.SpanID,
			Semantic: result.Semantic,
			Begin:    result.Begin,
			End:      result.End,
			Text:     result.Text,
			Snippet:  result.Snippet,
			Score:    result.Score,
		})
	}
	return nil, SearchOutput{Results: output}, nil
}

func (s *Server) handleStoredEntities(ctx context.Context, req *sdk.CallToolRequest, input StoredInput) (*sdk.CallToolResult, StoredEntitiesOutput, error) {
	if s.db == nil {
		return nil, StoredEntitiesOutput{}, errNoDatabase
	}
	records, err := s.db.ListEntities(ctx, input.Document, input.Semantic)
	if err != nil {
		return nil, StoredEntitiesOutput{}, err
	}

	output := make([]StoredEntityOutput, 0, len(records))
	for _, record := range records {
		output = append(output, StoredEntityOutput{
			Document: record.Filename,
			SpanID:   record.SpanID,
			Semantic: record.Semantic,
			Begin:    record.Begin,
			End:      record.End,
			Text:     record.Text,
			Attrs:    record.Attrs,
		})
	}
	return nil, StoredEntitiesOutput{Entities: output}, nil
}

func (s *Server) handleStoredRelations(ctx context.Context, req *sdk.CallToolRequest, input StoredInput) (*sdk.CallToolResult, StoredRelationsOutput, error) {
	if s.db == nil {
		return nil, StoredRelationsOutput{}, errNoDatabase
	}
	records, err := s.db.ListRelations(ctx, input.Document, input.Semantic)
	if err != nil {
		return nil, StoredRelationsOutput{}, err
	}

	output := make([]StoredRelationOutput, 0, len(records))
	for _, record := range records {
		output = append(output, StoredRelationOutput{
			Document:   record.Filename,
			RelationID: record.RelationID,
			Semantic:   record.Semantic,
			From:       endpointFromStore(record.From),
			To:         endpointFromStore(record.To),
			Attrs:      record.Attrs,
		})
	}
	return nil, StoredRelationsOutput{Relations: output}, nil
}

func (s *Server) handleGetSchema(ctx context.Context, req *sdk.CallToolRequest, input GetSchemaInput) (*sdk.CallToolResult, SchemaOutput, error) {
	return nil, schemaOutputFromConfig(s.session.Schema()), nil
}

var errNoDatabase = errors.New("no database configured")

func (s *Server) document(name string) (*annotation.Document, error) {
	if name == "" {
		return s.session.Document()
	}
	ws := s.session.Workspace()
	i, ok := ws.Find(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", workspace.ErrDocumentNotFound, name)
	}
	doc, _ := ws.File(i)
	return doc, nil
}

func schemaOutputFromConfig(schema *config.Schema) SchemaOutput {
	if schema == nil {
		return SchemaOutput{EntityTypes: []EntityTypeOutput{}, RelationTypes: []RelationTypeOutput{}}
	}

	out := SchemaOutput{
		Name:          schema.Name,
		EntityTypes:   make([]EntityTypeOutput, 0, len(schema.Entities)),
		RelationTypes: make([]RelationTypeOutput, 0, len(schema.Relations)),
	}
	for _, entity := range schema.Entities {
		out.EntityTypes = append(out.EntityTypes, EntityTypeOutput{
			Name:  entity.Name,
			Attrs: attrDefOutputs(entity.Attrs),
		})
	}
	for _, rel := range schema.Relations {
		out.RelationTypes = append(out.RelationTypes, RelationTypeOutput{
			Name:  rel.Name,
			From:  rel.FromEntity,
			To:    rel.ToEntity,
			Attrs: attrDefOutputs(rel.Attrs),
		})
	}
	return out
}

func attrDefOutputs(defs []config.AttrDef) []AttrDefOutput {
	out := make([]AttrDefOutput, 0, len(defs))
	for _, def := range defs {
		out = append(out, AttrDefOutput{
			Name:    def.Name,
			Type:    def.ValueType,
			Values:  def.Values,
			Default: def.DefaultValue,
		})
	}
	return out
}

func spanOutputs(spans []render.Span) []SpanOutput {
	out := make([]SpanOutput, 0, len(spans))
	for _, span := range spans {
		out = append(out, SpanOutput{
			ID:        span.Entity.ID,
			Semantic:  span.Entity.Semantic,
			OffsetKey: span.OffsetKey,
			Position:  span.Position,
			Begin:     span.Begin(),
			End:       span.End(),
		})
	}
	return out
}

func segmentOutputs(segments []render.Segment) []SegmentOutput {
	out := make([]SegmentOutput, 0, len(segments))
	for _, seg := range segments {
		out = append(out, SegmentOutput{
			Text:  seg.Text,
			Start: seg.Start,
			End:   seg.End,
			Spans: spanOutputs(seg.Spans),
		})
	}
	return out
}

func entityOutput(doc *annotation.Document, entry annotation.EntityEntry) EntityOutput {
	e := entry.Entity
	return EntityOutput{
		ID:        e.ID,
		Semantic:  e.Semantic,
		OffsetKey: entry.OffsetKey,
		Position:  entry.Position,
		Begin:     e.Begin,
		End:       e.End,
		Text:      doc.Slice(e.Begin, e.End),
		Attrs:     attrValues(e.Attrs),
	}
}

func relationOutput(doc *annotation.Document, entry annotation.RelationEntry) RelationOutput {
	r := entry.Relation
	return RelationOutput{
		ID:        r.ID,
		Semantic:  r.Semantic,
		OffsetKey: entry.OffsetKey,
		Position:  entry.Position,
		From:      endpointOutput(doc, r.From),
		To:        endpointOutput(doc, r.To),
		Attrs:     attrValues(r.Attrs),
	}
}

func endpointOutput(doc *annotation.Document, ref annotation.EntityRef) EndpointOutput {
	return EndpointOutput{
		Begin:    ref.Begin,
		End:      ref.End,
		Semantic: ref.Semantic,
		Text:     doc.Slice(ref.Begin, ref.End),
	}
}

func endpointFromStore(ref store.SpanRef) EndpointOutput {
	return EndpointOutput{Begin: ref.Begin, End: ref.End, Semantic: ref.Semantic, Text: ref.Text}
}

func attrValues(attrs map[string]*annotation.Attribute) map[string]string {
	out := make(map[string]string, len(attrs))
	for key, attr := range attrs {
		if attr != nil {
			out[key] = attr.Value
		}
	}
	return out
}
