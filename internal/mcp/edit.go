package mcp

import (
	"context"
	"errors"
	"fmt"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"spanmark/internal/annotation"
	"spanmark/internal/workspace"
)

type OpenDocumentInput struct {
	Document string `json:"document" jsonschema:"document filename to make active"`
}

type CreateEntityInput struct {
	Start    int    `json:"start" jsonschema:"first offset, counted in UTF-16 code units"`
	End      int    `json:"end" jsonschema:"offset one past the last code unit"`
	Semantic string `json:"semantic" jsonschema:"entity label"`
}

type EntityLocator struct {
	OffsetKey string `json:"offset_key" jsonschema:"index key of the entity"`
	Position  int    `json:"position,omitempty" jsonschema:"position within the key's entity list"`
}

type SetAttributeInput struct {
	OffsetKey string `json:"offset_key" jsonschema:"index key of the entity"`
	Position  int    `json:"position,omitempty" jsonschema:"position within the key's entity list"`
	Name      string `json:"name" jsonschema:"attribute name"`
	Value     string `json:"value" jsonschema:"attribute value"`
}

type RemoveAttributeInput struct {
	OffsetKey string `json:"offset_key" jsonschema:"index key of the entity"`
	Position  int    `json:"position,omitempty" jsonschema:"position within the key's entity list"`
	Name      string `json:"name" jsonschema:"attribute name"`
}

type CreateRelationInput struct {
	Semantic string        `json:"semantic" jsonschema:"relation label"`
	From     EntityLocator `json:"from" jsonschema:"source entity"`
	To       EntityLocator `json:"to" jsonschema:"target entity"`
}

type RelationLocator struct {
	OffsetKey string `json:"offset_key" jsonschema:"index key the relation is anchored at"`
	Position  int    `json:"position,omitempty" jsonschema:"position within the key's relation list"`
}

type SaveDocumentsInput struct{}

type OpenDocumentOutput struct {
	Document DocumentOutput `json:"document"`
}

// SaveError is set when the edit was applied but autosave could not write
// the document. The change stays in memory until save_documents succeeds.
type EditOutput struct {
	Document  string `json:"document"`
	Dirty     bool   `json:"dirty"`
	SaveError string `json:"save_error,omitempty"`
}

type CreateEntityOutput struct {
	Entity    EntityOutput `json:"entity"`
	Dirty     bool         `json:"dirty"`
	SaveError string       `json:"save_error,omitempty"`
}

type CreateRelationOutput struct {
	Relation  RelationOutput `json:"relation"`
	Dirty     bool           `json:"dirty"`
	SaveError string         `json:"save_error,omitempty"`
}

type SaveDocumentsOutput struct {
	Saved int `json:"saved"`
}

func (s *Server) registerEditTools() {
	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "open_document",
		Description: "Make a workspace document the active one",
	}, s.handleOpenDocument)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "create_entity",
		Description: "Label a range of the active document. A failed autosave is reported in save_error; the entity is still created",
	}, s.handleCreateEntity)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "delete_entity",
		Description: "Delete an entity and every relation that references it",
	}, s.handleDeleteEntity)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "set_attribute",
		Description: "Set an attribute on an entity of the active document",
	}, s.handleSetAttribute)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "remove_attribute",
		Description: "Remove an attribute from an entity of the active document",
	}, s.handleRemoveAttribute)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "create_relation",
		Description: "Link two entities of the active document",
	}, s.handleCreateRelation)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "delete_relation",
		Description: "Delete a relation from the active document",
	}, s.handleDeleteRelation)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "save_documents",
		Description: "Write every modified document back to the workspace",
	}, s.handleSaveDocuments)
}

func (s *Server) handleOpenDocument(ctx context.Context, req *sdk.CallToolRequest, input OpenDocumentInput) (*sdk.CallToolResult, OpenDocumentOutput, error) {
	if input.Document == "" {
		return nil, OpenDocumentOutput{}, fmt.Errorf("document is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.session.Open(input.Document)
	if err != nil {
		return nil, OpenDocumentOutput{}, err
	}
	return nil, OpenDocumentOutput{Document: DocumentOutput{
		Filename:  doc.Filename,
		Chars:     doc.CharCount(),
		Tokens:    doc.TokenCount(),
		Entities:  doc.Indexes.EntityCount(),
		Relations: doc.Indexes.RelationCount(),
		Dirty:     doc.Dirty(),
		Active:    true,
	}}, nil
}

func (s *Server) handleCreateEntity(ctx context.Context, req *sdk.CallToolRequest, input CreateEntityInput) (*sdk.CallToolResult, CreateEntityOutput, error) {
	if input.Semantic == "" {
		return nil, CreateEntityOutput{}, fmt.Errorf("semantic is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entity, key, err := s.session.AddEntity(input.Start, input.End, input.Semantic)
	saveErr, err := s.saveWarning(err)
	if err != nil {
		return nil, CreateEntityOutput{}, err
	}
	doc, _ := s.session.Document()
	entry := annotation.EntityEntry{Entity: entity, OffsetKey: key, Position: positionOf(doc.Indexes, key, entity)}
	s.log.Debug("entity created over mcp", zap.String("document", doc.Filename), zap.String("id", entity.ID))
	return nil, CreateEntityOutput{Entity: entityOutput(doc, entry), Dirty: doc.Dirty(), SaveError: saveErr}, nil
}

func (s *Server) handleDeleteEntity(ctx context.Context, req *sdk.CallToolRequest, input EntityLocator) (*sdk.CallToolResult, EditOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.edited(s.session.RemoveEntity(input.OffsetKey, input.Position))
}

func (s *Server) handleSetAttribute(ctx context.Context, req *sdk.CallToolRequest, input SetAttributeInput) (*sdk.CallToolResult, EditOutput, error) {
	if input.Name == "" {
		return nil, EditOutput{}, fmt.Errorf("name is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.edited(s.session.SetAttribute(input.OffsetKey, input.Position, input.Name, input.Value))
}

func (s *Server) handleRemoveAttribute(ctx context.Context, req *sdk.CallToolRequest, input RemoveAttributeInput) (*sdk.CallToolResult, EditOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.edited(s.session.RemoveAttribute(input.OffsetKey, input.Position, input.Name))
}

func (s *Server) handleCreateRelation(ctx context.Context, req *sdk.CallToolRequest, input CreateRelationInput) (*sdk.CallToolResult, CreateRelationOutput, error) {
	if input.Semantic == "" {
		return nil, CreateRelationOutput{}, fmt.Errorf("semantic is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rel, err := s.session.AddRelation(input.Semantic, input.From.OffsetKey, input.From.Position, input.To.OffsetKey, input.To.Position)
	saveErr, err := s.saveWarning(err)
	if err != nil {
		return nil, CreateRelationOutput{}, err
	}
	doc, _ := s.session.Document()
	entry := annotation.RelationEntry{Relation: rel, OffsetKey: input.From.OffsetKey}
	if b := doc.Indexes[input.From.OffsetKey]; b != nil {
		entry.Position = len(b.Relations) - 1
	}
	return nil, CreateRelationOutput{Relation: relationOutput(doc, entry), Dirty: doc.Dirty(), SaveError: saveErr}, nil
}

func (s *Server) handleDeleteRelation(ctx context.Context, req *sdk.CallToolRequest, input RelationLocator) (*sdk.CallToolResult, EditOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.edited(s.session.RemoveRelation(input.OffsetKey, input.Position))
}

func (s *Server) handleSaveDocuments(ctx context.Context, req *sdk.CallToolRequest, input SaveDocumentsInput) (*sdk.CallToolResult, SaveDocumentsOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	saved, err := s.session.Workspace().DumpAll()
	if err != nil {
		return nil, SaveDocumentsOutput{Saved: saved}, err
	}
	s.log.Info("saved documents", zap.Int("count", saved))
	return nil, SaveDocumentsOutput{Saved: saved}, nil
}

// edited turns a session mutation's error into a tool result.
func (s *Server) edited(err error) (*sdk.CallToolResult, EditOutput, error) {
	saveErr, err := s.saveWarning(err)
	if err != nil {
		return nil, EditOutput{}, err
	}
	out := s.editOutput()
	out.SaveError = saveErr
	return nil, out, nil
}

// saveWarning splits a failed autosave off from a failed edit: the former
// becomes a message for the caller, the latter stays an error.
func (s *Server) saveWarning(err error) (string, error) {
	if !errors.Is(err, workspace.ErrAutosave) {
		return "", err
	}
	s.log.Warn("autosave failed", zap.Error(err))
	return err.Error(), nil
}

func (s *Server) editOutput() EditOutput {
	doc, err := s.session.Document()
	if err != nil {
		return EditOutput{}
	}
	return EditOutput{Document: doc.Filename, Dirty: doc.Dirty()}
}

func positionOf(ix annotation.Index, key string, entity *annotation.Entity) int {
	if b := ix[key]; b != nil {
		for i, e := range b.Entities {
			if e == entity {
				return i
			}
		}
	}
	return 0
}
