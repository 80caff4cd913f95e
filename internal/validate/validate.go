package validate

import (
	"fmt"
	"strings"

	"spanmark/internal/annotation"
	"spanmark/internal/config"
)

type Severity string

const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warning"
)

const (
	codeSpanOutOfRange      = "span_out_of_range"
	codeEmptySpan           = "empty_span"
	codeMisplacedEntity     = "misplaced_entity"
	codeEmptyBucket         = "empty_bucket"
	codeDuplicateID         = "duplicate_id"
	codeDanglingRelation    = "dangling_relation"
	codeRelationAnchor      = "relation_anchor_mismatch"
	codeUnknownEntityType   = "unknown_entity_type"
	codeUnknownRelationType = "unknown_relation_type"
	codeEndpointType        = "relation_endpoint_type"
	codeEnumInvalid         = "enum_value_invalid"
)

type Issue struct {
	Severity  Severity
	Code      string
	Message   string
	File      string
	OffsetKey string
	ID        string
}

type Report struct {
	Issues []Issue
}

func (r *Report) Count(severity Severity) int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Severity == severity {
			n++
		}
	}
	return n
}

func (r *Report) HasErrors() bool {
	return r.Count(SeverityError) > 0
}

// Run checks every document. The schema is optional; without it only the
// structural checks run.
func Run(docs []*annotation.Document, schema *config.Schema) *Report {
	issues := make([]Issue, 0)
	for _, doc := range docs {
		issues = append(issues, Document(doc, schema)...)
	}
	return &Report{Issues: issues}
}

// Document reports span bounds, index placement, sparsity, id uniqueness and
// relation integrity for one document, plus label and enum checks when a
// schema is given.
func Document(doc *annotation.Document, schema *config.Schema) []Issue {
	if doc == nil {
		return nil
	}
	c := &checker{doc: doc, schema: schema, length: doc.CharCount(), ids: make(map[string]string)}
	for _, key := range doc.Indexes.Keys() {
		c.bucket(key, doc.Indexes[key])
	}
	return c.issues
}

type checker struct {
	doc    *annotation.Document
	schema *config.Schema
	length int
	ids    map[string]string
	issues []Issue
}

func (c *checker) add(severity Severity, code, key, id, format string, args ...any) {
	c.issues = append(c.issues, Issue{
		Severity:  severity,
		Code:      code,
		Message:   fmt.Sprintf(format, args...),
		File:      c.doc.Filename,
		OffsetKey: key,
		ID:        id,
	})
}

func (c *checker) bucket(key string, b *annotation.Bucket) {
	if b == nil || (len(b.Entities) == 0 && len(b.Relations) == 0) ||
		(b.Entities != nil && len(b.Entities) == 0) || (b.Relations != nil && len(b.Relations) == 0) {
		c.add(SeverityError, codeEmptyBucket, key, "", "bucket %s holds an empty array", key)
		if b == nil {
			return
		}
	}
	for _, e := range b.Entities {
		if e != nil {
			c.entity(key, e)
		}
	}
	for _, r := range b.Relations {
		if r != nil {
			c.relation(key, r)
		}
	}
}

func (c *checker) entity(key string, e *annotation.Entity) {
	c.uniqueID(key, e.ID)
	if e.Begin >= e.End {
		c.add(SeverityError, codeEmptySpan, key, e.ID, "entity %s has empty span %d-%d", e.ID, e.Begin, e.End)
	}
	if e.Begin < 0 || e.End > c.length {
		c.add(SeverityError, codeSpanOutOfRange, key, e.ID, "entity %s span %d-%d outside content of length %d", e.ID, e.Begin, e.End, c.length)
	}
	if key != annotation.OffsetKey(e.Begin) {
		c.add(SeverityError, codeMisplacedEntity, key, e.ID, "entity %s begins at %d but is stored under %s", e.ID, e.Begin, key)
	}
	if c.schema == nil {
		return
	}
	entityType, ok := c.schema.EntityTypeByName(e.Semantic)
	if !ok {
		c.add(SeverityWarn, codeUnknownEntityType, key, e.ID, "entity %s has unknown type %s", e.ID, e.Semantic)
		return
	}
	c.enumValues(key, e.ID, entityType.Attrs, e.Attrs)
}

func (c *checker) relation(key string, r *annotation.Relation) {
	c.uniqueID(key, r.ID)

	from := c.endpoint(r.From)
	to := c.endpoint(r.To)
	if from == nil {
		c.add(SeverityError, codeDanglingRelation, key, r.ID, "relation %s source %s matches no entity", r.ID, r.From.Key())
	}
	if to == nil {
		c.add(SeverityError, codeDanglingRelation, key, r.ID, "relation %s target %s matches no entity", r.ID, r.To.Key())
	}
	if key != annotation.OffsetKey(r.From.Begin) || r.Begin != r.From.Begin || r.End != r.From.End {
		c.add(SeverityWarn, codeRelationAnchor, key, r.ID, "relation %s is not anchored at its source span", r.ID)
	}

	if c.schema == nil {
		return
	}
	relType, ok := c.schema.RelationTypeByName(r.Semantic)
	if !ok {
		c.add(SeverityWarn, codeUnknownRelationType, key, r.ID, "relation %s has unknown type %s", r.ID, r.Semantic)
		return
	}
	if relType.FromEntity != "" && r.From.Semantic != relType.FromEntity {
		c.add(SeverityWarn, codeEndpointType, key, r.ID, "relation %s expects source %s, got %s", r.ID, relType.FromEntity, r.From.Semantic)
	}
	if relType.ToEntity != "" && r.To.Semantic != relType.ToEntity {
		c.add(SeverityWarn, codeEndpointType, key, r.ID, "relation %s expects target %s, got %s", r.ID, relType.ToEntity, r.To.Semantic)
	}
	c.enumValues(key, r.ID, relType.Attrs, r.Attrs)
}

func (c *checker) endpoint(ref annotation.EntityRef) *annotation.Entity {
	b := c.doc.Indexes[annotation.OffsetKey(ref.Begin)]
	if b == nil {
		return nil
	}
	for _, e := range b.Entities {
		if e != nil && ref.Matches(e) {
			return e
		}
	}
	return nil
}

func (c *checker) uniqueID(key, id string) {
	if id == "" {
		return
	}
	if first, seen := c.ids[id]; seen {
		c.add(SeverityError, codeDuplicateID, key, id, "id %s already used under %s", id, first)
		return
	}
	c.ids[id] = key
}

func (c *checker) enumValues(key, id string, defs []config.AttrDef, attrs map[string]*annotation.Attribute) {
	for _, def := range defs {
		if !strings.EqualFold(def.ValueType, "enum") || len(def.Values) == 0 {
			continue
		}
		attr, ok := attrs[def.Name]
		if !ok || attr == nil || attr.Value == "" {
			continue
		}
		if !containsString(def.Values, attr.Value) {
			c.add(SeverityError, codeEnumInvalid, key, id, "invalid enum value for %s: %s", def.Name, attr.Value)
		}
	}
}

func containsString(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}
