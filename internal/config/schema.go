package config

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"spanmark/internal/annotation"
)

// Schema is the annotation type catalog. It is read from JSON or YAML; the
// core never consults it, it only seeds attribute records and drives
// validation reports.
type Schema struct {
	Name      string         `yaml:"name" json:"name"`
	Entities  []EntityType   `yaml:"entity" json:"entity"`
	Relations []RelationType `yaml:"relation" json:"relation"`

	entityIndex map[string]*EntityType
	relIndex    map[string]*RelationType
}

type EntityType struct {
	Name  string    `yaml:"name" json:"name"`
	Attrs []AttrDef `yaml:"attrs,omitempty" json:"attrs,omitempty"`
}

type AttrDef struct {
	Name         string   `yaml:"name" json:"name"`
	ValueType    string   `yaml:"value_type,omitempty" json:"value_type,omitempty"`
	Values       []string `yaml:"values,omitempty" json:"values,omitempty"`
	DefaultValue string   `yaml:"default_value,omitempty" json:"default_value,omitempty"`
}

type RelationType struct {
	Name       string    `yaml:"name" json:"name"`
	FromEntity string    `yaml:"from_entity,omitempty" json:"from_entity,omitempty"`
	ToEntity   string    `yaml:"to_entity,omitempty" json:"to_entity,omitempty"`
	Attrs      []AttrDef `yaml:"attrs,omitempty" json:"attrs,omitempty"`
}

func LoadSchema(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading schema: %w", err)
	}
	schema, err := ParseSchema(data)
	if err != nil {
		return nil, fmt.Errorf("loading schema: %w", err)
	}
	return schema, nil
}

// ParseSchema decodes a catalog (JSON is accepted as YAML) and validates it.
func ParseSchema(data []byte) (*Schema, error) {
	var schema Schema
	if err := yaml.Unmarshal(data, &schema); err != nil {
		return nil, err
	}
	if err := ValidateSchema(&schema); err != nil {
		return nil, err
	}
	schema.buildIndex()
	return &schema, nil
}

// ValidateSchema reports every structural problem at once; use
// multierr.Errors to list them.
func ValidateSchema(s *Schema) error {
	if s == nil {
		return fmt.Errorf("schema is required")
	}

	var errs error
	if strings.TrimSpace(s.Name) == "" {
		errs = multierr.Append(errs, fmt.Errorf("schema name is required"))
	}
	if s.Entities == nil {
		errs = multierr.Append(errs, fmt.Errorf("schema must have an entity list"))
	}
	if s.Relations == nil {
		errs = multierr.Append(errs, fmt.Errorf("schema must have a relation list"))
	}

	entityNames := make(map[string]struct{}, len(s.Entities))
	for i, entity := range s.Entities {
		name := strings.TrimSpace(entity.Name)
		if name == "" {
			errs = multierr.Append(errs, fmt.Errorf("entity type %d name is required", i+1))
		} else if _, exists := entityNames[entity.Name]; exists {
			errs = multierr.Append(errs, fmt.Errorf("duplicate entity type name: %s", entity.Name))
		} else {
			entityNames[entity.Name] = struct{}{}
		}
		errs = multierr.Append(errs, validateAttrDefs("entity type "+entity.Name, entity.Attrs))
	}

	relNames := make(map[string]struct{}, len(s.Relations))
	for i, rel := range s.Relations {
		name := strings.TrimSpace(rel.Name)
		if name == "" {
			errs = multierr.Append(errs, fmt.Errorf("relation type %d name is required", i+1))
		} else if _, exists := relNames[rel.Name]; exists {
			errs = multierr.Append(errs, fmt.Errorf("duplicate relation type name: %s", rel.Name))
		} else {
			relNames[rel.Name] = struct{}{}
		}
		if rel.FromEntity != "" {
			if _, ok := entityNames[rel.FromEntity]; !ok {
				errs = multierr.Append(errs, fmt.Errorf("relation type %s from_entity references unknown entity type: %s", rel.Name, rel.FromEntity))
			}
		}
		if rel.ToEntity != "" {
			if _, ok := entityNames[rel.ToEntity]; !ok {
				errs = multierr.Append(errs, fmt.Errorf("relation type %s to_entity references unknown entity type: %s", rel.Name, rel.ToEntity))
			}
		}
		errs = multierr.Append(errs, validateAttrDefs("relation type "+rel.Name, rel.Attrs))
	}

	return errs
}

func validateAttrDefs(owner string, attrs []AttrDef) error {
	var errs error
	seen := make(map[string]struct{}, len(attrs))
	for i, attr := range attrs {
		if strings.TrimSpace(attr.Name) == "" {
			errs = multierr.Append(errs, fmt.Errorf("%s attribute %d name is required", owner, i+1))
			continue
		}
		if _, exists := seen[attr.Name]; exists {
			errs = multierr.Append(errs, fmt.Errorf("%s has duplicate attribute: %s", owner, attr.Name))
		}
		seen[attr.Name] = struct{}{}
		if strings.EqualFold(attr.ValueType, "enum") && len(attr.Values) == 0 {
			errs = multierr.Append(errs, fmt.Errorf("%s attribute %s enum has no values", owner, attr.Name))
		}
	}
	return errs
}

func (s *Schema) buildIndex() {
	s.entityIndex = make(map[string]*EntityType, len(s.Entities))
	for i := range s.Entities {
		entity := &s.Entities[i]
		s.entityIndex[entity.Name] = entity
	}
	s.relIndex = make(map[string]*RelationType, len(s.Relations))
	for i := range s.Relations {
		rel := &s.Relations[i]
		s.relIndex[rel.Name] = rel
	}
}

func (s *Schema) EntityTypeByName(name string) (*EntityType, bool) {
	if s == nil {
		return nil, false
	}
	if s.entityIndex == nil {
		s.buildIndex()
	}
	entity, ok := s.entityIndex[name]
	return entity, ok
}

func (s *Schema) RelationTypeByName(name string) (*RelationType, bool) {
	if s == nil {
		return nil, false
	}
	if s.relIndex == nil {
		s.buildIndex()
	}
	rel, ok := s.relIndex[name]
	return rel, ok
}

func (s *Schema) IsValidEntityType(name string) bool {
	_, ok := s.EntityTypeByName(name)
	return ok
}

func (s *Schema) IsValidRelationType(name string) bool {
	_, ok := s.RelationTypeByName(name)
	return ok
}

func (s *Schema) EntityNames() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.Entities))
	for _, entity := range s.Entities {
		names = append(names, entity.Name)
	}
	return names
}

// EntityAttrs returns the attribute definitions new entities of the given type
// start with. Unknown types have none.
func (s *Schema) EntityAttrs(name string) []annotation.AttrDef {
	entity, ok := s.EntityTypeByName(name)
	if !ok {
		return nil
	}
	defs := make([]annotation.AttrDef, 0, len(entity.Attrs))
	for _, attr := range entity.Attrs {
		defs = append(defs, annotation.AttrDef{
			Name:      attr.Name,
			ValueType: attr.ValueType,
			Default:   attr.DefaultValue,
		})
	}
	return defs
}
