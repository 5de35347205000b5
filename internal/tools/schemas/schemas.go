// Package schemas provides JSON Schema definitions for tool calling.
package schemas

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Schema defines a tool's JSON schema.
type Schema struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// SchemaBuilder provides a fluent interface for building tool schemas.
type SchemaBuilder struct {
	schema *Schema
}

// NewSchema creates a new schema builder with the given name and description.
func NewSchema(name, description string) *SchemaBuilder {
	return &SchemaBuilder{
		schema: &Schema{
			Name:        name,
			Description: description,
			Parameters: map[string]interface{}{
				"type":       "object",
				"properties": make(map[string]interface{}),
				"required":   make([]string, 0),
			},
		},
	}
}

// AddParam adds a parameter to the schema.
func (b *SchemaBuilder) AddParam(name, paramType, description string, required bool) *SchemaBuilder {
	return b.AddParamWithEnum(name, paramType, description, nil, required)
}

// AddParamWithEnum adds a parameter with an enum constraint.
func (b *SchemaBuilder) AddParamWithEnum(name, paramType, description string, enum []string, required bool) *SchemaBuilder {
	props := b.schema.Parameters["properties"].(map[string]interface{})
	paramDef := map[string]interface{}{
		"type":        paramType,
		"description": description,
	}
	if len(enum) > 0 {
		paramDef["enum"] = enum
	}
	props[name] = paramDef
	if required {
		req := b.schema.Parameters["required"].([]string)
		b.schema.Parameters["required"] = append(req, name)
	}
	return b
}

// Build returns the constructed schema.
func (b *SchemaBuilder) Build() *Schema {
	// draft-04 rejects an empty required list
	if req, ok := b.schema.Parameters["required"].([]string); ok && len(req) == 0 {
		delete(b.schema.Parameters, "required")
	}
	return b.schema
}

// Registry holds all tool schemas in registration order.
type Registry struct {
	schemas  map[string]*Schema
	order    []string
	compiled map[string]*gojsonschema.Schema
	frozen   bool
}

// NewRegistry creates a new empty schema registry.
func NewRegistry() *Registry {
	return &Registry{
		schemas:  make(map[string]*Schema),
		compiled: make(map[string]*gojsonschema.Schema),
	}
}

// Register adds a schema to the registry. It panics once the registry is
// frozen or when the name is already taken.
func (r *Registry) Register(schema *Schema) {
	if r.frozen {
		panic(fmt.Sprintf("schemas: register %q after freeze", schema.Name))
	}
	if _, exists := r.schemas[schema.Name]; exists {
		panic(fmt.Sprintf("schemas: duplicate tool %q", schema.Name))
	}
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schema.Parameters))
	if err != nil {
		panic(fmt.Sprintf("schemas: invalid parameters for %q: %v", schema.Name, err))
	}
	r.schemas[schema.Name] = schema
	r.compiled[schema.Name] = compiled
	r.order = append(r.order, schema.Name)
}

// Freeze makes the registry read-only.
func (r *Registry) Freeze() {
	r.frozen = true
}

// Frozen reports whether Freeze was called.
func (r *Registry) Frozen() bool {
	return r.frozen
}

// Get retrieves a schema by name.
func (r *Registry) Get(name string) (*Schema, bool) {
	s, ok := r.schemas[name]
	return s, ok
}

// List returns all registered schema names in registration order.
func (r *Registry) List() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// All returns all schemas in registration order.
func (r *Registry) All() []*Schema {
	out := make([]*Schema, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.schemas[name])
	}
	return out
}

// Validate checks args against the named tool's parameter schema.
func (r *Registry) Validate(name string, args map[string]any) error {
	compiled, ok := r.compiled[name]
	if !ok {
		return fmt.Errorf("unknown tool %q", name)
	}
	if args == nil {
		args = map[string]any{}
	}

	result, err := compiled.Validate(gojsonschema.NewGoLoader(args))
	if err != nil {
		return err
	}
	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		problems = append(problems, e.String())
	}
	return &ValidationError{Tool: name, Problems: problems}
}

// ValidationError lists the schema violations of a tool call.
type ValidationError struct {
	Tool     string
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid arguments for %s: %s", e.Tool, strings.Join(e.Problems, "; "))
}

// ToOpenAIFormat converts schemas to OpenAI function calling format.
func (r *Registry) ToOpenAIFormat() []map[string]interface{} {
	result := make([]map[string]interface{}, 0, len(r.order))
	for _, schema := range r.All() {
		result = append(result, map[string]interface{}{
			"type":     "function",
			"function": schema,
		})
	}
	return result
}
