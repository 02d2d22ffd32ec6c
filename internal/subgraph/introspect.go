package subgraph

import (
	"context"
	"encoding/json"
	"fmt"
)

// TypeRef is a recursive type reference from schema introspection. Non-null
// and list modifiers wrap the concrete type via OfType.
type TypeRef struct {
	Kind   string   `json:"kind"`
	Name   string   `json:"name"`
	OfType *TypeRef `json:"ofType"`
}

// NamedType walks through non-null/list wrappers and returns the first
// concrete type name, or "" when the chain ends without one.
func (t *TypeRef) NamedType() string {
	for ref := t; ref != nil; ref = ref.OfType {
		if ref.Name != "" {
			return ref.Name
		}
	}
	return ""
}

// InputValue describes one argument or input-object field.
type InputValue struct {
	Name string   `json:"name"`
	Type *TypeRef `json:"type"`
}

// Required reports whether the value is declared non-nullable.
func (v InputValue) Required() bool {
	return v.Type != nil && v.Type.Kind == "NON_NULL"
}

// FieldDef describes one output field and its arguments.
type FieldDef struct {
	Name string       `json:"name"`
	Args []InputValue `json:"args"`
	Type *TypeRef     `json:"type"`
}

// PickField returns the first candidate name present among fields, or "".
// Candidate order encodes which names real-world schemas use for a role.
func PickField(fields []FieldDef, candidates []string) string {
	names := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		names[f.Name] = struct{}{}
	}
	for _, cand := range candidates {
		if _, ok := names[cand]; ok {
			return cand
		}
	}
	return ""
}

// FieldByName looks up a field definition by exact name.
func FieldByName(fields []FieldDef, name string) (FieldDef, bool) {
	for _, f := range fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDef{}, false
}

// typeRefSelection unrolls the recursive ofType chain to a depth that covers
// any list/non-null stack seen in practice.
const typeRefSelection = `kind name ofType { kind name ofType { kind name ofType { kind name ofType { kind name ofType { kind name ofType { kind name } } } } } }`

var rootFieldsQuery = fmt.Sprintf(
	`query { __schema { queryType { fields { name args { name type { %s } } type { %s } } } } }`,
	typeRefSelection, typeRefSelection,
)

type schemaEnvelope struct {
	Schema struct {
		QueryType struct {
			Fields []FieldDef `json:"fields"`
		} `json:"queryType"`
	} `json:"__schema"`
}

type typeEnvelope struct {
	Type *struct {
		Fields      []FieldDef   `json:"fields"`
		InputFields []InputValue `json:"inputFields"`
	} `json:"__type"`
}

// FetchRootFields introspects the root query type's fields and arguments.
func FetchRootFields(ctx context.Context, ex Executor) ([]FieldDef, error) {
	data, err := ex.Execute(ctx, rootFieldsQuery, nil)
	if err != nil {
		return nil, fmt.Errorf("introspect query root: %w", err)
	}
	var env schemaEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode query root: %w", err)
	}
	return env.Schema.QueryType.Fields, nil
}

// FetchTypeFields introspects the output fields of a named type. A type that
// exposes no fields (opaque scalars) yields an empty slice, not an error.
func FetchTypeFields(ctx context.Context, ex Executor, typeName string) ([]FieldDef, error) {
	query := fmt.Sprintf(`query { __type(name: %q) { fields { name type { %s } } } }`, typeName, typeRefSelection)
	data, err := ex.Execute(ctx, query, nil)
	if err != nil {
		return nil, fmt.Errorf("introspect type %s: %w", typeName, err)
	}
	var env typeEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode type %s: %w", typeName, err)
	}
	if env.Type == nil {
		return nil, nil
	}
	return env.Type.Fields, nil
}

// FetchInputFields introspects the fields of a named input type.
func FetchInputFields(ctx context.Context, ex Executor, typeName string) ([]InputValue, error) {
	query := fmt.Sprintf(`query { __type(name: %q) { inputFields { name type { %s } } } }`, typeName, typeRefSelection)
	data, err := ex.Execute(ctx, query, nil)
	if err != nil {
		return nil, fmt.Errorf("introspect input %s: %w", typeName, err)
	}
	var env typeEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode input %s: %w", typeName, err)
	}
	if env.Type == nil {
		return nil, nil
	}
	return env.Type.InputFields, nil
}
