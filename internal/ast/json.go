package ast

import (
	"encoding/json"
	"fmt"
)

// The JSON encoding is a lowercase-tagged union so that the AST dump read
// by external tools is independent of Go type names. Props are emitted as
// an object; consumers treat it as unordered.

// MarshalJSON implements json.Marshaler for Program.
func (p *Program) MarshalJSON() ([]byte, error) {
	rules := p.Rules
	if rules == nil {
		rules = []*Rule{}
	}
	imports := p.Imports
	if imports == nil {
		imports = []*Import{}
	}
	return json.Marshal(map[string]any{
		"rules":   rules,
		"imports": imports,
	})
}

// MarshalJSON implements json.Marshaler for Rule.
func (r *Rule) MarshalJSON() ([]byte, error) {
	clauses := make([]json.RawMessage, 0, len(r.Clauses))
	for _, clause := range r.Clauses {
		raw, err := marshalClause(clause)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, raw)
	}
	return json.Marshal(map[string]any{
		"goal":    r.Goal,
		"clauses": clauses,
	})
}

// MarshalJSON implements json.Marshaler for Fact.
func (f *Fact) MarshalJSON() ([]byte, error) {
	props := make(map[string]json.RawMessage, len(f.Props))
	for name, value := range f.Props {
		raw, err := marshalValue(value)
		if err != nil {
			return nil, err
		}
		props[name] = raw
	}
	return json.Marshal(map[string]any{
		"type":  "fact",
		"name":  f.Name,
		"props": props,
	})
}

// MarshalJSON implements json.Marshaler for Import.
func (i *Import) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"name": i.Name,
		"uri":  i.URI,
	})
}

func marshalClause(clause Clause) (json.RawMessage, error) {
	switch c := clause.(type) {
	case *Fact:
		return json.Marshal(c)
	case *Expr:
		return json.Marshal(map[string]any{"type": "expr", "source": c.Source})
	case *Binding:
		value, err := marshalValue(c.Value)
		if err != nil {
			return nil, err
		}
		return json.Marshal(map[string]any{
			"type":  "binding",
			"name":  c.Name,
			"value": json.RawMessage(value),
		})
	default:
		return nil, fmt.Errorf("unknown clause variant %T", clause)
	}
}

func marshalValue(value Value) (json.RawMessage, error) {
	switch v := value.(type) {
	case *Id:
		return json.Marshal(map[string]any{"type": "id", "name": v.Name})
	case *Number:
		return json.Marshal(map[string]any{"type": "number", "text": v.Text})
	case *String:
		return json.Marshal(map[string]any{"type": "string", "text": v.Text})
	case *Boolean:
		return json.Marshal(map[string]any{"type": "boolean", "value": v.Value})
	case *Expr:
		return json.Marshal(map[string]any{"type": "expr", "source": v.Source})
	case *Aggregate:
		inner, err := marshalValue(v.Value)
		if err != nil {
			return nil, err
		}
		subquery := make([]json.RawMessage, 0, len(v.Subquery))
		for _, clause := range v.Subquery {
			raw, err := marshalClause(clause)
			if err != nil {
				return nil, err
			}
			subquery = append(subquery, raw)
		}
		return json.Marshal(map[string]any{
			"type":     "aggregate",
			"operator": v.Operator,
			"value":    json.RawMessage(inner),
			"subquery": subquery,
		})
	default:
		return nil, fmt.Errorf("unknown value variant %T", value)
	}
}
