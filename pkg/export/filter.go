package export

import (
	"fmt"

	"github.com/google/cel-go/cel"
)

// Filter is a compiled boolean expression over row fields. The expression
// sees url, label, name, headline and degree as strings and categories as a
// list of category names, e.g. `"commenter" in categories && degree == "1st"`.
// label holds the row's Type column; CEL reserves the name type.
type Filter struct {
	expr string
	prg  cel.Program
}

// NewFilter compiles expr. An empty expression yields a nil filter, which
// keeps every row.
func NewFilter(expr string) (*Filter, error) {
	if expr == "" {
		return nil, nil
	}

	env, err := cel.NewEnv(
		cel.Variable("url", cel.StringType),
		cel.Variable("label", cel.StringType),
		cel.Variable("name", cel.StringType),
		cel.Variable("headline", cel.StringType),
		cel.Variable("degree", cel.StringType),
		cel.Variable("categories", cel.ListType(cel.StringType)),
	)
	if err != nil {
		return nil, fmt.Errorf("filter environment: %w", err)
	}

	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("compile filter %q: %w", expr, iss.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("filter %q must be a boolean expression, got %s", expr, ast.OutputType())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("build filter program: %w", err)
	}
	return &Filter{expr: expr, prg: prg}, nil
}

// String returns the source expression.
func (f *Filter) String() string {
	if f == nil {
		return ""
	}
	return f.expr
}

// Match evaluates the filter against one row.
func (f *Filter) Match(r Row) (bool, error) {
	if f == nil {
		return true, nil
	}
	out, _, err := f.prg.Eval(map[string]any{
		"url":        r.URL,
		"label":      r.Type,
		"name":       r.Name,
		"headline":   r.Headline,
		"degree":     r.Degree,
		"categories": r.Categories.Names(),
	})
	if err != nil {
		return false, fmt.Errorf("evaluate filter on %s: %w", r.URL, err)
	}
	keep, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("filter returned %T, want bool", out.Value())
	}
	return keep, nil
}

// Apply returns the rows the filter keeps, preserving order.
func (f *Filter) Apply(rows []Row) ([]Row, error) {
	if f == nil {
		return rows, nil
	}
	kept := make([]Row, 0, len(rows))
	for _, r := range rows {
		ok, err := f.Match(r)
		if err != nil {
			return nil, err
		}
		if ok {
			kept = append(kept, r)
		}
	}
	return kept, nil
}
