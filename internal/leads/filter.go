package leads

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/five82/leaddeck/internal/crm"
)

// Predicate is a compiled lead filter such as
//
//	status == "new" && can_allocate
//
// Identifiers resolve to the lead's raw fields; unknown fields are nil.
type Predicate struct {
	source  string
	program *vm.Program
}

// Where compiles a filter expression. An empty expression matches every lead.
func Where(source string) (*Predicate, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return &Predicate{}, nil
	}
	program, err := expr.Compile(source,
		expr.Env(map[string]any{}),
		expr.AllowUndefinedVariables(),
		expr.AsBool(),
	)
	if err != nil {
		return nil, fmt.Errorf("compile filter %q: %w", source, err)
	}
	return &Predicate{source: source, program: program}, nil
}

// String returns the expression the predicate was compiled from.
func (p *Predicate) String() string {
	if p == nil {
		return ""
	}
	return p.source
}

// Match reports whether lead satisfies the predicate.
func (p *Predicate) Match(lead crm.Lead) (bool, error) {
	if p == nil || p.program == nil {
		return true, nil
	}
	env := make(map[string]any, len(lead.Fields))
	for k, v := range lead.Fields {
		env[k] = v
	}
	out, err := expr.Run(p.program, env)
	if err != nil {
		return false, fmt.Errorf("evaluate filter %q: %w", p.source, err)
	}
	ok, _ := out.(bool)
	return ok, nil
}

// Filter returns the leads matching p, keeping their order. The first
// evaluation error aborts the filter.
func (p *Predicate) Filter(leads []crm.Lead) ([]crm.Lead, error) {
	if p == nil || p.program == nil {
		return leads, nil
	}
	out := make([]crm.Lead, 0, len(leads))
	for _, lead := range leads {
		ok, err := p.Match(lead)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, lead)
		}
	}
	return out, nil
}
