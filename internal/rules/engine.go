// Package rules provides the CEL-Go based additive scoring engine.
package rules

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"

	"github.com/garipamoja/askari/internal/domain"
)

// Engine evaluates ordered rule tables against feature maps. Tables are
// compiled once at load time; evaluation is read-only and safe for
// concurrent use.
type Engine struct {
	mu       sync.RWMutex
	env      *cel.Env
	compiled map[string]*compiledTable // key: scoring domain
}

type compiledTable struct {
	config *domain.RuleTable
	rules  []compiledRule
}

type compiledRule struct {
	rule    domain.Rule
	program cel.Program
}

// NewEngine creates a new scoring engine.
func NewEngine() (*Engine, error) {
	// All rule expressions see the feature map under a single variable.
	env, err := cel.NewEnv(
		cel.Variable("f", cel.MapType(cel.StringType, cel.DoubleType)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	return &Engine{
		env:      env,
		compiled: make(map[string]*compiledTable),
	}, nil
}

// LoadTable compiles and loads a rule table, replacing any table already
// loaded for the same domain.
func (e *Engine) LoadTable(table *domain.RuleTable) error {
	compiled, err := e.compileTable(table)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.compiled[table.Domain] = compiled
	e.mu.Unlock()

	return nil
}

// LoadTables compiles and loads multiple tables.
func (e *Engine) LoadTables(tables []*domain.RuleTable) error {
	for _, t := range tables {
		if err := e.LoadTable(t); err != nil {
			return err
		}
	}
	return nil
}

// ValidateTable compiles a table without mutating loaded engine state.
func (e *Engine) ValidateTable(table *domain.RuleTable) error {
	_, err := e.compileTable(table)
	return err
}

// Evaluate runs the table for the given domain over the feature map.
//
// Rules are evaluated strictly in table order. A bool result adds the rule's
// increment when true; a double result is added directly. The factor list
// reproduces table order, which callers rely on for explainability.
func (e *Engine) Evaluate(scoringDomain string, features map[string]float64) (*domain.RuleOutcome, error) {
	e.mu.RLock()
	table, ok := e.compiled[scoringDomain]
	e.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("no rule table loaded for domain %q", scoringDomain)
	}

	activation := map[string]any{"f": toAnyMap(features)}

	outcome := &domain.RuleOutcome{RawScore: table.config.Base}

	for _, cr := range table.rules {
		out, _, err := cr.program.Eval(activation)
		if err != nil {
			return nil, fmt.Errorf("rule %s: evaluation error: %w", cr.rule.Name, err)
		}

		contribution, triggered := toContribution(out, cr.rule.Increment)
		if !triggered {
			continue
		}

		outcome.RawScore += contribution
		outcome.Hits = append(outcome.Hits, domain.RuleHit{
			Name:         cr.rule.Name,
			Contribution: contribution,
			Factor:       cr.rule.Factor,
		})
		if cr.rule.Factor != "" {
			outcome.Factors = append(outcome.Factors, cr.rule.Factor)
		}
	}

	outcome.Score = clamp(outcome.RawScore, table.config.Min, table.config.Max)
	return outcome, nil
}

// Table returns the loaded configuration for a domain, or nil.
func (e *Engine) Table(scoringDomain string) *domain.RuleTable {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if t, ok := e.compiled[scoringDomain]; ok {
		return t.config
	}
	return nil
}

// Tables returns all loaded table configurations.
func (e *Engine) Tables() []*domain.RuleTable {
	e.mu.RLock()
	defer e.mu.RUnlock()

	tables := make([]*domain.RuleTable, 0, len(e.compiled))
	for _, t := range e.compiled {
		tables = append(tables, t.config)
	}
	return tables
}

// TableCount returns the number of loaded tables.
func (e *Engine) TableCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.compiled)
}

// ReloadTables replaces all loaded tables at once. Used for hot reload from
// the repository.
func (e *Engine) ReloadTables(tables []*domain.RuleTable) error {
	next := make(map[string]*compiledTable, len(tables))
	for _, t := range tables {
		compiled, err := e.compileTable(t)
		if err != nil {
			return err
		}
		next[t.Domain] = compiled
	}

	e.mu.Lock()
	e.compiled = next
	e.mu.Unlock()

	return nil
}

// Close cleans up the engine.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.compiled = make(map[string]*compiledTable)
	return nil
}

func (e *Engine) compileTable(table *domain.RuleTable) (*compiledTable, error) {
	if table == nil {
		return nil, fmt.Errorf("rule table is required")
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}

	compiled := &compiledTable{
		config: table,
		rules:  make([]compiledRule, 0, len(table.Rules)),
	}

	for _, r := range table.Rules {
		ast, issues := e.env.Compile(r.Expression)
		if issues != nil && issues.Err() != nil {
			return nil, fmt.Errorf("failed to compile rule %s: %w", r.Name, issues.Err())
		}

		outputType := ast.OutputType()
		if outputType != cel.BoolType && outputType != cel.DoubleType {
			return nil, fmt.Errorf("rule %s: expression must return bool or double, got %s", r.Name, outputType)
		}

		program, err := e.env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("failed to create program for rule %s: %w", r.Name, err)
		}

		compiled.rules = append(compiled.rules, compiledRule{rule: r, program: program})
	}

	return compiled, nil
}

// toContribution converts a CEL result into a score contribution.
// Bool true yields the rule increment; a double is taken as-is when non-zero.
func toContribution(val ref.Val, increment float64) (float64, bool) {
	switch v := val.(type) {
	case types.Bool:
		if bool(v) {
			return increment, true
		}
		return 0, false
	case types.Double:
		f := float64(v)
		return f, f != 0
	default:
		return 0, false
	}
}

func toAnyMap(features map[string]float64) map[string]any {
	m := make(map[string]any, len(features))
	for k, v := range features {
		m[k] = v
	}
	return m
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
