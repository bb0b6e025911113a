// Package cel wraps the CEL runtime for journal event filter rules.
package cel

import (
	"context"
	"fmt"

	"github.com/google/cel-go/cel"

	"stellarelay/internal/journal"
)

type Evaluator struct {
	env *cel.Env
}

func NewEvaluator() (*Evaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable("event", cel.StringType),
		cel.Variable("timestamp", cel.StringType),
		cel.Variable("payload", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	return &Evaluator{env: env}, nil
}

// Program is a compiled filter expression ready for repeated evaluation.
type Program struct {
	program cel.Program
}

// CompileFilter compiles a filter expression and rejects anything that
// does not evaluate to bool. Compilation happens once at startup; a
// bad rule fails the whole service rather than silently dropping events.
func (e *Evaluator) CompileFilter(expression string) (*Program, error) {
	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile CEL expression: %w", issues.Err())
	}

	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("filter expression must return bool, got %v", ast.OutputType())
	}

	program, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL program: %w", err)
	}

	return &Program{program: program}, nil
}

// EvaluateFilter runs a compiled filter against one raw journal event.
func (p *Program) EvaluateFilter(ctx context.Context, raw journal.RawEvent) (bool, error) {
	vars := map[string]interface{}{
		"event":     raw.Name,
		"timestamp": raw.Timestamp,
		"payload":   raw.Fields,
	}

	result, _, err := p.program.ContextEval(ctx, vars)
	if err != nil {
		return false, fmt.Errorf("failed to evaluate CEL expression: %w", err)
	}

	boolVal, ok := result.Value().(bool)
	if !ok {
		return false, fmt.Errorf("CEL expression did not return bool, got %T", result.Value())
	}

	return boolVal, nil
}
