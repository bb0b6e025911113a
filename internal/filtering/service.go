// Package filtering applies operator-defined CEL rules to raw journal
// events before they reach the mapper. Every rule must pass for the
// event to continue.
package filtering

import (
	"context"
	"fmt"

	"stellarelay/internal/config"
	"stellarelay/internal/constants"
	"stellarelay/internal/journal"
	"stellarelay/internal/logger"
	"stellarelay/pkg/cel"
	"stellarelay/pkg/metrics"
)

type compiledRule struct {
	name    string
	program *cel.Program
}

type Service struct {
	rules         []compiledRule
	fallbackAllow bool
	logger        logger.Logger
}

// NewService compiles every configured rule up front. A rule that does
// not compile is a configuration error, not something to discover at
// event time.
func NewService(cfg config.FilteringConfig, log logger.Logger) (*Service, error) {
	evaluator, err := cel.NewEvaluator()
	if err != nil {
		return nil, err
	}

	rules := make([]compiledRule, 0, len(cfg.Rules))
	for i, rule := range cfg.Rules {
		program, err := evaluator.CompileFilter(rule.Expression)
		if err != nil {
			return nil, fmt.Errorf("filter rule %q: %w", ruleName(rule, i), err)
		}
		rules = append(rules, compiledRule{
			name:    ruleName(rule, i),
			program: program,
		})
	}

	return &Service{
		rules:         rules,
		fallbackAllow: cfg.Fallback.OnError != constants.FallbackDeny,
		logger:        log,
	}, nil
}

func ruleName(rule config.FilterRule, index int) string {
	if rule.Name != "" {
		return rule.Name
	}
	return fmt.Sprintf("rule-%d", index)
}

// Allow reports whether an event passes all rules. Evaluation errors
// fall back to the configured default so a rule referencing a field
// some events lack does not silently decide for them.
func (s *Service) Allow(ctx context.Context, raw journal.RawEvent) bool {
	for _, rule := range s.rules {
		allowed, err := rule.program.EvaluateFilter(ctx, raw)
		if err != nil {
			metrics.FilterEvaluationsTotal.WithLabelValues(rule.name, "error").Inc()
			s.logger.WarnwCtx(ctx, "Filter rule evaluation failed",
				"rule", rule.name,
				"event", raw.Name,
				"fallback_allow", s.fallbackAllow,
				"error", err,
			)
			if s.fallbackAllow {
				continue
			}
			return false
		}

		if !allowed {
			metrics.FilterEvaluationsTotal.WithLabelValues(rule.name, "deny").Inc()
			return false
		}
		metrics.FilterEvaluationsTotal.WithLabelValues(rule.name, "allow").Inc()
	}
	return true
}
