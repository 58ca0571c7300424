package overrides

import (
	"context"
	"fmt"
	"time"
)

// Evaluator executes expressions against a rule context.
type Evaluator interface {
	Evaluate(ctx RuleContext, expr string) (any, error)
	Compile(expr string, opts ...CompileOption) (CompiledRule, error)
}

// CompiledRule represents a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx RuleContext) (any, error)
}

// CompileOption configures evaluator compile behaviour.
type CompileOption interface {
	applyCompileOption(*compileConfig)
}

type compileConfig struct{}

// RuleContext carries the inputs an expression criterion is evaluated with.
type RuleContext struct {
	Params    MatchParams
	Host      Host
	Now       *time.Time
	Args      map[string]any
	Criterion string
}

func (ctx RuleContext) withDefaults() RuleContext {
	if ctx.Now == nil {
		now := time.Now()
		ctx.Now = &now
	}
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	return ctx
}

func (ctx RuleContext) timestamp() time.Time {
	ctx = ctx.withDefaults()
	return *ctx.Now
}

func (ctx RuleContext) label() string {
	if ctx.Criterion != "" {
		return ctx.Criterion
	}
	return "unknown"
}

// binding exposes match params under the names used in override files.
func (ctx RuleContext) binding() map[string]any {
	var level any
	if ctx.Params.Level != nil {
		level = *ctx.Params.Level
	}
	var isThread any
	if ctx.Params.IsThread != nil {
		isThread = *ctx.Params.IsThread
	}
	roles := make([]any, len(ctx.Params.MemberRoles))
	for i, role := range ctx.Params.MemberRoles {
		roles[i] = role
	}
	env := map[string]any{
		"level":       level,
		"userId":      ctx.Params.UserID,
		"channelId":   ctx.Params.ChannelID,
		"categoryId":  ctx.Params.CategoryID,
		"threadId":    ctx.Params.ThreadID,
		"isThread":    isThread,
		"memberRoles": roles,
		"hostId":      "",
		"ownerId":     "",
	}
	if ctx.Host != nil {
		env["hostId"] = ctx.Host.HostID()
		env["ownerId"] = ctx.Host.OwnerID()
	}
	return env
}

// ExpressionOption configures ExpressionCriterion.
type ExpressionOption func(*expressionConfig)

type expressionConfig struct {
	logger EvaluatorLogger
	name   string
	now    func() time.Time
}

// ExpressionWithLogger records every evaluation on logger.
func ExpressionWithLogger(logger EvaluatorLogger) ExpressionOption {
	return func(cfg *expressionConfig) {
		cfg.logger = logger
	}
}

// ExpressionWithName sets the criterion name reported in errors and logs.
func ExpressionWithName(name string) ExpressionOption {
	return func(cfg *expressionConfig) {
		cfg.name = name
	}
}

// ExpressionWithClock overrides the clock bound to "now".
func ExpressionWithClock(now func() time.Time) ExpressionOption {
	return func(cfg *expressionConfig) {
		cfg.now = now
	}
}

// ExpressionCriterion returns a CustomCriterion whose override value is an
// expression that must evaluate to a boolean. A nil evaluator uses
// NewExprEvaluator. Register it with WithCustomCriterion, typically as "expr".
func ExpressionCriterion(evaluator Evaluator, opts ...ExpressionOption) CustomCriterion {
	if evaluator == nil {
		evaluator = NewExprEvaluator()
	}
	cfg := expressionConfig{name: "expr", logger: noopEvaluatorLogger{}, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	engine := evaluatorEngineName(evaluator)

	return func(_ context.Context, host Host, params MatchParams, value any) (bool, error) {
		expression, ok := value.(string)
		if !ok || expression == "" {
			return false, fmt.Errorf("overrides: %s criterion expects a non-empty expression, got %T", cfg.name, value)
		}
		now := cfg.now()
		ruleCtx := RuleContext{Params: params, Host: host, Now: &now, Criterion: cfg.name}

		start := time.Now()
		result, err := evaluateExpression(evaluator, ruleCtx, expression)
		err = wrapEvaluationError(engine, expression, ruleCtx.label(), err)
		cfg.logger.LogEvaluation(EvaluatorLogEvent{
			Engine:    engine,
			Expr:      expression,
			Criterion: ruleCtx.label(),
			Duration:  time.Since(start),
			Err:       err,
		})
		if err != nil {
			return false, err
		}
		matched, ok := result.(bool)
		if !ok {
			return false, wrapEvaluationError(engine, expression, ruleCtx.label(), fmt.Errorf("expected bool result, got %T", result))
		}
		return matched, nil
	}
}

func evaluateExpression(evaluator Evaluator, ctx RuleContext, expression string) (any, error) {
	rule, err := evaluator.Compile(expression)
	if err != nil {
		return nil, err
	}
	return rule.Evaluate(ctx)
}

func evaluatorEngineName(e Evaluator) string {
	switch e.(type) {
	case nil:
		return "unknown"
	case *exprEvaluator:
		return "expr"
	case *celEvaluator:
		return "cel"
	default:
		if isJSEvaluator(e) {
			return "js"
		}
		return "custom"
	}
}
