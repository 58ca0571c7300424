package overrides

import (
	"fmt"
	"sort"

	celgo "github.com/google/cel-go/cel"
	functions "github.com/google/cel-go/common/functions"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/common/types/traits"
)

type celProgram struct {
	env     *celgo.Env
	program celgo.Program
}

type celEvaluator struct {
	engineConfig
}

// NewCELEvaluator constructs an Evaluator backed by cel-go. Match params are
// declared as dynamic variables so expressions such as
// `level >= 50 && "R1" in memberRoles` type-check.
func NewCELEvaluator(opts ...EngineOption) Evaluator {
	return &celEvaluator{engineConfig: applyEngineOptions(opts)}
}

func (e *celEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	if expression == "" {
		return nil, wrapEvaluatorError("cel", fmt.Errorf("expression must not be empty"))
	}
	ctx = ctx.withDefaults()
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, err
	}
	out, _, err := program.program.Eval(e.activation(ctx))
	if err != nil {
		return nil, wrapEvaluationError("cel", expression, ctx.label(), err)
	}
	return out.Value(), nil
}

func (e *celEvaluator) Compile(expression string, _ ...CompileOption) (CompiledRule, error) {
	if expression == "" {
		return nil, wrapEvaluatorError("cel", fmt.Errorf("expression must not be empty"))
	}
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, err
	}
	return &celCompiledRule{
		evaluator:  e,
		expression: expression,
		program:    program,
	}, nil
}

func (e *celEvaluator) loadOrCompile(expression string) (*celProgram, error) {
	return cachedProgram(e.cache, "cel", expression, func() (*celProgram, error) {
		env, err := e.buildEnv()
		if err != nil {
			return nil, wrapEvaluatorError("cel", err)
		}
		ast, issues := env.Compile(expression)
		if issues != nil && issues.Err() != nil {
			return nil, wrapEvaluationError("cel", expression, "", issues.Err())
		}
		prg, err := env.Program(ast)
		if err != nil {
			return nil, wrapEvaluationError("cel", expression, "", err)
		}
		return &celProgram{env: env, program: prg}, nil
	})
}

func (e *celEvaluator) buildEnv() (*celgo.Env, error) {
	opts := []celgo.EnvOption{
		celgo.Variable("now", celgo.TimestampType),
		celgo.Variable("args", celgo.DynType),
	}
	names := make([]string, 0, len(RuleContext{}.binding()))
	for key := range (RuleContext{}).binding() {
		names = append(names, key)
	}
	sort.Strings(names)
	for _, name := range names {
		opts = append(opts, celgo.Variable(name, celgo.DynType))
	}
	if e.registry != nil {
		opts = append(opts, celgo.Function("call", celgo.Overload(
			"call_dyn",
			[]*celgo.Type{celgo.StringType, celgo.DynType},
			celgo.DynType,
			celgo.FunctionBinding(functions.FunctionOp(e.callBinding())),
		)))
	}
	return celgo.NewEnv(opts...)
}

func (e *celEvaluator) activation(ctx RuleContext) map[string]any {
	activation := ctx.binding()
	activation["now"] = ctx.timestamp()
	activation["args"] = ctx.Args
	return activation
}

type celCompiledRule struct {
	evaluator  *celEvaluator
	expression string
	program    *celProgram
}

func (r *celCompiledRule) Evaluate(ctx RuleContext) (any, error) {
	if r.evaluator == nil {
		return nil, wrapEvaluatorError("cel", fmt.Errorf("compiled rule missing evaluator"))
	}
	ctx = ctx.withDefaults()
	out, _, err := r.program.program.Eval(r.evaluator.activation(ctx))
	if err != nil {
		return nil, wrapEvaluationError("cel", r.expression, ctx.label(), err)
	}
	return out.Value(), nil
}

// callBinding dispatches call(name, [args...]) to the function registry. List
// elements are passed as native values; ints arrive as int64.
func (e *celEvaluator) callBinding() func(...ref.Val) ref.Val {
	return func(values ...ref.Val) ref.Val {
		if e.registry == nil {
			return types.NewErr("overrides: function registry not configured")
		}
		if len(values) == 0 {
			return types.NewErr("overrides: call requires function name")
		}
		name, ok := values[0].Value().(string)
		if !ok {
			return types.NewErr("overrides: call name must be string")
		}
		var args []any
		if len(values) > 1 {
			if list, ok := values[1].(traits.Lister); ok {
				size, _ := list.Size().Value().(int64)
				for i := int64(0); i < size; i++ {
					args = append(args, list.Get(types.Int(i)).Value())
				}
			} else {
				args = []any{values[1].Value()}
			}
		}
		result, err := e.registry.Call(name, args...)
		if err != nil {
			return types.NewErr("%s", err.Error())
		}
		if result == nil {
			return types.NullValue
		}
		return types.DefaultTypeAdapter.NativeToValue(result)
	}
}
