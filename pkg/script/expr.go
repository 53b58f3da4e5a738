package script

import (
	"fmt"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

type exprEngine struct {
	engineConfig
}

// NewExprEngine constructs an Engine backed by expr-lang/expr. Registered
// functions are callable by name and through call(name, args...).
func NewExprEngine(opts ...Option) Engine {
	return &exprEngine{engineConfig: applyOptions(opts)}
}

func (e *exprEngine) Evaluate(env map[string]any, expression string) (any, error) {
	if expression == "" {
		return nil, ErrEmptyExpression
	}
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, err
	}
	result, err := exprlang.Run(program, environment(env))
	if err != nil {
		return nil, wrapEvaluationError("expr", expression, err)
	}
	return result, nil
}

func (e *exprEngine) loadOrCompile(expression string) (*exprvm.Program, error) {
	if cached, ok := e.lookup(expression); ok {
		if program, ok := cached.(*exprvm.Program); ok {
			return program, nil
		}
	}
	options := []exprlang.Option{
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
	}
	if e.registry != nil {
		options = append(options, exprlang.Function("call", e.call))
	}
	for _, name := range e.registry.Names() {
		options = append(options, exprlang.Function(name, e.bind(name)))
	}
	program, err := exprlang.Compile(expression, options...)
	if err != nil {
		return nil, wrapEvaluationError("expr", expression, err)
	}
	e.store(expression, program)
	return program, nil
}

// environment copies vars so a nil env is safe to run against.
func environment(vars map[string]any) map[string]any {
	env := make(map[string]any, len(vars))
	for key, value := range vars {
		env[key] = value
	}
	return env
}

func (e *exprEngine) call(arguments ...any) (any, error) {
	if len(arguments) == 0 {
		return nil, fmt.Errorf("script: call requires a function name")
	}
	name, ok := arguments[0].(string)
	if !ok {
		return nil, fmt.Errorf("script: call name must be a string, got %T", arguments[0])
	}
	return e.registry.Call(name, arguments[1:]...)
}

func (e *exprEngine) bind(name string) func(...any) (any, error) {
	return func(arguments ...any) (any, error) {
		return e.registry.Call(name, arguments...)
	}
}
