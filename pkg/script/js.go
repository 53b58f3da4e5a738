//go:build js_eval

package script

import (
	"fmt"

	"github.com/dop251/goja"
)

type jsEngine struct {
	engineConfig
}

// NewJSEngine constructs an Engine backed by goja. Each evaluation runs in a
// fresh runtime.
func NewJSEngine(opts ...Option) Engine {
	return &jsEngine{engineConfig: applyOptions(opts)}
}

func (e *jsEngine) Evaluate(env map[string]any, expression string) (any, error) {
	if expression == "" {
		return nil, ErrEmptyExpression
	}
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, err
	}
	vm := goja.New()
	if err := e.inject(vm, env); err != nil {
		return nil, wrapEvaluationError("js", expression, err)
	}
	value, err := vm.RunProgram(program)
	if err != nil {
		return nil, wrapEvaluationError("js", expression, err)
	}
	return value.Export(), nil
}

func (e *jsEngine) loadOrCompile(expression string) (*goja.Program, error) {
	key := "js:" + expression
	if cached, ok := e.lookup(key); ok {
		if program, ok := cached.(*goja.Program); ok {
			return program, nil
		}
	}
	program, err := goja.Compile("", fmt.Sprintf("(function(){ return (%s); })()", expression), false)
	if err != nil {
		return nil, wrapEvaluationError("js", expression, err)
	}
	e.store(key, program)
	return program, nil
}

func (e *jsEngine) inject(vm *goja.Runtime, env map[string]any) error {
	for key, value := range env {
		if err := vm.Set(key, value); err != nil {
			return err
		}
	}
	if e.registry == nil {
		return nil
	}
	if err := vm.Set("call", func(name string, arguments ...any) (any, error) {
		return e.registry.Call(name, arguments...)
	}); err != nil {
		return err
	}
	for _, name := range e.registry.Names() {
		fn := name
		if err := vm.Set(fn, func(arguments ...any) (any, error) {
			return e.registry.Call(fn, arguments...)
		}); err != nil {
			return err
		}
	}
	return nil
}

// JSAvailable reports whether the binary was built with the goja engine.
func JSAvailable() bool {
	return true
}
