package script

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/common/types/traits"
)

type celEngine struct {
	engineConfig
}

// NewCELEngine constructs an Engine backed by cel-go. Every env entry is
// declared as a dyn variable. Registered functions are reachable through
// call(name, [args...]).
func NewCELEngine(opts ...Option) Engine {
	return &celEngine{engineConfig: applyOptions(opts)}
}

func (e *celEngine) Evaluate(env map[string]any, expression string) (any, error) {
	if expression == "" {
		return nil, ErrEmptyExpression
	}
	names := variableNames(env)
	program, err := e.loadOrCompile(expression, names)
	if err != nil {
		return nil, err
	}
	out, _, err := program.Eval(activation(env))
	if err != nil {
		return nil, wrapEvaluationError("cel", expression, err)
	}
	result, err := nativeValue(out)
	if err != nil {
		return nil, wrapEvaluationError("cel", expression, err)
	}
	return result, nil
}

// The declared variables are part of the checked program, so they are part
// of the cache key.
func (e *celEngine) loadOrCompile(expression string, names []string) (celgo.Program, error) {
	key := "cel:" + strings.Join(names, ",") + "\x00" + expression
	if cached, ok := e.lookup(key); ok {
		if program, ok := cached.(celgo.Program); ok {
			return program, nil
		}
	}
	env, err := e.buildEnv(names)
	if err != nil {
		return nil, wrapEvaluationError("cel", expression, err)
	}
	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, wrapEvaluationError("cel", expression, issues.Err())
	}
	program, err := env.Program(ast)
	if err != nil {
		return nil, wrapEvaluationError("cel", expression, err)
	}
	e.store(key, program)
	return program, nil
}

func (e *celEngine) buildEnv(names []string) (*celgo.Env, error) {
	opts := make([]celgo.EnvOption, 0, len(names)+1)
	for _, name := range names {
		opts = append(opts, celgo.Variable(name, celgo.DynType))
	}
	if e.registry != nil {
		opts = append(opts, celgo.Function("call",
			celgo.Overload("call_string_list",
				[]*celgo.Type{celgo.StringType, celgo.ListType(celgo.DynType)},
				celgo.DynType,
				celgo.BinaryBinding(e.callBinding),
			),
		))
	}
	return celgo.NewEnv(opts...)
}

func (e *celEngine) callBinding(nameVal, argsVal ref.Val) ref.Val {
	name, ok := nameVal.Value().(string)
	if !ok {
		return types.NewErr("script: call name must be a string")
	}
	native, err := nativeValue(argsVal)
	if err != nil {
		return types.NewErr("script: call arguments: %v", err)
	}
	arguments, _ := native.([]any)
	result, err := e.registry.Call(name, arguments...)
	if err != nil {
		return types.NewErr("%v", err)
	}
	if result == nil {
		return types.NullValue
	}
	return types.DefaultTypeAdapter.NativeToValue(result)
}

func variableNames(env map[string]any) []string {
	names := make([]string, 0, len(env))
	for name := range env {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func activation(env map[string]any) map[string]any {
	out := make(map[string]any, len(env))
	for key, value := range env {
		out[key] = normalizeInput(value)
	}
	return out
}

// normalizeInput strips named slice and map types, which the CEL adapter
// does not recognize.
func normalizeInput(value any) any {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice:
		if rv.Type().Elem().Kind() != reflect.Interface || rv.Type() == reflect.TypeOf([]any{}) {
			return value
		}
		return rv.Convert(reflect.TypeOf([]any{})).Interface()
	case reflect.Map:
		target := reflect.TypeOf(map[string]any{})
		if rv.Type() == target || !rv.Type().ConvertibleTo(target) {
			return value
		}
		return rv.Convert(target).Interface()
	}
	return value
}

// nativeValue unwraps CEL values into plain Go values, turning aggregates
// into []any and map[string]any.
func nativeValue(val ref.Val) (any, error) {
	switch v := val.(type) {
	case types.Null:
		return nil, nil
	case traits.Lister:
		size, _ := v.Size().(types.Int)
		items := make([]any, 0, int(size))
		for i := types.Int(0); i < size; i++ {
			item, err := nativeValue(v.Get(i))
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		return items, nil
	case traits.Mapper:
		entries := map[string]any{}
		it := v.Iterator()
		for it.HasNext() == types.True {
			key := it.Next()
			name, ok := key.Value().(string)
			if !ok {
				return nil, fmt.Errorf("map result must have string keys, got %s", key.Type().TypeName())
			}
			item, err := nativeValue(v.Get(key))
			if err != nil {
				return nil, err
			}
			entries[name] = item
		}
		return entries, nil
	}
	if types.IsError(val) {
		return nil, fmt.Errorf("%v", val.Value())
	}
	return val.Value(), nil
}
