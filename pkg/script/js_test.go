//go:build js_eval

package script

import "testing"

func TestJSEngineEvaluates(t *testing.T) {
	engine := NewJSEngine(WithProgramCache(NewMapCache()))
	out, err := engine.Evaluate(map[string]any{"args": []any{2, 3}}, "args[0] * args[1]")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if out != int64(6) {
		t.Fatalf("expected 6, got %v (%T)", out, out)
	}
}

func TestJSEngineCallsRegisteredFunctions(t *testing.T) {
	registry := NewFunctionRegistry()
	_ = registry.Register("upper", func(args ...any) (any, error) {
		return "UP:" + args[0].(string), nil
	})
	engine := NewJSEngine(WithFunctionRegistry(registry))
	out, err := engine.Evaluate(map[string]any{"s": "x"}, "upper(s)")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if out != "UP:x" {
		t.Fatalf("unexpected result %v", out)
	}
}
