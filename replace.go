package dispatch

import (
	"fmt"
	"reflect"
)

// replaceDispatchables converts the dispatchables of a call for backend.
// Backends without a conversion hook receive args and kwargs unchanged.
// implemented is false when the conversion hook declined.
func (f *Function) replaceDispatchables(backend Backend, args Args, kwargs Kwargs, coerce bool) (Args, Kwargs, bool, error) {
	converter, ok := backend.(Converter)
	if !ok {
		return args, kwargs, true, nil
	}

	dispatchables, err := f.extractor(args.Clone(), kwargs.Clone())
	if err != nil {
		return nil, nil, false, wrapBackendError(f, backend, StageExtract, err)
	}

	replacements, err := converter.Convert(dispatchables, coerce)
	if err != nil {
		if isNotImplemented(err) {
			return nil, nil, false, nil
		}
		return nil, nil, false, wrapBackendError(f, backend, StageConvert, err)
	}
	if len(replacements) != len(dispatchables) {
		err := fmt.Errorf("%w: expected %d, got %d", ErrTooManyValues, len(dispatchables), len(replacements))
		return nil, nil, false, wrapBackendError(f, backend, StageConvert, err)
	}

	if f.replacer == nil {
		return append(Args{}, replacements...), Kwargs{}, true, nil
	}

	newArgs, newKwargs, err := f.replacer(args.Clone(), kwargs.Clone(), append([]any(nil), replacements...))
	if err != nil {
		return nil, nil, false, wrapBackendError(f, backend, StageReplace, err)
	}
	if newArgs == nil {
		newArgs = Args{}
	}
	return newArgs, CanonicalizeKwargs(newKwargs, f.defaultKwargs), true, nil
}

// DynamicReplacer adapts a loosely typed replacer, such as a script, whose
// result must be a two element [args, kwargs] sequence.
func DynamicReplacer(fn func(args Args, kwargs Kwargs, replacements []any) (any, error)) Replacer {
	if fn == nil {
		return nil
	}
	return func(args Args, kwargs Kwargs, replacements []any) (Args, Kwargs, error) {
		out, err := fn(args, kwargs, replacements)
		if err != nil {
			return nil, nil, err
		}
		return ReplacerResult(out)
	}
}

// ReplacerResult splits a dynamic [args, kwargs] pair.
func ReplacerResult(value any) (Args, Kwargs, error) {
	pair, ok := asSlice(value)
	if !ok || len(pair) != 2 {
		return nil, nil, fmt.Errorf("%w: got %T", ErrInvalidReplacerResult, value)
	}
	var args Args
	if pair[0] != nil {
		items, ok := asSlice(pair[0])
		if !ok {
			return nil, nil, fmt.Errorf("%w: args must be a sequence, got %T", ErrInvalidReplacerResult, pair[0])
		}
		args = Args(items)
	}
	kwargs, ok := asKwargs(pair[1])
	if !ok {
		return nil, nil, fmt.Errorf("%w: kwargs must be a string keyed mapping, got %T", ErrInvalidReplacerResult, pair[1])
	}
	if args == nil {
		args = Args{}
	}
	return args, kwargs, nil
}

func asSlice(value any) ([]any, bool) {
	switch typed := value.(type) {
	case nil:
		return nil, false
	case []any:
		return typed, true
	case Args:
		return []any(typed), true
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func asKwargs(value any) (Kwargs, bool) {
	switch typed := value.(type) {
	case nil:
		return Kwargs{}, true
	case Kwargs:
		return typed.Clone(), true
	case map[string]any:
		return Kwargs(typed).Clone(), true
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(Kwargs, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}
