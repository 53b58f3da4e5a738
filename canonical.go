package dispatch

import "reflect"

// isDefault compares by value so callers that spell out a default get the
// same canonical call as callers that omit it.
func isDefault(value, def any) bool {
	return reflect.DeepEqual(value, def)
}

// CanonicalizeArgs drops the longest trailing run of args equal to defaults
// at the same position. Calls with more args than defaults are untouched.
func CanonicalizeArgs(args Args, defaults Args) Args {
	if len(args) > len(defaults) {
		return args.Clone()
	}
	keep := 0
	for i := len(args) - 1; i >= 0; i-- {
		if !isDefault(args[i], defaults[i]) {
			keep = i + 1
			break
		}
	}
	return append(Args{}, args[:keep]...)
}

// CanonicalizeKwargs returns a copy of kwargs without the keys whose value
// equals the default for that key.
func CanonicalizeKwargs(kwargs Kwargs, defaults Kwargs) Kwargs {
	out := kwargs.Clone()
	for key, def := range defaults {
		if value, ok := out[key]; ok && isDefault(value, def) {
			delete(out, key)
		}
	}
	return out
}
