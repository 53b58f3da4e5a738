package dispatch

import "fmt"

// Dispatchable marks a call argument as subject to backend conversion.
type Dispatchable struct {
	Value     any
	Type      string
	Coercible bool
}

// NewDispatchable marks value with dispatchType. The result is coercible.
func NewDispatchable(value any, dispatchType string) Dispatchable {
	return Dispatchable{Value: value, Type: dispatchType, Coercible: true}
}

func (d Dispatchable) String() string {
	return fmt.Sprintf("<Dispatchable: type=%s, value=%v>", d.Type, d.Value)
}

// MarkAs returns a helper that marks values with dispatchType.
func MarkAs(dispatchType string) func(value any) Dispatchable {
	return func(value any) Dispatchable {
		return NewDispatchable(value, dispatchType)
	}
}

// RawExtractor returns dispatchable values, marked or not.
type RawExtractor func(args Args, kwargs Kwargs) ([]any, error)

// AllOfType wraps extractor so every unmarked value it returns is marked with
// dispatchType. Values that are already Dispatchable keep their marking.
func AllOfType(dispatchType string, extractor RawExtractor) Extractor {
	return func(args Args, kwargs Kwargs) ([]Dispatchable, error) {
		if extractor == nil {
			return nil, fmt.Errorf("%w: extractor is nil", ErrInvalidFunction)
		}
		values, err := extractor(args, kwargs)
		if err != nil {
			return nil, err
		}
		out := make([]Dispatchable, 0, len(values))
		for _, value := range values {
			switch typed := value.(type) {
			case Dispatchable:
				out = append(out, typed)
			case *Dispatchable:
				if typed == nil {
					out = append(out, NewDispatchable(nil, dispatchType))
					continue
				}
				out = append(out, *typed)
			default:
				out = append(out, NewDispatchable(value, dispatchType))
			}
		}
		return out, nil
	}
}

// Values returns the raw values carried by dispatchables.
func Values(dispatchables []Dispatchable) []any {
	out := make([]any, len(dispatchables))
	for i, d := range dispatchables {
		out[i] = d.Value
	}
	return out
}
