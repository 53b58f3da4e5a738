package dispatch

import (
	"fmt"
	"reflect"
	"strings"
)

func validateDomain(domain string) error {
	if domain == "" {
		return fmt.Errorf("%w: domain must be non-empty", ErrInvalidDomain)
	}
	return nil
}

func validateBackend(backend Backend) error {
	if backend == nil {
		return fmt.Errorf("%w: backend is nil", ErrInvalidBackend)
	}
	rv := reflect.ValueOf(backend)
	// Interface fields holding slices or maps pass a type check but panic on ==.
	if !rv.Comparable() {
		return fmt.Errorf("%w: backend %s is not comparable", ErrInvalidBackend, rv.Type())
	}
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return fmt.Errorf("%w: backend is a nil %s", ErrInvalidBackend, rv.Type())
	}
	return nil
}

// backendDomain validates backend and returns its domain identifier.
func backendDomain(backend Backend) (string, error) {
	if err := validateBackend(backend); err != nil {
		return "", err
	}
	domain := backend.Domain()
	if err := validateDomain(domain); err != nil {
		return "", fmt.Errorf("%w: backend %s", err, backendName(backend))
	}
	return domain, nil
}

func backendName(backend Backend) string {
	if backend == nil {
		return "<nil>"
	}
	if named, ok := backend.(Named); ok {
		if name := strings.TrimSpace(named.Name()); name != "" {
			return name
		}
	}
	return fmt.Sprintf("%T", backend)
}

func containsBackend(list []Backend, backend Backend) bool {
	for _, candidate := range list {
		if candidate == backend {
			return true
		}
	}
	return false
}
