package dispatch

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDomain indicates an empty domain or a backend whose domain
	// cannot be obtained.
	ErrInvalidDomain = errors.New("dispatch: invalid domain")
	// ErrInvalidBackend indicates a nil or non-comparable backend handle.
	ErrInvalidBackend = errors.New("dispatch: invalid backend")
	// ErrInvalidFunction indicates a malformed multimethod definition, such as
	// a missing extractor.
	ErrInvalidFunction = errors.New("dispatch: invalid function")
	// ErrTooManyValues indicates a conversion hook returned a different number
	// of values than dispatchables were extracted.
	ErrTooManyValues = errors.New("dispatch: conversion returned wrong number of values")
	// ErrInvalidReplacerResult indicates a replacer did not produce an
	// (args, kwargs) pair.
	ErrInvalidReplacerResult = errors.New("dispatch: replacer must return (args, kwargs)")
	// ErrNoLocalState indicates the per-context override state could not be
	// obtained.
	ErrNoLocalState = errors.New("dispatch: no local override state")
	// ErrMissingDispatch indicates a selected backend has no dispatch hook.
	ErrMissingDispatch = errors.New("dispatch: backend has no dispatch hook")
	// ErrBackendNotImplemented indicates that no selected backend handled the
	// call and no default implementation exists.
	ErrBackendNotImplemented = errors.New("dispatch: no selected backend implements this function")
	// ErrNotImplemented is the sentinel hooks return to decline a call so the
	// next backend is tried.
	ErrNotImplemented = errors.New("dispatch: not implemented")
)

// Stage names the hook that failed during a call.
type Stage string

const (
	StageExtract  Stage = "extract"
	StageConvert  Stage = "convert"
	StageReplace  Stage = "replace"
	StageDispatch Stage = "dispatch"
)

// BackendError captures call metadata alongside a failure raised by a hook.
type BackendError struct {
	Function string
	Domain   string
	Backend  string
	Stage    Stage
	Err      error
}

func (e *BackendError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("dispatch: %s %s domain=%s backend=%s: %v",
		e.Stage, describeFunction(e.Function), e.Domain, e.Backend, e.Err)
}

func (e *BackendError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func describeFunction(name string) string {
	if name == "" {
		return "function=<anonymous>"
	}
	return fmt.Sprintf("function=%q", name)
}

func wrapBackendError(fn *Function, backend Backend, stage Stage, err error) error {
	if err == nil {
		return nil
	}

	var backendErr *BackendError
	if errors.As(err, &backendErr) {
		return err
	}

	return &BackendError{
		Function: fn.Name(),
		Domain:   fn.Domain(),
		Backend:  backendName(backend),
		Stage:    stage,
		Err:      err,
	}
}

func isNotImplemented(err error) bool {
	return errors.Is(err, ErrNotImplemented)
}
