package dispatch

import "context"

type loopResult int

const (
	loopContinue loopResult = iota
	loopBreak
	loopError
)

// backendVisitor is called once per candidate backend.
type backendVisitor func(backend Backend, coerce bool) loopResult

// forEachBackend walks the candidates of domain in priority order: preferred
// entries in push order, then the global backend, then registered backends.
// Skipped backends are passed over in every tier. A preferred entry marked
// only or coerce ends the search even when it declines.
func forEachBackend(ctx context.Context, registry *Registry, domain string, visit backendVisitor) (loopResult, error) {
	local, err := localState(ctx, domain)
	if err != nil {
		return loopError, err
	}

	for _, options := range local.preferred {
		if local.isSkipped(options.Backend) {
			continue
		}
		if ret := visit(options.Backend, options.Coerce); ret != loopContinue {
			return ret, nil
		}
		if options.Only || options.Coerce {
			return loopContinue, nil
		}
	}

	globals := registry.load(domain)
	if globals.global != nil && !local.isSkipped(globals.global) {
		if ret := visit(globals.global, false); ret != loopContinue {
			return ret, nil
		}
	}

	for _, backend := range globals.registered {
		if local.isSkipped(backend) {
			continue
		}
		if ret := visit(backend, false); ret != loopContinue {
			return ret, nil
		}
	}
	return loopContinue, nil
}
