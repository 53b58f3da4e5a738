//go:build !js_eval

package script

// NewJSEngine returns nil unless the binary is built with the js_eval tag.
func NewJSEngine(opts ...Option) Engine {
	_ = applyOptions(opts)
	return nil
}

// JSAvailable reports whether the binary was built with the goja engine.
func JSAvailable() bool {
	return false
}
