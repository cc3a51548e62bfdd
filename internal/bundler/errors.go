package bundler

import "errors"

var (
	// ErrModuleNotFound indicates that neither `<name>.rs` nor `<name>/mod.rs` exists.
	ErrModuleNotFound = errors.New("cannot find module file")
	// ErrMalformedDecl indicates a module declaration without a terminating `;`.
	ErrMalformedDecl = errors.New("malformed module declaration")
	// ErrModuleCycle indicates a module file that includes itself, directly or not.
	ErrModuleCycle = errors.New("module cycle")
)
