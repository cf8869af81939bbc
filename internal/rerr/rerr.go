// Package rerr defines the structured error surface of the resolution core
// (spec §6 "Error surface", §7). Recoverable errors attach to a file's
// error list; fatal errors unwind the whole pass.
package rerr

import "fmt"

// PackageHeapNotFound is emitted when a package manifest path inside the
// project (or on the included list) was never observed by the manifest
// store.
type PackageHeapNotFound struct {
	RelativePath string
}

func (e *PackageHeapNotFound) Error() string {
	return fmt.Sprintf("package manifest not found: %s", e.RelativePath)
}

// ModuleOutsideRoot is emitted instead of PackageHeapNotFound when the
// missing manifest path is outside the project root and not included.
type ModuleOutsideRoot struct {
	RelativePath string
}

func (e *ModuleOutsideRoot) Error() string {
	return fmt.Sprintf("module outside root: %s", e.RelativePath)
}

// DuplicateProvider is attached to the error list of every losing file
// when a module has more than one candidate provider.
type DuplicateProvider struct {
	Module   string // stable string form of the module name
	Provider string // stable string form of the elected provider's FileKey
	Conflict string // stable string form of the losing file's FileKey
}

func (e *DuplicateProvider) Error() string {
	return fmt.Sprintf("duplicate provider for module %s: %s conflicts with elected provider %s", e.Module, e.Conflict, e.Provider)
}

// ModuleResolverFatal wraps an I/O failure talking to the external
// resolver child process. The Flat resolver adds it to the resolving
// file's accumulator; nothing in this module aborts the pass on it.
type ModuleResolverFatal struct {
	Text string
}

func (e *ModuleResolverFatal) Error() string {
	return fmt.Sprintf("module resolver fatal: %s", e.Text)
}

// InvalidResolution reports that the external resolver sent a response
// that did not match the wire protocol's expected shape. Like
// ModuleResolverFatal, it is added to the resolving file's accumulator and
// does not abort the pass.
type InvalidResolution struct {
	Text string
}

func (e *InvalidResolution) Error() string {
	return fmt.Sprintf("invalid resolution from module resolver: %s", e.Text)
}
