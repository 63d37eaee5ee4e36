// Package taskly holds release metadata for the taskly module.
package taskly

// Version is the semantic version of the module. Release builds may
// override it with -ldflags "-X github.com/mesh-intelligence/taskly/pkg/taskly.Version=...".
var Version = "0.1.0"

// ModulePath is the Go module path.
const ModulePath = "github.com/mesh-intelligence/taskly"
