//go:build tools

// Package tools pins the executables used by `//go:generate` directives in this
// module, such as the stringer output for handle.ObjectType and
// sampler.CallState.
//
// `go run golang.org/x/tools/cmd/stringer` then builds the version recorded in
// go.mod instead of whatever happens to be installed.
package tools

import _ "golang.org/x/tools/cmd/stringer"
