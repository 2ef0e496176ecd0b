// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package malloc

import "runtime"

// Attribution carries debug-only information about who made an allocation:
// a caller-supplied variable name plus the source file and line of the call.
// None of these fields participate in any correctness check; they exist
// purely so Walk can report where a live block came from.
type Attribution struct {
	Name string
	File string
	Line int
}

// CallerAttribution fills File and Line from the caller's own call site
// (skip = 1) and sets Name to name. It is a thin helper for code that wants
// the Alloc/Calloc/Realloc call site recorded automatically, the Go
// analogue of a __FILE__/__LINE__ macro.
func CallerAttribution(name string) Attribution {
	_, file, line, ok := runtime.Caller(1)
	if !ok {
		return Attribution{Name: name}
	}

	return Attribution{Name: name, File: file, Line: line}
}
