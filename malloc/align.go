// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package malloc

import "github.com/cznic/mathutil"

// alignUp rounds n up to the next multiple of align, which must be a power
// of two.
func alignUp(n, align int) int {
	return (n + align - 1) &^ (align - 1)
}

// alignUpU rounds a uintptr up to the next multiple of align (power of two).
func alignUpU(n uintptr, align int) uintptr {
	a := uintptr(align)
	return (n + a - 1) &^ (a - 1)
}

// log2 returns floor(log2(n)) for n >= 1.
func log2(n int) int {
	r := 0
	for n > 1 {
		n >>= 1
		r++
	}
	return r
}

// minInt and maxInt are thin wrappers around cznic/mathutil so the rest of
// the package reads as ordinary Go int arithmetic while still reusing the
// teacher's own min/max helpers instead of reimplementing them.
func minInt(a, b int) int { return mathutil.Min(a, b) }
func maxInt(a, b int) int { return mathutil.Max(a, b) }
