// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build unix

// The three OS primitives the allocator depends on: page-aligned large
// mapping, unmapping, and the system page size.

package malloc

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// pageSize returns the OS page size, used to round large-path requests.
func pageSize() int {
	return unix.Getpagesize()
}

// mapLarge returns a page-aligned, anonymous, zero-filled region at least n
// bytes long. The real, rounded-up size is reported back so the caller can
// track exactly what must later be passed to unmapLarge.
func mapLarge(n int) ([]byte, error) {
	ps := pageSize()
	real := alignUp(n, ps)
	b, err := unix.Mmap(-1, 0, real, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, opErr("mapLarge", 0, fmt.Errorf("%w: %v", ErrOSFailure, err))
	}

	return b, nil
}

// unmapLarge releases a region previously obtained from mapLarge.
func unmapLarge(b []byte) error {
	if err := unix.Munmap(b); err != nil {
		return opErr("unmapLarge", 0, fmt.Errorf("%w: %v", ErrOSFailure, err))
	}

	return nil
}
