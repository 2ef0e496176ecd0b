// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package malloc

import (
	"testing"
	"unsafe"
)

func TestBlockSizeForRespectsMinimum(t *testing.T) {
	a := newTestAllocator(t, Config{})

	if got, want := a.blockSizeFor(1), a.minBlockSize(); got != want {
		t.Errorf("blockSizeFor(1) = %d, want minBlockSize() = %d", got, want)
	}
}

func TestBlockSizeForAligned(t *testing.T) {
	a := newTestAllocator(t, Config{ArchAlignment: 16})

	got := a.blockSizeFor(100)
	if got%16 != 0 {
		t.Errorf("blockSizeFor(100) = %d, not a multiple of 16", got)
	}
}

func TestCanaryRoundTrip(t *testing.T) {
	a := newTestAllocator(t, Config{})

	b, err := a.Alloc(32, attr("canary"), FirstFit)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}

	addr := a.sliceAddr(b)
	h := headerAt(addr)
	if !a.checkCanary(addr, h) {
		t.Fatal("checkCanary: fresh block reports corrupted canary")
	}

	// Writing one byte past the payload must trip the canary.
	*(*byte)(unsafe.Pointer(a.canaryPtr(addr, h))) ^= 0xff
	if a.checkCanary(addr, h) {
		t.Fatal("checkCanary: did not detect a flipped canary byte")
	}
}
