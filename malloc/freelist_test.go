// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package malloc

import "testing"

func TestBinIndexMonotonic(t *testing.T) {
	a := newTestAllocator(t, Config{})

	prev := -1
	for _, size := range []uintptr{a.minBinSize(), 64, 256, 1024, 4096, 16384} {
		idx := a.binIndex(size)
		if idx < prev {
			t.Errorf("binIndex(%d) = %d, not monotonic after previous %d", size, idx, prev)
		}

		if idx < 0 || idx >= len(a.bins) {
			t.Errorf("binIndex(%d) = %d out of range [0,%d)", size, idx, len(a.bins))
		}

		prev = idx
	}
}

func TestBinInsertRemoveRoundTrip(t *testing.T) {
	a := newTestAllocator(t, Config{})

	// The whole region starts as a single free block already binned by
	// Init; remove and reinsert it to exercise the list surgery directly.
	addr := a.heap.start
	idx := a.binIndex(uintptr(headerAt(addr).size))

	if !a.binContains(idx, addr) {
		t.Fatalf("bin %d does not contain the initial free block at %#x", idx, addr)
	}

	a.binRemove(addr)
	if a.binContains(idx, addr) {
		t.Fatalf("bin %d still contains %#x after binRemove", idx, addr)
	}

	a.binInsert(addr)
	if !a.binContains(idx, addr) {
		t.Fatalf("bin %d does not contain %#x after binInsert", idx, addr)
	}
}
