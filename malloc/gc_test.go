// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package malloc

import (
	"testing"
	"unsafe"
)

func TestCollectFreesUnreachable(t *testing.T) {
	a := newTestAllocator(t, Config{})

	reachable, err := a.Alloc(32, attr("reachable"), FirstFit)
	if err != nil {
		t.Fatalf("Alloc reachable: %v", err)
	}

	unreachable, err := a.Alloc(32, attr("unreachable"), FirstFit)
	if err != nil {
		t.Fatalf("Alloc unreachable: %v", err)
	}

	unreachableAddr := a.sliceAddr(unreachable)
	root := a.sliceAddr(reachable)

	stats, err := a.Collect([]Root{rootOf(&root)})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	if stats.Freed != 1 {
		t.Errorf("Collect freed %d blocks, want 1", stats.Freed)
	}

	if stats.Live != 1 {
		t.Errorf("Collect left %d blocks live, want 1", stats.Live)
	}

	if !headerAt(unreachableAddr).free() {
		t.Error("unreachable block was not freed by Collect")
	}

	if headerAt(a.sliceAddr(reachable)).free() {
		t.Error("reachable block was freed by Collect")
	}
}

func TestCollectFollowsInteriorPointers(t *testing.T) {
	a := newTestAllocator(t, Config{})

	target, err := a.Alloc(64, attr("target"), FirstFit)
	if err != nil {
		t.Fatalf("Alloc target: %v", err)
	}

	// A root holding a pointer into the middle of target's payload must
	// still keep the whole block alive.
	interior := a.sliceAddr(target) + a.dataOffset() + 8

	stats, err := a.Collect([]Root{rootOf(&interior)})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	if stats.Freed != 0 {
		t.Errorf("Collect freed %d blocks, want 0 (interior pointer should keep target alive)", stats.Freed)
	}
}

func TestCollectNoRootsFreesEverything(t *testing.T) {
	a := newTestAllocator(t, Config{})

	for i := 0; i < 3; i++ {
		if _, err := a.Alloc(32, attr("garbage"), FirstFit); err != nil {
			t.Fatalf("Alloc %d: %v", i, err)
		}
	}

	stats, err := a.Collect(nil)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	if stats.Freed != 3 {
		t.Errorf("Collect freed %d blocks, want 3", stats.Freed)
	}
}

// rootOf returns a Root spanning exactly the uintptr p points at, letting
// tests hand Collect a single word of "stack" to scan.
func rootOf(p *uintptr) Root {
	start := uintptr(unsafe.Pointer(p))
	return Root{Start: start, End: start + unsafe.Sizeof(uintptr(0))}
}
