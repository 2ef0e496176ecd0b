// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package malloc

import (
	"errors"
	"testing"
)

func TestAllocZeroSizeRejected(t *testing.T) {
	a := newTestAllocator(t, Config{})

	if _, err := a.Alloc(0, attr("zero"), FirstFit); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Alloc(0) = %v, want ErrInvalidArgument", err)
	}
}

func TestFreeNilIsNoop(t *testing.T) {
	a := newTestAllocator(t, Config{})

	if err := a.Free(nil); err != nil {
		t.Errorf("Free(nil) = %v, want nil", err)
	}
}

func TestDoubleFreeRejected(t *testing.T) {
	a := newTestAllocator(t, Config{})

	b, err := a.Alloc(32, attr("x"), FirstFit)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}

	if err := a.Free(b); err != nil {
		t.Fatalf("first Free: %v", err)
	}

	if err := a.Free(b); !errors.Is(err, ErrDoubleFree) {
		t.Errorf("second Free = %v, want ErrDoubleFree", err)
	}
}

func TestCallocZeroesMemory(t *testing.T) {
	a := newTestAllocator(t, Config{})

	b, err := a.Calloc(16, 4, attr("zeroed"), FirstFit)
	if err != nil {
		t.Fatalf("Calloc: %v", err)
	}

	for i := range b {
		b[i] = 0xff
	}

	if err := a.Free(b); err != nil {
		t.Fatalf("Free: %v", err)
	}

	b2, err := a.Calloc(16, 4, attr("zeroed-again"), FirstFit)
	if err != nil {
		t.Fatalf("Calloc 2: %v", err)
	}

	for i, v := range b2 {
		if v != 0 {
			t.Fatalf("b2[%d] = %d, want 0", i, v)
		}
	}
}

func TestCallocOverflowRejected(t *testing.T) {
	a := newTestAllocator(t, Config{})

	_, err := a.Calloc(1<<62, 1<<62, attr("overflow"), FirstFit)
	if !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Calloc overflow = %v, want ErrInvalidArgument", err)
	}
}

func TestReallocGrowPreservesPrefix(t *testing.T) {
	a := newTestAllocator(t, Config{})

	b, err := a.Alloc(16, attr("grow"), FirstFit)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}

	for i := range b {
		b[i] = byte(i + 1)
	}

	grown, err := a.Realloc(b, 4096, attr("grow"), FirstFit)
	if err != nil {
		t.Fatalf("Realloc: %v", err)
	}

	if len(grown) != 4096 {
		t.Fatalf("len(grown) = %d, want 4096", len(grown))
	}

	for i := 0; i < 16; i++ {
		if grown[i] != byte(i+1) {
			t.Fatalf("grown[%d] = %d, want %d", i, grown[i], i+1)
		}
	}
}

func TestReallocShrinkPreservesPrefix(t *testing.T) {
	a := newTestAllocator(t, Config{})

	b, err := a.Alloc(512, attr("shrink"), FirstFit)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}

	for i := range b {
		b[i] = byte(i)
	}

	shrunk, err := a.Realloc(b, 8, attr("shrink"), FirstFit)
	if err != nil {
		t.Fatalf("Realloc: %v", err)
	}

	if len(shrunk) != 8 {
		t.Fatalf("len(shrunk) = %d, want 8", len(shrunk))
	}

	for i := 0; i < 8; i++ {
		if shrunk[i] != byte(i) {
			t.Fatalf("shrunk[%d] = %d, want %d", i, shrunk[i], i)
		}
	}
}

func TestReallocZeroSizeFrees(t *testing.T) {
	a := newTestAllocator(t, Config{})

	b, err := a.Alloc(32, attr("to-free"), FirstFit)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}

	out, err := a.Realloc(b, 0, attr("to-free"), FirstFit)
	if err != nil {
		t.Fatalf("Realloc to 0: %v", err)
	}

	if out != nil {
		t.Errorf("Realloc(..., 0, ...) returned %v, want nil", out)
	}

	if err := a.Free(b); !errors.Is(err, ErrDoubleFree) {
		t.Errorf("Free after Realloc-to-0 = %v, want ErrDoubleFree", err)
	}
}

func TestReallocNilBehavesAsAlloc(t *testing.T) {
	a := newTestAllocator(t, Config{})

	b, err := a.Realloc(nil, 64, attr("fresh"), FirstFit)
	if err != nil {
		t.Fatalf("Realloc(nil, ...): %v", err)
	}

	if len(b) != 64 {
		t.Fatalf("len(b) = %d, want 64", len(b))
	}
}

func TestOutOfMemory(t *testing.T) {
	a := newTestAllocator(t, Config{HeapSize: 4096, LargeThreshold: 1 << 30})

	var blocks [][]byte
	for {
		b, err := a.Alloc(256, attr("fill"), FirstFit)
		if err != nil {
			if !errors.Is(err, ErrOutOfMemory) {
				t.Fatalf("Alloc failed with %v, want ErrOutOfMemory", err)
			}

			break
		}

		blocks = append(blocks, b)
	}

	if len(blocks) == 0 {
		t.Fatal("heap accepted zero allocations before exhausting")
	}
}

func TestUnmanagedPointerRejected(t *testing.T) {
	a := newTestAllocator(t, Config{})

	foreign := make([]byte, 16)
	if err := a.Free(foreign); !errors.Is(err, ErrUnmanagedPointer) {
		t.Errorf("Free(foreign slice) = %v, want ErrUnmanagedPointer", err)
	}
}
