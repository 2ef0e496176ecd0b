// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The managed heap region.

package malloc

import "unsafe"

// heapRegion is the single contiguous arena obtained from the OS at Init.
// start/end bound it; top is the address of the last block in address
// order, the "top chunk". While free, the top chunk is binned like any
// other free block, so the bin search already considers it. The region
// never grows: once no free block, top chunk included, can satisfy a
// request, allocation fails with ErrOutOfMemory.
type heapRegion struct {
	mem        []byte
	start, end uintptr
	top        uintptr
}

func newHeapRegion(size int) (*heapRegion, error) {
	mem, err := mapLarge(size)
	if err != nil {
		return nil, err
	}

	start := uintptr(unsafe.Pointer(&mem[0]))
	return &heapRegion{
		mem:   mem,
		start: start,
		end:   start + uintptr(len(mem)),
		top:   start,
	}, nil
}

func (hr *heapRegion) contains(addr uintptr) bool {
	return addr >= hr.start && addr < hr.end
}

func (hr *heapRegion) close() error {
	if hr.mem == nil {
		return nil
	}

	err := unmapLarge(hr.mem)
	hr.mem = nil
	return err
}
