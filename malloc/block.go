// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package malloc

import "unsafe"

// Sentinel values. Concrete numbers are implementation-defined; code must
// never depend on the specific bit patterns, only on their stability across
// a process lifetime.
const (
	magicValue  uint32 = 0x6c6c6162 // "ball" backwards, picked arbitrarily
	canaryValue uint32 = 0xc0ffee11
)

const (
	flagFree   uint32 = 1 << 0
	flagMarked uint32 = 1 << 1
)

// blockHeader precedes every managed block's user payload with zero
// padding, immediately followed (after alignment) by the payload area and
// then the trailing canary. It is a plain-old-data struct: no Go pointers,
// strings, slices or interfaces are ever stored in it, because instances of
// it live inside raw OS-mapped memory the Go garbage collector does not
// scan. Debug attribution is therefore kept out-of-band, see Attribution.
//
// prev/next form the address-ordered list of every block in the heap; a
// large block's header leaves them zero, the large list being kept in
// largeBlock nodes instead. flPrev/flNext form the intrusive
// doubly linked free list the block belongs to; they are meaningful only
// while flagFree is set.
type blockHeader struct {
	magic    uint32
	canary   uint32
	size     uint64 // header + aligned payload area + canary, total bytes
	userSize uint64 // caller-requested bytes; canary sits at dataOffset+userSize
	flags    uint32
	prev     uintptr
	next     uintptr
	flPrev   uintptr
	flNext   uintptr
}

const (
	headerSize = unsafe.Sizeof(blockHeader{})
	canarySize = unsafe.Sizeof(canaryValue)
)

func headerAt(addr uintptr) *blockHeader {
	return (*blockHeader)(unsafe.Pointer(addr))
}

func (h *blockHeader) free() bool   { return h.flags&flagFree != 0 }
func (h *blockHeader) marked() bool { return h.flags&flagMarked != 0 }

func (h *blockHeader) setFree(v bool) {
	if v {
		h.flags |= flagFree
	} else {
		h.flags &^= flagFree
	}
}

func (h *blockHeader) setMarked(v bool) {
	if v {
		h.flags |= flagMarked
	} else {
		h.flags &^= flagMarked
	}
}

// dataOffset is the byte offset from a block's address to its payload,
// i.e. the header size rounded up to the allocator's alignment.
func (a *Allocator) dataOffset() uintptr {
	return alignUpU(headerSize, a.cfg.ArchAlignment)
}

// dataPtr returns the address of h's payload.
func (a *Allocator) dataPtr(addr uintptr) uintptr {
	return addr + a.dataOffset()
}

// canaryPtr returns the address of h's trailing canary, derived from the
// header's recorded userSize.
func (a *Allocator) canaryPtr(addr uintptr, h *blockHeader) uintptr {
	return a.dataPtr(addr) + uintptr(h.userSize)
}

// writeCanary stamps the canary value at the tail of the payload and mirrors
// it in the header.
func (a *Allocator) writeCanary(addr uintptr, h *blockHeader) {
	h.canary = canaryValue
	*(*uint32)(unsafe.Pointer(a.canaryPtr(addr, h))) = canaryValue
}

// checkCanary verifies the trailing canary is intact and matches the
// header's own copy.
func (a *Allocator) checkCanary(addr uintptr, h *blockHeader) bool {
	if h.canary != canaryValue {
		return false
	}

	got := *(*uint32)(unsafe.Pointer(a.canaryPtr(addr, h)))
	return got == canaryValue
}

// payloadBytes returns a Go slice view over a block's live payload bytes
// (length userSize), backed directly by the mmap'd arena.
func (a *Allocator) payloadBytes(addr uintptr, h *blockHeader) []byte {
	p := (*byte)(unsafe.Pointer(a.dataPtr(addr)))
	return unsafe.Slice(p, int(h.userSize))
}

// minBlockSize is the smallest total block size the allocator will ever
// carve: header + alignment unit of payload + canary, all rounded up.
func (a *Allocator) minBlockSize() uintptr {
	raw := a.dataOffset() + uintptr(a.cfg.ArchAlignment) + canarySize
	return alignUpU(raw, a.cfg.ArchAlignment)
}

// blockSizeFor returns the total block size required to satisfy a request
// for userSize payload bytes, header+canary included, rounded up to the
// allocator's alignment.
func (a *Allocator) blockSizeFor(userSize int) uintptr {
	raw := a.dataOffset() + uintptr(userSize) + canarySize
	total := alignUpU(raw, a.cfg.ArchAlignment)
	if total < a.minBlockSize() {
		total = a.minBlockSize()
	}

	return total
}
