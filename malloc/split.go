// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Splitting oversized free blocks on allocation and coalescing adjacent
// free blocks on free, mirroring the shape of cznic/exp/lldb/falloc.go's
// alloc/link (split) and free2 (coalesce) — ported from file-offset/atom
// arithmetic to in-process addresses.

package malloc

// carve turns the free block at addr, of size >= need, into an allocated
// block of exactly need bytes. If the surplus is big enough to hold a
// minimum-sized block on its own, the remainder is split off as a new free
// block, address-linked in, and inserted into its free-list bin. addr must
// already have been removed from its free list by the caller.
func (a *Allocator) carve(addr uintptr, need uintptr) {
	h := headerAt(addr)
	orig := uintptr(h.size)
	surplus := orig - need
	if surplus < a.minBlockSize() {
		return
	}

	remainder := addr + need
	rh := headerAt(remainder)
	*rh = blockHeader{}
	rh.magic = magicValue
	rh.size = uint64(surplus)
	rh.setFree(true)
	rh.prev = addr
	rh.next = h.next

	if h.next != 0 {
		headerAt(h.next).prev = remainder
	} else {
		a.heap.top = remainder
	}

	h.next = remainder
	h.size = uint64(need)
	a.binInsert(remainder)
}

// coalesce merges the block at addr with its address-order predecessor
// and/or successor if either is free, unlinking the merged-away neighbor(s)
// from their bins first. It returns the address of the (possibly grown)
// merged block; the caller is responsible for the block's own free-list
// insertion and free/marked flags.
func (a *Allocator) coalesce(addr uintptr) uintptr {
	h := headerAt(addr)

	if h.prev != 0 {
		if ph := headerAt(h.prev); ph.free() {
			a.binRemove(h.prev)
			ph.next = h.next
			if h.next != 0 {
				headerAt(h.next).prev = h.prev
			} else {
				a.heap.top = h.prev
			}

			ph.size += h.size
			addr = h.prev
			h = ph
		}
	}

	if h.next != 0 {
		if nh := headerAt(h.next); nh.free() {
			a.binRemove(h.next)
			h.size += nh.size
			h.next = nh.next
			if nh.next != 0 {
				headerAt(nh.next).prev = addr
			} else {
				a.heap.top = addr
			}
		}
	}

	return addr
}
