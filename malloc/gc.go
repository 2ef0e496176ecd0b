// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Conservative mark-and-sweep collection over the managed heap and the
// large list, per spec.md §4.H. Root ranges are scanned word-at-a-time for
// bit patterns that could be block addresses; anything that looks like one
// is treated as live, whether or not it really is — the defining trade of a
// conservative collector. Marking uses an explicit worklist, not recursion,
// so a long chain of interior pointers can't blow the Go stack.

package malloc

import "unsafe"

// Root is an inclusive-exclusive range of memory to scan for pointers into
// the managed heap or the large list, e.g. a goroutine stack or a global
// data segment.
type Root struct {
	Start, End uintptr
}

// CollectStats summarizes the result of a single Collect call.
type CollectStats struct {
	Freed      int // blocks swept
	FreedBytes int // user-visible bytes reclaimed across swept blocks
	Live       int // blocks still reachable after the mark phase
}

// Collect scans roots for conservative pointers into live blocks, marks
// everything transitively reachable from them, and frees every allocated
// block that was not marked. It never moves memory; it only reads it, flips
// free/marked flags and runs unmarked allocated blocks through the same
// free path Free uses.
func (a *Allocator) Collect(roots []Root) (CollectStats, error) {
	a.clearMarks()

	worklist := a.scanRoots(roots)
	for len(worklist) > 0 {
		addr := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]

		h, large, err := a.markableAt(addr)
		if err != nil || h == nil || h.marked() {
			continue
		}

		h.setMarked(true)
		worklist = append(worklist, a.scanBlock(addr, h, large)...)
	}

	return a.sweep()
}

func (a *Allocator) clearMarks() {
	for addr := a.heap.start; addr != 0 && a.heap.contains(addr); {
		h := headerAt(addr)
		if h.magic != magicValue {
			break
		}

		h.setMarked(false)
		if h.next == 0 {
			break
		}

		addr = h.next
	}

	for n := a.large; n != nil; n = n.next {
		headerAt(n.addr).setMarked(false)
	}
}

// scanRoots walks every root range at pointer-word granularity and returns
// the addresses of every live block a candidate word appears to reference.
func (a *Allocator) scanRoots(roots []Root) []uintptr {
	var work []uintptr
	align := uintptr(unsafe.Alignof(uintptr(0)))

	for _, r := range roots {
		start := alignUpU(r.Start, int(align))
		for p := start; p+unsafe.Sizeof(uintptr(0)) <= r.End; p += align {
			word := *(*uintptr)(unsafe.Pointer(p))
			if addr, ok := a.blockContaining(word); ok {
				work = append(work, addr)
			}
		}
	}

	return work
}

// blockContaining maps a conservative candidate pointer to the block
// address it falls within, whether the candidate points at the block's
// start or somewhere inside its payload (an interior pointer).
func (a *Allocator) blockContaining(word uintptr) (uintptr, bool) {
	if a.heap.contains(word) {
		for addr := a.heap.start; ; {
			h := headerAt(addr)
			if h.magic != magicValue {
				return 0, false
			}

			if word >= addr && word < addr+uintptr(h.size) {
				if h.free() {
					return 0, false
				}

				return addr, true
			}

			if h.next == 0 {
				return 0, false
			}

			addr = h.next
		}
	}

	for n := a.large; n != nil; n = n.next {
		if word >= n.addr && word < n.addr+uintptr(len(n.mem)) {
			return n.addr, true
		}
	}

	return 0, false
}

// markableAt resolves addr to its header without the user-facing checks
// resolve applies (a corrupted block found during a scan is logged and
// skipped, never treated as a fatal error, per spec.md §7).
func (a *Allocator) markableAt(addr uintptr) (*blockHeader, bool, error) {
	large := !a.heap.contains(addr)
	h := headerAt(addr)

	if h.magic != magicValue {
		a.logger.Warnf("Collect: skipping corrupted block at %#x (magic mismatch)", addr)
		return nil, large, opErr("Collect", addr, ErrMagicMismatch)
	}

	return h, large, nil
}

// scanBlock treats a live block's payload as more conservative root
// material, per the same word-granular scan scanRoots uses.
func (a *Allocator) scanBlock(addr uintptr, h *blockHeader, large bool) []uintptr {
	base := a.dataPtr(addr)
	end := base + uintptr(h.userSize)

	var work []uintptr
	align := uintptr(unsafe.Alignof(uintptr(0)))
	start := alignUpU(base, int(align))

	for p := start; p+unsafe.Sizeof(uintptr(0)) <= end; p += align {
		word := *(*uintptr)(unsafe.Pointer(p))
		if a2, ok := a.blockContaining(word); ok {
			work = append(work, a2)
		}
	}

	return work
}

// sweep frees every allocated, unmarked block, in both the managed heap and
// the large list, and reports what it reclaimed. A block whose canary (or,
// for a large block, magic) fails its check is logged and left in place.
//
// The candidate addresses are collected in a read-only first pass before
// any of them are freed. freeAddr coalesces a freed block with its free
// neighbors, which rewrites those neighbors' prev/next links; walking the
// address-ordered list and freeing in the same pass would let a coalesce
// triggered by an earlier block invalidate the `next` this loop was about
// to follow.
func (a *Allocator) sweep() (CollectStats, error) {
	var stats CollectStats
	var dead []uintptr

	for addr := a.heap.start; a.heap.contains(addr); {
		h := headerAt(addr)
		if h.magic != magicValue {
			a.logger.Warnf("Collect: sweep stopped at corrupted block %#x", addr)
			break
		}

		if !h.free() {
			switch {
			case h.marked():
				stats.Live++
			case !a.checkCanary(addr, h):
				a.logger.Warnf("Collect: not sweeping corrupted block %#x (canary mismatch)", addr)
			default:
				dead = append(dead, addr)
			}
		}

		if h.next == 0 {
			break
		}

		addr = h.next
	}

	for n := a.large; n != nil; n = n.next {
		h := headerAt(n.addr)
		switch {
		case h.marked():
			stats.Live++
		case h.magic != magicValue || !a.checkCanary(n.addr, h):
			a.logger.Warnf("Collect: not sweeping corrupted large block %#x", n.addr)
		default:
			dead = append(dead, n.addr)
		}
	}

	for _, addr := range dead {
		h := headerAt(addr)
		large := !a.heap.contains(addr)
		stats.Freed++
		stats.FreedBytes += int(h.userSize)
		if err := a.freeAddr(addr, large); err != nil {
			return stats, err
		}
	}

	a.logger.Infof("Collect: freed %d blocks (%d bytes), %d still live", stats.Freed, stats.FreedBytes, stats.Live)
	return stats, nil
}
