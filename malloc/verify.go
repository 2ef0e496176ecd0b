// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Stats and Verify, supplemented beyond the distilled spec but grounded
// directly on cznic/exp/lldb/falloc.go's AllocStats and Allocator.Verify —
// a read-only consistency pass plus the numbers it can cheaply gather along
// the way.

package malloc

import "fmt"

// Stats records a point-in-time summary of an Allocator's heap, optionally
// filled in by Verify.
type Stats struct {
	TotalBlocks int64
	FreeBlocks  int64
	UsedBlocks  int64
	TotalBytes  int64
	FreeBytes   int64
	UsedBytes   int64
	LargeBlocks int64
	LargeBytes  int64
}

// Verify walks the managed heap and the large list checking every
// structural invariant the allocator depends on: magic values, trailing
// canaries, address-order list linkage (prev/next agree with each other),
// and free-list membership in both directions — a free block must appear
// in exactly the bin its size maps to, and every bin entry must in turn be
// a block the address-order walk actually reached exactly once, the same
// lost/duplicated-free-block check falloc.go makes with its allocation
// bitmap. bad, if non-nil, is called with each problem found; Verify stops
// at the first bad call that returns false. If stats is non-nil it is
// filled in whenever Verify returns nil, including when bad was called and
// let the walk continue.
func (a *Allocator) Verify(bad func(error) bool, stats *Stats) error {
	if bad == nil {
		bad = func(error) bool { return false }
	}

	var st Stats
	seen := map[uintptr]bool{}

	prev := uintptr(0)
	for addr := a.heap.start; a.heap.contains(addr); {
		h := headerAt(addr)

		if h.magic != magicValue {
			if !bad(opErr("Verify", addr, ErrMagicMismatch)) {
				return opErr("Verify", addr, ErrMagicMismatch)
			}

			break
		}

		if h.prev != prev {
			err := opErr("Verify", addr, fmt.Errorf("prev link %#x, want %#x", h.prev, prev))
			if !bad(err) {
				return err
			}
		}

		if !h.free() {
			if !a.checkCanary(addr, h) {
				err := opErr("Verify", addr, ErrCanaryMismatch)
				if !bad(err) {
					return err
				}
			}
		}

		if h.free() {
			if idx := a.binIndex(uintptr(h.size)); !a.binContains(idx, addr) {
				err := opErr("Verify", addr, fmt.Errorf("free block not linked in bin %d", idx))
				if !bad(err) {
					return err
				}
			}

			st.FreeBlocks++
			st.FreeBytes += int64(h.size)
		} else {
			st.UsedBlocks++
			st.UsedBytes += int64(h.userSize)
		}

		st.TotalBlocks++
		st.TotalBytes += int64(h.size)
		seen[addr] = true

		prev = addr
		if h.next == 0 {
			break
		}

		addr = h.next
	}

	for n := a.large; n != nil; n = n.next {
		h := headerAt(n.addr)
		if h.magic != magicValue {
			err := opErr("Verify", n.addr, ErrMagicMismatch)
			if !bad(err) {
				return err
			}

			continue
		}

		if !a.checkCanary(n.addr, h) {
			err := opErr("Verify", n.addr, ErrCanaryMismatch)
			if !bad(err) {
				return err
			}
		}

		st.LargeBlocks++
		st.LargeBytes += int64(h.userSize)
	}

	if err := a.verifyBins(seen, bad); err != nil {
		return err
	}

	if stats != nil {
		*stats = st
	}

	return nil
}

// verifyBins cross-checks every free-list bin against the address-order
// walk's seen set, the mirror image of the per-block binContains check
// above: there, a free block not found in its bin is an error; here, a bin
// entry not found among the blocks the address-order walk actually visited
// is a lost or duplicated link, the same class of corruption falloc.go's
// bitmap-based lost-free-block detection catches. A bin entry already
// flagged as visited in this pass means the free list cycles back on
// itself, so that bin's walk stops there rather than looping forever.
func (a *Allocator) verifyBins(seen map[uintptr]bool, bad func(error) bool) error {
	binSeen := map[uintptr]bool{}

	for idx, head := range a.bins {
		for p := head; p != 0; p = headerAt(p).flNext {
			if binSeen[p] {
				err := opErr("Verify", p, fmt.Errorf("block linked more than once across free-list bins"))
				if !bad(err) {
					return err
				}

				break
			}

			binSeen[p] = true

			if !seen[p] {
				err := opErr("Verify", p, fmt.Errorf("free-list bin %d contains a block not reachable from the address-order walk", idx))
				if !bad(err) {
					return err
				}
			}
		}
	}

	return nil
}

// binContains reports whether addr appears in bin idx's free list.
func (a *Allocator) binContains(idx int, addr uintptr) bool {
	for p := a.bins[idx]; p != 0; p = headerAt(p).flNext {
		if p == addr {
			return true
		}
	}

	return false
}
