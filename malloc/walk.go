// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Walk, a read-only traversal of every block the allocator currently
// tracks, managed and large, in address order. Grounded on the structural
// shape of cznic/exp/lldb/falloc.go's verification pass, minus its
// file-offset bookkeeping.

package malloc

// BlockInfo describes one block as seen by Walk.
type BlockInfo struct {
	Addr        uintptr
	Size        int // total block size, header and canary included
	UserSize    int
	Free        bool
	Large       bool
	Attribution Attribution
}

// Walk visits every block in the managed heap, in address order, followed
// by every large block, calling fn with each one's BlockInfo. Walk stops
// and returns early if fn returns false, or if it reaches a block whose
// magic no longer matches or whose trailing canary no longer matches
// (reported as ErrMagicMismatch/ErrCanaryMismatch naming the first bad
// address) — the same corruption a buffer overflow past a payload trips,
// per the canary's whole purpose.
func (a *Allocator) Walk(fn func(BlockInfo) bool) error {
	for addr := a.heap.start; a.heap.contains(addr); {
		h := headerAt(addr)
		if h.magic != magicValue {
			return opErr("Walk", addr, ErrMagicMismatch)
		}

		if !h.free() && !a.checkCanary(addr, h) {
			return opErr("Walk", addr, ErrCanaryMismatch)
		}

		info := BlockInfo{
			Addr:     addr,
			Size:     int(h.size),
			UserSize: int(h.userSize),
			Free:     h.free(),
		}
		if !h.free() {
			info.Attribution = a.attrs[addr]
		}

		if !fn(info) {
			return nil
		}

		if h.next == 0 {
			break
		}

		addr = h.next
	}

	for n := a.large; n != nil; n = n.next {
		h := headerAt(n.addr)
		if h.magic != magicValue {
			return opErr("Walk", n.addr, ErrMagicMismatch)
		}

		if !a.checkCanary(n.addr, h) {
			return opErr("Walk", n.addr, ErrCanaryMismatch)
		}

		info := BlockInfo{
			Addr:        n.addr,
			Size:        len(n.mem),
			UserSize:    int(h.userSize),
			Large:       true,
			Attribution: a.attrs[n.addr],
		}

		if !fn(info) {
			return nil
		}
	}

	return nil
}
