// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The large-object path: requests whose rounded total size exceeds
// Config.LargeThreshold bypass the managed heap and go straight to the OS,
// tracked in a singly linked list of {addr, size} nodes rooted on the
// Allocator, per spec.md §4.F. largeBlock is ordinary Go-heap bookkeeping
// (not cast over raw memory), so it's free to hold a []byte and a *next
// pointer safely.

package malloc

import "unsafe"

type largeBlock struct {
	addr uintptr
	mem  []byte
	next *largeBlock
}

// isLarge reports whether a request for userSize bytes should take the
// large-object path.
func (a *Allocator) isLarge(userSize int) bool {
	return a.blockSizeFor(userSize) > uintptr(a.cfg.LargeThreshold)
}

func (a *Allocator) allocLarge(userSize int, attr Attribution) ([]byte, error) {
	need := int(a.blockSizeFor(userSize))
	mem, err := mapLarge(need)
	if err != nil {
		a.logger.Errorf("allocLarge: map %d bytes: %v", need, err)
		return nil, err
	}

	addr := uintptr(unsafe.Pointer(&mem[0]))
	h := headerAt(addr)
	*h = blockHeader{}
	h.magic = magicValue
	h.size = uint64(len(mem))
	h.userSize = uint64(userSize)
	a.writeCanary(addr, h)

	node := &largeBlock{addr: addr, mem: mem, next: a.large}
	a.large = node
	a.attrs[addr] = attr
	a.logger.Debugf("allocLarge: %d bytes at %#x", userSize, addr)
	return a.payloadBytes(addr, h), nil
}

// findLarge returns the large-list node for addr and the node preceding it
// (nil if addr is the head), or (nil, nil) if addr is not a large block.
func (a *Allocator) findLarge(addr uintptr) (node, prev *largeBlock) {
	for n, p := a.large, (*largeBlock)(nil); n != nil; p, n = n, n.next {
		if n.addr == addr {
			return n, p
		}
	}

	return nil, nil
}

func (a *Allocator) freeLarge(node, prev *largeBlock) error {
	if prev == nil {
		a.large = node.next
	} else {
		prev.next = node.next
	}

	delete(a.attrs, node.addr)
	err := unmapLarge(node.mem)
	a.logger.Debugf("freeLarge: %#x", node.addr)
	return err
}
