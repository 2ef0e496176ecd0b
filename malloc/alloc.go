// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The public allocation API: Init, Alloc, Calloc, Realloc, Free. Wraps the
// placement engine, the free-list index, split/coalesce and the large path
// behind the validation rules spec.md §4.G requires on every call taking a
// user pointer: the pointer must resolve to a managed or large block, its
// magic must match, its canary must match, and it must not already be free.

package malloc

import "unsafe"

// Config configures an Allocator at Init time. A zero Config picks the
// documented defaults, the same "zero value is useful" shape as
// cznic/exp/dbm's Options.
type Config struct {
	HeapSize       int
	ArchAlignment  int
	LargeThreshold int
	NumBins        int
	Logger         Logger
}

func (c Config) withDefaults() Config {
	if c.HeapSize <= 0 {
		c.HeapSize = 1 << 20
	}

	if c.ArchAlignment <= 0 {
		c.ArchAlignment = 8
	}

	if c.LargeThreshold <= 0 {
		c.LargeThreshold = pageSize()
	}

	if c.Logger == nil {
		c.Logger = discardLogger{}
	}

	return c
}

// Allocator is a single, independent heap: its own region, free lists,
// large list and cursor. Multiple Allocators never share state and must
// never be driven concurrently from more than one goroutine at a time
// (spec.md §5) — there is no internal locking.
type Allocator struct {
	cfg    Config
	heap   heapRegion
	bins   []uintptr
	large  *largeBlock
	cursor uintptr
	attrs  map[uintptr]Attribution
	logger Logger
}

// Init acquires a fresh heap region from the OS and returns a ready-to-use
// Allocator, the Go-idiomatic analogue of spec.md's init(allocator)
// operation (a constructor instead of an in/out handle parameter).
func Init(cfg Config) (*Allocator, error) {
	cfg = cfg.withDefaults()

	a := &Allocator{
		cfg:    cfg,
		attrs:  map[uintptr]Attribution{},
		logger: cfg.Logger,
	}

	hr, err := newHeapRegion(cfg.HeapSize)
	if err != nil {
		a.logger.Errorf("Init: %v", err)
		return nil, err
	}

	a.heap = *hr

	if cfg.NumBins <= 0 {
		min := a.minBinSize()
		n := log2(cfg.HeapSize) - log2(int(min)) + 2
		if n < 1 {
			n = 1
		}

		a.cfg.NumBins = n
	}

	a.bins = make([]uintptr, a.cfg.NumBins)

	addr := a.heap.start
	h := headerAt(addr)
	*h = blockHeader{}
	h.magic = magicValue
	h.size = uint64(len(hr.mem))
	h.setFree(true)
	a.heap.top = addr
	a.binInsert(addr)

	a.logger.Infof("Init: heap %d bytes at %#x, %d bins", cfg.HeapSize, addr, len(a.bins))
	return a, nil
}

// Close releases the managed heap region and every outstanding large
// mapping back to the OS. After Close, the Allocator must not be used.
func (a *Allocator) Close() error {
	var err error
	for n := a.large; n != nil; n = n.next {
		if e := unmapLarge(n.mem); e != nil && err == nil {
			err = e
		}
	}

	a.large = nil
	if e := a.heap.close(); e != nil && err == nil {
		err = e
	}

	return err
}

// SetLogger installs l as the Allocator's log sink. A nil l installs a
// discard logger.
func (a *Allocator) SetLogger(l Logger) {
	if l == nil {
		l = discardLogger{}
	}

	a.logger = l
}

func (a *Allocator) sliceAddr(b []byte) uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(b))) - a.dataOffset()
}

// resolve validates a user-supplied block address per spec.md §4.G: it must
// be inside the managed heap or the large list, its magic and canary must
// check out, and it must not already be free.
func (a *Allocator) resolve(op string, addr uintptr) (h *blockHeader, large bool, err error) {
	switch {
	case a.heap.contains(addr):
		h = headerAt(addr)
	default:
		if node, _ := a.findLarge(addr); node != nil {
			h, large = headerAt(addr), true
		}
	}

	if h == nil {
		a.logger.Errorf("%s: unmanaged pointer %#x", op, addr)
		return nil, false, opErr(op, addr, ErrUnmanagedPointer)
	}

	if h.magic != magicValue {
		a.logger.Errorf("%s: magic mismatch at %#x", op, addr)
		return nil, large, opErr(op, addr, ErrMagicMismatch)
	}

	if !a.checkCanary(addr, h) {
		a.logger.Errorf("%s: canary mismatch at %#x", op, addr)
		return nil, large, opErr(op, addr, ErrCanaryMismatch)
	}

	if h.free() {
		a.logger.Errorf("%s: double free at %#x", op, addr)
		return nil, large, opErr(op, addr, ErrDoubleFree)
	}

	return h, large, nil
}

// Alloc allocates size bytes using policy and returns a slice over the new
// block's payload. size must be > 0.
func (a *Allocator) Alloc(size int, attr Attribution, policy Policy) ([]byte, error) {
	if size <= 0 {
		return nil, opErr("Alloc", 0, ErrInvalidArgument)
	}

	if a.isLarge(size) {
		return a.allocLarge(size, attr)
	}

	need := a.blockSizeFor(size)
	addr := a.findFree(need, policy)
	if addr == 0 {
		a.logger.Warnf("Alloc: out of memory for %d bytes (policy %s)", size, policy)
		return nil, opErr("Alloc", 0, ErrOutOfMemory)
	}

	a.binRemove(addr)
	a.carve(addr, need)

	h := headerAt(addr)
	h.magic = magicValue
	h.userSize = uint64(size)
	h.setFree(false)
	h.setMarked(false)
	a.writeCanary(addr, h)
	a.attrs[addr] = attr

	a.logger.Debugf("Alloc: %d bytes at %#x (policy %s)", size, addr, policy)
	return a.payloadBytes(addr, h), nil
}

func mulOverflow(x, y int) (int, bool) {
	if x == 0 || y == 0 {
		return 0, false
	}

	r := x * y
	if r/x != y {
		return 0, true
	}

	return r, false
}

// Calloc allocates space for n elements of size bytes each and zeroes the
// result. n*size overflowing returns ErrInvalidArgument.
func (a *Allocator) Calloc(n, size int, attr Attribution, policy Policy) ([]byte, error) {
	if n < 0 || size < 0 {
		return nil, opErr("Calloc", 0, ErrInvalidArgument)
	}

	total, overflow := mulOverflow(n, size)
	if overflow {
		a.logger.Errorf("Calloc: %d*%d overflows", n, size)
		return nil, opErr("Calloc", 0, ErrInvalidArgument)
	}

	b, err := a.Alloc(total, attr, policy)
	if err != nil {
		return nil, err
	}

	for i := range b {
		b[i] = 0
	}

	return b, nil
}

// Free releases the block b points at. Free(nil) is a no-op success,
// matching spec.md §7's propagation policy.
func (a *Allocator) Free(b []byte) error {
	if b == nil {
		return nil
	}

	addr := a.sliceAddr(b)
	_, large, err := a.resolve("Free", addr)
	if err != nil {
		return err
	}

	return a.freeAddr(addr, large)
}

func (a *Allocator) freeAddr(addr uintptr, large bool) error {
	delete(a.attrs, addr)

	if large {
		node, prev := a.findLarge(addr)
		if node == nil {
			return opErr("Free", addr, ErrUnmanagedPointer)
		}

		return a.freeLarge(node, prev)
	}

	h := headerAt(addr)
	h.setFree(true)
	h.setMarked(false)
	merged := a.coalesce(addr)
	headerAt(merged).setFree(true)
	a.binInsert(merged)
	a.logger.Debugf("Free: %#x (merged block at %#x)", addr, merged)
	return nil
}

// Realloc resizes the block b points at to newSize bytes, per spec.md
// §4.G's realloc rules: newSize == 0 frees and returns nil; b == nil
// behaves as Alloc; a shrink (or a grow that fits by coalescing a free
// right neighbor) happens in place; otherwise a new block is allocated via
// policy, the overlapping prefix is copied, and the old block is freed.
func (a *Allocator) Realloc(b []byte, newSize int, attr Attribution, policy Policy) ([]byte, error) {
	if newSize == 0 {
		return nil, a.Free(b)
	}

	if b == nil {
		return a.Alloc(newSize, attr, policy)
	}

	addr := a.sliceAddr(b)
	h, large, err := a.resolve("Realloc", addr)
	if err != nil {
		return nil, err
	}

	oldUserSize := int(h.userSize)

	if large {
		if !a.isLarge(newSize) {
			return a.reallocMove(addr, large, newSize, attr, policy, oldUserSize)
		}

		if uintptr(newSize) <= uintptr(h.size)-a.dataOffset()-canarySize {
			h.userSize = uint64(newSize)
			a.writeCanary(addr, h)
			a.attrs[addr] = attr
			return a.payloadBytes(addr, h), nil
		}

		return a.reallocMove(addr, large, newSize, attr, policy, oldUserSize)
	}

	if a.isLarge(newSize) {
		return a.reallocMove(addr, large, newSize, attr, policy, oldUserSize)
	}

	need := a.blockSizeFor(newSize)
	cur := uintptr(h.size)

	if need <= cur {
		a.shrinkInPlace(addr, h, need)
		h = headerAt(addr)
		h.userSize = uint64(newSize)
		a.writeCanary(addr, h)
		a.attrs[addr] = attr
		return a.payloadBytes(addr, h), nil
	}

	if h.next != 0 {
		if nh := headerAt(h.next); nh.free() && cur+uintptr(nh.size) >= need {
			a.binRemove(h.next)
			h.size = uint64(cur + uintptr(nh.size))
			h.next = nh.next
			if nh.next != 0 {
				headerAt(nh.next).prev = addr
			} else {
				a.heap.top = addr
			}

			a.carve(addr, need)
			h = headerAt(addr)
			h.userSize = uint64(newSize)
			a.writeCanary(addr, h)
			a.attrs[addr] = attr
			return a.payloadBytes(addr, h), nil
		}
	}

	return a.reallocMove(addr, large, newSize, attr, policy, oldUserSize)
}

// shrinkInPlace reduces the block at addr to exactly need bytes, splitting
// and coalescing off the surplus as a free block when it is big enough to
// stand on its own.
func (a *Allocator) shrinkInPlace(addr uintptr, h *blockHeader, need uintptr) {
	cur := uintptr(h.size)
	if cur-need < a.minBlockSize() {
		return
	}

	remainder := addr + need
	rh := headerAt(remainder)
	*rh = blockHeader{}
	rh.magic = magicValue
	rh.size = uint64(cur - need)
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

	merged := a.coalesce(remainder)
	headerAt(merged).setFree(true)
	a.binInsert(merged)
}

// reallocMove allocates a new block via policy, copies the overlapping
// prefix of the old payload, and frees the old block.
func (a *Allocator) reallocMove(oldAddr uintptr, oldLarge bool, newSize int, attr Attribution, policy Policy, oldUserSize int) ([]byte, error) {
	oldData := a.payloadBytes(oldAddr, headerAt(oldAddr))
	n := minInt(oldUserSize, newSize)
	saved := make([]byte, n)
	copy(saved, oldData[:n])

	newB, err := a.Alloc(newSize, attr, policy)
	if err != nil {
		return nil, err
	}

	copy(newB, saved)

	if err := a.freeAddr(oldAddr, oldLarge); err != nil {
		a.logger.Errorf("Realloc: freeing old block %#x: %v", oldAddr, err)
		return newB, err
	}

	return newB, nil
}
