// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*

Package malloc implements a user-space dynamic memory allocator: a single
contiguous heap region obtained once from the OS, carved and reassembled on
demand by Alloc/Calloc/Realloc/Free, plus an optional conservative
mark-and-sweep collector that can reclaim blocks no live root still points
at.

Heap region

An Allocator owns exactly one heap region, a byte slice mapped directly
from the OS via mmap at Init and never grown. Every address handed back by
Alloc et al. falls inside this region, except for large blocks (see
below), each of which gets its own OS mapping.

Blocks

The region is a linear, contiguous sequence of blocks. Each block begins
with a fixed-size header followed by its (aligned) payload and a trailing
four-byte canary:

 +--------+-----------------...-----------------+---------+
 | header |               payload                | canary  |
 +--------+-----------------...-----------------+---------+

The header carries a magic number (corruption detection), the block's
total size and the caller's requested size, a free/marked flag word, and
two pairs of intrusive links: prev/next thread every block in the region,
free or allocated, in address order; flPrev/flNext thread a block through
whichever free-list bin it currently occupies, meaningful only while the
block is free.

The header is plain old data. It is cast in place over raw, GC-invisible
memory via unsafe.Pointer, so it MUST NOT ever hold a Go pointer, string,
slice, interface or map — anything that would need the garbage collector's
cooperation to stay valid. Per-block debug attribution (a human-readable
name plus the call site that requested it) is therefore kept out of band,
in an ordinary Go map on the Allocator keyed by block address.

Free-list bins

Free blocks are indexed by a segregated free list: an array of bins, one
per power-of-two size class, each bin a doubly linked list of free blocks
threaded through flPrev/flNext. A request for N bytes searches its own
size class and every larger one, never a smaller class; each candidate's
size is still checked, since a block in the request's own class can be
smaller than N.

Placement policies

Alloc, Calloc and Realloc all take an explicit Policy: FirstFit picks the
lowest-addressed qualifying free block, BestFit the smallest (lowest
address breaking ties), NextFit the lowest qualifying block above an
internal cursor, wrapping around when none qualifies above it. A block
larger than requested is split, the surplus becoming a new free block, as
long as the surplus is itself big enough to stand on its own; adjacent
free blocks are coalesced back together the moment either one is freed.

Large blocks

A request whose total block size would exceed Config.LargeThreshold
bypasses the managed region entirely: it gets its own OS mapping, tracked
in a singly linked list of ordinary Go structs (not cast over raw memory,
so these are free to hold a []byte directly). Freeing a large block
unmaps it immediately; it is never split, coalesced or binned.

Collection

Collect treats a caller-supplied list of memory ranges as conservative
roots: every aligned word in range that looks like it could be the
address of, or an address inside of, a live block is treated as a genuine
reference, and the block is kept. Reachability is then traced
transitively through the payload of every block so kept, using an
explicit worklist rather than recursion. Anything left unmarked at the end
is swept: freed through the same path as an explicit Free call, so it
coalesces and rejoins its free-list bin exactly as if the caller had freed
it directly.

*/
package malloc
