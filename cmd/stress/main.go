// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Stress drives an Allocator with random alloc/realloc/free traffic and
// periodic collections, verifying the heap's structural invariants every
// 1000 rounds and once more at the end. Grounded on dbm/crash/main.go's flag/syslog-driven crash
// loop, reduced to a single long-running process since there is no on-disk
// state here to survive a kill -9.
package main

import (
	"flag"
	"log"
	"math/rand"
	"os"
	"time"
	"unsafe"

	"github.com/cznic/memalloc/malloc"
)

var (
	oHeap     = flag.Int("heap", 4<<20, "heap size in bytes")
	oLarge    = flag.Int("large", 64<<10, "large-object threshold in bytes")
	oRounds   = flag.Int("rounds", 100000, "number of operations to perform")
	oMaxAlloc = flag.Int("max", 8192, "largest single allocation in bytes")
	oSeed     = flag.Int64("seed", 0, "PRNG seed; 0 picks one from the current time")
	oVerbose  = flag.Bool("v", false, "log every operation at debug level")
)

type live struct {
	buf  []byte
	size int
}

func policyFor(r *rand.Rand) malloc.Policy {
	switch r.Intn(3) {
	case 0:
		return malloc.FirstFit
	case 1:
		return malloc.BestFit
	default:
		return malloc.NextFit
	}
}

func main() {
	flag.Parse()

	seed := *oSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	log.SetFlags(log.Lshortfile | log.Ltime)
	log.Printf("stress: heap=%d large=%d rounds=%d seed=%d", *oHeap, *oLarge, *oRounds, seed)

	logger := malloc.NewStdLogger(os.Stderr)
	if !*oVerbose {
		logger = nil // Init defaults to a discard logger.
	}

	a, err := malloc.Init(malloc.Config{
		HeapSize:       *oHeap,
		LargeThreshold: *oLarge,
		Logger:         logger,
	})
	if err != nil {
		log.Fatalf("Init: %v", err)
	}

	defer func() {
		if err := a.Close(); err != nil {
			log.Fatalf("Close: %v", err)
		}
	}()

	r := rand.New(rand.NewSource(seed))
	blocks := map[int]*live{}
	nextID := 0

	check := func(round int) {
		var st malloc.Stats
		var bad []error
		if err := a.Verify(func(e error) bool {
			bad = append(bad, e)
			return true
		}, &st); err != nil {
			log.Fatalf("round %d: Verify: %v", round, err)
		}

		for _, e := range bad {
			log.Fatalf("round %d: Verify found: %v", round, e)
		}
	}

	for round := 0; round < *oRounds; round++ {
		switch action := r.Intn(4); {
		case action == 0 || len(blocks) == 0:
			size := 1 + r.Intn(*oMaxAlloc)
			attr := malloc.CallerAttribution("stress")
			b, err := a.Alloc(size, attr, policyFor(r))
			if err != nil {
				if !*oVerbose {
					continue // transient OOM is expected under heavy fill
				}

				log.Printf("round %d: Alloc(%d): %v", round, size, err)
				continue
			}

			for i := range b {
				b[i] = byte(round)
			}

			blocks[nextID] = &live{buf: b, size: size}
			nextID++

		case action == 1:
			id := pickKey(r, blocks)
			l := blocks[id]
			newSize := 1 + r.Intn(*oMaxAlloc)
			nb, err := a.Realloc(l.buf, newSize, malloc.CallerAttribution("stress"), policyFor(r))
			if err != nil {
				log.Printf("round %d: Realloc(%d): %v", round, newSize, err)
				continue
			}

			blocks[id] = &live{buf: nb, size: newSize}

		case action == 2:
			id := pickKey(r, blocks)
			if err := a.Free(blocks[id].buf); err != nil {
				log.Fatalf("round %d: Free: %v", round, err)
			}

			delete(blocks, id)

		default:
			ptrs := make([]uintptr, 0, len(blocks))
			for _, l := range blocks {
				if len(l.buf) == 0 {
					continue
				}

				ptrs = append(ptrs, uintptr(unsafe.Pointer(&l.buf[0])))
			}

			stats, err := a.Collect(rootsOver(ptrs))
			if err != nil {
				log.Fatalf("round %d: Collect: %v", round, err)
			}

			if *oVerbose {
				log.Printf("round %d: Collect freed=%d live=%d", round, stats.Freed, stats.Live)
			}
		}

		if round%1000 == 0 {
			check(round)
		}
	}

	check(*oRounds)
	log.Printf("stress: completed %d rounds with %d blocks still live", *oRounds, len(blocks))
}

// rootsOver returns a single Root spanning ptrs, so Collect's conservative
// word scan sees each recorded block address as a live reference.
func rootsOver(ptrs []uintptr) []malloc.Root {
	if len(ptrs) == 0 {
		return nil
	}

	start := uintptr(unsafe.Pointer(&ptrs[0]))
	end := start + uintptr(len(ptrs))*unsafe.Sizeof(uintptr(0))
	return []malloc.Root{{Start: start, End: end}}
}

func pickKey(r *rand.Rand, blocks map[int]*live) int {
	n := r.Intn(len(blocks))
	for k := range blocks {
		if n == 0 {
			return k
		}

		n--
	}

	panic("unreachable")
}
