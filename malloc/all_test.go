// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package malloc

import "testing"

// newTestAllocator returns an Allocator sized for quick, deterministic
// tests: small enough that a handful of allocations exercise splitting and
// a modest LargeThreshold so large-path tests don't need huge requests.
func newTestAllocator(t *testing.T, cfg Config) *Allocator {
	t.Helper()

	if cfg.HeapSize <= 0 {
		cfg.HeapSize = 64 * 1024
	}

	if cfg.LargeThreshold <= 0 {
		cfg.LargeThreshold = 4096
	}

	a, err := Init(cfg)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	t.Cleanup(func() {
		if err := a.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	})

	return a
}

func attr(name string) Attribution { return Attribution{Name: name} }
