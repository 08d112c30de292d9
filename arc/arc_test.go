// Copyright (c) 2025 ntlockfree contributors
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package arc

import (
	"sync"
	"sync/atomic"
	"testing"
)

type foo struct {
	x, y int
}

func newFoo(x, y int, destroyed *atomic.Int32) Arc[foo] {
	return New(foo{x: x, y: y}, nil, func(_ any, _ *foo) {
		destroyed.Add(1)
	})
}

// TestLifecycle mirrors spec scenario 4: new -> clone -> drop (destructor
// not called) -> second drop (destructor called exactly once).
func TestLifecycle(t *testing.T) {
	var destroyed atomic.Int32
	a := newFoo(1, 2, &destroyed)

	b := Clone(a)
	if Drop(b); destroyed.Load() != 0 {
		t.Fatalf("destructor ran early, want 0 calls, got %d", destroyed.Load())
	}
	if Drop(a); destroyed.Load() != 1 {
		t.Fatalf("want exactly 1 destructor call, got %d", destroyed.Load())
	}
}

func TestCloneDropRoundTrip(t *testing.T) {
	var destroyed atomic.Int32
	a := newFoo(1, 2, &destroyed)

	b := Clone(a)
	Drop(b)
	Drop(a)

	if destroyed.Load() != 1 {
		t.Fatalf("clone(arc); drop(copy); drop(arc) must invoke destructor exactly once, got %d", destroyed.Load())
	}
}

func TestNullHandleIsNoOp(t *testing.T) {
	var null Arc[foo]
	if !null.IsNull() {
		t.Fatal("zero value must be the null handle")
	}
	if got := Drop(null); got != 0 {
		t.Fatalf("drop of null handle must be a no-op returning 0, got %d", got)
	}
	clone := Clone(null)
	if !clone.IsNull() {
		t.Fatal("clone of null handle must return null")
	}
}

func TestIsEqual(t *testing.T) {
	var destroyed atomic.Int32
	a := newFoo(1, 2, &destroyed)
	b := Clone(a)
	c := newFoo(1, 2, &destroyed)

	if !IsEqual(a, b) {
		t.Fatal("clones must compare equal")
	}
	if IsEqual(a, c) {
		t.Fatal("distinct payloads must not compare equal even with identical values")
	}

	Drop(a)
	Drop(b)
	Drop(c)
}

// TestAtomicStoreFinalizesPrevious mirrors the boundary behavior:
// Cell.Store(null) finalizes the cell's current contents.
func TestAtomicStoreFinalizesPrevious(t *testing.T) {
	var destroyed atomic.Int32
	a := newFoo(1, 2, &destroyed)

	cell := NewCell(Arc[foo]{})
	cell.Store(a)
	Drop(a) // drop our own handle; the cell still holds one

	if destroyed.Load() != 0 {
		t.Fatalf("payload must still be alive while the cell holds it, got %d destructions", destroyed.Load())
	}

	cell.Store(Arc[foo]{})
	if destroyed.Load() != 1 {
		t.Fatalf("Store(null) must finalize the previous contents exactly once, got %d", destroyed.Load())
	}
}

// TestLoadThenDropIsNetUnchanged mirrors: atomic_load followed by drop
// leaves the cell and refcount net-unchanged.
func TestLoadThenDropIsNetUnchanged(t *testing.T) {
	var destroyed atomic.Int32
	a := newFoo(1, 2, &destroyed)
	cell := NewCell(a)

	before := cell.p.Load().refcount.Load()
	loaded := cell.Load()
	Drop(loaded)
	after := cell.p.Load().refcount.Load()

	if before != after {
		t.Fatalf("load+drop must be net-unchanged: before=%d after=%d", before, after)
	}

	cell.Store(Arc[foo]{})
	if destroyed.Load() != 1 {
		t.Fatal("expected final cleanup to finalize the payload exactly once")
	}
}

// TestStoreThenLoadObservesNewControl mirrors: atomic_store(cell, new);
// atomic_load(cell) -> observed yields a handle whose control pointer
// equals new.control.
func TestStoreThenLoadObservesNewControl(t *testing.T) {
	var destroyed atomic.Int32
	a := newFoo(1, 2, &destroyed)
	b := newFoo(3, 4, &destroyed)
	cell := NewCell(a)

	cell.Store(b)
	observed := cell.Load()

	if !IsEqual(observed, b) {
		t.Fatal("expected observed handle's control block to equal the stored handle's")
	}

	Drop(b)
	Drop(observed)
	cell.Store(Arc[foo]{})

	if destroyed.Load() != 2 {
		t.Fatalf("expected both payloads eventually destroyed exactly once each, got %d", destroyed.Load())
	}
}

// TestConcurrentSwap mirrors spec scenario 5: thread A repeatedly
// Cell.Store()s while thread B repeatedly Cell.Load()s; every load must
// return a live, non-nil-control handle and refcount accounting must
// balance out at the end.
func TestConcurrentSwap(t *testing.T) {
	var destroyed atomic.Int32
	cell := NewCell(newFoo(0, 0, &destroyed))

	const rounds = 2000
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 1; i <= rounds; i++ {
			a := newFoo(i, i+1, &destroyed)
			cell.Store(a)
			Drop(a) // the cell holds its own clone
		}
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			loaded := cell.Load()
			if loaded.IsNull() {
				t.Error("load observed the null handle unexpectedly")
				return
			}
			Drop(loaded)
		}
	}()

	wg.Wait()
	cell.Store(Arc[foo]{})

	if destroyed.Load() != rounds+1 {
		t.Fatalf("expected %d destructions (initial + each stored round), got %d", rounds+1, destroyed.Load())
	}
}

// TestContention mirrors spec scenario 6: many goroutines repeatedly
// Load then Drop against a cell that is periodically Stored with a fresh
// payload; at the end, storing null must yield exactly one destructor
// call per payload ever installed.
func TestContention(t *testing.T) {
	var destroyed atomic.Int32
	var installed atomic.Int32

	cell := NewCell(newFoo(0, 0, &destroyed))
	installed.Add(1)

	const workers = 8
	const iterations = 10000

	var wg sync.WaitGroup
	wg.Add(workers + 1)

	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			a := newFoo(i, i, &destroyed)
			cell.Store(a)
			Drop(a) // the cell holds its own clone
			installed.Add(1)
		}
	}()

	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				loaded := cell.Load()
				Drop(loaded)
			}
		}()
	}

	wg.Wait()

	cell.Store(Arc[foo]{})

	if destroyed.Load() != installed.Load() {
		t.Fatalf("expected exactly one destructor call per installed payload: installed=%d destroyed=%d",
			installed.Load(), destroyed.Load())
	}
}
