// Copyright (c) 2025 ntlockfree contributors
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package arc provides a lock-free atomic reference-counted shared
// pointer: a handle that can be cloned, dropped, and atomically loaded
// from or stored into a shared cell, without ever taking a lock.
//
// # Design
//
// The original C design ([ntarc.h]) represents a handle as a two-word
// (control, data) pair exchanged via a double-word compare-and-swap,
// guarded by a reserved sentinel value that briefly locks the shared
// cell during atomic_load/atomic_store. Go has no portable 128-bit CAS
// and has a tracing garbage collector, which is exactly the redesign the
// original's own design notes anticipate for such architectures: instead
// of swapping a raw (control, data) pair, [Arc] is a single pointer to an
// immutable control block, and the shared [Cell] swaps that one pointer
// atomically via [sync/atomic.Pointer]. The GC keeps any control block a
// goroutine still holds a pointer to alive regardless of its refcount,
// which removes the need for the sentinel's locking window entirely —
// see [Cell.Load] for the increment-if-alive loop this enables.
//
// [ntarc.h]: https://github.com/sadhbh-c0d3/lock-free
package arc

import "sync/atomic"

// controlBlock is the per-payload structure holding the atomic refcount
// and destructor linkage. It is immutable after New except for refcount,
// and is never mutated once its last handle drops — it simply becomes
// unreachable and the GC reclaims it.
type controlBlock[T any] struct {
	refcount atomic.Int32
	data     T
	destroy  func(ctx any, data *T)
	ctx      any
}

// Arc is a handle representing one share of ownership over a payload of
// type T. The zero Arc is the null handle: Clone and Drop on it are
// no-ops, matching spec.md's null-handle convention (control=0, data=0).
type Arc[T any] struct {
	block *controlBlock[T]
}

// New initializes a control block with refcount 1 around data and
// returns the first handle to it. destroyFn is invoked exactly once,
// with ctx and a pointer to data, when the last handle is dropped.
func New[T any](data T, ctx any, destroyFn func(ctx any, data *T)) Arc[T] {
	cb := &controlBlock[T]{data: data, destroy: destroyFn, ctx: ctx}
	cb.refcount.Store(1)
	return Arc[T]{block: cb}
}

// IsNull reports whether a is the null handle.
func (a Arc[T]) IsNull() bool {
	return a.block == nil
}

// Data returns a pointer to the payload. Valid for the full lifetime of
// the last handle to it; calling this on the null handle returns nil.
func (a Arc[T]) Data() *T {
	if a.block == nil {
		return nil
	}
	return &a.block.data
}

// Clone increments the refcount and returns a new handle sharing
// ownership of the same payload. Cloning the null handle is a no-op that
// returns another null handle.
func Clone[T any](a Arc[T]) Arc[T] {
	if a.block == nil {
		return Arc[T]{}
	}
	a.block.refcount.Add(1)
	return Arc[T]{block: a.block}
}

// Drop decrements the refcount and returns the pre-decrement count. If
// the pre-decrement count was 1 — i.e. this was the last live handle —
// Drop invokes destroyFn(ctx, data) before returning. Dropping the null
// handle is a no-op that returns 0.
func Drop[T any](a Arc[T]) int32 {
	if a.block == nil {
		return 0
	}
	post := a.block.refcount.Add(-1)
	preCount := post + 1
	if preCount == 1 {
		a.block.destroy(a.block.ctx, &a.block.data)
	}
	return preCount
}

// IsEqual reports whether a and b refer to the same control block, i.e.
// the same underlying payload.
func IsEqual[T any](a, b Arc[T]) bool {
	return a.block == b.block
}

// Cell is a shared atomic cell holding one Arc, safely shared by any
// number of goroutines. Each Arc obtained from Load is owned exclusively
// by its receiver and must eventually be Dropped.
type Cell[T any] struct {
	p atomic.Pointer[controlBlock[T]]
}

// NewCell returns a Cell initialized to hold init. Ownership of init
// passes to the cell; the caller should not use init again after this
// call except through the Cell.
func NewCell[T any](init Arc[T]) *Cell[T] {
	c := &Cell[T]{}
	c.p.Store(init.block)
	return c
}

// Load returns an owned clone of whatever handle is currently stored in
// the cell — net effect: one refcount increment, cell contents
// unchanged. This is the Go generalization of the original's
// atomic_begin/clone/atomic_commit critical section: instead of locking
// the cell behind a sentinel, Load spins an increment-if-alive CAS on
// the observed control block's refcount, retrying against a fresh read
// of the cell if the refcount was observed at exactly zero (meaning a
// concurrent Store's finalization raced it — by the time that happens,
// the cell itself has already moved on to a new block, per Store's
// swap-before-decrement ordering, so the retry is guaranteed to make
// progress).
func (c *Cell[T]) Load() Arc[T] {
	for {
		block := c.p.Load()
		if block == nil {
			return Arc[T]{}
		}

		n := block.refcount.Load()
		if n <= 0 {
			// A concurrent Store has already swapped this block out and
			// is in the middle of finalizing it; re-read the cell.
			continue
		}
		if block.refcount.CompareAndSwap(n, n+1) {
			return Arc[T]{block: block}
		}
	}
}

// Store replaces the cell's contents with an owned clone of src, then
// drops the cell's previous contents. The swap happens before the
// decrement: no concurrent Load can ever observe a cell entry whose
// refcount has already reached zero, which resolves the original
// design's open question about publish-then-drop visibility ordering in
// the strictest available direction.
func (c *Cell[T]) Store(src Arc[T]) {
	cloned := Clone(src)
	old := c.p.Swap(cloned.block)
	if old == nil {
		return
	}

	post := old.refcount.Add(-1)
	preCount := post + 1
	if preCount == 1 {
		old.destroy(old.ctx, &old.data)
	}
}
