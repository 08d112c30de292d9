// Copyright (c) 2025 ntlockfree contributors
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package ringq provides a lock-free, multi-producer / multi-consumer
// (MPMC) ring buffer with O(1) reservation and a per-side ordered-commit
// gate, over a fixed-size, caller-constructed storage slab.
//
// # Thread-Safety Guarantees
//
// Any number of goroutines may act as producers and any number may act
// as consumers, each bound to the queue through its own [Cursor]. A
// [Cursor] must not be shared across goroutines; each participant needs
// its own.
//
// # Ordering
//
// Payloads are consumed in FIFO slot order across the queue as a whole:
// a committed write at sequence s is visible to readers only after every
// write at sequence < s has also committed, regardless of which producer
// goroutine finishes writing first. With multiple producers, the order
// payloads appear in reflects reservation order, not wall-clock
// completion order. Each committed payload is delivered to exactly one
// reader; concurrent readers each see a strict, disjoint subsequence of
// the stream, never a broadcast copy.
//
// # Blocking vs. polling
//
// BeginWrite/CommitWrite/BeginRead/CommitRead spin with a full memory
// barrier until their precondition holds — suitable for dedicated
// producer/consumer goroutines. PollBegin*/Poll*Ready/PollCommit* never
// spin: PollBegin* reserves unconditionally, Poll*Ready predicates
// readiness, and PollCommit* attempts exactly one CAS, returning false
// for the caller to retry — suitable for cooperative schedulers
// multiplexing many queues. The two halves may be freely interleaved on
// the same queue by different participants.
package ringq

import (
	"context"
	"sync/atomic"
)

// cacheLinePad separates hot, independently-written watermarks so that
// no two of them share a cache line under contention.
const cacheLinePad = 64

// Queue is a fixed-capacity MPMC ring buffer over a slab of N slots,
// where N is a power of two fixed at construction. The zero Queue is not
// usable; construct one with New.
type Queue[T any] struct {
	slab []T
	mask uint32
	cap  int32

	nextWrite atomic.Int32
	_         [cacheLinePad - 4]byte
	lastWrite atomic.Int32
	_         [cacheLinePad - 4]byte
	nextRead  atomic.Int32
	_         [cacheLinePad - 4]byte
	lastRead  atomic.Int32
	_         [cacheLinePad - 4]byte
}

// New constructs a Queue with the given capacity, which must be a power
// of two greater than or equal to 1. The slab is allocated once, here,
// and never reallocated or resized afterward — the core neither grows
// nor shrinks it.
//
// Panics if capacity is not a power of two.
func New[T any](capacity int) *Queue[T] {
	if capacity <= 0 || capacity&(capacity-1) != 0 {
		panic("ringq: capacity must be a power of two")
	}

	q := &Queue[T]{
		slab: make([]T, capacity),
		mask: uint32(capacity - 1),
		cap:  int32(capacity),
	}
	q.nextWrite.Store(-1)
	q.lastWrite.Store(-1)
	q.nextRead.Store(-1)
	q.lastRead.Store(-1)
	return q
}

// Cap returns the fixed capacity N of the queue.
func (q *Queue[T]) Cap() int32 {
	return q.cap
}

// Mask returns capacity-1, used internally (and available to callers) to
// turn a sequence number into a slot index via bitwise AND.
func (q *Queue[T]) Mask() uint32 {
	return q.mask
}

// At returns a pointer into the slab for the given slot index, as
// returned by a Begin*/PollBegin* call. The Begin*/Commit* operations
// never dereference it; writing and reading the payload is the caller's
// responsibility, bracketed by Begin/Commit (Enqueue and Dequeue do so on
// the caller's behalf).
func (q *Queue[T]) At(slot int32) *T {
	return &q.slab[uint32(slot)&q.mask]
}

// Cursor is a per-participant handle bound to one Queue, holding the
// sequence number this participant most recently reserved. A Cursor must
// be used by exactly one goroutine at a time.
type Cursor[T any] struct {
	q          *Queue[T]
	currentPos int32
}

// NewCursor returns a fresh cursor bound to q.
func NewCursor[T any](q *Queue[T]) *Cursor[T] {
	return &Cursor[T]{q: q, currentPos: -1}
}

// AvailableWrite reports the write headroom for this cursor's most
// recently reserved sequence, measured against the consumer watermark as
// it stands at the time of this call.
func (c *Cursor[T]) AvailableWrite() int32 {
	return c.q.cap + c.q.lastRead.Load() - c.currentPos + 1
}

// AvailableRead reports how many committed payloads are available from
// this cursor's most recently reserved sequence onward, measured against
// the producer watermark as it stands at the time of this call.
func (c *Cursor[T]) AvailableRead() int32 {
	return c.q.lastWrite.Load() - c.currentPos + 1
}

// BeginWrite reserves the next write sequence for this cursor, spinning
// until the target slot is no longer claimed by an uncommitted read, and
// returns the slot index to write into via Queue.At.
func (c *Cursor[T]) BeginWrite() int32 {
	s := c.q.nextWrite.Add(1)
	c.currentPos = s

	for c.q.cap+c.q.lastRead.Load()-s+1 <= 0 {
		// Producer backpressure: the consumer has not freed this slot
		// yet. Re-read last_read through the atomic load's full barrier
		// and spin.
	}

	return s & int32(c.q.mask)
}

// BeginWriteContext behaves like BeginWrite but returns ctx.Err() if ctx
// is cancelled before the slot frees up. This is cooperative cancellation
// that re-checks the same readiness condition as PollWriteReady, not a new
// suspension point: BeginWrite itself still cannot be cancelled mid-spin.
func (c *Cursor[T]) BeginWriteContext(ctx context.Context) (int32, error) {
	s := c.q.nextWrite.Add(1)
	c.currentPos = s

	for c.q.cap+c.q.lastRead.Load()-s+1 <= 0 {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		default:
		}
	}

	return s & int32(c.q.mask), nil
}

// CommitWrite publishes this cursor's most recently reserved write
// sequence, spinning until every earlier-reserved write has itself
// committed, preserving FIFO visibility for consumers even when
// producers finish writing out of order.
func (c *Cursor[T]) CommitWrite() {
	s := c.currentPos
	for !c.q.lastWrite.CompareAndSwap(s-1, s) {
	}
}

// BeginRead reserves the next read sequence for this cursor, spinning
// until the corresponding payload has been fully committed by its
// producer, and returns the slot index to read from via Queue.At.
func (c *Cursor[T]) BeginRead() int32 {
	s := c.q.nextRead.Add(1)
	c.currentPos = s

	for s > c.q.lastWrite.Load() {
		// Wait for the producer holding sequence s to commit its write.
	}

	return s & int32(c.q.mask)
}

// BeginReadContext behaves like BeginRead but returns ctx.Err() if ctx is
// cancelled before the payload becomes available.
func (c *Cursor[T]) BeginReadContext(ctx context.Context) (int32, error) {
	s := c.q.nextRead.Add(1)
	c.currentPos = s

	for s > c.q.lastWrite.Load() {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		default:
		}
	}

	return s & int32(c.q.mask), nil
}

// CommitRead publishes this cursor's most recently reserved read
// sequence, spinning until every earlier-reserved read has itself
// committed, and frees the corresponding slot for producers.
func (c *Cursor[T]) CommitRead() {
	s := c.currentPos
	for !c.q.lastRead.CompareAndSwap(s-1, s) {
	}
}

// PollBeginWrite reserves the next write sequence unconditionally,
// without waiting for the slot to free up, and returns its index. The
// caller must check PollWriteReady before writing the payload.
func (c *Cursor[T]) PollBeginWrite() int32 {
	s := c.q.nextWrite.Add(1)
	c.currentPos = s
	return s & int32(c.q.mask)
}

// PollWriteReady reports whether the slot reserved by the most recent
// PollBeginWrite is currently free to write into.
func (c *Cursor[T]) PollWriteReady() bool {
	return c.AvailableWrite() > 0
}

// PollCommitWrite attempts exactly one CAS publishing this cursor's
// reserved write sequence. It returns true iff the commit took effect;
// on false, the caller should retry later (an earlier-reserved write has
// not committed yet).
func (c *Cursor[T]) PollCommitWrite() bool {
	s := c.currentPos
	return c.q.lastWrite.CompareAndSwap(s-1, s)
}

// PollBeginRead reserves the next read sequence unconditionally, without
// waiting for the payload to be ready, and returns its slot index. The
// caller must check PollReadReady before reading the payload.
func (c *Cursor[T]) PollBeginRead() int32 {
	s := c.q.nextRead.Add(1)
	c.currentPos = s
	return s & int32(c.q.mask)
}

// PollReadReady reports whether the payload at the sequence reserved by
// the most recent PollBeginRead has been committed by its producer.
func (c *Cursor[T]) PollReadReady() bool {
	return c.AvailableRead() > 0
}

// PollCommitRead attempts exactly one CAS publishing this cursor's
// reserved read sequence. It returns true iff the commit took effect.
func (c *Cursor[T]) PollCommitRead() bool {
	s := c.currentPos
	return c.q.lastRead.CompareAndSwap(s-1, s)
}

// Enqueue is sugar over BeginWrite/Queue.At/CommitWrite for callers that
// just want to hand a value to the queue without touching slot indices
// directly. It blocks until the slot frees up.
func (c *Cursor[T]) Enqueue(v T) {
	slot := c.BeginWrite()
	*c.q.At(slot) = v
	c.CommitWrite()
}

// Dequeue is sugar over BeginRead/Queue.At/CommitRead for callers that
// just want the next value off the queue. It blocks until a payload is
// available.
func (c *Cursor[T]) Dequeue() T {
	slot := c.BeginRead()
	v := *c.q.At(slot)
	c.CommitRead()
	return v
}
