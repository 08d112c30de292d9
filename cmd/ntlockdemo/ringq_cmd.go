// Copyright (c) 2025 ntlockfree contributors
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package main

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ntlockfree/ntlockfree/internal/config"
	"github.com/ntlockfree/ntlockfree/internal/telemetry"
	"github.com/ntlockfree/ntlockfree/ringq"
)

// demoFoo is the Go translation of the original C demo's FOO{int x, int
// y} payload struct, plus a producer tag so the MPSC scenario (spec.md
// §8 scenario 3) has a visible producer identity.
type demoFoo struct {
	producer string
	x, y     int
}

func newRingQCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ringq",
		Short: "run a producer/consumer demo over a ringq.Queue",
		RunE:  runRingQDemo,
	}

	fs := cmd.Flags()
	fs.Int("producers", 1, "number of producer goroutines")
	fs.Int("consumers", 1, "number of consumer goroutines")
	fs.Int("items-each", 8, "items each producer writes per burst")
	fs.Int("bursts", 1, "number of bursts per producer")
	fs.Int("capacity", 8, "queue capacity, must be a power of two")
	fs.Duration("sleep", 0, "sleep between bursts")
	fs.String("log-level", "info", "log level: debug, info, warn, error")

	return cmd
}

func runRingQDemo(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}

	log, err := telemetry.New(&telemetry.Conf{Level: cfg.LogLevel})
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	q := ringq.New[demoFoo](cfg.Capacity)
	total := cfg.Producers * cfg.ItemsEach * cfg.Bursts
	var consumed atomic.Int64

	var producers sync.WaitGroup
	producers.Add(cfg.Producers)
	for p := 0; p < cfg.Producers; p++ {
		tag := uuid.NewString()[:8]
		go func(tag string) {
			defer producers.Done()
			wc := ringq.NewCursor(q)
			lastX := 1
			for b := 0; b < cfg.Bursts; b++ {
				for i := 0; i < cfg.ItemsEach; i++ {
					wc.Enqueue(demoFoo{producer: tag, x: lastX, y: lastX + 1})
					lastX++
				}
				log.Infow("producer burst complete", "producer", tag, "last_x", lastX)
				if cfg.Sleep > 0 {
					time.Sleep(cfg.Sleep)
				}
			}
		}(tag)
	}

	// claimed reserves the right to issue one more Dequeue before calling
	// it, so that exactly `total` Dequeue calls are ever made across all
	// consumers — checking consumed after the fact would race multiple
	// idle consumers into an extra blocking Dequeue past the last item.
	var claimed atomic.Int64

	var consumers sync.WaitGroup
	consumers.Add(cfg.Consumers)
	for c := 0; c < cfg.Consumers; c++ {
		go func(id int) {
			defer consumers.Done()
			rc := ringq.NewCursor(q)
			for {
				if claimed.Add(1) > int64(total) {
					return
				}
				v := rc.Dequeue()
				n := consumed.Add(1)
				log.Debugw("received", "consumer", id, "producer", v.producer, "x", v.x, "y", v.y, "total_so_far", n)
			}
		}(c)
	}

	producers.Wait()
	consumers.Wait()

	log.Infow("ringq demo complete", "total_items", total)
	return nil
}
