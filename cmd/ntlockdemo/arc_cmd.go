// Copyright (c) 2025 ntlockfree contributors
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package main

import (
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/ntlockfree/ntlockfree/arc"
	"github.com/ntlockfree/ntlockfree/internal/telemetry"
)

// demoPayload is the Go translation of the original C demo's FOO{int x,
// int y} payload, shared via a global arc.Cell the way g_foo was shared
// via NTARC in the original example/main.c.
type demoPayload struct {
	x, y int
}

func newArcCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "arc",
		Short: "run a store/load demo over a shared arc.Cell",
		RunE:  runArcDemo,
	}
	cmd.Flags().Int("rounds", 5, "number of store rounds thread1 performs")
	cmd.Flags().Duration("interval", 10*time.Millisecond, "delay between thread1's stores")
	cmd.Flags().String("log-level", "info", "log level: debug, info, warn, error")
	return cmd
}

func runArcDemo(cmd *cobra.Command, _ []string) error {
	rounds, err := cmd.Flags().GetInt("rounds")
	if err != nil {
		return err
	}
	interval, err := cmd.Flags().GetDuration("interval")
	if err != nil {
		return err
	}
	level, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return err
	}

	log, err := telemetry.New(&telemetry.Conf{Level: level})
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	cell := arc.NewCell(arc.Arc[demoPayload]{})

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(2)

	// Translation of the original's foo_thread1: repeatedly construct a
	// fresh Foo and atomic_store it into the shared cell.
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			payload := arc.New(demoPayload{x: i, y: i + 1}, nil, func(_ any, p *demoPayload) {
				log.Debugw("destroyed payload", "x", p.x, "y", p.y)
			})
			cell.Store(payload)
			log.Infow("stored", "x", i, "y", i+1)
			arc.Drop(payload)
			time.Sleep(interval)
		}
		close(done)
	}()

	// Translation of the original's foo_thread2: repeatedly atomic_load
	// the shared cell and observe whatever is currently there.
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
			}
			loaded := cell.Load()
			if !loaded.IsNull() {
				p := loaded.Data()
				log.Debugw("loaded", "x", p.x, "y", p.y)
			}
			arc.Drop(loaded)
			time.Sleep(interval / 2)
		}
	}()

	wg.Wait()

	// As in the original main()'s final ntarc_atomic_store(&g_foo,
	// &null_foo), reset to null so the last stored payload is finalized.
	cell.Store(arc.Arc[demoPayload]{})
	log.Infow("arc demo complete")
	return nil
}
