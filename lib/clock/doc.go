// Copyright 2026 The Reelstore Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides the injectable time source used across
// reelstore.
//
// Library code never calls time.Now or time.After directly. It holds
// a [Clock] and production wiring passes [Real]. Tests pass [Fake],
// whose time only moves when the test calls Advance or Set, so record
// timestamps and simulated collaborator latency are deterministic.
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	go provider.Handshake(ctx) // waits on c.After(latency)
//	c.WaitForWaiters(1)
//	c.Advance(latency)
package clock
