// Copyright 2026 The Reelstore Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"context"
	"errors"
	"testing"
	"time"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFakeNowAndAdvance(t *testing.T) {
	clock := Fake(epoch)
	if got := clock.Now(); !got.Equal(epoch) {
		t.Fatalf("Now() = %v, want %v", got, epoch)
	}
	clock.Advance(5 * time.Second)
	if got := clock.Now(); !got.Equal(epoch.Add(5 * time.Second)) {
		t.Fatalf("Now() after Advance = %v", got)
	}
}

func TestFakeAfterFiresOnAdvance(t *testing.T) {
	clock := Fake(epoch)
	channel := clock.After(3 * time.Second)

	clock.Advance(2 * time.Second)
	select {
	case <-channel:
		t.Fatal("After fired before its deadline")
	default:
	}

	clock.Advance(time.Second)
	select {
	case fired := <-channel:
		if !fired.Equal(epoch.Add(3 * time.Second)) {
			t.Errorf("fired at %v", fired)
		}
	default:
		t.Fatal("After did not fire at its deadline")
	}
	if clock.Waiters() != 0 {
		t.Errorf("Waiters() = %d after firing", clock.Waiters())
	}
}

func TestFakeAfterZero(t *testing.T) {
	select {
	case <-Fake(epoch).After(0):
	default:
		t.Fatal("After(0) should be ready immediately")
	}
}

func TestFakeSetBackwardsFiresNothing(t *testing.T) {
	clock := Fake(epoch)
	channel := clock.After(time.Minute)
	clock.Set(epoch.Add(-time.Hour))
	select {
	case <-channel:
		t.Fatal("waiter fired when time moved backwards")
	default:
	}
	clock.Set(epoch.Add(time.Minute))
	<-channel
}

func TestWaitWithFakeClock(t *testing.T) {
	clock := Fake(epoch)
	done := make(chan error, 1)
	go func() {
		done <- Wait(context.Background(), clock, time.Second)
	}()

	clock.WaitForWaiters(1)
	clock.Advance(time.Second)
	if err := <-done; err != nil {
		t.Fatalf("Wait = %v", err)
	}
}

func TestWaitCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Wait(ctx, Fake(epoch), time.Hour)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Wait = %v, want context.Canceled", err)
	}
}

func TestRealClockAfter(t *testing.T) {
	clock := Real()
	start := clock.Now()
	<-clock.After(time.Millisecond)
	if clock.Now().Before(start) {
		t.Error("real clock went backwards")
	}
}
