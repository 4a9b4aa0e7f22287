// Copyright 2026 The Reelstore Authors
// SPDX-License-Identifier: Apache-2.0

// Package session manages the connection to the remote storage
// service that backs uploads.
//
// A [Session] moves from Uninitialized through Initializing to Ready
// by running the provider's handshake and authorization steps.
// Operator approval and storage-context creation follow, each run at
// most once per successful attempt. Concurrent callers of any step
// wait for the attempt already in flight and share its result; a
// failed attempt leaves the step retryable.
//
// The remote service is reached through a [Provider]. [Simulated] is
// the in-process provider used by the CLI and tests: it models the
// service's latency on a [clock.Clock] and supports failure
// injection per step.
package session
