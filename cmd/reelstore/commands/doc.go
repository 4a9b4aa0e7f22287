// Copyright 2026 The Reelstore Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the reelstore command tree.
//
// Every command that touches the catalog opens an app from the
// configuration: the catalog medium and store, a simulated storage
// session, the creator identity, the backup writer and the media
// service over all of them. The app lives for one command.
package commands
