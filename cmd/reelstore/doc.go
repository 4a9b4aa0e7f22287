// Copyright 2026 The Reelstore Authors
// SPDX-License-Identifier: Apache-2.0

// Reelstore stores videos by content identifier.
//
// Usage:
//
//	reelstore upload FILE --title TITLE [flags]
//	reelstore download CONTENT_ID [-o FILE]
//	reelstore list | show | verify | stats | clear --yes
//	reelstore session status | balance | deposit AMOUNT
//	reelstore backup list | show FILE
//
// Configuration is read from --config, then $REELSTORE_CONFIG, then
// built-in defaults.
package main
