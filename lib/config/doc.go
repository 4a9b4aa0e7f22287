// Copyright 2026 The Reelstore Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads reelstore configuration.
//
// Configuration comes from a single file named by the
// REELSTORE_CONFIG environment variable (via [Load]) or a --config
// flag (via [LoadFile]). Nothing else is searched and no other
// environment variable overrides a setting. Files ending in .json or
// .jsonc are read as JSON with comments and trailing commas; anything
// else is YAML. Both use the same field names.
//
// The file may carry development, staging and production sections
// that override base values when [Config].Environment matches.
// Production without its own section keeps backups mandatory and
// moves the catalog into SQLite.
//
// After loading, ${HOME}, ${REELSTORE_ROOT} and ${VAR:-default}
// patterns in path fields are expanded.
//
// This package depends on no other reelstore package.
package config
