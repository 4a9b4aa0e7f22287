// Copyright 2026 The Reelstore Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"path/filepath"
	"text/tabwriter"
	"time"

	"filippo.io/age"
	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"

	"github.com/reelstore/reelstore/cmd/reelstore/cli"
	"github.com/reelstore/reelstore/lib/backup"
	"github.com/reelstore/reelstore/lib/codec"
	"github.com/reelstore/reelstore/lib/config"
)

func backupCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:    "backup",
		Summary: "Inspect catalog snapshots taken before clears",
		Subcommands: []*cli.Command{
			backupListCommand(e),
			backupShowCommand(e),
		},
	}
}

func backupListCommand(e *env) *cli.Command {
	var (
		configPath string
		outputJSON bool
	)
	return &cli.Command{
		Name:    "list",
		Summary: "List snapshots in paths.backups",
		Flags: func() *pflag.FlagSet {
			flagSet := newFlagSet("list", nil)
			flagSet.StringVar(&configPath, "config", "", "config file (default: $"+config.EnvironmentVariable+", then built-in defaults)")
			flagSet.BoolVar(&outputJSON, "json", false, "output as JSON")
			return flagSet
		},
		Run: func(args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			files, err := backup.List(cfg.Paths.Backups, nil)
			if err != nil {
				return err
			}

			type fileView struct {
				Path        string `json:"path"`
				Compression string `json:"compression"`
				Encrypted   bool   `json:"encrypted"`
				Size        uint64 `json:"size"`
				StoredBytes int64  `json:"storedBytes"`
			}
			views := make([]fileView, len(files))
			for i, file := range files {
				views[i] = fileView{
					Path:        file.Path,
					Compression: file.Info.Compression.String(),
					Encrypted:   file.Info.Encrypted,
					Size:        file.Info.Size,
					StoredBytes: file.Info.StoredBytes,
				}
			}
			if outputJSON {
				return cli.WriteJSON(e.stdout, views)
			}
			if len(views) == 0 {
				fmt.Fprintf(e.stdout, "no snapshots in %s\n", cfg.Paths.Backups)
				return nil
			}
			tw := tabwriter.NewWriter(e.stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintln(tw, "FILE\tCOMPRESSION\tENCRYPTED\tSIZE\tSTORED")
			for _, view := range views {
				fmt.Fprintf(tw, "%s\t%s\t%t\t%s\t%s\n",
					filepath.Base(view.Path), view.Compression, view.Encrypted,
					humanize.Bytes(view.Size), humanize.Bytes(uint64(view.StoredBytes)))
			}
			return tw.Flush()
		},
	}
}

func backupShowCommand(e *env) *cli.Command {
	var (
		identityFile string
		diagnose     bool
		outputJSON   bool
	)
	return &cli.Command{
		Name:    "show",
		Summary: "Print a snapshot's records",
		Description: `Open a snapshot and print its records.

Encrypted snapshots need --identity, an age identity file. With
--diagnose the CBOR body is printed in diagnostic notation, with long
strings elided.`,
		Usage: "reelstore backup show FILE [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := newFlagSet("show", nil)
			flagSet.StringVarP(&identityFile, "identity", "i", "", "age identity file")
			flagSet.BoolVar(&diagnose, "diagnose", false, "print CBOR diagnostic notation")
			flagSet.BoolVar(&outputJSON, "json", false, "output as JSON")
			return flagSet
		},
		Run: func(args []string) error {
			if err := requireArgs(args, 1, "reelstore backup show FILE"); err != nil {
				return err
			}
			var identities []age.Identity
			if identityFile != "" {
				parsed, err := backup.ReadIdentities(identityFile)
				if err != nil {
					return err
				}
				identities = parsed
			}

			archive, err := backup.Open(args[0], identities...)
			if err != nil {
				return err
			}
			if diagnose {
				notation, err := codec.Diagnose(archive.Body, 64)
				if err != nil {
					return err
				}
				fmt.Fprintln(e.stdout, notation)
				return nil
			}

			snapshot, err := archive.Snapshot()
			if err != nil {
				return err
			}
			views := make([]recordView, len(snapshot.Records))
			for i, record := range snapshot.Records {
				views[i] = viewOf(record)
			}
			verbatim := make([]string, len(snapshot.Verbatim))
			for i, element := range snapshot.Verbatim {
				verbatim[i] = string(element)
			}
			if outputJSON {
				return cli.WriteJSON(e.stdout, struct {
					CreatedAt time.Time    `json:"createdAt"`
					Key       string       `json:"key"`
					Records   []recordView `json:"records"`
					Verbatim  []string     `json:"verbatim"`
				}{snapshot.CreatedAt, snapshot.Key, views, verbatim})
			}

			fmt.Fprintf(e.stdout, "Key:     %s\n", snapshot.Key)
			fmt.Fprintf(e.stdout, "Created: %s\n", snapshot.CreatedAt.Format(time.RFC3339))
			fmt.Fprintf(e.stdout, "Records: %d\n", len(views))
			for _, view := range views {
				fmt.Fprintf(e.stdout, "  %s  %s\n", view.ContentID, view.Title)
			}
			if len(verbatim) > 0 {
				fmt.Fprintf(e.stdout, "Verbatim elements: %d\n", len(verbatim))
				for _, element := range verbatim {
					fmt.Fprintf(e.stdout, "  %s\n", element)
				}
			}
			return nil
		},
	}
}
