// Copyright 2026 The Reelstore Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"github.com/reelstore/reelstore/cmd/reelstore/cli"
	"github.com/reelstore/reelstore/lib/version"
)

// env carries what every command writes to and runs under.
type env struct {
	ctx    context.Context
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// Root builds the reelstore command tree.
func Root(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer) *cli.Command {
	e := &env{ctx: ctx, stdin: stdin, stdout: stdout, stderr: stderr}
	return &cli.Command{
		Name:       "reelstore",
		HelpOutput: stderr,
		Description: `Reelstore: content-addressed video storage.

Uploads are encoded as data URLs, given a content identifier, and
recorded in a catalog document kept in a durable medium (a directory,
a SQLite database, or memory). Playback resolves a content identifier
back to the original bytes.`,
		Subcommands: []*cli.Command{
			uploadCommand(e),
			downloadCommand(e),
			listCommand(e),
			showCommand(e),
			verifyCommand(e),
			statsCommand(e),
			clearCommand(e),
			sessionCommand(e),
			backupCommand(e),
			versionCommand(e),
		},
		Examples: []cli.Example{
			{
				Description: "Upload a clip and print its content identifier",
				Command:     "reelstore upload clip.mp4 --title \"Launch day\"",
			},
			{
				Description: "Write a stored clip back to disk",
				Command:     "reelstore download baga6ea4seaq... -o clip.mp4",
			},
		},
	}
}

// withApp opens the app for one command run and closes it afterwards.
func withApp(e *env, options *globalOptions, fn func(*app) error) error {
	a, err := openApp(options, e.stderr)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func newFlagSet(name string, options *globalOptions) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet(name, pflag.ContinueOnError)
	if options != nil {
		options.register(flagSet)
	}
	return flagSet
}

func requireArgs(args []string, n int, usage string) error {
	if len(args) != n {
		return fmt.Errorf("usage: %s", usage)
	}
	return nil
}

func versionCommand(e *env) *cli.Command {
	var (
		full       bool
		outputJSON bool
	)
	return &cli.Command{
		Name:    "version",
		Summary: "Print version information",
		Flags: func() *pflag.FlagSet {
			flagSet := newFlagSet("version", nil)
			flagSet.BoolVar(&full, "full", false, "include Go version and platform")
			flagSet.BoolVar(&outputJSON, "json", false, "output as JSON")
			return flagSet
		},
		Run: func(args []string) error {
			if outputJSON {
				return cli.WriteJSON(e.stdout, version.Current())
			}
			if full {
				fmt.Fprintf(e.stdout, "reelstore %s\n", version.Full())
				return nil
			}
			fmt.Fprintf(e.stdout, "reelstore %s\n", version.Info())
			return nil
		},
	}
}
