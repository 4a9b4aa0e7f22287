// Copyright 2026 The Reelstore Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/reelstore/reelstore/cmd/reelstore/cli"
	"github.com/reelstore/reelstore/lib/session"
)

func sessionCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:    "session",
		Summary: "Inspect the storage session and account",
		Description: `Inspect the storage session and the account behind it.

Each invocation runs against a fresh simulated provider, so deposits
last for the one command.`,
		Subcommands: []*cli.Command{
			sessionStatusCommand(e),
			sessionBalanceCommand(e),
			sessionDepositCommand(e),
		},
	}
}

func sessionStatusCommand(e *env) *cli.Command {
	var (
		options    globalOptions
		connect    bool
		outputJSON bool
	)
	return &cli.Command{
		Name:    "status",
		Summary: "Print the session state",
		Flags: func() *pflag.FlagSet {
			flagSet := newFlagSet("status", &options)
			flagSet.BoolVar(&connect, "connect", false, "bring the session and storage context up first")
			flagSet.BoolVar(&outputJSON, "json", false, "output as JSON")
			return flagSet
		},
		Run: func(args []string) error {
			return withApp(e, &options, func(a *app) error {
				if connect {
					if err := a.session.ApproveOperators(e.ctx); err != nil {
						return err
					}
					if _, err := a.session.Storage(e.ctx); err != nil {
						return err
					}
				}
				status := a.session.Status()
				if outputJSON {
					return cli.WriteJSON(e.stdout, status)
				}
				fmt.Fprintf(e.stdout, "State:    %s\n", status.State)
				fmt.Fprintf(e.stdout, "Approved: %t\n", status.Approved)
				if storage := status.Storage; storage != nil {
					fmt.Fprintf(e.stdout, "Provider: %s\n", storage.ProviderID)
					fmt.Fprintf(e.stdout, "Service:  %s\n", storage.ServiceURL)
					fmt.Fprintf(e.stdout, "Proof set: %s\n", storage.ProofSetID)
				}
				return nil
			})
		},
	}
}

type balanceView struct {
	Amount string                `json:"amount"`
	Source session.BalanceSource `json:"source"`
	Error  string                `json:"error,omitempty"`
}

func printBalance(e *env, reading session.BalanceReading, outputJSON bool) error {
	view := balanceView{Amount: reading.Amount, Source: reading.Source}
	if reading.Err != nil {
		view.Error = reading.Err.Error()
	}
	if outputJSON {
		return cli.WriteJSON(e.stdout, view)
	}
	if reading.Source == session.BalanceFallback {
		fmt.Fprintf(e.stdout, "%s (unavailable: %v)\n", view.Amount, reading.Err)
		return nil
	}
	fmt.Fprintln(e.stdout, view.Amount)
	return nil
}

func sessionBalanceCommand(e *env) *cli.Command {
	var (
		options    globalOptions
		outputJSON bool
	)
	return &cli.Command{
		Name:    "balance",
		Summary: "Print the account balance",
		Flags: func() *pflag.FlagSet {
			flagSet := newFlagSet("balance", &options)
			flagSet.BoolVar(&outputJSON, "json", false, "output as JSON")
			return flagSet
		},
		Run: func(args []string) error {
			return withApp(e, &options, func(a *app) error {
				return printBalance(e, a.session.Balance(e.ctx), outputJSON)
			})
		},
	}
}

func sessionDepositCommand(e *env) *cli.Command {
	var (
		options    globalOptions
		outputJSON bool
	)
	return &cli.Command{
		Name:    "deposit",
		Summary: "Deposit a positive decimal amount and print the new balance",
		Usage:   "reelstore session deposit AMOUNT [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := newFlagSet("deposit", &options)
			flagSet.BoolVar(&outputJSON, "json", false, "output as JSON")
			return flagSet
		},
		Run: func(args []string) error {
			if err := requireArgs(args, 1, "reelstore session deposit AMOUNT"); err != nil {
				return err
			}
			if err := session.ValidateDepositAmount(args[0]); err != nil {
				return err
			}
			return withApp(e, &options, func(a *app) error {
				if err := a.session.Deposit(e.ctx, args[0]); err != nil {
					return err
				}
				return printBalance(e, a.session.Balance(e.ctx), outputJSON)
			})
		},
	}
}
