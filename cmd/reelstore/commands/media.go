// Copyright 2026 The Reelstore Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"

	"github.com/reelstore/reelstore/cmd/reelstore/cli"
	"github.com/reelstore/reelstore/lib/catalog"
	"github.com/reelstore/reelstore/lib/media"
)

// recordView is a catalog record without its payload.
type recordView struct {
	ID            string    `json:"id"`
	ContentID     string    `json:"contentId"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	CreatorID     string    `json:"creatorId"`
	CreatedAt     time.Time `json:"createdAt"`
	AdsEnabled    bool      `json:"adsEnabled"`
	AdRate        string    `json:"adRate"`
	ThumbnailRef  string    `json:"thumbnailRef,omitempty"`
	MediaType     string    `json:"mediaType,omitempty"`
	Size          int64     `json:"size"`
	PayloadDigest string    `json:"payloadDigest,omitempty"`
}

func viewOf(record catalog.MediaRecord) recordView {
	return recordView{
		ID:            record.ID,
		ContentID:     record.ContentID,
		Title:         record.Title,
		Description:   record.Description,
		CreatorID:     record.CreatorID,
		CreatedAt:     record.CreatedAt,
		AdsEnabled:    record.AdsEnabled,
		AdRate:        record.AdRate,
		ThumbnailRef:  record.ThumbnailRef,
		MediaType:     record.MediaType,
		Size:          record.Size,
		PayloadDigest: record.PayloadDigest,
	}
}

func uploadCommand(e *env) *cli.Command {
	var (
		options    globalOptions
		metadata   media.Metadata
		outputJSON bool
	)
	return &cli.Command{
		Name:    "upload",
		Summary: "Store a video and print its content identifier",
		Description: `Store a video file in the catalog.

The storage session is brought up (handshake, authorization, operator
approval, storage context) before the payload is encoded. The media
type is sniffed from the file unless --type is given, and must match
upload.allowed_types. Pass "-" to read the payload from stdin.`,
		Usage: "reelstore upload FILE --title TITLE [flags]",
		Examples: []cli.Example{
			{
				Description: "Upload with ads enabled",
				Command:     "reelstore upload clip.mp4 --title Demo --ads --ad-rate 0.002",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := newFlagSet("upload", &options)
			flagSet.StringVar(&metadata.Title, "title", "", "video title (required)")
			flagSet.StringVar(&metadata.Description, "description", "", "video description")
			flagSet.BoolVar(&metadata.AdsEnabled, "ads", false, "enable ads on this video")
			flagSet.StringVar(&metadata.AdRate, "ad-rate", "", "ad rate per view, a decimal number")
			flagSet.StringVar(&metadata.ThumbnailRef, "thumbnail", "", "thumbnail reference")
			flagSet.StringVar(&metadata.MediaType, "type", "", "media type (default: sniffed from the file)")
			flagSet.BoolVar(&outputJSON, "json", false, "output as JSON")
			return flagSet
		},
		Run: func(args []string) error {
			if err := requireArgs(args, 1, "reelstore upload FILE --title TITLE"); err != nil {
				return err
			}
			payload, err := readPayload(e, args[0])
			if err != nil {
				return err
			}
			if metadata.MediaType == "" {
				metadata.MediaType = media.DetectMediaType(payload)
			}

			return withApp(e, &options, func(a *app) error {
				policy := media.UploadPolicy{
					MaxBytes:     a.config.Upload.MaxBytes,
					AllowedTypes: a.config.Upload.AllowedTypes,
				}
				if err := media.ValidateUpload(payload, metadata, policy); err != nil {
					return err
				}

				result, err := a.service.Upload(e.ctx, payload, metadata)
				if err != nil {
					return describeFailure(err)
				}
				if outputJSON {
					return cli.WriteJSON(e.stdout, struct {
						ContentID string     `json:"contentId"`
						Record    recordView `json:"record"`
						Storage   any        `json:"storage"`
					}{result.ContentID, viewOf(result.Record), result.Storage})
				}
				fmt.Fprintln(e.stdout, result.ContentID)
				return nil
			})
		},
	}
}

func readPayload(e *env, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(e.stdin)
	}
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	return payload, nil
}

// describeFailure adds a retry hint to media stage failures.
func describeFailure(err error) error {
	if media.Retryable(err) {
		return fmt.Errorf("%w (retryable)", err)
	}
	return err
}

func downloadCommand(e *env) *cli.Command {
	var (
		options globalOptions
		output  string
		dataURL bool
	)
	return &cli.Command{
		Name:    "download",
		Summary: "Fetch a video by content identifier",
		Description: `Resolve a content identifier to its payload.

The decoded bytes are written to --output, or to stdout. With
--data-url the stored data URL is printed instead of the bytes.`,
		Usage: "reelstore download CONTENT_ID [-o FILE] [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := newFlagSet("download", &options)
			flagSet.StringVarP(&output, "output", "o", "", "write the payload to this file")
			flagSet.BoolVar(&dataURL, "data-url", false, "print the stored data URL")
			return flagSet
		},
		Run: func(args []string) error {
			if err := requireArgs(args, 1, "reelstore download CONTENT_ID"); err != nil {
				return err
			}
			return withApp(e, &options, func(a *app) error {
				result, err := a.service.Download(e.ctx, args[0])
				if err != nil {
					return describeFailure(err)
				}
				if dataURL {
					_, err := fmt.Fprintln(e.stdout, result.Record.Payload)
					return err
				}
				if output == "" {
					_, err := e.stdout.Write(result.Data)
					return err
				}
				if err := os.WriteFile(output, result.Data, 0o644); err != nil {
					return fmt.Errorf("writing %s: %w", output, err)
				}
				a.logger.Info("payload written",
					"content_id", args[0],
					"path", output,
					"media_type", result.MediaType,
					"bytes", len(result.Data),
				)
				return nil
			})
		},
	}
}

func listCommand(e *env) *cli.Command {
	var (
		options    globalOptions
		outputJSON bool
	)
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Summary: "List catalog records in upload order",
		Flags: func() *pflag.FlagSet {
			flagSet := newFlagSet("list", &options)
			flagSet.BoolVar(&outputJSON, "json", false, "output as JSON")
			return flagSet
		},
		Run: func(args []string) error {
			return withApp(e, &options, func(a *app) error {
				records, err := a.service.List(e.ctx)
				if err != nil {
					return err
				}
				views := make([]recordView, len(records))
				for i, record := range records {
					views[i] = viewOf(record)
				}
				if outputJSON {
					return cli.WriteJSON(e.stdout, views)
				}
				if len(views) == 0 {
					fmt.Fprintln(e.stdout, "catalog is empty")
					return nil
				}

				tw := tabwriter.NewWriter(e.stdout, 2, 0, 3, ' ', 0)
				fmt.Fprintln(tw, "CONTENT ID\tTITLE\tTYPE\tSIZE\tCREATED")
				for _, view := range views {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
						view.ContentID, view.Title, view.MediaType,
						humanize.Bytes(uint64(max(view.Size, 0))), humanize.Time(view.CreatedAt))
				}
				return tw.Flush()
			})
		},
	}
}

func showCommand(e *env) *cli.Command {
	var (
		options    globalOptions
		outputJSON bool
	)
	return &cli.Command{
		Name:    "show",
		Summary: "Show one record's metadata",
		Usage:   "reelstore show CONTENT_ID [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := newFlagSet("show", &options)
			flagSet.BoolVar(&outputJSON, "json", false, "output as JSON")
			return flagSet
		},
		Run: func(args []string) error {
			if err := requireArgs(args, 1, "reelstore show CONTENT_ID"); err != nil {
				return err
			}
			return withApp(e, &options, func(a *app) error {
				record, err := a.store.FindByContentID(e.ctx, args[0])
				if err != nil {
					return err
				}
				view := viewOf(record)
				if outputJSON {
					return cli.WriteJSON(e.stdout, view)
				}

				tw := tabwriter.NewWriter(e.stdout, 2, 0, 2, ' ', 0)
				fmt.Fprintf(tw, "Content ID:\t%s\n", view.ContentID)
				fmt.Fprintf(tw, "Record ID:\t%s\n", view.ID)
				fmt.Fprintf(tw, "Title:\t%s\n", view.Title)
				if view.Description != "" {
					fmt.Fprintf(tw, "Description:\t%s\n", view.Description)
				}
				fmt.Fprintf(tw, "Creator:\t%s\n", view.CreatorID)
				fmt.Fprintf(tw, "Created:\t%s (%s)\n", view.CreatedAt.Format(time.RFC3339), humanize.Time(view.CreatedAt))
				fmt.Fprintf(tw, "Type:\t%s\n", view.MediaType)
				fmt.Fprintf(tw, "Size:\t%s\n", humanize.Bytes(uint64(max(view.Size, 0))))
				if view.AdsEnabled {
					fmt.Fprintf(tw, "Ads:\tenabled at %s\n", view.AdRate)
				} else {
					fmt.Fprintf(tw, "Ads:\tdisabled\n")
				}
				if view.PayloadDigest != "" {
					fmt.Fprintf(tw, "Digest:\t%s\n", view.PayloadDigest)
				}
				return tw.Flush()
			})
		},
	}
}

func verifyCommand(e *env) *cli.Command {
	var (
		options    globalOptions
		outputJSON bool
	)
	return &cli.Command{
		Name:    "verify",
		Summary: "Decode every record and report the ones playback would reject",
		Description: `Decode every catalog record and check its size and digest.

Exits 1 when any record fails.`,
		Flags: func() *pflag.FlagSet {
			flagSet := newFlagSet("verify", &options)
			flagSet.BoolVar(&outputJSON, "json", false, "output as JSON")
			return flagSet
		},
		Run: func(args []string) error {
			return withApp(e, &options, func(a *app) error {
				checked, failures, err := a.service.Verify(e.ctx)
				if err != nil {
					return err
				}

				if outputJSON {
					type failure struct {
						Index     int    `json:"index"`
						ContentID string `json:"contentId,omitempty"`
						Error     string `json:"error"`
					}
					report := struct {
						Checked  int       `json:"checked"`
						Failures []failure `json:"failures"`
					}{Checked: checked, Failures: []failure{}}
					for _, f := range failures {
						report.Failures = append(report.Failures, failure{f.Index, f.ContentID, f.Err.Error()})
					}
					if err := cli.WriteJSON(e.stdout, report); err != nil {
						return err
					}
				} else {
					for _, f := range failures {
						label := f.ContentID
						if label == "" {
							label = "(no content id)"
						}
						fmt.Fprintf(e.stdout, "FAIL #%d %s: %v\n", f.Index, label, f.Err)
					}
					fmt.Fprintf(e.stdout, "%d checked, %d failed\n", checked, len(failures))
				}
				if len(failures) > 0 {
					return &cli.ExitError{Code: 1}
				}
				return nil
			})
		},
	}
}

func statsCommand(e *env) *cli.Command {
	var (
		options    globalOptions
		outputJSON bool
	)
	return &cli.Command{
		Name:    "stats",
		Summary: "Summarize the catalog",
		Flags: func() *pflag.FlagSet {
			flagSet := newFlagSet("stats", &options)
			flagSet.BoolVar(&outputJSON, "json", false, "output as JSON")
			return flagSet
		},
		Run: func(args []string) error {
			return withApp(e, &options, func(a *app) error {
				stats, err := a.service.Stats(e.ctx)
				if err != nil {
					return err
				}
				if outputJSON {
					return cli.WriteJSON(e.stdout, stats)
				}

				fmt.Fprintf(e.stdout, "Records:     %d\n", stats.Records)
				fmt.Fprintf(e.stdout, "Malformed:   %d\n", stats.Malformed)
				fmt.Fprintf(e.stdout, "Total size:  %s\n", humanize.Bytes(uint64(max(stats.TotalBytes, 0))))
				fmt.Fprintf(e.stdout, "Ads enabled: %d\n", stats.AdsEnabled)
				if stats.Oldest != nil {
					fmt.Fprintf(e.stdout, "Oldest:      %s\n", stats.Oldest.Format(time.RFC3339))
					fmt.Fprintf(e.stdout, "Newest:      %s\n", stats.Newest.Format(time.RFC3339))
				}
				printCounts(e.stdout, "By creator", stats.ByCreator)
				printCounts(e.stdout, "By type", stats.ByType)
				return nil
			})
		},
	}
}

func printCounts(w io.Writer, heading string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	fmt.Fprintf(w, "%s:\n", heading)
	for _, key := range keys {
		fmt.Fprintf(w, "  %-44s %d\n", key, counts[key])
	}
}

func clearCommand(e *env) *cli.Command {
	var (
		options    globalOptions
		yes        bool
		outputJSON bool
	)
	return &cli.Command{
		Name:    "clear",
		Summary: "Remove every record from the catalog",
		Description: `Remove every record from the catalog.

When backups are enabled a snapshot is written first, and the catalog
is left untouched if the snapshot fails. Requires --yes.`,
		Flags: func() *pflag.FlagSet {
			flagSet := newFlagSet("clear", &options)
			flagSet.BoolVar(&yes, "yes", false, "confirm removal")
			flagSet.BoolVar(&outputJSON, "json", false, "output as JSON")
			return flagSet
		},
		Run: func(args []string) error {
			if !yes {
				return errors.New("clear removes every record; pass --yes to confirm")
			}
			return withApp(e, &options, func(a *app) error {
				result, err := a.service.Clear(e.ctx)
				if err != nil {
					return err
				}
				if outputJSON {
					return cli.WriteJSON(e.stdout, result)
				}
				fmt.Fprintf(e.stdout, "removed %d records\n", result.Records)
				if result.Verbatim > 0 {
					fmt.Fprintf(e.stdout, "kept %d unreadable elements verbatim in the snapshot\n", result.Verbatim)
				}
				if result.BackupPath != "" {
					fmt.Fprintf(e.stdout, "snapshot: %s\n", result.BackupPath)
				}
				return nil
			})
		},
	}
}
