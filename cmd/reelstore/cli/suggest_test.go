// Copyright 2026 The Reelstore Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"testing"

	"github.com/spf13/pflag"
)

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"abc", "abc", 0},
		{"abc", "abd", 1},
		{"abc", "ab", 1},
		{"ab", "abc", 1},
		{"abc", "bac", 2},
		{"kitten", "sitting", 3},
		{"upload", "uplaod", 2},
		{"verify", "verfy", 1},
	}

	for _, test := range tests {
		t.Run(test.a+"->"+test.b, func(t *testing.T) {
			if got := levenshtein(test.a, test.b); got != test.want {
				t.Errorf("levenshtein(%q, %q) = %d, want %d", test.a, test.b, got, test.want)
			}
		})
	}
}

func TestLevenshtein_Symmetric(t *testing.T) {
	for _, pair := range [][2]string{{"abc", "abd"}, {"hello", "helo"}, {"stats", "stast"}} {
		if forward, reverse := levenshtein(pair[0], pair[1]), levenshtein(pair[1], pair[0]); forward != reverse {
			t.Errorf("levenshtein(%q, %q) = %d, but reverse = %d", pair[0], pair[1], forward, reverse)
		}
	}
}

func TestSuggestCommand(t *testing.T) {
	commands := []*Command{{Name: "upload"}, {Name: "download"}, {Name: "stats"}}

	tests := []struct {
		input string
		want  string
	}{
		{"uplod", "upload"},
		{"downlaod", "download"},
		{"stat", "stats"},
		{"backupify", ""},
	}
	for _, test := range tests {
		if got := suggestCommand(test.input, commands); got != test.want {
			t.Errorf("suggestCommand(%q) = %q, want %q", test.input, got, test.want)
		}
	}
}

func TestSuggestFlag(t *testing.T) {
	flagSet := pflag.NewFlagSet("upload", pflag.ContinueOnError)
	flagSet.String("title", "", "")
	flagSet.String("description", "", "")
	flagSet.Bool("ads", false, "")

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"--titel", "x"}, "--title"},
		{[]string{"--title", "x", "--descripton=y"}, "--description"},
		{[]string{"--zzzzzzzzzz"}, ""},
		{[]string{"file.mp4"}, ""},
		{[]string{"--", "--titel"}, ""},
	}
	for _, test := range tests {
		if got := suggestFlag(test.args, flagSet); got != test.want {
			t.Errorf("suggestFlag(%v) = %q, want %q", test.args, got, test.want)
		}
	}
}
