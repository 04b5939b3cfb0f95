// SPDX-License-Identifier: GPL-3.0-or-later

// Copyright (c) 2025 Spruce Health

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sprucehealth/switchboard/config"
	"github.com/sprucehealth/switchboard/directory"
)

func newDirectoryCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "directory",
		Short: "Work with the company directory offline",
	}
	cmd.AddCommand(newDirectoryLookupCmd(opts))
	return cmd
}

func newDirectoryLookupCmd(opts *rootOptions) *cobra.Command {
	var (
		rosterPath string
		digits     string
	)
	cmd := &cobra.Command{
		Use:   "lookup [speech...]",
		Short: "Match an extension or a spoken name against the directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := offlineDirectory(opts, rosterPath)
			if err != nil {
				return err
			}
			speech := strings.ToLower(strings.Join(args, " "))
			if digits == "" && speech == "" {
				return fmt.Errorf("give --digits or some speech to match")
			}

			matches := dir.Match(digits, speech)
			out := cmd.OutOrStdout()
			if len(matches) == 0 {
				_, _ = fmt.Fprintln(out, "no match")
				return nil
			}
			for _, m := range matches {
				_, _ = fmt.Fprintf(out, "%d\t%s\t%s\t%s\t%s\n", m.Score, m.Entry.Extension, m.Entry.FullName(), m.Entry.Title, m.Entry.Number)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&rosterPath, "roster", "", "directory roster file (default directory.path from config)")
	cmd.Flags().StringVar(&digits, "digits", "", "extension entered on the keypad")
	return cmd
}

// offlineDirectory loads a roster without needing the rest of the config to be valid
func offlineDirectory(opts *rootOptions, rosterPath string) (*directory.Directory, error) {
	if rosterPath != "" {
		return loadDirectory(rosterPath)
	}
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("no --roster given and %w", err)
	}
	return loadDirectory(cfg.Directory.Path)
}
