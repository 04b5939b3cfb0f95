// SPDX-License-Identifier: GPL-3.0-or-later

// Copyright (c) 2025 Spruce Health

package cmd

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sprucehealth/switchboard/intent"
)

func newRouteCmd(opts *rootOptions) *cobra.Command {
	var (
		rosterPath string
		digits     string
	)
	cmd := &cobra.Command{
		Use:   "route [speech...]",
		Short: "Show where the greeting would send a caller",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := offlineDirectory(opts, rosterPath)
			if err != nil {
				return err
			}
			decision := intent.NewRouter(dir).Route(digits, strings.ToLower(strings.Join(args, " ")))
			return json.NewEncoder(cmd.OutOrStdout()).Encode(decision)
		},
	}
	cmd.Flags().StringVar(&rosterPath, "roster", "", "directory roster file (default directory.path from config)")
	cmd.Flags().StringVar(&digits, "digits", "", "keypad input")
	return cmd
}
