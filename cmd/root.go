// SPDX-License-Identifier: GPL-3.0-or-later

// Copyright (c) 2025 Spruce Health

// Package cmd implements the switchboard command line.
package cmd

import "github.com/spf13/cobra"

type rootOptions struct {
	configPath string
}

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:           "switchboard",
		Short:         "Phone system webhooks for greeting, directory, team ringing and voicemail",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to a TOML config file (SWITCHBOARD_* variables override it)")

	rootCmd.AddCommand(
		newServeCmd(opts),
		newNumbersCmd(opts),
		newDirectoryCmd(opts),
		newRouteCmd(opts),
		newSimulateCmd(opts),
	)
	return rootCmd
}
