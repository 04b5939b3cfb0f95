// SPDX-License-Identifier: GPL-3.0-or-later

// Copyright (c) 2025 Spruce Health

package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sprucehealth/switchboard/ivr"
	"github.com/sprucehealth/switchboard/model"
)

func newNumbersCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "numbers",
		Short: "Inspect and repoint the account's phone numbers",
	}
	cmd.AddCommand(
		newNumbersListCmd(opts),
		newNumbersRewriteCmd(opts),
	)
	return cmd
}

func newNumbersListCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List provisioned numbers and their voice webhooks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := wireApp(opts.configPath)
			if err != nil {
				return err
			}
			numbers, err := app.twilio.ListNumbers(cmd.Context())
			if err != nil {
				return err
			}
			return printNumbers(cmd.OutOrStdout(), numbers, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newNumbersRewriteCmd(opts *rootOptions) *cobra.Command {
	var (
		voiceURL       string
		statusCallback string
		asJSON         bool
	)
	cmd := &cobra.Command{
		Use:   "rewrite",
		Short: "Point every number's voice webhook at this deployment",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := wireApp(opts.configPath)
			if err != nil {
				return err
			}
			if voiceURL == "" {
				links, err := ivr.NewLinks(app.cfg.Server.BaseURL)
				if err != nil {
					return err
				}
				voiceURL = links.URL(ivr.PathIncoming, ivr.Continuation{})
			}

			updated, err := app.twilio.RewriteWebhooks(cmd.Context(), voiceURL, statusCallback)
			if perr := printNumbers(cmd.OutOrStdout(), updated, asJSON); perr != nil && err == nil {
				err = perr
			}
			if err != nil {
				return fmt.Errorf("rewrite stopped after %d numbers: %w", len(updated), err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&voiceURL, "voice-url", "", "voice webhook URL (default <base_url>/voice/incoming)")
	cmd.Flags().StringVar(&statusCallback, "status-callback", "", "status callback URL to set as well")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func printNumbers(w io.Writer, numbers []model.PhoneNumber, asJSON bool) error {
	if asJSON {
		if numbers == nil {
			numbers = []model.PhoneNumber{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(numbers)
	}
	for _, n := range numbers {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s %s\n", n.SID, n.Number, n.FriendlyName, n.VoiceMethod, n.VoiceURL)
	}
	return nil
}
