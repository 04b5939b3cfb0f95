// SPDX-License-Identifier: GPL-3.0-or-later

// Copyright (c) 2025 Spruce Health

package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sprucehealth/switchboard/callsim"
	"github.com/sprucehealth/switchboard/ivr"
	"github.com/sprucehealth/switchboard/model"
	"github.com/sprucehealth/switchboard/notify"
	"github.com/sprucehealth/switchboard/server"
	"github.com/sprucehealth/switchboard/twiml"
)

type simulateOptions struct {
	from       string
	inputs     []string
	answer     bool
	holdRounds int
	record     int
	transcript string
}

func newSimulateCmd(opts *rootOptions) *cobra.Command {
	sim := &simulateOptions{}
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Walk a scripted call through the call flow without placing real calls",
		Long: "Simulate runs the configured call flow in process. Each --input answers one prompt: " +
			"keypad digits are sent as keypresses, anything else as speech, and an empty value is silence. " +
			"Team and extension dials are logged instead of placed.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := wireApp(opts.configPath)
			if err != nil {
				return err
			}
			defer func() { _ = app.logger.Sync() }()

			gin.SetMode(gin.ReleaseMode)
			return runSimulation(cmd.Context(), app, sim, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&sim.from, "from", "+15555550199", "caller number")
	cmd.Flags().StringArrayVar(&sim.inputs, "input", nil, "answer to the next prompt (repeatable)")
	cmd.Flags().BoolVar(&sim.answer, "answer", false, "whoever is dialed picks up")
	cmd.Flags().IntVar(&sim.holdRounds, "hold-rounds", 1, "hold documents played while waiting in a conference")
	cmd.Flags().IntVar(&sim.record, "record", 0, "seconds of voicemail the caller leaves")
	cmd.Flags().StringVar(&sim.transcript, "transcript", "", "transcription delivered for the voicemail")
	return cmd
}

func runSimulation(ctx context.Context, a *app, sim *simulateOptions, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	tel := &dryRunTelephony{logger: a.logger}
	h, err := a.handler(tel, notify.NewLogNotifier(a.logger))
	if err != nil {
		return err
	}
	srv, err := server.New(h, nil, server.Options{BaseURL: a.cfg.Server.BaseURL}, a.logger, a.metrics)
	if err != nil {
		return err
	}

	script := callsim.Script{
		From:             sim.from,
		To:               a.cfg.Twilio.CallerID,
		HoldRounds:       sim.holdRounds,
		RecordingSeconds: sim.record,
		Transcription:    sim.transcript,
	}
	for _, in := range sim.inputs {
		script.Inputs = append(script.Inputs, parseInput(in))
	}
	if sim.answer {
		script.DialStatus = func(*twiml.Dial) model.CallStatus { return model.CallCompleted }
	}

	links, err := ivr.NewLinks(a.cfg.Server.BaseURL)
	if err != nil {
		return err
	}
	runner := callsim.NewRunner(callsim.HandlerPoster{Handler: srv.Handler()}, a.logger)
	call, runErr := runner.Run(ctx, links.URL(ivr.PathIncoming, ivr.Continuation{}), script)
	if err := printCall(out, call, tel.placed.Load()); err != nil {
		return err
	}
	return runErr
}

// parseInput treats keypad characters as digits and anything else as speech
func parseInput(s string) callsim.Input {
	s = strings.TrimSpace(s)
	if s != "" && strings.Trim(s, "0123456789*#") == "" {
		return callsim.Input{Digits: s}
	}
	return callsim.Input{Speech: s}
}

func printCall(w io.Writer, call *callsim.Call, placed int64) error {
	for _, e := range call.Events {
		line := e.Kind
		if e.Detail != "" {
			line += "\t" + e.Detail
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "status\t%s\noutbound\t%d\n", call.Status, placed)
	return err
}

// dryRunTelephony logs REST actions instead of performing them
type dryRunTelephony struct {
	logger *zap.Logger
	placed atomic.Int64
}

func (t *dryRunTelephony) PlaceCall(_ context.Context, call model.OutboundCall) (model.SID, error) {
	n := t.placed.Add(1)
	t.logger.Info("dry run: place call", zap.String("to", call.To), zap.String("url", call.URL))
	return model.SID(fmt.Sprintf("CAdryrun%026d", n)), nil
}

func (t *dryRunTelephony) RedirectCall(_ context.Context, sid model.SID, url string) error {
	t.logger.Info("dry run: redirect call", zap.String("call_sid", sid.String()), zap.String("url", url))
	return nil
}

func (t *dryRunTelephony) ConferenceParticipants(_ context.Context, name string) ([]model.SID, error) {
	t.logger.Info("dry run: list participants", zap.String("conference", name))
	return nil, nil
}
