// SPDX-License-Identifier: GPL-3.0-or-later

// Copyright (c) 2025 Spruce Health

package cmd

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/sprucehealth/switchboard/clock"
	"github.com/sprucehealth/switchboard/config"
	"github.com/sprucehealth/switchboard/directory"
	"github.com/sprucehealth/switchboard/intent"
	"github.com/sprucehealth/switchboard/ivr"
	"github.com/sprucehealth/switchboard/logging"
	"github.com/sprucehealth/switchboard/metrics"
	"github.com/sprucehealth/switchboard/model"
	"github.com/sprucehealth/switchboard/notify"
	"github.com/sprucehealth/switchboard/server"
	"github.com/sprucehealth/switchboard/twilioapi"
)

type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	metrics *metrics.Metrics
	dir     *directory.Directory
	twilio  *twilioapi.Client
}

func wireApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("wire logger: %w", err)
	}
	dir, err := loadDirectory(cfg.Directory.Path)
	if err != nil {
		return nil, err
	}
	return &app{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics.New(),
		dir:     dir,
		twilio:  twilioapi.NewClient(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken),
	}, nil
}

// loadDirectory reads the roster at path. No path means an empty directory.
func loadDirectory(path string) (*directory.Directory, error) {
	if path == "" {
		return directory.New(nil)
	}
	dir, err := directory.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("wire directory: %w", err)
	}
	return dir, nil
}

func (a *app) notifier() notify.Notifier {
	if a.cfg.Notify.WebhookURL == "" {
		return notify.NewLogNotifier(a.logger)
	}
	client := notify.NewDefaultWebhookClient(a.cfg.Notify.Timeout)
	return notify.NewWebhookNotifier(client, a.cfg.Notify.WebhookURL)
}

// handler builds the call flow over tel, reporting voicemails to n
func (a *app) handler(tel ivr.Telephony, n notify.Notifier) (*ivr.Handler, error) {
	links, err := ivr.NewLinks(a.cfg.Server.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("wire links: %w", err)
	}

	routing := a.cfg.Routing
	rosters := make(map[model.Team][]string)
	for _, team := range []model.Team{model.TeamOperator, model.TeamSales} {
		rosters[team] = routing.Roster(string(team))
		if len(rosters[team]) == 0 {
			a.logger.Warn("team has no numbers, its callers go straight to voicemail", zap.String("team", string(team)))
		}
	}

	orch := ivr.NewOrchestrator(tel, links, ivr.OrchestratorConfig{
		Rosters:     rosters,
		CallerID:    a.cfg.Twilio.CallerID,
		RingTimeout: routing.RingTimeout,
	}, a.logger, a.metrics)

	return ivr.NewHandler(ivr.Settings{
		CompanyName:          a.cfg.Voice.CompanyName,
		ServicesOverview:     a.cfg.Voice.ServicesOverview,
		Voice:                a.cfg.Voice.Voice,
		Language:             a.cfg.Voice.Language,
		CallerID:             a.cfg.Twilio.CallerID,
		GatherTimeout:        routing.GatherTimeout,
		ScreenTimeout:        routing.ScreenTimeout,
		RingTimeout:          routing.RingTimeout,
		VoicemailMaxLength:   routing.VoicemailMaxLength,
		HoldTracks:           routing.HoldTracks,
		MaxDirectoryAttempts: routing.MaxDirectoryAttempts,
	}, ivr.Deps{
		Links:        links,
		Directory:    a.dir,
		Router:       intent.NewRouter(a.dir),
		Orchestrator: orch,
		Telephony:    tel,
		Notifier:     n,
		Clock:        clock.NewAutoClock(),
		Logger:       a.logger,
		Metrics:      a.metrics,
	}), nil
}

func (a *app) server() (*server.Server, error) {
	h, err := a.handler(a.twilio, a.notifier())
	if err != nil {
		return nil, err
	}
	return server.New(h, a.twilio, server.Options{
		Addr:               a.cfg.Server.Addr,
		BaseURL:            a.cfg.Server.BaseURL,
		AuthToken:          a.cfg.Twilio.AuthToken,
		ValidateSignatures: a.cfg.Twilio.ValidateSignatures,
		AdminToken:         a.cfg.Admin.Token,
	}, a.logger, a.metrics)
}
