// SPDX-License-Identifier: GPL-3.0-or-later

// Copyright (c) 2025 Spruce Health

package ivr

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sprucehealth/switchboard/metrics"
	"github.com/sprucehealth/switchboard/model"
	"github.com/sprucehealth/switchboard/twilioapi"
)

// Telephony is the platform REST surface the router drives
type Telephony interface {
	PlaceCall(ctx context.Context, call model.OutboundCall) (model.SID, error)
	RedirectCall(ctx context.Context, sid model.SID, url string) error
	ConferenceParticipants(ctx context.Context, name string) ([]model.SID, error)
}

// DialResult is the outcome of placing one outbound call
type DialResult struct {
	Number  string
	CallSID model.SID
	Err     error
}

// DispatchReport collects every dial placed for one conference
type DispatchReport struct {
	Team       model.Team
	Conference string
	Results    []DialResult
}

// Placed counts the calls the platform accepted
func (r DispatchReport) Placed() int {
	n := 0
	for _, res := range r.Results {
		if res.Err == nil {
			n++
		}
	}
	return n
}

// Failed counts the calls that could not be placed
func (r DispatchReport) Failed() int {
	return len(r.Results) - r.Placed()
}

// Orchestrator rings a team so its members can be screened into a conference
type Orchestrator struct {
	tel         Telephony
	links       Links
	rosters     map[model.Team][]string
	callerID    string
	ringTimeout time.Duration
	logger      *zap.Logger
	metrics     *metrics.Metrics
}

type OrchestratorConfig struct {
	Rosters     map[model.Team][]string
	CallerID    string
	RingTimeout time.Duration
}

func NewOrchestrator(tel Telephony, links Links, cfg OrchestratorConfig, logger *zap.Logger, m *metrics.Metrics) *Orchestrator {
	rosters := make(map[model.Team][]string, len(cfg.Rosters))
	for team, numbers := range cfg.Rosters {
		rosters[team] = append([]string(nil), numbers...)
	}
	return &Orchestrator{
		tel:         tel,
		links:       links,
		rosters:     rosters,
		callerID:    cfg.CallerID,
		ringTimeout: cfg.RingTimeout,
		logger:      logger,
		metrics:     m,
	}
}

// RosterSize returns how many numbers are rung for team
func (o *Orchestrator) RosterSize(team model.Team) int {
	return len(o.rosters[team])
}

// RingTeam calls every number on the team's roster in parallel and waits for
// all of the requests to finish. Each answered call is sent to the screening
// step for cont.Conf. Failures are logged and reported, never returned.
func (o *Orchestrator) RingTeam(ctx context.Context, team model.Team, cont Continuation) DispatchReport {
	roster := o.rosters[team]
	report := DispatchReport{
		Team:       team,
		Conference: cont.Conf,
		Results:    make([]DialResult, len(roster)),
	}
	if len(roster) == 0 {
		o.logger.Warn("no numbers on team roster", zap.String("team", string(team)), zap.String("conf", cont.Conf))
		return report
	}

	screen := cont.next()
	screen.Team = team
	screen.Attempt = 0
	screenURL := o.links.URL(PathScreen, screen)

	var g errgroup.Group
	for i, number := range roster {
		i, number := i, number
		g.Go(func() error {
			res := DialResult{Number: number}
			res.CallSID, res.Err = o.placeCall(ctx, model.OutboundCall{
				To:      number,
				From:    o.callerID,
				URL:     screenURL,
				Timeout: o.ringTimeout,
			})
			report.Results[i] = res

			if res.Err != nil {
				o.metrics.RecordDial(string(team), "failed")
				o.logger.Warn("failed to ring team member",
					zap.String("team", string(team)),
					zap.String("conf", cont.Conf),
					zap.String("to", number),
					zap.Int("twilio_code", twilioapi.ErrorCode(res.Err)),
					zap.Error(res.Err))
			} else {
				o.metrics.RecordDial(string(team), "placed")
				o.logger.Debug("ringing team member",
					zap.String("team", string(team)),
					zap.String("conf", cont.Conf),
					zap.String("to", number),
					zap.String("call_sid", res.CallSID.String()))
			}
			return nil
		})
	}
	_ = g.Wait()

	o.logger.Info("team dispatch finished",
		zap.String("team", string(team)),
		zap.String("conf", cont.Conf),
		zap.Int("placed", report.Placed()),
		zap.Int("failed", report.Failed()))
	return report
}

func (o *Orchestrator) placeCall(ctx context.Context, call model.OutboundCall) (sid model.SID, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic placing call to %s: %v", call.To, r)
		}
	}()
	return o.tel.PlaceCall(ctx, call)
}
