// SPDX-License-Identifier: GPL-3.0-or-later

// Copyright (c) 2025 Spruce Health

package ivr

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sprucehealth/switchboard/model"
	"github.com/sprucehealth/switchboard/twilioapi"
	"github.com/sprucehealth/switchboard/twiml"
)

// Reasons a caller is sent to voicemail
const (
	reasonNoAgents    = "no-agents"
	reasonHoldTimeout = "hold-timeout"
	reasonDeclined    = "declined"
)

// Digits pressed by a team member at the screening prompt
const (
	screenAccept  = "1"
	screenDecline = "2"
)

// Connect parks the caller in a fresh conference and rings the team
func (h *Handler) Connect(ctx context.Context, req Request) *twiml.Response {
	team := req.Cont.Team
	if team == "" {
		team = model.TeamOperator
	}
	caller := req.Cont.Caller
	if caller == "" {
		caller = req.From
	}
	conf := model.NewConferenceName(team, h.clock.Now())

	logger := h.logger.With(
		zap.String("call_sid", req.CallSID.String()),
		zap.String("team", string(team)),
		zap.String("conf", conf))

	report := h.orch.RingTeam(ctx, team, Continuation{
		Conf:      conf,
		Team:      team,
		Caller:    caller,
		CallerSID: req.CallSID,
	})
	if report.Placed() == 0 {
		logger.Warn("nobody could be rung, sending caller to voicemail", zap.Int("failed", report.Failed()))
		return twiml.NewResponse(
			h.say(fmt.Sprintf("We're sorry, no one from %s is available right now.", team.Spoken())),
			h.redirect(PathVoicemail, Continuation{Team: team, Caller: caller, Reason: reasonNoAgents}),
		)
	}
	logger.Info("caller waiting in conference", zap.Int("ringing", report.Placed()))

	wait := Continuation{Conf: conf, Team: team, Caller: caller}
	return twiml.NewResponse(
		h.say(fmt.Sprintf("Please hold while we connect you to %s.", team.Spoken())),
		twiml.DialConference(h.links.URL(PathDialComplete, wait), &twiml.Conference{
			Name:                   conf,
			Beep:                   "false",
			StartConferenceOnEnter: false,
			EndConferenceOnExit:    true,
			WaitURL:                h.links.URL(PathHold, wait),
			WaitMethod:             "POST",
			MaxParticipants:        2,
		}),
	)
}

// Hold plays the hold tracks in turn. Once they run out the caller is moved
// out of the conference and on to voicemail.
// Only Play, Say, Pause and Redirect are allowed in a conference wait document.
func (h *Handler) Hold(ctx context.Context, req Request) *twiml.Response {
	cont := req.Cont
	logger := h.logger.With(
		zap.String("call_sid", req.CallSID.String()),
		zap.String("conf", cont.Conf),
		zap.Int("track", cont.Track))

	if cont.Track < len(h.settings.HoldTracks) {
		next := cont.next()
		next.Track = cont.Track + 1
		resp := twiml.NewResponse()
		track, err := h.links.Resolve(h.settings.HoldTracks[cont.Track])
		if err != nil {
			logger.Warn("skipping unusable hold track", zap.Error(err))
			resp.Append(twiml.NewPause(10 * time.Second))
		} else {
			resp.Append(&twiml.Play{URL: track})
		}
		return resp.Append(h.redirect(PathHold, next))
	}

	done := Continuation{Conf: cont.Conf, Team: cont.Team, Caller: cont.Caller, Voicemail: true, Reason: reasonHoldTimeout}
	if err := h.tel.RedirectCall(ctx, req.CallSID, h.links.URL(PathDialComplete, done)); err != nil {
		logger.Error("could not move caller out of hold",
			zap.Int("twilio_code", twilioapi.ErrorCode(err)),
			zap.Error(err))
		restart := cont.next()
		restart.Track = 0
		return twiml.NewResponse(
			h.say("We're sorry for the wait. Please continue to hold."),
			h.redirect(PathHold, restart),
		)
	}
	h.metrics.RecordVoicemail("hold_timeout")
	logger.Info("hold music exhausted, caller moved to voicemail")
	return twiml.NewResponse(twiml.NewPause(5 * time.Second))
}

// Screen whispers the call to a team member who answered and asks them to accept or decline.
// Silence hangs up this leg only.
func (h *Handler) Screen(ctx context.Context, req Request) *twiml.Response {
	cont := req.Cont
	team := cont.Team
	if team == "" {
		team, _ = model.TeamFromConferenceName(cont.Conf)
	}

	what := "call"
	if team != "" {
		what = string(team) + " call"
	}
	prompt := fmt.Sprintf("Incoming %s from %s. Press 1 to accept or 2 to decline.", what, spellNumber(cont.Caller))
	if cont.Attempt > 1 {
		prompt = "Sorry, that's not an option. " + prompt
	}

	result := cont.next()
	result.Team = team
	gather := &twiml.Gather{
		Input:     "dtmf",
		Action:    h.links.URL(PathScreenResult, result),
		Method:    "POST",
		Timeout:   seconds(h.settings.ScreenTimeout),
		NumDigits: 1,
		Children:  []twiml.Node{h.say(prompt)},
	}
	return twiml.NewResponse(gather, h.say("Goodbye."), &twiml.Hangup{})
}

// ScreenResult acts on the team member's choice
func (h *Handler) ScreenResult(ctx context.Context, req Request) *twiml.Response {
	cont := req.Cont
	team := cont.Team
	if team == "" {
		team, _ = model.TeamFromConferenceName(cont.Conf)
	}
	logger := h.logger.With(
		zap.String("call_sid", req.CallSID.String()),
		zap.String("conf", cont.Conf),
		zap.String("team", string(team)),
		zap.String("digits", req.Digits))

	switch req.Digits {
	case screenAccept:
		h.metrics.RecordScreening(string(team), "accepted")
		logger.Info("team member accepted call")
		return twiml.NewResponse(
			h.say("Connecting you now."),
			twiml.DialConference("", &twiml.Conference{
				Name:                   cont.Conf,
				Beep:                   "false",
				StartConferenceOnEnter: true,
				EndConferenceOnExit:    true,
				MaxParticipants:        2,
			}),
			&twiml.Hangup{},
		)

	case screenDecline:
		h.metrics.RecordScreening(string(team), "declined")
		logger.Info("team member declined call")
		h.sendCallerToVoicemail(ctx, req, logger)
		return twiml.NewResponse(&twiml.Hangup{})

	default:
		h.metrics.RecordScreening(string(team), "invalid")
		if cont.Attempt > 1 {
			logger.Info("no valid screening choice, hanging up team member")
			return h.goodbye("Goodbye.")
		}
		retry := cont.next()
		retry.Attempt = 2
		return twiml.NewResponse(h.redirect(PathScreen, retry))
	}
}

// sendCallerToVoicemail pulls a waiting caller out of the conference after
// an explicit decline. A caller already talking to someone else is left alone.
func (h *Handler) sendCallerToVoicemail(ctx context.Context, req Request, logger *zap.Logger) {
	cont := req.Cont
	target := cont.CallerSID

	if cont.Conf != "" {
		participants, err := h.tel.ConferenceParticipants(ctx, cont.Conf)
		switch {
		case twilioapi.IsNotFound(err):
			logger.Info("conference already ended, nobody to redirect")
			return
		case err != nil:
			logger.Warn("could not list conference participants", zap.Error(err))
		default:
			var others []model.SID
			for _, sid := range participants {
				if sid != req.CallSID {
					others = append(others, sid)
				}
			}
			if len(others) > 1 {
				logger.Info("caller is already connected, leaving conference alone")
				return
			}
			if len(others) == 0 {
				logger.Info("caller has left the conference")
				return
			}
			if target == "" {
				target = others[0]
			}
		}
	}
	if target == "" {
		logger.Warn("caller leg unknown, caller stays on hold")
		return
	}

	done := Continuation{Conf: cont.Conf, Team: cont.Team, Caller: cont.Caller, Voicemail: true, Reason: reasonDeclined}
	if err := h.tel.RedirectCall(ctx, target, h.links.URL(PathDialComplete, done)); err != nil {
		if twilioapi.IsNotFound(err) {
			logger.Info("caller already hung up", zap.String("caller_sid", target.String()))
			return
		}
		logger.Error("could not redirect caller to voicemail",
			zap.String("caller_sid", target.String()),
			zap.Int("twilio_code", twilioapi.ErrorCode(err)),
			zap.Error(err))
		return
	}
	h.metrics.RecordVoicemail("declined")
	logger.Info("caller redirected to voicemail", zap.String("caller_sid", target.String()))
}

// DialComplete runs when the caller's dial or conference leg ends. Nobody
// answering, or an explicit voicemail request, leads to voicemail.
func (h *Handler) DialComplete(ctx context.Context, req Request) *twiml.Response {
	cont := req.Cont
	logger := h.logger.With(
		zap.String("call_sid", req.CallSID.String()),
		zap.String("conf", cont.Conf),
		zap.String("for", cont.For),
		zap.String("dial_status", string(req.DialCallStatus)),
		zap.Bool("voicemail", cont.Voicemail))

	if cont.Voicemail || req.DialCallStatus.Unanswered() {
		logger.Info("dial unanswered, sending caller to voicemail")
		next := Continuation{Team: cont.Team, Caller: cont.Caller, For: cont.For, Reason: cont.Reason}
		return twiml.NewResponse(
			h.say(h.unavailable(cont)),
			h.redirect(PathVoicemail, next),
		)
	}

	logger.Info("call finished")
	return h.goodbye(fmt.Sprintf("Thank you for calling %s. Goodbye.", h.companyName()))
}

func (h *Handler) unavailable(cont Continuation) string {
	if cont.For != "" {
		if entry, ok := h.dir.Lookup(cont.For); ok {
			return fmt.Sprintf("We're sorry, %s is not available right now.", entry.FullName())
		}
	}
	team := cont.Team
	if team == "" {
		team, _ = model.TeamFromConferenceName(cont.Conf)
	}
	if team == "" {
		return "We're sorry, no one is available right now."
	}
	return fmt.Sprintf("We're sorry, no one from %s is available right now.", team.Spoken())
}
