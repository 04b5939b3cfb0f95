// SPDX-License-Identifier: GPL-3.0-or-later

// Copyright (c) 2025 Spruce Health

// Package ivr implements the call flow as a set of independent webhook steps.
// Each step turns one platform request into the TwiML for what happens next.
// Steps never fail: every branch ends in a prompt, a redirect or a hang-up.
package ivr

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sprucehealth/switchboard/clock"
	"github.com/sprucehealth/switchboard/directory"
	"github.com/sprucehealth/switchboard/intent"
	"github.com/sprucehealth/switchboard/metrics"
	"github.com/sprucehealth/switchboard/model"
	"github.com/sprucehealth/switchboard/notify"
	"github.com/sprucehealth/switchboard/twiml"
)

// Settings are the caller-facing parameters of the flow
type Settings struct {
	CompanyName          string
	ServicesOverview     string
	Voice                string
	Language             string
	CallerID             string
	GatherTimeout        time.Duration
	ScreenTimeout        time.Duration
	RingTimeout          time.Duration
	VoicemailMaxLength   time.Duration
	HoldTracks           []string
	MaxDirectoryAttempts int
}

// Deps are the collaborators a Handler needs
type Deps struct {
	Links        Links
	Directory    *directory.Directory
	Router       *intent.Router
	Orchestrator *Orchestrator
	Telephony    Telephony
	Notifier     notify.Notifier
	Clock        clock.Clock
	Logger       *zap.Logger
	Metrics      *metrics.Metrics
}

// Step is one webhook of the call flow
type Step func(ctx context.Context, req Request) *twiml.Response

type Handler struct {
	settings Settings
	links    Links
	dir      *directory.Directory
	router   *intent.Router
	orch     *Orchestrator
	tel      Telephony
	notifier notify.Notifier
	clock    clock.Clock
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

func NewHandler(settings Settings, deps Deps) *Handler {
	if settings.MaxDirectoryAttempts < 1 {
		settings.MaxDirectoryAttempts = 3
	}
	if deps.Clock == nil {
		deps.Clock = clock.NewAutoClock()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}
	if deps.Notifier == nil {
		deps.Notifier = notify.NewLogNotifier(deps.Logger)
	}
	return &Handler{
		settings: settings,
		links:    deps.Links,
		dir:      deps.Directory,
		router:   deps.Router,
		orch:     deps.Orchestrator,
		tel:      deps.Telephony,
		notifier: deps.Notifier,
		clock:    deps.Clock,
		logger:   deps.Logger,
		metrics:  deps.Metrics,
	}
}

// Steps maps each webhook path to its step
func (h *Handler) Steps() map[string]Step {
	return map[string]Step{
		PathIncoming:          h.Greeting,
		PathRoute:             h.Route,
		PathServices:          h.Services,
		PathDirectory:         h.DirectoryPrompt,
		PathDirectoryLookup:   h.DirectoryLookup,
		PathConnect:           h.Connect,
		PathHold:              h.Hold,
		PathScreen:            h.Screen,
		PathScreenResult:      h.ScreenResult,
		PathDialComplete:      h.DialComplete,
		PathVoicemail:         h.Voicemail,
		PathVoicemailComplete: h.VoicemailComplete,
		PathTranscription:     h.Transcription,
	}
}

// Safe wraps step so a panic produces an apology and a hang-up instead of an error page
func (h *Handler) Safe(name string, step Step) Step {
	return func(ctx context.Context, req Request) (resp *twiml.Response) {
		defer func() {
			if r := recover(); r != nil {
				h.metrics.RecordPanic(name)
				h.logger.Error("recovered panic in call step",
					zap.String("step", name),
					zap.String("call_sid", req.CallSID.String()),
					zap.Any("panic", r),
					zap.Stack("stack"))
				resp = h.Fallback()
			}
		}()
		resp = step(ctx, req)
		if resp == nil {
			resp = h.Fallback()
		}
		return resp
	}
}

// Fallback is the response used when a step cannot produce its own
func (h *Handler) Fallback() *twiml.Response {
	return twiml.NewResponse(
		h.say("We're sorry, something went wrong. Please try your call again later."),
		&twiml.Hangup{},
	)
}

func (h *Handler) say(text string) *twiml.Say {
	return twiml.NewSay(text, h.settings.Voice, h.settings.Language)
}

func (h *Handler) redirect(path string, cont Continuation) *twiml.Redirect {
	return twiml.NewRedirect(h.links.URL(path, cont))
}

func (h *Handler) goodbye(text string) *twiml.Response {
	return twiml.NewResponse(h.say(text), &twiml.Hangup{})
}

func (h *Handler) toOperator(text string, cont Continuation) *twiml.Response {
	next := Continuation{Team: model.TeamOperator, Caller: cont.Caller}
	resp := twiml.NewResponse()
	if text != "" {
		resp.Append(h.say(text))
	}
	return resp.Append(h.redirect(PathConnect, next))
}

func seconds(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	return fmt.Sprintf("%d", int(d/time.Second))
}

// spellNumber reads a phone number digit by digit, grouped like a North
// American number when it is one
func spellNumber(number string) string {
	var digits []byte
	for i := 0; i < len(number); i++ {
		if number[i] >= '0' && number[i] <= '9' {
			digits = append(digits, number[i])
		}
	}
	if len(digits) == 11 && digits[0] == '1' {
		digits = digits[1:]
	}
	if len(digits) == 0 {
		return "an unknown number"
	}

	spell := func(group []byte) string {
		parts := make([]string, len(group))
		for i, d := range group {
			parts[i] = string(d)
		}
		return strings.Join(parts, " ")
	}
	if len(digits) == 10 {
		return spell(digits[:3]) + ", " + spell(digits[3:6]) + ", " + spell(digits[6:])
	}
	return spell(digits)
}
