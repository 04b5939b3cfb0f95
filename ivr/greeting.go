// SPDX-License-Identifier: GPL-3.0-or-later

// Copyright (c) 2025 Spruce Health

package ivr

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sprucehealth/switchboard/model"
	"github.com/sprucehealth/switchboard/twiml"
)

// Greeting welcomes the caller and collects a keypress or a spoken request.
// Silence re-prompts once and then goes to the front desk.
func (h *Handler) Greeting(ctx context.Context, req Request) *twiml.Response {
	attempt := req.Cont.Attempt
	if attempt < 1 {
		attempt = 1
	}

	prompt := fmt.Sprintf("Thank you for calling %s. You can say services, directory, sales or operator, "+
		"or say the name of the person you're trying to reach. "+
		"Press 1 to hear about our services, 2 for the company directory, or 0 for the operator.",
		h.companyName())
	if attempt > 1 {
		prompt = "Sorry, I didn't catch that. " + prompt
	}

	gather := &twiml.Gather{
		Input:         "dtmf speech",
		Action:        h.links.URL(PathRoute, Continuation{Caller: req.From}),
		Method:        "POST",
		Timeout:       seconds(h.settings.GatherTimeout),
		NumDigits:     1,
		SpeechTimeout: "auto",
		Hints:         h.router.Hints(),
		Language:      h.settings.Language,
		Children:      []twiml.Node{h.say(prompt)},
	}

	resp := twiml.NewResponse(gather)
	if attempt == 1 {
		return resp.Append(h.redirect(PathIncoming, Continuation{Attempt: 2}))
	}
	return resp.Append(h.redirect(PathConnect, Continuation{Team: model.TeamOperator, Caller: req.From}))
}

// Route classifies the greeting input and sends the caller on
func (h *Handler) Route(ctx context.Context, req Request) *twiml.Response {
	decision := h.router.Route(req.Digits, req.SpeechResult)
	h.metrics.RecordRoute(string(decision.Route))
	h.logger.Info("routed call",
		zap.String("call_sid", req.CallSID.String()),
		zap.String("route", string(decision.Route)),
		zap.String("digits", req.Digits),
		zap.String("speech", req.SpeechResult))

	caller := req.Cont.Caller
	if caller == "" {
		caller = req.From
	}

	switch decision.Route {
	case model.RouteServices:
		return twiml.NewResponse(h.redirect(PathServices, Continuation{}))
	case model.RouteDirectory:
		return twiml.NewResponse(h.redirect(PathDirectory, Continuation{Attempt: 1}))
	case model.RouteDirectoryDirect:
		return twiml.NewResponse(h.redirect(PathDirectoryLookup, Continuation{Attempt: 1, Speech: decision.NameQuery}))
	case model.RouteSales:
		return twiml.NewResponse(h.redirect(PathConnect, Continuation{Team: model.TeamSales, Caller: caller}))
	case model.RouteOperator:
		return twiml.NewResponse(h.redirect(PathConnect, Continuation{Team: model.TeamOperator, Caller: caller}))
	default:
		return h.toOperator("Let me connect you with someone who can help.", Continuation{Caller: caller})
	}
}

// Services reads the services overview and returns to the main menu
func (h *Handler) Services(ctx context.Context, req Request) *twiml.Response {
	overview := h.settings.ServicesOverview
	if overview == "" {
		overview = fmt.Sprintf("%s offers a range of services. A member of our team can tell you more.", h.companyName())
	}
	return twiml.NewResponse(
		h.say(overview),
		twiml.NewPause(time.Second),
		h.redirect(PathIncoming, Continuation{}),
	)
}

func (h *Handler) companyName() string {
	if h.settings.CompanyName == "" {
		return "us"
	}
	return h.settings.CompanyName
}
