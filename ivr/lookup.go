// SPDX-License-Identifier: GPL-3.0-or-later

// Copyright (c) 2025 Spruce Health

package ivr

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sprucehealth/switchboard/model"
	"github.com/sprucehealth/switchboard/twiml"
)

// Reasons carried back to the directory prompt
const (
	reasonNoMatch = "no-match"
	reasonNoInput = "no-input"
)

// DirectoryPrompt asks for a name or extension
func (h *Handler) DirectoryPrompt(ctx context.Context, req Request) *twiml.Response {
	cont := req.Cont
	if cont.Attempt < 1 {
		cont.Attempt = 1
	}

	var prompt string
	switch cont.Reason {
	case reasonNoMatch:
		prompt = "Sorry, I couldn't find that person. Please say their first and last name, or enter their three digit extension."
	case reasonNoInput:
		prompt = "Sorry, I didn't catch that. Please say the name of the person you're trying to reach, or enter their three digit extension."
	default:
		prompt = "Please say the name of the person you're trying to reach, or enter their three digit extension followed by the pound key."
	}

	lookup := Continuation{Caller: cont.Caller, Attempt: cont.Attempt}
	gather := &twiml.Gather{
		Input:         "dtmf speech",
		Action:        h.links.URL(PathDirectoryLookup, lookup),
		Method:        "POST",
		Timeout:       seconds(h.settings.GatherTimeout),
		NumDigits:     3,
		FinishOnKey:   "#",
		SpeechTimeout: "auto",
		Hints:         h.directoryHints(),
		Language:      h.settings.Language,
		Children:      []twiml.Node{h.say(prompt)},
	}
	resp := twiml.NewResponse(gather)

	// Silence after a silent re-prompt, or with no attempts left, goes to a person
	if cont.Reason == reasonNoInput || cont.Attempt >= h.settings.MaxDirectoryAttempts {
		h.metrics.RecordDirectoryLookup("no_input")
		return resp.Append(
			h.say("Let me connect you with the front desk."),
			h.redirect(PathConnect, Continuation{Team: model.TeamOperator, Caller: cont.Caller}),
		)
	}
	retry := Continuation{Caller: cont.Caller, Attempt: cont.Attempt + 1, Reason: reasonNoInput}
	return resp.Append(h.redirect(PathDirectory, retry))
}

// DirectoryLookup matches the caller's input against the directory.
// Candidates in the continuation restrict the match to the entries just offered.
func (h *Handler) DirectoryLookup(ctx context.Context, req Request) *twiml.Response {
	cont := req.Cont
	if cont.Attempt < 1 {
		cont.Attempt = 1
	}
	speech := req.SpeechResult
	if speech == "" {
		speech = strings.ToLower(cont.Speech)
	}

	dir := h.dir
	if len(cont.Candidates) > 0 {
		dir = dir.Restrict(cont.Candidates)
	}
	matches := dir.Match(req.Digits, speech)

	logger := h.logger.With(
		zap.String("call_sid", req.CallSID.String()),
		zap.String("digits", req.Digits),
		zap.String("speech", speech),
		zap.Int("attempt", cont.Attempt),
		zap.Int("matches", len(matches)))

	switch len(matches) {
	case 0:
		h.metrics.RecordDirectoryLookup("no_match")
		if cont.Attempt >= h.settings.MaxDirectoryAttempts {
			logger.Info("directory lookup failed, giving up")
			return h.toOperator("Sorry, I still couldn't find that person. Let me connect you with the front desk.", cont)
		}
		logger.Info("directory lookup found no match")
		retry := Continuation{Caller: cont.Caller, Attempt: cont.Attempt + 1, Reason: reasonNoMatch}
		return twiml.NewResponse(h.redirect(PathDirectory, retry))

	case 1:
		h.metrics.RecordDirectoryLookup("match")
		entry := matches[0].Entry
		logger.Info("directory lookup matched", zap.String("extension", entry.Extension))
		done := Continuation{Caller: cont.Caller, For: entry.Extension}
		return twiml.NewResponse(
			h.say(fmt.Sprintf("Connecting you to %s.", entry.FullName())),
			twiml.DialNumber(entry.Number, h.settings.CallerID, h.links.URL(PathDialComplete, done), h.settings.RingTimeout),
		)

	default:
		h.metrics.RecordDirectoryLookup("ambiguous")
		logger.Info("directory lookup is ambiguous")
		return h.disambiguate(cont, matches)
	}
}

// disambiguate lists the candidates and collects a choice between them
func (h *Handler) disambiguate(cont Continuation, matches []model.ScoredMatch) *twiml.Response {
	exts := make([]string, len(matches))
	options := make([]string, len(matches))
	for i, m := range matches {
		exts[i] = m.Entry.Extension
		who := m.Entry.FullName()
		if m.Entry.Title != "" {
			who += ", " + m.Entry.Title
		}
		options[i] = fmt.Sprintf("For %s, press %s.", who, spellDigits(m.Entry.Extension))
	}

	prompt := "I found more than one person. " + strings.Join(options, " ") + " Or say their full name."
	next := Continuation{Caller: cont.Caller, Attempt: cont.Attempt, Candidates: exts}
	gather := &twiml.Gather{
		Input:         "dtmf speech",
		Action:        h.links.URL(PathDirectoryLookup, next),
		Method:        "POST",
		Timeout:       seconds(h.settings.GatherTimeout),
		NumDigits:     3,
		FinishOnKey:   "#",
		SpeechTimeout: "auto",
		Language:      h.settings.Language,
		Children:      []twiml.Node{h.say(prompt)},
	}
	retry := Continuation{Caller: cont.Caller, Attempt: cont.Attempt + 1, Reason: reasonNoInput}
	return twiml.NewResponse(gather, h.redirect(PathDirectory, retry))
}

func (h *Handler) directoryHints() string {
	entries := h.dir.Entries()
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.FullName())
	}
	return strings.Join(names, ", ")
}

func spellDigits(s string) string {
	return strings.Join(strings.Split(s, ""), " ")
}
