// SPDX-License-Identifier: GPL-3.0-or-later

// Copyright (c) 2025 Spruce Health

// Package intent classifies what a caller said or pressed at the greeting.
package intent

import (
	"strings"

	"github.com/sprucehealth/switchboard/directory"
	"github.com/sprucehealth/switchboard/model"
)

type keywordSet struct {
	route    model.Route
	keywords []string
}

// Checked in order; the first set with a hit wins.
var keywordSets = []keywordSet{
	{model.RouteServices, []string{"services", "service", "learn more", "information", "info", "overview", "what do you do"}},
	{model.RouteDirectory, []string{"directory", "extension", "staff", "employee", "dial by name"}},
	{model.RouteSales, []string{"sales", "buy", "purchase", "pricing", "price", "quote", "new customer", "sign up"}},
	{model.RouteOperator, []string{"operator", "help", "representative", "receptionist", "human", "person", "agent", "someone", "front desk"}},
}

// Longer triggers come first so the longest prefix is stripped.
var phrasalTriggers = []string{
	"can i speak with",
	"can i speak to",
	"put me through to",
	"connect me with",
	"connect me to",
	"transfer me to",
	"transfer to",
	"speak with",
	"speak to",
	"talk with",
	"talk to",
}

var trailingFiller = []string{"please", "thanks", "thank you"}

var legacyDigits = map[string]model.Route{
	"1": model.RouteServices,
	"2": model.RouteDirectory,
	"0": model.RouteOperator,
}

// Router maps greeting input to a route. It holds no mutable state.
type Router struct {
	dir *directory.Directory
}

func NewRouter(dir *directory.Directory) *Router {
	return &Router{dir: dir}
}

// Route classifies a keypress and/or transcript. It always returns exactly one route.
func (r *Router) Route(digits, speech string) model.RouteDecision {
	if route, ok := legacyDigits[strings.TrimSpace(digits)]; ok {
		return model.RouteDecision{Route: route}
	}

	text := directory.Normalize(speech)
	if text == "" {
		return model.RouteDecision{Route: model.RouteUnknown}
	}

	for _, set := range keywordSets {
		for _, kw := range set.keywords {
			if directory.ContainsPhrase(text, kw) {
				return model.RouteDecision{Route: set.route}
			}
		}
	}

	if name := afterTrigger(text); name != "" {
		return model.RouteDecision{Route: model.RouteDirectoryDirect, NameQuery: name}
	}

	if r.dir != nil && r.dir.KnownName(text) {
		return model.RouteDecision{Route: model.RouteDirectoryDirect, NameQuery: text}
	}

	return model.RouteDecision{Route: model.RouteUnknown}
}

// Hints lists phrases the speech recognizer should expect at the greeting.
func (r *Router) Hints() string {
	hints := []string{"services", "directory", "sales", "operator"}
	if r.dir != nil {
		for _, e := range r.dir.Entries() {
			hints = append(hints, e.FullName())
		}
	}
	return strings.Join(hints, ", ")
}

// afterTrigger returns the words following a phrasal trigger, minus
// trailing pleasantries, or "" when no trigger is present.
func afterTrigger(text string) string {
	padded := " " + text + " "
	for _, trigger := range phrasalTriggers {
		i := strings.Index(padded, " "+trigger+" ")
		if i < 0 {
			continue
		}
		rest := strings.TrimSpace(padded[i+len(trigger)+2:])
		for changed := true; changed; {
			changed = false
			for _, filler := range trailingFiller {
				if rest == filler {
					rest = ""
				} else if trimmed, ok := strings.CutSuffix(rest, " "+filler); ok {
					rest = trimmed
					changed = true
				}
			}
		}
		return strings.TrimSpace(strings.TrimPrefix(rest, "the "))
	}
	return ""
}
