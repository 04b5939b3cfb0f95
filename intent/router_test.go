// SPDX-License-Identifier: GPL-3.0-or-later

// Copyright (c) 2025 Spruce Health

package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sprucehealth/switchboard/directory"
	"github.com/sprucehealth/switchboard/model"
)

func newTestRouter(t *testing.T) *Router {
	t.Helper()
	dir, err := directory.New([]model.DirectoryEntry{
		{FirstName: "Karen", LastName: "Gliwa", Extension: "101", Number: "+15555550101", Title: "Office Manager"},
		{FirstName: "Sean", LastName: "O'Brien", Extension: "106", Number: "+15555550106", Aliases: []string{"shawn"}},
		{FirstName: "Al", LastName: "Ng", Extension: "104", Number: "+15555550104"},
	})
	require.NoError(t, err)
	return NewRouter(dir)
}

func TestRoute(t *testing.T) {
	r := newTestRouter(t)

	tests := []struct {
		name   string
		digits string
		speech string
		want   model.RouteDecision
	}{
		{"digit services", "1", "", model.RouteDecision{Route: model.RouteServices}},
		{"digit directory", "2", "", model.RouteDecision{Route: model.RouteDirectory}},
		{"digit operator", "0", "", model.RouteDecision{Route: model.RouteOperator}},
		{"digit beats speech", "1", "sales please", model.RouteDecision{Route: model.RouteServices}},
		{"unmapped digit falls to speech", "7", "sales", model.RouteDecision{Route: model.RouteSales}},
		{"unmapped digit alone", "7", "", model.RouteDecision{Route: model.RouteUnknown}},
		{"services", "", "i'd like to learn more about you", model.RouteDecision{Route: model.RouteServices}},
		{"what do you do", "", "what do you do", model.RouteDecision{Route: model.RouteServices}},
		{"directory", "", "dial by name", model.RouteDecision{Route: model.RouteDirectory}},
		{"sales", "", "i want a quote", model.RouteDecision{Route: model.RouteSales}},
		{"operator", "", "representative", model.RouteDecision{Route: model.RouteOperator}},
		{"earliest set wins", "", "sales information", model.RouteDecision{Route: model.RouteServices}},
		{"sales before operator", "", "can i speak with someone in sales", model.RouteDecision{Route: model.RouteSales}},
		{"keyword before phrase", "", "talk to a human", model.RouteDecision{Route: model.RouteOperator}},
		{"speak with name", "", "can I speak with Karen Gliwa", model.RouteDecision{Route: model.RouteDirectoryDirect, NameQuery: "karen gliwa"}},
		{"transfer with filler", "", "transfer me to Sean O'Brien please", model.RouteDecision{Route: model.RouteDirectoryDirect, NameQuery: "sean obrien"}},
		{"unknown name after trigger", "", "put me through to mister wilson thank you", model.RouteDecision{Route: model.RouteDirectoryDirect, NameQuery: "mister wilson"}},
		{"known name alone", "", "karen", model.RouteDecision{Route: model.RouteDirectoryDirect, NameQuery: "karen"}},
		{"known alias", "", "is shawn there", model.RouteDecision{Route: model.RouteDirectoryDirect, NameQuery: "is shawn there"}},
		{"short name gated", "", "al", model.RouteDecision{Route: model.RouteUnknown}},
		{"trigger with nothing after", "", "talk to", model.RouteDecision{Route: model.RouteUnknown}},
		{"trigger then filler only", "", "speak to please", model.RouteDecision{Route: model.RouteUnknown}},
		{"no match", "", "what's the weather", model.RouteDecision{Route: model.RouteUnknown}},
		{"empty", "", "", model.RouteDecision{Route: model.RouteUnknown}},
		{"punctuation only", "", "?!", model.RouteDecision{Route: model.RouteUnknown}},
		{"partial word", "", "salesforce", model.RouteDecision{Route: model.RouteUnknown}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Route(tt.digits, tt.speech))
		})
	}
}

func TestRouteIsTotal(t *testing.T) {
	r := newTestRouter(t)
	valid := map[model.Route]bool{
		model.RouteServices:        true,
		model.RouteDirectory:       true,
		model.RouteDirectoryDirect: true,
		model.RouteSales:           true,
		model.RouteOperator:        true,
		model.RouteUnknown:         true,
	}
	digits := []string{"", "0", "1", "2", "3", "9", "*", "#", "12", "abc"}
	speech := []string{"", " ", "sales", "karen", "speak with", "x", "ñ", "connect me with the billing team", "\x00\xff"}
	for _, d := range digits {
		for _, s := range speech {
			decision := r.Route(d, s)
			assert.True(t, valid[decision.Route], "Route(%q, %q) = %q", d, s, decision.Route)
			if decision.Route != model.RouteDirectoryDirect {
				assert.Empty(t, decision.NameQuery)
			}
		}
	}
}

func TestRouteWithoutDirectory(t *testing.T) {
	r := NewRouter(nil)
	assert.Equal(t, model.RouteUnknown, r.Route("", "karen").Route)
	assert.Equal(t, model.RouteOperator, r.Route("0", "").Route)
}

func TestHints(t *testing.T) {
	r := newTestRouter(t)
	assert.Equal(t, "services, directory, sales, operator, Karen Gliwa, Sean O'Brien, Al Ng", r.Hints())
}
