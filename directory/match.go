// SPDX-License-Identifier: GPL-3.0-or-later

// Copyright (c) 2025 Spruce Health

package directory

import (
	"slices"
	"strings"

	"github.com/sprucehealth/switchboard/model"
)

// Scores awarded by the speech rules, highest priority first
const (
	ScoreFullName         = 100
	ScoreLastFirst        = 95
	ScoreContainsFullName = 90
	ScoreLastName         = 80
	ScoreFirstName        = 70
	ScoreAlias            = 70
	ScoreContainsLastName = 60
	ScoreContainsFirst    = 50
	ScoreContainsAlias    = 50
)

const (
	// ConfidentLead is how far the top candidate must lead the runner-up to be returned alone
	ConfidentLead = 20
	// MaxCandidates bounds the disambiguation list
	MaxCandidates = 3
)

// Match looks up a caller's input. Digits take precedence and must match an
// extension exactly. Otherwise speech is scored against every entry and
// the result is one confident match, up to MaxCandidates ambiguous ones,
// or nothing.
func (d *Directory) Match(digits, speech string) []model.ScoredMatch {
	if digits = strings.TrimSpace(digits); digits != "" {
		i, ok := d.byExt[digits]
		if !ok {
			return nil
		}
		return []model.ScoredMatch{{Entry: d.entries[i], Score: ScoreFullName}}
	}

	speech = Normalize(speech)
	if speech == "" {
		return nil
	}

	var matches []model.ScoredMatch
	for i, k := range d.keys {
		if score := k.score(speech); score > 0 {
			matches = append(matches, model.ScoredMatch{Entry: d.entries[i], Score: score})
		}
	}
	if len(matches) == 0 {
		return nil
	}

	slices.SortStableFunc(matches, func(a, b model.ScoredMatch) int {
		return b.Score - a.Score
	})

	if len(matches) == 1 || matches[0].Score-matches[1].Score >= ConfidentLead {
		return matches[:1]
	}
	if len(matches) > MaxCandidates {
		matches = matches[:MaxCandidates]
	}
	return matches
}

// score applies the rules in descending priority; the first rule that holds wins
func (k nameKeys) score(speech string) int {
	switch {
	case k.full != "" && speech == k.full:
		return ScoreFullName
	case k.first != "" && k.last != "" && speech == k.lastFirst:
		return ScoreLastFirst
	case ContainsPhrase(speech, k.full):
		return ScoreContainsFullName
	case k.last != "" && speech == k.last:
		return ScoreLastName
	case k.first != "" && speech == k.first:
		return ScoreFirstName
	case slices.Contains(k.aliases, speech):
		return ScoreAlias
	case longEnough(k.last) && ContainsPhrase(speech, k.last):
		return ScoreContainsLastName
	case longEnough(k.first) && ContainsPhrase(speech, k.first):
		return ScoreContainsFirst
	}
	for _, a := range k.aliases {
		if longEnough(a) && ContainsPhrase(speech, a) {
			return ScoreContainsAlias
		}
	}
	return 0
}
