// SPDX-License-Identifier: GPL-3.0-or-later

// Copyright (c) 2025 Spruce Health

package directory

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sprucehealth/switchboard/model"
)

func mustLoadRoster(t *testing.T) *Directory {
	t.Helper()
	d, err := LoadFile("testdata/roster.toml")
	require.NoError(t, err)
	require.Equal(t, 8, d.Len())
	return d
}

func extensions(matches []model.ScoredMatch) []string {
	var out []string
	for _, m := range matches {
		out = append(out, m.Entry.Extension)
	}
	return out
}

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		"José O'Brien-Smith!":        "jose obrien smith",
		"  Can I   speak with Karen ": "can i speak with karen",
		"ÁLVAREZ":                    "alvarez",
		"...":                        "",
		"":                           "",
		"extension 1-0-1":            "extension 1 0 1",
	}
	for in, want := range tests {
		assert.Equal(t, want, Normalize(in), "Normalize(%q)", in)
	}
}

func TestContainsPhrase(t *testing.T) {
	assert.True(t, ContainsPhrase("talk to karen gliwa please", "karen gliwa"))
	assert.True(t, ContainsPhrase("karen", "karen"))
	assert.False(t, ContainsPhrase("karenina", "karen"))
	assert.False(t, ContainsPhrase("anything", ""))
}

func TestMatchDigits(t *testing.T) {
	d := mustLoadRoster(t)

	matches := d.Match("101", "")
	require.Len(t, matches, 1)
	assert.Equal(t, "Karen", matches[0].Entry.FirstName)

	// digits win over speech and never fall back to it
	assert.Equal(t, []string{"101"}, extensions(d.Match("101", "smith")))
	assert.Empty(t, d.Match("999", "karen gliwa"))
	assert.Empty(t, d.Match("1", ""))
	assert.Empty(t, d.Match("1010", ""))
}

func TestMatchEveryExtensionExactly(t *testing.T) {
	d := mustLoadRoster(t)
	for _, e := range d.Entries() {
		assert.Equal(t, []string{e.Extension}, extensions(d.Match(e.Extension, "")))
	}
}

func TestMatchSpeechScores(t *testing.T) {
	d := mustLoadRoster(t)

	tests := []struct {
		speech string
		want   []string
		score  int
	}{
		{"karen gliwa", []string{"101"}, ScoreFullName},
		{"gliwa karen", []string{"101"}, ScoreLastFirst},
		{"can i speak with karen gliwa", []string{"101"}, ScoreContainsFullName},
		{"Jose Alvarez", []string{"105"}, ScoreFullName},
		{"karen", []string{"101"}, ScoreFirstName},
		{"kay", []string{"101"}, ScoreAlias},
		{"shawn", []string{"106"}, ScoreAlias},
		{"is gliwa in", []string{"101"}, ScoreContainsLastName},
		{"i need sean", []string{"106"}, ScoreContainsFirst},
		{"get me shawn now", []string{"106"}, ScoreContainsAlias},
		{"obrien", []string{"106"}, ScoreLastName},
		{"al", []string{"104"}, ScoreFirstName},
	}
	for _, tt := range tests {
		t.Run(tt.speech, func(t *testing.T) {
			matches := d.Match("", tt.speech)
			require.Equal(t, tt.want, extensions(matches))
			assert.Equal(t, tt.score, matches[0].Score)
		})
	}
}

func TestMatchShortNamesExcludedFromSubstring(t *testing.T) {
	d := mustLoadRoster(t)
	assert.Empty(t, d.Match("", "call al please"))
	assert.Empty(t, d.Match("", "is ng there"))
}

func TestMatchAmbiguous(t *testing.T) {
	d := mustLoadRoster(t)

	// four entries score, only three are offered
	matches := d.Match("", "smith")
	assert.Equal(t, []string{"102", "103", "108"}, extensions(matches))
	for _, m := range matches {
		assert.Equal(t, ScoreLastName, m.Score)
	}

	sub := d.Restrict([]string{"102", "103", "107"})
	matches = sub.Match("", "smith")
	assert.Equal(t, []string{"102", "103", "107"}, extensions(matches))
	assert.Equal(t, []int{80, 80, 70}, []int{matches[0].Score, matches[1].Score, matches[2].Score})
}

func TestMatchConfidentLead(t *testing.T) {
	d := mustLoadRoster(t)

	matches := d.Match("", "jane smith")
	require.Len(t, matches, 1)
	assert.Equal(t, "103", matches[0].Entry.Extension)
	assert.Equal(t, ScoreFullName, matches[0].Score)
}

func TestMatchFullNameAlwaysAlone(t *testing.T) {
	d := mustLoadRoster(t)
	for _, e := range d.Entries() {
		if len(Normalize(e.FirstName)) <= 2 {
			continue
		}
		matches := d.Match("", "please put me through to "+e.FullName()+" thanks")
		require.Len(t, matches, 1, e.FullName())
		assert.Equal(t, e.Extension, matches[0].Entry.Extension)
		assert.GreaterOrEqual(t, matches[0].Score, ScoreContainsFullName)
	}
}

func TestMatchEmptyAndGarbage(t *testing.T) {
	d := mustLoadRoster(t)
	assert.Empty(t, d.Match("", ""))
	assert.Empty(t, d.Match("  ", "  "))
	assert.Empty(t, d.Match("", "?!#"))
	assert.Empty(t, d.Match("", "the weather today"))
	assert.Empty(t, d.Match("abc", ""))
}

func TestRestrictAndLookup(t *testing.T) {
	d := mustLoadRoster(t)

	sub := d.Restrict([]string{"106", "999", "101"})
	require.Equal(t, 2, sub.Len())
	assert.Equal(t, []string{"101", "106"}, []string{sub.Entries()[0].Extension, sub.Entries()[1].Extension})

	_, ok := sub.Lookup("102")
	assert.False(t, ok)
	e, ok := sub.Lookup("106")
	require.True(t, ok)
	assert.Equal(t, "O'Brien", e.LastName)

	// the restricted roster is scored on its own
	assert.Equal(t, []string{"106"}, extensions(sub.Match("", "shawn")))
	assert.Empty(t, sub.Match("", "smith"))
}

func TestEntriesAreCopies(t *testing.T) {
	d := mustLoadRoster(t)
	entries := d.Entries()
	entries[0].Aliases[0] = "mutated"
	entries[0].FirstName = "Mutated"

	e, _ := d.Lookup("101")
	assert.Equal(t, "Karen", e.FirstName)
	assert.Equal(t, []string{"kay"}, e.Aliases)
}

func TestKnownName(t *testing.T) {
	d := mustLoadRoster(t)
	assert.True(t, d.KnownName("is karen around"))
	assert.True(t, d.KnownName("looking for mr obrien"))
	assert.True(t, d.KnownName("al ng"))
	assert.False(t, d.KnownName("al"))
	assert.False(t, d.KnownName("i want pricing"))
	assert.False(t, d.KnownName(""))
}

func TestNewValidation(t *testing.T) {
	valid := model.DirectoryEntry{FirstName: "Karen", LastName: "Gliwa", Extension: "101", Number: "+15555550101"}

	tests := []struct {
		name  string
		entry model.DirectoryEntry
		err   error
	}{
		{"short extension", model.DirectoryEntry{FirstName: "A", Extension: "12", Number: "+15555550101"}, ErrInvalidExtension},
		{"letters in extension", model.DirectoryEntry{FirstName: "A", Extension: "1a2", Number: "+15555550101"}, ErrInvalidExtension},
		{"local number", model.DirectoryEntry{FirstName: "A", Extension: "102", Number: "555-0101"}, ErrInvalidNumber},
		{"no name", model.DirectoryEntry{Extension: "102", Number: "+15555550101"}, ErrMissingName},
		{"duplicate", model.DirectoryEntry{FirstName: "Kay", Extension: "101", Number: "+15555550199"}, ErrDuplicateExtension},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New([]model.DirectoryEntry{valid, tt.entry})
			require.ErrorIs(t, err, tt.err)
		})
	}

	d, err := New(nil)
	require.NoError(t, err)
	assert.Empty(t, d.Match("", "karen"))
}

func TestLoadRejectsBadFiles(t *testing.T) {
	_, err := Load(strings.NewReader("version = 2\n"))
	require.ErrorContains(t, err, "unsupported directory roster version")

	_, err = Load(strings.NewReader("[[entries]]\nfirst_name = \"A\"\nnickname = \"x\"\n"))
	require.Error(t, err)

	_, err = Load(strings.NewReader("[[entries]\n"))
	require.ErrorContains(t, err, "decode directory roster")

	_, err = LoadFile("testdata/missing.toml")
	require.ErrorContains(t, err, "open directory roster")
}
