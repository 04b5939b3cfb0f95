// SPDX-License-Identifier: GPL-3.0-or-later

// Copyright (c) 2025 Spruce Health

package ivr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sprucehealth/switchboard/model"
)

func TestNewLinksRequiresAbsoluteURL(t *testing.T) {
	for _, bad := range []string{"", "/voice", "switchboard.example.com", "://bad"} {
		_, err := NewLinks(bad)
		assert.Error(t, err, bad)
	}
}

func TestLinksURL(t *testing.T) {
	links, err := NewLinks("https://example.com/hooks/?ignored=1")
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/hooks/voice/incoming", links.URL(PathIncoming, Continuation{}))
	assert.Equal(t,
		"https://example.com/hooks/voice/hold?conf=sales-1-abc&track=1&type=sales",
		links.URL(PathHold, Continuation{Conf: "sales-1-abc", Team: model.TeamSales, Track: 1}))
	assert.Equal(t,
		"https://example.com/hooks/voice/directory/lookup?speech=jos%C3%A9+%26+co",
		links.URL(PathDirectoryLookup, Continuation{Speech: "josé & co"}))
}

func TestLinksResolve(t *testing.T) {
	links, err := NewLinks("https://example.com/hooks")
	require.NoError(t, err)

	got, err := links.Resolve("https://cdn.example.com/a.mp3")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/a.mp3", got)

	got, err = links.Resolve("/audio/b.mp3")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/audio/b.mp3", got)

	_, err = links.Resolve("http://[::1")
	assert.Error(t, err)
}
