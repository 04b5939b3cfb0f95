// SPDX-License-Identifier: GPL-3.0-or-later

// Copyright (c) 2025 Spruce Health

package ivr

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sprucehealth/switchboard/twiml"
)

func TestGreetingFirstAttempt(t *testing.T) {
	env := newTestEnv(t)
	nodes := render(t, env.handler.Greeting(context.Background(), Request{CallSID: "CA1", From: "+15551234567"}))
	require.Len(t, nodes, 2)

	gather := nodeAs[*twiml.Gather](t, nodes, 0)
	assert.Equal(t, "dtmf speech", gather.Input)
	assert.Equal(t, 1, gather.NumDigits)
	assert.Equal(t, "6", gather.Timeout)
	assert.Equal(t, "auto", gather.SpeechTimeout)
	assert.Contains(t, gather.Hints, "Karen Gliwa")
	path, q := splitURL(t, gather.Action)
	assert.Equal(t, PathRoute, path)
	assert.Equal(t, "+15551234567", q.Get("caller"))

	say := nodeAs[*twiml.Say](t, gather.Children, 0)
	assert.Contains(t, say.Text, "Thank you for calling Acme Health")
	assert.NotContains(t, say.Text, "Sorry")

	redirect := nodeAs[*twiml.Redirect](t, nodes, 1)
	path, q = splitURL(t, redirect.URL)
	assert.Equal(t, PathIncoming, path)
	assert.Equal(t, "2", q.Get("attempt"))
}

func TestGreetingSecondAttemptFallsBackToOperator(t *testing.T) {
	env := newTestEnv(t)
	req := Request{CallSID: "CA1", From: "+15551234567", Cont: Continuation{Attempt: 2}}
	nodes := render(t, env.handler.Greeting(context.Background(), req))
	require.Len(t, nodes, 2)

	gather := nodeAs[*twiml.Gather](t, nodes, 0)
	say := nodeAs[*twiml.Say](t, gather.Children, 0)
	assert.Contains(t, say.Text, "Sorry, I didn't catch that.")

	redirect := nodeAs[*twiml.Redirect](t, nodes, 1)
	path, q := splitURL(t, redirect.URL)
	assert.Equal(t, PathConnect, path)
	assert.Equal(t, "operator", q.Get("type"))
	assert.Equal(t, "+15551234567", q.Get("caller"))
}

func TestRouteBranches(t *testing.T) {
	tests := []struct {
		name   string
		digits string
		speech string
		path   string
		query  map[string]string
		spoken bool
	}{
		{name: "services digit", digits: "1", path: PathServices},
		{name: "directory digit", digits: "2", path: PathDirectory, query: map[string]string{"attempt": "1"}},
		{name: "operator digit", digits: "0", path: PathConnect, query: map[string]string{"type": "operator"}},
		{name: "sales speech", speech: "i'd like pricing", path: PathConnect, query: map[string]string{"type": "sales"}},
		{name: "directory speech", speech: "the staff directory", path: PathDirectory},
		{
			name:   "direct name",
			speech: "can i speak with karen gliwa",
			path:   PathDirectoryLookup,
			query:  map[string]string{"speech": "karen gliwa", "attempt": "1"},
		},
		{name: "unknown", speech: "blue bicycle", path: PathConnect, query: map[string]string{"type": "operator"}, spoken: true},
		{name: "silence", path: PathConnect, query: map[string]string{"type": "operator"}, spoken: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			req := Request{CallSID: "CA1", From: "+15551234567", Digits: tt.digits, SpeechResult: tt.speech}
			nodes := render(t, env.handler.Route(context.Background(), req))

			if tt.spoken {
				require.Len(t, nodes, 2)
				nodeAs[*twiml.Say](t, nodes, 0)
			} else {
				require.Len(t, nodes, 1)
			}
			redirect := nodeAs[*twiml.Redirect](t, nodes, len(nodes)-1)
			assert.Equal(t, "POST", redirect.Method)
			path, q := splitURL(t, redirect.URL)
			assert.Equal(t, tt.path, path)
			for k, v := range tt.query {
				assert.Equal(t, v, q.Get(k), k)
			}
		})
	}
}

func TestServicesReturnsToGreeting(t *testing.T) {
	env := newTestEnv(t)
	nodes := render(t, env.handler.Services(context.Background(), Request{CallSID: "CA1"}))
	require.Len(t, nodes, 3)

	say := nodeAs[*twiml.Say](t, nodes, 0)
	assert.Equal(t, "Acme Health offers primary care and telehealth visits.", say.Text)
	nodeAs[*twiml.Pause](t, nodes, 1)
	redirect := nodeAs[*twiml.Redirect](t, nodes, 2)
	path, q := splitURL(t, redirect.URL)
	assert.Equal(t, PathIncoming, path)
	assert.Empty(t, q)
}
