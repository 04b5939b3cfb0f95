// SPDX-License-Identifier: GPL-3.0-or-later

// Copyright (c) 2025 Spruce Health

package callsim

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sprucehealth/switchboard/model"
	"github.com/sprucehealth/switchboard/twiml"
)

// docPoster serves fixed documents keyed by path and records every request
type docPoster struct {
	docs     map[string]string
	statuses map[string]int
	requests []postedForm
}

type postedForm struct {
	path string
	form url.Values
}

func (p *docPoster) POST(_ context.Context, target string, form url.Values) (int, []byte, http.Header, error) {
	u, err := url.Parse(target)
	if err != nil {
		return 0, nil, nil, err
	}
	p.requests = append(p.requests, postedForm{path: u.Path, form: form})
	if status, ok := p.statuses[u.Path]; ok {
		return status, nil, nil, nil
	}
	doc, ok := p.docs[u.Path]
	if !ok {
		return http.StatusNotFound, nil, nil, nil
	}
	return http.StatusOK, []byte(doc), nil, nil
}

func (p *docPoster) lastForm(path string) url.Values {
	for i := len(p.requests) - 1; i >= 0; i-- {
		if p.requests[i].path == path {
			return p.requests[i].form
		}
	}
	return nil
}

func TestRunSaysAndHangsUp(t *testing.T) {
	p := &docPoster{docs: map[string]string{
		"/start": `<Response><Say>Hello</Say><Pause length="2"/><Play>https://cdn/x.mp3</Play><Hangup/><Say>never</Say></Response>`,
	}}
	call, err := NewRunner(p, nil).Run(context.Background(), "https://sim.test/start", Script{From: "+15551234567", To: "+15550000000"})
	require.NoError(t, err)

	assert.Equal(t, model.CallCompleted, call.Status)
	assert.Equal(t, []string{"Hello"}, call.Said())
	assert.Equal(t, []Event{
		{Kind: "fetch", Detail: "https://sim.test/start"},
		{Kind: "say", Detail: "Hello"},
		{Kind: "pause", Detail: "2"},
		{Kind: "play", Detail: "https://cdn/x.mp3"},
		{Kind: "hangup"},
	}, call.Events)

	form := p.lastForm("/start")
	assert.Equal(t, "+15551234567", form.Get("From"))
	assert.Equal(t, "in-progress", form.Get("CallStatus"))
	assert.NotEmpty(t, form.Get("CallSid"))
}

func TestRunGatherDigitsAndRelativeAction(t *testing.T) {
	p := &docPoster{docs: map[string]string{
		"/voice/start": `<Response><Gather numDigits="1" action="next"><Say>Press a key</Say></Gather></Response>`,
		"/voice/next":  `<Response><Say>Got it</Say></Response>`,
	}}
	call, err := NewRunner(p, nil).Run(context.Background(), "https://sim.test/voice/start", Script{
		Inputs: []Input{{Digits: "7"}},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"/voice/start", "/voice/next"}, call.Fetched())
	assert.Equal(t, []string{"Press a key", "Got it"}, call.Said())
	assert.Equal(t, "7", p.lastForm("/voice/next").Get("Digits"))
}

func TestRunGatherSpeech(t *testing.T) {
	p := &docPoster{docs: map[string]string{
		"/start": `<Response><Gather input="speech" action="/heard"/></Response>`,
		"/heard": `<Response/>`,
	}}
	_, err := NewRunner(p, nil).Run(context.Background(), "https://sim.test/start", Script{
		Inputs: []Input{{Speech: " sales "}},
	})
	require.NoError(t, err)

	form := p.lastForm("/heard")
	assert.Equal(t, "sales", form.Get("SpeechResult"))
	assert.Empty(t, form.Get("Digits"))
}

func TestRunGatherSilenceFallsThrough(t *testing.T) {
	p := &docPoster{docs: map[string]string{
		"/start": `<Response><Gather action="/never"/><Say>Still there?</Say></Response>`,
	}}
	call, err := NewRunner(p, nil).Run(context.Background(), "https://sim.test/start", Script{})
	require.NoError(t, err)

	assert.True(t, call.Has("gather.timeout"))
	assert.Equal(t, []string{"Still there?"}, call.Said())
	assert.Nil(t, p.lastForm("/never"))
}

func TestRunDialReportsStatus(t *testing.T) {
	p := &docPoster{docs: map[string]string{
		"/start": `<Response><Dial action="/done" timeout="20"><Number>+15555550101</Number></Dial></Response>`,
		"/done":  `<Response><Hangup/></Response>`,
	}}

	call, err := NewRunner(p, nil).Run(context.Background(), "https://sim.test/start", Script{})
	require.NoError(t, err)
	assert.Contains(t, call.Events, Event{Kind: "dial", Detail: "+15555550101"})
	assert.Equal(t, "no-answer", p.lastForm("/done").Get("DialCallStatus"))

	_, err = NewRunner(p, nil).Run(context.Background(), "https://sim.test/start", Script{
		DialStatus: func(*twiml.Dial) model.CallStatus { return model.CallCompleted },
	})
	require.NoError(t, err)
	form := p.lastForm("/done")
	assert.Equal(t, "completed", form.Get("DialCallStatus"))
	assert.NotEmpty(t, form.Get("DialCallSid"))
}

func TestRunConferencePlaysWaitDocuments(t *testing.T) {
	p := &docPoster{docs: map[string]string{
		"/start": `<Response><Dial action="/done"><Conference waitUrl="/hold">team-1-a</Conference></Dial></Response>`,
		"/hold":  `<Response><Play>https://cdn/hold.mp3</Play><Redirect>/hold</Redirect></Response>`,
		"/done":  `<Response/>`,
	}}
	call, err := NewRunner(p, nil).Run(context.Background(), "https://sim.test/start", Script{HoldRounds: 3})
	require.NoError(t, err)

	assert.Equal(t, []string{"/start", "/hold", "/hold", "/hold", "/done"}, call.Fetched())
	assert.Contains(t, call.Events, Event{Kind: "conference", Detail: "team-1-a"})
}

func TestRunRejectsVerbsInWaitDocument(t *testing.T) {
	p := &docPoster{docs: map[string]string{
		"/start": `<Response><Dial><Conference waitUrl="/hold">team-1-a</Conference></Dial></Response>`,
		"/hold":  `<Response><Gather/></Response>`,
	}}
	call, err := NewRunner(p, nil).Run(context.Background(), "https://sim.test/start", Script{HoldRounds: 1})
	require.Error(t, err)
	assert.Equal(t, model.CallFailed, call.Status)
}

func TestRunRecordAndTranscription(t *testing.T) {
	p := &docPoster{docs: map[string]string{
		"/start":         `<Response><Record action="/recorded" maxLength="30" transcribe="true" transcribeCallback="/transcription"/><Say>No message</Say></Response>`,
		"/recorded":      `<Response><Say>Thanks</Say></Response>`,
		"/transcription": `<Response/>`,
	}}

	call, err := NewRunner(p, nil).Run(context.Background(), "https://sim.test/start", Script{})
	require.NoError(t, err)
	assert.Equal(t, []string{"No message"}, call.Said())
	assert.True(t, call.Has("record.timeout"))

	call, err = NewRunner(p, nil).Run(context.Background(), "https://sim.test/start", Script{
		RecordingSeconds: 90,
		Transcription:    "please call me back",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Thanks"}, call.Said())
	assert.Equal(t, "30", p.lastForm("/recorded").Get("RecordingDuration"))
	assert.Equal(t, "please call me back", p.lastForm("/transcription").Get("TranscriptionText"))
}

func TestRunFailsOnBadResponses(t *testing.T) {
	p := &docPoster{
		docs:     map[string]string{"/bad": `<Response><Enqueue>q</Enqueue></Response>`},
		statuses: map[string]int{"/broken": http.StatusInternalServerError},
	}

	for _, path := range []string{"/broken", "/bad", "/missing"} {
		call, err := NewRunner(p, nil).Run(context.Background(), "https://sim.test"+path, Script{})
		require.Error(t, err, path)
		assert.Equal(t, model.CallFailed, call.Status, path)
	}
}

func TestRunStopsRunawayCalls(t *testing.T) {
	p := &docPoster{docs: map[string]string{
		"/loop": `<Response><Redirect>/loop</Redirect></Response>`,
	}}
	call, err := NewRunner(p, nil).Run(context.Background(), "https://sim.test/loop", Script{})
	require.True(t, errors.Is(err, ErrRunaway))
	assert.Len(t, call.Fetched(), DefaultMaxFetches)
}

func TestResolveURL(t *testing.T) {
	got, err := resolveURL("https://sim.test/voice/a?x=1", "b?y=2")
	require.NoError(t, err)
	assert.Equal(t, "https://sim.test/voice/b?y=2", got)

	got, err = resolveURL("", "https://other.test/c")
	require.NoError(t, err)
	assert.Equal(t, "https://other.test/c", got)

	_, err = resolveURL("", "/relative")
	assert.Error(t, err)
}
