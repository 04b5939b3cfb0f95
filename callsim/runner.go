// SPDX-License-Identifier: GPL-3.0-or-later

// Copyright (c) 2025 Spruce Health

// Package callsim walks a scripted inbound call through the voice webhooks the
// way the platform does: fetch TwiML, play it, answer gathers from the script,
// follow redirects and report dial and record outcomes to their actions.
package callsim

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sprucehealth/switchboard/model"
	"github.com/sprucehealth/switchboard/twiml"
)

// DefaultMaxFetches bounds how many documents one call may fetch
const DefaultMaxFetches = 50

var (
	// ErrRunaway is returned when a call keeps fetching documents without ending
	ErrRunaway = errors.New("callsim: too many webhook fetches")
	// errHungUp stops execution after <Hangup/>
	errHungUp = errors.New("call hung up")
)

// Poster sends a form-encoded webhook. notify.DefaultWebhookClient satisfies it.
type Poster interface {
	POST(ctx context.Context, url string, form url.Values) (status int, body []byte, headers http.Header, err error)
}

// Input is what the caller does at one <Gather>. Both fields empty means silence.
type Input struct {
	Digits string
	Speech string
}

// Script describes the simulated caller and how the outside world behaves
type Script struct {
	CallSID model.SID
	From    string
	To      string
	// Inputs answer gathers in order. Running out means silence.
	Inputs []Input
	// DialStatus decides each <Dial> outcome. Nil means nobody answers.
	DialStatus func(dial *twiml.Dial) model.CallStatus
	// HoldRounds is how many wait documents a caller hears in a conference
	HoldRounds int
	// RecordingSeconds is the length of any message left at <Record>. Zero is silence.
	RecordingSeconds int
	// Transcription is posted to the transcribe callback after a recording
	Transcription string
}

// Event is one thing that happened on the call
type Event struct {
	Kind   string
	Detail string
}

// Call is the outcome of a simulated call
type Call struct {
	SID    model.SID
	Status model.CallStatus
	Events []Event

	script  Script
	inputs  int
	fetches int
	docURL  string
}

// Said returns every spoken prompt in order
func (c *Call) Said() []string {
	var said []string
	for _, e := range c.Events {
		if e.Kind == "say" {
			said = append(said, e.Detail)
		}
	}
	return said
}

// Fetched returns the path of every document fetched, in order
func (c *Call) Fetched() []string {
	var paths []string
	for _, e := range c.Events {
		if e.Kind != "fetch" {
			continue
		}
		if u, err := url.Parse(e.Detail); err == nil {
			paths = append(paths, u.Path)
		}
	}
	return paths
}

// Has reports whether an event of the given kind occurred
func (c *Call) Has(kind string) bool {
	for _, e := range c.Events {
		if e.Kind == kind {
			return true
		}
	}
	return false
}

// Runner drives simulated calls against a set of webhooks
type Runner struct {
	poster     Poster
	logger     *zap.Logger
	maxFetches int
	timeout    time.Duration
}

// NewRunner creates a runner that sends every webhook through poster
func NewRunner(poster Poster, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		poster:     poster,
		logger:     logger,
		maxFetches: DefaultMaxFetches,
		timeout:    10 * time.Second,
	}
}

// Run answers the call at startURL and executes documents until the call ends.
// The returned Call is populated even when err is non-nil.
func (r *Runner) Run(ctx context.Context, startURL string, script Script) (*Call, error) {
	if script.CallSID == "" {
		script.CallSID = "CAsimulated00000000000000000000000"
	}
	call := &Call{SID: script.CallSID, Status: model.CallInProgress, script: script}

	resp, err := r.fetch(ctx, call, startURL, nil)
	if err == nil {
		err = r.execute(ctx, call, resp)
	}
	switch {
	case err == nil, errors.Is(err, errHungUp):
		call.Status = model.CallCompleted
		return call, nil
	default:
		r.logger.Warn("simulated call failed", zap.String("call_sid", string(call.SID)), zap.Error(err))
		call.Status = model.CallFailed
		return call, err
	}
}

func (r *Runner) fetch(ctx context.Context, call *Call, target string, extra url.Values) (*twiml.Response, error) {
	call.fetches++
	if call.fetches > r.maxFetches {
		return nil, ErrRunaway
	}
	target, err := resolveURL(call.docURL, target)
	if err != nil {
		return nil, err
	}

	form := callForm(call)
	for k, v := range extra {
		form[k] = v
	}
	call.add("fetch", target)

	reqCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	status, body, _, err := r.poster.POST(reqCtx, target, form)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", target, err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", target, status)
	}
	resp, err := twiml.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", target, err)
	}
	r.logger.Debug("simulated fetch", zap.String("url", target), zap.Int("verbs", len(resp.Children)))
	call.docURL = target
	return resp, nil
}

// execute runs verbs in order. A verb that fetches a new document hands the
// rest of the call to it.
func (r *Runner) execute(ctx context.Context, call *Call, resp *twiml.Response) error {
	for _, node := range resp.Children {
		if err := ctx.Err(); err != nil {
			return err
		}
		next, err := r.executeNode(ctx, call, node)
		if err != nil {
			return err
		}
		if next != nil {
			return r.execute(ctx, call, next)
		}
	}
	return nil
}

func (r *Runner) executeNode(ctx context.Context, call *Call, node twiml.Node) (*twiml.Response, error) {
	switch n := node.(type) {
	case *twiml.Say:
		call.add("say", n.Text)
	case *twiml.Play:
		call.add("play", n.URL)
	case *twiml.Pause:
		call.add("pause", strconv.Itoa(int(n.Length/time.Second)))
	case *twiml.Gather:
		return r.executeGather(ctx, call, n)
	case *twiml.Dial:
		return r.executeDial(ctx, call, n)
	case *twiml.Record:
		return r.executeRecord(ctx, call, n)
	case *twiml.Redirect:
		call.add("redirect", n.URL)
		return r.fetch(ctx, call, n.URL, nil)
	case *twiml.Hangup:
		call.add("hangup", "")
		return nil, errHungUp
	default:
		return nil, fmt.Errorf("cannot execute %T", node)
	}
	return nil, nil
}

func (r *Runner) executeGather(ctx context.Context, call *Call, gather *twiml.Gather) (*twiml.Response, error) {
	call.add("gather", gather.Input)
	for _, child := range gather.Children {
		if _, err := r.executeNode(ctx, call, child); err != nil {
			return nil, err
		}
	}

	in := call.nextInput()
	if in.Digits == "" && in.Speech == "" {
		call.add("gather.timeout", "")
		return nil, nil
	}

	form := url.Values{}
	if in.Digits != "" {
		form.Set("Digits", in.Digits)
		call.add("digits", in.Digits)
	} else {
		form.Set("SpeechResult", in.Speech)
		form.Set("Confidence", "0.9")
		call.add("speech", in.Speech)
	}
	action := gather.Action
	if action == "" {
		action = call.docURL
	}
	return r.fetch(ctx, call, action, form)
}

func (r *Runner) executeDial(ctx context.Context, call *Call, dial *twiml.Dial) (*twiml.Response, error) {
	for _, child := range dial.Children {
		switch c := child.(type) {
		case *twiml.Number:
			call.add("dial", c.Number)
		case *twiml.Conference:
			call.add("conference", c.Name)
			if err := r.hold(ctx, call, c); err != nil {
				return nil, err
			}
		}
	}

	status := model.CallNoAnswer
	if call.script.DialStatus != nil {
		status = call.script.DialStatus(dial)
	}
	call.add("dial.status", string(status))
	if dial.Action == "" {
		return nil, nil
	}

	form := url.Values{}
	form.Set("DialCallStatus", string(status))
	if status == model.CallCompleted || status == model.CallAnswered {
		form.Set("DialCallSid", "CAdialed000000000000000000000000000")
	}
	return r.fetch(ctx, call, dial.Action, form)
}

// hold plays the conference wait documents, following their redirects
func (r *Runner) hold(ctx context.Context, call *Call, conf *twiml.Conference) error {
	waitURL := conf.WaitURL
	for round := 0; round < call.script.HoldRounds && waitURL != ""; round++ {
		doc, err := r.fetch(ctx, call, waitURL, nil)
		if err != nil {
			return err
		}
		waitURL = ""
		for _, node := range doc.Children {
			switch n := node.(type) {
			case *twiml.Say, *twiml.Play, *twiml.Pause:
				if _, err := r.executeNode(ctx, call, n); err != nil {
					return err
				}
			case *twiml.Redirect:
				waitURL = n.URL
			default:
				return fmt.Errorf("<%T> is not allowed in a wait document", node)
			}
		}
	}
	return nil
}

func (r *Runner) executeRecord(ctx context.Context, call *Call, record *twiml.Record) (*twiml.Response, error) {
	call.add("record", strconv.Itoa(int(record.MaxLength/time.Second)))
	secs := call.script.RecordingSeconds
	if secs <= 0 {
		call.add("record.timeout", "")
		return nil, nil
	}
	if limit := int(record.MaxLength / time.Second); limit > 0 && secs > limit {
		secs = limit
	}

	recordingURL := "https://api.twilio.com/2010-04-01/Accounts/ACsimulated/Recordings/REsimulated"
	form := url.Values{}
	form.Set("RecordingUrl", recordingURL)
	form.Set("RecordingDuration", strconv.Itoa(secs))

	if record.Transcribe && record.TranscribeCallback != "" && call.script.Transcription != "" {
		if err := r.transcribe(ctx, call, record.TranscribeCallback, recordingURL, secs); err != nil {
			return nil, err
		}
	}

	action := record.Action
	if action == "" {
		action = call.docURL
	}
	return r.fetch(ctx, call, action, form)
}

// transcribe delivers the transcription callback. Its body is not TwiML.
func (r *Runner) transcribe(ctx context.Context, call *Call, callback, recordingURL string, secs int) error {
	target, err := resolveURL(call.docURL, callback)
	if err != nil {
		return err
	}
	form := callForm(call)
	form.Set("TranscriptionText", call.script.Transcription)
	form.Set("TranscriptionStatus", "completed")
	form.Set("RecordingUrl", recordingURL)
	form.Set("RecordingDuration", strconv.Itoa(secs))
	call.add("transcription", target)

	reqCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	status, _, _, err := r.poster.POST(reqCtx, target, form)
	if err != nil {
		return fmt.Errorf("transcription callback: %w", err)
	}
	if status >= http.StatusBadRequest {
		return fmt.Errorf("transcription callback: status %d", status)
	}
	return nil
}

func (c *Call) add(kind, detail string) {
	c.Events = append(c.Events, Event{Kind: kind, Detail: detail})
}

func (c *Call) nextInput() Input {
	if c.inputs >= len(c.script.Inputs) {
		return Input{}
	}
	in := c.script.Inputs[c.inputs]
	c.inputs++
	in.Digits = strings.TrimSpace(in.Digits)
	in.Speech = strings.TrimSpace(in.Speech)
	return in
}

func callForm(c *Call) url.Values {
	form := url.Values{}
	form.Set("CallSid", string(c.SID))
	form.Set("AccountSid", "ACsimulated")
	form.Set("From", c.script.From)
	form.Set("To", c.script.To)
	form.Set("CallStatus", string(c.Status))
	form.Set("Direction", "inbound")
	return form
}

// resolveURL resolves target relative to the current document URL
func resolveURL(current, target string) (string, error) {
	u, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", target, err)
	}
	if u.IsAbs() {
		return u.String(), nil
	}
	if current == "" {
		return "", fmt.Errorf("cannot resolve relative URL %q without a base", target)
	}
	base, err := url.Parse(current)
	if err != nil {
		return "", fmt.Errorf("invalid base URL %q: %w", current, err)
	}
	return base.ResolveReference(u).String(), nil
}
