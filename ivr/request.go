// SPDX-License-Identifier: GPL-3.0-or-later

// Copyright (c) 2025 Spruce Health

package ivr

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/sprucehealth/switchboard/model"
)

// Request is the normalized input of one webhook invocation.
// SpeechResult is lower-cased.
type Request struct {
	CallSID             model.SID
	From                string
	To                  string
	Digits              string
	SpeechResult        string
	CallStatus          model.CallStatus
	DialCallStatus      model.CallStatus
	RecordingURL        string
	RecordingDuration   string
	TranscriptionText   string
	TranscriptionStatus string
	Cont                Continuation
}

// ParseRequest reads platform form fields from the query string and body,
// and the continuation from the query string only.
func ParseRequest(r *http.Request) (Request, error) {
	if err := r.ParseForm(); err != nil {
		return Request{}, fmt.Errorf("parse webhook form: %w", err)
	}
	form := r.Form
	return Request{
		CallSID:             model.SID(form.Get("CallSid")),
		From:                strings.TrimSpace(form.Get("From")),
		To:                  strings.TrimSpace(form.Get("To")),
		Digits:              strings.TrimSpace(form.Get("Digits")),
		SpeechResult:        strings.ToLower(strings.TrimSpace(form.Get("SpeechResult"))),
		CallStatus:          model.ParseCallStatus(form.Get("CallStatus")),
		DialCallStatus:      model.ParseCallStatus(form.Get("DialCallStatus")),
		RecordingURL:        form.Get("RecordingUrl"),
		RecordingDuration:   form.Get("RecordingDuration"),
		TranscriptionText:   strings.TrimSpace(form.Get("TranscriptionText")),
		TranscriptionStatus: form.Get("TranscriptionStatus"),
		Cont:                DecodeContinuation(r.URL.Query()),
	}, nil
}
