// SPDX-License-Identifier: GPL-3.0-or-later

// Copyright (c) 2025 Spruce Health

package ivr

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/sprucehealth/switchboard/model"
)

// Continuation is the call state carried from one webhook to the next in the
// callback URL's query string. Nothing is kept between requests.
type Continuation struct {
	// Conf is the conference the caller waits in
	Conf string
	Team model.Team
	// Caller is the caller's phone number, read out during screening
	Caller string
	// CallerSID is the caller's leg, redirected to voicemail on an explicit decline
	CallerSID model.SID
	Phase     string
	Attempt   int
	// Track is the next hold track to play
	Track     int
	Voicemail bool
	Reason    string
	// Candidates restricts a directory lookup to the extensions just offered
	Candidates []string
	// For is the extension of the person the caller tried to reach
	For string
	// Speech carries a name query into the directory lookup
	Speech string
}

// Query keys. They are lower case so they never collide with platform form fields.
const (
	keyConf       = "conf"
	keyTeam       = "type"
	keyCaller     = "caller"
	keyCallerSID  = "sid"
	keyPhase      = "action"
	keyAttempt    = "attempt"
	keyTrack      = "track"
	keyVoicemail  = "voicemail"
	keyReason     = "reason"
	keyCandidates = "candidates"
	keyFor        = "for"
	keySpeech     = "speech"
)

// Encode returns the non-zero fields as query values
func (c Continuation) Encode() url.Values {
	v := url.Values{}
	set := func(key, value string) {
		if value != "" {
			v.Set(key, value)
		}
	}
	set(keyConf, c.Conf)
	set(keyTeam, string(c.Team))
	set(keyCaller, c.Caller)
	set(keyCallerSID, c.CallerSID.String())
	set(keyPhase, c.Phase)
	if c.Attempt > 0 {
		v.Set(keyAttempt, strconv.Itoa(c.Attempt))
	}
	if c.Track > 0 {
		v.Set(keyTrack, strconv.Itoa(c.Track))
	}
	if c.Voicemail {
		v.Set(keyVoicemail, "1")
	}
	set(keyReason, c.Reason)
	set(keyCandidates, strings.Join(c.Candidates, ","))
	set(keyFor, c.For)
	set(keySpeech, c.Speech)
	return v
}

// DecodeContinuation reads a continuation from query values. Malformed
// values decode to their zero value rather than failing the call.
func DecodeContinuation(v url.Values) Continuation {
	c := Continuation{
		Conf:      v.Get(keyConf),
		Caller:    v.Get(keyCaller),
		CallerSID: model.SID(v.Get(keyCallerSID)),
		Phase:     v.Get(keyPhase),
		Attempt:   nonNegative(v.Get(keyAttempt)),
		Track:     nonNegative(v.Get(keyTrack)),
		Reason:    v.Get(keyReason),
		For:       v.Get(keyFor),
		Speech:    v.Get(keySpeech),
	}
	if team, ok := model.ParseTeam(v.Get(keyTeam)); ok {
		c.Team = team
	}
	switch strings.ToLower(v.Get(keyVoicemail)) {
	case "1", "true", "yes":
		c.Voicemail = true
	}
	if raw := v.Get(keyCandidates); raw != "" {
		for _, ext := range strings.Split(raw, ",") {
			if ext = strings.TrimSpace(ext); ext != "" {
				c.Candidates = append(c.Candidates, ext)
			}
		}
	}
	return c
}

func nonNegative(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// next returns a copy for the following step, dropping one-shot fields
func (c Continuation) next() Continuation {
	n := c
	n.Phase = ""
	n.Reason = ""
	n.Speech = ""
	n.Candidates = nil
	return n
}
