// SPDX-License-Identifier: GPL-3.0-or-later

// Copyright (c) 2025 Spruce Health

package twiml

import "time"

// Node is the interface for all TwiML AST nodes
type Node interface {
	isNode()
}

// Response is the root TwiML element
type Response struct {
	Children []Node
}

func (Response) isNode() {}

// NewResponse creates a Response with the given verbs
func NewResponse(children ...Node) *Response {
	return &Response{Children: children}
}

// Append adds verbs to the response and returns it
func (r *Response) Append(children ...Node) *Response {
	r.Children = append(r.Children, children...)
	return r
}

// Say outputs text-to-speech
type Say struct {
	Text     string
	Voice    string
	Language string
	Loop     int
}

func (Say) isNode() {}

// Play plays an audio file
type Play struct {
	URL  string
	Loop int
}

func (Play) isNode() {}

// Pause waits for a specified duration
type Pause struct {
	Length time.Duration
}

func (Pause) isNode() {}

// Gather collects DTMF and/or speech input
type Gather struct {
	Input         string // "dtmf", "speech", "dtmf speech"
	Timeout       string // Can be "auto" or a positive integer (in seconds), default is 5
	NumDigits     int
	FinishOnKey   string
	Action        string
	Method        string // "POST" or "GET"
	Hints         string
	SpeechTimeout string // Can be "auto" or a positive integer (in seconds)
	Language      string
	Children      []Node // Nested verbs to execute while gathering
}

func (Gather) isNode() {}

// Dial connects to another party
type Dial struct {
	Action   string
	Method   string
	Timeout  time.Duration
	CallerID string
	Children []Node // <Number> or <Conference>
}

func (Dial) isNode() {}

// Number is used inside <Dial> to specify a phone number
type Number struct {
	Number string
}

func (Number) isNode() {}

// Conference is used inside <Dial> to join a named conference
type Conference struct {
	Name                   string
	Muted                  bool
	Beep                   string // "true", "false", "onEnter", "onExit"
	StartConferenceOnEnter bool
	EndConferenceOnExit    bool
	WaitURL                string
	WaitMethod             string
	MaxParticipants        int
	StatusCallback         string
	StatusCallbackEvent    string
}

func (Conference) isNode() {}

// Redirect fetches new TwiML from a URL
type Redirect struct {
	URL    string
	Method string
}

func (Redirect) isNode() {}

// Hangup ends the call
type Hangup struct{}

func (Hangup) isNode() {}

// Record records the caller's voice
type Record struct {
	MaxLength          time.Duration
	PlayBeep           bool
	Action             string
	Method             string
	Transcribe         bool
	TranscribeCallback string
	Timeout            time.Duration
	FinishOnKey        string
}

func (Record) isNode() {}

// NewSay creates a Say with the given voice and language
func NewSay(text, voice, language string) *Say {
	return &Say{Text: text, Voice: voice, Language: language}
}

// NewRedirect creates a POST Redirect
func NewRedirect(url string) *Redirect {
	return &Redirect{URL: url, Method: "POST"}
}

// NewPause creates a Pause of the given length
func NewPause(length time.Duration) *Pause {
	return &Pause{Length: length}
}

// DialNumber creates a Dial to a single phone number
func DialNumber(number, callerID, action string, timeout time.Duration) *Dial {
	return &Dial{
		Action:   action,
		Method:   "POST",
		Timeout:  timeout,
		CallerID: callerID,
		Children: []Node{&Number{Number: number}},
	}
}

// DialConference creates a Dial into a named conference
func DialConference(action string, conf *Conference) *Dial {
	return &Dial{
		Action:   action,
		Method:   "POST",
		Children: []Node{conf},
	}
}
