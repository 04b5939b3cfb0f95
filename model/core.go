// SPDX-License-Identifier: GPL-3.0-or-later

// Copyright (c) 2025 Spruce Health

package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SID represents a Twilio Session ID with a prefix
type SID string

func (s SID) String() string {
	return string(s)
}

// CallStatus represents the status of a call or of a dialed leg as reported
// by the platform (CallStatus and DialCallStatus fields).
type CallStatus string

const (
	CallInitiated  CallStatus = "initiated"
	CallQueued     CallStatus = "queued"
	CallRinging    CallStatus = "ringing"
	CallInProgress CallStatus = "in-progress"
	CallCompleted  CallStatus = "completed"
	CallBusy       CallStatus = "busy"
	CallFailed     CallStatus = "failed"
	CallNoAnswer   CallStatus = "no-answer"
	CallCanceled   CallStatus = "canceled"
	CallAnswered   CallStatus = "answered"
)

// ParseCallStatus normalizes a status string from a webhook form.
func ParseCallStatus(s string) CallStatus {
	return CallStatus(strings.ToLower(strings.TrimSpace(s)))
}

func (s CallStatus) IsTerminal() bool {
	switch s {
	case CallCompleted, CallCanceled, CallFailed, CallNoAnswer, CallBusy:
		return true
	default:
		return false
	}
}

// Unanswered reports whether the dialed party never picked up.
func (s CallStatus) Unanswered() bool {
	switch s {
	case CallNoAnswer, CallBusy, CallFailed, CallCanceled:
		return true
	default:
		return false
	}
}

// Team is a group of numbers rung in parallel for a conference.
type Team string

const (
	TeamOperator Team = "operator"
	TeamSales    Team = "sales"
)

// ParseTeam returns the team named by s, or false if s names no team.
func ParseTeam(s string) (Team, bool) {
	switch Team(strings.ToLower(strings.TrimSpace(s))) {
	case TeamOperator:
		return TeamOperator, true
	case TeamSales:
		return TeamSales, true
	default:
		return "", false
	}
}

// Spoken returns the team name as it should be read to a caller.
func (t Team) Spoken() string {
	switch t {
	case TeamSales:
		return "sales"
	case TeamOperator:
		return "the front desk"
	default:
		return string(t)
	}
}

// Route is the top-level destination picked for a caller.
type Route string

const (
	RouteServices        Route = "services"
	RouteDirectory       Route = "directory"
	RouteDirectoryDirect Route = "directory-direct"
	RouteSales           Route = "sales"
	RouteOperator        Route = "operator"
	RouteUnknown         Route = "unknown"
)

// RouteDecision is produced by the intent router and consumed immediately.
// NameQuery is only set for RouteDirectoryDirect.
type RouteDecision struct {
	Route     Route  `json:"route"`
	NameQuery string `json:"name_query,omitempty"`
}

// DirectoryEntry is a person reachable through the company directory.
type DirectoryEntry struct {
	FirstName string   `json:"first_name" toml:"first_name"`
	LastName  string   `json:"last_name" toml:"last_name"`
	Extension string   `json:"extension" toml:"extension"`
	Number    string   `json:"number" toml:"number"`
	Title     string   `json:"title,omitempty" toml:"title"`
	Aliases   []string `json:"aliases,omitempty" toml:"aliases"`
}

// FullName returns "First Last".
func (e DirectoryEntry) FullName() string {
	return strings.TrimSpace(e.FirstName + " " + e.LastName)
}

// ScoredMatch is a directory candidate with its match score.
type ScoredMatch struct {
	Entry DirectoryEntry `json:"entry"`
	Score int            `json:"score"`
}

// NewConferenceName generates a rendezvous name for a team conference.
// The random suffix keeps two calls in the same millisecond apart.
func NewConferenceName(team Team, now time.Time) string {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s-%d-%s", team, now.UnixMilli(), token)
}

// TeamFromConferenceName recovers the team prefix of a conference name.
func TeamFromConferenceName(name string) (Team, bool) {
	prefix, _, found := strings.Cut(name, "-")
	if !found {
		return "", false
	}
	return ParseTeam(prefix)
}

// OutboundCall describes a call placed to a team member's phone.
type OutboundCall struct {
	To             string
	From           string
	URL            string
	StatusCallback string
	Timeout        time.Duration
}

// PhoneNumber is a number provisioned on the telephony platform.
type PhoneNumber struct {
	SID            SID    `json:"sid"`
	Number         string `json:"phone_number"`
	FriendlyName   string `json:"friendly_name,omitempty"`
	VoiceURL       string `json:"voice_url"`
	VoiceMethod    string `json:"voice_method,omitempty"`
	StatusCallback string `json:"status_callback,omitempty"`
}
