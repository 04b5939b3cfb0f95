// SPDX-License-Identifier: GPL-3.0-or-later

// Copyright (c) 2025 Spruce Health

package twilioapi

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioopenapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/sprucehealth/switchboard/model"
)

// voiceAPI is the part of the 2010 REST API the router uses.
// *twilioopenapi.ApiService satisfies it.
type voiceAPI interface {
	CreateCall(params *twilioopenapi.CreateCallParams) (*twilioopenapi.ApiV2010Call, error)
	UpdateCall(sid string, params *twilioopenapi.UpdateCallParams) (*twilioopenapi.ApiV2010Call, error)
	ListConference(params *twilioopenapi.ListConferenceParams) ([]twilioopenapi.ApiV2010Conference, error)
	ListParticipant(conferenceSid string, params *twilioopenapi.ListParticipantParams) ([]twilioopenapi.ApiV2010Participant, error)
	ListIncomingPhoneNumber(params *twilioopenapi.ListIncomingPhoneNumberParams) ([]twilioopenapi.ApiV2010IncomingPhoneNumber, error)
	UpdateIncomingPhoneNumber(sid string, params *twilioopenapi.UpdateIncomingPhoneNumberParams) (*twilioopenapi.ApiV2010IncomingPhoneNumber, error)
}

// Client places and steers calls through the Twilio REST API.
// The SDK calls take no context, so ctx is only checked between requests.
type Client struct {
	api voiceAPI
}

// NewClient creates a client for the given account credentials
func NewClient(accountSID, authToken string) *Client {
	rc := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &Client{api: rc.Api}
}

// PlaceCall starts an outbound call whose answer webhook is call.URL
func (c *Client) PlaceCall(ctx context.Context, call model.OutboundCall) (model.SID, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if call.To == "" || call.From == "" || call.URL == "" {
		return "", fmt.Errorf("to, from and url are required")
	}

	params := (&twilioopenapi.CreateCallParams{}).
		SetTo(call.To).
		SetFrom(call.From).
		SetUrl(call.URL).
		SetMethod("POST")
	if call.Timeout > 0 {
		params.SetTimeout(int(call.Timeout.Seconds()))
	}
	if call.StatusCallback != "" {
		params.SetStatusCallback(call.StatusCallback).
			SetStatusCallbackMethod("POST").
			SetStatusCallbackEvent([]string{"completed"})
	}

	resp, err := c.api.CreateCall(params)
	if err != nil {
		return "", fmt.Errorf("create call to %s: %w", call.To, err)
	}
	if resp == nil || resp.Sid == nil {
		return "", nil
	}
	return model.SID(*resp.Sid), nil
}

// RedirectCall points a live call at new TwiML, leaving whatever it was doing
func (c *Client) RedirectCall(ctx context.Context, sid model.SID, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	params := (&twilioopenapi.UpdateCallParams{}).
		SetUrl(url).
		SetMethod("POST")
	if _, err := c.api.UpdateCall(sid.String(), params); err != nil {
		return fmt.Errorf("redirect call %s: %w", sid, err)
	}
	return nil
}

// ConferenceParticipants lists the call SIDs currently in the named conference
func (c *Client) ConferenceParticipants(ctx context.Context, name string) ([]model.SID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// A conference whose only member is waiting is still "init", so filter
	// out finished ones rather than asking for in-progress.
	confs, err := c.api.ListConference((&twilioopenapi.ListConferenceParams{}).
		SetFriendlyName(name).
		SetLimit(20))
	if err != nil {
		return nil, fmt.Errorf("list conference %s: %w", name, err)
	}
	var confSID string
	for _, conf := range confs {
		if conf.Sid != nil && (conf.Status == nil || *conf.Status != "completed") {
			confSID = *conf.Sid
			break
		}
	}
	if confSID == "" {
		return nil, notFoundError("conference " + name)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	participants, err := c.api.ListParticipant(confSID, (&twilioopenapi.ListParticipantParams{}).SetLimit(50))
	if err != nil {
		return nil, fmt.Errorf("list participants of %s: %w", name, err)
	}
	sids := make([]model.SID, 0, len(participants))
	for _, p := range participants {
		if p.CallSid != nil {
			sids = append(sids, model.SID(*p.CallSid))
		}
	}
	return sids, nil
}

// ListNumbers lists the account's provisioned phone numbers
func (c *Client) ListNumbers(ctx context.Context) ([]model.PhoneNumber, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	records, err := c.api.ListIncomingPhoneNumber(&twilioopenapi.ListIncomingPhoneNumberParams{})
	if err != nil {
		return nil, fmt.Errorf("list incoming phone numbers: %w", err)
	}
	numbers := make([]model.PhoneNumber, 0, len(records))
	for _, rec := range records {
		numbers = append(numbers, phoneNumberFromAPI(&rec))
	}
	return numbers, nil
}

// RewriteWebhooks points every provisioned number's voice webhook at voiceURL.
// It stops at the first failure and returns the numbers rewritten so far.
func (c *Client) RewriteWebhooks(ctx context.Context, voiceURL, statusCallback string) ([]model.PhoneNumber, error) {
	numbers, err := c.ListNumbers(ctx)
	if err != nil {
		return nil, err
	}

	updated := make([]model.PhoneNumber, 0, len(numbers))
	for _, n := range numbers {
		if err := ctx.Err(); err != nil {
			return updated, err
		}
		params := (&twilioopenapi.UpdateIncomingPhoneNumberParams{}).
			SetVoiceUrl(voiceURL).
			SetVoiceMethod("POST")
		if statusCallback != "" {
			params.SetStatusCallback(statusCallback).SetStatusCallbackMethod("POST")
		}
		rec, err := c.api.UpdateIncomingPhoneNumber(n.SID.String(), params)
		if err != nil {
			return updated, fmt.Errorf("update webhook of %s: %w", n.Number, err)
		}
		if rec != nil {
			n = phoneNumberFromAPI(rec)
		}
		updated = append(updated, n)
	}
	return updated, nil
}

func phoneNumberFromAPI(rec *twilioopenapi.ApiV2010IncomingPhoneNumber) model.PhoneNumber {
	var n model.PhoneNumber
	if rec.Sid != nil {
		n.SID = model.SID(*rec.Sid)
	}
	if rec.PhoneNumber != nil {
		n.Number = *rec.PhoneNumber
	}
	if rec.FriendlyName != nil {
		n.FriendlyName = *rec.FriendlyName
	}
	if rec.VoiceUrl != nil {
		n.VoiceURL = *rec.VoiceUrl
	}
	if rec.VoiceMethod != nil {
		n.VoiceMethod = *rec.VoiceMethod
	}
	if rec.StatusCallback != nil {
		n.StatusCallback = *rec.StatusCallback
	}
	return n
}
