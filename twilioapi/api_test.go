// SPDX-License-Identifier: GPL-3.0-or-later

// Copyright (c) 2025 Spruce Health

package twilioapi

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twilio/twilio-go/client"
	twilioopenapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/sprucehealth/switchboard/model"
)

type fakeVoiceAPI struct {
	created      []*twilioopenapi.CreateCallParams
	updated      map[string]*twilioopenapi.UpdateCallParams
	conferences  []twilioopenapi.ApiV2010Conference
	participants map[string][]twilioopenapi.ApiV2010Participant
	numbers      []twilioopenapi.ApiV2010IncomingPhoneNumber
	numberParams map[string]*twilioopenapi.UpdateIncomingPhoneNumberParams
	confQuery    *twilioopenapi.ListConferenceParams
	err          error
	failNumber   string
}

func newFakeVoiceAPI() *fakeVoiceAPI {
	return &fakeVoiceAPI{
		updated:      make(map[string]*twilioopenapi.UpdateCallParams),
		participants: make(map[string][]twilioopenapi.ApiV2010Participant),
		numberParams: make(map[string]*twilioopenapi.UpdateIncomingPhoneNumberParams),
	}
}

func ptr[T any](v T) *T { return &v }

func (f *fakeVoiceAPI) CreateCall(params *twilioopenapi.CreateCallParams) (*twilioopenapi.ApiV2010Call, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, params)
	return &twilioopenapi.ApiV2010Call{Sid: ptr(fmt.Sprintf("CA%032d", len(f.created)))}, nil
}

func (f *fakeVoiceAPI) UpdateCall(sid string, params *twilioopenapi.UpdateCallParams) (*twilioopenapi.ApiV2010Call, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.updated[sid] = params
	return &twilioopenapi.ApiV2010Call{Sid: &sid}, nil
}

func (f *fakeVoiceAPI) ListConference(params *twilioopenapi.ListConferenceParams) ([]twilioopenapi.ApiV2010Conference, error) {
	f.confQuery = params
	if f.err != nil {
		return nil, f.err
	}
	var out []twilioopenapi.ApiV2010Conference
	for _, c := range f.conferences {
		if params.FriendlyName != nil && c.FriendlyName != nil && *c.FriendlyName == *params.FriendlyName {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeVoiceAPI) ListParticipant(conferenceSid string, _ *twilioopenapi.ListParticipantParams) ([]twilioopenapi.ApiV2010Participant, error) {
	return f.participants[conferenceSid], nil
}

func (f *fakeVoiceAPI) ListIncomingPhoneNumber(*twilioopenapi.ListIncomingPhoneNumberParams) ([]twilioopenapi.ApiV2010IncomingPhoneNumber, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.numbers, nil
}

func (f *fakeVoiceAPI) UpdateIncomingPhoneNumber(sid string, params *twilioopenapi.UpdateIncomingPhoneNumberParams) (*twilioopenapi.ApiV2010IncomingPhoneNumber, error) {
	if sid == f.failNumber {
		return nil, &client.TwilioRestError{Code: 21452, Status: 400, Message: "invalid"}
	}
	f.numberParams[sid] = params
	for _, n := range f.numbers {
		if *n.Sid == sid {
			n.VoiceUrl = params.VoiceUrl
			n.VoiceMethod = params.VoiceMethod
			return &n, nil
		}
	}
	return nil, notFoundError(sid)
}

func TestPlaceCall(t *testing.T) {
	api := newFakeVoiceAPI()
	c := &Client{api: api}

	sid, err := c.PlaceCall(context.Background(), model.OutboundCall{
		To:             "+15555550111",
		From:           "+15555550000",
		URL:            "https://switchboard.example.com/voice/screen?conf=sales-1-a",
		StatusCallback: "https://switchboard.example.com/voice/status",
		Timeout:        25 * time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, model.SID("CA00000000000000000000000000000001"), sid)

	require.Len(t, api.created, 1)
	p := api.created[0]
	assert.Equal(t, "+15555550111", *p.To)
	assert.Equal(t, "+15555550000", *p.From)
	assert.Equal(t, "https://switchboard.example.com/voice/screen?conf=sales-1-a", *p.Url)
	assert.Equal(t, "POST", *p.Method)
	assert.Equal(t, 25, *p.Timeout)
	assert.Equal(t, []string{"completed"}, *p.StatusCallbackEvent)
}

func TestPlaceCallValidatesAndWraps(t *testing.T) {
	api := newFakeVoiceAPI()
	c := &Client{api: api}

	_, err := c.PlaceCall(context.Background(), model.OutboundCall{To: "+15555550111"})
	require.Error(t, err)
	assert.Empty(t, api.created)

	api.err = &client.TwilioRestError{Code: 21215, Status: 400, Message: "Geo permission"}
	_, err = c.PlaceCall(context.Background(), model.OutboundCall{To: "+15555550111", From: "+15555550000", URL: "https://x"})
	require.Error(t, err)
	assert.Equal(t, 21215, ErrorCode(err))
	assert.False(t, IsNotFound(err))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.PlaceCall(ctx, model.OutboundCall{To: "+15555550111", From: "+15555550000", URL: "https://x"})
	require.ErrorIs(t, err, context.Canceled)
}

func TestRedirectCall(t *testing.T) {
	api := newFakeVoiceAPI()
	c := &Client{api: api}

	require.NoError(t, c.RedirectCall(context.Background(), "CA1", "https://x/voice/dial-complete?voicemail=1"))
	p := api.updated["CA1"]
	require.NotNil(t, p)
	assert.Equal(t, "https://x/voice/dial-complete?voicemail=1", *p.Url)
	assert.Equal(t, "POST", *p.Method)
}

func TestConferenceParticipants(t *testing.T) {
	api := newFakeVoiceAPI()
	api.conferences = []twilioopenapi.ApiV2010Conference{
		{Sid: ptr("CF0"), FriendlyName: ptr("sales-1-a"), Status: ptr("completed")},
		{Sid: ptr("CF1"), FriendlyName: ptr("sales-1-a"), Status: ptr("init")},
	}
	api.participants["CF1"] = []twilioopenapi.ApiV2010Participant{
		{CallSid: ptr("CAcaller")},
		{CallSid: nil},
	}
	c := &Client{api: api}

	sids, err := c.ConferenceParticipants(context.Background(), "sales-1-a")
	require.NoError(t, err)
	assert.Equal(t, []model.SID{"CAcaller"}, sids)
	assert.Nil(t, api.confQuery.Status)

	_, err = c.ConferenceParticipants(context.Background(), "operator-2-b")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, ErrorCodeResourceNotFound, ErrorCode(err))
}

func TestRewriteWebhooks(t *testing.T) {
	api := newFakeVoiceAPI()
	api.numbers = []twilioopenapi.ApiV2010IncomingPhoneNumber{
		{Sid: ptr("PN1"), PhoneNumber: ptr("+15555550001"), VoiceUrl: ptr("https://old/voice")},
		{Sid: ptr("PN2"), PhoneNumber: ptr("+15555550002"), FriendlyName: ptr("Main line")},
	}
	c := &Client{api: api}

	numbers, err := c.ListNumbers(context.Background())
	require.NoError(t, err)
	require.Len(t, numbers, 2)
	assert.Equal(t, "https://old/voice", numbers[0].VoiceURL)
	assert.Equal(t, "Main line", numbers[1].FriendlyName)

	updated, err := c.RewriteWebhooks(context.Background(), "https://new/voice/incoming", "")
	require.NoError(t, err)
	require.Len(t, updated, 2)
	for _, n := range updated {
		assert.Equal(t, "https://new/voice/incoming", n.VoiceURL)
		assert.Equal(t, "POST", n.VoiceMethod)
	}
	assert.Nil(t, api.numberParams["PN1"].StatusCallback)

	api.failNumber = "PN2"
	updated, err = c.RewriteWebhooks(context.Background(), "https://new/voice/incoming", "https://new/voice/status")
	require.Error(t, err)
	assert.Len(t, updated, 1)
	assert.Equal(t, "https://new/voice/status", *api.numberParams["PN1"].StatusCallback)
}

func TestListNumbersError(t *testing.T) {
	api := newFakeVoiceAPI()
	api.err = errors.New("network down")
	c := &Client{api: api}

	_, err := c.ListNumbers(context.Background())
	require.ErrorContains(t, err, "network down")
	assert.Equal(t, 0, ErrorCode(err))
}

func TestNewClientUsesRestAPI(t *testing.T) {
	c := NewClient("ACxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx", "token")
	_, ok := c.api.(*twilioopenapi.ApiService)
	assert.True(t, ok)
}
