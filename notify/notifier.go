// SPDX-License-Identifier: GPL-3.0-or-later

// Copyright (c) 2025 Spruce Health

// Package notify hands finished voicemails to whoever dispatches email or SMS.
package notify

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// Voicemail is a transcribed message ready for delivery
type Voicemail struct {
	CallSID             string
	From                string
	RecordingURL        string
	RecordingDuration   string
	TranscriptionText   string
	TranscriptionStatus string
	// Extension is set when the caller was trying to reach a specific person
	Extension  string
	ReceivedAt time.Time
}

// Notifier delivers voicemails
type Notifier interface {
	NotifyVoicemail(ctx context.Context, vm Voicemail) error
}

// WebhookNotifier posts each voicemail as a form to a fixed URL
type WebhookNotifier struct {
	client WebhookClient
	url    string
}

func NewWebhookNotifier(client WebhookClient, targetURL string) *WebhookNotifier {
	return &WebhookNotifier{client: client, url: targetURL}
}

func (n *WebhookNotifier) NotifyVoicemail(ctx context.Context, vm Voicemail) error {
	form := url.Values{}
	form.Set("CallSid", vm.CallSID)
	form.Set("From", vm.From)
	form.Set("RecordingUrl", vm.RecordingURL)
	form.Set("RecordingDuration", vm.RecordingDuration)
	form.Set("TranscriptionText", vm.TranscriptionText)
	form.Set("TranscriptionStatus", vm.TranscriptionStatus)
	if vm.Extension != "" {
		form.Set("Extension", vm.Extension)
	}
	form.Set("ReceivedAt", vm.ReceivedAt.UTC().Format(time.RFC3339))

	status, _, _, err := n.client.POST(ctx, n.url, form)
	if err != nil {
		return fmt.Errorf("notify voicemail %s: %w", vm.CallSID, err)
	}
	if status < 200 || status > 299 {
		return fmt.Errorf("notify voicemail %s: unexpected status %d", vm.CallSID, status)
	}
	return nil
}

// LogNotifier only logs voicemails. It is used when no webhook is configured.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) NotifyVoicemail(_ context.Context, vm Voicemail) error {
	n.logger.Info("voicemail received without notification target",
		zap.String("call_sid", vm.CallSID),
		zap.String("from", vm.From),
		zap.String("recording_url", vm.RecordingURL),
		zap.String("extension", vm.Extension))
	return nil
}
