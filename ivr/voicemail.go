// SPDX-License-Identifier: GPL-3.0-or-later

// Copyright (c) 2025 Spruce Health

package ivr

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sprucehealth/switchboard/notify"
	"github.com/sprucehealth/switchboard/twiml"
)

// Voicemail records a message. The transcript arrives later at Transcription.
func (h *Handler) Voicemail(ctx context.Context, req Request) *twiml.Response {
	cont := req.Cont
	h.metrics.RecordVoicemail("prompted")

	prompt := "Please leave a message after the tone, and press pound when you're finished."
	if cont.For != "" {
		if entry, ok := h.dir.Lookup(cont.For); ok {
			prompt = fmt.Sprintf("Please leave a message for %s after the tone, and press pound when you're finished.", entry.FullName())
		}
	}

	h.logger.Info("recording voicemail",
		zap.String("call_sid", req.CallSID.String()),
		zap.String("for", cont.For),
		zap.String("team", string(cont.Team)),
		zap.String("reason", cont.Reason))

	tagged := Continuation{For: cont.For, Team: cont.Team}
	return twiml.NewResponse(
		h.say(prompt),
		&twiml.Record{
			Action:             h.links.URL(PathVoicemailComplete, tagged),
			Method:             "POST",
			MaxLength:          h.settings.VoicemailMaxLength,
			Timeout:            5 * time.Second,
			FinishOnKey:        "#",
			PlayBeep:           true,
			Transcribe:         true,
			TranscribeCallback: h.links.URL(PathTranscription, tagged),
		},
		h.say("We didn't receive a message. Goodbye."),
		&twiml.Hangup{},
	)
}

// VoicemailComplete thanks the caller once the recording ends
func (h *Handler) VoicemailComplete(ctx context.Context, req Request) *twiml.Response {
	if req.RecordingURL == "" || req.RecordingDuration == "" || req.RecordingDuration == "0" {
		h.logger.Info("voicemail was empty", zap.String("call_sid", req.CallSID.String()))
		return h.goodbye("We didn't receive a message. Goodbye.")
	}

	h.metrics.RecordVoicemail("recorded")
	h.logger.Info("voicemail recorded",
		zap.String("call_sid", req.CallSID.String()),
		zap.String("recording_url", req.RecordingURL),
		zap.String("duration", req.RecordingDuration),
		zap.String("for", req.Cont.For))
	return h.goodbye("Thank you. Your message has been recorded. Goodbye.")
}

// Transcription receives the transcript asynchronously and hands it to the
// notifier. Nobody is listening, so the response is always empty.
func (h *Handler) Transcription(ctx context.Context, req Request) *twiml.Response {
	vm := notify.Voicemail{
		CallSID:             req.CallSID.String(),
		From:                req.From,
		RecordingURL:        req.RecordingURL,
		RecordingDuration:   req.RecordingDuration,
		TranscriptionText:   req.TranscriptionText,
		TranscriptionStatus: req.TranscriptionStatus,
		Extension:           req.Cont.For,
		ReceivedAt:          h.clock.Now(),
	}

	logger := h.logger.With(
		zap.String("call_sid", vm.CallSID),
		zap.String("from", vm.From),
		zap.String("for", vm.Extension),
		zap.String("status", vm.TranscriptionStatus))
	logger.Info("voicemail transcribed",
		zap.String("recording_url", vm.RecordingURL),
		zap.String("text", vm.TranscriptionText))
	h.metrics.RecordVoicemail("transcribed")

	if err := h.notifier.NotifyVoicemail(ctx, vm); err != nil {
		h.metrics.RecordVoicemail("notify_failed")
		logger.Error("voicemail notification failed", zap.Error(err))
	}
	return twiml.NewResponse()
}
