// SPDX-License-Identifier: GPL-3.0-or-later

// Copyright (c) 2025 Spruce Health

package ivr

import (
	"fmt"
	"net/url"
)

// Webhook paths, relative to the configured base URL
const (
	PathIncoming          = "/voice/incoming"
	PathRoute             = "/voice/route"
	PathServices          = "/voice/services"
	PathDirectory         = "/voice/directory"
	PathDirectoryLookup   = "/voice/directory/lookup"
	PathConnect           = "/voice/connect"
	PathHold              = "/voice/hold"
	PathScreen            = "/voice/screen"
	PathScreenResult      = "/voice/screen/result"
	PathDialComplete      = "/voice/dial-complete"
	PathVoicemail         = "/voice/voicemail"
	PathVoicemailComplete = "/voice/voicemail/complete"
	PathTranscription     = "/voice/transcription"
)

// Links builds absolute callback URLs. The platform needs absolute URLs for
// anything fetched outside the current document, such as waitUrl and
// outbound call answer URLs.
type Links struct {
	base *url.URL
}

func NewLinks(baseURL string) (Links, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return Links{}, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if !base.IsAbs() || base.Host == "" {
		return Links{}, fmt.Errorf("base URL %q must be absolute", baseURL)
	}
	base.RawQuery = ""
	base.Fragment = ""
	return Links{base: base}, nil
}

// URL returns the absolute URL for path with the continuation as its query
func (l Links) URL(path string, cont Continuation) string {
	u := l.base.JoinPath(path)
	u.RawQuery = cont.Encode().Encode()
	return u.String()
}

// Resolve resolves ref, which may be absolute or relative to the base URL
func (l Links) Resolve(ref string) (string, error) {
	target, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", ref, err)
	}
	if target.IsAbs() {
		return target.String(), nil
	}
	return l.base.ResolveReference(target).String(), nil
}
