// SPDX-License-Identifier: GPL-3.0-or-later

// Copyright (c) 2025 Spruce Health

package callsim

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
)

// HandlerPoster delivers webhooks straight to an http.Handler, without a network
type HandlerPoster struct {
	Handler http.Handler
}

// POST serves the form through the handler and returns what it wrote
func (p HandlerPoster) POST(ctx context.Context, targetURL string, form url.Values) (int, []byte, http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, targetURL, strings.NewReader(form.Encode()))
	if err != nil {
		return 0, nil, nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.RequestURI = req.URL.RequestURI()

	w := httptest.NewRecorder()
	p.Handler.ServeHTTP(w, req)
	return w.Code, w.Body.Bytes(), w.Header(), nil
}
