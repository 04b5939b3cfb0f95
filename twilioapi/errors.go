// SPDX-License-Identifier: GPL-3.0-or-later

// Copyright (c) 2025 Spruce Health

package twilioapi

import (
	"errors"
	"net/http"

	"github.com/twilio/twilio-go/client"
)

const ErrorCodeResourceNotFound = 20404

func notFoundError(resource string) *client.TwilioRestError {
	return &client.TwilioRestError{
		Code:     ErrorCodeResourceNotFound,
		Details:  nil,
		Message:  "Resource not found: " + resource + " ",
		MoreInfo: "",
		Status:   http.StatusNotFound,
	}
}

// IsNotFound reports whether err is a Twilio "resource not found" error
func IsNotFound(err error) bool {
	var restErr *client.TwilioRestError
	if !errors.As(err, &restErr) {
		return false
	}
	return restErr.Code == ErrorCodeResourceNotFound || restErr.Status == http.StatusNotFound
}

// ErrorCode returns the Twilio error code carried by err, or 0
func ErrorCode(err error) int {
	var restErr *client.TwilioRestError
	if errors.As(err, &restErr) {
		return restErr.Code
	}
	return 0
}
