// SPDX-License-Identifier: GPL-3.0-or-later

// Copyright (c) 2025 Spruce Health

package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sprucehealth/switchboard/ivr"
	"github.com/sprucehealth/switchboard/model"
	"github.com/sprucehealth/switchboard/twiml"
)

// voice adapts a call step to gin. The platform always gets a 200 and a document.
func (s *Server) voice(step ivr.Step) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, err := ivr.ParseRequest(c.Request)
		if err != nil {
			s.logger.Warn("bad webhook request", zap.String("path", c.Request.URL.Path), zap.Error(err))
			writeTwiML(c, s.handler.Fallback())
			return
		}
		writeTwiML(c, step(c.Request.Context(), req))
	}
}

func writeTwiML(c *gin.Context, resp *twiml.Response) {
	c.Data(http.StatusOK, twiml.ContentType, resp.Render())
}

type numbersResponse struct {
	Numbers []model.PhoneNumber `json:"numbers"`
	Error   string              `json:"error,omitempty"`
}

type rewriteRequest struct {
	VoiceURL       string `json:"voice_url" binding:"omitempty,url"`
	StatusCallback string `json:"status_callback" binding:"omitempty,url"`
}

func (s *Server) listNumbers(c *gin.Context) {
	numbers, err := s.admin.ListNumbers(c.Request.Context())
	if err != nil {
		s.logger.Error("list numbers failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, numbersResponse{Error: err.Error()})
		return
	}
	if numbers == nil {
		numbers = []model.PhoneNumber{}
	}
	c.JSON(http.StatusOK, numbersResponse{Numbers: numbers})
}

// rewriteNumbers points every number at the greeting, or at the URL in the body
func (s *Server) rewriteNumbers(c *gin.Context) {
	var body rewriteRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, numbersResponse{Error: err.Error()})
			return
		}
	}
	if body.VoiceURL == "" {
		body.VoiceURL = s.voiceURL
	}

	updated, err := s.admin.RewriteWebhooks(c.Request.Context(), body.VoiceURL, body.StatusCallback)
	if updated == nil {
		updated = []model.PhoneNumber{}
	}
	if err != nil {
		s.logger.Error("rewrite webhooks failed", zap.Int("updated", len(updated)), zap.Error(err))
		c.JSON(http.StatusBadGateway, numbersResponse{Numbers: updated, Error: err.Error()})
		return
	}
	s.logger.Info("rewrote number webhooks", zap.String("voice_url", body.VoiceURL), zap.Int("updated", len(updated)))
	c.JSON(http.StatusOK, numbersResponse{Numbers: updated})
}
