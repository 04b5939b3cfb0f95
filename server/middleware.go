// SPDX-License-Identifier: GPL-3.0-or-later

// Copyright (c) 2025 Spruce Health

package server

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const signatureHeader = "X-Twilio-Signature"

// recovery turns a panic into a spoken apology for voice routes, since an
// error page means nothing to a caller
func (s *Server) recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		endpoint := c.FullPath()
		s.metrics.RecordPanic(endpoint)
		s.logger.Error("recovered panic in request",
			zap.String("path", c.Request.URL.Path),
			zap.Any("panic", recovered),
			zap.Stack("stack"))

		if s.isVoicePath(c.Request.URL.Path) {
			writeTwiML(c, s.handler.Fallback())
			c.Abort()
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	})
}

// requestLogger logs each webhook and records its status and latency
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery
		method := c.Request.Method

		c.Next()

		if path == "/metrics" || path == "/healthz" {
			return
		}

		latency := time.Since(start)
		status := c.Writer.Status()
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		s.metrics.RecordWebhook(endpoint, strconv.Itoa(status), latency)

		s.logger.Info("request",
			zap.Int("status", status),
			zap.String("method", method),
			zap.String("path", path),
			zap.String("query", query),
			zap.String("ip", c.ClientIP()),
			zap.String("user_agent", c.Request.UserAgent()),
			zap.Duration("latency", latency),
		)
	}
}

// validateSignature rejects webhooks that were not signed with the account's auth token
func (s *Server) validateSignature() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := c.Request.ParseForm(); err != nil {
			s.logger.Warn("unreadable webhook body", zap.String("path", c.Request.URL.Path), zap.Error(err))
			c.AbortWithStatus(http.StatusBadRequest)
			return
		}

		params := make(map[string]string, len(c.Request.PostForm))
		for k, v := range c.Request.PostForm {
			if len(v) > 0 {
				params[k] = v[0]
			}
		}
		signedURL := s.origin + c.Request.URL.RequestURI()

		if !s.validator.Validate(signedURL, params, c.GetHeader(signatureHeader)) {
			s.logger.Warn("rejected webhook with bad signature",
				zap.String("url", signedURL),
				zap.Bool("signed", c.GetHeader(signatureHeader) != ""))
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
		c.Next()
	}
}

func (s *Server) bearerAuth() gin.HandlerFunc {
	want := []byte("Bearer " + s.opts.AdminToken)
	return func(c *gin.Context) {
		got := []byte(c.GetHeader("Authorization"))
		if subtle.ConstantTimeCompare(got, want) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

func (s *Server) isVoicePath(path string) bool {
	return strings.HasPrefix(path, s.prefix+"/voice/")
}
