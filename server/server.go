// SPDX-License-Identifier: GPL-3.0-or-later

// Copyright (c) 2025 Spruce Health

// Package server exposes the call flow as platform webhooks, plus the admin
// and ops endpoints.
package server

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/twilio/twilio-go/client"
	"go.uber.org/zap"

	"github.com/sprucehealth/switchboard/ivr"
	"github.com/sprucehealth/switchboard/metrics"
	"github.com/sprucehealth/switchboard/model"
)

// NumberAdmin lists and repoints the platform's phone numbers
type NumberAdmin interface {
	ListNumbers(ctx context.Context) ([]model.PhoneNumber, error)
	RewriteWebhooks(ctx context.Context, voiceURL, statusCallback string) ([]model.PhoneNumber, error)
}

// Options configures the HTTP surface
type Options struct {
	Addr string
	// BaseURL is the public URL the platform calls. Its path, if any, prefixes every route.
	BaseURL            string
	AuthToken          string
	ValidateSignatures bool
	// AdminToken guards the admin endpoints. They are not mounted when it is empty.
	AdminToken string
}

// Server serves the webhooks
type Server struct {
	Addr string

	engine  *gin.Engine
	server  *http.Server
	handler *ivr.Handler
	admin   NumberAdmin
	logger  *zap.Logger
	metrics *metrics.Metrics

	origin    string
	prefix    string
	voiceURL  string
	validator client.RequestValidator
	opts      Options
}

func New(h *ivr.Handler, admin NumberAdmin, opts Options, logger *zap.Logger, m *metrics.Metrics) (*Server, error) {
	if opts.Addr == "" {
		opts.Addr = ":8080"
	}
	base, err := url.Parse(opts.BaseURL)
	if err != nil || !base.IsAbs() || base.Host == "" {
		return nil, fmt.Errorf("base URL %q must be absolute", opts.BaseURL)
	}
	if opts.ValidateSignatures && opts.AuthToken == "" {
		return nil, fmt.Errorf("signature validation needs an auth token")
	}

	s := &Server{
		Addr:      opts.Addr,
		handler:   h,
		admin:     admin,
		logger:    logger,
		metrics:   m,
		origin:    base.Scheme + "://" + base.Host,
		prefix:    strings.TrimSuffix(base.Path, "/"),
		voiceURL:  strings.TrimSuffix(opts.BaseURL, "/") + ivr.PathIncoming,
		validator: client.NewRequestValidator(opts.AuthToken),
		opts:      opts,
	}

	s.engine = gin.New()
	s.engine.Use(s.recovery(), s.requestLogger())
	s.routes()

	s.server = &http.Server{
		Addr:    opts.Addr,
		Handler: s.engine,
	}
	return s, nil
}

// Handler returns the root handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start serves until Stop is called
func (s *Server) Start() error {
	s.logger.Info("switchboard listening", zap.String("addr", s.Addr), zap.String("base_url", s.opts.BaseURL))
	return s.server.ListenAndServe()
}

// Stop gracefully stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) routes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.engine.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	voice := s.engine.Group(s.prefix)
	if s.opts.ValidateSignatures {
		voice.Use(s.validateSignature())
	}
	methods := []string{http.MethodGet, http.MethodPost}
	for path, step := range s.handler.Steps() {
		name := strings.TrimPrefix(path, "/voice/")
		voice.Match(methods, path, s.voice(s.handler.Safe(name, step)))
	}

	if s.opts.AdminToken != "" && s.admin != nil {
		admin := s.engine.Group("/admin", s.bearerAuth())
		admin.GET("/numbers", s.listNumbers)
		admin.POST("/numbers/rewrite", s.rewriteNumbers)
	}
}
