// SPDX-License-Identifier: GPL-3.0-or-later

// Copyright (c) 2025 Spruce Health

// Package config loads switchboard settings from an optional TOML file and
// SWITCHBOARD_* environment variables. Settings are read once at startup.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const EnvPrefix = "SWITCHBOARD"

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Twilio    TwilioConfig    `mapstructure:"twilio"`
	Voice     VoiceConfig     `mapstructure:"voice"`
	Routing   RoutingConfig   `mapstructure:"routing"`
	Directory DirectoryConfig `mapstructure:"directory"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	Log       LogConfig       `mapstructure:"log"`
	Admin     AdminConfig     `mapstructure:"admin"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr" validate:"required"`
	// BaseURL is the public origin the platform reaches us on, used for absolute callback links
	BaseURL         string        `mapstructure:"base_url" validate:"required,url"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gte=0"`
}

type TwilioConfig struct {
	AccountSID string `mapstructure:"account_sid"`
	AuthToken  string `mapstructure:"auth_token" validate:"required_if=ValidateSignatures true"`
	// CallerID is presented on every outbound call
	CallerID           string `mapstructure:"caller_id" validate:"required,e164"`
	ValidateSignatures bool   `mapstructure:"validate_signatures"`
}

type VoiceConfig struct {
	Voice            string `mapstructure:"voice"`
	Language         string `mapstructure:"language" validate:"required"`
	CompanyName      string `mapstructure:"company_name" validate:"required"`
	ServicesOverview string `mapstructure:"services_overview" validate:"required"`
}

type RoutingConfig struct {
	OperatorNumbers      []string      `mapstructure:"operator_numbers" validate:"dive,e164"`
	SalesNumbers         []string      `mapstructure:"sales_numbers" validate:"dive,e164"`
	RingTimeout          time.Duration `mapstructure:"ring_timeout" validate:"gt=0"`
	GatherTimeout        time.Duration `mapstructure:"gather_timeout" validate:"gt=0"`
	ScreenTimeout        time.Duration `mapstructure:"screen_timeout" validate:"gt=0"`
	VoicemailMaxLength   time.Duration `mapstructure:"voicemail_max_length" validate:"gt=0"`
	HoldTracks           []string      `mapstructure:"hold_tracks" validate:"min=1,dive,url"`
	MaxDirectoryAttempts int           `mapstructure:"max_directory_attempts" validate:"gte=1"`
}

type DirectoryConfig struct {
	Path string `mapstructure:"path"`
}

type NotifyConfig struct {
	WebhookURL string        `mapstructure:"webhook_url" validate:"omitempty,url"`
	Timeout    time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

type LogConfig struct {
	Level      string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format     string `mapstructure:"format" validate:"oneof=json console"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `mapstructure:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `mapstructure:"max_age_days" validate:"gte=0"`
}

type AdminConfig struct {
	// Token guards the /admin endpoints; they are disabled when empty
	Token string `mapstructure:"token"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.base_url", "")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("twilio.account_sid", "")
	v.SetDefault("twilio.auth_token", "")
	v.SetDefault("twilio.caller_id", "")
	v.SetDefault("twilio.validate_signatures", true)

	v.SetDefault("voice.voice", "Polly.Joanna")
	v.SetDefault("voice.language", "en-US")
	v.SetDefault("voice.company_name", "")
	v.SetDefault("voice.services_overview", "")

	v.SetDefault("routing.operator_numbers", []string{})
	v.SetDefault("routing.sales_numbers", []string{})
	v.SetDefault("routing.ring_timeout", 25*time.Second)
	v.SetDefault("routing.gather_timeout", 6*time.Second)
	v.SetDefault("routing.screen_timeout", 8*time.Second)
	v.SetDefault("routing.voicemail_max_length", 120*time.Second)
	v.SetDefault("routing.hold_tracks", []string{
		"http://com.twilio.sounds.music.s3.amazonaws.com/MARKOVICHAMP-Borghestral.mp3",
		"http://com.twilio.sounds.music.s3.amazonaws.com/oldDog_-_endless_goodbye_%28instr.%29.mp3",
		"http://com.twilio.sounds.music.s3.amazonaws.com/Mellotroniac_-_Flight_Of_Young_Hearts_Flute.mp3",
	})
	v.SetDefault("routing.max_directory_attempts", 3)

	v.SetDefault("directory.path", "")

	v.SetDefault("notify.webhook_url", "")
	v.SetDefault("notify.timeout", 10*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 30)

	v.SetDefault("admin.token", "")
}

// Load reads the config file at path, if any, applies environment overrides
// and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Server.BaseURL = strings.TrimRight(cfg.Server.BaseURL, "/")

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Roster returns the configured numbers for a team name
func (c RoutingConfig) Roster(team string) []string {
	switch team {
	case "sales":
		return c.SalesNumbers
	case "operator":
		return c.OperatorNumbers
	default:
		return nil
	}
}
