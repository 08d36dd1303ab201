package services

import (
	"time"

	"github.com/yukikurage/party-planner-api/internal/config"
	"github.com/yukikurage/party-planner-api/internal/constants"
)

// Settings are the configuration values the services read.
type Settings struct {
	AppName                 string
	AppURL                  string
	TokenTTL                time.Duration
	MagicLinkTTL            time.Duration
	PasswordResetTTL        time.Duration
	AuthTokenRateLimit      int
	DietaryPrivacyThreshold int
}

func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		AppName:                 cfg.AppName,
		AppURL:                  cfg.AppURL,
		TokenTTL:                time.Duration(cfg.TokenExpirationDays) * 24 * time.Hour,
		MagicLinkTTL:            time.Duration(cfg.MagicLinkExpirationMinutes) * time.Minute,
		PasswordResetTTL:        time.Duration(cfg.PasswordResetExpirationMinutes) * time.Minute,
		AuthTokenRateLimit:      cfg.AuthTokenRateLimit,
		DietaryPrivacyThreshold: cfg.DietaryPrivacyThreshold,
	}
}

// DefaultSettings mirrors the configuration defaults.
func DefaultSettings() Settings {
	return Settings{
		AppName:                 "Party Planner",
		AppURL:                  "http://localhost:8080",
		TokenTTL:                90 * 24 * time.Hour,
		MagicLinkTTL:            30 * time.Minute,
		PasswordResetTTL:        60 * time.Minute,
		AuthTokenRateLimit:      5,
		DietaryPrivacyThreshold: constants.DefaultDietaryPrivacyThreshold,
	}
}

func (s Settings) url(path string) string {
	return s.AppURL + path
}
