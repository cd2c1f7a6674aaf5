package email

import (
	"github.com/samuel161415/BryteSpring/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("providers.email",
	fx.Provide(NewFromConfig),
)

// NewFromConfig selects the provider by what is configured: CleverReach
// when API credentials are present, plain SMTP when a host is set,
// otherwise a no-op sender for local development.
func NewFromConfig(cfg config.Config, log *zap.Logger) Provider {
	if cfg.Email.CleverReachClientID != "" && cfg.Email.CleverReachClientSecret != "" {
		return NewCleverReach(CleverReachConfig{
			ClientID:     cfg.Email.CleverReachClientID,
			ClientSecret: cfg.Email.CleverReachClientSecret,
			GroupName:    cfg.Email.CleverReachGroupName,
			FromEmail:    cfg.Email.From,
			FromName:     cfg.Email.FromName,
		}, log)
	}

	if cfg.Email.SMTPHost != "" {
		return NewSMTP(Config{
			Host:     cfg.Email.SMTPHost,
			Port:     cfg.Email.SMTPPort,
			Username: cfg.Email.SMTPUsername,
			Password: cfg.Email.SMTPPassword,
			From:     cfg.Email.From,
			FromName: cfg.Email.FromName,
		})
	}

	log.Warn("no email provider configured, invitation mail disabled")
	return &NoOpProvider{}
}
