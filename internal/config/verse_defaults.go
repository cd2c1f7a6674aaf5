package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// VerseDefaults drives new-verse branding and upload limits. It lives in an
// optional verse.yml so operators can tune limits without a redeploy.
type VerseDefaults struct {
	Branding BrandingDefaults `mapstructure:"branding"`
	Upload   UploadLimits     `mapstructure:"upload"`
}

type BrandingDefaults struct {
	LogoURL      string `mapstructure:"logoUrl"`
	PrimaryColor string `mapstructure:"primaryColor"`
	ColorName    string `mapstructure:"colorName"`
}

type UploadLimits struct {
	MaxBytes            int64    `mapstructure:"maxBytes"`
	AllowedContentTypes []string `mapstructure:"allowedContentTypes"`
}

func DefaultVerseDefaults() VerseDefaults {
	return VerseDefaults{
		Branding: BrandingDefaults{
			LogoURL:      "",
			PrimaryColor: "#3B82F6",
			ColorName:    "Primary Blue",
		},
		Upload: UploadLimits{
			MaxBytes: 50 * 1024 * 1024,
			AllowedContentTypes: []string{
				"image/jpeg",
				"image/png",
				"image/gif",
				"image/webp",
				"image/svg+xml",
				"application/pdf",
				"video/mp4",
				"audio/mpeg",
			},
		},
	}
}

type VerseDefaultsHolder struct {
	current atomic.Value // holds VerseDefaults
}

func NewVerseDefaultsHolder() (*VerseDefaultsHolder, error) {
	v := viper.New()

	v.SetConfigName("verse")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/brytespring")
	v.AddConfigPath(".")

	v.SetEnvPrefix("BRYTESPRING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultVerseDefaults()
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		v.SetDefault("branding", defaults.Branding)
		v.SetDefault("upload", defaults.Upload)
	}

	cfg := defaults
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := validateVerseDefaults(cfg); err != nil {
		return nil, err
	}

	holder := &VerseDefaultsHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated := DefaultVerseDefaults()
		if err := v.Unmarshal(&updated); err != nil {
			log.Printf("[verse-config] reload failed: %v", err)
			return
		}
		if err := validateVerseDefaults(updated); err != nil {
			log.Printf("[verse-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[verse-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *VerseDefaultsHolder) Current() VerseDefaults {
	return h.current.Load().(VerseDefaults)
}

func validateVerseDefaults(cfg VerseDefaults) error {
	if strings.TrimSpace(cfg.Branding.PrimaryColor) == "" {
		return errors.New("branding.primaryColor cannot be empty")
	}
	if cfg.Upload.MaxBytes <= 0 {
		return errors.New("upload.maxBytes must be positive")
	}
	if len(cfg.Upload.AllowedContentTypes) == 0 {
		return errors.New("upload.allowedContentTypes cannot be empty")
	}
	return nil
}
