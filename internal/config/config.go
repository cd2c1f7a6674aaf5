package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	AuthJWTSecret string
	InviteBaseURL string

	SuperadminEmail    string
	SuperadminPassword string

	OTLPEndpoint string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int

	Spaces SpacesConfig
	Email  EmailConfig
}

// SpacesConfig configures the S3-compatible object store and its CDN front.
type SpacesConfig struct {
	Endpoint    string
	Region      string
	AccessKey   string
	SecretKey   string
	Bucket      string
	CDNEndpoint string
	Secure      bool
}

// EmailConfig configures outbound invitation mail.
type EmailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	From         string
	FromName     string

	CleverReachClientID     string
	CleverReachClientSecret string
	CleverReachGroupName    string
}

var Module = fx.Module("config",
	fx.Provide(Load),
	fx.Provide(NewVerseDefaultsHolder),
)

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:     getenv("APP_SERVICE", "brytespring"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),

		AuthJWTSecret: strings.TrimSpace(getenv("AUTH_JWT_SECRET", "")),
		InviteBaseURL: getenv("INVITE_BASE_URL", "http://localhost:3000"),

		SuperadminEmail:    strings.ToLower(strings.TrimSpace(getenv("SUPERADMIN_EMAIL", ""))),
		SuperadminPassword: getenv("SUPERADMIN_PASSWORD", ""),

		OTLPEndpoint: getenv("OTLP_ENDPOINT", "localhost:4317"),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "brytespring"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", "postgres"),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 25),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 3600),

		Spaces: SpacesConfig{
			Endpoint:    getenv("SPACES_ENDPOINT", ""),
			Region:      getenv("SPACES_REGION", "fra1"),
			AccessKey:   strings.TrimSpace(getenv("SPACES_ACCESS_KEY", "")),
			SecretKey:   strings.TrimSpace(getenv("SPACES_SECRET_KEY", "")),
			Bucket:      getenv("SPACES_BUCKET", ""),
			CDNEndpoint: strings.TrimRight(getenv("SPACES_CDN_ENDPOINT", ""), "/"),
			Secure:      getenvBool("SPACES_SECURE", true),
		},
		Email: EmailConfig{
			SMTPHost:     getenv("SMTP_HOST", ""),
			SMTPPort:     getenvInt("SMTP_PORT", 587),
			SMTPUsername: getenv("SMTP_USERNAME", ""),
			SMTPPassword: getenv("SMTP_PASSWORD", ""),
			From:         getenv("EMAIL_FROM", "noreply@brytespring.app"),
			FromName:     getenv("EMAIL_FROM_NAME", "BryteSpring"),

			CleverReachClientID:     strings.TrimSpace(getenv("CLEVERREACH_CLIENT_ID", "")),
			CleverReachClientSecret: strings.TrimSpace(getenv("CLEVERREACH_CLIENT_SECRET", "")),
			CleverReachGroupName:    getenv("CLEVERREACH_GROUP_NAME", "BryteSpring Invitations"),
		},
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}
