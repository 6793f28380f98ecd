package config

import (
	"os"
	"strconv"
	"time"
)

// parseEnv overlays configuration from environment variables. Variable names
// follow the deployment conventions of the original service. Unset variables
// leave the current value in place.
func parseEnv(config *Config) {
	envString(&config.EndpointAddrHTTP, "SERVER_ADDRESS")
	envString(&config.DatabaseDSN, "DATABASE_DSN")
	envString(&config.SecretKey, "JWT_SECRET_KEY")

	envDuration(&config.AccessTokenValidityDuration, "JWT_ACCESS_TOKEN_TTL")
	envDuration(&config.RefreshTokenValidityDuration, "JWT_REFRESH_TOKEN_TTL")
	envDuration(&config.VerifyTokenValidityDuration, "VERIFY_TOKEN_TTL")
	envDuration(&config.ResetTokenValidityDuration, "RESET_TOKEN_TTL")

	envString(&config.CookieName, "REFRESH_TOKEN_COOKIE_NAME")
	envBool(&config.CookieSecure, "REFRESH_TOKEN_COOKIE_SECURE")
	envString(&config.CookieSameSite, "REFRESH_TOKEN_COOKIE_SAME_SITE")

	envString(&config.SMTPHost, "SMTP_HOST")
	envInt(&config.SMTPPort, "SMTP_PORT")
	envString(&config.SMTPUser, "SMTP_USER")
	envString(&config.SMTPPassword, "SMTP_PASSWORD")
	envString(&config.EmailFrom, "EMAIL_FROM")

	envString(&config.FrontendBaseURL, "FRONTEND_URL")

	envString(&config.StorageType, "STORAGE_TYPE")
	envString(&config.UploadDir, "UPLOAD_DIR")
	envString(&config.S3AccessKey, "AWS_ACCESS_KEY_ID")
	envString(&config.S3SecretKey, "AWS_SECRET_ACCESS_KEY")
	envString(&config.S3Bucket, "AWS_S3_BUCKET_NAME")
	envString(&config.S3Region, "AWS_REGION")
	envString(&config.S3BaseEndpoint, "AWS_S3_ENDPOINT")
}

func envString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func envInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envBool(dst *bool, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func envDuration(dst *time.Duration, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
