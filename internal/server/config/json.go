package config

import (
	"encoding/json"
	"os"

	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/flagx"
	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/timex"
)

// JsonConfig is an intermediate DTO used only for reading JSON configuration
// files. Interval fields use timex.Duration so both "30m" strings and integer
// nanoseconds parse. After unmarshalling, set fields are copied into Config.
type JsonConfig struct {
	EndpointAddrHTTP string `json:"endpoint_addr_http"`
	DatabaseDSN      string `json:"database_dsn"`
	SecretKey        string `json:"secret_key"`

	AccessTokenValidityDuration  *timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration *timex.Duration `json:"refresh_token_validity_duration"`
	VerifyTokenValidityDuration  *timex.Duration `json:"verify_token_validity_duration"`
	ResetTokenValidityDuration   *timex.Duration `json:"reset_token_validity_duration"`

	CookieName     string `json:"cookie_name"`
	CookieSecure   *bool  `json:"cookie_secure"`
	CookieSameSite string `json:"cookie_same_site"`

	SMTPHost     string `json:"smtp_host"`
	SMTPPort     int    `json:"smtp_port"`
	SMTPUser     string `json:"smtp_user"`
	SMTPPassword string `json:"smtp_password"`
	EmailFrom    string `json:"email_from"`

	FrontendBaseURL string `json:"frontend_base_url"`

	StorageType    string `json:"storage_type"`
	UploadDir      string `json:"upload_dir"`
	S3AccessKey    string `json:"s3_access_key"`
	S3SecretKey    string `json:"s3_secret_key"`
	S3Bucket       string `json:"s3_bucket"`
	S3Region       string `json:"s3_region"`
	S3BaseEndpoint string `json:"s3_base_endpoint"`
}

// parseJson loads configuration values from the JSON file named by the
// -c/-config flags into the provided Config. Unset fields are left alone so
// the overlay order (defaults, JSON, env, flags. last wins) holds. A file
// that cannot be read or parsed panics: a broken config is a deploy error.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(data, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)

	if c.AccessTokenValidityDuration != nil {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration != nil {
		config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	}
	if c.VerifyTokenValidityDuration != nil {
		config.VerifyTokenValidityDuration = c.VerifyTokenValidityDuration.Duration
	}
	if c.ResetTokenValidityDuration != nil {
		config.ResetTokenValidityDuration = c.ResetTokenValidityDuration.Duration
	}

	setString(&config.CookieName, c.CookieName)
	if c.CookieSecure != nil {
		config.CookieSecure = *c.CookieSecure
	}
	setString(&config.CookieSameSite, c.CookieSameSite)

	setString(&config.SMTPHost, c.SMTPHost)
	if c.SMTPPort != 0 {
		config.SMTPPort = c.SMTPPort
	}
	setString(&config.SMTPUser, c.SMTPUser)
	setString(&config.SMTPPassword, c.SMTPPassword)
	setString(&config.EmailFrom, c.EmailFrom)

	setString(&config.FrontendBaseURL, c.FrontendBaseURL)

	setString(&config.StorageType, c.StorageType)
	setString(&config.UploadDir, c.UploadDir)
	setString(&config.S3AccessKey, c.S3AccessKey)
	setString(&config.S3SecretKey, c.S3SecretKey)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
}

func setString(dst *string, val string) {
	if val != "" {
		*dst = val
	}
}
