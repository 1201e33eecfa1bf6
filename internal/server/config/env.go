package config

import (
	"os"
	"strconv"
	"time"
)

// parseEnv overlays Config fields from environment variables. Unset or
// malformed values leave the current value untouched.
//
// Recognized variables:
//
//	ADDRESS                 HTTP bind address
//	HEALTH_ADDRESS          gRPC health bind address
//	DATABASE_DSN            PostgreSQL DSN
//	SECRET_KEY              JWT signing secret (required, see Validate)
//	TOKEN_VALIDITY_MINUTES  bearer token lifetime
//	OTP_VALIDITY_MINUTES    password-reset OTP lifetime
//	GOOGLE_SERVER_ID        Google OAuth client ID
//	MAIL_SERVER, MAIL_PORT, MAIL_USERNAME, MAIL_PASSWORD,
//	MAIL_FROM, MAIL_FROM_NAME
//	S3_ROOT_USER, S3_ROOT_PASSWORD, S3_BUCKET, S3_REGION, S3_BASE_ENDPOINT
func parseEnv(config *Config) {
	setString := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	setInt := func(dst *int, key string) {
		if v, ok := os.LookupEnv(key); ok {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	setMinutes := func(dst *time.Duration, key string) {
		if v, ok := os.LookupEnv(key); ok {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = time.Duration(n) * time.Minute
			}
		}
	}

	setString(&config.EndpointAddrHTTP, "ADDRESS")
	setString(&config.EndpointAddrHealth, "HEALTH_ADDRESS")
	setString(&config.DatabaseDSN, "DATABASE_DSN")
	setString(&config.SecretKey, "SECRET_KEY")
	setMinutes(&config.TokenValidityDuration, "TOKEN_VALIDITY_MINUTES")
	setMinutes(&config.OTPValidityDuration, "OTP_VALIDITY_MINUTES")
	setString(&config.GoogleClientID, "GOOGLE_SERVER_ID")
	setString(&config.MailHost, "MAIL_SERVER")
	setInt(&config.MailPort, "MAIL_PORT")
	setString(&config.MailUsername, "MAIL_USERNAME")
	setString(&config.MailPassword, "MAIL_PASSWORD")
	setString(&config.MailFrom, "MAIL_FROM")
	setString(&config.MailFromName, "MAIL_FROM_NAME")
	setString(&config.S3RootUser, "S3_ROOT_USER")
	setString(&config.S3RootPassword, "S3_ROOT_PASSWORD")
	setString(&config.S3Bucket, "S3_BUCKET")
	setString(&config.S3Region, "S3_REGION")
	setString(&config.S3BaseEndpoint, "S3_BASE_ENDPOINT")
}
