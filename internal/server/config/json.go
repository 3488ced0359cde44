package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/gophauth/internal/timex"
)

// JsonConfig is the on-disk shape of the optional config file. Durations
// accept "15m"-style strings or integer nanoseconds. Absent keys leave the
// corresponding Config field unchanged.
type JsonConfig struct {
	EndpointAddrGRPC            string          `json:"endpoint_addr_grpc"`
	MetricsAddr                 string          `json:"metrics_addr"`
	DatabaseDSN                 string          `json:"database_dsn"`
	SecretKey                   string          `json:"secret_key"`
	AccessTokenValidityDuration *timex.Duration `json:"access_token_validity_duration"`
	SessionLifespanDays         int             `json:"session_lifespan_days"`
	VerificationCodeValidity    *timex.Duration `json:"verification_code_validity"`
	VerificationCodeSecret      string          `json:"verification_code_secret"`
	SMTPHost                    string          `json:"smtp_host"`
	SMTPPort                    int             `json:"smtp_port"`
	SMTPUser                    string          `json:"smtp_user"`
	SMTPPassword                string          `json:"smtp_password"`
	MailFrom                    string          `json:"mail_from"`
	MailFromName                string          `json:"mail_from_name"`
	RedisAddr                   string          `json:"redis_addr"`
	LockTTL                     *timex.Duration `json:"lock_ttl"`
	OperationTimeout            *timex.Duration `json:"operation_timeout"`
	LogLevel                    string          `json:"log_level"`
	SentryDSN                   string          `json:"sentry_dsn"`
}

// parseJson loads path (if non-empty) and copies every present value into config.
func parseJson(config *Config, path string) error {
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("decode config file: %w", err)
	}

	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.MetricsAddr, c.MetricsAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.VerificationCodeSecret, c.VerificationCodeSecret)
	setString(&config.SMTPHost, c.SMTPHost)
	setString(&config.SMTPUser, c.SMTPUser)
	setString(&config.SMTPPassword, c.SMTPPassword)
	setString(&config.MailFrom, c.MailFrom)
	setString(&config.MailFromName, c.MailFromName)
	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.SentryDSN, c.SentryDSN)

	if c.SessionLifespanDays != 0 {
		config.SessionLifespanDays = c.SessionLifespanDays
	}
	if c.SMTPPort != 0 {
		config.SMTPPort = c.SMTPPort
	}
	if c.AccessTokenValidityDuration != nil {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.VerificationCodeValidity != nil {
		config.VerificationCodeValidity = c.VerificationCodeValidity.Duration
	}
	if c.LockTTL != nil {
		config.LockTTL = c.LockTTL.Duration
	}
	if c.OperationTimeout != nil {
		config.OperationTimeout = c.OperationTimeout.Duration
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
