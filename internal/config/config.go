package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Branding
	SalonName string

	// Backend selection
	DataBackend string

	// SQLite backend
	SQLiteDBPath string

	// Memory backend staff seed
	SeedStaff []string

	// REST backend (hosted BaaS)
	RESTBaseURL string
	RESTAPIKey  string

	// Local auth seed (sqlite backend)
	AdminEmail    string
	AdminPassword string

	// Session persistence for the remember-me tier
	SessionFile string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Twilio SMS
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string

	// Reminder worker
	ReminderInterval  time.Duration
	ReminderLookahead time.Duration
}

func Load() *Config {
	cfg := &Config{
		Port:      getEnv("PORT", "8081"),
		SalonName: getEnv("SALON_NAME", "Salon"),

		DataBackend:  getEnv("DATA_BACKEND", "memory"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/salon.db"),
		SeedStaff:    splitList(getEnv("SEED_STAFF", "Emre,Deniz,Selin")),

		RESTBaseURL: getEnv("REST_BASE_URL", ""),
		RESTAPIKey:  getEnv("REST_API_KEY", ""),

		AdminEmail:    getEnv("ADMIN_EMAIL", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),

		SessionFile: getEnv("SESSION_FILE", "./data/session.json"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "salon"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "appointment_events"),

		TwilioAccountSID: getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioFromNumber: getEnv("TWILIO_PHONE_NUMBER", ""),

		ReminderInterval:  getEnvDuration("REMINDER_INTERVAL", 60*time.Second),
		ReminderLookahead: getEnvDuration("REMINDER_LOOKAHEAD", 10*time.Minute),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate data backend
	validBackends := []string{"memory", "sqlite", "rest"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	// Validate SQLite configuration if backend is sqlite
	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
		if c.AdminEmail != "" && c.AdminPassword == "" {
			errors = append(errors, "ADMIN_PASSWORD is required when ADMIN_EMAIL is set")
		}
	}

	// Validate REST configuration if backend is rest
	if c.DataBackend == "rest" {
		if c.RESTBaseURL == "" {
			errors = append(errors, "REST base URL is required when using rest backend")
		} else if parsedURL, err := url.Parse(c.RESTBaseURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid REST base URL '%s': %v", c.RESTBaseURL, err))
		} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			errors = append(errors, fmt.Sprintf("invalid REST base URL scheme '%s': must be 'http' or 'https'", parsedURL.Scheme))
		}
		if c.RESTAPIKey == "" {
			errors = append(errors, "REST API key is required when using rest backend")
		}
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	// Twilio credentials are all-or-nothing; partial credentials are a
	// misconfiguration rather than demo mode.
	twilioSet := 0
	for _, v := range []string{c.TwilioAccountSID, c.TwilioAuthToken, c.TwilioFromNumber} {
		if v != "" {
			twilioSet++
		}
	}
	if twilioSet != 0 && twilioSet != 3 {
		errors = append(errors, "incomplete Twilio configuration: set all of TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN, TWILIO_PHONE_NUMBER or none")
	}

	// Validate reminder worker configuration
	if c.ReminderInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid reminder interval %v: must be at least 1 second", c.ReminderInterval))
	} else if c.ReminderInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid reminder interval %v: must be at most 24 hours", c.ReminderInterval))
	}

	if c.ReminderLookahead < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid reminder lookahead %v: must be at least 1 minute", c.ReminderLookahead))
	} else if c.ReminderLookahead > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid reminder lookahead %v: must be at most 24 hours", c.ReminderLookahead))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
