package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverEmailJS = "emailjs"
	DriverSMTP    = "smtp"
)

type Config struct {
	Port        string
	FrontendURL string
	GinMode     string
	LogLevel    string
	// Delivery driver: "emailjs" (default) or "smtp"
	DeliveryDriver string
	// EmailJS relay configuration
	EmailJSAPIURL     string
	EmailJSServiceID  string
	EmailJSTemplateID string
	EmailJSPublicKey  string
	EmailJSPrivateKey string // Optional access token for strict mode
	RelayTimeout      time.Duration
	// Fixed recipient, never supplied by the visitor
	ContactRecipientName  string
	ContactRecipientEmail string
	// SMTP Configuration
	SMTPHost      string
	SMTPPort      string
	SMTPUsername  string
	SMTPPassword  string
	SMTPFromEmail string
	// Idle form sessions expire after this long
	ContactSessionTTL time.Duration
}

func LoadConfig() (*Config, error) {
	// Load .env file (only present locally, ignored in production)
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		FrontendURL: strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:3000"), "/"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		LogLevel:    getEnv("LOG_LEVEL", "INFO"),

		DeliveryDriver:    strings.ToLower(getEnv("DELIVERY_DRIVER", DriverEmailJS)),
		EmailJSAPIURL:     getEnv("EMAILJS_API_URL", "https://api.emailjs.com/api/v1.0/email/send"),
		EmailJSServiceID:  getEnv("EMAILJS_SERVICE_ID", ""),
		EmailJSTemplateID: getEnv("EMAILJS_TEMPLATE_ID", ""),
		EmailJSPublicKey:  getEnv("EMAILJS_PUBLIC_KEY", ""),
		EmailJSPrivateKey: getEnv("EMAILJS_PRIVATE_KEY", ""),
		RelayTimeout:      getEnvDuration("RELAY_TIMEOUT", 10*time.Second),

		ContactRecipientName:  getEnv("CONTACT_RECIPIENT_NAME", "Wojtek"),
		ContactRecipientEmail: getEnv("CONTACT_RECIPIENT_EMAIL", ""),

		SMTPHost:      getEnv("SMTP_HOST", ""),
		SMTPPort:      getEnv("SMTP_PORT", "587"),
		SMTPUsername:  getEnv("SMTP_USERNAME", ""),
		SMTPPassword:  getEnv("SMTP_PASSWORD", ""),
		SMTPFromEmail: getEnv("SMTP_FROM_EMAIL", ""),

		ContactSessionTTL: getEnvDuration("CONTACT_SESSION_TTL", 30*time.Minute),
	}

	// Missing credentials are reported at send time; only warn here
	for _, w := range cfg.Warnings() {
		log.Println("WARNING: " + w)
	}

	return cfg, nil
}

// Warnings lists settings whose absence makes contact delivery fail or
// depend on relay-side defaults.
func (c *Config) Warnings() []string {
	var warnings []string
	if c.DeliveryDriver == DriverEmailJS &&
		(c.EmailJSServiceID == "" || c.EmailJSTemplateID == "" || c.EmailJSPublicKey == "") {
		warnings = append(warnings, "EmailJS relay is not fully configured. Contact submissions will fail.")
	}
	if c.DeliveryDriver == DriverSMTP && c.SMTPHost == "" {
		warnings = append(warnings, "SMTP_HOST is missing. Contact submissions will fail.")
	}
	if c.ContactRecipientEmail == "" {
		if c.DeliveryDriver == DriverSMTP {
			warnings = append(warnings, "CONTACT_RECIPIENT_EMAIL is not set. Messages go to the SMTP sender address.")
		} else {
			warnings = append(warnings, "CONTACT_RECIPIENT_EMAIL is not set. The EmailJS template's own recipient is used.")
		}
	}
	return warnings
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt returns an integer environment variable or fallback if not set/invalid
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvDuration accepts Go durations ("15s") or plain seconds ("15")
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		if secs := getEnvInt(key, -1); secs >= 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return fallback
}
