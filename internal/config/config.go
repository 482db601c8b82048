package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const DefaultThreshold = 85.0

type Config struct {
	DBPath    string `yaml:"db_path"`
	OutputDir string `yaml:"output_dir"`
	InboxDir  string `yaml:"inbox_dir"`

	MatchThreshold float64 `yaml:"match_threshold"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	HTTPAddr         string `yaml:"http_addr"`
	HTTPMaxUploadMB  int    `yaml:"http_max_upload_mb"`
	HTTPReadTimeoutS int    `yaml:"http_read_timeout_sec"`

	ListenerIntervalSec int  `yaml:"listener_interval_sec"`
	ListenerAutoExport  bool `yaml:"listener_auto_export"`

	// MailProvider is gmail, imap or empty to disable mail intake.
	MailProvider     string `yaml:"mail_provider"`
	MailLabel        string `yaml:"mail_label"`
	MailFetchMax     int    `yaml:"mail_fetch_max"`
	MailRateLimitRPS int    `yaml:"mail_rate_limit_rps"`

	GmailClientID     string `yaml:"gmail_client_id"`
	GmailClientSecret string `yaml:"gmail_client_secret"`
	GmailRedirectURI  string `yaml:"gmail_redirect_uri"`
	GmailRefreshToken string `yaml:"gmail_refresh_token"`
	GmailQuery        string `yaml:"gmail_query"`

	IMAPHost     string `yaml:"imap_host"`
	IMAPPort     int    `yaml:"imap_port"`
	IMAPSecure   bool   `yaml:"imap_secure"`
	IMAPUser     string `yaml:"imap_user"`
	IMAPPassword string `yaml:"imap_password"`
	IMAPMarkSeen bool   `yaml:"imap_mark_seen"`
}

func defaults(cwd string) Config {
	return Config{
		DBPath:    filepath.Join(cwd, "data", "app.db"),
		OutputDir: filepath.Join(cwd, "out"),
		InboxDir:  filepath.Join(cwd, "data", "inbox"),

		MatchThreshold: DefaultThreshold,

		LogLevel:  "info",
		LogFormat: "text",

		HTTPAddr:         ":8085",
		HTTPMaxUploadMB:  32,
		HTTPReadTimeoutS: 30,

		ListenerIntervalSec: 30,
		ListenerAutoExport:  true,

		MailLabel:        "INBOX",
		MailFetchMax:     20,
		MailRateLimitRPS: 5,

		GmailRedirectURI: "https://developers.google.com/oauthplayground",
		GmailQuery:       "has:attachment",

		IMAPPort:   993,
		IMAPSecure: true,
	}
}

// Load layers defaults, then CONFIG_FILE (yaml) when set, then the
// environment (including .env).
func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}
	cfg := defaults(cwd)

	if path := getEnv("CONFIG_FILE", ""); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	cfg.DBPath = getEnv("DB_PATH", cfg.DBPath)
	cfg.OutputDir = getEnv("OUTPUT_DIR", cfg.OutputDir)
	cfg.InboxDir = getEnv("INBOX_DIR", cfg.InboxDir)
	cfg.MatchThreshold = getEnvFloat("MATCH_THRESHOLD", cfg.MatchThreshold)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("LOG_FORMAT", cfg.LogFormat)
	cfg.HTTPAddr = getEnv("HTTP_ADDR", cfg.HTTPAddr)
	cfg.HTTPMaxUploadMB = getEnvInt("HTTP_MAX_UPLOAD_MB", cfg.HTTPMaxUploadMB)
	cfg.HTTPReadTimeoutS = getEnvInt("HTTP_READ_TIMEOUT_SEC", cfg.HTTPReadTimeoutS)
	cfg.ListenerIntervalSec = getEnvInt("LISTENER_INTERVAL_SEC", cfg.ListenerIntervalSec)
	cfg.ListenerAutoExport = getEnvBool("LISTENER_AUTO_EXPORT", cfg.ListenerAutoExport)

	cfg.MailProvider = strings.ToLower(strings.TrimSpace(getEnv("MAIL_PROVIDER", cfg.MailProvider)))
	cfg.MailLabel = getEnv("MAIL_LABEL", cfg.MailLabel)
	cfg.MailFetchMax = getEnvInt("MAIL_FETCH_MAX", cfg.MailFetchMax)
	cfg.MailRateLimitRPS = getEnvInt("MAIL_RATE_LIMIT_RPS", cfg.MailRateLimitRPS)

	cfg.GmailClientID = getEnv("GMAIL_CLIENT_ID", cfg.GmailClientID)
	cfg.GmailClientSecret = getEnv("GMAIL_CLIENT_SECRET", cfg.GmailClientSecret)
	cfg.GmailRedirectURI = getEnv("GMAIL_REDIRECT_URI", cfg.GmailRedirectURI)
	cfg.GmailRefreshToken = getEnv("GMAIL_REFRESH_TOKEN", cfg.GmailRefreshToken)
	cfg.GmailQuery = getEnv("GMAIL_QUERY", cfg.GmailQuery)

	cfg.IMAPHost = getEnv("IMAP_HOST", cfg.IMAPHost)
	cfg.IMAPPort = getEnvInt("IMAP_PORT", cfg.IMAPPort)
	cfg.IMAPSecure = getEnvBool("IMAP_SECURE", cfg.IMAPSecure)
	cfg.IMAPUser = getEnv("IMAP_USER", cfg.IMAPUser)
	cfg.IMAPPassword = getEnv("IMAP_PASSWORD", cfg.IMAPPassword)
	cfg.IMAPMarkSeen = getEnvBool("IMAP_MARK_SEEN", cfg.IMAPMarkSeen)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	blob, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(blob, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c Config) Validate() error {
	if err := ValidateThreshold(c.MatchThreshold); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid LOG_FORMAT %q: want text or json", c.LogFormat)
	}
	switch c.MailProvider {
	case "", "gmail", "imap":
	default:
		return fmt.Errorf("unsupported MAIL_PROVIDER %q: want gmail or imap", c.MailProvider)
	}
	if c.ListenerIntervalSec <= 0 {
		return fmt.Errorf("invalid LISTENER_INTERVAL_SEC %d", c.ListenerIntervalSec)
	}
	return nil
}

func ValidateThreshold(v float64) error {
	if v < 0 || v > 100 {
		return fmt.Errorf("match threshold must be within 0..100, got %v", v)
	}
	return nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required setting: %s", name)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}
