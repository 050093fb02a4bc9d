package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	App      AppConfig
	SheerID  SheerIDConfig
	Verify   VerifyConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port string
}

// AppConfig holds application-specific settings
type AppConfig struct {
	JWTSecret       string
	AdminExternalID int64
	InviteLinkBase  string
}

// SheerIDConfig holds settings for the remote verification status endpoint
type SheerIDConfig struct {
	BaseURL      string
	PollInterval time.Duration
}

// VerifyConfig holds per-service verification settings. Concurrency and poll
// windows are keyed by service type and must cover every registered verifier;
// there is no fallback construction at the point of use.
type VerifyConfig struct {
	Cost              int64
	Concurrency       map[string]int64
	PollWindow        map[string]time.Duration
	ReconcileInterval time.Duration
	ReconcileMinAge   time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	adminID, err := getEnvInt64("ADMIN_EXTERNAL_ID", 0)
	if err != nil {
		return nil, err
	}

	cost, err := getEnvInt64("VERIFY_COST", 5)
	if err != nil {
		return nil, err
	}

	config := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "tgbot_verify"),
		},
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
		},
		App: AppConfig{
			JWTSecret:       getEnv("JWT_SECRET", ""),
			AdminExternalID: adminID,
			InviteLinkBase:  getEnv("INVITE_LINK_BASE", "https://t.me/sheerid_verify_bot?start="),
		},
		SheerID: SheerIDConfig{
			BaseURL:      getEnv("SHEERID_BASE_URL", "https://my.sheerid.com"),
			PollInterval: getEnvDuration("SHEERID_POLL_INTERVAL", 5*time.Second),
		},
		Verify: VerifyConfig{
			Cost:              cost,
			Concurrency:       defaultConcurrency(),
			PollWindow:        defaultPollWindows(),
			ReconcileInterval: getEnvDuration("RECONCILE_INTERVAL", time.Minute),
			ReconcileMinAge:   getEnvDuration("RECONCILE_MIN_AGE", 5*time.Minute),
		},
	}

	// Validate required fields
	if config.App.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if config.App.AdminExternalID == 0 {
		return nil, fmt.Errorf("ADMIN_EXTERNAL_ID is required")
	}

	return config, nil
}

// defaultConcurrency reads the per-service verifier caps. Every service gets
// an explicit entry up front so nothing downstream has to invent one.
func defaultConcurrency() map[string]int64 {
	caps := map[string]int64{}
	for _, svc := range []string{
		"gemini_one_pro",
		"chatgpt_teacher_k12",
		"spotify_student",
		"bolt_teacher",
		"youtube_student",
	} {
		n, err := getEnvInt64("VERIFY_CONCURRENCY_"+envKey(svc), 3)
		if err != nil || n <= 0 {
			n = 3
		}
		caps[svc] = n
	}
	return caps
}

// defaultPollWindows returns the bounded review-poll window per service.
// Bolt.new reviews usually land within seconds; the rest take longer.
func defaultPollWindows() map[string]time.Duration {
	windows := map[string]time.Duration{
		"gemini_one_pro":      30 * time.Second,
		"chatgpt_teacher_k12": 30 * time.Second,
		"spotify_student":     60 * time.Second,
		"bolt_teacher":        20 * time.Second,
		"youtube_student":     60 * time.Second,
	}
	for svc := range windows {
		windows[svc] = getEnvDuration("VERIFY_POLL_WINDOW_"+envKey(svc), windows[svc])
	}
	return windows
}

// GetDSN returns the PostgreSQL connection string
func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt64(key string, defaultValue int64) (int64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}

func envKey(service string) string {
	out := make([]byte, 0, len(service))
	for i := 0; i < len(service); i++ {
		c := service[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		out = append(out, c)
	}
	return string(out)
}
