package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage drivers understood by STORAGE_DRIVER.
const (
	StorageMongoDB  = "mongodb"
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config represents the full application configuration surface.
type Config struct {
	Server      ServerConfig
	Storage     StorageConfig
	MongoDB     MongoDBConfig
	Postgres    PostgresConfig
	Redis       RedisConfig
	Auth        AuthConfig
	Electricity ElectricityConfig
	Razorpay    RazorpayConfig
	Firebase    FirebaseConfig
	WhatsApp    WhatsAppConfig
	Sheets      SheetsConfig
	Rent        RentConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port           string
	LogLevel       string
	AllowedOrigins []string
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Driver string
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// PostgresConfig holds the relational store DSN.
type PostgresConfig struct {
	DSN string
}

// RedisConfig enables the scheduler run lock when Addr is set.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// AuthConfig holds bearer token verification settings.
type AuthConfig struct {
	JWTSecret string
	DevBypass bool
}

// ElectricityConfig points at the electricity board. An empty BaseURL selects the simulated board.
type ElectricityConfig struct {
	BaseURL       string
	APIKey        string
	DefaultRegion string
	Timeout       time.Duration
}

// RazorpayConfig contains payment gateway credentials.
type RazorpayConfig struct {
	KeyID     string
	KeySecret string
	BaseURL   string
}

// FirebaseConfig enables FCM push notifications when both fields are set.
type FirebaseConfig struct {
	ProjectID       string
	CredentialsPath string
}

// WhatsAppConfig contains credentials and options for the Meta WhatsApp Cloud API.
type WhatsAppConfig struct {
	AccessToken   string
	PhoneNumberID string
	BaseURL       string
	APIVersion    string
}

// SheetsConfig contains configuration required to mirror the rent ledger to Google Sheets.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
	LedgerRange     string
}

// RentConfig holds the monthly generation job settings. An empty DigestSchedule
// disables the owner digest job.
type RentConfig struct {
	CronSchedule   string
	DigestSchedule string
	DueDay         int
	Timezone       string
}

// Enabled reports whether push notifications can be sent through FCM.
func (c FirebaseConfig) Enabled() bool { return c.ProjectID != "" && c.CredentialsPath != "" }

// Enabled reports whether the WhatsApp fallback channel is configured.
func (c WhatsAppConfig) Enabled() bool { return c.AccessToken != "" && c.PhoneNumberID != "" }

// Enabled reports whether the ledger mirror is configured.
func (c SheetsConfig) Enabled() bool { return c.CredentialsPath != "" && c.SpreadsheetID != "" }

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// A missing .env is fine when the environment is set directly.
		_ = godotenv.Load()
	}

	redisDB, err := getenvInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}
	dueDay, err := getenvInt("RENT_DUE_DAY", 10)
	if err != nil {
		return nil, err
	}
	boardTimeout, err := time.ParseDuration(getenvWithDefault("ELECTRICITY_BOARD_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("ELECTRICITY_BOARD_TIMEOUT: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           getenvWithDefault("APP_PORT", "8080"),
			LogLevel:       getenvWithDefault("LOG_LEVEL", "info"),
			AllowedOrigins: splitList(getenvWithDefault("CORS_ALLOWED_ORIGINS", "*")),
		},
		Storage: StorageConfig{
			Driver: strings.ToLower(getenvWithDefault("STORAGE_DRIVER", StorageMongoDB)),
		},
		MongoDB: MongoDBConfig{
			URI:    getenvWithDefault("MONGODB_URI", "mongodb://localhost:27017"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "rental"),
		},
		Postgres: PostgresConfig{
			DSN: os.Getenv("POSTGRES_DSN"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Auth: AuthConfig{
			JWTSecret: os.Getenv("JWT_SECRET"),
			DevBypass: getenvBool("AUTH_DEV_BYPASS"),
		},
		Electricity: ElectricityConfig{
			BaseURL:       os.Getenv("ELECTRICITY_BOARD_URL"),
			APIKey:        os.Getenv("ELECTRICITY_BOARD_API_KEY"),
			DefaultRegion: getenvWithDefault("ELECTRICITY_DEFAULT_REGION", "Maharashtra"),
			Timeout:       boardTimeout,
		},
		Razorpay: RazorpayConfig{
			KeyID:     os.Getenv("RAZORPAY_KEY_ID"),
			KeySecret: os.Getenv("RAZORPAY_KEY_SECRET"),
			BaseURL:   getenvWithDefault("RAZORPAY_BASE_URL", "https://api.razorpay.com/v1"),
		},
		Firebase: FirebaseConfig{
			ProjectID:       os.Getenv("FIREBASE_PROJECT_ID"),
			CredentialsPath: os.Getenv("FIREBASE_CREDENTIALS_PATH"),
		},
		WhatsApp: WhatsAppConfig{
			AccessToken:   os.Getenv("WHATSAPP_TOKEN"),
			PhoneNumberID: os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
			BaseURL:       getenvWithDefault("WHATSAPP_BASE_URL", "https://graph.facebook.com"),
			APIVersion:    getenvWithDefault("WHATSAPP_API_VERSION", "v20.0"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
			LedgerRange:     getenvWithDefault("GOOGLE_SHEET_LEDGER_RANGE", "Rent!A:I"),
		},
		Rent: RentConfig{
			CronSchedule:   getenvWithDefault("RENT_CRON_SCHEDULE", "0 6 1 * *"),
			DigestSchedule: os.Getenv("OWNER_DIGEST_CRON_SCHEDULE"),
			DueDay:         dueDay,
			Timezone:       getenvWithDefault("TIMEZONE", "Asia/Kolkata"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	switch c.Storage.Driver {
	case StorageMongoDB:
		if c.MongoDB.URI == "" || c.MongoDB.DBName == "" {
			return errors.New("MONGODB_URI and MONGODB_DB_NAME must be provided")
		}
	case StoragePostgres:
		if c.Postgres.DSN == "" {
			return errors.New("POSTGRES_DSN must be provided")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("STORAGE_DRIVER %q is not supported", c.Storage.Driver)
	}

	if c.Auth.JWTSecret == "" && !c.Auth.DevBypass {
		return errors.New("JWT_SECRET must be provided unless AUTH_DEV_BYPASS is enabled")
	}

	if c.Razorpay.KeyID == "" || c.Razorpay.KeySecret == "" {
		return errors.New("RAZORPAY_KEY_ID and RAZORPAY_KEY_SECRET must be provided")
	}

	if c.Electricity.DefaultRegion == "" {
		return errors.New("ELECTRICITY_DEFAULT_REGION must not be empty")
	}

	if c.Rent.CronSchedule == "" {
		return errors.New("RENT_CRON_SCHEDULE must be provided")
	}

	if c.Rent.DueDay < 1 || c.Rent.DueDay > 28 {
		return errors.New("RENT_DUE_DAY must be between 1 and 28")
	}

	if _, err := time.LoadLocation(c.Rent.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE: %w", err)
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return v, nil
}

func getenvBool(key string) bool {
	v, _ := strconv.ParseBool(os.Getenv(key))
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
