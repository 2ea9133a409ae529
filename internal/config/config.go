package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

// Sample and insight store backends.
const (
	StoreInflux    = "influx"
	StoreFirestore = "firestore"
	StoreRedis     = "redis"
	StoreMemory    = "memory"
)

// Config holds the application's configuration.
type Config struct {
	Port               string
	CORSAllowedOrigins []string
	RequestTimeout     time.Duration

	SampleStore  string
	InsightStore string

	InfluxDBURL    string
	InfluxDBToken  string
	InfluxDBOrg    string
	InfluxDBBucket string

	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	InsightCacheTTL time.Duration

	FirebaseProjectID         string
	FirebaseServiceAccountKey string

	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string
	OpenAITimeout time.Duration

	InsightLocation *time.Location

	Auth0Issuer   string
	Auth0Audience string
}

// AuthEnabled reports whether bearer tokens are required on /api routes.
func (c Config) AuthEnabled() bool {
	return c.Auth0Issuer != "" && c.Auth0Audience != ""
}

// LoadConfig loads the configuration from a .env file, if any, and environment variables.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on system environment variables")
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function and validates it.
func FromEnv(getenv func(string) string) (Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := Config{
		Port:               get("PORT", "8000"),
		CORSAllowedOrigins: splitList(get("CORS_ALLOWED_ORIGINS", "*")),
		SampleStore:        strings.ToLower(get("SAMPLE_STORE", StoreInflux)),
		InsightStore:       strings.ToLower(get("INSIGHT_STORE", StoreRedis)),

		InfluxDBURL:    get("INFLUXDB_URL", ""),
		InfluxDBToken:  get("INFLUXDB_TOKEN", ""),
		InfluxDBOrg:    get("INFLUXDB_ORG", ""),
		InfluxDBBucket: get("INFLUXDB_BUCKET", "xuunu"),

		RedisAddr:     get("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getenv("REDIS_PASSWORD"),

		FirebaseProjectID:         get("FIREBASE_PROJECT_ID", ""),
		FirebaseServiceAccountKey: getenv("FIREBASE_SERVICE_ACCOUNT_KEY"),

		OpenAIAPIKey:  get("OPENAI_API_KEY", ""),
		OpenAIModel:   get("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL: get("OPENAI_BASE_URL", "https://api.openai.com/v1"),

		Auth0Issuer:   get("AUTH0_ISSUER", ""),
		Auth0Audience: get("AUTH0_AUDIENCE", ""),
	}

	var err error
	if cfg.RedisDB, err = strconv.Atoi(get("REDIS_DB", "0")); err != nil {
		return Config{}, fmt.Errorf("REDIS_DB must be an integer: %w", err)
	}
	if cfg.InsightCacheTTL, err = parseDuration(get("INSIGHT_CACHE_TTL", "0")); err != nil {
		return Config{}, fmt.Errorf("INSIGHT_CACHE_TTL: %w", err)
	}
	if cfg.OpenAITimeout, err = parseDuration(get("OPENAI_TIMEOUT", "15s")); err != nil {
		return Config{}, fmt.Errorf("OPENAI_TIMEOUT: %w", err)
	}
	if cfg.RequestTimeout, err = parseDuration(get("REQUEST_TIMEOUT", "20s")); err != nil {
		return Config{}, fmt.Errorf("REQUEST_TIMEOUT: %w", err)
	}
	if cfg.InsightLocation, err = time.LoadLocation(get("INSIGHT_TIMEZONE", "UTC")); err != nil {
		return Config{}, fmt.Errorf("INSIGHT_TIMEZONE: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.SampleStore {
	case StoreInflux:
		if c.InfluxDBURL == "" || c.InfluxDBToken == "" || c.InfluxDBOrg == "" {
			return fmt.Errorf("InfluxDB configuration is incomplete. Please set INFLUXDB_URL, INFLUXDB_TOKEN, and INFLUXDB_ORG environment variables")
		}
	case StoreFirestore, StoreMemory:
	default:
		return fmt.Errorf("unknown SAMPLE_STORE %q (want influx, firestore or memory)", c.SampleStore)
	}

	switch c.InsightStore {
	case StoreRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required when INSIGHT_STORE=redis")
		}
	case StoreFirestore, StoreMemory:
	default:
		return fmt.Errorf("unknown INSIGHT_STORE %q (want redis, firestore or memory)", c.InsightStore)
	}

	// The service account key carries its own project_id.
	if (c.SampleStore == StoreFirestore || c.InsightStore == StoreFirestore) &&
		c.FirebaseProjectID == "" && c.FirebaseServiceAccountKey == "" {
		return fmt.Errorf("FIREBASE_PROJECT_ID or FIREBASE_SERVICE_ACCOUNT_KEY is required for the firestore store")
	}
	if (c.Auth0Issuer == "") != (c.Auth0Audience == "") {
		return fmt.Errorf("AUTH0_ISSUER and AUTH0_AUDIENCE must be set together")
	}
	return nil
}

// parseDuration accepts Go durations ("90s") or a bare number of seconds.
func parseDuration(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if secs, convErr := strconv.Atoi(s); convErr == nil {
		d, err = time.Duration(secs)*time.Second, nil
	}
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", s)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
