package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Config carries everything handlers need, resolved once at startup and
// passed down explicitly. Handlers never read the environment or touch
// package-level state, which keeps them swappable with fakes in tests.
type Config struct {
	Port           string
	Env            string // "development" or "production"
	AllowedOrigins []string
	AppBaseURL     string // used to build invite links

	MongoClient *mongo.Client
	DBName      string

	JWTSecret string
	JWTTTL    time.Duration

	GoogleClientID     string
	GoogleClientSecret string

	EmailAPIURL string
	EmailAPIKey string
	EmailFrom   string

	FastSMSKey  string
	TextbeltKey string
}

// Load reads configuration from the environment. Call godotenv.Load
// first in main if a .env file should be honored.
func Load() (*Config, error) {
	cfg := &Config{
		Port:               getenv("PORT", "8080"),
		Env:                getenv("APP_ENV", "development"),
		AppBaseURL:         getenv("APP_BASE_URL", "http://localhost:5173"),
		DBName:             getenv("MONGODB_DB", "eventify"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		EmailAPIURL:        os.Getenv("ZEPTO_API_URL"),
		EmailAPIKey:        os.Getenv("ZEPTO_API_KEY"),
		EmailFrom:          os.Getenv("EMAIL_FROM"),
		FastSMSKey:         os.Getenv("FASTSMS_API_KEY"),
		TextbeltKey:        os.Getenv("TEXTBELT_API_KEY"),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	ttlHours := 24
	if v := os.Getenv("JWT_TTL_HOURS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid JWT_TTL_HOURS: %q", v)
		}
		ttlHours = n
	}
	cfg.JWTTTL = time.Duration(ttlHours) * time.Hour

	cfg.AllowedOrigins = SplitOrigins(getenv("CLIENT_ORIGINS", "http://localhost:5173"))

	return cfg, nil
}

// SplitOrigins parses the comma-separated CLIENT_ORIGINS value.
func SplitOrigins(s string) []string {
	var out []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// ConnectMongo dials MongoDB and pings the primary before returning.
func (c *Config) ConnectMongo(ctx context.Context) error {
	uri := getenv("MONGODB_URI", "mongodb://localhost:27017")

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("mongo ping: %w", err)
	}

	c.MongoClient = client
	return nil
}

// DB is shorthand for the application database handle.
func (c *Config) DB() *mongo.Database {
	return c.MongoClient.Database(c.DBName)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
