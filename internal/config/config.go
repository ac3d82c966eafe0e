// Package config loads the API server settings from configs/.env and the
// process environment.
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
	KSeFModeMock    = "mock"
	KSeFModeSandbox = "sandbox"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	Port           string
	JWTSecret      string
	GinMode        string
	AllowedOrigins []string

	KSeF KSeFConfig
}

// KSeFConfig controls how accepted invoices are forwarded to the gateway.
type KSeFConfig struct {
	Mode           string
	SandboxBaseURL string
	Timeout        time.Duration
	Workers        int
	QueueSize      int
}

// Load reads configs/.env if present and fills every setting from the
// environment, falling back to development defaults.
func Load() Config {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function such as os.Getenv.
func FromEnv(getenv func(string) string) Config {
	get := func(key, fallback string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return fallback
	}

	cfg := Config{
		DBHost:     get("DB_HOST", "localhost"),
		DBPort:     get("DB_PORT", "5432"),
		DBUser:     get("DB_USER", "postgres"),
		DBPassword: get("DB_PASSWORD", "postgres"),
		DBName:     get("DB_NAME", "postgres"),
		DBSSLMode:  get("DB_SSLMODE", "disable"),
		Port:       get("PORT", "8080"),
		JWTSecret:  getenv("JWT_SECRET"),
		GinMode:    getenv("GIN_MODE"),
		AllowedOrigins: splitList(get("ALLOWED_ORIGINS",
			"http://localhost:5173,http://127.0.0.1:5173,http://localhost:3000")),
		KSeF: KSeFConfig{
			Mode:           get("KSEF_MODE", KSeFModeMock),
			SandboxBaseURL: get("KSEF_SANDBOX_BASE_URL", "https://ksef-test.mf.gov.pl/api"),
			Timeout:        time.Duration(atoi(getenv("KSEF_TIMEOUT_SEC"), 30)) * time.Second,
			Workers:        atoi(getenv("KSEF_WORKERS"), 2),
			QueueSize:      atoi(getenv("KSEF_QUEUE_SIZE"), 100),
		},
	}

	if cfg.KSeF.Mode != KSeFModeMock && cfg.KSeF.Mode != KSeFModeSandbox {
		log.Printf("Unknown KSEF_MODE %q, falling back to %s", cfg.KSeF.Mode, KSeFModeMock)
		cfg.KSeF.Mode = KSeFModeMock
	}

	return cfg
}

// DSN returns the postgres connection URL.
func (c Config) DSN() string {
	return "postgres://" + c.DBUser + ":" + c.DBPassword + "@" + c.DBHost + ":" + c.DBPort + "/" + c.DBName + "?sslmode=" + c.DBSSLMode
}

// Secret returns the JWT signing key. A missing secret is fatal in release
// mode and replaced by a development key otherwise.
func (c Config) Secret() []byte {
	if c.JWTSecret == "" {
		if c.GinMode == "release" {
			log.Fatal("JWT_SECRET environment variable is required in release mode")
		}
		return []byte("default_super_secret_key")
	}
	return []byte(c.JWTSecret)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func atoi(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
