// Package config loads application configuration from environment variables.
package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	ListenAddr     string
	DBPath         string
	SupabaseAPIURL string
	// SecretKey is the 32-byte AES-256 key protecting stored access tokens.
	// Nil when SUPASCOPE_SECRET_KEY is unset; integration endpoints are
	// then inoperable but the service still starts.
	SecretKey []byte
	// APIKeys maps opaque caller API keys to customer IDs.
	APIKeys map[string]string
}

// Load reads configuration from the environment (and a .env file when
// present) and returns a validated Config.
//
// Optional variables with defaults: SUPASCOPE_LISTEN_ADDR (127.0.0.1:8080),
// SUPASCOPE_DB_PATH (supascope.db), SUPASCOPE_SUPABASE_API_URL
// (https://api.supabase.com/v1). SUPASCOPE_SECRET_KEY must be 64 hex chars
// when set. SUPASCOPE_API_KEYS is a comma-separated list of key:customerID
// pairs.
func Load() (*Config, error) {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	listenAddr := "127.0.0.1:8080"
	if v, ok := os.LookupEnv("SUPASCOPE_LISTEN_ADDR"); ok {
		listenAddr = v
	}

	dbPath := "supascope.db"
	if v, ok := os.LookupEnv("SUPASCOPE_DB_PATH"); ok {
		dbPath = v
	}

	apiURL := "https://api.supabase.com/v1"
	if v, ok := os.LookupEnv("SUPASCOPE_SUPABASE_API_URL"); ok {
		apiURL = strings.TrimRight(v, "/")
	}

	var secretKey []byte
	if v, ok := os.LookupEnv("SUPASCOPE_SECRET_KEY"); ok && v != "" {
		decoded, err := hex.DecodeString(v)
		if err != nil {
			return nil, fmt.Errorf("SUPASCOPE_SECRET_KEY is not valid hex: %w", err)
		}
		if len(decoded) != 32 {
			return nil, fmt.Errorf("SUPASCOPE_SECRET_KEY must decode to 32 bytes, got %d", len(decoded))
		}
		secretKey = decoded
	}

	apiKeys, err := parseAPIKeys(os.Getenv("SUPASCOPE_API_KEYS"))
	if err != nil {
		return nil, err
	}

	return &Config{
		ListenAddr:     listenAddr,
		DBPath:         dbPath,
		SupabaseAPIURL: apiURL,
		SecretKey:      secretKey,
		APIKeys:        apiKeys,
	}, nil
}

// parseAPIKeys parses "key:customer,key:customer" into a map.
func parseAPIKeys(raw string) (map[string]string, error) {
	keys := map[string]string{}
	if raw == "" {
		return keys, nil
	}

	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, customerID, ok := strings.Cut(pair, ":")
		if !ok || key == "" || customerID == "" {
			return nil, fmt.Errorf("SUPASCOPE_API_KEYS entry %q is not key:customerID", pair)
		}
		keys[key] = customerID
	}

	return keys, nil
}
