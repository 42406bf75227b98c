package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds everything the server reads from the environment.
type Config struct {
	Port           string
	AllowedOrigins []string
	JWTKey         string
	Debug          bool
}

// Load reads a .env file if one is present, then the process environment.
// PORT defaults to 3000; ALLOWED_ORIGINS and JWT_KEY are required.
func Load() (Config, error) {
	// Missing .env is fine in production, env vars come from the platform.
	_ = godotenv.Load()

	cfg := Config{
		Port:  "3000",
		Debug: os.Getenv("DEBUG") == "true",
	}

	if port, exists := os.LookupEnv("PORT"); exists {
		cfg.Port = port
	}

	origins, exists := os.LookupEnv("ALLOWED_ORIGINS")
	if !exists {
		return Config{}, fmt.Errorf("missing ALLOWED_ORIGINS")
	}
	cfg.AllowedOrigins = strings.Split(origins, ",")
	for i, origin := range cfg.AllowedOrigins {
		cfg.AllowedOrigins[i] = strings.TrimSpace(origin)
	}

	jwtKey, exists := os.LookupEnv("JWT_KEY")
	if !exists {
		return Config{}, fmt.Errorf("missing JWT_KEY")
	}
	cfg.JWTKey = jwtKey

	return cfg, nil
}
