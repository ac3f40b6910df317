package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/slidevault/slidevault/pkg/logging"
)

// Config holds the process configuration, read once at startup. The
// backend choice (demo flag plus connection descriptor) is fixed for the
// process lifetime.
type Config struct {
	Port         string
	BaseURL      string
	DSN          string
	DemoMode     bool
	CORSOrigins  string
	SettingsPath string
	Log          *logging.LogConfig
}

// Load reads configuration from the environment. A .env file is honored
// when present.
func Load() *Config {
	_ = godotenv.Load()

	logCfg := logging.DefaultLogConfig()
	logCfg.Level = getEnv("LOG_LEVEL", logCfg.Level)
	logCfg.Format = getEnv("LOG_FORMAT", logCfg.Format)

	return &Config{
		Port:         getEnv("PORT", "8080"),
		BaseURL:      getEnv("SLIDEVAULT_BASE_URL", "http://localhost:8080/"),
		DSN:          getEnv("SLIDEVAULT_DSN", ""),
		DemoMode:     getBoolEnv("SLIDEVAULT_DEMO_MODE", false),
		CORSOrigins:  getEnv("CORS_ORIGINS", "*"),
		SettingsPath: getEnv("SLIDEVAULT_SETTINGS", "./data/settings.json"),
		Log:          logCfg,
	}
}

// UseLocalStore reports whether the in-process demo backend should be
// used: either the demo flag is set or no connection descriptor is
// configured.
func (c *Config) UseLocalStore() bool {
	return c.DemoMode || c.DSN == ""
}

// getEnv retrieves an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// Settings holds user display preferences, persisted across restarts
type Settings struct {
	Theme string `json:"theme"` // light or dark
}

// LoadSettings reads the settings file, falling back to defaults when it
// does not exist yet.
func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Settings{Theme: "light"}, nil
	}
	if err != nil {
		return nil, err
	}

	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	if s.Theme == "" {
		s.Theme = "light"
	}
	return &s, nil
}

// Save writes the settings file, creating its directory if needed
func (s *Settings) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ToggleTheme flips between the light and dark themes and returns the new
// value
func (s *Settings) ToggleTheme() string {
	if s.Theme == "dark" {
		s.Theme = "light"
	} else {
		s.Theme = "dark"
	}
	return s.Theme
}
