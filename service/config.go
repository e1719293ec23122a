package service

import (
	"os"
	"strconv"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/viant/dbkit/policy"
)

type Config struct {
	Policy *policy.Policy `json:"policy,omitempty"`

	// Fallback binds the newest family plugin when no plugin declares a
	// range covering the server version. Connections opened this way are
	// flagged in their metadata.
	Fallback bool `json:"fallback,omitempty"`

	Driver *DriverConfig `json:"driver,omitempty"`
}

// DriverConfig controls on-demand driver acquisition.
type DriverConfig struct {
	// RepositoryURL is the base URL of the Maven style driver repository.
	RepositoryURL string `json:"repositoryURL,omitempty"`

	// StoreURL is where downloaded drivers are kept, one folder per family.
	StoreURL string `json:"storeURL,omitempty"`

	// TimeoutSec bounds a single repository call.
	TimeoutSec int `json:"timeoutSec,omitempty"`
}

// Timeout returns the repository call timeout.
func (c *DriverConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// Init assigns defaults to unset values.
func (c *Config) Init() {
	if c.Policy == nil {
		c.Policy = &policy.Policy{}
	}
	if c.Driver == nil {
		c.Driver = &DriverConfig{}
	}
	if err := mergo.Merge(c.Driver, defaultDriverConfig); err != nil {
		log.WithError(err).Warn("failed to apply driver defaults")
	}
	if strings.HasPrefix(c.Driver.StoreURL, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			c.Driver.StoreURL = home + strings.TrimPrefix(c.Driver.StoreURL, "~")
		}
	}
}

var defaultDriverConfig = DriverConfig{
	RepositoryURL: "https://repo.viant.io/dbkit/drivers",
	StoreURL:      "~/.dbkit/drivers",
	TimeoutSec:    300,
}

// LoadEnv applies DBKIT_* environment overrides, reading the first .env
// file found in paths.
func (c *Config) LoadEnv(paths ...string) {
	for _, path := range paths {
		if err := godotenv.Load(path); err == nil {
			log.Printf("loaded environment from: %s", path)
			break
		}
	}
	if c.Driver == nil {
		c.Driver = &DriverConfig{}
	}
	c.Driver.RepositoryURL = getEnvOrDefault("DBKIT_DRIVER_REPOSITORY", c.Driver.RepositoryURL)
	c.Driver.StoreURL = getEnvOrDefault("DBKIT_DRIVER_STORE", c.Driver.StoreURL)
	c.Driver.TimeoutSec = parseIntOrDefault("DBKIT_DRIVER_TIMEOUT_SECONDS", c.Driver.TimeoutSec)
	c.Fallback = getEnvOrDefault("DBKIT_PLUGIN_FALLBACK", strconv.FormatBool(c.Fallback)) == "true"
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	ret, err := strconv.Atoi(value)
	if err != nil {
		log.Warnf("invalid %s=%q, using %d", key, value, defaultValue)
		return defaultValue
	}
	return ret
}
