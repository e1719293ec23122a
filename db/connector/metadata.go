package connector

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"strconv"
	"time"
)

type (
	// Metadata describes a live connection.
	Metadata struct {
		ID            string    `json:"id"`
		Owner         string    `json:"owner"`
		Family        string    `json:"family"`
		Host          string    `json:"host,omitempty"`
		Port          int       `json:"port,omitempty"`
		Database      string    `json:"database,omitempty"`
		Username      string    `json:"username,omitempty"`
		PluginID      string    `json:"pluginId"`
		ServerVersion string    `json:"serverVersion"`
		Fallback      bool      `json:"fallback,omitempty"`
		Catalog       string    `json:"catalog,omitempty"`
		Schema        string    `json:"schema,omitempty"`
		Created       time.Time `json:"created"`
		LastAccessed  time.Time `json:"lastAccessed"`
	}

	// ActiveConnection is what a capability call needs: the raw handle, the
	// plugin bound to it and the effective scope.
	ActiveConnection struct {
		DB       *sql.DB
		PluginID string
		Catalog  string
		Schema   string
		Database string
	}
)

// ConnectionID derives the registry key. Each field is length prefixed so
// that no two distinct tuples produce the same input.
func ConnectionID(owner, family, host string, port int, database, username, pluginID string) string {
	hash := sha256.New()
	for _, field := range []string{owner, family, host, strconv.Itoa(port), database, username, pluginID} {
		hash.Write([]byte(strconv.Itoa(len(field))))
		hash.Write([]byte{':'})
		hash.Write([]byte(field))
	}
	return hex.EncodeToString(hash.Sum(nil))
}
