// internal/config/database.go
package config

import (
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// DSN returns the connection string for the postgres driver. DATABASE_URL wins
// over the discrete DB_* settings when both are set.
func (d *DatabaseConfig) DSN() (string, error) {
	if d.URL != "" {
		dsn, err := pq.ParseURL(d.URL)
		if err != nil {
			return "", fmt.Errorf("invalid DATABASE_URL: %w", err)
		}
		return dsn, nil
	}

	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		dsnValue(d.Host), dsnValue(d.Port), dsnValue(d.User),
		dsnValue(d.Password), dsnValue(d.Database), dsnValue(d.SSLMode),
	), nil
}

var dsnEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// dsnValue quotes a keyword/value connection string value the same way
// pq.ParseURL does, so spaces and quotes survive.
func dsnValue(v string) string {
	return "'" + dsnEscaper.Replace(v) + "'"
}
