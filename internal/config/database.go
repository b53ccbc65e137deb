// internal/config/database.go
package config

import (
	"fmt"
)

// DSN renders the postgres connection string. Sessions run in UTC so ledger
// timestamps compare the same in both stores.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode,
	)
}
