package postgres

import (
	"fmt"

	"github.com/hydroplan-hq/techsheet-backend/config"
)

// DSN builds the lib/pq connection string. SSL mode comes from DB_SSLMODE
// so managed deployments can require verify-full without a code change.
func DSN(cfg *config.DatabaseConfig) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, sslMode,
	)
}
