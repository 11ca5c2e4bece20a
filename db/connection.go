package db

import (
	"database/sql"
	"fmt"

	"enrollment-portal/config"
	"enrollment-portal/logger"

	_ "github.com/lib/pq"
)

var DB *sql.DB

// InitDB opens the postgres pool used by the durable order store and makes
// sure its table exists.
func InitDB() error {
	var err error
	connStr := config.GetDBConnString()

	DB, err = sql.Open("postgres", connStr)
	if err != nil {
		return fmt.Errorf("error opening database: %w", err)
	}

	if err = DB.Ping(); err != nil {
		return fmt.Errorf("error connecting to database: %w", err)
	}

	if err := CreateTables(DB); err != nil {
		return fmt.Errorf("error creating tables: %w", err)
	}

	logger.Info("[DB] connected to %s:%s/%s", config.AppConfig.DBHost, config.AppConfig.DBPort, config.AppConfig.DBName)
	return nil
}

// CreateTables is idempotent.
func CreateTables(conn *sql.DB) error {
	pendingOrders := `
	CREATE TABLE IF NOT EXISTS portal_pending_orders (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		expires_at TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);`

	expiryIndex := `
	CREATE INDEX IF NOT EXISTS idx_portal_pending_orders_expires_at
		ON portal_pending_orders (expires_at);`

	eventDLQ := `
	CREATE TABLE IF NOT EXISTS portal_event_dlq (
		id SERIAL PRIMARY KEY,
		message_id TEXT UNIQUE NOT NULL,
		topic TEXT NOT NULL,
		key TEXT,
		value TEXT,
		error_message TEXT,
		retry_count INTEGER DEFAULT 0,
		max_retries INTEGER DEFAULT 5,
		resolved BOOLEAN DEFAULT FALSE,
		notes TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		last_retry_at TIMESTAMP,
		resolved_at TIMESTAMP
	);`

	if _, err := conn.Exec(pendingOrders); err != nil {
		return fmt.Errorf("error creating portal_pending_orders table: %w", err)
	}
	if _, err := conn.Exec(eventDLQ); err != nil {
		return fmt.Errorf("error creating portal_event_dlq table: %w", err)
	}
	if _, err := conn.Exec(expiryIndex); err != nil {
		logger.Warn("[DB] could not create expiry index: %v", err)
	}
	return nil
}

func Close() {
	if DB == nil {
		return
	}
	if err := DB.Close(); err != nil {
		logger.Error("[DB] close failed: %v", err)
	}
}
