package db

import (
	"context"
	"database/sql"
	"fmt"
)

// Migrate creates the portal tables if they do not exist. listingsTable
// is the configured listings collection name.
func Migrate(ctx context.Context, db *sql.DB, driver, listingsTable string) error {
	var stmts []string
	switch driver {
	case DriverMySQL:
		stmts = mysqlSchema(listingsTable)
	case DriverSQLite:
		stmts = sqliteSchema(listingsTable)
	default:
		return fmt.Errorf("unsupported database driver %q", driver)
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func mysqlSchema(table string) []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			company_name VARCHAR(255) NOT NULL,
			institute VARCHAR(255) NOT NULL,
			job_type VARCHAR(16) NOT NULL,
			stipend VARCHAR(64) NOT NULL,
			role VARCHAR(255) NOT NULL DEFAULT '',
			hr_details TEXT NOT NULL,
			eligibility VARCHAR(64) NOT NULL,
			ppt_date VARCHAR(32) NOT NULL DEFAULT '',
			oa_date VARCHAR(32) NOT NULL DEFAULT '',
			final_hiring_number INT NULL,
			screenshot_url VARCHAR(1024) NOT NULL DEFAULT '',
			created_by VARCHAR(255) NOT NULL,
			created_at BIGINT NOT NULL,
			INDEX idx_%s_created_by (created_by),
			INDEX idx_%s_created_at (created_at)
		) CHARACTER SET utf8mb4`, table, table, table),
		`CREATE TABLE IF NOT EXISTS users (
			email VARCHAR(255) NOT NULL PRIMARY KEY,
			password_hash VARCHAR(255) NOT NULL,
			created_at BIGINT NOT NULL
		) CHARACTER SET utf8mb4`,
		`CREATE TABLE IF NOT EXISTS import_files (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			s3_path VARCHAR(1024) NOT NULL,
			created_by VARCHAR(255) NOT NULL,
			status VARCHAR(16) NOT NULL,
			error_message TEXT NULL,
			imported_count INT NOT NULL DEFAULT 0,
			created_at BIGINT NOT NULL,
			updated_at BIGINT NOT NULL
		) CHARACTER SET utf8mb4`,
	}
}

func sqliteSchema(table string) []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT NOT NULL PRIMARY KEY,
			company_name TEXT NOT NULL,
			institute TEXT NOT NULL,
			job_type TEXT NOT NULL,
			stipend TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT '',
			hr_details TEXT NOT NULL DEFAULT '',
			eligibility TEXT NOT NULL,
			ppt_date TEXT NOT NULL DEFAULT '',
			oa_date TEXT NOT NULL DEFAULT '',
			final_hiring_number INTEGER NULL,
			screenshot_url TEXT NOT NULL DEFAULT '',
			created_by TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)`, table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_created_by ON %s (created_by)`, table, table),
		`CREATE TABLE IF NOT EXISTS users (
			email TEXT NOT NULL PRIMARY KEY,
			password_hash TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS import_files (
			id TEXT NOT NULL PRIMARY KEY,
			s3_path TEXT NOT NULL,
			created_by TEXT NOT NULL,
			status TEXT NOT NULL,
			error_message TEXT NULL,
			imported_count INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
	}
}
