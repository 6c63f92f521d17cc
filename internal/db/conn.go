package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"placement-portal/internal/config"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

func NewConnection(cfg *config.Config) (*sql.DB, error) {
	driver := cfg.Database.Driver
	if driver != DriverMySQL && driver != DriverSQLite {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, cfg.DatabaseDSN())
	if err != nil {
		return nil, err
	}

	if driver == DriverSQLite {
		// sqlite typically wants 1 writer
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(cfg.Database.MaxConnections)
		db.SetMaxIdleConns(cfg.Database.MaxIdleConnections)
	}
	db.SetConnMaxLifetime(cfg.Database.ConnectionLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}
