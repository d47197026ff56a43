package db

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// NewDatabase opens and pings the Postgres database behind databaseURL.
func NewDatabase(databaseURL string) (*sql.DB, error) {
	return newDatabaseWithDriver(databaseURL, "postgres")
}

func newDatabaseWithDriver(dsn, driverName string) (*sql.DB, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to DB: %w", err)
	}

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}

	return db, nil
}
