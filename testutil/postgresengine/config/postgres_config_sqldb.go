package config

import (
	"database/sql"
	"log"
	"time"

	_ "github.com/lib/pq" // database/sql driver for the sql.DB based tests
)

// PostgresSQLDBConfig creates a sql.DB for the test database.
func PostgresSQLDBConfig() *sql.DB {
	const defaultMaxOpenConns = 25
	const defaultMaxIdleConns = 2
	const defaultConnMaxLifetime = time.Hour

	db, err := sql.Open("postgres", PostgresDSN())
	if err != nil {
		log.Fatal("Failed to open database connection, error: ", err)
	}

	db.SetMaxOpenConns(defaultMaxOpenConns)
	db.SetMaxIdleConns(defaultMaxIdleConns)
	db.SetConnMaxLifetime(defaultConnMaxLifetime)

	return db
}
