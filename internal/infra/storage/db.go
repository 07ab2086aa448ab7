package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrations embed.FS

// Open abre la conexión según el dialecto y verifica health.
func Open(ctx context.Context, d Dialect, url string) (*sql.DB, error) {
	db, err := sql.Open(d.driver(), url)
	if err != nil {
		return nil, err
	}
	switch d {
	case Postgres:
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(1 * time.Hour)
	case SQLite:
		// sqlite no soporta escritores concurrentes
		db.SetMaxOpenConns(1)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

// Migrate aplica las migraciones embebidas del dialecto.
func Migrate(db *sql.DB, d Dialect) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect(d.gooseDialect()); err != nil {
		return err
	}
	return goose.Up(db, "migrations/"+string(d))
}
