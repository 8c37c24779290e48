package app

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// Migrator прогоняет goose-миграции при старте бота
type Migrator struct {
	db             *sql.DB
	migrationsPath string
}

// NewMigrator создаёт мигратор поверх существующего пула
func NewMigrator(pool *pgxpool.Pool, migrationsPath string) (*Migrator, error) {
	if err := goose.SetDialect("postgres"); err != nil {
		return nil, fmt.Errorf("set goose dialect: %w", err)
	}

	// goose ожидает *sql.DB; соединения при этом берутся из того же пула
	return &Migrator{
		db:             stdlib.OpenDBFromPool(pool),
		migrationsPath: migrationsPath,
	}, nil
}

// Run применяет все неприменённые миграции
func (mg *Migrator) Run(ctx context.Context) error {
	log.Println("🔄 Applying database migrations...")

	if err := goose.UpContext(ctx, mg.db, mg.migrationsPath); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, err := goose.GetDBVersionContext(ctx, mg.db)
	if err != nil {
		return fmt.Errorf("get migration version: %w", err)
	}

	log.Printf("✅ Migrations applied, schema version %d", version)
	return nil
}

// Close закрывает обёртку sql.DB; сам пул живёт дольше и закрывается в main
func (mg *Migrator) Close() error {
	if mg.db == nil {
		return nil
	}
	return mg.db.Close()
}
