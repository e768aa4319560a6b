package dbmigrate

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fdg312/coach-hub/migrations"
	"github.com/pressly/goose/v3"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Commands lists the goose commands the migrate tool accepts.
var Commands = []string{"up", "down", "status", "version", "redo"}

func ValidateCommand(command string) error {
	for _, c := range Commands {
		if c == command {
			return nil
		}
	}
	return fmt.Errorf("unsupported command %q (allowed: %v)", command, Commands)
}

// Run executes a goose command against the migrations embedded in the binary.
func Run(ctx context.Context, command, dbURL string) error {
	if err := ValidateCommand(command); err != nil {
		return err
	}
	if dbURL == "" {
		return fmt.Errorf("database URL is empty")
	}

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	goose.SetBaseFS(migrations.FS)
	defer goose.SetBaseFS(nil)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	if err := goose.RunContext(ctx, command, db, "."); err != nil {
		return fmt.Errorf("goose %s failed: %w", command, err)
	}
	return nil
}
