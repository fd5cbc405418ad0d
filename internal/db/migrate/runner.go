// Package migrate applies the embedded Postgres document-table migrations using golang-migrate.
package migrate

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"teamhub/backend/internal/db"
)

// ErrNoChange is returned when there is nothing to apply in the requested direction.
var ErrNoChange = migrate.ErrNoChange

// Direction selects which way migrations run.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// ParseDirection accepts "up" or "down" in any case.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(s))); d {
	case Up, Down:
		return d, nil
	}
	return "", fmt.Errorf("direction must be up or down, got %q", s)
}

// Status is the schema version after a run.
type Status struct {
	Version uint
	Dirty   bool
}

// Run applies migrations from db.MigrationFS to the database at dsn and reports the resulting
// version. ErrNoChange is returned together with the current status when already at the target.
func Run(dsn string, dir Direction) (Status, error) {
	if dsn == "" {
		return Status{}, errors.New("DATABASE_URL is not set")
	}
	if dir != Up && dir != Down {
		return Status{}, fmt.Errorf("direction must be up or down, got %q", dir)
	}
	src, err := iofs.New(db.MigrationFS, "migrations")
	if err != nil {
		return Status{}, fmt.Errorf("migrate source: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return Status{}, fmt.Errorf("migrate: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	if dir == Up {
		err = m.Up()
	} else {
		err = m.Down()
	}
	st, verr := status(m)
	if err != nil {
		return st, err
	}
	return st, verr
}

func status(m *migrate.Migrate) (Status, error) {
	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return Status{}, nil
	}
	if err != nil {
		return Status{}, err
	}
	return Status{Version: v, Dirty: dirty}, nil
}

// Available lists the embedded up-migration files in apply order.
func Available() ([]string, error) {
	names, err := fs.Glob(db.MigrationFS, "migrations/*.up.sql")
	if err != nil {
		return nil, err
	}
	return names, nil
}
