// Package columnar implements the columnar writer (§4.8): a batching,
// partition-aware sink that groups enriched rows by (table, chain_id),
// serialises each ready batch as NDJSON, and inserts it into DuckDB.
package columnar

import (
	"database/sql"
	"embed"
	"io"
	"os"

	"github.com/XSAM/otelsql"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	logger "github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Open connects to a DuckDB file (or ":memory:" for tests), instruments it
// with otelsql the way the system store does, and runs schema migrations.
func Open(dbURI string) (*sql.DB, error) {
	attrs := []attribute.KeyValue{attribute.String("name", "columnar")}
	dbc, err := otelsql.Open("duckdb", dbURI, otelsql.WithAttributes(attrs...))
	if err != nil {
		return nil, errors.Wrap(err, "connecting to duckdb")
	}
	if err := otelsql.RegisterDBStatsMetrics(dbc, otelsql.WithAttributes(attrs...)); err != nil {
		return nil, errors.Wrap(err, "registering dbstats")
	}

	log := logger.With().Str("component", "columnar.db").Logger()
	if err := runMigrations(dbc, log); err != nil {
		return nil, err
	}
	return dbc, nil
}

// runMigrations applies the embedded migrations in order, tracking applied
// versions in a schema_migrations table it maintains itself. golang-migrate
// ships no DuckDB database driver, so only its driver-agnostic source/iofs
// reader is used here; application against the DuckDB connection is manual.
func runMigrations(dbc *sql.DB, log zerolog.Logger) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return errors.Wrap(err, "opening migrations source")
	}
	defer src.Close()

	if _, err := dbc.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (version UBIGINT PRIMARY KEY)`); err != nil {
		return errors.Wrap(err, "creating schema_migrations table")
	}

	applied := make(map[uint64]bool)
	rows, err := dbc.Query(`SELECT version FROM schema_migrations`)
	if err != nil {
		return errors.Wrap(err, "reading applied migrations")
	}
	for rows.Next() {
		var v uint64
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return errors.Wrap(err, "scanning applied migration version")
		}
		applied[v] = true
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return errors.Wrap(err, "iterating applied migrations")
	}
	rows.Close()

	version, err := src.First()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, io.EOF) {
			log.Info().Msg("no migrations found")
			return nil
		}
		return errors.Wrap(err, "reading first migration version")
	}

	for {
		if !applied[uint64(version)] {
			if err := applyMigration(dbc, src, version); err != nil {
				return err
			}
			log.Info().Uint("version", version).Msg("applied columnar store migration")
		}

		next, err := src.Next(version)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) || errors.Is(err, io.EOF) {
				break
			}
			return errors.Wrap(err, "reading next migration version")
		}
		version = next
	}

	return nil
}

func applyMigration(dbc *sql.DB, src source.Driver, version uint) error {
	r, identifier, err := src.ReadUp(version)
	if err != nil {
		return errors.Wrapf(err, "reading migration %d up", version)
	}
	defer r.Close()

	body, err := io.ReadAll(r)
	if err != nil {
		return errors.Wrapf(err, "reading migration %d body (%s)", version, identifier)
	}

	tx, err := dbc.Begin()
	if err != nil {
		return errors.Wrapf(err, "beginning migration %d transaction", version)
	}
	if _, err := tx.Exec(string(body)); err != nil {
		_ = tx.Rollback()
		return errors.Wrapf(err, "executing migration %d (%s)", version, identifier)
	}
	if _, err := tx.Exec(`INSERT INTO schema_migrations (version) VALUES (?)`, version); err != nil {
		_ = tx.Rollback()
		return errors.Wrapf(err, "recording migration %d", version)
	}
	return errors.Wrapf(tx.Commit(), "committing migration %d", version)
}
