// Package storage keeps runner timing records in an SQL database.
// The embedded SQLite file is the default; Postgres lets several monitor
// stations share one store.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/brgilsonsp/corrida-familia-piba-front/internal/model"
	"github.com/brgilsonsp/corrida-familia-piba-front/internal/timecalc"
)

// Config selects the SQL engine. For sqlite DSN is a file path; for
// postgres it is a connection URL.
type Config struct {
	Driver string
	DSN    string
}

// Store is the durable runner record store.
type Store struct {
	db      *sql.DB
	dialect dialect
	driver  string
}

// DataDir returns the root data directory (~/.cronometro).
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".cronometro"), nil
}

// DefaultDBPath returns ~/.cronometro/cronometro.db.
func DefaultDBPath() (string, error) {
	base, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "cronometro.db"), nil
}

// Open connects to the configured database and creates the schema if needed.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Driver == "" {
		cfg.Driver = DriverSQLite
	}
	d, ok := dialects[cfg.Driver]
	if !ok {
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}

	dsn := cfg.DSN
	if cfg.Driver == DriverSQLite {
		path := dsn
		if path == "" {
			var err error
			if path, err = DefaultDBPath(); err != nil {
				return nil, err
			}
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("storage error creating directories: %w", err)
		}
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, storageErr("open database", err)
	}
	if cfg.Driver == DriverSQLite {
		// SQLite allows one writer; a single connection serialises transactions.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, storageErr("ping database", err)
	}
	if _, err := db.ExecContext(ctx, d.schema); err != nil {
		db.Close()
		return nil, storageErr("create schema", err)
	}

	log.Debug().Str("driver", cfg.Driver).Msg("runner store opened")
	return &Store{db: db, dialect: d, driver: cfg.Driver}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Driver reports the SQL engine in use.
func (s *Store) Driver() string {
	return s.driver
}

// Insert stores a new record. It fails with ErrDuplicateBib when the bib exists.
func (s *Store) Insert(ctx context.Context, rec model.RunnerRecord) error {
	res, err := s.db.ExecContext(ctx, s.dialect.rebind(
		`INSERT INTO corredor (numero_corredor, monitor, tempo_de_atraso, tempo_final)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (numero_corredor) DO NOTHING`),
		rec.Bib, rec.Monitor, nullable(rec.DelayedStart), nullable(rec.Finish),
	)
	if err != nil {
		return storageErr(fmt.Sprintf("insert runner %d", rec.Bib), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr(fmt.Sprintf("insert runner %d", rec.Bib), err)
	}
	if n == 0 {
		return fmt.Errorf("runner %d: %w", rec.Bib, ErrDuplicateBib)
	}
	return nil
}

// Get returns the record for bib or ErrNotFound.
func (s *Store) Get(ctx context.Context, bib int) (model.RunnerRecord, error) {
	row := s.db.QueryRowContext(ctx, s.dialect.rebind(
		`SELECT numero_corredor, monitor, tempo_de_atraso, tempo_final
		 FROM corredor WHERE numero_corredor = ?`), bib)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.RunnerRecord{}, fmt.Errorf("runner %d: %w", bib, ErrNotFound)
	}
	if err != nil {
		return model.RunnerRecord{}, storageErr(fmt.Sprintf("get runner %d", bib), err)
	}
	return rec, nil
}

// Update sets the supplied (non-nil) times and the monitor name. If any
// supplied time is already recorded nothing is written and ErrAlreadySet is
// returned. A delayed start is also refused once a finish exists. The
// statement itself only matches rows whose guarded times are still NULL, so
// writers on other connections cannot slip past the check.
func (s *Store) Update(ctx context.Context, bib int, monitor string, delayedStart, finish *string) error {
	return runTx(ctx, s.db, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, s.dialect.rebind(
			`SELECT numero_corredor, monitor, tempo_de_atraso, tempo_final
			 FROM corredor WHERE numero_corredor = ?`), bib)
		cur, err := scanRecord(row)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("runner %d: %w", bib, ErrNotFound)
		}
		if err != nil {
			return storageErr(fmt.Sprintf("get runner %d", bib), err)
		}
		if (delayedStart != nil && (cur.DelayedStart != nil || cur.Finish != nil)) || (finish != nil && cur.Finish != nil) {
			return fmt.Errorf("runner %d: %w", bib, ErrAlreadySet)
		}

		sets := []string{"monitor = ?"}
		args := []any{monitor}
		conds := []string{"numero_corredor = ?"}
		if delayedStart != nil {
			sets = append(sets, "tempo_de_atraso = ?")
			args = append(args, *delayedStart)
			conds = append(conds, "tempo_de_atraso IS NULL")
		}
		if finish != nil {
			sets = append(sets, "tempo_final = ?")
			args = append(args, *finish)
		}
		if delayedStart != nil || finish != nil {
			conds = append(conds, "tempo_final IS NULL")
		}
		args = append(args, bib)

		query := "UPDATE corredor SET " + strings.Join(sets, ", ") + " WHERE " + strings.Join(conds, " AND ")
		res, err := tx.ExecContext(ctx, s.dialect.rebind(query), args...)
		if err != nil {
			return storageErr(fmt.Sprintf("update runner %d", bib), err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return storageErr(fmt.Sprintf("update runner %d", bib), err)
		}
		if n == 0 {
			return fmt.Errorf("runner %d: %w", bib, ErrAlreadySet)
		}
		return nil
	})
}

// List returns every record in insertion order.
func (s *Store) List(ctx context.Context) ([]model.RunnerRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT numero_corredor, monitor, tempo_de_atraso, tempo_final
		 FROM corredor ORDER BY seq`)
	if err != nil {
		return nil, storageErr("list runners", err)
	}
	defer rows.Close()

	recs := []model.RunnerRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, storageErr("list runners", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list runners", err)
	}
	return recs, nil
}

// Delete removes the record for bib or returns ErrNotFound.
func (s *Store) Delete(ctx context.Context, bib int) error {
	res, err := s.db.ExecContext(ctx, s.dialect.rebind(
		`DELETE FROM corredor WHERE numero_corredor = ?`), bib)
	if err != nil {
		return storageErr(fmt.Sprintf("delete runner %d", bib), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr(fmt.Sprintf("delete runner %d", bib), err)
	}
	if n == 0 {
		return fmt.Errorf("runner %d: %w", bib, ErrNotFound)
	}
	return nil
}

// Clear removes every record.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM corredor`); err != nil {
		return storageErr("clear runners", err)
	}
	return nil
}

// Backup captures all records into a Snapshot.
func (s *Store) Backup(ctx context.Context, at time.Time) (model.Snapshot, error) {
	recs, err := s.List(ctx)
	if err != nil {
		return model.Snapshot{}, err
	}
	return model.Snapshot{ExportedAt: at.UTC(), Runners: recs}, nil
}

// Restore inserts the records of a snapshot, skipping bibs already present
// and records with an invalid bib or an unreadable time.
func (s *Store) Restore(ctx context.Context, snap model.Snapshot) (inserted, skipped int, err error) {
	for _, rec := range snap.Runners {
		if rec.Bib <= 0 || !validTime(rec.DelayedStart) || !validTime(rec.Finish) {
			skipped++
			continue
		}
		err := s.Insert(ctx, rec)
		if errors.Is(err, ErrDuplicateBib) {
			skipped++
			continue
		}
		if err != nil {
			return inserted, skipped, err
		}
		inserted++
	}
	return inserted, skipped, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (model.RunnerRecord, error) {
	var (
		rec          model.RunnerRecord
		delayedStart sql.NullString
		finish       sql.NullString
	)
	if err := row.Scan(&rec.Bib, &rec.Monitor, &delayedStart, &finish); err != nil {
		return model.RunnerRecord{}, err
	}
	if delayedStart.Valid {
		rec.DelayedStart = &delayedStart.String
	}
	if finish.Valid {
		rec.Finish = &finish.String
	}
	return rec, nil
}

func validTime(s *string) bool {
	if s == nil {
		return true
	}
	_, err := timecalc.ParseElapsed(*s)
	return err == nil
}

func nullable(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
