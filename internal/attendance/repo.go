package attendance

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Dialect selects placeholder and schema syntax for the SQL repository.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

var schemas = map[Dialect]string{
	Postgres: `
	CREATE TABLE IF NOT EXISTS attendance_records (
		id             BIGSERIAL PRIMARY KEY,
		date_time      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		name           TEXT NOT NULL,
		company        TEXT NOT NULL,
		supervisor     TEXT NOT NULL,
		signature_data TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_attendance_records_date_time ON attendance_records(date_time);
	`,
	SQLite: `
	CREATE TABLE IF NOT EXISTS attendance_records (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		date_time      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		name           TEXT NOT NULL,
		company        TEXT NOT NULL,
		supervisor     TEXT NOT NULL,
		signature_data TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_attendance_records_date_time ON attendance_records(date_time);
	`,
}

const selectRecords = `SELECT id, date_time, name, company, supervisor, signature_data FROM attendance_records`

// Repository persists attendance records in Postgres or SQLite.
type Repository struct {
	db      *sql.DB
	dialect Dialect

	schemaMu sync.Mutex
	migrated bool
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB, dialect Dialect) *Repository {
	return &Repository{db: db, dialect: dialect}
}

// Migrate creates the records table if it does not exist.
func (r *Repository) Migrate(ctx context.Context) error {
	r.schemaMu.Lock()
	defer r.schemaMu.Unlock()
	return r.migrate(ctx)
}

func (r *Repository) migrate(ctx context.Context) error {
	if r.db == nil {
		return ErrPrimaryUnavailable
	}
	schema, ok := schemas[r.dialect]
	if !ok {
		return errors.Errorf("unsupported dialect %q", r.dialect)
	}
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "migrate attendance_records")
	}
	r.migrated = true
	return nil
}

// ensureSchema migrates on first use when startup could not.
func (r *Repository) ensureSchema(ctx context.Context) error {
	r.schemaMu.Lock()
	defer r.schemaMu.Unlock()
	if r.migrated {
		return nil
	}
	return r.migrate(ctx)
}

// Ping verifies the database is reachable and the records table is readable.
func (r *Repository) Ping(ctx context.Context) error {
	if r == nil || r.db == nil {
		return ErrPrimaryUnavailable
	}
	if err := r.db.PingContext(ctx); err != nil {
		return err
	}
	if err := r.ensureSchema(ctx); err != nil {
		return err
	}
	var id int64
	err := r.db.QueryRowContext(ctx, `SELECT id FROM attendance_records LIMIT 1`).Scan(&id)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return errors.Wrap(err, "read attendance_records")
	}
	return nil
}

// Add inserts rec. A zero id is generated by the database; any other id is stored as given.
func (r *Repository) Add(ctx context.Context, rec Record) (Record, error) {
	if err := r.ensureSchema(ctx); err != nil {
		return Record{}, err
	}
	if rec.ID != 0 {
		_, err := r.db.ExecContext(ctx, r.rebind(`
			INSERT INTO attendance_records (id, date_time, name, company, supervisor, signature_data)
			VALUES (?, ?, ?, ?, ?, ?)
		`), rec.ID, rec.DateTime.UTC(), rec.Name, rec.Company, rec.Supervisor, rec.SignatureData)
		if err != nil {
			return Record{}, errors.Wrapf(err, "insert attendance record %d", rec.ID)
		}
		return rec, nil
	}
	row := r.db.QueryRowContext(ctx, r.rebind(`
		INSERT INTO attendance_records (date_time, name, company, supervisor, signature_data)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`), rec.DateTime.UTC(), rec.Name, rec.Company, rec.Supervisor, rec.SignatureData)
	if err := row.Scan(&rec.ID); err != nil {
		return Record{}, errors.Wrap(err, "insert attendance record")
	}
	return rec, nil
}

// MaxID returns the highest stored id, or 0 when the table is empty.
func (r *Repository) MaxID(ctx context.Context) (int64, error) {
	if err := r.ensureSchema(ctx); err != nil {
		return 0, err
	}
	var id int64
	err := r.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(id), 0) FROM attendance_records`).Scan(&id)
	return id, errors.Wrap(err, "read max attendance id")
}

// ListAll returns all records, newest first.
func (r *Repository) ListAll(ctx context.Context) ([]Record, error) {
	return r.query(ctx, selectRecords+` ORDER BY date_time DESC, id DESC`)
}

// ListByDate returns the records inside day, newest first.
func (r *Repository) ListByDate(ctx context.Context, day Day) ([]Record, error) {
	return r.query(ctx, selectRecords+`
		WHERE date_time >= ? AND date_time < ?
		ORDER BY date_time DESC, id DESC`, day.Start.UTC(), day.End.UTC())
}

func (r *Repository) query(ctx context.Context, query string, args ...any) ([]Record, error) {
	if err := r.ensureSchema(ctx); err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, r.rebind(query), args...)
	if err != nil {
		return nil, errors.Wrap(err, "query attendance records")
	}
	defer rows.Close()

	res := []Record{}
	for rows.Next() {
		var (
			rec Record
			at  time.Time
		)
		if err := rows.Scan(&rec.ID, &at, &rec.Name, &rec.Company, &rec.Supervisor, &rec.SignatureData); err != nil {
			return nil, errors.Wrap(err, "scan attendance record")
		}
		rec.DateTime = at
		res = append(res, rec)
	}
	return res, errors.Wrap(rows.Err(), "iterate attendance records")
}

// rebind rewrites ? placeholders to $n for Postgres.
func (r *Repository) rebind(query string) string {
	if r.dialect != Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}
