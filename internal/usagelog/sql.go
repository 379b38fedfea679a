package usagelog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	// Register Postgres SQL driver.
	_ "github.com/lib/pq"
	// Register SQLite SQL driver.
	_ "modernc.org/sqlite"
)

// SQLWriter persists usage records to SQLite or Postgres. Both dialects share
// one implementation; queries are written with ? placeholders and rewritten
// for Postgres by bind.
type SQLWriter struct {
	db      *sql.DB
	dialect string
}

// NewSQLiteWriter opens (or creates) a SQLite-backed usage log.
func NewSQLiteWriter(dsn string) (*SQLWriter, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		dsn = "loombridge-usage.db"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite usage log: %w", err)
	}
	w := &SQLWriter{db: db, dialect: "sqlite"}
	if err := w.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return w, nil
}

// NewPostgresWriter opens a Postgres-backed usage log.
func NewPostgresWriter(dsn string) (*SQLWriter, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres usage log: %w", err)
	}
	w := &SQLWriter{db: db, dialect: "postgres"}
	if err := w.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return w, nil
}

func (w *SQLWriter) init() error {
	if err := w.db.Ping(); err != nil {
		return fmt.Errorf("ping %s usage log: %w", w.dialect, err)
	}

	ddl := `
CREATE TABLE IF NOT EXISTS usage_records (
	id TEXT PRIMARY KEY,
	trace_id TEXT,
	project TEXT NOT NULL,
	provider TEXT NOT NULL,
	model TEXT,
	modality TEXT,
	status_code INTEGER NOT NULL,
	prompt_tokens INTEGER NOT NULL,
	completion_tokens INTEGER NOT NULL,
	cost_usd REAL NOT NULL,
	latency_ms INTEGER NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_usage_records_created_at ON usage_records(created_at);`

	if w.dialect == "postgres" {
		ddl = `
CREATE TABLE IF NOT EXISTS usage_records (
	id TEXT PRIMARY KEY,
	trace_id TEXT,
	project TEXT NOT NULL,
	provider TEXT NOT NULL,
	model TEXT,
	modality TEXT,
	status_code INTEGER NOT NULL,
	prompt_tokens INTEGER NOT NULL,
	completion_tokens INTEGER NOT NULL,
	cost_usd DOUBLE PRECISION NOT NULL,
	latency_ms BIGINT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_usage_records_created_at ON usage_records(created_at);`
	}

	if _, err := w.db.Exec(ddl); err != nil {
		return fmt.Errorf("initialize usage log schema: %w", err)
	}
	return nil
}

func (w *SQLWriter) Write(ctx context.Context, rec Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	q := w.bind(`INSERT INTO usage_records(id, trace_id, project, provider, model, modality, status_code, prompt_tokens, completion_tokens, cost_usd, latency_ms, created_at)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := w.db.ExecContext(ctx, q,
		rec.ID,
		rec.TraceID,
		rec.Project,
		rec.Provider,
		rec.Model,
		rec.Modality,
		rec.StatusCode,
		rec.PromptTokens,
		rec.CompletionTokens,
		rec.CostUSD,
		rec.LatencyMS,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("write usage record: %w", err)
	}
	return nil
}

// Recent returns up to limit records ordered newest first.
func (w *SQLWriter) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}

	q := w.bind(`SELECT id, trace_id, project, provider, model, modality, status_code, prompt_tokens, completion_tokens, cost_usd, latency_ms, created_at
	FROM usage_records ORDER BY created_at DESC LIMIT ?`)

	rows, err := w.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("list usage records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]Record, 0, limit)
	for rows.Next() {
		var rec Record
		var model, modality sql.NullString
		if err := rows.Scan(
			&rec.ID,
			&rec.TraceID,
			&rec.Project,
			&rec.Provider,
			&model,
			&modality,
			&rec.StatusCode,
			&rec.PromptTokens,
			&rec.CompletionTokens,
			&rec.CostUSD,
			&rec.LatencyMS,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan usage record: %w", err)
		}
		rec.Model = model.String
		rec.Modality = modality.String
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (w *SQLWriter) Close() error {
	if w == nil || w.db == nil {
		return nil
	}
	return w.db.Close()
}

func (w *SQLWriter) bind(query string) string {
	if w.dialect != "postgres" {
		return query
	}
	var (
		b      strings.Builder
		argNum = 1
	)
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			fmt.Fprintf(&b, "$%d", argNum)
			argNum++
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}
