package credentials

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	// Register Postgres SQL driver.
	_ "github.com/lib/pq"
	// Register SQLite SQL driver.
	_ "modernc.org/sqlite"
)

type sqlDialect string

const (
	dialectSQLite   sqlDialect = "sqlite"
	dialectPostgres sqlDialect = "postgres"
)

// SQLStore persists credentials and tokens in SQLite or Postgres. Queries
// are written once with ? placeholders; bind rewrites them to $n for
// Postgres.
type SQLStore struct {
	db      *sql.DB
	dialect sqlDialect
}

// NewSQLiteStore creates a SQLite-backed store. dsn can be a file path or a
// SQLite DSN; empty defaults to loombridge-credentials.db.
func NewSQLiteStore(dsn string) (*SQLStore, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		dsn = "loombridge-credentials.db"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite credential store: %w", err)
	}
	store := &SQLStore{db: db, dialect: dialectSQLite}
	if err := store.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// NewPostgresStore creates a Postgres-backed store.
func NewPostgresStore(dsn string) (*SQLStore, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres credential store: %w", err)
	}
	store := &SQLStore{db: db, dialect: dialectPostgres}
	if err := store.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLStore) init() error {
	if err := s.db.Ping(); err != nil {
		return fmt.Errorf("ping %s credential store: %w", s.dialect, err)
	}

	timestamp := "DATETIME"
	if s.dialect == dialectPostgres {
		timestamp = "TIMESTAMPTZ"
	}

	ddl := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS vendor_credentials (
	id TEXT PRIMARY KEY,
	provider TEXT NOT NULL,
	kind TEXT NOT NULL,
	label TEXT,
	api_key TEXT,
	client_id TEXT,
	client_secret TEXT,
	token_url TEXT,
	scopes TEXT,
	access_key_id TEXT,
	secret_access_key TEXT,
	region TEXT,
	created_at %[1]s NOT NULL,
	last_used_at %[1]s NULL
);
CREATE INDEX IF NOT EXISTS idx_vendor_credentials_provider ON vendor_credentials(provider);
CREATE TABLE IF NOT EXISTS request_tokens (
	id TEXT PRIMARY KEY,
	token TEXT UNIQUE NOT NULL,
	provider TEXT,
	project TEXT NOT NULL,
	created_at %[1]s NOT NULL,
	expires_at %[1]s NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_request_tokens_token ON request_tokens(token);`, timestamp)

	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("initialize %s credential schema: %w", s.dialect, err)
	}
	return s.ensureBaseURLColumn()
}

// ensureBaseURLColumn upgrades schemas created before per-credential base
// URL overrides existed.
func (s *SQLStore) ensureBaseURLColumn() error {
	if _, err := s.db.Exec("ALTER TABLE vendor_credentials ADD COLUMN base_url TEXT"); err != nil && !isDuplicateColumnError(err) {
		return fmt.Errorf("ensure vendor_credentials base_url column: %w", err)
	}
	return nil
}

func isDuplicateColumnError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate column") ||
		strings.Contains(msg, "already exists")
}

func (s *SQLStore) CreateCredential(ctx context.Context, cred VendorCredential) (VendorCredential, error) {
	if err := cred.Validate(); err != nil {
		return VendorCredential{}, err
	}
	cred.ID = newCredentialID()
	cred.CreatedAt = time.Now().UTC()
	cred.LastUsedAt = nil

	scopesJSON, err := json.Marshal(cred.Scopes)
	if err != nil {
		return VendorCredential{}, fmt.Errorf("encode scopes: %w", err)
	}

	q := s.bind(`
INSERT INTO vendor_credentials(id, provider, kind, label, api_key, client_id, client_secret, token_url, scopes, access_key_id, secret_access_key, region, base_url, created_at, last_used_at)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)`)

	_, err = s.db.ExecContext(ctx, q,
		cred.ID, cred.Provider, string(cred.Kind), cred.Label,
		cred.APIKey, cred.ClientID, cred.ClientSecret, cred.TokenURL, string(scopesJSON),
		cred.AccessKeyID, cred.SecretAccessKey, cred.Region, cred.BaseURL,
		cred.CreatedAt,
	)
	if err != nil {
		return VendorCredential{}, fmt.Errorf("create credential: %w", err)
	}
	return cred, nil
}

const credentialColumns = `id, provider, kind, label, api_key, client_id, client_secret, token_url, scopes, access_key_id, secret_access_key, region, base_url, created_at, last_used_at`

func (s *SQLStore) GetCredential(ctx context.Context, id string) (VendorCredential, error) {
	q := s.bind(`SELECT ` + credentialColumns + ` FROM vendor_credentials WHERE id = ?`)
	cred, err := scanCredential(s.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return VendorCredential{}, ErrCredentialNotFound
	}
	if err != nil {
		return VendorCredential{}, fmt.Errorf("get credential: %w", err)
	}
	return cred, nil
}

func (s *SQLStore) CredentialForProvider(ctx context.Context, providerID string) (VendorCredential, error) {
	q := s.bind(`SELECT ` + credentialColumns + ` FROM vendor_credentials WHERE provider = ? ORDER BY created_at DESC LIMIT 1`)
	cred, err := scanCredential(s.db.QueryRowContext(ctx, q, providerID))
	if err == sql.ErrNoRows {
		return VendorCredential{}, ErrCredentialNotFound
	}
	if err != nil {
		return VendorCredential{}, fmt.Errorf("get provider credential: %w", err)
	}
	return cred, nil
}

func (s *SQLStore) ListCredentials(ctx context.Context) ([]VendorCredential, error) {
	q := `SELECT ` + credentialColumns + ` FROM vendor_credentials ORDER BY created_at DESC`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]VendorCredential, 0)
	for rows.Next() {
		cred, scanErr := scanCredential(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan credential: %w", scanErr)
		}
		out = append(out, cred)
	}
	return out, rows.Err()
}

func (s *SQLStore) DeleteCredential(ctx context.Context, id string) error {
	q := s.bind(`DELETE FROM vendor_credentials WHERE id = ?`)
	res, err := s.db.ExecContext(ctx, q, id)
	if err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrCredentialNotFound
	}
	return nil
}

func (s *SQLStore) TouchCredential(ctx context.Context, id string) error {
	q := s.bind(`UPDATE vendor_credentials SET last_used_at = ? WHERE id = ?`)
	res, err := s.db.ExecContext(ctx, q, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("touch credential: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrCredentialNotFound
	}
	return nil
}

func (s *SQLStore) IssueToken(ctx context.Context, providerID, project string, ttl time.Duration) (RequestToken, error) {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	now := time.Now().UTC()
	token := RequestToken{
		ID:        newCredentialID(),
		Token:     newTokenValue(),
		Provider:  providerID,
		Project:   project,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	q := s.bind(`INSERT INTO request_tokens(id, token, provider, project, created_at, expires_at) VALUES(?, ?, ?, ?, ?, ?)`)
	if _, err := s.db.ExecContext(ctx, q, token.ID, token.Token, token.Provider, token.Project, token.CreatedAt, token.ExpiresAt); err != nil {
		return RequestToken{}, fmt.Errorf("issue token: %w", err)
	}

	// Opportunistic cleanup; an error here does not fail the mint.
	cleanup := s.bind(`DELETE FROM request_tokens WHERE expires_at < ?`)
	_, _ = s.db.ExecContext(ctx, cleanup, now)

	return token, nil
}

func (s *SQLStore) ValidateToken(ctx context.Context, token string) (RequestToken, error) {
	q := s.bind(`SELECT id, token, provider, project, created_at, expires_at FROM request_tokens WHERE token = ?`)

	var rec RequestToken
	var provider sql.NullString
	err := s.db.QueryRowContext(ctx, q, token).Scan(
		&rec.ID, &rec.Token, &provider, &rec.Project, &rec.CreatedAt, &rec.ExpiresAt,
	)
	if err == sql.ErrNoRows {
		return RequestToken{}, ErrTokenInvalid
	}
	if err != nil {
		return RequestToken{}, fmt.Errorf("validate token: %w", err)
	}
	rec.Provider = provider.String

	if rec.Expired(time.Now().UTC()) {
		return RequestToken{}, ErrTokenExpired
	}
	return rec, nil
}

func (s *SQLStore) RevokeToken(ctx context.Context, id string) error {
	q := s.bind(`DELETE FROM request_tokens WHERE id = ?`)
	res, err := s.db.ExecContext(ctx, q, id)
	if err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrTokenInvalid
	}
	return nil
}

func (s *SQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func scanCredential(scanner interface {
	Scan(dest ...interface{}) error
}) (VendorCredential, error) {
	var (
		cred      VendorCredential
		kind      string
		label     sql.NullString
		apiKey    sql.NullString
		clientID  sql.NullString
		secret    sql.NullString
		tokenURL  sql.NullString
		scopesRaw sql.NullString
		accessKey sql.NullString
		secretKey sql.NullString
		region    sql.NullString
		baseURL   sql.NullString
		lastUsed  sql.NullTime
	)

	err := scanner.Scan(
		&cred.ID, &cred.Provider, &kind, &label,
		&apiKey, &clientID, &secret, &tokenURL, &scopesRaw,
		&accessKey, &secretKey, &region, &baseURL,
		&cred.CreatedAt, &lastUsed,
	)
	if err != nil {
		return VendorCredential{}, err
	}

	cred.Kind = Kind(kind)
	cred.Label = label.String
	cred.APIKey = apiKey.String
	cred.ClientID = clientID.String
	cred.ClientSecret = secret.String
	cred.TokenURL = tokenURL.String
	cred.AccessKeyID = accessKey.String
	cred.SecretAccessKey = secretKey.String
	cred.Region = region.String
	cred.BaseURL = baseURL.String
	if scopesRaw.Valid && scopesRaw.String != "" && scopesRaw.String != "null" {
		if err := json.Unmarshal([]byte(scopesRaw.String), &cred.Scopes); err != nil {
			return VendorCredential{}, fmt.Errorf("decode scopes: %w", err)
		}
	}
	if lastUsed.Valid {
		t := lastUsed.Time
		cred.LastUsedAt = &t
	}
	return cred, nil
}

func (s *SQLStore) bind(query string) string {
	if s.dialect != dialectPostgres {
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
