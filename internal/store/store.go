package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/ghstars/gh-stars/pkg/types"
)

// Store persists the per-user star cache and its embedding index in a
// single SQLite database. Each cached user owns an independent
// collection; queries across users are composed at read time.
type Store struct {
	db *sql.DB
}

// UserInfo summarizes one cached user.
type UserInfo struct {
	Username   string
	RepoCount  int
	LastSynced time.Time
}

// Open opens (and if necessary creates) the database at dbPath and
// applies pending migrations.
func Open(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// SQLite benefits from a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// ListUsers returns every cached user with record count and last sync
// time, ordered by username.
func (s *Store) ListUsers(ctx context.Context) ([]UserInfo, error) {
	query := `
		SELECT u.username, u.last_synced, COUNT(r.repo_key)
		FROM users u
		LEFT JOIN repos r ON r.cached_for = u.username
		GROUP BY u.username
		ORDER BY u.username
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	users := make([]UserInfo, 0)
	for rows.Next() {
		var info UserInfo
		if err := rows.Scan(&info.Username, &info.LastSynced, &info.RepoCount); err != nil {
			return nil, err
		}
		users = append(users, info)
	}
	return users, rows.Err()
}

// LastSynced reports when the user's cache was last refreshed. Returns
// types.ErrCacheMissing when no fetch has ever completed.
func (s *Store) LastSynced(ctx context.Context, username string) (time.Time, error) {
	var ts time.Time
	err := s.db.QueryRowContext(ctx,
		"SELECT last_synced FROM users WHERE username = ?", username).Scan(&ts)
	if err == sql.ErrNoRows {
		return time.Time{}, types.ErrCacheMissing
	}
	if err != nil {
		return time.Time{}, err
	}
	return ts, nil
}

const repoColumns = `owner, name, description, language, stars, forks, open_issues,
       url, topics, created_at, updated_at, pushed_at, starred_at`

// Load returns all cached records for one user. Fails with
// types.ErrCacheMissing if the user has never been fetched.
func (s *Store) Load(ctx context.Context, username string) ([]types.RepoRecord, error) {
	if _, err := s.LastSynced(ctx, username); err != nil {
		return nil, err
	}

	query := `SELECT ` + repoColumns + ` FROM repos WHERE cached_for = ? ORDER BY repo_key`
	rows, err := s.db.QueryContext(ctx, query, username)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	records := make([]types.RepoRecord, 0)
	for rows.Next() {
		rec, err := scanRepo(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// Get looks up a single record by its "owner/name" key. Fails with
// types.ErrNotFound when the key is absent from the user's cache.
func (s *Store) Get(ctx context.Context, username, key string) (*types.RepoRecord, error) {
	query := `SELECT ` + repoColumns + ` FROM repos WHERE cached_for = ? AND repo_key = ?`
	row := s.db.QueryRowContext(ctx, query, username, key)

	rec, err := scanRepo(row)
	if err == sql.ErrNoRows {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Merge reconciles a freshly fetched record set with the cached
// collection inside one transaction: new keys are inserted, keys whose
// content hash changed are replaced, keys absent upstream are removed
// together with their embeddings. The whole merge commits atomically,
// so an interrupted fetch can lose this session's data but never leave
// a partially merged cache behind.
func (s *Store) Merge(ctx context.Context, username string, fetched []types.RepoRecord) (*types.MergeReport, error) {
	// Duplicate composite keys inside one fetch would make the merge
	// ambiguous; the pagination contract rules them out.
	seen := make(map[string]struct{}, len(fetched))
	for i := range fetched {
		key := fetched[i].Key()
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("%w: %s", types.ErrMergeConflict, key)
		}
		seen[key] = struct{}{}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO users (username, last_synced) VALUES (?, ?)
		ON CONFLICT(username) DO UPDATE SET last_synced = excluded.last_synced
	`, username, now)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	existing, err := loadHashes(ctx, tx, username)
	if err != nil {
		return nil, err
	}

	report := &types.MergeReport{
		Added:     []string{},
		Updated:   []string{},
		Unchanged: []string{},
		Removed:   []string{},
	}

	for i := range fetched {
		rec := &fetched[i]
		key := rec.Key()
		hash := rec.ContentHash()

		prev, ok := existing[key]
		switch {
		case !ok:
			report.Added = append(report.Added, key)
		case prev == hash:
			report.Unchanged = append(report.Unchanged, key)
			continue
		default:
			report.Updated = append(report.Updated, key)
		}

		if err := upsertRepo(ctx, tx, username, key, hash, rec); err != nil {
			return nil, err
		}
	}

	// Records present in cache but absent upstream were unstarred
	// since the last sync.
	for key := range existing {
		if _, ok := seen[key]; ok {
			continue
		}
		report.Removed = append(report.Removed, key)
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM embeddings WHERE cached_for = ? AND repo_key = ?", username, key); err != nil {
			return nil, fmt.Errorf("failed to remove embedding %s: %w", key, err)
		}
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM repos WHERE cached_for = ? AND repo_key = ?", username, key); err != nil {
			return nil, fmt.Errorf("failed to remove repo %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit merge: %w", err)
	}

	sort.Strings(report.Added)
	sort.Strings(report.Updated)
	sort.Strings(report.Unchanged)
	sort.Strings(report.Removed)
	return report, nil
}

// Invalidate deletes a user's cached collection and embedding index.
func (s *Store) Invalidate(ctx context.Context, username string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range []string{
		"DELETE FROM embeddings WHERE cached_for = ?",
		"DELETE FROM repos WHERE cached_for = ?",
		"DELETE FROM users WHERE username = ?",
	} {
		if _, err := tx.ExecContext(ctx, stmt, username); err != nil {
			return fmt.Errorf("failed to invalidate cache: %w", err)
		}
	}
	return tx.Commit()
}

// loadHashes returns key -> record_hash for every cached record.
func loadHashes(ctx context.Context, tx *sql.Tx, username string) (map[string]string, error) {
	rows, err := tx.QueryContext(ctx,
		"SELECT repo_key, record_hash FROM repos WHERE cached_for = ?", username)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	hashes := make(map[string]string)
	for rows.Next() {
		var key, hash string
		if err := rows.Scan(&key, &hash); err != nil {
			return nil, err
		}
		hashes[key] = hash
	}
	return hashes, rows.Err()
}

func upsertRepo(ctx context.Context, tx *sql.Tx, username, key, hash string, rec *types.RepoRecord) error {
	topics, err := json.Marshal(rec.Topics)
	if err != nil {
		return fmt.Errorf("failed to encode topics: %w", err)
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}

	query := `
		INSERT INTO repos (
			cached_for, repo_key, owner, name, description, language,
			stars, forks, open_issues, url, topics,
			created_at, updated_at, pushed_at, starred_at,
			record_hash, raw_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(cached_for, repo_key) DO UPDATE SET
			owner = excluded.owner,
			name = excluded.name,
			description = excluded.description,
			language = excluded.language,
			stars = excluded.stars,
			forks = excluded.forks,
			open_issues = excluded.open_issues,
			url = excluded.url,
			topics = excluded.topics,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			pushed_at = excluded.pushed_at,
			starred_at = excluded.starred_at,
			record_hash = excluded.record_hash,
			raw_json = excluded.raw_json
	`
	_, err = tx.ExecContext(ctx, query,
		username, key, rec.Owner, rec.Name,
		nullString(rec.Description), nullString(rec.Language),
		rec.Stars, rec.Forks, rec.OpenIssues, rec.URL, string(topics),
		nullTime(rec.CreatedAt), nullTime(rec.UpdatedAt), nullTime(rec.PushedAt),
		rec.StarredAt, hash, string(raw))
	if err != nil {
		return fmt.Errorf("failed to upsert repo %s: %w", key, err)
	}
	return nil
}

// scanner is implemented by both *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRepo(sc scanner) (*types.RepoRecord, error) {
	var rec types.RepoRecord
	var description, language, topics sql.NullString
	var createdAt, updatedAt, pushedAt sql.NullTime

	err := sc.Scan(
		&rec.Owner, &rec.Name, &description, &language,
		&rec.Stars, &rec.Forks, &rec.OpenIssues, &rec.URL, &topics,
		&createdAt, &updatedAt, &pushedAt, &rec.StarredAt,
	)
	if err != nil {
		return nil, err
	}

	rec.Description = description.String
	rec.Language = language.String
	if createdAt.Valid {
		rec.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		rec.UpdatedAt = updatedAt.Time
	}
	if pushedAt.Valid {
		rec.PushedAt = pushedAt.Time
	}
	if topics.Valid && topics.String != "" {
		if err := json.Unmarshal([]byte(topics.String), &rec.Topics); err != nil {
			return nil, fmt.Errorf("failed to decode topics: %w", err)
		}
	}
	return &rec, nil
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}
