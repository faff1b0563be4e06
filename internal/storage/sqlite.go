package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vedsharma/pingforge/internal/model"
)

const (
	dbFile = "pingforge.db"

	// HistoryLimit is the number of executed requests kept.
	HistoryLimit = 100

	// Secure file permissions - owner read/write only
	secureFileMode = 0600 // -rw-------
	secureDirMode  = 0700 // drwx------
)

var ErrExists = errors.New("already exists")

// parseJSONMap parses a stored header map, returning an empty map on error
func parseJSONMap(jsonStr string) (map[string]string, error) {
	if jsonStr == "" {
		return make(map[string]string), nil
	}

	var m map[string]string
	if err := json.Unmarshal([]byte(jsonStr), &m); err != nil {
		return make(map[string]string), fmt.Errorf("failed to parse headers JSON: %w", err)
	}

	if m == nil {
		m = make(map[string]string)
	}
	return m, nil
}

// ensureSecureFile creates path with owner-only permissions, or tightens the
// permissions of an existing file.
func ensureSecureFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, secureFileMode)
		if err != nil {
			return fmt.Errorf("failed to create secure file: %w", err)
		}
		f.Close()
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}

	if info.Mode().Perm() != secureFileMode {
		if err := os.Chmod(path, secureFileMode); err != nil {
			return fmt.Errorf("failed to set secure permissions: %w", err)
		}
	}
	return nil
}

// SQLiteStorage is the local workspace: history, collections, environments
// and aliases.
type SQLiteStorage struct {
	db      *sql.DB
	dataDir string
}

// NewStorage opens (and if needed creates) the workspace database in dataDir.
func NewStorage(dataDir string) (*SQLiteStorage, error) {
	if err := os.MkdirAll(dataDir, secureDirMode); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFile)
	if err := ensureSecureFile(dbPath); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// modernc sqlite serialises writers; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLiteStorage{db: db, dataDir: dataDir}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func (s *SQLiteStorage) DataDir() string { return s.dataDir }

func (s *SQLiteStorage) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS history (
		id TEXT PRIMARY KEY,
		timestamp DATETIME NOT NULL,
		method TEXT NOT NULL,
		url TEXT NOT NULL,
		headers TEXT DEFAULT '{}',
		body TEXT DEFAULT '',
		response_status INTEGER,
		response_status_text TEXT,
		response_headers TEXT,
		response_body_kind TEXT,
		response_body TEXT,
		response_elapsed_ms INTEGER,
		response_size_bytes INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_history_timestamp ON history(timestamp DESC);

	CREATE TABLE IF NOT EXISTS collections (
		id TEXT PRIMARY KEY,
		name TEXT UNIQUE NOT NULL,
		description TEXT DEFAULT '',
		environment_id TEXT DEFAULT '',
		remote_id TEXT DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS saved_requests (
		id TEXT PRIMARY KEY,
		collection_id TEXT NOT NULL,
		name TEXT DEFAULT '',
		request TEXT NOT NULL,
		position INTEGER NOT NULL,
		FOREIGN KEY (collection_id) REFERENCES collections(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_saved_requests_collection ON saved_requests(collection_id, position);

	CREATE TABLE IF NOT EXISTS environments (
		id TEXT PRIMARY KEY,
		name TEXT UNIQUE NOT NULL,
		description TEXT DEFAULT '',
		variables TEXT NOT NULL DEFAULT '[]',
		remote_id TEXT DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS aliases (
		name TEXT PRIMARY KEY,
		url TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// History Operations
// =============================================================================

const historyColumns = `id, timestamp, method, url, headers, body,
	response_status, response_status_text, response_headers,
	response_body_kind, response_body, response_elapsed_ms, response_size_bytes`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHistoryEntry(row rowScanner) (model.HistoryEntry, error) {
	var e model.HistoryEntry
	var headersJSON string
	var status, elapsed, size sql.NullInt64
	var statusText, respHeaders, kind, respBody sql.NullString

	err := row.Scan(
		&e.ID, &e.Timestamp, &e.Method, &e.URL, &headersJSON, &e.Body,
		&status, &statusText, &respHeaders, &kind, &respBody, &elapsed, &size,
	)
	if err != nil {
		return e, err
	}

	// Parse headers JSON (errors don't fail the operation)
	e.Headers, _ = parseJSONMap(headersJSON)

	if status.Valid {
		resp := &model.ExecutedResponse{
			Status:     int(status.Int64),
			StatusText: statusText.String,
			BodyKind:   model.BodyKind(kind.String),
			ElapsedMs:  elapsed.Int64,
			SizeBytes:  int(size.Int64),
		}
		resp.Headers, _ = parseJSONMap(respHeaders.String)
		if resp.BodyKind == model.BodyKindJSON {
			resp.JSON = json.RawMessage(respBody.String)
		} else {
			resp.Text = respBody.String
		}
		e.Response = resp
	}
	return e, nil
}

// LoadHistory returns up to limit entries, newest first. A limit <= 0 means
// HistoryLimit.
func (s *SQLiteStorage) LoadHistory(limit int) ([]model.HistoryEntry, error) {
	if limit <= 0 || limit > HistoryLimit {
		limit = HistoryLimit
	}
	rows, err := s.db.Query(`SELECT `+historyColumns+` FROM history ORDER BY timestamp DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []model.HistoryEntry{}
	for rows.Next() {
		e, err := scanHistoryEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// AddToHistory stores an entry with sensitive headers redacted and trims
// history to HistoryLimit entries.
func (s *SQLiteStorage) AddToHistory(e model.HistoryEntry) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	e.Headers = RedactHeaders(e.Headers)

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	headersJSON, _ := json.Marshal(e.Headers)

	var status, elapsed, size sql.NullInt64
	var statusText, respHeaders, kind, respBody sql.NullString
	if r := e.Response; r != nil {
		status = sql.NullInt64{Int64: int64(r.Status), Valid: true}
		statusText = sql.NullString{String: r.StatusText, Valid: true}
		h, _ := json.Marshal(RedactHeaders(r.Headers))
		respHeaders = sql.NullString{String: string(h), Valid: true}
		kind = sql.NullString{String: string(r.BodyKind), Valid: true}
		respBody = sql.NullString{String: r.BodyString(), Valid: true}
		elapsed = sql.NullInt64{Int64: r.ElapsedMs, Valid: true}
		size = sql.NullInt64{Int64: int64(r.SizeBytes), Valid: true}
	}

	_, err = tx.Exec(`INSERT OR REPLACE INTO history (`+historyColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Timestamp.UTC(), e.Method, e.URL, string(headersJSON), e.Body,
		status, statusText, respHeaders, kind, respBody, elapsed, size,
	)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`
		DELETE FROM history
		WHERE id NOT IN (
			SELECT id FROM history ORDER BY timestamp DESC LIMIT ?
		)`, HistoryLimit)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// ClearHistory clears all history
func (s *SQLiteStorage) ClearHistory() error {
	_, err := s.db.Exec("DELETE FROM history")
	return err
}

// GetHistoryEntry returns the entry with id, or nil when there is none.
func (s *SQLiteStorage) GetHistoryEntry(id string) (*model.HistoryEntry, error) {
	row := s.db.QueryRow(`SELECT `+historyColumns+` FROM history WHERE id = ?`, id)
	e, err := scanHistoryEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// =============================================================================
// Alias Operations
// =============================================================================

// LoadAliases loads all aliases from the database
func (s *SQLiteStorage) LoadAliases() (*model.Aliases, error) {
	aliases := &model.Aliases{Aliases: make(map[string]string)}

	rows, err := s.db.Query("SELECT name, url FROM aliases")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var name, url string
		if err := rows.Scan(&name, &url); err != nil {
			return nil, err
		}
		aliases.Aliases[name] = url
	}

	return aliases, rows.Err()
}

// CreateAlias creates or replaces an alias
func (s *SQLiteStorage) CreateAlias(name, url string) error {
	_, err := s.db.Exec(`
		INSERT INTO aliases (name, url) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET url = excluded.url`,
		name, url)
	return err
}

// DeleteAlias deletes an alias and reports whether it existed
func (s *SQLiteStorage) DeleteAlias(name string) (bool, error) {
	res, err := s.db.Exec("DELETE FROM aliases WHERE name = ?", name)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// GetAlias gets an alias URL by name
func (s *SQLiteStorage) GetAlias(name string) (string, bool, error) {
	var url string
	err := s.db.QueryRow("SELECT url FROM aliases WHERE name = ?", name).Scan(&url)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return url, true, nil
}
