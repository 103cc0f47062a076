// Package store persists submitted supertransactions so status can be
// re-fetched by hash across CLI invocations. This is the only state that
// outlives a call; quotes are transient and never stored.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"
)

type Store struct {
	db   *sql.DB
	lock *flock.Flock
}

// Record is one submitted supertransaction.
type Record struct {
	SupertxHash  string `json:"supertx_hash"`
	OwnerAddress string `json:"owner_address"`
	Mode         string `json:"mode"`
	FlowSummary  string `json:"flow_summary"`
	Status       string `json:"status"`
	SubmittedAt  string `json:"submitted_at"`
	UpdatedAt    string `json:"updated_at"`
}

func Open(path, lockPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open supertx sqlite: %w", err)
	}

	queries := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		`CREATE TABLE IF NOT EXISTS supertxs (
			supertx_hash TEXT PRIMARY KEY,
			owner_address TEXT NOT NULL,
			status TEXT NOT NULL,
			submitted_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL,
			payload BLOB NOT NULL
		);`,
		"CREATE INDEX IF NOT EXISTS idx_supertxs_owner_updated ON supertxs(owner_address, updated_at DESC);",
	}
	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init supertx schema: %w", err)
		}
	}
	return &Store{db: db, lock: flock.New(lockPath)}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Save(rec Record) error {
	if strings.TrimSpace(rec.SupertxHash) == "" {
		return fmt.Errorf("save supertx: missing hash")
	}
	locked, err := s.lock.TryLockContext(context.Background(), 5*time.Second)
	if err != nil {
		return fmt.Errorf("lock supertx store: %w", err)
	}
	if !locked {
		return fmt.Errorf("lock supertx store: timeout acquiring lock")
	}
	defer func() { _ = s.lock.Unlock() }()

	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal supertx record: %w", err)
	}
	submittedUnix, _ := parseRFC3339Unix(rec.SubmittedAt)
	updatedUnix, _ := parseRFC3339Unix(rec.UpdatedAt)
	if submittedUnix == 0 {
		submittedUnix = time.Now().UTC().Unix()
	}
	if updatedUnix == 0 {
		updatedUnix = time.Now().UTC().Unix()
	}

	_, err = s.db.Exec(`
		INSERT INTO supertxs (supertx_hash, owner_address, status, submitted_at, updated_at, payload)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(supertx_hash) DO UPDATE SET
			owner_address=excluded.owner_address,
			status=excluded.status,
			updated_at=excluded.updated_at,
			payload=excluded.payload
	`, rec.SupertxHash, rec.OwnerAddress, rec.Status, submittedUnix, updatedUnix, payload)
	if err != nil {
		return fmt.Errorf("save supertx: %w", err)
	}
	return nil
}

func (s *Store) Get(supertxHash string) (Record, error) {
	var payload []byte
	err := s.db.QueryRow("SELECT payload FROM supertxs WHERE supertx_hash = ?", supertxHash).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, fmt.Errorf("supertx not found: %s", supertxHash)
		}
		return Record{}, fmt.Errorf("read supertx: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(payload, &rec); err != nil {
		return Record{}, fmt.Errorf("decode supertx payload: %w", err)
	}
	return rec, nil
}

func (s *Store) List(owner string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	var (
		rows *sql.Rows
		err  error
	)
	if strings.TrimSpace(owner) == "" {
		rows, err = s.db.Query("SELECT payload FROM supertxs ORDER BY updated_at DESC LIMIT ?", limit)
	} else {
		rows, err = s.db.Query("SELECT payload FROM supertxs WHERE owner_address = ? ORDER BY updated_at DESC LIMIT ?", owner, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("list supertxs: %w", err)
	}
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan supertx row: %w", err)
		}
		var rec Record
		if err := json.Unmarshal(payload, &rec); err != nil {
			return nil, fmt.Errorf("decode supertx row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate supertx rows: %w", err)
	}
	return records, nil
}

// UpdateStatus refreshes the stored settlement state after a status poll.
func (s *Store) UpdateStatus(supertxHash, status string) error {
	rec, err := s.Get(supertxHash)
	if err != nil {
		return err
	}
	rec.Status = status
	rec.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	return s.Save(rec)
}

func parseRFC3339Unix(v string) (int64, bool) {
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return 0, false
	}
	return t.UTC().Unix(), true
}
