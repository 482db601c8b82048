package storage

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"shipmatch/internal"
)

const (
	InboxProcessed = "processed"
	InboxFailed    = "failed"

	MetaAccountsSource     = "accounts.source"
	MetaAccountsImportedAt = "accounts.importedAt"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS accounts (
  position INTEGER PRIMARY KEY,
  customerName TEXT NOT NULL,
  accountNumber TEXT NOT NULL,
  importedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_accounts_number ON accounts(accountNumber);

CREATE TABLE IF NOT EXISTS inbox_files (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  path TEXT NOT NULL,
  hash TEXT NOT NULL UNIQUE,
  status TEXT NOT NULL,
  error TEXT NOT NULL DEFAULT '',
  rows INTEGER NOT NULL DEFAULT 0,
  output TEXT NOT NULL DEFAULT '',
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

// ReplaceAccounts swaps the whole directory in one transaction. Positions
// follow the slice order so ties resolve the same way as a file import.
func (d *DB) ReplaceAccounts(accounts []internal.AccountRecord, source string) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM accounts`); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`INSERT INTO accounts (position, customerName, accountNumber) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, a := range accounts {
		if _, err := stmt.Exec(i, a.CustomerName, a.AccountNumber); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?), (?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, MetaAccountsSource, source, MetaAccountsImportedAt); err != nil {
		return err
	}

	return tx.Commit()
}

func (d *DB) ListAccounts() ([]internal.AccountRecord, error) {
	rows, err := d.conn.Query(`SELECT customerName, accountNumber FROM accounts ORDER BY position ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.AccountRecord
	for rows.Next() {
		var a internal.AccountRecord
		if err := rows.Scan(&a.CustomerName, &a.AccountNumber); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (d *DB) AccountCount() (int, error) {
	var n int
	err := d.conn.QueryRow(`SELECT COUNT(*) FROM accounts`).Scan(&n)
	return n, err
}

func (d *DB) GetInboxFileByHash(hash string) (*internal.InboxFile, error) {
	var f internal.InboxFile
	err := d.conn.QueryRow(`
SELECT id, path, hash, status, error, rows, output, createdAt
FROM inbox_files WHERE hash = ?
`, hash).Scan(&f.ID, &f.Path, &f.Hash, &f.Status, &f.Error, &f.Rows, &f.Output, &f.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (d *DB) RecordInboxFile(f internal.InboxFile) error {
	_, err := d.conn.Exec(`
INSERT INTO inbox_files (path, hash, status, error, rows, output)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(hash) DO UPDATE SET
  path=excluded.path,
  status=excluded.status,
  error=excluded.error,
  rows=excluded.rows,
  output=excluded.output,
  updatedAt=CURRENT_TIMESTAMP
`, f.Path, f.Hash, f.Status, f.Error, f.Rows, f.Output)
	return err
}

func (d *DB) ListInboxFiles(status string, limit int) ([]internal.InboxFile, error) {
	rows, err := d.conn.Query(`
SELECT id, path, hash, status, error, rows, output, createdAt
FROM inbox_files WHERE (? = '' OR status = ?) ORDER BY id DESC LIMIT ?
`, status, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.InboxFile
	for rows.Next() {
		var f internal.InboxFile
		if err := rows.Scan(&f.ID, &f.Path, &f.Hash, &f.Status, &f.Error, &f.Rows, &f.Output, &f.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}
