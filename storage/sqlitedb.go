package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb/util"
	"github.com/tolelom/vivorun/core"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS kv (
	k BLOB PRIMARY KEY,
	v BLOB NOT NULL
) WITHOUT ROWID`

const sqliteUpsert = `INSERT INTO kv (k, v) VALUES (?, ?)
	ON CONFLICT(k) DO UPDATE SET v = excluded.v`

// SQLiteDB implements DB as a single two-column SQLite table.
type SQLiteDB struct {
	db *sql.DB
}

// NewSQLiteDB opens (or creates) the SQLite database file at path.
func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	// SQLite allows one writer; a single connection also keeps
	// read-after-write ordering trivial.
	db.SetMaxOpenConns(1)
	for _, stmt := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		sqliteSchema,
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite %q: %w", stmt, err)
		}
	}
	return &SQLiteDB{db: db}, nil
}

func (s *SQLiteDB) Get(key []byte) ([]byte, error) {
	var v []byte
	err := s.db.QueryRow(`SELECT v FROM kv WHERE k = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (s *SQLiteDB) Set(key, value []byte) error {
	_, err := s.db.Exec(sqliteUpsert, key, value)
	return err
}

func (s *SQLiteDB) Delete(key []byte) error {
	_, err := s.db.Exec(`DELETE FROM kv WHERE k = ?`, key)
	return err
}

// NewIterator loads the whole prefix range eagerly so no connection is
// held while the caller walks it.
func (s *SQLiteDB) NewIterator(prefix []byte) Iterator {
	r := util.BytesPrefix(prefix)
	var (
		rows *sql.Rows
		err  error
	)
	if r.Limit == nil {
		rows, err = s.db.Query(`SELECT k, v FROM kv WHERE k >= ? ORDER BY k`, r.Start)
	} else {
		rows, err = s.db.Query(`SELECT k, v FROM kv WHERE k >= ? AND k < ? ORDER BY k`, r.Start, r.Limit)
	}
	if err != nil {
		return errIterator(err)
	}
	defer rows.Close()

	var pairs []KV
	for rows.Next() {
		var kv KV
		if err := rows.Scan(&kv.Key, &kv.Value); err != nil {
			return errIterator(err)
		}
		pairs = append(pairs, kv)
	}
	if err := rows.Err(); err != nil {
		return errIterator(err)
	}
	return NewSliceIterator(pairs)
}

func (s *SQLiteDB) NewBatch() Batch {
	return &sqliteBatch{db: s.db}
}

func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

type sqliteBatch struct {
	db  *sql.DB
	ops []batchOp
}

func (b *sqliteBatch) Set(key, value []byte) {
	b.ops = append(b.ops, batchOp{key: append([]byte(nil), key...), value: append([]byte{}, value...)})
}

func (b *sqliteBatch) Delete(key []byte) {
	b.ops = append(b.ops, batchOp{key: append([]byte(nil), key...)})
}

func (b *sqliteBatch) Reset() { b.ops = nil }

func (b *sqliteBatch) Write() error {
	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	for _, op := range b.ops {
		if op.value == nil {
			_, err = tx.Exec(`DELETE FROM kv WHERE k = ?`, op.key)
		} else {
			_, err = tx.Exec(sqliteUpsert, op.key, op.value)
		}
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("batch write: %w", err)
		}
	}
	return tx.Commit()
}
