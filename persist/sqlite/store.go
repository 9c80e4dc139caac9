/*
   Copyright 2025 The DIRPX Authors.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/


// Package sqlite persists the entity cache to a SQLite file so a process
// can start warm.
//
// Each top-level record of a store key is one row. Composite-key records
// are stored with their nested id levels intact inside the payload.
package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"
	_ "modernc.org/sqlite"

	"dirpx.dev/trn/apis"
)

// ErrNotConfigured is returned by methods of a nil or closed Store.
var ErrNotConfigured = errors.New("trn(sqlite): storage is not configured")

const schema = `CREATE TABLE IF NOT EXISTS entities (
	store_key TEXT NOT NULL,
	id        TEXT NOT NULL,
	payload   BLOB NOT NULL,
	PRIMARY KEY (store_key, id)
)`

// Store is a SQLite-backed snapshot of apis.Entities.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the database at path and ensures the
// entities table exists.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("trn(sqlite): storage path is required")
	}
	clean := filepath.Clean(path)
	db, err := sql.Open("sqlite", clean+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create entities table: %w", err)
	}
	return &Store{db: db, path: clean}, nil
}

// Path returns the cleaned database path.
func (s *Store) Path() string { return s.path }

// Close releases the underlying connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save upserts every top-level record of entities in one transaction.
// Rows absent from entities are left untouched.
func (s *Store) Save(ctx context.Context, entities apis.Entities) (err error) {
	if s == nil || s.db == nil {
		return ErrNotConfigured
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			err = multierr.Append(err, tx.Rollback())
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO entities (store_key, id, payload) VALUES (?, ?, ?)
		ON CONFLICT(store_key, id) DO UPDATE SET payload = excluded.payload`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for storeKey, ids := range entities {
		for id, record := range ids {
			payload, err := json.Marshal(record)
			if err != nil {
				return fmt.Errorf("encode %s/%s: %w", storeKey, id, err)
			}
			if _, err := stmt.ExecContext(ctx, storeKey, id, payload); err != nil {
				return fmt.Errorf("upsert %s/%s: %w", storeKey, id, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Load reads every persisted record. Numbers decode as json.Number, the
// same representation the fetch pipeline produces.
func (s *Store) Load(ctx context.Context) (apis.Entities, error) {
	if s == nil || s.db == nil {
		return nil, ErrNotConfigured
	}
	rows, err := s.db.QueryContext(ctx, `SELECT store_key, id, payload FROM entities`)
	if err != nil {
		return nil, fmt.Errorf("query entities: %w", err)
	}
	defer rows.Close()

	out := apis.Entities{}
	for rows.Next() {
		var (
			storeKey, id string
			payload      []byte
		)
		if err := rows.Scan(&storeKey, &id, &payload); err != nil {
			return nil, fmt.Errorf("scan entity: %w", err)
		}
		dec := json.NewDecoder(bytes.NewReader(payload))
		dec.UseNumber()
		var record any
		if err := dec.Decode(&record); err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", storeKey, id, err)
		}
		if out[storeKey] == nil {
			out[storeKey] = map[string]any{}
		}
		out[storeKey][id] = record
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entities: %w", err)
	}
	return out, nil
}
