// SQLite parameter store
//
// Copyright (C) 2026  babystep-go authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package paramstore

import (
	"database/sql"
	"fmt"

	// SQLite driver
	_ "github.com/mattn/go-sqlite3"

	"babystep-go/pkg/babystep"
	"babystep-go/pkg/errors"
)

const createParamsTable = `
CREATE TABLE IF NOT EXISTS params (
	param TEXT NOT NULL,
	axis  TEXT NOT NULL,
	value REAL NOT NULL,
	PRIMARY KEY (param, axis)
)`

const upsertParam = `
INSERT INTO params (param, axis, value) VALUES (?, ?, ?)
ON CONFLICT (param, axis) DO UPDATE SET value = excluded.value`

// SQLite stores parameters in a params table.
type SQLite struct {
	staged
	db *sql.DB
}

// NewSQLite opens or creates the database at filename.
func NewSQLite(filename string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrRuntimeInit, fmt.Sprintf("open %s", filename))
	}
	if _, err := db.Exec(createParamsTable); err != nil {
		db.Close()
		return nil, errors.Wrap(err, errors.ErrRuntimeInit, "create params table")
	}
	return &SQLite{staged: newStaged(), db: db}, nil
}

// Read returns the staged value, else the stored row, else 0.
func (s *SQLite) Read(param babystep.ParamID, axis babystep.Axis) (float64, error) {
	if v, ok := s.get(param, axis); ok {
		return v, nil
	}
	var v float64
	err := s.db.QueryRow("SELECT value FROM params WHERE param = ? AND axis = ?",
		string(param), string(axis)).Scan(&v)
	switch {
	case err == sql.ErrNoRows:
		return 0, nil
	case err != nil:
		return 0, errors.ParamReadError(string(param), string(axis), err)
	}
	return v, nil
}

func (s *SQLite) Write(param babystep.ParamID, axis babystep.Axis, value float64) error {
	s.set(param, axis, value)
	return nil
}

func (s *SQLite) PersistenceEnabled() bool { return true }

// Commit upserts every staged value in one transaction.
func (s *SQLite) Commit() error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.ParamCommitError(err)
	}
	for k, v := range s.snapshot() {
		if _, err := tx.Exec(upsertParam, string(k.param), string(k.axis), v); err != nil {
			tx.Rollback()
			return errors.ParamCommitError(err)
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.ParamCommitError(err)
	}
	s.markClean()
	return nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}
