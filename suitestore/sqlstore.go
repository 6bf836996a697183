// Licensed to the Apache Software Foundation (ASF) under one
// or more contributor license agreements.  See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership.  The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License.  You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

// Package suitestore persists assertion suites and their run history.
package suitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"
	"github.com/uptrace/bun/schema"

	"github.com/datavet/datavet-go"
	"github.com/datavet/datavet-go/config"
)

type SupportedDialect string

const (
	Postgres SupportedDialect = "postgres"
	MySQL    SupportedDialect = "mysql"
	SQLite   SupportedDialect = "sqlite"
)

var (
	dialects  = map[SupportedDialect]schema.Dialect{}
	dialectMx sync.Mutex
)

func createDialect(d SupportedDialect) schema.Dialect {
	switch d {
	case Postgres:
		return pgdialect.New()
	case MySQL:
		return mysqldialect.New()
	case SQLite:
		return sqlitedialect.New()
	default:
		panic("unsupported sql dialect")
	}
}

func getDialect(d SupportedDialect) schema.Dialect {
	dialectMx.Lock()
	defer dialectMx.Unlock()
	ret, ok := dialects[d]
	if !ok {
		ret = createDialect(d)
		dialects[d] = ret
	}

	return ret
}

type storedSuite struct {
	bun.BaseModel `bun:"table:datavet_suites"`

	StoreName string `bun:",pk"`
	SuiteName string `bun:",pk"`
	Payload   []byte
	UpdatedAt time.Time
}

func withReadTx[R any](ctx context.Context, db *bun.DB, fn func(context.Context, bun.Tx) (R, error)) (result R, err error) {
	txErr := db.RunInTx(ctx, &sql.TxOptions{ReadOnly: true}, func(ctx context.Context, tx bun.Tx) error {
		result, err = fn(ctx, tx)

		return err
	})
	if err == nil {
		err = txErr
	}

	return
}

func withWriteTx(ctx context.Context, db *bun.DB, fn func(context.Context, bun.Tx) error) error {
	return db.RunInTx(ctx, &sql.TxOptions{Isolation: sql.LevelDefault}, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, tx)
	})
}

// SQLStore keeps named suites in a relational database, serialized in their
// yaml form. Several stores can share one database under different store
// names.
type SQLStore struct {
	db   *bun.DB
	name string
}

// NewSQLStore wraps the provided sql.DB handle. The dialect parameter decides
// query generation only, so any driver speaking a supported dialect works.
// The backing table is created when missing.
//
// The environment variable DATAVET_SQL_DEBUG logs queries to the terminal:
// - DATAVET_SQL_DEBUG=1 logs only failed queries
// - DATAVET_SQL_DEBUG=2 logs all queries
func NewSQLStore(name string, db *sql.DB, dialect SupportedDialect) (*SQLStore, error) {
	st := &SQLStore{db: bun.NewDB(db, getDialect(dialect)), name: name}

	st.db.AddQueryHook(bundebug.NewQueryHook(
		bundebug.WithEnabled(false),
		bundebug.FromEnv("DATAVET_SQL_DEBUG")))

	_, err := st.db.NewCreateTable().Model((*storedSuite)(nil)).
		IfNotExists().Exec(context.Background())
	if err != nil {
		return nil, err
	}

	return st, nil
}

// OpenSQLiteStore opens (or creates) a sqlite-backed store at the given uri,
// such as "file:suites.db" or ":memory:".
func OpenSQLiteStore(name, uri string) (*SQLStore, error) {
	db, err := sql.Open(sqliteshim.ShimName, uri)
	if err != nil {
		return nil, err
	}

	return NewSQLStore(name, db, SQLite)
}

// Open opens the named store from the environment configuration. An empty
// name selects the configured default store.
func Open(name string) (*SQLStore, error) {
	if name == "" {
		name = config.EnvConfig.DefaultStore
	}

	sc, ok := config.EnvConfig.Stores[name]
	if !ok {
		return nil, fmt.Errorf("%w: store %q is not configured", datavet.ErrInvalidConfiguration, name)
	}
	if sc.StoreType != "sql" {
		return nil, fmt.Errorf("%w: unsupported store type %q", datavet.ErrInvalidConfiguration, sc.StoreType)
	}

	return OpenSQLiteStore(name, sc.URI)
}

func (s *SQLStore) Name() string { return s.name }

func (s *SQLStore) Close() error { return s.db.Close() }

// SaveSuite inserts or replaces the suite under its name.
func (s *SQLStore) SaveSuite(ctx context.Context, suite *datavet.Suite) error {
	if suite.Name == "" {
		return fmt.Errorf("%w: cannot save a suite without a name", datavet.ErrInvalidConfiguration)
	}
	payload, err := suite.Bytes()
	if err != nil {
		return err
	}

	model := &storedSuite{
		StoreName: s.name,
		SuiteName: suite.Name,
		Payload:   payload,
		UpdatedAt: time.Now().UTC(),
	}

	return withWriteTx(ctx, s.db, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().Model(model).
			On("CONFLICT (store_name, suite_name) DO UPDATE").
			Set("payload = EXCLUDED.payload").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)

		return err
	})
}

// LoadSuite fetches and decodes the named suite.
func (s *SQLStore) LoadSuite(ctx context.Context, name string) (*datavet.Suite, error) {
	stored, err := withReadTx(ctx, s.db, func(ctx context.Context, tx bun.Tx) (*storedSuite, error) {
		var out storedSuite
		err := tx.NewSelect().Model(&out).
			Where("store_name = ?", s.name).
			Where("suite_name = ?", name).
			Scan(ctx)
		if err != nil {
			return nil, err
		}

		return &out, nil
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: suite %q not found", datavet.ErrInvalidConfiguration, name)
		}

		return nil, err
	}

	return datavet.LoadSuite(stored.Payload)
}

// SuiteExists reports whether a suite is stored under the given name.
func (s *SQLStore) SuiteExists(ctx context.Context, name string) (bool, error) {
	return withReadTx(ctx, s.db, func(ctx context.Context, tx bun.Tx) (bool, error) {
		return tx.NewSelect().Model((*storedSuite)(nil)).
			Where("store_name = ?", s.name).
			Where("suite_name = ?", name).
			Exists(ctx)
	})
}

// ListSuites returns the stored suite names in sorted order.
func (s *SQLStore) ListSuites(ctx context.Context) ([]string, error) {
	return withReadTx(ctx, s.db, func(ctx context.Context, tx bun.Tx) ([]string, error) {
		var names []string
		err := tx.NewSelect().Model((*storedSuite)(nil)).
			Column("suite_name").
			Where("store_name = ?", s.name).
			Order("suite_name ASC").
			Scan(ctx, &names)

		return names, err
	})
}

// DropSuite removes the named suite; dropping an absent suite is not an error.
func (s *SQLStore) DropSuite(ctx context.Context, name string) error {
	return withWriteTx(ctx, s.db, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewDelete().Model((*storedSuite)(nil)).
			Where("store_name = ?", s.name).
			Where("suite_name = ?", name).
			Exec(ctx)

		return err
	})
}
