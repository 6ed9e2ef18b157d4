// Package mocks provides in-process stand-ins for external systems: a
// scripted database/sql driver for asserting generated SQL without a server,
// and an in-memory lock backend with real mutual exclusion.
package mocks

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
)

// QueryFunc answers a query with column names and row values.
type QueryFunc func(query string, args []driver.Value) (cols []string, rows [][]driver.Value, err error)

// ExecFunc answers an exec with (lastInsertID, rowsAffected).
type ExecFunc func(query string, args []driver.Value) (int64, int64, error)

// Statement is one statement the mock saw, with its bound arguments.
type Statement struct {
	Query string
	Args  []driver.Value
}

// DB scripts a database/sql driver. Tests set OnQuery/OnExec and inspect the
// recorded statements afterward.
type DB struct {
	OnQuery QueryFunc
	OnExec  ExecFunc

	mu         sync.Mutex
	statements []Statement
}

var driverSeq atomic.Int64

// NewDB registers a fresh mock driver instance and opens a handle on it.
// Each call gets its own driver name, so tests stay independent.
func NewDB() (*sql.DB, *DB) {
	m := &DB{}
	name := fmt.Sprintf("dbalmock%d", driverSeq.Add(1))
	sql.Register(name, mockDriver{m: m})
	db, err := sql.Open(name, name)
	if err != nil {
		// The driver was registered one line up; Open cannot fail.
		panic(err)
	}
	return db, m
}

func (m *DB) record(query string, args []driver.Value) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statements = append(m.statements, Statement{Query: query, Args: args})
}

// Statements returns a copy of every statement routed to the mock, in order.
func (m *DB) Statements() []Statement {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Statement, len(m.statements))
	copy(out, m.statements)
	return out
}

// LastStatement returns the most recent statement, or a zero value when none.
func (m *DB) LastStatement() Statement {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.statements) == 0 {
		return Statement{}
	}
	return m.statements[len(m.statements)-1]
}

func (m *DB) query(query string, args []driver.Value) (driver.Rows, error) {
	m.record(query, args)
	if m.OnQuery == nil {
		return nil, fmt.Errorf("mock db: unexpected query %q", query)
	}
	cols, rows, err := m.OnQuery(query, args)
	if err != nil {
		return nil, err
	}
	return &rowSet{cols: cols, rows: rows}, nil
}

func (m *DB) exec(query string, args []driver.Value) (driver.Result, error) {
	m.record(query, args)
	if m.OnExec == nil {
		return nil, fmt.Errorf("mock db: unexpected exec %q", query)
	}
	last, n, err := m.OnExec(query, args)
	if err != nil {
		return nil, err
	}
	return result{last: last, n: n}, nil
}

type mockDriver struct {
	m *DB
}

func (d mockDriver) Open(string) (driver.Conn, error) {
	return &conn{m: d.m}, nil
}

type conn struct {
	m *DB
}

// Prepare serves drivers paths that bypass QueryerContext/ExecerContext.
func (c *conn) Prepare(query string) (driver.Stmt, error) {
	return &stmt{m: c.m, query: query}, nil
}

func (c *conn) Close() error {
	return nil
}

func (c *conn) Begin() (driver.Tx, error) {
	return nil, fmt.Errorf("mock db: transactions not supported")
}

func (c *conn) QueryContext(_ context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	return c.m.query(query, namedValues(args))
}

func (c *conn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	return c.m.exec(query, namedValues(args))
}

type stmt struct {
	m     *DB
	query string
}

func (s *stmt) Close() error {
	return nil
}

func (s *stmt) NumInput() int {
	return -1
}

func (s *stmt) Exec(args []driver.Value) (driver.Result, error) {
	return s.m.exec(s.query, args)
}

func (s *stmt) Query(args []driver.Value) (driver.Rows, error) {
	return s.m.query(s.query, args)
}

type rowSet struct {
	cols []string
	rows [][]driver.Value
	i    int
}

func (r *rowSet) Columns() []string {
	return r.cols
}

func (r *rowSet) Close() error {
	return nil
}

func (r *rowSet) Next(dest []driver.Value) error {
	if r.i >= len(r.rows) {
		return io.EOF
	}
	copy(dest, r.rows[r.i])
	r.i++
	return nil
}

type result struct {
	last, n int64
}

func (r result) LastInsertId() (int64, error) {
	return r.last, nil
}

func (r result) RowsAffected() (int64, error) {
	return r.n, nil
}

func namedValues(args []driver.NamedValue) []driver.Value {
	vals := make([]driver.Value, len(args))
	for i, a := range args {
		vals[i] = a.Value
	}
	return vals
}
