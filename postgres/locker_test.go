package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sharedcode/dbal"
	"github.com/sharedcode/dbal/mocks"
)

func boolRow(v driver.Value) ([]string, [][]driver.Value, error) {
	return []string{"r"}, [][]driver.Value{{v}}, nil
}

func TestLockBackend_AcquireUsesHashedID(t *testing.T) {
	db, m := mocks.NewDB()
	defer db.Close()
	m.OnQuery = func(query string, args []driver.Value) ([]string, [][]driver.Value, error) {
		if !strings.Contains(query, "pg_try_advisory_lock($1)") {
			t.Fatalf("unexpected query: %s", query)
		}
		if args[0] != dbal.HashLockID("doc_sync") {
			t.Fatalf("advisory id=%v, want %d", args[0], dbal.HashLockID("doc_sync"))
		}
		return boolRow(true)
	}

	b := NewLockBackend(db)
	if err := b.Acquire(context.Background(), "doc_sync", time.Second); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
}

func TestLockBackend_AcquireMemoizesID(t *testing.T) {
	db, m := mocks.NewDB()
	defer db.Close()
	m.OnQuery = func(query string, args []driver.Value) ([]string, [][]driver.Value, error) {
		return boolRow(true)
	}

	b := NewLockBackend(db)
	for i := 0; i < 3; i++ {
		if err := b.Acquire(context.Background(), "doc_sync", time.Second); err != nil {
			t.Fatalf("Acquire %d: %v", i, err)
		}
	}
	stmts := m.Statements()
	if len(stmts) != 3 {
		t.Fatalf("expected 3 statements, got %d", len(stmts))
	}
	for _, s := range stmts {
		if s.Args[0] != dbal.HashLockID("doc_sync") {
			t.Fatalf("advisory id changed between calls: %v", s.Args[0])
		}
	}
}

func TestLockBackend_AcquireUnavailable(t *testing.T) {
	db, m := mocks.NewDB()
	defer db.Close()
	m.OnQuery = func(query string, args []driver.Value) ([]string, [][]driver.Value, error) {
		return boolRow(false)
	}

	b := NewLockBackend(db)
	err := b.Acquire(context.Background(), "doc_sync", time.Second)
	if !dbal.IsErrorCode(err, dbal.LockTimeout) {
		t.Fatalf("expected LockTimeout, got %v", err)
	}
}

func TestLockBackend_AcquireQueryError(t *testing.T) {
	db, m := mocks.NewDB()
	defer db.Close()
	m.OnQuery = func(query string, args []driver.Value) ([]string, [][]driver.Value, error) {
		return nil, nil, errors.New("connection refused")
	}

	b := NewLockBackend(db)
	err := b.Acquire(context.Background(), "doc_sync", time.Second)
	if !dbal.IsErrorCode(err, dbal.LockAcquisitionFailure) {
		t.Fatalf("expected LockAcquisitionFailure, got %v", err)
	}
}

func TestLockBackend_ReleaseSuccess(t *testing.T) {
	db, m := mocks.NewDB()
	defer db.Close()
	m.OnQuery = func(query string, args []driver.Value) ([]string, [][]driver.Value, error) {
		if !strings.Contains(query, "pg_advisory_unlock($1)") {
			t.Fatalf("unexpected query: %s", query)
		}
		return boolRow(true)
	}

	b := NewLockBackend(db)
	if err := b.Release(context.Background(), "doc_sync"); err != nil {
		t.Fatalf("Release: %v", err)
	}
}

func TestLockBackend_ReleaseNotOwned(t *testing.T) {
	db, m := mocks.NewDB()
	defer db.Close()
	m.OnQuery = func(query string, args []driver.Value) ([]string, [][]driver.Value, error) {
		return boolRow(false)
	}

	b := NewLockBackend(db)
	err := b.Release(context.Background(), "doc_sync")
	if !dbal.IsErrorCode(err, dbal.LockNotOwned) {
		t.Fatalf("expected LockNotOwned, got %v", err)
	}
}
