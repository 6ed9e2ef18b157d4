package mysql

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

func lockRow(v driver.Value) ([]string, [][]driver.Value, error) {
	return []string{"r"}, [][]driver.Value{{v}}, nil
}

func TestLockBackend_AcquireSuccess(t *testing.T) {
	db, m := mocks.NewDB()
	defer db.Close()
	m.OnQuery = func(query string, args []driver.Value) ([]string, [][]driver.Value, error) {
		if !strings.Contains(query, "GET_LOCK(?, ?)") {
			t.Fatalf("unexpected query: %s", query)
		}
		if args[0] != "doc_sync" || args[1] != int64(10) {
			t.Fatalf("unexpected args: %v", args)
		}
		return lockRow(int64(1))
	}

	b := NewLockBackend(db)
	if err := b.Acquire(context.Background(), "doc_sync", 10*time.Second); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
}

func TestLockBackend_AcquireTimeoutRoundsUpToSeconds(t *testing.T) {
	db, m := mocks.NewDB()
	defer db.Close()
	m.OnQuery = func(query string, args []driver.Value) ([]string, [][]driver.Value, error) {
		return lockRow(int64(1))
	}

	b := NewLockBackend(db)
	if err := b.Acquire(context.Background(), "doc_sync", 1500*time.Millisecond); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if got := m.LastStatement().Args[1]; got != int64(2) {
		t.Fatalf("timeout arg=%v, want 2", got)
	}
}

func TestLockBackend_AcquireZeroMeansTimeout(t *testing.T) {
	db, m := mocks.NewDB()
	defer db.Close()
	m.OnQuery = func(query string, args []driver.Value) ([]string, [][]driver.Value, error) {
		return lockRow(int64(0))
	}

	b := NewLockBackend(db)
	err := b.Acquire(context.Background(), "doc_sync", time.Second)
	if !dbal.IsErrorCode(err, dbal.LockTimeout) {
		t.Fatalf("expected LockTimeout, got %v", err)
	}
}

func TestLockBackend_AcquireNullMeansServerError(t *testing.T) {
	db, m := mocks.NewDB()
	defer db.Close()
	m.OnQuery = func(query string, args []driver.Value) ([]string, [][]driver.Value, error) {
		return lockRow(nil)
	}

	b := NewLockBackend(db)
	err := b.Acquire(context.Background(), "doc_sync", time.Second)
	if !dbal.IsErrorCode(err, dbal.LockAcquisitionFailure) {
		t.Fatalf("expected LockAcquisitionFailure, got %v", err)
	}
}

func TestLockBackend_AcquireQueryErrorWrapped(t *testing.T) {
	db, m := mocks.NewDB()
	defer db.Close()
	boom := errors.New("connection refused")
	m.OnQuery = func(query string, args []driver.Value) ([]string, [][]driver.Value, error) {
		return nil, nil, boom
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
		if !strings.Contains(query, "RELEASE_LOCK(?)") {
			t.Fatalf("unexpected query: %s", query)
		}
		if args[0] != "doc_sync" {
			t.Fatalf("unexpected args: %v", args)
		}
		return lockRow(int64(1))
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
		return lockRow(int64(0))
	}

	b := NewLockBackend(db)
	err := b.Release(context.Background(), "doc_sync")
	if !dbal.IsErrorCode(err, dbal.LockNotOwned) {
		t.Fatalf("expected LockNotOwned, got %v", err)
	}
}

func TestLockBackend_ReleaseNotFound(t *testing.T) {
	db, m := mocks.NewDB()
	defer db.Close()
	m.OnQuery = func(query string, args []driver.Value) ([]string, [][]driver.Value, error) {
		return lockRow(nil)
	}

	b := NewLockBackend(db)
	err := b.Release(context.Background(), "doc_sync")
	if !dbal.IsErrorCode(err, dbal.LockNotFound) {
		t.Fatalf("expected LockNotFound, got %v", err)
	}
}

func TestLockBackend_WithLockManagerRetriesTimeout(t *testing.T) {
	db, m := mocks.NewDB()
	defer db.Close()
	attempts := 0
	m.OnQuery = func(query string, args []driver.Value) ([]string, [][]driver.Value, error) {
		if strings.Contains(query, "GET_LOCK") {
			attempts++
			if attempts < 3 {
				return lockRow(int64(0))
			}
			return lockRow(int64(1))
		}
		return lockRow(int64(1)) // RELEASE_LOCK
	}

	lm := dbal.NewLockManagerWithPolicy(NewLockBackend(db), dbal.RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond})
	err := lm.WithLock(context.Background(), "doc_sync", time.Second, func(ctx context.Context) error {
		return nil
	})
	if err != nil {
		t.Fatalf("WithLock: %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 GET_LOCK attempts, got %d", attempts)
	}
}
