package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/sharedcode/dbal"
	"github.com/sharedcode/dbal/database"
	"github.com/sharedcode/dbal/mocks"
	"github.com/sharedcode/dbal/mysql"
)

type widget struct {
	ID         string
	Name       string
	Status     string
	Size       int64
	Meta       map[string]any
	CreateTime int64
	UpdateTime int64
}

func scanWidget(rows *sql.Rows) (widget, error) {
	var w widget
	var name, status, meta sql.NullString
	var size sql.NullInt64
	var createDate, updateDate sql.NullTime
	if err := rows.Scan(&w.ID, &name, &status, &size, &meta, &w.CreateTime, &createDate, &w.UpdateTime, &updateDate); err != nil {
		return widget{}, err
	}
	w.Name = name.String
	w.Status = status.String
	w.Size = size.Int64
	if meta.Valid && meta.String != "" {
		if err := json.Unmarshal([]byte(meta.String), &w.Meta); err != nil {
			return widget{}, err
		}
	}
	return w, nil
}

func newTestStore(t *testing.T) (*Store[widget], *mocks.DB) {
	t.Helper()
	sqlDB, mock := mocks.NewDB()
	t.Cleanup(func() { sqlDB.Close() })
	db := database.New(sqlDB, mysql.Dialect{}, nil, dbal.DatabaseOptions{Name: "testdb"})
	return New(db, testSchema(), scanWidget), mock
}

func widgetRow(id string) []driver.Value {
	at := time.UnixMilli(1700000000000)
	return []driver.Value{id, "alpha", "1", int64(5), `{"k":"v"}`, int64(1700000000000), at, int64(1700000000000), at}
}

func widgetColumns() []string {
	return testSchema().ColumnNames()
}

func TestQuery_RendersSelect(t *testing.T) {
	s, mock := newTestStore(t)
	mock.OnQuery = func(query string, args []driver.Value) ([]string, [][]driver.Value, error) {
		return widgetColumns(), [][]driver.Value{widgetRow("w1")}, nil
	}

	got, err := s.Query(context.Background(), dbal.Criteria{"name": "alpha"}, &Order{Descending: true})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != "w1" || got[0].Meta["k"] != "v" {
		t.Fatalf("unexpected result: %+v", got)
	}

	st := mock.LastStatement()
	want := "SELECT id, name, status, size, meta, create_time, create_date, update_time, update_date" +
		" FROM widget WHERE name = ? ORDER BY create_time DESC"
	if st.Query != want {
		t.Errorf("query = %q, want %q", st.Query, want)
	}
	if wantArgs := []driver.Value{"alpha"}; !reflect.DeepEqual(st.Args, wantArgs) {
		t.Errorf("args = %v, want %v", st.Args, wantArgs)
	}
}

func TestQuery_NoOrderWhenNotRequested(t *testing.T) {
	s, mock := newTestStore(t)
	mock.OnQuery = func(query string, args []driver.Value) ([]string, [][]driver.Value, error) {
		return widgetColumns(), nil, nil
	}
	if _, err := s.Query(context.Background(), dbal.Criteria{"id": "w1"}, nil); err != nil {
		t.Fatal(err)
	}
	if q := mock.LastStatement().Query; q != "SELECT id, name, status, size, meta, create_time, create_date, update_time, update_date FROM widget WHERE id = ?" {
		t.Errorf("unexpected query %q", q)
	}
}

func TestQuery_ZeroPredicatesNeverHitsDatabase(t *testing.T) {
	s, mock := newTestStore(t)
	for name, criteria := range map[string]dbal.Criteria{
		"empty criteria":   {},
		"unknown field":    {"bogus": 1},
		"nil value":        {"name": nil},
		"empty membership": {"status": []string{}},
	} {
		got, err := s.Query(context.Background(), criteria, nil)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if got != nil {
			t.Errorf("%s: want no rows, got %v", name, got)
		}
	}
	if n := len(mock.Statements()); n != 0 {
		t.Errorf("database was queried %d times", n)
	}
}

func TestQuery_BadDateStringPropagates(t *testing.T) {
	s, mock := newTestStore(t)
	_, err := s.Query(context.Background(), dbal.Criteria{"create_time": []any{"nope", nil}}, nil)
	if !dbal.IsErrorCode(err, dbal.InvalidFilterCriteria) {
		t.Fatalf("want InvalidFilterCriteria, got %v", err)
	}
	if len(mock.Statements()) != 0 {
		t.Error("invalid criteria must not reach the database")
	}
}

func TestCount(t *testing.T) {
	s, mock := newTestStore(t)
	mock.OnQuery = func(query string, args []driver.Value) ([]string, [][]driver.Value, error) {
		return []string{"COUNT(*)"}, [][]driver.Value{{int64(3)}}, nil
	}
	n, err := s.Count(context.Background(), dbal.Criteria{"status": []string{"1", "2"}})
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 3 {
		t.Errorf("Count = %d, want 3", n)
	}
	if q := mock.LastStatement().Query; q != "SELECT COUNT(*) FROM widget WHERE status IN (?, ?)" {
		t.Errorf("unexpected query %q", q)
	}

	n, err = s.Count(context.Background(), dbal.Criteria{"bogus": 1})
	if err != nil || n != 0 {
		t.Errorf("zero-predicate Count = (%d, %v), want (0, nil)", n, err)
	}
}

func TestGet(t *testing.T) {
	s, mock := newTestStore(t)
	mock.OnQuery = func(query string, args []driver.Value) ([]string, [][]driver.Value, error) {
		if args[0] == "w1" {
			return widgetColumns(), [][]driver.Value{widgetRow("w1")}, nil
		}
		return widgetColumns(), nil, nil
	}

	got, ok, err := s.Get(context.Background(), "w1")
	if err != nil || !ok {
		t.Fatalf("Get = (%v, %v), want found", ok, err)
	}
	if got.ID != "w1" || got.Size != 5 {
		t.Errorf("unexpected entity: %+v", got)
	}
	if q := mock.LastStatement().Query; q != "SELECT id, name, status, size, meta, create_time, create_date, update_time, update_date FROM widget WHERE id = ?" {
		t.Errorf("unexpected query %q", q)
	}

	_, ok, err = s.Get(context.Background(), "missing")
	if err != nil || ok {
		t.Errorf("Get missing = (%v, %v), want not found", ok, err)
	}

	if _, _, err := s.Get(context.Background(), "a", "b"); err == nil {
		t.Error("wrong key arity should be rejected")
	}
}

func TestInsert_StampsDefaultsAndEncodesJSON(t *testing.T) {
	at := time.Date(2024, 3, 1, 10, 30, 0, 0, time.Local)
	withFixedClock(t, at)

	s, mock := newTestStore(t)
	mock.OnExec = func(query string, args []driver.Value) (int64, int64, error) {
		return 0, 1, nil
	}

	err := s.Insert(context.Background(), dbal.Values{
		"id":   "w1",
		"name": "alpha",
		"size": int64(5),
		"meta": map[string]any{"k": "v"},
	})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	st := mock.LastStatement()
	want := "INSERT INTO widget (id, name, status, size, meta, create_time, create_date, update_time, update_date)" +
		" VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)"
	if st.Query != want {
		t.Fatalf("query = %q, want %q", st.Query, want)
	}
	if st.Args[2] != "1" {
		t.Errorf("status default = %v, want \"1\"", st.Args[2])
	}
	if st.Args[4] != `{"k":"v"}` {
		t.Errorf("meta = %v, want encoded JSON", st.Args[4])
	}
	if st.Args[5] != at.UnixMilli() {
		t.Errorf("create_time = %v, want %d", st.Args[5], at.UnixMilli())
	}
	if date, ok := st.Args[6].(time.Time); !ok || !date.Equal(at) {
		t.Errorf("create_date = %v, want %v", st.Args[6], at)
	}
}

func TestInsert_UnknownFieldRejected(t *testing.T) {
	s, mock := newTestStore(t)
	if err := s.Insert(context.Background(), dbal.Values{"nope": 1}); err == nil {
		t.Fatal("unknown field should be rejected")
	}
	if len(mock.Statements()) != 0 {
		t.Error("rejected insert must not reach the database")
	}
}

func TestUpdate_RefreshesUpdateTime(t *testing.T) {
	at := time.Date(2024, 3, 1, 10, 30, 0, 0, time.Local)
	withFixedClock(t, at)

	s, mock := newTestStore(t)
	mock.OnExec = func(query string, args []driver.Value) (int64, int64, error) {
		return 0, 2, nil
	}

	n, err := s.Update(context.Background(), dbal.Criteria{"id": "w1"}, dbal.Values{"name": "beta"})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if n != 2 {
		t.Errorf("affected = %d, want 2", n)
	}

	st := mock.LastStatement()
	want := "UPDATE widget SET name = ?, update_time = ?, update_date = ? WHERE id = ?"
	if st.Query != want {
		t.Fatalf("query = %q, want %q", st.Query, want)
	}
	if st.Args[0] != "beta" || st.Args[1] != at.UnixMilli() || st.Args[3] != "w1" {
		t.Errorf("unexpected args: %v", st.Args)
	}
}

func TestUpdate_NilValueSetsNull(t *testing.T) {
	withFixedClock(t, time.Date(2024, 3, 1, 10, 30, 0, 0, time.Local))

	s, mock := newTestStore(t)
	mock.OnExec = func(query string, args []driver.Value) (int64, int64, error) {
		return 0, 1, nil
	}
	if _, err := s.Update(context.Background(), dbal.Criteria{"id": "w1"}, dbal.Values{"name": nil}); err != nil {
		t.Fatal(err)
	}
	st := mock.LastStatement()
	if st.Query != "UPDATE widget SET name = ?, update_time = ?, update_date = ? WHERE id = ?" {
		t.Fatalf("unexpected query %q", st.Query)
	}
	if st.Args[0] != nil {
		t.Errorf("name arg = %v, want NULL", st.Args[0])
	}
}

func TestUpdate_ZeroPredicatesUpdatesNothing(t *testing.T) {
	s, mock := newTestStore(t)
	n, err := s.Update(context.Background(), dbal.Criteria{}, dbal.Values{"name": "beta"})
	if err != nil || n != 0 {
		t.Errorf("Update = (%d, %v), want (0, nil)", n, err)
	}
	if len(mock.Statements()) != 0 {
		t.Error("unfiltered update must never reach the database")
	}
}

func TestDelete(t *testing.T) {
	s, mock := newTestStore(t)
	mock.OnExec = func(query string, args []driver.Value) (int64, int64, error) {
		return 0, 1, nil
	}
	n, err := s.Delete(context.Background(), dbal.Criteria{"id": "w1"})
	if err != nil || n != 1 {
		t.Fatalf("Delete = (%d, %v), want (1, nil)", n, err)
	}
	if q := mock.LastStatement().Query; q != "DELETE FROM widget WHERE id = ?" {
		t.Errorf("unexpected query %q", q)
	}

	n, err = s.Delete(context.Background(), dbal.Criteria{"status": []string{}})
	if err != nil || n != 0 {
		t.Errorf("unmatchable Delete = (%d, %v), want (0, nil)", n, err)
	}
}
