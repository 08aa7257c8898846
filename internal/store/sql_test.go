package store

import (
	"context"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

func newMockPostgres(t *testing.T) (*SQLStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPostgresStore(sqlx.NewDb(db, "postgres"), "session-1"), mock
}

func TestPostgresGet_ReturnsValue(t *testing.T) {
	s, mock := newMockPostgres(t)

	rows := sqlmock.NewRows([]string{"value"}).AddRow([]byte(`{"currentStep":2}`))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT value FROM td_wizard.session_kv WHERE scope = $1 AND key = $2`)).
		WithArgs("session-1", "tdWizardState:v1").
		WillReturnRows(rows)

	got, err := s.Get(context.Background(), "tdWizardState:v1")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if string(got) != `{"currentStep":2}` {
		t.Errorf("unexpected value: %s", got)
	}
	if mockErr := mock.ExpectationsWereMet(); mockErr != nil {
		t.Fatalf("unmet sqlmock expectations: %v", mockErr)
	}
}

func TestPostgresGet_MissingKey(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT value FROM td_wizard.session_kv`)).
		WithArgs("session-1", "absent").
		WillReturnRows(sqlmock.NewRows([]string{"value"}))

	_, err := s.Get(context.Background(), "absent")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgresSet_Upserts(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO td_wizard.session_kv (scope, key, value, updated_at)`)).
		WithArgs("session-1", "tdWizardState:v1", []byte(`{}`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.Set(context.Background(), "tdWizardState:v1", []byte(`{}`)); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if mockErr := mock.ExpectationsWereMet(); mockErr != nil {
		t.Fatalf("unmet sqlmock expectations: %v", mockErr)
	}
}

func TestPostgresDelete(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM td_wizard.session_kv WHERE scope = $1 AND key = $2`)).
		WithArgs("session-1", "tdWizardState:v1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.Delete(context.Background(), "tdWizardState:v1"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if mockErr := mock.ExpectationsWereMet(); mockErr != nil {
		t.Fatalf("unmet sqlmock expectations: %v", mockErr)
	}
}

func TestPostgres_UndefinedTableMapsToSchemaMissing(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM td_wizard.session_kv`)).
		WillReturnError(&pq.Error{Code: "42P01", Message: `relation "td_wizard.session_kv" does not exist`})

	err := s.Delete(context.Background(), "k")
	if !errors.Is(err, ErrSchemaMissing) {
		t.Fatalf("expected ErrSchemaMissing, got %v", err)
	}
}

func TestSQLiteStore_RoundTripAndScopes(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(ctx, ":memory:", "session-a")
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer s.Close()

	if err := s.Set(ctx, "k", []byte("one")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set(ctx, "k", []byte("two")); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	got, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "two" {
		t.Errorf("expected overwritten value, got %q", got)
	}

	other := s.WithScope("session-b")
	if _, err := other.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Errorf("scopes must not share keys, got %v", err)
	}

	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}
