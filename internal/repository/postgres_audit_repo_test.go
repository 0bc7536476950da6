package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/hitoshi/linkgate/internal/model"
)

func TestPostgresAuditRepo_Append(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Now()
	entry := &model.AuditEntry{
		ID:          "audit-1",
		AccountID:   "acc-1",
		Action:      model.AuditLogin,
		Description: "User logged in",
		CreatedAt:   now,
	}

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO audit_logs`)).
		WithArgs("audit-1", "acc-1", "LOGIN", "User logged in", now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := NewPostgresAuditRepo(db).Append(context.Background(), entry); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPostgresAuditRepo_Append_WrapsError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	dbErr := errors.New("connection reset")
	mock.ExpectExec(`INSERT INTO audit_logs`).WillReturnError(dbErr)

	err = NewPostgresAuditRepo(db).Append(context.Background(), &model.AuditEntry{
		ID:     "audit-2",
		Action: model.AuditShow,
	})
	if !errors.Is(err, dbErr) {
		t.Errorf("expected wrapped db error, got %v", err)
	}
}
