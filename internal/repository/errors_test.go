package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func TestTranslateNotFound(t *testing.T) {
	if err := translateNotFound(gorm.ErrRecordNotFound); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	original := errors.New("connection refused")
	if err := translateNotFound(original); !errors.Is(err, original) {
		t.Fatalf("unrelated errors must pass through, got %v", err)
	}

	if err := translateNotFound(nil); err != nil {
		t.Fatalf("nil must pass through, got %v", err)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if !IsUniqueViolation(gorm.ErrDuplicatedKey) {
		t.Fatal("gorm duplicated key should count")
	}
	if !IsUniqueViolation(&pgconn.PgError{Code: "23505"}) {
		t.Fatal("postgres 23505 should count")
	}
	if !IsUniqueViolation(fmt.Errorf("insert failed: %w", &pgconn.PgError{Code: "23505"})) {
		t.Fatal("wrapped postgres 23505 should count")
	}
	if IsUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Fatal("foreign key violation must not count")
	}
	if IsUniqueViolation(errors.New("some other failure")) {
		t.Fatal("arbitrary errors must not count")
	}
	if IsUniqueViolation(nil) {
		t.Fatal("nil must not count")
	}
}
