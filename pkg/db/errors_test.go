package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func TestIsUniqueViolation(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		constraint string
		want       bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "postgres message", err: errors.New(`ERROR: duplicate key value violates unique constraint "idx_products_slug"`), want: true},
		{name: "postgres code", err: fmt.Errorf("create: %w", &pgconn.PgError{Code: "23505", ConstraintName: "idx_products_slug", Message: "idx_products_slug"}), constraint: "idx_products_slug", want: true},
		{name: "sqlite", err: errors.New("UNIQUE constraint failed: products.slug"), constraint: "slug", want: true},
		{name: "other constraint", err: errors.New("UNIQUE constraint failed: products.slug"), constraint: "number", want: false},
		{name: "gorm sentinel", err: gorm.ErrDuplicatedKey, want: true},
		{name: "unrelated", err: errors.New("connection refused"), want: false},
	}
	for _, tc := range cases {
		if got := IsUniqueViolation(tc.err, tc.constraint); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestIsNotFound(t *testing.T) {
	if !IsNotFound(fmt.Errorf("load: %w", gorm.ErrRecordNotFound)) {
		t.Fatal("expected wrapped not found to match")
	}
	if IsNotFound(errors.New("boom")) {
		t.Fatal("unexpected match")
	}
}
