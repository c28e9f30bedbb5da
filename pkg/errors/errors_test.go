package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, publicMsg: "authentication required"},
		{code: CodeForbidden, status: http.StatusForbidden, publicMsg: "access denied"},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected"},
		{code: CodeStateConflict, status: http.StatusUnprocessableEntity, publicMsg: "state transition disallowed", detailsOK: true},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true, detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing foo")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing foo" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	detail := map[string]any{"field": "foo"}
	base.WithDetails(detail)
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeConflict, cause, "ctx")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Code() != CodeConflict {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}
}

func TestAsReturnsTypedError(t *testing.T) {
	err := New(CodeForbidden, "no entry")
	if got := As(err); got == nil || got.Code() != CodeForbidden {
		t.Fatalf("As failed to return typed error")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
}

func TestIsCodeWalksWrappedChain(t *testing.T) {
	inner := NotFound("product")
	outer := fmt.Errorf("load product: %w", inner)

	if !IsCode(outer, CodeNotFound) {
		t.Fatalf("expected NOT_FOUND to be found through wrapping")
	}
	if IsCode(outer, CodeConflict) {
		t.Fatalf("unexpected CONFLICT match")
	}
	if IsCode(nil, CodeNotFound) {
		t.Fatalf("nil error must not match")
	}
	if inner.Message() != "product not found" {
		t.Fatalf("unexpected message %q", inner.Message())
	}
}

func TestDumpCollectsChain(t *testing.T) {
	err := Wrap(CodeDependency, stdErrors.New("connection refused"), "db: insert order")
	dump := Dump(err)
	if dump.Code != CodeDependency {
		t.Fatalf("expected dependency code, got %s", dump.Code)
	}
	if len(dump.Chain) != 2 {
		t.Fatalf("expected two chain entries, got %v", dump.Chain)
	}
	if dump.PGCode != "" {
		t.Fatalf("expected no pg code for plain errors, got %q", dump.PGCode)
	}
}

func TestErrorStringIncludesCause(t *testing.T) {
	err := Wrap(CodeDependency, stdErrors.New("connection refused"), "save cart")
	if got := err.Error(); got != "DEPENDENCY_ERROR: save cart: connection refused" {
		t.Fatalf("unexpected error string %q", got)
	}
	if got := New(CodeNotFound, "").Error(); got != "NOT_FOUND" {
		t.Fatalf("unexpected bare error string %q", got)
	}
}

func TestStatusOf(t *testing.T) {
	if got := StatusOf(fmt.Errorf("wrapped: %w", New(CodeStateConflict, "order is shipped"))); got != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", got)
	}
	if got := StatusOf(stdErrors.New("plain")); got != http.StatusInternalServerError {
		t.Fatalf("expected 500 for untyped errors, got %d", got)
	}
}

func TestDumpFieldsIncludePostgresDiagnostics(t *testing.T) {
	err := Wrap(CodeConflict, &pgconn.PgError{Code: "23505", ConstraintName: "idx_products_slug", TableName: "products"}, "create product")
	fields := Dump(err).Fields()
	if fields["pg_code"] != "23505" || fields["pg_constraint"] != "idx_products_slug" || fields["pg_table"] != "products" {
		t.Fatalf("unexpected pg fields %v", fields)
	}
	if _, ok := fields["pg_column"]; ok {
		t.Fatalf("empty pg fields should be omitted")
	}

	plain := Dump(stdErrors.New("boom")).Fields()
	if _, ok := plain["pg_code"]; ok {
		t.Fatalf("plain errors should carry no pg fields")
	}
}
