package project

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestClassify_DriverErrors(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		transient bool
	}{
		{"deadline exceeded", context.DeadlineExceeded, true},
		{"connection failure", &pgconn.PgError{Code: "08006"}, true},
		{"serialization failure", &pgconn.PgError{Code: "40001"}, true},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, true},
		{"unique violation", &pgconn.PgError{Code: "23505"}, false},
		{"check violation", &pgconn.PgError{Code: "23514"}, false},
		{"plain error", errors.New("boom"), false},
		{"not found sentinel", ErrNotFound, false},
		{"conflict sentinel", ErrConflict, false},
	}
	for _, tc := range cases {
		got := errors.Is(classify(tc.err), ErrTransient)
		if got != tc.transient {
			t.Errorf("%s: transient = %v, want %v", tc.name, got, tc.transient)
		}
	}
}

func TestClassify_PreservesSentinels(t *testing.T) {
	if classify(nil) != nil {
		t.Fatal("classify(nil) must be nil")
	}
	if !errors.Is(classify(ErrConflict), ErrConflict) {
		t.Fatal("conflict must pass through classify unchanged")
	}
}
