package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestTokenRoundTrip(t *testing.T) {
	s := &service{secret: []byte("test-secret")}
	accountID := uuid.New()

	tok, err := s.issueToken(accountID)
	if err != nil {
		t.Fatal(err)
	}
	got, err := s.ValidateToken(context.Background(), tok)
	if err != nil {
		t.Fatal(err)
	}
	if got != accountID {
		t.Fatalf("subject = %s, want %s", got, accountID)
	}
}

func TestValidateToken_WrongSecret(t *testing.T) {
	issuer := &service{secret: []byte("issuer-secret")}
	verifier := &service{secret: []byte("other-secret")}

	tok, err := issuer.issueToken(uuid.New())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := verifier.ValidateToken(context.Background(), tok); err == nil {
		t.Fatal("token signed with a different secret must be rejected")
	}
}

func TestValidateToken_Garbage(t *testing.T) {
	s := &service{secret: []byte("test-secret")}
	for _, tok := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := s.ValidateToken(context.Background(), tok); err == nil {
			t.Fatalf("expected rejection for %q", tok)
		}
	}
}
