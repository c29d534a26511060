package auth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

var secret = []byte("test-secret")

func TestIssueAndParse(t *testing.T) {
	claims := Claims{
		Sub:  "user_1",
		Name: "Martin Robert",
		Role: "editor",
		JTI:  "jti-1",
		Exp:  time.Now().Add(time.Hour).Unix(),
	}
	token, err := Issue(secret, claims)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	parsed, err := Parse(secret, token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if parsed != claims {
		t.Fatalf("parsed = %+v, want %+v", parsed, claims)
	}
}

func TestParseRejectsTampering(t *testing.T) {
	claims := Claims{Sub: "user_1", JTI: "jti-1", Exp: time.Now().Add(time.Hour).Unix()}
	token, err := Issue(secret, claims)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := Parse([]byte("other-secret"), token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("wrong secret: err = %v", err)
	}
	payload, sig, _ := strings.Cut(token, ".")
	if _, err := Parse(secret, payload+"x."+sig); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("tampered payload: err = %v", err)
	}
	if _, err := Parse(secret, "not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("malformed: err = %v", err)
	}
}

func TestParseRejectsExpired(t *testing.T) {
	claims := Claims{Sub: "user_1", JTI: "jti-1", Exp: time.Now().Add(-time.Minute).Unix()}
	token, err := Issue(secret, claims)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := Parse(secret, token); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("err = %v, want ErrExpiredToken", err)
	}
}

func TestParseRequiresCoreClaims(t *testing.T) {
	token, err := Issue(secret, Claims{Exp: time.Now().Add(time.Hour).Unix()})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := Parse(secret, token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestHashTokenStable(t *testing.T) {
	if HashToken("abc") != HashToken("abc") {
		t.Fatal("hash not deterministic")
	}
	if HashToken("abc") == HashToken("abd") {
		t.Fatal("distinct tokens collide")
	}
}
