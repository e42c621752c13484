package auth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestIssueAndParse(t *testing.T) {
	tokens := NewTokens("0123456789abcdef", time.Hour)
	raw, err := tokens.Issue("user-1", "admin")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := tokens.Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Sub != "user-1" || claims.Role != "admin" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestParseRejects(t *testing.T) {
	tokens := NewTokens("0123456789abcdef", time.Hour)
	good, _ := tokens.Issue("user-1", "user")

	expired := NewTokens("0123456789abcdef", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _ := expired.Issue("user-1", "user")

	other := NewTokens("fedcba9876543210", time.Hour)
	foreign, _ := other.Issue("user-1", "user")

	tests := []struct {
		name string
		raw  string
	}{
		{"garbage", "not-a-token"},
		{"expired", old},
		{"wrong secret", foreign},
		{"truncated", good[:len(good)-4]},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := tokens.Parse(tc.raw); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("err = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatal(err)
	}
	if !CheckPassword(hash, "correct horse") {
		t.Error("matching password rejected")
	}
	if CheckPassword(hash, "wrong horse") {
		t.Error("wrong password accepted")
	}
}

func TestLongPasswordUsesFirst72Bytes(t *testing.T) {
	long := strings.Repeat("a", 100)
	hash, err := HashPassword(long)
	if err != nil {
		t.Fatalf("HashPassword(100 bytes): %v", err)
	}
	if !CheckPassword(hash, long) {
		t.Error("long password rejected")
	}
	if !CheckPassword(hash, long[:72]+"different tail") {
		t.Error("bytes past 72 should be ignored")
	}
	if CheckPassword(hash, strings.Repeat("a", 71)) {
		t.Error("shorter prefix accepted")
	}
}
