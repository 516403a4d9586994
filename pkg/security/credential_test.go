package security_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/angelmondragon/tillcore-backend/pkg/config"
	"github.com/angelmondragon/tillcore-backend/pkg/security"
)

var fastParams = config.PasswordConfig{
	ArgonMemoryKB:    8192,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

func TestHashAndVerifyCredential(t *testing.T) {
	hash, err := security.HashCredential("till-open-2024", fastParams)
	if err != nil {
		t.Fatalf("HashCredential returned error: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=1$") {
		t.Fatalf("unexpected encoding %q", hash)
	}

	ok, err := security.VerifyCredential("till-open-2024", hash)
	if err != nil || !ok {
		t.Fatalf("expected credential to verify, ok=%v err=%v", ok, err)
	}

	ok, err = security.VerifyCredential("till-open-2025", hash)
	if err != nil {
		t.Fatalf("VerifyCredential returned error for wrong secret: %v", err)
	}
	if ok {
		t.Fatal("VerifyCredential returned true for incorrect secret")
	}
}

func TestHashCredentialRejectsEmpty(t *testing.T) {
	if _, err := security.HashCredential("", fastParams); err == nil {
		t.Fatal("expected error for empty credential")
	}
}

func TestVerifyCredentialBadHash(t *testing.T) {
	for _, encoded := range []string{
		"not-a-hash",
		"$argon2id$v=18$m=8192,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=0,t=1,p=1$c2FsdA$a2V5",
		"$argon2i$v=19$m=8192,t=1,p=1$c2FsdA$a2V5",
	} {
		if _, err := security.VerifyCredential("irrelevant", encoded); !errors.Is(err, security.ErrInvalidHash) {
			t.Fatalf("expected ErrInvalidHash for %q, got %v", encoded, err)
		}
	}
}

func TestValidateCredentialStrength(t *testing.T) {
	cases := []struct {
		secret string
		ok     bool
	}{
		{"short1", false},
		{"lettersonly", false},
		{"1234567890", false},
		{"counter42x", true},
	}
	for _, tc := range cases {
		err := security.ValidateCredentialStrength(tc.secret, 8)
		if tc.ok && err != nil {
			t.Fatalf("expected %q to pass, got %v", tc.secret, err)
		}
		if !tc.ok && !errors.Is(err, security.ErrWeakCredential) {
			t.Fatalf("expected %q to fail with ErrWeakCredential, got %v", tc.secret, err)
		}
	}
}

func TestGenerateTempCredential(t *testing.T) {
	cred, err := security.GenerateTempCredential(12)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(cred) != 12 {
		t.Fatalf("expected 12 chars, got %d", len(cred))
	}
	if strings.ContainsAny(cred, "0O1lI") {
		t.Fatalf("temp credential contains ambiguous glyphs: %q", cred)
	}
	if _, err := security.GenerateTempCredential(0); err == nil {
		t.Fatal("expected error for zero length")
	}
}
