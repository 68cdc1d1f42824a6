package auth

import (
	"errors"
	"strings"
	"testing"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword() error: %v", err)
	}
	if !strings.HasPrefix(hash, "$2") {
		t.Errorf("hash = %q, want a bcrypt hash", hash)
	}
	if hash == "correct horse battery staple" {
		t.Error("hash must not equal the plaintext")
	}
}

func TestHashPassword_TooShort(t *testing.T) {
	if _, err := HashPassword("short"); !errors.Is(err, ErrPasswordTooShort) {
		t.Errorf("HashPassword(short) error = %v, want ErrPasswordTooShort", err)
	}
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("hunter22hunter22")
	if err != nil {
		t.Fatalf("HashPassword() error: %v", err)
	}

	if !CheckPassword("hunter22hunter22", hash) {
		t.Error("CheckPassword(correct) = false, want true")
	}
	if CheckPassword("wrong-password", hash) {
		t.Error("CheckPassword(wrong) = true, want false")
	}
	if CheckPassword("hunter22hunter22", "not-a-hash") {
		t.Error("CheckPassword(bad hash) = true, want false")
	}
}
