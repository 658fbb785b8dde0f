package services

import (
	"testing"

	"github.com/google/uuid"

	"chatbot-backend/internal/models"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		password string
		ok       bool
	}{
		{"abc1", false},
		{"longenough", false},
		{"longenough1", true},
		{"12345678", true},
	}
	for _, tc := range tests {
		err := validatePassword(tc.password)
		if (err == nil) != tc.ok {
			t.Errorf("validatePassword(%q) = %v, want ok=%v", tc.password, err, tc.ok)
		}
	}
}

func TestValidateRegistration(t *testing.T) {
	fields := validateRegistration(models.RegisterRequest{
		Username: "",
		Email:    "not-an-email",
		Password: "short",
	})
	for _, key := range []string{"username", "email", "password"} {
		if _, ok := fields[key]; !ok {
			t.Errorf("expected error for %s, got %v", key, fields)
		}
	}

	fields = validateRegistration(models.RegisterRequest{
		Username: "ana",
		Email:    "ana@example.com",
		Password: "correcthorse9",
	})
	if len(fields) != 0 {
		t.Errorf("valid request rejected: %v", fields)
	}
}

func TestUserChannel(t *testing.T) {
	id := uuid.MustParse("7f9c1e2a-0000-4000-8000-000000000001")
	if got := UserChannel(id); got != "user_updates:7f9c1e2a-0000-4000-8000-000000000001" {
		t.Errorf("UserChannel = %q", got)
	}
}
