package auth

import (
	"testing"
	"time"
)

func TestNewRequiresSecret(t *testing.T) {
	if _, err := New("", 0); err == nil {
		t.Error("expected error for empty secret")
	}
}

func TestGenerateAndValidateDeviceToken(t *testing.T) {
	a, err := New("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	token, expiresAt, err := a.GenerateDeviceToken("dev-42")
	if err != nil {
		t.Fatalf("GenerateDeviceToken: %v", err)
	}
	if time.Until(expiresAt) > time.Hour || time.Until(expiresAt) < 50*time.Minute {
		t.Errorf("unexpected expiry %v", expiresAt)
	}

	claims, err := a.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.DeviceID != "dev-42" || claims.Role != "device" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	a1, _ := New("secret-one", time.Hour)
	a2, _ := New("secret-two", time.Hour)

	token, _, err := a1.GenerateDeviceToken("dev-42")
	if err != nil {
		t.Fatalf("GenerateDeviceToken: %v", err)
	}
	if _, err := a2.ValidateToken(token); err == nil {
		t.Error("expected validation failure with different secret")
	}
}

func TestValidateRejectsGarbage(t *testing.T) {
	a, _ := New("test-secret", time.Hour)
	if _, err := a.ValidateToken("not-a-token"); err == nil {
		t.Error("expected error for malformed token")
	}
}
