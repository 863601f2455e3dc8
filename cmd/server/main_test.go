package main

import (
	"testing"

	"brewtab/internal/config"
)

func TestValidateSecurityConfigRejectsWeakValues(t *testing.T) {
	if err := validateSecurityConfig(config.Config{AuthSecret: "short", AdminPassword: "admin-pass-1"}); err == nil {
		t.Fatalf("expected short AUTH_SECRET to be rejected")
	}
	if err := validateSecurityConfig(config.Config{AuthSecret: "0123456789abcdef0123456789abcdef", AdminPassword: ""}); err == nil {
		t.Fatalf("expected missing ADMIN_PASSWORD to be rejected")
	}
	if err := validateSecurityConfig(config.Config{AuthSecret: "0123456789abcdef0123456789abcdef", AdminPassword: "short"}); err == nil {
		t.Fatalf("expected short ADMIN_PASSWORD to be rejected")
	}
}

func TestValidateSecurityConfigAcceptsStrongValues(t *testing.T) {
	err := validateSecurityConfig(config.Config{AuthSecret: "0123456789abcdef0123456789abcdef", AdminPassword: "admin-pass-1"})
	if err != nil {
		t.Fatalf("expected strong config to pass, got %v", err)
	}
}
