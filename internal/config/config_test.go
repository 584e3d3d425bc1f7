package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_MODE", "dev")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !cfg.IsDev() || cfg.IsProd() {
		t.Fatalf("expected dev mode, got %s", cfg.AppMode)
	}
	if cfg.Port != "3000" {
		t.Fatalf("expected default port 3000, got %s", cfg.Port)
	}
	if cfg.Otp.ValiditySeconds != 180 {
		t.Fatalf("expected default OTP validity 180s, got %d", cfg.Otp.ValiditySeconds)
	}
	if cfg.JWT.AccessTokenMins != 15 || cfg.JWT.RefreshTokenDays != 7 {
		t.Fatalf("expected default token lifetimes 15m/7d, got %dm/%dd",
			cfg.JWT.AccessTokenMins, cfg.JWT.RefreshTokenDays)
	}
	if cfg.Cookie.Secure {
		t.Fatalf("expected insecure cookies in dev mode by default")
	}
	if cfg.Cookie.SameSite != "Lax" {
		t.Fatalf("expected SameSite Lax, got %s", cfg.Cookie.SameSite)
	}
}

func TestLoadRejectsUnknownMode(t *testing.T) {
	t.Setenv("APP_MODE", "staging")

	if _, err := Load(); err == nil {
		t.Fatalf("expected an error for unknown APP_MODE")
	}
}

func TestModePrefixSelectsEnvVars(t *testing.T) {
	t.Setenv("APP_MODE", "prod")
	t.Setenv("PROD_DB_HOST", "db.internal")
	t.Setenv("DEV_DB_HOST", "localhost")
	t.Setenv("PROD_JWT_SECRET", "prod-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Database.Host != "db.internal" {
		t.Fatalf("expected PROD_ prefixed host, got %s", cfg.Database.Host)
	}
	if cfg.JWT.Secret != "prod-secret" {
		t.Fatalf("expected PROD_ prefixed secret, got %s", cfg.JWT.Secret)
	}
	if !cfg.Cookie.Secure {
		t.Fatalf("expected secure cookies in prod by default")
	}
}

func TestGetAllowedOrigins(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "")

	dev := &Config{AppMode: "dev"}
	if got := dev.GetAllowedOrigins(); got != "*" {
		t.Fatalf("expected * in dev, got %s", got)
	}

	prod := &Config{AppMode: "prod"}
	if got := prod.GetAllowedOrigins(); got == "*" {
		t.Fatalf("expected prod to never allow all origins")
	}

	t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")
	if got := prod.GetAllowedOrigins(); got != "https://a.example,https://b.example" {
		t.Fatalf("expected configured origins, got %s", got)
	}
}
