package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		if key, _, _ := strings.Cut(kv, "="); strings.HasPrefix(key, "PORTAL_") {
			t.Setenv(key, "")
		}
	}
}

func TestLoadRequiresSecret(t *testing.T) {
	clearEnv(t)
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "PORTAL_AUTH_SECRET") {
		t.Fatalf("expected missing secret error, got %v", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORTAL_AUTH_SECRET", "s3cret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":8000" || cfg.AuthAlgorithm != "HS256" || cfg.TokenTTL != 90*time.Minute {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.RenderTimeout != 60*time.Second || cfg.RenderCompiler != "pdflatex" {
		t.Fatalf("unexpected render defaults: %s %s", cfg.RenderCompiler, cfg.RenderTimeout)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORTAL_AUTH_SECRET", "s3cret")
	t.Setenv("PORTAL_AUTH_ALGORITHM", "HS512")
	t.Setenv("PORTAL_ACCESS_TOKEN_EXPIRE_MINUTES", "15")
	t.Setenv("PORTAL_RENDER_TIMEOUT", "5s")
	t.Setenv("PORTAL_RENDER_WORKERS", "4")
	t.Setenv("PORTAL_CORS_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("PORTAL_MAX_UPLOAD_BYTES", "1024")
	t.Setenv("PORTAL_TRUSTED_PROXIES", "10.0.0.0/8, 192.168.1.1")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AuthAlgorithm != "HS512" || cfg.TokenTTL != 15*time.Minute {
		t.Fatalf("auth overrides ignored: %s %s", cfg.AuthAlgorithm, cfg.TokenTTL)
	}
	if cfg.RenderTimeout != 5*time.Second || cfg.RenderWorkers != 4 || cfg.MaxUploadBytes != 1024 {
		t.Fatalf("render overrides ignored: %+v", cfg)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected origins %v", cfg.CORSOrigins)
	}
	if len(cfg.TrustedProxies) != 2 || cfg.TrustedProxies[1] != "192.168.1.1" {
		t.Fatalf("unexpected trusted proxies %v", cfg.TrustedProxies)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "portal.yaml")
	body := `
http_addr: ":9090"
auth_secret: from-file
token_ttl: 30m
render_workers: 3
cors_origins: ["https://portal.example"]
log_format: text
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("PORTAL_CONFIG_FILE", path)
	t.Setenv("PORTAL_HTTP_ADDR", ":7070")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":7070" {
		t.Fatalf("env must win over file, got %s", cfg.HTTPAddr)
	}
	if cfg.AuthSecret != "from-file" || cfg.TokenTTL != 30*time.Minute || cfg.RenderWorkers != 3 || cfg.LogFormat != "text" {
		t.Fatalf("file values ignored: %+v", cfg)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "https://portal.example" {
		t.Fatalf("unexpected origins %v", cfg.CORSOrigins)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"PORTAL_AUTH_ALGORITHM":              "RS256",
		"PORTAL_RENDER_WORKERS":              "0",
		"PORTAL_ACCESS_TOKEN_EXPIRE_MINUTES": "soon",
		"PORTAL_RENDER_TIMEOUT":              "-1s",
		"PORTAL_TRUSTED_PROXIES":             "10.0.0.0/8,proxy.local",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("PORTAL_AUTH_SECRET", "s3cret")
			t.Setenv(key, value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%s", key, value)
			}
		})
	}
}
