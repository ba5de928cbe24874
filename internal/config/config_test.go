package config

import (
	"crypto/tls"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Database.Path != "reports.db" {
		t.Errorf("Expected default database path, got %q", cfg.Database.Path)
	}
	if cfg.Assist.Embedder != "hash" {
		t.Errorf("Expected default embedder hash, got %q", cfg.Assist.Embedder)
	}
	if cfg.Assist.SimilarityThreshold != 0.5 || cfg.Assist.UserSimilarityThreshold != 0.3 {
		t.Errorf("Unexpected default thresholds: %v / %v",
			cfg.Assist.SimilarityThreshold, cfg.Assist.UserSimilarityThreshold)
	}
	if cfg.Security.ErrorMode != "detailed" {
		t.Errorf("Expected detailed error mode by default, got %q", cfg.Security.ErrorMode)
	}
	if !cfg.IsDevelopment() {
		t.Errorf("Expected development environment by default, got %q", cfg.App.Environment)
	}
}

func validConfig() *Config {
	return &Config{
		Assist: AssistConfig{
			Embedder:                "hash",
			MaxResults:              5,
			SimilarityThreshold:     0.5,
			UserSimilarityThreshold: 0.3,
			FallbackThreshold:       0.1,
		},
		Security: SecurityConfig{
			ErrorMode:      "detailed",
			RateLimitRPS:   10,
			RateLimitBurst: 20,
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"unknown embedder", func(c *Config) { c.Assist.Embedder = "onnx" }, true},
		{"threshold above one", func(c *Config) { c.Assist.SimilarityThreshold = 1.5 }, true},
		{"negative user threshold", func(c *Config) { c.Assist.UserSimilarityThreshold = -0.1 }, true},
		{"zero max results", func(c *Config) { c.Assist.MaxResults = 0 }, true},
		{"zero rate limit", func(c *Config) { c.Security.RateLimitRPS = 0 }, true},
		{"tls without cert", func(c *Config) { c.Server.TLS.Enabled = true }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := validate(cfg)
			if tt.wantErr && err == nil {
				t.Error("Expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Unexpected validation error: %v", err)
			}
		})
	}
}

func TestGetTLSConfig(t *testing.T) {
	cfg := validConfig()
	if got := cfg.GetTLSConfig(); got != nil {
		t.Errorf("Expected nil TLS config when disabled, got %+v", got)
	}

	cfg.Server.TLS.Enabled = true
	cfg.Server.TLS.MinTLS = "1.2"
	tlsConfig := cfg.GetTLSConfig()
	if tlsConfig == nil {
		t.Fatal("Expected TLS config when enabled")
	}
	if tlsConfig.MinVersion != tls.VersionTLS12 {
		t.Errorf("Expected TLS 1.2 minimum, got %x", tlsConfig.MinVersion)
	}
}
