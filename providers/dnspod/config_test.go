package dnspod

import (
	"errors"
	"strings"
	"testing"
	"time"

	"gitlab.bluewillows.net/root/ddns6/pkg/httputil"
	"gitlab.bluewillows.net/root/ddns6/pkg/provider"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing secret id", mutate: func(c *Config) { c.SecretID = "" }, wantErr: "SECRET_ID: required but not set"},
		{name: "missing secret key", mutate: func(c *Config) { c.SecretKey = "" }, wantErr: "SECRET_KEY: required but not set"},
		{name: "missing domain", mutate: func(c *Config) { c.Domain = "" }, wantErr: "DOMAIN: required but not set"},
		{name: "invalid domain", mutate: func(c *Config) { c.Domain = "not a domain" }, wantErr: `DOMAIN="not a domain": invalid domain`},
		{name: "host is url", mutate: func(c *Config) { c.Host = "https://dnspod.tencentcloudapi.com/" }, wantErr: "bare host name"},
		{name: "endpoint", mutate: func(c *Config) { c.Endpoint = "http://127.0.0.1:8080" }},
		{name: "endpoint without scheme", mutate: func(c *Config) { c.Endpoint = "127.0.0.1:8080" }, wantErr: "ENDPOINT"},
		{name: "endpoint with other scheme", mutate: func(c *Config) { c.Endpoint = "ftp://example.com" }, wantErr: "ENDPOINT"},
		{name: "no timeout", mutate: func(c *Config) { c.Timeout = httputil.NoTimeout }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestConfig_Validate_CollectsAllErrors(t *testing.T) {
	err := (&Config{}).Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"SECRET_ID", "SECRET_KEY", "DOMAIN"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %s in %v", want, err)
		}
	}

	var cfgErr *provider.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *provider.ConfigError in %v", err)
	}
	if cfgErr.Field != "SECRET_ID" {
		t.Errorf("first error field = %s, want SECRET_ID", cfgErr.Field)
	}
}

func TestLoadConfigFromMap_Defaults(t *testing.T) {
	cfg, err := LoadConfigFromMap(map[string]string{
		"SECRET_ID":  "id",
		"SECRET_KEY": "key",
		"DOMAIN":     "example.com",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Host != DefaultHost {
		t.Errorf("expected default host, got %s", cfg.Host)
	}
	if cfg.Version != DefaultVersion {
		t.Errorf("expected default version, got %s", cfg.Version)
	}
	if cfg.Region != "" {
		t.Errorf("expected empty region, got %s", cfg.Region)
	}
	if cfg.Timeout != 0 {
		t.Errorf("expected zero timeout, got %v", cfg.Timeout)
	}
}

func TestLoadConfigFromMap_AllKeys(t *testing.T) {
	cfg, err := LoadConfigFromMap(map[string]string{
		"SECRET_ID":  "id",
		"SECRET_KEY": "key",
		"TOKEN":      "session",
		"DOMAIN":     "example.com",
		"HOST":       "dnspod.intl.tencentcloudapi.com",
		"REGION":     "ap-singapore",
		"VERSION":    "2021-03-23",
		"TIMEOUT":    "10s",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	creds := cfg.Credentials()
	if creds.SecretID != "id" || creds.SecretKey != "key" || creds.Token != "session" {
		t.Errorf("unexpected credentials: %+v", creds)
	}
	if cfg.Host != "dnspod.intl.tencentcloudapi.com" || cfg.Region != "ap-singapore" {
		t.Errorf("unexpected host/region: %s/%s", cfg.Host, cfg.Region)
	}
	if cfg.Timeout != 10*time.Second {
		t.Errorf("expected 10s timeout, got %v", cfg.Timeout)
	}
}

func TestLoadConfigFromMap_InvalidTimeout(t *testing.T) {
	_, err := LoadConfigFromMap(map[string]string{
		"SECRET_ID":  "id",
		"SECRET_KEY": "key",
		"DOMAIN":     "example.com",
		"TIMEOUT":    "soon",
	})
	if err == nil || !strings.Contains(err.Error(), "TIMEOUT") {
		t.Errorf("expected TIMEOUT error, got %v", err)
	}
}

func TestLoadConfigFromMap_Timeout(t *testing.T) {
	base := map[string]string{
		"SECRET_ID":  "id",
		"SECRET_KEY": "key",
		"DOMAIN":     "example.com",
	}

	tests := []struct {
		name    string
		value   string
		want    time.Duration
		wantErr string
	}{
		{name: "unset uses shared default", value: "", want: 0},
		{name: "explicit zero disables", value: "0s", want: httputil.NoTimeout},
		{name: "bare zero disables", value: "0", want: httputil.NoTimeout},
		{name: "custom", value: "45s", want: 45 * time.Second},
		{name: "negative", value: "-1s", wantErr: `TIMEOUT="-1s"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := map[string]string{"TIMEOUT": tt.value}
			for k, v := range base {
				m[k] = v
			}

			cfg, err := LoadConfigFromMap(m)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.Timeout != tt.want {
				t.Errorf("Timeout = %v, want %v", cfg.Timeout, tt.want)
			}
		})
	}
}

func TestLoadConfigFromMap_Endpoint(t *testing.T) {
	cfg, err := LoadConfigFromMap(map[string]string{
		"SECRET_ID":  "id",
		"SECRET_KEY": "key",
		"DOMAIN":     "example.com",
		"ENDPOINT":   "http://127.0.0.1:9000",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Endpoint != "http://127.0.0.1:9000" || cfg.Host != DefaultHost {
		t.Errorf("unexpected endpoint/host: %s/%s", cfg.Endpoint, cfg.Host)
	}
}
