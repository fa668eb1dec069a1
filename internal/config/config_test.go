package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gitlab.bluewillows.net/root/ddns6/pkg/httputil"
	"gitlab.bluewillows.net/root/ddns6/providers/dnspod"
)

// clearAllEnv blanks every DDNS6_ and DNSPOD_ variable for the duration of
// the test. An empty value is treated as unset by the loader.
func clearAllEnv(t *testing.T) {
	t.Helper()
	for _, env := range os.Environ() {
		key, _, _ := strings.Cut(env, "=")
		if strings.HasPrefix(key, EnvPrefix) || strings.HasPrefix(key, "DNSPOD_") {
			t.Setenv(key, "")
		}
	}
}

// setMinimalEnv sets the variables without which Load always fails.
func setMinimalEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DDNS6_INTERFACE", "eth0")
	t.Setenv("DDNS6_DOMAIN", "example.com")
	t.Setenv(EnvSecretID, "AKIDEXAMPLE")
	t.Setenv(EnvSecretKey, "SECRETKEYEXAMPLE")
}

func TestLoad_MinimalConfig(t *testing.T) {
	clearAllEnv(t)
	setMinimalEnv(t)

	cfg, err := Load(Overrides{})
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Interface != "eth0" || cfg.Domain != "example.com" {
		t.Errorf("unexpected interface/domain: %q %q", cfg.Interface, cfg.Domain)
	}
	if cfg.Provider != DefaultProvider {
		t.Errorf("Provider = %q, want %q", cfg.Provider, DefaultProvider)
	}
	if cfg.Interval != DefaultInterval {
		t.Errorf("Interval = %v, want %v", cfg.Interval, DefaultInterval)
	}
	if cfg.RetryPolicy != RetryFixed {
		t.Errorf("RetryPolicy = %q, want %q", cfg.RetryPolicy, RetryFixed)
	}
	if cfg.LogLevel != DefaultLogLevel || cfg.LogFormat != DefaultLogFormat {
		t.Errorf("unexpected logging defaults: %s %s", cfg.LogLevel, cfg.LogFormat)
	}
	if cfg.HealthPort != DefaultHealthPort {
		t.Errorf("HealthPort = %d, want %d", cfg.HealthPort, DefaultHealthPort)
	}
	if cfg.IfInet6Path != DefaultIfInet6Path {
		t.Errorf("IfInet6Path = %q, want %q", cfg.IfInet6Path, DefaultIfInet6Path)
	}
	if cfg.DryRun {
		t.Error("DryRun should default to false")
	}
	if cfg.ConfigFile != "" {
		t.Errorf("ConfigFile = %q, want empty", cfg.ConfigFile)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	clearAllEnv(t)

	_, err := Load(Overrides{})

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %T: %v", err, err)
	}
	// interface, domain, secret id and secret key are all reported at once
	if len(verr.Errors) != 4 {
		t.Errorf("expected 4 errors, got %d: %v", len(verr.Errors), verr.Errors)
	}
	if !strings.Contains(err.Error(), "configuration errors:") {
		t.Errorf("multi-error message not formatted as a list: %q", err.Error())
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearAllEnv(t)
	setMinimalEnv(t)
	t.Setenv("DDNS6_INTERVAL", "15m")
	t.Setenv("DDNS6_RETRY_POLICY", "Exponential")
	t.Setenv("DDNS6_RETRY_INITIAL", "10s")
	t.Setenv("DDNS6_RETRY_MAX", "2m")
	t.Setenv("DDNS6_LOG_LEVEL", "DEBUG")
	t.Setenv("DDNS6_LOG_FORMAT", "text")
	t.Setenv("DDNS6_HEALTH_PORT", "0")
	t.Setenv("DDNS6_DRY_RUN", "yes")
	t.Setenv("DDNS6_API_HOST", "dnspod.internal.example")
	t.Setenv("DDNS6_API_REGION", "ap-guangzhou")
	t.Setenv("DDNS6_API_VERSION", "2021-03-23")
	t.Setenv("DDNS6_IF_INET6_PATH", "/host/proc/net/if_inet6")
	t.Setenv("DDNS6_VERIFY_NAMESERVER", "ns1.dnspod.net")
	t.Setenv("DDNS6_HTTP_TIMEOUT", "5s")
	t.Setenv(EnvToken, "session-token")

	cfg, err := Load(Overrides{})
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Interval != 15*time.Minute {
		t.Errorf("Interval = %v", cfg.Interval)
	}
	if cfg.RetryPolicy != RetryExponential || cfg.RetryInitial != 10*time.Second || cfg.RetryMax != 2*time.Minute {
		t.Errorf("unexpected retry settings: %s %v %v", cfg.RetryPolicy, cfg.RetryInitial, cfg.RetryMax)
	}
	if cfg.LogLevel != "debug" || cfg.LogFormat != "text" {
		t.Errorf("unexpected logging: %s %s", cfg.LogLevel, cfg.LogFormat)
	}
	if cfg.HealthPort != 0 || !cfg.DryRun {
		t.Errorf("unexpected health port/dry run: %d %v", cfg.HealthPort, cfg.DryRun)
	}
	if cfg.Host != "dnspod.internal.example" || cfg.Region != "ap-guangzhou" || cfg.APIVersion != "2021-03-23" {
		t.Errorf("unexpected API settings: %s %s %s", cfg.Host, cfg.Region, cfg.APIVersion)
	}
	if cfg.IfInet6Path != "/host/proc/net/if_inet6" || cfg.VerifyNameserver != "ns1.dnspod.net" {
		t.Errorf("unexpected paths: %s %s", cfg.IfInet6Path, cfg.VerifyNameserver)
	}
	if cfg.HTTPTimeout != 5*time.Second || cfg.Token != "session-token" {
		t.Errorf("unexpected timeout/token: %v %q", cfg.HTTPTimeout, cfg.Token)
	}
}

func TestLoad_InvalidEnvValues(t *testing.T) {
	clearAllEnv(t)
	setMinimalEnv(t)
	t.Setenv("DDNS6_INTERVAL", "soon")
	t.Setenv("DDNS6_HEALTH_PORT", "eighty")
	t.Setenv("DDNS6_DRY_RUN", "perhaps")
	t.Setenv("DDNS6_LOG_LEVEL", "verbose")

	_, err := Load(Overrides{})

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	for _, want := range []string{"DDNS6_INTERVAL", "DDNS6_HEALTH_PORT", "DDNS6_DRY_RUN", "log level"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected error mentioning %s, got %q", want, err.Error())
		}
	}
}

func TestLoad_SecretFiles(t *testing.T) {
	clearAllEnv(t)
	setMinimalEnv(t)

	keyFile := filepath.Join(t.TempDir(), "secret_key")
	if err := os.WriteFile(keyFile, []byte("key-from-file\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvSecretKey+"_FILE", keyFile)

	cfg, err := Load(Overrides{})
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.SecretKey != "key-from-file" {
		t.Errorf("SecretKey = %q, want file contents", cfg.SecretKey)
	}
}

func TestLoad_Precedence(t *testing.T) {
	clearAllEnv(t)
	t.Setenv(EnvSecretID, "AKIDEXAMPLE")
	t.Setenv(EnvSecretKey, "SECRETKEYEXAMPLE")

	path := writeFile(t, "ddns6.yaml", `
interface: eth0
domain: file.example.com
reconciler:
  interval: 30m
logging:
  level: warn
`)

	// env beats file
	t.Setenv("DDNS6_INTERVAL", "20m")
	// flag beats env
	t.Setenv("DDNS6_DOMAIN", "env.example.com")

	cfg, err := Load(Overrides{ConfigFile: path, Domain: "flag.example.com", DryRun: true})
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.ConfigFile != path {
		t.Errorf("ConfigFile = %q, want %q", cfg.ConfigFile, path)
	}
	if cfg.Interface != "eth0" {
		t.Errorf("Interface = %q, want value from file", cfg.Interface)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want value from file", cfg.LogLevel)
	}
	if cfg.Interval != 20*time.Minute {
		t.Errorf("Interval = %v, want env override", cfg.Interval)
	}
	if cfg.Domain != "flag.example.com" {
		t.Errorf("Domain = %q, want flag override", cfg.Domain)
	}
	if !cfg.DryRun {
		t.Error("DryRun flag not applied")
	}
}

func TestLoad_ConfigFileFromEnv(t *testing.T) {
	clearAllEnv(t)
	setMinimalEnv(t)

	path := writeFile(t, "ddns6.toml", "[server]\nport = 9090\n")
	t.Setenv(EnvConfigFile, path)

	cfg, err := Load(Overrides{})
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.HealthPort != 9090 {
		t.Errorf("HealthPort = %d, want 9090 from %s", cfg.HealthPort, EnvConfigFile)
	}
}

func TestLoad_BadConfigFile(t *testing.T) {
	clearAllEnv(t)
	setMinimalEnv(t)

	_, err := Load(Overrides{ConfigFile: filepath.Join(t.TempDir(), "missing.yaml")})
	if err == nil || !strings.Contains(err.Error(), "config file:") {
		t.Errorf("expected config file error, got %v", err)
	}
}

func TestConfig_EffectiveRetryMax(t *testing.T) {
	cfg := Defaults()
	if got := cfg.EffectiveRetryMax(); got != DefaultInterval {
		t.Errorf("EffectiveRetryMax() = %v, want interval %v", got, DefaultInterval)
	}

	cfg.RetryMax = 5 * time.Minute
	if got := cfg.EffectiveRetryMax(); got != 5*time.Minute {
		t.Errorf("EffectiveRetryMax() = %v, want 5m", got)
	}
}

func TestConfig_ProviderConfig(t *testing.T) {
	cfg := Defaults()
	cfg.Domain = "example.com"
	cfg.SecretID = "AKIDEXAMPLE"
	cfg.SecretKey = "SECRETKEYEXAMPLE"
	cfg.HTTPTimeout = 10 * time.Second

	dcfg, err := dnspod.LoadConfigFromMap(cfg.ProviderConfig())
	if err != nil {
		t.Fatalf("LoadConfigFromMap failed: %v", err)
	}
	if dcfg.Domain != "example.com" || dcfg.SecretID != "AKIDEXAMPLE" {
		t.Errorf("unexpected dnspod config: %+v", dcfg)
	}
	if dcfg.Host != dnspod.DefaultHost || dcfg.Version != dnspod.DefaultVersion {
		t.Errorf("dnspod defaults not applied: %s %s", dcfg.Host, dcfg.Version)
	}
	if dcfg.Timeout != 10*time.Second {
		t.Errorf("Timeout = %v, want 10s", dcfg.Timeout)
	}
}

func TestConfig_ProviderConfig_ZeroTimeoutDisables(t *testing.T) {
	clearAllEnv(t)
	setMinimalEnv(t)
	t.Setenv("DDNS6_HTTP_TIMEOUT", "0s")
	t.Setenv("DDNS6_API_ENDPOINT", "http://127.0.0.1:9000")

	cfg, err := Load(Overrides{})
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.HTTPTimeout != 0 || cfg.Endpoint != "http://127.0.0.1:9000" {
		t.Fatalf("unexpected timeout/endpoint: %v %q", cfg.HTTPTimeout, cfg.Endpoint)
	}

	dcfg, err := dnspod.LoadConfigFromMap(cfg.ProviderConfig())
	if err != nil {
		t.Fatalf("LoadConfigFromMap failed: %v", err)
	}
	if dcfg.Timeout != httputil.NoTimeout {
		t.Errorf("Timeout = %v, want NoTimeout", dcfg.Timeout)
	}
	if dcfg.Endpoint != "http://127.0.0.1:9000" {
		t.Errorf("Endpoint = %q", dcfg.Endpoint)
	}
}

func TestConfig_SummaryMasksSecrets(t *testing.T) {
	cfg := Defaults()
	cfg.SecretID = "AKIDEXAMPLE1234"
	cfg.SecretKey = "SECRETKEYEXAMPLE"

	summary := cfg.Summary()
	if summary["secret_id"] != "****1234" {
		t.Errorf("secret_id = %q, want masked", summary["secret_id"])
	}
	for k, v := range summary {
		if strings.Contains(v, "SECRETKEY") {
			t.Errorf("summary key %s leaks the secret key", k)
		}
	}
}
