// Package config handles loading and validation of ddns6 configuration
// from defaults, an optional YAML or TOML file, environment variables and
// command-line flags, in increasing order of precedence.
package config

import (
	"strconv"
	"time"

	"gitlab.bluewillows.net/root/ddns6/internal/reconciler"
	"gitlab.bluewillows.net/root/ddns6/providers/dnspod"
)

// Retry policies.
const (
	RetryFixed       = reconciler.RetryFixed
	RetryExponential = reconciler.RetryExponential
)

// Configuration defaults.
const (
	DefaultProvider     = dnspod.TypeName
	DefaultInterval     = reconciler.DefaultInterval
	DefaultRetryPolicy  = RetryFixed
	DefaultRetryInitial = time.Minute
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "json"
	DefaultHealthPort   = 8080
	DefaultIfInet6Path  = "/proc/net/if_inet6"
	DefaultHTTPTimeout  = 30 * time.Second
)

// Config holds the resolved application configuration.
type Config struct {
	// What to keep in sync
	Interface string // network interface whose global address is published
	Domain    string // zone whose AAAA records are rewritten

	// Provider
	Provider   string // provider type, only "dnspod" is registered
	SecretID   string
	SecretKey  string
	Token      string // session token for temporary credentials
	Host       string // API host override
	Endpoint   string // URL override for requests, still signed for Host
	Region     string
	APIVersion string

	// Loop
	Interval     time.Duration
	RetryPolicy  string // fixed, exponential
	RetryInitial time.Duration
	RetryMax     time.Duration // zero means Interval
	DryRun       bool

	// Logging
	LogLevel  string // debug, info, warn, error
	LogFormat string // json, text

	// Ambient
	HealthPort       int    // 0 disables the health server
	IfInet6Path      string // kernel address table
	VerifyNameserver string // optional nameserver for propagation checks
	HTTPTimeout      time.Duration // zero disables the per-request timeout

	// ConfigFile is the file the configuration was read from, if any.
	ConfigFile string
}

// Defaults returns a Config populated with default values only.
func Defaults() *Config {
	return &Config{
		Provider:     DefaultProvider,
		Interval:     DefaultInterval,
		RetryPolicy:  DefaultRetryPolicy,
		RetryInitial: DefaultRetryInitial,
		LogLevel:     DefaultLogLevel,
		LogFormat:    DefaultLogFormat,
		HealthPort:   DefaultHealthPort,
		IfInet6Path:  DefaultIfInet6Path,
		HTTPTimeout:  DefaultHTTPTimeout,
	}
}

// EffectiveRetryMax returns the cap on exponential retry delays.
func (c *Config) EffectiveRetryMax() time.Duration {
	if c.RetryMax > 0 {
		return c.RetryMax
	}
	return c.Interval
}

// ReconcilerConfig returns the reconciler settings.
func (c *Config) ReconcilerConfig() reconciler.Config {
	return reconciler.Config{
		DryRun:   c.DryRun,
		Interval: c.Interval,
		Retry: reconciler.RetryConfig{
			Policy:  c.RetryPolicy,
			Initial: c.RetryInitial,
			Max:     c.EffectiveRetryMax(),
		},
	}
}

// ProviderConfig returns the provider settings as the upper-case key map
// accepted by provider factories.
func (c *Config) ProviderConfig() map[string]string {
	return map[string]string{
		"SECRET_ID":  c.SecretID,
		"SECRET_KEY": c.SecretKey,
		"TOKEN":      c.Token,
		"DOMAIN":     c.Domain,
		"HOST":       c.Host,
		"ENDPOINT":   c.Endpoint,
		"REGION":     c.Region,
		"VERSION":    c.APIVersion,
		"TIMEOUT":    c.HTTPTimeout.String(),
	}
}

// Summary returns the settings logged at startup, with credentials masked.
func (c *Config) Summary() map[string]string {
	return map[string]string{
		"interface":    c.Interface,
		"domain":       c.Domain,
		"provider":     c.Provider,
		"endpoint":     c.Endpoint,
		"secret_id":    mask(c.SecretID),
		"interval":     c.Interval.String(),
		"retry_policy": c.RetryPolicy,
		"dry_run":      strconv.FormatBool(c.DryRun),
		"health_port":  strconv.Itoa(c.HealthPort),
		"config_file":  c.ConfigFile,
	}
}

// mask keeps the last four characters of a credential.
func mask(s string) string {
	if len(s) <= 4 {
		if s == "" {
			return ""
		}
		return "****"
	}
	return "****" + s[len(s)-4:]
}
