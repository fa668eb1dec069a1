package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// FileConfig represents the configuration file structure. The same layout
// is accepted as YAML or TOML.
type FileConfig struct {
	Interface string `yaml:"interface,omitempty" toml:"interface"`
	Domain    string `yaml:"domain,omitempty" toml:"domain"`

	Provider   *FileProviderConfig   `yaml:"provider,omitempty" toml:"provider"`
	Reconciler *FileReconcilerConfig `yaml:"reconciler,omitempty" toml:"reconciler"`
	Logging    *FileLoggingConfig    `yaml:"logging,omitempty" toml:"logging"`
	Server     *FileServerConfig     `yaml:"server,omitempty" toml:"server"`
	Source     *FileSourceConfig     `yaml:"source,omitempty" toml:"source"`
	Verify     *FileVerifyConfig     `yaml:"verify,omitempty" toml:"verify"`
}

// FileProviderConfig holds DNS provider settings.
type FileProviderConfig struct {
	Type      string `yaml:"type,omitempty" toml:"type"`
	SecretID  string `yaml:"secret_id,omitempty" toml:"secret_id"`
	SecretKey string `yaml:"secret_key,omitempty" toml:"secret_key"`
	Token     string `yaml:"token,omitempty" toml:"token"`
	Host      string `yaml:"host,omitempty" toml:"host"`
	Endpoint  string `yaml:"endpoint,omitempty" toml:"endpoint"`
	Region    string `yaml:"region,omitempty" toml:"region"`
	Version   string `yaml:"version,omitempty" toml:"version"`
	Timeout   string `yaml:"timeout,omitempty" toml:"timeout"` // Go duration format, "0s" for none
}

// FileReconcilerConfig holds reconciliation settings.
type FileReconcilerConfig struct {
	Interval string           `yaml:"interval,omitempty" toml:"interval"` // Go duration format (e.g., "10m", "1h")
	DryRun   *bool            `yaml:"dry_run,omitempty" toml:"dry_run"`   // Pointer to distinguish unset from false
	Retry    *FileRetryConfig `yaml:"retry,omitempty" toml:"retry"`
}

// FileRetryConfig holds the retry policy applied after a failed tick.
type FileRetryConfig struct {
	Policy  string `yaml:"policy,omitempty" toml:"policy"` // fixed, exponential
	Initial string `yaml:"initial,omitempty" toml:"initial"`
	Max     string `yaml:"max,omitempty" toml:"max"`
}

// FileLoggingConfig holds logging settings.
type FileLoggingConfig struct {
	Level  string `yaml:"level,omitempty" toml:"level"`   // debug, info, warn, error
	Format string `yaml:"format,omitempty" toml:"format"` // json, text
}

// FileServerConfig holds health/metrics server settings.
type FileServerConfig struct {
	Port *int `yaml:"port,omitempty" toml:"port"` // 0 disables the server
}

// FileSourceConfig holds address discovery settings.
type FileSourceConfig struct {
	Path string `yaml:"path,omitempty" toml:"path"`
}

// FileVerifyConfig holds propagation check settings.
type FileVerifyConfig struct {
	Nameserver string `yaml:"nameserver,omitempty" toml:"nameserver"`
}

// envVarPattern matches ${VAR} or ${VAR:-default} syntax.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// InterpolateEnvVars replaces ${VAR} patterns with environment variable values.
// Supports ${VAR:-default} syntax for default values.
func InterpolateEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultValue := ""
		if len(groups) >= 3 {
			defaultValue = groups[2]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultValue
	})
}

// interpolateEnvVars interpolates environment variables in every string
// field of the config structure.
func (c *FileConfig) interpolateEnvVars() {
	fields := []*string{&c.Interface, &c.Domain}

	if p := c.Provider; p != nil {
		fields = append(fields, &p.Type, &p.SecretID, &p.SecretKey, &p.Token,
			&p.Host, &p.Endpoint, &p.Region, &p.Version, &p.Timeout)
	}
	if r := c.Reconciler; r != nil {
		fields = append(fields, &r.Interval)
		if r.Retry != nil {
			fields = append(fields, &r.Retry.Policy, &r.Retry.Initial, &r.Retry.Max)
		}
	}
	if c.Logging != nil {
		fields = append(fields, &c.Logging.Level, &c.Logging.Format)
	}
	if c.Source != nil {
		fields = append(fields, &c.Source.Path)
	}
	if c.Verify != nil {
		fields = append(fields, &c.Verify.Nameserver)
	}

	for _, f := range fields {
		*f = InterpolateEnvVars(*f)
	}
}

// LoadFile reads and parses a configuration file. The format is chosen by
// extension: .toml for TOML, .yaml or .yml for YAML. Environment variables
// in ${VAR} format are interpolated after parsing.
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg FileConfig
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing TOML config: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing YAML config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file extension %q (use .yaml, .yml or .toml)", ext)
	}

	cfg.interpolateEnvVars()

	return &cfg, nil
}

// apply copies every value set in the file onto cfg and returns the
// validation errors found along the way.
func (c *FileConfig) apply(cfg *Config) []string {
	var errs []string

	setString(&cfg.Interface, c.Interface)
	setString(&cfg.Domain, c.Domain)

	if p := c.Provider; p != nil {
		setString(&cfg.Provider, strings.ToLower(p.Type))
		setString(&cfg.SecretID, p.SecretID)
		setString(&cfg.SecretKey, p.SecretKey)
		setString(&cfg.Token, p.Token)
		setString(&cfg.Host, p.Host)
		setString(&cfg.Endpoint, p.Endpoint)
		setString(&cfg.Region, p.Region)
		setString(&cfg.APIVersion, p.Version)
		errs = appendErr(errs, setDuration(&cfg.HTTPTimeout, p.Timeout, "provider.timeout"))
	}

	if r := c.Reconciler; r != nil {
		errs = appendErr(errs, setDuration(&cfg.Interval, r.Interval, "reconciler.interval"))
		if r.DryRun != nil {
			cfg.DryRun = *r.DryRun
		}
		if rt := r.Retry; rt != nil {
			setString(&cfg.RetryPolicy, strings.ToLower(rt.Policy))
			errs = appendErr(errs, setDuration(&cfg.RetryInitial, rt.Initial, "reconciler.retry.initial"))
			errs = appendErr(errs, setDuration(&cfg.RetryMax, rt.Max, "reconciler.retry.max"))
		}
	}

	if l := c.Logging; l != nil {
		setString(&cfg.LogLevel, strings.ToLower(l.Level))
		setString(&cfg.LogFormat, strings.ToLower(l.Format))
	}

	if c.Server != nil && c.Server.Port != nil {
		cfg.HealthPort = *c.Server.Port
	}
	if c.Source != nil {
		setString(&cfg.IfInet6Path, c.Source.Path)
	}
	if c.Verify != nil {
		setString(&cfg.VerifyNameserver, c.Verify.Nameserver)
	}

	return errs
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v, name string) error {
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: invalid duration %q (use format like 60s, 5m)", name, v)
	}
	*dst = d
	return nil
}

func appendErr(errs []string, err error) []string {
	if err != nil {
		return append(errs, err.Error())
	}
	return errs
}
