package dnspod

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"gitlab.bluewillows.net/root/ddns6/pkg/httputil"
	"gitlab.bluewillows.net/root/ddns6/pkg/provider"
	"gitlab.bluewillows.net/root/ddns6/pkg/tc3"
)

// Config holds DNSPod-specific configuration.
type Config struct {
	SecretID  string        // API secret id (required)
	SecretKey string        // API secret key (required)
	Token     string        // session token for temporary credentials (optional)
	Domain    string        // zone whose AAAA records are managed (required)
	Host      string        // API host, defaults to DefaultHost
	Region    string        // X-TC-Region, empty for DNSPod
	Version   string        // API version, defaults to DefaultVersion
	Endpoint  string        // URL requests are sent to, defaults to https://<Host>/
	Timeout   time.Duration // per-request HTTP timeout, zero for the shared default, httputil.NoTimeout for none
}

// Credentials returns the signing credentials.
func (c *Config) Credentials() tc3.Credentials {
	return tc3.Credentials{
		SecretID:  c.SecretID,
		SecretKey: c.SecretKey,
		Token:     c.Token,
	}
}

// Validate checks that all required configuration is present. Every problem
// is reported as a *provider.ConfigError, joined into one error.
func (c *Config) Validate() error {
	var errs []error

	if c.SecretID == "" {
		errs = append(errs, provider.ErrConfigMissing("SECRET_ID"))
	}
	if c.SecretKey == "" {
		errs = append(errs, provider.ErrConfigMissing("SECRET_KEY"))
	}
	if c.Domain == "" {
		errs = append(errs, provider.ErrConfigMissing("DOMAIN"))
	} else if err := provider.ValidateDomain(c.Domain); err != nil {
		errs = append(errs, provider.ErrConfigInvalid("DOMAIN", c.Domain, err.Error()))
	}
	if strings.Contains(c.Host, "/") {
		errs = append(errs, provider.ErrConfigInvalid("HOST", c.Host, "must be a bare host name, not a URL"))
	}
	if c.Endpoint != "" {
		if u, err := url.Parse(c.Endpoint); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, provider.ErrConfigInvalid("ENDPOINT", c.Endpoint, "must be an http or https URL"))
		}
	}

	return errors.Join(errs...)
}

// LoadConfigFromMap builds a Config from upper-case keys as produced by the
// configuration loader: SECRET_ID, SECRET_KEY, TOKEN, DOMAIN, HOST, REGION,
// VERSION, ENDPOINT, TIMEOUT. Defaults are applied for HOST and VERSION.
// An explicit TIMEOUT of zero disables the request timeout.
func LoadConfigFromMap(m map[string]string) (*Config, error) {
	cfg := &Config{
		SecretID:  m["SECRET_ID"],
		SecretKey: m["SECRET_KEY"],
		Token:     m["TOKEN"],
		Domain:    m["DOMAIN"],
		Host:      m["HOST"],
		Region:    m["REGION"],
		Version:   m["VERSION"],
		Endpoint:  m["ENDPOINT"],
	}

	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Version == "" {
		cfg.Version = DefaultVersion
	}

	if s := m["TIMEOUT"]; s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return nil, fmt.Errorf("invalid TIMEOUT value %q: %w", s, err)
		}
		switch {
		case d < 0:
			return nil, provider.ErrConfigInvalid("TIMEOUT", s, "must be non-negative")
		case d == 0:
			cfg.Timeout = httputil.NoTimeout
		default:
			cfg.Timeout = d
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
