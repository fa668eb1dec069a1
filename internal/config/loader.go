package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// EnvPrefix prefixes every ddns6 environment variable except credentials.
const EnvPrefix = "DDNS6_"

// Credential environment variables. Each also accepts a _FILE variant.
const (
	EnvSecretID  = "DNSPOD_SECRET_ID"
	EnvSecretKey = "DNSPOD_SECRET_KEY"
	EnvToken     = "DNSPOD_TOKEN"
)

// EnvConfigFile names the configuration file when --config is not given.
const EnvConfigFile = EnvPrefix + "CONFIG"

// Overrides carries command-line flag values. Empty strings and a false
// DryRun leave the lower layers untouched.
type Overrides struct {
	ConfigFile string
	Interface  string
	Domain     string
	DryRun     bool
}

func (o Overrides) apply(cfg *Config) {
	setString(&cfg.Interface, o.Interface)
	setString(&cfg.Domain, o.Domain)
	if o.DryRun {
		cfg.DryRun = true
	}
}

// Load resolves the configuration from defaults, the optional config file,
// environment variables and flag overrides, then validates the result.
// All problems are reported together in a *ValidationError.
func Load(o Overrides) (*Config, error) {
	cfg := Defaults()
	var errs []string

	path := o.ConfigFile
	if path == "" {
		path = getEnv(EnvConfigFile)
	}
	if path != "" {
		fileCfg, err := LoadFile(path)
		if err != nil {
			errs = append(errs, "config file: "+err.Error())
		} else {
			cfg.ConfigFile = path
			errs = append(errs, fileCfg.apply(cfg)...)
		}
	}

	errs = append(errs, mergeEnv(cfg)...)
	o.apply(cfg)
	errs = append(errs, validateConfig(cfg)...)

	if len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}
	return cfg, nil
}

// mergeEnv overrides cfg with every environment variable that is set.
func mergeEnv(cfg *Config) []string {
	var errs []string

	envString(&cfg.Interface, "INTERFACE")
	envString(&cfg.Domain, "DOMAIN")
	if v := getEnv(EnvPrefix + "PROVIDER"); v != "" {
		cfg.Provider = strings.ToLower(v)
	}

	for _, s := range []struct {
		key string
		dst *string
	}{
		{EnvSecretID, &cfg.SecretID},
		{EnvSecretKey, &cfg.SecretKey},
		{EnvToken, &cfg.Token},
	} {
		v, err := getEnvWithFileFallback(s.key)
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}
		setString(s.dst, v)
	}

	envString(&cfg.Host, "API_HOST")
	envString(&cfg.Endpoint, "API_ENDPOINT")
	envString(&cfg.Region, "API_REGION")
	envString(&cfg.APIVersion, "API_VERSION")
	envString(&cfg.IfInet6Path, "IF_INET6_PATH")
	envString(&cfg.VerifyNameserver, "VERIFY_NAMESERVER")

	if v := getEnv(EnvPrefix + "RETRY_POLICY"); v != "" {
		cfg.RetryPolicy = strings.ToLower(v)
	}
	if v := getEnv(EnvPrefix + "LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := getEnv(EnvPrefix + "LOG_FORMAT"); v != "" {
		cfg.LogFormat = strings.ToLower(v)
	}

	errs = appendErr(errs, envDuration(&cfg.Interval, "INTERVAL"))
	errs = appendErr(errs, envDuration(&cfg.RetryInitial, "RETRY_INITIAL"))
	errs = appendErr(errs, envDuration(&cfg.RetryMax, "RETRY_MAX"))
	errs = appendErr(errs, envDuration(&cfg.HTTPTimeout, "HTTP_TIMEOUT"))

	if v := getEnv(EnvPrefix + "DRY_RUN"); v != "" {
		b, err := parseBool(v)
		if err != nil {
			errs = append(errs, EnvPrefix+"DRY_RUN: "+err.Error())
		} else {
			cfg.DryRun = b
		}
	}

	if v := getEnv(EnvPrefix + "HEALTH_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%sHEALTH_PORT: invalid integer %q", EnvPrefix, v))
		} else {
			cfg.HealthPort = port
		}
	}

	return errs
}

func envString(dst *string, name string) {
	setString(dst, getEnv(EnvPrefix+name))
}

func envDuration(dst *time.Duration, name string) error {
	return setDuration(dst, getEnv(EnvPrefix+name), EnvPrefix+name)
}
