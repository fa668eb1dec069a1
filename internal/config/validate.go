package config

import (
	"fmt"
	"strings"
	"time"

	"gitlab.bluewillows.net/root/ddns6/pkg/provider"
)

// MinInterval is the shortest accepted reconcile interval.
const MinInterval = time.Second

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration error: %s", e.Errors[0])
	}
	return fmt.Sprintf("configuration errors:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// validateConfig performs field and cross-field validation on the resolved
// configuration. Returns a list of validation errors.
func validateConfig(cfg *Config) []string {
	var errs []string

	if cfg.Interface == "" {
		errs = append(errs, "interface is required (--ifacename or DDNS6_INTERFACE)")
	} else if strings.ContainsAny(cfg.Interface, " \t/") {
		errs = append(errs, fmt.Sprintf("interface: invalid name %q", cfg.Interface))
	}

	if cfg.Domain == "" {
		errs = append(errs, "domain is required (--domain or DDNS6_DOMAIN)")
	} else if err := provider.ValidateDomain(cfg.Domain); err != nil {
		errs = append(errs, "domain: "+err.Error())
	}

	if cfg.Provider == "" {
		errs = append(errs, "provider: type is required")
	}
	if cfg.SecretID == "" {
		errs = append(errs, EnvSecretID+" is required")
	}
	if cfg.SecretKey == "" {
		errs = append(errs, EnvSecretKey+" is required")
	}

	if cfg.Interval < MinInterval {
		errs = append(errs, fmt.Sprintf("interval: must be at least %s, got %s", MinInterval, cfg.Interval))
	}

	switch cfg.RetryPolicy {
	case RetryFixed:
	case RetryExponential:
		if cfg.RetryInitial <= 0 {
			errs = append(errs, "retry initial: must be positive")
		}
		if cfg.RetryMax != 0 && cfg.RetryMax < cfg.RetryInitial {
			errs = append(errs, fmt.Sprintf("retry max: %s is shorter than retry initial %s", cfg.RetryMax, cfg.RetryInitial))
		}
	default:
		errs = append(errs, fmt.Sprintf("retry policy: invalid value %q (must be fixed or exponential)", cfg.RetryPolicy))
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
		// Valid
	default:
		errs = append(errs, fmt.Sprintf("log level: invalid value %q (must be debug, info, warn, or error)", cfg.LogLevel))
	}

	switch cfg.LogFormat {
	case "json", "text":
		// Valid
	default:
		errs = append(errs, fmt.Sprintf("log format: invalid value %q (must be json or text)", cfg.LogFormat))
	}

	if cfg.HealthPort < 0 || cfg.HealthPort > 65535 {
		errs = append(errs, fmt.Sprintf("health port: must be between 0 and 65535, got %d", cfg.HealthPort))
	}

	if cfg.IfInet6Path == "" {
		errs = append(errs, "if_inet6 path: must not be empty")
	}

	if cfg.HTTPTimeout < 0 {
		errs = append(errs, "http timeout: must be non-negative")
	}

	return errs
}
