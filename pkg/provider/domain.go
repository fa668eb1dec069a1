package provider

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Domain name limits per RFC 1123.
const (
	// MaxDomainLength is the maximum length of a full domain name.
	MaxDomainLength = 253

	// MaxLabelLength is the maximum length of a single label.
	MaxLabelLength = 63
)

// Domain validation errors.
var (
	ErrDomainEmpty       = errors.New("domain is empty")
	ErrDomainTooLong     = errors.New("domain exceeds 253 characters")
	ErrDomainSingleLabel = errors.New("domain must have at least two labels")
	ErrLabelEmpty        = errors.New("domain contains empty label")
	ErrLabelTooLong      = errors.New("domain label exceeds 63 characters")
	ErrInvalidCharacters = errors.New("domain contains invalid characters")
)

var labelRegex = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]*[a-zA-Z0-9])?$`)

// DomainValidationError reports which part of a domain name is invalid.
type DomainValidationError struct {
	Domain string
	Label  string // the failing label, if any
	Err    error
}

func (e *DomainValidationError) Error() string {
	if e.Label != "" {
		return fmt.Sprintf("invalid domain %q: label %q: %v", e.Domain, e.Label, e.Err)
	}
	return fmt.Sprintf("invalid domain %q: %v", e.Domain, e.Err)
}

func (e *DomainValidationError) Unwrap() error {
	return e.Err
}

// ValidateDomain checks that domain is a registrable zone name: at least two
// RFC 1123 labels, no wildcards. A trailing dot is accepted. Punycode labels
// pass; Unicode labels must be converted by the caller.
func ValidateDomain(domain string) error {
	domain = strings.TrimSuffix(domain, ".")

	if domain == "" {
		return &DomainValidationError{Domain: domain, Err: ErrDomainEmpty}
	}
	if len(domain) > MaxDomainLength {
		return &DomainValidationError{Domain: domain, Err: ErrDomainTooLong}
	}

	labels := strings.Split(domain, ".")
	if len(labels) < 2 {
		return &DomainValidationError{Domain: domain, Err: ErrDomainSingleLabel}
	}

	for _, label := range labels {
		switch {
		case label == "":
			return &DomainValidationError{Domain: domain, Label: label, Err: ErrLabelEmpty}
		case len(label) > MaxLabelLength:
			return &DomainValidationError{Domain: domain, Label: label, Err: ErrLabelTooLong}
		case !labelRegex.MatchString(label):
			return &DomainValidationError{Domain: domain, Label: label, Err: ErrInvalidCharacters}
		}
	}

	return nil
}
