// Package provider defines the interface that all DNS providers must implement.
package provider

import (
	"context"
	"strings"
)

// RecordType represents the type of DNS record.
type RecordType string

const (
	RecordTypeA     RecordType = "A"
	RecordTypeAAAA  RecordType = "AAAA"
	RecordTypeCNAME RecordType = "CNAME"
	RecordTypeMX    RecordType = "MX"
	RecordTypeNS    RecordType = "NS"
	RecordTypeTXT   RecordType = "TXT"
)

// ApexName is the subdomain label providers use for the zone apex.
const ApexName = "@"

// Record represents a DNS record as held by a provider.
//
// ID, Line and Name are the fields an update must echo back to the provider
// to address the same record. Everything else is informational.
type Record struct {
	ID     int64      // provider-assigned identifier
	Name   string     // subdomain label relative to the zone, "@" for the apex
	Type   RecordType
	Value  string     // record data, an IPv6 literal for AAAA
	Line   string     // resolution line name (e.g. "默认", the default line)
	LineID string
	TTL    int

	Weight        *int // nil when the provider reports no weight
	MX            int
	Status        string
	MonitorStatus string
	Remark        string
	UpdatedOn     string
	DefaultNS     bool
}

// FQDN returns the fully qualified name of the record within zone.
func (r Record) FQDN(zone string) string {
	zone = strings.TrimSuffix(zone, ".")
	if r.Name == "" || r.Name == ApexName {
		return zone
	}
	return r.Name + "." + zone
}

// FilterByType returns the records of type t, preserving order.
func FilterByType(records []Record, t RecordType) []Record {
	var out []Record
	for _, r := range records {
		if r.Type == t {
			out = append(out, r)
		}
	}
	return out
}

// Provider defines the interface for DNS providers.
// Each provider implementation manages the records of a single zone.
type Provider interface {
	// Name returns the provider instance name (e.g., "dnspod").
	Name() string

	// Type returns the provider type (e.g., "dnspod").
	Type() string

	// Ping checks connectivity and credentials.
	Ping(ctx context.Context) error

	// List returns all records in the configured zone. An empty zone is
	// not an error.
	List(ctx context.Context) ([]Record, error)

	// Modify sets the value of an existing record, addressed by its ID,
	// line and name, to value. Other fields are preserved.
	Modify(ctx context.Context, record Record, value string) error
}
