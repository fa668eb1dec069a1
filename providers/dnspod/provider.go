package dnspod

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gitlab.bluewillows.net/root/ddns6/internal/metrics"
	"gitlab.bluewillows.net/root/ddns6/pkg/httputil"
	"gitlab.bluewillows.net/root/ddns6/pkg/provider"
)

// TypeName is the registry key for this provider.
const TypeName = "dnspod"

// Provider implements provider.Provider for DNSPod.
type Provider struct {
	name   string
	domain string
	client *Client
	logger *slog.Logger
}

// ProviderOption is a functional option for configuring the Provider.
type ProviderOption func(*providerOptions)

type providerOptions struct {
	logger *slog.Logger
	client []ClientOption
}

// WithProviderLogger sets a custom logger for the provider.
func WithProviderLogger(logger *slog.Logger) ProviderOption {
	return func(o *providerOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithClientOptions passes options through to the API client.
func WithClientOptions(opts ...ClientOption) ProviderOption {
	return func(o *providerOptions) {
		o.client = append(o.client, opts...)
	}
}

// New creates a new DNSPod provider instance.
func New(name string, config *Config, opts ...ProviderOption) (*Provider, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	o := &providerOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}

	httpClient := httputil.NewClient(&httputil.ClientConfig{
		Timeout: config.Timeout,
		Logger:  o.logger,
	})

	// Caller options come last so tests can replace the HTTP client
	base := []ClientOption{WithHTTPClient(httpClient), WithLogger(o.logger)}
	if config.Endpoint != "" {
		base = append(base, WithAPIEndpoint(config.Endpoint))
	}
	clientOpts := append(base, o.client...)

	return &Provider{
		name:   name,
		domain: config.Domain,
		client: NewClient(config.Credentials(), config.Host, config.Region, config.Version, clientOpts...),
		logger: o.logger,
	}, nil
}

// NewFromMap creates a new DNSPod provider from a configuration map.
// This is used by the provider registry Factory pattern.
func NewFromMap(name string, config map[string]string, opts ...ProviderOption) (*Provider, error) {
	cfg, err := LoadConfigFromMap(config)
	if err != nil {
		return nil, err
	}
	return New(name, cfg, opts...)
}

// Name returns the provider instance name.
func (p *Provider) Name() string {
	return p.name
}

// Type returns "dnspod".
func (p *Provider) Type() string {
	return TypeName
}

// Domain returns the managed zone.
func (p *Provider) Domain() string {
	return p.domain
}

// Ping verifies the credentials with DescribeUserDetail.
func (p *Provider) Ping(ctx context.Context) error {
	start := time.Now()
	user, err := p.client.DescribeUserDetail(ctx)
	metrics.ObserveProviderCall(p.name, "ping", start, err)
	metrics.SetProviderHealthy(p.name, err == nil)
	if err != nil {
		return provider.WrapError(p.name, "ping", err)
	}

	p.logger.Debug("provider reachable",
		slog.String("provider", p.name),
		slog.Int64("uin", user.Uin),
	)
	return nil
}

// List returns every record in the zone.
func (p *Provider) List(ctx context.Context) ([]provider.Record, error) {
	start := time.Now()
	list, err := p.client.DescribeRecordList(ctx, p.domain)
	metrics.ObserveProviderCall(p.name, "list", start, err)
	if err != nil {
		return nil, provider.WrapError(p.name, "list", err)
	}

	if p.logger.Enabled(ctx, slog.LevelDebug) {
		p.logger.Debug("record list", slog.String("provider", p.name), slog.String("dump", list.String()))
	}

	records := make([]provider.Record, 0, len(list.RecordList))
	for _, r := range list.RecordList {
		records = append(records, toRecord(r))
	}
	return records, nil
}

// Modify points an existing record at value. The record's line, subdomain
// and TTL are sent back unchanged.
func (p *Provider) Modify(ctx context.Context, record provider.Record, value string) error {
	req := ModifyRecordRequest{
		Domain:     p.domain,
		RecordType: string(record.Type),
		RecordLine: record.Line,
		Value:      value,
		RecordID:   record.ID,
		SubDomain:  record.Name,
		TTL:        record.TTL,
	}

	start := time.Now()
	res, err := p.client.ModifyRecord(ctx, req)
	metrics.ObserveProviderCall(p.name, "modify", start, err)
	if err != nil {
		return provider.WrapError(p.name, "modify", err)
	}

	p.logger.Debug("modified record",
		slog.String("provider", p.name),
		slog.Int64("record_id", res.RecordID),
		slog.String("request_id", res.RequestID),
	)
	return nil
}

func toRecord(r RecordListItem) provider.Record {
	return provider.Record{
		ID:            r.RecordID,
		Name:          r.Name,
		Type:          provider.RecordType(r.Type),
		Value:         r.Value,
		Line:          r.Line,
		LineID:        r.LineID,
		TTL:           r.TTL,
		Weight:        r.Weight,
		MX:            r.MX,
		Status:        r.Status,
		MonitorStatus: r.MonitorStatus,
		Remark:        r.Remark,
		UpdatedOn:     r.UpdatedOn,
		DefaultNS:     r.DefaultNS,
	}
}

// Factory returns a provider.Factory function for use with the provider registry.
func Factory(opts ...ProviderOption) provider.Factory {
	return func(name string, config map[string]string) (provider.Provider, error) {
		p, err := NewFromMap(name, config, opts...)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
}

// Ensure Provider implements provider.Provider at compile time.
var _ provider.Provider = (*Provider)(nil)
