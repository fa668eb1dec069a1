// Package dnspod implements the ddns6 provider interface for DNSPod (Tencent Cloud DNS).
package dnspod

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"gitlab.bluewillows.net/root/ddns6/pkg/provider"
	"gitlab.bluewillows.net/root/ddns6/pkg/tc3"
)

const (
	// DefaultHost is the DNSPod API host. It is also the signed Host header.
	DefaultHost = "dnspod.tencentcloudapi.com"

	// DefaultVersion is the DNSPod API version sent in X-TC-Version.
	DefaultVersion = "2021-03-23"

	// Service is the TC3 service name used in the credential scope.
	Service = "dnspod"
)

// API actions.
const (
	actionDescribeRecordList = "DescribeRecordList"
	actionModifyRecord       = "ModifyRecord"
	actionDescribeUserDetail = "DescribeUserDetail"
)

// codeNoDataOfRecord is returned by DescribeRecordList for a zone without records.
const codeNoDataOfRecord = "ResourceNotFound.NoDataOfRecord"

// codeAuthFailure prefixes all credential and signature errors.
const codeAuthFailure = "AuthFailure"

// RecordCountInfo summarizes a DescribeRecordList page.
type RecordCountInfo struct {
	SubdomainCount int `json:"SubdomainCount"`
	ListCount      int `json:"ListCount"`
	TotalCount     int `json:"TotalCount"`
}

// RecordListItem is a record as returned by DescribeRecordList.
type RecordListItem struct {
	RecordID      int64  `json:"RecordId"`
	Value         string `json:"Value"`
	Status        string `json:"Status"`
	UpdatedOn     string `json:"UpdatedOn"`
	Name          string `json:"Name"`
	Line          string `json:"Line"`
	LineID        string `json:"LineId"`
	Type          string `json:"Type"`
	Weight        *int   `json:"Weight"`
	MonitorStatus string `json:"MonitorStatus"`
	Remark        string `json:"Remark"`
	TTL           int    `json:"TTL"`
	MX            int    `json:"MX"`
	DefaultNS     bool   `json:"DefaultNS"`
}

// RecordList is the Response object of DescribeRecordList.
type RecordList struct {
	RequestID       string           `json:"RequestId"`
	RecordCountInfo RecordCountInfo  `json:"RecordCountInfo"`
	RecordList      []RecordListItem `json:"RecordList"`
}

// ModifyRecordRequest is the payload of ModifyRecord.
type ModifyRecordRequest struct {
	Domain     string `json:"Domain"`
	RecordType string `json:"RecordType"`
	RecordLine string `json:"RecordLine"`
	Value      string `json:"Value"`
	RecordID   int64  `json:"RecordId"`
	SubDomain  string `json:"SubDomain"`
	TTL        int    `json:"TTL,omitempty"`
}

// ModifyRecordResult is the Response object of ModifyRecord.
type ModifyRecordResult struct {
	RequestID string `json:"RequestId"`
	RecordID  int64  `json:"RecordId"`
}

// UserInfo is the account summary returned by DescribeUserDetail.
type UserInfo struct {
	Nick  string `json:"Nick"`
	ID    int64  `json:"Id"`
	Email string `json:"Email"`
	Uin   int64  `json:"Uin"`
}

type userDetail struct {
	RequestID string   `json:"RequestId"`
	UserInfo  UserInfo `json:"UserInfo"`
}

// Client is a DNSPod API client.
type Client struct {
	api     *tc3.Client
	version string
	logger  *slog.Logger
}

// ClientOption is a functional option for configuring the Client.
type ClientOption func(*clientOptions)

type clientOptions struct {
	logger *slog.Logger
	api    []tc3.ClientOption
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(o *clientOptions) {
		o.api = append(o.api, tc3.WithHTTPClient(httpClient))
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(o *clientOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithAPIEndpoint sets a custom API endpoint URL (useful for testing).
// Requests are still signed for the configured host.
func WithAPIEndpoint(endpoint string) ClientOption {
	return func(o *clientOptions) {
		o.api = append(o.api, tc3.WithEndpoint(endpoint))
	}
}

// WithClock overrides the time source used for request timestamps.
func WithClock(now func() time.Time) ClientOption {
	return func(o *clientOptions) {
		o.api = append(o.api, tc3.WithClock(now))
	}
}

// NewClient creates a new DNSPod API client.
func NewClient(creds tc3.Credentials, host, region, version string, opts ...ClientOption) *Client {
	o := &clientOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}

	if host == "" {
		host = DefaultHost
	}
	if version == "" {
		version = DefaultVersion
	}

	signer := tc3.NewSigner(creds, Service, host)
	signer.SetRegion(region)

	apiOpts := append([]tc3.ClientOption{tc3.WithLogger(o.logger)}, o.api...)

	return &Client{
		api:     tc3.NewClient(signer, apiOpts...),
		version: version,
		logger:  o.logger,
	}
}

// call sends one action and decodes the Response object into out.
func (c *Client) call(ctx context.Context, action string, payload, out any) error {
	body, err := c.api.Call(ctx, action, c.version, payload)
	if err == nil {
		err = tc3.Decode(body, out)
	}
	return classify(err)
}

// classify maps wire failures onto the provider error taxonomy.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if apiErr, ok := tc3.IsAPIError(err); ok && apiErr.HasPrefix(codeAuthFailure) {
		return fmt.Errorf("%w: %w", provider.ErrUnauthorized, err)
	}
	if tc3.IsTransportError(err) {
		return fmt.Errorf("%w: %w", provider.ErrProviderUnavailable, err)
	}
	return err
}

// DescribeRecordList returns every record of domain. A domain with no
// records yields an empty list, not an error.
func (c *Client) DescribeRecordList(ctx context.Context, domain string) (*RecordList, error) {
	var out RecordList
	err := c.call(ctx, actionDescribeRecordList, map[string]string{"Domain": domain}, &out)
	if apiErr, ok := tc3.IsAPIError(err); ok && apiErr.Code == codeNoDataOfRecord {
		c.logger.Debug("domain has no records",
			slog.String("domain", domain),
			slog.String("request_id", apiErr.RequestID),
		)
		return &RecordList{RequestID: apiErr.RequestID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}

	c.logger.Debug("listed records",
		slog.String("domain", domain),
		slog.String("request_id", out.RequestID),
		slog.Int("count", len(out.RecordList)),
	)

	return &out, nil
}

// ModifyRecord rewrites an existing record.
func (c *Client) ModifyRecord(ctx context.Context, req ModifyRecordRequest) (*ModifyRecordResult, error) {
	var out ModifyRecordResult
	if err := c.call(ctx, actionModifyRecord, req, &out); err != nil {
		return nil, fmt.Errorf("modifying record %d: %w", req.RecordID, err)
	}
	return &out, nil
}

// DescribeUserDetail returns the account the credentials belong to. It is
// the cheapest signed call and serves as a credential check.
func (c *Client) DescribeUserDetail(ctx context.Context) (*UserInfo, error) {
	var out userDetail
	if err := c.call(ctx, actionDescribeUserDetail, nil, &out); err != nil {
		return nil, fmt.Errorf("describing user: %w", err)
	}
	return &out.UserInfo, nil
}

// String renders the list for debug output.
func (l *RecordList) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "request %s\n", l.RequestID)
	fmt.Fprintf(&b, "count: subdomains=%d listed=%d total=%d\n",
		l.RecordCountInfo.SubdomainCount, l.RecordCountInfo.ListCount, l.RecordCountInfo.TotalCount)
	fmt.Fprintf(&b, "records (%d):\n", len(l.RecordList))

	for i, r := range l.RecordList {
		fmt.Fprintf(&b, "\n#%d\n%s", i+1, r.String())
	}

	return b.String()
}

// String renders a single record, one field per line.
func (r RecordListItem) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "  id: %d\n", r.RecordID)
	fmt.Fprintf(&b, "  name: %s\n", r.Name)
	fmt.Fprintf(&b, "  type: %s\n", r.Type)
	fmt.Fprintf(&b, "  value: %s\n", r.Value)
	fmt.Fprintf(&b, "  ttl: %d\n", r.TTL)
	fmt.Fprintf(&b, "  line: %s\n", r.Line)
	fmt.Fprintf(&b, "  status: %s\n", r.Status)
	fmt.Fprintf(&b, "  monitor: %s\n", r.MonitorStatus)
	fmt.Fprintf(&b, "  updated: %s\n", r.UpdatedOn)
	if r.Weight != nil {
		fmt.Fprintf(&b, "  weight: %d\n", *r.Weight)
	}
	if r.Type == string(provider.RecordTypeMX) {
		fmt.Fprintf(&b, "  mx: %d\n", r.MX)
	}
	if r.Remark != "" {
		fmt.Fprintf(&b, "  remark: %s\n", r.Remark)
	}
	fmt.Fprintf(&b, "  default ns: %t\n", r.DefaultNS)

	return b.String()
}
