package tc3

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ErrMissingCredentials is returned when the secret id or key is empty.
var ErrMissingCredentials = errors.New("tc3: secret id and secret key are required")

// Credentials identify the caller. They are read-only after construction.
type Credentials struct {
	SecretID  string
	SecretKey string
	// Token is the optional session token for temporary credentials.
	// It is always sent, possibly empty.
	Token string
}

// Validate checks that the long-lived parts of the credentials are set.
func (c Credentials) Validate() error {
	if c.SecretID == "" || c.SecretKey == "" {
		return ErrMissingCredentials
	}
	return nil
}

// SigningContext holds the per-request values that enter the signature.
// Timestamp and Date are derived once and must be reused unchanged for the
// transport headers.
type SigningContext struct {
	Service   string
	Host      string
	Region    string
	Timestamp int64
	Date      string
}

// NewSigningContext derives the timestamp and UTC date from t.
func NewSigningContext(service, host, region string, t time.Time) SigningContext {
	ts := t.Unix()
	return SigningContext{
		Service:   service,
		Host:      host,
		Region:    region,
		Timestamp: ts,
		Date:      time.Unix(ts, 0).UTC().Format(DateFormat),
	}
}

// Signed is the result of signing one request.
type Signed struct {
	SigningContext
	CanonicalRequest string
	StringToSign     string
	Signature        string
	Authorization    string
}

// HashHex returns the lowercase hex SHA-256 digest of data.
func HashHex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func hmacSHA256(key, data []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	return mac.Sum(nil)
}

// CanonicalHeaders returns the canonical header block, newline terminated.
func CanonicalHeaders(host, action string) string {
	return "content-type:" + ContentType + "\n" +
		"host:" + host + "\n" +
		"x-tc-action:" + strings.ToLower(action) + "\n"
}

// CanonicalRequest builds the six-line canonical form of a request.
func CanonicalRequest(host, action string, payload []byte) string {
	return strings.Join([]string{
		Method,
		CanonicalURI,
		CanonicalQueryString,
		CanonicalHeaders(host, action),
		SignedHeaders,
		HashHex(payload),
	}, "\n")
}

// CredentialScope returns "<date>/<service>/tc3_request".
func CredentialScope(date, service string) string {
	return date + "/" + service + "/" + RequestTerminator
}

// StringToSign builds the string signed by the derived key.
func StringToSign(timestamp int64, scope, canonicalRequest string) string {
	return strings.Join([]string{
		Algorithm,
		strconv.FormatInt(timestamp, 10),
		scope,
		HashHex([]byte(canonicalRequest)),
	}, "\n")
}

// DeriveSigningKey runs the date, service and terminator HMAC chain.
func DeriveSigningKey(secretKey, date, service string) []byte {
	secretDate := hmacSHA256([]byte(KeyPrefix+secretKey), []byte(date))
	secretService := hmacSHA256(secretDate, []byte(service))
	return hmacSHA256(secretService, []byte(RequestTerminator))
}

// Signature returns the lowercase hex HMAC-SHA256 of stringToSign under key.
func Signature(key []byte, stringToSign string) string {
	return hex.EncodeToString(hmacSHA256(key, []byte(stringToSign)))
}

// Authorization formats the Authorization header value.
func Authorization(secretID, scope, signature string) string {
	return fmt.Sprintf("%s Credential=%s/%s, SignedHeaders=%s, Signature=%s",
		Algorithm, secretID, scope, SignedHeaders, signature)
}

// Signer signs requests for one service endpoint.
type Signer struct {
	creds   Credentials
	service string
	host    string
	region  string
}

// NewSigner creates a Signer for service at host. The region is empty until
// set with SetRegion; most DNSPod actions do not need one.
func NewSigner(creds Credentials, service, host string) *Signer {
	return &Signer{
		creds:   creds,
		service: service,
		host:    host,
	}
}

// SetRegion sets the X-TC-Region value.
func (s *Signer) SetRegion(region string) {
	s.region = region
}

// Service returns the service name used in the credential scope.
func (s *Signer) Service() string { return s.service }

// Host returns the API host hashed into the canonical headers.
func (s *Signer) Host() string { return s.host }

// Sign computes the signature of action with payload at time t.
func (s *Signer) Sign(action string, payload []byte, t time.Time) Signed {
	sc := NewSigningContext(s.service, s.host, s.region, t)

	canonical := CanonicalRequest(sc.Host, action, payload)
	scope := CredentialScope(sc.Date, sc.Service)
	toSign := StringToSign(sc.Timestamp, scope, canonical)
	sig := Signature(DeriveSigningKey(s.creds.SecretKey, sc.Date, sc.Service), toSign)

	return Signed{
		SigningContext:   sc,
		CanonicalRequest: canonical,
		StringToSign:     toSign,
		Signature:        sig,
		Authorization:    Authorization(s.creds.SecretID, scope, sig),
	}
}

// NewRequest builds a signed POST to endpoint. The payload slice is both
// hashed and sent as the body, and Host is forced to the signed host so a
// custom endpoint (a test server, a proxy) does not break the signature.
func (s *Signer) NewRequest(ctx context.Context, endpoint, action, version string, payload []byte, t time.Time) (*http.Request, Signed, error) {
	signed := s.Sign(action, payload, t)

	req, err := http.NewRequestWithContext(ctx, Method, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, Signed{}, fmt.Errorf("creating request: %w", err)
	}

	req.Host = signed.Host
	req.Header.Set(HeaderAuthorization, signed.Authorization)
	req.Header.Set(HeaderContentType, ContentType)
	req.Header.Set(HeaderHost, signed.Host)
	req.Header.Set(HeaderAction, action)
	req.Header.Set(HeaderTimestamp, strconv.FormatInt(signed.Timestamp, 10))
	req.Header.Set(HeaderVersion, version)
	req.Header.Set(HeaderRegion, signed.Region)
	req.Header.Set(HeaderToken, s.creds.Token)

	return req, signed, nil
}
