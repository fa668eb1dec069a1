package tc3

// TC3 signature constants.
const (
	// Algorithm is the signing algorithm identifier.
	Algorithm = "TC3-HMAC-SHA256"

	// RequestTerminator closes the credential scope and the key derivation chain.
	RequestTerminator = "tc3_request"

	// KeyPrefix is prepended to the secret key before the first HMAC round.
	KeyPrefix = "TC3"

	// Method is the only HTTP method used by the API.
	Method = "POST"

	// CanonicalURI is fixed; requests never carry a path.
	CanonicalURI = "/"

	// CanonicalQueryString is fixed; requests never carry a query.
	CanonicalQueryString = ""

	// ContentType is sent on the wire and hashed in the canonical headers.
	ContentType = "application/json; charset=utf-8"

	// SignedHeaders lists the canonical headers in hash order.
	SignedHeaders = "content-type;host;x-tc-action"

	// DateFormat is the credential scope date layout (UTC).
	DateFormat = "2006-01-02"
)

// Header names sent on every request.
const (
	HeaderAuthorization = "Authorization"
	HeaderContentType   = "Content-Type"
	HeaderHost          = "Host"
	HeaderAction        = "X-TC-Action"
	HeaderTimestamp     = "X-TC-Timestamp"
	HeaderVersion       = "X-TC-Version"
	HeaderRegion        = "X-TC-Region"
	HeaderToken         = "X-TC-Token"
)
