// Package tc3 implements the Tencent Cloud API 3.0 request signing scheme
// (TC3-HMAC-SHA256) and a minimal JSON-over-HTTPS client built on it.
//
// Every API call is an HTTPS POST whose body is a JSON document. The request
// is authenticated by hashing a canonical form of the request, signing that
// hash with a key derived from the secret key, the request date and the
// service name, and sending the result in the Authorization header:
//
//	canonical request = POST \n / \n <empty query> \n <canonical headers> \n <signed headers> \n hex(sha256(payload))
//	string to sign    = TC3-HMAC-SHA256 \n <timestamp> \n <date>/<service>/tc3_request \n hex(sha256(canonical request))
//	signing key       = HMAC(HMAC(HMAC("TC3"+secretKey, date), service), "tc3_request")
//	signature         = hex(HMAC(signing key, string to sign))
//
// The canonical headers are fixed to content-type, host and x-tc-action. The
// action is lowercased in the canonical form but sent with its original casing
// in the X-TC-Action header. The timestamp is captured once per request and
// reused for both the signature and the X-TC-Timestamp header; any difference
// between the hashed fields and the wire request makes the provider reject the
// call with an authentication error.
//
// # Usage
//
//	signer := tc3.NewSigner(tc3.Credentials{SecretID: id, SecretKey: key}, "dnspod", "dnspod.tencentcloudapi.com")
//	client := tc3.NewClient(signer, tc3.WithLogger(logger))
//
//	body, err := client.Call(ctx, "DescribeRecordList", "2021-03-23", map[string]string{"Domain": "example.com"})
//	if err != nil {
//	    return err
//	}
//
//	var out describeRecordListResponse
//	if err := tc3.Decode(body, &out); err != nil {
//	    // *tc3.APIError when the provider reported Response.Error
//	}
package tc3
