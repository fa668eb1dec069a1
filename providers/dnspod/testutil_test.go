package dnspod

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"gitlab.bluewillows.net/root/ddns6/pkg/tc3"
)

// apiCall is one request seen by fakeAPI.
type apiCall struct {
	Action  string
	Version string
	Body    string
	Header  http.Header
}

// fakeAPI stands in for the DNSPod endpoint. Responses are keyed by action;
// an action without a response gets an InvalidAction error envelope.
type fakeAPI struct {
	t         *testing.T
	server    *httptest.Server
	mu        sync.Mutex
	calls     []apiCall
	responses map[string]string
	status    map[string]int
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	f := &fakeAPI{
		t:         t,
		responses: make(map[string]string),
		status:    make(map[string]int),
	}
	f.server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeAPI) handle(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		f.t.Errorf("reading body: %v", err)
	}

	action := r.Header.Get(tc3.HeaderAction)

	f.mu.Lock()
	f.calls = append(f.calls, apiCall{
		Action:  action,
		Version: r.Header.Get(tc3.HeaderVersion),
		Body:    string(body),
		Header:  r.Header.Clone(),
	})
	resp, ok := f.responses[action]
	status := f.status[action]
	f.mu.Unlock()

	if !ok {
		resp = `{"Response":{"Error":{"Code":"InvalidAction","Message":"unexpected action"},"RequestId":"req-x"}}`
	}
	if status != 0 {
		w.WriteHeader(status)
	}
	_, _ = io.WriteString(w, resp)
}

func (f *fakeAPI) respond(action, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[action] = body
}

func (f *fakeAPI) callsFor(action string) []apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []apiCall
	for _, c := range f.calls {
		if c.Action == action {
			out = append(out, c)
		}
	}
	return out
}

func testConfig() *Config {
	return &Config{
		SecretID:  "AKIDEXAMPLE",
		SecretKey: "SECRETKEYEXAMPLE",
		Domain:    "example.com",
		Host:      DefaultHost,
		Version:   DefaultVersion,
	}
}

func newTestProvider(t *testing.T, endpoint string) *Provider {
	t.Helper()
	p, err := New("test-dnspod", testConfig(), WithClientOptions(WithAPIEndpoint(endpoint)))
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}
	return p
}

const recordListResponse = `{
  "Response": {
    "RequestId": "req-list",
    "RecordCountInfo": {"SubdomainCount": 2, "ListCount": 3, "TotalCount": 3},
    "RecordList": [
      {"RecordId": 1, "Value": "2001:db8::1", "Status": "ENABLE", "UpdatedOn": "2024-01-01 00:00:00",
       "Name": "@", "Line": "默认", "LineId": "0", "Type": "AAAA", "Weight": null,
       "MonitorStatus": "", "Remark": "", "TTL": 600, "MX": 0, "DefaultNS": false},
      {"RecordId": 2, "Value": "f1g1ns1.dnspod.net.", "Status": "ENABLE", "UpdatedOn": "2024-01-01 00:00:00",
       "Name": "@", "Line": "默认", "LineId": "0", "Type": "NS", "Weight": null,
       "MonitorStatus": "", "Remark": "", "TTL": 86400, "MX": 0, "DefaultNS": true},
      {"RecordId": 3, "Value": "2001:db8::1", "Status": "ENABLE", "UpdatedOn": "2024-01-02 00:00:00",
       "Name": "home", "Line": "电信", "LineId": "10=0", "Type": "AAAA", "Weight": 5,
       "MonitorStatus": "OK", "Remark": "router", "TTL": 300, "MX": 0, "DefaultNS": false}
    ]
  }
}`
