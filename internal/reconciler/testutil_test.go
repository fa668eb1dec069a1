package reconciler

import (
	"context"
	"io"
	"log/slog"
	"net/netip"
	"sync"
	"time"

	"gitlab.bluewillows.net/root/ddns6/pkg/provider"
)

// =============================================================================
// Mock Provider
// =============================================================================

type modifyCall struct {
	Record provider.Record
	Value  string
}

// testMockProvider implements provider.Provider for testing.
// It tracks all Modify calls for verification.
type testMockProvider struct {
	name string

	mu        sync.Mutex
	records   []provider.Record
	listErr   error
	listCalls int
	modified  []modifyCall
	modifyFn  func(ctx context.Context, r provider.Record, value string) error
}

func newTestMockProvider(records ...provider.Record) *testMockProvider {
	return &testMockProvider{name: "dnspod", records: records}
}

func (m *testMockProvider) Name() string { return m.name }
func (m *testMockProvider) Type() string { return "mock" }
func (m *testMockProvider) Ping(_ context.Context) error { return nil }

func (m *testMockProvider) List(_ context.Context) ([]provider.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]provider.Record, len(m.records))
	copy(out, m.records)
	return out, nil
}

func (m *testMockProvider) Modify(ctx context.Context, r provider.Record, value string) error {
	m.mu.Lock()
	fn := m.modifyFn
	m.mu.Unlock()

	if fn != nil {
		if err := fn(ctx, r, value); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.modified = append(m.modified, modifyCall{Record: r, Value: value})
	for i := range m.records {
		if m.records[i].ID == r.ID {
			m.records[i].Value = value
		}
	}
	return nil
}

func (m *testMockProvider) setListError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listErr = err
}

func (m *testMockProvider) modifyCalls() []modifyCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]modifyCall, len(m.modified))
	copy(out, m.modified)
	return out
}

func (m *testMockProvider) lists() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listCalls
}

// =============================================================================
// Mock Source
// =============================================================================

// testMockSource implements source.Source for testing.
type testMockSource struct {
	mu    sync.Mutex
	addrs []netip.Addr
	err   error
}

func newTestMockSource(addrs ...string) *testMockSource {
	s := &testMockSource{}
	for _, a := range addrs {
		s.addrs = append(s.addrs, netip.MustParseAddr(a))
	}
	return s
}

func (s *testMockSource) Name() string { return "mock" }

func (s *testMockSource) Addresses(_ context.Context) ([]netip.Addr, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return append([]netip.Addr(nil), s.addrs...), nil
}

func (s *testMockSource) set(addrs ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addrs = nil
	for _, a := range addrs {
		s.addrs = append(s.addrs, netip.MustParseAddr(a))
	}
}

// =============================================================================
// Helpers
// =============================================================================

func aaaa(id int64, name, value string) provider.Record {
	return provider.Record{
		ID:    id,
		Name:  name,
		Type:  provider.RecordTypeAAAA,
		Value: value,
		Line:  "默认",
		TTL:   600,
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fixedClock returns a clock advancing one second per call.
func fixedClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

func newTestReconciler(p *testMockProvider, s *testMockSource, cfg Config) *Reconciler {
	return New(p, s,
		WithLogger(testLogger()),
		WithConfig(cfg),
		WithClock(fixedClock()),
	)
}
