package provider

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

// mockProvider implements Provider for testing.
type mockProvider struct {
	name     string
	typeName string
	pingErr  error
	records  []Record
}

func (m *mockProvider) Name() string                                        { return m.name }
func (m *mockProvider) Type() string                                        { return m.typeName }
func (m *mockProvider) Ping(ctx context.Context) error                      { return m.pingErr }
func (m *mockProvider) List(ctx context.Context) ([]Record, error)          { return m.records, nil }
func (m *mockProvider) Modify(ctx context.Context, r Record, v string) error { return nil }

func TestRegistry_Create(t *testing.T) {
	r := NewRegistry()

	var gotConfig map[string]string
	r.RegisterFactory("test", func(name string, config map[string]string) (Provider, error) {
		gotConfig = config
		return &mockProvider{name: name, typeName: "test"}, nil
	})

	p, err := r.Create("test", "primary", map[string]string{"DOMAIN": "example.com"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if p.Name() != "primary" {
		t.Errorf("expected name primary, got %s", p.Name())
	}
	if gotConfig["DOMAIN"] != "example.com" {
		t.Errorf("factory did not receive config: %v", gotConfig)
	}
}

func TestRegistry_Create_UnknownType(t *testing.T) {
	r := NewRegistry()

	_, err := r.Create("unknown", "x", nil)
	if !errors.Is(err, ErrUnknownType) {
		t.Errorf("expected ErrUnknownType, got %v", err)
	}
}

func TestRegistry_Create_FactoryError(t *testing.T) {
	r := NewRegistry()
	factoryErr := ErrConfigMissing("SECRET_ID")
	r.RegisterFactory("test", func(name string, config map[string]string) (Provider, error) {
		return nil, factoryErr
	})

	_, err := r.Create("test", "broken", nil)
	if !errors.Is(err, factoryErr) {
		t.Errorf("expected factory error to be wrapped, got %v", err)
	}
}

func TestRegistry_RegisterFactory_Overwrite(t *testing.T) {
	r := NewRegistry()

	r.RegisterFactory("test", func(name string, config map[string]string) (Provider, error) {
		return &mockProvider{name: "first"}, nil
	})
	r.RegisterFactory("test", func(name string, config map[string]string) (Provider, error) {
		return &mockProvider{name: "second"}, nil
	})

	p, err := r.Create("test", "ignored", nil)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if p.Name() != "second" {
		t.Errorf("expected second factory to win, got %s", p.Name())
	}
}

func TestRegistry_Types(t *testing.T) {
	r := NewRegistry()
	noop := func(name string, config map[string]string) (Provider, error) { return nil, nil }

	r.RegisterFactory("zeta", noop)
	r.RegisterFactory("dnspod", noop)

	if got := r.Types(); !reflect.DeepEqual(got, []string{"dnspod", "zeta"}) {
		t.Errorf("unexpected types: %v", got)
	}
}
