package storage

import (
	"context"
	"testing"
)

func TestMemoryStoreMissingKey(t *testing.T) {
	s := NewMemoryStore()
	data, err := s.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Get missing key: %v", err)
	}
	if data != nil {
		t.Fatalf("missing key returned %v, want nil", data)
	}
}

func TestMemoryStoreSetGet(t *testing.T) {
	s := NewMemoryStore()
	if err := s.Set(context.Background(), "k", []byte("v1")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set(context.Background(), "k", []byte("v2")); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	data, err := s.Get(context.Background(), "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(data) != "v2" {
		t.Fatalf("Get = %q, want v2", data)
	}
}
