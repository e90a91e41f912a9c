package rulestore

import (
	"context"
	"errors"
	"testing"

	"iotdash/internal/models"
	"iotdash/internal/storage"
)

func validRule() models.AutomationRule {
	return models.AutomationRule{
		Name:           "Fan on when hot",
		Enabled:        true,
		SensorDeviceID: "temp-1",
		SensorDataType: "temperature",
		Condition:      models.ConditionAbove,
		Threshold:      30,
		ActionType:     models.ActionDeviceCommand,
		TargetDeviceID: "fan-1",
		Command:        models.TextCommand("ON"),
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*models.AutomationRule)
		wantErr bool
	}{
		{"valid", func(r *models.AutomationRule) {}, false},
		{"missing name", func(r *models.AutomationRule) { r.Name = "" }, true},
		{"missing sensor device", func(r *models.AutomationRule) { r.SensorDeviceID = "" }, true},
		{"missing data type", func(r *models.AutomationRule) { r.SensorDataType = "" }, true},
		{"unknown condition", func(r *models.AutomationRule) { r.Condition = "near" }, true},
		{"unknown action", func(r *models.AutomationRule) { r.ActionType = "email" }, true},
		{"device_command without target", func(r *models.AutomationRule) { r.TargetDeviceID = "" }, true},
		{"device_command without command", func(r *models.AutomationRule) { r.Command = models.Command{} }, true},
		{"telegram without target is fine", func(r *models.AutomationRule) {
			r.ActionType = models.ActionTelegram
			r.TargetDeviceID = ""
			r.Command = models.Command{}
		}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := validRule()
			tc.mutate(&r)
			err := Validate(r)
			if tc.wantErr && err == nil {
				t.Fatal("expected validation error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestAddAssignsIDAndPersists(t *testing.T) {
	store := storage.NewMemoryStore()
	s := New(store)

	created, err := s.Add(context.Background(), validRule())
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if created.ID == "" {
		t.Fatal("Add did not assign an id")
	}

	fresh := New(store)
	if err := fresh.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	rules := fresh.List()
	if len(rules) != 1 {
		t.Fatalf("reloaded %d rules, want 1", len(rules))
	}
	if rules[0] != created {
		t.Fatalf("round trip changed the rule: got %+v, want %+v", rules[0], created)
	}
}

func TestAddRejectsInvalid(t *testing.T) {
	store := storage.NewMemoryStore()
	s := New(store)

	bad := validRule()
	bad.Name = ""
	if _, err := s.Add(context.Background(), bad); err == nil {
		t.Fatal("Add accepted an invalid rule")
	}
	if len(s.List()) != 0 {
		t.Fatal("invalid rule was added to the collection")
	}
	data, err := store.Get(context.Background(), StorageKey)
	if err != nil {
		t.Fatalf("store get: %v", err)
	}
	if data != nil {
		t.Fatal("invalid rule was persisted")
	}
}

func TestLoadCorruptStartsEmpty(t *testing.T) {
	store := storage.NewMemoryStore()
	if err := store.Set(context.Background(), StorageKey, []byte("{not json")); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	s := New(store)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load should tolerate corrupt data, got %v", err)
	}
	if len(s.List()) != 0 {
		t.Fatalf("corrupt load produced rules: %v", s.List())
	}
}

func TestTogglePersists(t *testing.T) {
	store := storage.NewMemoryStore()
	s := New(store)
	created, err := s.Add(context.Background(), validRule())
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	enabled, err := s.Toggle(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if enabled {
		t.Fatal("toggle of an enabled rule should report disabled")
	}

	fresh := New(store)
	if err := fresh.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if fresh.List()[0].Enabled {
		t.Fatal("toggled state was not persisted")
	}
}

func TestUpdateAndDelete(t *testing.T) {
	store := storage.NewMemoryStore()
	s := New(store)
	created, err := s.Add(context.Background(), validRule())
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	created.Threshold = 35
	if err := s.Update(context.Background(), created); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err := s.Get(created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Threshold != 35 {
		t.Fatalf("threshold = %v, want 35", got.Threshold)
	}

	missing := created
	missing.ID = "ghost"
	if err := s.Update(context.Background(), missing); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Update missing rule error = %v, want ErrNotFound", err)
	}

	if err := s.Delete(context.Background(), created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after delete error = %v, want ErrNotFound", err)
	}
	if err := s.Delete(context.Background(), created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second Delete error = %v, want ErrNotFound", err)
	}
}

func TestListReturnsSnapshot(t *testing.T) {
	store := storage.NewMemoryStore()
	s := New(store)
	if _, err := s.Add(context.Background(), validRule()); err != nil {
		t.Fatalf("Add: %v", err)
	}

	snapshot := s.List()
	snapshot[0].Name = "mutated"
	if s.List()[0].Name == "mutated" {
		t.Fatal("List exposed internal state")
	}
}
