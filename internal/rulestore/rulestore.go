package rulestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"iotdash/internal/models"
	"iotdash/internal/storage"
)

// StorageKey is the fixed key the rule collection is persisted under
const StorageKey = "automation:rules"

// ErrNotFound is returned when a rule id does not exist
var ErrNotFound = errors.New("rule not found")

// RuleStore is the durable collection of automation rules. Mutations
// replace the whole collection and write it through to the store.
type RuleStore struct {
	mu    sync.RWMutex
	store storage.Store
	rules []models.AutomationRule
}

// New creates a rule store backed by the given persistence port
func New(store storage.Store) *RuleStore {
	return &RuleStore{store: store}
}

// Load reads the persisted collection. A corrupt entry is reported and
// load proceeds with an empty collection.
func (s *RuleStore) Load(ctx context.Context) error {
	data, err := s.store.Get(ctx, StorageKey)
	if err != nil {
		return fmt.Errorf("read rules: %w", err)
	}
	if data == nil {
		log.Printf("RULESTORE: No persisted rules found")
		return nil
	}
	var rules []models.AutomationRule
	if err := json.Unmarshal(data, &rules); err != nil {
		log.Printf("RULESTORE: Corrupt rule collection, starting empty: %v", err)
		return nil
	}
	s.mu.Lock()
	s.rules = rules
	s.mu.Unlock()
	log.Printf("RULESTORE: Loaded %d rules", len(rules))
	return nil
}

// List returns a snapshot of the collection in stored order
func (s *RuleStore) List() []models.AutomationRule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.AutomationRule, len(s.rules))
	copy(out, s.rules)
	return out
}

// Get returns one rule by id
func (s *RuleStore) Get(id string) (models.AutomationRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.rules {
		if r.ID == id {
			return r, nil
		}
	}
	return models.AutomationRule{}, ErrNotFound
}

// Validate rejects incomplete rules before anything is persisted
func Validate(r models.AutomationRule) error {
	if r.Name == "" {
		return errors.New("rule name is required")
	}
	if r.SensorDeviceID == "" || r.SensorDataType == "" {
		return errors.New("sensor device and data type are required")
	}
	switch r.Condition {
	case models.ConditionAbove, models.ConditionBelow, models.ConditionEquals:
	default:
		return fmt.Errorf("unknown condition %q", r.Condition)
	}
	switch r.ActionType {
	case models.ActionDeviceCommand:
		if r.TargetDeviceID == "" || r.Command.IsZero() {
			return errors.New("device_command rules need a target device and a command")
		}
	case models.ActionTelegram, models.ActionNotification:
	default:
		return fmt.Errorf("unknown action type %q", r.ActionType)
	}
	return nil
}

// Add validates and appends a rule, assigning a time-based id when none
// is supplied, then persists the collection
func (s *RuleStore) Add(ctx context.Context, r models.AutomationRule) (models.AutomationRule, error) {
	if err := Validate(r); err != nil {
		return models.AutomationRule{}, err
	}
	if r.ID == "" {
		r.ID = fmt.Sprintf("rule-%d", time.Now().UnixMilli())
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make([]models.AutomationRule, len(s.rules), len(s.rules)+1)
	copy(next, s.rules)
	next = append(next, r)
	if err := s.persist(ctx, next); err != nil {
		return models.AutomationRule{}, err
	}
	s.rules = next
	log.Printf("RULESTORE: Added rule %s (%s)", r.ID, r.Name)
	return r, nil
}

// Update validates and replaces an existing rule, then persists
func (s *RuleStore) Update(ctx context.Context, r models.AutomationRule) error {
	if err := Validate(r); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make([]models.AutomationRule, len(s.rules))
	copy(next, s.rules)
	found := false
	for i := range next {
		if next[i].ID == r.ID {
			next[i] = r
			found = true
			break
		}
	}
	if !found {
		return ErrNotFound
	}
	if err := s.persist(ctx, next); err != nil {
		return err
	}
	s.rules = next
	log.Printf("RULESTORE: Updated rule %s (%s)", r.ID, r.Name)
	return nil
}

// Delete removes a rule by id and persists
func (s *RuleStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make([]models.AutomationRule, 0, len(s.rules))
	found := false
	for _, r := range s.rules {
		if r.ID == id {
			found = true
			continue
		}
		next = append(next, r)
	}
	if !found {
		return ErrNotFound
	}
	if err := s.persist(ctx, next); err != nil {
		return err
	}
	s.rules = next
	log.Printf("RULESTORE: Deleted rule %s", id)
	return nil
}

// Toggle flips a rule's enabled flag, persists, and returns the new value
func (s *RuleStore) Toggle(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make([]models.AutomationRule, len(s.rules))
	copy(next, s.rules)
	enabled := false
	found := false
	for i := range next {
		if next[i].ID == id {
			next[i].Enabled = !next[i].Enabled
			enabled = next[i].Enabled
			found = true
			break
		}
	}
	if !found {
		return false, ErrNotFound
	}
	if err := s.persist(ctx, next); err != nil {
		return false, err
	}
	s.rules = next
	log.Printf("RULESTORE: Rule %s enabled=%t", id, enabled)
	return enabled, nil
}

// persist writes the candidate collection; callers hold the write lock
func (s *RuleStore) persist(ctx context.Context, rules []models.AutomationRule) error {
	data, err := json.Marshal(rules)
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, StorageKey, data); err != nil {
		return fmt.Errorf("persist rules: %w", err)
	}
	return nil
}
