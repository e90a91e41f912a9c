package evaluator

import (
	"context"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"iotdash/internal/models"
	"iotdash/internal/notify"
)

const (
	// DefaultInterval is the poll period between evaluation cycles
	DefaultInterval = 5 * time.Second
	// lookbackRange is the recent window the latest reading is taken from
	lookbackRange = "1h"
)

// SensorClient provides the latest readings and the command path
type SensorClient interface {
	GetReadings(ctx context.Context, deviceID, timeRange, dataType string) ([]models.Reading, error)
	SendCommand(ctx context.Context, deviceID string, cmd models.Command) error
}

// RuleSource supplies the current rule collection each tick
type RuleSource interface {
	List() []models.AutomationRule
}

// AlertSink forwards a telegram rule's message for external delivery.
// May be nil when delivery is not configured.
type AlertSink interface {
	EnqueueTelegram(message string) error
}

// Evaluator periodically evaluates enabled rules against the latest
// sensor value and executes their actions. It owns its timer: Start arms
// it, Stop tears it down. Ticks run one at a time; a cycle that outlasts
// the interval delays the next tick instead of overlapping it.
type Evaluator struct {
	client   SensorClient
	rules    RuleSource
	notifier notify.Notifier
	alerts   AlertSink
	interval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates an evaluator with the default poll interval
func New(client SensorClient, rules RuleSource, notifier notify.Notifier, alerts AlertSink) *Evaluator {
	return &Evaluator{
		client:   client,
		rules:    rules,
		notifier: notifier,
		alerts:   alerts,
		interval: DefaultInterval,
	}
}

// SetInterval overrides the poll period; effective on the next Start
func (e *Evaluator) SetInterval(d time.Duration) {
	e.interval = d
}

// Start arms the evaluation timer. Calling Start on a running evaluator
// is a no-op.
func (e *Evaluator) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.done = make(chan struct{})
	go e.run(ctx, e.done)
	log.Printf("EVALUATOR: Started with %s interval", e.interval)
}

// Stop tears the timer down and waits for an in-flight cycle to finish
func (e *Evaluator) Stop() {
	e.mu.Lock()
	cancel, done := e.cancel, e.done
	e.cancel, e.done = nil, nil
	e.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	log.Printf("EVALUATOR: Stopped")
}

func (e *Evaluator) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.Tick(ctx)
		}
	}
}

// Tick evaluates every rule once, in stored order. A failure for one rule
// never interrupts evaluation of the remaining rules.
func (e *Evaluator) Tick(ctx context.Context) {
	for _, rule := range e.rules.List() {
		if ctx.Err() != nil {
			return
		}
		if !rule.Enabled {
			continue
		}
		if err := e.evaluateRule(ctx, rule); err != nil {
			log.Printf("EVALUATOR: Error checking rule %s: %v", rule.ID, err)
		}
	}
}

func (e *Evaluator) evaluateRule(ctx context.Context, rule models.AutomationRule) error {
	readings, err := e.client.GetReadings(ctx, rule.SensorDeviceID, lookbackRange, rule.SensorDataType)
	if err != nil {
		return fmt.Errorf("fetch readings: %w", err)
	}
	if len(readings) == 0 {
		return nil
	}

	value := readings[len(readings)-1].Value
	if !ConditionMet(rule.Condition, value, rule.Threshold) {
		return nil
	}

	log.Printf("EVALUATOR: Rule %s condition met (%s: %v %s %v)",
		rule.ID, rule.SensorDataType, value, rule.Condition, rule.Threshold)
	e.executeRule(ctx, rule)
	return nil
}

// ConditionMet applies a rule condition to the latest sensor value.
// Equality uses a 0.1 tolerance with an exclusive boundary.
func ConditionMet(cond models.Condition, value, threshold float64) bool {
	switch cond {
	case models.ConditionAbove:
		return value > threshold
	case models.ConditionBelow:
		return value < threshold
	case models.ConditionEquals:
		return math.Abs(value-threshold) < 0.1
	}
	return false
}

// executeRule dispatches the rule's action. Outcomes are surfaced through
// the notifier; a failed send is not retried within the tick since the
// next cycle re-evaluates the still-true condition anyway.
func (e *Evaluator) executeRule(ctx context.Context, rule models.AutomationRule) {
	switch rule.ActionType {
	case models.ActionDeviceCommand:
		if rule.TargetDeviceID == "" || rule.Command.IsZero() {
			return
		}
		if err := e.client.SendCommand(ctx, rule.TargetDeviceID, rule.Command); err != nil {
			log.Printf("EVALUATOR: Error executing rule %s: %v", rule.ID, err)
			e.notifier.Error(fmt.Sprintf("Failed to execute rule %q", rule.Name))
			return
		}
		e.notifier.Success(fmt.Sprintf("Rule %q executed: Command sent to device", rule.Name))
	case models.ActionTelegram:
		message := rule.Message
		if message == "" {
			message = "Telegram notification"
		}
		e.notifier.Info(fmt.Sprintf("Rule %q triggered: %s", rule.Name, message))
		if e.alerts != nil {
			if err := e.alerts.EnqueueTelegram(message); err != nil {
				log.Printf("EVALUATOR: Failed to enqueue telegram delivery for rule %s: %v", rule.ID, err)
			}
		}
	case models.ActionNotification:
		message := rule.Message
		if message == "" {
			message = "Notification"
		}
		e.notifier.Info(fmt.Sprintf("Rule %q triggered: %s", rule.Name, message))
	}
}
