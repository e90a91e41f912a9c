package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Device represents a device as reported by the backend directory
type Device struct {
	ID           string   `json:"device_id"`
	Name         string   `json:"name"`
	Type         string   `json:"type"`
	IPAddress    string   `json:"ip_address,omitempty"`
	Status       string   `json:"status"` // "online", "offline", "error"
	ConnectedAt  string   `json:"connected_at,omitempty"`
	LastSeen     string   `json:"last_seen,omitempty"`
	DataTypes    []string `json:"data_types,omitempty"`
	CommandTypes []string `json:"command_types,omitempty"`
	SSID         string   `json:"ssid,omitempty"`
	PubTopic     string   `json:"pub_topic,omitempty"`
	SubTopic     string   `json:"sub_topic,omitempty"`
}

// IsOnline reports whether the device can currently accept commands
func (d Device) IsOnline() bool {
	return strings.EqualFold(d.Status, "online")
}

// Reading is one sensor sample
type Reading struct {
	Timestamp string  `json:"timestamp"`
	Value     float64 `json:"value"`
}

// CommandKind discriminates the two command payload forms
type CommandKind int

const (
	CommandText CommandKind = iota
	CommandNumeric
)

// Command is a device command payload, either a text token (e.g. "ON")
// or a number (e.g. a brightness level). On the wire it is a bare JSON
// string or number.
type Command struct {
	Kind   CommandKind
	Text   string
	Number float64
}

// TextCommand builds a text command
func TextCommand(s string) Command {
	return Command{Kind: CommandText, Text: s}
}

// NumericCommand builds a numeric command
func NumericCommand(n float64) Command {
	return Command{Kind: CommandNumeric, Number: n}
}

// IsZero reports whether the command is unset
func (c Command) IsZero() bool {
	return c.Kind == CommandText && c.Text == ""
}

// Value returns the wire value of the command
func (c Command) Value() interface{} {
	if c.Kind == CommandNumeric {
		return c.Number
	}
	return c.Text
}

// String renders the command for logs and notifications
func (c Command) String() string {
	if c.Kind == CommandNumeric {
		if c.Number == float64(int64(c.Number)) {
			return fmt.Sprintf("%d", int64(c.Number))
		}
		return fmt.Sprintf("%g", c.Number)
	}
	return c.Text
}

// MarshalJSON emits a bare string or number
func (c Command) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Value())
}

// UnmarshalJSON accepts a bare string or number
func (c *Command) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*c = NumericCommand(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("command must be a string or a number: %w", err)
	}
	*c = TextCommand(s)
	return nil
}

// Condition is the comparison a rule applies to the latest sensor value
type Condition string

const (
	ConditionAbove  Condition = "above"
	ConditionBelow  Condition = "below"
	ConditionEquals Condition = "equals"
)

// ActionType selects what a rule does when its condition is met
type ActionType string

const (
	ActionDeviceCommand ActionType = "device_command"
	ActionTelegram      ActionType = "telegram"
	ActionNotification  ActionType = "notification"
)

// AutomationRule is a stored condition+action pair evaluated periodically
// against one sensor stream
type AutomationRule struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Enabled        bool       `json:"enabled"`
	SensorDeviceID string     `json:"sensorDeviceId"`
	SensorDataType string     `json:"sensorDataType"`
	Condition      Condition  `json:"condition"`
	Threshold      float64    `json:"threshold"`
	ActionType     ActionType `json:"actionType"`
	TargetDeviceID string     `json:"targetDeviceId,omitempty"`
	Command        Command    `json:"command"`
	Message        string     `json:"message,omitempty"`
}

// ControlType selects the widget rendered for a controllable device
type ControlType string

const (
	ControlSwitch ControlType = "switch"
	ControlSlider ControlType = "slider"
)

// ControlWidget is a persisted control bound to one controllable device.
// Device metadata is a cache of the directory entry and may be stale.
// On holds switch state, Level holds slider state; only the field matching
// ControlType is meaningful.
type ControlWidget struct {
	ID          string      `json:"id"`
	Device      Device      `json:"device"`
	ControlType ControlType `json:"control_type"`
	On          bool        `json:"on"`
	Level       int         `json:"level"`
}

// SensorSnapshot is the alert checker's view of one sensor
type SensorSnapshot struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	CurrentValue float64 `json:"currentValue"`
	Unit         string  `json:"unit"`
}

// SensorThreshold is a per-sensor alert threshold from the settings store
type SensorThreshold struct {
	SensorID       string  `json:"sensor_id"`
	ThresholdValue float64 `json:"threshold_value"`
	Unit           string  `json:"unit"`
}

// TelegramSettings holds the alert delivery credentials
type TelegramSettings struct {
	BotToken string `json:"bot_token"`
	ChatID   string `json:"chat_id"`
	Enabled  bool   `json:"enabled"`
}
