package models

import (
	"encoding/json"
	"testing"
)

func TestCommandJSON(t *testing.T) {
	cases := []struct {
		name string
		cmd  Command
		wire string
	}{
		{"text", TextCommand("ON"), `"ON"`},
		{"integer", NumericCommand(75), `75`},
		{"fractional", NumericCommand(21.5), `21.5`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := json.Marshal(tc.cmd)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if string(data) != tc.wire {
				t.Fatalf("wire form = %s, want %s", data, tc.wire)
			}
			var back Command
			if err := json.Unmarshal(data, &back); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if back != tc.cmd {
				t.Fatalf("round trip = %+v, want %+v", back, tc.cmd)
			}
		})
	}

	var bad Command
	if err := json.Unmarshal([]byte(`{"cmd": "ON"}`), &bad); err == nil {
		t.Fatal("object accepted as a command")
	}
}

func TestCommandString(t *testing.T) {
	cases := []struct {
		cmd  Command
		want string
	}{
		{TextCommand("ON"), "ON"},
		{NumericCommand(75), "75"},
		{NumericCommand(21.5), "21.5"},
	}
	for _, tc := range cases {
		if got := tc.cmd.String(); got != tc.want {
			t.Fatalf("String() = %q, want %q", got, tc.want)
		}
	}
}

func TestAutomationRuleJSONKeys(t *testing.T) {
	rule := AutomationRule{
		ID:             "rule-1",
		Name:           "Fan on when hot",
		Enabled:        true,
		SensorDeviceID: "temp-1",
		SensorDataType: "temperature",
		Condition:      ConditionAbove,
		Threshold:      30,
		ActionType:     ActionDeviceCommand,
		TargetDeviceID: "fan-1",
		Command:        TextCommand("ON"),
	}
	data, err := json.Marshal(rule)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"sensorDeviceId", "sensorDataType", "actionType", "targetDeviceId", "condition", "threshold"} {
		if _, ok := raw[key]; !ok {
			t.Fatalf("serialized rule missing %q key, got %s", key, data)
		}
	}
}

func TestDeviceIsOnline(t *testing.T) {
	cases := []struct {
		status string
		want   bool
	}{
		{"online", true},
		{"Online", true},
		{"ONLINE", true},
		{"offline", false},
		{"error", false},
		{"", false},
	}
	for _, tc := range cases {
		d := Device{Status: tc.status}
		if got := d.IsOnline(); got != tc.want {
			t.Fatalf("IsOnline(%q) = %t, want %t", tc.status, got, tc.want)
		}
	}
}
