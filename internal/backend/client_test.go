package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"iotdash/internal/models"
)

func TestListDevicesNormalizes(t *testing.T) {
	payload := `[
		{
			"device_id": "temp-1",
			"name": "Greenhouse Sensor",
			"type": "sensor",
			"status": "ONLINE",
			"data_types": "[\"temperature\", \"humidity\"]"
		},
		{
			"device_id": "fan-1",
			"name": "Exhaust Fan",
			"type": "actuator",
			"commands": ["switch"]
		}
	]`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/devices" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		io.WriteString(w, payload)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	devices, err := client.ListDevices(context.Background())
	if err != nil {
		t.Fatalf("ListDevices: %v", err)
	}
	if len(devices) != 2 {
		t.Fatalf("got %d devices, want 2", len(devices))
	}

	sensor := devices[0]
	if sensor.Status != "online" {
		t.Fatalf("status = %q, want lowercased online", sensor.Status)
	}
	if !sensor.IsOnline() {
		t.Fatal("ONLINE sensor not reported online")
	}
	if len(sensor.DataTypes) != 2 || sensor.DataTypes[0] != "temperature" {
		t.Fatalf("data types from JSON-string not parsed: %v", sensor.DataTypes)
	}

	fan := devices[1]
	if fan.Status != "offline" {
		t.Fatalf("missing status defaulted to %q, want offline", fan.Status)
	}
	if len(fan.CommandTypes) != 1 || fan.CommandTypes[0] != "switch" {
		t.Fatalf("commands alias not mapped to command types: %v", fan.CommandTypes)
	}
}

func TestGetReadingsQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/devices/temp-1/readings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("range"); got != "1h" {
			t.Errorf("range = %q, want 1h", got)
		}
		if got := r.URL.Query().Get("type"); got != "temperature" {
			t.Errorf("type = %q, want temperature", got)
		}
		io.WriteString(w, `[{"timestamp": "2026-08-29T10:00:00Z", "value": 31.2}]`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	readings, err := client.GetReadings(context.Background(), "temp-1", "1h", "temperature")
	if err != nil {
		t.Fatalf("GetReadings: %v", err)
	}
	if len(readings) != 1 || readings[0].Value != 31.2 {
		t.Fatalf("readings = %v", readings)
	}
}

func TestSendCommandBody(t *testing.T) {
	cases := []struct {
		name     string
		command  models.Command
		wantBody string
	}{
		{"text", models.TextCommand("ON"), `{"command":"ON"}`},
		{"numeric", models.NumericCommand(75), `{"command":75}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var gotBody string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("method = %s, want POST", r.Method)
				}
				if r.URL.Path != "/devices/fan-1/command" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				raw, _ := io.ReadAll(r.Body)
				gotBody = string(raw)
				w.WriteHeader(200)
			}))
			defer srv.Close()

			client := NewClient(srv.URL)
			if err := client.SendCommand(context.Background(), "fan-1", tc.command); err != nil {
				t.Fatalf("SendCommand: %v", err)
			}
			if gotBody != tc.wantBody {
				t.Fatalf("body = %s, want %s", gotBody, tc.wantBody)
			}
		})
	}
}

func TestSendCommandRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(500)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	if err := client.SendCommand(context.Background(), "fan-1", models.TextCommand("ON")); err == nil {
		t.Fatal("expected error on 500 response")
	}
}

func TestGetDeviceDetailsUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := NewClient(srv.URL)
	if _, err := client.GetDeviceDetails(context.Background(), "temp-1"); err == nil {
		t.Fatal("expected error when backend is unreachable")
	}
}

func TestParseStringArray(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want int
	}{
		{"plain array", `["a","b"]`, 2},
		{"json string array", `"[\"a\"]"`, 1},
		{"empty", ``, 0},
		{"garbage", `"not an array"`, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := parseStringArray(json.RawMessage(tc.raw))
			if len(got) != tc.want {
				t.Fatalf("parseStringArray(%s) = %v, want %d items", tc.raw, got, tc.want)
			}
		})
	}
}
