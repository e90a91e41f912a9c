package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"iotdash/internal/models"
)

// requestTimeout bounds every backend call so a stuck request cannot hold
// a rule or widget pending forever
const requestTimeout = 5 * time.Second

// Client talks to the device backend's REST API. It covers both the device
// directory and the reading/command endpoints.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a backend client for the given base URL
// (e.g. http://localhost:5000/api)
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: requestTimeout},
	}
}

// rawDevice tolerates the backend's loose field typing: array fields may
// arrive as JSON strings and command_types may be named "commands"
type rawDevice struct {
	DeviceID     string          `json:"device_id"`
	Name         string          `json:"name"`
	Type         string          `json:"type"`
	IPAddress    string          `json:"ip_address"`
	IP           string          `json:"ip"`
	Status       string          `json:"status"`
	ConnectedAt  string          `json:"connected_at"`
	LastSeen     string          `json:"last_seen"`
	DataTypes    json.RawMessage `json:"data_types"`
	CommandTypes json.RawMessage `json:"command_types"`
	Commands     json.RawMessage `json:"commands"`
	SSID         string          `json:"ssid"`
	PubTopic     string          `json:"pub_topic"`
	SubTopic     string          `json:"sub_topic"`
}

// parseStringArray accepts a JSON array or a JSON-encoded array string
func parseStringArray(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var arr []string
	if err := json.Unmarshal(raw, &arr); err == nil {
		return arr
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	if err := json.Unmarshal([]byte(s), &arr); err != nil {
		return nil
	}
	return arr
}

func (r rawDevice) normalize() models.Device {
	status := strings.ToLower(r.Status)
	if status == "" {
		status = "offline"
	}
	commandTypes := parseStringArray(r.CommandTypes)
	if len(commandTypes) == 0 {
		commandTypes = parseStringArray(r.Commands)
	}
	ip := r.IPAddress
	if ip == "" {
		ip = r.IP
	}
	return models.Device{
		ID:           r.DeviceID,
		Name:         r.Name,
		Type:         r.Type,
		IPAddress:    ip,
		Status:       status,
		ConnectedAt:  r.ConnectedAt,
		LastSeen:     r.LastSeen,
		DataTypes:    parseStringArray(r.DataTypes),
		CommandTypes: commandTypes,
		SSID:         r.SSID,
		PubTopic:     r.PubTopic,
		SubTopic:     r.SubTopic,
	}
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("backend unreachable at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("backend returned status %d for %s", resp.StatusCode, path)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// ListDevices fetches the full device directory
func (c *Client) ListDevices(ctx context.Context) ([]models.Device, error) {
	var raw []rawDevice
	if err := c.get(ctx, "/devices", &raw); err != nil {
		return nil, err
	}
	devices := make([]models.Device, 0, len(raw))
	for _, r := range raw {
		devices = append(devices, r.normalize())
	}
	return devices, nil
}

// ListControllableDevices fetches devices that accept commands
func (c *Client) ListControllableDevices(ctx context.Context) ([]models.Device, error) {
	var raw []rawDevice
	if err := c.get(ctx, "/devices/commandable", &raw); err != nil {
		return nil, err
	}
	devices := make([]models.Device, 0, len(raw))
	for _, r := range raw {
		devices = append(devices, r.normalize())
	}
	return devices, nil
}

// GetDeviceDetails fetches one device by id
func (c *Client) GetDeviceDetails(ctx context.Context, deviceID string) (models.Device, error) {
	var raw rawDevice
	if err := c.get(ctx, "/devices/"+url.PathEscape(deviceID), &raw); err != nil {
		return models.Device{}, err
	}
	return raw.normalize(), nil
}

// GetReadings fetches historical readings for one sensor stream, ordered
// oldest to newest
func (c *Client) GetReadings(ctx context.Context, deviceID, timeRange, dataType string) ([]models.Reading, error) {
	params := url.Values{}
	params.Set("range", timeRange)
	if dataType != "" {
		params.Set("type", dataType)
	}
	path := fmt.Sprintf("/devices/%s/readings?%s", url.PathEscape(deviceID), params.Encode())
	var readings []models.Reading
	if err := c.get(ctx, path, &readings); err != nil {
		return nil, err
	}
	return readings, nil
}

// SendCommand submits a command to a device
func (c *Client) SendCommand(ctx context.Context, deviceID string, cmd models.Command) error {
	body, err := json.Marshal(map[string]interface{}{"command": cmd.Value()})
	if err != nil {
		return err
	}
	path := fmt.Sprintf("%s/devices/%s/command", c.baseURL, url.PathEscape(deviceID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("backend unreachable at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("command rejected with status %d", resp.StatusCode)
	}
	return nil
}
