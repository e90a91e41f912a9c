package alerts

import (
	"context"
	"errors"
	"strings"
	"testing"

	"iotdash/internal/models"
)

type fakeSettings struct {
	thresholds map[string]*models.SensorThreshold
	telegram   *models.TelegramSettings
}

func (f *fakeSettings) GetSensorThreshold(ctx context.Context, sensorID string) (*models.SensorThreshold, error) {
	return f.thresholds[sensorID], nil
}

func (f *fakeSettings) GetTelegramSettings(ctx context.Context) (*models.TelegramSettings, error) {
	return f.telegram, nil
}

type fakeDeliverer struct {
	messages []string
}

func (f *fakeDeliverer) EnqueueTelegram(message string) error {
	f.messages = append(f.messages, message)
	return nil
}

type fakeReader struct {
	devices     []models.Device
	readings    map[string][]models.Reading
	readingErrs map[string]error
}

func (f *fakeReader) ListDevices(ctx context.Context) ([]models.Device, error) {
	return f.devices, nil
}

func (f *fakeReader) GetReadings(ctx context.Context, deviceID, timeRange, dataType string) ([]models.Reading, error) {
	key := deviceID + "/" + dataType
	if err := f.readingErrs[key]; err != nil {
		return nil, err
	}
	return f.readings[key], nil
}

func enabledTelegram() *models.TelegramSettings {
	return &models.TelegramSettings{BotToken: "token", ChatID: "42", Enabled: true}
}

func snapshot(value float64) models.SensorSnapshot {
	return models.SensorSnapshot{
		ID:           "temp-1:temperature",
		Name:         "Greenhouse (temperature)",
		CurrentValue: value,
		Unit:         "temperature",
	}
}

func TestCheckSensorNotConfigured(t *testing.T) {
	cases := []struct {
		name     string
		settings *models.TelegramSettings
	}{
		{"no settings row", nil},
		{"disabled", &models.TelegramSettings{BotToken: "token", ChatID: "42", Enabled: false}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			deliverer := &fakeDeliverer{}
			c := NewChecker(&fakeSettings{telegram: tc.settings}, deliverer, nil)
			status, err := c.CheckSensor(context.Background(), snapshot(99))
			if err != nil {
				t.Fatalf("CheckSensor: %v", err)
			}
			if status != "Telegram not configured" {
				t.Fatalf("status = %q, want Telegram not configured", status)
			}
			if len(deliverer.messages) != 0 {
				t.Fatalf("alert delivered without configuration: %v", deliverer.messages)
			}
		})
	}
}

func TestCheckSensorNoThreshold(t *testing.T) {
	c := NewChecker(&fakeSettings{telegram: enabledTelegram()}, &fakeDeliverer{}, nil)
	status, err := c.CheckSensor(context.Background(), snapshot(99))
	if err != nil {
		t.Fatalf("CheckSensor: %v", err)
	}
	if status != "No threshold configured" {
		t.Fatalf("status = %q, want No threshold configured", status)
	}
}

func TestCheckSensorWithinThreshold(t *testing.T) {
	settings := &fakeSettings{
		telegram: enabledTelegram(),
		thresholds: map[string]*models.SensorThreshold{
			"temp-1:temperature": {SensorID: "temp-1:temperature", ThresholdValue: 30},
		},
	}
	deliverer := &fakeDeliverer{}
	c := NewChecker(settings, deliverer, nil)

	for _, value := range []float64{25, 30} {
		status, err := c.CheckSensor(context.Background(), snapshot(value))
		if err != nil {
			t.Fatalf("CheckSensor(%v): %v", value, err)
		}
		if status != "Within threshold" {
			t.Fatalf("status for %v = %q, want Within threshold", value, status)
		}
	}
	if len(deliverer.messages) != 0 {
		t.Fatalf("alerts delivered within threshold: %v", deliverer.messages)
	}
}

func TestCheckSensorExceededSendsAlert(t *testing.T) {
	settings := &fakeSettings{
		telegram: enabledTelegram(),
		thresholds: map[string]*models.SensorThreshold{
			"temp-1:temperature": {SensorID: "temp-1:temperature", ThresholdValue: 30},
		},
	}
	deliverer := &fakeDeliverer{}
	c := NewChecker(settings, deliverer, nil)

	status, err := c.CheckSensor(context.Background(), snapshot(31.2))
	if err != nil {
		t.Fatalf("CheckSensor: %v", err)
	}
	if status != "Alert sent" {
		t.Fatalf("status = %q, want Alert sent", status)
	}
	if len(deliverer.messages) != 1 {
		t.Fatalf("expected one alert, got %v", deliverer.messages)
	}
	msg := deliverer.messages[0]
	for _, want := range []string{"Threshold Exceeded", "Greenhouse (temperature)", "temp-1:temperature", "31.2", "30"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("alert message missing %q:\n%s", want, msg)
		}
	}
}

func TestSensorStreamID(t *testing.T) {
	if got := SensorStreamID("temp-1", "humidity"); got != "temp-1:humidity" {
		t.Fatalf("SensorStreamID = %q", got)
	}
}

func TestSweepChecksEveryStreamDespiteFailures(t *testing.T) {
	settings := &fakeSettings{
		telegram: enabledTelegram(),
		thresholds: map[string]*models.SensorThreshold{
			"temp-2:temperature": {SensorID: "temp-2:temperature", ThresholdValue: 30},
		},
	}
	reader := &fakeReader{
		devices: []models.Device{
			{ID: "temp-1", Name: "Broken", DataTypes: []string{"temperature"}},
			{ID: "temp-2", Name: "Greenhouse", DataTypes: []string{"temperature"}},
		},
		readings: map[string][]models.Reading{
			"temp-2/temperature": {{Value: 35}},
		},
		readingErrs: map[string]error{
			"temp-1/temperature": errors.New("backend unreachable"),
		},
	}
	deliverer := &fakeDeliverer{}
	c := NewChecker(settings, deliverer, reader)

	c.Sweep(context.Background())

	if len(deliverer.messages) != 1 {
		t.Fatalf("expected the healthy stream's alert, got %v", deliverer.messages)
	}
}
