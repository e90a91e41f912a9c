package alerts

import (
	"context"
	"fmt"
	"log"
	"time"

	"iotdash/internal/models"
)

// SettingsStore provides thresholds and delivery credentials
type SettingsStore interface {
	GetSensorThreshold(ctx context.Context, sensorID string) (*models.SensorThreshold, error)
	GetTelegramSettings(ctx context.Context) (*models.TelegramSettings, error)
}

// Deliverer queues an alert message for external delivery
type Deliverer interface {
	EnqueueTelegram(message string) error
}

// SensorReader fetches devices and readings for the periodic sweep
type SensorReader interface {
	ListDevices(ctx context.Context) ([]models.Device, error)
	GetReadings(ctx context.Context, deviceID, timeRange, dataType string) ([]models.Reading, error)
}

// Checker compares sensor snapshots against stored thresholds and queues
// Telegram alerts when a reading exceeds its threshold
type Checker struct {
	settings  SettingsStore
	deliverer Deliverer
	reader    SensorReader
}

// NewChecker creates an alert checker
func NewChecker(settings SettingsStore, deliverer Deliverer, reader SensorReader) *Checker {
	return &Checker{settings: settings, deliverer: deliverer, reader: reader}
}

// SensorStreamID identifies the (device, data type) stream a threshold
// is stored against
func SensorStreamID(deviceID, dataType string) string {
	return deviceID + ":" + dataType
}

// CheckSensor checks one snapshot against its stored threshold and queues
// an alert when exceeded. The returned status message mirrors the
// collaborator's response body.
func (c *Checker) CheckSensor(ctx context.Context, snapshot models.SensorSnapshot) (string, error) {
	settings, err := c.settings.GetTelegramSettings(ctx)
	if err != nil {
		return "", fmt.Errorf("load telegram settings: %w", err)
	}
	if settings == nil || !settings.Enabled {
		return "Telegram not configured", nil
	}

	threshold, err := c.settings.GetSensorThreshold(ctx, snapshot.ID)
	if err != nil {
		return "", fmt.Errorf("load threshold: %w", err)
	}
	if threshold == nil {
		return "No threshold configured", nil
	}

	if snapshot.CurrentValue <= threshold.ThresholdValue {
		return "Within threshold", nil
	}

	log.Printf("ALERTS: Threshold exceeded for %s (%.2f > %.2f)",
		snapshot.ID, snapshot.CurrentValue, threshold.ThresholdValue)
	message := FormatAlert(snapshot, *threshold)
	if err := c.deliverer.EnqueueTelegram(message); err != nil {
		return "", fmt.Errorf("enqueue alert: %w", err)
	}
	return "Alert sent", nil
}

// FormatAlert renders the Markdown alert message
func FormatAlert(snapshot models.SensorSnapshot, threshold models.SensorThreshold) string {
	return fmt.Sprintf("🚨 *Alert: Threshold Exceeded*\n\n"+
		"*Sensor:* %s\n"+
		"*ID:* %s\n"+
		"*Current Value:* %g %s\n"+
		"*Threshold:* %g %s\n"+
		"*Time:* %s",
		snapshot.Name, snapshot.ID,
		snapshot.CurrentValue, snapshot.Unit,
		threshold.ThresholdValue, snapshot.Unit,
		time.Now().Format("2006-01-02 15:04:05"))
}

// Sweep checks the latest reading of every sensor stream. One stream's
// failure never blocks the rest.
func (c *Checker) Sweep(ctx context.Context) {
	devices, err := c.reader.ListDevices(ctx)
	if err != nil {
		log.Printf("ALERTS: Sweep skipped, device directory unavailable: %v", err)
		return
	}
	for _, device := range devices {
		for _, dataType := range device.DataTypes {
			if err := c.checkStream(ctx, device, dataType); err != nil {
				log.Printf("ALERTS: Error checking %s/%s: %v", device.ID, dataType, err)
			}
		}
	}
}

func (c *Checker) checkStream(ctx context.Context, device models.Device, dataType string) error {
	readings, err := c.reader.GetReadings(ctx, device.ID, "1h", dataType)
	if err != nil {
		return err
	}
	if len(readings) == 0 {
		return nil
	}
	snapshot := models.SensorSnapshot{
		ID:           SensorStreamID(device.ID, dataType),
		Name:         fmt.Sprintf("%s (%s)", device.Name, dataType),
		CurrentValue: readings[len(readings)-1].Value,
		Unit:         dataType,
	}
	status, err := c.CheckSensor(ctx, snapshot)
	if err != nil {
		return err
	}
	log.Printf("ALERTS: %s/%s: %s", device.ID, dataType, status)
	return nil
}
