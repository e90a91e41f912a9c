package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"iotdash/internal/models"
)

// GetSensorThreshold fetches the alert threshold for one sensor.
// Returns (nil, nil) when no threshold is configured.
func (d *DB) GetSensorThreshold(ctx context.Context, sensorID string) (*models.SensorThreshold, error) {
	var t models.SensorThreshold
	err := d.pool.QueryRow(ctx,
		"SELECT sensor_id, threshold_value, unit FROM sensor_thresholds WHERE sensor_id = $1", sensorID).
		Scan(&t.SensorID, &t.ThresholdValue, &t.Unit)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetAllSensorThresholds fetches every configured threshold
func (d *DB) GetAllSensorThresholds(ctx context.Context) ([]models.SensorThreshold, error) {
	rows, err := d.pool.Query(ctx, "SELECT sensor_id, threshold_value, unit FROM sensor_thresholds")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var thresholds []models.SensorThreshold
	for rows.Next() {
		var t models.SensorThreshold
		if err := rows.Scan(&t.SensorID, &t.ThresholdValue, &t.Unit); err != nil {
			return nil, err
		}
		thresholds = append(thresholds, t)
	}
	return thresholds, rows.Err()
}

// UpsertSensorThreshold stores or replaces a sensor's alert threshold
func (d *DB) UpsertSensorThreshold(ctx context.Context, t models.SensorThreshold) error {
	_, err := d.pool.Exec(ctx,
		`INSERT INTO sensor_thresholds (sensor_id, threshold_value, unit) VALUES ($1, $2, $3)
		 ON CONFLICT (sensor_id) DO UPDATE SET threshold_value = $2, unit = $3`,
		t.SensorID, t.ThresholdValue, t.Unit)
	return err
}

// DeleteSensorThreshold removes a sensor's alert threshold
func (d *DB) DeleteSensorThreshold(ctx context.Context, sensorID string) error {
	_, err := d.pool.Exec(ctx, "DELETE FROM sensor_thresholds WHERE sensor_id = $1", sensorID)
	return err
}

// GetTelegramSettings fetches the alert delivery credentials.
// Returns (nil, nil) when nothing is configured.
func (d *DB) GetTelegramSettings(ctx context.Context) (*models.TelegramSettings, error) {
	var s models.TelegramSettings
	err := d.pool.QueryRow(ctx,
		"SELECT bot_token, chat_id, enabled FROM telegram_settings WHERE id = 1").
		Scan(&s.BotToken, &s.ChatID, &s.Enabled)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// UpsertTelegramSettings stores the alert delivery credentials
func (d *DB) UpsertTelegramSettings(ctx context.Context, s models.TelegramSettings) error {
	_, err := d.pool.Exec(ctx,
		`INSERT INTO telegram_settings (id, bot_token, chat_id, enabled) VALUES (1, $1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET bot_token = $1, chat_id = $2, enabled = $3`,
		s.BotToken, s.ChatID, s.Enabled)
	return err
}
