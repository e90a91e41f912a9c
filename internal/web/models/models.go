package models

import "iotdash/internal/models"

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

type UpdateRuleRequest struct {
	Name           *string            `json:"name"`
	Enabled        *bool              `json:"enabled"`
	SensorDeviceID *string            `json:"sensorDeviceId"`
	SensorDataType *string            `json:"sensorDataType"`
	Condition      *models.Condition  `json:"condition"`
	Threshold      *float64           `json:"threshold"`
	ActionType     *models.ActionType `json:"actionType"`
	TargetDeviceID *string            `json:"targetDeviceId"`
	Command        *models.Command    `json:"command"`
	Message        *string            `json:"message"`
}

type AddWidgetRequest struct {
	DeviceID string `json:"device_id"`
}

type ToggleWidgetRequest struct {
	State bool `json:"state"`
}

type WidgetLevelRequest struct {
	Value  int  `json:"value"`
	Commit bool `json:"commit"`
}

type ThresholdRequest struct {
	ThresholdValue float64 `json:"threshold_value"`
	Unit           string  `json:"unit"`
}

type TelegramSettingsRequest struct {
	BotToken string `json:"bot_token"`
	ChatID   string `json:"chat_id"`
	Enabled  bool   `json:"enabled"`
}

type CheckSensorRequest struct {
	SensorData models.SensorSnapshot `json:"sensorData"`
}
