package taskqueue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/hibiken/asynq"

	"iotdash/internal/db"
)

// TypeTelegramAlert is the task type for outbound Telegram deliveries
const TypeTelegramAlert = "alert:telegram"

// telegramAPI is swapped out in tests
var telegramAPI = "https://api.telegram.org"

// Global instances - initialized by the main application
var (
	dbConn     *db.DB
	httpClient = &http.Client{Timeout: 10 * time.Second}
)

// SetGlobalInstances sets the settings-store handle the workers use
func SetGlobalInstances(database *db.DB) {
	dbConn = database
}

// TelegramTaskPayload carries one alert message
type TelegramTaskPayload struct {
	Message string
}

// EnqueueTelegramAlert enqueues a Telegram delivery task
func EnqueueTelegramAlert(message string) error {
	payload, _ := json.Marshal(TelegramTaskPayload{Message: message})
	task := asynq.NewTask(TypeTelegramAlert, payload)
	info, err := asynqClient.Enqueue(task, asynq.MaxRetry(3), asynq.Timeout(10*time.Second))
	if err != nil {
		log.Printf("TASKQUEUE: Failed to enqueue telegram alert: %v", err)
		return err
	}
	log.Printf("TASKQUEUE: Enqueued telegram alert task %s", info.ID)
	return nil
}

// Enqueuer adapts the package-level enqueue for callers that take an
// interface
type Enqueuer struct{}

func (Enqueuer) EnqueueTelegram(message string) error {
	return EnqueueTelegramAlert(message)
}

// sendTelegramTask delivers one alert message via the Telegram bot API
func sendTelegramTask(ctx context.Context, t *asynq.Task) error {
	var payload TelegramTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		log.Printf("TASKQUEUE: Failed to unmarshal telegram payload: %v", err)
		return err
	}

	if dbConn == nil {
		return fmt.Errorf("settings store not initialized")
	}
	settings, err := dbConn.GetTelegramSettings(ctx)
	if err != nil {
		return fmt.Errorf("load telegram settings: %w", err)
	}
	if settings == nil || !settings.Enabled {
		log.Printf("TASKQUEUE: Telegram delivery disabled, dropping alert")
		return nil
	}

	return PostTelegramMessage(ctx, settings.BotToken, settings.ChatID, payload.Message)
}

// PostTelegramMessage sends one Markdown message to a chat
func PostTelegramMessage(ctx context.Context, botToken, chatID, message string) error {
	body, _ := json.Marshal(map[string]string{
		"chat_id":    chatID,
		"text":       message,
		"parse_mode": "Markdown",
	})
	url := fmt.Sprintf("%s/bot%s/sendMessage", telegramAPI, botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("telegram unreachable: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}
	log.Printf("TASKQUEUE: Telegram alert delivered")
	return nil
}
