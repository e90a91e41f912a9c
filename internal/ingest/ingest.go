package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/redis/go-redis/v9"
)

// dataTopic is the wildcard topic sensor devices publish samples on
const dataTopic = "devices/+/data"

// cacheTTL bounds how long a cached value counts as "live"
const cacheTTL = time.Hour

// sample is one published sensor datum
type sample struct {
	DeviceID string  `json:"device_id"`
	DataType string  `json:"data_type"`
	Value    float64 `json:"value"`
}

// Ingestor mirrors the latest published value of every sensor stream
// into Redis so the dashboard can show live values without a backend
// round trip
type Ingestor struct {
	mqttClient  mqtt.Client
	redisClient *redis.Client
}

// New creates an ingestor
func New(mqttClient mqtt.Client, redisClient *redis.Client) *Ingestor {
	return &Ingestor{mqttClient: mqttClient, redisClient: redisClient}
}

// Start subscribes to the sensor data topic
func (i *Ingestor) Start() error {
	log.Printf("INGEST: Subscribing to MQTT topic: %s", dataTopic)
	token := i.mqttClient.Subscribe(dataTopic, 1, i.onSample)
	if token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("INGEST: Started")
	return nil
}

// Stop disconnects the MQTT client
func (i *Ingestor) Stop() {
	i.mqttClient.Unsubscribe(dataTopic)
	log.Printf("INGEST: Stopped")
}

// parseDeviceID parses the device segment out of a data topic
func parseDeviceID(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) > 1 {
		return parts[1]
	}
	return ""
}

func (i *Ingestor) onSample(client mqtt.Client, msg mqtt.Message) {
	var s sample
	if err := json.Unmarshal(msg.Payload(), &s); err != nil {
		log.Printf("INGEST: Invalid sample payload on %s: %v", msg.Topic(), err)
		return
	}
	if s.DeviceID == "" {
		s.DeviceID = parseDeviceID(msg.Topic())
	}
	if s.DeviceID == "" || s.DataType == "" {
		log.Printf("INGEST: Sample on %s missing device or data type, dropping", msg.Topic())
		return
	}

	key := CacheKey(s.DeviceID, s.DataType)
	payload, _ := json.Marshal(map[string]interface{}{
		"value":     s.Value,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
	if err := i.redisClient.Set(context.Background(), key, payload, cacheTTL).Err(); err != nil {
		log.Printf("INGEST: Failed to cache %s: %v", key, err)
		return
	}
}

// CacheKey is the Redis key holding a stream's latest value
func CacheKey(deviceID, dataType string) string {
	return fmt.Sprintf("sensor:%s:%s", deviceID, dataType)
}

// LatestValue reads a stream's cached value. Returns ok=false when the
// stream has not published within the TTL.
func LatestValue(ctx context.Context, redisClient *redis.Client, deviceID, dataType string) (float64, bool) {
	raw, err := redisClient.Get(ctx, CacheKey(deviceID, dataType)).Result()
	if err != nil {
		return 0, false
	}
	var cached struct {
		Value float64 `json:"value"`
	}
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		return 0, false
	}
	return cached.Value, true
}
