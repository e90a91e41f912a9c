package config

import (
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Port           int    `mapstructure:"PORT"`
	BackendURL     string `mapstructure:"BACKEND_URL"`
	DBURL          string `mapstructure:"DB_URL"`
	RedisAddr      string `mapstructure:"REDIS_ADDR"`
	MQTTBroker     string `mapstructure:"MQTT_BROKER"`
	MQTTClientID   string `mapstructure:"MQTT_CLIENT_ID"`
	LogLevel       string `mapstructure:"LOG_LEVEL"`
	JWTSecret      string `mapstructure:"JWT_SECRET"`
	AgentID        string `mapstructure:"AGENT_ID"`
	MDNSLocalName  string `mapstructure:"MDNS_LOCAL_NAME"`
	AlertCron      string `mapstructure:"ALERT_CRON"`
	RemoteEnabled  bool   `mapstructure:"REMOTE_ENABLED"`
	RemotePublicWS string `mapstructure:"REMOTE_PUBLIC_WS"`
	RemoteRetrySec int    `mapstructure:"REMOTE_RETRY_SECS"`
}

// LoadConfig reads configuration from .env or env vars
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		println("Error loading .env file:", err.Error())
	}

	viper.AutomaticEnv()

	viper.SetDefault("PORT", 5069)
	viper.SetDefault("BACKEND_URL", "http://localhost:5000/api")
	viper.SetDefault("MQTT_CLIENT_ID", "iotdash-agent")
	viper.SetDefault("ALERT_CRON", "@every 1m")
	viper.SetDefault("MDNS_LOCAL_NAME", "iotdash.local")

	cfg := &Config{
		Port:           viper.GetInt("PORT"),
		BackendURL:     viper.GetString("BACKEND_URL"),
		DBURL:          viper.GetString("DB_URL"),
		RedisAddr:      viper.GetString("REDIS_ADDR"),
		MQTTBroker:     viper.GetString("MQTT_BROKER"),
		MQTTClientID:   viper.GetString("MQTT_CLIENT_ID"),
		LogLevel:       viper.GetString("LOG_LEVEL"),
		JWTSecret:      viper.GetString("JWT_SECRET"),
		AgentID:        viper.GetString("AGENT_ID"),
		MDNSLocalName:  viper.GetString("MDNS_LOCAL_NAME"),
		AlertCron:      viper.GetString("ALERT_CRON"),
		RemoteEnabled:  viper.GetBool("REMOTE_ENABLED"),
		RemotePublicWS: viper.GetString("REMOTE_PUBLIC_WS"),
		RemoteRetrySec: viper.GetInt("REMOTE_RETRY_SECS"),
	}
	return cfg, nil
}
