package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresUserSecret(t *testing.T) {
	t.Setenv("USER_JWT_SECRET", "")
	_, err := Load()
	assert.ErrorContains(t, err, "USER_JWT_SECRET")
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("USER_JWT_SECRET", "k")
	for _, k := range []string{"ADDR", "PREDICT_TIMEOUT", "INGEST_RATE_LIMIT", "AUTO_MIGRATE", "MQTT_BROKER", "MQTT_QOS", "DEVICE_INGEST_SECRETS", "MQTT_TOPIC"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 10*time.Second, cfg.PredictTimeout)
	assert.Equal(t, 120, cfg.IngestRateLimit)
	assert.True(t, cfg.AutoMigrate)
	assert.Empty(t, cfg.MQTTBroker)
	assert.Equal(t, "plantar/devices/+/samples", cfg.MQTTTopic)
	assert.Equal(t, 1, cfg.MQTTQoS)
	assert.Empty(t, cfg.DeviceIngestSecrets)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("USER_JWT_SECRET", "k")
	t.Setenv("ADDR", ":9090")
	t.Setenv("PREDICT_TIMEOUT", "250ms")
	t.Setenv("INGEST_RATE_LIMIT", "30")
	t.Setenv("AUTO_MIGRATE", "false")
	t.Setenv("DEVICE_INGEST_SECRETS", "a, b,,c ")
	t.Setenv("CORS_ORIGINS", "https://app.example")
	t.Setenv("MQTT_QOS", "2")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, 250*time.Millisecond, cfg.PredictTimeout)
	assert.Equal(t, 30, cfg.IngestRateLimit)
	assert.False(t, cfg.AutoMigrate)
	assert.Equal(t, []string{"a", "b", "c"}, cfg.DeviceIngestSecrets)
	assert.Equal(t, []string{"https://app.example"}, cfg.CORSOrigins)
	assert.Equal(t, 2, cfg.MQTTQoS)
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("USER_JWT_SECRET", "k")
	t.Setenv("PREDICT_TIMEOUT", "soon")
	t.Setenv("INGEST_RATE_LIMIT", "lots")
	t.Setenv("MQTT_QOS", "5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, cfg.PredictTimeout)
	assert.Equal(t, 120, cfg.IngestRateLimit)
	assert.Equal(t, 1, cfg.MQTTQoS)
}
