package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 3, cfg.Trip.UpdateAttempts)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.False(t, cfg.Kafka.Enabled)
	assert.Equal(t, 30*time.Minute, cfg.Database.ConnMaxLifetime)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("TRIP_UPDATE_ATTEMPTS", "5")
	t.Setenv("SERVER_READ_TIMEOUT", "3s")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.True(t, cfg.Kafka.Enabled)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 5, cfg.Trip.UpdateAttempts)
	assert.Equal(t, 3*time.Second, cfg.Server.ReadTimeout)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("TRIP_UPDATE_ATTEMPTS", "many")
	t.Setenv("KAFKA_ENABLED", "perhaps")
	t.Setenv("KAFKA_BROKERS", " , ")

	cfg := Load()

	assert.Equal(t, 3, cfg.Trip.UpdateAttempts)
	assert.False(t, cfg.Kafka.Enabled)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
}
