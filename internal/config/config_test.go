package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("ADMIN_USER_IDS", "")
	t.Setenv("CHECKOUT_REQUIRE_LOGIN", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "/login", cfg.Server.LoginURL)
	assert.True(t, cfg.Checkout.RequireLogin)
	assert.Equal(t, 24*time.Hour, cfg.Checkout.IdempotencyTTL)
	assert.Equal(t, 3, cfg.Checkout.MaxRetries)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Empty(t, cfg.Auth.AdminUserIDs)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("CHECKOUT_REQUIRE_LOGIN", "false")
	t.Setenv("CHECKOUT_IDEMPOTENCY_TTL", "90s")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,,")
	t.Setenv("ADMIN_USER_IDS", "1, 42")
	t.Setenv("DATABASE_MAX_OPEN_CONNS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.False(t, cfg.Checkout.RequireLogin)
	assert.Equal(t, 90*time.Second, cfg.Checkout.IdempotencyTTL)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, []int64{1, 42}, cfg.Auth.AdminUserIDs)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
}

func TestLoadRejectsBadAdminIDs(t *testing.T) {
	t.Setenv("ADMIN_USER_IDS", "1,abc")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsNegativeRetries(t *testing.T) {
	t.Setenv("ADMIN_USER_IDS", "")
	t.Setenv("CHECKOUT_MAX_RETRIES", "-1")

	_, err := Load()
	assert.Error(t, err)
}
