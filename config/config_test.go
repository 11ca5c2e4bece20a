package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultsFromEnv(t *testing.T) {
	t.Setenv("BACKEND_URL", "http://backend:8081/")
	t.Setenv("REQUEST_TIMEOUT", "3")
	t.Setenv("STORE_BACKEND", "Redis")
	t.Setenv("DEFAULT_CURRENCY", "lkr")

	cfg := defaults()
	assert.Equal(t, "http://backend:8081", cfg.BackendURL)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
	assert.Equal(t, StoreRedis, cfg.StoreBackend)
	assert.Equal(t, "LKR", cfg.DefaultCurrency)
}

func TestGetDurationWithDefault(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{name: "unset", value: "", want: 10 * time.Second},
		{name: "go duration", value: "1500ms", want: 1500 * time.Millisecond},
		{name: "seconds", value: "7", want: 7 * time.Second},
		{name: "garbage", value: "soon", want: 10 * time.Second},
		{name: "negative", value: "-5s", want: 10 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("X_TIMEOUT", tt.value)
			assert.Equal(t, tt.want, getDurationWithDefault("X_TIMEOUT", 10*time.Second))
		})
	}
}

func TestKafkaBrokerList(t *testing.T) {
	old := AppConfig
	defer func() { AppConfig = old }()

	AppConfig.KafkaBrokers = " a:9092, ,b:9092 "
	assert.Equal(t, []string{"a:9092", "b:9092"}, KafkaBrokerList())

	AppConfig.KafkaBrokers = ""
	assert.Empty(t, KafkaBrokerList())
}

func TestAllowedOrigin(t *testing.T) {
	old := AppConfig
	defer func() { AppConfig = old }()

	AppConfig.CORSOrigins = "*"
	assert.True(t, AllowedOrigin("https://anything.example"))

	AppConfig.CORSOrigins = "https://portal.example, https://admin.example"
	assert.True(t, AllowedOrigin("https://admin.example"))
	assert.False(t, AllowedOrigin("https://evil.example"))
}
