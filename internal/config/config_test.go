package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() AppConfig {
	return AppConfig{
		Security: SecurityConfig{
			JWTSecret:       strings.Repeat("k", minJWTSecretLength),
			JWTTTL:          time.Hour,
			ResetTokenTTL:   time.Hour,
			BcryptCost:      10,
			LoginRateLimit:  5,
			LoginRateWindow: 15 * time.Minute,
		},
	}
}

func TestValidate(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.Validate())

	cases := map[string]func(*AppConfig){
		"missing secret": func(c *AppConfig) { c.Security.JWTSecret = "" },
		"short secret":   func(c *AppConfig) { c.Security.JWTSecret = "short" },
		"cost too low":   func(c *AppConfig) { c.Security.BcryptCost = 1 },
		"cost too high":  func(c *AppConfig) { c.Security.BcryptCost = 40 },
		"zero jwt ttl":   func(c *AppConfig) { c.Security.JWTTTL = 0 },
		"zero reset ttl": func(c *AppConfig) { c.Security.ResetTokenTTL = -time.Second },
		"zero window":    func(c *AppConfig) { c.Security.LoginRateWindow = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := validConfig()
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("HARMONIA_SECURITY_JWTSECRET", strings.Repeat("s", 40))
	t.Setenv("HARMONIA_SECURITY_BOOTSTRAPADMIN", "root@example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, strings.Repeat("s", 40), cfg.Security.JWTSecret)
	assert.Equal(t, "root@example.com", cfg.Security.BootstrapAdmin)
	assert.Equal(t, time.Hour, cfg.Security.JWTTTL)
	assert.Equal(t, 10, cfg.Security.BcryptCost)
	assert.Equal(t, "mail:outbox", cfg.Mail.Stream)
	assert.Equal(t, 5, cfg.Mail.MaxDeliveries)
	assert.Equal(t, 5*time.Second, cfg.Postgres.StatementTimeout)
	assert.Equal(t, 3*time.Second, cfg.Redis.ReadTimeout)
	assert.NoError(t, cfg.Validate())
}

func TestLoadOverridesStoreTimeouts(t *testing.T) {
	t.Setenv("HARMONIA_POSTGRES_STATEMENTTIMEOUT", "750ms")
	t.Setenv("HARMONIA_REDIS_DIALTIMEOUT", "2s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 750*time.Millisecond, cfg.Postgres.StatementTimeout)
	assert.Equal(t, 2*time.Second, cfg.Redis.DialTimeout)
}
