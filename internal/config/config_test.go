package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()
	assert.Equal(t, "aid_requests", cfg.DynamoTables.Requests)
	assert.Equal(t, "request-images", cfg.S3BucketName)
	assert.Equal(t, int64(5*1024*1024), cfg.MaxImageBytes)
	assert.Equal(t, 7*24*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, 50.0, cfg.NearbyRadiusKm)
	assert.Equal(t, 100, cfg.ListMaxLimit)
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, 30*time.Second, cfg.RoleCacheTTL)
	assert.False(t, cfg.TrustProxyHeaders)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("NEARBY_RADIUS_KM", "12.5")
	t.Setenv("LIST_DEFAULT_LIMIT", "20")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("SMS_ENABLED", "true")
	t.Setenv("TRUST_PROXY_HEADERS", "true")
	t.Setenv("ROLE_CACHE_TTL_SECONDS", "5")

	cfg := Load()
	assert.Equal(t, 12.5, cfg.NearbyRadiusKm)
	assert.Equal(t, 20, cfg.ListDefaultLimit)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.True(t, cfg.SMSEnabled)
	assert.True(t, cfg.TrustProxyHeaders)
	assert.Equal(t, 5*time.Second, cfg.RoleCacheTTL)
}

func TestLoad_MalformedNumbersFallBack(t *testing.T) {
	t.Setenv("GEOCODER_RPS", "fast")
	t.Setenv("LIST_MAX_LIMIT", "lots")

	cfg := Load()
	assert.Equal(t, 1.0, cfg.GeocoderRPS)
	assert.Equal(t, 100, cfg.ListMaxLimit)
}
