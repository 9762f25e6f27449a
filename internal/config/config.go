package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort        string
	AppEnv         string
	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables

	S3BucketName    string
	S3PublicBaseURL string // overrides the derived public object URL prefix
	MaxImageBytes   int64

	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	JWTExpiry         time.Duration

	SNSRegion  string
	SMSEnabled bool

	RedisAddr     string // empty disables the Redis change-feed broker
	RedisPassword string
	RedisChannel  string

	GeocoderBaseURL   string
	GeocoderUserAgent string
	GeocoderRPS       float64
	GeocoderTimeout   time.Duration
	GeocoderCacheSize int

	ListDefaultLimit int
	ListMaxLimit     int
	NearbyRadiusKm   float64

	RoleCacheTTL time.Duration

	// TrustProxyHeaders takes the client address from X-Forwarded-For or
	// X-Real-IP. Enable only behind a proxy that sets those headers.
	TrustProxyHeaders bool

	AllowedOrigins []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Requests      string
	Notifications string
	Profiles      string
	UserRoles     string
	Accounts      string
	Sessions      string
	Donations     string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort:        getEnv("APP_PORT", "3000"),
		AppEnv:         getEnv("APP_ENV", "development"),
		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Requests:      getEnv("DYNAMO_TABLE_REQUESTS", "aid_requests"),
			Notifications: getEnv("DYNAMO_TABLE_NOTIFICATIONS", "notifications"),
			Profiles:      getEnv("DYNAMO_TABLE_PROFILES", "profiles"),
			UserRoles:     getEnv("DYNAMO_TABLE_USER_ROLES", "user_roles"),
			Accounts:      getEnv("DYNAMO_TABLE_ACCOUNTS", "accounts"),
			Sessions:      getEnv("DYNAMO_TABLE_SESSIONS", "sessions"),
			Donations:     getEnv("DYNAMO_TABLE_DONATIONS", "donations"),
		},
		S3BucketName:      getEnv("S3_BUCKET_NAME", "request-images"),
		S3PublicBaseURL:   getEnv("S3_PUBLIC_BASE_URL", ""),
		MaxImageBytes:     int64(getEnvInt("MAX_IMAGE_BYTES", 5*1024*1024)),
		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiry:         time.Duration(getEnvInt("JWT_EXPIRY_DAYS", 7)) * 24 * time.Hour,
		SNSRegion:         getEnv("SNS_REGION", "us-east-1"),
		SMSEnabled:        getEnv("SMS_ENABLED", "false") == "true",
		RedisAddr:         getEnv("REDIS_ADDR", ""),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisChannel:      getEnv("REDIS_CHANNEL", "aidbridge:changes"),
		GeocoderBaseURL:   getEnv("GEOCODER_BASE_URL", "https://nominatim.openstreetmap.org"),
		GeocoderUserAgent: getEnv("GEOCODER_USER_AGENT", "aidbridge-api/1.0"),
		GeocoderRPS:       getEnvFloat("GEOCODER_RPS", 1),
		GeocoderTimeout:   time.Duration(getEnvInt("GEOCODER_TIMEOUT_SECONDS", 5)) * time.Second,
		GeocoderCacheSize: getEnvInt("GEOCODER_CACHE_SIZE", 4096),
		ListDefaultLimit:  getEnvInt("LIST_DEFAULT_LIMIT", 50),
		ListMaxLimit:      getEnvInt("LIST_MAX_LIMIT", 100),
		NearbyRadiusKm:    getEnvFloat("NEARBY_RADIUS_KM", 50),
		RoleCacheTTL:      time.Duration(getEnvInt("ROLE_CACHE_TTL_SECONDS", 30)) * time.Second,
		TrustProxyHeaders: getEnv("TRUST_PROXY_HEADERS", "false") == "true",
		AllowedOrigins:    strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
