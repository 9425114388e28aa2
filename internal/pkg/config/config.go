package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// -----------------------------------------------------------------------------
// Environment variable configuration guidelines:
// - required: Values that differ between environments (port, DB connection, etc.), security settings
// - default: Values common across all environments (timeouts, limits, etc.), standard settings
// -----------------------------------------------------------------------------

type Config struct {
	Server   ServerConfig
	DB       DBConfig
	CORS     CORSConfig
	Log      LogConfig
	JWT      JWTConfig
	Cookie   CookieConfig
	Redis    RedisConfig
	Requests RequestsConfig
	Chat     ChatConfig
	Webhook  WebhookConfig
}

type ServerConfig struct {
	Port string `envconfig:"PORT" required:"true"`
}

type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" required:"true"`
	Password string `envconfig:"DB_PASSWORD" required:"true"`
	DBName   string `envconfig:"DB_NAME" required:"true"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
}

type CORSConfig struct {
	AllowOrigins     []string      `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:3000,http://localhost:8080"`
	AllowMethods     []string      `envconfig:"CORS_ALLOW_METHODS" default:"GET,POST,PUT,PATCH,DELETE,OPTIONS"`
	AllowHeaders     []string      `envconfig:"CORS_ALLOW_HEADERS" default:"Origin,Content-Type,Accept,Authorization"`
	ExposeHeaders    []string      `envconfig:"CORS_EXPOSE_HEADERS" default:"Content-Length"`
	AllowCredentials bool          `envconfig:"CORS_ALLOW_CREDENTIALS" default:"true"`
	MaxAge           time.Duration `envconfig:"CORS_MAX_AGE" default:"12h"`
}

type LogConfig struct {
	Level          string `envconfig:"LOG_LEVEL" default:"info"`
	TimeFormat     string `envconfig:"LOG_TIME_FORMAT" default:"2006-01-02 15:04:05.000"`
	TimeZone       string `envconfig:"LOG_TIMEZONE" default:"UTC"`
	TimeZoneOffset int    `envconfig:"LOG_TIMEZONE_OFFSET" default:"0"`
}

type JWTConfig struct {
	Secret         string        `envconfig:"JWT_SECRET" required:"true"`
	AccessDuration time.Duration `envconfig:"JWT_ACCESS_DURATION" default:"24h"`
}

type CookieConfig struct {
	Domain   string `envconfig:"COOKIE_DOMAIN" default:""`
	Secure   bool   `envconfig:"COOKIE_SECURE" default:"false"`
	SameSite string `envconfig:"COOKIE_SAME_SITE" default:"Lax"`
}

// RedisConfig enables cross-instance realtime fan-out. An empty Addr keeps
// the hub purely in-process.
type RedisConfig struct {
	Addr    string `envconfig:"REDIS_ADDR" default:""`
	Channel string `envconfig:"REDIS_CHANNEL" default:"chat-events"`
}

type RequestsConfig struct {
	// FixedStoreID > 0 switches matching into single-store override mode.
	FixedStoreID int64         `envconfig:"REQUESTS_FIXED_STORE_ID" default:"0"`
	MaxOpen      int           `envconfig:"REQUESTS_MAX_OPEN" default:"5"`
	CodePrefix   string        `envconfig:"REQUESTS_CODE_PREFIX" default:"RQ"`
	Currency     string        `envconfig:"REQUESTS_CURRENCY" default:"EUR"`
	CreateLimit  int           `envconfig:"REQUESTS_CREATE_LIMIT" default:"10"`
	CreateWindow time.Duration `envconfig:"REQUESTS_CREATE_WINDOW" default:"1m"`
}

type ChatConfig struct {
	SendLimit  int           `envconfig:"CHAT_SEND_LIMIT" default:"10"`
	SendWindow time.Duration `envconfig:"CHAT_SEND_WINDOW" default:"10s"`
	JoinLimit  int           `envconfig:"CHAT_JOIN_LIMIT" default:"20"`
	JoinWindow time.Duration `envconfig:"CHAT_JOIN_WINDOW" default:"10s"`
}

type WebhookConfig struct {
	URL     string        `envconfig:"WEBHOOK_URL" default:""`
	Timeout time.Duration `envconfig:"WEBHOOK_TIMEOUT" default:"5s"`
}

func (c *DBConfig) BuildDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to process env config: %w", err)
	}
	return cfg, nil
}

func NewTestConfig() Config {
	return Config{
		Server: ServerConfig{
			Port: "8889",
		},
		DB: DBConfig{
			Host:     "localhost",
			Port:     "15433",
			User:     "test",
			Password: "test",
			DBName:   "test_db",
			SSLMode:  "disable",
		},
		Log: LogConfig{
			Level:      "error",
			TimeFormat: "2006-01-02 15:04:05.000",
		},
		JWT: JWTConfig{
			Secret:         "test-secret",
			AccessDuration: time.Hour,
		},
		Requests: RequestsConfig{
			MaxOpen:      5,
			CodePrefix:   "RQ",
			Currency:     "EUR",
			CreateLimit:  100,
			CreateWindow: time.Minute,
		},
		Chat: ChatConfig{
			SendLimit:  100,
			SendWindow: 10 * time.Second,
			JoinLimit:  100,
			JoinWindow: 10 * time.Second,
		},
	}
}
