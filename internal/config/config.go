package config

import (
	"context"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	HTTPAddr  string `env:"HTTP_ADDR,default=:8080"`
	JWTSecret string `env:"JWT_SECRET,required"`

	DBHost            string        `env:"DB_HOST,required"`
	DBPort            int           `env:"DB_PORT,default=5432"`
	DBUser            string        `env:"DB_USER,required"`
	DBPassword        string        `env:"DB_PASSWORD,required"`
	DBName            string        `env:"DB_NAME,required"`
	DBSSLMode         string        `env:"DB_SSLMODE,default=disable"`
	DBMaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS,default=10"`
	DBMaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS,default=25"`
	DBConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME,default=30m"`

	MongoURI            string        `env:"MONGO_URI,required"`
	MongoDatabase       string        `env:"MONGO_DATABASE,default=stockwatch"`
	MongoMailCollection string        `env:"MONGO_MAIL_COLLECTION,default=mail"`
	MongoConnectTimeout time.Duration `env:"MONGO_CONNECT_TIMEOUT,default=10s"`

	TwelveDataBaseURL string        `env:"TWELVEDATA_BASE_URL,default=https://api.twelvedata.com"`
	TwelveDataAPIKey  string        `env:"TWELVEDATA_API_KEY,required"`
	TwelveDataTimeout time.Duration `env:"TWELVEDATA_TIMEOUT,default=10s"`

	PolygonBaseURL string        `env:"POLYGON_BASE_URL,default=https://api.polygon.io"`
	PolygonAPIKey  string        `env:"POLYGON_API_KEY,required"`
	PolygonTimeout time.Duration `env:"POLYGON_TIMEOUT,default=10s"`

	AlertCheckInterval time.Duration `env:"ALERT_CHECK_INTERVAL,default=5m"`
	AlertTimezone      string        `env:"ALERT_TIMEZONE,default=UTC"`
	AlertConcurrency   int           `env:"ALERT_CONCURRENCY,default=8"`

	LogLevel string `env:"LOG_LEVEL,default=info"`
}

func Load(ctx context.Context) (Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
