package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StoreFile  = "file"
	StoreRedis = "redis"
)

type (
	APP struct {
		Name         string
		Host         string
		Port         string
		Env          string
		JWTSecret    string
		SessionTTL   time.Duration
		CORSOrigins  []string
		ResolveRPS   float64
		ResolveBurst int
	}
	DB struct {
		User     string
		Password string
		Name     string
		Host     string
		Port     string
	}
	S3 struct {
		Region          string
		AccessKeyID     string
		SecretAccessKey string
		BucketUploads   string
		// Endpoint overrides the AWS endpoint (MinIO and friends).
		Endpoint     string
		SignedURLTTL time.Duration
	}
	MQ struct {
		User         string
		Password     string
		Vhost        string
		Host         string
		AmqpPort     string
		Exchange     string
		ExchangeType string
		QueueName    string
	}
	Device struct {
		DownloadDir     string
		Store           string
		StoreFile       string
		RedisAddr       string
		RedisPassword   string
		RedisDB         int
		TransferTimeout time.Duration
	}
	Code struct {
		Length      int
		MaxAttempts int
	}
	Reconcile struct {
		Interval time.Duration
		Grace    time.Duration
	}

	Config struct {
		App       APP
		DB        DB
		S3        S3
		MQ        MQ
		Device    Device
		Code      Code
		Reconcile Reconcile
	}
)

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return def
	}
	return v
}

func getFloat(key string, def float64) float64 {
	v, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return def
	}
	return v
}

func getDuration(key string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return def
	}
	return v
}

func getList(key string, def []string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func Load() Config {
	app := APP{
		Name:         getEnv("SERVICE_NAME", "uploadit"),
		Host:         getEnv("SERVICE_HOST", "127.0.0.1"),
		Port:         getEnv("SERVICE_PORT", "8080"),
		Env:          getEnv("SERVICE_ENV", ""),
		JWTSecret:    getEnv("SERVICE_JWT_SECRET", ""),
		SessionTTL:   getDuration("SERVICE_SESSION_TTL", time.Hour),
		CORSOrigins:  getList("SERVICE_CORS_ORIGINS", []string{"*"}),
		ResolveRPS:   getFloat("SERVICE_RESOLVE_RPS", 1),
		ResolveBurst: getInt("SERVICE_RESOLVE_BURST", 5),
	}
	db := DB{
		User:     getEnv("POSTGRES_USER", ""),
		Password: getEnv("POSTGRES_PASSWORD", ""),
		Name:     getEnv("POSTGRES_DB", ""),
		Host:     getEnv("POSTGRES_HOST", ""),
		Port:     getEnv("POSTGRES_PORT", ""),
	}
	s3 := S3{
		Region:          getEnv("S3_REGION", ""),
		AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
		BucketUploads:   getEnv("S3_BUCKET_UPLOADS", "uploads"),
		Endpoint:        getEnv("S3_ENDPOINT", ""),
		SignedURLTTL:    getDuration("S3_SIGNED_URL_TTL", 300*time.Second),
	}
	mq := MQ{
		User:         getEnv("RABBITMQ_USER", ""),
		Password:     getEnv("RABBITMQ_PASSWORD", ""),
		Vhost:        getEnv("RABBITMQ_VHOST", ""),
		Host:         getEnv("RABBITMQ_HOST", ""),
		AmqpPort:     getEnv("RABBITMQ_AMQP_PORT", ""),
		Exchange:     getEnv("RABBITMQ_EXCHANGE", "uploadit.files"),
		ExchangeType: getEnv("RABBITMQ_EXCHANGE_TYPE", "direct"),
		QueueName:    getEnv("RABBITMQ_QUEUE_NAME", "uploadit.file-events"),
	}
	device := Device{
		DownloadDir:     getEnv("DEVICE_DOWNLOAD_DIR", "downloads"),
		Store:           getEnv("DEVICE_STORE", StoreFile),
		StoreFile:       getEnv("DEVICE_STORE_FILE", "device-store.json"),
		RedisAddr:       getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisDB:         getInt("REDIS_DB", 0),
		TransferTimeout: getDuration("TRANSFER_TIMEOUT", 2*time.Minute),
	}
	code := Code{
		Length:      getInt("CODE_LENGTH", 6),
		MaxAttempts: getInt("CODE_MAX_ATTEMPTS", 5),
	}
	reconcile := Reconcile{
		Interval: getDuration("RECONCILE_INTERVAL", time.Hour),
		Grace:    getDuration("RECONCILE_GRACE", 15*time.Minute),
	}

	return Config{
		App:       app,
		DB:        db,
		S3:        s3,
		MQ:        mq,
		Device:    device,
		Code:      code,
		Reconcile: reconcile,
	}
}

func (c Config) DBDSN() (string, error) {
	if c.DB.User == "" || c.DB.Name == "" || c.DB.Host == "" || c.DB.Port == "" {
		return "", fmt.Errorf("incomplete DB config")
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		url.QueryEscape(c.DB.User),
		url.QueryEscape(c.DB.Password),
		c.DB.Host,
		c.DB.Port,
		c.DB.Name,
	), nil
}

// MQEnabled reports whether file events should go to RabbitMQ.
func (c Config) MQEnabled() bool { return c.MQ.Host != "" }

func (c Config) AMQPDSN() (string, error) {
	if c.MQ.User == "" || c.MQ.Host == "" || c.MQ.AmqpPort == "" {
		return "", fmt.Errorf("invalid MQ config: user, host and amqp port are required")
	}

	return fmt.Sprintf(
		"%s://%s@%s:%s/%s",
		"amqp",
		url.UserPassword(c.MQ.User, c.MQ.Password).String(),
		c.MQ.Host,
		c.MQ.AmqpPort,
		url.PathEscape(c.MQ.Vhost),
	), nil
}
