package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	DB       DBConfig
	S3       S3Config
	Log      LogConfig
	OCR      OCRConfig
	Pipeline PipelineConfig
	Dataset  DatasetConfig
	Queue    QueueConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// S3Config holds object storage settings for submitted originals.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	MaxFileSizeMB int64  `mapstructure:"max_file_size_mb"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// OCRConfig holds settings shared by the two engine adapters.
type OCRConfig struct {
	FastLanguages     []string      `mapstructure:"fast_languages"`
	AccurateLanguages []string      `mapstructure:"accurate_languages"`
	Timeout           time.Duration `mapstructure:"timeout"`
	MaxRetries        int           `mapstructure:"max_retries"`
}

// PipelineConfig holds the routing and extraction policy constants.
type PipelineConfig struct {
	// ArabicThreshold is the Arabic-script character fraction that forces
	// escalation to the accurate engine. Deliberately well below 0.5: a
	// moderate Arabic minority still needs the accurate pass.
	ArabicThreshold float64 `mapstructure:"arabic_threshold"`
	// MinTextChars is the character floor below which a native text layer
	// is treated as absent and the page is rasterized instead.
	MinTextChars int `mapstructure:"min_text_chars"`
	// RasterDPI is the target resolution for rasterized pages.
	RasterDPI float64 `mapstructure:"raster_dpi"`
	// MaxRasterEdge caps raster width/height in pixels; larger renders are
	// downscaled before OCR.
	MaxRasterEdge int `mapstructure:"max_raster_edge"`
	// LowConfidenceThreshold flags pages in metadata; it never rejects them.
	LowConfidenceThreshold float64 `mapstructure:"low_confidence_threshold"`
	// PageConcurrency bounds parallel page processing within one document.
	PageConcurrency int `mapstructure:"page_concurrency"`
	// DocumentTimeout bounds end-to-end processing of one document.
	DocumentTimeout time.Duration `mapstructure:"document_timeout"`
}

// DatasetConfig holds dataset writer settings.
type DatasetConfig struct {
	RootDir string `mapstructure:"root_dir"`
}

// QueueConfig holds OCR queue worker settings.
type QueueConfig struct {
	PollIntervalSecs int `mapstructure:"poll_interval_secs"`
	MaxRetries       int `mapstructure:"max_retries"`
	Concurrency      int `mapstructure:"concurrency"`
}

// Load reads configuration from environment variables with the DOCPIPE_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DOCPIPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "docpipe")
	v.SetDefault("db.password", "docpipe_secret")
	v.SetDefault("db.name", "docpipe_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "docpipe-uploads")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.max_file_size_mb", 50)
	v.SetDefault("s3.presign_expiry", 3600)

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// OCR defaults
	v.SetDefault("ocr.fast_languages", "eng")
	v.SetDefault("ocr.accurate_languages", "ara,eng")
	v.SetDefault("ocr.timeout", "60s")
	v.SetDefault("ocr.max_retries", 2)

	// Pipeline defaults
	v.SetDefault("pipeline.arabic_threshold", 0.15)
	v.SetDefault("pipeline.min_text_chars", 16)
	v.SetDefault("pipeline.raster_dpi", 300)
	v.SetDefault("pipeline.max_raster_edge", 4096)
	v.SetDefault("pipeline.low_confidence_threshold", 0.5)
	v.SetDefault("pipeline.page_concurrency", 4)
	v.SetDefault("pipeline.document_timeout", "5m")

	// Dataset defaults
	v.SetDefault("dataset.root_dir", "processed_documents")

	// Queue defaults
	v.SetDefault("queue.poll_interval_secs", 5)
	v.SetDefault("queue.max_retries", 3)
	v.SetDefault("queue.concurrency", 4)

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                       "DOCPIPE_SERVER_PORT",
		"server.read_timeout":               "DOCPIPE_SERVER_READ_TIMEOUT",
		"server.write_timeout":              "DOCPIPE_SERVER_WRITE_TIMEOUT",
		"server.environment":                "DOCPIPE_SERVER_ENVIRONMENT",
		"db.host":                           "DOCPIPE_DB_HOST",
		"db.port":                           "DOCPIPE_DB_PORT",
		"db.user":                           "DOCPIPE_DB_USER",
		"db.password":                       "DOCPIPE_DB_PASSWORD",
		"db.name":                           "DOCPIPE_DB_NAME",
		"db.sslmode":                        "DOCPIPE_DB_SSLMODE",
		"db.max_open":                       "DOCPIPE_DB_MAX_OPEN",
		"db.max_idle":                       "DOCPIPE_DB_MAX_IDLE",
		"s3.region":                         "DOCPIPE_S3_REGION",
		"s3.bucket":                         "DOCPIPE_S3_BUCKET",
		"s3.endpoint":                       "DOCPIPE_S3_ENDPOINT",
		"s3.access_key":                     "DOCPIPE_S3_ACCESS_KEY",
		"s3.secret_key":                     "DOCPIPE_S3_SECRET_KEY",
		"s3.max_file_size_mb":               "DOCPIPE_S3_MAX_FILE_SIZE_MB",
		"s3.presign_expiry":                 "DOCPIPE_S3_PRESIGN_EXPIRY",
		"log.level":                         "DOCPIPE_LOG_LEVEL",
		"log.format":                        "DOCPIPE_LOG_FORMAT",
		"ocr.fast_languages":                "DOCPIPE_OCR_FAST_LANGUAGES",
		"ocr.accurate_languages":            "DOCPIPE_OCR_ACCURATE_LANGUAGES",
		"ocr.timeout":                       "DOCPIPE_OCR_TIMEOUT",
		"ocr.max_retries":                   "DOCPIPE_OCR_MAX_RETRIES",
		"pipeline.arabic_threshold":         "DOCPIPE_PIPELINE_ARABIC_THRESHOLD",
		"pipeline.min_text_chars":           "DOCPIPE_PIPELINE_MIN_TEXT_CHARS",
		"pipeline.raster_dpi":               "DOCPIPE_PIPELINE_RASTER_DPI",
		"pipeline.max_raster_edge":          "DOCPIPE_PIPELINE_MAX_RASTER_EDGE",
		"pipeline.low_confidence_threshold": "DOCPIPE_PIPELINE_LOW_CONFIDENCE_THRESHOLD",
		"pipeline.page_concurrency":         "DOCPIPE_PIPELINE_PAGE_CONCURRENCY",
		"pipeline.document_timeout":         "DOCPIPE_PIPELINE_DOCUMENT_TIMEOUT",
		"dataset.root_dir":                  "DOCPIPE_DATASET_ROOT_DIR",
		"queue.poll_interval_secs":          "DOCPIPE_QUEUE_POLL_INTERVAL_SECS",
		"queue.max_retries":                 "DOCPIPE_QUEUE_MAX_RETRIES",
		"queue.concurrency":                 "DOCPIPE_QUEUE_CONCURRENCY",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if DOCPIPE_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("DOCPIPE_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.S3 = S3Config{
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		MaxFileSizeMB: v.GetInt64("s3.max_file_size_mb"),
		PresignExpiry: v.GetInt64("s3.presign_expiry"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.OCR = OCRConfig{
		FastLanguages:     splitList(v.GetString("ocr.fast_languages")),
		AccurateLanguages: splitList(v.GetString("ocr.accurate_languages")),
		Timeout:           v.GetDuration("ocr.timeout"),
		MaxRetries:        v.GetInt("ocr.max_retries"),
	}
	cfg.Pipeline = PipelineConfig{
		ArabicThreshold:        v.GetFloat64("pipeline.arabic_threshold"),
		MinTextChars:           v.GetInt("pipeline.min_text_chars"),
		RasterDPI:              v.GetFloat64("pipeline.raster_dpi"),
		MaxRasterEdge:          v.GetInt("pipeline.max_raster_edge"),
		LowConfidenceThreshold: v.GetFloat64("pipeline.low_confidence_threshold"),
		PageConcurrency:        v.GetInt("pipeline.page_concurrency"),
		DocumentTimeout:        v.GetDuration("pipeline.document_timeout"),
	}
	cfg.Dataset = DatasetConfig{
		RootDir: v.GetString("dataset.root_dir"),
	}
	cfg.Queue = QueueConfig{
		PollIntervalSecs: v.GetInt("queue.poll_interval_secs"),
		MaxRetries:       v.GetInt("queue.max_retries"),
		Concurrency:      v.GetInt("queue.concurrency"),
	}

	return cfg, nil
}

// splitList parses a comma-separated string into trimmed non-empty items.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
