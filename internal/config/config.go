package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"stayhub/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Razorpay   RazorpayConfig   `yaml:"razorpay"`
	Backup     BackupConfig     `yaml:"backup"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	API        APIConfig        `yaml:"api"`
	Worker     WorkerConfig     `yaml:"worker"`
	Exports    ExportConfig     `yaml:"exports"`
	Hotels     []models.Hotel   `yaml:"hotels"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

// RazorpayConfig — учетные данные платежного шлюза. KeyID публичный и
// уходит клиенту для рукопожатия; KeySecret только подписывает.
type RazorpayConfig struct {
	KeyID          string `yaml:"key_id"`
	KeySecret      string `yaml:"key_secret"`
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout возвращает таймаут HTTP клиента шлюза.
func (c RazorpayConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
	HealthCheckPort   int  `yaml:"health_check_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type APIConfig struct {
	Enabled   bool               `yaml:"enabled"`
	HTTP      APIHTTPConfig      `yaml:"http"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIHTTPConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

type APIAuthConfig struct {
	Enabled      bool           `yaml:"enabled"`
	HeaderAPIKey string         `yaml:"header_api_key"`
	APIKeys      []APIClientKey `yaml:"api_keys"`
}

// APIClientKey связывает API-ключ с пользователем: ключ и есть
// аутентифицированная личность вызывающего.
type APIClientKey struct {
	Key         string   `yaml:"key"`
	Name        string   `yaml:"name"`
	UserID      string   `yaml:"user_id"`
	Permissions []string `yaml:"permissions"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type WorkerConfig struct {
	Enabled             bool `yaml:"enabled"`
	MaxRetries          int  `yaml:"max_retries"`
	PollIntervalSeconds int  `yaml:"poll_interval_seconds"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

func Load(configPath string) (*Config, error) {
	// .env необязателен; переменные окружения подставляются в YAML ниже
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Предварительная замена переменных окружения в YAML
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}
	if c.Redis.Address == "" {
		return errors.New("redis address is required")
	}
	if c.Razorpay.KeyID == "" || c.Razorpay.KeyID == "YOUR_KEY_ID_HERE" {
		return errors.New("razorpay key id is required")
	}
	if c.Razorpay.KeySecret == "" || c.Razorpay.KeySecret == "YOUR_KEY_SECRET_HERE" {
		return errors.New("razorpay key secret is required")
	}
	return ValidateHotels(c.Hotels)
}

// ValidateHotels проверяет каталог, загружаемый при старте.
func ValidateHotels(hotels []models.Hotel) error {
	hotelIDs := make(map[string]bool)
	for _, hotel := range hotels {
		if hotel.ID == "" {
			return fmt.Errorf("hotel '%s' has empty id", hotel.Name)
		}
		if hotelIDs[hotel.ID] {
			return fmt.Errorf("duplicate hotel id found: %s", hotel.ID)
		}
		hotelIDs[hotel.ID] = true

		roomIDs := make(map[string]bool)
		for _, room := range hotel.Rooms {
			if room.RoomID == "" {
				return fmt.Errorf("hotel %s: room '%s' has empty id", hotel.ID, room.Name)
			}
			if roomIDs[room.RoomID] {
				return fmt.Errorf("hotel %s: duplicate room id %s", hotel.ID, room.RoomID)
			}
			roomIDs[room.RoomID] = true
			if room.Price < 0 {
				return fmt.Errorf("hotel %s: room %s has negative price", hotel.ID, room.RoomID)
			}
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if c.API.Enabled && !c.API.HTTP.Enabled {
		c.API.HTTP.Enabled = true
	}
	if !c.API.Auth.Enabled {
		c.API.Auth.Enabled = true
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.Razorpay.TimeoutSeconds == 0 {
		c.Razorpay.TimeoutSeconds = 15
	}
	if c.Worker.MaxRetries == 0 {
		c.Worker.MaxRetries = 5
	}
	if c.Worker.PollIntervalSeconds == 0 {
		c.Worker.PollIntervalSeconds = 2
	}
	if c.Redis.PoolSize == 0 {
		c.Redis.PoolSize = 10
	}
}
