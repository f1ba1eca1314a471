package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"stayhub/internal/models"
)

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
database:
  path: "test.db"
redis:
  address: "localhost:6379"
razorpay:
  key_id: "rzp_test_key"
  key_secret: "secret"
hotels:
  - id: "hotel-1"
    name: "Grand Palace"
    destination: "Mumbai"
    rooms:
      - room_id: "r1"
        name: "Standard Room"
        type: "Standard"
        price: 3000
        capacity: 2
        availability: 5
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Razorpay.KeyID != "rzp_test_key" {
		t.Errorf("expected key_id rzp_test_key, got %s", cfg.Razorpay.KeyID)
	}

	if len(cfg.Hotels) != 1 || cfg.Hotels[0].ID != "hotel-1" {
		t.Errorf("expected 1 hotel with id hotel-1")
	}

	if len(cfg.Hotels) == 1 && len(cfg.Hotels[0].Rooms) != 1 {
		t.Errorf("expected hotel rooms to be parsed")
	}
}

func TestLoadConfigExpandsEnv(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	t.Setenv("RAZORPAY_KEY_SECRET", "env_secret")

	yamlContent := `
database:
  path: "test.db"
redis:
  address: "localhost:6379"
razorpay:
  key_id: "rzp_test_key"
  key_secret: "${RAZORPAY_KEY_SECRET}"
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Razorpay.KeySecret != "env_secret" {
		t.Errorf("expected key_secret from env, got %s", cfg.Razorpay.KeySecret)
	}
}

func TestValidateConfig(t *testing.T) {
	valid := Config{
		Database: DatabaseConfig{Path: "path"},
		Redis:    RedisConfig{Address: "localhost:6379"},
		Razorpay: RazorpayConfig{KeyID: "key", KeySecret: "secret"},
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid config", mutate: func(c *Config) {}, wantErr: false},
		{name: "missing database path", mutate: func(c *Config) { c.Database.Path = "" }, wantErr: true},
		{name: "missing redis address", mutate: func(c *Config) { c.Redis.Address = "" }, wantErr: true},
		{name: "missing key id", mutate: func(c *Config) { c.Razorpay.KeyID = "" }, wantErr: true},
		{name: "placeholder key secret", mutate: func(c *Config) { c.Razorpay.KeySecret = "YOUR_KEY_SECRET_HERE" }, wantErr: true},
		{
			name: "duplicate hotel id",
			mutate: func(c *Config) {
				c.Hotels = []models.Hotel{{ID: "h1", Name: "A"}, {ID: "h1", Name: "B"}}
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	if cfg.API.HTTP.Port != 8080 {
		t.Errorf("expected default HTTP port 8080, got %d", cfg.API.HTTP.Port)
	}
	if cfg.API.Auth.HeaderAPIKey != "x-api-key" {
		t.Errorf("expected default api key header, got %s", cfg.API.Auth.HeaderAPIKey)
	}
	if cfg.Razorpay.Timeout() != 15*time.Second {
		t.Errorf("expected default razorpay timeout 15s, got %s", cfg.Razorpay.Timeout())
	}
	if cfg.Worker.MaxRetries != 5 {
		t.Errorf("expected default worker max retries 5, got %d", cfg.Worker.MaxRetries)
	}
}

func TestValidateHotels(t *testing.T) {
	tests := []struct {
		name    string
		hotels  []models.Hotel
		wantErr bool
	}{
		{
			name: "valid hotels",
			hotels: []models.Hotel{
				{ID: "h1", Name: "A", Rooms: []models.Room{{RoomID: "r1", Price: 100}}},
				{ID: "h2", Name: "B"},
			},
			wantErr: false,
		},
		{
			name:    "empty hotel id",
			hotels:  []models.Hotel{{ID: "", Name: "A"}},
			wantErr: true,
		},
		{
			name: "duplicate room id",
			hotels: []models.Hotel{
				{ID: "h1", Rooms: []models.Room{{RoomID: "r1"}, {RoomID: "r1"}}},
			},
			wantErr: true,
		},
		{
			name: "negative price",
			hotels: []models.Hotel{
				{ID: "h1", Rooms: []models.Room{{RoomID: "r1", Price: -1}}},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateHotels(tt.hotels)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateHotels() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
