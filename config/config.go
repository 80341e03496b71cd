package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Env        string           `yaml:"env"`
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	Auth       AuthConfig       `yaml:"auth"`
	Cache      CacheConfig      `yaml:"cache"`
	Scheduling SchedulingConfig `yaml:"scheduling"`
	Worker     WorkerConfig     `yaml:"worker"`
}

type HTTPConfig struct {
	Address    string `yaml:"address"`
	SwaggerDir string `yaml:"swagger_dir"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers        []string `yaml:"brokers"`
	AuditTopic     string   `yaml:"audit_topic"`
	GroupID        string   `yaml:"group_id"`
	PublishRetries int      `yaml:"publish_retries"`
}

type AuthConfig struct {
	JWTSecret       string `yaml:"jwt_secret"`
	TokenTTLMinutes int    `yaml:"token_ttl_minutes"`
}

type CacheConfig struct {
	ApartmentsTTLSeconds int `yaml:"apartments_ttl_seconds"`
	AssignLockTTLSeconds int `yaml:"assign_lock_ttl_seconds"`
}

// SchedulingConfig overrides the best-dates weights. Zero values fall back to
// the shipped defaults.
type SchedulingConfig struct {
	FavoriteBonus        float64 `yaml:"favorite_bonus"`
	SundayPenalty        float64 `yaml:"sunday_penalty"`
	SaturdayStartPenalty float64 `yaml:"saturday_start_penalty"`
}

type WorkerConfig struct {
	AutoAssignSweepMinutes int `yaml:"auto_assign_sweep_minutes"`
}

// LoadConfig reads the yaml config at path. A .env file, if present, is
// loaded first; FLATBOOK_JWT_SECRET and FLATBOOK_DB_PASSWORD override the
// file so secrets stay out of it.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if v := os.Getenv("FLATBOOK_JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("FLATBOOK_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}

	return &cfg, nil
}
