package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Dispatch DispatchConfig `yaml:"dispatch"`
	Payment  PaymentConfig  `yaml:"payment"`
	Worker   WorkerConfig   `yaml:"worker"`
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
	Brokers            []string `yaml:"brokers"`
	EventsTopic        string   `yaml:"events_topic"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	GroupID            string   `yaml:"group_id"`
}

// DispatchConfig carries the lifecycle policy values. None of these are
// hardcoded in the engine; they are deployment policy.
type DispatchConfig struct {
	SearchRadiusKm       float64 `yaml:"search_radius_km"`
	MaxCandidates        int     `yaml:"max_candidates"`
	AverageSpeedKmh      float64 `yaml:"average_speed_kmh"`
	MatchWaitMinutes     int     `yaml:"match_wait_minutes"`
	AcceptWaitMinutes    int     `yaml:"accept_wait_minutes"`
	StartWaitMinutes     int     `yaml:"start_wait_minutes"`
	StartGraceMinutes    int     `yaml:"start_grace_minutes"`
	AcceptLockTTLSeconds int     `yaml:"accept_lock_ttl_seconds"`
}

type PaymentConfig struct {
	PlatformFeePercent    float64 `yaml:"platform_fee_percent"`
	GatewayTimeoutSeconds int     `yaml:"gateway_timeout_seconds"`
}

type WorkerConfig struct {
	SweepIntervalMinutes int `yaml:"sweep_interval_minutes"`
	MatchPollSeconds     int `yaml:"match_poll_seconds"`
	MatchBatchSize       int `yaml:"match_batch_size"`
}

func (c DispatchConfig) MatchWait() time.Duration { return time.Duration(c.MatchWaitMinutes) * time.Minute }

func (c DispatchConfig) AcceptWait() time.Duration { return time.Duration(c.AcceptWaitMinutes) * time.Minute }

func (c DispatchConfig) StartWait() time.Duration { return time.Duration(c.StartWaitMinutes) * time.Minute }

func (c DispatchConfig) StartGrace() time.Duration { return time.Duration(c.StartGraceMinutes) * time.Minute }

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}
