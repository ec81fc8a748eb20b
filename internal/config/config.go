// Package config предоставляет структуры и функцию для парсинга и загрузки конфига клиента.
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек клиента.
type Config struct {
	Env          string `yaml:"env" env:"ENV" env-default:"local"`
	Backend      `yaml:"backend"`
	Session      `yaml:"session"`
	Subscription `yaml:"subscription"`
	OpsServer    `yaml:"ops_server"`
}

// Backend структура для настройки подключения к REST-бэкенду.
type Backend struct {
	BaseURL string        `yaml:"base_url" env:"BACKEND_BASE_URL"`
	Timeout time.Duration `yaml:"timeout" env-default:"10s"`
}

// Session структура для настройки хранения сессии на стороне клиента.
type Session struct {
	TokenFile string `yaml:"token_file" env:"TOKEN_FILE"`
}

// Subscription структура с периодами опроса статуса подписки и напоминаний.
type Subscription struct {
	PollInterval     time.Duration `yaml:"poll_interval" env-default:"10s"`
	ReminderInterval time.Duration `yaml:"reminder_interval" env-default:"1h"`
}

// OpsServer структура для настройки служебного HTTP-листенера (metrics, healthz).
type OpsServer struct {
	AddressOps  string        `yaml:"address_ops" env-default:"localhost:9091"`
	TimeoutOps  time.Duration `yaml:"timeout_ops" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// MustLoad функция для загрузки конфига, путь берётся из переменной окружения CONFIG_PATH.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	if cfg.TokenFile == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			log.Fatalf("cannot resolve user config dir: %s", err)
		}
		cfg.TokenFile = dir + "/complaints-console/token"
	}
	return &cfg
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"Backend:\n"+
			"  BaseURL: %s\n"+
			"  Timeout: %s\n"+
			"Session:\n"+
			"  TokenFile: %s\n"+
			"Subscription:\n"+
			"  PollInterval: %s\n"+
			"  ReminderInterval: %s\n"+
			"OpsServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s",
		c.Env,
		c.BaseURL, c.Backend.Timeout,
		c.TokenFile,
		c.PollInterval, c.ReminderInterval,
		c.AddressOps, c.TimeoutOps, c.IdleTimeout,
	)
}
