package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type TelegramConfig struct {
	BotToken    string `yaml:"bot_token"`
	BotUsername string `yaml:"bot_username"`
}

type DomainsConfig struct {
	Frontend string `yaml:"frontend"`
	Backend  string `yaml:"backend"`
}

type StorageConfig struct {
	File string `yaml:"file"`
}

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Telegram TelegramConfig `yaml:"telegram"`
	Domains  DomainsConfig  `yaml:"domains"`
	Storage  StorageConfig  `yaml:"storage"`
}

// LoadConfig — config.yaml опционален, переменные окружения всегда
// перекрывают его (токен бота живёт только в окружении).
func LoadConfig() *Config {
	var cfg Config

	if f, err := os.Open("config/config.yaml"); err == nil {
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			panic("Failed to parse config.yaml: " + err.Error())
		}
	}

	if v := os.Getenv("BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("BOT_USERNAME"); v != "" {
		cfg.Telegram.BotUsername = v
	}
	if v := os.Getenv("FRONTEND_DOMAIN"); v != "" {
		cfg.Domains.Frontend = v
	}
	if v := os.Getenv("BACKEND_DOMAIN"); v != "" {
		cfg.Domains.Backend = v
	}
	if v := os.Getenv("DATA_FILE"); v != "" {
		cfg.Storage.File = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = p
		}
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5000
	}
	if cfg.Domains.Frontend == "" {
		cfg.Domains.Frontend = "localhost:3000"
	}
	if cfg.Domains.Backend == "" {
		cfg.Domains.Backend = "localhost:5000"
	}
	if cfg.Storage.File == "" {
		cfg.Storage.File = "data/storage.json"
	}
	return &cfg
}
