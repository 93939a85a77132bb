package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/escrow-backend/internal/pkg/logger"
	"github.com/yungbote/escrow-backend/internal/utils"
)

type Config struct {
	Port            string
	ServiceName     string
	Environment     string
	JWTSecretKey    string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	// RedisBusEnabled turns on the redis SSE fan-out bus; off, events are
	// broadcast to the local hub only.
	RedisBusEnabled bool
}

// fileConfig is the optional YAML override, pointed at by CONFIG_FILE.
// Empty fields leave the env-derived value in place.
type fileConfig struct {
	Port            string `yaml:"port"`
	ServiceName     string `yaml:"service_name"`
	Environment     string `yaml:"environment"`
	JWTSecretKey    string `yaml:"jwt_secret_key"`
	AccessTokenTTL  int    `yaml:"access_token_ttl"`
	RefreshTokenTTL int    `yaml:"refresh_token_ttl"`
	RedisBus        *bool  `yaml:"redis_bus"`
}

func LoadConfig(log *logger.Logger) (Config, error) {
	cfg := Config{
		Port:            utils.GetEnv("PORT", "8080", log),
		ServiceName:     utils.GetEnv("SERVICE_NAME", "escrow-backend", log),
		Environment:     utils.GetEnv("ENVIRONMENT", "development", log),
		JWTSecretKey:    utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log),
		AccessTokenTTL:  time.Duration(utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)) * time.Second,
		RefreshTokenTTL: time.Duration(utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)) * time.Second,
		RedisBusEnabled: utils.GetEnvAsBool("REDIS_BUS_ENABLED", false, log),
	}

	path := strings.TrimSpace(os.Getenv("CONFIG_FILE"))
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return cfg, fmt.Errorf("parse config file %s: %w", path, err)
	}
	applyFileConfig(&cfg, fc)
	log.Info("Applied config file overrides", "path", path)
	return cfg, nil
}

func applyFileConfig(cfg *Config, fc fileConfig) {
	if fc.Port != "" {
		cfg.Port = fc.Port
	}
	if fc.ServiceName != "" {
		cfg.ServiceName = fc.ServiceName
	}
	if fc.Environment != "" {
		cfg.Environment = fc.Environment
	}
	if fc.JWTSecretKey != "" {
		cfg.JWTSecretKey = fc.JWTSecretKey
	}
	if fc.AccessTokenTTL > 0 {
		cfg.AccessTokenTTL = time.Duration(fc.AccessTokenTTL) * time.Second
	}
	if fc.RefreshTokenTTL > 0 {
		cfg.RefreshTokenTTL = time.Duration(fc.RefreshTokenTTL) * time.Second
	}
	if fc.RedisBus != nil {
		cfg.RedisBusEnabled = *fc.RedisBus
	}
}
