// Package config provides configuration management for the payment-link service.
// Configuration can be loaded from YAML files and overridden by environment variables.
package config

import (
	"fmt"
	"sync"

	"github.com/ilyakaznacheev/cleanenv"

	"paylink/internal/redsys"
)

// Config holds all configuration for the payment-link service.
// Values can be set via YAML configuration file or environment variables.
// Environment variables take precedence over YAML values.
type Config struct {
	IsDebug bool `yaml:"is_debug" env:"DEBUG" env-default:"false"`
	Listen  struct {
		BindIP   string `yaml:"bind_ip" env:"BIND_IP" env-default:"0.0.0.0"`
		Port     string `yaml:"port" env:"PORT" env-default:"5100"`
		TLS      bool   `yaml:"tls_enabled" env:"TLS_ENABLED" env-default:"false"`
		CertFile string `yaml:"cert_file" env:"TLS_CERT_FILE" env-default:""`
		KeyFile  string `yaml:"key_file" env:"TLS_KEY_FILE" env-default:""`
	} `yaml:"listen"`
	Log struct {
		Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
		Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
	} `yaml:"log"`
	Mongo struct {
		Enabled  bool   `yaml:"enabled" env:"MONGO_ENABLED" env-default:"false"`
		Host     string `yaml:"host" env:"MONGO_HOST" env-default:"127.0.0.1"`
		Port     string `yaml:"port" env:"MONGO_PORT" env-default:"27017"`
		User     string `yaml:"user" env:"MONGO_USER" env-default:""`
		Password string `yaml:"password" env:"MONGO_PASSWORD" env-default:""`
		Database string `yaml:"database" env:"MONGO_DATABASE" env-default:"paylink"`
	} `yaml:"mongo"`
	Redis struct {
		Enabled   bool   `yaml:"enabled" env:"REDIS_ENABLED" env-default:"false"`
		Addr      string `yaml:"addr" env:"REDIS_ADDR" env-default:"127.0.0.1:6379"`
		Password  string `yaml:"password" env:"REDIS_PASSWORD" env-default:""`
		DB        int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
		ReplayTTL string `yaml:"replay_ttl" env:"REDIS_REPLAY_TTL" env-default:"72h"`
	} `yaml:"redis"`
	Merchant struct {
		Secret           string `yaml:"secret" env:"MERCHANT_SECRET" env-default:""`
		Code             string `yaml:"code" env:"MERCHANT_CODE" env-default:""`
		Terminal         string `yaml:"terminal" env:"MERCHANT_TERMINAL" env-default:""`
		Name             string `yaml:"name" env:"MERCHANT_NAME" env-default:""`
		Currency         string `yaml:"currency" env:"MERCHANT_CURRENCY" env-default:"978"`
		TransactionType  string `yaml:"transaction_type" env:"MERCHANT_TRANSACTION_TYPE" env-default:"0"`
		ConsumerLanguage string `yaml:"consumer_language" env:"MERCHANT_CONSUMER_LANGUAGE" env-default:""`
		NotificationUrl  string `yaml:"notification_url" env:"MERCHANT_NOTIFICATION_URL" env-default:""`
		SuccessUrl       string `yaml:"success_url" env:"MERCHANT_SUCCESS_URL" env-default:""`
		FailureUrl       string `yaml:"failure_url" env:"MERCHANT_FAILURE_URL" env-default:""`
		Environment      string `yaml:"environment" env:"MERCHANT_ENVIRONMENT" env-default:"test"`
		KeyPadding       string `yaml:"key_padding" env:"MERCHANT_KEY_PADDING" env-default:"length"`
	} `yaml:"merchant"`
}

var instance *Config
var once sync.Once

// GetConfig loads configuration from the specified YAML file path.
// Configuration values can be overridden by environment variables.
// This function uses a singleton pattern and only loads the config once.
//
// Example:
//
//	cfg, err := config.GetConfig("config.yml")
//	if err != nil {
//	    log.Fatal(err)
//	}
func GetConfig(path string) (*Config, error) {
	var err error
	once.Do(func() {
		instance, err = ReadConfig(path)
	})
	return instance, err
}

// ReadConfig loads a fresh configuration on every call.
func ReadConfig(path string) (*Config, error) {
	conf := &Config{}
	if err := cleanenv.ReadConfig(path, conf); err != nil {
		desc, _ := cleanenv.GetDescription(conf, nil)
		return nil, fmt.Errorf("load config: %w; %s", err, desc)
	}
	return conf, nil
}

// Gateway returns the merchant section as the explicit configuration the
// signing and verification calls take.
func (c *Config) Gateway() redsys.Config {
	return redsys.Config{
		Secret:           c.Merchant.Secret,
		MerchantCode:     c.Merchant.Code,
		Terminal:         c.Merchant.Terminal,
		MerchantName:     c.Merchant.Name,
		Currency:         c.Merchant.Currency,
		TransactionType:  c.Merchant.TransactionType,
		ConsumerLanguage: c.Merchant.ConsumerLanguage,
		NotificationURL:  c.Merchant.NotificationUrl,
		SuccessURL:       c.Merchant.SuccessUrl,
		FailureURL:       c.Merchant.FailureUrl,
		Environment:      redsys.Environment(c.Merchant.Environment),
		KeyPadding:       redsys.Padding(c.Merchant.KeyPadding),
	}
}
