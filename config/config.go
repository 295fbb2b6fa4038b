// Package config provides configuration management for the checkout payment service.
// Configuration can be loaded from YAML files and overridden by environment variables.
package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for the checkout payment service.
// Values can be set via YAML configuration file or environment variables.
// Environment variables take precedence over YAML values.
// Secrets (SHA phrase, gateway credentials) are NOT part of this struct;
// they are loaded separately at startup, see internal.LoadSecrets.
type Config struct {
	IsDebug    bool  `yaml:"is_debug" env:"DEBUG" env-default:"false"`
	LogRecords int64 `yaml:"log_records" env:"LOG_RECORDS" env-default:"0"`
	Listen     struct {
		BindIP   string `yaml:"bind_ip" env:"BIND_IP" env-default:"0.0.0.0"`
		Port     string `yaml:"port" env:"PORT" env-default:"5100"`
		TLS      bool   `yaml:"tls_enabled" env:"TLS_ENABLED" env-default:"false"`
		CertFile string `yaml:"cert_file" env:"TLS_CERT_FILE" env-default:""`
		KeyFile  string `yaml:"key_file" env:"TLS_KEY_FILE" env-default:""`
	} `yaml:"listen"`
	Mongo struct {
		Enabled  bool   `yaml:"enabled" env:"MONGO_ENABLED" env-default:"false"`
		Host     string `yaml:"host" env:"MONGO_HOST" env-default:"127.0.0.1"`
		Port     string `yaml:"port" env:"MONGO_PORT" env-default:"27017"`
		User     string `yaml:"user" env:"MONGO_USER" env-default:"admin"`
		Password string `yaml:"password" env:"MONGO_PASSWORD" env-default:"pass"`
		Database string `yaml:"database" env:"MONGO_DATABASE" env-default:""`
	} `yaml:"mongo"`
	Gateway struct {
		// Hosted tokenization page that collects card data inside the frame
		HostedPageUrl string `yaml:"hosted_page_url" env:"GATEWAY_HOSTED_PAGE_URL" env-default:"https://payments.epdq.co.uk/Tokenization/HostedPage"`
		// Server-to-server maintenance/capture endpoint
		DirectApiUrl string `yaml:"direct_api_url" env:"GATEWAY_DIRECT_API_URL" env-default:"https://payments.epdq.co.uk/ncol/prod/orderdirect.asp"`
		// Redirect destinations the gateway uses to signal success/failure
		AcceptUrl    string `yaml:"accept_url" env:"GATEWAY_ACCEPT_URL" env-default:""`
		ExceptionUrl string `yaml:"exception_url" env:"GATEWAY_EXCEPTION_URL" env-default:""`
		// Origins the frame controller accepts cross-frame messages from,
		// comma separated; an empty list accepts any origin (dev only)
		FrameOrigins string `yaml:"frame_origins" env:"GATEWAY_FRAME_ORIGINS" env-default:""`
	} `yaml:"gateway"`
	Merchant struct {
		Pspid    string `yaml:"pspid" env:"MERCHANT_PSPID" env-default:""`
		Template string `yaml:"template" env:"MERCHANT_TEMPLATE" env-default:"master-template"`
		Language string `yaml:"language" env:"MERCHANT_LANGUAGE" env-default:"en_GB"`
		Currency string `yaml:"currency" env:"MERCHANT_CURRENCY" env-default:"GBP"`
		// Amount in minor units charged on capture
		Amount string `yaml:"amount" env:"MERCHANT_AMOUNT" env-default:"1"`
		// Direct API operation code: SAL = sale (authorization + capture)
		Operation  string `yaml:"operation" env:"MERCHANT_OPERATION" env-default:"SAL"`
		AliasUsage string `yaml:"alias_usage" env:"MERCHANT_ALIAS_USAGE" env-default:"Client intake payment"`
	} `yaml:"merchant"`
}

var instance *Config
var once sync.Once

// GetConfig loads configuration from the specified YAML file path.
// Configuration values can be overridden by environment variables.
// This function uses a singleton pattern and only loads the config once.
//
// Environment variables take precedence over YAML values. See Config struct
// for the list of supported environment variables.
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
		instance = &Config{}
		if err = cleanenv.ReadConfig(path, instance); err != nil {
			desc, _ := cleanenv.GetDescription(instance, nil)
			err = fmt.Errorf("load config: %w; %s", err, desc)
			instance = nil
		}
	})
	return instance, err
}

// FrameOriginList splits the configured frame origin allowlist.
// An empty configuration yields an empty list, which the frame
// controller treats as "accept any origin".
func (c *Config) FrameOriginList() []string {
	if c.Gateway.FrameOrigins == "" {
		return nil
	}
	parts := strings.Split(c.Gateway.FrameOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
