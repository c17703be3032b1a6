package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	envPrefix           = "MARGIN"
	defaultHTTPAddress  = "0.0.0.0:8080"
	defaultLogLevel     = "info"
	defaultCurrentUser  = "You"
	defaultDocumentPath = "reading.txt"
)

// AppConfig captures runtime configuration for the annotation service.
type AppConfig struct {
	HTTPAddress  string
	DocumentPath string
	SeedPath     string
	CurrentUser  string
	LogLevel     string
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("document.path", defaultDocumentPath)
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("user.name", defaultCurrentUser)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:  configViper.GetString("http.address"),
		DocumentPath: configViper.GetString("document.path"),
		SeedPath:     configViper.GetString("seed.path"),
		CurrentUser:  configViper.GetString("user.name"),
		LogLevel:     configViper.GetString("log.level"),
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) validate() error {
	if strings.TrimSpace(c.HTTPAddress) == "" {
		return fmt.Errorf("http.address is required")
	}
	if strings.TrimSpace(c.DocumentPath) == "" {
		return fmt.Errorf("document.path is required")
	}
	if strings.TrimSpace(c.CurrentUser) == "" {
		return fmt.Errorf("user.name is required")
	}
	return nil
}
