// Package config loads storefront settings from an optional YAML file with
// environment overrides, so a bare container can run on defaults alone.
package config

import (
	"errors"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	envPrefix         = "SKINSTORE"
	configFileEnvName = "SKINSTORE_CONFIG_FILE"
)

type Analytics struct {
	SeedBrokers []string `mapstructure:"seed_brokers"`
	Topic       string   `mapstructure:"topic"`
}

type Config struct {
	Addr       string `mapstructure:"addr"`
	AuthURL    string `mapstructure:"auth_url"`
	CatalogURL string `mapstructure:"catalog_url"`
	OrderURL   string `mapstructure:"order_url"`
	JWTSecret  string `mapstructure:"jwt_secret"`

	RecentsPath string `mapstructure:"recents_path"`

	MetricsEnabled bool   `mapstructure:"metrics_enabled"`
	MetricsToken   string `mapstructure:"metrics_token"`

	Analytics Analytics `mapstructure:"analytics"`
}

func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("addr", ":8080")
	v.SetDefault("auth_url", "http://localhost:8081")
	v.SetDefault("catalog_url", "http://localhost:8082")
	v.SetDefault("order_url", "http://localhost:8083")
	v.SetDefault("jwt_secret", "dev-secret")
	v.SetDefault("recents_path", "")
	v.SetDefault("metrics_enabled", false)
	v.SetDefault("metrics_token", "")
	v.SetDefault("analytics.topic", "storefront.searches")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path := configFilepath()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !os.IsNotExist(err) {
				return Config{}, err
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func configFilepath() string {
	cmdLine := pflag.NewFlagSet(os.Args[0], pflag.ContinueOnError)
	arg := cmdLine.String("config", "", "config file")
	_ = cmdLine.Parse(os.Args[1:])

	if env, ok := os.LookupEnv(configFileEnvName); ok {
		return env
	}
	return *arg
}
