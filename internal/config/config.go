// Package config loads engine configuration with spf13/viper, the way the
// teacher's go.mod declares it for (unexercised, until now) layered
// config: environment variables, an optional config file, and defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is every knob the engine's cmd/engine binary needs at boot.
type Config struct {
	ListenAddr string `mapstructure:"listen_addr"`

	// MetadataPath is the authoring-time metadata document (§1, §3) read
	// at boot and on every reload.
	MetadataPath string `mapstructure:"metadata_path"`
	// SnapshotPath is where the last successfully resolved metadata is
	// persisted, for warm-starting if MetadataPath is briefly unreadable.
	SnapshotPath string `mapstructure:"snapshot_path"`

	// MetadataReloadCron schedules a periodic re-read of MetadataPath
	// (internal/watch), independent of any push-based invalidation.
	MetadataReloadCron string `mapstructure:"metadata_reload_cron"`

	// InvalidationBrokers/Topic configure the franz-go consumer that
	// triggers an immediate schema rebuild on a metadata-changed event,
	// instead of waiting for the next cron tick.
	InvalidationBrokers []string `mapstructure:"invalidation_brokers"`
	InvalidationTopic   string   `mapstructure:"invalidation_topic"`
	InvalidationGroupID string   `mapstructure:"invalidation_group_id"`

	JWTSecret string `mapstructure:"jwt_secret"`

	ConnectorTimeout time.Duration `mapstructure:"connector_timeout"`
}

func DefaultConfig() Config {
	return Config{
		ListenAddr:          ":8080",
		MetadataPath:        "metadata.json",
		SnapshotPath:        "metadata.snapshot",
		MetadataReloadCron:  "@every 30s",
		InvalidationTopic:   "graphql-engine.metadata-changed",
		InvalidationGroupID: "graphql-engine",
		JWTSecret:           "",
		ConnectorTimeout:    10 * time.Second,
	}
}

// Load reads configPath (if non-empty and present) over DefaultConfig,
// then layers GRAPHQL_ENGINE_-prefixed environment variables on top.
func Load(configPath string) (Config, error) {
	v := viper.New()
	def := DefaultConfig()
	v.SetDefault("listen_addr", def.ListenAddr)
	v.SetDefault("metadata_path", def.MetadataPath)
	v.SetDefault("snapshot_path", def.SnapshotPath)
	v.SetDefault("metadata_reload_cron", def.MetadataReloadCron)
	v.SetDefault("invalidation_topic", def.InvalidationTopic)
	v.SetDefault("invalidation_group_id", def.InvalidationGroupID)
	v.SetDefault("jwt_secret", def.JWTSecret)
	v.SetDefault("connector_timeout", def.ConnectorTimeout)

	v.SetEnvPrefix("graphql_engine")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !errors.Is(err, fs.ErrNotExist) {
				return Config{}, fmt.Errorf("reading config %s: %w", configPath, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}
