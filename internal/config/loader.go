package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Loader handles configuration loading from file and environment.
type Loader struct {
	configPath string
	envPrefix  string
}

// NewLoader creates a config loader. configPath may be empty, in which case
// only default locations and environment variables are consulted.
func NewLoader(configPath string) *Loader {
	return &Loader{
		configPath: configPath,
		envPrefix:  "DRIVELINE",
	}
}

// Load reads configuration, layering file values and DRIVELINE_* environment
// variables over the defaults.
func (l *Loader) Load() (*Config, error) {
	v := viper.New()

	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(l.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if l.configPath != "" {
		v.SetConfigFile(l.configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("driveline")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/driveline")
		if err := v.ReadInConfig(); err != nil {
			// A missing file is fine, defaults plus env apply.
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, def *Config) {
	v.SetDefault("storage.data_dir", def.Storage.DataDir)
	v.SetDefault("storage.index_path", def.Storage.IndexPath)
	v.SetDefault("quota.total_bytes", def.Quota.TotalBytes)
	v.SetDefault("http.addr", def.HTTP.Addr)
	v.SetDefault("http.read_timeout", def.HTTP.ReadTimeout)
	v.SetDefault("http.write_timeout", def.HTTP.WriteTimeout)
	v.SetDefault("http.max_upload_bytes", def.HTTP.MaxUploadBytes)
	v.SetDefault("auth.token_ttl", def.Auth.TokenTTL)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.format", def.Log.Format)
}
