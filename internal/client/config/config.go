// Package config holds runtime settings for the admin console.
//
// Values are layered: built-in defaults, then an optional YAML config file,
// then ADMINCTL_* environment variables. Later sources take precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds runtime settings for the console.
//
// Fields:
//   - OauthBaseURL: base URL of the auth/profile service.
//   - StorageBaseURL: base URL of the file-storage service.
//   - CredentialFile: path of the persisted token file ("~" is expanded).
//   - TokenTTL: sliding lifetime of the persisted token.
//   - RevalidateInterval: how often the session gate re-checks the token.
//   - RequestTimeout: per-request timeout for remote calls.
type Config struct {
	OauthBaseURL       string        `mapstructure:"oauth_base_url"`
	StorageBaseURL     string        `mapstructure:"storage_base_url"`
	CredentialFile     string        `mapstructure:"credential_file"`
	TokenTTL           time.Duration `mapstructure:"token_ttl"`
	RevalidateInterval time.Duration `mapstructure:"revalidate_interval"`
	RequestTimeout     time.Duration `mapstructure:"request_timeout"`
}

// Load constructs a Config. If path is non-empty the file must exist and
// parse; otherwise only defaults and environment variables apply.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("oauth_base_url", "https://oauth.antonkuzm.in")
	v.SetDefault("storage_base_url", "https://storage.antonkuzm.in")
	v.SetDefault("credential_file", "~/.adminctl/token.json")
	v.SetDefault("token_ttl", 24*time.Hour)
	v.SetDefault("revalidate_interval", 10*time.Minute)
	v.SetDefault("request_timeout", 30*time.Second)

	v.SetEnvPrefix("adminctl")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}
