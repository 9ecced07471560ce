package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultBaseURL        = "https://api.boavizta.org"
	DefaultRemoteTimeout  = 30 * time.Second
	DefaultPluginTimeout  = 60 * time.Second
	DefaultSinkTable      = "impact_results"
	DefaultCredentialFile = ".impactcfg"
)

type Settings struct {
	Remote      RemoteSettings      `mapstructure:"remote"`
	Credentials CredentialSettings  `mapstructure:"credentials"`
	Models      []ModelSettings     `mapstructure:"models"`
	Plugin      PluginSettings      `mapstructure:"plugin"`
	Aggregation AggregationSettings `mapstructure:"aggregation"`
	Sink        SinkSettings        `mapstructure:"sink"`
	Export      ExportSettings      `mapstructure:"export"`
}

type RemoteSettings struct {
	BaseURL         string        `mapstructure:"base_url"`
	Timeout         time.Duration `mapstructure:"timeout"`
	LenientResponse bool          `mapstructure:"lenient_response"`
}

type CredentialSettings struct {
	Path string `mapstructure:"path"`
}

// ModelSettings binds a node name to a registered model and its static parameters.
type ModelSettings struct {
	Node         string                 `mapstructure:"name"`
	Model        string                 `mapstructure:"model"`
	StaticParams map[string]interface{} `mapstructure:"static_params"`
	Profile      string                 `mapstructure:"credentials_profile"`
}

type PluginSettings struct {
	Command string            `mapstructure:"command"`
	Mapping map[string]string `mapstructure:"mapping"`
	Timeout time.Duration     `mapstructure:"timeout"`
}

type AggregationSettings struct {
	Metrics []string          `mapstructure:"metrics"`
	Methods map[string]string `mapstructure:"methods"`
}

type SinkSettings struct {
	Driver  string `mapstructure:"driver"` // databricks | snowflake
	DSN     string `mapstructure:"dsn"`
	Profile string `mapstructure:"credentials_profile"`
	Table   string `mapstructure:"table"`
}

type ExportSettings struct {
	Bucket  string `mapstructure:"bucket"`
	Prefix  string `mapstructure:"prefix"`
	Profile string `mapstructure:"profile"`
	Region  string `mapstructure:"region"`
}

// LoadSettings reads the settings file at path. The format follows the file extension.
func LoadSettings(path string) (*Settings, error) {
	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}

	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return &s, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("remote.base_url", DefaultBaseURL)
	v.SetDefault("remote.timeout", DefaultRemoteTimeout)
	v.SetDefault("plugin.timeout", DefaultPluginTimeout)
	v.SetDefault("sink.table", DefaultSinkTable)

	if home, err := os.UserHomeDir(); err == nil {
		v.SetDefault("credentials.path", filepath.Join(home, DefaultCredentialFile))
	}
}

func (s *Settings) validate() error {
	seen := make(map[string]struct{}, len(s.Models))
	for i, m := range s.Models {
		if m.Node == "" {
			return fmt.Errorf("models[%d]: name is required", i)
		}
		if m.Model == "" {
			return fmt.Errorf("models[%d] %q: model is required", i, m.Node)
		}
		if _, dup := seen[m.Node]; dup {
			return fmt.Errorf("models[%d]: duplicate name %q", i, m.Node)
		}
		seen[m.Node] = struct{}{}
	}

	switch s.Sink.Driver {
	case "", "databricks", "snowflake":
	default:
		return fmt.Errorf("sink.driver: unsupported driver %q", s.Sink.Driver)
	}
	return nil
}

// Model returns the settings of the named node.
func (s *Settings) Model(node string) (ModelSettings, bool) {
	for _, m := range s.Models {
		if m.Node == node {
			return m, true
		}
	}
	return ModelSettings{}, false
}
