// This file defines the configuration structure for the application.
package config

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration settings for the application.
// It maps directly to the structure of config.yml.
type Config struct {
	Port             int    `mapstructure:"port"`
	MinClientVersion string `mapstructure:"min_client_version"`
	Database         struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"database"`
	Covers struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"covers"`
	Import struct {
		InboxPath string `mapstructure:"inbox_path"`
		FamilyID  string `mapstructure:"family_id"`
		MemberID  string `mapstructure:"member_id"`
	} `mapstructure:"import"`
	Jobs struct {
		// ReconcileInterval is in minutes; 0 disables scheduled jobs.
		ReconcileInterval int `mapstructure:"reconcile_interval"`
	} `mapstructure:"jobs"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 8080)
	v.SetDefault("min_client_version", "")
	v.SetDefault("database.path", "./shelf.db")
	v.SetDefault("covers.path", "./covers")
	v.SetDefault("import.inbox_path", "")
	v.SetDefault("import.family_id", "")
	v.SetDefault("import.member_id", "")
	v.SetDefault("jobs.reconcile_interval", 60)
}

// Load reads configuration from a file named "config.yml" in the
// current directory and unmarshals it into a Config struct.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is like Load but reads the given config file instead. An empty
// path searches the current directory.
//
// A .env file in the working directory is loaded first; variables already
// set in the environment win over it. SHELF_ variables override the file,
// e.g. SHELF_DATABASE_PATH overrides database.path.
func LoadFile(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("SHELF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	return &config, nil
}
