package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "TODO"

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Logging LoggingConfig `mapstructure:"logging"`
	HTTP    HTTPConfig    `mapstructure:"http"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type StorageConfig struct {
	Path string `mapstructure:"path"`
}

type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

type HTTPConfig struct {
	RateLimitRPM       int      `mapstructure:"rate_limit_rpm"`
	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
}

// Flags registers the command line overrides understood by Load.
func Flags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("todo-api", pflag.ContinueOnError)
	fs.String("config", "", "path to config file (yaml)")
	fs.String("port", "", "port to listen on")
	fs.String("storage", "", "path to the todo store file")
	fs.Bool("dev", false, "development logging")
	return fs
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("storage.path", "todos.json")
	v.SetDefault("logging.development", false)
	v.SetDefault("http.rate_limit_rpm", 0)
	v.SetDefault("http.cors_allowed_origins", []string{"*"})
}

// Load resolves configuration from defaults, an optional yaml file, TODO_* env
// variables and flags, in increasing priority. fs may be nil.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configPath := ""
	if fs != nil {
		configPath, _ = fs.GetString("config")
		bindFlag(v, fs, "server.port", "port")
		bindFlag(v, fs, "storage.path", "storage")
		bindFlag(v, fs, "logging.development", "dev")
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading %s: %w", configPath, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("parsing config.yml: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// bindFlag only binds flags the user actually set, so an empty flag default
// never shadows the file or environment value.
func bindFlag(v *viper.Viper, fs *pflag.FlagSet, key, name string) {
	f := fs.Lookup(name)
	if f == nil || !f.Changed {
		return
	}
	_ = v.BindPFlag(key, f)
}

func (c *Config) validate() error {
	if c.Storage.Path == "" {
		return errors.New("storage.path must not be empty")
	}
	if c.Server.Port == "" {
		return errors.New("server.port must not be empty")
	}
	if c.HTTP.RateLimitRPM < 0 {
		return fmt.Errorf("http.rate_limit_rpm must be >= 0, got %d", c.HTTP.RateLimitRPM)
	}
	return nil
}

func (c *Config) GetServerAddr() string {
	return net.JoinHostPort(c.Server.Host, c.Server.Port)
}
