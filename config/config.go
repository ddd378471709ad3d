package config

import (
	"path/filepath"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/crochee/jobflow/pkg/validator"
)

// Config is the configuration of the jobflow process.
type Config struct {
	Log        Log         `mapstructure:"log"`
	HTTP       HTTP        `mapstructure:"http"`
	Schedulers []Scheduler `mapstructure:"schedulers" validate:"required,min=1,dive"`
	Demo       Demo        `mapstructure:"demo"`
}

type Log struct {
	Level   string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error dpanic panic fatal"`
	Path    string `mapstructure:"path"`
	Console bool   `mapstructure:"console"`
}

type HTTP struct {
	Addr    string `mapstructure:"addr" validate:"required"`
	GinMode string `mapstructure:"gin_mode" validate:"omitempty,oneof=debug release test"`
	// CORSOrigins enables cross-origin requests from these origins.
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// Scheduler configures one in-memory scheduler instance.
type Scheduler struct {
	Name             string        `mapstructure:"name" validate:"scheduler_name"`
	Interval         time.Duration `mapstructure:"interval" validate:"gt=0"`
	Slots            int           `mapstructure:"slots" validate:"gt=0"`
	MisfireThreshold time.Duration `mapstructure:"misfire_threshold" validate:"gte=0"`
}

// Demo configures the callback workflow the binary runs.
type Demo struct {
	Enabled       bool          `mapstructure:"enabled"`
	CallbackURL   string        `mapstructure:"callback_url" validate:"omitempty,url"`
	Attempts      int           `mapstructure:"attempts" validate:"gte=0"`
	Delay         time.Duration `mapstructure:"delay" validate:"gte=0"`
	Timeout       time.Duration `mapstructure:"timeout" validate:"gte=0"`
	Retries       int           `mapstructure:"retries" validate:"gte=0"`
	RetryInterval time.Duration `mapstructure:"retry_interval" validate:"gte=0"`
	// RateLimit bounds the callback requests per second, 0 means unlimited.
	RateLimit float64 `mapstructure:"rate_limit" validate:"gte=0"`
	// FailFirst makes the local receiver refuse the first requests, so retries show up.
	FailFirst int `mapstructure:"fail_first" validate:"gte=0"`
}

type option struct {
	cfg        string
	name       string
	envPrefix  string
	configType string
}

type Option func(*option)

func WithConfigFile(cfg string) Option {
	return func(o *option) {
		o.cfg = cfg
	}
}

func WithConfigType(configType string) Option {
	return func(o *option) {
		o.configType = configType
	}
}

func WithName(name string) Option {
	return func(o *option) {
		o.name = name
	}
}

func WithEnvPrefix(envPrefix string) Option {
	return func(o *option) {
		o.envPrefix = envPrefix
	}
}

// LoadConfig reads the config file at path.
func LoadConfig(path string) (*Config, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	return Load(WithConfigFile(absPath))
}

// Load reads the configuration, environment variables win over the file.
func Load(opts ...Option) (*Config, error) {
	o := &option{
		name:       ".jobflow",
		envPrefix:  "jobflow",
		configType: "yaml",
	}
	for _, opt := range opts {
		opt(o)
	}
	v := viper.New()
	if o.cfg != "" {
		// Use config file from the flag.
		v.SetConfigFile(o.cfg)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(home)
		v.SetConfigName(o.name)
		v.SetConfigType(o.configType)
	}
	setDefaults(v)
	v.SetEnvPrefix(o.envPrefix) // set environment variables prefix to avoid conflict
	v.AutomaticEnv()            // read in environment variables that match

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	for i := range c.Schedulers {
		fillScheduler(&c.Schedulers[i])
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.console", true)
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.gin_mode", "release")
	v.SetDefault("demo.attempts", 3)
	v.SetDefault("demo.delay", "5s")
	v.SetDefault("demo.timeout", "10s")
	v.SetDefault("demo.retries", 2)
	v.SetDefault("demo.retry_interval", "200ms")
}

// fillScheduler sets the scheduler fields a list entry left out.
func fillScheduler(s *Scheduler) {
	if s.Interval == 0 {
		s.Interval = 100 * time.Millisecond
	}
	if s.Slots == 0 {
		s.Slots = 1024
	}
	if s.MisfireThreshold == 0 {
		s.MisfireThreshold = 5 * time.Second
	}
}

func (c *Config) Validate() error {
	v, err := validator.New()
	if err != nil {
		return err
	}
	if err = v.ValidateStruct(c); err != nil {
		return errors.Wrap(err, "invalid config")
	}
	if c.Demo.Enabled && c.Demo.CallbackURL == "" {
		return errors.New("invalid config: demo.callback_url is required when the demo is enabled")
	}
	seen := make(map[string]struct{}, len(c.Schedulers))
	for _, s := range c.Schedulers {
		if _, ok := seen[s.Name]; ok {
			return errors.Errorf("invalid config: scheduler %s configured twice", s.Name)
		}
		seen[s.Name] = struct{}{}
	}
	return nil
}
