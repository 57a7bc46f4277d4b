package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// MonitorConfig controls the polling loop cadence and warm-up behaviour.
type MonitorConfig struct {
	IntervalSeconds int  `mapstructure:"interval_seconds"`
	WarmUp          bool `mapstructure:"warm_up"`
}

// DetectorConfig selects the spike policy for a deployment. Exactly one mode
// is active at a time; the ratio, threshold and cooldown knobs only apply to
// the modes that read them.
type DetectorConfig struct {
	Policy          string  `mapstructure:"policy"`
	Ratio           float64 `mapstructure:"ratio"`
	Threshold       float64 `mapstructure:"threshold"`
	CooldownSeconds int     `mapstructure:"cooldown_seconds"`
	Rounding        string  `mapstructure:"rounding"`
}

// Config is the tunable (non-credential) configuration, loaded from
// config.yaml with environment overrides. Credentials and endpoints live in
// shared/env.
type Config struct {
	Logging struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"logging"`

	Monitor  MonitorConfig  `mapstructure:"monitor"`
	Detector DetectorConfig `mapstructure:"detector"`

	Provider struct {
		BaseURL string `mapstructure:"base_url"`
	} `mapstructure:"provider"`
}

func (m MonitorConfig) Interval() time.Duration {
	return time.Duration(m.IntervalSeconds) * time.Second
}

func (d DetectorConfig) Cooldown() time.Duration {
	return time.Duration(d.CooldownSeconds) * time.Second
}

// LoadConfig loads configuration from the specified file path and merges it
// with environment variables. A missing file is not fatal; defaults apply.
func LoadConfig(path string) (*Config, error) {
	log.Printf("Starting to load configuration from file: %s", path)

	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("monitor.interval_seconds", 300)
	viper.SetDefault("monitor.warm_up", true)
	viper.SetDefault("detector.policy", "ratio")
	viper.SetDefault("detector.ratio", 2.0)
	viper.SetDefault("detector.threshold", 100000)
	viper.SetDefault("detector.cooldown_seconds", 3600)
	viper.SetDefault("detector.rounding", "integer")
	viper.SetDefault("provider.base_url", "https://api.dexscreener.com")

	viper.BindEnv("logging.level", "LOG_LEVEL")
	viper.BindEnv("monitor.interval_seconds", "MONITOR_INTERVAL_SECONDS")
	viper.BindEnv("detector.policy", "DETECTOR_POLICY")
	viper.BindEnv("detector.threshold", "DETECTOR_THRESHOLD")
	viper.BindEnv("detector.cooldown_seconds", "DETECTOR_COOLDOWN_SECONDS")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Could not read config file: %v", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		log.Printf("Error unmarshalling configuration: %v", err)
		return nil, err
	}

	log.Printf("Loaded configuration: policy=%s interval=%ds rounding=%s",
		cfg.Detector.Policy, cfg.Monitor.IntervalSeconds, cfg.Detector.Rounding)
	return &cfg, nil
}
