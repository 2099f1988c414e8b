// Package config provides configuration loading, validation, and hot
// reload of runtime tunables.
package config

import "time"

// Config holds runtime configuration for the Lumen wallet bot.
type Config struct {
	AppEnv string `mapstructure:"-"`

	Log struct {
		Level string `mapstructure:"level"`
		File  string `mapstructure:"file"`
	} `mapstructure:"log"`

	Server struct {
		Port string `mapstructure:"port" validate:"required"`
	} `mapstructure:"server"`

	Bot struct {
		Token   string        `mapstructure:"token" validate:"required"`
		Mode    string        `mapstructure:"mode" validate:"oneof=polling webhook"`
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"bot"`

	Redis struct {
		Enabled  bool   `mapstructure:"enabled"`
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`

	Session struct {
		// Backend is "memory" or "redis".
		Backend       string        `mapstructure:"backend" validate:"oneof=memory redis"`
		IdleTTL       time.Duration `mapstructure:"idle_ttl"`
		SweepInterval time.Duration `mapstructure:"sweep_interval"`
	} `mapstructure:"session"`

	Trade struct {
		DefaultSlippageBps int           `mapstructure:"default_slippage_bps" validate:"min=1,max=5000"`
		NativeFeeBuffer    float64       `mapstructure:"native_fee_buffer" validate:"min=0"`
		CallTimeout        time.Duration `mapstructure:"call_timeout"`
	} `mapstructure:"trade"`

	RateLimit struct {
		PerUser   int           `mapstructure:"per_user"`
		Window    time.Duration `mapstructure:"window"`
		Whitelist []int64       `mapstructure:"whitelist"`
	} `mapstructure:"ratelimit"`

	Sentry struct {
		Enabled bool   `mapstructure:"enabled"`
		DSN     string `mapstructure:"dsn"`
	} `mapstructure:"sentry"`
}
