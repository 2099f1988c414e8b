package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configuration from the per-environment YAML file and
// environment variables, validates it, and returns the resulting Config.
func Load() (*Config, error) {
	if err := godotenv.Load(".env.local", ".env"); err != nil {
		// missing env files are fine
		_ = err
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	return loadFile(configPath(env), env)
}

func configPath(env string) string {
	return fmt.Sprintf("./configs/%s.yaml", env)
}

func loadFile(path, env string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	applyDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.AppEnv = env

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("server.port", ":8080")
	v.SetDefault("bot.mode", "polling")
	v.SetDefault("bot.timeout", 10*time.Second)
	v.SetDefault("session.backend", "memory")
	v.SetDefault("session.idle_ttl", 30*time.Minute)
	v.SetDefault("session.sweep_interval", 5*time.Minute)
	v.SetDefault("trade.default_slippage_bps", 100)
	v.SetDefault("trade.native_fee_buffer", 0.01)
	v.SetDefault("trade.call_timeout", 15*time.Second)
	v.SetDefault("ratelimit.per_user", 20)
	v.SetDefault("ratelimit.window", time.Minute)
}

// Watch re-loads the config file on change and hands the fresh Config to
// onChange. Invalid edits are logged and skipped, keeping the last good
// configuration in effect. It blocks until the watcher fails or the file is
// removed.
func Watch(env string, log *slog.Logger, onChange func(*Config)) error {
	if onChange == nil {
		return nil
	}

	if log == nil {
		log = slog.Default()
	}

	path := configPath(env)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch config dir: %w", err)
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}

			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			cfg, loadErr := loadFile(path, env)
			if loadErr != nil {
				log.Warn("config reload skipped", slog.Any("error", loadErr))
				continue
			}

			log.Info("config reloaded", slog.String("path", path))
			onChange(cfg)
		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("config watcher: %w", watchErr)
		}
	}
}
