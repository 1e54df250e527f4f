package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config — вся конфигурация сервиса (файл + переменные окружения).
type Config struct {
	Server struct {
		Address  string `mapstructure:"address"`
		HTTPPort string `mapstructure:"http_port"`
	} `mapstructure:"server"`

	Database struct {
		// "mysql" | "postgres" | "" (без БД)
		Driver string `mapstructure:"driver"`
		DSN    string `mapstructure:"dsn"`
	} `mapstructure:"database"`

	Logging struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
		File   string `mapstructure:"file"`
	} `mapstructure:"logging"`

	TTLock struct {
		BaseURL        string `mapstructure:"base_url"`
		ClientID       string `mapstructure:"client_id"`
		ClientSecret   string `mapstructure:"client_secret"`
		TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	} `mapstructure:"ttlock"`

	Otp struct {
		ResendSeconds   int `mapstructure:"resend_seconds"`
		VerifyWindowMin int `mapstructure:"verify_window_minutes"`
	} `mapstructure:"otp"`

	SMS struct {
		URL    string `mapstructure:"url"`
		APIKey string `mapstructure:"api_key"`
		Sender string `mapstructure:"sender"`
	} `mapstructure:"sms"`

	SMTP struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		Username string `mapstructure:"username"`
		Password string `mapstructure:"password"`
		From     string `mapstructure:"from"`
	} `mapstructure:"smtp"`
}

// Load читает config.yaml (если есть) и переменные окружения RESIDO_*.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.address", "0.0.0.0")
	v.SetDefault("server.http_port", "8080")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("ttlock.base_url", "https://euapi.ttlock.com")
	v.SetDefault("ttlock.timeout_seconds", 15)
	v.SetDefault("otp.resend_seconds", 120)
	v.SetDefault("otp.verify_window_minutes", 50)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/resido")
	}

	v.SetEnvPrefix("RESIDO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// файл опционален; env-переменных достаточно
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && path != "" {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
