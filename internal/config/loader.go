package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/lougail/Web-scraping-project/internal/db"
)

// Config is the full application configuration.
type Config struct {
	Env           string
	LogLevel      string
	ServerAddr    string
	SourceBaseURL string
	PageSize      int
	PageSizeMax   int
	Database      db.Config
}

// Default returns the configuration used when no config file or environment
// overrides are present.
func Default() Config {
	return Config{
		Env:           "development",
		LogLevel:      "info",
		ServerAddr:    ":8080",
		SourceBaseURL: "http://books.toscrape.com",
		PageSize:      20,
		PageSizeMax:   100,
		Database:      db.DefaultConfig(),
	}
}

// Load reads config.yaml from configPath and applies environment overrides
// (BOOKS_ prefix, e.g. BOOKS_DATABASE_HOST).
func Load(configPath string) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AutomaticEnv()
	v.SetEnvPrefix("BOOKS")

	v.BindEnv("app.env")
	v.BindEnv("app.log_level")
	v.BindEnv("server.addr")
	v.BindEnv("source.base_url")
	v.BindEnv("database.host")
	v.BindEnv("database.port")
	v.BindEnv("database.user")
	v.BindEnv("database.password")
	v.BindEnv("database.dbname")
	v.BindEnv("database.sslmode")

	if err := v.ReadInConfig(); err != nil {
		// Config file not found? Use defaults + env
		fmt.Println("No config.yaml found, using defaults and env vars")
	}

	if v.IsSet("app.env") {
		cfg.Env = v.GetString("app.env")
	}
	if v.IsSet("app.log_level") {
		cfg.LogLevel = v.GetString("app.log_level")
	}
	if v.IsSet("server.addr") {
		cfg.ServerAddr = v.GetString("server.addr")
	}
	if v.IsSet("source.base_url") {
		cfg.SourceBaseURL = v.GetString("source.base_url")
	}
	if v.IsSet("pagination.default") {
		cfg.PageSize = v.GetInt("pagination.default")
	}
	if v.IsSet("pagination.max") {
		cfg.PageSizeMax = v.GetInt("pagination.max")
	}
	if v.IsSet("database.host") {
		cfg.Database.Host = v.GetString("database.host")
	}
	if v.IsSet("database.port") {
		cfg.Database.Port = v.GetInt("database.port")
	}
	if v.IsSet("database.user") {
		cfg.Database.User = v.GetString("database.user")
	}
	if v.IsSet("database.password") {
		cfg.Database.Password = v.GetString("database.password")
	}
	if v.IsSet("database.dbname") {
		cfg.Database.DBName = v.GetString("database.dbname")
	}
	if v.IsSet("database.sslmode") {
		cfg.Database.SSLMode = v.GetString("database.sslmode")
	}

	return cfg, nil
}
