package core

import (
	"fmt"
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type (
	Config struct {
		Env                       string // DEV (local; default), TEST, QA, PROD
		Build                     string
		Debug                     bool
		TestMode                  bool
		AppName                   string
		SecretKey                 string
		FrontendBaseURL           string
		DefaultFromEmailAddress   string
		PasswordResetTimeoutDelta time.Duration
		RollbarToken              string
		SendgridApiKey            string
		Storage                   string
		Server                    ServerConfig
		Database                  DatabaseConfig
		Cache                     CacheConfig
	}

	ServerConfig struct {
		Host                      string
		Addr                      string
		DebugAddr                 string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	CacheConfig struct {
		RedisURL    string
		QuestionTTL time.Duration
	}
)

func (c DatabaseConfig) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

func (c *Config) DefaultFromEmail() mail.Address {
	addr, err := mail.ParseAddress(c.DefaultFromEmailAddress)
	if err != nil {
		return mail.Address{Name: c.AppName, Address: "noreply@localhost"}
	}
	if addr.Name == "" {
		addr.Name = c.AppName
	}
	return *addr
}

// NewConfig loads the configuration from the environment.
// A `config/.env.<env>` file is loaded first when present.
func NewConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}

	setDefaults(v, env)
	bindEnv(v)

	hostname, _ := os.Hostname()
	return &Config{
		Env:                       env,
		Build:                     v.GetString("build"),
		Debug:                     v.GetBool("debug"),
		TestMode:                  v.GetBool("testMode"),
		AppName:                   v.GetString("appName"),
		SecretKey:                 v.GetString("secretKey"),
		FrontendBaseURL:           strings.TrimRight(v.GetString("frontendBaseURL"), "/"),
		DefaultFromEmailAddress:   v.GetString("defaultFromEmail"),
		PasswordResetTimeoutDelta: v.GetDuration("passwordResetTimeoutDelta"),
		RollbarToken:              v.GetString("rollbarToken"),
		SendgridApiKey:            v.GetString("sendgridApiKey"),
		Storage:                   strings.ToLower(v.GetString("storage")),
		Server: ServerConfig{
			Host:                      hostname,
			Addr:                      v.GetString("server.addr"),
			DebugAddr:                 v.GetString("server.debugAddr"),
			ShutdownTimeout:           v.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta:        v.GetDuration("server.jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("server.jwtRefreshExpirationDelta"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Host:          v.GetString("database.host"),
			Port:          v.GetString("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
		},
		Cache: CacheConfig{
			RedisURL:    v.GetString("cache.redisURL"),
			QuestionTTL: v.GetDuration("cache.questionTTL"),
		},
	}
}

func setDefaults(v *viper.Viper, env string) {
	v.SetDefault("build", "develop")
	v.SetDefault("debug", env == "DEV")
	v.SetDefault("testMode", env == "TEST")
	v.SetDefault("appName", "Educare+")
	v.SetDefault("secretKey", "x9#h1-kq8!s=v3m$0z@w7r^e(d4j)p2&n6b+y5c*a_t%u")
	v.SetDefault("frontendBaseURL", "http://localhost:5173")
	v.SetDefault("defaultFromEmail", "Educare+ <noreply@localhost>")
	v.SetDefault("passwordResetTimeoutDelta", 3*24*time.Hour)
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("storage", StoragePostgres)

	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.debugAddr", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.jwtRefreshExpirationDelta", 4*time.Hour)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "educare")
	v.SetDefault("database.user", "educare")
	v.SetDefault("database.password", "")
	v.SetDefault("database.adminUser", "")
	v.SetDefault("database.adminPassword", "")
	v.SetDefault("database.disableTLS", env == "DEV" || env == "TEST")

	v.SetDefault("cache.redisURL", "")
	v.SetDefault("cache.questionTTL", 10*time.Minute)
}

func bindEnv(v *viper.Viper) {
	envKeys := map[string]string{
		"build":                            "BUILD",
		"debug":                            "DEBUG",
		"secretKey":                        "SECRET_KEY",
		"frontendBaseURL":                  "FRONTEND_BASE_URL",
		"defaultFromEmail":                 "DEFAULT_FROM_EMAIL",
		"passwordResetTimeoutDelta":        "PASSWORD_RESET_TIMEOUT_DELTA",
		"rollbarToken":                     "ROLLBAR_TOKEN",
		"sendgridApiKey":                   "SENDGRID_API_KEY",
		"storage":                          "STORAGE",
		"server.addr":                      "SERVER_ADDR",
		"server.debugAddr":                 "DEBUG_ADDR",
		"server.shutdownTimeout":           "SHUTDOWN_TIMEOUT",
		"server.jwtExpirationDelta":        "JWT_EXPIRATION_DELTA",
		"server.jwtRefreshExpirationDelta": "JWT_REFRESH_EXPIRATION_DELTA",
		"database.engine":                  "DB_ENGINE",
		"database.host":                    "DB_HOST",
		"database.port":                    "DB_PORT",
		"database.name":                    "DB_DATABASE",
		"database.user":                    "DB_USERNAME",
		"database.password":                "DB_PASSWORD",
		"database.adminUser":               "DB_ADMIN_USERNAME",
		"database.adminPassword":           "DB_ADMIN_PASSWORD",
		"database.disableTLS":              "DB_DISABLE_TLS",
		"cache.redisURL":                   "REDIS_URL",
		"cache.questionTTL":                "QUESTION_CACHE_TTL",
	}
	for key, envKey := range envKeys {
		if err := v.BindEnv(key, envKey); err != nil {
			panic(fmt.Sprintf("config.BindEnv(%s): %v", key, err))
		}
	}
}

// NewTestConfig returns a Config suitable for tests; nothing is read from the environment.
func NewTestConfig() *Config {
	return &Config{
		Env:                       "TEST",
		Build:                     "test",
		TestMode:                  true,
		AppName:                   "Educare+",
		SecretKey:                 "test-secret",
		FrontendBaseURL:           "http://localhost:5173",
		DefaultFromEmailAddress:   "Educare+ <noreply@test.local>",
		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
		Storage:                   StorageMemory,
		Server: ServerConfig{
			Addr:                      ":0",
			ShutdownTimeout:           time.Second,
			JWTExpirationDelta:        24 * time.Hour,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
	}
}
