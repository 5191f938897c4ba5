package core

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Token store backends
const (
	TokenBackendFile   = "file"
	TokenBackendMemory = "memory"
	TokenBackendDB     = "db"
)

type (
	Config struct {
		Debug        bool
		TestMode     bool
		Env          string
		Build        string
		AppName      string
		RollbarToken string

		API      APIConfig
		Token    TokenConfig
		Server   ServerConfig
		Database DatabaseConfig
		Upload   UploadDefaults
	}

	APIConfig struct {
		BaseURL string
		Timeout time.Duration
	}

	TokenConfig struct {
		Backend string // file | memory | db
		Key     string
		File    string
	}

	ServerConfig struct {
		Host            string
		Address         string
		DebugHost       string
		ShutdownTimeout time.Duration
	}

	DatabaseConfig struct {
		Engine     string // postgres | mysql
		Host       string
		Port       int
		User       string
		Password   string
		Name       string
		DisableTLS bool
	}

	UploadDefaults struct {
		NumQuestions int
		NumAnswers   int
	}
)

func (dbc DatabaseConfig) Address() string {
	return fmt.Sprintf("%s:%d", dbc.Host, dbc.Port)
}

// NewConfig loads the configuration from defaults, `config/.env.<env>` and the environment.
// ENV selects the environment (DEV (local; default), TEST, QA, PROD) and the env var prefix.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("build", "develop")
	v.SetDefault("appName", "Teacher Dashboard")
	v.SetDefault("rollbarToken", "")

	v.SetDefault("api.baseURL", "http://localhost:5001/api")
	v.SetDefault("api.timeout", 30*time.Second)

	v.SetDefault("token.backend", TokenBackendFile)
	v.SetDefault("token.key", "token")
	v.SetDefault("token.file", defaultTokenFile())

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "teacherdash")
	v.SetDefault("database.disableTLS", true)

	v.SetDefault("upload.numQuestions", 5)
	v.SetDefault("upload.numAnswers", 4)

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(ConfigDir(), ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		Debug:        v.GetBool("debug"),
		TestMode:     v.GetBool("testMode"),
		Env:          env,
		Build:        v.GetString("build"),
		AppName:      v.GetString("appName"),
		RollbarToken: v.GetString("rollbarToken"),
		API: APIConfig{
			BaseURL: strings.TrimRight(v.GetString("api.baseURL"), "/"),
			Timeout: v.GetDuration("api.timeout"),
		},
		Token: TokenConfig{
			Backend: strings.ToLower(v.GetString("token.backend")),
			Key:     v.GetString("token.key"),
			File:    v.GetString("token.file"),
		},
		Server: ServerConfig{
			Host:            v.GetString("server.host"),
			Address:         v.GetString("server.address"),
			DebugHost:       v.GetString("server.debugHost"),
			ShutdownTimeout: v.GetDuration("server.shutdownTimeout"),
		},
		Database: DatabaseConfig{
			Engine:     strings.ToLower(v.GetString("database.engine")),
			Host:       v.GetString("database.host"),
			Port:       v.GetInt("database.port"),
			User:       v.GetString("database.user"),
			Password:   v.GetString("database.password"),
			Name:       v.GetString("database.name"),
			DisableTLS: v.GetBool("database.disableTLS"),
		},
		Upload: UploadDefaults{
			NumQuestions: v.GetInt("upload.numQuestions"),
			NumAnswers:   v.GetInt("upload.numAnswers"),
		},
	}
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "teacherdash", "session.json")
}
