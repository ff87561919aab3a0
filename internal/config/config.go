// Package config carga la configuración de la aplicación desde YAML con
// overrides por variables de entorno. El YAML es opcional: sin archivo, los
// defaults más el entorno alcanzan para un deployment dev.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | staging | prod
		Env string `yaml:"env"`
	} `yaml:"app"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	// Identity es la plataforma de identidad externa.
	Identity struct {
		// Driver: "local" (in-memory, dev) | "rest"
		Driver  string `yaml:"driver"`
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
		// Tenant restringe el tenant enterprise del consent SSO.
		// Vacío = "common" (cualquier tenant).
		Tenant string `yaml:"tenant"`
	} `yaml:"identity"`

	// Docstore es el document store de perfiles.
	Docstore struct {
		// Driver: "memory" | "fs" | "postgres"
		Driver string `yaml:"driver"`
		DSN    string `yaml:"dsn"`
		Root   string `yaml:"root"`
	} `yaml:"docstore"`

	// Cache es el slot key-value con alcance de sesión.
	Cache struct {
		// Kind: "memory" | "redis"
		Kind       string        `yaml:"kind"`
		Addr       string        `yaml:"addr"`
		Password   string        `yaml:"password"`
		DB         int           `yaml:"db"`
		Prefix     string        `yaml:"prefix"`
		PendingTTL time.Duration `yaml:"pending_ttl"`
	} `yaml:"cache"`

	// Rate limita por IP los endpoints de credenciales. Limit 0 desactiva
	// el limiter de ese endpoint.
	Rate struct {
		Login    RateLimit `yaml:"login"`
		Register RateLimit `yaml:"register"`
	} `yaml:"rate"`

	// Domains agrega entradas extra al mapa dominio→provider.
	Domains map[string]string `yaml:"domains"`
}

// RateLimit es la configuración fixed-window de un endpoint.
type RateLimit struct {
	Limit  int           `yaml:"limit"`
	Window time.Duration `yaml:"window"`
}

// Load lee el YAML de path (opcional) y aplica defaults y overrides de
// entorno. path vacío o inexistente no es error.
func Load(path string) (*Config, error) {
	var c Config

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, err
			}
		} else if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, err
		}
	}

	c.applyEnvOverrides()

	// sane defaults
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Identity.Driver == "" {
		c.Identity.Driver = "local"
	}
	if c.Identity.Tenant == "" {
		c.Identity.Tenant = "common"
	}
	if c.Docstore.Driver == "" {
		c.Docstore.Driver = "memory"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.Prefix == "" {
		c.Cache.Prefix = "linkgate"
	}
	if c.Rate.Login.Window == 0 {
		c.Rate.Login = RateLimit{Limit: 10, Window: time.Minute}
	}
	if c.Rate.Register.Window == 0 {
		c.Rate.Register = RateLimit{Limit: 5, Window: time.Minute}
	}

	return &c, nil
}

// applyEnvOverrides: pisa el YAML con variables de entorno.
func (c *Config) applyEnvOverrides() {
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = v
	}
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = v
	}

	if v, ok := getEnvStr("IDENTITY_DRIVER"); ok {
		c.Identity.Driver = v
	}
	if v, ok := getEnvStr("IDENTITY_BASE_URL"); ok {
		c.Identity.BaseURL = v
	}
	if v, ok := getEnvStr("IDENTITY_API_KEY"); ok {
		c.Identity.APIKey = v
	}
	if v, ok := getEnvStr("MICROSOFT_TENANT_ID"); ok {
		c.Identity.Tenant = v
	}

	if v, ok := getEnvStr("DOCSTORE_DRIVER"); ok {
		c.Docstore.Driver = v
	}
	if v, ok := getEnvStr("DOCSTORE_DSN"); ok {
		c.Docstore.DSN = v
	}
	if v, ok := getEnvStr("DOCSTORE_ROOT"); ok {
		c.Docstore.Root = v
	}

	if v, ok := getEnvStr("CACHE_KIND"); ok {
		c.Cache.Kind = v
	}
	if v, ok := getEnvStr("CACHE_ADDR"); ok {
		c.Cache.Addr = v
	}
	if v, ok := getEnvStr("CACHE_PASSWORD"); ok {
		c.Cache.Password = v
	}
	if v, ok := getEnvInt("CACHE_DB"); ok {
		c.Cache.DB = v
	}
	if v, ok := getEnvStr("CACHE_PREFIX"); ok {
		c.Cache.Prefix = v
	}
	if v, ok := getEnvDur("CACHE_PENDING_TTL"); ok {
		c.Cache.PendingTTL = v
	}

	if v, ok := getEnvInt("RATE_LOGIN_LIMIT"); ok {
		c.Rate.Login.Limit = v
	}
	if v, ok := getEnvDur("RATE_LOGIN_WINDOW"); ok {
		c.Rate.Login.Window = v
	}
	if v, ok := getEnvInt("RATE_REGISTER_LIMIT"); ok {
		c.Rate.Register.Limit = v
	}
	if v, ok := getEnvDur("RATE_REGISTER_WINDOW"); ok {
		c.Rate.Register.Window = v
	}
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}

func getEnvDur(key string) (time.Duration, bool) {
	if s, ok := getEnvStr(key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(s)); err == nil {
			return d, true
		}
	}
	return 0, false
}
