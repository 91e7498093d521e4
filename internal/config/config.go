package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Bloque app (opcional en YAML). Si no está, queda vacío.
	App struct {
		// dev | staging | prod
		Env string `yaml:"app_env"`
		// debug | info | warn | error
		LogLevel string `yaml:"log_level"`
	} `yaml:"app"`

	Server struct {
		Addr               string   `yaml:"addr"`
		CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	} `yaml:"server"`

	Storage struct {
		// memory | postgres
		Driver   string `yaml:"driver"`
		DSN      string `yaml:"dsn"`
		Postgres struct {
			MaxConns        int    `yaml:"max_conns"`
			ConnMaxLifetime string `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	// Artifacts es el storage durable de los PDFs generados.
	Artifacts struct {
		// Root del layout un-directorio-por-evento.
		Root string `yaml:"root"`
	} `yaml:"artifacts"`

	SMTP struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		From     string `yaml:"from"`
		// auto | starttls | ssl | none
		TLSMode            string `yaml:"tls_mode"`
		InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
	} `yaml:"smtp"`

	Mail struct {
		SubjectPrefix string `yaml:"subject_prefix"`
		Signature     string `yaml:"signature"`
		// Ubicaciones candidatas del banner inline (se prueban en orden;
		// si ninguna existe el mail sale sin banner).
		BannerPaths []string `yaml:"banner_paths"`
	} `yaml:"mail"`

	Dispatch struct {
		// Pool de workers compartido por todos los batches.
		PoolCore  int `yaml:"pool_core"`
		PoolMax   int `yaml:"pool_max"`
		PoolQueue int `yaml:"pool_queue"`
		ChunkSize int `yaml:"chunk_size"`
	} `yaml:"dispatch"`

	Verification struct {
		// BaseURL del frontend público; los QR codifican
		// <base_url>/verify/<token>.
		BaseURL string `yaml:"base_url"`
	} `yaml:"verification"`

	Rate struct {
		Enabled bool `yaml:"enabled"`
		Verify  struct {
			Limit  int    `yaml:"limit"`
			Window string `yaml:"window"`
		} `yaml:"verify"`
	} `yaml:"rate"`

	Cache struct {
		// memory | redis
		Kind  string `yaml:"kind"`
		Redis struct {
			Addr   string `yaml:"addr"`
			DB     int    `yaml:"db"`
			Prefix string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	Auth struct {
		// Secret HS256 del bearer token que trae la identidad ya
		// resuelta. La autenticación en sí vive fuera de este servicio.
		BearerSecret string `yaml:"bearer_secret"`
	} `yaml:"auth"`
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	c.applyDefaults()
	c.applyEnvOverrides()
	return &c, nil
}

// FromEnv construye la config solo desde variables de entorno.
func FromEnv() *Config {
	var c Config
	c.applyDefaults()
	c.applyEnvOverrides()
	return &c
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Artifacts.Root == "" {
		c.Artifacts.Root = "./certificates"
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = 587
	}
	if c.SMTP.TLSMode == "" {
		c.SMTP.TLSMode = "auto"
	}
	// Tamaños del pool: 50 streams paralelos de base, techo 100,
	// cola acotada de 2000 (ver internal/pool).
	if c.Dispatch.PoolCore == 0 {
		c.Dispatch.PoolCore = 50
	}
	if c.Dispatch.PoolMax == 0 {
		c.Dispatch.PoolMax = 100
	}
	if c.Dispatch.PoolQueue == 0 {
		c.Dispatch.PoolQueue = 2000
	}
	if c.Dispatch.ChunkSize == 0 {
		c.Dispatch.ChunkSize = 50
	}
	if c.Verification.BaseURL == "" {
		c.Verification.BaseURL = "http://localhost:5173"
	}
	if c.Rate.Verify.Limit == 0 {
		c.Rate.Verify.Limit = 30
	}
	if c.Rate.Verify.Window == "" {
		c.Rate.Verify.Window = "1m"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if len(c.Mail.BannerPaths) == 0 {
		c.Mail.BannerPaths = []string{
			"assets/email_banner.jpg",
			"/etc/certhub/email_banner.jpg",
		}
	}
}

// applyEnvOverrides: pisa config.yaml con variables de entorno.
func (c *Config) applyEnvOverrides() {
	// APP
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.App.LogLevel = strings.ToLower(v)
	}

	// SERVER
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvCSV("SERVER_CORS_ALLOWED_ORIGINS"); ok {
		c.Server.CORSAllowedOrigins = v
	}

	// STORAGE
	if v, ok := getEnvStr("STORAGE_DRIVER"); ok {
		c.Storage.Driver = v
	}
	if v, ok := getEnvStr("STORAGE_DSN"); ok {
		c.Storage.DSN = v
	}
	if v, ok := getEnvInt("POSTGRES_MAX_CONNS"); ok {
		c.Storage.Postgres.MaxConns = v
	}
	if v, ok := getEnvStr("POSTGRES_CONN_MAX_LIFETIME"); ok {
		c.Storage.Postgres.ConnMaxLifetime = v
	}

	// ARTIFACTS
	if v, ok := getEnvStr("ARTIFACTS_ROOT"); ok {
		c.Artifacts.Root = v
	}

	// SMTP
	if v, ok := getEnvStr("SMTP_HOST"); ok {
		c.SMTP.Host = v
	}
	if v, ok := getEnvInt("SMTP_PORT"); ok {
		c.SMTP.Port = v
	}
	if v, ok := getEnvStr("SMTP_USERNAME"); ok {
		c.SMTP.Username = v
	}
	if v, ok := getEnvStr("SMTP_PASSWORD"); ok {
		c.SMTP.Password = v
	}
	if v, ok := getEnvStr("SMTP_FROM"); ok {
		c.SMTP.From = v
	}
	if v, ok := getEnvStr("SMTP_TLS_MODE"); ok {
		c.SMTP.TLSMode = v
	}
	if v, ok := getEnvBool("SMTP_INSECURE_SKIP_VERIFY"); ok {
		c.SMTP.InsecureSkipVerify = v
	}

	// MAIL
	if v, ok := getEnvStr("MAIL_SUBJECT_PREFIX"); ok {
		c.Mail.SubjectPrefix = v
	}
	if v, ok := getEnvStr("MAIL_SIGNATURE"); ok {
		c.Mail.Signature = v
	}
	if v, ok := getEnvCSV("MAIL_BANNER_PATHS"); ok {
		c.Mail.BannerPaths = v
	}

	// DISPATCH
	if v, ok := getEnvInt("DISPATCH_POOL_CORE"); ok {
		c.Dispatch.PoolCore = v
	}
	if v, ok := getEnvInt("DISPATCH_POOL_MAX"); ok {
		c.Dispatch.PoolMax = v
	}
	if v, ok := getEnvInt("DISPATCH_POOL_QUEUE"); ok {
		c.Dispatch.PoolQueue = v
	}
	if v, ok := getEnvInt("DISPATCH_CHUNK_SIZE"); ok {
		c.Dispatch.ChunkSize = v
	}

	// VERIFICATION
	if v, ok := getEnvStr("VERIFICATION_BASE_URL"); ok {
		c.Verification.BaseURL = strings.TrimRight(v, "/")
	}

	// RATE
	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
	if v, ok := getEnvInt("RATE_VERIFY_LIMIT"); ok {
		c.Rate.Verify.Limit = v
	}
	if v, ok := getEnvStr("RATE_VERIFY_WINDOW"); ok {
		c.Rate.Verify.Window = v
	}

	// CACHE
	if v, ok := getEnvStr("CACHE_KIND"); ok {
		c.Cache.Kind = v
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}
	if v, ok := getEnvStr("REDIS_PREFIX"); ok {
		c.Cache.Redis.Prefix = v
	}

	// AUTH
	if v, ok := getEnvStr("AUTH_BEARER_SECRET"); ok {
		c.Auth.BearerSecret = v
	}
}

// Validate chequea invariantes básicas de la config efectiva.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "memory":
	case "postgres":
		if strings.TrimSpace(c.Storage.DSN) == "" {
			return fmt.Errorf("storage: postgres driver requires dsn")
		}
	default:
		return fmt.Errorf("storage: unknown driver %q", c.Storage.Driver)
	}
	if c.Dispatch.PoolCore <= 0 || c.Dispatch.PoolMax < c.Dispatch.PoolCore {
		return fmt.Errorf("dispatch: pool_core must be > 0 and pool_max >= pool_core")
	}
	if c.Dispatch.ChunkSize <= 0 {
		return fmt.Errorf("dispatch: chunk_size must be > 0")
	}
	if _, err := time.ParseDuration(c.Rate.Verify.Window); err != nil {
		return fmt.Errorf("rate: verify window: %w", err)
	}
	if c.Cache.Kind != "memory" && c.Cache.Kind != "redis" {
		return fmt.Errorf("cache: unknown kind %q", c.Cache.Kind)
	}
	return nil
}

// VerifyWindow retorna la ventana del rate limit parseada.
func (c *Config) VerifyWindow() time.Duration {
	d, err := time.ParseDuration(c.Rate.Verify.Window)
	if err != nil {
		return time.Minute
	}
	return d
}

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

func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}

func getEnvCSV(key string) ([]string, bool) {
	if s, ok := getEnvStr(key); ok {
		if strings.TrimSpace(s) == "" {
			return []string{}, true
		}
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				out = append(out, p)
			}
		}
		return out, true
	}
	return nil, false
}
