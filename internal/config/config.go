package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Modos de la acción "deactivate" del detalle de usuario.
const (
	// DeactivateNotImplemented responde 501 sin llamar al backend (default).
	DeactivateNotImplemented = "not_implemented"
	// DeactivateStub responde éxito sintético sin llamar al backend (comportamiento legacy).
	DeactivateStub = "stub"
	// DeactivateBackend llama PATCH /{id}/deactivate en el backend IAM.
	DeactivateBackend = "backend"
)

type Config struct {
	App struct {
		// dev | staging | prod
		Env     string `yaml:"app_env"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Server struct {
		Addr               string        `yaml:"addr"`
		CORSAllowedOrigins []string      `yaml:"cors_allowed_origins"`
		ReadTimeout        time.Duration `yaml:"read_timeout"`
		WriteTimeout       time.Duration `yaml:"write_timeout"`
		ShutdownTimeout    time.Duration `yaml:"shutdown_timeout"`
		MaxFormBytes       int64         `yaml:"max_form_bytes"`
		// Confiar en X-Forwarded-For (solo detrás de un proxy que lo reescribe).
		TrustProxyHeaders  bool          `yaml:"trust_proxy_headers"`
	} `yaml:"server"`

	// Backend IAM al que se hace proxy (HYPERSCAL_BACKEND_BASE_URL).
	IAM struct {
		BaseURL string        `yaml:"base_url"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"iam"`

	Session struct {
		CookieName string        `yaml:"cookie_name"`
		JWTSecret  string        `yaml:"jwt_secret"`
		Issuer     string        `yaml:"issuer"`
		CacheTTL   time.Duration `yaml:"cache_ttl"`
	} `yaml:"session"`

	Rate struct {
		Enabled     bool          `yaml:"enabled"`
		Window      time.Duration `yaml:"window"`
		MaxRequests int           `yaml:"max_requests"`
	} `yaml:"rate"`

	Redis struct {
		Addr   string `yaml:"addr"`
		DB     int    `yaml:"db"`
		Prefix string `yaml:"prefix"`
	} `yaml:"redis"`

	Actions struct {
		DeactivateMode string `yaml:"deactivate_mode"`
	} `yaml:"actions"`

	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
}

// Load lee el YAML en path (si existe), aplica defaults, overrides por env y valida.
// Un path vacío o inexistente no es error: se parte de la config vacía.
func Load(path string) (*Config, error) {
	var c Config

	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, &c); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		case errors.Is(err, fs.ErrNotExist):
			// sin archivo: defaults + env
		default:
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	// Overrides por env antes de defaults para que "vacío en env" no pise defaults.
	c.applyEnvOverrides()
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 15 * time.Second
	}
	if c.Server.MaxFormBytes == 0 {
		c.Server.MaxFormBytes = 1 << 20
	}
	if c.IAM.Timeout == 0 {
		c.IAM.Timeout = 30 * time.Second
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = "sid"
	}
	if c.Session.CacheTTL == 0 {
		c.Session.CacheTTL = time.Minute
	}
	if c.Rate.Window == 0 {
		c.Rate.Window = time.Minute
	}
	if c.Rate.MaxRequests == 0 {
		c.Rate.MaxRequests = 60
	}
	if c.Redis.Prefix == "" {
		c.Redis.Prefix = "userpanel:rl:"
	}
	if c.Actions.DeactivateMode == "" {
		c.Actions.DeactivateMode = DeactivateNotImplemented
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

// Validate chequea consistencia mínima de la configuración.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.IAM.BaseURL) == "" {
		return errors.New("config: iam.base_url (HYPERSCAL_BACKEND_BASE_URL) is required")
	}
	u, err := url.Parse(c.IAM.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("config: iam.base_url must be an absolute URL, got %q", c.IAM.BaseURL)
	}
	switch c.Actions.DeactivateMode {
	case DeactivateNotImplemented, DeactivateStub, DeactivateBackend:
	default:
		return fmt.Errorf("config: actions.deactivate_mode must be one of %s|%s|%s, got %q",
			DeactivateNotImplemented, DeactivateStub, DeactivateBackend, c.Actions.DeactivateMode)
	}
	if c.Rate.Enabled && c.Rate.MaxRequests < 0 {
		return errors.New("config: rate.max_requests must be positive")
	}
	// Sin secret el verifier acepta cualquier token: solo en dev.
	if !strings.EqualFold(c.App.Env, "dev") && strings.TrimSpace(c.Session.JWTSecret) == "" {
		return fmt.Errorf("config: session.jwt_secret is required outside dev (app_env=%s)", c.App.Env)
	}
	return nil
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

func getEnvInt64(key string) (int64, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
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

func getEnvDur(key string) (time.Duration, bool) {
	if s, ok := getEnvStr(key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(s)); err == nil {
			return d, true
		}
	}
	return 0, false
}

func getEnvCSV(key string) ([]string, bool) {
	if s, ok := getEnvStr(key); ok {
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out, true
	}
	return nil, false
}

// applyEnvOverrides pisa config.yaml con variables de entorno.
func (c *Config) applyEnvOverrides() {
	// APP
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("APP_VERSION"); ok {
		c.App.Version = v
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = v
	}

	// SERVER
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvCSV("SERVER_CORS_ALLOWED_ORIGINS"); ok {
		c.Server.CORSAllowedOrigins = v
	}
	if v, ok := getEnvDur("SERVER_SHUTDOWN_TIMEOUT"); ok {
		c.Server.ShutdownTimeout = v
	}
	if v, ok := getEnvInt64("SERVER_MAX_FORM_BYTES"); ok {
		c.Server.MaxFormBytes = v
	}
	if v, ok := getEnvBool("SERVER_TRUST_PROXY_HEADERS"); ok {
		c.Server.TrustProxyHeaders = v
	}

	// IAM
	if v, ok := getEnvStr("HYPERSCAL_BACKEND_BASE_URL"); ok {
		c.IAM.BaseURL = strings.TrimRight(v, "/")
	}
	if v, ok := getEnvDur("IAM_TIMEOUT"); ok {
		c.IAM.Timeout = v
	}

	// SESSION
	if v, ok := getEnvStr("SESSION_COOKIE_NAME"); ok {
		c.Session.CookieName = v
	}
	if v, ok := getEnvStr("SESSION_JWT_SECRET"); ok {
		c.Session.JWTSecret = v
	}
	if v, ok := getEnvStr("SESSION_ISSUER"); ok {
		c.Session.Issuer = v
	}
	if v, ok := getEnvDur("SESSION_CACHE_TTL"); ok {
		c.Session.CacheTTL = v
	}

	// RATE
	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
	if v, ok := getEnvDur("RATE_WINDOW"); ok {
		c.Rate.Window = v
	}
	if v, ok := getEnvInt("RATE_MAX_REQUESTS"); ok {
		c.Rate.MaxRequests = v
	}

	// REDIS
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Redis.Addr = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Redis.DB = v
	}
	if v, ok := getEnvStr("REDIS_PREFIX"); ok {
		c.Redis.Prefix = v
	}

	// ACTIONS
	if v, ok := getEnvStr("ACTIONS_DEACTIVATE_MODE"); ok {
		c.Actions.DeactivateMode = strings.ToLower(strings.TrimSpace(v))
	}

	// METRICS
	if v, ok := getEnvBool("METRICS_ENABLED"); ok {
		c.Metrics.Enabled = v
	}
}
