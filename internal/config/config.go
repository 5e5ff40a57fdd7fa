// Package config loads the portal configuration once at startup. Values come from
// built-in defaults, then an optional YAML file (PORTAL_CONFIG_FILE), then
// PORTAL_* environment variables. The resulting Config is treated as immutable.
package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// Config holds every tunable of the API process.
type Config struct {
	HTTPAddr string `yaml:"http_addr"`
	GRPCAddr string `yaml:"grpc_addr"`

	DatabaseDSN string `yaml:"database_dsn"`

	AuthSecret    string        `yaml:"auth_secret"`
	AuthAlgorithm string        `yaml:"auth_algorithm"`
	AuthIssuer    string        `yaml:"auth_issuer"`
	TokenTTL      time.Duration `yaml:"token_ttl"`

	RenderCompiler string        `yaml:"render_compiler"`
	RenderTimeout  time.Duration `yaml:"render_timeout"`
	RenderWorkers  int           `yaml:"render_workers"`
	RenderWorkDir  string        `yaml:"render_work_dir"`

	MaxUploadBytes int64 `yaml:"max_upload_bytes"`

	LoginRateBurst     int `yaml:"login_rate_burst"`
	LoginRatePerSecond int `yaml:"login_rate_per_second"`

	CORSOrigins []string `yaml:"cors_origins"`

	// TrustedProxies are CIDRs or addresses whose X-Forwarded-For is believed.
	TrustedProxies []string `yaml:"trusted_proxies"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Default returns the built-in configuration. AuthSecret is intentionally empty.
func Default() Config {
	return Config{
		HTTPAddr:           ":8000",
		AuthAlgorithm:      "HS256",
		AuthIssuer:         "confportal",
		TokenTTL:           90 * time.Minute,
		RenderCompiler:     "pdflatex",
		RenderTimeout:      60 * time.Second,
		RenderWorkers:      2,
		RenderWorkDir:      os.TempDir(),
		MaxUploadBytes:     20 << 20,
		LoginRateBurst:     10,
		LoginRatePerSecond: 1,
		CORSOrigins:        []string{"*"},
		LogLevel:           "info",
		LogFormat:          "json",
	}
}

// Load builds the configuration from defaults, the optional YAML file and the
// environment, then validates it.
func Load() (Config, error) {
	cfg := Default()
	if path := strings.TrimSpace(os.Getenv("PORTAL_CONFIG_FILE")); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.mergeEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if strings.TrimSpace(c.AuthSecret) == "" {
		return errors.New("config: PORTAL_AUTH_SECRET is required")
	}
	switch c.AuthAlgorithm {
	case "HS256", "HS384", "HS512":
	default:
		return fmt.Errorf("config: unsupported auth algorithm %q", c.AuthAlgorithm)
	}
	if c.TokenTTL <= 0 {
		return errors.New("config: token ttl must be positive")
	}
	if c.RenderTimeout <= 0 {
		return errors.New("config: render timeout must be positive")
	}
	if c.RenderWorkers <= 0 {
		return errors.New("config: render workers must be positive")
	}
	if strings.TrimSpace(c.RenderCompiler) == "" {
		return errors.New("config: render compiler is required")
	}
	if c.MaxUploadBytes <= 0 {
		return errors.New("config: max upload bytes must be positive")
	}
	if c.LoginRateBurst <= 0 || c.LoginRatePerSecond <= 0 {
		return errors.New("config: login rate limit must be positive")
	}
	for _, p := range c.TrustedProxies {
		if _, err := netip.ParsePrefix(p); err == nil {
			continue
		}
		if _, err := netip.ParseAddr(p); err != nil {
			return fmt.Errorf("config: trusted proxy %q is neither a CIDR nor an address", p)
		}
	}
	return nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	var file fileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return file.apply(c)
}

// fileConfig mirrors Config with string durations so the YAML file can say "90m".
type fileConfig struct {
	HTTPAddr           *string  `yaml:"http_addr"`
	GRPCAddr           *string  `yaml:"grpc_addr"`
	DatabaseDSN        *string  `yaml:"database_dsn"`
	AuthSecret         *string  `yaml:"auth_secret"`
	AuthAlgorithm      *string  `yaml:"auth_algorithm"`
	AuthIssuer         *string  `yaml:"auth_issuer"`
	TokenTTL           *string  `yaml:"token_ttl"`
	RenderCompiler     *string  `yaml:"render_compiler"`
	RenderTimeout      *string  `yaml:"render_timeout"`
	RenderWorkers      *int     `yaml:"render_workers"`
	RenderWorkDir      *string  `yaml:"render_work_dir"`
	MaxUploadBytes     *int64   `yaml:"max_upload_bytes"`
	LoginRateBurst     *int     `yaml:"login_rate_burst"`
	LoginRatePerSecond *int     `yaml:"login_rate_per_second"`
	CORSOrigins        []string `yaml:"cors_origins"`
	TrustedProxies     []string `yaml:"trusted_proxies"`
	LogLevel           *string  `yaml:"log_level"`
	LogFormat          *string  `yaml:"log_format"`
}

func (f fileConfig) apply(c *Config) error {
	setString(&c.HTTPAddr, f.HTTPAddr)
	setString(&c.GRPCAddr, f.GRPCAddr)
	setString(&c.DatabaseDSN, f.DatabaseDSN)
	setString(&c.AuthSecret, f.AuthSecret)
	setString(&c.AuthAlgorithm, f.AuthAlgorithm)
	setString(&c.AuthIssuer, f.AuthIssuer)
	setString(&c.RenderCompiler, f.RenderCompiler)
	setString(&c.RenderWorkDir, f.RenderWorkDir)
	setString(&c.LogLevel, f.LogLevel)
	setString(&c.LogFormat, f.LogFormat)
	if f.RenderWorkers != nil {
		c.RenderWorkers = *f.RenderWorkers
	}
	if f.MaxUploadBytes != nil {
		c.MaxUploadBytes = *f.MaxUploadBytes
	}
	if f.LoginRateBurst != nil {
		c.LoginRateBurst = *f.LoginRateBurst
	}
	if f.LoginRatePerSecond != nil {
		c.LoginRatePerSecond = *f.LoginRatePerSecond
	}
	if len(f.CORSOrigins) > 0 {
		c.CORSOrigins = f.CORSOrigins
	}
	if len(f.TrustedProxies) > 0 {
		c.TrustedProxies = f.TrustedProxies
	}
	if err := setDuration(&c.TokenTTL, f.TokenTTL, "token_ttl"); err != nil {
		return err
	}
	return setDuration(&c.RenderTimeout, f.RenderTimeout, "render_timeout")
}

func (c *Config) mergeEnv() error {
	envString(&c.HTTPAddr, "PORTAL_HTTP_ADDR")
	envString(&c.GRPCAddr, "PORTAL_GRPC_ADDR")
	envString(&c.DatabaseDSN, "PORTAL_PG_DSN")
	envString(&c.AuthSecret, "PORTAL_AUTH_SECRET")
	envString(&c.AuthAlgorithm, "PORTAL_AUTH_ALGORITHM")
	envString(&c.AuthIssuer, "PORTAL_AUTH_ISSUER")
	envString(&c.RenderCompiler, "PORTAL_RENDER_COMPILER")
	envString(&c.RenderWorkDir, "PORTAL_RENDER_WORK_DIR")
	envString(&c.LogLevel, "PORTAL_LOG_LEVEL")
	envString(&c.LogFormat, "PORTAL_LOG_FORMAT")
	if v := os.Getenv("PORTAL_CORS_ORIGINS"); v != "" {
		c.CORSOrigins = splitList(v)
	}
	if v := os.Getenv("PORTAL_TRUSTED_PROXIES"); v != "" {
		c.TrustedProxies = splitList(v)
	}
	if v := os.Getenv("PORTAL_ACCESS_TOKEN_EXPIRE_MINUTES"); v != "" {
		minutes, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: PORTAL_ACCESS_TOKEN_EXPIRE_MINUTES: %w", err)
		}
		c.TokenTTL = time.Duration(minutes) * time.Minute
	}
	if err := envDuration(&c.RenderTimeout, "PORTAL_RENDER_TIMEOUT"); err != nil {
		return err
	}
	if err := envInt(&c.RenderWorkers, "PORTAL_RENDER_WORKERS"); err != nil {
		return err
	}
	if err := envInt(&c.LoginRateBurst, "PORTAL_LOGIN_RATE_BURST"); err != nil {
		return err
	}
	if err := envInt(&c.LoginRatePerSecond, "PORTAL_LOGIN_RATE_PER_SECOND"); err != nil {
		return err
	}
	if v := os.Getenv("PORTAL_MAX_UPLOAD_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("config: PORTAL_MAX_UPLOAD_BYTES: %w", err)
		}
		c.MaxUploadBytes = n
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

func setDuration(dst *time.Duration, v *string, key string) error {
	if v == nil {
		return nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(*v))
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*dst = d
	return nil
}

func envString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		*dst = strings.TrimSpace(v)
	}
}

func envInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*dst = n
	return nil
}

func envDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*dst = d
	return nil
}
