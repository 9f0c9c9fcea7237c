package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/haukened/rr-doh/internal/dns/domain"
)

// AppConfig holds configuration values parsed from environment variables.
type AppConfig struct {
	// Env is the runtime environment, either "dev" or "prod".
	Env string `koanf:"env" validate:"required,oneof=dev prod"`

	// LogLevel controls log verbosity: "debug", "info", "warn", or "error".
	LogLevel string `koanf:"log_level" validate:"required,oneof=debug info warn error"`

	// Bind is the host:port the UDP listener binds to.
	Bind string `koanf:"bind" validate:"required,udp_addr"`

	// Upstream is the DoH endpoint queries are POSTed to.
	Upstream string `koanf:"upstream" validate:"required,doh_url"`

	// Proxy is an optional forward proxy for upstream requests
	// (http, https, socks5 or socks5h).
	Proxy string `koanf:"proxy" validate:"omitempty,proxy_url"`

	// Timeout bounds a single upstream exchange.
	Timeout time.Duration `koanf:"timeout" validate:"required,gt=0"`

	// MaxInflight is the number of datagrams processed concurrently.
	MaxInflight int `koanf:"max_inflight" validate:"required,gte=1,lte=65535"`
}

// DEFAULT_APP_CONFIG defines the default application configuration settings for the bridge.
var DEFAULT_APP_CONFIG = AppConfig{
	Env:         "prod",
	LogLevel:    "info",
	Bind:        "0.0.0.0:53",
	Upstream:    "https://cloudflare-dns.com/dns-query",
	Timeout:     5 * time.Second,
	MaxInflight: 256,
}

// validUDPAddr accepts "host:port" where host is empty, an IP literal or
// "localhost", and port is 0-65535.
func validUDPAddr(fl validator.FieldLevel) bool {
	host, port, err := net.SplitHostPort(fl.Field().String())
	if err != nil || port == "" {
		return false
	}
	if host != "" && host != "localhost" && net.ParseIP(host) == nil {
		return false
	}
	_, err = strconv.ParseUint(port, 10, 16)
	return err == nil
}

// validDoHURL accepts absolute http and https URLs with a host.
func validDoHURL(fl validator.FieldLevel) bool {
	u, err := url.Parse(fl.Field().String())
	if err != nil {
		return false
	}
	return u.IsAbs() && u.Host != "" && (u.Scheme == "https" || u.Scheme == "http")
}

// validProxyURL accepts http, https, socks5 and socks5h proxy URLs with a host.
func validProxyURL(fl validator.FieldLevel) bool {
	u, err := url.Parse(fl.Field().String())
	if err != nil || u.Host == "" {
		return false
	}
	switch u.Scheme {
	case "http", "https", "socks5", "socks5h":
		return true
	default:
		return false
	}
}

// envLoader is a function that loads environment variables with the prefix "DOH_".
// It transforms the keys to lowercase and removes the prefix,
// and can be mocked in tests.
var envLoader = func(k *koanf.Koanf) error {
	// Load environment variables with prefix "DOH_".
	return k.Load(env.Provider(".", env.Opt{
		Prefix: "DOH_",
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, "DOH_"))
			return key, strings.TrimSpace(value)
		},
	}), nil)
}

// defaultLoader loads default configuration values into the provided Koanf instance
// using the structs provider and the DEFAULT_APP_CONFIG struct. It returns an error
// if loading fails.
var defaultLoader = func(k *koanf.Koanf) error {
	// Load default values using structs provider.
	return k.Load(structs.Provider(DEFAULT_APP_CONFIG, "koanf"), nil)
}

// registerValidation registers the custom "udp_addr", "doh_url" and
// "proxy_url" tags with the provided validator.
var registerValidation = func(v *validator.Validate) error {
	for tag, fn := range map[string]validator.Func{
		"udp_addr":  validUDPAddr,
		"doh_url":   validDoHURL,
		"proxy_url": validProxyURL,
	} {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	return nil
}

// Load parses environment variables and returns an AppConfig instance.
// It applies default values and runs validation automatically.
// Every failure wraps domain.ErrConfig.
func Load() (*AppConfig, error) {
	k := koanf.New(".")

	// Load default values using structs provider.
	err := defaultLoader(k)
	if err != nil {
		return nil, fmt.Errorf("%w: error loading default config: %w", domain.ErrConfig, err)
	}

	err = envLoader(k)
	if err != nil {
		return nil, fmt.Errorf("%w: error loading env: %w", domain.ErrConfig, err)
	}

	var cfg AppConfig

	// Unmarshal the loaded configuration into AppConfig struct.
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("%w: error unmarshalling config: %w", domain.ErrConfig, err)
	}

	// Validate the configuration.
	validate := validator.New(validator.WithRequiredStructEnabled())

	err = registerValidation(validate)
	if err != nil {
		return nil, fmt.Errorf("%w: error registering validation: %w", domain.ErrConfig, err)
	}

	err = validate.Struct(&cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: validation failed: %w", domain.ErrConfig, err)
	}

	return &cfg, nil
}
