package config

import "time"

// Config holds server configuration values, resolved from defaults, an
// optional config file, and environment variables in that order of
// increasing precedence.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`

	// ClientURLs is the CORS allow-list, parsed from the comma-separated
	// CLIENT_URL environment variable.
	ClientURLs []string `mapstructure:"client_url" yaml:"client_url"`

	// RedisURL configures the optional write-through room cache and
	// cross-process event fanout. Empty means in-memory-only operation.
	RedisURL string `mapstructure:"redis_url" yaml:"redis_url"`

	// DatabaseURL configures the optional external identity backend. Empty
	// means bearer tokens are not verified and every connection resolves to
	// a guest or connection identity.
	DatabaseURL string `mapstructure:"database_url" yaml:"database_url"`

	// JWTSecret is the key used to verify bearer tokens minted by the
	// identity service. Required when DatabaseURL is set.
	JWTSecret string `mapstructure:"jwt_secret" yaml:"jwt_secret"`

	// NodeEnv switches the HTTP router into release mode when set to
	// "production". CORS and the default config bootstrap are the same in
	// every environment.
	NodeEnv string `mapstructure:"node_env" yaml:"node_env"`

	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		ClientURLs:        []string{"http://localhost:3000"},
		NodeEnv:           "development",
		LogLevel:          "info",
	}
}

// Production reports whether NodeEnv requests hardened defaults.
func (c Config) Production() bool { return c.NodeEnv == "production" }

// IdentityBackendEnabled reports whether an external identity service is
// configured; when false, every bearer token fails verification and the
// Identity Resolver always demotes to guest or connection identity.
func (c Config) IdentityBackendEnabled() bool {
	return c.DatabaseURL != "" && c.JWTSecret != ""
}

// CacheEnabled reports whether the optional Redis-backed room cache and
// cross-process event fanout should be wired in.
func (c Config) CacheEnabled() bool { return c.RedisURL != "" }

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if len(other.ClientURLs) > 0 {
		c.ClientURLs = other.ClientURLs
	}
	if other.RedisURL != "" {
		c.RedisURL = other.RedisURL
	}
	if other.DatabaseURL != "" {
		c.DatabaseURL = other.DatabaseURL
	}
	if other.JWTSecret != "" {
		c.JWTSecret = other.JWTSecret
	}
	if other.NodeEnv != "" {
		c.NodeEnv = other.NodeEnv
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
}
