package cookie

import "strings"

// Config holds cookie manager configuration
type Config struct {
	// Secrets is a comma separated list; the first one signs and encrypts, all of them verify.
	Secrets  string `env:"COOKIE_SECRETS,required"`
	Path     string `env:"COOKIE_PATH" envDefault:"/"`
	Domain   string `env:"COOKIE_DOMAIN" envDefault:""`
	Secure   bool   `env:"COOKIE_SECURE" envDefault:"false"`
	HttpOnly bool   `env:"COOKIE_HTTP_ONLY" envDefault:"true"`
	SameSite string `env:"COOKIE_SAME_SITE" envDefault:"lax"`
}

// DefaultConfig returns default cookie configuration
func DefaultConfig() Config {
	return Config{
		Path:     "/",
		HttpOnly: true,
		SameSite: "lax",
	}
}

// parseSecrets splits the secrets string into a slice
func (c Config) parseSecrets() []string {
	if c.Secrets == "" {
		return nil
	}

	parts := strings.Split(c.Secrets, ",")
	secrets := make([]string, 0, len(parts))
	for _, s := range parts {
		if s = strings.TrimSpace(s); s != "" {
			secrets = append(secrets, s)
		}
	}
	return secrets
}

// NewFromConfig creates a new Manager from the provided Config.
// Only non-zero values from the config are applied.
func NewFromConfig(cfg Config, opts ...Option) (*Manager, error) {
	configOpts := make([]Option, 0, 5+len(opts))

	if cfg.Path != "" {
		configOpts = append(configOpts, WithPath(cfg.Path))
	}
	if cfg.Domain != "" {
		configOpts = append(configOpts, WithDomain(cfg.Domain))
	}
	if cfg.Secure {
		configOpts = append(configOpts, WithSecure(true))
	}
	configOpts = append(configOpts, WithHTTPOnly(cfg.HttpOnly))
	if sameSite := ParseSameSite(cfg.SameSite); sameSite != 0 {
		configOpts = append(configOpts, WithSameSite(sameSite))
	}

	configOpts = append(configOpts, opts...)

	return New(cfg.parseSecrets(), configOpts...)
}
