// Package config loads application configuration from environment variables.
//
// It wraps github.com/joho/godotenv and github.com/caarlos0/env/v11: an optional
// .env file is read on first use, then the environment is parsed into any struct
// annotated with env tags. Every configuration type is parsed once per process
// and served from a cache afterwards.
//
//	var cfg struct {
//	    Addr string `env:"HTTP_ADDR" envDefault:":8080"`
//	}
//	if err := config.Load(&cfg); err != nil {
//	    log.Fatal(err)
//	}
//
// LoadEnv reads explicit .env files and ResetCache clears parsed values, which
// is mostly useful in tests.
package config
