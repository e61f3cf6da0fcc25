package auth

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	JWTSecret string        `envconfig:"JWT_SECRET" default:"calcsync-dev-secret"`
	TokenTTL  time.Duration `envconfig:"TOKEN_TTL" default:"720h"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
