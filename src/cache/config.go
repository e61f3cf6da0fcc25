package cache

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Path of the sqlite file backing the local cache. Empty means keep the
	// cache in memory only.
	Path string `envconfig:"CACHE_PATH" default:"calcsync.db"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
