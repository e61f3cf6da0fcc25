package watcher

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// WatchDelay is how long after Start the field watch arms. Storage
	// events are handled immediately; field events are dropped until the
	// delay fires.
	WatchDelay time.Duration `envconfig:"WATCH_DELAY" default:"1s"`
	// PropagateSettings merges recognized cross-session settings into the
	// record instead of only touching the update timestamp. Off by default:
	// touch-only is the long-standing behavior.
	PropagateSettings bool `envconfig:"PROPAGATE_SETTINGS" default:"false"`
	// AliasFile optionally points at a YAML file with extra field aliases.
	AliasFile string `envconfig:"ALIAS_FILE"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
