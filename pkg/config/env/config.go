package env

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/code-payments/code-config-program/pkg/config"
	"github.com/code-payments/code-config-program/pkg/config/wrapper"
)

type conf struct {
	name string
}

// NewConfig returns a source for the environment variable named by the upper
// cased key. The variable is looked up on every Get and surrounding
// whitespace is ignored.
func NewConfig(key string) config.Config {
	return &conf{
		name: strings.ToUpper(key),
	}
}

// Get implements config.Config.Get
func (c *conf) Get(_ context.Context) (interface{}, error) {
	val, ok := os.LookupEnv(c.name)
	if !ok {
		return nil, config.ErrNoValue
	}

	val = strings.TrimSpace(val)
	if len(val) == 0 {
		return nil, config.ErrNoValue
	}
	return []byte(val), nil
}

// Shutdown implements config.Config.Shutdown
func (c *conf) Shutdown() {
}

func NewUint64Config(key string, defaultValue uint64) config.Uint64 {
	return wrapper.NewUint64Config(NewConfig(key), defaultValue)
}

func NewFloat64Config(key string, defaultValue float64) config.Float64 {
	return wrapper.NewFloat64Config(NewConfig(key), defaultValue)
}

func NewBoolConfig(key string, defaultValue bool) config.Bool {
	return wrapper.NewBoolConfig(NewConfig(key), defaultValue)
}

func NewDurationConfig(key string, defaultValue time.Duration) config.Duration {
	return wrapper.NewDurationConfig(NewConfig(key), defaultValue)
}
