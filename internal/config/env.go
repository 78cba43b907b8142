package config

import (
	"fmt"
	"reflect"
	"time"

	"github.com/caarlos0/env/v11"
)

// ApplyEnv overrides fields tagged with `env` from the process environment.
// Unset variables leave the loaded values in place.
func (c *Config) ApplyEnv() error {
	opts := env.Options{
		FuncMap: map[reflect.Type]env.ParserFunc{
			reflect.TypeOf(Duration(0)): func(v string) (interface{}, error) {
				d, err := time.ParseDuration(v)
				if err != nil {
					return nil, err
				}
				return Duration(d), nil
			},
		},
	}
	if err := env.ParseWithOptions(c, opts); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
