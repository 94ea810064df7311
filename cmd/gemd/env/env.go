// Package env reads settings of the command line from a dotenv file and the environment.
package env

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

const (
	KeyProject      = "GEMD_PROJECT"
	KeyDataset      = "GEMD_DATASET"
	KeyRefreshToken = "GEMD_REFRESH_TOKEN"
	KeyLogLevel     = "GEMD_LOG_LEVEL"
)

// Env overrides values of the profile. Empty fields are not set.
type Env struct {
	Project      string
	Dataset      string
	RefreshToken string
	LogLevel     string
}

type options struct {
	lookup func(string) (string, bool)
}

type Option func(*options) *options

// WithLookup replaces os.LookupEnv.
func WithLookup(lookup func(string) (string, bool)) Option {
	return func(o *options) *options {
		o.lookup = lookup
		return o
	}
}

// Load reads the dotenv file at path, then the process environment.
//
// Environment variables take precedence over the file. A missing file is not an error.
func Load(path string, opts ...Option) (*Env, error) {
	o := &options{lookup: os.LookupEnv}
	for _, opt := range opts {
		o = opt(o)
	}

	vars := map[string]string{}
	if path != "" {
		v, err := godotenv.Read(path)
		switch {
		case err == nil:
			vars = v
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	get := func(key string) string {
		if v, ok := o.lookup(key); ok {
			return v
		}
		return vars[key]
	}

	return &Env{
		Project:      get(KeyProject),
		Dataset:      get(KeyDataset),
		RefreshToken: get(KeyRefreshToken),
		LogLevel:     get(KeyLogLevel),
	}, nil
}
