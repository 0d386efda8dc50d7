// Package config holds the command-line settings of both binaries. Values
// from the environment, optionally seeded from a .env file, only change
// flag defaults.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

const (
	EnvORTLib = "ONNXRUNTIME_LIB"
	EnvModel  = "TRACKER_MODEL"
	EnvDebug  = "DEBUG"
)

// LoadEnv reads path into the process environment without overriding
// variables that are already set. A missing file is not an error.
func LoadEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return errors.Wrapf(err, "load %s", path)
	}
	return nil
}

func envString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
