package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// EnvPrefix namespaces environment overrides, e.g. RINGROAD_NUM_LANES.
const EnvPrefix = "RINGROAD_"

// EnvKey returns the environment variable that overrides a parameter.
func EnvKey(name string) string {
	return EnvPrefix + strings.ToUpper(name)
}

// ApplyEnv overrides cfg from RINGROAD_* environment variables. When envFile
// is set it is loaded first; a missing file is not an error and variables
// already present in the environment win over the file.
func ApplyEnv(cfg *RunConfig, envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	for _, name := range FieldNames() {
		v, ok := os.LookupEnv(EnvKey(name))
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		if err := cfg.Set(name, v); err != nil {
			return fmt.Errorf("%s: %w", EnvKey(name), err)
		}
	}
	return cfg.Validate()
}
