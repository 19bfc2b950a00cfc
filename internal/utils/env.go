package utils

import (
	"os"
	"strconv"
	"time"

	"github.com/yungbote/storyloom-backend/internal/logger"
)

// Env lookups never fail; a missing or malformed variable falls back to the
// given default, with a Debug line so a misspelled name is visible.

func GetEnv(key, fallback string, log *logger.Logger) string {
	val, ok := lookup(key, fallback, log)
	if !ok {
		return fallback
	}
	return val
}

func GetEnvAsInt(key string, fallback int, log *logger.Logger) int {
	val, ok := lookup(key, strconv.Itoa(fallback), log)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		if log != nil {
			log.Debug("Environment value is not an integer, using fallback", "env_var", key, "value", val, "fallback", fallback)
		}
		return fallback
	}
	return n
}

// GetEnvSeconds reads an integer number of seconds as a time.Duration.
func GetEnvSeconds(key string, fallback int, log *logger.Logger) time.Duration {
	return time.Duration(GetEnvAsInt(key, fallback, log)) * time.Second
}

func lookup(key, fallback string, log *logger.Logger) (string, bool) {
	val, ok := os.LookupEnv(key)
	if log == nil {
		return val, ok
	}
	if ok {
		log.Debug("Using environment value", "env_var", key, "value", val)
	} else {
		log.Debug("Environment variable not set, using fallback", "env_var", key, "fallback", fallback)
	}
	return val, ok
}
