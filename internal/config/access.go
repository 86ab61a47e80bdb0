package config

import (
	"crypto/subtle"
	"errors"
	"os"
	"strings"
)

// ErrAccessDenied is returned when the supplied key matches no configured key.
var ErrAccessDenied = errors.New("access denied: enter a valid access key")

// AccessRequired reports whether any access key is configured.
func (c *Config) AccessRequired() bool {
	for _, k := range c.AccessKeys {
		if strings.TrimSpace(k) != "" {
			return true
		}
	}
	return false
}

// CheckAccess compares key against the configured shared secrets.
// With no keys configured the gate is open.
func (c *Config) CheckAccess(key string) error {
	if !c.AccessRequired() {
		return nil
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return ErrAccessDenied
	}

	for _, want := range c.AccessKeys {
		want = strings.TrimSpace(want)
		if want == "" {
			continue
		}
		if subtle.ConstantTimeCompare([]byte(key), []byte(want)) == 1 {
			return nil
		}
	}

	return ErrAccessDenied
}

// SuppliedKey returns the key the user presented: the flag value when set,
// otherwise EnvAccessKey. Call it after Load so .env has been read.
func SuppliedKey(flag string) string {
	if key := strings.TrimSpace(flag); key != "" {
		return key
	}
	return strings.TrimSpace(os.Getenv(EnvAccessKey))
}
