package vault

import (
	"errors"
	"os"
)

var ErrNotFound = errors.New("secret not found")

type SecretStore interface {
	Get(key string) (string, error)
}

// EnvStore reads secrets from environment variables named Prefix+key.
type EnvStore struct{ Prefix string }

func (e EnvStore) Get(key string) (string, error) {
	if v := os.Getenv(e.Prefix + key); v != "" {
		return v, nil
	}
	return "", ErrNotFound
}

// StaticStore serves secrets already loaded elsewhere (config file). Empty
// values count as missing.
type StaticStore map[string]string

func (s StaticStore) Get(key string) (string, error) {
	if v := s[key]; v != "" {
		return v, nil
	}
	return "", ErrNotFound
}

// Chain returns the first hit.
type Chain []SecretStore

func (c Chain) Get(key string) (string, error) {
	for _, s := range c {
		if v, err := s.Get(key); err == nil {
			return v, nil
		}
	}
	return "", ErrNotFound
}
