// Package secrets resolves credentials from the environment with an OS
// keychain fallback, so API keys never have to live in the config file.
package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

// service groups jobscout's secrets in the OS keychain.
const service = "jobscout"

// Well-known secret names. Each doubles as the environment variable that
// overrides the keychain entry.
const (
	GeminiAPIKey = "GEMINI_API_KEY"
	OpenAIAPIKey = "OPENAI_API_KEY"
	NtfyTopic    = "NTFY_TOPIC"
)

// Resolve looks up the secret with the given name. An environment variable
// of the same name wins; otherwise the OS keychain is consulted.
func Resolve(name string) (string, error) {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v, nil
	}
	v, err := keyring.Get(service, name)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", fmt.Errorf("secret %s is not set in the environment or the keychain", name)
		}
		return "", fmt.Errorf("read %s from keychain: %w", name, err)
	}
	return strings.TrimSpace(v), nil
}

// Store writes the secret to the OS keychain.
func Store(name, value string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("secret name is empty")
	}
	if strings.TrimSpace(value) == "" {
		return errors.New("secret value is empty")
	}
	if err := keyring.Set(service, name, value); err != nil {
		return fmt.Errorf("store %s in keychain: %w", name, err)
	}
	return nil
}

// Delete removes the secret from the OS keychain. Deleting a secret that was
// never stored is not an error.
func Delete(name string) error {
	err := keyring.Delete(service, name)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("delete %s from keychain: %w", name, err)
	}
	return nil
}
