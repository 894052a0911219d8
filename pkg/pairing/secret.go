package pairing

import (
	"crypto/rand"
	"fmt"
	"os"
)

// hostSecretSize is the raw key length used for the pairing/token HMAC
// key (SPEC_FULL.md §3 PersistedHostSecret).
const hostSecretSize = 32

// LoadOrCreateHostSecret reads a 32-byte secret from path, generating and
// persisting a new random one if the file doesn't exist yet.
func LoadOrCreateHostSecret(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		if len(data) != hostSecretSize {
			return nil, fmt.Errorf("pairing: host secret at %s has wrong length %d, want %d", path, len(data), hostSecretSize)
		}
		return data, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("pairing: read host secret: %w", err)
	}

	secret := make([]byte, hostSecretSize)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("pairing: generate host secret: %w", err)
	}
	if err := os.WriteFile(path, secret, 0o600); err != nil {
		return nil, fmt.Errorf("pairing: persist host secret: %w", err)
	}
	return secret, nil
}
