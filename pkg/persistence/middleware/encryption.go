package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/dockwise/pkg/domain"
	"github.com/aretw0/dockwise/pkg/ports"
)

// EncryptedPrefix marks an encrypted environment value at rest.
const EncryptedPrefix = "enc:v1:"

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new data.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys is a list of old keys to try when decryption fails.
	// This enables zero-downtime key rotation.
	FallbackKeys [][]byte
}

type encryptionMiddleware struct {
	next   ports.SettingsStore
	config EncryptionConfig
}

// NewEncryptionMiddleware creates a middleware that encrypts the environment
// values of saved settings with AES-GCM. Image, name and ports stay readable
// so the store can still be listed and inspected.
func NewEncryptionMiddleware(config EncryptionConfig) Middleware {
	if len(config.ActiveKey) != 32 {
		panic("active key must be 32 bytes (AES-256)")
	}
	return func(next ports.SettingsStore) ports.SettingsStore {
		return &encryptionMiddleware{
			next:   next,
			config: config,
		}
	}
}

func (m *encryptionMiddleware) Save(ctx context.Context, settings domain.RunSettings) error {
	if len(settings.Env) > 0 {
		env := make(map[string]string, len(settings.Env))
		for k, v := range settings.Env {
			ciphertext, err := encrypt([]byte(v), m.config.ActiveKey)
			if err != nil {
				return fmt.Errorf("failed to encrypt %s: %w", k, err)
			}
			env[k] = EncryptedPrefix + base64.StdEncoding.EncodeToString(ciphertext)
		}
		settings.Env = env
	}
	return m.next.Save(ctx, settings)
}

func (m *encryptionMiddleware) Load(ctx context.Context, image string) (*domain.RunSettings, error) {
	stored, err := m.next.Load(ctx, image)
	if err != nil {
		return nil, err
	}
	if len(stored.Env) == 0 {
		return stored, nil
	}

	out := *stored
	out.Env = make(map[string]string, len(stored.Env))
	for k, v := range stored.Env {
		encoded, ok := strings.CutPrefix(v, EncryptedPrefix)
		if !ok {
			// Plain values are refused rather than trusted.
			return nil, fmt.Errorf("settings for %s hold unencrypted value %s", image, k)
		}
		ciphertext, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", k, err)
		}
		plain, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt %s: %w", k, err)
		}
		out.Env[k] = string(plain)
	}
	return &out, nil
}

func (m *encryptionMiddleware) Delete(ctx context.Context, image string) error {
	return m.next.Delete(ctx, image)
}

func (m *encryptionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithRotation(ciphertext []byte, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	if plain, err := decrypt(ciphertext, activeKey); err == nil {
		return plain, nil
	}
	for _, key := range fallbackKeys {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}
	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce := ciphertext[:gcm.NonceSize()]
	return gcm.Open(nil, nonce, ciphertext[gcm.NonceSize():], nil)
}
