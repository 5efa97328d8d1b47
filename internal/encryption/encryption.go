// internal/encryption/encryption.go
package encryption

import (
    "crypto/aes"
    "crypto/cipher"
    "crypto/rand"
    "encoding/hex"
    "errors"
    "fmt"
    "strings"
)

const (
    ivSize  = 16
    tagSize = 16
)

// ErrInvalidFormat means the stored value is not iv:tag:ciphertext hex.
var ErrInvalidFormat = errors.New("invalid encrypted text format")

// ErrDecryptFailed means the auth tag did not verify against the
// ciphertext and key. Never returns partial plaintext.
var ErrDecryptFailed = errors.New("decryption failed")

// Encrypt seals plaintext with AES-256-GCM under key, drawing a fresh
// random 16-byte IV per call. Output format: iv:tag:ciphertext, each
// segment hex encoded.
func Encrypt(key []byte, plaintext string) (string, error) {
    gcm, err := newGCM(key)
    if err != nil {
        return "", err
    }

    iv := make([]byte, ivSize)
    if _, err := rand.Read(iv); err != nil {
        return "", fmt.Errorf("failed to generate iv: %w", err)
    }

    // Seal appends the auth tag to the ciphertext
    sealed := gcm.Seal(nil, iv, []byte(plaintext), nil)
    ciphertext := sealed[:len(sealed)-tagSize]
    tag := sealed[len(sealed)-tagSize:]

    return hex.EncodeToString(iv) + ":" + hex.EncodeToString(tag) + ":" + hex.EncodeToString(ciphertext), nil
}

// Decrypt reverses Encrypt. It fails closed: malformed input returns
// ErrInvalidFormat, a bad tag returns ErrDecryptFailed.
func Decrypt(key []byte, encoded string) (string, error) {
    parts := strings.Split(encoded, ":")
    if len(parts) != 3 {
        return "", ErrInvalidFormat
    }

    iv, err := hex.DecodeString(parts[0])
    if err != nil || len(iv) != ivSize {
        return "", ErrInvalidFormat
    }
    tag, err := hex.DecodeString(parts[1])
    if err != nil || len(tag) != tagSize {
        return "", ErrInvalidFormat
    }
    ciphertext, err := hex.DecodeString(parts[2])
    if err != nil {
        return "", ErrInvalidFormat
    }

    gcm, err := newGCM(key)
    if err != nil {
        return "", err
    }

    plaintext, err := gcm.Open(nil, iv, append(ciphertext, tag...), nil)
    if err != nil {
        return "", ErrDecryptFailed
    }
    return string(plaintext), nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
    if len(key) != 32 {
        return nil, fmt.Errorf("encryption key must be 32 bytes, got %d", len(key))
    }
    block, err := aes.NewCipher(key)
    if err != nil {
        return nil, err
    }
    return cipher.NewGCMWithNonceSize(block, ivSize)
}
