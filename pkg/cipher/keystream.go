package cipher

import (
	"encoding/base64"
	"fmt"

	"BehindThePicture/pkg/codec"
	"BehindThePicture/pkg/models"
	"BehindThePicture/pkg/scheduler"
)

// KeystreamCipher XORs every byte with the low byte of the seed and with its index mod 255,
// then base64-encodes the result
type KeystreamCipher struct{}

// Mode implements Cipher
func (KeystreamCipher) Mode() Mode { return ModeA }

// Encrypt implements Cipher
func (KeystreamCipher) Encrypt(text, password string) (string, error) {
	raw, err := codec.ToLatin1(text)
	if err != nil {
		return "", err
	}

	applyKeystream(raw, password)
	return base64.StdEncoding.EncodeToString(raw), nil
}

// Decrypt implements Cipher
func (KeystreamCipher) Decrypt(encoded, password string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrDecryptionFailed, err)
	}

	applyKeystream(raw, password)
	return codec.FromLatin1(raw), nil
}

// applyKeystream is its own inverse
func applyKeystream(buf []byte, password string) {
	key := byte(scheduler.Seed(password) % 256)
	for i := range buf {
		buf[i] ^= key ^ byte(i%255)
	}
}
