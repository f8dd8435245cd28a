package cipher

import (
	"fmt"
	"strconv"
	"strings"

	"BehindThePicture/pkg/codec"
	"BehindThePicture/pkg/models"
	"BehindThePicture/pkg/scheduler"
)

const (
	blockDigits  = 4
	blockModulus = 65536
)

// MultiplicativeCipher multiplies every character code by a password-derived key modulo 65536
// and writes each product as four hex digits.
//
// Decryption searches 0-255 for the first code whose product matches a block. The key is not
// forced to be odd, so when it is a multiple of 512 several codes share a product and the
// search returns the smallest of them instead of the original character.
type MultiplicativeCipher struct{}

// KeyNum returns the multiplier derived from password, in [100, 1100)
func KeyNum(password string) int {
	return int(scheduler.Seed(password)%1000) + 100
}

// Mode implements Cipher
func (MultiplicativeCipher) Mode() Mode { return ModeB }

// Encrypt implements Cipher
func (MultiplicativeCipher) Encrypt(text, password string) (string, error) {
	raw, err := codec.ToLatin1(text)
	if err != nil {
		return "", err
	}

	key := KeyNum(password)
	var sb strings.Builder
	sb.Grow(len(raw) * blockDigits)
	for _, c := range raw {
		fmt.Fprintf(&sb, "%04x", (int(c)*key)%blockModulus)
	}
	return sb.String(), nil
}

// Decrypt implements Cipher
func (MultiplicativeCipher) Decrypt(encoded, password string) (string, error) {
	if len(encoded)%blockDigits != 0 {
		return "", fmt.Errorf("%w: payload length %d is not a multiple of %d",
			models.ErrDecryptionFailed, len(encoded), blockDigits)
	}

	key := KeyNum(password)
	raw := make([]byte, 0, len(encoded)/blockDigits)
	for i := 0; i < len(encoded); i += blockDigits {
		block := encoded[i : i+blockDigits]
		value, err := strconv.ParseUint(block, 16, 32)
		if err != nil {
			return "", fmt.Errorf("%w: bad block %q", models.ErrDecryptionFailed, block)
		}

		c, ok := invert(int(value), key)
		if !ok {
			return "", fmt.Errorf("%w: no character maps to block %q", models.ErrDecryptionFailed, block)
		}
		raw = append(raw, c)
	}
	return codec.FromLatin1(raw), nil
}

// invert finds the first code in [0,256) whose product with key matches value
func invert(value, key int) (byte, bool) {
	for candidate := 0; candidate < 256; candidate++ {
		if (candidate*key)%blockModulus == value {
			return byte(candidate), true
		}
	}
	return 0, false
}
