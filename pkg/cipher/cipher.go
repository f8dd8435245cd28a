package cipher

import (
	"fmt"
	"strings"

	"BehindThePicture/pkg/models"
)

/*
cipher.go defines the two reversible text transforms that are applied to a message
before it is framed and hidden. Both are keyed by the scheduler seed of the password.

The transforms are obfuscation only. Their user-facing labels ("AES-256", "RSA-2048")
name cipher families they do not implement; the labels are kept because images and
clients already refer to them.
*/

// Mode selects a transform. Its value is the tag written into the envelope.
type Mode string

const (
	// ModeA is the byte XOR keystream transform, shown as "AES-256"
	ModeA Mode = "AES"
	// ModeB is the modular multiplicative transform, shown as "RSA-2048"
	ModeB Mode = "RSA"
)

// Label returns the name shown to users for the mode
func (m Mode) Label() string {
	switch m {
	case ModeA:
		return "AES-256"
	case ModeB:
		return "RSA-2048"
	default:
		return string(m)
	}
}

// Modes lists the supported modes in display order
func Modes() []Mode {
	return []Mode{ModeA, ModeB}
}

// ParseMode accepts an envelope tag ("AES"), a label ("AES-256") or a letter ("a")
func ParseMode(s string) (Mode, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "AES", "AES-256", "A", "MODEA":
		return ModeA, nil
	case "RSA", "RSA-2048", "B", "MODEB":
		return ModeB, nil
	default:
		return "", fmt.Errorf("unknown encryption mode %q", s)
	}
}

// Cipher is a reversible text transform keyed by a password
type Cipher interface {
	// Mode returns the envelope tag of the transform
	Mode() Mode

	// Encrypt converts plaintext into the string carried in the envelope
	Encrypt(text, password string) (string, error)

	// Decrypt reverses Encrypt; failures wrap models.ErrDecryptionFailed
	Decrypt(encoded, password string) (string, error)
}

var ciphers = map[Mode]Cipher{
	ModeA: KeystreamCipher{},
	ModeB: MultiplicativeCipher{},
}

// ForMode returns the cipher implementing m
func ForMode(m Mode) (Cipher, error) {
	c, ok := ciphers[m]
	if !ok {
		return nil, fmt.Errorf("no cipher registered for mode %q", m)
	}
	return c, nil
}

// ForTag returns the cipher for an envelope tag read back from an image.
// An unknown tag is reported as a decryption failure.
func ForTag(tag string) (Cipher, error) {
	c, ok := ciphers[Mode(tag)]
	if !ok {
		return nil, fmt.Errorf("%w: unknown envelope tag %q", models.ErrDecryptionFailed, tag)
	}
	return c, nil
}
