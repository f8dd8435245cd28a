package cipher

import (
	"errors"
	"strings"
	"testing"

	"BehindThePicture/pkg/models"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
	}{
		{"AES", ModeA},
		{"aes-256", ModeA},
		{"a", ModeA},
		{"RSA", ModeB},
		{" RSA-2048 ", ModeB},
		{"b", ModeB},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if err != nil {
			t.Errorf("ParseMode(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if _, err := ParseMode("DES"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestModeLabels(t *testing.T) {
	if ModeA.Label() != "AES-256" {
		t.Errorf("unexpected label %q", ModeA.Label())
	}
	if ModeB.Label() != "RSA-2048" {
		t.Errorf("unexpected label %q", ModeB.Label())
	}
}

func TestKeystreamCipher_KnownVector(t *testing.T) {
	got, err := KeystreamCipher{}.Encrypt("hello", "secret123")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if got != "FBgSExc=" {
		t.Errorf("expected FBgSExc=, got %q", got)
	}
}

func TestMultiplicativeCipher_KnownVector(t *testing.T) {
	if k := KeyNum("secret123"); k != 760 {
		t.Fatalf("expected keyNum 760, got %d", k)
	}

	got, err := MultiplicativeCipher{}.Encrypt("hello", "secret123")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if got != "34c02bd840a040a04988" {
		t.Errorf("unexpected ciphertext %q", got)
	}
}

func TestRoundTrip(t *testing.T) {
	messages := []string{
		"hello",
		"The quick brown fox jumps over the lazy dog.",
		"línea con acentos: ñ, ü, é",
		strings.Repeat("x", 500),
	}

	for _, mode := range Modes() {
		c, err := ForMode(mode)
		if err != nil {
			t.Fatalf("ForMode(%s): %v", mode, err)
		}
		if c.Mode() != mode {
			t.Errorf("cipher for %s reports mode %s", mode, c.Mode())
		}

		for _, msg := range messages {
			encoded, err := c.Encrypt(msg, "secret123")
			if err != nil {
				t.Fatalf("%s Encrypt(%q): %v", mode, msg, err)
			}
			decoded, err := c.Decrypt(encoded, "secret123")
			if err != nil {
				t.Fatalf("%s Decrypt: %v", mode, err)
			}
			if decoded != msg {
				t.Errorf("%s round trip mismatch: got %q, want %q", mode, decoded, msg)
			}
		}
	}
}

func TestEncrypt_RejectsWideCharacters(t *testing.T) {
	for _, mode := range Modes() {
		c, _ := ForMode(mode)
		if _, err := c.Encrypt("日本", "pw"); !errors.Is(err, models.ErrUnsupportedCharacter) {
			t.Errorf("%s: expected ErrUnsupportedCharacter, got %v", mode, err)
		}
	}
}

func TestKeystreamCipher_BadBase64(t *testing.T) {
	_, err := KeystreamCipher{}.Decrypt("not base64!!", "pw")
	if !errors.Is(err, models.ErrDecryptionFailed) {
		t.Fatalf("expected ErrDecryptionFailed, got %v", err)
	}
}

func TestMultiplicativeCipher_BadPayloads(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"short block", "34c"},
		{"not hex", "zzzz"},
		// keyNum 760 only produces multiples of 8
		{"unreachable value", "0001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MultiplicativeCipher{}.Decrypt(tt.payload, "secret123")
			if !errors.Is(err, models.ErrDecryptionFailed) {
				t.Fatalf("expected ErrDecryptionFailed, got %v", err)
			}
		})
	}
}

// A key that is a multiple of 512 maps several codes to one block; decryption
// returns the smallest of them.
func TestMultiplicativeCipher_NonInjectiveKey(t *testing.T) {
	const password = "pw409"
	if k := KeyNum(password); k != 1024 {
		t.Fatalf("expected keyNum 1024 for %q, got %d", password, k)
	}

	encoded, err := MultiplicativeCipher{}.Encrypt("A", password)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	decoded, err := MultiplicativeCipher{}.Decrypt(encoded, password)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if decoded != "\x01" {
		t.Errorf("expected the colliding code 0x01, got %q", decoded)
	}
}

func TestForTag(t *testing.T) {
	if _, err := ForTag("AES"); err != nil {
		t.Errorf("ForTag(AES): %v", err)
	}
	if _, err := ForTag("XYZ"); !errors.Is(err, models.ErrDecryptionFailed) {
		t.Errorf("expected ErrDecryptionFailed for unknown tag, got %v", err)
	}
}
