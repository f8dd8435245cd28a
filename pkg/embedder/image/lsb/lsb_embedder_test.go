package lsb

import (
	"bytes"
	"errors"
	"log/slog"
	"math/rand"
	"path/filepath"
	"strings"
	"testing"

	"BehindThePicture/pkg/cipher"
	"BehindThePicture/pkg/embedder"
	"BehindThePicture/pkg/filehandler"
	"BehindThePicture/pkg/models"
	"BehindThePicture/pkg/pixels"
)

// noiseBuffer returns an opaque buffer of uniform noise, reproducible for a given seed
func noiseBuffer(width, height int, seed int64) *pixels.Buffer {
	rng := rand.New(rand.NewSource(seed))
	buf := pixels.New(width, height)
	for i := range buf.Pix {
		if i%4 == 3 {
			buf.Pix[i] = 255
			continue
		}
		buf.Pix[i] = byte(rng.Intn(256))
	}
	return buf
}

func TestEnvelopeBits_Length(t *testing.T) {
	bits, err := EnvelopeBits("secret123", cipher.ModeA, "hello")
	if err != nil {
		t.Fatalf("EnvelopeBits: %v", err)
	}
	// "AES:FBgSExc=|||END|||"
	if len(bits) != 21*8 {
		t.Errorf("expected %d bits, got %d", 21*8, len(bits))
	}
}

func TestEmbed_MissingInput(t *testing.T) {
	buf := noiseBuffer(10, 10, 1)
	tests := []struct {
		name     string
		buf      *pixels.Buffer
		password string
		message  string
	}{
		{"nil buffer", nil, "pw", "msg"},
		{"empty buffer", pixels.New(0, 0), "pw", "msg"},
		{"no password", buf, "", "msg"},
		{"blank password", buf, "   ", "msg"},
		{"no message", buf, "pw", ""},
		{"blank message", buf, "pw", "\n\t"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Embed(tt.buf, tt.password, cipher.ModeA, tt.message)
			if !errors.Is(err, models.ErrMissingInput) {
				t.Fatalf("expected ErrMissingInput, got %v", err)
			}
		})
	}
}

func TestEmbed_LengthGate(t *testing.T) {
	buf := noiseBuffer(200, 200, 2)

	_, err := Embed(buf, "secret123", cipher.ModeA, strings.Repeat("a", 501))
	if !errors.Is(err, models.ErrMessageTooLong) {
		t.Fatalf("expected ErrMessageTooLong for 501 characters, got %v", err)
	}

	if _, err := Embed(buf, "secret123", cipher.ModeA, strings.Repeat("a", 500)); err != nil {
		t.Fatalf("500 characters should fit: %v", err)
	}
}

func TestEmbed_CapacityGate(t *testing.T) {
	buf := noiseBuffer(10, 10, 3)
	before := append([]byte(nil), buf.Pix...)

	// 20 characters encode to 28 base64 characters; the envelope needs 41*8 = 328 bits > 300
	_, err := Embed(buf, "secret123", cipher.ModeA, "twenty characters!!!")
	if !errors.Is(err, models.ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded, got %v", err)
	}
	if !bytes.Equal(before, buf.Pix) {
		t.Error("buffer was modified by a failed embed")
	}
}

func TestEmbed_RejectsWideCharacters(t *testing.T) {
	_, err := Embed(noiseBuffer(50, 50, 4), "pw", cipher.ModeB, "emoji 🙂")
	if !errors.Is(err, models.ErrUnsupportedCharacter) {
		t.Fatalf("expected ErrUnsupportedCharacter, got %v", err)
	}
}

func TestEmbed_OnlyTouchesRGBLowBits(t *testing.T) {
	buf := noiseBuffer(100, 100, 5)
	before := append([]byte(nil), buf.Pix...)

	out, err := Embed(buf, "secret123", cipher.ModeB, "only the low bits change")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if !bytes.Equal(before, buf.Pix) {
		t.Fatal("input buffer was modified")
	}
	if out.Width != buf.Width || out.Height != buf.Height || len(out.Pix) != len(buf.Pix) {
		t.Fatal("output dimensions differ from input")
	}

	bits, _ := EnvelopeBits("secret123", cipher.ModeB, "only the low bits change")
	changed := 0
	for i := range out.Pix {
		diff := out.Pix[i] ^ buf.Pix[i]
		if diff == 0 {
			continue
		}
		if i%4 == 3 {
			t.Fatalf("alpha byte %d changed", i)
		}
		if diff != 1 {
			t.Fatalf("byte %d changed beyond its LSB: %08b -> %08b", i, buf.Pix[i], out.Pix[i])
		}
		changed++
	}
	if changed == 0 || changed > len(bits) {
		t.Errorf("expected between 1 and %d changed bytes, got %d", len(bits), changed)
	}
}

func TestEmbed_WarnsPastScanLimit(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	// Mode B uses four characters per input character: 300 characters need 9704 bits
	_, err := EmbedWithOptions(noiseBuffer(200, 200, 6), "secret123", cipher.ModeB,
		strings.Repeat("m", 300), Options{ScanLimit: 8000, Logger: logger})
	if err != nil {
		t.Fatalf("EmbedWithOptions: %v", err)
	}
	if !strings.Contains(logs.String(), "scan limit") {
		t.Errorf("expected a scan limit warning, got %q", logs.String())
	}
}

func TestLSBEmbedder_EmbedFile(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "cover.png")
	if err := filehandler.SaveImagePNG(input, noiseBuffer(64, 64, 7).ToImage()); err != nil {
		t.Fatalf("SaveImagePNG: %v", err)
	}

	e := NewLSBEmbedder()
	if !e.CanEmbed("png") || e.CanEmbed("svg") {
		t.Error("unexpected format support")
	}

	result, err := e.Embed(input, "", embedder.EmbedOptions{
		Password: "secret123",
		Mode:     cipher.ModeA,
		Message:  "hello",
	})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}

	if result.OutputFile != filepath.Join(dir, "cover_stego.png") {
		t.Errorf("unexpected output file %q", result.OutputFile)
	}
	if result.Label != "AES-256" || result.EnvelopeBits != 168 || result.CapacityBits != 64*64*3 {
		t.Errorf("unexpected result %+v", result)
	}
	if !strings.Contains(result.Status, "AES-256") {
		t.Errorf("unexpected status %q", result.Status)
	}
	if _, _, err := filehandler.LoadImage(result.OutputFile); err != nil {
		t.Errorf("output does not decode: %v", err)
	}
}
