package lsb

import (
	"errors"
	"math/rand"
	"path/filepath"
	"strings"
	"testing"

	"BehindThePicture/pkg/cipher"
	"BehindThePicture/pkg/codec"
	embedlsb "BehindThePicture/pkg/embedder/image/lsb"
	"BehindThePicture/pkg/extractor"
	"BehindThePicture/pkg/filehandler"
	"BehindThePicture/pkg/models"
	"BehindThePicture/pkg/pixels"
	"BehindThePicture/pkg/scheduler"
)

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

// writeRaw hides text verbatim, without a cipher, at the positions password selects
func writeRaw(t *testing.T, buf *pixels.Buffer, password, text string) {
	t.Helper()

	bits, err := codec.EncodeText(text)
	if err != nil {
		t.Fatalf("EncodeText: %v", err)
	}
	positions := scheduler.Positions(scheduler.Seed(password), buf.PixelCount(), len(bits))
	if len(positions) != len(bits) {
		t.Fatalf("buffer too small for %d bits", len(bits))
	}
	for i, pos := range positions {
		off := pos.Offset()
		buf.Pix[off] = buf.Pix[off]&0xFE | bits[i]
	}
}

func TestExtract_HelloRoundTrip(t *testing.T) {
	buf := noiseBuffer(100, 100, 1)

	stego, err := embedlsb.Embed(buf, "secret123", cipher.ModeA, "hello")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}

	got, err := Extract(stego, "secret123")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got != "hello" {
		t.Errorf("expected %q, got %q", "hello", got)
	}
}

func TestExtract_RoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		mode     cipher.Mode
		password string
		message  string
	}{
		{"mode A single char", cipher.ModeA, "p", "x"},
		{"mode A sentence", cipher.ModeA, "correct horse", "Meet me at the old bridge at 9."},
		{"mode A latin-1", cipher.ModeA, "clave", "¿Dónde está la biblioteca?"},
		{"mode A max length", cipher.ModeA, "password", strings.Repeat("0123456789", 50)},
		{"mode B sentence", cipher.ModeB, "secret123", "Meet me at the old bridge at 9."},
		{"mode B long", cipher.ModeB, "hunter2", strings.Repeat("abc", 70)},
		{"mode B with separators", cipher.ModeB, "secret123", "a:b|c|||d"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stego, err := embedlsb.Embed(noiseBuffer(100, 100, 2), tt.password, tt.mode, tt.message)
			if err != nil {
				t.Fatalf("Embed: %v", err)
			}

			got, err := Extract(stego, tt.password)
			if err != nil {
				t.Fatalf("Extract: %v", err)
			}
			if got != tt.message {
				t.Errorf("expected %q, got %q", tt.message, got)
			}
		})
	}
}

func TestExtract_WrongPassword(t *testing.T) {
	stego, err := embedlsb.Embed(noiseBuffer(100, 100, 3), "secret123", cipher.ModeA, "hello")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}

	got, err := Extract(stego, "wrongpass")
	if err == nil {
		t.Fatalf("expected failure with the wrong password, got %q", got)
	}
	if !errors.Is(err, models.ErrNoMessageFound) && !errors.Is(err, models.ErrDecryptionFailed) {
		t.Errorf("expected ErrNoMessageFound or ErrDecryptionFailed, got %v", err)
	}
}

func TestExtract_MissingInput(t *testing.T) {
	if _, err := Extract(nil, "pw"); !errors.Is(err, models.ErrMissingInput) {
		t.Errorf("expected ErrMissingInput for nil buffer, got %v", err)
	}
	if _, err := Extract(noiseBuffer(4, 4, 4), " "); !errors.Is(err, models.ErrMissingInput) {
		t.Errorf("expected ErrMissingInput for blank password, got %v", err)
	}
}

func TestExtract_SmallCleanImageTerminates(t *testing.T) {
	// 300 slots, well under the default scan limit
	_, err := Extract(noiseBuffer(10, 10, 5), "secret123")
	if !errors.Is(err, models.ErrNoMessageFound) {
		t.Fatalf("expected ErrNoMessageFound, got %v", err)
	}
}

func TestExtract_MalformedEnvelopes(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr error
	}{
		{"no separator", "nothing to see" + codec.Terminator, models.ErrInvalidEnvelope},
		{"bad base64", "AES:@@@@ not base64" + codec.Terminator, models.ErrDecryptionFailed},
		{"bad hex", "RSA:zzzzzzzz" + codec.Terminator, models.ErrDecryptionFailed},
		{"unknown tag", "DES:0000" + codec.Terminator, models.ErrDecryptionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := noiseBuffer(60, 60, 6)
			writeRaw(t, buf, "pw", tt.raw)

			_, err := Extract(buf, "pw")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestExtract_IgnoresDataAfterTerminator(t *testing.T) {
	buf := noiseBuffer(60, 60, 7)
	encoded, err := cipher.KeystreamCipher{}.Encrypt("first", "pw")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	writeRaw(t, buf, "pw", codec.BuildEnvelope("AES", encoded)+"AES:trailing"+codec.Terminator)

	got, err := Extract(buf, "pw")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got != "first" {
		t.Errorf("expected %q, got %q", "first", got)
	}
}

func TestExtractWithLimit(t *testing.T) {
	message := strings.Repeat("m", 300)
	stego, err := embedlsb.EmbedWithOptions(noiseBuffer(200, 200, 8), "secret123", cipher.ModeB, message, embedlsb.Options{})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}

	// the Mode B envelope for 300 characters is 9704 bits, past the default limit
	if _, err := Extract(stego, "secret123"); !errors.Is(err, models.ErrNoMessageFound) {
		t.Fatalf("expected ErrNoMessageFound under the default limit, got %v", err)
	}

	got, err := ExtractWithLimit(stego, "secret123", 16000)
	if err != nil {
		t.Fatalf("ExtractWithLimit: %v", err)
	}
	if got != message {
		t.Error("message differs after extraction with a raised limit")
	}
}

func TestLSBExtractor_File(t *testing.T) {
	stego, err := embedlsb.Embed(noiseBuffer(80, 80, 9), "secret123", cipher.ModeB, "file based")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "stego.png")
	if err := filehandler.SaveImagePNG(path, stego.ToImage()); err != nil {
		t.Fatalf("SaveImagePNG: %v", err)
	}

	e := NewLSBExtractor()
	if e.CanExtract("jpeg") {
		t.Error("lossy formats cannot carry LSB data")
	}

	result, err := e.Extract(path, extractor.ExtractionOptions{Password: "secret123"})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !result.Success || result.Message != "file based" {
		t.Errorf("unexpected result %+v", result)
	}
	if result.Filename != "stego.png" || result.FileType != "png" {
		t.Errorf("unexpected file info %q %q", result.Filename, result.FileType)
	}
	if result.Details["label"] != "RSA-2048" {
		t.Errorf("expected RSA-2048 label, got %v", result.Details["label"])
	}
}

func TestRegistry(t *testing.T) {
	r := extractor.NewRegistry()
	r.Register(NewLSBExtractor())

	if got := r.GetExtractorByName("Keyed LSB Extractor", "png"); got == nil {
		t.Error("expected extractor registered for png")
	}
	if got := r.GetExtractorsForFormat("jpeg"); len(got) != 0 {
		t.Errorf("expected no jpeg extractors, got %d", len(got))
	}
	formats := r.GetSupportedFormats()
	if len(formats) != 5 || formats[0] != "bmp" {
		t.Errorf("unexpected formats %v", formats)
	}
}
