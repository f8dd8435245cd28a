package codec

import (
	"errors"
	"testing"

	"BehindThePicture/pkg/models"
)

func TestEncodeText_MSBFirst(t *testing.T) {
	bits, err := EncodeText("A")
	if err != nil {
		t.Fatalf("EncodeText: %v", err)
	}

	want := []byte{0, 1, 0, 0, 0, 0, 0, 1}
	if len(bits) != len(want) {
		t.Fatalf("expected %d bits, got %d", len(want), len(bits))
	}
	for i := range want {
		if bits[i] != want[i] {
			t.Errorf("bit %d: expected %d, got %d", i, want[i], bits[i])
		}
	}
}

func TestEncodeText_Latin1(t *testing.T) {
	bits, err := EncodeText("é")
	if err != nil {
		t.Fatalf("EncodeText: %v", err)
	}
	if len(bits) != 8 {
		t.Fatalf("expected one byte of bits for a Latin-1 character, got %d bits", len(bits))
	}
	if got := DecodeBits(bits); got != "é" {
		t.Errorf("expected é back, got %q", got)
	}
}

func TestEncodeText_RejectsWideCharacters(t *testing.T) {
	_, err := EncodeText("snow ☃")
	if !errors.Is(err, models.ErrUnsupportedCharacter) {
		t.Fatalf("expected ErrUnsupportedCharacter, got %v", err)
	}
}

func TestDecodeBits_DropsPartialByte(t *testing.T) {
	bits, err := EncodeText("hi")
	if err != nil {
		t.Fatalf("EncodeText: %v", err)
	}
	bits = append(bits, 1, 0, 1)

	if got := DecodeBits(bits); got != "hi" {
		t.Errorf("expected %q, got %q", "hi", got)
	}
}

func TestParseEnvelope(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		tag     string
		payload string
		wantErr error
	}{
		{name: "simple", text: BuildEnvelope("AES", "aGVsbG8="), tag: "AES", payload: "aGVsbG8="},
		{name: "trailing noise", text: "RSA:00ff" + Terminator + "garbage", tag: "RSA", payload: "00ff"},
		{name: "colon in payload", text: "AES:a:b" + Terminator, tag: "AES", payload: "a:b"},
		{name: "empty payload", text: "AES:" + Terminator, tag: "AES", payload: ""},
		{name: "no separator", text: "nothing here" + Terminator, wantErr: models.ErrInvalidEnvelope},
		{name: "separator after terminator", text: "abc" + Terminator + "x:y", wantErr: models.ErrInvalidEnvelope},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tag, payload, err := ParseEnvelope(tt.text)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tag != tt.tag || payload != tt.payload {
				t.Errorf("expected (%q, %q), got (%q, %q)", tt.tag, tt.payload, tag, payload)
			}
		})
	}
}

func TestEnvelopeBitsRoundTrip(t *testing.T) {
	envelope := BuildEnvelope("RSA", "1a2b3c4d")
	bits, err := EncodeText(envelope)
	if err != nil {
		t.Fatalf("EncodeText: %v", err)
	}
	if len(bits) != len(envelope)*BitsPerChar {
		t.Errorf("expected %d bits, got %d", len(envelope)*BitsPerChar, len(bits))
	}

	tag, payload, err := ParseEnvelope(DecodeBits(bits))
	if err != nil {
		t.Fatalf("ParseEnvelope: %v", err)
	}
	if tag != "RSA" || payload != "1a2b3c4d" {
		t.Errorf("unexpected envelope contents: %q %q", tag, payload)
	}
}
