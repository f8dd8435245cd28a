package codec

import (
	"fmt"
	"strings"

	"BehindThePicture/pkg/models"
)

/*
bitstream.go converts text to and from the bit sequence that is hidden in pixel LSBs.
Every character is one byte, written most significant bit first. Only code points
0-255 can be represented; EncodeText rejects anything above that.
The envelope wraps an encoded payload as "tag:payload|||END|||" so the extractor
knows where the message stops and which cipher produced it.
*/

// Terminator marks the end of an envelope
const Terminator = "|||END|||"

// BitsPerChar is the number of bits used for every envelope character
const BitsPerChar = 8

// MaxMessageLength is the longest plaintext, in characters, that can be hidden
const MaxMessageLength = 500

// DefaultScanBits bounds how many bits an extractor reads while looking for the terminator
const DefaultScanBits = MaxMessageLength * BitsPerChar * 2

// ToLatin1 converts s to one byte per character
func ToLatin1(s string) ([]byte, error) {
	out := make([]byte, 0, len(s))
	for i, r := range s {
		if r > 0xFF {
			return nil, fmt.Errorf("%w: %q at byte offset %d", models.ErrUnsupportedCharacter, r, i)
		}
		out = append(out, byte(r))
	}
	return out, nil
}

// FromLatin1 maps every byte to the character with the same code point
func FromLatin1(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b))
	for _, c := range b {
		sb.WriteRune(rune(c))
	}
	return sb.String()
}

// EncodeText returns the bits of s, one element (0 or 1) per bit
func EncodeText(s string) ([]byte, error) {
	raw, err := ToLatin1(s)
	if err != nil {
		return nil, err
	}

	bits := make([]byte, 0, len(raw)*BitsPerChar)
	for _, c := range raw {
		for shift := BitsPerChar - 1; shift >= 0; shift-- {
			bits = append(bits, (c>>uint(shift))&1)
		}
	}
	return bits, nil
}

// DecodeBits groups bits into bytes and returns the text they spell.
// A trailing partial group is dropped.
func DecodeBits(bits []byte) string {
	raw := make([]byte, 0, len(bits)/BitsPerChar)
	for i := 0; i+BitsPerChar <= len(bits); i += BitsPerChar {
		raw = append(raw, packByte(bits[i:i+BitsPerChar]))
	}
	return FromLatin1(raw)
}

// packByte folds eight bits, most significant first, into a byte
func packByte(bits []byte) byte {
	var c byte
	for _, b := range bits {
		c = c<<1 | (b & 1)
	}
	return c
}

// BuildEnvelope frames a cipher payload with its tag and the terminator
func BuildEnvelope(tag, payload string) string {
	return tag + ":" + payload + Terminator
}

// ParseEnvelope splits framed text into its tag and payload.
// Anything after the first terminator is ignored.
func ParseEnvelope(text string) (string, string, error) {
	if idx := strings.Index(text, Terminator); idx >= 0 {
		text = text[:idx]
	}

	tag, payload, found := strings.Cut(text, ":")
	if !found {
		return "", "", fmt.Errorf("%w: no tag separator", models.ErrInvalidEnvelope)
	}
	return tag, payload, nil
}
