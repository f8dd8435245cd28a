package lsb

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"strings"
	"unicode/utf8"

	"BehindThePicture/pkg/cipher"
	"BehindThePicture/pkg/codec"
	"BehindThePicture/pkg/extractor"
	"BehindThePicture/pkg/filehandler"
	"BehindThePicture/pkg/models"
	"BehindThePicture/pkg/pixels"
	"BehindThePicture/pkg/scheduler"
)

// Algorithm identifies the keyed LSB scheme in results
const Algorithm = "lsb-keyed"

// minScanBits is the length at which the terminator check starts
const minScanBits = 64

var terminator = []byte(codec.Terminator)

// LSBExtractor implements the ImageExtractor interface for password-keyed LSB steganography
type LSBExtractor struct {
	extractor.BaseExtractor
}

// NewLSBExtractor creates a new keyed LSB extractor
func NewLSBExtractor() *LSBExtractor {
	formats := []string{"png", "bmp", "tiff", "gif", "webp"}
	algorithms := []string{Algorithm}
	base := extractor.NewBaseExtractor("Keyed LSB Extractor", formats, algorithms)

	return &LSBExtractor{
		BaseExtractor: base,
	}
}

// Extract implements the DataExtractor interface
func (e *LSBExtractor) Extract(filePath string, options extractor.ExtractionOptions) (*models.ExtractionResult, error) {
	img, info, err := filehandler.LoadImage(filePath)
	if err != nil {
		return nil, err
	}

	result, err := e.ExtractFromImage(img, options)
	if err != nil {
		return nil, err
	}
	result.Filename = info.Name
	result.FileType = info.Format

	return result, nil
}

// ExtractFromImage implements the ImageExtractor interface
func (e *LSBExtractor) ExtractFromImage(img image.Image, options extractor.ExtractionOptions) (*models.ExtractionResult, error) {
	if img == nil {
		return nil, errors.New("nil image provided")
	}

	buf, err := pixels.FromImage(img)
	if err != nil {
		return nil, err
	}

	mode, message, bitsRead, err := scan(buf, options.Password, options.MaxBits)
	if err != nil {
		return nil, err
	}

	return &models.ExtractionResult{
		Success:   true,
		Algorithm: Algorithm,
		Message:   message,
		DataSize:  utf8.RuneCountInString(message),
		Details: map[string]interface{}{
			"mode":            string(mode),
			"label":           mode.Label(),
			"bits_read":       bitsRead,
			"printable_ratio": printableRatio(message),
		},
	}, nil
}

// Extract recovers the message hidden in buf with password
func Extract(buf *pixels.Buffer, password string) (string, error) {
	return ExtractWithLimit(buf, password, codec.DefaultScanBits)
}

// ExtractWithLimit is Extract with an explicit bound on the bits read; maxBits <= 0 selects the default
func ExtractWithLimit(buf *pixels.Buffer, password string, maxBits int) (string, error) {
	_, message, _, err := scan(buf, password, maxBits)
	return message, err
}

// scan reads LSBs in scheduler order until the terminator shows up, then
// decrypts the envelope. It also reports the mode and how many bits it read.
func scan(buf *pixels.Buffer, password string, maxBits int) (cipher.Mode, string, int, error) {
	if buf.Empty() || strings.TrimSpace(password) == "" {
		return "", "", 0, models.ErrMissingInput
	}
	if maxBits <= 0 {
		maxBits = codec.DefaultScanBits
	}
	// never ask the scheduler for more slots than the image has
	limit := min(maxBits, buf.Capacity())

	sched := scheduler.New(scheduler.Seed(password), buf.PixelCount())
	text := make([]byte, 0, limit/codec.BitsPerChar)
	var pending byte

	for bitsRead := 1; bitsRead <= limit; bitsRead++ {
		pos, ok := sched.Next()
		if !ok {
			break
		}
		pending = pending<<1 | buf.Pix[pos.Offset()]&1

		if bitsRead%codec.BitsPerChar != 0 {
			continue
		}
		text = append(text, pending)
		pending = 0

		if bitsRead < minScanBits || !bytes.HasSuffix(text, terminator) {
			continue
		}

		mode, message, err := open(codec.FromLatin1(text), password)
		return mode, message, bitsRead, err
	}

	return "", "", limit, fmt.Errorf("%w: no terminator within %d bits", models.ErrNoMessageFound, limit)
}

// open parses a terminated envelope and decrypts its payload
func open(envelope, password string) (cipher.Mode, string, error) {
	tag, payload, err := codec.ParseEnvelope(envelope)
	if err != nil {
		return "", "", err
	}

	c, err := cipher.ForTag(tag)
	if err != nil {
		return "", "", err
	}

	message, err := c.Decrypt(payload, password)
	if err != nil {
		return "", "", err
	}
	return c.Mode(), message, nil
}

// printableRatio is the share of printable characters, tab, LF and CR in s
func printableRatio(s string) float64 {
	if s == "" {
		return 0
	}

	printable, total := 0, 0
	for _, r := range s {
		total++
		if (r >= 32 && r != 127) || r == '\t' || r == '\n' || r == '\r' {
			printable++
		}
	}
	return float64(printable) / float64(total)
}
