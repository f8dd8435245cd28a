package lsb

import (
	"fmt"
	"image"
	"log/slog"
	"strings"
	"unicode/utf8"

	"BehindThePicture/pkg/cipher"
	"BehindThePicture/pkg/codec"
	"BehindThePicture/pkg/embedder"
	"BehindThePicture/pkg/filehandler"
	"BehindThePicture/pkg/models"
	"BehindThePicture/pkg/pixels"
	"BehindThePicture/pkg/scheduler"
)

// Algorithm identifies the keyed LSB scheme in results
const Algorithm = "lsb-keyed"

// Options tunes an embedding run
type Options struct {
	// ScanLimit is the bit budget of the extractor that will read the image back.
	// Longer envelopes are still embedded but a warning is logged. 0 disables the check.
	ScanLimit int
	Logger    *slog.Logger
}

// Embed hides message in a copy of buf and returns the copy.
// The input buffer is never modified.
func Embed(buf *pixels.Buffer, password string, mode cipher.Mode, message string) (*pixels.Buffer, error) {
	return EmbedWithOptions(buf, password, mode, message, Options{ScanLimit: codec.DefaultScanBits})
}

// EmbedWithOptions is Embed with explicit options
func EmbedWithOptions(buf *pixels.Buffer, password string, mode cipher.Mode, message string, opts Options) (*pixels.Buffer, error) {
	if buf.Empty() || strings.TrimSpace(password) == "" || strings.TrimSpace(message) == "" {
		return nil, models.ErrMissingInput
	}
	if n := utf8.RuneCountInString(message); n > codec.MaxMessageLength {
		return nil, fmt.Errorf("%w: %d characters, maximum %d", models.ErrMessageTooLong, n, codec.MaxMessageLength)
	}

	bits, err := EnvelopeBits(password, mode, message)
	if err != nil {
		return nil, err
	}
	if len(bits) > buf.Capacity() {
		return nil, fmt.Errorf("%w: message needs %d bits, image holds %d",
			models.ErrCapacityExceeded, len(bits), buf.Capacity())
	}

	if opts.ScanLimit > 0 && len(bits) > opts.ScanLimit {
		logger := opts.Logger
		if logger == nil {
			logger = slog.Default()
		}
		logger.Warn("envelope exceeds extraction scan limit, message will not be recoverable",
			"mode", mode.Label(),
			"envelope_bits", len(bits),
			"scan_limit", opts.ScanLimit,
		)
	}

	out := buf.Clone()
	sched := scheduler.New(scheduler.Seed(password), out.PixelCount())
	for _, bit := range bits {
		// capacity was checked above, so the scheduler cannot run dry
		pos, _ := sched.Next()
		off := pos.Offset()
		out.Pix[off] = out.Pix[off]&0xFE | bit
	}

	return out, nil
}

// EnvelopeBits returns the exact bit sequence Embed would write for these inputs
func EnvelopeBits(password string, mode cipher.Mode, message string) ([]byte, error) {
	c, err := cipher.ForMode(mode)
	if err != nil {
		return nil, err
	}

	encoded, err := c.Encrypt(message, password)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt message: %w", err)
	}

	return codec.EncodeText(codec.BuildEnvelope(string(c.Mode()), encoded))
}

// LSBEmbedder implements the ImageEmbedder interface for the keyed LSB scheme
type LSBEmbedder struct {
	embedder.BaseEmbedder
}

// NewLSBEmbedder creates a new keyed LSB embedder
func NewLSBEmbedder() *LSBEmbedder {
	formats := []string{"png", "bmp", "tiff", "jpeg", "gif", "webp"}
	return &LSBEmbedder{
		BaseEmbedder: embedder.NewBaseEmbedder("Keyed LSB Embedder", formats),
	}
}

// Embed implements the DataEmbedder interface
func (e *LSBEmbedder) Embed(inputPath, outputPath string, options embedder.EmbedOptions) (*models.EmbedResult, error) {
	img, _, err := filehandler.LoadImage(inputPath)
	if err != nil {
		return nil, err
	}

	out, result, err := e.EmbedImage(img, options)
	if err != nil {
		return nil, err
	}

	if outputPath == "" {
		outputPath = filehandler.StegoOutputPath(inputPath)
	}
	if err := filehandler.SaveImagePNG(outputPath, out); err != nil {
		return nil, err
	}
	result.OutputFile = outputPath

	return result, nil
}

// EmbedImage implements the ImageEmbedder interface
func (e *LSBEmbedder) EmbedImage(img image.Image, options embedder.EmbedOptions) (*image.NRGBA, *models.EmbedResult, error) {
	if img == nil {
		return nil, nil, models.ErrMissingInput
	}

	buf, err := pixels.FromImage(img)
	if err != nil {
		return nil, nil, err
	}

	out, err := EmbedWithOptions(buf, options.Password, options.Mode, options.Message, Options{
		ScanLimit: options.ScanLimit,
		Logger:    options.Logger,
	})
	if err != nil {
		return nil, nil, err
	}

	// EmbedWithOptions validated the inputs, so this cannot fail
	bits, _ := EnvelopeBits(options.Password, options.Mode, options.Message)

	result := &models.EmbedResult{
		Mode:          string(options.Mode),
		Label:         options.Mode.Label(),
		MessageLength: utf8.RuneCountInString(options.Message),
		EnvelopeBits:  len(bits),
		CapacityBits:  buf.Capacity(),
		UsagePercent:  float64(len(bits)) / float64(buf.Capacity()) * 100,
		Status:        fmt.Sprintf("Message encrypted with %s and hidden successfully!", options.Mode.Label()),
	}

	return out.ToImage(), result, nil
}
