package embedder

import (
	"image"
	"log/slog"

	"BehindThePicture/pkg/cipher"
	"BehindThePicture/pkg/models"
)

// EmbedOptions contains the inputs of an embedding run
type EmbedOptions struct {
	Password string
	Mode     cipher.Mode
	Message  string
	// ScanLimit is the bit budget of the matching extractor; 0 disables the check
	ScanLimit int
	Logger    *slog.Logger
}

// DataEmbedder is the interface that all embedders must implement
type DataEmbedder interface {
	// CanEmbed checks if this embedder can read the given input format
	CanEmbed(format string) bool

	// Embed hides options.Message in the image at inputPath and writes a PNG to outputPath
	Embed(inputPath, outputPath string, options EmbedOptions) (*models.EmbedResult, error)

	// Name returns the name of the embedder
	Name() string

	// SupportedFormats returns the input formats this embedder accepts
	SupportedFormats() []string
}

// ImageEmbedder is an interface for embedders that work on decoded images
type ImageEmbedder interface {
	DataEmbedder

	// EmbedImage hides options.Message in img and returns the modified copy
	EmbedImage(img image.Image, options EmbedOptions) (*image.NRGBA, *models.EmbedResult, error)
}

// BaseEmbedder provides common functionality for embedders
type BaseEmbedder struct {
	name    string
	formats []string
}

// NewBaseEmbedder creates a new BaseEmbedder
func NewBaseEmbedder(name string, formats []string) BaseEmbedder {
	return BaseEmbedder{
		name:    name,
		formats: formats,
	}
}

// Name returns the embedder name
func (b *BaseEmbedder) Name() string {
	return b.name
}

// SupportedFormats returns the supported formats
func (b *BaseEmbedder) SupportedFormats() []string {
	return b.formats
}

// CanEmbed checks if the embedder supports the given format
func (b *BaseEmbedder) CanEmbed(format string) bool {
	for _, f := range b.formats {
		if f == format {
			return true
		}
	}
	return false
}
