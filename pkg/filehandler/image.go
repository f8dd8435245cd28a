package filehandler

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"BehindThePicture/pkg/models"
	"BehindThePicture/pkg/pixels"
)

// DecodeImage decodes any registered image format from r
func DecodeImage(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	return img, format, nil
}

// LoadImage reads and decodes the image at filePath
func LoadImage(filePath string) (image.Image, *models.ImageInfo, error) {
	data, err := ReadFileBytes(filePath)
	if err != nil {
		return nil, nil, err
	}

	img, format, err := DecodeImage(bytes.NewReader(data))
	if err != nil {
		return nil, nil, err
	}

	return img, DescribeImage(filepath.Base(filePath), int64(len(data)), format, img), nil
}

// LoadBuffer reads the image at filePath into a pixel buffer
func LoadBuffer(filePath string) (*pixels.Buffer, *models.ImageInfo, error) {
	img, info, err := LoadImage(filePath)
	if err != nil {
		return nil, nil, err
	}

	buf, err := pixels.FromImage(img)
	if err != nil {
		return nil, nil, err
	}
	return buf, info, nil
}

// DescribeImage builds the summary shown next to an input image
func DescribeImage(name string, size int64, format string, img image.Image) *models.ImageInfo {
	info := &models.ImageInfo{
		Name:      name,
		Format:    format,
		Size:      size,
		HumanSize: humanize.Bytes(uint64(size)),
	}
	if img != nil {
		bounds := img.Bounds()
		info.Width = bounds.Dx()
		info.Height = bounds.Dy()
	}
	return info
}

// EncodePNG writes img as PNG. Output is always lossless so hidden bits survive.
func EncodePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	return nil
}

// SaveImagePNG writes img to filePath as PNG, creating the directory if needed
func SaveImagePNG(filePath string, img image.Image) error {
	var out bytes.Buffer
	if err := EncodePNG(&out, img); err != nil {
		return err
	}
	return SaveFile(out.Bytes(), filePath)
}

// StegoOutputPath derives the output name for an embedded copy of inputPath
func StegoOutputPath(inputPath string) string {
	dir := filepath.Dir(inputPath)
	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	return filepath.Join(dir, base+"_stego.png")
}
